package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"incentives/internal/domain"
)

// Config models incentives.yml.
type Config struct {
	Seed     SeedConfig      `yaml:"seed"`
	Catalogs domain.Catalogs `yaml:"catalogs"`
	Build    BuildConfig     `yaml:"build"`
	Publish  PublishConfig   `yaml:"publish"`
}

type SeedConfig struct {
	Seed             uint64       `yaml:"seed"`
	Start            string       `yaml:"start"`
	End              string       `yaml:"end"`
	StartJitterHours int          `yaml:"start_jitter_hours"`
	StartLevel       domain.Range `yaml:"start_level"`
	MaxEventsPerHero int          `yaml:"max_events_per_hero"`
	MaxActiveQuests  int          `yaml:"max_active_quests"`
	// MinAvailableQuests is the pool size below which completed quests
	// stay available to the hero.
	MinAvailableQuests int `yaml:"min_available_quests"`

	QuestReadyMinutes int `yaml:"quest_ready_minutes"`
	DungeonMinMinutes int `yaml:"dungeon_min_minutes"`
	BattleMinMinutes  int `yaml:"battle_min_minutes"`

	Chances Chances `yaml:"chances"`
	Weights Weights `yaml:"weights"`
	Offsets Offsets `yaml:"offsets"`

	IdleStep domain.Range `yaml:"idle_step"`
	Step     domain.Range `yaml:"step"`
	Rest     RestWindow   `yaml:"rest"`

	VictoryDamage domain.Range `yaml:"victory_damage"`
	RetreatDamage domain.Range `yaml:"retreat_damage"`
	PartyNumber   domain.Range `yaml:"party_number"`
	PartySize     domain.Range `yaml:"party_size"`
}

// Chances are per-step probabilities in [0,1].
type Chances struct {
	LevelUp float64 `yaml:"level_up"`
	Skill   float64 `yaml:"skill"`
	Party   float64 `yaml:"party"`
	Victory float64 `yaml:"victory"`
}

// Weights are relative draw weights. Zero disables an action.
type Weights struct {
	QuestAcceptedIdle  int `yaml:"quest_accepted_idle"`
	QuestAccepted      int `yaml:"quest_accepted"`
	QuestCompleted     int `yaml:"quest_completed"`
	ItemPickup         int `yaml:"item_pickup"`
	LevelUp            int `yaml:"level_up"`
	BattleStartDungeon int `yaml:"battle_start_dungeon"`
	BattleStart        int `yaml:"battle_start"`
	BattleEnd          int `yaml:"battle_end"`
	DungeonEnter       int `yaml:"dungeon_enter"`
	DungeonExit        int `yaml:"dungeon_exit"`
	SkillLearned       int `yaml:"skill_learned"`
	PartyJoin          int `yaml:"party_join"`
}

// Offsets are the minutes between the clock and a recorded event, per activity.
type Offsets struct {
	QuestAccepted  domain.Range `yaml:"quest_accepted"`
	QuestCompleted domain.Range `yaml:"quest_completed"`
	ItemPickup     domain.Range `yaml:"item_pickup"`
	LevelUp        domain.Range `yaml:"level_up"`
	BattleStart    domain.Range `yaml:"battle_start"`
	BattleEnd      domain.Range `yaml:"battle_end"`
	DungeonEnter   domain.Range `yaml:"dungeon_enter"`
	DungeonExit    domain.Range `yaml:"dungeon_exit"`
	SkillLearned   domain.Range `yaml:"skill_learned"`
	PartyJoin      domain.Range `yaml:"party_join"`
}

// For returns the offset range for activity a.
func (o Offsets) For(a domain.Activity) domain.Range {
	switch a {
	case domain.QuestAcceptedActivity:
		return o.QuestAccepted
	case domain.QuestCompletedActivity:
		return o.QuestCompleted
	case domain.ItemPickupActivity:
		return o.ItemPickup
	case domain.LevelUpActivity:
		return o.LevelUp
	case domain.BattleStartActivity:
		return o.BattleStart
	case domain.BattleEndActivity:
		return o.BattleEnd
	case domain.DungeonEnterActivity:
		return o.DungeonEnter
	case domain.DungeonExitActivity:
		return o.DungeonExit
	case domain.SkillLearnedActivity:
		return o.SkillLearned
	case domain.PartyJoinActivity:
		return o.PartyJoin
	}
	return domain.Range{}
}

// RestWindow is the night span [StartHour, EndHour) wrapping midnight.
type RestWindow struct {
	StartHour int          `yaml:"start_hour"`
	EndHour   int          `yaml:"end_hour"`
	Jump      domain.Range `yaml:"jump_hours"`
}

// Contains reports whether hour falls inside the window.
func (r RestWindow) Contains(hour int) bool {
	if r.StartHour == r.EndHour {
		return false
	}
	if r.StartHour > r.EndHour {
		return hour >= r.StartHour || hour < r.EndHour
	}
	return hour >= r.StartHour && hour < r.EndHour
}

type BuildConfig struct {
	Docker          string `yaml:"docker"`
	Platform        string `yaml:"platform"`
	PandocImage     string `yaml:"pandoc_image"`
	WeasyprintImage string `yaml:"weasyprint_image"`
	CSS             string `yaml:"css"`
}

type PublishConfig struct {
	Bucket   string `yaml:"bucket"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
	Prefix   string `yaml:"prefix"`
}

// Window parses the simulated time window.
func (s SeedConfig) Window() (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(domain.TimestampLayout, s.Start, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("config.seed.start: %w", err)
	}
	end, err := time.ParseInLocation(domain.TimestampLayout, s.End, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("config.seed.end: %w", err)
	}
	return start, end, nil
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	s := c.Seed
	start, end, err := s.Window()
	if err != nil {
		return err
	}
	if !end.After(start) {
		return fmt.Errorf("config.seed.end must be after config.seed.start")
	}
	if s.StartJitterHours < 0 {
		return fmt.Errorf("config.seed.start_jitter_hours must not be negative")
	}
	if s.MaxEventsPerHero <= 0 {
		return fmt.Errorf("config.seed.max_events_per_hero must be positive")
	}
	if s.MaxActiveQuests <= 0 || s.MaxActiveQuests > domain.MaxActiveQuests {
		return fmt.Errorf("config.seed.max_active_quests must be between 1 and %d", domain.MaxActiveQuests)
	}
	if s.QuestReadyMinutes < 0 || s.DungeonMinMinutes < 0 || s.BattleMinMinutes < 0 {
		return fmt.Errorf("config.seed readiness minutes must not be negative")
	}
	for name, p := range map[string]float64{
		"level_up": s.Chances.LevelUp,
		"skill":    s.Chances.Skill,
		"party":    s.Chances.Party,
		"victory":  s.Chances.Victory,
	} {
		if p < 0 || p > 1 {
			return fmt.Errorf("config.seed.chances.%s must be within [0,1]", name)
		}
	}
	w := s.Weights
	for _, v := range []int{w.QuestAcceptedIdle, w.QuestAccepted, w.QuestCompleted, w.ItemPickup, w.LevelUp,
		w.BattleStartDungeon, w.BattleStart, w.BattleEnd, w.DungeonEnter, w.DungeonExit, w.SkillLearned, w.PartyJoin} {
		if v < 0 {
			return fmt.Errorf("config.seed.weights must not be negative")
		}
	}
	ranges := map[string]domain.Range{
		"start_level":    s.StartLevel,
		"idle_step":      s.IdleStep,
		"step":           s.Step,
		"rest.jump":      s.Rest.Jump,
		"victory_damage": s.VictoryDamage,
		"retreat_damage": s.RetreatDamage,
		"party_number":   s.PartyNumber,
		"party_size":     s.PartySize,
	}
	for _, a := range domain.Activities {
		ranges["offsets."+string(a)] = s.Offsets.For(a)
	}
	for name, r := range ranges {
		if err := validRange(r); err != nil {
			return fmt.Errorf("config.seed.%s: %w", name, err)
		}
	}
	if s.IdleStep.Min == 0 && s.IdleStep.Max == 0 {
		return fmt.Errorf("config.seed.idle_step must advance the clock")
	}
	if s.Rest.StartHour < 0 || s.Rest.StartHour > 23 || s.Rest.EndHour < 0 || s.Rest.EndHour > 23 {
		return fmt.Errorf("config.seed.rest hours must be within 0..23")
	}
	return validateCatalogs(c.Catalogs)
}

func validRange(r domain.Range) error {
	if r.Min < 0 {
		return fmt.Errorf("min must not be negative")
	}
	if r.Max < r.Min {
		return fmt.Errorf("max %d below min %d", r.Max, r.Min)
	}
	return nil
}

func validateCatalogs(cat domain.Catalogs) error {
	if len(cat.Heroes) == 0 {
		return fmt.Errorf("config.catalogs.heroes is required")
	}
	seen := map[string]bool{}
	for _, h := range cat.Heroes {
		if h.ID == "" {
			return fmt.Errorf("config.catalogs.heroes contains empty hero id")
		}
		if strings.ContainsAny(h.ID, "\r\n") {
			return fmt.Errorf("hero id %q contains a line break", h.ID)
		}
		if seen[h.ID] {
			return fmt.Errorf("hero %s is defined twice", h.ID)
		}
		seen[h.ID] = true
		if h.MaxEvents < 0 {
			return fmt.Errorf("hero %s has negative max_events", h.ID)
		}
	}
	if len(cat.Quests) == 0 {
		return fmt.Errorf("config.catalogs.quests is required")
	}
	for _, q := range cat.Quests {
		if q.ID == "" {
			return fmt.Errorf("config.catalogs.quests contains empty quest id")
		}
		if err := validRange(q.RewardGold); err != nil {
			return fmt.Errorf("quest %s reward_gold: %w", q.ID, err)
		}
		if err := validRange(q.XP); err != nil {
			return fmt.Errorf("quest %s xp: %w", q.ID, err)
		}
	}
	if len(cat.Items) == 0 {
		return fmt.Errorf("config.catalogs.items is required")
	}
	if len(cat.Dungeons) == 0 {
		return fmt.Errorf("config.catalogs.dungeons is required")
	}
	for _, d := range cat.Dungeons {
		if err := validRange(d.Loot); err != nil {
			return fmt.Errorf("dungeon %s loot: %w", d.ID, err)
		}
	}
	wild := 0
	for _, e := range cat.Enemies {
		if len(e.Locations) == 0 {
			return fmt.Errorf("enemy %s has no locations", e.Type)
		}
		if e.Difficulty == "easy" || e.Difficulty == "medium" {
			wild++
		}
	}
	if wild == 0 {
		return fmt.Errorf("config.catalogs.enemies needs at least one easy or medium enemy")
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "incentives.yml")
}

// Load reads and validates config from workspace, falling back to defaults
// when no config file exists.
func Load(workspace string) (*Config, error) {
	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// GenerateDefault returns default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

// Default returns the default Config struct.
func Default() *Config {
	var cfg Config
	_ = yaml.NewDecoder(bytes.NewBufferString(defaultTemplate)).Decode(&cfg)
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes. Keys absent
// from data keep their default values.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}
