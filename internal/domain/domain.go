package domain

import "time"

type Hero struct {
	ID    string `yaml:"id" json:"id"`
	Name  string `yaml:"name" json:"name"`
	Class string `yaml:"class" json:"class"`
	// MaxEvents overrides the per-hero event cap when positive.
	MaxEvents int `yaml:"max_events,omitempty" json:"max_events,omitempty"`
}

// Range is an inclusive integer interval.
type Range struct {
	Min int `yaml:"min" json:"min"`
	Max int `yaml:"max" json:"max"`
}

type Quest struct {
	ID         string `yaml:"id" json:"id"`
	Name       string `yaml:"name" json:"name"`
	Difficulty string `yaml:"difficulty" json:"difficulty"`
	RewardGold Range  `yaml:"reward_gold" json:"reward_gold"`
	XP         Range  `yaml:"xp" json:"xp"`
}

type Item struct {
	ID     string `yaml:"id" json:"id"`
	Name   string `yaml:"name" json:"name"`
	Rarity string `yaml:"rarity" json:"rarity"`
	Type   string `yaml:"type" json:"type"`
}

type Enemy struct {
	Type       string   `yaml:"type" json:"type"`
	Locations  []string `yaml:"locations" json:"locations"`
	Difficulty string   `yaml:"difficulty" json:"difficulty"`
}

type Dungeon struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
	Tier int    `yaml:"tier" json:"tier"`
	Loot Range  `yaml:"loot" json:"loot"`
}

type Skill struct {
	ID    string `yaml:"id" json:"id"`
	Name  string `yaml:"name" json:"name"`
	Type  string `yaml:"type" json:"type"`
	Class string `yaml:"class" json:"class"`
}

// Catalogs groups the fixed input tables of the realm.
type Catalogs struct {
	Heroes   []Hero    `yaml:"heroes" json:"heroes"`
	Quests   []Quest   `yaml:"quests" json:"quests"`
	Items    []Item    `yaml:"items" json:"items"`
	Enemies  []Enemy   `yaml:"enemies" json:"enemies"`
	Dungeons []Dungeon `yaml:"dungeons" json:"dungeons"`
	Skills   []Skill   `yaml:"skills" json:"skills"`
}

// Quest returns the catalog quest with the given id.
func (c Catalogs) Quest(id string) (Quest, bool) {
	for _, q := range c.Quests {
		if q.ID == id {
			return q, true
		}
	}
	return Quest{}, false
}

// SkillsForClass returns the class skills in catalog order.
func (c Catalogs) SkillsForClass(class string) []Skill {
	var out []Skill
	for _, s := range c.Skills {
		if s.Class == class {
			out = append(out, s)
		}
	}
	return out
}

// Event is one row of the activity stream.
type Event struct {
	TS       time.Time `json:"ts"`
	Activity Activity  `json:"activity"`
	Entity   string    `json:"entity"`
	Features Features  `json:"features"`
}

// MaxActiveQuests is the most quests a hero may hold at once.
const MaxActiveQuests = 2

// TimestampLayout is the textual form of Event.TS in the activity stream.
const TimestampLayout = "2006-01-02 15:04:05"

type SeedRun struct {
	ID         string `json:"id"`
	Source     string `json:"source"`
	EventCount int    `json:"event_count"`
	FirstTS    string `json:"first_ts,omitempty"`
	LastTS     string `json:"last_ts,omitempty"`
	LoadedAt   string `json:"loaded_at"`
}

type ActivityCount struct {
	Activity string `json:"activity"`
	Count    int    `json:"count"`
}
