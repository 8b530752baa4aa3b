package sim

import (
	"time"

	"incentives/internal/domain"
)

// ActiveQuest is a quest a hero has accepted but not completed.
type ActiveQuest struct {
	ID      string
	Started time.Time
}

// DungeonVisit is the dungeon a hero is currently inside.
type DungeonVisit struct {
	Dungeon domain.Dungeon
	Entered time.Time
}

// Battle is the encounter a hero is currently fighting.
type Battle struct {
	Enemy    domain.Enemy
	Location string
	Started  time.Time
}

// HeroState is the mutable per-hero simulation state. It is created once per
// hero, mutated by the step loop and dropped once its events are merged.
type HeroState struct {
	Hero  domain.Hero
	Clock time.Time
	Level int

	// ActiveQuests keeps acceptance order.
	ActiveQuests  []ActiveQuest
	Dungeon       *DungeonVisit
	Battle        *Battle
	PartyID       string
	LearnedSkills map[string]bool
	Events        []domain.Event

	available []domain.Quest
}

func (st *HeroState) InBattle() bool  { return st.Battle != nil }
func (st *HeroState) InDungeon() bool { return st.Dungeon != nil }

func (st *HeroState) questActive(id string) bool {
	for _, q := range st.ActiveQuests {
		if q.ID == id {
			return true
		}
	}
	return false
}

func (st *HeroState) removeActive(id string) {
	for i, q := range st.ActiveQuests {
		if q.ID == id {
			st.ActiveQuests = append(st.ActiveQuests[:i], st.ActiveQuests[i+1:]...)
			return
		}
	}
}

func (st *HeroState) removeAvailable(id string) {
	for i, q := range st.available {
		if q.ID == id {
			st.available = append(st.available[:i:i], st.available[i+1:]...)
			return
		}
	}
}

// acceptable returns available quests the hero is not already on.
func (st *HeroState) acceptable() []domain.Quest {
	var out []domain.Quest
	for _, q := range st.available {
		if !st.questActive(q.ID) {
			out = append(out, q)
		}
	}
	return out
}

// minutesSince returns whole minutes elapsed on the hero clock since t.
func (st *HeroState) minutesSince(t time.Time) int {
	return int(st.Clock.Sub(t) / time.Minute)
}

// record advances the clock by offset minutes and appends an event at the
// new time.
func (st *HeroState) record(f domain.Features, offsetMinutes int) {
	st.Clock = st.Clock.Add(time.Duration(offsetMinutes) * time.Minute)
	st.Events = append(st.Events, domain.Event{
		TS:       st.Clock,
		Activity: f.Activity(),
		Entity:   st.Hero.ID,
		Features: f,
	})
}
