// Package sim generates a synthetic fantasy realm activity stream. Each hero
// is simulated independently with an explicitly passed random source, so a
// fixed seed always reproduces the same stream.
package sim

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sort"
	"time"

	"incentives/internal/config"
	"incentives/internal/domain"
	"incentives/internal/logging"
)

type Simulator struct {
	cfg    config.SeedConfig
	cat    domain.Catalogs
	rng    *rand.Rand
	start  time.Time
	end    time.Time
	Logger *slog.Logger
}

// HeroSummary reports how many events a hero produced.
type HeroSummary struct {
	Hero   domain.Hero `json:"hero"`
	Events int         `json:"events"`
}

// Result is the merged, time-ordered output of a run.
type Result struct {
	Events []domain.Event `json:"events"`
	Heroes []HeroSummary  `json:"heroes"`
}

// NewRand returns a PCG-backed source for seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// New builds a simulator over cfg's seed settings and catalogs. rng is owned
// by the simulator from here on.
func New(cfg *config.Config, rng *rand.Rand) (*Simulator, error) {
	start, end, err := cfg.Seed.Window()
	if err != nil {
		return nil, err
	}
	return &Simulator{
		cfg:    cfg.Seed,
		cat:    cfg.Catalogs,
		rng:    rng,
		start:  start,
		end:    end,
		Logger: logging.Discard(),
	}, nil
}

// Run simulates heroes in roster order and merges their events with a
// stable sort on timestamp.
func (s *Simulator) Run(heroes []domain.Hero) Result {
	var res Result
	for _, h := range heroes {
		events := s.Journey(h)
		res.Events = append(res.Events, events...)
		res.Heroes = append(res.Heroes, HeroSummary{Hero: h, Events: len(events)})
	}
	sort.SliceStable(res.Events, func(i, j int) bool {
		return res.Events[i].TS.Before(res.Events[j].TS)
	})
	return res
}

// Journey walks one hero forward until the window closes or its event cap
// is reached.
func (s *Simulator) Journey(hero domain.Hero) []domain.Event {
	st := &HeroState{
		Hero:          hero,
		Clock:         s.start.Add(time.Duration(s.between(domain.Range{Max: s.cfg.StartJitterHours})) * time.Hour),
		Level:         s.between(s.cfg.StartLevel),
		LearnedSkills: map[string]bool{},
		available:     append([]domain.Quest(nil), s.cat.Quests...),
	}
	limit := s.cfg.MaxEventsPerHero
	if hero.MaxEvents > 0 {
		limit = hero.MaxEvents
	}

	for st.Clock.Before(s.end) && len(st.Events) < limit {
		var t turn
		var candidates []rule
		var weights []int
		total := 0
		for _, r := range rules {
			if !r.legal(s, st, &t) {
				continue
			}
			if r.chance != nil && s.rng.Float64() >= r.chance(s.cfg.Chances) {
				continue
			}
			w := r.weight(s.cfg.Weights, st)
			if w <= 0 {
				continue
			}
			candidates = append(candidates, r)
			weights = append(weights, w)
			total += w
		}
		if total == 0 {
			st.Clock = st.Clock.Add(time.Duration(s.between(s.cfg.IdleStep)) * time.Minute)
			continue
		}

		r := candidates[s.choose(weights, total)]
		r.apply(s, st, &t)
		s.Logger.Log(context.Background(), logging.LevelTrace, "step", "hero", hero.ID, "activity", r.activity, "clock", st.Clock)

		st.Clock = st.Clock.Add(time.Duration(s.between(s.cfg.Step)) * time.Minute)
		if s.cfg.Rest.Contains(st.Clock.Hour()) {
			st.Clock = st.Clock.Add(time.Duration(s.between(s.cfg.Rest.Jump)) * time.Hour)
		}
	}
	s.Logger.Debug("hero journey done", "hero", hero.ID, "events", len(st.Events), "level", st.Level)
	return st.Events
}

// choose draws an index with probability proportional to its weight.
func (s *Simulator) choose(weights []int, total int) int {
	n := s.rng.IntN(total)
	for i, w := range weights {
		if n < w {
			return i
		}
		n -= w
	}
	return len(weights) - 1
}

// between returns a uniform integer in [r.Min, r.Max].
func (s *Simulator) between(r domain.Range) int {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + s.rng.IntN(r.Max-r.Min+1)
}

func (s *Simulator) offset(a domain.Activity) int {
	return s.between(s.cfg.Offsets.For(a))
}

func pick[T any](s *Simulator, items []T) T {
	return items[s.rng.IntN(len(items))]
}
