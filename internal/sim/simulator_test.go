package sim_test

import (
	"reflect"
	"testing"
	"time"

	"incentives/internal/config"
	"incentives/internal/domain"
	"incentives/internal/sim"
)

func run(t *testing.T, cfg *config.Config) sim.Result {
	t.Helper()
	s, err := sim.New(cfg, sim.NewRand(cfg.Seed.Seed))
	if err != nil {
		t.Fatalf("new simulator: %v", err)
	}
	return s.Run(cfg.Catalogs.Heroes)
}

func TestRunIsDeterministic(t *testing.T) {
	cfg := config.Default()
	a := run(t, cfg)
	b := run(t, cfg)
	if len(a.Events) == 0 {
		t.Fatalf("no events generated")
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same seed produced different streams")
	}

	other := config.Default()
	other.Seed.Seed = 43
	c := run(t, other)
	if reflect.DeepEqual(a.Events, c.Events) {
		t.Fatalf("different seeds produced identical streams")
	}
}

func TestRunKeepsStreamInvariants(t *testing.T) {
	for _, seed := range []uint64{1, 7, 42, 1234, 99999} {
		cfg := config.Default()
		cfg.Seed.Seed = seed
		res := run(t, cfg)
		if err := sim.Replay(res.Events, cfg.Seed.MaxActiveQuests); err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		start, _, _ := cfg.Seed.Window()
		perHero := map[string]int{}
		for _, e := range res.Events {
			if e.TS.Before(start) {
				t.Fatalf("seed %d: event before window start: %v", seed, e.TS)
			}
			if e.Features == nil || e.Features.Activity() != e.Activity {
				t.Fatalf("seed %d: features do not match activity %s", seed, e.Activity)
			}
			perHero[e.Entity]++
		}
		total := 0
		for _, h := range res.Heroes {
			if h.Events > cfg.Seed.MaxEventsPerHero {
				t.Fatalf("seed %d: %s produced %d events over cap", seed, h.Hero.ID, h.Events)
			}
			if perHero[h.Hero.ID] != h.Events {
				t.Fatalf("seed %d: summary for %s says %d, stream has %d", seed, h.Hero.ID, h.Events, perHero[h.Hero.ID])
			}
			total += h.Events
		}
		if total != len(res.Events) {
			t.Fatalf("seed %d: summaries total %d, stream has %d", seed, total, len(res.Events))
		}
	}
}

func TestFirstHeroCompletesAcceptedQuest(t *testing.T) {
	cfg := config.Default()
	res := run(t, cfg)
	accepted := map[string]time.Time{}
	for _, e := range res.Events {
		if e.Entity != "hero_001" {
			continue
		}
		switch f := e.Features.(type) {
		case domain.QuestAccepted:
			accepted[f.QuestID] = e.TS
		case domain.QuestCompleted:
			at, ok := accepted[f.QuestID]
			if !ok {
				t.Fatalf("quest %s completed before acceptance", f.QuestID)
			}
			if e.TS.Before(at) {
				t.Fatalf("quest %s completed at %v before acceptance at %v", f.QuestID, e.TS, at)
			}
			q, _ := cfg.Catalogs.Quest(f.QuestID)
			if f.RewardGold < q.RewardGold.Min || f.RewardGold > q.RewardGold.Max {
				t.Fatalf("reward %d outside %+v", f.RewardGold, q.RewardGold)
			}
			return
		}
	}
	t.Fatalf("hero_001 never completed a quest")
}

func TestRunStopsAtEventCap(t *testing.T) {
	cfg := config.Default()
	cfg.Seed.MaxEventsPerHero = 5
	cfg.Catalogs.Heroes[1].MaxEvents = 2
	res := run(t, cfg)
	for _, h := range res.Heroes {
		want := 5
		if h.Hero.ID == cfg.Catalogs.Heroes[1].ID {
			want = 2
		}
		if h.Events != want {
			t.Fatalf("%s produced %d events, want %d", h.Hero.ID, h.Events, want)
		}
	}
}

func TestRunStopsAtWindowEnd(t *testing.T) {
	cfg := config.Default()
	cfg.Seed.Start = "2025-06-01 08:00:00"
	cfg.Seed.End = "2025-06-01 09:00:00"
	cfg.Seed.StartJitterHours = 0
	res := run(t, cfg)
	_, end, _ := cfg.Seed.Window()
	limit := end.Add(2 * time.Hour)
	for _, e := range res.Events {
		if e.TS.After(limit) {
			t.Fatalf("event at %v long after window end", e.TS)
		}
	}
	for _, h := range res.Heroes {
		if h.Events >= cfg.Seed.MaxEventsPerHero {
			t.Fatalf("%s hit the cap in a one hour window", h.Hero.ID)
		}
	}
}

func TestZeroWeightsDisableActions(t *testing.T) {
	cfg := config.Default()
	cfg.Seed.Weights = config.Weights{ItemPickup: 1}
	res := run(t, cfg)
	if len(res.Events) == 0 {
		t.Fatalf("no events generated")
	}
	for _, e := range res.Events {
		if e.Activity != domain.ItemPickupActivity {
			t.Fatalf("disabled activity %s was drawn", e.Activity)
		}
	}
}

func TestAllWeightsZeroIdlesUntilWindowEnds(t *testing.T) {
	cfg := config.Default()
	cfg.Seed.Weights = config.Weights{}
	res := run(t, cfg)
	if len(res.Events) != 0 {
		t.Fatalf("expected no events, got %d", len(res.Events))
	}
	if len(res.Heroes) != len(cfg.Catalogs.Heroes) {
		t.Fatalf("missing hero summaries")
	}
}

func TestNewRejectsBadWindow(t *testing.T) {
	cfg := config.Default()
	cfg.Seed.Start = "tomorrow"
	if _, err := sim.New(cfg, sim.NewRand(1)); err == nil {
		t.Fatalf("expected window error")
	}
}
