package events_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"incentives/internal/db"
	"incentives/internal/domain"
	"incentives/internal/events"
	"incentives/internal/migrate"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(context.Background(), conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

var t0 = time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)

func stream() []domain.Event {
	return []domain.Event{
		{TS: t0, Activity: domain.QuestAcceptedActivity, Entity: "hero_001",
			Features: domain.QuestAccepted{QuestID: "quest_tower", QuestName: "Climb the Wizard's Tower", Difficulty: "hard"}},
		{TS: t0.Add(time.Hour), Activity: domain.LevelUpActivity, Entity: "hero_002",
			Features: domain.LevelUp{NewLevel: 2, Class: "Warrior"}},
	}
}

func TestLoadIsIdempotentPerRun(t *testing.T) {
	conn := openDB(t)
	ctx := context.Background()
	w := events.Writer{DB: conn, Now: func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }}

	run, err := w.Load(ctx, "seed.sql", "run-1", stream())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if run.ID != "run-1" || run.EventCount != 2 || run.FirstTS != "2025-06-01 06:00:00" || run.LastTS != "2025-06-01 07:00:00" {
		t.Fatalf("run: %+v", run)
	}
	if _, err := w.Load(ctx, "seed.sql", "run-1", stream()); err != nil {
		t.Fatalf("reload: %v", err)
	}
	var rows, runs int
	if err := conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM activity_stream`).Scan(&rows); err != nil {
		t.Fatal(err)
	}
	if err := conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM seed_runs`).Scan(&runs); err != nil {
		t.Fatal(err)
	}
	if rows != 2 || runs != 1 {
		t.Fatalf("after reload: %d rows, %d runs", rows, runs)
	}
	var features string
	if err := conn.QueryRowContext(ctx, `SELECT features FROM activity_stream WHERE entity='hero_001'`).Scan(&features); err != nil {
		t.Fatal(err)
	}
	if features != `{"quest_id":"quest_tower","quest_name":"Climb the Wizard's Tower","difficulty":"hard"}` {
		t.Fatalf("stored features: %s", features)
	}
}

func TestLoadWithoutRunIDDerivesOne(t *testing.T) {
	conn := openDB(t)
	w := events.Writer{DB: conn}
	run, err := w.Load(context.Background(), "old.sql", "", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if run.ID == "" || run.EventCount != 0 || run.FirstTS != "" {
		t.Fatalf("run: %+v", run)
	}
}
