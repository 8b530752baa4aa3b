package events

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"incentives/internal/domain"
)

// Writer stores activity stream events in the workspace database.
type Writer struct {
	DB  *sql.DB
	Now func() time.Time
}

// Load inserts events as one seed run. Loading a run id that is already
// present replaces its rows, so re-loading the same script is idempotent.
func (w Writer) Load(ctx context.Context, source, runID string, events []domain.Event) (domain.SeedRun, error) {
	if w.Now == nil {
		w.Now = time.Now
	}
	loadedAt := w.Now().UTC().Format(time.RFC3339)
	if runID == "" {
		runID = uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s|%d|%s", source, len(events), loadedAt))).String()
	}
	run := domain.SeedRun{ID: runID, Source: source, EventCount: len(events), LoadedAt: loadedAt}
	if len(events) > 0 {
		run.FirstTS = events[0].TS.Format(domain.TimestampLayout)
		run.LastTS = events[len(events)-1].TS.Format(domain.TimestampLayout)
	}

	tx, err := w.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.SeedRun{}, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM activity_stream WHERE run_id=?`, run.ID); err != nil {
		return domain.SeedRun{}, fmt.Errorf("clear previous run: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM seed_runs WHERE id=?`, run.ID); err != nil {
		return domain.SeedRun{}, fmt.Errorf("clear previous run: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO seed_runs(id,source,event_count,first_ts,last_ts,loaded_at) VALUES (?,?,?,?,?,?)`,
		run.ID, run.Source, run.EventCount, nullable(run.FirstTS), nullable(run.LastTS), run.LoadedAt); err != nil {
		return domain.SeedRun{}, fmt.Errorf("insert seed run: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO activity_stream(ts,activity,entity,features,run_id) VALUES (?,?,?,?,?)`)
	if err != nil {
		return domain.SeedRun{}, err
	}
	defer stmt.Close()
	for i, e := range events {
		data, err := domain.MarshalFeatures(e.Features)
		if err != nil {
			return domain.SeedRun{}, fmt.Errorf("event %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, e.TS.Format(domain.TimestampLayout), string(e.Activity), e.Entity, string(data), run.ID); err != nil {
			return domain.SeedRun{}, fmt.Errorf("insert event %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return domain.SeedRun{}, err
	}
	return run, nil
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
