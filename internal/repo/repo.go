package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"incentives/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

func scanRun(row interface{ Scan(...any) error }) (domain.SeedRun, error) {
	var run domain.SeedRun
	var first, last sql.NullString
	err := row.Scan(&run.ID, &run.Source, &run.EventCount, &first, &last, &run.LoadedAt)
	if err == sql.ErrNoRows {
		return run, ErrNotFound
	}
	run.FirstTS = first.String
	run.LastTS = last.String
	return run, err
}

func (r Repo) GetRun(ctx context.Context, id string) (domain.SeedRun, error) {
	return scanRun(r.DB.QueryRowContext(ctx, `SELECT id,source,event_count,first_ts,last_ts,loaded_at FROM seed_runs WHERE id=?`, id))
}

// LatestRun returns the most recently loaded run.
func (r Repo) LatestRun(ctx context.Context) (domain.SeedRun, error) {
	return scanRun(r.DB.QueryRowContext(ctx, `SELECT id,source,event_count,first_ts,last_ts,loaded_at FROM seed_runs ORDER BY loaded_at DESC, rowid DESC LIMIT 1`))
}

func (r Repo) ListRuns(ctx context.Context) ([]domain.SeedRun, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,source,event_count,first_ts,last_ts,loaded_at FROM seed_runs ORDER BY loaded_at DESC, rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.SeedRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, run)
	}
	return res, rows.Err()
}

// ActivityCounts groups a run's events by activity, most frequent first.
func (r Repo) ActivityCounts(ctx context.Context, runID string) ([]domain.ActivityCount, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT activity, COUNT(*) AS n FROM activity_stream WHERE run_id=? GROUP BY activity ORDER BY n DESC, activity ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.ActivityCount
	for rows.Next() {
		var c domain.ActivityCount
		if err := rows.Scan(&c.Activity, &c.Count); err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

type TimelineFilter struct {
	RunID    string
	Entity   string
	Activity string
	Limit    int
}

// Timeline returns stored events in time order, decoded into typed features.
func (r Repo) Timeline(ctx context.Context, f TimelineFilter) ([]domain.Event, error) {
	clauses := []string{"1=1"}
	var args []any
	if f.RunID != "" {
		clauses = append(clauses, "run_id=?")
		args = append(args, f.RunID)
	}
	if f.Entity != "" {
		clauses = append(clauses, "entity=?")
		args = append(args, f.Entity)
	}
	if f.Activity != "" {
		clauses = append(clauses, "activity=?")
		args = append(args, f.Activity)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = -1
	}
	query := fmt.Sprintf(`SELECT CAST(ts AS TEXT),activity,entity,CAST(features AS TEXT) FROM activity_stream WHERE %s ORDER BY ts ASC, rowid ASC LIMIT ?`,
		strings.Join(clauses, " AND "))
	args = append(args, limit)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Event
	for rows.Next() {
		var ts, activity, entity, features string
		if err := rows.Scan(&ts, &activity, &entity, &features); err != nil {
			return nil, err
		}
		t, err := time.ParseInLocation(domain.TimestampLayout, ts, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("stored timestamp %q: %w", ts, err)
		}
		decoded, err := domain.DecodeFeatures(domain.Activity(activity), []byte(features))
		if err != nil {
			return nil, err
		}
		res = append(res, domain.Event{TS: t, Activity: domain.Activity(activity), Entity: entity, Features: decoded})
	}
	return res, rows.Err()
}
