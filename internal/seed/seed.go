// Package seed turns an activity stream into a static SQL seed script and
// reads such scripts back.
package seed

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"incentives/internal/domain"
)

const (
	// Table is the table every seed script declares and fills.
	Table = "activity_stream"

	title    = "Fantasy Realm Activity Stream"
	subtitle = "Generated for Activity Schema temporal join demos"
)

// ErrMalformedRow is returned by Parse for rows that are not a four-value
// literal tuple.
var ErrMalformedRow = errors.New("malformed row")

// Header carries the descriptive comment block of a script.
type Header struct {
	RunID  string
	Heroes []domain.Hero
}

// Script is a parsed seed script. Payloads holds the features JSON of each
// event exactly as written, index-aligned with Events.
type Script struct {
	RunID    string
	Events   []domain.Event
	Payloads [][]byte
}

// Write emits events as a SQL script: comment header, table declaration and
// one INSERT statement with a literal row per event. events must already be
// in the order they should be stored.
func Write(w io.Writer, events []domain.Event, h Header) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "-- %s\n", title)
	fmt.Fprintf(bw, "-- %s\n", subtitle)
	if h.RunID != "" {
		fmt.Fprintf(bw, "-- Run: %s\n", h.RunID)
	}
	fmt.Fprintf(bw, "-- Total events: %d\n", len(events))
	if len(events) > 0 {
		fmt.Fprintf(bw, "-- Date range: %s to %s\n",
			events[0].TS.Format("2006-01-02"), events[len(events)-1].TS.Format("2006-01-02"))
	}
	names := make([]string, 0, len(h.Heroes))
	for _, hero := range h.Heroes {
		names = append(names, hero.Name)
	}
	fmt.Fprintf(bw, "-- Heroes: %s\n", strings.Join(names, ", "))
	bw.WriteString("\n")

	bw.WriteString("CREATE TABLE IF NOT EXISTS " + Table + " (\n")
	bw.WriteString("    ts TIMESTAMP,\n")
	bw.WriteString("    activity VARCHAR,\n")
	bw.WriteString("    entity VARCHAR,\n")
	bw.WriteString("    features JSON\n")
	bw.WriteString(");\n")

	if len(events) > 0 {
		bw.WriteString("\nINSERT INTO " + Table + " VALUES\n")
		for i, e := range events {
			row, err := Row(e)
			if err != nil {
				return fmt.Errorf("event %d: %w", i, err)
			}
			suffix := ","
			if i == len(events)-1 {
				suffix = ";"
			}
			bw.WriteString("    " + row + suffix + "\n")
		}
	}
	return bw.Flush()
}

// Row renders one event as a literal tuple.
func Row(e domain.Event) (string, error) {
	features, err := domain.MarshalFeatures(e.Features)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("(%s, %s, %s, %s)",
		quote(e.TS.Format(domain.TimestampLayout)),
		quote(string(e.Activity)),
		quote(e.Entity),
		quote(string(features)),
	), nil
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// Breakdown counts events per activity, most frequent first; ties sort by
// activity name.
func Breakdown(events []domain.Event) []domain.ActivityCount {
	counts := map[domain.Activity]int{}
	for _, e := range events {
		counts[e.Activity]++
	}
	out := make([]domain.ActivityCount, 0, len(counts))
	for a, n := range counts {
		out = append(out, domain.ActivityCount{Activity: string(a), Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Activity < out[j].Activity
	})
	return out
}
