package seed

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"incentives/internal/domain"
)

const insertPrefix = "INSERT INTO " + Table + " VALUES"

// Parse reads a script produced by Write back into typed events.
func Parse(r io.Reader) (*Script, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	script := &Script{}
	inInsert, terminated := false, false
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "--"):
			if id, ok := strings.CutPrefix(line, "-- Run: "); ok {
				script.RunID = strings.TrimSpace(id)
			}
			continue
		case line == insertPrefix:
			if inInsert || terminated {
				return nil, fmt.Errorf("line %d: unexpected second INSERT", lineNo)
			}
			inInsert = true
			continue
		case !inInsert:
			continue
		}
		if terminated {
			return nil, fmt.Errorf("line %d: row after statement terminator", lineNo)
		}
		e, raw, last, err := parseRow(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		script.Events = append(script.Events, e)
		script.Payloads = append(script.Payloads, raw)
		terminated = last
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if inInsert && !terminated {
		return nil, fmt.Errorf("%w: INSERT statement not terminated", ErrMalformedRow)
	}
	return script, nil
}

// parseRow decodes "('ts', 'activity', 'entity', 'json'),", returning the
// payload text as written and whether the row closed the statement.
func parseRow(line string) (domain.Event, []byte, bool, error) {
	var last bool
	switch {
	case strings.HasSuffix(line, ";"):
		last = true
	case strings.HasSuffix(line, ","):
	default:
		return domain.Event{}, nil, false, fmt.Errorf("%w: missing row terminator", ErrMalformedRow)
	}
	body := line[:len(line)-1]
	if !strings.HasPrefix(body, "(") || !strings.HasSuffix(body, ")") {
		return domain.Event{}, nil, false, fmt.Errorf("%w: not a tuple", ErrMalformedRow)
	}
	values, err := splitLiterals(body[1 : len(body)-1])
	if err != nil {
		return domain.Event{}, nil, false, err
	}
	if len(values) != 4 {
		return domain.Event{}, nil, false, fmt.Errorf("%w: want 4 values, got %d", ErrMalformedRow, len(values))
	}
	ts, err := time.ParseInLocation(domain.TimestampLayout, values[0], time.UTC)
	if err != nil {
		return domain.Event{}, nil, false, fmt.Errorf("%w: %v", ErrMalformedRow, err)
	}
	activity := domain.Activity(values[1])
	raw := []byte(values[3])
	features, err := domain.DecodeFeatures(activity, raw)
	if err != nil {
		return domain.Event{}, nil, false, fmt.Errorf("%w: %v", ErrMalformedRow, err)
	}
	return domain.Event{TS: ts, Activity: activity, Entity: values[2], Features: features}, raw, last, nil
}

// splitLiterals reads comma separated single-quoted literals, undoing
// quote doubling.
func splitLiterals(s string) ([]string, error) {
	var out []string
	i := 0
	for {
		for i < len(s) && s[i] == ' ' {
			i++
		}
		if i >= len(s) || s[i] != '\'' {
			return nil, fmt.Errorf("%w: expected quoted literal at offset %d", ErrMalformedRow, i)
		}
		i++
		var b strings.Builder
		closed := false
		for i < len(s) {
			if s[i] == '\'' {
				if i+1 < len(s) && s[i+1] == '\'' {
					b.WriteByte('\'')
					i += 2
					continue
				}
				i++
				closed = true
				break
			}
			b.WriteByte(s[i])
			i++
		}
		if !closed {
			return nil, fmt.Errorf("%w: unterminated literal", ErrMalformedRow)
		}
		out = append(out, b.String())
		for i < len(s) && s[i] == ' ' {
			i++
		}
		if i == len(s) {
			return out, nil
		}
		if s[i] != ',' {
			return nil, fmt.Errorf("%w: expected ',' at offset %d", ErrMalformedRow, i)
		}
		i++
	}
}
