package journal

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/huandu/go-sqlbuilder"
	"github.com/tj/go-naturaldate"
)

// Filter narrows journal queries
type Filter struct {
	// Time range, first match wins: DatePreset, Since, StartTime/EndTime, Days
	DatePreset string     // "today", "yesterday", "week", "last-week", "month", "last-month", "all"
	Since      string     // natural language, e.g. "2 hours ago"
	StartTime  *time.Time // inclusive
	EndTime    *time.Time
	Days       int

	Sound string // exact locator
	Event string // one of the Event* names
	Limit int
}

// TimeRange resolves the filter to unix seconds. A zero start means no
// lower bound.
func (f *Filter) TimeRange(now time.Time) (startUnix, endUnix int64, err error) {
	endUnix = now.Unix()

	switch {
	case f.DatePreset != "":
		start, end, err := ParseDatePreset(f.DatePreset, now)
		if err != nil {
			return 0, 0, err
		}
		if start.IsZero() {
			return 0, end.Unix(), nil
		}
		return start.Unix(), end.Unix(), nil
	case f.Since != "":
		start, err := ParseNaturalDate(f.Since, now)
		if err != nil {
			return 0, 0, err
		}
		return start.Unix(), endUnix, nil
	case f.StartTime != nil && f.EndTime != nil:
		return f.StartTime.Unix(), f.EndTime.Unix(), nil
	case f.StartTime != nil:
		return f.StartTime.Unix(), endUnix, nil
	case f.EndTime != nil:
		return 0, f.EndTime.Unix(), nil
	case f.Days > 0:
		return now.AddDate(0, 0, -f.Days).Unix(), endUnix, nil
	}
	return 0, endUnix, nil
}

func (f *Filter) hasTimeRange() bool {
	return f.DatePreset != "" || f.Since != "" || f.StartTime != nil || f.EndTime != nil || f.Days > 0
}

// apply adds the filter's conditions to sb
func (f *Filter) apply(sb *sqlbuilder.SelectBuilder, now time.Time) error {
	if f.hasTimeRange() {
		start, end, err := f.TimeRange(now)
		if err != nil {
			return err
		}
		if start > 0 {
			sb.Where(sb.GreaterEqualThan("timestamp", start))
		}
		sb.Where(sb.LessEqualThan("timestamp", end))
	}
	if f.Sound != "" {
		sb.Where(sb.Equal("sound", f.Sound))
	}
	if f.Event != "" {
		sb.Where(sb.Equal("event", f.Event))
	}
	if f.Limit > 0 {
		sb.Limit(f.Limit)
	}
	return nil
}

// ParseDatePreset converts a preset name to a time range
func ParseDatePreset(preset string, now time.Time) (start, end time.Time, err error) {
	switch preset {
	case "today":
		start = beginningOfDay(now)
		end = now
	case "yesterday":
		start = beginningOfDay(now.AddDate(0, 0, -1))
		end = beginningOfDay(now)
	case "week", "this-week":
		start = beginningOfWeek(now)
		end = now
	case "last-week":
		start = beginningOfWeek(now).AddDate(0, 0, -7)
		end = beginningOfWeek(now)
	case "month", "this-month":
		start = beginningOfMonth(now)
		end = now
	case "last-month":
		start = beginningOfMonth(now).AddDate(0, -1, 0)
		end = beginningOfMonth(now)
	case "all", "all-time":
		end = now
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("unknown date preset: %s", preset)
	}
	slog.Debug("parsed date preset", "preset", preset, "start", start, "end", end)
	return start, end, nil
}

// ParseNaturalDate parses expressions like "yesterday" or "3 hours ago"
// relative to now
func ParseNaturalDate(expr string, now time.Time) (time.Time, error) {
	result, err := naturaldate.Parse(expr, now, naturaldate.WithDirection(naturaldate.Past))
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse date %q: %w", expr, err)
	}
	slog.Debug("parsed natural date", "input", expr, "result", result)
	return result, nil
}

func beginningOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// beginningOfWeek returns Monday 00:00 of t's week
func beginningOfWeek(t time.Time) time.Time {
	weekday := t.Weekday()
	if weekday == time.Sunday {
		weekday = 7
	}
	return beginningOfDay(t.AddDate(0, 0, -int(weekday-1)))
}

func beginningOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
