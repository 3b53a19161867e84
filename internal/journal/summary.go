package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/huandu/go-sqlbuilder"
)

// SoundStats aggregates the journal for one sound
type SoundStats struct {
	Sound    string    `json:"sound"`
	Starts   int       `json:"starts"`
	Stops    int       `json:"stops"`
	Events   int       `json:"events"`
	LastSeen time.Time `json:"last_seen"`
}

// Entry is one journal row
type Entry struct {
	At    time.Time `json:"at"`
	Sound string    `json:"sound"`
	Event string    `json:"event"`
}

// Totals summarizes the whole filtered journal
type Totals struct {
	Events       int `json:"events"`
	UniqueSounds int `json:"unique_sounds"`
	Starts       int `json:"starts"`
}

var errNilDB = errors.New("database connection is nil")

// Summary returns per-sound statistics, most started first
func Summary(db *sql.DB, filter Filter) ([]SoundStats, error) {
	if db == nil {
		return nil, errNilDB
	}

	sb := sqlbuilder.NewSelectBuilder()
	sb.Select(
		"sound",
		"SUM(CASE WHEN event = 'start' THEN 1 ELSE 0 END) AS starts",
		"SUM(CASE WHEN event = 'stop' THEN 1 ELSE 0 END) AS stops",
		"COUNT(*) AS events",
		"MAX(timestamp) AS last_seen",
	)
	sb.From("playback_events")
	if err := filter.apply(sb, time.Now()); err != nil {
		return nil, err
	}
	sb.GroupBy("sound")
	sb.OrderBy("starts DESC", "sound")

	query, args := sb.BuildWithFlavor(sqlbuilder.SQLite)
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sound summary: %w", err)
	}
	defer rows.Close()

	var stats []SoundStats
	for rows.Next() {
		var s SoundStats
		var last int64
		if err := rows.Scan(&s.Sound, &s.Starts, &s.Stops, &s.Events, &last); err != nil {
			return nil, fmt.Errorf("failed to scan summary row: %w", err)
		}
		s.LastSeen = time.Unix(last, 0)
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating summary rows: %w", err)
	}
	return stats, nil
}

// Recent returns journal rows newest first
func Recent(db *sql.DB, filter Filter) ([]Entry, error) {
	if db == nil {
		return nil, errNilDB
	}

	sb := sqlbuilder.NewSelectBuilder()
	sb.Select("timestamp", "sound", "event")
	sb.From("playback_events")
	if err := filter.apply(sb, time.Now()); err != nil {
		return nil, err
	}
	sb.OrderBy("timestamp DESC", "id DESC")

	query, args := sb.BuildWithFlavor(sqlbuilder.SQLite)
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent events: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var ts int64
		if err := rows.Scan(&ts, &e.Sound, &e.Event); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		e.At = time.Unix(ts, 0)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event rows: %w", err)
	}
	return entries, nil
}

// TotalsFor counts events, distinct sounds and starts
func TotalsFor(db *sql.DB, filter Filter) (Totals, error) {
	if db == nil {
		return Totals{}, errNilDB
	}

	filter.Limit = 0
	sb := sqlbuilder.NewSelectBuilder()
	sb.Select(
		"COUNT(*)",
		"COUNT(DISTINCT sound)",
		"COALESCE(SUM(CASE WHEN event = 'start' THEN 1 ELSE 0 END), 0)",
	)
	sb.From("playback_events")
	if err := filter.apply(sb, time.Now()); err != nil {
		return Totals{}, err
	}

	query, args := sb.BuildWithFlavor(sqlbuilder.SQLite)
	var t Totals
	if err := db.QueryRow(query, args...).Scan(&t.Events, &t.UniqueSounds, &t.Starts); err != nil {
		return Totals{}, fmt.Errorf("failed to query totals: %w", err)
	}
	return t, nil
}
