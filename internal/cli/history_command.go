package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"hsound.dev/internal/journal"
)

var errJournalDisabled = errors.New("the playback journal is disabled (set journal.enabled or HSOUND_JOURNAL=true)")

type historyOptions struct {
	filter  journal.Filter
	recent  bool
	jsonOut bool
}

func (c *CLI) newHistoryCommand() *cobra.Command {
	var opts historyOptions

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show what has been played",
		Long: `Show playback statistics from the journal.

By default sounds are listed by how often they were started. --recent lists
the individual events instead, newest first.

Examples:
  hsound history                          # last 7 days
  hsound history --preset today
  hsound history --since "3 hours ago"
  hsound history --sound click --recent
  hsound history --days 0 --json          # all time, as JSON`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runHistory(cmd.OutOrStdout(), opts)
		},
	}

	historyCmd.Flags().IntVar(&opts.filter.Days, "days", 7, "Number of days to report (0 = all time)")
	historyCmd.Flags().StringVar(&opts.filter.Since, "since", "", `Natural language start, e.g. "yesterday" or "2 hours ago"`)
	historyCmd.Flags().StringVar(&opts.filter.DatePreset, "preset", "", "Date preset (today, yesterday, week, last-week, month, last-month, all)")
	historyCmd.Flags().StringVar(&opts.filter.Sound, "sound", "", "Only this locator")
	historyCmd.Flags().StringVar(&opts.filter.Event, "event", "", "Only this event (open, start, stop, close)")
	historyCmd.Flags().IntVar(&opts.filter.Limit, "limit", 20, "Maximum number of rows")
	historyCmd.Flags().BoolVar(&opts.recent, "recent", false, "List individual events")
	historyCmd.Flags().BoolVar(&opts.jsonOut, "json", false, "Print JSON")

	return historyCmd
}

func (c *CLI) runHistory(w io.Writer, opts historyOptions) error {
	if !c.cfg.JournalEnabled() {
		return errJournalDisabled
	}

	path := c.configManager.ResolveJournalPath(c.cfg)
	db, err := journal.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()
	slog.Debug("reading journal", "path", path, "recent", opts.recent)

	if opts.recent {
		entries, err := journal.Recent(db, opts.filter)
		if err != nil {
			return err
		}
		if opts.jsonOut {
			return writeJSON(w, entries)
		}
		outputRecent(w, entries, opts.filter)
		return nil
	}

	stats, err := journal.Summary(db, opts.filter)
	if err != nil {
		return err
	}
	totals, err := journal.TotalsFor(db, opts.filter)
	if err != nil {
		slog.Warn("failed to compute journal totals", "error", err)
	}
	if opts.jsonOut {
		return writeJSON(w, struct {
			Totals journal.Totals       `json:"totals"`
			Sounds []journal.SoundStats `json:"sounds"`
		}{totals, stats})
	}
	outputSummary(w, stats, totals, opts.filter)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func describeRange(filter journal.Filter) string {
	switch {
	case filter.DatePreset != "":
		return filter.DatePreset
	case filter.Since != "":
		return "since " + filter.Since
	case filter.Days > 0:
		return fmt.Sprintf("last %d days", filter.Days)
	default:
		return "all time"
	}
}

func outputSummary(w io.Writer, stats []journal.SoundStats, totals journal.Totals, filter journal.Filter) {
	if len(stats) == 0 {
		fmt.Fprintf(w, "No playback recorded (%s)\n", describeRange(filter))
		return
	}

	fmt.Fprintf(w, "Playback history (%s):\n", describeRange(filter))
	fmt.Fprintf(w, "Summary: %d events, %d unique sounds, %d starts\n\n", totals.Events, totals.UniqueSounds, totals.Starts)
	for i, s := range stats {
		fmt.Fprintf(w, "%2d. %-30s %4d starts %4d stops  last %s\n",
			i+1, s.Sound, s.Starts, s.Stops, s.LastSeen.Format("2006-01-02 15:04"))
	}
}

func outputRecent(w io.Writer, entries []journal.Entry, filter journal.Filter) {
	if len(entries) == 0 {
		fmt.Fprintf(w, "No playback recorded (%s)\n", describeRange(filter))
		return
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%s  %-5s  %s\n", e.At.Format("2006-01-02 15:04:05"), e.Event, e.Sound)
	}
}
