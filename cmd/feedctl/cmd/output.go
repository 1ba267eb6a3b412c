package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/donaldgifford/shopify-zbozi-feed/internal/api/handlers"
)

const timeLayout = "2006-01-02 15:04:05"

// tabWriter wraps tabwriter with error tracking.
type tabWriter struct {
	*tabwriter.Writer
	err error
}

func newTabWriter(w io.Writer) *tabWriter {
	return &tabWriter{Writer: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (tw *tabWriter) writef(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.Writer, format, args...)
}

func (tw *tabWriter) finish() error {
	if tw.err != nil {
		return tw.err
	}
	return tw.Flush()
}

func printFeedStatus(w io.Writer, s *handlers.FeedStatusBody) error {
	tw := newTabWriter(w)
	tw.writef("Cached:\t%v\n", s.Cached)
	tw.writef("Built:\t%s\n", formatTime(s.BuiltAt))
	tw.writef("Expires:\t%s\n", formatTime(s.ExpiresAt))
	tw.writef("TTL:\t%s\n", time.Duration(s.TTLSeconds)*time.Second)
	tw.writef("Items:\t%d\n", s.Items)
	tw.writef("Size:\t%s\n", humanBytes(s.Bytes))
	tw.writef("Products:\t%d (%d pages)\n", s.Products, s.Pages)
	for _, reason := range slices.Sorted(maps.Keys(s.Skipped)) {
		tw.writef("Skipped %s:\t%d\n", reason, s.Skipped[reason])
	}
	if s.LastError != "" {
		tw.writef("Last failure:\t%s\n", formatTime(s.LastFailed))
		tw.writef("Last error:\t%s\n", truncate(s.LastError, 80))
	}
	return tw.finish()
}

func printThrottle(w io.Writer, t *handlers.ThrottleBody) error {
	tw := newTabWriter(w)
	if !t.Observed {
		tw.writef("Observed:\tnot yet\n")
	} else {
		tw.writef("Available:\t%.0f / %.0f\n", t.CurrentlyAvailable, t.MaximumAvailable)
		tw.writef("Restore rate:\t%.0f/s\n", t.RestoreRate)
		tw.writef("Observed:\t%s\n", formatTime(t.ObservedAt))
	}
	tw.writef("Requests:\t%d\n", t.Requests)
	tw.writef("Throttled:\t%d\n", t.Throttled)
	return tw.finish()
}

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format(timeLayout)
}

func humanBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
