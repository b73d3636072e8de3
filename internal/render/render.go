// Package render writes booking snapshots and cache status for humans and scripts.
package render

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/goccy/go-json"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/karupanerura/snapshot-cache/booking"
	"github.com/karupanerura/snapshot-cache/internal/app"
)

// Output formats.
const (
	TableOut = "table"
	JSONOut  = "json"
)

var (
	warnColor  = color.New(color.FgYellow, color.Bold)
	errorColor = color.New(color.FgRed, color.Bold)
	okColor    = color.New(color.FgGreen)
	labelColor = color.New(color.FgCyan)
)

// Options controls the human-readable output.
type Options struct {
	UseColors bool
	Now       time.Time
}

func (o Options) sprint(c *color.Color) func(...any) string {
	if !o.UseColors {
		return fmt.Sprint
	}
	return c.SprintFunc()
}

// Snapshot writes the booking summary followed by a table of its segments.
func Snapshot(w io.Writer, s booking.Snapshot, opts Options) error {
	label := opts.sprint(labelColor)

	if s.IsStale {
		warn := opts.sprint(warnColor)
		if _, err := fmt.Fprintln(w, warn("! showing cached booking data, the booking service could not be reached")); err != nil {
			return err
		}
	}

	remaining := booking.RemainingTime(opts.Now, s.ExpiryTime)
	if remaining == "expired" {
		remaining = opts.sprint(errorColor)(remaining)
	} else {
		remaining = opts.sprint(okColor)(remaining)
	}

	if _, err := fmt.Fprintf(w, "%s %s\n%s %s\n%s %s\n",
		label("Ship reference:"), s.ShipReference,
		label("Voyage duration:"), booking.FormatDuration(s.Duration),
		label("Valid for:"), remaining,
	); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()

	table.Header([]string{"#", "Origin", "Destination", "Origin City", "Destination City"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})

	data := make([][]string, 0, len(s.Segments))
	for _, seg := range s.Segments {
		pair := seg.OriginAndDestinationPair
		data = append(data, []string{
			strconv.Itoa(seg.ID),
			pair.Origin.Code + " " + pair.Origin.DisplayName,
			pair.Destination.Code + " " + pair.Destination.DisplayName,
			pair.OriginCity,
			pair.DestinationCity,
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// Status writes what the cache currently holds as a two-column table.
func Status(w io.Writer, st *app.Status, opts Options) error {
	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()

	table.Header([]string{"Property", "Value"})

	rows := [][]string{
		{"Backend", st.Backend},
		{"Key", st.Key},
	}
	if !st.Cached {
		rows = append(rows, []string{"Cached", opts.sprint(warnColor)("no")})
	} else {
		rows = append(rows,
			[]string{"Cached", opts.sprint(okColor)("yes")},
			[]string{"Ship reference", st.ShipReference},
			[]string{"Booking expires", expiryText(st.ExpiresAt, st.Expired, opts)},
			[]string{"Cache expires", expiryText(st.CacheExpiresAt, st.CacheExpired, opts)},
		)
	}
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

func expiryText(t time.Time, expired bool, opts Options) string {
	if t.IsZero() {
		return opts.sprint(errorColor)("missing")
	}
	text := t.Local().Format(time.RFC3339)
	if expired {
		return opts.sprint(errorColor)(text + " (expired)")
	}
	return opts.sprint(okColor)(text)
}

// JSON writes v as indented JSON.
func JSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
