package state

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/litescript/ls-orrery/internal/astro"
	"github.com/litescript/ls-orrery/internal/engine"
	"github.com/litescript/ls-orrery/internal/ephem"
	"github.com/litescript/ls-orrery/internal/selfcheck"
)

// FrameExport is the JSON document written by the headless -json mode.
type FrameExport struct {
	GeneratedAt time.Time          `json:"generatedAt"`
	Clocks      engine.Snapshot    `json:"clocks"`
	Orbits      ephem.Table        `json:"orbits"`
	SelfCheck   []selfcheck.Result `json:"selfCheck,omitempty"`
	Events      []Event            `json:"events,omitempty"`
}

// ExportFrame builds an export document from a state snapshot. It returns
// nil when no frame has been stored yet.
func ExportFrame(snap Snapshot, generatedAt time.Time) *FrameExport {
	if snap.Frame == nil {
		return nil
	}
	return &FrameExport{
		GeneratedAt: generatedAt.UTC(),
		Clocks:      snap.Frame.Snapshot,
		Orbits:      snap.Frame.Table,
		SelfCheck:   snap.SelfCheck,
		Events:      snap.Events,
	}
}

// WriteJSON writes the export as indented JSON.
func (e *FrameExport) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}

// WriteSummary writes the clock board and orbital table as plain text.
func WriteSummary(w io.Writer, f Frame) {
	c := f.Snapshot

	fmt.Fprintf(w, "Orrery @ %s  (JD UTC %.6f, JD TT %.6f, day %d)\n",
		c.Instant.Format(time.RFC3339), c.JDUTC, c.JDTT, c.DayOfYear)
	fmt.Fprintln(w, strings.Repeat("─", 78))

	fmt.Fprintf(w, "Earth  lon %+8.3f°  mean %s  apparent %s  EoT %+6.2f min  LST %s\n",
		c.Earth.Longitude,
		astro.FormatClock(c.Earth.Mean),
		astro.FormatClock(c.Earth.Apparent),
		c.Earth.EoTMinutes,
		astro.FormatClock(c.Earth.Sidereal))
	fmt.Fprintf(w, "Mars   lon %+8.3f°  MSD %.5f  sol %d  MTC %s  LMST %s\n",
		c.Mars.Longitude, c.Mars.MSD, c.Mars.Sol,
		astro.FormatClock(c.Mars.MTC), astro.FormatClock(c.Mars.LMST))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-10s %-8s %12s %9s %9s %9s\n", "Body", "Primary", "Period (h)", "Clock", "LMST", "Day")
	fmt.Fprintln(w, strings.Repeat("─", 78))
	for _, b := range c.Bodies {
		primary := b.Primary
		if primary == "" {
			primary = "-"
		}
		fmt.Fprintf(w, "%-10s %-8s %12.3f %9s %9s %9d\n",
			b.Name, primary, b.PeriodHours,
			astro.FormatClock(b.Clock), astro.FormatClock(b.LMST), b.DayNumber)
	}

	t := f.Table
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Orbits: %s / %s via %s\n", t.Mode, t.Status, t.Provider)
	if t.Err != "" {
		fmt.Fprintf(w, "Fallback: %s\n", t.Err)
	}
	fmt.Fprintln(w, strings.Repeat("─", 78))
	if len(t.Rows) == 0 {
		fmt.Fprintln(w, "No orbital rows")
		return
	}
	fmt.Fprintf(w, "%-8s %8s %10s %9s %9s %8s %9s\n", "Body", "a (AU)", "T (d)", "X (AU)", "Y (AU)", "Angle", "v (km/s)")
	for _, r := range t.Rows {
		fmt.Fprintf(w, "%-8s %8.4f %10.2f %9.4f %9.4f %7.2f° %9.3f\n",
			r.Name, r.SemiMajorAxisAU, r.PeriodDays, r.XAU, r.YAU, r.AngleDeg, r.SpeedKmPerSec)
	}
}

// WriteSelfCheck writes one line per result followed by a pass count.
func WriteSelfCheck(w io.Writer, results []selfcheck.Result) {
	for _, r := range results {
		fmt.Fprintln(w, r.String())
	}
	passed, total := selfcheck.Summary(results)
	fmt.Fprintf(w, "\n%d/%d checks passed\n", passed, total)
}

// WriteEvents writes the most recent events, newest last.
func WriteEvents(w io.Writer, events []Event, limit int) {
	if len(events) == 0 {
		return
	}
	if limit > 0 && len(events) > limit {
		events = events[len(events)-limit:]
	}
	fmt.Fprintln(w, "Events:")
	for _, e := range events {
		line := fmt.Sprintf("  %s %-14s", e.Timestamp.Format("15:04:05"), e.Type)
		if e.From != "" || e.To != "" {
			line += fmt.Sprintf(" %s -> %s", e.From, e.To)
		}
		if e.Detail != "" {
			line += "  " + e.Detail
		}
		fmt.Fprintln(w, line)
	}
}
