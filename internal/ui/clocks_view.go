package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-orrery/internal/astro"
	"github.com/litescript/ls-orrery/internal/engine"
)

// ClocksModel renders Earth, Mars and the generic rotational dials.
type ClocksModel struct {
	width  int
	height int
	clocks engine.Snapshot
	ready  bool

	scrollOffset int
	showMoons    bool
}

// NewClocksModel creates a new clocks view model.
func NewClocksModel() ClocksModel {
	return ClocksModel{showMoons: true}
}

// SetSize updates the viewport size.
func (m ClocksModel) SetSize(width, height int) ClocksModel {
	m.width = width
	m.height = height
	return m
}

// UpdateData replaces the clock snapshot.
func (m ClocksModel) UpdateData(s engine.Snapshot) ClocksModel {
	m.clocks = s
	m.ready = true
	return m
}

// Update handles view-local keys.
func (m ClocksModel) Update(msg tea.Msg) (ClocksModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			if m.scrollOffset > 0 {
				m.scrollOffset--
			}
		case "down", "j":
			if m.scrollOffset < len(m.visibleBodies())-1 {
				m.scrollOffset++
			}
		case "m":
			m.showMoons = !m.showMoons
			m.scrollOffset = 0
		}
	}
	return m, nil
}

func (m ClocksModel) visibleBodies() []engine.BodyClock {
	if m.showMoons {
		return m.clocks.Bodies
	}
	var out []engine.BodyClock
	for _, c := range m.clocks.Bodies {
		if c.Primary == "" {
			out = append(out, c)
		}
	}
	return out
}

// View renders the clocks panel.
func (m ClocksModel) View() string {
	if !m.ready {
		return "  Evaluating clocks..."
	}

	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#9D4EDD")).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Width(18)
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))

	row := func(label, value string) string {
		return "  " + labelStyle.Render(label) + valueStyle.Render(value)
	}

	c := m.clocks
	earth := []string{
		headerStyle.Render("  EARTH") + dimStyle.Render(fmt.Sprintf("  lon %+.2f°", c.Earth.Longitude)),
		row("UTC", c.Instant.Format("2006-01-02 15:04:05")),
		row("Day of year", fmt.Sprintf("%d", c.DayOfYear)),
		row("Mean solar", astro.FormatClock(c.Earth.Mean)),
		row("Apparent solar", astro.FormatClock(c.Earth.Apparent)),
		row("Equation of time", fmt.Sprintf("%+.2f min", c.Earth.EoTMinutes)),
		row("Local sidereal", astro.FormatClock(c.Earth.Sidereal)),
	}

	mars := []string{
		headerStyle.Render("  MARS") + dimStyle.Render(fmt.Sprintf("  lon %+.2f°E", c.Mars.Longitude)),
		row("Mars Sol Date", fmt.Sprintf("%.5f", c.Mars.MSD)),
		row("Sol", fmt.Sprintf("%d", c.Mars.Sol)),
		row("MTC", astro.FormatClock(c.Mars.MTC)),
		row("LMST", astro.FormatClock(c.Mars.LMST)),
		row("JD (UTC)", fmt.Sprintf("%.6f", c.JDUTC)),
		row("JD (TT)", fmt.Sprintf("%.6f", c.JDTT)),
	}

	colWidth := 42
	if m.width > 0 && m.width/2 < colWidth {
		colWidth = m.width / 2
	}
	col := lipgloss.NewStyle().Width(colWidth)
	top := lipgloss.JoinHorizontal(lipgloss.Top,
		col.Render(strings.Join(earth, "\n")),
		col.Render(strings.Join(mars, "\n")))

	return top + "\n\n" + m.renderDials()
}

func (m ClocksModel) renderDials() string {
	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#9D4EDD")).Bold(true)
	colStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	nameStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	retroStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#E84A27"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))

	var b strings.Builder
	b.WriteString(headerStyle.Render("  ROTATIONAL DIALS"))
	b.WriteString("\n")
	b.WriteString(colStyle.Render(fmt.Sprintf("  %-10s %-8s %12s %9s %9s %9s", "BODY", "PRIMARY", "PERIOD (h)", "CLOCK", "LMST", "DAY")))
	b.WriteString("\n")

	dials := m.visibleBodies()

	// Rows left after the Earth/Mars block and headers.
	maxRows := m.height - 12
	if maxRows < 3 {
		maxRows = len(dials)
	}
	start := m.scrollOffset
	if start > len(dials) {
		start = len(dials)
	}
	end := start + maxRows
	if end > len(dials) {
		end = len(dials)
	}

	for _, d := range dials[start:end] {
		primary := d.Primary
		if primary == "" {
			primary = "-"
		}
		line := fmt.Sprintf("  %-10s %-8s %12.3f %9s %9s %9d",
			d.Name, primary, d.PeriodHours, astro.FormatClock(d.Clock), astro.FormatClock(d.LMST), d.DayNumber)
		b.WriteString(nameStyle.Render(line))
		if d.Retrograde() {
			b.WriteString(retroStyle.Render(" ↺"))
		}
		b.WriteString("\n")
	}

	if end < len(dials) {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  ... %d more", len(dials)-end)))
		b.WriteString("\n")
	}
	return b.String()
}
