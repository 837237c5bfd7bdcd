package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-orrery/internal/selfcheck"
)

// SelfCheckModel lists self-check results, failures first when filtered.
type SelfCheckModel struct {
	width     int
	height    int
	results   []selfcheck.Result
	checkedAt time.Time

	scrollOffset int
	failedOnly   bool
}

// NewSelfCheckModel creates a new self-check view model.
func NewSelfCheckModel() SelfCheckModel {
	return SelfCheckModel{}
}

// SetSize updates the viewport size.
func (m SelfCheckModel) SetSize(width, height int) SelfCheckModel {
	m.width = width
	m.height = height
	return m
}

// UpdateData replaces the displayed results.
func (m SelfCheckModel) UpdateData(results []selfcheck.Result, at time.Time) SelfCheckModel {
	m.results = results
	m.checkedAt = at
	if m.scrollOffset >= len(m.visible()) {
		m.scrollOffset = 0
	}
	return m
}

// Update handles view-local keys.
func (m SelfCheckModel) Update(msg tea.Msg) (SelfCheckModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			if m.scrollOffset > 0 {
				m.scrollOffset--
			}
		case "down", "j":
			if m.scrollOffset < len(m.visible())-1 {
				m.scrollOffset++
			}
		case "f":
			m.failedOnly = !m.failedOnly
			m.scrollOffset = 0
		}
	}
	return m, nil
}

func (m SelfCheckModel) visible() []selfcheck.Result {
	if m.failedOnly {
		return selfcheck.Failures(m.results)
	}
	return m.results
}

// View renders the self-check panel.
func (m SelfCheckModel) View() string {
	if len(m.results) == 0 {
		return "  Self-check not run yet. Press r to run."
	}

	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#9D4EDD")).Bold(true)
	passStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	failStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#E84A27")).Bold(true)
	nameStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Width(30)
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))

	passed, total := selfcheck.Summary(m.results)

	var b strings.Builder
	summary := fmt.Sprintf("  SELF-CHECK  %d/%d passed", passed, total)
	if passed == total {
		b.WriteString(headerStyle.Render(summary))
	} else {
		b.WriteString(failStyle.Render(summary))
	}
	b.WriteString(dimStyle.Render("  at " + m.checkedAt.UTC().Format("15:04:05")))
	if m.failedOnly {
		b.WriteString(dimStyle.Render("  [failures only]"))
	}
	b.WriteString("\n\n")

	rows := m.visible()
	maxRows := m.height - 4
	if maxRows < 3 {
		maxRows = len(rows)
	}
	start := m.scrollOffset
	end := start + maxRows
	if end > len(rows) {
		end = len(rows)
	}

	for _, r := range rows[start:end] {
		mark := passStyle.Render("  ✓ ")
		if !r.Passed {
			mark = failStyle.Render("  ✗ ")
		}
		detail := fmt.Sprintf("%.6g (want %.6g ± %.3g)", r.Observed, r.Expected, r.Tolerance)
		if r.Note != "" {
			detail += "  " + r.Note
		}
		b.WriteString(mark + nameStyle.Render(r.Name) + dimStyle.Render(detail))
		b.WriteString("\n")
	}

	if end < len(rows) {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  ... %d more", len(rows)-end)))
		b.WriteString("\n")
	}
	return b.String()
}
