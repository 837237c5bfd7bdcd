package ui

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-orrery/internal/bodies"
	"github.com/litescript/ls-orrery/internal/ephem"
)

// OrbitsModel renders a top-down heliocentric view and the orbital table.
type OrbitsModel struct {
	width  int
	height int
	table  ephem.Table
	rates  map[bodies.Body]float64

	focusIdx   int // Index in table rows (-1 = Sun)
	zoomLevel  int // Index into zoomLevels
	showLabels bool
}

// Discrete zoom levels for clean stepping
var zoomLevels = []float64{0.5, 0.75, 1.0, 1.5, 2.0, 3.0, 5.0}

// Log-radius mapping puts Neptune's orbit near the canvas edge at zoom 1.
const maxDisplayAU = 31.0

// NewOrbitsModel creates a new orbits view model.
func NewOrbitsModel() OrbitsModel {
	return OrbitsModel{
		focusIdx:   -1,
		zoomLevel:  2,
		showLabels: true,
	}
}

func (m OrbitsModel) scale() float64 {
	if m.zoomLevel < 0 || m.zoomLevel >= len(zoomLevels) {
		return 1.0
	}
	return zoomLevels[m.zoomLevel]
}

// SetSize updates the viewport size.
func (m OrbitsModel) SetSize(width, height int) OrbitsModel {
	m.width = width
	m.height = height
	return m
}

// UpdateData replaces the orbital table and per-body angular rates (deg/day).
func (m OrbitsModel) UpdateData(t ephem.Table, rates map[bodies.Body]float64) OrbitsModel {
	m.table = t
	m.rates = rates
	if m.focusIdx >= len(t.Rows) {
		m.focusIdx = -1
	}
	return m
}

// Update handles view-local keys.
func (m OrbitsModel) Update(msg tea.Msg) (OrbitsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "k":
			m.focusNext()
		case "j":
			m.focusPrev()
		case "+", "=":
			if m.zoomLevel < len(zoomLevels)-1 {
				m.zoomLevel++
			}
		case "-", "_":
			if m.zoomLevel > 0 {
				m.zoomLevel--
			}
		case "l":
			m.showLabels = !m.showLabels
		}
	}
	return m, nil
}

func (m *OrbitsModel) focusNext() {
	if len(m.table.Rows) == 0 {
		return
	}
	m.focusIdx++
	if m.focusIdx >= len(m.table.Rows) {
		m.focusIdx = -1
	}
}

func (m *OrbitsModel) focusPrev() {
	if len(m.table.Rows) == 0 {
		return
	}
	m.focusIdx--
	if m.focusIdx < -1 {
		m.focusIdx = len(m.table.Rows) - 1
	}
}

// Focused returns the focused body, or false when the Sun is focused.
func (m OrbitsModel) Focused() (bodies.Body, bool) {
	if m.focusIdx < 0 || m.focusIdx >= len(m.table.Rows) {
		return 0, false
	}
	return m.table.Rows[m.focusIdx].Body, true
}

// View renders the orbits panel.
func (m OrbitsModel) View() string {
	if len(m.table.Rows) == 0 {
		return "  Waiting for orbital rows..."
	}
	if m.width < 40 || m.height < 10 {
		return m.renderTable()
	}

	canvasW := m.width / 2
	if canvasW > 64 {
		canvasW = 64
	}
	canvas := m.buildCanvas(canvasW, m.height-2)
	return lipgloss.JoinHorizontal(lipgloss.Top, canvas, "  ", m.renderTable())
}

// bodyPos tracks a body's screen position for label rendering.
type bodyPos struct {
	x, y      int
	name      string
	isFocused bool
}

// displayRadius maps AU to canvas columns on a log scale.
func displayRadius(au, maxR, scale float64) float64 {
	return math.Log1p(au) / math.Log1p(maxDisplayAU) * maxR * scale
}

func (m OrbitsModel) buildCanvas(canvasW, canvasH int) string {
	if canvasH < 5 {
		canvasH = 5
	}

	grid := make([][]rune, canvasH)
	for y := range grid {
		grid[y] = make([]rune, canvasW)
		for x := range grid[y] {
			grid[y][x] = ' '
		}
	}

	cx := canvasW / 2
	cy := canvasH / 2
	// Rows are half as tall as columns are wide.
	maxR := float64(min(cx, cy*2)) * 0.95
	scale := m.scale()

	for _, row := range m.table.Rows {
		drawCircle(grid, cx, cy, displayRadius(row.SemiMajorAxisAU, maxR, scale))
	}

	var positions []bodyPos
	for i, row := range m.table.Rows {
		r := math.Hypot(row.XAU, row.YAU)
		theta := math.Atan2(row.YAU, row.XAU)
		dr := displayRadius(r, maxR, scale)

		sx := cx + int(math.Round(dr*math.Cos(theta)))
		sy := cy - int(math.Round(dr*math.Sin(theta)*0.5))
		if sx < 0 || sx >= canvasW || sy < 0 || sy >= canvasH {
			continue
		}

		grid[sy][sx] = bodyGlyph(row.Body, i == m.focusIdx)
		positions = append(positions, bodyPos{x: sx, y: sy, name: row.Name, isFocused: i == m.focusIdx})
	}

	grid[cy][cx] = '☉'
	positions = append(positions, bodyPos{x: cx, y: cy, name: "Sun", isFocused: m.focusIdx == -1})

	if m.showLabels {
		renderLabels(grid, positions)
	}
	return renderGrid(grid)
}

func drawCircle(grid [][]rune, cx, cy int, r float64) {
	if r < 1 {
		return
	}

	h := len(grid)
	w := len(grid[0])

	steps := int(2 * math.Pi * r)
	if steps < 8 {
		steps = 8
	}
	if steps > 360 {
		steps = 360
	}

	for i := 0; i < steps; i++ {
		theta := 2 * math.Pi * float64(i) / float64(steps)
		x := cx + int(r*math.Cos(theta))
		y := cy - int(r*math.Sin(theta)*0.5)

		if x >= 0 && x < w && y >= 0 && y < h && grid[y][x] == ' ' {
			grid[y][x] = '·'
		}
	}
}

func bodyGlyph(b bodies.Body, focused bool) rune {
	if focused {
		return '◎'
	}
	switch b {
	case bodies.Jupiter, bodies.Saturn, bodies.Uranus, bodies.Neptune:
		return '◉'
	case bodies.Earth:
		return '⊕'
	default:
		return '●'
	}
}

// renderLabels writes names to the right of each glyph when there is room.
func renderLabels(grid [][]rune, positions []bodyPos) {
	h := len(grid)
	w := len(grid[0])
	for _, p := range positions {
		label := []rune(p.name)
		if p.isFocused {
			label = []rune("[" + p.name + "]")
		}
		x := p.x + 2
		if p.y < 0 || p.y >= h || x+len(label) > w {
			continue
		}
		free := true
		for i := range label {
			if grid[p.y][x+i] != ' ' && grid[p.y][x+i] != '·' {
				free = false
				break
			}
		}
		if !free {
			continue
		}
		for i, r := range label {
			grid[p.y][x+i] = r
		}
	}
}

func renderGrid(grid [][]rune) string {
	ringStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	sunStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true)
	planetStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	giantStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	focusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("249"))

	var b strings.Builder
	for _, line := range grid {
		for _, r := range line {
			switch r {
			case ' ':
				b.WriteRune(' ')
			case '·':
				b.WriteString(ringStyle.Render(string(r)))
			case '☉':
				b.WriteString(sunStyle.Render(string(r)))
			case '●', '⊕':
				b.WriteString(planetStyle.Render(string(r)))
			case '◉':
				b.WriteString(giantStyle.Render(string(r)))
			case '◎', '[', ']':
				b.WriteString(focusStyle.Render(string(r)))
			default:
				b.WriteString(labelStyle.Render(string(r)))
			}
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m OrbitsModel) renderTable() string {
	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#9D4EDD")).Bold(true)
	colStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	rowStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	focusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#E84A27"))

	var b strings.Builder
	b.WriteString(headerStyle.Render("ORBITS"))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %s · %s · %s", m.table.Mode, m.table.Status, m.table.Provider)))
	b.WriteString("\n")
	if m.table.Err != "" {
		b.WriteString(errorStyle.Render("fallback: " + m.table.Err))
		b.WriteString("\n")
	}
	b.WriteString(colStyle.Render(fmt.Sprintf("%-8s %7s %9s %8s %8s %7s %10s", "BODY", "a (AU)", "T (d)", "X (AU)", "Y (AU)", "ANGLE", "v (km/s)")))
	b.WriteString("\n")

	for i, row := range m.table.Rows {
		line := fmt.Sprintf("%-8s %7.3f %9.2f %8.3f %8.3f %6.1f° %10.3f",
			row.Name, row.SemiMajorAxisAU, row.PeriodDays, row.XAU, row.YAU, row.AngleDeg, row.SpeedKmPerSec)
		if i == m.focusIdx {
			b.WriteString(focusStyle.Render(line))
		} else {
			b.WriteString(rowStyle.Render(line))
		}
		b.WriteString("\n")
	}

	if body, ok := m.Focused(); ok {
		rate := m.rates[body]
		b.WriteString("\n")
		b.WriteString(dimStyle.Render(fmt.Sprintf("%s: %.4f °/day observed (%.3e °/s)", body, rate, rate/86400)))
	}
	return strings.TrimRight(b.String(), "\n")
}
