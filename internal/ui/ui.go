// Package ui provides the terminal user interface using Bubble Tea.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-orrery/internal/bodies"
	"github.com/litescript/ls-orrery/internal/engine"
	"github.com/litescript/ls-orrery/internal/ephem"
	"github.com/litescript/ls-orrery/internal/selfcheck"
	"github.com/litescript/ls-orrery/internal/state"
	"github.com/litescript/ls-orrery/internal/version"
)

// ViewMode represents the current UI view.
type ViewMode int

const (
	ViewClocks ViewMode = iota
	ViewOrbits
	ViewSelfCheck

	numViews
)

// Msg types for Bubble Tea
type (
	// TickMsg triggers a clock evaluation and, when idle, an ephemeris request.
	TickMsg time.Time

	// AnimTickMsg triggers fast animation updates.
	AnimTickMsg time.Time

	// FetchDoneMsg carries a finished ephemeris request back to Update.
	FetchDoneMsg struct {
		Request ephem.Request
		Result  ephem.FetchResult
	}

	// SelfCheckMsg carries a completed self-check run.
	SelfCheckMsg struct {
		Results []selfcheck.Result
		At      time.Time
	}
)

// Options configure the root model.
type Options struct {
	Engine    engine.Config
	Bodies    []bodies.Body // orbital bodies requested each tick; nil means bodies.Orbital()
	Refresh   time.Duration
	SelfCheck selfcheck.Options

	// Now overrides the wall clock; nil means time.Now.
	Now func() time.Time
}

// Model is the root Bubble Tea model.
type Model struct {
	// Dependencies
	state  *state.Manager
	source *ephem.Source
	opts   Options

	// UI state
	viewMode  ViewMode
	width     int
	height    int
	ready     bool
	statusMsg string
	animTick  int

	// Sub-models
	clocks    ClocksModel
	orbits    OrbitsModel
	selfCheck SelfCheckModel

	// Latest clock evaluation; refreshed every tick even while a fetch is pending.
	current  engine.Snapshot
	snapshot state.Snapshot
	fetching bool
	inflight uint64 // generation of the outstanding external request
	lastErr  string
}

// New creates a new root UI model.
func New(mgr *state.Manager, src *ephem.Source, opts Options) Model {
	if opts.Refresh <= 0 {
		opts.Refresh = time.Second
	}
	if opts.Bodies == nil {
		opts.Bodies = bodies.Orbital()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return Model{
		state:     mgr,
		source:    src,
		opts:      opts,
		viewMode:  ViewClocks,
		clocks:    NewClocksModel(),
		orbits:    NewOrbitsModel(),
		selfCheck: NewSelfCheckModel(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return TickMsg(m.opts.Now()) },
		animTickCmd(),
		m.runSelfCheck(),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit

		case "1":
			m.viewMode = ViewClocks
		case "2":
			m.viewMode = ViewOrbits
		case "3":
			m.viewMode = ViewSelfCheck

		case "tab":
			m.viewMode = (m.viewMode + 1) % numViews

		case "e":
			cmds = append(cmds, m.toggleSource())

		case "r":
			m.statusMsg = "Running self-check..."
			cmds = append(cmds, m.runSelfCheck())

		default:
			cmds = append(cmds, m.updateActiveView(msg))
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

		// Logo takes ~10 lines, footer ~2 lines
		contentHeight := msg.Height - 13
		m.clocks = m.clocks.SetSize(msg.Width, contentHeight)
		m.orbits = m.orbits.SetSize(msg.Width, contentHeight)
		m.selfCheck = m.selfCheck.SetSize(msg.Width, contentHeight)

	case TickMsg:
		cmds = append(cmds, m.tick(time.Time(msg)), tickCmd(m.opts.Refresh, m.opts.Now))

	case AnimTickMsg:
		m.animTick++
		cmds = append(cmds, animTickCmd())

	case FetchDoneMsg:
		if msg.Request.Generation == m.inflight {
			m.fetching = false
		}
		table, applied := m.source.Complete(msg.Request, msg.Result)
		if applied {
			m.commit(table)
		}

	case SelfCheckMsg:
		m.state.SetSelfCheck(msg.Results)
		m.selfCheck = m.selfCheck.UpdateData(msg.Results, msg.At)
		passed, total := selfcheck.Summary(msg.Results)
		m.statusMsg = fmt.Sprintf("Self-check %d/%d passed", passed, total)
	}

	return m, tea.Batch(cmds...)
}

// tick evaluates every clock for t and issues an ephemeris request unless
// one is already in flight. Model-mode requests complete synchronously.
func (m *Model) tick(t time.Time) tea.Cmd {
	m.current = engine.Evaluate(t, m.opts.Engine)
	m.clocks = m.clocks.UpdateData(m.current)

	if m.fetching {
		return nil
	}

	req := m.source.Begin(t, m.opts.Bodies)
	if req.Mode == ephem.ModeModel {
		table, applied := m.source.Complete(req, m.source.Fetch(context.Background(), req))
		if applied {
			m.commit(table)
		}
		return nil
	}

	m.fetching = true
	m.inflight = req.Generation
	return fetchCmd(m.source, req)
}

// commit pairs the latest clocks with an applied table and publishes the frame.
func (m *Model) commit(table ephem.Table) {
	clocks := m.current
	if !clocks.Instant.Equal(table.Instant) {
		clocks = engine.Evaluate(table.Instant, m.opts.Engine)
	}
	m.state.Update(state.Frame{Snapshot: clocks, Table: table})
	m.snapshot = m.state.Snapshot()
	m.lastErr = table.Err

	rates := make(map[bodies.Body]float64, len(table.Rows))
	for _, row := range table.Rows {
		rates[row.Body] = m.state.AngularRate(row.Body)
	}
	m.orbits = m.orbits.UpdateData(table, rates)
}

// toggleSource flips between model and external mode and requests a fresh
// table immediately; any in-flight response becomes stale.
func (m *Model) toggleSource() tea.Cmd {
	next := ephem.ModeExternal
	if m.source.Mode() == ephem.ModeExternal {
		next = ephem.ModeModel
	}
	m.source.SetMode(next)
	m.fetching = false
	m.statusMsg = "Source: " + next.String()
	return m.tick(m.opts.Now())
}

func (m *Model) updateActiveView(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.viewMode {
	case ViewClocks:
		m.clocks, cmd = m.clocks.Update(msg)
	case ViewOrbits:
		m.orbits, cmd = m.orbits.Update(msg)
	case ViewSelfCheck:
		m.selfCheck, cmd = m.selfCheck.Update(msg)
	}
	return cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var content string
	switch m.viewMode {
	case ViewClocks:
		content = m.clocks.View()
	case ViewOrbits:
		content = m.orbits.View()
	case ViewSelfCheck:
		content = m.selfCheck.View()
	}

	return m.renderFrame(content)
}

func (m Model) renderFrame(content string) string {
	header := m.renderHeader()
	footer := m.renderFooter()

	return header + "\n" + content + "\n" + footer
}

func (m Model) renderHeader() string {
	return m.renderLogo() + m.renderStatusLine()
}

func (m Model) renderLogo() string {
	logo := []string{
		`   ██████╗ ██████╗ ██████╗ ███████╗██████╗ ██╗   ██╗`,
		`  ██╔═══██╗██╔══██╗██╔══██╗██╔════╝██╔══██╗╚██╗ ██╔╝`,
		`  ██║   ██║██████╔╝██████╔╝█████╗  ██████╔╝ ╚████╔╝ `,
		`  ██║   ██║██╔══██╗██╔══██╗██╔══╝  ██╔══██╗  ╚██╔╝  `,
		`  ╚██████╔╝██║  ██║██║  ██║███████╗██║  ██║   ██║   `,
		`   ╚═════╝ ╚═╝  ╚═╝╚═╝  ╚═╝╚══════╝╚═╝  ╚═╝   ╚═╝   `,
	}

	var b strings.Builder
	b.WriteString("\n")

	for row, line := range logo {
		runes := []rune(line)
		lineLen := len(runes)

		for col, r := range runes {
			color := gradientColor(col, row, lineLen, len(logo))
			style := lipgloss.NewStyle().Foreground(lipgloss.Color(color))
			b.WriteString(style.Render(string(r)))
		}
		b.WriteString("\n")
	}

	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	b.WriteString(muted.Render(fmt.Sprintf("  Planetary clocks · Heliocentric positions · v%s", version.Version)))
	b.WriteString("\n\n")

	return b.String()
}

// gradientColor returns a hex color for a position in the logo gradient:
// gold -> amber -> rust, dimming toward the bottom rows.
func gradientColor(col, row, width, height int) string {
	xRatio := float64(col) / float64(width)
	yRatio := float64(row) / float64(height)

	var r, g, b float64
	if xRatio < 0.5 {
		t := xRatio / 0.5
		r = 250 + t*(245-250)
		g = 204 + t*(158-204)
		b = 21 + t*(11-21)
	} else {
		t := (xRatio - 0.5) / 0.5
		r = 245 + t*(232-245)
		g = 158 + t*(74-158)
		b = 11 + t*(39-11)
	}

	brightness := 1.0 - (yRatio * 0.5)
	return fmt.Sprintf("#%02X%02X%02X", clampByte(r*brightness), clampByte(g*brightness), clampByte(b*brightness))
}

func clampByte(v float64) int {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	default:
		return int(v)
	}
}

func (m Model) renderStatusLine() string {
	return m.renderTabs() + "\n"
}

func (m Model) renderTabs() string {
	tabs := []string{"[1] Clocks", "[2] Orbits", "[3] Self-check"}
	activeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#9D4EDD")).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))

	var parts []string
	for i, tab := range tabs {
		if ViewMode(i) == m.viewMode {
			parts = append(parts, activeStyle.Render("▶ "+tab))
		} else {
			parts = append(parts, dimStyle.Render("  "+tab))
		}
	}
	return "  " + strings.Join(parts, "  ")
}

func (m Model) renderFooter() string {
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#E84A27"))
	accentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#7B2CBF"))

	spinnerFrames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	spinner := spinnerFrames[m.animTick%len(spinnerFrames)]

	source := m.source.Mode().String()
	if name := m.source.ExternalName(); name != "" && m.source.Mode() == ephem.ModeExternal {
		source += " (" + name + ")"
	}

	var status string
	switch {
	case m.fetching:
		status = accentStyle.Render(spinner) + " " + m.renderShimmerText("Fetching ephemeris...")
	case m.lastErr != "":
		status = errorStyle.Render("FALLBACK: " + m.lastErr)
	case m.snapshot.Frame != nil:
		status = accentStyle.Render(spinner) + dimStyle.Render(" "+m.source.Status().String())
	default:
		status = accentStyle.Render(spinner) + " " + m.renderShimmerText("Waiting for data...")
	}

	var help string
	switch m.viewMode {
	case ViewClocks:
		help = "↑↓: scroll | m: moons"
	case ViewOrbits:
		help = "j/k: focus | +/-: zoom | l: labels"
	case ViewSelfCheck:
		help = "↑↓: scroll | f: failures"
	}
	help += " | e: source | r: self-check | tab: view | q: quit"

	footer := "  " + dimStyle.Render("src: "+source) + "  " + status + "  " + dimStyle.Render("|") + "  " + dimStyle.Render(help)

	if m.statusMsg != "" {
		footer += "\n  " + dimStyle.Render(m.statusMsg)
	}

	return footer
}

// renderShimmerText renders text with a subtle moving shine effect.
func (m Model) renderShimmerText(text string) string {
	runes := []rune(text)
	textLen := len(runes)
	if textLen == 0 {
		return ""
	}

	pos := m.animTick % (textLen + 8)

	var result strings.Builder
	for i, r := range runes {
		dist := i - pos + 4
		if dist < 0 {
			dist = -dist
		}

		var r8, g8, b8 int
		switch {
		case dist <= 1:
			r8, g8, b8 = 180, 160, 220
		case dist <= 3:
			r8, g8, b8 = 140, 120, 180
		case dist <= 5:
			r8, g8, b8 = 110, 90, 150
		default:
			r8, g8, b8 = 80, 70, 120
		}

		hexColor := fmt.Sprintf("#%02X%02X%02X", r8, g8, b8)
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(hexColor))
		result.WriteString(style.Render(string(r)))
	}

	return result.String()
}

// ActiveView returns the active view.
func (m Model) ActiveView() ViewMode {
	return m.viewMode
}

func (m Model) runSelfCheck() tea.Cmd {
	now := m.opts.Now
	opts := m.opts.SelfCheck
	return func() tea.Msg {
		at := now()
		return SelfCheckMsg{Results: selfcheck.Run(at, opts), At: at}
	}
}

func fetchCmd(src *ephem.Source, req ephem.Request) tea.Cmd {
	return func() tea.Msg {
		return FetchDoneMsg{Request: req, Result: src.Fetch(context.Background(), req)}
	}
}

func tickCmd(d time.Duration, now func() time.Time) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return TickMsg(now())
	})
}

func animTickCmd() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return AnimTickMsg(t)
	})
}
