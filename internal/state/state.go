// Package state provides thread-safe state management for the application.
package state

import (
	"strings"
	"sync"
	"time"

	"github.com/litescript/ls-orrery/internal/bodies"
	"github.com/litescript/ls-orrery/internal/engine"
	"github.com/litescript/ls-orrery/internal/ephem"
	"github.com/litescript/ls-orrery/internal/selfcheck"
)

// EventType represents the type of state change event.
type EventType string

const (
	EventModeChange EventType = "MODE_CHANGE"
	EventFallback   EventType = "FALLBACK"
	EventRecovered  EventType = "RECOVERED"
	EventRowsDrop   EventType = "ROWS_DROPPED"
)

// Event represents a change in the ephemeris source.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	From      string    `json:"from,omitempty"`
	To        string    `json:"to,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}

// Frame is one evaluation tick: every clock plus the orbital table.
type Frame struct {
	Snapshot engine.Snapshot `json:"clocks"`
	Table    ephem.Table     `json:"orbits"`
}

// BodyHistory tracks recent orbital readings for a body.
type BodyHistory struct {
	Body         bodies.Body
	AngleHistory []TimeSeries
	SpeedHistory []TimeSeries
}

// TimeSeries is a single data point with timestamp.
type TimeSeries struct {
	Timestamp time.Time
	Value     float64
}

// Manager handles all shared application state with thread-safe access.
type Manager struct {
	mu sync.RWMutex

	// Current state
	current    *Frame
	lastUpdate time.Time
	selfCheck  []selfcheck.Result
	checkedAt  time.Time

	// Per-body history
	bodyHistory    map[bodies.Body]*BodyHistory
	maxBodyHistory int

	// Event log (ring buffer)
	events       []Event
	maxEvents    int
	eventWriteAt int

	// Configuration
	refreshInterval time.Duration
}

// Config holds configuration for the state manager.
type Config struct {
	MaxBodyHistory  int
	MaxEvents       int
	RefreshInterval time.Duration
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		MaxBodyHistory:  120, // 2 minutes at 1 tick/s
		MaxEvents:       50,  // Last 50 events
		RefreshInterval: time.Second,
	}
}

// NewManager creates a new state manager.
func NewManager(cfg Config) *Manager {
	maxEvents := cfg.MaxEvents
	if maxEvents <= 0 {
		maxEvents = 50
	}
	return &Manager{
		maxBodyHistory:  cfg.MaxBodyHistory,
		maxEvents:       maxEvents,
		events:          make([]Event, 0, maxEvents),
		refreshInterval: cfg.RefreshInterval,
		bodyHistory:     make(map[bodies.Body]*BodyHistory),
	}
}

// Update atomically replaces the current frame.
func (m *Manager) Update(f Frame) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastUpdate = time.Now()

	// Detect events before updating current state
	if m.current != nil {
		m.detectEvents(m.current.Table, f.Table)
	}

	m.current = &f
	m.updateBodyHistory(f.Table)
}

// detectEvents compares two consecutive tables and records transitions.
func (m *Manager) detectEvents(prev, next ephem.Table) {
	now := time.Now()

	if prev.Mode != next.Mode {
		m.addEvent(Event{
			Type:      EventModeChange,
			Timestamp: now,
			From:      prev.Mode.String(),
			To:        next.Mode.String(),
		})
	}

	switch {
	case next.Status == ephem.StatusExternalError && prev.Status != ephem.StatusExternalError:
		m.addEvent(Event{
			Type:      EventFallback,
			Timestamp: now,
			From:      prev.Status.String(),
			To:        next.Status.String(),
			Detail:    next.Err,
		})
	case next.Status == ephem.StatusExternalOk && prev.Status == ephem.StatusExternalError:
		m.addEvent(Event{
			Type:      EventRecovered,
			Timestamp: now,
			From:      prev.Status.String(),
			To:        next.Status.String(),
			Detail:    next.Provider,
		})
	}

	if next.Status == ephem.StatusExternalOk && len(next.Rows) < len(prev.Rows) {
		m.addEvent(Event{
			Type:      EventRowsDrop,
			Timestamp: now,
			Detail:    missingNames(prev.Rows, next.Rows),
		})
	}
}

func missingNames(prev, next []ephem.OrbitalRow) string {
	have := make(map[bodies.Body]bool, len(next))
	for _, r := range next {
		have[r.Body] = true
	}
	var names []bodies.Body
	for _, r := range prev {
		if !have[r.Body] {
			names = append(names, r.Body)
		}
	}
	return strings.Join(bodies.Names(names), ",")
}

// addEvent adds an event to the ring buffer.
func (m *Manager) addEvent(e Event) {
	if len(m.events) < m.maxEvents {
		m.events = append(m.events, e)
	} else {
		m.events[m.eventWriteAt] = e
		m.eventWriteAt = (m.eventWriteAt + 1) % m.maxEvents
	}
}

func (m *Manager) updateBodyHistory(t ephem.Table) {
	if m.maxBodyHistory <= 0 {
		return
	}
	for _, row := range t.Rows {
		hist, ok := m.bodyHistory[row.Body]
		if !ok {
			hist = &BodyHistory{
				Body:         row.Body,
				AngleHistory: make([]TimeSeries, 0, m.maxBodyHistory),
				SpeedHistory: make([]TimeSeries, 0, m.maxBodyHistory),
			}
			m.bodyHistory[row.Body] = hist
		}

		ts := t.Instant

		hist.AngleHistory = append(hist.AngleHistory, TimeSeries{Timestamp: ts, Value: row.AngleDeg})
		if len(hist.AngleHistory) > m.maxBodyHistory {
			hist.AngleHistory = hist.AngleHistory[1:]
		}

		hist.SpeedHistory = append(hist.SpeedHistory, TimeSeries{Timestamp: ts, Value: row.SpeedKmPerSec})
		if len(hist.SpeedHistory) > m.maxBodyHistory {
			hist.SpeedHistory = hist.SpeedHistory[1:]
		}
	}
}

// SetSelfCheck stores the results of a self-check run.
func (m *Manager) SetSelfCheck(results []selfcheck.Result) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.selfCheck = append([]selfcheck.Result(nil), results...)
	m.checkedAt = time.Now()
}

// Snapshot represents an immutable snapshot of current state.
type Snapshot struct {
	Frame      *Frame
	LastUpdate time.Time
	SelfCheck  []selfcheck.Result
	CheckedAt  time.Time
	Events     []Event
}

// Snapshot returns a consistent snapshot of current state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var frame *Frame
	if m.current != nil {
		f := *m.current
		frame = &f
	}

	checks := make([]selfcheck.Result, len(m.selfCheck))
	copy(checks, m.selfCheck)

	return Snapshot{
		Frame:      frame,
		LastUpdate: m.lastUpdate,
		SelfCheck:  checks,
		CheckedAt:  m.checkedAt,
		Events:     m.getEventsOrdered(),
	}
}

// getEventsOrdered returns events in chronological order.
func (m *Manager) getEventsOrdered() []Event {
	if len(m.events) == 0 {
		return nil
	}

	// If buffer isn't full yet, just copy
	if len(m.events) < m.maxEvents {
		result := make([]Event, len(m.events))
		copy(result, m.events)
		return result
	}

	// Ring buffer is full, reorder from oldest to newest
	result := make([]Event, m.maxEvents)
	for i := 0; i < m.maxEvents; i++ {
		idx := (m.eventWriteAt + i) % m.maxEvents
		result[i] = m.events[idx]
	}
	return result
}

// RecentEvents returns the last n events.
func (m *Manager) RecentEvents(n int) []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.getEventsOrdered()
	if len(all) <= n {
		return all
	}
	return all[len(all)-n:]
}

// GetBodyHistory returns history for a body, or nil if none was recorded.
func (m *Manager) GetBodyHistory(b bodies.Body) *BodyHistory {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hist, ok := m.bodyHistory[b]
	if !ok {
		return nil
	}

	// Return a copy
	copyHist := &BodyHistory{
		Body:         hist.Body,
		AngleHistory: make([]TimeSeries, len(hist.AngleHistory)),
		SpeedHistory: make([]TimeSeries, len(hist.SpeedHistory)),
	}
	copy(copyHist.AngleHistory, hist.AngleHistory)
	copy(copyHist.SpeedHistory, hist.SpeedHistory)

	return copyHist
}

// AngularRate estimates a body's angular rate in degrees per day from the
// last two samples, unwrapping across 360°.
func (m *Manager) AngularRate(b bodies.Body) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hist, ok := m.bodyHistory[b]
	if !ok || len(hist.AngleHistory) < 2 {
		return 0
	}

	n := len(hist.AngleHistory)
	p1 := hist.AngleHistory[n-2]
	p2 := hist.AngleHistory[n-1]

	deltaDays := p2.Timestamp.Sub(p1.Timestamp).Hours() / 24
	if deltaDays <= 0 {
		return 0
	}

	delta := p2.Value - p1.Value
	switch {
	case delta > 180:
		delta -= 360
	case delta < -180:
		delta += 360
	}
	return delta / deltaDays
}

// RefreshInterval returns the configured refresh interval.
func (m *Manager) RefreshInterval() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.refreshInterval
}

// SetRefreshInterval updates the refresh interval.
func (m *Manager) SetRefreshInterval(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshInterval = d
}

// HasData returns true if at least one frame has been stored.
func (m *Manager) HasData() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current != nil
}
