// Package ephem supplies heliocentric orbital rows for the catalog planets
// from interchangeable providers, with model fallback for external sources.
package ephem

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/litescript/ls-orrery/internal/bodies"
)

var (
	// ErrEmptyResponse is returned when an external source answers with no data.
	ErrEmptyResponse = errors.New("empty ephemeris response")

	// ErrNoBodiesMapped is returned when none of the returned bodies match the request.
	ErrNoBodiesMapped = errors.New("no requested bodies in ephemeris response")

	// ErrStaleGeneration marks a response superseded by a newer request.
	ErrStaleGeneration = errors.New("stale ephemeris generation")

	// ErrInvalidMode is returned by ParseMode for unknown names.
	ErrInvalidMode = errors.New("invalid source mode")

	// ErrNoExternalProvider is reported when external mode is selected
	// without a configured external provider.
	ErrNoExternalProvider = errors.New("no external provider configured")
)

// OrbitalRow is one body's heliocentric position and speed in the ecliptic plane.
type OrbitalRow struct {
	Body            bodies.Body `json:"-"`
	Name            string      `json:"name"`
	SemiMajorAxisAU float64     `json:"semiMajorAxisAU"`
	PeriodDays      float64     `json:"periodDays"`
	AngleDeg        float64     `json:"angleDeg"`
	XAU             float64     `json:"xAU"`
	YAU             float64     `json:"yAU"`
	SpeedKmPerSec   float64     `json:"speedKmPerSec"`
}

// Request asks a provider for rows at one instant. Generation identifies the
// tick that issued it.
type Request struct {
	Generation uint64
	Instant    time.Time
	Bodies     []bodies.Body
	Mode       Mode
}

// FetchResult is the outcome of a provider fetch: rows on success, Error on failure.
type FetchResult struct {
	Provider  string
	Rows      []OrbitalRow
	FetchedAt time.Time
	Duration  time.Duration
	Error     error
}

// Provider defines the interface for ephemeris data sources.
type Provider interface {
	// Name returns the provider name for display/logging.
	Name() string

	// Fetch returns rows for the requested bodies. Failures are reported in
	// FetchResult.Error rather than by panicking or partial output.
	Fetch(ctx context.Context, req Request) FetchResult
}

// Mode represents which ephemeris source the caller has selected.
type Mode int

const (
	ModeModel    Mode = iota // Circular-orbit model only (default)
	ModeExternal             // External provider with model fallback
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeModel:
		return "model"
	case ModeExternal:
		return "external"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// ParseMode parses a mode string.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "model", "":
		return ModeModel, nil
	case "external":
		return ModeExternal, nil
	default:
		return ModeModel, fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// Status reports the state of the source after its latest tick.
type Status int

const (
	StatusModel           Status = iota // model mode, no external activity
	StatusExternalLoading               // external request in flight
	StatusExternalOk                    // last external fetch succeeded
	StatusExternalError                 // last external fetch failed, model rows served
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusModel:
		return "model"
	case StatusExternalLoading:
		return "external-loading"
	case StatusExternalOk:
		return "external-ok"
	case StatusExternalError:
		return "external-error"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(b []byte) error {
	for _, st := range AllStatuses() {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", b)
}

// AllStatuses lists every status in declaration order.
func AllStatuses() []Status {
	return []Status{StatusModel, StatusExternalLoading, StatusExternalOk, StatusExternalError}
}

// Table is the row set produced by one completed tick.
type Table struct {
	Generation uint64       `json:"generation"`
	Instant    time.Time    `json:"instant"`
	Mode       Mode         `json:"mode"`
	Status     Status       `json:"status"`
	Provider   string       `json:"provider"`
	Rows       []OrbitalRow `json:"rows"`
	Err        string       `json:"error,omitempty"`
}

// Row returns the row for b, if present.
func (t Table) Row(b bodies.Body) (OrbitalRow, bool) {
	for _, r := range t.Rows {
		if r.Body == b {
			return r, true
		}
	}
	return OrbitalRow{}, false
}
