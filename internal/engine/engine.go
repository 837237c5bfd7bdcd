// Package engine evaluates every body clock for a single instant.
//
// Evaluate is a pure function of (instant, Config): the package keeps no
// notion of "now", and callers decide how often to re-evaluate.
package engine

import (
	"time"

	"github.com/litescript/ls-orrery/internal/astro"
	"github.com/litescript/ls-orrery/internal/bodies"
)

// Config is the per-body configuration supplied by the caller.
type Config struct {
	// Longitudes in degrees east, per body. Missing bodies use 0°.
	// Values outside [-180,180] are accepted and wrap.
	Longitudes map[bodies.Body]float64

	// TimeScale controls the UTC->TT offset. The zero value means astro.DefaultTimeScale.
	TimeScale astro.TimeScale
}

// Longitude returns the configured longitude for b.
func (c Config) Longitude(b bodies.Body) float64 {
	return c.Longitudes[b]
}

func (c Config) timeScale() astro.TimeScale {
	if c.TimeScale == (astro.TimeScale{}) {
		return astro.DefaultTimeScale
	}
	return c.TimeScale
}

// EarthClock holds Earth solar and sidereal time at one longitude.
type EarthClock struct {
	Longitude  float64 `json:"longitudeDeg"`
	Mean       float64 `json:"meanSolarHours"`
	Apparent   float64 `json:"apparentSolarHours"`
	EoTMinutes float64 `json:"equationOfTimeMinutes"`
	Sidereal   float64 `json:"localSiderealHours"`
}

// MarsClock holds the Mars Sol Date and derived clocks.
type MarsClock struct {
	Longitude float64 `json:"longitudeDeg"`
	MSD       float64 `json:"marsSolDate"`
	MTC       float64 `json:"coordinatedHours"`
	LMST      float64 `json:"localMeanSolarHours"`
	Sol       int64   `json:"sol"`
}

// BodyClock is a generic rotational-dial reading.
type BodyClock struct {
	Body        bodies.Body `json:"-"`
	Name        string      `json:"name"`
	Primary     string      `json:"primary,omitempty"`
	Longitude   float64     `json:"longitudeDeg"`
	PeriodHours float64     `json:"periodHours"`
	Clock       float64     `json:"clockHours"`
	LMST        float64     `json:"localMeanSolarHours"`
	DayNumber   int64       `json:"dayNumber"`
}

// Retrograde reports whether the dial runs backward.
func (c BodyClock) Retrograde() bool {
	return c.PeriodHours < 0
}

// Snapshot is every clock reading at one instant. It is never mutated after
// Evaluate returns it.
type Snapshot struct {
	Instant   time.Time   `json:"instant"`
	JDUTC     float64     `json:"jdUTC"`
	JDTT      float64     `json:"jdTT"`
	DayOfYear int         `json:"dayOfYear"`
	Earth     EarthClock  `json:"earth"`
	Mars      MarsClock   `json:"mars"`
	Bodies    []BodyClock `json:"bodies"`
}

// Body returns the generic clock for b, if present.
func (s Snapshot) Body(b bodies.Body) (BodyClock, bool) {
	for _, c := range s.Bodies {
		if c.Body == b {
			return c, true
		}
	}
	return BodyClock{}, false
}

// Evaluate computes every clock reading for the instant t.
func Evaluate(t time.Time, cfg Config) Snapshot {
	t = t.UTC()
	ts := cfg.timeScale()

	jdUTC := astro.JulianDateUTC(t)
	jdTT := ts.TerrestrialJD(jdUTC)

	snap := Snapshot{
		Instant:   t,
		JDUTC:     jdUTC,
		JDTT:      jdTT,
		DayOfYear: astro.DayOfYear(t),
		Earth:     evaluateEarth(t, cfg.Longitude(bodies.Earth)),
		Mars:      evaluateMars(ts.MarsSolDate(jdUTC), cfg.Longitude(bodies.Mars)),
	}

	rot := bodies.Rotational()
	snap.Bodies = make([]BodyClock, 0, len(rot))
	for _, b := range rot {
		snap.Bodies = append(snap.Bodies, evaluateBody(b, jdTT, cfg.Longitude(b)))
	}

	return snap
}

func evaluateEarth(t time.Time, lon float64) EarthClock {
	return EarthClock{
		Longitude:  lon,
		Mean:       astro.MeanSolarTime(t, lon),
		Apparent:   astro.ApparentSolarTime(t, lon),
		EoTMinutes: astro.EquationOfTime(t),
		Sidereal:   astro.LocalSiderealTime(t, lon),
	}
}

func evaluateMars(msd, lon float64) MarsClock {
	return MarsClock{
		Longitude: lon,
		MSD:       msd,
		MTC:       astro.MarsCoordinatedTime(msd),
		LMST:      astro.MarsLocalMeanSolarTime(msd, lon),
		Sol:       astro.SolNumber(msd),
	}
}

func evaluateBody(b bodies.Body, jdTT, lon float64) BodyClock {
	r, _ := b.Rotation()

	c := BodyClock{
		Body:        b,
		Name:        b.String(),
		Longitude:   lon,
		PeriodHours: r.PeriodHours,
		Clock:       r.Clock(jdTT),
		LMST:        r.LocalMeanSolarTime(jdTT, lon),
		DayNumber:   r.DayNumber(jdTT),
	}
	if p := b.Primary(); p != b {
		c.Primary = p.String()
	}
	return c
}
