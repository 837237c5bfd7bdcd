// Package astro provides time-scale conversions, solar and planetary clocks,
// and the circular orbital-position model.
package astro

import (
	"math"
	"time"
)

const (
	// UnixEpochJD is the Julian Date of 1970-01-01T00:00:00Z.
	UnixEpochJD = 2440587.5

	// J2000TT is the Julian Date (TT) of the J2000.0 reference epoch.
	J2000TT = 2451545.0

	// MillisPerDay is the number of milliseconds in a UTC day (no leap seconds).
	MillisPerDay = 86400000.0

	// SecondsPerDay is the number of seconds in a day.
	SecondsPerDay = 86400.0

	// TTMinusTAI is the fixed offset between Terrestrial Time and TAI in seconds.
	TTMinusTAI = 32.184

	// DefaultLeapSeconds is TAI-UTC in effect since 2017-01-01.
	// Not updated automatically: a new leap second skews every TT-derived
	// reading by one second until TimeScale.LeapSeconds is raised.
	DefaultLeapSeconds = 37.0
)

// TimeScale carries the UTC->TT offset parameters.
type TimeScale struct {
	LeapSeconds float64 // TAI-UTC in seconds
}

// DefaultTimeScale uses DefaultLeapSeconds.
var DefaultTimeScale = TimeScale{LeapSeconds: DefaultLeapSeconds}

// OffsetSeconds returns TT-UTC in seconds.
func (s TimeScale) OffsetSeconds() float64 {
	return s.LeapSeconds + TTMinusTAI
}

// TerrestrialJD converts a UTC Julian Date to a TT Julian Date.
func (s TimeScale) TerrestrialJD(jdUTC float64) float64 {
	return jdUTC + s.OffsetSeconds()/SecondsPerDay
}

// JulianDateUTC returns the Julian Date for an instant, at millisecond resolution.
func JulianDateUTC(t time.Time) float64 {
	return float64(t.UnixMilli())/MillisPerDay + UnixEpochJD
}

// TerrestrialJD converts a UTC Julian Date to TT using DefaultTimeScale.
func TerrestrialJD(jdUTC float64) float64 {
	return DefaultTimeScale.TerrestrialJD(jdUTC)
}

// DayOfYear returns the 1-based UTC calendar day of year (1..366).
func DayOfYear(t time.Time) int {
	return t.UTC().YearDay()
}

// HourOfDayUTC returns the UTC time of day in fractional hours [0,24).
func HourOfDayUTC(t time.Time) float64 {
	u := t.UTC()
	ms := u.Nanosecond() / int(time.Millisecond)
	return float64(u.Hour()) +
		float64(u.Minute())/60 +
		float64(u.Second())/3600 +
		float64(ms)/3600e3
}

// Mod is a floored modulo: the result always lies in [0,m) for m > 0,
// including for negative n.
func Mod(n, m float64) float64 {
	r := math.Mod(math.Mod(n, m)+m, m)
	// math.Mod can round (tiny negative + m) up to exactly m.
	if r >= m {
		return 0
	}
	return r
}
