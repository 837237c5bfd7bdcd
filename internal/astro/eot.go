package astro

import (
	"math"
	"time"

	"github.com/soniakeys/unit"
)

// FractionalYear returns the fractional-year angle used by the equation of
// time series. It always assumes a 365-day year.
func FractionalYear(t time.Time) unit.Angle {
	n := float64(DayOfYear(t))
	h := HourOfDayUTC(t)
	return unit.Angle(2 * math.Pi / 365 * (n - 1 + (h-12)/24))
}

// EquationOfTime returns apparent minus mean solar time in minutes.
//
// Truncated Fourier series (Spencer 1971, as used by NOAA). Worst case it
// departs from an ephemeris-grade equation of time by roughly 0.5-1 minute.
func EquationOfTime(t time.Time) float64 {
	g := FractionalYear(t).Rad()
	return 229.18 * (0.000075 +
		0.001868*math.Cos(g) -
		0.032077*math.Sin(g) -
		0.014615*math.Cos(2*g) -
		0.040849*math.Sin(2*g))
}
