package astro

import (
	"math"
	"time"

	"github.com/soniakeys/unit"
)

// SunPosition calculates the apparent equatorial coordinates of the Sun
// together with its geometric mean longitude, all in degrees.
// Simplified solar ephemeris from the Astronomical Almanac: ~0.01° in RA.
func SunPosition(t time.Time) (raDeg, decDeg, meanLonDeg float64) {
	jd := JulianDateUTC(t)

	// Julian centuries from J2000.0
	T := (jd - J2000TT) / 36525.0

	// Mean longitude of the Sun
	L0 := Mod(280.46646+36000.76983*T+0.0003032*T*T, 360)

	// Mean anomaly of the Sun
	M := unit.AngleFromDeg(Mod(357.52911+35999.05029*T-0.0001537*T*T, 360))

	// Equation of center
	C := (1.914602-0.004817*T-0.000014*T*T)*M.Sin() +
		(0.019993-0.000101*T)*math.Sin(2*M.Rad()) +
		0.000289*math.Sin(3*M.Rad())

	// Apparent longitude, corrected for aberration and nutation
	omega := unit.AngleFromDeg(125.04 - 1934.136*T)
	lambda := unit.AngleFromDeg(L0 + C - 0.00569 - 0.00478*omega.Sin())

	// Obliquity of the ecliptic, corrected
	eps0 := 23.439291 - 0.0130042*T - 0.00000016*T*T + 0.000000504*T*T*T
	eps := unit.AngleFromDeg(eps0 + 0.00256*omega.Cos())

	ra := math.Atan2(eps.Cos()*lambda.Sin(), lambda.Cos())
	dec := math.Asin(eps.Sin() * lambda.Sin())

	return Mod(unit.Angle(ra).Deg(), 360), unit.Angle(dec).Deg(), L0
}

// AlmanacEquationOfTime returns the equation of time in minutes derived from
// the Sun's mean longitude and apparent right ascension. Independent of the
// Fourier series in EquationOfTime; nutation in longitude is ignored.
func AlmanacEquationOfTime(t time.Time) float64 {
	ra, _, L0 := SunPosition(t)
	e := Mod(L0-0.0057183-ra+180, 360) - 180
	return 4 * e
}
