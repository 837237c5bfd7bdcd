package astro

import (
	"math"

	"github.com/soniakeys/unit"
)

// AUKm is the astronomical unit in kilometers.
const AUKm = 149597870.7

// CircularOrbit is a heliocentric orbit approximated as a circle in the
// ecliptic plane traversed at constant angular rate. No eccentricity or
// inclination is modeled.
type CircularOrbit struct {
	SemiMajorAxisAU float64
	PeriodDays      float64
}

// MeanLongitude returns the mean longitude at a TT Julian Date, measured
// from the J2000.0 zero point, in [0,360) degrees.
func (o CircularOrbit) MeanLongitude(jdTT float64) float64 {
	return Mod((jdTT-J2000TT)/o.PeriodDays*360, 360)
}

// Position returns heliocentric ecliptic coordinates in AU (Z is always zero).
func (o CircularOrbit) Position(jdTT float64) Vec3 {
	theta := unit.AngleFromDeg(o.MeanLongitude(jdTT))
	return Vec3{
		X: o.SemiMajorAxisAU * theta.Cos(),
		Y: o.SemiMajorAxisAU * theta.Sin(),
	}
}

// SpeedKmPerSec returns the mean circular orbital speed.
func (o CircularOrbit) SpeedKmPerSec() float64 {
	return 2 * math.Pi * o.SemiMajorAxisAU * AUKm / o.PeriodDays / SecondsPerDay
}
