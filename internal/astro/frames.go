package astro

import (
	"math"

	"github.com/soniakeys/unit"
)

// Vec3 represents a 3D vector in any reference frame.
type Vec3 struct {
	X, Y, Z float64
}

// Norm returns the magnitude of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// PlanarNorm returns the magnitude of the X/Y components only.
func (v Vec3) PlanarNorm() float64 {
	return math.Hypot(v.X, v.Y)
}

// Scale returns the vector scaled by a factor.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// KmToAU converts kilometers to astronomical units.
func KmToAU(km float64) float64 {
	return km / AUKm
}

// AUPerDayToKmPerSec converts a speed in AU/day to km/s.
func AUPerDayToKmPerSec(v float64) float64 {
	return v * AUKm / SecondsPerDay
}

// PlanarAngle returns atan2(y, x) in degrees wrapped to [0,360).
func PlanarAngle(v Vec3) float64 {
	return Mod(unit.Angle(math.Atan2(v.Y, v.X)).Deg(), 360)
}

// obliquity is the J2000 mean obliquity of the ecliptic.
var obliquity = unit.AngleFromDeg(23.439291)

// EquatorialToEcliptic rotates equatorial XYZ into the ecliptic frame.
// Units are preserved.
func EquatorialToEcliptic(eq Vec3) Vec3 {
	cosE := obliquity.Cos()
	sinE := obliquity.Sin()

	return Vec3{
		X: eq.X,
		Y: eq.Y*cosE + eq.Z*sinE,
		Z: -eq.Y*sinE + eq.Z*cosE,
	}
}
