package astro

import "math"

// RotationalModel is a 24-hour analog dial driven by a body's rotation or
// solar-day period. The dial is independent of the body's real hour length.
// A negative PeriodHours runs the dial backward (retrograde rotation).
type RotationalModel struct {
	PeriodHours float64 // solar-day, synodic or sidereal period; sign encodes direction
	EpochJDTT   float64 // TT Julian Date at which the dial reads 00:00
}

// periodDays returns the signed period in days.
func (r RotationalModel) periodDays() float64 {
	return r.PeriodHours / 24
}

// Rotations returns the signed, fractional number of periods elapsed since the epoch.
func (r RotationalModel) Rotations(jdTT float64) float64 {
	return (jdTT - r.EpochJDTT) / r.periodDays()
}

// Clock returns the dial reading in hours [0,24).
func (r RotationalModel) Clock(jdTT float64) float64 {
	return Mod(Mod(r.Rotations(jdTT), 1)*24, 24)
}

// DayNumber returns the count of complete periods since the epoch.
// It decreases with time when PeriodHours is negative.
func (r RotationalModel) DayNumber(jdTT float64) int64 {
	return int64(math.Floor(r.Rotations(jdTT)))
}

// LocalMeanSolarTime returns the dial reading shifted by longitude
// (degrees east), in hours [0,24).
func (r RotationalModel) LocalMeanSolarTime(jdTT, lonDeg float64) float64 {
	return Mod(r.Clock(jdTT)+lonDeg/15, 24)
}
