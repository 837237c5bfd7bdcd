package astro

import "time"

// MeanSolarTime returns Earth local mean solar time in hours [0,24)
// at the given longitude (degrees east).
func MeanSolarTime(t time.Time, lonDeg float64) float64 {
	return Mod(HourOfDayUTC(t)+lonDeg/15, 24)
}

// ApparentSolarTime returns Earth local apparent solar time in hours [0,24):
// mean solar time corrected by the equation of time.
func ApparentSolarTime(t time.Time, lonDeg float64) float64 {
	return Mod(MeanSolarTime(t, lonDeg)+EquationOfTime(t)/60, 24)
}
