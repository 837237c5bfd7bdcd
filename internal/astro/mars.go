package astro

import "math"

const (
	// MarsSolDateEpochTT is the TT Julian Date at which MSD is zero.
	MarsSolDateEpochTT = 2405522.0028779

	// MarsSolRatio is the length of a mean Martian sol in Earth days.
	MarsSolRatio = 1.0274912517
)

// MarsSolDate returns the Mars Sol Date for a UTC Julian Date,
// using DefaultTimeScale for the TT conversion.
func MarsSolDate(jdUTC float64) float64 {
	return DefaultTimeScale.MarsSolDate(jdUTC)
}

// MarsSolDate returns the Mars Sol Date for a UTC Julian Date.
func (s TimeScale) MarsSolDate(jdUTC float64) float64 {
	return (s.TerrestrialJD(jdUTC) - MarsSolDateEpochTT) / MarsSolRatio
}

// MarsCoordinatedTime returns MTC, the mean solar time at Mars 0°E, in hours [0,24).
func MarsCoordinatedTime(msd float64) float64 {
	return Mod(24*msd, 24)
}

// MarsLocalMeanSolarTime returns Mars LMST in hours [0,24) at the given
// longitude (degrees east).
func MarsLocalMeanSolarTime(msd, lonDeg float64) float64 {
	return Mod(MarsCoordinatedTime(msd)+lonDeg/15, 24)
}

// SolNumber returns the count of complete sols since the MSD epoch.
func SolNumber(msd float64) int64 {
	return int64(math.Floor(msd))
}
