package astro

import "time"

// GreenwichMeanSiderealTime returns GMST in degrees [0,360) (IAU 1982).
func GreenwichMeanSiderealTime(t time.Time) float64 {
	jd := JulianDateUTC(t)

	// Julian centuries since J2000.0
	T := (jd - J2000TT) / 36525.0

	gmst := 280.46061837 +
		360.98564736629*(jd-J2000TT) +
		0.000387933*T*T -
		T*T*T/38710000.0

	return Mod(gmst, 360)
}

// LocalSiderealTime returns Earth local mean sidereal time in hours [0,24)
// at the given longitude (degrees east).
func LocalSiderealTime(t time.Time, lonDeg float64) float64 {
	return Mod(GreenwichMeanSiderealTime(t)+lonDeg, 360) / 15
}
