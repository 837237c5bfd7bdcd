package astro

import (
	"fmt"
	"math"
)

// SplitHours decomposes fractional hours into whole hours, minutes and
// seconds by flooring each component.
func SplitHours(h float64) (hh, mm, ss int) {
	hh = int(math.Floor(Mod(h, 24)))
	mm = int(math.Floor(Mod(h*60, 60)))
	ss = int(math.Floor(Mod(h*3600, 60)))
	return hh, mm, ss
}

// FormatClock formats fractional hours as HH:MM:SS.
func FormatClock(h float64) string {
	hh, mm, ss := SplitHours(h)
	return fmt.Sprintf("%02d:%02d:%02d", hh, mm, ss)
}

// JoinHours is the inverse of SplitHours at one-second granularity.
func JoinHours(hh, mm, ss int) float64 {
	return float64(hh) + float64(mm)/60 + float64(ss)/3600
}
