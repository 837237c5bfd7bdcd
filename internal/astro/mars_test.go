package astro

import (
	"math"
	"testing"
)

func TestMarsSolDate(t *testing.T) {
	// J2000.0 UTC noon.
	got := MarsSolDate(2451545.0)
	if math.Abs(got-44791.620217) > 1e-5 {
		t.Errorf("MarsSolDate(J2000) = %.6f, want 44791.620217", got)
	}

	// At the MSD epoch (expressed in UTC) the count is zero.
	epochUTC := MarsSolDateEpochTT - DefaultTimeScale.OffsetSeconds()/SecondsPerDay
	if got := MarsSolDate(epochUTC); math.Abs(got) > 1e-8 {
		t.Errorf("MarsSolDate(epoch) = %v, want 0", got)
	}
}

func TestMarsSolDateHonoursLeapSeconds(t *testing.T) {
	jd := 2460827.5
	stale := DefaultTimeScale.MarsSolDate(jd)
	updated := TimeScale{LeapSeconds: DefaultLeapSeconds + 1}.MarsSolDate(jd)

	want := 1.0 / SecondsPerDay / MarsSolRatio
	if got := updated - stale; math.Abs(got-want) > 1e-8 {
		t.Errorf("extra leap second shifted MSD by %v, want %v", got, want)
	}
}

func TestMarsCoordinatedTime(t *testing.T) {
	tests := []struct {
		msd  float64
		want float64
	}{
		{44791.0, 0},
		{44791.5, 12},
		{44791.75, 18},
		{-0.25, 18},
	}

	for _, tt := range tests {
		got := MarsCoordinatedTime(tt.msd)
		if math.Abs(got-tt.want) > 1e-6 {
			t.Errorf("MarsCoordinatedTime(%v) = %v, want %v", tt.msd, got, tt.want)
		}
	}
}

func TestMarsLocalMeanSolarTime(t *testing.T) {
	msd := 53825.5 // MTC 12:00

	tests := []struct {
		lon  float64
		want float64
	}{
		{0, 12},
		{137.4, 12 + 137.4/15},
		{-90, 6},
		{360, 12},
	}

	for _, tt := range tests {
		got := MarsLocalMeanSolarTime(msd, tt.lon)
		if math.Abs(got-tt.want) > 1e-6 {
			t.Errorf("MarsLocalMeanSolarTime(%v, %v) = %v, want %v", msd, tt.lon, got, tt.want)
		}
	}
}

func TestMarsCoincidenceAtPrimeMeridian(t *testing.T) {
	for msd := -100.0; msd < 60000; msd += 13.37 {
		mtc := MarsCoordinatedTime(msd)
		lmst := MarsLocalMeanSolarTime(msd, 0)
		diff := math.Abs(mtc - lmst)
		if diff > 12 {
			diff = 24 - diff
		}
		if diff >= 0.005 {
			t.Fatalf("msd=%v: |MTC-LMST(0)| = %v h", msd, diff)
		}
	}
}

func TestSolNumber(t *testing.T) {
	tests := []struct {
		msd  float64
		want int64
	}{
		{44791.62, 44791},
		{44791.0, 44791},
		{0.5, 0},
		{-0.5, -1},
	}

	for _, tt := range tests {
		if got := SolNumber(tt.msd); got != tt.want {
			t.Errorf("SolNumber(%v) = %d, want %d", tt.msd, got, tt.want)
		}
	}
}
