package astro

import (
	"math"
	"testing"
	"time"
)

func TestEquationOfTimeRange(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for h := 0; h < 365*24; h += 5 {
		got := EquationOfTime(start.Add(time.Duration(h) * time.Hour))
		if got < -14.6 || got > 16.5 {
			t.Fatalf("EquationOfTime() = %.3f min at +%dh, outside [-14.6, 16.5]", got, h)
		}
	}
}

func TestEquationOfTimeKnownValues(t *testing.T) {
	tests := []struct {
		name string
		time time.Time
		want float64
		tol  float64
	}{
		{"J2000 noon", time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC), -2.904, 0.01},
		{"mid-February", time.Date(2024, 2, 11, 12, 0, 0, 0, time.UTC), -14.200, 0.01},
		{"early November", time.Date(2024, 11, 3, 12, 0, 0, 0, time.UTC), 16.338, 0.01},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EquationOfTime(tt.time)
			if math.Abs(got-tt.want) > tt.tol {
				t.Errorf("EquationOfTime() = %.4f, want %.3f ±%.2f", got, tt.want, tt.tol)
			}
		})
	}
}

func TestMeanSolarTime(t *testing.T) {
	noon := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		lon  float64
		want float64
	}{
		{"Greenwich", 0, 12},
		{"90E", 90, 18},
		{"90W", -90, 6},
		{"180E wraps", 180, 0},
		{"540E wraps twice", 540, 0},
		{"-200 wraps negative", -200, 12 - 200.0/15 + 24},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MeanSolarTime(noon, tt.lon)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("MeanSolarTime(noon, %v) = %v, want %v", tt.lon, got, tt.want)
			}
			if got < 0 || got >= 24 {
				t.Errorf("MeanSolarTime out of range: %v", got)
			}
		})
	}
}

func TestApparentMinusMeanIsEquationOfTime(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 17, 0, 0, time.UTC)
	for i := 0; i < 400; i++ {
		ts := start.Add(time.Duration(i) * 21 * time.Hour)
		lon := float64(i%73)*5 - 180

		diff := ApparentSolarTime(ts, lon) - MeanSolarTime(ts, lon) - EquationOfTime(ts)/60
		// Map to the minimal magnitude residue modulo 24.
		diff = Mod(diff+12, 24) - 12
		if math.Abs(diff) >= 0.01 {
			t.Fatalf("%s lon=%v: apparent-mean-EoT residue %.5f h", ts.Format(time.RFC3339), lon, diff)
		}
	}
}

func TestApparentEqualsMeanAtZeroLongitudeWithoutEoT(t *testing.T) {
	// With a zero equation of time, mean == apparent == UTC hour.
	ts := time.Date(2025, 4, 16, 9, 45, 0, 0, time.UTC)
	mean := MeanSolarTime(ts, 0)
	if mean != HourOfDayUTC(ts) {
		t.Errorf("MeanSolarTime(t, 0) = %v, want UTC hour %v", mean, HourOfDayUTC(ts))
	}
	want := Mod(mean+EquationOfTime(ts)/60, 24)
	if got := ApparentSolarTime(ts, 0); math.Abs(got-want) > 1e-12 {
		t.Errorf("ApparentSolarTime(t, 0) = %v, want %v", got, want)
	}
}
