package astro

import (
	"math"
	"testing"
)

func TestCircularOrbitMeanLongitude(t *testing.T) {
	o := CircularOrbit{SemiMajorAxisAU: 1, PeriodDays: 400}

	tests := []struct {
		name string
		jd   float64
		want float64
	}{
		{"epoch", J2000TT, 0},
		{"quarter", J2000TT + 100, 90},
		{"full orbit wraps", J2000TT + 400, 0},
		{"before epoch", J2000TT - 100, 270},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := o.MeanLongitude(tt.jd)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("MeanLongitude() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCircularOrbitPosition(t *testing.T) {
	o := CircularOrbit{SemiMajorAxisAU: 5.2, PeriodDays: 4332.59}

	for jd := J2000TT - 3000; jd < J2000TT+9000; jd += 123.4 {
		p := o.Position(jd)
		if r := p.Norm(); math.Abs(r-5.2) > 1e-9 {
			t.Fatalf("radius = %v, want 5.2", r)
		}
		if p.Z != 0 {
			t.Fatalf("Z = %v, want 0", p.Z)
		}
		if a := PlanarAngle(p); math.Abs(a-o.MeanLongitude(jd)) > 1e-6 && math.Abs(math.Abs(a-o.MeanLongitude(jd))-360) > 1e-6 {
			t.Fatalf("angle %v does not match mean longitude %v", a, o.MeanLongitude(jd))
		}
	}

	quarter := o.Position(J2000TT + 4332.59/4)
	if math.Abs(quarter.X) > 1e-9 || math.Abs(quarter.Y-5.2) > 1e-9 {
		t.Errorf("quarter-orbit position = %+v, want (0, 5.2)", quarter)
	}
}

func TestCircularOrbitSpeed(t *testing.T) {
	tests := []struct {
		name     string
		orbit    CircularOrbit
		min, max float64
	}{
		{"Earth", CircularOrbit{1.000001018, 365.256363004}, 29.28, 30.28},
		{"Mercury", CircularOrbit{0.387098, 87.9691}, 46.36, 48.36},
		{"Neptune", CircularOrbit{30.110387, 60182}, 5.23, 5.63},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.orbit.SpeedKmPerSec()
			if got < tt.min || got > tt.max {
				t.Errorf("SpeedKmPerSec() = %.3f, want [%.2f, %.2f]", got, tt.min, tt.max)
			}
		})
	}
}

func TestPlanarAngle(t *testing.T) {
	tests := []struct {
		v    Vec3
		want float64
	}{
		{Vec3{X: 1}, 0},
		{Vec3{Y: 1}, 90},
		{Vec3{X: -1}, 180},
		{Vec3{Y: -1}, 270},
		{Vec3{X: 1, Y: -1}, 315},
	}

	for _, tt := range tests {
		if got := PlanarAngle(tt.v); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("PlanarAngle(%+v) = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func TestEquatorialToEcliptic(t *testing.T) {
	// The ecliptic pole expressed in equatorial coordinates maps to +Z.
	eps := 23.439291 * math.Pi / 180
	pole := Vec3{X: 0, Y: -math.Sin(eps), Z: math.Cos(eps)}

	got := EquatorialToEcliptic(pole)
	if math.Abs(got.X) > 1e-12 || math.Abs(got.Y) > 1e-12 || math.Abs(got.Z-1) > 1e-12 {
		t.Errorf("EquatorialToEcliptic(pole) = %+v, want (0,0,1)", got)
	}

	// X axis (vernal equinox) is shared by both frames.
	if got := EquatorialToEcliptic(Vec3{X: 2}); got != (Vec3{X: 2}) {
		t.Errorf("EquatorialToEcliptic(X) = %+v, want (2,0,0)", got)
	}
}
