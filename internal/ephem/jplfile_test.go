package ephem

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/litescript/ls-orrery/internal/astro"
	"github.com/litescript/ls-orrery/internal/bodies"
)

func TestOpenJPLFileMissing(t *testing.T) {
	_, err := OpenJPLFile(filepath.Join(t.TempDir(), "nope.bin"), astro.DefaultTimeScale)
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestJPLTargetsCoverOrbitalBodies(t *testing.T) {
	for _, b := range bodies.Orbital() {
		if _, ok := jplTargets[b]; !ok {
			t.Errorf("%s has no DE target", b)
		}
	}
	for b := range jplTargets {
		if _, ok := b.Orbit(); !ok {
			t.Errorf("%s is a DE target without a catalog orbit", b)
		}
	}
}

// Set ORRERY_DE_FILE to a DE binary (e.g. linux_p1550p2650.440) to run.
func TestJPLFileProvider_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	path := os.Getenv("ORRERY_DE_FILE")
	if path == "" {
		t.Skip("ORRERY_DE_FILE not set")
	}

	p, err := OpenJPLFile(path, astro.DefaultTimeScale)
	if err != nil {
		t.Fatalf("OpenJPLFile: %v", err)
	}
	defer p.Close()

	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	res := p.Fetch(context.Background(), Request{Instant: at, Bodies: bodies.Orbital()})
	if res.Error != nil {
		t.Fatalf("Fetch: %v", res.Error)
	}
	if len(res.Rows) != 8 {
		t.Fatalf("got %d rows, want 8", len(res.Rows))
	}

	model := NewModelProvider(astro.DefaultTimeScale).Rows(at, bodies.Orbital())
	for i, row := range res.Rows {
		r := math.Hypot(row.XAU, row.YAU)
		t.Logf("%-8s r=%.4f AU angle=%.2f speed=%.2f km/s (model %.2f)",
			row.Name, r, row.AngleDeg, row.SpeedKmPerSec, model[i].SpeedKmPerSec)

		// Real orbits stay within eccentricity of the circular model.
		if math.Abs(r-row.SemiMajorAxisAU)/row.SemiMajorAxisAU > 0.25 {
			t.Errorf("%s distance %.3f AU too far from %.3f", row.Name, r, row.SemiMajorAxisAU)
		}
		if math.Abs(row.SpeedKmPerSec-model[i].SpeedKmPerSec)/model[i].SpeedKmPerSec > 0.25 {
			t.Errorf("%s speed %.2f far from mean %.2f", row.Name, row.SpeedKmPerSec, model[i].SpeedKmPerSec)
		}
	}

	// Outside the file's coverage the whole fetch fails.
	res = p.Fetch(context.Background(), Request{Instant: time.Date(9000, 1, 1, 0, 0, 0, 0, time.UTC), Bodies: bodies.Orbital()})
	if res.Error == nil {
		t.Error("expected out-of-range error")
	}
}
