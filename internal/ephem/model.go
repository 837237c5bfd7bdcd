package ephem

import (
	"context"
	"time"

	"github.com/litescript/ls-orrery/internal/astro"
	"github.com/litescript/ls-orrery/internal/bodies"
)

// ModelProvider derives rows from the circular-orbit catalog. It never fails.
type ModelProvider struct {
	scale astro.TimeScale
}

// NewModelProvider creates a model provider using the given time scale.
// A zero scale selects astro.DefaultTimeScale.
func NewModelProvider(scale astro.TimeScale) *ModelProvider {
	if scale == (astro.TimeScale{}) {
		scale = astro.DefaultTimeScale
	}
	return &ModelProvider{scale: scale}
}

// Name implements Provider.
func (p *ModelProvider) Name() string {
	return "model"
}

// Fetch implements Provider.
func (p *ModelProvider) Fetch(_ context.Context, req Request) FetchResult {
	start := time.Now()
	rows := p.Rows(req.Instant, req.Bodies)
	return FetchResult{
		Provider:  p.Name(),
		Rows:      rows,
		FetchedAt: start,
		Duration:  time.Since(start),
	}
}

// Rows computes one row per requested body with an orbit. Bodies without an
// orbit in the catalog are skipped.
func (p *ModelProvider) Rows(t time.Time, bs []bodies.Body) []OrbitalRow {
	jdTT := p.scale.TerrestrialJD(astro.JulianDateUTC(t))

	rows := make([]OrbitalRow, 0, len(bs))
	for _, b := range bs {
		orbit, ok := b.Orbit()
		if !ok {
			continue
		}
		pos := orbit.Position(jdTT)
		rows = append(rows, OrbitalRow{
			Body:            b,
			Name:            b.String(),
			SemiMajorAxisAU: orbit.SemiMajorAxisAU,
			PeriodDays:      orbit.PeriodDays,
			AngleDeg:        orbit.MeanLongitude(jdTT),
			XAU:             pos.X,
			YAU:             pos.Y,
			SpeedKmPerSec:   orbit.SpeedKmPerSec(),
		})
	}
	return rows
}

// externalRow builds a row from a heliocentric ecliptic position (AU) and
// velocity (km/s), carrying catalog orbit constants for display.
func externalRow(b bodies.Body, pos, vel astro.Vec3) OrbitalRow {
	row := OrbitalRow{
		Body:          b,
		Name:          b.String(),
		AngleDeg:      astro.PlanarAngle(pos),
		XAU:           pos.X,
		YAU:           pos.Y,
		SpeedKmPerSec: vel.PlanarNorm(),
	}
	if orbit, ok := b.Orbit(); ok {
		row.SemiMajorAxisAU = orbit.SemiMajorAxisAU
		row.PeriodDays = orbit.PeriodDays
	}
	return row
}
