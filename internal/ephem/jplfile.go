package ephem

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mshafiee/jpleph"

	"github.com/litescript/ls-orrery/internal/astro"
	"github.com/litescript/ls-orrery/internal/bodies"
)

// ErrOutsideEphemeris is returned when the requested instant is not covered
// by the loaded file.
var ErrOutsideEphemeris = errors.New("instant outside ephemeris range")

// jplTargets maps catalog bodies to DE file targets. Only bodies with a
// catalog orbit are listed, so every row carries its a and T.
var jplTargets = map[bodies.Body]jpleph.Planet{
	bodies.Mercury: jpleph.Mercury,
	bodies.Venus:   jpleph.Venus,
	bodies.Earth:   jpleph.Earth,
	bodies.Mars:    jpleph.Mars,
	bodies.Jupiter: jpleph.Jupiter,
	bodies.Saturn:  jpleph.Saturn,
	bodies.Uranus:  jpleph.Uranus,
	bodies.Neptune: jpleph.Neptune,
}

// JPLFileProvider reads Sun-centred state vectors from a JPL DE binary file.
// Positions are rotated from the file's equatorial frame into the ecliptic.
type JPLFileProvider struct {
	mu    sync.Mutex // the underlying reader is not safe for concurrent use
	eph   *jpleph.Ephemeris
	path  string
	scale astro.TimeScale
	start float64
	end   float64
}

// OpenJPLFile loads a DE binary ephemeris.
func OpenJPLFile(path string, scale astro.TimeScale) (*JPLFileProvider, error) {
	eph, err := jpleph.NewEphemeris(path, false)
	if err != nil {
		return nil, fmt.Errorf("open ephemeris %s: %w", path, err)
	}
	if scale == (astro.TimeScale{}) {
		scale = astro.DefaultTimeScale
	}
	return &JPLFileProvider{
		eph:   eph,
		path:  path,
		scale: scale,
		start: eph.GetEphemerisDouble(jpleph.EphemerisStartJD),
		end:   eph.GetEphemerisDouble(jpleph.EphemerisEndJD),
	}, nil
}

// Name implements Provider.
func (p *JPLFileProvider) Name() string {
	return "jplfile"
}

// Range returns the covered Julian Date interval.
func (p *JPLFileProvider) Range() (startJD, endJD float64) {
	return p.start, p.end
}

// Close releases the ephemeris file.
func (p *JPLFileProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.eph.Close()
}

// Fetch implements Provider. TDB is approximated by TT.
func (p *JPLFileProvider) Fetch(ctx context.Context, req Request) FetchResult {
	start := time.Now()
	result := FetchResult{
		Provider:  p.Name(),
		FetchedAt: start,
	}

	rows, err := p.rows(ctx, req)
	result.Duration = time.Since(start)
	if err != nil {
		result.Error = err
		return result
	}
	result.Rows = rows
	return result
}

func (p *JPLFileProvider) rows(ctx context.Context, req Request) ([]OrbitalRow, error) {
	jdTT := p.scale.TerrestrialJD(astro.JulianDateUTC(req.Instant))
	if jdTT < p.start || jdTT > p.end {
		return nil, fmt.Errorf("%w: JD %.3f not in [%.1f, %.1f]", ErrOutsideEphemeris, jdTT, p.start, p.end)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	rows := make([]OrbitalRow, 0, len(req.Bodies))
	for _, b := range req.Bodies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		target, ok := jplTargets[b]
		if !ok {
			continue
		}
		pos, vel, err := p.eph.CalculatePV(jdTT, target, jpleph.CenterSun, true)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", b, err)
		}
		eclPos := astro.EquatorialToEcliptic(astro.Vec3{X: pos.X, Y: pos.Y, Z: pos.Z})
		eclVel := astro.EquatorialToEcliptic(astro.Vec3{X: vel.DX, Y: vel.DY, Z: vel.DZ})
		rows = append(rows, externalRow(b, eclPos, eclVel.Scale(astro.AUKm/astro.SecondsPerDay)))
	}

	if len(rows) == 0 {
		return nil, ErrNoBodiesMapped
	}
	return rows, nil
}
