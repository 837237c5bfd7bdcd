// Package selfcheck runs a fixed battery of numeric assertions against the
// time, clock and ephemeris code and reports each outcome as data.
package selfcheck

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/sidereal"

	"github.com/litescript/ls-orrery/internal/astro"
	"github.com/litescript/ls-orrery/internal/bodies"
	"github.com/litescript/ls-orrery/internal/ephem"
)

// Result is the outcome of one assertion.
type Result struct {
	Name      string  `json:"name"`
	Passed    bool    `json:"passed"`
	Observed  float64 `json:"observed"`
	Expected  float64 `json:"expected"`
	Tolerance float64 `json:"tolerance"`
	Note      string  `json:"note,omitempty"`
}

// String renders the result as a single report line.
func (r Result) String() string {
	mark := "PASS"
	if !r.Passed {
		mark = "FAIL"
	}
	s := fmt.Sprintf("%s  %-28s observed=%.6g expected=%.6g ±%.3g", mark, r.Name, r.Observed, r.Expected, r.Tolerance)
	if r.Note != "" {
		s += "  (" + r.Note + ")"
	}
	return s
}

// Options parameterize a run.
type Options struct {
	TimeScale astro.TimeScale // zero means astro.DefaultTimeScale
	Longitude float64         // Earth longitude for the instant-dependent checks
}

// Documented real mean orbital speeds, km/s.
const (
	earthSpeed   = 29.78
	mercurySpeed = 47.36
	neptuneSpeed = 5.43
)

// Run evaluates every check at instant t. It always runs to completion; a
// failing check is a Result with Passed=false.
func Run(t time.Time, opts Options) []Result {
	scale := opts.TimeScale
	if scale == (astro.TimeScale{}) {
		scale = astro.DefaultTimeScale
	}

	var r runner
	r.timeBase(t, scale)
	r.earth(t, opts.Longitude)
	r.mars(t, scale)
	r.rotation()
	r.orbits(t, scale)
	r.clockFormat()
	r.providers(t, scale)
	return r.results
}

// Summary counts passed and total checks.
func Summary(results []Result) (passed, total int) {
	for _, r := range results {
		if r.Passed {
			passed++
		}
	}
	return passed, len(results)
}

// Failures returns only the failed results.
func Failures(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}

type runner struct {
	results []Result
}

func (r *runner) approx(name string, observed, expected, tol float64, note string) {
	r.results = append(r.results, Result{
		Name:      name,
		Passed:    math.Abs(observed-expected) <= tol,
		Observed:  observed,
		Expected:  expected,
		Tolerance: tol,
		Note:      note,
	})
}

// within records observed ∈ [lo, hi]; Expected is the interval midpoint.
func (r *runner) within(name string, observed, lo, hi float64, note string) {
	r.results = append(r.results, Result{
		Name:      name,
		Passed:    observed >= lo && observed <= hi,
		Observed:  observed,
		Expected:  (lo + hi) / 2,
		Tolerance: (hi - lo) / 2,
		Note:      note,
	})
}

// circularGap returns the smallest distance between a and b on a circle of size m.
func circularGap(a, b, m float64) float64 {
	d := astro.Mod(a-b, m)
	return math.Min(d, m-d)
}

func (r *runner) timeBase(t time.Time, scale astro.TimeScale) {
	r.approx("jd.unix-epoch", astro.JulianDateUTC(time.Unix(0, 0)), astro.UnixEpochJD, 1e-9, "")
	r.approx("jd.j2000-noon",
		astro.JulianDateUTC(time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)), astro.J2000TT, 1e-9, "UTC noon")
	r.approx("jd.meeus", astro.JulianDateUTC(t), julian.TimeToJD(t.UTC()), 1e-6, "julian.TimeToJD")

	jd := astro.JulianDateUTC(t)
	r.approx("tt.offset-seconds", (scale.TerrestrialJD(jd)-jd)*astro.SecondsPerDay,
		scale.LeapSeconds+astro.TTMinusTAI, 1e-3, "")

	r.approx("day-of-year.leap", float64(astro.DayOfYear(time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC))), 366, 0, "")
	r.approx("mod.negative", astro.Mod(-1, 24), 23, 0, "")
}

func (r *runner) earth(t time.Time, lon float64) {
	eot := astro.EquationOfTime(t)
	r.within("earth.eot-range", eot, -14.6, 16.5, "minutes")
	r.approx("earth.eot-almanac", eot, astro.AlmanacEquationOfTime(t), 1.5, "series vs Sun RA")

	// LAST - LMST must equal EoT/60 at this instant.
	diff := astro.ApparentSolarTime(t, lon) - astro.MeanSolarTime(t, lon) - eot/60
	r.approx("earth.last-lmst", circularGap(diff, 0, 24), 0, 0.01, "instant-dependent")

	gmst := astro.GreenwichMeanSiderealTime(t) / 15
	meeus := sidereal.Mean(julian.TimeToJD(t.UTC())).Hour()
	r.approx("earth.gmst-meeus", circularGap(gmst, meeus, 24), 0, 1e-3, "hours")
}

func (r *runner) mars(t time.Time, scale astro.TimeScale) {
	// 2000-01-06 00:00 TT, reference MSD 44795.9990.
	offset := time.Duration(scale.OffsetSeconds() * float64(time.Second))
	ref := time.Date(2000, 1, 6, 0, 0, 0, 0, time.UTC).Add(-offset)
	r.approx("mars.msd-reference", scale.MarsSolDate(astro.JulianDateUTC(ref)), 44795.99904, 1e-4, "2000-01-06 TT")

	msd := scale.MarsSolDate(astro.JulianDateUTC(t))
	r.approx("mars.mtc-lmst-prime",
		circularGap(astro.MarsCoordinatedTime(msd), astro.MarsLocalMeanSolarTime(msd, 0), 24), 0, 0.005, "hours")
	r.approx("mars.sol-floor", float64(astro.SolNumber(msd)), math.Floor(msd), 0, "")
}

func (r *runner) rotation() {
	venus, _ := bodies.Venus.Rotation()
	jupiter, _ := bodies.Jupiter.Rotation()
	moon, _ := bodies.Moon.Rotation()

	var venusUp, jupiterDown int
	start := astro.J2000TT + 9000
	for i := 1; i <= 400; i++ {
		prev, cur := start+float64(i-1)*1.7, start+float64(i)*1.7
		if venus.DayNumber(cur) > venus.DayNumber(prev) {
			venusUp++
		}
		if jupiter.DayNumber(cur) < jupiter.DayNumber(prev) {
			jupiterDown++
		}
	}
	r.approx("venus.day-non-increasing", float64(venusUp), 0, 0, "retrograde")
	r.approx("jupiter.day-non-decreasing", float64(jupiterDown), 0, 0, "")

	// One synodic month after the epoch the dial is back at 00:00.
	after := moon.EpochJDTT + moon.PeriodHours/24
	r.approx("moon.synodic-wrap", circularGap(moon.Clock(after), 0, 24), 0, 1e-6, "hours")
}

func (r *runner) orbits(t time.Time, scale astro.TimeScale) {
	speeds := []struct {
		body bodies.Body
		real float64
		tol  float64
	}{
		{bodies.Earth, earthSpeed, 0.5},
		{bodies.Mercury, mercurySpeed, 1.0},
		{bodies.Neptune, neptuneSpeed, 0.2},
	}
	for _, s := range speeds {
		orbit, _ := s.body.Orbit()
		r.approx("orbit.speed-"+s.body.String(), orbit.SpeedKmPerSec(), s.real, s.tol, "km/s")
	}

	earth, _ := bodies.Earth.Orbit()
	jdTT := scale.TerrestrialJD(astro.JulianDateUTC(t))
	r.within("orbit.earth-angle", earth.MeanLongitude(jdTT), 0, math.Nextafter(360, 0), "degrees")
}

func (r *runner) clockFormat() {
	worst := 0.0
	for h := 0.0; h < 24; h += 0.01371 {
		hh, mm, ss := astro.SplitHours(h)
		if d := math.Abs(h - astro.JoinHours(hh, mm, ss)); d > worst {
			worst = d
		}
	}
	r.within("clock.round-trip", worst, 0, 1.0/3600, "hours")
}

// stubProvider adapts a function to ephem.Provider.
type stubProvider struct {
	name string
	fn   func(req ephem.Request) ephem.FetchResult
}

func (p stubProvider) Name() string { return p.name }

func (p stubProvider) Fetch(_ context.Context, req ephem.Request) ephem.FetchResult {
	res := p.fn(req)
	res.Provider = p.name
	return res
}

func (r *runner) providers(t time.Time, scale astro.TimeScale) {
	model := ephem.NewModelProvider(scale)
	ctx := context.Background()
	orbital := bodies.Orbital()
	want := model.Rows(t, orbital)

	r.approx("ephem.model-rows", float64(len(want)), float64(len(orbital)), 0, "")

	down := stubProvider{name: "down", fn: func(ephem.Request) ephem.FetchResult {
		return ephem.FetchResult{Error: errors.New("unreachable")}
	}}
	src := ephem.NewSource(model, ephem.WithExternal(down), ephem.WithMode(ephem.ModeExternal), ephem.WithMetrics(false))
	table := src.Tick(ctx, t, orbital)

	worst := math.Inf(1)
	if len(table.Rows) == len(want) && table.Status == ephem.StatusExternalError {
		worst = 0
		for i, row := range table.Rows {
			d := math.Hypot(row.XAU-want[i].XAU, row.YAU-want[i].YAU)
			worst = math.Max(worst, d)
		}
	}
	r.approx("ephem.fallback-equals-model", worst, 0, 1e-9, "AU, status external-error")

	partial := stubProvider{name: "partial", fn: func(req ephem.Request) ephem.FetchResult {
		return ephem.FetchResult{Rows: model.Rows(req.Instant, req.Bodies[:3])}
	}}
	src = ephem.NewSource(model, ephem.WithExternal(partial), ephem.WithMode(ephem.ModeExternal), ephem.WithMetrics(false))
	table = src.Tick(ctx, t, orbital)

	mapped := float64(len(table.Rows))
	if table.Status != ephem.StatusExternalOk {
		mapped = -1
	}
	r.approx("ephem.partial-drops-unmapped", mapped, 3, 0, "rows, status external-ok")
}
