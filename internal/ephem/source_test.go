package ephem

import (
	"context"
	"errors"
	"math"
	"net/http"
	"testing"
	"time"

	"github.com/litescript/ls-orrery/internal/astro"
	"github.com/litescript/ls-orrery/internal/bodies"
)

// stubProvider returns a canned result or calls fn.
type stubProvider struct {
	name string
	fn   func(ctx context.Context, req Request) FetchResult
}

func (p stubProvider) Name() string { return p.name }

func (p stubProvider) Fetch(ctx context.Context, req Request) FetchResult {
	res := p.fn(ctx, req)
	res.Provider = p.name
	return res
}

func failing(err error) stubProvider {
	return stubProvider{name: "broken", fn: func(context.Context, Request) FetchResult {
		return FetchResult{Error: err}
	}}
}

var testInstant = time.Date(2025, 9, 22, 18, 19, 0, 0, time.UTC)

func TestSourceModelMode(t *testing.T) {
	src := NewSource(NewModelProvider(astro.DefaultTimeScale))

	table := src.Tick(context.Background(), testInstant, bodies.Orbital())
	if table.Status != StatusModel || src.Status() != StatusModel {
		t.Errorf("status = %v/%v, want model", table.Status, src.Status())
	}
	if len(table.Rows) != 8 {
		t.Errorf("got %d rows, want 8", len(table.Rows))
	}
	if table.Provider != "model" {
		t.Errorf("provider = %q", table.Provider)
	}
}

func TestSourceFallbackOnFailure(t *testing.T) {
	model := NewModelProvider(astro.DefaultTimeScale)
	want := model.Rows(testInstant, bodies.Orbital())

	failures := []struct {
		name string
		err  error
	}{
		{"network", errors.New("dial tcp: connection refused")},
		{"status", errors.New("ephemeris service returned status 503")},
		{"empty", ErrEmptyResponse},
		{"unmapped", ErrNoBodiesMapped},
	}

	for _, tc := range failures {
		t.Run(tc.name, func(t *testing.T) {
			src := NewSource(model, WithExternal(failing(tc.err)), WithMode(ModeExternal))

			// Same failure, same fallback, every tick.
			for i := 0; i < 3; i++ {
				table := src.Tick(context.Background(), testInstant, bodies.Orbital())

				if table.Status != StatusExternalError {
					t.Fatalf("status = %v, want external-error", table.Status)
				}
				if table.Err == "" {
					t.Error("fallback table should carry the failure reason")
				}
				if len(table.Rows) != len(want) {
					t.Fatalf("got %d rows, want %d", len(table.Rows), len(want))
				}
				for j, row := range table.Rows {
					if row.Body != want[j].Body ||
						math.Abs(row.XAU-want[j].XAU) > 1e-12 ||
						math.Abs(row.YAU-want[j].YAU) > 1e-12 {
						t.Errorf("row %d = %+v, want %+v", j, row, want[j])
					}
				}
			}
		})
	}
}

func TestSourceFallbackOnEmptySuccess(t *testing.T) {
	empty := stubProvider{name: "quiet", fn: func(context.Context, Request) FetchResult {
		return FetchResult{}
	}}
	src := NewSource(NewModelProvider(astro.DefaultTimeScale), WithExternal(empty), WithMode(ModeExternal))

	table := src.Tick(context.Background(), testInstant, bodies.Orbital())
	if table.Status != StatusExternalError || len(table.Rows) != 8 {
		t.Errorf("status = %v rows = %d, want external-error with 8 rows", table.Status, len(table.Rows))
	}
}

func TestSourceWithoutExternalProvider(t *testing.T) {
	src := NewSource(NewModelProvider(astro.DefaultTimeScale), WithMode(ModeExternal))

	table := src.Tick(context.Background(), testInstant, bodies.Orbital())
	if table.Status != StatusExternalError {
		t.Errorf("status = %v, want external-error", table.Status)
	}
	if table.Err != ErrNoExternalProvider.Error() {
		t.Errorf("err = %q", table.Err)
	}
}

func TestSourcePartialMappingDropsBodies(t *testing.T) {
	srv, _ := serve(t, http.StatusOK, threeBodies)
	src := NewSource(NewModelProvider(astro.DefaultTimeScale),
		WithExternal(NewServiceProvider(WithURL(srv.URL))),
		WithMode(ModeExternal))

	table := src.Tick(context.Background(), testInstant, bodies.Orbital())

	if table.Status != StatusExternalOk {
		t.Fatalf("status = %v (%s), want external-ok", table.Status, table.Err)
	}
	if len(table.Rows) != 3 {
		t.Fatalf("got %d rows, want exactly the 3 returned bodies", len(table.Rows))
	}
	for _, missing := range []bodies.Body{bodies.Mercury, bodies.Venus, bodies.Saturn, bodies.Uranus, bodies.Neptune} {
		if _, ok := table.Row(missing); ok {
			t.Errorf("%s back-filled from the model", missing)
		}
	}
	if table.Provider != "service" {
		t.Errorf("provider = %q, want service", table.Provider)
	}
}

func TestSourceDiscardsStaleGeneration(t *testing.T) {
	model := NewModelProvider(astro.DefaultTimeScale)
	ok := stubProvider{name: "ok", fn: func(_ context.Context, req Request) FetchResult {
		return FetchResult{Rows: model.Rows(req.Instant, req.Bodies)}
	}}
	src := NewSource(model, WithExternal(ok), WithMode(ModeExternal))

	first := src.Begin(testInstant, bodies.Orbital())
	if !src.Pending() {
		t.Error("source should be pending while a request is in flight")
	}
	second := src.Begin(testInstant.Add(time.Minute), bodies.Orbital())

	if _, applied := src.Complete(first, src.Fetch(context.Background(), first)); applied {
		t.Error("superseded generation was applied")
	}
	if src.Latest().Generation != 0 {
		t.Error("latest table changed by stale response")
	}

	table, applied := src.Complete(second, src.Fetch(context.Background(), second))
	if !applied {
		t.Fatal("current generation was discarded")
	}
	if table.Generation != second.Generation || !table.Instant.Equal(second.Instant) {
		t.Errorf("table = gen %d at %v, want gen %d", table.Generation, table.Instant, second.Generation)
	}
	if src.Pending() {
		t.Error("source still pending after completion")
	}
}

func TestSourceSetModeSupersedesInFlight(t *testing.T) {
	src := NewSource(NewModelProvider(astro.DefaultTimeScale),
		WithExternal(failing(errors.New("late"))), WithMode(ModeExternal))

	req := src.Begin(testInstant, bodies.Orbital())
	src.SetMode(ModeModel)

	if src.Status() != StatusModel {
		t.Errorf("status after SetMode(model) = %v", src.Status())
	}
	if _, applied := src.Complete(req, src.Fetch(context.Background(), req)); applied {
		t.Error("response from before the mode switch was applied")
	}
	if src.Status() != StatusModel {
		t.Errorf("stale response changed status to %v", src.Status())
	}
}

func TestSourceRequestTimeout(t *testing.T) {
	hang := stubProvider{name: "hang", fn: func(ctx context.Context, _ Request) FetchResult {
		<-ctx.Done()
		return FetchResult{Error: ctx.Err()}
	}}
	src := NewSource(NewModelProvider(astro.DefaultTimeScale),
		WithExternal(hang), WithMode(ModeExternal), WithRequestTimeout(20*time.Millisecond))

	start := time.Now()
	table := src.Tick(context.Background(), testInstant, bodies.Orbital())

	if time.Since(start) > 2*time.Second {
		t.Error("timeout not applied")
	}
	if table.Status != StatusExternalError || table.Err != "ephemeris request timed out" {
		t.Errorf("table = %v %q, want timed-out fallback", table.Status, table.Err)
	}
	if len(table.Rows) != 8 {
		t.Errorf("got %d rows, want 8 model rows", len(table.Rows))
	}
}

func TestSourceRecoversAfterError(t *testing.T) {
	model := NewModelProvider(astro.DefaultTimeScale)
	fail := true
	flaky := stubProvider{name: "flaky", fn: func(_ context.Context, req Request) FetchResult {
		if fail {
			return FetchResult{Error: errors.New("boom")}
		}
		return FetchResult{Rows: model.Rows(req.Instant, req.Bodies)[:2]}
	}}
	src := NewSource(model, WithExternal(flaky), WithMode(ModeExternal))

	if got := src.Tick(context.Background(), testInstant, bodies.Orbital()).Status; got != StatusExternalError {
		t.Fatalf("first tick status = %v", got)
	}

	fail = false
	table := src.Tick(context.Background(), testInstant, bodies.Orbital())
	if table.Status != StatusExternalOk || len(table.Rows) != 2 || table.Err != "" {
		t.Errorf("second tick = %v with %d rows, want external-ok with 2", table.Status, len(table.Rows))
	}
}

func TestSourceResolveLeavesStateAlone(t *testing.T) {
	src := NewSource(NewModelProvider(astro.DefaultTimeScale),
		WithExternal(failing(errors.New("down"))), WithMode(ModeExternal))

	live := src.Begin(testInstant, bodies.Orbital())

	table := src.Resolve(context.Background(), testInstant.Add(-24*time.Hour), bodies.Orbital())
	if table.Status != StatusExternalError || len(table.Rows) != 8 {
		t.Errorf("Resolve = %v with %d rows, want fallback with 8", table.Status, len(table.Rows))
	}
	if !src.Pending() {
		t.Error("Resolve changed the live status")
	}
	if _, applied := src.Complete(live, src.Fetch(context.Background(), live)); !applied {
		t.Error("Resolve superseded the live request")
	}
}
