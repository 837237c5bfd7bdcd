package selfcheck

import (
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/litescript/ls-orrery/internal/astro"
	"github.com/litescript/ls-orrery/internal/ephem"
	"github.com/litescript/ls-orrery/internal/metrics"
)

func TestRunAllPass(t *testing.T) {
	instants := []time.Time{
		time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 11, 12, 0, 0, 0, time.UTC),
		time.Date(2024, 11, 3, 3, 17, 45, 250e6, time.UTC),
		time.Date(2031, 7, 4, 23, 59, 59, 999e6, time.UTC),
	}

	for _, at := range instants {
		t.Run(at.Format(time.RFC3339), func(t *testing.T) {
			results := Run(at, Options{Longitude: -122.4})
			for _, r := range Failures(results) {
				t.Errorf("%s", r)
			}
			passed, total := Summary(results)
			if passed != total {
				t.Errorf("Summary = %d/%d", passed, total)
			}
		})
	}
}

func TestRunCustomTimeScale(t *testing.T) {
	at := time.Date(2026, 10, 18, 6, 0, 0, 0, time.UTC)
	results := Run(at, Options{TimeScale: astro.TimeScale{LeapSeconds: 38}})

	for _, r := range Failures(results) {
		t.Errorf("%s", r)
	}
	for _, r := range results {
		if r.Name == "tt.offset-seconds" && math.Abs(r.Expected-70.184) > 1e-9 {
			t.Errorf("tt offset expected = %v, want 70.184", r.Expected)
		}
	}
}

func TestRunReproducible(t *testing.T) {
	at := time.Date(2025, 5, 5, 5, 5, 5, 0, time.UTC)
	a := Run(at, Options{})
	b := Run(at, Options{})

	if !reflect.DeepEqual(a, b) {
		t.Error("two runs at the same instant differ")
	}
}

func TestRunCoversEveryArea(t *testing.T) {
	results := Run(time.Now(), Options{})

	prefixes := []string{"jd.", "tt.", "earth.", "mars.", "venus.", "jupiter.", "moon.", "orbit.", "clock.", "ephem."}
	for _, p := range prefixes {
		found := false
		for _, r := range results {
			if strings.HasPrefix(r.Name, p) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("no check named %s*", p)
		}
	}

	seen := map[string]bool{}
	for _, r := range results {
		if seen[r.Name] {
			t.Errorf("duplicate check name %s", r.Name)
		}
		seen[r.Name] = true
	}
}

func TestRunLeavesLiveMetricsAlone(t *testing.T) {
	var names []string
	for _, st := range ephem.AllStatuses() {
		names = append(names, st.String())
	}
	metrics.SetSourceStatus(ephem.StatusExternalError.String(), names)

	Run(time.Date(2025, 3, 20, 9, 1, 0, 0, time.UTC), Options{})

	const want = `
# HELP orrery_source_status Current ephemeris source status (1 for the active status).
# TYPE orrery_source_status gauge
orrery_source_status{status="external-error"} 1
orrery_source_status{status="external-loading"} 0
orrery_source_status{status="external-ok"} 0
orrery_source_status{status="model"} 0
`
	if err := testutil.GatherAndCompare(prometheus.DefaultGatherer, strings.NewReader(want), "orrery_source_status"); err != nil {
		t.Errorf("status gauge changed: %v", err)
	}

	n, err := testutil.GatherAndCount(prometheus.DefaultGatherer, "orrery_ephem_fetches_total")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if n != 0 {
		t.Errorf("fetch counter has %d series, want 0", n)
	}
}

func TestSummaryAndFailures(t *testing.T) {
	results := []Result{
		{Name: "a", Passed: true},
		{Name: "b", Passed: false},
		{Name: "c", Passed: true},
	}

	passed, total := Summary(results)
	if passed != 2 || total != 3 {
		t.Errorf("Summary = %d/%d, want 2/3", passed, total)
	}
	if f := Failures(results); len(f) != 1 || f[0].Name != "b" {
		t.Errorf("Failures = %v", f)
	}
}

func TestResultString(t *testing.T) {
	r := Result{Name: "orbit.speed-Earth", Passed: false, Observed: 31, Expected: 29.78, Tolerance: 0.5, Note: "km/s"}
	s := r.String()

	if !strings.HasPrefix(s, "FAIL") || !strings.Contains(s, "orbit.speed-Earth") || !strings.Contains(s, "(km/s)") {
		t.Errorf("String() = %q", s)
	}
}

func TestCircularGap(t *testing.T) {
	tests := []struct {
		a, b, want float64
	}{
		{23.999, 0.001, 0.002},
		{0, 12, 12},
		{5, 5, 0},
	}
	for _, tc := range tests {
		if got := circularGap(tc.a, tc.b, 24); got < tc.want-1e-9 || got > tc.want+1e-9 {
			t.Errorf("circularGap(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}
