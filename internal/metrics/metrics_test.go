package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveFetch(t *testing.T) {
	before := testutil.ToFloat64(ephemFetchesTotal.WithLabelValues("test", OutcomeOK))
	ObserveFetch("test", OutcomeOK, 25*time.Millisecond)
	after := testutil.ToFloat64(ephemFetchesTotal.WithLabelValues("test", OutcomeOK))

	if after-before != 1 {
		t.Errorf("fetch counter delta = %v, want 1", after-before)
	}
}

func TestSetSourceStatus(t *testing.T) {
	known := []string{"model", "external-ok", "external-error"}
	SetSourceStatus("external-error", known)

	for _, s := range known {
		want := 0.0
		if s == "external-error" {
			want = 1
		}
		if got := testutil.ToFloat64(sourceStatus.WithLabelValues(s)); got != want {
			t.Errorf("status %s = %v, want %v", s, got, want)
		}
	}
}

func TestMiddlewareCapturesStatus(t *testing.T) {
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/brew", http.MethodGet, "418"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/brew", nil))
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/brew", http.MethodGet, "418"))

	if rec.Code != http.StatusTeapot {
		t.Errorf("code = %d, want %d", rec.Code, http.StatusTeapot)
	}
	if after-before != 1 {
		t.Errorf("request counter delta = %v, want 1", after-before)
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	SetRows(8)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if !strings.Contains(rec.Body.String(), "orrery_ephem_rows 8") {
		t.Error("metrics output missing orrery_ephem_rows")
	}
}
