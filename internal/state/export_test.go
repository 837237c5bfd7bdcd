package state

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/litescript/ls-orrery/internal/astro"
	"github.com/litescript/ls-orrery/internal/bodies"
	"github.com/litescript/ls-orrery/internal/engine"
	"github.com/litescript/ls-orrery/internal/ephem"
	"github.com/litescript/ls-orrery/internal/selfcheck"
)

func evaluatedFrame(t *testing.T) Frame {
	t.Helper()
	at := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	rows := ephem.NewModelProvider(astro.DefaultTimeScale).Rows(at, bodies.Orbital())
	return Frame{
		Snapshot: engine.Evaluate(at, engine.Config{}),
		Table:    ephem.Table{Instant: at, Mode: ephem.ModeModel, Status: ephem.StatusModel, Provider: "model", Rows: rows},
	}
}

func TestExportFrame(t *testing.T) {
	if ExportFrame(Snapshot{}, time.Now()) != nil {
		t.Error("expected nil export without a frame")
	}

	f := evaluatedFrame(t)
	m := NewManager(DefaultConfig())
	m.Update(f)
	m.SetSelfCheck([]selfcheck.Result{{Name: "jd.unix-epoch", Passed: true}})

	generated := time.Date(2024, 1, 15, 10, 30, 5, 0, time.UTC)
	export := ExportFrame(m.Snapshot(), generated)
	if export == nil {
		t.Fatal("ExportFrame returned nil")
	}

	var buf bytes.Buffer
	if err := export.WriteJSON(&buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	for _, key := range []string{"generatedAt", "clocks", "orbits", "selfCheck"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("missing key %q", key)
		}
	}
	if _, ok := decoded["events"]; ok {
		t.Error("events should be omitted when empty")
	}

	var orbits struct {
		Status string            `json:"status"`
		Rows   []json.RawMessage `json:"rows"`
	}
	if err := json.Unmarshal(decoded["orbits"], &orbits); err != nil {
		t.Fatalf("decode orbits: %v", err)
	}
	if orbits.Status != "model" {
		t.Errorf("status = %q, want model", orbits.Status)
	}
	if len(orbits.Rows) != 8 {
		t.Errorf("rows = %d, want 8", len(orbits.Rows))
	}
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	WriteSummary(&buf, evaluatedFrame(t))
	out := buf.String()

	for _, want := range []string{"2024-01-15T10:30:00Z", "Earth", "Mars", "MSD", "Ganymede", "Triton", "Neptune", "model / model via model"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q", want)
		}
	}
}

func TestWriteSummaryFallback(t *testing.T) {
	f := evaluatedFrame(t)
	f.Table.Status = ephem.StatusExternalError
	f.Table.Err = "ephemeris request timed out"

	var buf bytes.Buffer
	WriteSummary(&buf, f)
	if !strings.Contains(buf.String(), "Fallback: ephemeris request timed out") {
		t.Error("fallback reason not shown")
	}

	f.Table.Rows = nil
	buf.Reset()
	WriteSummary(&buf, f)
	if !strings.Contains(buf.String(), "No orbital rows") {
		t.Error("empty table not reported")
	}
}

func TestWriteSelfCheck(t *testing.T) {
	results := []selfcheck.Result{
		{Name: "a", Passed: true},
		{Name: "b", Passed: false, Observed: 2, Expected: 1, Tolerance: 0.5},
	}
	var buf bytes.Buffer
	WriteSelfCheck(&buf, results)
	out := buf.String()

	if !strings.Contains(out, "1/2 checks passed") {
		t.Errorf("missing tally in %q", out)
	}
	if !strings.Contains(out, "FAIL") {
		t.Error("failed check not marked")
	}
}

func TestWriteEvents(t *testing.T) {
	var buf bytes.Buffer
	WriteEvents(&buf, nil, 10)
	if buf.Len() != 0 {
		t.Error("no output expected for zero events")
	}

	events := []Event{
		{Type: EventModeChange, Timestamp: base, From: "model", To: "external"},
		{Type: EventFallback, Timestamp: base.Add(time.Second), From: "external-loading", To: "external-error", Detail: "boom"},
		{Type: EventRecovered, Timestamp: base.Add(2 * time.Second), From: "external-error", To: "external-ok"},
	}
	WriteEvents(&buf, events, 2)
	out := buf.String()

	if strings.Contains(out, string(EventModeChange)) {
		t.Error("limit should drop the oldest event")
	}
	if !strings.Contains(out, "boom") || !strings.Contains(out, string(EventRecovered)) {
		t.Errorf("recent events missing: %q", out)
	}
}
