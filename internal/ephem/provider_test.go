package ephem

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/litescript/ls-orrery/internal/bodies"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		input    string
		expected Mode
		wantErr  bool
	}{
		{"model", ModeModel, false},
		{"external", ModeExternal, false},
		{" External ", ModeExternal, false},
		{"", ModeModel, false}, // default
		{"horizons", ModeModel, true},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseMode(tc.input)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseMode(%q) error = %v, wantErr %v", tc.input, err, tc.wantErr)
			}
			if tc.wantErr && !errors.Is(err, ErrInvalidMode) {
				t.Errorf("error %v does not wrap ErrInvalidMode", err)
			}
			if got != tc.expected {
				t.Errorf("ParseMode(%q) = %v, want %v", tc.input, got, tc.expected)
			}
		})
	}
}

func TestModeString(t *testing.T) {
	tests := []struct {
		mode     Mode
		expected string
	}{
		{ModeModel, "model"},
		{ModeExternal, "external"},
		{Mode(99), "unknown"},
	}

	for _, tc := range tests {
		t.Run(tc.expected, func(t *testing.T) {
			got := tc.mode.String()
			if got != tc.expected {
				t.Errorf("Mode(%d).String() = %q, want %q", tc.mode, got, tc.expected)
			}
		})
	}
}

func TestStatusString(t *testing.T) {
	want := []string{"model", "external-loading", "external-ok", "external-error"}
	for i, st := range AllStatuses() {
		if st.String() != want[i] {
			t.Errorf("Status(%d).String() = %q, want %q", st, st.String(), want[i])
		}
	}
	if Status(42).String() != "unknown" {
		t.Error("out-of-range status should be unknown")
	}
}

func TestTableJSON(t *testing.T) {
	table := Table{
		Generation: 3,
		Mode:       ModeExternal,
		Status:     StatusExternalError,
		Provider:   "model",
		Rows:       []OrbitalRow{{Body: bodies.Mars, Name: "Mars", SemiMajorAxisAU: 1.523679}},
		Err:        "boom",
	}

	b, err := json.Marshal(table)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded["status"] != "external-error" {
		t.Errorf("status = %v, want external-error", decoded["status"])
	}
	if decoded["mode"] != "external" {
		t.Errorf("mode = %v, want external", decoded["mode"])
	}
	rows := decoded["rows"].([]any)
	if rows[0].(map[string]any)["name"] != "Mars" {
		t.Errorf("row name = %v", rows[0])
	}
}

func TestTableRow(t *testing.T) {
	table := Table{Rows: []OrbitalRow{{Body: bodies.Venus, Name: "Venus"}}}

	if _, ok := table.Row(bodies.Venus); !ok {
		t.Error("Row(Venus) not found")
	}
	if _, ok := table.Row(bodies.Earth); ok {
		t.Error("Row(Earth) should be absent")
	}
}

func TestStatusUnmarshalText(t *testing.T) {
	var st Status
	if err := st.UnmarshalText([]byte("external-ok")); err != nil || st != StatusExternalOk {
		t.Errorf("UnmarshalText = %v, %v", st, err)
	}
	if err := st.UnmarshalText([]byte("sleepy")); err == nil {
		t.Error("expected error for unknown status")
	}
}
