package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{" warn ", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tc := range tests {
		if got := ParseLevel(tc.in); got != tc.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestJSONOutputCarriesComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{
		Level:     slog.LevelInfo,
		Component: ComponentLedger,
		JSON:      true,
		Output:    &buf,
	})

	logger.Info("Transaction created", FieldUserID, "u1")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if rec[FieldComponent] != ComponentLedger {
		t.Errorf("component = %v, want %s", rec[FieldComponent], ComponentLedger)
	}
	if rec[FieldUserID] != "u1" {
		t.Errorf("user_id = %v, want u1", rec[FieldUserID])
	}
	if rec["msg"] != "Transaction created" {
		t.Errorf("msg = %v", rec["msg"])
	}
}

func TestLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Component: ComponentApp, Output: &buf})

	logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug line emitted at info level: %q", buf.String())
	}

	logger.Info("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("info line missing: %q", buf.String())
	}
}
