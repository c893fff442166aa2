package app

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLoggerJSONCarriesComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, &Config{LogFormat: "json", LogLevel: "warn"}, "worker")
	logger.Info("hidden")
	logger.Warn("shown")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one record, got %d: %s", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if rec["component"] != "worker" || rec["msg"] != "shown" {
		t.Fatalf("unexpected record %v", rec)
	}
}
