package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_UnknownLevel(t *testing.T) {
	if _, err := New(Config{Level: "verbose"}); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestNew_ProductionWritesECSJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	logger, err := New(Config{Level: "info", Env: "production", FilePath: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("progress pushed")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("lines = %d, want 1 (debug filtered):\n%s", len(lines), data)
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("not JSON: %v", err)
	}
	if entry["message"] != "progress pushed" {
		t.Errorf("message = %v, want progress pushed", entry["message"])
	}
	if entry["log.level"] != "info" {
		t.Errorf("log.level = %v, want info", entry["log.level"])
	}
	if _, ok := entry["@timestamp"]; !ok {
		t.Error("missing @timestamp")
	}
}
