package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func fixedClock() time.Time {
	return time.Date(2026, time.October, 18, 9, 30, 0, 0, time.UTC)
}

func newTestLogger(level Level, jsonFormat bool) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := NewLogger("keymap", level, jsonFormat)
	l.SetOutput(&buf)
	l.now = fixedClock
	return l, &buf
}

func TestTextOutput(t *testing.T) {
	l, buf := newTestLogger(INFO, false)
	l.WithField("run_id", "abc").Info("loaded file", map[string]interface{}{"lines": 3, "file": "a.txt"})

	want := "keymap: [2026-10-18 09:30:00] INFO: loaded file file=a.txt lines=3 run_id=abc\n"
	if got := buf.String(); got != want {
		t.Errorf("got %q, expected %q", got, want)
	}
}

func TestLevelFiltering(t *testing.T) {
	l, buf := newTestLogger(WARN, false)
	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown")
	l.Error("shown")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "WARN: shown") || !strings.Contains(lines[1], "ERROR: shown") {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestJSONOutput(t *testing.T) {
	l, buf := newTestLogger(DEBUG, true)
	l.Debug("split", map[string]interface{}{"tokens": 2})

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry.Level != "DEBUG" || entry.Message != "split" || entry.Program != "keymap" {
		t.Errorf("unexpected entry: %+v", entry)
	}
	if entry.Timestamp != "2026-10-18T09:30:00Z" {
		t.Errorf("Timestamp = %q", entry.Timestamp)
	}
	if entry.Fields["tokens"] != float64(2) {
		t.Errorf("Fields = %v", entry.Fields)
	}
}

func TestWithFieldDoesNotMutateParent(t *testing.T) {
	l, buf := newTestLogger(INFO, false)
	_ = l.WithField("child", true)
	l.Info("parent")
	if strings.Contains(buf.String(), "child") {
		t.Errorf("parent logger picked up child field: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
		wantErr  bool
	}{
		{"debug", DEBUG, false},
		{"INFO", INFO, false},
		{"", INFO, false},
		{"warning", WARN, false},
		{" Error ", ERROR, false},
		{"verbose", INFO, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if got != tt.expected {
			t.Errorf("ParseLevel(%q) = %v, expected %v", tt.input, got, tt.expected)
		}
	}
}

func TestFileLoggerRotation(t *testing.T) {
	dir := t.TempDir()
	l, err := NewFileLogger("keymap", dir, "serve", DEBUG, false)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	defer l.Close()
	l.now = fixedClock

	l.Info(strings.Repeat("x", 64))

	rotated, err := l.RotateIfNeeded(16)
	if err != nil {
		t.Fatalf("RotateIfNeeded failed: %v", err)
	}
	if !rotated {
		t.Fatal("expected rotation")
	}

	backup := filepath.Join(dir, "serve.log.20261018-093000")
	if _, err := os.Stat(backup); err != nil {
		t.Errorf("backup file missing: %v", err)
	}

	rotated, err = l.RotateIfNeeded(16)
	if err != nil || rotated {
		t.Errorf("second RotateIfNeeded = %v, %v; expected no rotation", rotated, err)
	}
}
