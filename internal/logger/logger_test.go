// ABOUTME: Tests for logger construction.
// ABOUTME: Verifies level parsing and output path handling.

package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWritesToOutputPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reco.log")

	l, err := New(Config{Level: "debug", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	l.Debugw("dispatching action", "resource", "pets", "action", "create")
	l.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), `"action":"create"`) {
		t.Errorf("log output missing structured field: %s", data)
	}
}

func TestNewFallsBackToInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reco.log")

	l, err := New(Config{Level: "chatty", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	l.Debug("hidden")
	l.Info("shown")
	l.Sync()

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "hidden") {
		t.Error("debug entry written with invalid level, expected info fallback")
	}
	if !strings.Contains(string(data), "shown") {
		t.Error("info entry missing")
	}
}

func TestDefaultIsShared(t *testing.T) {
	if Default() != Default() {
		t.Error("Default() returned different loggers")
	}
}
