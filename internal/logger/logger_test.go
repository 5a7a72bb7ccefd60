package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"warning": LevelWarn,
		"ERROR":   LevelError,
		"none":    LevelNone,
		"bogus":   LevelInfo,
	}
	for input, want := range cases {
		if got := ParseLevel(input); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestLoggerWritesLeveledLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")
	l, err := New(LevelInfo, path, "llm")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	defer l.Close()

	l.Debug("should be suppressed")
	l.Info("hello %s", "world")
	l.Error("boom")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	out := string(data)

	if strings.Contains(out, "suppressed") {
		t.Errorf("debug line emitted below level: %q", out)
	}
	if !strings.Contains(out, "[INFO] [llm] hello world") {
		t.Errorf("info line missing or malformed: %q", out)
	}
	if !strings.Contains(out, "[ERROR]") {
		t.Errorf("error line missing: %q", out)
	}
}

func TestDisabledLoggerNeverCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "unused.log")
	l, err := New(LevelNone, path, "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	l.Info("ignored")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("disabled logger created a file")
	}
}

func TestWithPrefixChains(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")
	l, err := New(LevelDebug, path, "orchestrator")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	defer l.Close()

	l.WithPrefix("functions").Debug("nested")

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "[orchestrator:functions]") {
		t.Errorf("chained prefix missing: %q", string(data))
	}
}
