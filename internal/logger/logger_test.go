package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(WARN, &buf, false)

	l.Info("Controller", "dropped %d", 1)
	if buf.Len() != 0 {
		t.Fatalf("info must be filtered at WARN level, got %q", buf.String())
	}

	l.Warn("Controller", "save failed: %s", "timeout")
	out := buf.String()
	if !strings.Contains(out, "save failed: timeout") {
		t.Fatalf("missing message in %q", out)
	}
	if !strings.Contains(out, "Controller") {
		t.Fatalf("missing module tag in %q", out)
	}
}

func TestSilentSuppressesEverything(t *testing.T) {
	var buf bytes.Buffer
	l := New(SILENT, &buf, false)
	l.Error("Main", "boom")
	if buf.Len() != 0 {
		t.Fatalf("silent logger wrote %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"debug":   DEBUG,
		"INFO":    INFO,
		"warning": WARN,
		"error":   ERROR,
		"none":    SILENT,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
