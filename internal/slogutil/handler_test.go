package slogutil

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

func TestHandler_Format(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo)

	logger.Info("Closure resolved", "seeds", 3, "name", "com.example.Api")

	line := regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z \[info\] Closure resolved \| seeds=3 name=com\.example\.Api\n$`)
	if !line.MatchString(buf.String()) {
		t.Errorf("unexpected line: %q", buf.String())
	}
}

func TestHandler_Quoting(t *testing.T) {
	tests := []struct {
		value any
		want  string
	}{
		{"plain", "k=plain"},
		{"two words", `k="two words"`},
		{"", `k=""`},
		{"a=b", `k="a=b"`},
		{42, "k=42"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		NewLogger(&buf, slog.LevelInfo).Info("m", "k", tt.value)
		if !strings.HasSuffix(strings.TrimSpace(buf.String()), tt.want) {
			t.Errorf("value %v: got %q, want suffix %q", tt.value, buf.String(), tt.want)
		}
	}
}

func TestHandler_Levels(t *testing.T) {
	tests := []struct {
		logFunc  func(*slog.Logger)
		expected string
	}{
		{func(l *slog.Logger) { l.Debug("m") }, "[debug]"},
		{func(l *slog.Logger) { l.Info("m") }, "[info]"},
		{func(l *slog.Logger) { l.Warn("m") }, "[warn]"},
		{func(l *slog.Logger) { l.Error("m") }, "[error]"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			var buf bytes.Buffer
			tt.logFunc(NewLogger(&buf, slog.LevelDebug))
			if !strings.Contains(buf.String(), tt.expected) {
				t.Errorf("expected %s in output, got: %s", tt.expected, buf.String())
			}
		})
	}
}

func TestHandler_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelWarn)
	logger.Info("hidden")
	logger.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestHandler_AttrsAndGroups(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo).With("run", "r1").WithGroup("emit")
	logger.Info("Artifact written", "file", "A.class")
	if !strings.Contains(buf.String(), "| run=r1 emit.file=A.class") {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"Warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := LevelFromString(tt.in); got != tt.want {
			t.Errorf("LevelFromString(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if ValidLevel("bogus") || !ValidLevel("warning") || !ValidLevel("") {
		t.Error("ValidLevel disagrees with LevelFromString")
	}
}

func TestLevelFromVerbosity(t *testing.T) {
	tests := []struct {
		v     int
		quiet bool
		want  slog.Level
	}{
		{0, false, slog.LevelWarn},
		{1, false, slog.LevelInfo},
		{2, false, slog.LevelDebug},
		{5, false, slog.LevelDebug},
		{2, true, levelSilent},
	}
	for _, tt := range tests {
		if got := LevelFromVerbosity(tt.v, tt.quiet); got != tt.want {
			t.Errorf("LevelFromVerbosity(%d, %v) = %v, want %v", tt.v, tt.quiet, got, tt.want)
		}
	}
}

func TestNewDiscardLogger(t *testing.T) {
	logger := NewDiscardLogger()
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Error("discard logger should not be enabled")
	}
	if OrDiscard(nil) == nil || OrDiscard(logger) != logger {
		t.Error("OrDiscard misbehaves")
	}
}

func TestTeeHandler(t *testing.T) {
	var buf1, buf2 bytes.Buffer
	h1 := NewHandler(&buf1, &slog.HandlerOptions{Level: slog.LevelInfo})
	h2 := NewHandler(&buf2, &slog.HandlerOptions{Level: slog.LevelWarn})
	logger := slog.New(NewTeeHandler(h1, h2))

	logger.Info("info only")
	logger.Warn("both")

	if !strings.Contains(buf1.String(), "info only") || !strings.Contains(buf1.String(), "both") {
		t.Errorf("first handler output: %q", buf1.String())
	}
	if strings.Contains(buf2.String(), "info only") || !strings.Contains(buf2.String(), "both") {
		t.Errorf("second handler output: %q", buf2.String())
	}
}

func TestSetup(t *testing.T) {
	var console bytes.Buffer
	logPath := filepath.Join(t.TempDir(), "logs", "apiextract.log")
	logger, closer, err := Setup(Options{
		Console:      &console,
		ConsoleLevel: slog.LevelWarn,
		File:         logPath,
		FileLevel:    slog.LevelDebug,
	})
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	logger.Debug("file only")
	logger.Warn("everywhere")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "file only") || !strings.Contains(string(data), "everywhere") {
		t.Errorf("log file: %q", data)
	}
	if strings.Contains(console.String(), "file only") || !strings.Contains(console.String(), "everywhere") {
		t.Errorf("console: %q", console.String())
	}

	logger, closer, err = Setup(Options{})
	if err != nil || logger == nil || closer.Close() != nil {
		t.Errorf("empty Setup = %v, %v", logger, err)
	}
}
