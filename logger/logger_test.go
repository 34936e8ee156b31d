package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestInit_LevelAndFile(t *testing.T) {
	prev := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })

	path := filepath.Join(t.TempDir(), "run.log")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("LOG_FILE", path)
	Init()

	if zerolog.GlobalLevel() != zerolog.WarnLevel {
		t.Fatalf("global level = %v, want warn", zerolog.GlobalLevel())
	}

	l := Get()
	l.Info().Msg("hidden")
	l.Warn().Str("file", "x.hlt").Msg("dropping replay")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	out := string(data)
	if strings.Contains(out, "hidden") {
		t.Fatalf("info message written at warn level: %q", out)
	}
	if !strings.Contains(out, "dropping replay") {
		t.Fatalf("warn message missing from log file: %q", out)
	}
}

func TestInit_BadLevelFallsBackToInfo(t *testing.T) {
	prev := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })

	t.Setenv("LOG_LEVEL", "chatty")
	t.Setenv("LOG_FILE", "")
	Init()
	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Fatalf("global level = %v, want info", zerolog.GlobalLevel())
	}
}
