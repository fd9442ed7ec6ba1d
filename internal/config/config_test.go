package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/caarlos0/env/v11"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("expected missing file to be ignored: %v", err)
	}
	if cfg.Tracker.Threshold != nil {
		t.Fatalf("expected empty config")
	}
}

func TestLoadConfigValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `[tracker]
category = "docs"
threshold = 0.75
read-time = 2500
debug = true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	tr := cfg.Tracker
	if tr.Category == nil || *tr.Category != "docs" {
		t.Fatalf("unexpected category: %v", tr.Category)
	}
	if tr.Threshold == nil || *tr.Threshold != 0.75 {
		t.Fatalf("unexpected threshold: %v", tr.Threshold)
	}
	if tr.ReadTimeMs == nil || *tr.ReadTimeMs != 2500 {
		t.Fatalf("unexpected read time: %v", tr.ReadTimeMs)
	}
	if tr.Debug == nil || !*tr.Debug {
		t.Fatalf("expected debug")
	}
	if tr.NoObserver != nil || tr.Events != nil {
		t.Fatalf("unset keys must stay nil")
	}
}

func TestLoadConfigUnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[tracker]\nthreshhold = 0.5\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "threshhold") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	envCfg, err := parseEnv(env.Options{
		Prefix: envPrefix,
		Environment: map[string]string{
			"READTRACK_THRESHOLD":    "0.9",
			"READTRACK_READ_TIME_MS": "100",
		},
	})
	if err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if envCfg.Debug != nil || envCfg.Category != nil {
		t.Fatalf("unset env vars must stay nil: %+v", envCfg)
	}

	category := "file"
	threshold := 0.25
	merged := Merge(TrackerConfig{Category: &category, Threshold: &threshold}, envCfg)
	if *merged.Category != "file" {
		t.Fatalf("expected file category to survive")
	}
	if *merged.Threshold != 0.9 || *merged.ReadTimeMs != 100 {
		t.Fatalf("expected env values to win: %+v", merged)
	}
}

func TestEnvRejectsBadValues(t *testing.T) {
	_, err := parseEnv(env.Options{
		Prefix:      envPrefix,
		Environment: map[string]string{"READTRACK_DEBUG": "sometimes"},
	})
	if err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestDefaultPathsFollowXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("XDG_DATA_HOME", dir)
	if got := DefaultConfigPath(); got != filepath.Join(dir, "readtrack", "config.toml") {
		t.Fatalf("unexpected config path: %s", got)
	}
	if got := DefaultDebugLogPath(); got != filepath.Join(dir, "readtrack", "debug.log") {
		t.Fatalf("unexpected log path: %s", got)
	}
}
