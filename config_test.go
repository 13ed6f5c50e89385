package biteopt

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const sampleConfig = `
iters: 1500
depth: 4
attempts: 3
stop_mul: 2
seed: 0
target: -1.5
init_params: [1, 2]
init_radius: 0.5
keep_attempts: 2
workers: 4
log_level: debug
`

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfigYAML([]byte(sampleConfig))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Workers != 4 || cfg.LogLevel != "debug" {
		t.Errorf("unexpected config %+v", cfg)
	}

	s := defaultSettings()
	for _, opt := range cfg.Options() {
		opt(s)
	}
	if s.Iters != 1500 || s.Depth != 4 || s.Attempts != 3 || s.StopMul != 2 {
		t.Errorf("budget options not applied: %+v", s)
	}
	if s.Seed != 0 {
		t.Errorf("explicit zero seed not applied: %v", s.Seed)
	}
	if !s.HasTarget || s.Target != -1.5 {
		t.Errorf("target not applied: %v %v", s.HasTarget, s.Target)
	}
	if len(s.InitParams) != 2 || s.InitRadius != 0.5 || s.KeepAttempts != 2 {
		t.Errorf("init options not applied: %+v", s)
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg, err := ParseConfigYAML([]byte("iters: 10\n"))
	if err != nil {
		t.Fatal(err)
	}
	s := defaultSettings()
	for _, opt := range cfg.Options() {
		opt(s)
	}
	if s.Depth != DefaultDepth || s.Attempts != DefaultAttempts || s.Seed != DefaultSeed || s.HasTarget {
		t.Errorf("defaults overridden: %+v", s)
	}
}

func TestConfigInvalid(t *testing.T) {
	bad := []string{
		"depth: 40\n",
		"iters: -1\n",
		"log_level: loud\n",
		"pop_size: 2\n",
		"stop_mul: -1\n",
	}
	for _, text := range bad {
		if _, err := ParseConfigYAML([]byte(text)); !errors.Is(err, ErrBadConfig) {
			t.Errorf("%q: expected ErrBadConfig, got %v", text, err)
		}
	}
	if _, err := ParseConfigYAML([]byte("iters: [1\n")); err == nil {
		t.Errorf("malformed yaml accepted")
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Iters != 1500 {
		t.Errorf("expected iters 1500, got %v", cfg.Iters)
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Errorf("missing file accepted")
	}
}
