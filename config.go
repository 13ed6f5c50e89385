package biteopt

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rwcarlsen/biteopt/deep"
)

// Config is the file form of a run configuration.  Zero values select the
// defaults.
type Config struct {
	Iters        int       `yaml:"iters"`
	Depth        int       `yaml:"depth"`
	Attempts     int       `yaml:"attempts"`
	StopMul      float64   `yaml:"stop_mul"`
	Seed         *int      `yaml:"seed"`
	Target       *float64  `yaml:"target"`
	PopSize      int       `yaml:"pop_size"`
	InitParams   []float64 `yaml:"init_params"`
	InitRadius   float64   `yaml:"init_radius"`
	KeepAttempts int       `yaml:"keep_attempts"`
	Workers      int       `yaml:"workers"`
	LogLevel     string    `yaml:"log_level"`
}

// LoadConfig loads and parses a configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	cfg, err := ParseConfigYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfigYAML parses a Config from YAML bytes and validates it.
func ParseConfigYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the fields that can be checked without bounds.
func (c *Config) Validate() error {
	validLogLevels := map[string]bool{
		"":      true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("%w: log_level %q (must be debug, info, warn, or error)", ErrBadConfig, c.LogLevel)
	}

	switch {
	case c.Iters < 0:
		return fmt.Errorf("%w: iters cannot be negative", ErrBadConfig)
	case c.Depth < 0 || c.Depth > deep.MaxDepth:
		return fmt.Errorf("%w: depth must be in [1, %v]", ErrBadConfig, deep.MaxDepth)
	case c.Attempts < 0:
		return fmt.Errorf("%w: attempts cannot be negative", ErrBadConfig)
	case c.StopMul < 0:
		return fmt.Errorf("%w: stop_mul cannot be negative", ErrBadConfig)
	case c.PopSize != 0 && c.PopSize < MinPopSize:
		return fmt.Errorf("%w: pop_size must be at least %v", ErrBadConfig, MinPopSize)
	case c.InitRadius < 0:
		return fmt.Errorf("%w: init_radius cannot be negative", ErrBadConfig)
	case c.KeepAttempts < 0:
		return fmt.Errorf("%w: keep_attempts cannot be negative", ErrBadConfig)
	case c.Workers < 0:
		return fmt.Errorf("%w: workers cannot be negative", ErrBadConfig)
	}
	return nil
}

// Options converts the configuration into Minimize options.
func (c *Config) Options() []Option {
	var opts []Option
	if c.Iters > 0 {
		opts = append(opts, Iters(c.Iters))
	}
	if c.Depth > 0 {
		opts = append(opts, Depth(c.Depth))
	}
	if c.Attempts > 0 {
		opts = append(opts, Attempts(c.Attempts))
	}
	if c.StopMul > 0 {
		opts = append(opts, StopMul(c.StopMul))
	}
	if c.Seed != nil {
		opts = append(opts, Seed(*c.Seed))
	}
	if c.Target != nil {
		opts = append(opts, Target(*c.Target))
	}
	if c.PopSize > 0 {
		opts = append(opts, PopSize(c.PopSize))
	}
	if c.InitParams != nil {
		opts = append(opts, InitParams(c.InitParams))
	}
	if c.InitRadius > 0 {
		opts = append(opts, InitRadius(c.InitRadius))
	}
	if c.KeepAttempts > 0 {
		opts = append(opts, KeepAttempts(c.KeepAttempts))
	}
	return opts
}
