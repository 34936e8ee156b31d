package datasets

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned by Config.Validate and NewGenerator.
var ErrInvalidConfig = errors.New("invalid generator config")

// Config controls the sampling pipeline.
type Config struct {
	// ReplayDir and Pattern select the replay files (filepath.Glob syntax).
	ReplayDir string `yaml:"replay_dir"`
	Pattern   string `yaml:"pattern"`
	// Player is the name whose ships become examples. A trailing version
	// token in replay player names is ignored ("teccles v12" matches "teccles").
	Player string `yaml:"player"`

	Radius    int `yaml:"radius"`
	BatchSize int `yaml:"batch_size"`

	ProbIncludeFrame float64 `yaml:"prob_include_frame"`
	ProbIncludeShip  float64 `yaml:"prob_include_ship"`
	// StartFrac and EndFrac bound frame f by f/num_frames.
	StartFrac float64 `yaml:"start_frac"`
	EndFrac   float64 `yaml:"end_frac"`

	Balance bool   `yaml:"balance"`
	Rotate  bool   `yaml:"rotate"`
	Encoder string `yaml:"encoder"`
	Seed    int64  `yaml:"seed"`
}

// DefaultConfig returns the defaults used for absent YAML keys.
func DefaultConfig() Config {
	c := Config{}
	applyDefaults(&c)
	return c
}

// LoadConfig reads a YAML config file, fills defaults and validates it.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}

	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyDefaults fills zero fields. A zero radius is therefore only reachable
// by building Config in code.
func applyDefaults(cfg *Config) {
	if cfg.Pattern == "" {
		cfg.Pattern = "*"
	}
	if cfg.Radius == 0 {
		cfg.Radius = 2
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 128
	}
	if cfg.ProbIncludeFrame == 0 {
		cfg.ProbIncludeFrame = 0.2
	}
	if cfg.ProbIncludeShip == 0 {
		cfg.ProbIncludeShip = 0.2
	}
	if cfg.EndFrac == 0 {
		cfg.EndFrac = 1
	}
	if cfg.Encoder == "" {
		cfg.Encoder = DefaultEncoder
	}
}

// Validate checks ranges and that the encoder exists.
func (c Config) Validate() error {
	switch {
	case c.Player == "":
		return fmt.Errorf("%w: player is required", ErrInvalidConfig)
	case c.Radius < 0:
		return fmt.Errorf("%w: radius %d is negative", ErrInvalidConfig, c.Radius)
	case c.BatchSize < 1:
		return fmt.Errorf("%w: batch size %d", ErrInvalidConfig, c.BatchSize)
	case c.ProbIncludeFrame <= 0 || c.ProbIncludeFrame > 1:
		return fmt.Errorf("%w: prob_include_frame %v not in (0,1]", ErrInvalidConfig, c.ProbIncludeFrame)
	case c.ProbIncludeShip <= 0 || c.ProbIncludeShip > 1:
		return fmt.Errorf("%w: prob_include_ship %v not in (0,1]", ErrInvalidConfig, c.ProbIncludeShip)
	case c.StartFrac < 0 || c.EndFrac > 1 || c.StartFrac > c.EndFrac:
		return fmt.Errorf("%w: frame window [%v,%v] not within [0,1]", ErrInvalidConfig, c.StartFrac, c.EndFrac)
	}
	if _, err := EncoderByName(c.Encoder); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
