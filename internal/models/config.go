package models

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every SolverConfig validation failure
var ErrInvalidConfig = errors.New("invalid solver config")

// Strategy names accepted in config files and on the command line
const (
	StrategyDepthFirst = "dfs"
	StrategyBestFirst  = "best-first"
)

// Aggregate modes accepted in config files and on the command line
const (
	ModeQuality = "quality"
	ModeProduct = "product"
	ModeSum     = "sum"
)

// MaxDeadline is the longest accepted horizon. It keeps stock, yield and
// bound arithmetic far from integer overflow.
const MaxDeadline = 1 << 20

// SolverConfig holds evaluation settings loaded from YAML or TOML
type SolverConfig struct {
	Deadline   int           `yaml:"deadline" toml:"deadline"`
	Limit      int           `yaml:"limit" toml:"limit"` // 0 = all blueprints
	Strategy   string        `yaml:"strategy" toml:"strategy"`
	Mode       string        `yaml:"mode" toml:"mode"`
	Workers    int           `yaml:"workers" toml:"workers"`         // 0 = GOMAXPROCS
	NodeBudget int           `yaml:"node_budget" toml:"node_budget"` // 0 = unlimited
	Timeout    time.Duration `yaml:"-" toml:"-"`
	CachePath  string        `yaml:"cache" toml:"cache"`

	// RawTimeout is the textual form of Timeout ("30s", "2m")
	RawTimeout string `yaml:"timeout" toml:"timeout"`
}

// DefaultSolverConfig returns the reference scenario settings
func DefaultSolverConfig() SolverConfig {
	return SolverConfig{
		Deadline: 24,
		Strategy: StrategyBestFirst,
		Mode:     ModeQuality,
	}
}

// LoadSolverConfig reads a config file, picking the decoder by extension.
// Fields missing from the file keep their default values.
func LoadSolverConfig(path string) (SolverConfig, error) {
	cfg := DefaultSolverConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return SolverConfig{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return SolverConfig{}, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return SolverConfig{}, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	default:
		return SolverConfig{}, fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}

	if raw := strings.TrimSpace(cfg.RawTimeout); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return SolverConfig{}, fmt.Errorf("parse timeout: %w", err)
		}
		cfg.Timeout = d
	}

	if err := cfg.Validate(); err != nil {
		return SolverConfig{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects settings the evaluator cannot run with
func (c SolverConfig) Validate() error {
	if c.Deadline < 0 || c.Deadline > MaxDeadline {
		return fmt.Errorf("%w: deadline %d outside 0..%d", ErrInvalidConfig, c.Deadline, MaxDeadline)
	}
	if c.Limit < 0 {
		return fmt.Errorf("%w: negative limit %d", ErrInvalidConfig, c.Limit)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: negative workers %d", ErrInvalidConfig, c.Workers)
	}
	if c.NodeBudget < 0 {
		return fmt.Errorf("%w: negative node budget %d", ErrInvalidConfig, c.NodeBudget)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: negative timeout %s", ErrInvalidConfig, c.Timeout)
	}
	switch c.Strategy {
	case StrategyDepthFirst, StrategyBestFirst:
	default:
		return fmt.Errorf("%w: unknown strategy %q", ErrInvalidConfig, c.Strategy)
	}
	switch c.Mode {
	case ModeQuality, ModeProduct, ModeSum:
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, c.Mode)
	}
	return nil
}
