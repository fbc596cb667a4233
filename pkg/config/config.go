// Package config loads compiler settings from a YAML file and the
// environment.
//
// Values are resolved in order: defaults, then the file (a missing file is
// not an error), then CALLOSUM_* environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/callosum-dsl/callosum/internal/logging"
	"github.com/callosum-dsl/callosum/pkg/compiler"
	"github.com/callosum-dsl/callosum/pkg/optimizer"
	"github.com/callosum-dsl/callosum/pkg/pipeline"
)

// DefaultPath is the file LoadConfig reads when no path is given.
const DefaultPath = "callosum.yaml"

type Config struct {
	Compile CompileConfig `yaml:"compile"`
	Cache   CacheConfig   `yaml:"cache"`
	Log     LogConfig     `yaml:"log"`
}

type CompileConfig struct {
	Target      string        `yaml:"target" env:"CALLOSUM_TARGET"`
	Optimize    string        `yaml:"optimize" env:"CALLOSUM_OPTIMIZE"`
	Context     string        `yaml:"context" env:"CALLOSUM_CONTEXT"`
	Strict      bool          `yaml:"strict" env:"CALLOSUM_STRICT"`
	MaxDepth    int           `yaml:"max_depth" env:"CALLOSUM_MAX_DEPTH"`
	JSONIndent  string        `yaml:"json_indent" env:"CALLOSUM_JSON_INDENT"`
	Concurrency int           `yaml:"concurrency" env:"CALLOSUM_CONCURRENCY"`
	Timeout     time.Duration `yaml:"timeout" env:"CALLOSUM_TIMEOUT"`
}

type CacheConfig struct {
	Enabled bool `yaml:"enabled" env:"CALLOSUM_CACHE"`
	Size    int  `yaml:"size" env:"CALLOSUM_CACHE_SIZE"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"CALLOSUM_LOG_LEVEL"`
	Format string `yaml:"format" env:"CALLOSUM_LOG_FORMAT"`
}

func DefaultConfig() *Config {
	return &Config{
		Compile: CompileConfig{
			Target:     string(compiler.TargetJSON),
			Optimize:   optimizer.None.String(),
			MaxDepth:   100,
			JSONIndent: "  ",
		},
		Cache: CacheConfig{
			Size: 256,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// LoadConfig reads path, applies environment overrides and validates the
// result. An empty path means DefaultPath.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveConfig writes cfg to path as YAML.
func SaveConfig(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks every enumerated setting.
func (c *Config) Validate() error {
	if _, err := compiler.ParseTarget(c.Compile.Target); err != nil {
		return fmt.Errorf("compile.target: %w", err)
	}
	if _, err := optimizer.ParseLevel(c.Compile.Optimize); err != nil {
		return fmt.Errorf("compile.optimize: %w", err)
	}
	if c.Compile.MaxDepth < 0 {
		return fmt.Errorf("compile.max_depth: must not be negative, got %d", c.Compile.MaxDepth)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format: want text or json, got %q", c.Log.Format)
	}
	return nil
}

// Target returns the configured target. It assumes c is valid.
func (c *Config) Target() compiler.Target {
	t, _ := compiler.ParseTarget(c.Compile.Target)
	return t
}

// Level returns the configured optimization level. It assumes c is valid.
func (c *Config) Level() optimizer.Level {
	l, _ := optimizer.ParseLevel(c.Compile.Optimize)
	return l
}

// LogLevel returns the configured log level. It assumes c is valid.
func (c *Config) LogLevel() slog.Level {
	l, _ := logging.ParseLevel(c.Log.Level)
	return l
}

// RunOptions converts the settings to pipeline options.
func (c *Config) RunOptions(logger *slog.Logger) []pipeline.RunOption {
	opts := []pipeline.RunOption{
		pipeline.WithLogger(logger),
		pipeline.WithStrict(c.Compile.Strict),
		pipeline.WithMaxDepth(c.Compile.MaxDepth),
		pipeline.WithTimeout(c.Compile.Timeout),
		pipeline.WithCompileOptions(compiler.WithJSONIndent(c.Compile.JSONIndent)),
	}
	if c.Compile.Concurrency > 0 {
		opts = append(opts, pipeline.WithConcurrency(c.Compile.Concurrency))
	}
	if c.Cache.Enabled {
		opts = append(opts, pipeline.WithCaching(true), pipeline.WithCacheSize(c.Cache.Size))
	}
	return opts
}
