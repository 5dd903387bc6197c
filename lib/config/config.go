// Copyright 2026 The Dtviz Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the master configuration for dtviz-server.
type Config struct {
	// Paths configures directory locations.
	Paths PathsConfig `yaml:"paths"`

	// Server configures the HTTP API.
	Server ServerConfig `yaml:"server"`

	// Stream configures the live event stream timing.
	Stream StreamConfig `yaml:"stream"`

	// Examples lists the simulation example names that may be
	// launched. An example outside this list has no binary mapping
	// and is rejected as a configuration error.
	Examples []string `yaml:"examples"`
}

// PathsConfig configures directory locations.
type PathsConfig struct {
	// Root is the simulation repository root. Spawned simulation
	// processes run with this as their working directory so that
	// relative output paths resolve the same way as a manual run.
	Root string `yaml:"root"`

	// Output is the base directory for simulation output. Each
	// example writes into Output/<example>/.
	Output string `yaml:"output"`

	// Binaries is the directory containing the release simulation
	// binaries, one per example name.
	Binaries string `yaml:"binaries"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	// Listen is the address the HTTP server binds to.
	Listen string `yaml:"listen"`

	// AllowedOrigins lists CORS origins. "*" allows any origin.
	AllowedOrigins []string `yaml:"allowed_origins"`

	// DefaultExample is used when a request omits the example
	// query parameter.
	DefaultExample string `yaml:"default_example"`
}

// StreamConfig configures live stream timing. Durations are Go
// duration strings ("500ms", "5m"). The defaults are contractual:
// clients are written against a 500ms warm-up, 250ms poll cadence,
// and a 5 minute absolute session deadline.
type StreamConfig struct {
	// Warmup is the delay before the first poll, giving the spawned
	// process time to create its output files.
	Warmup string `yaml:"warmup"`

	// PollInterval is the fixed delay between poll cycles.
	PollInterval string `yaml:"poll_interval"`

	// Deadline is the absolute wall-clock limit for one streaming
	// session, measured from session start. Not an idle timer.
	Deadline string `yaml:"deadline"`

	// StrictParse aborts a streaming session on the first malformed
	// row instead of silently dropping it.
	StrictParse bool `yaml:"strict_parse"`
}

// Default returns the default configuration. The defaults match the
// simulation repository's own layout, so a config file is only needed
// to override paths or timings.
func Default() *Config {
	root := "."
	return &Config{
		Paths: PathsConfig{
			Root:     root,
			Output:   filepath.Join(root, "output"),
			Binaries: filepath.Join(root, "target", "release"),
		},
		Server: ServerConfig{
			Listen:         "127.0.0.1:8000",
			AllowedOrigins: []string{"*"},
			DefaultExample: "xsmall",
		},
		Stream: StreamConfig{
			Warmup:       "500ms",
			PollInterval: "250ms",
			Deadline:     "5m",
		},
		Examples: []string{"xsmall", "large", "xlarge"},
	}
}

// Load loads configuration from the DTVIZ_CONFIG environment variable.
// If the variable is unset, the defaults are returned unchanged.
func Load() (*Config, error) {
	configPath := os.Getenv("DTVIZ_CONFIG")
	if configPath == "" {
		return Default(), nil
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path, merged over
// the defaults. The config file is the single source of truth:
// environment variables do not override config values. The only
// expansion performed is ${HOME} and similar path variables.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.expandVariables()
	return cfg, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"DTVIZ_ROOT": c.Paths.Root,
		"HOME":       os.Getenv("HOME"),
	}

	c.Paths.Root = expandVars(c.Paths.Root, vars)
	vars["DTVIZ_ROOT"] = c.Paths.Root // Update for dependent paths.

	c.Paths.Output = expandVars(c.Paths.Output, vars)
	c.Paths.Binaries = expandVars(c.Paths.Binaries, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Paths.Root == "" {
		errs = append(errs, fmt.Errorf("paths.root is required"))
	}
	if c.Paths.Output == "" {
		errs = append(errs, fmt.Errorf("paths.output is required"))
	}
	if c.Paths.Binaries == "" {
		errs = append(errs, fmt.Errorf("paths.binaries is required"))
	}
	if c.Server.Listen == "" {
		errs = append(errs, fmt.Errorf("server.listen is required"))
	}
	if c.Server.DefaultExample == "" {
		errs = append(errs, fmt.Errorf("server.default_example is required"))
	}
	if len(c.Examples) == 0 {
		errs = append(errs, fmt.Errorf("examples must list at least one example"))
	}

	if _, _, _, err := c.Stream.Timings(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Timings returns the parsed warm-up delay, poll interval, and
// session deadline.
func (s *StreamConfig) Timings() (warmup, poll, deadline time.Duration, err error) {
	warmup, err = time.ParseDuration(s.Warmup)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("stream.warmup: %w", err)
	}
	poll, err = time.ParseDuration(s.PollInterval)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("stream.poll_interval: %w", err)
	}
	deadline, err = time.ParseDuration(s.Deadline)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("stream.deadline: %w", err)
	}
	return warmup, poll, deadline, nil
}

// KnownExample reports whether name is a configured example.
func (c *Config) KnownExample(name string) bool {
	for _, example := range c.Examples {
		if example == name {
			return true
		}
	}
	return false
}
