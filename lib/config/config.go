// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration with YAML decoding of the usual "10s"
// notation.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var text string
	if err := value.Decode(&text); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(text)
	if err != nil {
		return fmt.Errorf("bad duration %q: %w", text, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the coordinator daemon configuration.
type Config struct {
	// Listen configures the two endpoints.
	Listen ListenConfig `yaml:"listen"`

	// RouteTimeout bounds how long a forwarded command waits for the
	// application's response. Default: 10s.
	RouteTimeout Duration `yaml:"route_timeout"`

	// LogLevel is one of debug, info, warn, error. Default: info.
	LogLevel string `yaml:"log_level"`

	// ArchiveDir is where `gantry traces export` output lands when
	// the CLI is given a bare filename. Empty means the current
	// directory.
	ArchiveDir string `yaml:"archive_dir"`
}

// ListenConfig holds the endpoint addresses.
type ListenConfig struct {
	// Devices is the TCP address applications connect to.
	// Default: 127.0.0.1:8721.
	Devices string `yaml:"devices"`

	// Control is the TCP address controllers connect to.
	// Default: 127.0.0.1:8722.
	Control string `yaml:"control"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Listen: ListenConfig{
			Devices: "127.0.0.1:8721",
			Control: "127.0.0.1:8722",
		},
		RouteTimeout: Duration(10 * time.Second),
		LogLevel:     "info",
	}
}

// Load reads the file named by GANTRY_CONFIG, or returns defaults
// when the variable is unset.
func Load() (*Config, error) {
	path := os.Getenv("GANTRY_CONFIG")
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile reads and validates one YAML config file. Values the file
// omits keep their defaults; string values may reference environment
// variables as ${VAR} or ${VAR:-default}.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.expandVariables()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) expandVariables() {
	c.Listen.Devices = expandVars(c.Listen.Devices)
	c.Listen.Control = expandVars(c.Listen.Control)
	c.ArchiveDir = expandVars(c.ArchiveDir)
}

// varPattern matches ${VAR} and ${VAR:-default}.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		if len(parts) >= 3 {
			return parts[2]
		}
		return ""
	})
}

// Validate checks the configuration for errors, reporting all of
// them at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Listen.Devices == "" {
		errs = append(errs, fmt.Errorf("listen.devices is required"))
	}
	if c.Listen.Control == "" {
		errs = append(errs, fmt.Errorf("listen.control is required"))
	}
	if c.Listen.Devices == c.Listen.Control && c.Listen.Devices != "" {
		errs = append(errs, fmt.Errorf("listen.devices and listen.control must differ"))
	}
	if c.RouteTimeout <= 0 {
		errs = append(errs, fmt.Errorf("route_timeout must be positive"))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level must be one of debug, info, warn, error"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
