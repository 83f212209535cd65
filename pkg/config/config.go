// Package config assembles the doculexd process configuration from
// (in increasing precedence) built-in defaults, an optional YAML file,
// and command-line flags.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds everything doculexd needs to start serving.
type Config struct {
	BindAddr     string `yaml:"bind_addr"`
	Port         int    `yaml:"port"`
	SnapshotPath string `yaml:"snapshot_path"`
	MetricsAddr  string `yaml:"metrics_addr"`
	LogLevel     string `yaml:"log_level"`
	LogJSON      bool   `yaml:"log_json"`
}

// Default returns the configuration used when no file or flag
// overrides a field.
func Default() Config {
	return Config{
		BindAddr:     "0.0.0.0",
		Port:         13413,
		SnapshotPath: "storage.db",
		MetricsAddr:  "",
		LogLevel:     "info",
		LogJSON:      false,
	}
}

// Addr renders BindAddr and Port as a single dial/listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.BindAddr, c.Port)
}

// LoadFile overlays the YAML file at path onto base. An empty path, or
// a path naming a file that does not exist, is a no-op, matching the
// "config file is optional" contract. A file that exists but cannot be
// read or parsed is an error.
func LoadFile(base Config, path string) (Config, error) {
	if path == "" {
		return base, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return base, nil
		}
		return base, fmt.Errorf("read config file: %w", err)
	}
	cfg := base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return base, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}
