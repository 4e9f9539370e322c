package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

const defaultConfigPath = ".ambient/config.yaml"

// Config holds the contents of .ambient/config.yaml.
type Config struct {
	// Externs lists files, directories and glob patterns to load.
	Externs []string `yaml:"externs"`
	// Exclude applies when walking directories listed in Externs.
	Exclude []string `yaml:"exclude,omitempty"`
	// Bundled adds the embedded externs in front of Externs.
	Bundled bool `yaml:"bundled"`

	Strict    bool     `yaml:"strict"`
	HostTypes []string `yaml:"host_types,omitempty"`
	Workers   int      `yaml:"workers,omitempty"`

	LogLevel  string `yaml:"log_level,omitempty"`
	LogFormat string `yaml:"log_format,omitempty"`

	// Serve settings.
	MCPLog       string `yaml:"mcp_log,omitempty"`
	MetricsAddr  string `yaml:"metrics_addr,omitempty"`
	OTLPEndpoint string `yaml:"otlp_endpoint,omitempty"`
}

func defaultConfig() *Config {
	return &Config{
		Exclude:   []string{"**/node_modules/**", "**/.git/**"},
		Bundled:   true,
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// loadConfig reads the config file at path. Returns nil (no error) if the
// file does not exist.
func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// writeConfig writes cfg to path, creating the directory. An existing file
// is left alone unless force is set.
func writeConfig(path string, cfg *Config, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// configFlags are the persistent flags that override config values.
type configFlags struct {
	externs   []string
	logLevel  string
	logFormat string
	strict    bool
	bundled   bool
	workers   int
	hostTypes []string
	exclude   []string
}

// apply copies every flag the user set onto cfg.
func (f configFlags) apply(fs *pflag.FlagSet, cfg *Config) {
	if fs.Changed("externs") {
		cfg.Externs = f.externs
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if fs.Changed("log-format") {
		cfg.LogFormat = f.logFormat
	}
	if fs.Changed("strict") {
		cfg.Strict = f.strict
	}
	if fs.Changed("bundled") {
		cfg.Bundled = f.bundled
	}
	if fs.Changed("workers") {
		cfg.Workers = f.workers
	}
	if fs.Changed("host-type") {
		cfg.HostTypes = f.hostTypes
	}
	if fs.Changed("exclude") {
		cfg.Exclude = f.exclude
	}
}
