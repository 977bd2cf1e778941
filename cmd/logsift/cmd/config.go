package cmd

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds default settings loaded from an optional YAML file.
// Flags set explicitly on the command line always win over config values.
type Config struct {
	Analyze AnalyzeConfig `yaml:"analyze"`

	// HistoryDB is the path of the SQLite database for saved runs.
	HistoryDB string `yaml:"history_db"`

	// Output is the default output format (table, json, plain).
	Output string `yaml:"output"`
}

// AnalyzeConfig contains defaults for the analyze and watch commands.
// TopN and ErrorThreshold are pointers so an explicit 0 in the file stays
// distinguishable from an absent field: both are meaningful zeros (empty
// rankings, flag any IP with at least one error) and must not be replaced
// by the defaults.
type AnalyzeConfig struct {
	// TopN is the size of the IP and endpoint rankings.
	TopN *int `yaml:"top_n"`

	// ErrorThreshold flags IPs whose error count strictly exceeds it.
	ErrorThreshold *int `yaml:"error_threshold"`

	// Quiet suppresses per-line warnings for malformed log lines.
	Quiet bool `yaml:"quiet"`
}

// LoadConfig loads configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.setDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	c := &Config{}
	c.setDefaults()
	return c
}

// setDefaults sets default values for missing config fields.
func (c *Config) setDefaults() {
	if c.Analyze.TopN == nil {
		c.Analyze.TopN = intValue(10)
	}
	if c.Analyze.ErrorThreshold == nil {
		c.Analyze.ErrorThreshold = intValue(5)
	}
	if c.HistoryDB == "" {
		c.HistoryDB = "logsift.db"
	}
}

func intValue(n int) *int {
	return &n
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if *c.Analyze.TopN < 0 {
		return fmt.Errorf("analyze.top_n must not be negative")
	}
	if *c.Analyze.ErrorThreshold < 0 {
		return fmt.Errorf("analyze.error_threshold must not be negative")
	}
	switch c.Output {
	case "", "table", "json", "plain":
	default:
		return fmt.Errorf("output must be one of table, json, plain")
	}
	return nil
}
