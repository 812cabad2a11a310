// Package config provides configuration loading and management for dstckit.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/FocuswithJustin/dstckit/internal/logging"
)

// DefaultFuzzyThreshold is the partial-ratio score a value must exceed to
// count as mentioned in an utterance.
const DefaultFuzzyThreshold = 80

// Config represents the complete dstckit configuration
type Config struct {
	Data     DataConfig     `yaml:"data"`
	Baseline BaselineConfig `yaml:"baseline"`
	Log      LogConfig      `yaml:"log"`
	Report   ReportConfig   `yaml:"report"`
}

// DataConfig locates the corpus
type DataConfig struct {
	// Root is the directory holding one subdirectory per session
	Root string `yaml:"root"`
	// ConfigDir holds the <dataset>.flist files
	ConfigDir string `yaml:"config_dir"`
	// Ontology is the path to the ontology JSON file
	Ontology string `yaml:"ontology"`
}

// BaselineConfig tunes the baseline trackers
type BaselineConfig struct {
	// FuzzyThreshold is the partial ratio a match must exceed (0-100)
	FuzzyThreshold int `yaml:"fuzzy_threshold"`
	// Workers bounds per-session parallelism (0 = number of CPUs)
	Workers int `yaml:"workers"`
}

// LogConfig configures the global logger
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ReportConfig configures optional score sinks
type ReportConfig struct {
	// Database is a SQLite file that receives every score row (empty = off)
	Database string `yaml:"database"`
	// MetricsFile receives a Prometheus textfile export at exit (empty = off)
	MetricsFile string `yaml:"metrics_file"`
	// Archive keeps a content-addressed copy of every scored tracker file
	// (empty = off)
	Archive string `yaml:"archive"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			Root:      "data",
			ConfigDir: "config",
			Ontology:  filepath.Join("config", "ontology_dstc5.json"),
		},
		Baseline: BaselineConfig{
			FuzzyThreshold: DefaultFuzzyThreshold,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Data.Root == "" {
		return fmt.Errorf("data.root is required")
	}
	if c.Data.ConfigDir == "" {
		return fmt.Errorf("data.config_dir is required")
	}
	if c.Baseline.FuzzyThreshold < 0 || c.Baseline.FuzzyThreshold > 100 {
		return fmt.Errorf("baseline.fuzzy_threshold must be between 0 and 100")
	}
	if c.Baseline.Workers < 0 {
		return fmt.Errorf("baseline.workers must not be negative")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if _, err := logging.ParseFormat(c.Log.Format); err != nil {
		return fmt.Errorf("log.format: %w", err)
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Data.Root != "" {
		c.Data.Root = other.Data.Root
	}
	if other.Data.ConfigDir != "" {
		c.Data.ConfigDir = other.Data.ConfigDir
	}
	if other.Data.Ontology != "" {
		c.Data.Ontology = other.Data.Ontology
	}

	if other.Baseline.FuzzyThreshold != 0 {
		c.Baseline.FuzzyThreshold = other.Baseline.FuzzyThreshold
	}
	if other.Baseline.Workers != 0 {
		c.Baseline.Workers = other.Baseline.Workers
	}

	if other.Log.Level != "" {
		c.Log.Level = strings.ToLower(other.Log.Level)
	}
	if other.Log.Format != "" {
		c.Log.Format = strings.ToLower(other.Log.Format)
	}

	if other.Report.Database != "" {
		c.Report.Database = other.Report.Database
	}
	if other.Report.MetricsFile != "" {
		c.Report.MetricsFile = other.Report.MetricsFile
	}
	if other.Report.Archive != "" {
		c.Report.Archive = other.Report.Archive
	}
}

// ApplyLogging configures the global logger from c.Log.
func (c *Config) ApplyLogging() error {
	level, err := logging.ParseLevel(c.Log.Level)
	if err != nil {
		return err
	}
	format, err := logging.ParseFormat(c.Log.Format)
	if err != nil {
		return err
	}
	logging.InitLogger(level, format)
	return nil
}
