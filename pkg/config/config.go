/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/ssargent/bcsv/pkg/bcsv"
)

// Config represents the bcsv tool configuration
type Config struct {
	Endian      string  `yaml:"endian"`
	Rank        string  `yaml:"rank"`
	Encoding    string  `yaml:"encoding"`
	Delimiter   string  `yaml:"delimiter"`
	Signed      bool    `yaml:"signed"`
	HashFile    string  `yaml:"hash_file"`
	LegacyHash  bool    `yaml:"legacy_hash"`
	Jobs        int     `yaml:"jobs"`
	MetricsFile string  `yaml:"metrics_file"`
	Logging     Logging `yaml:"logging"`
}

// Logging contains logging configuration
type Logging struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Endian:    "big",
		Rank:      "classic",
		Encoding:  "shift-jis",
		Delimiter: ",",
		Jobs:      4,
		Logging: Logging{
			Level: "info",
		},
	}
}

// Validate checks that every value can be used to build a codec
func (c *Config) Validate() error {
	if _, err := bcsv.ParseEndian(c.Endian); err != nil {
		return fmt.Errorf("invalid endian: %w", err)
	}
	if _, err := bcsv.ParseRankTable(c.Rank); err != nil {
		return fmt.Errorf("invalid rank: %w", err)
	}
	if _, err := bcsv.ParseEncoding(c.Encoding); err != nil {
		return fmt.Errorf("invalid encoding: %w", err)
	}
	if utf8.RuneCountInString(c.Delimiter) != 1 {
		return fmt.Errorf("invalid delimiter %q: must be a single character", c.Delimiter)
	}
	if r, _ := utf8.DecodeRuneInString(c.Delimiter); r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError {
		return fmt.Errorf("invalid delimiter %q", c.Delimiter)
	}
	if c.Jobs < 1 {
		return fmt.Errorf("invalid jobs %d: must be at least 1", c.Jobs)
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid logging level: %w", err)
	}
	return nil
}

// DelimiterRune returns the CSV delimiter as a rune
func (c *Config) DelimiterRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Delimiter)
	if r == utf8.RuneError {
		return ','
	}
	return r
}

// LoadConfig loads configuration from the specified path. Keys missing
// from the file keep their default values.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}

	return config, nil
}

// SaveConfig saves the configuration to the specified path
func SaveConfig(config *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// BootstrapConfig writes the default configuration to configPath. An
// existing file is only replaced when force is set.
func BootstrapConfig(configPath string, force bool) (*Config, error) {
	if ConfigExists(configPath) && !force {
		return nil, fmt.Errorf("config file already exists: %s", configPath)
	}

	config := DefaultConfig()
	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save bootstrap config: %w", err)
	}

	return config, nil
}

// GetDefaultConfigPath returns the default configuration path for the current platform
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./bcsv.yaml"
	}

	// For Linux/macOS, use ~/.config/bcsv/config.yaml
	configDir := filepath.Join(homeDir, ".config", "bcsv")
	return filepath.Join(configDir, "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
