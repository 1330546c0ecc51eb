// Package config provides configuration loading and management for focusboard.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete focusboard configuration
type Config struct {
	NATS  NATSConfig  `yaml:"nats"`
	Board BoardConfig `yaml:"board"`
	Watch WatchConfig `yaml:"watch"`
}

// NATSConfig configures the NATS connection used for snapshot storage
type NATSConfig struct {
	// URL is the NATS server URL (empty = use embedded server)
	URL string `yaml:"url"`
	// Embedded indicates whether to use embedded NATS
	Embedded bool `yaml:"embedded"`
}

// BoardConfig configures defaults for newly created boards
type BoardConfig struct {
	// DefaultColumns are created on every new board, in order
	DefaultColumns []ColumnConfig `yaml:"default_columns"`
}

// ColumnConfig describes one default column
type ColumnConfig struct {
	// Name is the column display name
	Name string `yaml:"name"`
	// Completion marks the column as a completion column for
	// dependency resolution
	Completion bool `yaml:"completion"`
}

// WatchConfig configures the raw-record file watcher
type WatchConfig struct {
	// DebounceDelay is how long to wait for more changes before re-ingesting
	DebounceDelay time.Duration `yaml:"debounce_delay"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		NATS: NATSConfig{
			URL:      "",
			Embedded: true,
		},
		Board: BoardConfig{
			DefaultColumns: []ColumnConfig{
				{Name: "Backlog"},
				{Name: "To Do"},
				{Name: "In Progress"},
				{Name: "Done", Completion: true},
			},
		},
		Watch: WatchConfig{
			DebounceDelay: 500 * time.Millisecond,
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if len(c.Board.DefaultColumns) == 0 {
		return fmt.Errorf("board.default_columns must not be empty")
	}
	hasCompletion := false
	for i, col := range c.Board.DefaultColumns {
		if col.Name == "" {
			return fmt.Errorf("board.default_columns[%d].name is required", i)
		}
		if col.Completion {
			hasCompletion = true
		}
	}
	if !hasCompletion {
		return fmt.Errorf("board.default_columns must include a completion column")
	}
	if c.Watch.DebounceDelay < 0 {
		return fmt.Errorf("watch.debounce_delay must not be negative")
	}
	return nil
}

// Merge overlays non-zero values from other onto this config
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
		c.NATS.Embedded = other.NATS.Embedded
	}
	if len(other.Board.DefaultColumns) > 0 {
		c.Board.DefaultColumns = other.Board.DefaultColumns
	}
	if other.Watch.DebounceDelay > 0 {
		c.Watch.DebounceDelay = other.Watch.DebounceDelay
	}
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
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
