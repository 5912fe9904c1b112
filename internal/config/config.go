// Package config holds notekit configuration, loaded from
// .notekit/config.yaml in the workspace.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all notekit configuration.
type Config struct {
	// Kernel catalog settings
	Kernels KernelsConfig `yaml:"kernels"`

	// Render settings
	Render RenderConfig `yaml:"render"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// KernelsConfig configures where installed kernels are discovered.
type KernelsConfig struct {
	// SearchPaths overrides the standard Jupyter kernel directories.
	SearchPaths []string `yaml:"search_paths"`
}

// RenderConfig configures the render pipeline defaults.
type RenderConfig struct {
	// StaticAnalysis runs the validator on every render by default.
	StaticAnalysis bool `yaml:"static_analysis"`
}

// LoggingConfig configures the categorized debug logger.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Categories map[string]bool `yaml:"categories"`
	Level      string          `yaml:"level"`
	JSONFormat bool            `yaml:"json_format"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		Render: RenderConfig{StaticAnalysis: false},
		Logging: LoggingConfig{
			DebugMode: false,
			Level:     "info",
		},
	}
}

// Load reads configuration from the given file, layered over Default.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadFromWorkspace loads .notekit/config.yaml from the workspace, honoring
// the NOTEKIT_CONFIG environment override.
func LoadFromWorkspace(workspace string) (*Config, error) {
	if path := os.Getenv("NOTEKIT_CONFIG"); path != "" {
		return Load(path)
	}
	return Load(filepath.Join(workspace, ".notekit", "config.yaml"))
}
