// Package config reads and writes .refactorcore.yaml, the project-level
// settings file for cache toggles, default rename scope globs, and the
// out-of-process plugin timeout.
//
// Grounded on versionator's internal/config.ConfigManager: an afero.Fs
// abstraction around a single YAML file with defaults filled in when the
// file is absent, generalized from version-suffix knobs to this domain's
// cache/scope/plugin-host knobs.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/spf13/afero"
)

const configFile = ".refactorcore.yaml"

// DefaultPluginTimeout is spec.md §4.I's default out-of-process call
// deadline, used when a config file omits plugin.timeoutSeconds.
const DefaultPluginTimeout = 30 * time.Second

// Config holds every refactorcore.yaml-settable knob.
type Config struct {
	Cache   CacheConfig   `yaml:"cache"`
	Rename  RenameConfig  `yaml:"rename"`
	Plugin  PluginConfig  `yaml:"plugin"`
	Logging LoggingConfig `yaml:"logging"`
}

// CacheConfig mirrors spec.md §6's DISABLE_CACHE/DISABLE_IMPORT_CACHE
// environment flags as persisted settings. internal/importcache reads
// only the environment variables, not these fields.
type CacheConfig struct {
	Disabled       bool `yaml:"disabled"`
	ImportDisabled bool `yaml:"importDisabled"`
}

// RenameConfig records default glob patterns for a rename/move's
// reference scan. The planner and session do not read it: a move without
// an explicit editplan.RenameScope considers every candidate file.
type RenameConfig struct {
	DefaultScopeGlobs []string `yaml:"defaultScopeGlobs"`
}

// PluginConfig records the out-of-process plugin call timeout.
// internal/pluginhost does not read it; its Options.Timeout is set by
// the caller.
type PluginConfig struct {
	TimeoutSeconds int `yaml:"timeoutSeconds"`
}

// Timeout returns the configured plugin-call timeout, falling back to
// DefaultPluginTimeout when unset or non-positive.
func (p PluginConfig) Timeout() time.Duration {
	if p.TimeoutSeconds <= 0 {
		return DefaultPluginTimeout
	}
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Output string `yaml:"output"` // console, json, development
}

// ConfigManager manages configuration reading and writing with filesystem abstraction.
type ConfigManager struct {
	fs afero.Fs
}

// NewConfigManager creates a new ConfigManager with the provided filesystem.
func NewConfigManager(fs afero.Fs) *ConfigManager {
	return &ConfigManager{fs: fs}
}

func defaultConfig() *Config {
	return &Config{
		Cache: CacheConfig{
			Disabled:       false,
			ImportDisabled: false,
		},
		Rename: RenameConfig{
			DefaultScopeGlobs: []string{"**/*.go", "**/*.rs", "**/*.ts", "**/*.tsx", "**/*.py"},
		},
		Plugin: PluginConfig{
			TimeoutSeconds: int(DefaultPluginTimeout / time.Second),
		},
		Logging: LoggingConfig{
			Output: "console",
		},
	}
}

// ReadConfig reads the configuration from .refactorcore.yaml, returning
// defaultConfig() untouched when the file does not exist.
func (cm *ConfigManager) ReadConfig() (*Config, error) {
	cfg := defaultConfig()

	data, err := afero.ReadFile(cm.fs, configFile)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// WriteConfig writes cfg to .refactorcore.yaml.
func (cm *ConfigManager) WriteConfig(cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	content := "# refactorcore configuration\n" + string(data)
	return afero.WriteFile(cm.fs, configFile, []byte(content), FilePermission)
}

// DefaultConfigYAML renders defaultConfig() as YAML for `config dump`.
func DefaultConfigYAML() string {
	data, err := yaml.Marshal(defaultConfig())
	if err != nil {
		return ""
	}
	return "# refactorcore configuration\n" + string(data)
}
