// Package config loads hsound settings from XDG config paths, JSON files and
// HSOUND_* environment variables.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"hsound.dev/internal/fs"
	"hsound.dev/internal/line"
)

// FileLoggingConfig represents file-based logging configuration
type FileLoggingConfig struct {
	Enabled    bool   `json:"enabled"`
	Filename   string `json:"filename"` // empty means the XDG cache path
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
	Compress   bool   `json:"compress"`
}

// Config represents hsound configuration
type Config struct {
	Backend       string             `json:"backend"`        // auto, malgo, oto, null
	LogLevel      string             `json:"log_level"`      // debug, info, warn, error
	ResourceRoots []string           `json:"resource_roots"` // directories searched for locators
	Manifests     []string           `json:"manifests"`      // JSON locator manifests
	MaxLines      int                `json:"max_lines"`      // simultaneous lines, 0 = unlimited
	SampleRate    uint32             `json:"sample_rate"`    // oto output rate, 0 = default
	Channels      uint32             `json:"channels"`       // oto output channels, 0 = default
	FileLogging   *FileLoggingConfig `json:"file_logging,omitempty"`
	Journal       *JournalConfig     `json:"journal,omitempty"`
}

// XDGInterface defines the interface for XDG directory operations
type XDGInterface interface {
	GetConfigPaths(filename string) []string
	GetSoundPaths() []string
	GetCachePath(purpose string) string
	GetDataPath(purpose string) string
}

// ConfigManager handles loading, saving, and validating configuration
type ConfigManager struct {
	xdg XDGInterface
	fs  afero.Fs
}

// NewConfigManager creates a configuration manager on the OS filesystem
func NewConfigManager() *ConfigManager {
	return NewConfigManagerWithFilesystem(fs.NewDefaultFactory().Production())
}

// NewConfigManagerWithFilesystem creates a configuration manager on filesystem
func NewConfigManagerWithFilesystem(filesystem afero.Fs) *ConfigManager {
	return &ConfigManager{
		xdg: NewXDGDirs(),
		fs:  filesystem,
	}
}

// GetDefaultConfig returns the default configuration
func (cm *ConfigManager) GetDefaultConfig() *Config {
	defaultConfig := &Config{
		Backend:       line.BackendAuto,
		LogLevel:      "warn",
		ResourceRoots: []string{},
		Manifests:     []string{},
		MaxLines:      32,
		FileLogging: &FileLoggingConfig{
			Enabled:    false,
			Filename:   "",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Compress:   true,
		},
		Journal: GetDefaultJournalConfig(),
	}

	slog.Debug("generated default config",
		"backend", defaultConfig.Backend,
		"log_level", defaultConfig.LogLevel,
		"max_lines", defaultConfig.MaxLines)
	return defaultConfig
}

// LoadFromFile reads filePath and merges it over the defaults
func (cm *ConfigManager) LoadFromFile(filePath string) (*Config, error) {
	slog.Debug("loading config from file", "file_path", filePath)

	data, err := afero.ReadFile(cm.fs, filePath)
	if err != nil {
		slog.Error("failed to read config file", "file_path", filePath, "error", err)
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fileConfig Config
	if err := json.Unmarshal(data, &fileConfig); err != nil {
		slog.Error("failed to parse config JSON", "file_path", filePath, "error", err)
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	config := cm.MergeConfigs(cm.GetDefaultConfig(), &fileConfig)
	if err := cm.ValidateConfig(config); err != nil {
		return nil, err
	}

	slog.Debug("config loaded successfully",
		"file_path", filePath,
		"backend", config.Backend,
		"resource_roots", len(config.ResourceRoots))
	return config, nil
}

// SaveToFile validates config and writes it as indented JSON
func (cm *ConfigManager) SaveToFile(config *Config, filePath string) error {
	if err := cm.ValidateConfig(config); err != nil {
		return fmt.Errorf("cannot save invalid config: %w", err)
	}

	dir := filepath.Dir(filePath)
	if err := cm.fs.MkdirAll(dir, 0755); err != nil {
		slog.Error("failed to create config directory", "directory", dir, "error", err)
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := afero.WriteFile(cm.fs, filePath, data, 0644); err != nil {
		slog.Error("failed to write config file", "file_path", filePath, "error", err)
		return fmt.Errorf("failed to write config file: %w", err)
	}

	slog.Info("config saved", "file_path", filePath)
	return nil
}

// LoadConfig loads the first config file found on the XDG config paths, or
// the defaults when there is none. Environment overrides are not applied.
func (cm *ConfigManager) LoadConfig() (*Config, error) {
	for _, configPath := range cm.xdg.GetConfigPaths("config.json") {
		if _, err := cm.fs.Stat(configPath); err == nil {
			slog.Debug("found config file", "path", configPath)
			return cm.LoadFromFile(configPath)
		}
	}

	slog.Debug("no config file found, using defaults")
	return cm.GetDefaultConfig(), nil
}

// ValidateConfig reports every invalid field in one error
func (cm *ConfigManager) ValidateConfig(config *Config) error {
	var problems []string

	if config.LogLevel != "" {
		if _, err := ParseLogLevel(config.LogLevel); err != nil {
			problems = append(problems, err.Error())
		}
	}

	if !cm.IsValidAudioBackend(config.Backend) {
		problems = append(problems, fmt.Sprintf("invalid backend '%s', must be one of: %s",
			config.Backend, strings.Join(cm.GetSupportedAudioBackends(), ", ")))
	}

	if config.MaxLines < 0 {
		problems = append(problems, fmt.Sprintf("max_lines must be >= 0, got %d", config.MaxLines))
	}

	if config.SampleRate != 0 && (config.SampleRate < 8000 || config.SampleRate > 192000) {
		problems = append(problems, fmt.Sprintf("sample_rate must be between 8000 and 192000, got %d", config.SampleRate))
	}

	if config.Channels > 2 {
		problems = append(problems, fmt.Sprintf("channels must be 1 or 2, got %d", config.Channels))
	}

	if fl := config.FileLogging; fl != nil {
		if fl.MaxSizeMB < 0 {
			problems = append(problems, fmt.Sprintf("file logging max_size_mb must be >= 0, got %d", fl.MaxSizeMB))
		}
		if fl.MaxBackups < 0 {
			problems = append(problems, fmt.Sprintf("file logging max_backups must be >= 0, got %d", fl.MaxBackups))
		}
		if fl.MaxAgeDays < 0 {
			problems = append(problems, fmt.Sprintf("file logging max_age_days must be >= 0, got %d", fl.MaxAgeDays))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(problems, "; "))
	}
	return nil
}

// MergeConfigs returns base with every non-zero field of override applied
func (cm *ConfigManager) MergeConfigs(base, override *Config) *Config {
	merged := *base

	if override.Backend != "" {
		merged.Backend = override.Backend
	}
	if override.LogLevel != "" {
		merged.LogLevel = override.LogLevel
	}
	if len(override.ResourceRoots) > 0 {
		merged.ResourceRoots = override.ResourceRoots
	}
	if len(override.Manifests) > 0 {
		merged.Manifests = override.Manifests
	}
	if override.MaxLines != 0 {
		merged.MaxLines = override.MaxLines
	}
	if override.SampleRate != 0 {
		merged.SampleRate = override.SampleRate
	}
	if override.Channels != 0 {
		merged.Channels = override.Channels
	}
	if override.FileLogging != nil {
		merged.FileLogging = override.FileLogging
	}
	if override.Journal != nil {
		merged.Journal = override.Journal
	}
	return &merged
}

// ApplyEnvironmentOverrides applies HSOUND_* variables to a copy of config
func (cm *ConfigManager) ApplyEnvironmentOverrides(config *Config) *Config {
	result := *config

	if backend := os.Getenv("HSOUND_BACKEND"); backend != "" {
		if cm.IsValidAudioBackend(backend) {
			result.Backend = backend
			slog.Debug("applied backend override from environment", "value", backend)
		} else {
			slog.Warn("invalid HSOUND_BACKEND environment variable", "value", backend)
		}
	}

	if logLevel := os.Getenv("HSOUND_LOG_LEVEL"); logLevel != "" {
		result.LogLevel = logLevel
	}

	if maxStr := os.Getenv("HSOUND_MAX_LINES"); maxStr != "" {
		if n, err := strconv.Atoi(maxStr); err == nil && n >= 0 {
			result.MaxLines = n
		} else {
			slog.Warn("invalid HSOUND_MAX_LINES environment variable", "value", maxStr)
		}
	}

	if roots := os.Getenv("HSOUND_RESOURCE_ROOTS"); roots != "" {
		result.ResourceRoots = filepath.SplitList(roots)
	}

	journal := result.Journal
	if journal == nil {
		journal = GetDefaultJournalConfig()
	}
	result.Journal = ApplyJournalEnvironmentOverrides(journal)

	return &result
}

// ParseLogLevel maps debug, info, warn and error to slog levels
func ParseLogLevel(logLevel string) (slog.Level, error) {
	switch strings.ToLower(logLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("invalid log level '%s', must be one of: debug, info, warn, error", logLevel)
}

// ApplyLogLevel installs a stderr text handler at logLevel as the default
// logger. An empty level keeps the current configuration.
func (cm *ConfigManager) ApplyLogLevel(logLevel string) error {
	return cm.ApplyLogLevelWithWriter(logLevel, os.Stderr)
}

// ApplyLogLevelWithWriter is ApplyLogLevel writing to writer
func (cm *ConfigManager) ApplyLogLevelWithWriter(logLevel string, writer io.Writer) error {
	if logLevel == "" {
		return nil
	}

	level, err := ParseLogLevel(logLevel)
	if err != nil {
		return err
	}

	handler := slog.NewTextHandler(writer, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
	slog.Debug("slog configured", "log_level", logLevel)
	return nil
}

// ResolveLogFilePath returns filename, or the XDG cache log path when empty
func (cm *ConfigManager) ResolveLogFilePath(filename string) string {
	if filename != "" {
		return filename
	}
	return filepath.Join(cm.xdg.GetCachePath("logs"), "hsound.log")
}

// ResolveJournalPath returns the configured journal path or the XDG default
func (cm *ConfigManager) ResolveJournalPath(config *Config) string {
	if config.Journal != nil && config.Journal.DatabasePath != "" {
		return config.Journal.DatabasePath
	}
	return filepath.Join(cm.xdg.GetDataPath(""), "journal.db")
}

// ResolveResourceRoots returns the configured roots followed by the XDG
// sound directories
func (cm *ConfigManager) ResolveResourceRoots(config *Config) []string {
	roots := append([]string(nil), config.ResourceRoots...)
	return append(roots, cm.xdg.GetSoundPaths()...)
}

// GetSupportedAudioBackends returns every accepted backend name
func (cm *ConfigManager) GetSupportedAudioBackends() []string {
	return line.SupportedBackends()
}

// IsValidAudioBackend reports whether backend is accepted. Empty means auto.
func (cm *ConfigManager) IsValidAudioBackend(backend string) bool {
	return backend == "" || slices.Contains(cm.GetSupportedAudioBackends(), backend)
}

// LineOptions converts config to factory options
func (c *Config) LineOptions() line.Options {
	opts := line.Options{
		Backend:  c.Backend,
		MaxLines: c.MaxLines,
	}
	if c.SampleRate != 0 || c.Channels != 0 {
		format := line.DefaultOtoFormat
		if c.SampleRate != 0 {
			format.SampleRate = c.SampleRate
		}
		if c.Channels != 0 {
			format.Channels = c.Channels
		}
		opts.OutputFormat = format
	}
	return opts
}

// JournalEnabled reports whether the playback journal should be written
func (c *Config) JournalEnabled() bool {
	return c.Journal != nil && c.Journal.Enabled
}
