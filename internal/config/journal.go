package config

import (
	"log/slog"
	"os"
	"strconv"
)

// JournalConfig controls the playback journal
type JournalConfig struct {
	Enabled      bool   `json:"enabled"`
	DatabasePath string `json:"database_path"` // empty means the XDG data path
}

// GetDefaultJournalConfig returns the journal defaults: enabled, XDG path
func GetDefaultJournalConfig() *JournalConfig {
	return &JournalConfig{
		Enabled:      true,
		DatabasePath: "",
	}
}

// ApplyJournalEnvironmentOverrides applies HSOUND_JOURNAL and
// HSOUND_JOURNAL_PATH
func ApplyJournalEnvironmentOverrides(config *JournalConfig) *JournalConfig {
	result := *config

	if enabledStr := os.Getenv("HSOUND_JOURNAL"); enabledStr != "" {
		if enabled, err := strconv.ParseBool(enabledStr); err == nil {
			result.Enabled = enabled
			slog.Debug("applied journal override from environment", "value", enabled)
		} else {
			slog.Warn("invalid HSOUND_JOURNAL environment variable", "value", enabledStr, "error", err)
		}
	}

	if path := os.Getenv("HSOUND_JOURNAL_PATH"); path != "" {
		result.DatabasePath = path
		slog.Debug("applied journal path override from environment", "value", path)
	}

	return &result
}
