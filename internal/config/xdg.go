package config

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// appDir is the directory name used under every XDG base directory
const appDir = "hsound"

// XDGDirs provides XDG Base Directory compliant paths for hsound
type XDGDirs struct{}

// NewXDGDirs creates a new XDG directory manager
func NewXDGDirs() *XDGDirs {
	return &XDGDirs{}
}

// GetConfigPaths returns where config files are searched, user config dir
// first, then the system config dirs
func (x *XDGDirs) GetConfigPaths(filename string) []string {
	paths := []string{filepath.Join(xdg.ConfigHome, appDir, filename)}
	for _, dir := range xdg.ConfigDirs {
		paths = append(paths, filepath.Join(dir, appDir, filename))
	}

	slog.Debug("generated config paths",
		"filename", filename,
		"total_paths", len(paths),
		"user_path", paths[0])
	return paths
}

// GetSoundPaths returns the data directories searched for sound resources,
// user data dir first
func (x *XDGDirs) GetSoundPaths() []string {
	paths := []string{filepath.Join(xdg.DataHome, appDir, "sounds")}
	for _, dir := range xdg.DataDirs {
		paths = append(paths, filepath.Join(dir, appDir, "sounds"))
	}
	return paths
}

// GetCachePath returns the cache directory for a purpose such as "logs"
func (x *XDGDirs) GetCachePath(purpose string) string {
	return filepath.Join(xdg.CacheHome, appDir, purpose)
}

// GetDataPath returns the user data directory for a purpose
func (x *XDGDirs) GetDataPath(purpose string) string {
	return filepath.Join(xdg.DataHome, appDir, purpose)
}

// CreateCacheDir creates the cache directory for a purpose
func (x *XDGDirs) CreateCacheDir(purpose string) error {
	cachePath := x.GetCachePath(purpose)
	if err := os.MkdirAll(cachePath, 0755); err != nil {
		slog.Error("failed to create cache directory", "path", cachePath, "error", err)
		return err
	}
	slog.Debug("cache directory ready", "path", cachePath)
	return nil
}
