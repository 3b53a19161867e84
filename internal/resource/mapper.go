package resource

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/afero"
)

// Mapper turns a resource locator into candidate file paths
type Mapper interface {
	// Candidates lists the paths that may hold the locator, in priority order
	Candidates(locator string) ([]string, error)
	Name() string
	Kind() string
}

// DirectoryMapper looks up locators below a list of root directories
type DirectoryMapper struct {
	name  string
	roots []string
}

// NewDirectoryMapper creates a mapper that joins locators onto each root
func NewDirectoryMapper(name string, roots []string) *DirectoryMapper {
	slog.Debug("creating directory mapper",
		"name", name,
		"roots", roots)

	return &DirectoryMapper{
		name:  name,
		roots: roots,
	}
}

// Candidates joins the locator onto every root in order
func (d *DirectoryMapper) Candidates(locator string) ([]string, error) {
	if locator == "" {
		return []string{}, nil
	}

	candidates := make([]string, 0, len(d.roots))
	for _, root := range d.roots {
		candidates = append(candidates, filepath.Join(root, locator))
	}

	slog.Debug("directory candidates generated",
		"locator", locator,
		"mapper_name", d.name,
		"candidates", candidates)

	return candidates, nil
}

// Name returns the mapper name
func (d *DirectoryMapper) Name() string {
	return d.name
}

// Kind returns "directory"
func (d *DirectoryMapper) Kind() string {
	return "directory"
}

// ManifestMapper maps locators through an explicit locator-to-path table
type ManifestMapper struct {
	name    string
	entries map[string]string
}

// NewManifestMapper creates a mapper from an in-memory manifest
func NewManifestMapper(name string, entries map[string]string) *ManifestMapper {
	slog.Debug("creating manifest mapper",
		"name", name,
		"entries", len(entries))

	return &ManifestMapper{
		name:    name,
		entries: entries,
	}
}

// manifestFile is the on-disk manifest layout
type manifestFile struct {
	Name   string            `json:"name"`
	Sounds map[string]string `json:"sounds"`
}

// LoadManifest reads a JSON manifest. Relative targets are resolved against
// the manifest's own directory.
func LoadManifest(fs afero.Fs, path string) (*ManifestMapper, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}

	var manifest manifestFile
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}

	if manifest.Name == "" {
		manifest.Name = filepath.Base(path)
	}

	base := filepath.Dir(path)
	entries := make(map[string]string, len(manifest.Sounds))
	for locator, target := range manifest.Sounds {
		if !filepath.IsAbs(target) {
			target = filepath.Join(base, target)
		}
		entries[locator] = target
	}

	slog.Info("manifest loaded",
		"path", path,
		"name", manifest.Name,
		"entries", len(entries))

	return NewManifestMapper(manifest.Name, entries), nil
}

// Candidates returns the single mapped path, or nothing when the locator is unknown
func (m *ManifestMapper) Candidates(locator string) ([]string, error) {
	if target, ok := m.entries[locator]; ok {
		return []string{target}, nil
	}

	slog.Debug("manifest has no entry",
		"locator", locator,
		"mapper_name", m.name)

	return []string{}, nil
}

// Name returns the manifest name
func (m *ManifestMapper) Name() string {
	return m.name
}

// Kind returns "manifest"
func (m *ManifestMapper) Kind() string {
	return "manifest"
}
