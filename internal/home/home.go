// Package home manages the slidesmith home directory layout.
package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the slidesmith home directory.
	DefaultDirName = ".slidesmith"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"
)

// Dir represents the slidesmith home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.slidesmith).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// UploadsDir returns the directory holding uploaded template manifests.
func (d *Dir) UploadsDir() string {
	return filepath.Join(d.path, "uploads")
}

// TemplatesDir returns the directory holding built-in template manifests.
func (d *Dir) TemplatesDir() string {
	return filepath.Join(d.path, "templates")
}

// OutputDir returns the directory generated decks are written to.
func (d *Dir) OutputDir() string {
	return filepath.Join(d.path, "output")
}

// ExtractedDir returns the directory for content extracted from
// presentations, including pulled images.
func (d *Dir) ExtractedDir() string {
	return filepath.Join(d.path, "extracted")
}

// ExtractedImagesDir returns the image directory for one extraction.
func (d *Dir) ExtractedImagesDir(extractionID string) string {
	return filepath.Join(d.ExtractedDir(), extractionID, "images")
}

// EnsureExists creates the home directory tree if it doesn't exist.
func (d *Dir) EnsureExists() error {
	for _, dir := range []string{d.UploadsDir(), d.TemplatesDir(), d.OutputDir(), d.ExtractedDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}
