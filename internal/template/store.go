package template

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/slidesmith/slidesmith/internal/home"
	"github.com/slidesmith/slidesmith/internal/types"
)

// MaxManifestBytes caps uploaded manifest size.
const MaxManifestBytes = 1 << 20

//go:embed default_manifest.json
var defaultManifest []byte

// DefaultTemplateID names the built-in template.
const DefaultTemplateID = "default"

// ErrTemplateNotFound is returned when a template id does not resolve to a
// stored file. The API layer maps it to 404.
var ErrTemplateNotFound = errors.New("template not found")

// Summary describes one stored template for listings.
type Summary struct {
	TemplateID string `json:"template_id"`
	Filename   string `json:"filename"`
	Name       string `json:"name,omitempty"`
	BuiltIn    bool   `json:"built_in"`
}

// Store persists template manifests and resolves template ids to files.
type Store struct {
	dirs   *home.Dir
	cache  *Cache
	logger *slog.Logger
}

// NewStore creates a template store over the home directory.
func NewStore(dirs *home.Dir, cache *Cache, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if cache == nil {
		cache = NewCache()
	}
	return &Store{dirs: dirs, cache: cache, logger: logger}
}

// Cache exposes the analysis cache backing this store.
func (s *Store) Cache() *Cache {
	return s.cache
}

// EnsureDefault writes the built-in template manifest if it is missing.
func (s *Store) EnsureDefault() error {
	path := s.defaultPath()
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create templates dir: %w", err)
	}
	if err := os.WriteFile(path, defaultManifest, 0o644); err != nil {
		return fmt.Errorf("failed to write default template: %w", err)
	}
	s.logger.Info("wrote default template manifest", "path", path)
	return nil
}

// SaveUpload validates and stores an uploaded manifest, returning the new
// template id. The stored name is "{id}_{sanitized original name}".
func (s *Store) SaveUpload(filename string, content []byte) (string, error) {
	if len(content) == 0 {
		return "", fmt.Errorf("empty template file")
	}
	if len(content) > MaxManifestBytes {
		return "", fmt.Errorf("template file exceeds %d bytes", MaxManifestBytes)
	}

	// Must at least parse as a manifest before it is stored.
	var probe struct {
		Masters []types.MasterInfo `json:"masters"`
	}
	if err := json.Unmarshal(content, &probe); err != nil {
		return "", fmt.Errorf("invalid template manifest: %w", err)
	}
	if len(probe.Masters) == 0 {
		return "", fmt.Errorf("template has no slide masters")
	}

	templateID := uuid.New().String()
	stored := filepath.Join(s.dirs.UploadsDir(), templateID+"_"+SafeFilename(filename))

	if err := os.MkdirAll(s.dirs.UploadsDir(), 0o755); err != nil {
		return "", fmt.Errorf("failed to create uploads dir: %w", err)
	}
	if err := os.WriteFile(stored, content, 0o644); err != nil {
		return "", fmt.Errorf("failed to save template: %w", err)
	}

	s.logger.Info("template saved", "template_id", templateID, "path", stored)
	return templateID, nil
}

// FindByID resolves a template id to its stored manifest path.
func (s *Store) FindByID(templateID string) (string, error) {
	if templateID == DefaultTemplateID {
		path := s.defaultPath()
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, templateID)
		}
		return path, nil
	}

	matches, err := filepath.Glob(filepath.Join(s.dirs.UploadsDir(), templateID+"_*.json"))
	if err == nil && len(matches) > 0 {
		return matches[0], nil
	}

	// Old storage format without the original filename suffix.
	old := filepath.Join(s.dirs.UploadsDir(), templateID+".json")
	if _, err := os.Stat(old); err == nil {
		return old, nil
	}

	return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, templateID)
}

// Analyze resolves the id and returns the cached analysis.
func (s *Store) Analyze(templateID string) (*types.TemplateAnalysis, error) {
	path, err := s.FindByID(templateID)
	if err != nil {
		return nil, err
	}
	return s.cache.GetOrAnalyze(path, templateID)
}

// List returns summaries for the built-in template and all uploads.
func (s *Store) List() ([]Summary, error) {
	var out []Summary

	if _, err := os.Stat(s.defaultPath()); err == nil {
		out = append(out, Summary{
			TemplateID: DefaultTemplateID,
			Filename:   filepath.Base(s.defaultPath()),
			Name:       manifestName(s.defaultPath()),
			BuiltIn:    true,
		})
	}

	matches, err := filepath.Glob(filepath.Join(s.dirs.UploadsDir(), "*.json"))
	if err != nil {
		return out, nil
	}
	for _, path := range matches {
		base := filepath.Base(path)
		id, _, found := strings.Cut(base, "_")
		if !found {
			id = strings.TrimSuffix(base, ".json")
		}
		out = append(out, Summary{
			TemplateID: id,
			Filename:   base,
			Name:       manifestName(path),
		})
	}
	return out, nil
}

func (s *Store) defaultPath() string {
	return filepath.Join(s.dirs.TemplatesDir(), "default.json")
}

func manifestName(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	var m struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return ""
	}
	return m.Name
}

// SafeFilename strips path components and any character outside
// [a-zA-Z0-9._-] from an uploaded filename.
func SafeFilename(name string) string {
	name = filepath.Base(name)
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := b.String()
	if out == "" || out == "." || out == ".." {
		out = "template.json"
	}
	return out
}
