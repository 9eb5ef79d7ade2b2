package prompts

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// Resolver resolves prompts by key.
// Resolution order: prompts.yaml override > embedded default.
type Resolver struct {
	embedded  map[string]EmbeddedPrompt
	overrides map[string]string
	mu        sync.RWMutex
	logger    *slog.Logger
}

// NewResolver creates a new prompt resolver.
func NewResolver(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		embedded:  make(map[string]EmbeddedPrompt),
		overrides: make(map[string]string),
		logger:    logger,
	}
}

// Register registers an embedded prompt.
// This should be called during initialization by each prompt package.
func (r *Resolver) Register(prompt EmbeddedPrompt) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prompt.Hash == "" {
		prompt.Hash = HashText(prompt.Text)
	}
	if prompt.Variables == nil {
		prompt.Variables = ExtractVariables(prompt.Text)
	}

	r.embedded[prompt.Key] = prompt
	r.logger.Debug("registered embedded prompt", "key", prompt.Key, "vars", prompt.Variables)
}

// LoadOverrides loads prompt overrides from prompts.yaml in the given
// directory. A missing file is not an error.
func (r *Resolver) LoadOverrides(configDir string) error {
	path := filepath.Join(configDir, "prompts.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	overrides := make(map[string]string)
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	r.mu.Lock()
	r.overrides = overrides
	r.mu.Unlock()

	r.logger.Info("loaded prompt overrides", "path", path, "count", len(overrides))
	return nil
}

// Resolve resolves a prompt key to its current text.
func (r *Resolver) Resolve(key string) (*ResolvedPrompt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if text, ok := r.overrides[key]; ok {
		return &ResolvedPrompt{
			Key:        key,
			Text:       text,
			Variables:  ExtractVariables(text),
			IsOverride: true,
		}, nil
	}

	embedded, ok := r.embedded[key]
	if !ok {
		return nil, fmt.Errorf("prompt not found: %s", key)
	}

	return &ResolvedPrompt{
		Key:       key,
		Text:      embedded.Text,
		Variables: embedded.Variables,
	}, nil
}

// List returns every registered prompt resolved against the current
// overrides, sorted by key.
func (r *Resolver) List() []ResolvedPrompt {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]ResolvedPrompt, 0, len(r.embedded))
	for key, embedded := range r.embedded {
		if text, ok := r.overrides[key]; ok {
			result = append(result, ResolvedPrompt{
				Key:        key,
				Text:       text,
				Variables:  ExtractVariables(text),
				IsOverride: true,
			})
			continue
		}
		result = append(result, ResolvedPrompt{
			Key:       key,
			Text:      embedded.Text,
			Variables: embedded.Variables,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result
}
