package providers

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// LLMSettings is the config surface for building one LLM client.
type LLMSettings struct {
	Provider          string `mapstructure:"provider"` // "openrouter", "openai", "mock"
	Model             string `mapstructure:"model"`
	APIKey            string `mapstructure:"api_key"`
	BaseURL           string `mapstructure:"base_url"`
	TimeoutSeconds    int    `mapstructure:"timeout_seconds"`
	MaxRetries        int    `mapstructure:"max_retries"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute"`
}

// BuildClient instantiates an LLM client from settings.
func BuildClient(s LLMSettings) (LLMClient, error) {
	timeout := time.Duration(s.TimeoutSeconds) * time.Second
	switch s.Provider {
	case OpenRouterName, "":
		return NewOpenRouterClient(OpenRouterConfig{
			APIKey:       s.APIKey,
			BaseURL:      s.BaseURL,
			DefaultModel: s.Model,
			Timeout:      timeout,
			MaxRetries:   s.MaxRetries,
		}), nil
	case OpenAIName:
		return NewOpenAIClient(OpenAIConfig{
			APIKey:       s.APIKey,
			BaseURL:      s.BaseURL,
			DefaultModel: s.Model,
			Timeout:      timeout,
			MaxRetries:   s.MaxRetries,
		}), nil
	case MockClientName:
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", s.Provider)
	}
}

// Registry holds LLM clients by name with thread-safe access, so a config
// reload can swap clients under running handlers.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]LLMClient
	active  string
	logger  *slog.Logger
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[string]LLMClient),
		logger:  slog.Default(),
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// Register registers a client by name. The first registration becomes the
// active client unless SetActive has been called.
func (r *Registry) Register(name string, client LLMClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[name] = client
	if r.active == "" {
		r.active = name
	}
	r.logger.Info("registered LLM client", "name", name)
}

// Unregister removes a client by name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, name)
	if r.active == name {
		r.active = ""
		for n := range r.clients {
			r.active = n
			break
		}
	}
	r.logger.Info("unregistered LLM client", "name", name)
}

// Get returns a client by name.
func (r *Registry) Get(name string) (LLMClient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.clients[name]
	if !ok {
		return nil, fmt.Errorf("LLM client not found: %s", name)
	}
	return client, nil
}

// SetActive marks the named client as the one handlers should use.
func (r *Registry) SetActive(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[name]; !ok {
		return fmt.Errorf("LLM client not found: %s", name)
	}
	r.active = name
	return nil
}

// Active returns the currently active client.
func (r *Registry) Active() (LLMClient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.active == "" {
		return nil, fmt.Errorf("no LLM client registered")
	}
	return r.clients[r.active], nil
}

// List returns all registered client names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	return names
}

// Has checks if a client is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.clients[name]
	return ok
}
