package config

import "github.com/slidesmith/slidesmith/internal/providers"

// Config holds slidesmith configuration.
// Stored at: {home_dir}/config.yaml
type Config struct {
	Server       ServerCfg                 `mapstructure:"server" yaml:"server"`
	HomeDir      string                    `mapstructure:"home_dir" yaml:"home_dir"`
	LogLevel     string                    `mapstructure:"log_level" yaml:"log_level"`
	LLMProviders map[string]LLMProviderCfg `mapstructure:"llm_providers" yaml:"llm_providers"`
	Defaults     DefaultsCfg               `mapstructure:"defaults" yaml:"defaults"`
	Pipeline     PipelineCfg               `mapstructure:"pipeline" yaml:"pipeline"`
	Limits       LimitsCfg                 `mapstructure:"limits" yaml:"limits"`
	Cleanup      CleanupCfg                `mapstructure:"cleanup" yaml:"cleanup"`
}

// ServerCfg configures the HTTP server.
type ServerCfg struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
	// BaseURL is the externally visible URL used in generated links. Empty
	// means derive from host and port.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

// LLMProviderCfg configures one LLM provider.
type LLMProviderCfg struct {
	Provider          string `mapstructure:"provider" yaml:"provider"` // "openrouter", "openai", "mock"
	Model             string `mapstructure:"model" yaml:"model"`
	APIKey            string `mapstructure:"api_key" yaml:"api_key"` // supports ${ENV_VAR} syntax
	BaseURL           string `mapstructure:"base_url" yaml:"base_url,omitempty"`
	TimeoutSeconds    int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	MaxRetries        int    `mapstructure:"max_retries" yaml:"max_retries"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
	Enabled           bool   `mapstructure:"enabled" yaml:"enabled"`
}

// DefaultsCfg specifies default selections.
type DefaultsCfg struct {
	LLMProvider string `mapstructure:"llm_provider" yaml:"llm_provider"`
}

// PipelineCfg bounds the LLM pipeline.
type PipelineCfg struct {
	// LayoutTimeoutSeconds is the end-to-end budget for one layout
	// intelligence run, including retries and overflow resolution.
	LayoutTimeoutSeconds int `mapstructure:"layout_timeout_seconds" yaml:"layout_timeout_seconds"`
	// ResearchTimeoutSeconds bounds one research flow.
	ResearchTimeoutSeconds int `mapstructure:"research_timeout_seconds" yaml:"research_timeout_seconds"`
}

// LimitsCfg holds upload and per-route rate limits.
type LimitsCfg struct {
	MaxUploadBytes int64        `mapstructure:"max_upload_bytes" yaml:"max_upload_bytes"`
	RateLimits     RateLimitCfg `mapstructure:"rate_limits" yaml:"rate_limits"`
}

// RateLimitCfg holds per-route requests-per-minute limits.
type RateLimitCfg struct {
	AnalyzeTemplate    int `mapstructure:"analyze_template" yaml:"analyze_template"`
	Research           int `mapstructure:"research" yaml:"research"`
	Generate           int `mapstructure:"generate" yaml:"generate"`
	ParseMarkdown      int `mapstructure:"parse_markdown" yaml:"parse_markdown"`
	LayoutIntelligence int `mapstructure:"layout_intelligence" yaml:"layout_intelligence"`
}

// CleanupCfg configures the file retention sweeper.
type CleanupCfg struct {
	RetentionHours  int `mapstructure:"retention_hours" yaml:"retention_hours"`
	IntervalMinutes int `mapstructure:"interval_minutes" yaml:"interval_minutes"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerCfg{
			Host: "127.0.0.1",
			Port: 8080,
		},
		LogLevel: "info",
		LLMProviders: map[string]LLMProviderCfg{
			"openrouter": {
				Provider:          "openrouter",
				Model:             "anthropic/claude-3.5-sonnet",
				APIKey:            "${OPENROUTER_API_KEY}",
				TimeoutSeconds:    60,
				MaxRetries:        3,
				RequestsPerMinute: 60,
				Enabled:           true,
			},
		},
		Defaults: DefaultsCfg{
			LLMProvider: "openrouter",
		},
		Pipeline: PipelineCfg{
			LayoutTimeoutSeconds:   60,
			ResearchTimeoutSeconds: 180,
		},
		Limits: LimitsCfg{
			MaxUploadBytes: 10 << 20,
			RateLimits: RateLimitCfg{
				AnalyzeTemplate:    10,
				Research:           10,
				Generate:           5,
				ParseMarkdown:      20,
				LayoutIntelligence: 5,
			},
		},
		Cleanup: CleanupCfg{
			RetentionHours:  24,
			IntervalMinutes: 60,
		},
	}
}

// GetLLMProvider returns an LLM provider config by name.
func (c *Config) GetLLMProvider(name string) (LLMProviderCfg, bool) {
	cfg, ok := c.LLMProviders[name]
	return cfg, ok
}

// EnabledLLMProviders returns all enabled LLM providers.
func (c *Config) EnabledLLMProviders() map[string]LLMProviderCfg {
	result := make(map[string]LLMProviderCfg)
	for name, cfg := range c.LLMProviders {
		if cfg.Enabled {
			result[name] = cfg
		}
	}
	return result
}

// ToLLMSettings converts a provider config to provider settings, resolving
// ${ENV_VAR} references in the API key.
func (p LLMProviderCfg) ToLLMSettings() providers.LLMSettings {
	return providers.LLMSettings{
		Provider:          p.Provider,
		Model:             p.Model,
		APIKey:            ResolveEnvVars(p.APIKey),
		BaseURL:           p.BaseURL,
		TimeoutSeconds:    p.TimeoutSeconds,
		MaxRetries:        p.MaxRetries,
		RequestsPerMinute: p.RequestsPerMinute,
	}
}
