package endpoints

import (
	"github.com/slidesmith/slidesmith/internal/api"
	"github.com/slidesmith/slidesmith/internal/config"
	"github.com/slidesmith/slidesmith/internal/ratelimit"
)

// Config holds dependencies needed by some endpoints.
type Config struct {
	RateLimits     config.RateLimitCfg
	MaxUploadBytes int64
}

// All returns all endpoint instances, with per-route rate limiters built
// from the configured per-minute allowances.
func All(cfg Config) []api.Endpoint {
	return []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&ReadyEndpoint{},
		&StatusEndpoint{},

		// Template endpoints
		&AnalyzeTemplateEndpoint{
			Limiter:        ratelimit.NewLimiter(cfg.RateLimits.AnalyzeTemplate),
			MaxUploadBytes: cfg.MaxUploadBytes,
		},
		&ListTemplatesEndpoint{},

		// Pipeline endpoints
		&LayoutIntelligenceEndpoint{Limiter: ratelimit.NewLimiter(cfg.RateLimits.LayoutIntelligence)},
		&ParseMarkdownEndpoint{Limiter: ratelimit.NewLimiter(cfg.RateLimits.ParseMarkdown)},
		&ResearchEndpoint{Limiter: ratelimit.NewLimiter(cfg.RateLimits.Research)},
		&ListPromptsEndpoint{},

		// Deck endpoints
		&GenerateEndpoint{Limiter: ratelimit.NewLimiter(cfg.RateLimits.Generate)},
		&DownloadDeckEndpoint{},

		// Extraction endpoints
		&ExtractContentEndpoint{
			Limiter:        ratelimit.NewLimiter(cfg.RateLimits.AnalyzeTemplate),
			MaxUploadBytes: cfg.MaxUploadBytes,
		},
		&ExtractedImageEndpoint{},
	}
}
