// Package svcctx provides service context for dependency injection via context.
// This package is separate from server to avoid import cycles with endpoints.
package svcctx

import (
	"context"
	"log/slog"

	"github.com/slidesmith/slidesmith/internal/config"
	"github.com/slidesmith/slidesmith/internal/extract"
	"github.com/slidesmith/slidesmith/internal/generator"
	"github.com/slidesmith/slidesmith/internal/home"
	"github.com/slidesmith/slidesmith/internal/intelligence"
	"github.com/slidesmith/slidesmith/internal/markdown"
	"github.com/slidesmith/slidesmith/internal/prompts"
	"github.com/slidesmith/slidesmith/internal/providers"
	"github.com/slidesmith/slidesmith/internal/research"
	"github.com/slidesmith/slidesmith/internal/template"
)

// Services holds all core services that flow through context.
// Components extract what they need via the individual extractors.
type Services struct {
	ConfigMgr *config.Manager
	Logger    *slog.Logger
	Home      *home.Dir
	Registry  *providers.Registry
	Templates *template.Store
	Pipeline  *intelligence.Service
	Markdown  *markdown.Parser
	Generator *generator.Generator
	Extractor *extract.Extractor
	Research  *research.Agent
	Prompts   *prompts.Resolver
}

type servicesKey struct{}

// WithServices returns a new context with services attached.
func WithServices(ctx context.Context, s *Services) context.Context {
	return context.WithValue(ctx, servicesKey{}, s)
}

// ServicesFrom extracts the full Services struct from context.
// Returns nil if not present.
func ServicesFrom(ctx context.Context) *Services {
	s, _ := ctx.Value(servicesKey{}).(*Services)
	return s
}

// ConfigFrom extracts the config manager from context.
func ConfigFrom(ctx context.Context) *config.Manager {
	if s := ServicesFrom(ctx); s != nil {
		return s.ConfigMgr
	}
	return nil
}

// LoggerFrom extracts the logger from context.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if s := ServicesFrom(ctx); s != nil {
		return s.Logger
	}
	return nil
}

// HomeFrom extracts the home directory from context.
func HomeFrom(ctx context.Context) *home.Dir {
	if s := ServicesFrom(ctx); s != nil {
		return s.Home
	}
	return nil
}

// RegistryFrom extracts the provider registry from context.
func RegistryFrom(ctx context.Context) *providers.Registry {
	if s := ServicesFrom(ctx); s != nil {
		return s.Registry
	}
	return nil
}

// TemplatesFrom extracts the template store from context.
func TemplatesFrom(ctx context.Context) *template.Store {
	if s := ServicesFrom(ctx); s != nil {
		return s.Templates
	}
	return nil
}

// PipelineFrom extracts the layout intelligence service from context.
func PipelineFrom(ctx context.Context) *intelligence.Service {
	if s := ServicesFrom(ctx); s != nil {
		return s.Pipeline
	}
	return nil
}

// MarkdownFrom extracts the Markdown parser from context.
func MarkdownFrom(ctx context.Context) *markdown.Parser {
	if s := ServicesFrom(ctx); s != nil {
		return s.Markdown
	}
	return nil
}

// GeneratorFrom extracts the deck generator from context.
func GeneratorFrom(ctx context.Context) *generator.Generator {
	if s := ServicesFrom(ctx); s != nil {
		return s.Generator
	}
	return nil
}

// ExtractorFrom extracts the content extractor from context.
func ExtractorFrom(ctx context.Context) *extract.Extractor {
	if s := ServicesFrom(ctx); s != nil {
		return s.Extractor
	}
	return nil
}

// ResearchFrom extracts the research agent from context.
func ResearchFrom(ctx context.Context) *research.Agent {
	if s := ServicesFrom(ctx); s != nil {
		return s.Research
	}
	return nil
}

// PromptsFrom extracts the prompt resolver from context.
func PromptsFrom(ctx context.Context) *prompts.Resolver {
	if s := ServicesFrom(ctx); s != nil {
		return s.Prompts
	}
	return nil
}
