// Package overflowfix holds the prompt that asks the model to rework a plan
// whose slides exceed their layout's text capacity.
package overflowfix

import (
	"bytes"
	_ "embed"
	"fmt"
	"text/template"

	"github.com/slidesmith/slidesmith/internal/prompts"
)

//go:embed system.tmpl
var systemPrompt string

// PromptKey is the hierarchical key for this prompt.
const PromptKey = "pipeline.overflowfix.system"

// RegisterPrompts registers the overflow resolution prompt with the resolver.
func RegisterPrompts(r *prompts.Resolver) {
	r.Register(prompts.EmbeddedPrompt{
		Key:         PromptKey,
		Text:        systemPrompt,
		Description: "Overflow resolution prompt - reworks a plan whose slides exceed layout capacity",
	})
}

// Params carries the values substituted into the overflow template.
type Params struct {
	// CatalogContext is the rendered layout catalog injected into the prompt.
	CatalogContext string
	// OverflowSummary lists the overflowing slides with their measured sizes.
	OverflowSummary string
	// SlidesJSON is the current slide list serialized as a JSON array.
	SlidesJSON string
}

// Build renders the overflow resolution prompt with the given parameters.
func Build(text string, params Params) (string, error) {
	tmpl, err := template.New("overflowfix").Parse(text)
	if err != nil {
		return "", fmt.Errorf("failed to parse overflowfix template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, params); err != nil {
		return "", fmt.Errorf("failed to render overflowfix prompt: %w", err)
	}
	return buf.String(), nil
}
