// Package research holds the prompt that synthesizes fetched research
// material into a presentation plan.
package research

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
const PromptKey = "research.synthesis.system"

// RegisterPrompts registers the research synthesis prompt with the resolver.
func RegisterPrompts(r *prompts.Resolver) {
	r.Register(prompts.EmbeddedPrompt{
		Key:         PromptKey,
		Text:        systemPrompt,
		Description: "Research synthesis prompt - turns fetched page content into a slide plan",
	})
}

// Params carries the values substituted into the synthesis template.
type Params struct {
	// Topic is the research subject as given by the user.
	Topic string
	// Context is the combined fetched page content, already truncated to the
	// prompt budget.
	Context string
}

// Build renders the synthesis prompt with the given parameters.
func Build(text string, params Params) (string, error) {
	tmpl, err := template.New("research").Parse(text)
	if err != nil {
		return "", fmt.Errorf("failed to parse research template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, params); err != nil {
		return "", fmt.Errorf("failed to render research prompt: %w", err)
	}
	return buf.String(), nil
}
