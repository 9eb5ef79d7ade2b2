// Package structuring holds the prompt that converts raw user text into a
// structured presentation plan.
package structuring

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
const PromptKey = "pipeline.structuring.system"

// RegisterPrompts registers the structuring prompt with the resolver.
func RegisterPrompts(r *prompts.Resolver) {
	r.Register(prompts.EmbeddedPrompt{
		Key:         PromptKey,
		Text:        systemPrompt,
		Description: "Text-to-presentation structuring prompt - converts user content into a slide plan",
	})
}

// Params carries the values substituted into the structuring template.
type Params struct {
	// CatalogContext is the rendered layout catalog injected into the prompt.
	CatalogContext string
	// Salt is a per-request hex string used to construct delimiter tags the
	// user content cannot predict.
	Salt string
	// Text is the raw user content to structure.
	Text string
}

// Build renders the structuring prompt with the given parameters.
func Build(text string, params Params) (string, error) {
	tmpl, err := template.New("structuring").Parse(text)
	if err != nil {
		return "", fmt.Errorf("failed to parse structuring template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, params); err != nil {
		return "", fmt.Errorf("failed to render structuring prompt: %w", err)
	}
	return buf.String(), nil
}

// RepairSuffix returns the feedback appended to the prompt when a previous
// attempt produced output that failed validation.
func RepairSuffix(validationErr error) string {
	return fmt.Sprintf(`

PREVIOUS ATTEMPT FAILED VALIDATION:
Error: %v

Please correct the JSON output to match the required schema exactly. Pay special attention to:
- Required fields must be present
- Field types must match (string, integer, array, etc.)
- Value constraints (min/max length, numeric ranges)
- Two-Column layout constraints (non-empty columns, max 2 items difference)
`, validationErr)
}
