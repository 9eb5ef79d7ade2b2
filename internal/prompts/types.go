// Package prompts provides prompt management with embedded defaults and
// file-level overrides.
//
// Embedded .tmpl files in code are the source of truth for defaults. A
// prompts.yaml file in the config directory may override any prompt by key,
// which is how operators tune phrasing without rebuilding the binary.
package prompts

// EmbeddedPrompt represents a prompt loaded from an embedded .tmpl file.
type EmbeddedPrompt struct {
	Key         string   // Hierarchical key: pipeline.structuring.system
	Text        string   // The prompt text (Go template)
	Description string   // Human-readable description
	Variables   []string // Extracted template variables
	Hash        string   // SHA256 hash of the text for change detection
}

// ResolvedPrompt is the result of resolving a prompt key.
type ResolvedPrompt struct {
	Key        string   `json:"key"`
	Text       string   `json:"text"`
	Variables  []string `json:"variables,omitempty"`
	IsOverride bool     `json:"is_override"` // true if from a prompts.yaml override
}
