package providers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ParseStructuredJSON recovers a JSON document from model output. Models
// wrap JSON in markdown fences or surround it with prose often enough that
// every consumer needs this, so it lives here rather than in callers.
func ParseStructuredJSON(content string) (json.RawMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("empty structured output")
	}

	candidates := []string{content}
	if stripped := stripCodeFences(content); stripped != "" && stripped != content {
		candidates = append(candidates, stripped)
	}
	if extracted := extractJSONCandidate(content); extracted != "" && extracted != content {
		candidates = append(candidates, extracted)
	}

	for _, candidate := range candidates {
		var parsed any
		if err := json.Unmarshal([]byte(candidate), &parsed); err != nil {
			continue
		}
		normalized, err := json.Marshal(parsed)
		if err != nil {
			return nil, fmt.Errorf("failed to normalize structured output: %w", err)
		}
		return normalized, nil
	}

	return nil, fmt.Errorf("failed to parse structured JSON")
}

// stripCodeFences removes a surrounding markdown code fence, if any.
func stripCodeFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return ""
	}
	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return ""
	}
	lines = lines[1:]
	if strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// extractJSONCandidate slices from the first opening brace or bracket to
// the matching last closer, dropping any surrounding commentary.
func extractJSONCandidate(content string) string {
	trimmed := strings.TrimSpace(content)

	start := strings.IndexAny(trimmed, "{[")
	if start < 0 {
		return ""
	}
	closer := "}"
	if trimmed[start] == '[' {
		closer = "]"
	}
	end := strings.LastIndex(trimmed, closer)
	if end < start {
		return ""
	}
	return strings.TrimSpace(trimmed[start : end+1])
}

// ValidateStructuredJSON validates a parsed document against a schema,
// accepting either a bare schema or the json_schema wrapper sent to
// providers.
func ValidateStructuredJSON(schemaRaw, parsed json.RawMessage) error {
	if len(schemaRaw) == 0 || len(parsed) == 0 {
		return nil
	}

	coreSchema, err := unwrapSchema(schemaRaw)
	if err != nil {
		return err
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(coreSchema)); err != nil {
		return fmt.Errorf("failed to load structured schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("failed to compile structured schema: %w", err)
	}

	var doc any
	if err := json.Unmarshal(parsed, &doc); err != nil {
		return fmt.Errorf("failed to decode structured JSON for validation: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("structured output does not match schema: %w", err)
	}
	return nil
}

// unwrapSchema pulls the validation schema out of a provider wrapper:
// {"type":"json_schema","json_schema":{"schema":{...}}} or {"schema":{...}}.
func unwrapSchema(schemaRaw json.RawMessage) (json.RawMessage, error) {
	var root map[string]any
	if err := json.Unmarshal(schemaRaw, &root); err != nil {
		return nil, fmt.Errorf("invalid structured schema JSON: %w", err)
	}

	node := root
	if inner, ok := node["json_schema"].(map[string]any); ok {
		node = inner
	}
	if inner, ok := node["schema"]; ok {
		b, err := json.Marshal(inner)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize inner schema: %w", err)
		}
		return b, nil
	}

	// Already a bare schema document.
	return schemaRaw, nil
}
