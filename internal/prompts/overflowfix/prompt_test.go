package overflowfix

import (
	"strings"
	"testing"
)

func TestBuildSubstitutesParams(t *testing.T) {
	out, err := Build(systemPrompt, Params{
		CatalogContext:  "AVAILABLE LAYOUT TYPES",
		OverflowSummary: "Slide 2 ('Plan'): 900 chars (max 800), overflow: 100 chars",
		SlidesJSON:      `[{"title": "Plan"}]`,
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for _, want := range []string{
		"AVAILABLE LAYOUT TYPES",
		"Slide 2 ('Plan')",
		`[{"title": "Plan"}]`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

// The input is a bare slides array, but the reply must use the full plan
// envelope the parser expects, so the prompt has to name those keys.
func TestDefaultPromptNamesPlanEnvelope(t *testing.T) {
	if !strings.Contains(systemPrompt, `"presentation_title"`) || !strings.Contains(systemPrompt, `"slides"`) {
		t.Error("embedded prompt does not name the reply envelope keys")
	}
}
