package prompts

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestExtractVariables(t *testing.T) {
	vars := ExtractVariables("Structure {{.Text}} against {{ .Layouts }} for {{.Text}} in {{.Slide.Title}}")
	want := []string{"Layouts", "Slide.Title", "Text"}
	if !reflect.DeepEqual(vars, want) {
		t.Errorf("vars = %v, want %v", vars, want)
	}
}

func TestResolverOverrides(t *testing.T) {
	r := NewResolver(nil)
	r.Register(EmbeddedPrompt{Key: "pipeline.structuring.system", Text: "default {{.Text}}"})
	r.Register(EmbeddedPrompt{Key: "pipeline.overflowfix.system", Text: "shrink {{.SlidesJSON}}"})

	dir := t.TempDir()
	override := "pipeline.structuring.system: custom {{.Text}} with {{.Layouts}}\n"
	if err := os.WriteFile(filepath.Join(dir, "prompts.yaml"), []byte(override), 0o644); err != nil {
		t.Fatalf("write prompts.yaml: %v", err)
	}
	if err := r.LoadOverrides(dir); err != nil {
		t.Fatalf("LoadOverrides: %v", err)
	}

	resolved, err := r.Resolve("pipeline.structuring.system")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !resolved.IsOverride {
		t.Error("expected the override to win")
	}
	if !reflect.DeepEqual(resolved.Variables, []string{"Layouts", "Text"}) {
		t.Errorf("variables = %v", resolved.Variables)
	}
}

func TestResolverList(t *testing.T) {
	r := NewResolver(nil)
	r.Register(EmbeddedPrompt{Key: "pipeline.structuring.system", Text: "default {{.Text}}"})
	r.Register(EmbeddedPrompt{Key: "pipeline.overflowfix.system", Text: "shrink {{.SlidesJSON}}"})

	dir := t.TempDir()
	override := "pipeline.structuring.system: custom {{.Text}}\n"
	if err := os.WriteFile(filepath.Join(dir, "prompts.yaml"), []byte(override), 0o644); err != nil {
		t.Fatalf("write prompts.yaml: %v", err)
	}
	if err := r.LoadOverrides(dir); err != nil {
		t.Fatalf("LoadOverrides: %v", err)
	}

	list := r.List()
	if len(list) != 2 {
		t.Fatalf("list = %d prompts", len(list))
	}
	// Sorted by key: overflowfix before structuring.
	if list[0].Key != "pipeline.overflowfix.system" || list[0].IsOverride {
		t.Errorf("first entry = %+v", list[0])
	}
	if list[1].Key != "pipeline.structuring.system" || !list[1].IsOverride {
		t.Errorf("second entry = %+v", list[1])
	}
	if list[1].Text != "custom {{.Text}}" {
		t.Errorf("override text = %q", list[1].Text)
	}
}

func TestResolverMissingOverridesFile(t *testing.T) {
	r := NewResolver(nil)
	if err := r.LoadOverrides(t.TempDir()); err != nil {
		t.Fatalf("missing prompts.yaml should not error: %v", err)
	}
}
