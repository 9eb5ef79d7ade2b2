// Package template handles template storage, structure analysis, and
// analysis caching. Templates are described by JSON manifests listing their
// masters, layouts, and placeholders.
package template

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/slidesmith/slidesmith/internal/types"
)

// Analyzer reads a template manifest and derives the full structure the
// pipeline consumes, including per-placeholder accepted content kinds.
type Analyzer struct{}

// Analyze parses the manifest at path and returns its structure.
func (Analyzer) Analyze(path, templateID string) (*types.TemplateAnalysis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}

	var manifest struct {
		Name    string             `json:"name"`
		Masters []types.MasterInfo `json:"masters"`
	}
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("invalid template manifest: %w", err)
	}
	if len(manifest.Masters) == 0 {
		return nil, fmt.Errorf("template has no slide masters")
	}

	for mi := range manifest.Masters {
		master := &manifest.Masters[mi]
		master.Index = mi
		if master.Name == "" {
			master.Name = fmt.Sprintf("Master %d", mi)
		}
		if len(master.Layouts) == 0 {
			return nil, fmt.Errorf("master %d has no layouts", mi)
		}
		for li := range master.Layouts {
			layout := &master.Layouts[li]
			layout.Index = li
			for pi := range layout.Placeholders {
				ph := &layout.Placeholders[pi]
				if len(ph.Accepts) == 0 {
					ph.Accepts = placeholderAccepts(ph.Type)
				}
			}
		}
	}

	return &types.TemplateAnalysis{
		Filename:   filepath.Base(path),
		TemplateID: templateID,
		Masters:    manifest.Masters,
	}, nil
}

// placeholderAccepts derives accepted content kinds from a placeholder type.
// Object placeholders can hold either text or images.
func placeholderAccepts(phType string) []string {
	switch phType {
	case types.PlaceholderPicture:
		return []string{"image"}
	case types.PlaceholderTable:
		return []string{"text", "table"}
	case types.PlaceholderChart:
		return []string{"text", "chart"}
	case types.PlaceholderObject:
		return []string{"text", "image"}
	default:
		return []string{"text"}
	}
}

// Layouts flattens the first master's layouts, which is what layout mapping
// operates on. Multi-master templates map against their primary master.
func Layouts(analysis *types.TemplateAnalysis) []types.LayoutInfo {
	if analysis == nil || len(analysis.Masters) == 0 {
		return nil
	}
	return analysis.Masters[0].Layouts
}
