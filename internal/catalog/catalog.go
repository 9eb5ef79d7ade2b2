// Package catalog defines the canonical set of abstract layout types the
// LLM can select from when structuring content. The definitions are
// template-agnostic; the layoutmap package resolves them onto a concrete
// template's layout slots.
package catalog

import (
	"fmt"
	"strings"
)

// MinLayoutTypeID and MaxLayoutTypeID bound the valid layout type id range.
const (
	MinLayoutTypeID = 1
	MaxLayoutTypeID = 7
)

// Range is an inclusive (Min, Max) envelope.
type Range struct {
	Min int
	Max int
}

// LayoutTypeDefinition is one immutable catalog entry describing an
// abstract layout archetype.
type LayoutTypeDefinition struct {
	ID          int
	Name        string
	Description string

	// PrimaryPlaceholders lists expected placeholder type tags in order.
	// Duplicates are meaningful: Two-Column lists BODY twice.
	PrimaryPlaceholders []string

	RecommendedBulletCount Range
	RecommendedTextLength  Range

	// MaxTextCapacity is the hard character ceiling for a slide assigned
	// this type. Always >= RecommendedTextLength.Max.
	MaxTextCapacity int
}

// definitions is the canonical catalog, ordered by id.
var definitions = []LayoutTypeDefinition{
	{
		ID:                     1,
		Name:                   "Title Slide",
		Description:            "Opening slide with presentation title and optional subtitle. No bullet points.",
		PrimaryPlaceholders:    []string{"TITLE", "SUBTITLE"},
		RecommendedBulletCount: Range{0, 0},
		RecommendedTextLength:  Range{10, 100},
		MaxTextCapacity:        150,
	},
	{
		ID:   2,
		Name: "Title + Bullets",
		Description: "Standard content slide with title and bullet points. " +
			"Most common layout for presenting lists, steps, or key points.",
		PrimaryPlaceholders:    []string{"TITLE", "BODY"},
		RecommendedBulletCount: Range{3, 7},
		RecommendedTextLength:  Range{100, 500},
		MaxTextCapacity:        800,
	},
	{
		ID:   3,
		Name: "Section Header",
		Description: "Section divider slide with large title text. " +
			"Used to introduce new topics or chapters. No bullet points.",
		PrimaryPlaceholders:    []string{"TITLE"},
		RecommendedBulletCount: Range{0, 0},
		RecommendedTextLength:  Range{10, 80},
		MaxTextCapacity:        120,
	},
	{
		ID:   4,
		Name: "Two-Column",
		Description: "Comparison or parallel content slide with title and two side-by-side bullet columns. " +
			"Use for comparisons, pros/cons, before/after, or parallel concepts. " +
			"Columns should be balanced (max 2 items difference).",
		PrimaryPlaceholders:    []string{"TITLE", "BODY", "BODY"},
		RecommendedBulletCount: Range{4, 10},
		RecommendedTextLength:  Range{150, 600},
		MaxTextCapacity:        900,
	},
	{
		ID:   5,
		Name: "Quote/Highlight",
		Description: "Emphasis slide with title and single prominent text block. " +
			"Use for quotes, key takeaways, or important statements. No bullet points.",
		PrimaryPlaceholders:    []string{"TITLE", "BODY"},
		RecommendedBulletCount: Range{0, 0},
		RecommendedTextLength:  Range{20, 200},
		MaxTextCapacity:        300,
	},
	{
		ID:   6,
		Name: "Bullets Only",
		Description: "Content-dense slide with bullet points but no title. " +
			"Use when title is implied from previous context or for continuation slides.",
		PrimaryPlaceholders:    []string{"BODY"},
		RecommendedBulletCount: Range{5, 10},
		RecommendedTextLength:  Range{150, 600},
		MaxTextCapacity:        800,
	},
	{
		ID:   7,
		Name: "Summary/Conclusion",
		Description: "Closing slide with title and concise bullet points summarizing key takeaways. " +
			"Similar to Title + Bullets but with emphasis on brevity.",
		PrimaryPlaceholders:    []string{"TITLE", "BODY"},
		RecommendedBulletCount: Range{3, 5},
		RecommendedTextLength:  Range{80, 300},
		MaxTextCapacity:        500,
	},
}

// Catalog provides access to the canonical layout type definitions.
type Catalog struct{}

// New returns the layout type catalog.
func New() *Catalog {
	return &Catalog{}
}

// All returns all 7 layout type definitions in ascending id order. The
// returned slice is a copy; callers may not mutate the shared catalog.
func (c *Catalog) All() []LayoutTypeDefinition {
	out := make([]LayoutTypeDefinition, len(definitions))
	copy(out, definitions)
	return out
}

// ByID returns the definition for the given layout type id.
func (c *Catalog) ByID(id int) (LayoutTypeDefinition, error) {
	if id < MinLayoutTypeID || id > MaxLayoutTypeID {
		return LayoutTypeDefinition{}, fmt.Errorf(
			"invalid layout_type_id: %d, must be between %d and %d", id, MinLayoutTypeID, MaxLayoutTypeID)
	}
	for _, def := range definitions {
		if def.ID == id {
			return def, nil
		}
	}
	return LayoutTypeDefinition{}, fmt.Errorf("layout type %d not found in catalog", id)
}

// PromptContext renders a deterministic, human-readable description of all
// layout types for inclusion in LLM prompts. Ordering and content are
// stable across calls so prompts are reproducible.
func (c *Catalog) PromptContext() string {
	var b strings.Builder
	b.WriteString("Available Layout Types:\n\n")

	for _, def := range definitions {
		fmt.Fprintf(&b, "Layout %d: %s\n", def.ID, def.Name)
		fmt.Fprintf(&b, "  Purpose: %s\n", def.Description)
		fmt.Fprintf(&b, "  Placeholders: %s\n", strings.Join(def.PrimaryPlaceholders, ", "))

		if def.RecommendedBulletCount.Max == 0 {
			b.WriteString("  Bullets: None (text-only layout)\n")
		} else {
			fmt.Fprintf(&b, "  Bullets: %d-%d recommended\n",
				def.RecommendedBulletCount.Min, def.RecommendedBulletCount.Max)
		}

		fmt.Fprintf(&b, "  Text Length: %d-%d characters recommended\n",
			def.RecommendedTextLength.Min, def.RecommendedTextLength.Max)
		fmt.Fprintf(&b, "  Max Capacity: %d characters total\n\n", def.MaxTextCapacity)
	}

	return strings.TrimSuffix(b.String(), "\n")
}
