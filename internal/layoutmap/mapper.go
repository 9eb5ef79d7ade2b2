// Package layoutmap resolves abstract layout type ids (1-7) onto a
// concrete template's layout indices. Matching is score-based over
// placeholder structure; when a requested type has no mapping, a fixed
// fallback priority table supplies alternates.
package layoutmap

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/slidesmith/slidesmith/internal/catalog"
	"github.com/slidesmith/slidesmith/internal/types"
)

// fallbackPriority lists alternate layout type ids to try, in order, when
// the requested type is not mapped. Each chain prefers a layout of similar
// structural complexity before degrading to a more generic one.
var fallbackPriority = map[int][]int{
	1: {2, 3}, // Title Slide → Title+Bullets → Section Header
	2: {6, 7}, // Title+Bullets → Bullets Only → Summary
	3: {1, 2}, // Section Header → Title Slide → Title+Bullets
	4: {2, 6}, // Two-Column → Title+Bullets → Bullets Only
	5: {2, 6}, // Quote/Highlight → Title+Bullets → Bullets Only
	6: {2, 7}, // Bullets Only → Title+Bullets → Summary
	7: {2, 6}, // Summary → Title+Bullets → Bullets Only
}

// IncompatibleLayoutError is returned when neither the requested type nor
// any type in its fallback chain exists in a mapping.
type IncompatibleLayoutError struct {
	LayoutTypeID int
	Attempted    []int
}

func (e *IncompatibleLayoutError) Error() string {
	return fmt.Sprintf("no compatible layout found for type %d, attempted fallback chain: %v",
		e.LayoutTypeID, e.Attempted)
}

// FallbackWarning records a fallback resolution so it can be surfaced to
// the end user alongside the result.
type FallbackWarning struct {
	RequestedType int `json:"requested_type"`
	FallbackType  int `json:"fallback_type"`
	LayoutIndex   int `json:"layout_index"`
}

func (w FallbackWarning) String() string {
	return fmt.Sprintf("layout type %d not available in template, using fallback type %d (layout index %d)",
		w.RequestedType, w.FallbackType, w.LayoutIndex)
}

// Mapper maps abstract layout type ids to template layout indices.
type Mapper struct {
	logger *slog.Logger
}

// New creates a Mapper. A nil logger falls back to slog.Default.
func New(logger *slog.Logger) *Mapper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mapper{logger: logger}
}

// BuildMapping scores every concrete layout against every catalog entry
// and keeps the best index per entry. Ties resolve to the first layout in
// template order. Every catalog id receives a mapping as long as at least
// one concrete layout exists; there is no "no match" outcome here, only
// "best available".
func (m *Mapper) BuildMapping(layouts []types.LayoutInfo, defs []catalog.LayoutTypeDefinition) map[int]int {
	mapping := make(map[int]int, len(defs))

	for _, def := range defs {
		bestScore := -1 << 31
		bestIndex := 0

		for _, layout := range layouts {
			score := scoreLayoutMatch(layout, def)
			if score > bestScore {
				bestScore = score
				bestIndex = layout.Index
			}
		}

		mapping[def.ID] = bestIndex

		m.logger.Debug("mapped layout type",
			"layout_type_id", def.ID,
			"layout_type_name", def.Name,
			"layout_index", bestIndex,
			"score", bestScore,
		)
	}

	return mapping
}

// scoreLayoutMatch scores a (concrete layout, abstract type) pair:
//
//	+10 per requested placeholder type present in the concrete layout
//	 -3 per unit of placeholder count difference
//	 +5 once if a type-name keyword appears in the layout name
func scoreLayoutMatch(layout types.LayoutInfo, def catalog.LayoutTypeDefinition) int {
	score := 0

	present := make(map[string]bool, len(layout.Placeholders))
	for _, ph := range layout.Placeholders {
		present[ph.Type] = true
	}

	// Membership test per requested occurrence: if the abstract type
	// requests BODY twice, a concrete layout with one BODY still scores
	// both occurrences.
	for _, expected := range def.PrimaryPlaceholders {
		if present[expected] {
			score += 10
		}
	}

	countDiff := len(layout.Placeholders) - len(def.PrimaryPlaceholders)
	if countDiff < 0 {
		countDiff = -countDiff
	}
	score -= countDiff * 3

	layoutName := strings.ToLower(layout.Name)
	for _, keyword := range nameKeywords(def.Name) {
		if strings.Contains(layoutName, keyword) {
			score += 5
			break // bonus applies at most once
		}
	}

	return score
}

// nameKeywords extracts lowercase keywords (length > 3) from a type name,
// splitting on spaces, hyphens, and slashes.
func nameKeywords(name string) []string {
	normalized := strings.NewReplacer("/", " ", "-", " ").Replace(strings.ToLower(name))
	fields := strings.Fields(normalized)

	keywords := fields[:0]
	for _, f := range fields {
		if len(f) > 3 {
			keywords = append(keywords, f)
		}
	}
	return keywords
}

// MapTypeToIndex resolves a layout type id through the mapping, walking
// the fallback chain on a miss. Each fallback resolution is returned as a
// warning for the caller to surface. Exhausting the chain yields an
// *IncompatibleLayoutError.
func (m *Mapper) MapTypeToIndex(layoutTypeID int, mapping map[int]int) (int, []FallbackWarning, error) {
	if idx, ok := mapping[layoutTypeID]; ok {
		return idx, nil, nil
	}

	chain := fallbackPriority[layoutTypeID]
	for _, fallbackID := range chain {
		idx, ok := mapping[fallbackID]
		if !ok {
			continue
		}

		w := FallbackWarning{
			RequestedType: layoutTypeID,
			FallbackType:  fallbackID,
			LayoutIndex:   idx,
		}
		m.logger.Warn("layout type fallback",
			"requested_type", w.RequestedType,
			"fallback_type", w.FallbackType,
			"layout_index", w.LayoutIndex,
		)
		return idx, []FallbackWarning{w}, nil
	}

	return 0, nil, &IncompatibleLayoutError{LayoutTypeID: layoutTypeID, Attempted: chain}
}
