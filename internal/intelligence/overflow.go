package intelligence

import (
	"log/slog"
	"unicode/utf8"

	"github.com/slidesmith/slidesmith/internal/catalog"
)

// defaultCapacity applies when a slide references a layout type id the
// catalog does not know. Unknown ids are tolerated here; the mapper deals
// with them later.
const defaultCapacity = 1000

// OverflowResult reports the capacity check for one slide.
type OverflowResult struct {
	SlideIndex     int  `json:"slide_index"`
	IsOverflow     bool `json:"is_overflow"`
	TotalChars     int  `json:"total_chars"`
	MaxCapacity    int  `json:"max_capacity"`
	OverflowAmount int  `json:"overflow_amount"`
}

// OverflowValidator checks slide text against layout capacity constraints.
type OverflowValidator struct {
	logger *slog.Logger
}

// NewOverflowValidator creates a validator that logs capacity violations.
func NewOverflowValidator(logger *slog.Logger) *OverflowValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &OverflowValidator{logger: logger}
}

// Validate checks each slide against its layout type's max text capacity and
// returns one result per slide, in order. A slide exactly at capacity fits.
func (v *OverflowValidator) Validate(slides []Slide, defs []catalog.LayoutTypeDefinition) []OverflowResult {
	capacities := make(map[int]int, len(defs))
	for _, def := range defs {
		capacities[def.ID] = def.MaxTextCapacity
	}

	results := make([]OverflowResult, 0, len(slides))
	for idx := range slides {
		slide := &slides[idx]

		maxCapacity, ok := capacities[slide.LayoutTypeID]
		if !ok {
			maxCapacity = defaultCapacity
		}

		totalChars := slideChars(slide)
		isOverflow := totalChars > maxCapacity
		overflowAmount := 0
		if isOverflow {
			overflowAmount = totalChars - maxCapacity
		}

		results = append(results, OverflowResult{
			SlideIndex:     idx,
			IsOverflow:     isOverflow,
			TotalChars:     totalChars,
			MaxCapacity:    maxCapacity,
			OverflowAmount: overflowAmount,
		})

		if isOverflow {
			v.logger.Debug("slide overflow detected",
				"slide_index", idx,
				"layout_type_id", slide.LayoutTypeID,
				"total_chars", totalChars,
				"max_capacity", maxCapacity,
				"overflow_amount", overflowAmount,
			)
		}
	}
	return results
}

// slideChars counts the characters that land on the slide surface: title,
// body text, and both bullet columns. Speaker notes are excluded.
func slideChars(s *Slide) int {
	total := utf8.RuneCountInString(s.Title)
	total += utf8.RuneCountInString(s.BodyText)
	for _, b := range s.Bullets {
		total += utf8.RuneCountInString(b.Text)
	}
	for _, b := range s.RightBullets {
		total += utf8.RuneCountInString(b.Text)
	}
	return total
}
