package research

import (
	"strings"

	"github.com/slidesmith/slidesmith/internal/types"
)

// SelectLayout scores each layout against the slide's content and returns
// the best layout index. The slide's existing index is kept when no layout
// scores above the floor.
func SelectLayout(content types.SlideContent, layouts []types.LayoutInfo) int {
	if len(layouts) == 0 {
		return content.LayoutIndex
	}

	hasImage := content.ImageURL != "" || content.ImageCaption != ""
	hasBullets := len(content.BulletPoints) > 0 || len(content.Bullets) > 0
	// Title-only slides: flagged by name or by the default index, and
	// carrying no substantial content.
	isTitle := (strings.Contains(content.Title, "Intro") || content.LayoutIndex == 0) &&
		!hasBullets && !hasImage

	best := content.LayoutIndex
	bestScore := -1

	for _, layout := range layouts {
		var hasTitlePh, hasBodyPh, hasPicPh bool
		for _, ph := range layout.Placeholders {
			switch ph.Type {
			case types.PlaceholderTitle, types.PlaceholderCenterTitle:
				hasTitlePh = true
			case types.PlaceholderBody:
				hasBodyPh = true
			case types.PlaceholderPicture:
				hasPicPh = true
			}
		}

		score := 0
		if isTitle && hasTitlePh && !hasBodyPh {
			score += 5
		}
		if hasImage {
			if hasPicPh {
				score += 10
			} else {
				score -= 5
			}
		}
		if hasBullets && hasBodyPh {
			score += 5
		}

		if score > bestScore {
			bestScore = score
			best = layout.Index
		}
	}
	return best
}
