package generator

import (
	"fmt"
	"strings"

	"github.com/slidesmith/slidesmith/internal/types"
)

// Element kinds within a deck slide.
const (
	ElementText    = "text"
	ElementBullets = "bullets"
	ElementImage   = "image"
	ElementChart   = "chart"
)

// eastAsianFont is applied to runs containing CJK characters, which most
// template default fonts render poorly.
const eastAsianFont = "Meiryo UI"

// Element is one populated placeholder on a deck slide.
type Element struct {
	PlaceholderIdx  int    `json:"placeholder_idx"`
	PlaceholderType string `json:"placeholder_type"`
	Kind            string `json:"kind"`

	Text          string              `json:"text,omitempty"`
	Bullets       []types.BulletPoint `json:"bullets,omitempty"`
	ThemeColor    string              `json:"theme_color,omitempty"`
	EastAsianFont string              `json:"east_asian_font,omitempty"`

	ImagePath string `json:"image_path,omitempty"`
	ImageURL  string `json:"image_url,omitempty"`
	Caption   string `json:"caption,omitempty"`

	Chart *types.ChartData `json:"chart,omitempty"`
}

// slidePopulator fills one layout's placeholders by type priority. Each
// placeholder is filled at most once per slide.
type slidePopulator struct {
	layout   types.LayoutInfo
	used     map[int]bool
	elements []Element
	warnings []string
}

func newSlidePopulator(layout types.LayoutInfo) *slidePopulator {
	return &slidePopulator{layout: layout, used: make(map[int]bool)}
}

// findByType returns the first unused placeholder matching the earliest
// preferred type, or nil.
func (p *slidePopulator) findByType(preferred ...string) *types.PlaceholderInfo {
	for _, t := range preferred {
		for i := range p.layout.Placeholders {
			ph := &p.layout.Placeholders[i]
			if ph.Type == t && !p.used[ph.Idx] {
				return ph
			}
		}
	}
	return nil
}

func (p *slidePopulator) add(ph *types.PlaceholderInfo, el Element) {
	el.PlaceholderIdx = ph.Idx
	el.PlaceholderType = ph.Type
	p.used[ph.Idx] = true
	p.elements = append(p.elements, el)
}

func (p *slidePopulator) warnf(format string, args ...any) {
	p.warnings = append(p.warnings, fmt.Sprintf(format, args...))
}

// setTitle replaces the title placeholder text. Layouts without a title
// placeholder are left alone.
func (p *slidePopulator) setTitle(title string) {
	if title == "" {
		return
	}
	ph := p.findByType(types.PlaceholderTitle, types.PlaceholderCenterTitle)
	if ph == nil {
		return
	}
	p.add(ph, Element{
		Kind:          ElementText,
		Text:          title,
		EastAsianFont: eastAsianFontFor(title),
	})
}

// setBullets fills the primary text placeholder. Priority BODY then OBJECT.
func (p *slidePopulator) setBullets(content types.SlideContent) {
	bullets := content.Bullets
	if len(bullets) == 0 {
		for _, text := range content.BulletPoints {
			bullets = append(bullets, types.BulletPoint{Text: text})
		}
	}
	if len(bullets) == 0 {
		return
	}

	ph := p.findByType(types.PlaceholderBody, types.PlaceholderObject)
	if ph == nil {
		p.warnf("no suitable placeholder found for text on slide '%s'", content.Title)
		return
	}
	p.add(ph, Element{
		Kind:          ElementBullets,
		Bullets:       bullets,
		ThemeColor:    content.ThemeColor,
		EastAsianFont: eastAsianFontForBullets(bullets),
	})
}

// setRightBullets fills the second BODY placeholder on two-column layouts.
func (p *slidePopulator) setRightBullets(content types.SlideContent) {
	if len(content.BulletsRight) == 0 {
		return
	}
	ph := p.findByType(types.PlaceholderBody)
	if ph == nil {
		p.warnf("no second body placeholder for right column on slide '%s'", content.Title)
		return
	}
	p.add(ph, Element{
		Kind:          ElementBullets,
		Bullets:       content.BulletsRight,
		ThemeColor:    content.ThemeColor,
		EastAsianFont: eastAsianFontForBullets(content.BulletsRight),
	})
}

// setImage records a fetched image. Priority PICTURE, OBJECT, then BODY.
func (p *slidePopulator) setImage(content types.SlideContent, assetPath string) {
	ph := p.findByType(types.PlaceholderPicture, types.PlaceholderObject, types.PlaceholderBody)
	if ph == nil {
		p.warnf("no suitable placeholder found for image on slide '%s'", content.Title)
		return
	}
	p.add(ph, Element{
		Kind:      ElementImage,
		ImagePath: assetPath,
		ImageURL:  content.ImageURL,
		Caption:   content.ImageCaption,
	})
}

// setChart records a chart. Priority CHART, OBJECT, then BODY.
func (p *slidePopulator) setChart(content types.SlideContent) {
	ph := p.findByType(types.PlaceholderChart, types.PlaceholderObject, types.PlaceholderBody)
	if ph == nil {
		p.warnf("no suitable placeholder found for chart on slide '%s'", content.Title)
		return
	}
	chart := *content.Chart
	chart.Type = normalizeChartType(chart.Type)
	p.add(ph, Element{Kind: ElementChart, Chart: &chart})
}

// normalizeChartType maps a chart type tag to a known type, defaulting to
// COLUMN_CLUSTERED.
func normalizeChartType(t string) string {
	switch strings.ToUpper(t) {
	case "COLUMN_CLUSTERED", "BAR_CLUSTERED", "LINE", "PIE", "AREA":
		return strings.ToUpper(t)
	default:
		return "COLUMN_CLUSTERED"
	}
}

// containsEastAsian reports whether the text has CJK characters, covering
// the common Japanese and CJK-ideograph ranges plus fullwidth forms.
func containsEastAsian(text string) bool {
	for _, r := range text {
		switch {
		case r >= 0x3000 && r <= 0x303f, // punctuation
			r >= 0x3040 && r <= 0x309f, // hiragana
			r >= 0x30a0 && r <= 0x30ff, // katakana
			r >= 0x4e00 && r <= 0x9faf, // ideographs
			r >= 0xff00 && r <= 0xffef: // fullwidth forms
			return true
		}
	}
	return false
}

func eastAsianFontFor(text string) string {
	if containsEastAsian(text) {
		return eastAsianFont
	}
	return ""
}

func eastAsianFontForBullets(bullets []types.BulletPoint) string {
	for _, b := range bullets {
		if containsEastAsian(b.Text) {
			return eastAsianFont
		}
	}
	return ""
}
