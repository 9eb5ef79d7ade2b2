// Package types holds the shared data model for slide content and template
// structure. These are passive carriers passed between the analysis,
// intelligence, and generation layers.
package types

// BulletPoint is a single bullet with an indent level (0-2).
type BulletPoint struct {
	Text  string `json:"text"`
	Level int    `json:"level"`
}

// ChartSeries is one named data series for a chart.
type ChartSeries struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// ChartData describes a chart to render on a slide.
type ChartData struct {
	Title      string        `json:"title"`
	Categories []string      `json:"categories"`
	Series     []ChartSeries `json:"series"`
	// Type is a chart type tag: COLUMN_CLUSTERED (default), BAR_CLUSTERED,
	// LINE, PIE, AREA. Unknown tags fall back to COLUMN_CLUSTERED.
	Type string `json:"type,omitempty"`
}

// SlideContent is the generation-layer slide shape consumed by the
// presentation generator. LayoutIndex refers to a concrete layout slot in
// the target template.
type SlideContent struct {
	LayoutIndex int    `json:"layout_index"`
	Title       string `json:"title"`

	// BulletPoints is a flat list of plain strings. Bullets, when set, is
	// preferred by the generator and carries indent levels.
	BulletPoints []string      `json:"bullet_points,omitempty"`
	Bullets      []BulletPoint `json:"bullets,omitempty"`

	// BulletsRight populates the second BODY placeholder on two-column
	// layouts. The generator degrades gracefully when the layout has only
	// one body.
	BulletsRight []BulletPoint `json:"bullets_right,omitempty"`

	ImageURL     string     `json:"image_url,omitempty"`
	ImageCaption string     `json:"image_caption,omitempty"`
	Chart        *ChartData `json:"chart,omitempty"`
	ThemeColor   string     `json:"theme_color,omitempty"`
}

// PresentationPlan is a titled, ordered set of slides.
type PresentationPlan struct {
	Topic  string         `json:"topic"`
	Slides []SlideContent `json:"slides"`
}
