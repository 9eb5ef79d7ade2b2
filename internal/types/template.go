package types

// Placeholder type tags as reported by template analysis. These mirror the
// placeholder types found in presentation templates.
const (
	PlaceholderTitle       = "TITLE"
	PlaceholderCenterTitle = "CENTER_TITLE"
	PlaceholderSubtitle    = "SUBTITLE"
	PlaceholderBody        = "BODY"
	PlaceholderObject      = "OBJECT"
	PlaceholderPicture     = "PICTURE"
	PlaceholderChart       = "CHART"
	PlaceholderTable       = "TABLE"
)

// PlaceholderInfo is one typed, positioned content slot within a concrete
// layout. Geometry units are EMUs, as reported by the template.
type PlaceholderInfo struct {
	Idx    int    `json:"idx"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Width  int64  `json:"width"`
	Height int64  `json:"height"`
	Left   int64  `json:"left"`
	Top    int64  `json:"top"`
	// Accepts lists the content kinds the slot can hold: "text", "image",
	// "table", "chart".
	Accepts []string `json:"accepts,omitempty"`
}

// LayoutInfo is one concrete layout slot inside a template. Index is the
// layout's position in the template and is stable for the template's
// lifetime.
type LayoutInfo struct {
	Index        int               `json:"index"`
	Name         string            `json:"name"`
	Placeholders []PlaceholderInfo `json:"placeholders"`
}

// MasterInfo groups the layouts under one slide master.
type MasterInfo struct {
	Index   int          `json:"index"`
	Name    string       `json:"name"`
	Layouts []LayoutInfo `json:"layouts"`
}

// TemplateAnalysis is the full structure of an analyzed template.
type TemplateAnalysis struct {
	Filename   string       `json:"filename"`
	TemplateID string       `json:"template_id"`
	Masters    []MasterInfo `json:"masters"`
}

// AcceptsKind reports whether the placeholder declares support for the
// given content kind.
func (p PlaceholderInfo) AcceptsKind(kind string) bool {
	for _, a := range p.Accepts {
		if a == kind {
			return true
		}
	}
	return false
}
