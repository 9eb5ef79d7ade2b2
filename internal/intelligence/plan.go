package intelligence

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/slidesmith/slidesmith/internal/types"
)

// Bullet is a single bullet point in a plan slide.
type Bullet struct {
	Text  string `json:"text"`
	Level int    `json:"level"`
}

// Slide is one slide in a structured presentation plan. Layout type ids are
// abstract catalog ids, not template layout indexes.
type Slide struct {
	LayoutTypeID int      `json:"layout_type_id"`
	Title        string   `json:"title"`
	BodyText     string   `json:"body_text,omitempty"`
	Bullets      []Bullet `json:"bullets,omitempty"`
	RightBullets []Bullet `json:"right_bullets,omitempty"`
	SpeakerNotes string   `json:"speaker_notes,omitempty"`
}

// Plan is the complete structured output of a content structuring call.
type Plan struct {
	PresentationTitle string  `json:"presentation_title"`
	Slides            []Slide `json:"slides"`
}

// ParsePlan decodes and validates LLM output. Unknown fields, constraint
// violations, and two-column structural violations all fail here so the
// retry loop can feed the error back to the model.
func ParsePlan(raw string) (*Plan, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.DisallowUnknownFields()

	var plan Plan
	if err := dec.Decode(&plan); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return &plan, nil
}

// Validate checks the plan against its schema constraints, including the
// two-column invariant the schema alone cannot express.
func (p *Plan) Validate() error {
	if n := utf8.RuneCountInString(p.PresentationTitle); n < 1 || n > 100 {
		return fmt.Errorf("presentation_title must be 1-100 characters (got %d)", n)
	}
	if len(p.Slides) < 1 || len(p.Slides) > 20 {
		return fmt.Errorf("slides must contain 1-20 items (got %d)", len(p.Slides))
	}
	for i := range p.Slides {
		if err := p.Slides[i].validate(); err != nil {
			return fmt.Errorf("slide %d: %w", i+1, err)
		}
	}
	return nil
}

func (s *Slide) validate() error {
	if s.LayoutTypeID < 1 || s.LayoutTypeID > 7 {
		return fmt.Errorf("layout_type_id must be 1-7 (got %d)", s.LayoutTypeID)
	}
	if n := utf8.RuneCountInString(s.Title); n < 1 || n > 100 {
		return fmt.Errorf("title must be 1-100 characters (got %d)", n)
	}
	if n := utf8.RuneCountInString(s.BodyText); n > 800 {
		return fmt.Errorf("body_text must be at most 800 characters (got %d)", n)
	}
	if n := utf8.RuneCountInString(s.SpeakerNotes); n > 500 {
		return fmt.Errorf("speaker_notes must be at most 500 characters (got %d)", n)
	}
	if err := validateBullets("bullets", s.Bullets); err != nil {
		return err
	}
	if err := validateBullets("right_bullets", s.RightBullets); err != nil {
		return err
	}

	// Two-Column slides must carry two balanced, non-empty columns.
	if s.LayoutTypeID == 4 {
		if len(s.Bullets) == 0 || len(s.RightBullets) == 0 {
			return fmt.Errorf("two-column slide requires non-empty bullets and right_bullets")
		}
		if diff := len(s.Bullets) - len(s.RightBullets); diff > 2 || diff < -2 {
			return fmt.Errorf("two-column slide columns differ by more than 2 items (%d vs %d)",
				len(s.Bullets), len(s.RightBullets))
		}
	}
	return nil
}

func validateBullets(field string, bullets []Bullet) error {
	if len(bullets) > 10 {
		return fmt.Errorf("%s must contain at most 10 items (got %d)", field, len(bullets))
	}
	for i, b := range bullets {
		if n := utf8.RuneCountInString(b.Text); n < 1 || n > 200 {
			return fmt.Errorf("%s[%d].text must be 1-200 characters (got %d)", field, i, n)
		}
		if b.Level < 0 || b.Level > 2 {
			return fmt.Errorf("%s[%d].level must be 0-2 (got %d)", field, i, b.Level)
		}
	}
	return nil
}

// ToSlideContent converts a plan slide to renderable slide content bound to
// a concrete template layout index. Speaker notes are dropped: they do not
// appear on the slide surface. Quote/Highlight body text travels as the
// first bullet point, matching how the generator fills body placeholders.
func (s *Slide) ToSlideContent(layoutIndex int) types.SlideContent {
	content := types.SlideContent{
		LayoutIndex: layoutIndex,
		Title:       s.Title,
	}
	if s.BodyText != "" {
		content.BulletPoints = []string{s.BodyText}
	}
	if len(s.Bullets) > 0 {
		content.Bullets = make([]types.BulletPoint, len(s.Bullets))
		for i, b := range s.Bullets {
			content.Bullets[i] = types.BulletPoint{Text: b.Text, Level: b.Level}
		}
	}
	if len(s.RightBullets) > 0 {
		content.BulletsRight = make([]types.BulletPoint, len(s.RightBullets))
		for i, b := range s.RightBullets {
			content.BulletsRight[i] = types.BulletPoint{Text: b.Text, Level: b.Level}
		}
	}
	return content
}
