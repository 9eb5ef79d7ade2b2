package markdown

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/slidesmith/slidesmith/internal/types"
)

// MaxHeadingLength is the advisory ceiling for title lengths.
const MaxHeadingLength = 100

// MaxBulletLevel caps bullet indentation. Deeper nesting is flattened.
const MaxBulletLevel = 2

var validImageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".svg", ".webp"}

// rawSlide accumulates one slide's content during the AST walk.
type rawSlide struct {
	title   string
	bullets []types.BulletPoint
	images  []string
}

// slideBuilder assembles slides from document events: h1 sets the
// presentation title, h2 opens a new slide, everything else attaches to the
// current slide.
type slideBuilder struct {
	slides   []rawSlide
	current  *rawSlide
	title    string
	warnings []string
}

func (b *slideBuilder) processHeading(text string, level int) {
	b.validateHeadingLength(text, level)
	switch level {
	case 1:
		b.title = text
	case 2:
		b.finalizeCurrent()
		b.current = &rawSlide{title: text}
	}
}

func (b *slideBuilder) processListItem(text string, level int) {
	if b.current == nil {
		return
	}
	if level > MaxBulletLevel {
		level = MaxBulletLevel
	}
	b.current.bullets = append(b.current.bullets, types.BulletPoint{
		Text:  strings.TrimSpace(text),
		Level: level,
	})
}

func (b *slideBuilder) processImage(rawURL string) {
	if !b.validateURL(rawURL) {
		return
	}
	b.validateImageExtension(rawURL)
	if b.current != nil {
		b.current.images = append(b.current.images, rawURL)
	}
}

// processCodeBlock attaches code as a plain level-0 bullet.
func (b *slideBuilder) processCodeBlock(code string) {
	if b.current == nil {
		return
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return
	}
	b.current.bullets = append(b.current.bullets, types.BulletPoint{Text: code})
}

func (b *slideBuilder) validateURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		b.warnings = append(b.warnings, fmt.Sprintf("Invalid URL format: %s (%v)", rawURL, err))
		return false
	}
	if u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https" {
		b.warnings = append(b.warnings, fmt.Sprintf(
			"Invalid URL protocol '%s'. Only http, https are supported.", u.Scheme))
		return false
	}
	if u.Host == "" {
		b.warnings = append(b.warnings, fmt.Sprintf("URL missing domain: %s", rawURL))
		return false
	}
	return true
}

func (b *slideBuilder) validateImageExtension(rawURL string) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return
	}
	path := strings.ToLower(u.Path)
	for _, ext := range validImageExtensions {
		if strings.HasSuffix(path, ext) {
			return
		}
	}
	b.warnings = append(b.warnings, fmt.Sprintf(
		"Image URL may not have a valid extension. Supported: %s",
		strings.Join(validImageExtensions, ", ")))
}

func (b *slideBuilder) validateHeadingLength(heading string, level int) {
	if len([]rune(heading)) <= MaxHeadingLength {
		return
	}
	kind := "Slide title"
	if level == 1 {
		kind = "Presentation title"
	}
	b.warnings = append(b.warnings, fmt.Sprintf(
		"%s exceeds %d characters (%d chars). Long headings may not display properly.",
		kind, MaxHeadingLength, len([]rune(heading))))
}

func (b *slideBuilder) finalizeCurrent() {
	if b.current != nil {
		b.slides = append(b.slides, *b.current)
		b.current = nil
	}
}

func (b *slideBuilder) finalize() ([]rawSlide, string, []string) {
	b.finalizeCurrent()
	return b.slides, b.title, b.warnings
}
