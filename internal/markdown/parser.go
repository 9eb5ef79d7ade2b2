// Package markdown converts Markdown text into slide contents. H1 headings
// become the presentation title, H2 headings start new slides, lists become
// bullets with indent levels, code blocks become plain bullets, and image
// links are picked up with protocol validation.
package markdown

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/slidesmith/slidesmith/internal/types"
)

// MaxInputBytes caps accepted Markdown size.
const MaxInputBytes = 100 << 10

// defaultLayoutIndex is the Title and Content layout parsed slides target.
const defaultLayoutIndex = 1

// SyntaxError reports unusable Markdown input with a position.
type SyntaxError struct {
	Line    int
	Column  int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("markdown syntax error at line %d, column %d: %s", e.Line, e.Column, e.Message)
}

// ParseResult is the outcome of parsing one document.
type ParseResult struct {
	PresentationTitle string               `json:"presentation_title,omitempty"`
	Slides            []types.SlideContent `json:"slides"`
	Warnings          []string             `json:"warnings,omitempty"`
}

// Parser converts Markdown documents to slides.
type Parser struct {
	md     goldmark.Markdown
	logger *slog.Logger
}

// NewParser creates a Markdown parser.
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{md: goldmark.New(), logger: logger}
}

// Parse converts content into slides. Empty input, oversized input, and
// documents producing zero slides return a *SyntaxError.
func (p *Parser) Parse(content string) (*ParseResult, error) {
	if strings.TrimSpace(content) == "" {
		return nil, &SyntaxError{Line: 1, Column: 1,
			Message: "Empty Markdown content. Please provide valid Markdown text."}
	}
	if len(content) > MaxInputBytes {
		return nil, &SyntaxError{Line: 1, Column: 1,
			Message: fmt.Sprintf("Markdown content exceeds %d bytes.", MaxInputBytes)}
	}

	source := []byte(content)
	doc := p.md.Parser().Parse(text.NewReader(source))

	builder := &slideBuilder{}
	p.walk(doc, builder, source)
	raw, title, warnings := builder.finalize()

	if len(raw) == 0 {
		return nil, &SyntaxError{Line: 1, Column: 1,
			Message: "No slides found. Use '## Heading' to create slides."}
	}

	slides := make([]types.SlideContent, 0, len(raw))
	for _, s := range raw {
		slide := types.SlideContent{
			LayoutIndex: defaultLayoutIndex,
			Title:       s.title,
			Bullets:     s.bullets,
		}
		if len(s.images) > 0 {
			slide.ImageURL = s.images[0]
		}
		slides = append(slides, slide)
	}

	p.logger.Info("markdown parsed",
		"slide_count", len(slides),
		"title", title,
		"warning_count", len(warnings),
	)
	return &ParseResult{PresentationTitle: title, Slides: slides, Warnings: warnings}, nil
}

// walk dispatches top-level blocks to the builder.
func (p *Parser) walk(node ast.Node, b *slideBuilder, source []byte) {
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		switch n := child.(type) {
		case *ast.Heading:
			b.processHeading(nodeText(n, source), n.Level)
		case *ast.List:
			p.processList(n, b, source, 0)
		case *ast.FencedCodeBlock:
			b.processCodeBlock(blockLines(n, source))
		case *ast.CodeBlock:
			b.processCodeBlock(blockLines(n, source))
		case *ast.Paragraph:
			p.processImages(n, b, source)
		default:
			if child.HasChildren() {
				p.walk(child, b, source)
			}
		}
	}
}

// processList handles bullet and ordered lists, recursing into nested lists
// with an incremented level.
func (p *Parser) processList(list *ast.List, b *slideBuilder, source []byte, level int) {
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		if _, ok := item.(*ast.ListItem); !ok {
			continue
		}
		if text := listItemText(item, source); text != "" {
			b.processListItem(text, level)
		}
		for child := item.FirstChild(); child != nil; child = child.NextSibling() {
			if nested, ok := child.(*ast.List); ok {
				p.processList(nested, b, source, level+1)
			}
		}
	}
}

// processImages extracts image links from a paragraph.
func (p *Parser) processImages(node ast.Node, b *slideBuilder, source []byte) {
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if img, ok := n.(*ast.Image); ok {
			if src := string(img.Destination); src != "" {
				b.processImage(src)
			}
		}
		return ast.WalkContinue, nil
	})
}

// listItemText collects the item's own text, excluding nested lists.
func listItemText(item ast.Node, source []byte) string {
	var parts []string
	for child := item.FirstChild(); child != nil; child = child.NextSibling() {
		switch child.(type) {
		case *ast.Paragraph, *ast.TextBlock:
			parts = append(parts, nodeText(child, source))
		}
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// nodeText concatenates all text segments under a node.
func nodeText(node ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := n.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(source))
		case *ast.String:
			sb.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}

// blockLines reassembles a code block's raw lines.
func blockLines(node ast.Node, source []byte) string {
	var sb strings.Builder
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(source))
	}
	return sb.String()
}
