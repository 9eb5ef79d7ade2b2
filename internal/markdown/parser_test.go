package markdown

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func newTestParser() *Parser {
	return NewParser(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestParseBasicDocument(t *testing.T) {
	doc := `# Quarterly Review

## Revenue

- Up 12% year over year
- New markets opened
  - Japan
  - Brazil

## Outlook

1. Hire
2. Ship
`
	res, err := newTestParser().Parse(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.PresentationTitle != "Quarterly Review" {
		t.Errorf("title = %q", res.PresentationTitle)
	}
	if len(res.Slides) != 2 {
		t.Fatalf("slides = %d", len(res.Slides))
	}
	if len(res.Warnings) != 0 {
		t.Errorf("warnings = %v", res.Warnings)
	}

	first := res.Slides[0]
	if first.Title != "Revenue" || first.LayoutIndex != defaultLayoutIndex {
		t.Errorf("first slide = %+v", first)
	}
	wantBullets := []struct {
		text  string
		level int
	}{
		{"Up 12% year over year", 0},
		{"New markets opened", 0},
		{"Japan", 1},
		{"Brazil", 1},
	}
	if len(first.Bullets) != len(wantBullets) {
		t.Fatalf("bullets = %+v", first.Bullets)
	}
	for i, want := range wantBullets {
		got := first.Bullets[i]
		if got.Text != want.text || got.Level != want.level {
			t.Errorf("bullet %d = %+v, want %+v", i, got, want)
		}
	}

	second := res.Slides[1]
	if len(second.Bullets) != 2 || second.Bullets[0].Text != "Hire" {
		t.Errorf("ordered list bullets = %+v", second.Bullets)
	}
}

func TestParseEmptyInput(t *testing.T) {
	for _, in := range []string{"", "   \n\t  "} {
		_, err := newTestParser().Parse(in)
		var syntaxErr *SyntaxError
		if !errors.As(err, &syntaxErr) {
			t.Fatalf("Parse(%q) err = %v", in, err)
		}
		if syntaxErr.Line != 1 || syntaxErr.Column != 1 {
			t.Errorf("position = %d:%d", syntaxErr.Line, syntaxErr.Column)
		}
	}
}

func TestParseNoSlides(t *testing.T) {
	_, err := newTestParser().Parse("# Only a title\n\nsome prose\n")
	var syntaxErr *SyntaxError
	if !errors.As(err, &syntaxErr) {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(syntaxErr.Message, "## Heading") {
		t.Errorf("message = %q", syntaxErr.Message)
	}
}

func TestParseOversizedInput(t *testing.T) {
	doc := "## X\n\n" + strings.Repeat("a", MaxInputBytes)
	_, err := newTestParser().Parse(doc)
	var syntaxErr *SyntaxError
	if !errors.As(err, &syntaxErr) {
		t.Fatalf("err = %v", err)
	}
}

func TestParseCodeBlocksBecomeBullets(t *testing.T) {
	doc := "## Code\n\n```go\nfunc main() {}\n```\n"
	res, err := newTestParser().Parse(doc)
	if err != nil {
		t.Fatal(err)
	}
	bullets := res.Slides[0].Bullets
	if len(bullets) != 1 || bullets[0].Text != "func main() {}" || bullets[0].Level != 0 {
		t.Errorf("bullets = %+v", bullets)
	}
}

func TestParseDeepNestingIsCapped(t *testing.T) {
	doc := "## Deep\n\n- a\n  - b\n    - c\n      - d\n"
	res, err := newTestParser().Parse(doc)
	if err != nil {
		t.Fatal(err)
	}
	bullets := res.Slides[0].Bullets
	if len(bullets) != 4 {
		t.Fatalf("bullets = %+v", bullets)
	}
	if bullets[3].Level != MaxBulletLevel {
		t.Errorf("deepest level = %d, want %d", bullets[3].Level, MaxBulletLevel)
	}
}

func TestParseImages(t *testing.T) {
	t.Run("valid image attaches to slide", func(t *testing.T) {
		doc := "## Pic\n\n![diagram](https://example.com/arch.png)\n"
		res, err := newTestParser().Parse(doc)
		if err != nil {
			t.Fatal(err)
		}
		if res.Slides[0].ImageURL != "https://example.com/arch.png" {
			t.Errorf("image = %q", res.Slides[0].ImageURL)
		}
		if len(res.Warnings) != 0 {
			t.Errorf("warnings = %v", res.Warnings)
		}
	})

	t.Run("bad protocol is rejected with warning", func(t *testing.T) {
		doc := "## Pic\n\n![x](ftp://example.com/a.png)\n"
		res, err := newTestParser().Parse(doc)
		if err != nil {
			t.Fatal(err)
		}
		if res.Slides[0].ImageURL != "" {
			t.Errorf("image = %q", res.Slides[0].ImageURL)
		}
		if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "protocol") {
			t.Errorf("warnings = %v", res.Warnings)
		}
	})

	t.Run("missing domain is rejected with warning", func(t *testing.T) {
		doc := "## Pic\n\n![x](/relative/a.png)\n"
		res, err := newTestParser().Parse(doc)
		if err != nil {
			t.Fatal(err)
		}
		if res.Slides[0].ImageURL != "" || len(res.Warnings) != 1 {
			t.Errorf("image = %q, warnings = %v", res.Slides[0].ImageURL, res.Warnings)
		}
	})

	t.Run("odd extension is advisory only", func(t *testing.T) {
		doc := "## Pic\n\n![x](https://example.com/image)\n"
		res, err := newTestParser().Parse(doc)
		if err != nil {
			t.Fatal(err)
		}
		if res.Slides[0].ImageURL != "https://example.com/image" {
			t.Errorf("image = %q", res.Slides[0].ImageURL)
		}
		if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "extension") {
			t.Errorf("warnings = %v", res.Warnings)
		}
	})

	t.Run("first of several images wins", func(t *testing.T) {
		doc := "## Pic\n\n![a](https://example.com/a.png)\n\n![b](https://example.com/b.png)\n"
		res, err := newTestParser().Parse(doc)
		if err != nil {
			t.Fatal(err)
		}
		if res.Slides[0].ImageURL != "https://example.com/a.png" {
			t.Errorf("image = %q", res.Slides[0].ImageURL)
		}
	})
}

func TestParseLongHeadingWarns(t *testing.T) {
	long := strings.Repeat("x", MaxHeadingLength+1)
	doc := "# " + long + "\n\n## Slide\n\n- a\n"
	res, err := newTestParser().Parse(doc)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "Presentation title") {
		t.Errorf("warnings = %v", res.Warnings)
	}
}

func TestParseContentBeforeFirstSlideIsDropped(t *testing.T) {
	doc := "- stray bullet\n\n## Real\n\n- kept\n"
	res, err := newTestParser().Parse(doc)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Slides) != 1 {
		t.Fatalf("slides = %d", len(res.Slides))
	}
	bullets := res.Slides[0].Bullets
	if len(bullets) != 1 || bullets[0].Text != "kept" {
		t.Errorf("bullets = %+v", bullets)
	}
}
