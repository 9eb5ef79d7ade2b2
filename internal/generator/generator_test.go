package generator

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/slidesmith/slidesmith/internal/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func layout(index int, name string, phs ...types.PlaceholderInfo) types.LayoutInfo {
	return types.LayoutInfo{Index: index, Name: name, Placeholders: phs}
}

func ph(idx int, phType string) types.PlaceholderInfo {
	return types.PlaceholderInfo{Idx: idx, Name: phType, Type: phType}
}

func testAnalysis(layouts ...types.LayoutInfo) *types.TemplateAnalysis {
	return &types.TemplateAnalysis{
		TemplateID: "default",
		Masters:    []types.MasterInfo{{Name: "Main", Layouts: layouts}},
	}
}

func TestGenerateWritesDeckDocument(t *testing.T) {
	out := t.TempDir()
	g := NewGenerator(nil, testLogger())
	analysis := testAnalysis(
		layout(0, "Title and Content", ph(0, types.PlaceholderTitle), ph(1, types.PlaceholderBody)),
	)

	res, err := g.Generate(context.Background(), analysis, []types.SlideContent{
		{LayoutIndex: 0, Title: "Intro", Bullets: []types.BulletPoint{{Text: "one"}, {Text: "two", Level: 1}}},
	}, out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("warnings = %v", res.Warnings)
	}

	deck, err := ReadDeck(res.Path)
	if err != nil {
		t.Fatalf("ReadDeck: %v", err)
	}
	if deck.DeckID != res.Deck.DeckID || deck.TemplateID != "default" {
		t.Errorf("deck = %+v", deck)
	}
	if len(deck.Slides) != 1 {
		t.Fatalf("slide count = %d", len(deck.Slides))
	}

	slide := deck.Slides[0]
	if slide.LayoutName != "Title and Content" {
		t.Errorf("layout name = %q", slide.LayoutName)
	}
	if len(slide.Elements) != 2 {
		t.Fatalf("elements = %+v", slide.Elements)
	}
	if slide.Elements[0].Kind != ElementText || slide.Elements[0].Text != "Intro" {
		t.Errorf("title element = %+v", slide.Elements[0])
	}
	if slide.Elements[1].Kind != ElementBullets || len(slide.Elements[1].Bullets) != 2 {
		t.Errorf("bullets element = %+v", slide.Elements[1])
	}
}

func TestGenerateSkipsOutOfRangeLayout(t *testing.T) {
	g := NewGenerator(nil, testLogger())
	analysis := testAnalysis(
		layout(0, "Only", ph(0, types.PlaceholderTitle), ph(1, types.PlaceholderBody)),
	)

	res, err := g.Generate(context.Background(), analysis, []types.SlideContent{
		{LayoutIndex: 5, Title: "Ghost"},
		{LayoutIndex: 0, Title: "Real"},
	}, t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Deck.Slides) != 1 {
		t.Errorf("slides = %d, want 1", len(res.Deck.Slides))
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "out of range") {
		t.Errorf("warnings = %v", res.Warnings)
	}
}

func TestBulletPlaceholderPriority(t *testing.T) {
	// OBJECT comes first in the layout, but BODY wins.
	pop := newSlidePopulator(layout(0, "L", ph(1, types.PlaceholderObject), ph(2, types.PlaceholderBody)))
	pop.setBullets(types.SlideContent{Title: "s", Bullets: []types.BulletPoint{{Text: "a"}}})
	if len(pop.elements) != 1 || pop.elements[0].PlaceholderIdx != 2 {
		t.Errorf("elements = %+v", pop.elements)
	}

	// Without a BODY, OBJECT takes the text.
	pop = newSlidePopulator(layout(0, "L", ph(1, types.PlaceholderObject)))
	pop.setBullets(types.SlideContent{Title: "s", BulletPoints: []string{"a"}})
	if len(pop.elements) != 1 || pop.elements[0].PlaceholderType != types.PlaceholderObject {
		t.Errorf("elements = %+v", pop.elements)
	}

	// Neither → warning.
	pop = newSlidePopulator(layout(0, "L", ph(0, types.PlaceholderTitle)))
	pop.setBullets(types.SlideContent{Title: "s", BulletPoints: []string{"a"}})
	if len(pop.warnings) != 1 {
		t.Errorf("warnings = %v", pop.warnings)
	}
}

func TestBulletsPreferredOverBulletPoints(t *testing.T) {
	pop := newSlidePopulator(layout(0, "L", ph(1, types.PlaceholderBody)))
	pop.setBullets(types.SlideContent{
		Bullets:      []types.BulletPoint{{Text: "leveled", Level: 1}},
		BulletPoints: []string{"flat"},
	})
	got := pop.elements[0].Bullets
	if len(got) != 1 || got[0].Text != "leveled" {
		t.Errorf("bullets = %+v", got)
	}
}

func TestTwoColumnRightBullets(t *testing.T) {
	twoCol := layout(0, "Two Content",
		ph(0, types.PlaceholderTitle), ph(1, types.PlaceholderBody), ph(2, types.PlaceholderBody))

	pop := newSlidePopulator(twoCol)
	content := types.SlideContent{
		Title:        "Compare",
		Bullets:      []types.BulletPoint{{Text: "left"}},
		BulletsRight: []types.BulletPoint{{Text: "right"}},
	}
	pop.setBullets(content)
	pop.setRightBullets(content)

	if len(pop.elements) != 2 {
		t.Fatalf("elements = %+v", pop.elements)
	}
	if pop.elements[0].PlaceholderIdx != 1 || pop.elements[1].PlaceholderIdx != 2 {
		t.Errorf("columns filled as %d, %d", pop.elements[0].PlaceholderIdx, pop.elements[1].PlaceholderIdx)
	}

	// Right bullets on a single-body layout degrade to a warning.
	pop = newSlidePopulator(layout(0, "L", ph(1, types.PlaceholderBody)))
	pop.setBullets(content)
	pop.setRightBullets(content)
	if len(pop.elements) != 1 {
		t.Errorf("elements = %+v", pop.elements)
	}
	if len(pop.warnings) != 1 || !strings.Contains(pop.warnings[0], "second body") {
		t.Errorf("warnings = %v", pop.warnings)
	}
}

func TestImageAndChartPlaceholderPriority(t *testing.T) {
	l := layout(0, "Rich",
		ph(1, types.PlaceholderBody), ph(2, types.PlaceholderPicture), ph(3, types.PlaceholderChart))

	pop := newSlidePopulator(l)
	pop.setImage(types.SlideContent{ImageURL: "https://x/img.png"}, "a/img.png")
	pop.setChart(types.SlideContent{Chart: &types.ChartData{Title: "c", Type: "pie"}})

	if pop.elements[0].PlaceholderType != types.PlaceholderPicture {
		t.Errorf("image went to %q", pop.elements[0].PlaceholderType)
	}
	if pop.elements[1].PlaceholderType != types.PlaceholderChart {
		t.Errorf("chart went to %q", pop.elements[1].PlaceholderType)
	}
	if pop.elements[1].Chart.Type != "PIE" {
		t.Errorf("chart type = %q", pop.elements[1].Chart.Type)
	}
}

func TestNormalizeChartType(t *testing.T) {
	cases := map[string]string{
		"PIE":              "PIE",
		"line":             "LINE",
		"Bar_Clustered":    "BAR_CLUSTERED",
		"SCATTER_WEIRD":    "COLUMN_CLUSTERED",
		"":                 "COLUMN_CLUSTERED",
		"column_clustered": "COLUMN_CLUSTERED",
	}
	for in, want := range cases {
		if got := normalizeChartType(in); got != want {
			t.Errorf("normalizeChartType(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEastAsianFontDetection(t *testing.T) {
	pop := newSlidePopulator(layout(0, "L", ph(0, types.PlaceholderTitle), ph(1, types.PlaceholderBody)))
	pop.setTitle("プレゼン資料")
	pop.setBullets(types.SlideContent{Bullets: []types.BulletPoint{{Text: "plain ascii"}}})

	if pop.elements[0].EastAsianFont != eastAsianFont {
		t.Errorf("title font = %q", pop.elements[0].EastAsianFont)
	}
	if pop.elements[1].EastAsianFont != "" {
		t.Errorf("ascii bullets font = %q", pop.elements[1].EastAsianFont)
	}
}

func TestGenerateFetchesImageAsset(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G'}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(png)
	}))
	defer srv.Close()

	out := t.TempDir()
	g := NewGenerator(NewImageFetcher(testLogger()), testLogger())
	analysis := testAnalysis(
		layout(0, "Picture with Caption",
			ph(0, types.PlaceholderTitle), ph(1, types.PlaceholderPicture), ph(2, types.PlaceholderBody)),
	)

	res, err := g.Generate(context.Background(), analysis, []types.SlideContent{
		{LayoutIndex: 0, Title: "Pic", ImageURL: srv.URL + "/img", ImageCaption: "a caption"},
	}, out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Warnings) != 0 {
		t.Fatalf("warnings = %v", res.Warnings)
	}

	var img *Element
	for i := range res.Deck.Slides[0].Elements {
		if res.Deck.Slides[0].Elements[i].Kind == ElementImage {
			img = &res.Deck.Slides[0].Elements[i]
		}
	}
	if img == nil {
		t.Fatal("no image element")
	}
	if img.Caption != "a caption" || !strings.HasSuffix(img.ImagePath, ".png") {
		t.Errorf("image element = %+v", img)
	}

	data, err := os.ReadFile(filepath.Join(out, img.ImagePath))
	if err != nil {
		t.Fatalf("asset not written: %v", err)
	}
	if string(data) != string(png) {
		t.Error("asset bytes mismatch")
	}
}

func TestGenerateImageFailureIsWarning(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	g := NewGenerator(NewImageFetcher(testLogger()), testLogger())
	analysis := testAnalysis(
		layout(0, "L", ph(0, types.PlaceholderTitle), ph(1, types.PlaceholderPicture)),
	)

	res, err := g.Generate(context.Background(), analysis, []types.SlideContent{
		{LayoutIndex: 0, Title: "Pic", ImageURL: srv.URL + "/missing.png"},
	}, t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "failed to fetch image") {
		t.Errorf("warnings = %v", res.Warnings)
	}
	for _, el := range res.Deck.Slides[0].Elements {
		if el.Kind == ElementImage {
			t.Errorf("unexpected image element: %+v", el)
		}
	}
}

func TestImageFetcherRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("jpg"))
	}))
	defer srv.Close()

	f := NewImageFetcher(testLogger())
	data, contentType, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
	if string(data) != "jpg" || contentType != "image/jpeg" {
		t.Errorf("data = %q, type = %q", data, contentType)
	}
}

func TestImageFetcherDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	f := NewImageFetcher(testLogger())
	if _, _, err := f.Fetch(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestImageFetcherRejectsNonHTTPSchemes(t *testing.T) {
	f := NewImageFetcher(testLogger())
	for _, u := range []string{"ftp://host/x.png", "file:///etc/passwd", "not a url at all://"} {
		if _, _, err := f.Fetch(context.Background(), u); err == nil {
			t.Errorf("Fetch(%q) accepted", u)
		}
	}
}

func TestGenerateRejectsEmptyInput(t *testing.T) {
	g := NewGenerator(nil, testLogger())
	if _, err := g.Generate(context.Background(), nil, []types.SlideContent{{}}, t.TempDir()); err == nil {
		t.Error("nil analysis accepted")
	}
	analysis := testAnalysis(layout(0, "L", ph(0, types.PlaceholderTitle)))
	if _, err := g.Generate(context.Background(), analysis, nil, t.TempDir()); err == nil {
		t.Error("empty slides accepted")
	}
}
