// Package extract pulls content back out of generated deck documents.
// Content mode returns the slides' text, bullets, images, and charts;
// template mode returns only the structural skeleton. Extracted images are
// copied into a per-extraction session directory and served by id until the
// session expires.
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/slidesmith/slidesmith/internal/generator"
	"github.com/slidesmith/slidesmith/internal/home"
	"github.com/slidesmith/slidesmith/internal/types"
)

// Mode selects what an extraction returns.
type Mode string

const (
	// ModeContent extracts text, images, and charts.
	ModeContent Mode = "content"
	// ModeTemplate extracts structure only: layout references and titles.
	ModeTemplate Mode = "template"
)

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeContent, ModeTemplate:
		return Mode(s), nil
	case "":
		return ModeContent, nil
	default:
		return "", fmt.Errorf("invalid extraction mode: %q", s)
	}
}

// ErrImageNotFound is returned when an extracted image id does not resolve.
var ErrImageNotFound = errors.New("extracted image not found")

// ExtractedImage is one image pulled out of a deck, stored under the
// extraction session and addressable by URL until expiry.
type ExtractedImage struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	URL         string `json:"url"`
	SlideIndex  int    `json:"slide_index"`
	ContentType string `json:"content_type"`
}

// ExtractedChart is chart data pulled out of a deck slide.
type ExtractedChart struct {
	SlideIndex int                 `json:"slide_index"`
	ChartType  string              `json:"chart_type"`
	Categories []string            `json:"categories"`
	Series     []types.ChartSeries `json:"series"`
}

// ExtractedSlide is one slide's extracted content.
type ExtractedSlide struct {
	SlideIndex   int                 `json:"slide_index"`
	LayoutIndex  int                 `json:"layout_index"`
	Title        string              `json:"title,omitempty"`
	BodyText     []string            `json:"body_text,omitempty"`
	BulletPoints []types.BulletPoint `json:"bullet_points,omitempty"`
	ImageRefs    []string            `json:"image_refs,omitempty"`
	Chart        *ExtractedChart     `json:"chart,omitempty"`
}

// Result is one completed extraction session.
type Result struct {
	ExtractionID string           `json:"extraction_id"`
	Filename     string           `json:"filename"`
	ExpiresAt    time.Time        `json:"expires_at"`
	Slides       []ExtractedSlide `json:"slides"`
	Images       []ExtractedImage `json:"images"`
	Warnings     []string         `json:"warnings,omitempty"`
}

// sessionMetadata is written beside each extraction for the cleanup sweeper.
type sessionMetadata struct {
	ExpiresAt  time.Time `json:"expires_at"`
	ImageCount int       `json:"image_count"`
	Filename   string    `json:"filename"`
}

// Extractor extracts content from deck documents.
type Extractor struct {
	dirs    *home.Dir
	baseURL string
	expiry  time.Duration
	logger  *slog.Logger
}

// NewExtractor creates an extractor. baseURL is used to build public image
// URLs; expiry bounds how long extracted images stay available.
func NewExtractor(dirs *home.Dir, baseURL string, expiry time.Duration, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &Extractor{
		dirs:    dirs,
		baseURL: strings.TrimRight(baseURL, "/"),
		expiry:  expiry,
		logger:  logger,
	}
}

// Extract reads the deck document at deckPath and returns its content per
// the given mode. Unsupported elements degrade to warnings, never errors.
func (e *Extractor) Extract(deckPath string, mode Mode) (*Result, error) {
	deck, err := generator.ReadDeck(deckPath)
	if err != nil {
		return nil, err
	}

	extractionID := uuid.New().String()
	imagesDir := e.dirs.ExtractedImagesDir(extractionID)
	if err := os.MkdirAll(imagesDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create extraction dir: %w", err)
	}

	res := &Result{
		ExtractionID: extractionID,
		Filename:     filepath.Base(deckPath),
		ExpiresAt:    time.Now().UTC().Add(e.expiry),
	}

	for i, slide := range deck.Slides {
		extracted := e.extractSlide(slide, i, extractionID, filepath.Dir(deckPath), imagesDir, mode, res)
		res.Slides = append(res.Slides, extracted)
	}

	if err := e.writeMetadata(extractionID, res); err != nil {
		return nil, err
	}

	e.logger.Info("content extracted",
		"extraction_id", extractionID,
		"slide_count", len(res.Slides),
		"image_count", len(res.Images),
		"warning_count", len(res.Warnings),
	)
	return res, nil
}

func (e *Extractor) extractSlide(slide generator.DeckSlide, slideIdx int, extractionID, deckDir, imagesDir string, mode Mode, res *Result) ExtractedSlide {
	out := ExtractedSlide{SlideIndex: slideIdx, LayoutIndex: slide.LayoutIndex}

	for _, el := range slide.Elements {
		switch el.Kind {
		case generator.ElementText:
			if out.Title == "" && isTitleType(el.PlaceholderType) {
				out.Title = strings.TrimSpace(el.Text)
				continue
			}
			if mode == ModeTemplate {
				continue
			}
			if text := strings.TrimSpace(el.Text); text != "" {
				out.BodyText = append(out.BodyText, text)
				out.BulletPoints = append(out.BulletPoints, types.BulletPoint{Text: text})
			}

		case generator.ElementBullets:
			if mode == ModeTemplate {
				continue
			}
			for _, b := range el.Bullets {
				text := strings.TrimSpace(b.Text)
				if text == "" {
					continue
				}
				out.BodyText = append(out.BodyText, text)
				out.BulletPoints = append(out.BulletPoints, types.BulletPoint{Text: text, Level: b.Level})
			}

		case generator.ElementImage:
			if mode == ModeTemplate {
				continue
			}
			img, err := e.copyImage(el, extractionID, slideIdx, deckDir, imagesDir)
			if err != nil {
				res.Warnings = append(res.Warnings, fmt.Sprintf(
					"Slide %d: failed to extract image - %v", slideIdx+1, err))
				continue
			}
			res.Images = append(res.Images, *img)
			out.ImageRefs = append(out.ImageRefs, img.ID)

		case generator.ElementChart:
			if mode == ModeTemplate || el.Chart == nil {
				continue
			}
			out.Chart = &ExtractedChart{
				SlideIndex: slideIdx,
				ChartType:  el.Chart.Type,
				Categories: el.Chart.Categories,
				Series:     el.Chart.Series,
			}

		default:
			res.Warnings = append(res.Warnings, fmt.Sprintf(
				"Slide %d: Unsupported or failed element '%s'", slideIdx+1, el.Kind))
		}
	}
	return out
}

// copyImage copies a deck asset into the extraction session directory.
func (e *Extractor) copyImage(el generator.Element, extractionID string, slideIdx int, deckDir, imagesDir string) (*ExtractedImage, error) {
	if el.ImagePath == "" {
		return nil, fmt.Errorf("image element has no stored asset")
	}
	src, err := os.Open(filepath.Join(deckDir, el.ImagePath))
	if err != nil {
		return nil, fmt.Errorf("asset missing: %w", err)
	}
	defer src.Close()

	imageID := uuid.New().String()
	ext := filepath.Ext(el.ImagePath)
	if ext == "" {
		ext = ".png"
	}
	dst, err := os.Create(filepath.Join(imagesDir, imageID+ext))
	if err != nil {
		return nil, err
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return nil, err
	}

	return &ExtractedImage{
		ID:          imageID,
		Filename:    filepath.Base(el.ImagePath),
		URL:         fmt.Sprintf("%s/api/extracted-images/%s/%s", e.baseURL, extractionID, imageID),
		SlideIndex:  slideIdx,
		ContentType: contentTypeForExt(ext),
	}, nil
}

func (e *Extractor) writeMetadata(extractionID string, res *Result) error {
	meta := sessionMetadata{
		ExpiresAt:  res.ExpiresAt,
		ImageCount: len(res.Images),
		Filename:   res.Filename,
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	path := filepath.Join(e.dirs.ExtractedDir(), extractionID, "metadata.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write extraction metadata: %w", err)
	}
	return nil
}

// ImagePath resolves an extracted image to its file. Both ids must be UUIDs,
// which also blocks path traversal through the URL segments.
func (e *Extractor) ImagePath(extractionID, imageID string) (string, error) {
	if _, err := uuid.Parse(extractionID); err != nil {
		return "", fmt.Errorf("%w: invalid extraction id", ErrImageNotFound)
	}
	if _, err := uuid.Parse(imageID); err != nil {
		return "", fmt.Errorf("%w: invalid image id", ErrImageNotFound)
	}

	if expired, err := e.sessionExpired(extractionID); err != nil || expired {
		return "", fmt.Errorf("%w: %s", ErrImageNotFound, extractionID)
	}

	matches, err := filepath.Glob(filepath.Join(e.dirs.ExtractedImagesDir(extractionID), imageID+".*"))
	if err != nil || len(matches) == 0 {
		return "", fmt.Errorf("%w: %s", ErrImageNotFound, imageID)
	}
	return matches[0], nil
}

func (e *Extractor) sessionExpired(extractionID string) (bool, error) {
	data, err := os.ReadFile(filepath.Join(e.dirs.ExtractedDir(), extractionID, "metadata.json"))
	if err != nil {
		return true, err
	}
	var meta sessionMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return true, err
	}
	return time.Now().UTC().After(meta.ExpiresAt), nil
}

func isTitleType(phType string) bool {
	return phType == types.PlaceholderTitle || phType == types.PlaceholderCenterTitle
}

func contentTypeForExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".svg":
		return "image/svg+xml"
	default:
		return "application/octet-stream"
	}
}
