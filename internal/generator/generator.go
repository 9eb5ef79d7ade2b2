// Package generator renders a populated deck document from slide contents
// and an analyzed template. Each slide's content is written into the layout's
// placeholders by type priority; the result is a self-describing JSON deck
// document with fetched images stored alongside as assets.
package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/slidesmith/slidesmith/internal/types"
)

// DeckFormatVersion identifies the deck document schema.
const DeckFormatVersion = 1

// Deck is a fully populated presentation document.
type Deck struct {
	Version     int         `json:"version"`
	DeckID      string      `json:"deck_id"`
	TemplateID  string      `json:"template_id"`
	GeneratedAt time.Time   `json:"generated_at"`
	Slides      []DeckSlide `json:"slides"`
}

// DeckSlide is one rendered slide: a layout reference plus its populated
// placeholder elements.
type DeckSlide struct {
	LayoutIndex int       `json:"layout_index"`
	LayoutName  string    `json:"layout_name"`
	Elements    []Element `json:"elements"`
}

// Result reports a completed generation.
type Result struct {
	Deck     *Deck
	Path     string
	Warnings []string
}

// Generator builds deck documents.
type Generator struct {
	fetcher *ImageFetcher
	logger  *slog.Logger
}

// NewGenerator creates a generator. A nil fetcher disables image downloads;
// image slides then carry the URL reference only, with a warning.
func NewGenerator(fetcher *ImageFetcher, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{fetcher: fetcher, logger: logger}
}

// Generate populates the template's layouts with the given slides and writes
// the deck document under outputDir. Slides referencing a layout index the
// template doesn't have are skipped with a warning. Image fetch failures
// degrade to warnings; the slide keeps its remaining content.
func (g *Generator) Generate(ctx context.Context, analysis *types.TemplateAnalysis, slides []types.SlideContent, outputDir string) (*Result, error) {
	if analysis == nil || len(analysis.Masters) == 0 {
		return nil, fmt.Errorf("template has no slide masters")
	}
	if len(slides) == 0 {
		return nil, fmt.Errorf("no slides to generate")
	}

	layouts := analysis.Masters[0].Layouts
	deck := &Deck{
		Version:     DeckFormatVersion,
		DeckID:      uuid.New().String(),
		TemplateID:  analysis.TemplateID,
		GeneratedAt: time.Now().UTC(),
	}
	var warnings []string

	for i, content := range slides {
		if content.LayoutIndex < 0 || content.LayoutIndex >= len(layouts) {
			warnings = append(warnings, fmt.Sprintf(
				"slide %d: layout index %d out of range, skipping slide", i+1, content.LayoutIndex))
			continue
		}
		layout := layouts[content.LayoutIndex]
		pop := newSlidePopulator(layout)

		pop.setTitle(content.Title)
		pop.setBullets(content)
		pop.setRightBullets(content)

		if content.ImageURL != "" {
			assetPath, err := g.fetchAsset(ctx, deck.DeckID, i, content.ImageURL, outputDir)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf(
					"slide %d: failed to fetch image: %v", i+1, err))
			} else {
				pop.setImage(content, assetPath)
			}
		}
		if content.Chart != nil {
			pop.setChart(content)
		}

		deck.Slides = append(deck.Slides, DeckSlide{
			LayoutIndex: layout.Index,
			LayoutName:  layout.Name,
			Elements:    pop.elements,
		})
		warnings = append(warnings, pop.warnings...)
	}

	path, err := g.writeDeck(deck, outputDir)
	if err != nil {
		return nil, err
	}

	g.logger.Info("deck generated",
		"deck_id", deck.DeckID,
		"template_id", deck.TemplateID,
		"slides", len(deck.Slides),
		"warnings", len(warnings),
	)
	return &Result{Deck: deck, Path: path, Warnings: warnings}, nil
}

// fetchAsset downloads one slide image into the deck's asset directory and
// returns the stored path relative to outputDir.
func (g *Generator) fetchAsset(ctx context.Context, deckID string, slideIdx int, imageURL, outputDir string) (string, error) {
	if g.fetcher == nil {
		return "", fmt.Errorf("image fetching disabled")
	}
	data, contentType, err := g.fetcher.Fetch(ctx, imageURL)
	if err != nil {
		return "", err
	}

	assetsDir := filepath.Join(outputDir, deckID+"_assets")
	if err := os.MkdirAll(assetsDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create assets dir: %w", err)
	}
	name := fmt.Sprintf("slide_%d%s", slideIdx+1, imageExt(contentType))
	if err := os.WriteFile(filepath.Join(assetsDir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to save image: %w", err)
	}
	return filepath.Join(deckID+"_assets", name), nil
}

func (g *Generator) writeDeck(deck *Deck, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}
	data, err := json.MarshalIndent(deck, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal deck: %w", err)
	}
	path := filepath.Join(outputDir, deck.DeckID+".deck.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write deck: %w", err)
	}
	return path, nil
}

// ReadDeck loads a deck document from disk.
func ReadDeck(path string) (*Deck, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read deck: %w", err)
	}
	var deck Deck
	if err := json.Unmarshal(data, &deck); err != nil {
		return nil, fmt.Errorf("invalid deck document: %w", err)
	}
	return &deck, nil
}
