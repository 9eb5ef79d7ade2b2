// Package research turns a topic into slide contents by searching the web,
// fetching the top pages, and synthesizing a presentation plan with an LLM.
// Search and page fetching are collaborator interfaces; without a configured
// LLM the agent falls back to a deterministic starter plan.
package research

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/slidesmith/slidesmith/internal/prompts"
	researchprompt "github.com/slidesmith/slidesmith/internal/prompts/research"
	"github.com/slidesmith/slidesmith/internal/providers"
	"github.com/slidesmith/slidesmith/internal/types"
)

// searchResultCount is how many search hits are fetched per topic.
const searchResultCount = 3

// maxContextChars caps the research material injected into the synthesis
// prompt.
const maxContextChars = 20000

// SearchResult is one web search hit.
type SearchResult struct {
	Title       string
	URL         string
	Description string
}

// Searcher finds web pages and images for a query.
type Searcher interface {
	Search(ctx context.Context, query string, count int) ([]SearchResult, error)
	SearchImage(ctx context.Context, query string) (string, error)
}

// PageFetcher retrieves a page's readable text content.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Invoker sends one prompt to the configured LLM and returns its text output.
type Invoker interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

// Agent runs the research flow.
type Agent struct {
	searcher Searcher
	fetcher  PageFetcher
	llm      Invoker
	resolver *prompts.Resolver
	logger   *slog.Logger
}

// NewAgent creates a research agent. searcher, fetcher, and llm may each be
// nil; the agent degrades to the mock plan when it cannot search or
// synthesize.
func NewAgent(searcher Searcher, fetcher PageFetcher, llm Invoker, resolver *prompts.Resolver, logger *slog.Logger) *Agent {
	if logger == nil {
		logger = slog.Default()
	}
	if resolver == nil {
		resolver = prompts.NewResolver(logger)
	}
	researchprompt.RegisterPrompts(resolver)
	return &Agent{
		searcher: searcher,
		fetcher:  fetcher,
		llm:      llm,
		resolver: resolver,
		logger:   logger,
	}
}

// Research produces slide contents for the topic. When layouts are given,
// each synthesized slide's layout index is re-selected against them.
func (a *Agent) Research(ctx context.Context, topic string, layouts []types.LayoutInfo) ([]types.SlideContent, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("research topic is empty")
	}
	if a.llm == nil || a.searcher == nil {
		a.logger.Info("research running without LLM, returning starter plan", "topic", topic)
		return MockPlan(topic), nil
	}

	a.logger.Info("starting research", "topic", topic)

	results, err := a.searcher.Search(ctx, topic, searchResultCount)
	if err != nil {
		a.logger.Warn("search failed, returning starter plan", "topic", topic, "error", err)
		return MockPlan(topic), nil
	}

	combined := a.fetchPages(ctx, results)
	if strings.TrimSpace(combined) == "" {
		a.logger.Info("no page content fetched, falling back to search snippets")
		var snippets []string
		for _, r := range results {
			if r.Description != "" {
				snippets = append(snippets, r.Description)
			}
		}
		combined = strings.Join(snippets, "\n")
	}

	slides, err := a.synthesize(ctx, topic, combined)
	if err != nil {
		a.logger.Warn("synthesis failed, returning starter plan", "topic", topic, "error", err)
		return MockPlan(topic), nil
	}

	if len(layouts) > 0 {
		for i := range slides {
			slides[i].LayoutIndex = SelectLayout(slides[i], layouts)
		}
	}
	a.enrichImages(ctx, slides)

	return slides, nil
}

// fetchPages retrieves the result pages concurrently and joins their
// content. Individual fetch failures are logged and skipped.
func (a *Agent) fetchPages(ctx context.Context, results []SearchResult) string {
	if a.fetcher == nil {
		return ""
	}

	contents := make([]string, len(results))
	g, gctx := errgroup.WithContext(ctx)
	for i, res := range results {
		if res.URL == "" {
			continue
		}
		g.Go(func() error {
			content, err := a.fetcher.Fetch(gctx, res.URL)
			if err != nil {
				a.logger.Warn("failed to fetch page", "url", res.URL, "error", err)
				return nil
			}
			contents[i] = content
			return nil
		})
	}
	_ = g.Wait()

	var nonEmpty []string
	for _, c := range contents {
		if strings.TrimSpace(c) != "" {
			nonEmpty = append(nonEmpty, c)
		}
	}
	return strings.Join(nonEmpty, "\n\n---\n\n")
}

// synthesize asks the LLM for a plan and parses it.
func (a *Agent) synthesize(ctx context.Context, topic, material string) ([]types.SlideContent, error) {
	if runes := []rune(material); len(runes) > maxContextChars {
		material = string(runes[:maxContextChars])
	}

	resolved, err := a.resolver.Resolve(researchprompt.PromptKey)
	if err != nil {
		return nil, err
	}
	prompt, err := researchprompt.Build(resolved.Text, researchprompt.Params{
		Topic:   topic,
		Context: material,
	})
	if err != nil {
		return nil, err
	}

	raw, err := a.llm.Invoke(ctx, prompt)
	if err != nil {
		return nil, err
	}

	normalized, err := providers.ParseStructuredJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("LLM output is not valid JSON: %w", err)
	}
	var plan types.PresentationPlan
	if err := json.Unmarshal(normalized, &plan); err != nil {
		return nil, fmt.Errorf("LLM output does not match the plan shape: %w", err)
	}
	if len(plan.Slides) == 0 {
		return nil, fmt.Errorf("LLM returned a plan with no slides")
	}
	return plan.Slides, nil
}

// enrichImages finds image URLs for slides that carry a caption but no URL.
// Lookups run concurrently; failures leave the slide caption-only.
func (a *Agent) enrichImages(ctx context.Context, slides []types.SlideContent) {
	g, gctx := errgroup.WithContext(ctx)
	for i := range slides {
		if slides[i].ImageCaption == "" || slides[i].ImageURL != "" {
			continue
		}
		slide := &slides[i]
		g.Go(func() error {
			url, err := a.searcher.SearchImage(gctx, slide.ImageCaption)
			if err != nil {
				a.logger.Warn("image search failed", "caption", slide.ImageCaption, "error", err)
				return nil
			}
			if url != "" {
				slide.ImageURL = url
				a.logger.Info("found image for slide", "title", slide.Title, "url", url)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// MockPlan is the deterministic starter plan used when research cannot run.
func MockPlan(topic string) []types.SlideContent {
	return []types.SlideContent{
		{
			LayoutIndex:  0,
			Title:        fmt.Sprintf("Introduction to %s", topic),
			BulletPoints: []string{fmt.Sprintf("Overview of %s", topic), "Key importance", "Historical context"},
			ImageCaption: "An introductory conceptual image",
		},
		{
			LayoutIndex:  1,
			Title:        "Key Concepts",
			BulletPoints: []string{"Concept 1", "Concept 2", "Concept 3"},
		},
		{
			LayoutIndex:  1,
			Title:        "Future Trends",
			BulletPoints: []string{"Trend 1", "Trend 2", "Conclusion"},
		},
	}
}
