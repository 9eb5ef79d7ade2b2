// Package intelligence turns raw user text into layout-assigned slide
// content through a two-step LLM pipeline: content structuring with layout
// selection, then conditional overflow detection and resolution.
package intelligence

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/slidesmith/slidesmith/internal/catalog"
	"github.com/slidesmith/slidesmith/internal/layoutmap"
	"github.com/slidesmith/slidesmith/internal/prompts"
	"github.com/slidesmith/slidesmith/internal/prompts/overflowfix"
	"github.com/slidesmith/slidesmith/internal/prompts/structuring"
	"github.com/slidesmith/slidesmith/internal/types"
)

const (
	structuringRetries    = 2
	resolutionRetries     = 1
	maxResolutionAttempts = 2
)

// Invoker issues a single prompt to the configured LLM and returns the
// response body as a JSON string. Providers own transport retries and
// response unwrapping; this package only sees clean candidate JSON.
type Invoker interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

// Result is the outcome of a pipeline run: renderable slides plus
// human-readable warnings for every non-fatal degradation along the way.
type Result struct {
	Slides   []types.SlideContent `json:"slides"`
	Warnings []string             `json:"warnings"`
}

// Service orchestrates the layout intelligence pipeline.
type Service struct {
	catalog   *catalog.Catalog
	mapper    *layoutmap.Mapper
	validator *OverflowValidator
	input     InputValidator
	llm       Invoker
	resolver  *prompts.Resolver
	logger    *slog.Logger
}

// NewService wires the pipeline. The prompt resolver gains the structuring
// and overflow prompts if they are not already registered.
func NewService(cat *catalog.Catalog, mapper *layoutmap.Mapper, validator *OverflowValidator, llm Invoker, resolver *prompts.Resolver, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if resolver == nil {
		resolver = prompts.NewResolver(logger)
	}
	structuring.RegisterPrompts(resolver)
	overflowfix.RegisterPrompts(resolver)
	return &Service{
		catalog:   cat,
		mapper:    mapper,
		validator: validator,
		llm:       llm,
		resolver:  resolver,
		logger:    logger,
	}
}

// Process transforms raw text into layout-assigned slide content.
//
// templateLayouts binds abstract layout type ids to a concrete template's
// layout indexes; when empty, ids pass through as zero-based indexes.
// timeout caps the whole pipeline, shared across every LLM call it makes.
func (s *Service) Process(ctx context.Context, text string, templateLayouts []types.LayoutInfo, timeout time.Duration) (*Result, error) {
	validated, err := s.input.Validate(text)
	if err != nil {
		return nil, err
	}
	if matched := s.input.SuspiciousPatterns(validated); len(matched) > 0 {
		s.logger.Warn("suspicious patterns detected in input text",
			"pattern_count", len(matched),
			"patterns", matched,
			"text_length", len(validated),
		)
	}

	budget := NewTimeoutBudget(time.Now().Add(timeout))
	defs := s.catalog.All()

	var mapping map[int]int
	if len(templateLayouts) > 0 {
		mapping = s.mapper.BuildMapping(templateLayouts, defs)
	}

	// Step 1: content structuring and layout selection.
	s.logger.Info("content structuring started",
		"text_length", len(validated),
		"has_template", len(templateLayouts) > 0,
	)

	prompt, err := s.buildStructuringPrompt(validated)
	if err != nil {
		return nil, err
	}
	plan, err := s.callWithValidation(ctx, prompt, structuringRetries, budget)
	if err != nil {
		return nil, err
	}

	s.logger.Info("content structuring complete",
		"slide_count", len(plan.Slides),
		"presentation_title", plan.PresentationTitle,
	)

	// Step 2: overflow detection and conditional resolution.
	var warnings []string
	results := s.validator.Validate(plan.Slides, defs)
	hasOverflow := anyOverflow(results)

	if hasOverflow && budget.HasTime(MinRetrySeconds) {
		plan, results, hasOverflow, err = s.resolveOverflow(ctx, plan, results, defs, budget)
		if err != nil {
			return nil, err
		}
	} else if hasOverflow {
		s.logger.Warn("overflow resolution skipped",
			"reason", "insufficient_time",
			"remaining_seconds", budget.RemainingSeconds(),
		)
	}

	if hasOverflow {
		for _, r := range results {
			if r.IsOverflow {
				warnings = append(warnings, fmt.Sprintf(
					"slide %d (%q) exceeds its layout capacity by %d characters",
					r.SlideIndex+1, plan.Slides[r.SlideIndex].Title, r.OverflowAmount,
				))
			}
		}
	}

	// Convert to renderable slide content.
	slides := make([]types.SlideContent, 0, len(plan.Slides))
	for i := range plan.Slides {
		slide := &plan.Slides[i]

		var layoutIndex int
		if mapping != nil {
			idx, fallbacks, err := s.mapper.MapTypeToIndex(slide.LayoutTypeID, mapping)
			if err != nil {
				warnings = append(warnings, err.Error())
				idx = 0
			}
			for _, fb := range fallbacks {
				warnings = append(warnings, fb.String())
			}
			layoutIndex = idx
		} else {
			layoutIndex = slide.LayoutTypeID - 1
		}

		slides = append(slides, slide.ToSlideContent(layoutIndex))
	}

	if len(warnings) > 0 {
		s.logger.Warn("pipeline completed with warnings",
			"warning_count", len(warnings),
			"warnings", warnings,
		)
	}

	return &Result{Slides: slides, Warnings: warnings}, nil
}

// resolveOverflow runs up to maxResolutionAttempts overflow resolution
// rounds. Budget exhaustion mid-round is not fatal: the last valid plan is
// kept, possibly still overflowing, and the caller reports it as a warning.
func (s *Service) resolveOverflow(ctx context.Context, plan *Plan, results []OverflowResult, defs []catalog.LayoutTypeDefinition, budget *TimeoutBudget) (*Plan, []OverflowResult, bool, error) {
	overflowCount := 0
	for _, r := range results {
		if r.IsOverflow {
			overflowCount++
		}
	}
	s.logger.Info("overflow resolution started", "overflow_count", overflowCount)

	hasOverflow := true
	attempts := 0
	for hasOverflow && attempts < maxResolutionAttempts && budget.HasTime(MinRetrySeconds) {
		prompt, err := s.buildOverflowPrompt(plan.Slides, results)
		if err != nil {
			return nil, nil, false, err
		}

		revised, err := s.callWithValidation(ctx, prompt, resolutionRetries, budget)
		if err != nil {
			if errors.Is(err, ErrBudgetExhausted) {
				s.logger.Warn("overflow resolution abandoned",
					"reason", "insufficient_time",
					"remaining_seconds", budget.RemainingSeconds(),
				)
				break
			}
			return nil, nil, false, err
		}

		plan = revised
		results = s.validator.Validate(plan.Slides, defs)
		hasOverflow = anyOverflow(results)
		attempts++
	}

	s.logger.Info("overflow resolution complete",
		"resolution_attempts", attempts,
		"overflow_resolved", !hasOverflow,
	)
	return plan, results, hasOverflow, nil
}

// callWithValidation runs one LLM call with validation-driven retries.
// Validation failures append error feedback to the prompt and retry, up to
// maxRetries extra attempts. Before each retry the budget must hold at least
// MinRetrySeconds or the call fails with ErrBudgetExhausted.
func (s *Service) callWithValidation(ctx context.Context, prompt string, maxRetries int, budget *TimeoutBudget) (*Plan, error) {
	for attempt := 0; ; attempt++ {
		if attempt > 0 && !budget.HasTime(MinRetrySeconds) {
			s.logger.Warn("llm retry skipped",
				"attempt", attempt,
				"reason", "insufficient_time",
				"remaining_seconds", budget.RemainingSeconds(),
			)
			return nil, fmt.Errorf("%w: %.1fs remaining", ErrBudgetExhausted, budget.RemainingSeconds())
		}

		s.logger.Info("llm call attempt",
			"attempt", attempt+1,
			"max_attempts", maxRetries+1,
			"prompt_length", len(prompt),
		)

		start := time.Now()
		raw, err := s.llm.Invoke(ctx, prompt)
		if err != nil {
			return nil, fmt.Errorf("llm call failed: %w", err)
		}

		plan, perr := ParsePlan(raw)
		if perr == nil {
			s.logger.Info("llm call succeeded",
				"attempt", attempt+1,
				"latency_ms", time.Since(start).Milliseconds(),
				"response_length", len(raw),
			)
			return plan, nil
		}

		s.logger.Warn("llm output failed validation",
			"attempt", attempt+1,
			"error", perr,
		)
		if attempt >= maxRetries {
			return nil, &PlanValidationError{Attempts: attempt + 1, Err: perr}
		}
		prompt += structuring.RepairSuffix(perr)
	}
}

func (s *Service) buildStructuringPrompt(text string) (string, error) {
	resolved, err := s.resolver.Resolve(structuring.PromptKey)
	if err != nil {
		return "", err
	}
	return structuring.Build(resolved.Text, structuring.Params{
		CatalogContext: s.catalog.PromptContext(),
		Salt:           newSalt(),
		Text:           text,
	})
}

func (s *Service) buildOverflowPrompt(slides []Slide, results []OverflowResult) (string, error) {
	resolved, err := s.resolver.Resolve(overflowfix.PromptKey)
	if err != nil {
		return "", err
	}

	var lines []string
	for _, r := range results {
		if r.IsOverflow {
			lines = append(lines, fmt.Sprintf(
				"Slide %d ('%s'): %d chars (max %d), overflow: %d chars",
				r.SlideIndex+1, slides[r.SlideIndex].Title,
				r.TotalChars, r.MaxCapacity, r.OverflowAmount,
			))
		}
	}

	slidesJSON, err := json.MarshalIndent(slides, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize slides: %w", err)
	}

	return overflowfix.Build(resolved.Text, overflowfix.Params{
		CatalogContext:  s.catalog.PromptContext(),
		OverflowSummary: strings.Join(lines, "\n"),
		SlidesJSON:      string(slidesJSON),
	})
}

func anyOverflow(results []OverflowResult) bool {
	for _, r := range results {
		if r.IsOverflow {
			return true
		}
	}
	return false
}

// newSalt returns a random hex string binding the user content delimiters
// for one request. Content cannot contain a closing tag it cannot predict.
func newSalt() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failure means the process is in a bad state; fall back
		// to a fixed marker rather than crash mid-request.
		return "fallback"
	}
	return hex.EncodeToString(buf)
}
