package intelligence

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/slidesmith/slidesmith/internal/catalog"
	"github.com/slidesmith/slidesmith/internal/layoutmap"
	"github.com/slidesmith/slidesmith/internal/types"
)

// scriptedInvoker returns canned responses in order, recording every prompt.
// The last response repeats once the script runs out.
type scriptedInvoker struct {
	responses []string
	err       error
	prompts   []string
}

func (m *scriptedInvoker) Invoke(_ context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	i := len(m.prompts) - 1
	if i >= len(m.responses) {
		i = len(m.responses) - 1
	}
	return m.responses[i], nil
}

func newTestService(llm Invoker) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(
		catalog.New(),
		layoutmap.New(logger),
		NewOverflowValidator(logger),
		llm,
		nil,
		logger,
	)
}

const fitPlanJSON = `{
	"presentation_title": "Deck",
	"slides": [
		{"layout_type_id": 2, "title": "Highlights", "bullets": [{"text": "One point", "level": 0}]}
	]
}`

// Section Header (type 3) caps at 120 chars; 15 title + 200 body overflows
// by 95.
var oversizedPlanJSON = `{
	"presentation_title": "Deck",
	"slides": [
		{"layout_type_id": 3, "title": "Product History", "body_text": "` + strings.Repeat("b", 200) + `"}
	]
}`

func TestProcessSingleCallWhenPlanFits(t *testing.T) {
	llm := &scriptedInvoker{responses: []string{fitPlanJSON}}
	svc := newTestService(llm)

	result, err := svc.Process(context.Background(), "Our quarterly highlights", nil, 60*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(llm.prompts) != 1 {
		t.Errorf("expected exactly 1 LLM call, got %d", len(llm.prompts))
	}
	if len(result.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", result.Warnings)
	}
	if len(result.Slides) != 1 {
		t.Fatalf("expected 1 slide, got %d", len(result.Slides))
	}
	// Without a template, layout type ids pass through as zero-based indexes.
	if result.Slides[0].LayoutIndex != 1 {
		t.Errorf("LayoutIndex = %d, want 1", result.Slides[0].LayoutIndex)
	}
}

func TestProcessPromptUsesSaltedDelimiters(t *testing.T) {
	llm := &scriptedInvoker{responses: []string{fitPlanJSON}}
	svc := newTestService(llm)

	userText := "Summarize our roadmap for 2027"
	if _, err := svc.Process(context.Background(), userText, nil, 60*time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	prompt := llm.prompts[0]
	open := regexp.MustCompile(`<user_content_([0-9a-f]{16})>`).FindStringSubmatch(prompt)
	if open == nil {
		t.Fatalf("prompt missing salted opening delimiter:\n%s", prompt)
	}
	if !strings.Contains(prompt, "</user_content_"+open[1]+">") {
		t.Error("closing delimiter does not carry the same salt")
	}
	if !strings.Contains(prompt, userText) {
		t.Error("prompt missing user text")
	}
	if !strings.Contains(prompt, "Max Capacity:") {
		t.Error("prompt missing catalog context")
	}
}

func TestProcessSaltVariesPerRequest(t *testing.T) {
	llm := &scriptedInvoker{responses: []string{fitPlanJSON}}
	svc := newTestService(llm)

	ctx := context.Background()
	if _, err := svc.Process(ctx, "first request", nil, 60*time.Second); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Process(ctx, "second request", nil, 60*time.Second); err != nil {
		t.Fatal(err)
	}

	re := regexp.MustCompile(`<user_content_([0-9a-f]{16})>`)
	s1 := re.FindStringSubmatch(llm.prompts[0])
	s2 := re.FindStringSubmatch(llm.prompts[1])
	if s1 == nil || s2 == nil {
		t.Fatal("salted delimiters missing")
	}
	if s1[1] == s2[1] {
		t.Error("salt reused across requests")
	}
}

func TestProcessResolvesOverflowWithSecondCall(t *testing.T) {
	llm := &scriptedInvoker{responses: []string{oversizedPlanJSON, fitPlanJSON}}
	svc := newTestService(llm)

	result, err := svc.Process(context.Background(), "A long product history", nil, 60*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(llm.prompts) != 2 {
		t.Fatalf("expected exactly 2 LLM calls, got %d", len(llm.prompts))
	}

	// The resolution prompt names the overflowing slide and the overage.
	second := llm.prompts[1]
	if !strings.Contains(second, "Product History") {
		t.Error("resolution prompt missing overflowing slide title")
	}
	if !strings.Contains(second, "overflow: 95 chars") {
		t.Errorf("resolution prompt missing overflow amount:\n%s", second)
	}
	if !strings.Contains(second, "215 chars (max 120)") {
		t.Error("resolution prompt missing measured size and capacity")
	}

	if len(result.Warnings) != 0 {
		t.Errorf("resolved overflow should leave no warnings, got %v", result.Warnings)
	}
}

func TestProcessOverflowSkippedOnLowBudget(t *testing.T) {
	llm := &scriptedInvoker{responses: []string{oversizedPlanJSON}}
	svc := newTestService(llm)

	// 10s budget is under the 15s floor, so resolution never starts.
	result, err := svc.Process(context.Background(), "A long product history", nil, 10*time.Second)
	if err != nil {
		t.Fatalf("overflow without budget must degrade, not fail: %v", err)
	}
	if len(llm.prompts) != 1 {
		t.Errorf("expected 1 LLM call, got %d", len(llm.prompts))
	}
	if len(result.Warnings) != 1 || !strings.Contains(result.Warnings[0], "95 characters") {
		t.Errorf("expected unresolved-overflow warning, got %v", result.Warnings)
	}
	if len(result.Slides) != 1 {
		t.Errorf("oversized plan must still produce slides, got %d", len(result.Slides))
	}
}

func TestProcessOverflowUnresolvedAfterMaxRounds(t *testing.T) {
	// The model keeps returning an oversized plan; two resolution rounds
	// run and the last plan is used with a warning.
	llm := &scriptedInvoker{responses: []string{oversizedPlanJSON}}
	svc := newTestService(llm)

	result, err := svc.Process(context.Background(), "A long product history", nil, 60*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(llm.prompts) != 3 {
		t.Errorf("expected 3 LLM calls (1 structuring + 2 resolution), got %d", len(llm.prompts))
	}
	if len(result.Warnings) == 0 {
		t.Error("expected unresolved-overflow warning")
	}
}

func TestProcessRetriesWithErrorFeedback(t *testing.T) {
	llm := &scriptedInvoker{responses: []string{"this is not json", fitPlanJSON}}
	svc := newTestService(llm)

	result, err := svc.Process(context.Background(), "Quarterly highlights", nil, 60*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(llm.prompts) != 2 {
		t.Fatalf("expected 2 LLM calls, got %d", len(llm.prompts))
	}
	if !strings.Contains(llm.prompts[1], "PREVIOUS ATTEMPT FAILED VALIDATION") {
		t.Error("retry prompt missing error feedback")
	}
	if !strings.HasPrefix(llm.prompts[1], llm.prompts[0]) {
		t.Error("retry prompt should extend the original prompt")
	}
	if len(result.Slides) != 1 {
		t.Errorf("expected 1 slide, got %d", len(result.Slides))
	}
}

func TestProcessValidationExhausted(t *testing.T) {
	llm := &scriptedInvoker{responses: []string{"still not json"}}
	svc := newTestService(llm)

	_, err := svc.Process(context.Background(), "Quarterly highlights", nil, 60*time.Second)
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	var pve *PlanValidationError
	if !errors.As(err, &pve) {
		t.Fatalf("expected PlanValidationError, got %T: %v", err, err)
	}
	if pve.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", pve.Attempts)
	}
	if len(llm.prompts) != 3 {
		t.Errorf("expected 3 LLM calls, got %d", len(llm.prompts))
	}
}

func TestProcessTransportErrorIsFatal(t *testing.T) {
	llm := &scriptedInvoker{err: errors.New("connection refused")}
	svc := newTestService(llm)

	_, err := svc.Process(context.Background(), "Quarterly highlights", nil, 60*time.Second)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("transport error not surfaced: %v", err)
	}
}

func TestProcessRejectsInvalidInput(t *testing.T) {
	llm := &scriptedInvoker{responses: []string{fitPlanJSON}}
	svc := newTestService(llm)

	_, err := svc.Process(context.Background(), "   ", nil, 60*time.Second)
	var ive *InputValidationError
	if !errors.As(err, &ive) {
		t.Fatalf("expected InputValidationError, got %T: %v", err, err)
	}
	if len(llm.prompts) != 0 {
		t.Errorf("no LLM call should happen for invalid input, got %d", len(llm.prompts))
	}

	_, err = svc.Process(context.Background(), strings.Repeat("a", MaxInputChars+1), nil, 60*time.Second)
	if !errors.As(err, &ive) {
		t.Fatalf("expected InputValidationError for over-limit input, got %v", err)
	}
}

func TestProcessMapsLayoutsWithTemplate(t *testing.T) {
	llm := &scriptedInvoker{responses: []string{fitPlanJSON}}
	svc := newTestService(llm)

	layouts := []types.LayoutInfo{
		{Index: 0, Name: "Title Slide", Placeholders: []types.PlaceholderInfo{
			{Idx: 0, Type: types.PlaceholderTitle},
			{Idx: 1, Type: types.PlaceholderSubtitle},
		}},
		{Index: 1, Name: "Title and Content", Placeholders: []types.PlaceholderInfo{
			{Idx: 0, Type: types.PlaceholderTitle},
			{Idx: 1, Type: types.PlaceholderBody},
		}},
	}

	result, err := svc.Process(context.Background(), "Quarterly highlights", layouts, 60*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Title + Bullets (type 2) maps to the Title and Content layout.
	if result.Slides[0].LayoutIndex != 1 {
		t.Errorf("LayoutIndex = %d, want 1", result.Slides[0].LayoutIndex)
	}
}
