package endpoints

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/slidesmith/slidesmith/internal/api"
	"github.com/slidesmith/slidesmith/internal/intelligence"
	"github.com/slidesmith/slidesmith/internal/ratelimit"
	"github.com/slidesmith/slidesmith/internal/svcctx"
	"github.com/slidesmith/slidesmith/internal/template"
	"github.com/slidesmith/slidesmith/internal/types"
)

// LayoutIntelligenceRequest is the body for POST /api/layout-intelligence.
type LayoutIntelligenceRequest struct {
	Text       string `json:"text"`
	TemplateID string `json:"template_id,omitempty"`
}

// LayoutIntelligenceResponse carries the structured slides and any
// non-fatal warnings accumulated along the pipeline.
type LayoutIntelligenceResponse struct {
	Slides   []types.SlideContent `json:"slides"`
	Warnings []string             `json:"warnings,omitempty"`
}

// LayoutIntelligenceEndpoint handles POST /api/layout-intelligence.
type LayoutIntelligenceEndpoint struct {
	Limiter *ratelimit.Limiter
}

var _ api.Endpoint = (*LayoutIntelligenceEndpoint)(nil)

func (e *LayoutIntelligenceEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/layout-intelligence", limited(e.Limiter, e.handler)
}

func (e *LayoutIntelligenceEndpoint) RequiresInit() bool { return true }

func (e *LayoutIntelligenceEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req LayoutIntelligenceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	pipeline := svcctx.PipelineFrom(r.Context())
	if pipeline == nil {
		writeError(w, http.StatusServiceUnavailable, "pipeline not initialized")
		return
	}

	layouts, err := resolveLayouts(r.Context(), req.TemplateID)
	if err != nil {
		writeTemplateError(w, err)
		return
	}

	timeout := 60 * time.Second
	if mgr := svcctx.ConfigFrom(r.Context()); mgr != nil {
		if secs := mgr.Get().Pipeline.LayoutTimeoutSeconds; secs > 0 {
			timeout = time.Duration(secs) * time.Second
		}
	}

	result, err := pipeline.Process(r.Context(), req.Text, layouts, timeout)
	if err != nil {
		writePipelineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, LayoutIntelligenceResponse{
		Slides:   result.Slides,
		Warnings: result.Warnings,
	})
}

func (e *LayoutIntelligenceEndpoint) Command(getServerURL func() string) *cobra.Command {
	var templateID string
	cmd := &cobra.Command{
		Use:   "layout-intelligence <text-file>",
		Short: "Structure raw text into slides with layout assignments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			client := api.NewClient(getServerURL())
			var resp LayoutIntelligenceResponse
			req := LayoutIntelligenceRequest{Text: string(text), TemplateID: templateID}
			if err := client.Post(cmd.Context(), "/api/layout-intelligence", req, &resp); err != nil {
				return err
			}
			for i, slide := range resp.Slides {
				fmt.Printf("%d. %s (layout %d)\n", i+1, slide.Title, slide.LayoutIndex)
			}
			for _, warning := range resp.Warnings {
				fmt.Printf("warning: %s\n", warning)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&templateID, "template", "", "template id (defaults to the built-in template)")
	return cmd
}

// resolveLayouts looks up the template's primary-master layout list. An empty
// id selects the built-in default template. Layout indexes are per master, so
// mapping always targets the same master the generator renders from.
func resolveLayouts(ctx context.Context, templateID string) ([]types.LayoutInfo, error) {
	store := svcctx.TemplatesFrom(ctx)
	if store == nil {
		return nil, fmt.Errorf("template store not initialized")
	}
	if templateID == "" {
		templateID = template.DefaultTemplateID
	}
	analysis, err := store.Analyze(templateID)
	if err != nil {
		return nil, err
	}
	return template.Layouts(analysis), nil
}

// writeTemplateError maps template resolution failures to statuses.
func writeTemplateError(w http.ResponseWriter, err error) {
	if errors.Is(err, template.ErrTemplateNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

// writePipelineError maps pipeline failures to statuses: rejected input is a
// 400, plans the LLM never got right are a 422, and exhausted time budgets
// are a 504.
func writePipelineError(w http.ResponseWriter, err error) {
	var inputErr *intelligence.InputValidationError
	var planErr *intelligence.PlanValidationError
	switch {
	case errors.As(err, &inputErr):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &planErr):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, intelligence.ErrBudgetExhausted), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
