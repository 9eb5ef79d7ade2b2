package endpoints

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/slidesmith/slidesmith/internal/api"
	"github.com/slidesmith/slidesmith/internal/ratelimit"
	"github.com/slidesmith/slidesmith/internal/svcctx"
	"github.com/slidesmith/slidesmith/internal/types"
)

// ResearchRequest is the body for POST /api/research.
type ResearchRequest struct {
	Topic      string `json:"topic"`
	TemplateID string `json:"template_id,omitempty"`
}

// ResearchResponse carries the synthesized slide plan.
type ResearchResponse struct {
	Topic  string               `json:"topic"`
	Slides []types.SlideContent `json:"slides"`
}

// ResearchEndpoint handles POST /api/research.
type ResearchEndpoint struct {
	Limiter *ratelimit.Limiter
}

var _ api.Endpoint = (*ResearchEndpoint)(nil)

func (e *ResearchEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/research", limited(e.Limiter, e.handler)
}

func (e *ResearchEndpoint) RequiresInit() bool { return true }

func (e *ResearchEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req ResearchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if strings.TrimSpace(req.Topic) == "" {
		writeError(w, http.StatusBadRequest, "topic is required")
		return
	}

	agent := svcctx.ResearchFrom(r.Context())
	if agent == nil {
		writeError(w, http.StatusServiceUnavailable, "research agent not initialized")
		return
	}

	layouts, err := resolveLayouts(r.Context(), req.TemplateID)
	if err != nil {
		writeTemplateError(w, err)
		return
	}

	ctx := r.Context()
	if mgr := svcctx.ConfigFrom(ctx); mgr != nil {
		if secs := mgr.Get().Pipeline.ResearchTimeoutSeconds; secs > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, time.Duration(secs)*time.Second)
			defer cancel()
		}
	}

	slides, err := agent.Research(ctx, req.Topic, layouts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, ResearchResponse{Topic: req.Topic, Slides: slides})
}

func (e *ResearchEndpoint) Command(getServerURL func() string) *cobra.Command {
	var templateID string
	cmd := &cobra.Command{
		Use:   "research <topic>",
		Short: "Research a topic and synthesize a slide plan",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ResearchResponse
			req := ResearchRequest{Topic: strings.Join(args, " "), TemplateID: templateID}
			if err := client.Post(cmd.Context(), "/api/research", req, &resp); err != nil {
				return err
			}
			for i, slide := range resp.Slides {
				fmt.Printf("%d. %s (layout %d)\n", i+1, slide.Title, slide.LayoutIndex)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&templateID, "template", "", "template id (defaults to the built-in template)")
	return cmd
}
