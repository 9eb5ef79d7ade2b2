package endpoints

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/slidesmith/slidesmith/internal/api"
	"github.com/slidesmith/slidesmith/internal/prompts"
	"github.com/slidesmith/slidesmith/internal/svcctx"
)

// ListPromptsResponse contains every registered prompt with overrides applied.
type ListPromptsResponse struct {
	Prompts []prompts.ResolvedPrompt `json:"prompts"`
}

// ListPromptsEndpoint handles GET /api/prompts. Operators use it to see the
// current prompt texts and which of them a prompts.yaml override replaced.
type ListPromptsEndpoint struct{}

var _ api.Endpoint = (*ListPromptsEndpoint)(nil)

func (e *ListPromptsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/prompts", e.handler
}

func (e *ListPromptsEndpoint) RequiresInit() bool { return true }

func (e *ListPromptsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	resolver := svcctx.PromptsFrom(r.Context())
	if resolver == nil {
		writeError(w, http.StatusServiceUnavailable, "prompt resolver not initialized")
		return
	}

	writeJSON(w, http.StatusOK, ListPromptsResponse{Prompts: resolver.List()})
}

func (e *ListPromptsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "prompts",
		Short: "List prompts and their override status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ListPromptsResponse
			if err := client.Get(cmd.Context(), "/api/prompts", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
