package endpoints

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/slidesmith/slidesmith/internal/api"
	"github.com/slidesmith/slidesmith/internal/markdown"
	"github.com/slidesmith/slidesmith/internal/ratelimit"
	"github.com/slidesmith/slidesmith/internal/svcctx"
)

// ParseMarkdownRequest is the body for POST /api/parse-markdown.
type ParseMarkdownRequest struct {
	Content string `json:"content"`
}

// MarkdownSyntaxError is the structured 400 body for unusable Markdown.
type MarkdownSyntaxError struct {
	Error   string `json:"error"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Message string `json:"message"`
}

// ParseMarkdownEndpoint handles POST /api/parse-markdown.
type ParseMarkdownEndpoint struct {
	Limiter *ratelimit.Limiter
}

var _ api.Endpoint = (*ParseMarkdownEndpoint)(nil)

func (e *ParseMarkdownEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/parse-markdown", limited(e.Limiter, e.handler)
}

func (e *ParseMarkdownEndpoint) RequiresInit() bool { return true }

func (e *ParseMarkdownEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req ParseMarkdownRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	parser := svcctx.MarkdownFrom(r.Context())
	if parser == nil {
		writeError(w, http.StatusServiceUnavailable, "markdown parser not initialized")
		return
	}

	result, err := parser.Parse(req.Content)
	if err != nil {
		var synErr *markdown.SyntaxError
		if errors.As(err, &synErr) {
			writeJSON(w, http.StatusBadRequest, MarkdownSyntaxError{
				Error:   "markdown syntax error",
				Line:    synErr.Line,
				Column:  synErr.Column,
				Message: synErr.Message,
			})
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (e *ParseMarkdownEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "parse-markdown <file.md>",
		Short: "Parse a Markdown outline into slides",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			client := api.NewClient(getServerURL())
			var resp markdown.ParseResult
			req := ParseMarkdownRequest{Content: string(content)}
			if err := client.Post(cmd.Context(), "/api/parse-markdown", req, &resp); err != nil {
				return err
			}
			if resp.PresentationTitle != "" {
				fmt.Printf("Title: %s\n", resp.PresentationTitle)
			}
			for i, slide := range resp.Slides {
				fmt.Printf("%d. %s (%d bullets)\n", i+1, slide.Title, len(slide.Bullets))
			}
			for _, warning := range resp.Warnings {
				fmt.Printf("warning: %s\n", warning)
			}
			return nil
		},
	}
}
