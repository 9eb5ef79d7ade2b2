package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/slidesmith/slidesmith/internal/api"
	"github.com/slidesmith/slidesmith/internal/ratelimit"
	"github.com/slidesmith/slidesmith/internal/svcctx"
	"github.com/slidesmith/slidesmith/internal/template"
	"github.com/slidesmith/slidesmith/internal/types"
)

// GenerateRequest is the body for POST /api/generate. Slides may be given
// directly, or a topic may be set to have the research flow produce them.
type GenerateRequest struct {
	TemplateID string               `json:"template_id,omitempty"`
	Slides     []types.SlideContent `json:"slides,omitempty"`
	Topic      string               `json:"topic,omitempty"`
}

// GenerateResponse points at the generated deck document.
type GenerateResponse struct {
	DeckID      string   `json:"deck_id"`
	SlideCount  int      `json:"slide_count"`
	DownloadURL string   `json:"download_url"`
	Warnings    []string `json:"warnings,omitempty"`
}

// GenerateEndpoint handles POST /api/generate.
type GenerateEndpoint struct {
	Limiter *ratelimit.Limiter
}

var _ api.Endpoint = (*GenerateEndpoint)(nil)

func (e *GenerateEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/generate", limited(e.Limiter, e.handler)
}

func (e *GenerateEndpoint) RequiresInit() bool { return true }

func (e *GenerateEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	if len(req.Slides) == 0 && strings.TrimSpace(req.Topic) == "" {
		writeError(w, http.StatusBadRequest, "either slides or a topic is required")
		return
	}

	gen := svcctx.GeneratorFrom(r.Context())
	dirs := svcctx.HomeFrom(r.Context())
	store := svcctx.TemplatesFrom(r.Context())
	if gen == nil || dirs == nil || store == nil {
		writeError(w, http.StatusServiceUnavailable, "generator not initialized")
		return
	}

	templateID := req.TemplateID
	if templateID == "" {
		templateID = template.DefaultTemplateID
	}
	analysis, err := store.Analyze(templateID)
	if err != nil {
		writeTemplateError(w, err)
		return
	}

	slides := req.Slides
	if len(slides) == 0 {
		agent := svcctx.ResearchFrom(r.Context())
		if agent == nil {
			writeError(w, http.StatusServiceUnavailable, "research agent not initialized")
			return
		}
		slides, err = agent.Research(r.Context(), req.Topic, template.Layouts(analysis))
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("research failed: %v", err))
			return
		}
	}

	result, err := gen.Generate(r.Context(), analysis, slides, dirs.OutputDir())
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("generation failed: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, GenerateResponse{
		DeckID:      result.Deck.DeckID,
		SlideCount:  len(result.Deck.Slides),
		DownloadURL: "/api/decks/" + result.Deck.DeckID + "/download",
		Warnings:    result.Warnings,
	})
}

func (e *GenerateEndpoint) Command(getServerURL func() string) *cobra.Command {
	var templateID, topic, output string
	cmd := &cobra.Command{
		Use:   "generate [slides.json]",
		Short: "Generate a deck document from slides or a research topic",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := GenerateRequest{TemplateID: templateID, Topic: topic}
			if len(args) == 1 {
				content, err := os.ReadFile(args[0])
				if err != nil {
					return err
				}
				if err := json.Unmarshal(content, &req.Slides); err != nil {
					return fmt.Errorf("invalid slides file: %w", err)
				}
			}

			client := api.NewClient(getServerURL())
			var resp GenerateResponse
			if err := client.Post(cmd.Context(), "/api/generate", req, &resp); err != nil {
				return err
			}
			for _, warning := range resp.Warnings {
				fmt.Printf("warning: %s\n", warning)
			}

			dest := output
			if dest == "" {
				dest = resp.DeckID + ".deck.json"
			}
			if err := client.Download(cmd.Context(), resp.DownloadURL, dest); err != nil {
				return err
			}
			fmt.Printf("Deck %s (%d slides) saved to %s\n", resp.DeckID, resp.SlideCount, dest)
			return nil
		},
	}
	cmd.Flags().StringVar(&templateID, "template", "", "template id (defaults to the built-in template)")
	cmd.Flags().StringVar(&topic, "topic", "", "research topic when no slides file is given")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output path for the deck document")
	return cmd
}

// DownloadDeckEndpoint handles GET /api/decks/{deck_id}/download.
type DownloadDeckEndpoint struct{}

var _ api.Endpoint = (*DownloadDeckEndpoint)(nil)

func (e *DownloadDeckEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/decks/{deck_id}/download", e.handler
}

func (e *DownloadDeckEndpoint) RequiresInit() bool { return true }

func (e *DownloadDeckEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	deckID := r.PathValue("deck_id")
	if _, err := uuid.Parse(deckID); err != nil {
		writeError(w, http.StatusBadRequest, "invalid deck id")
		return
	}

	dirs := svcctx.HomeFrom(r.Context())
	if dirs == nil {
		writeError(w, http.StatusServiceUnavailable, "home directory not initialized")
		return
	}

	path := filepath.Join(dirs.OutputDir(), deckID+".deck.json")
	if _, err := os.Stat(path); err != nil {
		writeError(w, http.StatusNotFound, "deck not found")
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", deckID+".deck.json"))
	http.ServeFile(w, r, path)
}

func (e *DownloadDeckEndpoint) Command(_ func() string) *cobra.Command {
	// The generate command downloads the deck as part of its flow.
	return nil
}
