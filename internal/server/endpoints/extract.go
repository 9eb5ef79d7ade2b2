package endpoints

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/slidesmith/slidesmith/internal/api"
	"github.com/slidesmith/slidesmith/internal/extract"
	"github.com/slidesmith/slidesmith/internal/ratelimit"
	"github.com/slidesmith/slidesmith/internal/svcctx"
	"github.com/slidesmith/slidesmith/internal/template"
)

// ExtractContentEndpoint handles POST /api/extract-content. The deck comes
// either as a multipart "file" upload or as a "deck_id" referencing a
// previously generated deck. Mode is selected with the "mode" query
// parameter (content or template).
type ExtractContentEndpoint struct {
	Limiter        *ratelimit.Limiter
	MaxUploadBytes int64
}

var _ api.Endpoint = (*ExtractContentEndpoint)(nil)

func (e *ExtractContentEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/extract-content", limited(e.Limiter, e.handler)
}

func (e *ExtractContentEndpoint) RequiresInit() bool { return true }

func (e *ExtractContentEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	mode, err := extract.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	extractor := svcctx.ExtractorFrom(r.Context())
	dirs := svcctx.HomeFrom(r.Context())
	if extractor == nil || dirs == nil {
		writeError(w, http.StatusServiceUnavailable, "extractor not initialized")
		return
	}

	deckPath, cleanup, err := e.resolveDeck(w, r, dirs.OutputDir())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer cleanup()

	result, err := extractor.Extract(deckPath, mode)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("extraction failed: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// resolveDeck returns the path of the deck to extract, from either an
// uploaded file or a deck_id form value.
func (e *ExtractContentEndpoint) resolveDeck(w http.ResponseWriter, r *http.Request, outputDir string) (string, func(), error) {
	noop := func() {}

	maxBytes := e.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		return "", noop, fmt.Errorf("failed to parse form: %w", err)
	}

	if deckID := r.FormValue("deck_id"); deckID != "" {
		if _, err := uuid.Parse(deckID); err != nil {
			return "", noop, errors.New("invalid deck id")
		}
		path := filepath.Join(outputDir, deckID+".deck.json")
		if _, err := os.Stat(path); err != nil {
			return "", noop, errors.New("deck not found")
		}
		return path, noop, nil
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", noop, errors.New("either a deck file or deck_id is required")
	}
	defer file.Close()

	tempDir, err := os.MkdirTemp("", "slidesmith-extract-*")
	if err != nil {
		return "", noop, fmt.Errorf("failed to create temp dir: %w", err)
	}
	cleanup := func() { os.RemoveAll(tempDir) }

	deckPath := filepath.Join(tempDir, template.SafeFilename(header.Filename))
	dst, err := os.Create(deckPath)
	if err != nil {
		cleanup()
		return "", noop, fmt.Errorf("failed to save upload: %w", err)
	}
	_, err = io.Copy(dst, file)
	dst.Close()
	if err != nil {
		cleanup()
		return "", noop, fmt.Errorf("failed to save upload: %w", err)
	}

	return deckPath, cleanup, nil
}

func (e *ExtractContentEndpoint) Command(getServerURL func() string) *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:   "extract-content <deck.json>",
		Short: "Extract slide content from a deck document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp extract.Result
			path := "/api/extract-content?mode=" + mode
			if err := client.PostFile(cmd.Context(), path, "file", args[0], &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "content", "extraction mode: content or template")
	return cmd
}

// ExtractedImageEndpoint serves GET /api/extracted-images/{extraction_id}/{image_id}.
type ExtractedImageEndpoint struct{}

var _ api.Endpoint = (*ExtractedImageEndpoint)(nil)

func (e *ExtractedImageEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/extracted-images/{extraction_id}/{image_id}", e.handler
}

func (e *ExtractedImageEndpoint) RequiresInit() bool { return true }

func (e *ExtractedImageEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	extractor := svcctx.ExtractorFrom(r.Context())
	if extractor == nil {
		writeError(w, http.StatusServiceUnavailable, "extractor not initialized")
		return
	}

	path, err := extractor.ImagePath(r.PathValue("extraction_id"), r.PathValue("image_id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "image not found")
		return
	}

	http.ServeFile(w, r, path)
}

func (e *ExtractedImageEndpoint) Command(_ func() string) *cobra.Command {
	// Images are fetched by URL from extraction results, not via the CLI.
	return nil
}
