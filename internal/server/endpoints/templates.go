package endpoints

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/slidesmith/slidesmith/internal/api"
	"github.com/slidesmith/slidesmith/internal/ratelimit"
	"github.com/slidesmith/slidesmith/internal/svcctx"
	"github.com/slidesmith/slidesmith/internal/template"
	"github.com/slidesmith/slidesmith/internal/types"
)

// AnalyzeTemplateResponse is returned after a template upload.
type AnalyzeTemplateResponse struct {
	TemplateID string                  `json:"template_id"`
	Filename   string                  `json:"filename"`
	Analysis   *types.TemplateAnalysis `json:"analysis"`
}

// AnalyzeTemplateEndpoint handles POST /api/analyze-template with a
// multipart manifest upload.
type AnalyzeTemplateEndpoint struct {
	Limiter        *ratelimit.Limiter
	MaxUploadBytes int64
}

var _ api.Endpoint = (*AnalyzeTemplateEndpoint)(nil)

func (e *AnalyzeTemplateEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/analyze-template", limited(e.Limiter, e.handler)
}

func (e *AnalyzeTemplateEndpoint) RequiresInit() bool { return true }

func (e *AnalyzeTemplateEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	maxBytes := e.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse form: %v", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no template file uploaded")
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".json") {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("file %s is not a template manifest (.json)", header.Filename))
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to read upload: %v", err))
		return
	}

	store := svcctx.TemplatesFrom(r.Context())
	if store == nil {
		writeError(w, http.StatusServiceUnavailable, "template store not initialized")
		return
	}

	templateID, err := store.SaveUpload(header.Filename, content)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	analysis, err := store.Analyze(templateID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("analysis failed: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, AnalyzeTemplateResponse{
		TemplateID: templateID,
		Filename:   header.Filename,
		Analysis:   analysis,
	})
}

func (e *AnalyzeTemplateEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze-template <manifest.json>",
		Short: "Upload and analyze a template manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp AnalyzeTemplateResponse
			if err := client.PostFile(cmd.Context(), "/api/analyze-template", "file", args[0], &resp); err != nil {
				return err
			}
			fmt.Printf("Template ID: %s\n", resp.TemplateID)
			for _, master := range resp.Analysis.Masters {
				for _, layout := range master.Layouts {
					fmt.Printf("  [%d] %s (%d placeholders)\n", layout.Index, layout.Name, len(layout.Placeholders))
				}
			}
			return nil
		},
	}
}

// ListTemplatesResponse lists stored templates.
type ListTemplatesResponse struct {
	Templates []template.Summary `json:"templates"`
}

// ListTemplatesEndpoint handles GET /api/templates.
type ListTemplatesEndpoint struct{}

var _ api.Endpoint = (*ListTemplatesEndpoint)(nil)

func (e *ListTemplatesEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/templates", e.handler
}

func (e *ListTemplatesEndpoint) RequiresInit() bool { return true }

func (e *ListTemplatesEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	store := svcctx.TemplatesFrom(r.Context())
	if store == nil {
		writeError(w, http.StatusServiceUnavailable, "template store not initialized")
		return
	}

	summaries, err := store.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list templates: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, ListTemplatesResponse{Templates: summaries})
}

func (e *ListTemplatesEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List available templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ListTemplatesResponse
			if err := client.Get(cmd.Context(), "/api/templates", &resp); err != nil {
				return err
			}
			for _, t := range resp.Templates {
				kind := "uploaded"
				if t.BuiltIn {
					kind = "built-in"
				}
				fmt.Printf("%s  %s (%s)\n", t.TemplateID, t.Filename, kind)
			}
			return nil
		},
	}
}
