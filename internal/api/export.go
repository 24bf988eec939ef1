package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"path/filepath"

	"convoscope/pkg/export"
	"convoscope/pkg/library"
	"convoscope/pkg/store"
	"convoscope/pkg/transcribe"
)

// ExportHandler serves the export endpoints.
type ExportHandler struct {
	builder   *export.Builder
	cache     *transcribe.Cache
	lib       *library.Library
	exports   store.ExportStore // optional
	outputDir string
	hub       *Hub
}

// NewExportHandler creates a new ExportHandler. exports may be nil; the
// run history endpoint then reports an empty list.
func NewExportHandler(builder *export.Builder, cache *transcribe.Cache, lib *library.Library, exports store.ExportStore, outputDir string, hub *Hub) *ExportHandler {
	return &ExportHandler{
		builder:   builder,
		cache:     cache,
		lib:       lib,
		exports:   exports,
		outputDir: outputDir,
		hub:       hub,
	}
}

// ExportRequest names the output file and toggles summary generation.
type ExportRequest struct {
	Filename      string `json:"filename,omitempty"`
	WithSummaries bool   `json:"with_summaries,omitempty"`
}

// HandleExport handles POST /api/export. It builds the full-library export
// document and writes it to the configured output directory.
func (h *ExportHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}

	conversations := h.lib.Conversations()
	if len(conversations) == 0 {
		http.Error(w, "library is empty", http.StatusConflict)
		return
	}

	progress := func(current, total int, status string) {
		if h.hub != nil {
			h.hub.Broadcast("export.progress", map[string]any{
				"current": current,
				"total":   total,
				"status":  status,
			})
		}
	}

	doc := h.builder.BuildDocument(r.Context(), conversations, req.WithSummaries, progress)

	name := req.Filename
	if name == "" {
		name = "conversations_export"
	}
	path, err := h.builder.WriteJSON(r.Context(), doc, filepath.Join(h.outputDir, name))
	if err != nil {
		slog.Error("Export failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if h.hub != nil {
		h.hub.Broadcast("export.done", map[string]any{
			"path":          path,
			"conversations": doc.TotalConversations,
		})
	}
	writeJSON(w, map[string]any{
		"status":        "ok",
		"export_id":     doc.ExportID,
		"path":          path,
		"conversations": doc.TotalConversations,
	})
}

// ExportRunDTO is one recorded export run.
type ExportRunDTO struct {
	ExportID           string `json:"export_id"`
	Path               string `json:"path"`
	TotalConversations int    `json:"total_conversations"`
}

// HandleListExports handles GET /api/exports. It lists past export runs,
// newest first.
func (h *ExportHandler) HandleListExports(w http.ResponseWriter, r *http.Request) {
	runs := []ExportRunDTO{}
	if h.exports != nil {
		records, err := h.exports.ListExports(r.Context())
		if err != nil {
			slog.Error("Failed to list exports", "error", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		for _, rec := range records {
			runs = append(runs, ExportRunDTO{
				ExportID:           rec.ExportID,
				Path:               rec.Path,
				TotalConversations: rec.TotalConversations,
			})
		}
	}
	writeJSON(w, map[string]any{"exports": runs, "count": len(runs)})
}

// HandleRenderHTML handles GET /api/conversations/{id}/transcript.html
// It renders the cached conversation transcript as a shareable HTML page.
func (h *ExportHandler) HandleRenderHTML(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	transcript, ok := h.cache.LoadConversation(id)
	if !ok {
		http.Error(w, "transcript not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write([]byte(export.RenderHTML(transcript))); err != nil {
		slog.Error("Failed to write transcript page", "error", err)
	}
}
