package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"convoscope/pkg/translate"
)

// TranslateHandler serves the export translation endpoints.
type TranslateHandler struct {
	translator translate.Translator
	strict     bool
	hub        *Hub
}

// NewTranslateHandler creates a new TranslateHandler. strict controls the
// default detection mode.
func NewTranslateHandler(translator translate.Translator, strict bool, hub *Hub) *TranslateHandler {
	return &TranslateHandler{translator: translator, strict: strict, hub: hub}
}

// TranslateRequest points at an export document on disk. Strict overrides
// the configured detection mode when present.
type TranslateRequest struct {
	Path   string `json:"path"`
	Strict *bool  `json:"strict,omitempty"`
}

func (h *TranslateHandler) detector(req TranslateRequest) translate.Detector {
	strict := h.strict
	if req.Strict != nil {
		strict = *req.Strict
	}
	return translate.Detector{Strict: strict}
}

// HandleAnalyze handles POST /api/translate/analyze. It reports which lines
// of an export document need translation without changing anything.
func (h *TranslateHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req TranslateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	doc, err := translate.LoadDocument(req.Path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	candidates := translate.Analyze(doc, h.detector(req))
	writeJSON(w, map[string]any{
		"path":       req.Path,
		"candidates": candidates,
		"count":      len(candidates),
	})
}

// HandleApply handles POST /api/translate/apply. It translates every
// candidate line and writes the rewritten document next to the input.
func (h *TranslateHandler) HandleApply(w http.ResponseWriter, r *http.Request) {
	if h.translator == nil {
		http.Error(w, "translation API key not configured", http.StatusConflict)
		return
	}

	var req TranslateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	doc, err := translate.LoadDocument(req.Path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	candidates := translate.Analyze(doc, h.detector(req))
	progress := func(current, total int, status string) {
		if h.hub != nil {
			h.hub.Broadcast("translate.progress", map[string]any{
				"current": current,
				"total":   total,
				"status":  status,
			})
		}
	}
	result := translate.Apply(r.Context(), h.translator, doc, candidates, progress)

	outPath := translate.OutputPath(req.Path)
	if err := translate.WriteDocument(outPath, doc); err != nil {
		slog.Error("Failed to write translated document", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if h.hub != nil {
		h.hub.Broadcast("translate.done", map[string]any{
			"path":       outPath,
			"translated": result.Translated,
			"failed":     result.Failed,
		})
	}
	writeJSON(w, map[string]any{
		"status":     "ok",
		"path":       outPath,
		"candidates": len(candidates),
		"translated": result.Translated,
		"failed":     result.Failed,
	})
}
