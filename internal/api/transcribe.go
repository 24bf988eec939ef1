package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"convoscope/pkg/library"
	"convoscope/pkg/transcribe"
)

// TranscribeHandler serves the transcription endpoints.
type TranscribeHandler struct {
	svc   *transcribe.Service
	cache *transcribe.Cache
	lib   *library.Library
	hub   *Hub
}

// NewTranscribeHandler creates a new TranscribeHandler.
func NewTranscribeHandler(svc *transcribe.Service, cache *transcribe.Cache, lib *library.Library, hub *Hub) *TranscribeHandler {
	return &TranscribeHandler{svc: svc, cache: cache, lib: lib, hub: hub}
}

// TranscribeRequest selects takes and forces re-transcription of cached
// clips when Force is set.
type TranscribeRequest struct {
	Selections map[string]int `json:"selections,omitempty"`
	Force      bool           `json:"force,omitempty"`
}

// HandleTranscribe handles POST /api/conversations/{id}/transcribe
func (h *TranscribeHandler) HandleTranscribe(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	c, ok := h.lib.Get(id)
	if !ok {
		http.Error(w, "conversation not found", http.StatusNotFound)
		return
	}

	var req TranscribeRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}
	selections, err := parseSelections(req.Selections)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	transcript, err := h.svc.TranscribeConversation(r.Context(), c, selections, req.Force)
	if err != nil {
		slog.Error("Transcription failed", "conversation", id, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if h.hub != nil {
		h.hub.Broadcast("transcription.done", map[string]string{"conversation": id})
	}
	writeJSON(w, transcript)
}

// HandleTranscript handles GET /api/conversations/{id}/transcript
// It serves only cached transcripts and never calls the transcription API.
func (h *TranscribeHandler) HandleTranscript(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	transcript, ok := h.cache.LoadConversation(id)
	if !ok {
		http.Error(w, "transcript not found", http.StatusNotFound)
		return
	}
	writeJSON(w, transcript)
}
