package api

import (
	"log/slog"
	"net/http"

	"convoscope/pkg/library"
)

// LibraryHandler serves the conversation library endpoints.
type LibraryHandler struct {
	lib *library.Library
	hub *Hub
}

// NewLibraryHandler creates a new LibraryHandler.
func NewLibraryHandler(lib *library.Library, hub *Hub) *LibraryHandler {
	return &LibraryHandler{lib: lib, hub: hub}
}

// HandleCharacters handles GET /api/characters
func (h *LibraryHandler) HandleCharacters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"characters": h.lib.Characters(),
	})
}

// HandlePartners handles GET /api/characters/{name}/partners
func (h *LibraryHandler) HandlePartners(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	partners := h.lib.Partners(name)
	if partners == nil {
		http.Error(w, "unknown character", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{
		"character": name,
		"partners":  partners,
	})
}

// HandleList handles GET /api/conversations?char1=...&char2=...
// char2 may be omitted or "(ALL)" to list every conversation char1 is in.
func (h *LibraryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	char1 := r.URL.Query().Get("char1")
	if char1 == "" {
		http.Error(w, "char1 is required", http.StatusBadRequest)
		return
	}
	char2 := r.URL.Query().Get("char2")

	entries := h.lib.List(char1, char2)
	writeJSON(w, map[string]any{
		"conversations": entries,
		"count":         len(entries),
	})
}

// HandleGet handles GET /api/conversations/{id}
func (h *LibraryHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	c, ok := h.lib.Get(id)
	if !ok {
		http.Error(w, "conversation not found", http.StatusNotFound)
		return
	}

	parts := make([]map[string]any, 0, len(c.Parts))
	for _, part := range c.SortedParts() {
		clips := c.Parts[part]
		takes := make([]map[string]any, 0, len(clips))
		for _, clip := range clips {
			takes = append(takes, map[string]any{
				"filename":  clip.Filename,
				"variation": clip.Variation,
			})
		}
		parts = append(parts, map[string]any{
			"part":  part,
			"takes": takes,
		})
	}

	writeJSON(w, map[string]any{
		"id":       c.Key.ID(),
		"label":    c.Key.Label(),
		"starter":  c.Starter,
		"topic":    c.Key.Topic,
		"complete": c.Complete,
		"reasons":  c.Reasons,
		"parts":    parts,
	})
}

// HandleRescan handles POST /api/library/rescan
func (h *LibraryHandler) HandleRescan(w http.ResponseWriter, r *http.Request) {
	if err := h.lib.Rescan(); err != nil {
		slog.Error("Library rescan failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	stats := h.lib.Stats()
	if h.hub != nil {
		h.hub.Broadcast("library.rescanned", stats)
	}
	writeJSON(w, map[string]any{
		"status":     "ok",
		"stats":      stats,
		"collisions": h.lib.Collisions(),
	})
}
