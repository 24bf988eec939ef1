package api

import (
	"log/slog"
	"net/http"

	"convoscope/pkg/library"
	"convoscope/pkg/store"
	"convoscope/pkg/tracker"
)

// StatsHandler aggregates library and API usage statistics.
type StatsHandler struct {
	tracker     *tracker.Tracker
	lib         *library.Library
	transcripts store.TranscriptStore // optional
	hub         *Hub
}

// NewStatsHandler creates a new StatsHandler. transcripts may be nil.
func NewStatsHandler(t *tracker.Tracker, lib *library.Library, transcripts store.TranscriptStore, hub *Hub) *StatsHandler {
	return &StatsHandler{tracker: t, lib: lib, transcripts: transcripts, hub: hub}
}

// ProviderStatsDTO is the per-provider slice of the stats response.
type ProviderStatsDTO struct {
	CacheHits   int64 `json:"cache_hits"`
	CacheMisses int64 `json:"cache_misses"`
	APISuccess  int64 `json:"api_success"`
	APIFailures int64 `json:"api_errors"`
	HitRate     int64 `json:"hit_rate"`
}

// StatsResponse is the full stats payload.
type StatsResponse struct {
	Library      library.Stats               `json:"library"`
	Transcripts  int                         `json:"transcripts"`
	Providers    map[string]ProviderStatsDTO `json:"providers"`
	EventClients int                         `json:"event_clients"`
}

func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	snapshot := h.tracker.Snapshot()

	resp := StatsResponse{
		Library:   h.lib.Stats(),
		Providers: make(map[string]ProviderStatsDTO),
	}
	if h.hub != nil {
		resp.EventClients = h.hub.ClientCount()
	}
	if h.transcripts != nil {
		count, err := h.transcripts.CountTranscripts(r.Context())
		if err != nil {
			slog.Warn("Failed to count transcripts", "error", err)
		}
		resp.Transcripts = count
	}

	for provider, stats := range snapshot {
		totalCache := stats.CacheHits + stats.CacheMisses
		hitRate := int64(0)
		if totalCache > 0 {
			hitRate = (stats.CacheHits * 100) / totalCache
		}
		resp.Providers[provider] = ProviderStatsDTO{
			CacheHits:   stats.CacheHits,
			CacheMisses: stats.CacheMisses,
			APISuccess:  stats.APISuccess,
			APIFailures: stats.APIFailures,
			HitRate:     hitRate,
		}
	}

	writeJSON(w, resp)
}
