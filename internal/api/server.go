package api

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"convoscope/internal/ui"
	"convoscope/pkg/version"
)

// NewServer creates and configures the HTTP server.
// It accepts handlers for all API endpoints and a shutdownFunc for graceful shutdown.
func NewServer(addr string, lib *LibraryHandler, play *PlaybackHandler, trans *TranscribeHandler, exp *ExportHandler, trl *TranslateHandler, cfg *ConfigHandler, stats *StatsHandler, hub *Hub, shutdown func()) *http.Server {
	mux := http.NewServeMux()

	// 1. Health Endpoint
	mux.HandleFunc("GET /health", handleHealth)

	// 2. Version Endpoint
	mux.HandleFunc("GET /api/version", handleVersion)

	// 3. Library Endpoints
	mux.HandleFunc("GET /api/characters", lib.HandleCharacters)
	mux.HandleFunc("GET /api/characters/{name}/partners", lib.HandlePartners)
	mux.HandleFunc("GET /api/conversations", lib.HandleList)
	mux.HandleFunc("GET /api/conversations/{id}", lib.HandleGet)
	mux.HandleFunc("POST /api/library/rescan", lib.HandleRescan)

	// 4. Playback Endpoints
	mux.HandleFunc("POST /api/playback/play", play.HandlePlay)
	mux.HandleFunc("POST /api/playback/control", play.HandleControl)
	mux.HandleFunc("POST /api/playback/volume", play.HandleVolume)
	mux.HandleFunc("GET /api/playback/status", play.HandleStatus)

	// 5. Transcription Endpoints
	if trans != nil {
		mux.HandleFunc("POST /api/conversations/{id}/transcribe", trans.HandleTranscribe)
		mux.HandleFunc("GET /api/conversations/{id}/transcript", trans.HandleTranscript)
	}

	// 6. Export Endpoints
	if exp != nil {
		mux.HandleFunc("POST /api/export", exp.HandleExport)
		mux.HandleFunc("GET /api/exports", exp.HandleListExports)
		mux.HandleFunc("GET /api/conversations/{id}/transcript.html", exp.HandleRenderHTML)
	}

	// 7. Translation Endpoints
	if trl != nil {
		mux.HandleFunc("POST /api/translate/analyze", trl.HandleAnalyze)
		mux.HandleFunc("POST /api/translate/apply", trl.HandleApply)
	}

	// 8. Config Endpoint
	mux.HandleFunc("/api/config", cfg.HandleConfig)

	// 9. Stats and Logs Endpoints
	mux.Handle("GET /api/stats", stats)
	mux.HandleFunc("GET /api/log/latest", handleLatestLog)

	// 10. Event Stream
	mux.HandleFunc("GET /api/events", hub.HandleWS)

	// 11. Shutdown Endpoint
	mux.HandleFunc("POST /api/shutdown", func(w http.ResponseWriter, r *http.Request) {
		slog.Info("Graceful shutdown initiated via API")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("Shutting down...")); err != nil {
			slog.Error("Failed to write shutdown response", "error", err)
		}
		// Call shutdown in a goroutine to allow response to flush
		go func() {
			time.Sleep(100 * time.Millisecond)
			shutdown()
		}()
	})

	// 12. Static Frontend Serving (SPA)
	distFS, err := fs.Sub(ui.DistFS, "dist")
	if err != nil {
		panic(fmt.Sprintf("Failed to subtree dist from embedded assets: %v", err))
	}

	spaFS := &spaFileSystem{root: http.FS(distFS)}
	mux.Handle("/", http.FileServer(spaFS))

	return &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Error("Failed to write health response", "error", err)
	}
}

func handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := fmt.Fprintf(w, `{"version": "%s"}`, version.Version); err != nil {
		slog.Error("Failed to write version response", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
