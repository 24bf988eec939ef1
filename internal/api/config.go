package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"convoscope/pkg/config"
	"convoscope/pkg/library"
	"convoscope/pkg/store"
)

// ConfigHandler handles configuration API requests.
type ConfigHandler struct {
	cfg     *config.Config
	cfgPath string
	lib     *library.Library
	state   store.StateStore
}

// NewConfigHandler creates a new ConfigHandler. Updates are persisted back
// to cfgPath.
func NewConfigHandler(cfg *config.Config, cfgPath string, lib *library.Library, state store.StateStore) *ConfigHandler {
	return &ConfigHandler{
		cfg:     cfg,
		cfgPath: cfgPath,
		lib:     lib,
		state:   state,
	}
}

// ConfigResponse represents the config API response.
type ConfigResponse struct {
	SourceDirectory     string  `json:"source_directory"`
	ExportDirectory     string  `json:"export_directory"`
	TranscribeDirectory string  `json:"transcribe_directory"`
	TranscribeWorkers   int     `json:"transcribe_workers"`
	TranscribeLanguage  string  `json:"transcribe_language"`
	WhisperModel        string  `json:"whisper_model"`
	ChatModel           string  `json:"chat_model"`
	SummaryWordLimit    int     `json:"summary_word_limit"`
	TranslateStrictMode bool    `json:"translate_strict_mode"`
	TranslateTargetLang string  `json:"translate_target_lang"`
	ExcludeRegularPings bool    `json:"exclude_regular_pings"`
	Volume              float64 `json:"volume"`
	HasOpenAIKey        bool    `json:"has_openai_key"`
	HasTranslateKey     bool    `json:"has_translate_key"`
}

// ConfigRequest represents the config API request for updates.
type ConfigRequest struct {
	SourceDirectory     string `json:"source_directory,omitempty"`
	ExportDirectory     string `json:"export_directory,omitempty"`
	TranscribeDirectory string `json:"transcribe_directory,omitempty"`
	TranscribeWorkers   *int   `json:"transcribe_workers,omitempty"`
	TranscribeLanguage  string `json:"transcribe_language,omitempty"`
	SummaryWordLimit    *int   `json:"summary_word_limit,omitempty"`
	TranslateStrictMode *bool  `json:"translate_strict_mode,omitempty"` // Pointer to detect false vs missing
	ExcludeRegularPings *bool  `json:"exclude_regular_pings,omitempty"` // Pointer to detect false vs missing
}

// HandleConfig is a unified handler for all config-related methods, facilitating CORS/OPTIONS.
func (h *ConfigHandler) HandleConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, PUT, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.HandleGetConfig(w, r)
	case http.MethodPut, http.MethodPost:
		h.HandleSetConfig(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleGetConfig returns the current configuration.
func (h *ConfigHandler) HandleGetConfig(w http.ResponseWriter, r *http.Request) {
	volume := h.cfg.Audio.Volume
	if h.state != nil {
		if volStr, ok := h.state.GetState(r.Context(), "volume"); ok {
			var val float64
			if _, err := fmt.Sscanf(volStr, "%f", &val); err == nil {
				volume = val
			}
		}
	}

	writeJSON(w, ConfigResponse{
		SourceDirectory:     h.cfg.Source.Directory,
		ExportDirectory:     h.cfg.Export.Directory,
		TranscribeDirectory: h.cfg.Transcribe.Directory,
		TranscribeWorkers:   h.cfg.Transcribe.Workers,
		TranscribeLanguage:  h.cfg.Transcribe.Language,
		WhisperModel:        h.cfg.OpenAI.WhisperModel,
		ChatModel:           h.cfg.OpenAI.ChatModel,
		SummaryWordLimit:    h.cfg.OpenAI.SummaryWordLimit,
		TranslateStrictMode: h.cfg.Translate.StrictMode,
		TranslateTargetLang: h.cfg.Translate.TargetLang,
		ExcludeRegularPings: h.cfg.Organizer.ExcludeRegularPings,
		Volume:              volume,
		HasOpenAIKey:        h.cfg.OpenAI.Key != "",
		HasTranslateKey:     h.cfg.Translate.Key != "",
	})
}

// HandleSetConfig applies a partial update and persists the file.
func (h *ConfigHandler) HandleSetConfig(w http.ResponseWriter, r *http.Request) {
	var req ConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	rescan := false
	if req.SourceDirectory != "" && req.SourceDirectory != h.cfg.Source.Directory {
		h.cfg.Source.Directory = req.SourceDirectory
		rescan = true
	}
	if req.ExportDirectory != "" {
		h.cfg.Export.Directory = req.ExportDirectory
	}
	if req.TranscribeDirectory != "" {
		h.cfg.Transcribe.Directory = req.TranscribeDirectory
	}
	if req.TranscribeWorkers != nil {
		h.cfg.Transcribe.Workers = *req.TranscribeWorkers
	}
	if req.TranscribeLanguage != "" {
		h.cfg.Transcribe.Language = req.TranscribeLanguage
	}
	if req.SummaryWordLimit != nil {
		h.cfg.OpenAI.SummaryWordLimit = *req.SummaryWordLimit
	}
	if req.TranslateStrictMode != nil {
		h.cfg.Translate.StrictMode = *req.TranslateStrictMode
	}
	if req.ExcludeRegularPings != nil {
		h.cfg.Organizer.ExcludeRegularPings = *req.ExcludeRegularPings
	}

	if err := config.Save(h.cfgPath, h.cfg); err != nil {
		slog.Error("Failed to persist config", "error", err)
		http.Error(w, "failed to save config", http.StatusInternalServerError)
		return
	}

	if rescan && h.lib != nil {
		h.lib.SetDirectory(h.cfg.Source.Directory)
		if err := h.lib.Rescan(); err != nil {
			slog.Error("Rescan after config change failed", "error", err)
		}
	}

	slog.Info("Config updated via API")
	h.HandleGetConfig(w, r)
}
