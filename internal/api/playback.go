package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"convoscope/pkg/audio"
	"convoscope/pkg/library"
	"convoscope/pkg/playback"
	"convoscope/pkg/store"
)

// PlaybackHandler handles playback control endpoints.
type PlaybackHandler struct {
	seq   *playback.Sequencer
	audio audio.Service
	lib   *library.Library
	state store.StateStore
	hub   *Hub
}

// NewPlaybackHandler creates a new PlaybackHandler. state may be nil when
// volume persistence is not wanted.
func NewPlaybackHandler(seq *playback.Sequencer, audioSvc audio.Service, lib *library.Library, state store.StateStore, hub *Hub) *PlaybackHandler {
	return &PlaybackHandler{
		seq:   seq,
		audio: audioSvc,
		lib:   lib,
		state: state,
		hub:   hub,
	}
}

// PlayRequest selects a conversation and optional takes per part. Selection
// keys are part numbers as strings, values are variation numbers.
type PlayRequest struct {
	ConversationID string         `json:"conversation_id"`
	Selections     map[string]int `json:"selections,omitempty"`
}

// ControlRequest represents a playback control command.
type ControlRequest struct {
	Action string `json:"action"` // "pause", "resume", "stop", "skip", "replay"
}

// VolumeRequest represents a volume change request.
type VolumeRequest struct {
	Volume float64 `json:"volume"`
}

// HandlePlay handles POST /api/playback/play
func (h *PlaybackHandler) HandlePlay(w http.ResponseWriter, r *http.Request) {
	var req PlayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	c, ok := h.lib.Get(req.ConversationID)
	if !ok {
		http.Error(w, "conversation not found", http.StatusNotFound)
		return
	}

	selections, err := parseSelections(req.Selections)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.seq.PlayConversation(c, selections); err != nil {
		slog.Error("Playback failed", "conversation", req.ConversationID, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if h.hub != nil {
		h.hub.Broadcast("playback.started", h.seq.Status())
	}
	writeJSON(w, map[string]string{
		"status":       "ok",
		"conversation": req.ConversationID,
	})
}

// HandleControl handles POST /api/playback/control
func (h *PlaybackHandler) HandleControl(w http.ResponseWriter, r *http.Request) {
	var req ControlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	var state string
	switch req.Action {
	case "pause":
		h.seq.Pause()
		state = "paused"
	case "resume":
		h.seq.Resume()
		state = "playing"
	case "stop":
		h.seq.Stop()
		state = "stopped"
	case "skip":
		if h.seq.Skip() {
			state = "skipped"
		} else {
			state = "stopped"
		}
	case "replay":
		if !h.audio.Replay(nil) {
			writeJSON(w, map[string]string{
				"status":  "error",
				"message": "No previous clip to replay",
			})
			return
		}
		state = "replaying"
	default:
		http.Error(w, "unknown action", http.StatusBadRequest)
		return
	}

	slog.Debug("Playback control", "action", req.Action, "state", state)

	if h.hub != nil {
		h.hub.Broadcast("playback.state", map[string]string{"state": state})
	}
	writeJSON(w, map[string]string{
		"status": "ok",
		"state":  state,
	})
}

// HandleVolume handles POST /api/playback/volume
func (h *PlaybackHandler) HandleVolume(w http.ResponseWriter, r *http.Request) {
	var req VolumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	h.audio.SetVolume(req.Volume)

	// Persist volume
	if h.state != nil {
		strVal := fmt.Sprintf("%.2f", req.Volume)
		if err := h.state.SetState(r.Context(), "volume", strVal); err != nil {
			slog.Error("Failed to persist volume", "error", err)
		}
	}

	writeJSON(w, map[string]any{
		"status": "ok",
		"volume": h.audio.Volume(),
	})
}

// StatusResponse represents the playback status.
type StatusResponse struct {
	playback.Status
	IsPlaying    bool    `json:"is_playing"`
	IsPaused     bool    `json:"is_paused"`
	Volume       float64 `json:"volume"`
	PositionSec  float64 `json:"position_sec"`
	DurationSec  float64 `json:"duration_sec"`
	RemainingSec float64 `json:"remaining_sec"`
}

// HandleStatus handles GET /api/playback/status
func (h *PlaybackHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Status:       h.seq.Status(),
		IsPlaying:    h.audio.IsPlaying(),
		IsPaused:     h.audio.IsPaused(),
		Volume:       h.audio.Volume(),
		PositionSec:  h.audio.Position().Seconds(),
		DurationSec:  h.audio.Duration().Seconds(),
		RemainingSec: h.audio.Remaining().Seconds(),
	}
	writeJSON(w, resp)
}

func parseSelections(raw map[string]int) (map[int]int, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	selections := make(map[int]int, len(raw))
	for partStr, variation := range raw {
		part, err := strconv.Atoi(partStr)
		if err != nil {
			return nil, fmt.Errorf("invalid part number %q", partStr)
		}
		selections[part] = variation
	}
	return selections, nil
}
