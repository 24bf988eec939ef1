package playback

import (
	"fmt"
	"log/slog"
	"sync"

	"convoscope/pkg/audio"
	"convoscope/pkg/model"
)

// Resolver turns a clip filename into a playable path. The library
// satisfies this with its source directory.
type Resolver interface {
	FilePath(filename string) string
}

// Status is a snapshot of the sequencer for the UI.
type Status struct {
	ConversationID string `json:"conversation_id"`
	Active         bool   `json:"active"`
	Index          int    `json:"index"` // zero-based position in the playlist
	Total          int    `json:"total"`
	Current        *Item  `json:"current,omitempty"`
}

// Sequencer plays a conversation's parts back to back. Each clip's
// completion callback triggers the next one, so playback runs without a
// dedicated goroutine.
type Sequencer struct {
	mu       sync.Mutex
	player   audio.Service
	resolver Resolver

	conversationID string
	items          []Item
	index          int
	active         bool
	generation     int // invalidates callbacks from a superseded run
}

// NewSequencer creates a Sequencer on top of an audio service.
func NewSequencer(player audio.Service, resolver Resolver) *Sequencer {
	return &Sequencer{player: player, resolver: resolver}
}

// PlayConversation builds a playlist from the conversation and starts it,
// replacing whatever was playing.
func (s *Sequencer) PlayConversation(c *model.Conversation, selections map[int]int) error {
	items, err := BuildPlaylist(c, selections)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return fmt.Errorf("conversation has no clips")
	}

	s.mu.Lock()
	s.player.Stop()
	s.conversationID = c.Key.ID()
	s.items = items
	s.index = 0
	s.active = true
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	slog.Info("Playback: Starting conversation", "id", c.Key.ID(), "clips", len(items))
	return s.playCurrent(gen)
}

// PlayClip plays a single clip outside any sequence.
func (s *Sequencer) PlayClip(filename string) error {
	s.mu.Lock()
	s.active = false
	s.generation++
	s.mu.Unlock()

	return s.player.Play(s.resolver.FilePath(filename), false, nil)
}

func (s *Sequencer) playCurrent(gen int) error {
	s.mu.Lock()
	if gen != s.generation || !s.active || s.index >= len(s.items) {
		s.mu.Unlock()
		return nil
	}
	item := s.items[s.index]
	s.mu.Unlock()

	path := s.resolver.FilePath(item.Filename)
	return s.player.Play(path, false, func() {
		s.advance(gen)
	})
}

func (s *Sequencer) advance(gen int) {
	s.mu.Lock()
	if gen != s.generation || !s.active {
		s.mu.Unlock()
		return
	}
	s.index++
	done := s.index >= len(s.items)
	if done {
		s.active = false
		slog.Debug("Playback: Conversation finished", "id", s.conversationID)
	}
	s.mu.Unlock()

	if done {
		return
	}
	if err := s.playCurrent(gen); err != nil {
		slog.Error("Playback: Failed to advance", "error", err)
		s.mu.Lock()
		s.active = false
		s.mu.Unlock()
	}
}

// Skip jumps to the next clip in the playlist. Returns false when nothing
// is sequencing.
func (s *Sequencer) Skip() bool {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return false
	}
	s.generation++
	gen := s.generation
	s.index++
	if s.index >= len(s.items) {
		s.active = false
		s.mu.Unlock()
		s.player.Stop()
		return false
	}
	s.mu.Unlock()

	s.player.Stop()
	if err := s.playCurrent(gen); err != nil {
		slog.Error("Playback: Skip failed", "error", err)
		return false
	}
	return true
}

// Stop halts the sequence and the player.
func (s *Sequencer) Stop() {
	s.mu.Lock()
	s.active = false
	s.generation++
	s.mu.Unlock()
	s.player.Stop()
}

// Pause pauses the current clip without abandoning the sequence.
func (s *Sequencer) Pause() { s.player.Pause() }

// Resume resumes a paused clip.
func (s *Sequencer) Resume() { s.player.Resume() }

// Status reports the current sequencing state.
func (s *Sequencer) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		ConversationID: s.conversationID,
		Active:         s.active,
		Index:          s.index,
		Total:          len(s.items),
	}
	if s.active && s.index < len(s.items) {
		item := s.items[s.index]
		st.Current = &item
	}
	return st
}
