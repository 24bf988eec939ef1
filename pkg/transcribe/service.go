package transcribe

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"convoscope/pkg/alias"
	"convoscope/pkg/model"
	"convoscope/pkg/playback"
	"convoscope/pkg/store"
)

// partGap is inserted between consecutive clips when stitching a
// conversation transcript together.
const partGap = 1.0

// Resolver turns a clip filename into a readable path.
type Resolver interface {
	FilePath(filename string) string
}

// Service transcribes single clips and whole conversations.
type Service struct {
	whisper      Whisper
	cache        *Cache
	aliases      alias.Table
	resolver     Resolver
	store        store.TranscriptStore // optional
	whisperModel string
}

// NewService wires the transcription service. ts may be nil when no
// database is open; transcripts then live only in the file cache.
func NewService(whisper Whisper, cache *Cache, aliases alias.Table, resolver Resolver, ts store.TranscriptStore, whisperModel string) *Service {
	return &Service{
		whisper:      whisper,
		cache:        cache,
		aliases:      aliases,
		resolver:     resolver,
		store:        ts,
		whisperModel: whisperModel,
	}
}

// TranscribeClip transcribes one clip, serving from the cache unless force
// is set.
func (s *Service) TranscribeClip(ctx context.Context, filename string, force bool) (*model.ClipTranscript, error) {
	if !force {
		if tr, ok := s.cache.Load(filename); ok {
			return tr, nil
		}
	}

	tr, err := s.whisper.Transcribe(ctx, s.resolver.FilePath(filename))
	if err != nil {
		return nil, err
	}
	if err := s.cache.Save(filename, tr); err != nil {
		slog.Warn("Failed to cache transcript", "file", filename, "error", err)
	}
	return tr, nil
}

// TranscribeConversation transcribes the chosen take of every part and
// stitches the segments into one transcript. Timestamps are shifted so each
// clip starts one second after the previous one ends, and every segment is
// tagged with its part number and speaker.
func (s *Service) TranscribeConversation(ctx context.Context, c *model.Conversation, selections map[int]int, force bool) (*model.ConversationTranscript, error) {
	if !force {
		if tr, ok := s.cache.LoadConversation(c.Key.ID()); ok {
			return tr, nil
		}
	}

	items, err := playback.BuildPlaylist(c, selections)
	if err != nil {
		return nil, err
	}

	tr := &model.ConversationTranscript{
		ConversationID: c.Key.ID(),
		Characters:     [2]string{c.Key.CharacterA, c.Key.CharacterB},
		Number:         c.Key.Number,
		Topic:          c.Key.Topic,
		Timestamp:      time.Now(),
	}

	offset := 0.0
	for _, item := range items {
		clip, err := s.TranscribeClip(ctx, item.Filename, force)
		if err != nil {
			return nil, fmt.Errorf("part %d: %w", item.Part, err)
		}

		speaker := s.SpeakerOf(item.Filename)
		for _, seg := range clip.Segments {
			tr.Segments = append(tr.Segments, model.TranscriptSegment{
				Start:   seg.Start + offset,
				End:     seg.End + offset,
				Text:    seg.Text,
				Speaker: speaker,
				Part:    item.Part,
			})
		}
		if n := len(clip.Segments); n > 0 {
			offset = tr.Segments[len(tr.Segments)-1].End + partGap
		}

		if s.store != nil {
			if err := s.store.SaveTranscript(ctx, c.Key.ID(), s.whisperModel, clip); err != nil {
				slog.Warn("Failed to store transcript", "file", item.Filename, "error", err)
			}
		}
	}

	if path, err := s.cache.SaveConversation(tr); err != nil {
		slog.Warn("Failed to save conversation transcript", "id", c.Key.ID(), "error", err)
	} else {
		slog.Info("Conversation transcribed", "id", c.Key.ID(), "path", path, "segments", len(tr.Segments))
	}
	return tr, nil
}

// SpeakerOf derives the speaker from a clip filename: the token before the
// first underscore, run through the alias table.
func (s *Service) SpeakerOf(filename string) string {
	first, _, _ := strings.Cut(filename, "_")
	if s.aliases == nil {
		return first
	}
	return s.aliases.Canonical(first)
}

// FileDate returns the file's modification date in ISO form, or empty when
// the file cannot be statted.
func FileDate(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return ""
	}
	return info.ModTime().Format("2006-01-02")
}
