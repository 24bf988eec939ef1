// Package export assembles conversation export documents and their JSON,
// text and HTML renderings.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"convoscope/pkg/alias"
	"convoscope/pkg/llm"
	"convoscope/pkg/model"
	"convoscope/pkg/store"
	"convoscope/pkg/transcribe"

	"github.com/google/uuid"
)

// NoTranscription is the line placeholder when a clip has no cached
// transcript and transcription was not requested.
const NoTranscription = "[Transcription not available]"

// NoSummary marks conversations exported without summary generation.
const NoSummary = "[Summary not generated]"

// Builder constructs export documents from reconstructed conversations.
type Builder struct {
	aliases    alias.Table
	cache      *transcribe.Cache
	resolver   transcribe.Resolver
	summarizer *llm.Summarizer    // optional
	exports    store.ExportStore  // optional
	summaries  store.SummaryStore // optional
}

// NewBuilder wires the export builder. summarizer, exports and summaries
// may be nil; the builder then falls back to placeholders and skips
// recording.
func NewBuilder(aliases alias.Table, cache *transcribe.Cache, resolver transcribe.Resolver,
	summarizer *llm.Summarizer, exports store.ExportStore, summaries store.SummaryStore) *Builder {
	return &Builder{
		aliases:    aliases,
		cache:      cache,
		resolver:   resolver,
		summarizer: summarizer,
		exports:    exports,
		summaries:  summaries,
	}
}

// Progress reports per-conversation export progress. May be nil.
type Progress func(current, total int, status string)

// BuildDocument creates the all-conversations document. Every take of every
// part becomes a line; cached transcripts are attached, the rest get the
// placeholder. withSummaries asks the summarizer for a one-liner per
// conversation.
func (b *Builder) BuildDocument(ctx context.Context, conversations []*model.Conversation, withSummaries bool, progress Progress) *model.ExportDocument {
	doc := &model.ExportDocument{
		ExportID:           uuid.NewString(),
		ExportDate:         time.Now(),
		TotalConversations: len(conversations),
	}

	sorted := make([]*model.Conversation, len(conversations))
	copy(sorted, conversations)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Key.ID() < sorted[j].Key.ID()
	})

	for i, c := range sorted {
		if progress != nil {
			progress(i+1, len(sorted), fmt.Sprintf("Exporting conversation %d of %d", i+1, len(sorted)))
		}
		doc.Conversations = append(doc.Conversations, b.buildConversation(ctx, c, withSummaries))
	}
	return doc
}

func (b *Builder) buildConversation(ctx context.Context, c *model.Conversation, withSummary bool) *model.ExportConversation {
	out := &model.ExportConversation{
		ConversationID: c.Key.ID(),
		Character1:     c.Key.CharacterA,
		Character2:     c.Key.CharacterB,
		Number:         c.Key.Number,
		Topic:          c.Key.Topic,
		IsComplete:     c.Complete,
		MissingParts:   c.MissingParts,
		Starter:        c.Starter,
		Summary:        NoSummary,
	}

	for _, part := range c.SortedParts() {
		for _, clip := range c.Parts[part] {
			out.Lines = append(out.Lines, b.buildLine(clip))
		}
	}

	if withSummary {
		out.Summary = b.summaryFor(ctx, out)
	}
	return out
}

func (b *Builder) buildLine(clip *model.ClipRecord) *model.ExportLine {
	line := &model.ExportLine{
		Part:          clip.Part,
		Variation:     clip.Variation,
		Speaker:       b.speakerOf(clip.Filename),
		Filename:      clip.Filename,
		Transcription: NoTranscription,
	}
	if tr, ok := b.cache.Load(clip.Filename); ok {
		line.Transcription = tr.Text
		line.HasTranscription = true
	}
	if info, err := os.Stat(b.resolver.FilePath(clip.Filename)); err == nil {
		line.FileCreationDate = info.ModTime().Format(time.RFC3339)
	}
	return line
}

func (b *Builder) speakerOf(filename string) string {
	first, _, _ := strings.Cut(filename, "_")
	if b.aliases == nil {
		return first
	}
	return b.aliases.Canonical(first)
}

// summaryFor returns a cached summary when one exists, otherwise asks the
// summarizer and records the result.
func (b *Builder) summaryFor(ctx context.Context, c *model.ExportConversation) string {
	if b.summaries != nil {
		if summary, ok := b.summaries.GetSummary(ctx, c.ConversationID); ok {
			return summary
		}
	}
	if b.summarizer == nil {
		return llm.PlaceholderNoKey
	}

	lines := make([]llm.Line, 0, len(c.Lines))
	for _, line := range c.Lines {
		if line.HasTranscription {
			lines = append(lines, llm.Line{Speaker: line.Speaker, Text: line.Transcription})
		}
	}
	summary := b.summarizer.Summarize(ctx, c.Character1, c.Character2, lines)

	if b.summaries != nil && !strings.HasPrefix(summary, "[") {
		if err := b.summaries.SaveSummary(ctx, c.ConversationID, summary, ""); err != nil {
			slog.Warn("Failed to store summary", "id", c.ConversationID, "error", err)
		}
	}
	return summary
}

// WriteJSON writes the document and records the export when a store is
// available. Returns the written path.
func (b *Builder) WriteJSON(ctx context.Context, doc *model.ExportDocument, path string) (string, error) {
	if !strings.EqualFold(filepath.Ext(path), ".json") {
		path += ".json"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal export document: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	if b.exports != nil {
		if err := b.exports.RecordExport(ctx, doc.ExportID, path, doc.TotalConversations); err != nil {
			slog.Warn("Failed to record export", "id", doc.ExportID, "error", err)
		}
	}
	slog.Info("Exported conversations", "path", path, "total", doc.TotalConversations)
	return path, nil
}
