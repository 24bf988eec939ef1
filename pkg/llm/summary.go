package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Placeholders returned instead of a summary. They travel inside export
// documents, so downstream consumers can recognize them by the bracket.
const (
	PlaceholderNoKey      = "[Summary not available - API key required]"
	PlaceholderThinOnBody = "[Not enough transcribed content for summary]"
)

// Line is one transcribed utterance fed to the summarizer.
type Line struct {
	Speaker string
	Text    string
}

// Summarizer produces a short one-line description of a conversation.
type Summarizer struct {
	provider  Provider
	wordLimit int
}

// NewSummarizer creates a Summarizer. provider may be nil when no API key
// is configured; Summarize then degrades to a placeholder. A wordLimit of
// zero or less falls back to 7.
func NewSummarizer(provider Provider, wordLimit int) *Summarizer {
	if wordLimit <= 0 {
		wordLimit = 7
	}
	return &Summarizer{provider: provider, wordLimit: wordLimit}
}

// Summarize asks the provider for a summary of the conversation between the
// two characters. It never returns an error: failures become bracketed
// placeholder strings so exports always have something to show.
func (s *Summarizer) Summarize(ctx context.Context, char1, char2 string, lines []Line) string {
	if s.provider == nil {
		return PlaceholderNoKey
	}

	var transcribed []string
	for _, line := range lines {
		// Failed transcriptions carry bracketed placeholder text and
		// must not leak into the prompt.
		if line.Text == "" || strings.HasPrefix(line.Text, "[Transcription") {
			continue
		}
		transcribed = append(transcribed, fmt.Sprintf("%s: %s", line.Speaker, line.Text))
	}
	if len(transcribed) < 2 {
		return PlaceholderThinOnBody
	}

	system := fmt.Sprintf(
		"You are a helpful assistant that summarizes conversations in exactly %d words or fewer.",
		s.wordLimit)
	prompt := fmt.Sprintf(
		"Below is a conversation between %s and %s.\nPlease provide a summary of what this conversation is about in NO MORE THAN %d WORDS:\n\n%s\n\nSummary (maximum %d words):",
		char1, char2, s.wordLimit, strings.Join(transcribed, "\n"), s.wordLimit)

	summary, err := s.provider.GenerateText(ctx, system, prompt)
	if err != nil {
		slog.Error("Summary generation failed", "error", err)
		return fmt.Sprintf("[Summary generation failed: %v]", err)
	}

	return LimitWords(strings.TrimSpace(summary), s.wordLimit)
}

// LimitWords truncates text to at most limit words. A truncated summary
// gets a trailing period unless it already ends in punctuation. A limit of
// zero or less means no truncation.
func LimitWords(text string, limit int) string {
	if limit <= 0 {
		return text
	}
	words := strings.Fields(text)
	if len(words) <= limit {
		return text
	}
	out := strings.Join(words[:limit], " ")
	switch out[len(out)-1] {
	case '.', '!', '?':
	default:
		out += "."
	}
	return out
}
