// Package transcribe turns voice-line clips into text through the OpenAI
// Whisper API, with a per-file JSON cache so each clip is transcribed at
// most once.
package transcribe

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"convoscope/pkg/config"
	"convoscope/pkg/logging"
	"convoscope/pkg/model"

	openai "github.com/sashabaranov/go-openai"
)

// Whisper is the transcription backend. The OpenAI implementation is the
// only one; the interface exists so tests can stub it.
type Whisper interface {
	Transcribe(ctx context.Context, path string) (*model.ClipTranscript, error)
}

// Client implements Whisper on the OpenAI audio API.
type Client struct {
	client   *openai.Client
	model    string
	language string
	prompt   string // custom vocabulary hint, may be empty
}

// NewClient creates a Whisper client. The vocabulary prompt is passed with
// every request; see LoadVocabulary.
func NewClient(ocfg *config.OpenAIConfig, tcfg *config.TranscribeConfig, prompt string) (*Client, error) {
	if ocfg.Key == "" {
		return nil, fmt.Errorf("openai api key is missing")
	}
	whisperModel := ocfg.WhisperModel
	if whisperModel == "" {
		whisperModel = openai.Whisper1
	}
	return &Client{
		client:   openai.NewClient(ocfg.Key),
		model:    whisperModel,
		language: tcfg.Language,
		prompt:   prompt,
	}, nil
}

// Transcribe sends one audio file to Whisper and returns its segments.
func (c *Client) Transcribe(ctx context.Context, path string) (*model.ClipTranscript, error) {
	req := openai.AudioRequest{
		Model:    c.model,
		FilePath: path,
		Format:   openai.AudioResponseFormatVerboseJSON,
		Language: c.language,
		Prompt:   c.prompt,
		TimestampGranularities: []openai.TranscriptionTimestampGranularity{
			openai.TranscriptionTimestampGranularitySegment,
		},
	}

	logging.OpenAI().Info("Whisper request", "file", filepath.Base(path), "model", c.model)
	resp, err := c.client.CreateTranscription(ctx, req)
	if err != nil {
		logging.OpenAI().Error("Whisper request failed", "file", filepath.Base(path), "error", err)
		return nil, fmt.Errorf("whisper transcription failed for %s: %w", filepath.Base(path), err)
	}
	logging.OpenAI().Info("Whisper response", "file", filepath.Base(path), "segments", len(resp.Segments), "chars", len(resp.Text))

	tr := &model.ClipTranscript{
		File: filepath.Base(path),
		Text: resp.Text,
	}
	for _, seg := range resp.Segments {
		tr.Segments = append(tr.Segments, model.TranscriptSegment{
			Start: seg.Start,
			End:   seg.End,
			Text:  strings.TrimSpace(seg.Text),
		})
	}
	return tr, nil
}
