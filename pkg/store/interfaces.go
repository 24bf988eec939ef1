package store

import (
	"context"

	"convoscope/pkg/model"
)

// TranscriptStore handles per-clip transcription persistence.
type TranscriptStore interface {
	SaveTranscript(ctx context.Context, conversationID, whisperModel string, tr *model.ClipTranscript) error
	CountTranscripts(ctx context.Context) (int, error)
}

// SummaryStore handles conversation summary persistence.
type SummaryStore interface {
	GetSummary(ctx context.Context, conversationID string) (string, bool)
	SaveSummary(ctx context.Context, conversationID, summary, chatModel string) error
}

// ExportStore records completed export runs.
type ExportStore interface {
	RecordExport(ctx context.Context, exportID, path string, totalConversations int) error
	ListExports(ctx context.Context) ([]ExportRecord, error)
}

// ExportRecord describes one completed export run.
type ExportRecord struct {
	ExportID           string
	Path               string
	TotalConversations int
}

// CacheStore handles generic key-value caching.
type CacheStore interface {
	GetCache(ctx context.Context, key string) ([]byte, bool)
	SetCache(ctx context.Context, key string, val []byte) error
}

// StateStore handles persistent application state.
type StateStore interface {
	GetState(ctx context.Context, key string) (string, bool)
	SetState(ctx context.Context, key, val string) error
}
