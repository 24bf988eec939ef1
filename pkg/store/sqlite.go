package store

import (
	"bytes"
	"compress/gzip"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"

	"convoscope/pkg/db"
	"convoscope/pkg/model"
)

// Store defines the repository interface.
// It composes all sub-interfaces for full store access.
// Consumers should depend on specific sub-interfaces when possible.
type Store interface {
	TranscriptStore
	SummaryStore
	ExportStore
	CacheStore
	StateStore

	// Close closes the store connection.
	Close() error
}

// SQLiteStore implements Store.
type SQLiteStore struct {
	db *db.DB
}

// NewSQLiteStore creates a new store.
func NewSQLiteStore(db *db.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Transcripts ---

func (s *SQLiteStore) SaveTranscript(ctx context.Context, conversationID, whisperModel string, tr *model.ClipTranscript) error {
	segmentsJSON, _ := json.Marshal(tr.Segments)

	query := `INSERT OR REPLACE INTO transcriptions (
		filename, conversation_id, text, segments, model, created_at
	) VALUES (?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		tr.File, conversationID, tr.Text, string(segmentsJSON), whisperModel, time.Now(),
	)
	return err
}

func (s *SQLiteStore) CountTranscripts(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT count(*) FROM transcriptions").Scan(&count)
	return count, err
}

// --- Summaries ---

func (s *SQLiteStore) GetSummary(ctx context.Context, conversationID string) (string, bool) {
	var summary string
	err := s.db.QueryRowContext(ctx, "SELECT summary FROM summaries WHERE conversation_id = ?", conversationID).Scan(&summary)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false
	}
	if err != nil {
		return "", false
	}
	return summary, true
}

func (s *SQLiteStore) SaveSummary(ctx context.Context, conversationID, summary, chatModel string) error {
	query := `INSERT OR REPLACE INTO summaries (conversation_id, summary, model, created_at) VALUES (?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query, conversationID, summary, chatModel, time.Now())
	return err
}

// --- Exports ---

func (s *SQLiteStore) RecordExport(ctx context.Context, exportID, path string, totalConversations int) error {
	query := `INSERT OR REPLACE INTO exports (export_id, path, total_conversations, created_at) VALUES (?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query, exportID, path, totalConversations, time.Now())
	return err
}

func (s *SQLiteStore) ListExports(ctx context.Context) ([]ExportRecord, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT export_id, path, total_conversations FROM exports ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []ExportRecord
	for rows.Next() {
		var r ExportRecord
		if err := rows.Scan(&r.ExportID, &r.Path, &r.TotalConversations); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// --- Cache ---

func (s *SQLiteStore) GetCache(ctx context.Context, key string) ([]byte, bool) {
	var val []byte
	err := s.db.QueryRowContext(ctx, "SELECT value FROM cache WHERE key = ?", key).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false
	}
	if err != nil {
		return nil, false
	}

	// Transparent Decompression
	if len(val) > 2 && val[0] == 0x1f && val[1] == 0x8b {
		decompressed, err := decompress(val)
		if err == nil {
			return decompressed, true
		}
	}

	return val, true
}

func (s *SQLiteStore) SetCache(ctx context.Context, key string, val []byte) error {
	// Transparent Compression
	compressed, err := compress(val)
	if err == nil {
		val = compressed
	}

	query := `INSERT OR REPLACE INTO cache (key, value, created_at) VALUES (?, ?, ?)`
	_, err = s.db.ExecContext(ctx, query, key, val, time.Now())
	return err
}

// --- Compression Pooling ---

var (
	// Pool for gzip writers to reuse flate state
	gzipWriterPool = sync.Pool{
		New: func() interface{} {
			return gzip.NewWriter(io.Discard)
		},
	}
	// Pool for generic byte buffers
	bufferPool = sync.Pool{
		New: func() interface{} {
			return new(bytes.Buffer)
		},
	}
)

func compress(data []byte) ([]byte, error) {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bufferPool.Put(buf)

	w := gzipWriterPool.Get().(*gzip.Writer)
	defer gzipWriterPool.Put(w)

	w.Reset(buf)

	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	// Must copy because buf is returned to pool
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

func decompress(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// --- State ---

func (s *SQLiteStore) GetState(ctx context.Context, key string) (string, bool) {
	var val string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM persistent_state WHERE key = ?", key).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false
	}
	return val, true
}

func (s *SQLiteStore) SetState(ctx context.Context, key, val string) error {
	query := `INSERT OR REPLACE INTO persistent_state (key, value, created_at) VALUES (?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query, key, val, time.Now())
	return err
}
