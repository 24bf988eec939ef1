package transcribe

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"convoscope/pkg/model"
)

// Cache is the per-clip transcript cache: one `<clip>.json` per audio file
// in the transcriptions directory.
type Cache struct {
	dir string
}

// NewCache creates the cache, making the directory on first use.
func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create transcriptions directory: %w", err)
	}
	return &Cache{dir: dir}, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

func (c *Cache) path(filename string) string {
	return filepath.Join(c.dir, filename+".json")
}

// Load returns the cached transcript for a clip filename. A missing or
// unreadable cache file is a miss, never an error.
func (c *Cache) Load(filename string) (*model.ClipTranscript, bool) {
	data, err := os.ReadFile(c.path(filename))
	if err != nil {
		return nil, false
	}
	var tr model.ClipTranscript
	if err := json.Unmarshal(data, &tr); err != nil {
		return nil, false
	}
	return &tr, true
}

// Has reports whether a clip already has a cached transcript.
func (c *Cache) Has(filename string) bool {
	_, err := os.Stat(c.path(filename))
	return err == nil
}

// Save writes the transcript for a clip filename.
func (c *Cache) Save(filename string, tr *model.ClipTranscript) error {
	data, err := json.MarshalIndent(tr, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal transcript: %w", err)
	}
	if err := os.WriteFile(c.path(filename), data, 0o644); err != nil {
		return fmt.Errorf("failed to write transcript cache: %w", err)
	}
	return nil
}

// SaveConversation writes an assembled conversation transcript next to the
// per-clip caches, named after the conversation id.
func (c *Cache) SaveConversation(tr *model.ConversationTranscript) (string, error) {
	data, err := json.MarshalIndent(tr, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal conversation transcript: %w", err)
	}
	path := filepath.Join(c.dir, tr.ConversationID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write conversation transcript: %w", err)
	}
	return path, nil
}

// LoadConversation returns a previously assembled conversation transcript.
func (c *Cache) LoadConversation(conversationID string) (*model.ConversationTranscript, bool) {
	data, err := os.ReadFile(filepath.Join(c.dir, conversationID+".json"))
	if err != nil {
		return nil, false
	}
	var tr model.ConversationTranscript
	if err := json.Unmarshal(data, &tr); err != nil {
		return nil, false
	}
	return &tr, true
}
