// Package library maintains the in-memory view of a voice-line directory:
// the parsed conversations, the character roster and the pair graph.
// Everything is rebuilt from scratch on every rescan; only the alias table
// survives across scans.
package library

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"convoscope/pkg/alias"
	"convoscope/pkg/convo"
	"convoscope/pkg/model"
)

// Library scans a directory of .mp3 files and exposes the reconstructed
// conversations. Safe for concurrent use.
type Library struct {
	aliases alias.Table

	mu            sync.RWMutex
	dir           string
	conversations map[model.ConversationKey]*model.Conversation
	characters    []string
	partners      map[string][]string
	collisions    []alias.Collision
}

// New creates a Library rooted at dir. Call Rescan to populate it.
func New(dir string, aliases alias.Table) *Library {
	return &Library{
		aliases:       aliases,
		dir:           dir,
		conversations: make(map[model.ConversationKey]*model.Conversation),
		partners:      make(map[string][]string),
	}
}

// SetDirectory changes the source directory. The next Rescan picks it up.
func (l *Library) SetDirectory(dir string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.dir = dir
}

// Directory returns the current source directory.
func (l *Library) Directory() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.dir
}

// Rescan rebuilds the conversation view from the directory listing.
func (l *Library) Rescan() error {
	dir := l.Directory()
	if dir == "" {
		return fmt.Errorf("no source directory configured")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read source directory: %w", err)
	}

	var filenames []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".mp3") {
			filenames = append(filenames, e.Name())
		}
	}

	parser := convo.NewParser(l.aliases)
	records := parser.ParseAll(filenames)
	conversations := convo.Group(records)

	// Raw speaker names, before aliasing, decide whether the alias table
	// merges distinct characters in this particular directory.
	rawParser := convo.NewParser(nil)
	var raw []string
	for _, rec := range rawParser.ParseAll(filenames) {
		raw = append(raw, rec.Starter, rec.CharacterA, rec.CharacterB)
	}
	collisions := l.aliases.CollisionsIn(raw)
	for _, c := range collisions {
		slog.Warn("Alias table merges distinct speakers",
			"canonical", c.Canonical, "originals", strings.Join(c.Originals, ", "))
	}

	characterSet := make(map[string]bool)
	partnerSets := make(map[string]map[string]bool)
	for key := range conversations {
		a, b := key.CharacterA, key.CharacterB
		characterSet[a] = true
		characterSet[b] = true
		if partnerSets[a] == nil {
			partnerSets[a] = make(map[string]bool)
		}
		if partnerSets[b] == nil {
			partnerSets[b] = make(map[string]bool)
		}
		partnerSets[a][b] = true
		partnerSets[b][a] = true
	}

	characters := make([]string, 0, len(characterSet))
	for c := range characterSet {
		characters = append(characters, c)
	}
	sort.Strings(characters)

	partners := make(map[string][]string, len(partnerSets))
	for c, set := range partnerSets {
		list := make([]string, 0, len(set))
		for p := range set {
			list = append(list, p)
		}
		sort.Strings(list)
		partners[c] = list
	}

	l.mu.Lock()
	l.conversations = conversations
	l.characters = characters
	l.partners = partners
	l.collisions = collisions
	l.mu.Unlock()

	slog.Info("Library scanned",
		"files", len(filenames), "clips", len(records),
		"conversations", len(conversations), "characters", len(characters))
	return nil
}

// Characters returns the sorted list of characters with conversations.
func (l *Library) Characters() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string(nil), l.characters...)
}

// Partners returns the sorted characters that talk with the given one.
func (l *Library) Partners(character string) []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string(nil), l.partners[character]...)
}

// Collisions returns the alias collisions found during the last scan.
func (l *Library) Collisions() []alias.Collision {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]alias.Collision(nil), l.collisions...)
}

// Conversations returns all conversations, unordered.
func (l *Library) Conversations() []*model.Conversation {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*model.Conversation, 0, len(l.conversations))
	for _, c := range l.conversations {
		out = append(out, c)
	}
	return out
}

// Get looks a conversation up by its ID (e.g. "ivy_vex_convo1_victory").
func (l *Library) Get(id string) (*model.Conversation, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for key, c := range l.conversations {
		if key.ID() == id {
			return c, true
		}
	}
	return nil, false
}

// FilePath resolves a clip filename against the source directory.
func (l *Library) FilePath(filename string) string {
	return filepath.Join(l.Directory(), filename)
}

// Stats summarizes the current library contents.
type Stats struct {
	Conversations int `json:"conversations"`
	Complete      int `json:"complete"`
	Incomplete    int `json:"incomplete"`
	Characters    int `json:"characters"`
	Clips         int `json:"clips"`
}

// Stats returns headline counts for the current scan.
func (l *Library) Stats() Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	s := Stats{
		Conversations: len(l.conversations),
		Characters:    len(l.characters),
	}
	for _, c := range l.conversations {
		s.Clips += len(c.Clips)
		if c.Complete {
			s.Complete++
		} else {
			s.Incomplete++
		}
	}
	return s
}
