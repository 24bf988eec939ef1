package library

import (
	"fmt"
	"os"
	"sort"

	"convoscope/pkg/model"
)

// Entry is one row of a conversation listing, ready for display.
type Entry struct {
	ID           string   `json:"id"`
	Label        string   `json:"label"`
	Display      string   `json:"display"`
	OtherChar    string   `json:"other_char,omitempty"`
	Number       int      `json:"number"`
	Topic        string   `json:"topic,omitempty"`
	Starter      string   `json:"starter"`
	Parts        int      `json:"parts"`
	Takes        int      `json:"takes"`
	Complete     bool     `json:"complete"`
	MissingParts []int    `json:"missing_parts,omitempty"`
	Reasons      []string `json:"reasons,omitempty"`
	DurationSec  float64  `json:"duration_sec"`
}

// AllSelector in place of a second character lists every conversation the
// first character takes part in.
const AllSelector = "(ALL)"

// List returns the display entries for a character selection. char2 may be
// empty or AllSelector to list all partners. Entries are ordered by partner
// name, conversation number, then topic.
func (l *Library) List(char1, char2 string) []Entry {
	l.mu.RLock()
	conversations := make([]*model.Conversation, 0, len(l.conversations))
	for _, c := range l.conversations {
		conversations = append(conversations, c)
	}
	l.mu.RUnlock()

	var entries []Entry
	for _, c := range conversations {
		a, b := c.Key.CharacterA, c.Key.CharacterB
		var other string
		switch {
		case char1 == "":
			// No filter: list everything, keyed by the pair label.
			other = b
		case char2 == "" || char2 == AllSelector:
			if a != char1 && b != char1 {
				continue
			}
			other = a
			if a == char1 {
				other = b
			}
		default:
			if !matchesPair(c.Key, char1, char2) {
				continue
			}
			other = char2
		}
		entries = append(entries, l.entry(c, other))
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].OtherChar != entries[j].OtherChar {
			return entries[i].OtherChar < entries[j].OtherChar
		}
		if entries[i].Number != entries[j].Number {
			return entries[i].Number < entries[j].Number
		}
		return entries[i].Topic < entries[j].Topic
	})
	return entries
}

func matchesPair(key model.ConversationKey, char1, char2 string) bool {
	return (key.CharacterA == char1 && key.CharacterB == char2) ||
		(key.CharacterA == char2 && key.CharacterB == char1)
}

func (l *Library) entry(c *model.Conversation, other string) Entry {
	parts := c.SortedParts()
	display := fmt.Sprintf("Conversation %d", c.Key.Number)
	if c.Key.Topic != "" {
		display += fmt.Sprintf(" (%s)", c.Key.Topic)
	}
	display += fmt.Sprintf(" (%d parts", len(parts))
	if alt := c.PartsWithAlternates(); alt > 0 {
		display += fmt.Sprintf(", %d takes, %d parts with alternatives", c.TakeCount(), alt)
	}
	duration := l.EstimateDuration(c)
	display += fmt.Sprintf(", ~%.1fs)", duration)
	if !c.Complete {
		display += " " + c.IncompleteLabel()
	}

	return Entry{
		ID:           c.Key.ID(),
		Label:        c.Key.Label(),
		Display:      display,
		OtherChar:    other,
		Number:       c.Key.Number,
		Topic:        c.Key.Topic,
		Starter:      c.Starter,
		Parts:        len(parts),
		Takes:        c.TakeCount(),
		Complete:     c.Complete,
		MissingParts: c.MissingParts,
		Reasons:      c.Reasons,
		DurationSec:  duration,
	}
}

// EstimateDuration approximates the conversation length in seconds from the
// total file size. MP3 voice lines in this library hover around 100 kB per
// second, which is accurate enough for a listing hint.
func (l *Library) EstimateDuration(c *model.Conversation) float64 {
	var total int64
	for _, clip := range c.Clips {
		info, err := os.Stat(l.FilePath(clip.Filename))
		if err != nil {
			continue
		}
		total += info.Size()
	}
	return float64(total) / 100000.0
}
