package model

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// ClipRecord represents one parsed voice-line filename.
type ClipRecord struct {
	Filename   string `json:"filename"`
	Starter    string `json:"starter"`
	CharacterA string `json:"character_a"`
	CharacterB string `json:"character_b"`
	Topic      string `json:"topic,omitempty"` // empty for the no-topic grammar
	Number     int    `json:"number"`          // conversation number
	Part       int    `json:"part"`
	Variation  int    `json:"variation"` // defaults to 1 when the suffix is absent
}

// ConversationKey identifies a conversation: the canonical (sorted) character
// pair, the conversation number, and the optional topic. Clips with and
// without a topic never share a key, even for the same pair and number.
type ConversationKey struct {
	CharacterA string `json:"character_a"` // lexicographically first of the pair
	CharacterB string `json:"character_b"`
	Number     int    `json:"number"`
	Topic      string `json:"topic,omitempty"`
}

// NewConversationKey canonicalizes the pair so (A,B) and (B,A) collapse.
func NewConversationKey(charA, charB string, number int, topic string) ConversationKey {
	if charB < charA {
		charA, charB = charB, charA
	}
	return ConversationKey{CharacterA: charA, CharacterB: charB, Number: number, Topic: topic}
}

// ID returns the canonical identifier, e.g. "ivy_vex_convo3" or
// "ivy_vex_convo3_victory".
func (k ConversationKey) ID() string {
	id := fmt.Sprintf("%s_%s_convo%d", k.CharacterA, k.CharacterB, k.Number)
	if k.Topic != "" {
		id += "_" + k.Topic
	}
	return id
}

// Label returns a human-readable description for UI listings.
func (k ConversationKey) Label() string {
	label := fmt.Sprintf("%s & %s - Conversation %d", k.CharacterA, k.CharacterB, k.Number)
	if k.Topic != "" {
		label += fmt.Sprintf(" (%s)", k.Topic)
	}
	return label
}

// Conversation is the set of clips sharing a ConversationKey, partitioned
// into part groups. Completeness fields are recomputed whenever membership
// changes; they are never persisted.
type Conversation struct {
	Key     ConversationKey `json:"key"`
	Starter string          `json:"starter"` // starter of the first clip seen

	// Clips in insertion order; Parts maps part number to its variations
	// sorted ascending by variation number. Index 0 of each part group is
	// the default take, and callers rely on that ordering.
	Clips []*ClipRecord         `json:"clips"`
	Parts map[int][]*ClipRecord `json:"parts"`

	Complete     bool     `json:"complete"`
	MissingParts []int    `json:"missing_parts"`
	Reasons      []string `json:"reasons,omitempty"`
}

// SortedParts returns the distinct part numbers in ascending order.
func (c *Conversation) SortedParts() []int {
	parts := make([]int, 0, len(c.Parts))
	for p := range c.Parts {
		parts = append(parts, p)
	}
	sort.Ints(parts)
	return parts
}

// DefaultTake returns the lowest-variation clip for a part, or nil if the
// part is absent.
func (c *Conversation) DefaultTake(part int) *ClipRecord {
	takes := c.Parts[part]
	if len(takes) == 0 {
		return nil
	}
	return takes[0]
}

// TakeCount returns the total number of recorded takes across all parts.
func (c *Conversation) TakeCount() int {
	n := 0
	for _, takes := range c.Parts {
		n += len(takes)
	}
	return n
}

// PartsWithAlternates returns how many parts have more than one take.
func (c *Conversation) PartsWithAlternates() int {
	n := 0
	for _, takes := range c.Parts {
		if len(takes) > 1 {
			n++
		}
	}
	return n
}

// IncompleteLabel renders the reasons for UI display, e.g.
// "[INCOMPLETE - missing parts: 2; only one part found]".
func (c *Conversation) IncompleteLabel() string {
	if c.Complete {
		return ""
	}
	if len(c.Reasons) > 0 {
		return fmt.Sprintf("[INCOMPLETE - %s]", strings.Join(c.Reasons, "; "))
	}
	return "[INCOMPLETE]"
}

// TranscriptSegment is a single timed utterance within a transcript.
type TranscriptSegment struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
	Speaker string  `json:"speaker,omitempty"`
	Part    int     `json:"part,omitempty"`
}

// ClipTranscript is the cached Whisper result for a single audio file.
type ClipTranscript struct {
	File     string              `json:"file"`
	Text     string              `json:"text"`
	Segments []TranscriptSegment `json:"segments"`
}

// ConversationTranscript is the assembled transcript of a conversation,
// default takes in part order with adjusted timestamps.
type ConversationTranscript struct {
	ConversationID string              `json:"conversation_id"`
	Characters     [2]string           `json:"characters"`
	Number         int                 `json:"convo_num"`
	Topic          string              `json:"topic,omitempty"`
	Timestamp      time.Time           `json:"timestamp"`
	Segments       []TranscriptSegment `json:"segments"`
}

// ExportLine is one clip entry in the export document.
type ExportLine struct {
	Part             int    `json:"part"`
	Variation        int    `json:"variation"`
	Speaker          string `json:"speaker"`
	Filename         string `json:"filename"`
	Transcription    string `json:"transcription"`
	HasTranscription bool   `json:"has_transcription"`
	FileCreationDate string `json:"file_creation_date,omitempty"`
}

// ExportConversation is one conversation entry in the export document.
type ExportConversation struct {
	ConversationID string        `json:"conversation_id"`
	Character1     string        `json:"character1"`
	Character2     string        `json:"character2"`
	Number         int           `json:"conversation_number"`
	Topic          string        `json:"topic,omitempty"`
	IsComplete     bool          `json:"is_complete"`
	MissingParts   []int         `json:"missing_parts"`
	Starter        string        `json:"starter"`
	Summary        string        `json:"summary,omitempty"`
	Lines          []*ExportLine `json:"lines"`
}

// ExportDocument is the all-conversations export written to JSON.
type ExportDocument struct {
	ExportID           string                `json:"export_id"`
	ExportDate         time.Time             `json:"export_date"`
	TotalConversations int                   `json:"total_conversations"`
	Conversations      []*ExportConversation `json:"conversations"`
}
