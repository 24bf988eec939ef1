package export

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"convoscope/pkg/alias"
	"convoscope/pkg/convo"
	"convoscope/pkg/model"
	"convoscope/pkg/transcribe"
)

type dirResolver string

func (d dirResolver) FilePath(filename string) string {
	return filepath.Join(string(d), filename)
}

func setupBuilder(t *testing.T) (*Builder, *transcribe.Cache, string) {
	t.Helper()
	src := t.TempDir()
	cache, err := transcribe.NewCache(filepath.Join(t.TempDir(), "transcriptions"))
	if err != nil {
		t.Fatal(err)
	}
	b := NewBuilder(alias.Table{"tengu": "ivy"}, cache, dirResolver(src), nil, nil, nil)
	return b, cache, src
}

func conversations(t *testing.T, filenames ...string) []*model.Conversation {
	t.Helper()
	records := convo.NewParser(alias.Table{"tengu": "ivy"}).ParseAll(filenames)
	groups := convo.Group(records)
	out := make([]*model.Conversation, 0, len(groups))
	for _, c := range groups {
		out = append(out, c)
	}
	return out
}

func TestBuildDocument(t *testing.T) {
	b, cache, src := setupBuilder(t)

	files := []string{
		"tengu_match_start_tengu_vex_convo1_1.mp3",
		"vex_match_start_tengu_vex_convo1_2.mp3",
		"vex_match_start_tengu_vex_convo1_2_2.mp3",
	}
	for _, name := range files {
		if err := os.WriteFile(filepath.Join(src, name), []byte("mp3"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := cache.Save(files[0], &model.ClipTranscript{File: files[0], Text: "Ready?"}); err != nil {
		t.Fatal(err)
	}

	doc := b.BuildDocument(context.Background(), conversations(t, files...), false, nil)
	if doc.ExportID == "" {
		t.Error("missing export id")
	}
	if doc.TotalConversations != 1 || len(doc.Conversations) != 1 {
		t.Fatalf("conversations = %d", len(doc.Conversations))
	}

	c := doc.Conversations[0]
	if c.ConversationID != "ivy_vex_convo1" {
		t.Errorf("conversation_id = %q", c.ConversationID)
	}
	if !c.IsComplete {
		t.Error("conversation with parts {1,2} should be complete")
	}
	if c.Summary != NoSummary {
		t.Errorf("summary = %q", c.Summary)
	}
	// Every take becomes a line, parts ascending.
	if len(c.Lines) != 3 {
		t.Fatalf("lines = %d, want 3", len(c.Lines))
	}
	if c.Lines[0].Part != 1 || c.Lines[1].Part != 2 || c.Lines[2].Variation != 2 {
		t.Errorf("line order wrong: %+v", c.Lines)
	}
	// The tengu clip's speaker is aliased to ivy.
	if c.Lines[0].Speaker != "ivy" {
		t.Errorf("speaker = %q, want ivy", c.Lines[0].Speaker)
	}
	if !c.Lines[0].HasTranscription || c.Lines[0].Transcription != "Ready?" {
		t.Errorf("line 0 transcription = %+v", c.Lines[0])
	}
	if c.Lines[1].HasTranscription || c.Lines[1].Transcription != NoTranscription {
		t.Errorf("line 1 transcription = %+v", c.Lines[1])
	}
	if c.Lines[0].FileCreationDate == "" {
		t.Error("missing file creation date")
	}
}

func TestWriteJSON(t *testing.T) {
	b, _, src := setupBuilder(t)
	name := "ivy_match_start_ivy_vex_convo1_1.mp3"
	if err := os.WriteFile(filepath.Join(src, name), []byte("mp3"), 0o644); err != nil {
		t.Fatal(err)
	}

	doc := b.BuildDocument(context.Background(), conversations(t, name), false, nil)
	path, err := b.WriteJSON(context.Background(), doc, filepath.Join(t.TempDir(), "all_conversations"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(path, ".json") {
		t.Errorf("path = %q, want .json suffix", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var back model.ExportDocument
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back.ExportID != doc.ExportID || len(back.Conversations) != 1 {
		t.Errorf("round-trip mismatch: %+v", back)
	}
}
