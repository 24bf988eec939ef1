package transcribe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"convoscope/pkg/alias"
	"convoscope/pkg/convo"
	"convoscope/pkg/model"
)

// stubWhisper fabricates one two-second segment per call and counts calls.
type stubWhisper struct {
	mu    sync.Mutex
	calls int
	fail  map[string]bool
}

func (w *stubWhisper) Transcribe(ctx context.Context, path string) (*model.ClipTranscript, error) {
	w.mu.Lock()
	w.calls++
	w.mu.Unlock()

	name := filepath.Base(path)
	if w.fail[name] {
		return nil, fmt.Errorf("decode error")
	}
	text := "line from " + name
	return &model.ClipTranscript{
		File: name,
		Text: text,
		Segments: []model.TranscriptSegment{
			{Start: 0, End: 2, Text: text},
		},
	}, nil
}

func (w *stubWhisper) callCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.calls
}

type dirResolver string

func (d dirResolver) FilePath(filename string) string {
	return filepath.Join(string(d), filename)
}

func newTestService(t *testing.T, w Whisper, aliases alias.Table) (*Service, string) {
	t.Helper()
	src := t.TempDir()
	cache, err := NewCache(filepath.Join(t.TempDir(), "transcriptions"))
	if err != nil {
		t.Fatal(err)
	}
	return NewService(w, cache, aliases, dirResolver(src), nil, "whisper-1"), src
}

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("mp3"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestTranscribeClip_CachesResult(t *testing.T) {
	w := &stubWhisper{}
	svc, src := newTestService(t, w, nil)
	touch(t, src, "ivy_match_start_ivy_vex_convo1_1.mp3")

	tr, err := svc.TranscribeClip(context.Background(), "ivy_match_start_ivy_vex_convo1_1.mp3", false)
	if err != nil {
		t.Fatal(err)
	}
	if tr.Text == "" {
		t.Error("empty transcript")
	}
	if _, err := svc.TranscribeClip(context.Background(), "ivy_match_start_ivy_vex_convo1_1.mp3", false); err != nil {
		t.Fatal(err)
	}
	if w.callCount() != 1 {
		t.Errorf("whisper calls = %d, want 1 (second hit served from cache)", w.callCount())
	}

	if _, err := svc.TranscribeClip(context.Background(), "ivy_match_start_ivy_vex_convo1_1.mp3", true); err != nil {
		t.Fatal(err)
	}
	if w.callCount() != 2 {
		t.Errorf("whisper calls = %d, want 2 after force", w.callCount())
	}
}

func TestTranscribeConversation_StitchesSegments(t *testing.T) {
	files := []string{
		"ivy_match_start_ivy_vex_convo1_1.mp3",
		"vex_match_start_ivy_vex_convo1_2.mp3",
	}
	records := convo.NewParser(nil).ParseAll(files)
	var c *model.Conversation
	for _, conv := range convo.Group(records) {
		c = conv
	}

	w := &stubWhisper{}
	svc, src := newTestService(t, w, alias.Table{"vex": "vexa"})
	touch(t, src, files...)

	tr, err := svc.TranscribeConversation(context.Background(), c, nil, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(tr.Segments) != 2 {
		t.Fatalf("segments = %d, want 2", len(tr.Segments))
	}

	first, second := tr.Segments[0], tr.Segments[1]
	if first.Start != 0 || first.End != 2 {
		t.Errorf("first segment = [%v, %v]", first.Start, first.End)
	}
	// Second clip starts one second after the first ends.
	if second.Start != 3 || second.End != 5 {
		t.Errorf("second segment = [%v, %v], want [3, 5]", second.Start, second.End)
	}
	if first.Part != 1 || second.Part != 2 {
		t.Errorf("parts = %d, %d", first.Part, second.Part)
	}
	if first.Speaker != "ivy" {
		t.Errorf("first speaker = %q", first.Speaker)
	}
	// Speaker comes from the filename's first token, aliased.
	if second.Speaker != "vexa" {
		t.Errorf("second speaker = %q, want vexa", second.Speaker)
	}

	// Whole-conversation cache: a second run costs no whisper calls.
	calls := w.callCount()
	if _, err := svc.TranscribeConversation(context.Background(), c, nil, false); err != nil {
		t.Fatal(err)
	}
	if w.callCount() != calls {
		t.Errorf("whisper calls grew from %d to %d on cached run", calls, w.callCount())
	}
}

func TestSpeakerOf(t *testing.T) {
	svc, _ := newTestService(t, &stubWhisper{}, alias.Table{"tengu": "ivy"})
	if got := svc.SpeakerOf("tengu_match_start_tengu_vex_convo1_1.mp3"); got != "ivy" {
		t.Errorf("got %q, want ivy", got)
	}
	if got := svc.SpeakerOf("vex_match_start_tengu_vex_convo1_2.mp3"); got != "vex" {
		t.Errorf("got %q, want vex", got)
	}
}
