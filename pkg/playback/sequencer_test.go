package playback

import (
	"path/filepath"
	"testing"
	"time"

	"convoscope/pkg/convo"
	"convoscope/pkg/model"
)

// fakePlayer records plays and lets the test drive completion callbacks.
type fakePlayer struct {
	played     []string
	onComplete func()
	stops      int
}

func (f *fakePlayer) Play(path string, startPaused bool, onComplete func()) error {
	f.played = append(f.played, path)
	f.onComplete = onComplete
	return nil
}
func (f *fakePlayer) Pause()                   {}
func (f *fakePlayer) Resume()                  {}
func (f *fakePlayer) Stop()                    { f.stops++ }
func (f *fakePlayer) IsPlaying() bool          { return false }
func (f *fakePlayer) IsBusy() bool             { return false }
func (f *fakePlayer) IsPaused() bool           { return false }
func (f *fakePlayer) SetVolume(vol float64)    {}
func (f *fakePlayer) Volume() float64          { return 1.0 }
func (f *fakePlayer) LastPlayedFile() string   { return "" }
func (f *fakePlayer) Replay(fn func()) bool    { return false }
func (f *fakePlayer) Position() time.Duration  { return 0 }
func (f *fakePlayer) Duration() time.Duration  { return 0 }
func (f *fakePlayer) Remaining() time.Duration { return 0 }

func (f *fakePlayer) finish() {
	if f.onComplete != nil {
		cb := f.onComplete
		f.onComplete = nil
		cb()
	}
}

type dirResolver string

func (d dirResolver) FilePath(filename string) string {
	return filepath.Join(string(d), filename)
}

func conversation(t *testing.T, filenames ...string) *model.Conversation {
	t.Helper()
	records := convo.NewParser(nil).ParseAll(filenames)
	groups := convo.Group(records)
	if len(groups) != 1 {
		t.Fatalf("expected one conversation, got %d", len(groups))
	}
	for _, c := range groups {
		return c
	}
	return nil
}

func TestBuildPlaylist(t *testing.T) {
	c := conversation(t,
		"ivy_match_start_ivy_vex_convo1_2.mp3",
		"ivy_match_start_ivy_vex_convo1_1.mp3",
		"ivy_match_start_ivy_vex_convo1_1_2.mp3",
	)

	items, err := BuildPlaylist(c, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Part != 1 || items[0].Variation != 1 {
		t.Errorf("item 0 = part %d variation %d, want default take of part 1",
			items[0].Part, items[0].Variation)
	}
	if items[1].Part != 2 {
		t.Errorf("item 1 part = %d, want 2", items[1].Part)
	}

	items, err = BuildPlaylist(c, map[int]int{1: 2})
	if err != nil {
		t.Fatal(err)
	}
	if items[0].Variation != 2 {
		t.Errorf("selected variation = %d, want 2", items[0].Variation)
	}

	if _, err := BuildPlaylist(c, map[int]int{1: 9}); err == nil {
		t.Error("expected error for unknown variation")
	}
	if _, err := BuildPlaylist(nil, nil); err == nil {
		t.Error("expected error for nil conversation")
	}
}

func TestSequencer_PlaysPartsInOrder(t *testing.T) {
	c := conversation(t,
		"ivy_match_start_ivy_vex_convo1_1.mp3",
		"ivy_match_start_ivy_vex_convo1_2.mp3",
		"ivy_match_start_ivy_vex_convo1_3.mp3",
	)

	player := &fakePlayer{}
	seq := NewSequencer(player, dirResolver("/clips"))

	if err := seq.PlayConversation(c, nil); err != nil {
		t.Fatal(err)
	}

	st := seq.Status()
	if !st.Active || st.Index != 0 || st.Total != 3 {
		t.Errorf("status = %+v", st)
	}
	if st.Current == nil || st.Current.Part != 1 {
		t.Errorf("current = %+v, want part 1", st.Current)
	}

	player.finish()
	player.finish()
	player.finish()

	if len(player.played) != 3 {
		t.Fatalf("played %d clips, want 3", len(player.played))
	}
	want := filepath.Join("/clips", "ivy_match_start_ivy_vex_convo1_2.mp3")
	if player.played[1] != want {
		t.Errorf("second clip = %q, want %q", player.played[1], want)
	}
	if seq.Status().Active {
		t.Error("sequence should be inactive after the last clip")
	}
}

func TestSequencer_Skip(t *testing.T) {
	c := conversation(t,
		"ivy_match_start_ivy_vex_convo1_1.mp3",
		"ivy_match_start_ivy_vex_convo1_2.mp3",
	)

	player := &fakePlayer{}
	seq := NewSequencer(player, dirResolver("/clips"))
	if err := seq.PlayConversation(c, nil); err != nil {
		t.Fatal(err)
	}

	if !seq.Skip() {
		t.Error("Skip should advance to part 2")
	}
	if got := seq.Status().Index; got != 1 {
		t.Errorf("index after skip = %d, want 1", got)
	}
	if seq.Skip() {
		t.Error("Skip past the end should return false")
	}
	if seq.Status().Active {
		t.Error("sequence should be inactive after skipping past the end")
	}
}

func TestSequencer_StopInvalidatesCallbacks(t *testing.T) {
	c := conversation(t,
		"ivy_match_start_ivy_vex_convo1_1.mp3",
		"ivy_match_start_ivy_vex_convo1_2.mp3",
	)

	player := &fakePlayer{}
	seq := NewSequencer(player, dirResolver("/clips"))
	if err := seq.PlayConversation(c, nil); err != nil {
		t.Fatal(err)
	}

	seq.Stop()
	player.finish() // stale callback must be a no-op

	if len(player.played) != 1 {
		t.Errorf("played %d clips after stop, want 1", len(player.played))
	}
	if seq.Status().Active {
		t.Error("sequence should be inactive after Stop")
	}
}
