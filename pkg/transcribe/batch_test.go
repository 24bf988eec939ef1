package transcribe

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestBatch(t *testing.T) {
	w := &stubWhisper{fail: map[string]bool{"broken.mp3": true}}
	svc, src := newTestService(t, w, nil)
	touch(t, src, "ivy_ally_vex_victory_01.mp3", "ivy_ally_vex_ping_attack_01.mp3")

	items := []BatchItem{
		{Filename: "ivy_ally_vex_victory_01.mp3", Speaker: "Ivy", Subject: "Vex", Topic: "victory"},
		{Filename: "ivy_ally_vex_ping_attack_01.mp3", Speaker: "Ivy", Subject: "Vex", Topic: "Pings", PingType: "attack"},
		{Filename: "broken.mp3", Speaker: "Ivy", Subject: "Vex", Topic: "victory"},
		{Filename: "missing.mp3", Speaker: "Ivy", Subject: "Vex", Topic: "victory"},
	}

	consolidated, stats, err := svc.Batch(context.Background(), items, 2, false, nil)
	if err != nil {
		t.Fatal(err)
	}

	if stats.Successful != 2 || stats.Failed != 2 || stats.Skipped != 0 || stats.Total != 4 {
		t.Errorf("stats = %+v", stats)
	}

	topics := consolidated["Ivy"]["Vex"]
	if got := len(topics["victory"].Files); got != 1 {
		t.Errorf("victory files = %d, want 1 (failures excluded)", got)
	}
	if got := len(topics["Pings"].Pings["attack"]); got != 1 {
		t.Errorf("attack pings = %d, want 1", got)
	}
	if id := topics["victory"].Files[0].VoicelineID; id != "ivy_ally_vex_victory_01" {
		t.Errorf("voiceline_id = %q", id)
	}
	if CountEntries(consolidated) != 2 {
		t.Errorf("CountEntries = %d, want 2", CountEntries(consolidated))
	}

	// A second run skips everything that succeeded.
	_, stats, err = svc.Batch(context.Background(), items[:2], 2, false, nil)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Skipped != 2 || stats.Successful != 0 {
		t.Errorf("rerun stats = %+v", stats)
	}
}

func TestWriteConsolidated_RoundTrip(t *testing.T) {
	data := map[string]SubjectGroup{
		"Ivy": {
			"Vex": {
				"victory": {Files: []BatchEntry{{Filename: "a.mp3", VoicelineID: "a"}}},
				"Pings":   {Pings: map[string][]BatchEntry{"attack": {{Filename: "b.mp3", VoicelineID: "b"}}}},
			},
		},
	}

	path := filepath.Join(t.TempDir(), "out", "consolidated.json")
	if err := WriteConsolidated(path, data); err != nil {
		t.Fatal(err)
	}

	raw, err := json.Marshal(data["Ivy"]["Vex"]["victory"])
	if err != nil {
		t.Fatal(err)
	}
	// Regular topics marshal as arrays, ping topics as objects.
	if raw[0] != '[' {
		t.Errorf("victory topic marshaled as %s", raw)
	}
	raw, _ = json.Marshal(data["Ivy"]["Vex"]["Pings"])
	if raw[0] != '{' {
		t.Errorf("pings topic marshaled as %s", raw)
	}

	var back map[string]SubjectGroup
	buf, err := json.Marshal(data)
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(buf, &back); err != nil {
		t.Fatal(err)
	}
	if CountEntries(back) != 2 {
		t.Errorf("round-trip entries = %d, want 2", CountEntries(back))
	}
}

func TestLoadVocabulary(t *testing.T) {
	dir := t.TempDir()

	listPath := filepath.Join(dir, "list.json")
	touchJSON(t, listPath, `["Patron", "Geist", "Sinclair"]`)
	got, err := LoadVocabulary(listPath)
	if err != nil {
		t.Fatal(err)
	}
	if got != "Some terms you may encounter: Patron, Geist, Sinclair." {
		t.Errorf("got %q", got)
	}

	mapPath := filepath.Join(dir, "map.json")
	touchJSON(t, mapPath, `{"heroes": ["Geist", "Ivy"], "items": ["Ricochet"]}`)
	got, err = LoadVocabulary(mapPath)
	if err != nil {
		t.Fatal(err)
	}
	if got != "You may encounter these terms: heroes: Geist, Ivy; items: Ricochet." {
		t.Errorf("got %q", got)
	}

	if got, err := LoadVocabulary(""); err != nil || got != "" {
		t.Errorf("empty path: %q, %v", got, err)
	}
	if got, err := LoadVocabulary(filepath.Join(dir, "absent.json")); err != nil || got != "" {
		t.Errorf("missing file: %q, %v", got, err)
	}

	badPath := filepath.Join(dir, "bad.json")
	touchJSON(t, badPath, `"just a string"`)
	if _, err := LoadVocabulary(badPath); err == nil {
		t.Error("expected error for unusable vocabulary shape")
	}
}

func touchJSON(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
