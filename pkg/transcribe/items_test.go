package transcribe

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadItems(t *testing.T) {
	catalog := `{
  "Lady Geist": {
    "Ivy": {
      "Victory Lines": [
        "geist_ally_ivy_victory_01.mp3",
        {"filename": "geist_ally_ivy_victory_02.mp3", "date": "2026-08-01"}
      ],
      "Pings": {
        "attack": [{"filename": "geist_ally_ivy_ping_attack_01.mp3"}]
      }
    }
  }
}`
	path := filepath.Join(t.TempDir(), "catalog.json")
	if err := os.WriteFile(path, []byte(catalog), 0o644); err != nil {
		t.Fatal(err)
	}

	items, err := LoadItems(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3", len(items))
	}

	// Pings sorts before Victory Lines.
	ping := items[0]
	if ping.Topic != "Pings" || ping.PingType != "attack" ||
		ping.Filename != "geist_ally_ivy_ping_attack_01.mp3" {
		t.Errorf("ping item = %+v", ping)
	}
	first := items[1]
	if first.Speaker != "Lady Geist" || first.Subject != "Ivy" ||
		first.Topic != "Victory Lines" || first.Filename != "geist_ally_ivy_victory_01.mp3" {
		t.Errorf("first topic item = %+v", first)
	}
	if items[2].Filename != "geist_ally_ivy_victory_02.mp3" {
		t.Errorf("second topic item = %+v", items[2])
	}
}

func TestLoadItems_Missing(t *testing.T) {
	if _, err := LoadItems(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing catalog")
	}
}
