package organizer

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFlatten(t *testing.T) {
	sourceDir := t.TempDir()
	sub := filepath.Join(sourceDir, "extra")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, path := range []string{
		"geist_ally_ivy_victory_01.mp3",
		"ivy_enemy_vex_ping_attack_01.mp3",
		filepath.Join("extra", "geist_ally_ivy_victory_01.mp3"),
	} {
		if err := os.WriteFile(filepath.Join(sourceDir, path), []byte("mp3"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	catalog := Catalog{
		"Lady Geist": {
			"Ivy": {
				"Victory Lines": {Paths: []string{
					"geist_ally_ivy_victory_01.mp3",
					filepath.Join("extra", "geist_ally_ivy_victory_01.mp3"),
				}},
			},
		},
		"Ivy": {
			"Vex": {
				"Pings": {Pings: map[string][]string{
					"attack": {"ivy_enemy_vex_ping_attack_01.mp3"},
				}},
			},
		},
	}

	outputDir := filepath.Join(t.TempDir(), "flat")
	flat, copied, err := Flatten(catalog, sourceDir, outputDir)
	if err != nil {
		t.Fatal(err)
	}

	// The duplicate filename in extra/ is deduped.
	if copied != 2 {
		t.Errorf("copied = %d, want 2", copied)
	}
	for _, name := range []string{
		"geist_ally_ivy_victory_01.mp3",
		"ivy_enemy_vex_ping_attack_01.mp3",
	} {
		if _, err := os.Stat(filepath.Join(outputDir, name)); err != nil {
			t.Errorf("missing flat copy %s: %v", name, err)
		}
	}

	victory := flat["Lady Geist"]["Ivy"]["Victory Lines"]
	if len(victory.Files) != 2 {
		t.Fatalf("victory files = %v", victory.Files)
	}
	if victory.Files[0].Filename != "geist_ally_ivy_victory_01.mp3" || victory.Files[0].Date == "" {
		t.Errorf("entry = %+v", victory.Files[0])
	}
	pings := flat["Ivy"]["Vex"]["Pings"].Pings
	if len(pings["attack"]) != 1 {
		t.Errorf("pings = %v", pings)
	}

	flatPath := filepath.Join(outputDir, "catalog_flat.json")
	if err := flat.Save(flatPath); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(flatPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 {
		t.Error("flat catalog file is empty")
	}
}

func TestFlatOutputPath(t *testing.T) {
	got := FlatOutputPath(filepath.Join("out", "catalog.json"))
	want := filepath.Join("out", "catalog_flat.json")
	if got != want {
		t.Errorf("FlatOutputPath = %q, want %q", got, want)
	}
}

func TestSortByPrefix(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"ivy_ally_vex_victory_01.mp3",
		"ivy_enemy_vex_taunt_01.mp3",
		"geist_ally_ivy_victory_01.mp3",
		"plain.mp3",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("mp3"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	destRoot := filepath.Join(t.TempDir(), "sorted")
	groups, err := SortByPrefix(dir, "_", destRoot)
	if err != nil {
		t.Fatal(err)
	}

	if len(groups["ivy"]) != 2 {
		t.Errorf("ivy group = %v", groups["ivy"])
	}
	if len(groups["geist"]) != 1 {
		t.Errorf("geist group = %v", groups["geist"])
	}
	// No separator means the full name is the prefix.
	if len(groups["plain.mp3"]) != 1 {
		t.Errorf("plain group = %v", groups["plain.mp3"])
	}
	if _, err := os.Stat(filepath.Join(destRoot, "ivy", "ivy_enemy_vex_taunt_01.mp3")); err != nil {
		t.Errorf("missing sorted copy: %v", err)
	}

	if _, err := SortByPrefix(dir, "", destRoot); err == nil {
		t.Error("expected error for empty separator")
	}
}
