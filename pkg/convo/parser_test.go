package convo

import (
	"testing"

	"convoscope/pkg/alias"
)

func TestParse_Grammars(t *testing.T) {
	p := NewParser(nil)

	tests := []struct {
		name      string
		filename  string
		wantOK    bool
		starter   string
		charA     string
		charB     string
		topic     string
		number    int
		part      int
		variation int
	}{
		{
			name:     "NoTopic",
			filename: "ivy_match_start_ivy_vex_convo1_2.mp3",
			wantOK:   true,
			starter:  "ivy", charA: "ivy", charB: "vex",
			topic: "", number: 1, part: 2, variation: 1,
		},
		{
			name:     "NoTopic_WithVariation",
			filename: "ivy_match_start_ivy_vex_convo1_2_3.mp3",
			wantOK:   true,
			starter:  "ivy", charA: "ivy", charB: "vex",
			topic: "", number: 1, part: 2, variation: 3,
		},
		{
			name:     "WithTopic",
			filename: "ivy_match_start_ivy_vex_victory_convo4_1.mp3",
			wantOK:   true,
			starter:  "ivy", charA: "ivy", charB: "vex",
			topic: "victory", number: 4, part: 1, variation: 1,
		},
		{
			name:     "WithTopic_WithVariation",
			filename: "ivy_match_start_ivy_vex_victory_convo4_1_2.mp3",
			wantOK:   true,
			starter:  "ivy", charA: "ivy", charB: "vex",
			topic: "victory", number: 4, part: 1, variation: 2,
		},
		{
			name:     "MultiDigitNumbers",
			filename: "vex_match_start_vex_ivy_convo12_10_11.mp3",
			wantOK:   true,
			starter:  "vex", charA: "vex", charB: "ivy",
			topic: "", number: 12, part: 10, variation: 11,
		},
		{
			name:     "Unrecognized",
			filename: "random_file.mp3",
			wantOK:   false,
		},
		{
			name:     "WrongExtension",
			filename: "ivy_match_start_ivy_vex_convo1_2.wav",
			wantOK:   false,
		},
		{
			name:     "MissingPart",
			filename: "ivy_match_start_ivy_vex_convo1.mp3",
			wantOK:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, ok := p.Parse(tt.filename)
			if ok != tt.wantOK {
				t.Fatalf("Parse(%q) ok = %v, want %v", tt.filename, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if rec.Starter != tt.starter || rec.CharacterA != tt.charA || rec.CharacterB != tt.charB {
				t.Errorf("speakers = (%s, %s, %s), want (%s, %s, %s)",
					rec.Starter, rec.CharacterA, rec.CharacterB, tt.starter, tt.charA, tt.charB)
			}
			if rec.Topic != tt.topic {
				t.Errorf("topic = %q, want %q", rec.Topic, tt.topic)
			}
			if rec.Number != tt.number || rec.Part != tt.part || rec.Variation != tt.variation {
				t.Errorf("number/part/variation = %d/%d/%d, want %d/%d/%d",
					rec.Number, rec.Part, rec.Variation, tt.number, tt.part, tt.variation)
			}
		})
	}
}

func TestParse_TopicGrammarWins(t *testing.T) {
	// A filename with a topic must not be parsed by the plain grammar with
	// the topic token swallowed into a character name.
	p := NewParser(nil)
	rec, ok := p.Parse("ivy_match_start_ivy_vex_victory_convo4_1.mp3")
	if !ok {
		t.Fatal("expected parse to succeed")
	}
	if rec.Topic != "victory" {
		t.Errorf("topic = %q, want %q", rec.Topic, "victory")
	}
	if rec.CharacterB != "vex" {
		t.Errorf("character_b = %q, want %q", rec.CharacterB, "vex")
	}
}

func TestParse_AliasApplication(t *testing.T) {
	// Aliases apply uniformly to starter and both characters. This can
	// collapse distinct raw names onto one canonical name; the alias
	// package reports such collisions, the parser does not guard them.
	p := NewParser(alias.Table{"tengu": "ivy"})
	rec, ok := p.Parse("tengu_match_start_tengu_ivy_convo1_1.mp3")
	if !ok {
		t.Fatal("expected parse to succeed")
	}
	if rec.Starter != "ivy" || rec.CharacterA != "ivy" || rec.CharacterB != "ivy" {
		t.Errorf("aliased speakers = (%s, %s, %s), want all %q",
			rec.Starter, rec.CharacterA, rec.CharacterB, "ivy")
	}
}

func TestParseAll_SkipsNoise(t *testing.T) {
	p := NewParser(nil)
	records := p.ParseAll([]string{
		"ivy_match_start_ivy_vex_convo1_1.mp3",
		"random_file.mp3",
		"notes.txt",
		"ivy_match_start_ivy_vex_convo1_2.mp3",
	})
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	for _, rec := range records {
		if rec.Filename == "random_file.mp3" || rec.Filename == "notes.txt" {
			t.Errorf("noise file %q leaked into results", rec.Filename)
		}
	}
}
