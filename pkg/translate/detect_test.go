package translate

import "testing"

func TestContainsJapanese(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"こんにちは", true}, // hiragana
		{"カタカナ", true},  // katakana
		{"勝利", true},    // kanji
		{"Ready to go", false},
		{"", false},
		{"mixed 行くぞ text", true},
	}
	for _, tt := range tests {
		if got := ContainsJapanese(tt.text); got != tt.want {
			t.Errorf("ContainsJapanese(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestIsNonEnglish_Strict(t *testing.T) {
	det := Detector{Strict: true}

	tests := []struct {
		name string
		text string
		want bool
	}{
		{"japanese", "行くぞ、相棒", true},
		{"accented latin", "très bien mon ami", true},
		{"plain english", "Ready for the match", false},
		{"too short", "ok", false},
		{"empty", "", false},
		{"french without accents passes strict", "je suis pret mon ami", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := det.IsNonEnglish(tt.text); got != tt.want {
				t.Errorf("IsNonEnglish(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestIsNonEnglish_Relaxed(t *testing.T) {
	det := Detector{Strict: false}

	tests := []struct {
		name string
		text string
		want bool
	}{
		{"common phrase allowlisted", "thank you", false},
		{"question mark exempt", "ready to lose again?", false},
		{"exclamation exempt", "get over here!", false},
		{"japanese", "勝利は我々のものだ", true},
		{"short ascii word", "ready", false},
		{"clear english sentence", "I will be waiting for you at the spawn point", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := det.IsNonEnglish(tt.text); got != tt.want {
				t.Errorf("IsNonEnglish(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}
