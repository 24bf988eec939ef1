// Package translate finds non-English lines in export documents and
// translates them through the DeepL API.
package translate

import (
	"strings"
	"unicode"

	"github.com/abadojack/whatlanggo"
)

// Common English phrases and contractions that trip statistical language
// detection on short voice lines.
var commonEnglishPhrases = map[string]bool{
	"yeah": true, "no": true, "yes": true, "ok": true, "okay": true,
	"sure": true, "good": true, "nice": true, "indeed": true,
	"excuse me": true, "what": true, "why": true, "how": true,
	"when": true, "where": true, "who": true, "which": true,
	"hello": true, "hi": true, "hey": true, "bye": true, "goodbye": true,
	"thanks": true, "thank you": true, "sorry": true, "please": true,
	"welcome": true, "good luck": true, "good talk": true, "good job": true,
	"i see": true, "i know": true, "i don't": true, "i'm": true,
	"you're": true, "we're": true, "they're": true, "let's": true,
	"it's": true, "that's": true, "there's": true, "here's": true,
	"what's": true, "who's": true, "how's": true, "when's": true,
	"where's": true, "why's": true, "i'll": true, "you'll": true,
	"we'll": true, "they'll": true, "it'll": true, "that'll": true,
	"there'll": true, "here'll": true, "what'll": true, "who'll": true,
	"how'll": true, "when'll": true, "where'll": true, "why'll": true,
}

// ContainsJapanese reports whether text has hiragana, katakana or kanji.
func ContainsJapanese(text string) bool {
	for _, r := range text {
		if (r >= 0x3040 && r <= 0x309F) || // hiragana
			(r >= 0x30A0 && r <= 0x30FF) || // katakana
			(r >= 0x4E00 && r <= 0x9FFF) { // kanji
			return true
		}
	}
	return false
}

func hasNonASCII(text string) bool {
	for _, r := range text {
		if r > 0x7F && !unicode.IsSpace(r) {
			return true
		}
	}
	return false
}

// Detector classifies transcription lines as English or not. Strict mode
// flags only Japanese script and non-ASCII text; relaxed mode additionally
// runs statistical detection with guards for short English phrases.
type Detector struct {
	Strict bool
}

// IsNonEnglish reports whether the text should be offered for translation.
func (d Detector) IsNonEnglish(text string) bool {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < 3 {
		return false
	}

	if ContainsJapanese(trimmed) {
		return true
	}
	if hasNonASCII(trimmed) {
		return true
	}
	if d.Strict {
		return false
	}

	lower := strings.ToLower(trimmed)
	if commonEnglishPhrases[lower] || strings.HasSuffix(lower, "?") || strings.HasSuffix(lower, "!") {
		return false
	}

	if len(trimmed) > 10 {
		info := whatlanggo.Detect(trimmed)
		return info.Lang != whatlanggo.Eng
	}

	// Short all-ASCII-letter phrases pass as English.
	allASCIIAlpha := true
	sawAlpha := false
	for _, r := range lower {
		if unicode.IsLetter(r) {
			sawAlpha = true
			if r < 'a' || r > 'z' {
				allASCIIAlpha = false
				break
			}
		}
	}
	if sawAlpha && allASCIIAlpha {
		return false
	}
	return true
}
