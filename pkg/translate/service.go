package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"convoscope/pkg/model"
)

// OutputSuffix is appended to the input filename for the translated copy.
const OutputSuffix = "_translated"

// Translator is the translation backend; *Client is the DeepL
// implementation.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// Candidate is one line flagged for translation. The indices point back
// into the export document so Apply can rewrite it in place.
type Candidate struct {
	ConvoIdx    int    `json:"convo_idx"`
	LineIdx     int    `json:"line_idx"`
	ConvoID     string `json:"convo_id"`
	Speaker     string `json:"speaker"`
	Text        string `json:"text"`
	HasJapanese bool   `json:"has_japanese"`
}

// Analyze walks an export document and returns the lines the detector
// flags, Japanese-script lines first, then by conversation id.
func Analyze(doc *model.ExportDocument, det Detector) []Candidate {
	var out []Candidate
	for ci, conv := range doc.Conversations {
		for li, line := range conv.Lines {
			if !det.IsNonEnglish(line.Transcription) {
				continue
			}
			out = append(out, Candidate{
				ConvoIdx:    ci,
				LineIdx:     li,
				ConvoID:     conv.ConversationID,
				Speaker:     line.Speaker,
				Text:        line.Transcription,
				HasJapanese: ContainsJapanese(line.Transcription),
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].HasJapanese != out[j].HasJapanese {
			return out[i].HasJapanese
		}
		return out[i].ConvoID < out[j].ConvoID
	})
	return out
}

// Result summarizes an Apply run.
type Result struct {
	Translated int `json:"translated"`
	Failed     int `json:"failed"`
}

// Progress reports per-line translation progress. May be nil.
type Progress func(current, total int, status string)

// Apply translates the selected candidates and rewrites each line's
// transcription as "original (translation)". Failed lines keep their
// original text; the run continues.
func Apply(ctx context.Context, tr Translator, doc *model.ExportDocument, selected []Candidate, progress Progress) Result {
	var res Result
	for i, cand := range selected {
		if progress != nil {
			progress(i+1, len(selected), fmt.Sprintf("Translating %d/%d", i+1, len(selected)))
		}

		translation, err := tr.Translate(ctx, cand.Text)
		if err != nil {
			slog.Error("Translation failed", "text", cand.Text, "error", err)
			res.Failed++
			continue
		}

		line := doc.Conversations[cand.ConvoIdx].Lines[cand.LineIdx]
		line.Transcription = fmt.Sprintf("%s (%s)", line.Transcription, translation)
		res.Translated++
	}
	return res
}

// LoadDocument reads an export document from disk.
func LoadDocument(path string) (*model.ExportDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read export file: %w", err)
	}
	var doc model.ExportDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse export file: %w", err)
	}
	return &doc, nil
}

// OutputPath derives the translated filename, e.g. "all.json" ->
// "all_translated.json".
func OutputPath(inputPath string) string {
	ext := filepath.Ext(inputPath)
	return strings.TrimSuffix(inputPath, ext) + OutputSuffix + ext
}

// WriteDocument saves the rewritten document.
func WriteDocument(path string, doc *model.ExportDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal translated document: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write translated document: %w", err)
	}
	return nil
}
