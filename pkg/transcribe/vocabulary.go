package transcribe

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// LoadVocabulary builds the Whisper prompt from a custom vocabulary JSON
// file. The file is either a flat list of terms or a map of category to
// term list. An empty path returns an empty prompt.
func LoadVocabulary(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read vocabulary file: %w", err)
	}

	var terms []string
	if err := json.Unmarshal(data, &terms); err == nil {
		if len(terms) == 0 {
			return "", nil
		}
		return fmt.Sprintf("Some terms you may encounter: %s.", strings.Join(terms, ", ")), nil
	}

	var categories map[string][]string
	if err := json.Unmarshal(data, &categories); err != nil {
		return "", fmt.Errorf("failed to parse vocabulary file: %w", err)
	}
	if len(categories) == 0 {
		return "", nil
	}

	// Sorted so the prompt is stable across runs.
	names := make([]string, 0, len(categories))
	for name := range categories {
		names = append(names, name)
	}
	sort.Strings(names)

	var parts []string
	for _, name := range names {
		if len(categories[name]) == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", name, strings.Join(categories[name], ", ")))
	}
	if len(parts) == 0 {
		return "", nil
	}
	return "You may encounter these terms: " + strings.Join(parts, "; ") + ".", nil
}
