package alias

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// NameSet maps a proper display name to the lowercase aliases it is known
// by in filenames, e.g. "Lady Geist" -> ["geist", "ghost"]. It backs the
// catalog builder's speaker validation.
type NameSet map[string][]string

// LoadNameSet reads a proper name table from a JSON file.
func LoadNameSet(path string) (NameSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read name table: %w", err)
	}
	var n NameSet
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("failed to parse name table: %w", err)
	}
	return n, nil
}

// ValidNames returns the set of all known aliases, lowercased.
func (n NameSet) ValidNames() map[string]bool {
	valid := make(map[string]bool)
	for _, aliases := range n {
		for _, a := range aliases {
			valid[strings.ToLower(a)] = true
		}
	}
	return valid
}

// Contains reports whether name matches any known alias, ignoring case.
func (n NameSet) Contains(name string) bool {
	return n.ValidNames()[strings.ToLower(name)]
}

// ProperName returns the display name whose alias list contains name,
// ignoring case. Unknown names are capitalized and returned as-is.
func (n NameSet) ProperName(name string) string {
	lower := strings.ToLower(name)
	for proper, aliases := range n {
		for _, a := range aliases {
			if strings.ToLower(a) == lower {
				return proper
			}
		}
	}
	return Capitalize(name)
}

// Capitalize uppercases the first letter and lowercases the rest.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
