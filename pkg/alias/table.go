// Package alias holds the speaker name translation tables used during
// filename parsing and catalog building.
package alias

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Table maps an original speaker name to its preferred canonical name.
// Names absent from the table map to themselves.
type Table map[string]string

// DefaultTable returns the seed table written when no mapping file exists.
func DefaultTable() Table {
	return Table{
		"tengu": "ivy",
	}
}

// LoadTable reads a flat original -> preferred mapping from a JSON file.
// A missing file is not an error: the default table is written to path
// and returned, so a fresh install starts with an editable example.
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		t := DefaultTable()
		if saveErr := t.Save(path); saveErr != nil {
			return nil, fmt.Errorf("failed to create alias table: %w", saveErr)
		}
		return t, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read alias table: %w", err)
	}

	var t Table
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse alias table: %w", err)
	}
	return t, nil
}

// Save writes the table back as indented JSON.
func (t Table) Save(path string) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode alias table: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write alias table: %w", err)
	}
	return nil
}

// Canonical resolves a name through the table, case-insensitively on the
// original side. Unmapped names pass through unchanged.
func (t Table) Canonical(name string) string {
	if preferred, ok := t[name]; ok {
		return preferred
	}
	if preferred, ok := t[strings.ToLower(name)]; ok {
		return preferred
	}
	return name
}

// Collision describes two or more distinct original names resolving to the
// same canonical name. Conversations for those names would silently merge,
// so callers surface collisions as warnings instead of resolving them.
type Collision struct {
	Canonical string
	Originals []string
}

// Collisions reports every canonical name that two or more distinct table
// keys map to. It inspects the table alone; CollisionsIn also catches
// collisions with names that appear literally in filenames.
func (t Table) Collisions() []Collision {
	byCanonical := make(map[string][]string)
	for original, preferred := range t {
		if original == preferred {
			continue
		}
		byCanonical[preferred] = append(byCanonical[preferred], original)
	}
	return collect(byCanonical)
}

// CollisionsIn resolves every observed raw name through the table and
// reports canonical names reached by more than one of them. Mapping
// tengu -> ivy is harmless on its own but collides once both "tengu" and
// "ivy" show up in the same directory.
func (t Table) CollisionsIn(observed []string) []Collision {
	byCanonical := make(map[string][]string)
	seen := make(map[string]bool)
	for _, raw := range observed {
		if seen[raw] {
			continue
		}
		seen[raw] = true
		byCanonical[t.Canonical(raw)] = append(byCanonical[t.Canonical(raw)], raw)
	}
	return collect(byCanonical)
}

func collect(byCanonical map[string][]string) []Collision {
	var out []Collision
	for canonical, originals := range byCanonical {
		if len(originals) < 2 {
			continue
		}
		sort.Strings(originals)
		out = append(out, Collision{Canonical: canonical, Originals: originals})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Canonical < out[j].Canonical })
	return out
}
