package organizer

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// SortByPrefix groups the files in dir by the token before the first
// separator and copies each group into destRoot/<prefix>/. Files without
// the separator group under their full name. Returns prefix -> filenames.
func SortByPrefix(dir, separator, destRoot string) (map[string][]string, error) {
	if separator == "" {
		return nil, fmt.Errorf("separator must not be empty")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	groups := make(map[string][]string)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		prefix, _, _ := strings.Cut(e.Name(), separator)
		groups[prefix] = append(groups[prefix], e.Name())
	}

	for prefix, names := range groups {
		sort.Strings(names)
		destDir := filepath.Join(destRoot, prefix)
		if err := os.MkdirAll(destDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", destDir, err)
		}
		for _, name := range names {
			if err := copyFile(filepath.Join(dir, name), filepath.Join(destDir, name)); err != nil {
				return nil, fmt.Errorf("failed to copy %s: %w", name, err)
			}
		}
	}
	return groups, nil
}
