package organizer

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FlatEntry is one file in the flattened catalog.
type FlatEntry struct {
	Filename string `json:"filename"`
	Date     string `json:"date,omitempty"`
}

// FlatGroup mirrors PathGroup with date-stamped entries.
type FlatGroup struct {
	Files []FlatEntry
	Pings map[string][]FlatEntry
}

func (g FlatGroup) MarshalJSON() ([]byte, error) {
	if g.Pings != nil {
		return json.Marshal(g.Pings)
	}
	return json.Marshal(g.Files)
}

func (g *FlatGroup) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		return json.Unmarshal(data, &g.Pings)
	}
	return json.Unmarshal(data, &g.Files)
}

// FlatCatalog keeps the catalog nesting but stores filenames with dates
// instead of relative paths.
type FlatCatalog map[string]map[string]map[string]FlatGroup

// Flatten copies every cataloged file into outputDir (one flat folder,
// deduped by filename) and builds the date-stamped catalog. Copy failures
// are logged and skipped so one unreadable file does not abort the run.
func Flatten(catalog Catalog, sourceDir, outputDir string) (FlatCatalog, int, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, 0, fmt.Errorf("failed to create output folder: %w", err)
	}

	flat := make(FlatCatalog)
	copied := make(map[string]bool)

	process := func(relPath string) FlatEntry {
		filename := filepath.Base(relPath)
		sourcePath := filepath.Join(sourceDir, relPath)
		entry := FlatEntry{Filename: filename, Date: fileDate(sourcePath)}

		if !copied[filename] {
			if err := copyFile(sourcePath, filepath.Join(outputDir, filename)); err != nil {
				slog.Warn("Failed to copy voice line", "file", filename, "error", err)
			} else {
				copied[filename] = true
			}
		}
		return entry
	}

	for speaker, subjects := range catalog {
		flat[speaker] = make(map[string]map[string]FlatGroup)
		for subject, topics := range subjects {
			flat[speaker][subject] = make(map[string]FlatGroup)
			for topic, group := range topics {
				var fg FlatGroup
				if group.Pings != nil {
					fg.Pings = make(map[string][]FlatEntry)
					for pingType, paths := range group.Pings {
						for _, rel := range paths {
							fg.Pings[pingType] = append(fg.Pings[pingType], process(rel))
						}
					}
				} else {
					for _, rel := range group.Paths {
						fg.Files = append(fg.Files, process(rel))
					}
				}
				flat[speaker][subject][topic] = fg
			}
		}
	}

	return flat, len(copied), nil
}

// FlatOutputPath derives the flat catalog filename, e.g. "catalog.json" ->
// "catalog_flat.json".
func FlatOutputPath(inputPath string) string {
	ext := filepath.Ext(inputPath)
	return strings.TrimSuffix(inputPath, ext) + "_flat" + ext
}

// Save writes the flat catalog as indented JSON.
func (f FlatCatalog) Save(path string) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal flat catalog: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write flat catalog: %w", err)
	}
	return nil
}

func fileDate(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return ""
	}
	return info.ModTime().Format("2006-01-02")
}

// copyFile copies contents and preserves the modification time, so file
// dates survive the flatten.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	if info, err := os.Stat(src); err == nil {
		if err := os.Chtimes(dst, time.Now(), info.ModTime()); err != nil {
			slog.Debug("Failed to preserve mtime", "file", dst, "error", err)
		}
	}
	return nil
}
