package organizer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Catalog nests speaker -> subject -> topic -> relative file paths. The
// synthetic "Pings" topic nests one more level by ping type, so its JSON
// value is an object where every other topic's is an array.
type Catalog map[string]SubjectMap

// SubjectMap maps a subject to its topics.
type SubjectMap map[string]TopicMap

// TopicMap maps a topic name to its files.
type TopicMap map[string]PathGroup

// PathGroup holds either plain paths or ping-type buckets, never both.
type PathGroup struct {
	Paths []string
	Pings map[string][]string
}

func (g PathGroup) MarshalJSON() ([]byte, error) {
	if g.Pings != nil {
		return json.Marshal(g.Pings)
	}
	return json.Marshal(g.Paths)
}

func (g *PathGroup) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		return json.Unmarshal(data, &g.Pings)
	}
	return json.Unmarshal(data, &g.Paths)
}

// add files a parsed line into the catalog. Returns false when the line is
// an excluded regular ping.
func (c Catalog) add(line *ParsedLine, excludeRegularPings bool) bool {
	if pingType, ok := strings.CutPrefix(line.Topic, "ping_"); ok {
		if excludeRegularPings && pingType != "pre_game" && pingType != "post_game" {
			return false
		}
		topics := c.topics(line)
		group := topics["Pings"]
		if group.Pings == nil {
			group.Pings = make(map[string][]string)
		}
		group.Pings[pingType] = append(group.Pings[pingType], line.RelPath)
		topics["Pings"] = group
		return true
	}

	topics := c.topics(line)
	group := topics[line.Topic]
	group.Paths = append(group.Paths, line.RelPath)
	topics[line.Topic] = group
	return true
}

func (c Catalog) topics(line *ParsedLine) TopicMap {
	subjects, ok := c[line.Speaker]
	if !ok {
		subjects = make(SubjectMap)
		c[line.Speaker] = subjects
	}
	topics, ok := subjects[line.Subject]
	if !ok {
		topics = make(TopicMap)
		subjects[line.Subject] = topics
	}
	return topics
}

// Count tallies every file reference in the catalog.
func (c Catalog) Count() int {
	n := 0
	for _, subjects := range c {
		for _, topics := range subjects {
			for _, group := range topics {
				n += len(group.Paths)
				for _, paths := range group.Pings {
					n += len(paths)
				}
			}
		}
	}
	return n
}

// Save writes the catalog as indented JSON.
func (c Catalog) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	return nil
}

// LoadCatalog reads a catalog JSON file.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return c, nil
}
