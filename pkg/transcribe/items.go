package transcribe

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// itemRef accepts both catalog shapes: a bare path string or an object
// with a filename field (the flattened format).
type itemRef struct {
	Filename string `json:"filename"`
}

func (r *itemRef) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "\"") {
		return json.Unmarshal(data, &r.Filename)
	}
	type plain itemRef
	return json.Unmarshal(data, (*plain)(r))
}

// LoadItems reads a voice-line catalog JSON file and returns its clips as
// a flat batch work list, sorted for deterministic processing order. Both
// the path catalog and the flattened catalog parse.
func LoadItems(path string) ([]BatchItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	var catalog map[string]map[string]map[string]json.RawMessage
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	var items []BatchItem
	for speaker, subjects := range catalog {
		for subject, topics := range subjects {
			for topic, raw := range topics {
				if topic == "Pings" {
					var pings map[string][]itemRef
					if err := json.Unmarshal(raw, &pings); err != nil {
						return nil, fmt.Errorf("failed to parse pings for %s/%s: %w", speaker, subject, err)
					}
					for pingType, refs := range pings {
						for _, ref := range refs {
							items = append(items, BatchItem{
								Filename: ref.Filename,
								Speaker:  speaker,
								Subject:  subject,
								Topic:    topic,
								PingType: pingType,
							})
						}
					}
					continue
				}
				var refs []itemRef
				if err := json.Unmarshal(raw, &refs); err != nil {
					return nil, fmt.Errorf("failed to parse topic %s for %s/%s: %w", topic, speaker, subject, err)
				}
				for _, ref := range refs {
					items = append(items, BatchItem{
						Filename: ref.Filename,
						Speaker:  speaker,
						Subject:  subject,
						Topic:    topic,
					})
				}
			}
		}
	}

	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Speaker != b.Speaker {
			return a.Speaker < b.Speaker
		}
		if a.Subject != b.Subject {
			return a.Subject < b.Subject
		}
		if a.Topic != b.Topic {
			return a.Topic < b.Topic
		}
		if a.PingType != b.PingType {
			return a.PingType < b.PingType
		}
		return a.Filename < b.Filename
	})
	return items, nil
}
