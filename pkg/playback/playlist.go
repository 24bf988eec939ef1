// Package playback sequences conversation clips for ordered playback.
package playback

import (
	"fmt"

	"convoscope/pkg/model"
)

// Item is one scheduled clip: a part of a conversation and the take
// chosen for it.
type Item struct {
	Filename  string `json:"filename"`
	Part      int    `json:"part"`
	Variation int    `json:"variation"`
}

// BuildPlaylist orders a conversation's parts ascending and picks one take
// per part. selections maps part number to a variation number; parts without
// a selection use the default take. A selection naming a variation the part
// does not have is an error rather than a silent fallback.
func BuildPlaylist(c *model.Conversation, selections map[int]int) ([]Item, error) {
	if c == nil {
		return nil, fmt.Errorf("no conversation")
	}

	var items []Item
	for _, part := range c.SortedParts() {
		clip := c.DefaultTake(part)
		if want, ok := selections[part]; ok {
			clip = nil
			for _, take := range c.Parts[part] {
				if take.Variation == want {
					clip = take
					break
				}
			}
			if clip == nil {
				return nil, fmt.Errorf("part %d has no variation %d", part, want)
			}
		}
		items = append(items, Item{
			Filename:  clip.Filename,
			Part:      clip.Part,
			Variation: clip.Variation,
		})
	}
	return items, nil
}
