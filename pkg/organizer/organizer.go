// Package organizer catalogs interaction voice lines. These follow a
// different grammar than conversations: speaker_{ally|enemy}_subject_topic_NN
// where the topic may span several underscore-separated tokens.
package organizer

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"convoscope/pkg/alias"
)

var variationSuffix = regexp.MustCompile(`_(\d+)$`)

// Relationship of the subject to the speaker.
const (
	RelAlly  = "ally"
	RelEnemy = "enemy"
)

// ParsedLine is one recognized interaction voice line.
type ParsedLine struct {
	Speaker      string // proper name
	Subject      string // proper name
	Topic        string // formatted topic, or "ping_<type>"
	Relationship string
	Variation    string
	RelPath      string // relative to the source root
}

// Stats summarizes a catalog build.
type Stats struct {
	Processed        int      `json:"processed"`
	Disregarded      int      `json:"disregarded"`
	DisregardedNames []string `json:"disregarded_names,omitempty"`
}

// Organizer validates speakers against the hero alias set and formats
// topics through the topic alias set.
type Organizer struct {
	heroes              alias.NameSet
	topics              alias.NameSet
	validSpeakers       map[string]bool
	excludeRegularPings bool

	disregarded map[string]bool
}

// New creates an Organizer. excludeRegularPings drops every ping type
// except pre_game and post_game.
func New(heroes, topics alias.NameSet, excludeRegularPings bool) *Organizer {
	return &Organizer{
		heroes:              heroes,
		topics:              topics,
		validSpeakers:       heroes.ValidNames(),
		excludeRegularPings: excludeRegularPings,
		disregarded:         make(map[string]bool),
	}
}

// ParseFilename parses one interaction filename. The second return value
// is false for files that do not match the grammar; files whose speaker or
// subject is not a known hero return (nil, true) and are tallied as
// disregarded.
func (o *Organizer) ParseFilename(relPath string) (*ParsedLine, bool) {
	base := filepath.Base(relPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	var relationship, speaker, rest string
	if before, after, found := strings.Cut(stem, "_ally_"); found {
		relationship, speaker, rest = RelAlly, before, after
	} else if before, after, found := strings.Cut(stem, "_enemy_"); found {
		relationship, speaker, rest = RelEnemy, before, after
	} else {
		return nil, false
	}

	if !o.validSpeakers[strings.ToLower(speaker)] {
		o.disregarded[alias.Capitalize(speaker)] = true
		return nil, true
	}

	m := variationSuffix.FindStringSubmatch(rest)
	if m == nil {
		slog.Debug("No variation number", "file", base)
		return nil, false
	}
	variation := m[1]
	rest = rest[:len(rest)-len(m[0])]

	subject, topicRaw, found := strings.Cut(rest, "_")
	if !found {
		slog.Debug("No topic after subject", "file", base)
		return nil, false
	}
	if !o.validSpeakers[strings.ToLower(subject)] {
		o.disregarded[alias.Capitalize(subject)] = true
		return nil, true
	}

	return &ParsedLine{
		Speaker:      o.heroes.ProperName(speaker),
		Subject:      o.heroes.ProperName(subject),
		Topic:        o.formatTopic(topicRaw),
		Relationship: relationship,
		Variation:    variation,
		RelPath:      relPath,
	}, true
}

// formatTopic normalizes a raw topic token. Ping topics become
// "ping_<type>"; everything else goes through the topic alias set with a
// Capitalize fallback.
func (o *Organizer) formatTopic(raw string) string {
	if strings.HasPrefix(raw, "ping") {
		return "ping_" + strings.TrimPrefix(strings.TrimPrefix(raw, "ping"), "_")
	}
	return o.topics.ProperName(raw)
}

// ProcessDirectory walks the source tree and builds the nested catalog.
func (o *Organizer) ProcessDirectory(sourceDir string) (Catalog, Stats, error) {
	var relPaths []string
	err := filepath.WalkDir(sourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".mp3") {
			return nil
		}
		rel, err := filepath.Rel(sourceDir, path)
		if err != nil {
			return err
		}
		relPaths = append(relPaths, rel)
		return nil
	})
	if err != nil {
		return nil, Stats{}, fmt.Errorf("failed to walk source directory: %w", err)
	}
	sort.Strings(relPaths)

	catalog := make(Catalog)
	var stats Stats
	for _, rel := range relPaths {
		line, recognized := o.ParseFilename(rel)
		if !recognized {
			continue
		}
		stats.Processed++
		if line == nil {
			stats.Disregarded++
			continue
		}
		if !catalog.add(line, o.excludeRegularPings) {
			continue
		}
		slog.Debug("Cataloged voice line",
			"file", filepath.Base(rel), "speaker", line.Speaker,
			"subject", line.Subject, "topic", line.Topic, "relationship", line.Relationship)
	}

	stats.DisregardedNames = o.DisregardedNames()
	return catalog, stats, nil
}

// DisregardedNames lists the unknown hero names seen so far, sorted.
func (o *Organizer) DisregardedNames() []string {
	names := make([]string, 0, len(o.disregarded))
	for name := range o.disregarded {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
