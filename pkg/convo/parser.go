// Package convo reconstructs conversations from voice-line filenames.
//
// A conversation is a sequence of numbered parts between two characters,
// where each part may have several alternate takes ("variations"). The
// package is pure: it performs no I/O and never fails on malformed input,
// it only excludes filenames it cannot recognize.
package convo

import (
	"regexp"
	"strconv"

	"convoscope/pkg/alias"
	"convoscope/pkg/model"
)

// The two filename grammars, most specific first:
//
//	<starter>_match_start_<charA>_<charB>_<topic>_convo<N>_<part>[_<variation>].mp3
//	<starter>_match_start_<charA>_<charB>_convo<N>_<part>[_<variation>].mp3
//
// Without length-bounding, a greedy topic token is indistinguishable from
// "no topic" under a single pattern, so every filename is tried against the
// topic grammar before falling back to the plain one.
var (
	reWithTopic = regexp.MustCompile(`^(\w+)_match_start_(\w+)_(\w+)_(\w+)_convo(\d+)_(\d+)(?:_(\d+))?\.mp3$`)
	reNoTopic   = regexp.MustCompile(`^(\w+)_match_start_(\w+)_(\w+)_convo(\d+)_(\d+)(?:_(\d+))?\.mp3$`)
)

// Parser turns filenames into ClipRecords, applying an alias table to
// every speaker name it extracts. A nil table is the identity.
type Parser struct {
	aliases alias.Table
}

// NewParser creates a Parser with the given alias table.
func NewParser(aliases alias.Table) *Parser {
	return &Parser{aliases: aliases}
}

func (p *Parser) canonical(name string) string {
	if p.aliases == nil {
		return name
	}
	return p.aliases.Canonical(name)
}

// Parse attempts both grammars against the filename. The second return
// value is false when neither matches; unrecognized files are expected
// noise, not errors.
func (p *Parser) Parse(filename string) (*model.ClipRecord, bool) {
	if m := reWithTopic.FindStringSubmatch(filename); m != nil {
		return p.record(filename, m[1], m[2], m[3], m[4], m[5], m[6], m[7]), true
	}
	if m := reNoTopic.FindStringSubmatch(filename); m != nil {
		return p.record(filename, m[1], m[2], m[3], "", m[4], m[5], m[6]), true
	}
	return nil, false
}

func (p *Parser) record(filename, starter, charA, charB, topic, number, part, variation string) *model.ClipRecord {
	convoNum, _ := strconv.Atoi(number)
	partNum, _ := strconv.Atoi(part)
	variationNum := 1
	if variation != "" {
		variationNum, _ = strconv.Atoi(variation)
	}
	// The conversation number travels with the clip so grouping does not
	// need to re-parse the filename.
	return &model.ClipRecord{
		Filename:   filename,
		Starter:    p.canonical(starter),
		CharacterA: p.canonical(charA),
		CharacterB: p.canonical(charB),
		Topic:      topic,
		Part:       partNum,
		Variation:  variationNum,
		Number:     convoNum,
	}
}

// ParseAll parses a directory listing, silently dropping unrecognized names.
func (p *Parser) ParseAll(filenames []string) []*model.ClipRecord {
	records := make([]*model.ClipRecord, 0, len(filenames))
	for _, name := range filenames {
		if rec, ok := p.Parse(name); ok {
			records = append(records, rec)
		}
	}
	return records
}
