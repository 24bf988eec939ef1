package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// BatchItem is one cataloged clip queued for batch transcription. Speaker,
// Subject and Topic come from the voice-line catalog; PingType is set only
// when Topic is "Pings".
type BatchItem struct {
	Filename string
	Speaker  string
	Subject  string
	Topic    string
	PingType string
}

// BatchEntry is the consolidated output record for one clip.
type BatchEntry struct {
	Filename      string `json:"filename"`
	Date          string `json:"date,omitempty"`
	VoicelineID   string `json:"voiceline_id"`
	Transcription string `json:"transcription"`
}

// Stats summarizes a batch run.
type Stats struct {
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
	Skipped    int `json:"skipped"`
	Total      int `json:"total"`
}

// Progress reports batch state to the caller. Err is set for per-file
// failures; the batch keeps going.
type Progress struct {
	File    string
	Current int
	Total   int
	Status  string
	Err     error
}

// ProgressFunc receives batch progress updates. May be nil.
type ProgressFunc func(Progress)

type batchResult struct {
	item    BatchItem
	entry   BatchEntry
	status  string // "success", "skipped", "failed"
	failure error
}

// Batch transcribes every item with a fixed-size worker pool, reusing
// cached transcripts unless force is set. The consolidated output keeps the
// catalog's speaker/subject/topic nesting; failed files are counted but
// excluded from it.
func (s *Service) Batch(ctx context.Context, items []BatchItem, workers int, force bool, progress ProgressFunc) (map[string]SubjectGroup, Stats, error) {
	if workers <= 0 {
		workers = 5
	}
	total := len(items)
	report := func(p Progress) {
		if progress != nil {
			p.Total = total
			progress(p)
		}
	}
	report(Progress{Status: fmt.Sprintf("Found %d files to transcribe", total)})
	slog.Info("Batch transcription starting", "files", total, "workers", workers)

	jobs := make(chan int)
	results := make([]batchResult, total)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = s.processItem(ctx, items[i], force)
				report(Progress{
					File:    items[i].Filename,
					Current: i + 1,
					Status:  fmt.Sprintf("Processed %s (%s)", items[i].Filename, results[i].status),
					Err:     results[i].failure,
				})
			}
		}()
	}

	for i := range items {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	consolidated := make(map[string]SubjectGroup)
	var stats Stats
	stats.Total = total
	for _, res := range results {
		switch res.status {
		case "success":
			stats.Successful++
		case "skipped":
			stats.Skipped++
		default:
			stats.Failed++
			continue
		}
		addEntry(consolidated, res.item, res.entry)
	}

	slog.Info("Batch transcription complete",
		"successful", stats.Successful, "failed", stats.Failed, "skipped", stats.Skipped)
	return consolidated, stats, nil
}

func (s *Service) processItem(ctx context.Context, item BatchItem, force bool) batchResult {
	res := batchResult{item: item}
	path := s.resolver.FilePath(item.Filename)

	if !force {
		if tr, ok := s.cache.Load(item.Filename); ok {
			res.status = "skipped"
			res.entry = entryFor(item.Filename, path, tr.Text)
			return res
		}
	}

	if _, err := os.Stat(path); err != nil {
		res.status = "failed"
		res.failure = fmt.Errorf("file not found: %s", path)
		return res
	}

	tr, err := s.whisper.Transcribe(ctx, path)
	if err != nil {
		res.status = "failed"
		res.failure = err
		return res
	}
	if err := s.cache.Save(item.Filename, tr); err != nil {
		slog.Warn("Failed to cache transcript", "file", item.Filename, "error", err)
	}

	res.status = "success"
	res.entry = entryFor(item.Filename, path, tr.Text)
	return res
}

func entryFor(filename, path, text string) BatchEntry {
	return BatchEntry{
		Filename:      filename,
		Date:          FileDate(path),
		VoicelineID:   strings.TrimSuffix(filename, filepath.Ext(filename)),
		Transcription: text,
	}
}

// SubjectGroup nests subject -> topic within one speaker.
type SubjectGroup map[string]TopicGroup

// TopicGroup maps a topic to its transcribed clips. The "Pings" topic nests
// one more level by ping type, so it marshals as an object instead of an
// array.
type TopicGroup map[string]topicFiles

type topicFiles struct {
	Files []BatchEntry
	Pings map[string][]BatchEntry
}

func (t topicFiles) MarshalJSON() ([]byte, error) {
	if t.Pings != nil {
		return json.Marshal(t.Pings)
	}
	return json.Marshal(t.Files)
}

func (t *topicFiles) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		return json.Unmarshal(data, &t.Pings)
	}
	return json.Unmarshal(data, &t.Files)
}

func addEntry(out map[string]SubjectGroup, item BatchItem, entry BatchEntry) {
	subjects, ok := out[item.Speaker]
	if !ok {
		subjects = make(SubjectGroup)
		out[item.Speaker] = subjects
	}
	topics, ok := subjects[item.Subject]
	if !ok {
		topics = make(TopicGroup)
		subjects[item.Subject] = topics
	}

	group := topics[item.Topic]
	if item.PingType != "" {
		if group.Pings == nil {
			group.Pings = make(map[string][]BatchEntry)
		}
		group.Pings[item.PingType] = append(group.Pings[item.PingType], entry)
	} else {
		group.Files = append(group.Files, entry)
	}
	topics[item.Topic] = group
}

// WriteConsolidated saves the consolidated catalog to a JSON file.
func WriteConsolidated(path string, data map[string]SubjectGroup) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	buf, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal consolidated catalog: %w", err)
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("failed to write consolidated catalog: %w", err)
	}
	return nil
}

// CountEntries tallies the clips in a consolidated catalog.
func CountEntries(data map[string]SubjectGroup) int {
	n := 0
	for _, subjects := range data {
		for _, topics := range subjects {
			for _, group := range topics {
				n += len(group.Files)
				for _, pings := range group.Pings {
					n += len(pings)
				}
			}
		}
	}
	return n
}
