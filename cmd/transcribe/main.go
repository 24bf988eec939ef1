// Command transcribe runs batch transcription over a voice-line catalog
// and writes one consolidated JSON file grouped by speaker and subject.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"convoscope/pkg/config"
	"convoscope/pkg/transcribe"
)

var (
	configPath  = flag.String("config", "configs/convoscope.yaml", "Path to config file")
	catalogPath = flag.String("catalog", "", "Voice-line catalog JSON (required)")
	sourceDir   = flag.String("source", "", "Directory holding the mp3 files (defaults to the configured source)")
	outputPath  = flag.String("output", "consolidated_transcriptions.json", "Consolidated output file")
	workers     = flag.Int("workers", 0, "Concurrent transcription workers (0 uses the configured value)")
	force       = flag.Bool("force", false, "Re-transcribe files that are already cached")
)

func main() {
	flag.Parse()
	_ = godotenv.Load()

	if *catalogPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: transcribe -catalog <catalog.json> [-source <dir>] [-output <file>]")
		os.Exit(2)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// dirResolver resolves catalog filenames against a flat source directory.
type dirResolver struct {
	dir string
}

func (r dirResolver) FilePath(filename string) string {
	return filepath.Join(r.dir, filename)
}

func run() error {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.OpenAI.Key == "" {
		cfg.OpenAI.Key = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.OpenAI.Key == "" {
		return fmt.Errorf("OpenAI API key not set (config or OPENAI_API_KEY)")
	}

	slog.SetLogLoggerLevel(slog.LevelWarn)

	dir := *sourceDir
	if dir == "" {
		dir = cfg.Source.Directory
	}
	if dir == "" {
		return fmt.Errorf("no source directory (use -source or configure one)")
	}

	items, err := transcribe.LoadItems(*catalogPath)
	if err != nil {
		return err
	}
	fmt.Printf("Catalog: %d voice lines\n", len(items))

	prompt, err := transcribe.LoadVocabulary(cfg.Transcribe.VocabularyFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: vocabulary not loaded: %v\n", err)
	}
	whisper, err := transcribe.NewClient(&cfg.OpenAI, &cfg.Transcribe, prompt)
	if err != nil {
		return err
	}
	cache, err := transcribe.NewCache(cfg.Transcribe.Directory)
	if err != nil {
		return err
	}
	svc := transcribe.NewService(whisper, cache, nil, dirResolver{dir: dir}, nil, cfg.OpenAI.WhisperModel)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	n := *workers
	if n == 0 {
		n = cfg.Transcribe.Workers
	}

	progress := func(p transcribe.Progress) {
		if p.Err != nil {
			fmt.Printf("[%d/%d] %s: FAILED (%v)\n", p.Current, p.Total, p.File, p.Err)
			return
		}
		fmt.Printf("[%d/%d] %s: %s\n", p.Current, p.Total, p.File, p.Status)
	}

	consolidated, stats, err := svc.Batch(ctx, items, n, *force, progress)
	if err != nil {
		return err
	}

	if err := transcribe.WriteConsolidated(*outputPath, consolidated); err != nil {
		return err
	}

	fmt.Printf("\nDone: %d successful, %d failed, %d skipped (of %d)\n",
		stats.Successful, stats.Failed, stats.Skipped, stats.Total)
	fmt.Printf("Consolidated %d entries into %s\n", transcribe.CountEntries(consolidated), *outputPath)
	return nil
}
