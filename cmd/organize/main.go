// Command organize builds a nested speaker/subject/topic catalog from a
// tree of interaction voice lines, and can flatten it into a single folder
// with a date-stamped catalog.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"convoscope/pkg/alias"
	"convoscope/pkg/config"
	"convoscope/pkg/organizer"
)

var (
	configPath   = flag.String("config", "configs/convoscope.yaml", "Path to config file")
	sourceDir    = flag.String("source", "", "Directory tree holding the mp3 files (required)")
	outputPath   = flag.String("output", "voiceline_catalog.json", "Catalog output file")
	flatten      = flag.Bool("flatten", false, "Also copy every file into one flat folder with a dated catalog")
	flatDir      = flag.String("flat-dir", "", "Flat folder destination (defaults to <source>_flat)")
	excludePings = flag.Bool("exclude-regular-pings", false, "Keep only pre_game and post_game pings")
)

func main() {
	flag.Parse()

	if *sourceDir == "" {
		fmt.Fprintln(os.Stderr, "Usage: organize -source <dir> [-output <catalog.json>] [-flatten]")
		os.Exit(2)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	heroes, err := alias.LoadNameSet(cfg.Organizer.AliasFile)
	if err != nil {
		return fmt.Errorf("hero alias file: %w", err)
	}
	topics, err := alias.LoadNameSet(cfg.Organizer.TopicAliasFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: topic alias file not loaded: %v\n", err)
		topics = alias.NameSet{}
	}

	exclude := *excludePings || cfg.Organizer.ExcludeRegularPings
	org := organizer.New(heroes, topics, exclude)

	catalog, stats, err := org.ProcessDirectory(*sourceDir)
	if err != nil {
		return err
	}
	if err := catalog.Save(*outputPath); err != nil {
		return err
	}

	fmt.Printf("Cataloged %d voice lines (%d files) into %s\n",
		stats.Processed-stats.Disregarded, catalog.Count(), *outputPath)
	if stats.Disregarded > 0 {
		fmt.Printf("Disregarded %d files with unknown names: %s\n",
			stats.Disregarded, strings.Join(stats.DisregardedNames, ", "))
	}

	if !*flatten {
		return nil
	}

	dest := *flatDir
	if dest == "" {
		dest = strings.TrimRight(*sourceDir, "/\\") + "_flat"
	}
	flat, copied, err := organizer.Flatten(catalog, *sourceDir, dest)
	if err != nil {
		return err
	}
	flatPath := organizer.FlatOutputPath(*outputPath)
	if err := flat.Save(flatPath); err != nil {
		return err
	}
	fmt.Printf("Flattened %d unique files into %s (catalog: %s)\n", copied, dest, flatPath)
	return nil
}
