package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"convoscope/internal/api"
	"convoscope/pkg/alias"
	"convoscope/pkg/audio"
	"convoscope/pkg/config"
	"convoscope/pkg/db"
	"convoscope/pkg/export"
	"convoscope/pkg/library"
	"convoscope/pkg/llm"
	"convoscope/pkg/llm/openai"
	"convoscope/pkg/logging"
	"convoscope/pkg/playback"
	"convoscope/pkg/request"
	"convoscope/pkg/store"
	"convoscope/pkg/tracker"
	"convoscope/pkg/transcribe"
	"convoscope/pkg/translate"
	"convoscope/pkg/version"
)

var initConfig = flag.Bool("init-config", false, "Generate default config file and exit")

func main() {
	flag.Parse()

	// API keys may live in a .env file next to the binary
	_ = godotenv.Load()

	// Handle --init-config flag
	if *initConfig {
		if err := config.GenerateDefault("configs/convoscope.yaml"); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Config file generated: configs/convoscope.yaml")
		return
	}

	if err := run(context.Background(), "configs/convoscope.yaml"); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL ERROR: Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyEnvKeys(cfg)

	cleanupLogs, err := logging.Init(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	slog.Info("Convoscope started", "version", version.Version)

	dbConn, st, err := initDB(cfg)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	if err := dbConn.PruneCache(4 * config.Week); err != nil {
		slog.Warn("Cache prune failed", "error", err)
	}

	tr := tracker.New()

	aliases := loadAliases(cfg.Source.AliasTable)
	lib := library.New(cfg.Source.Directory, aliases)
	if cfg.Source.Directory != "" {
		if err := lib.Rescan(); err != nil {
			slog.Warn("Initial library scan failed", "error", err)
		} else {
			stats := lib.Stats()
			slog.Info("Library scan complete",
				"conversations", stats.Conversations, "clips", stats.Clips,
				"incomplete", stats.Incomplete)
		}
	}

	player := audio.New(&cfg.Audio)
	restoreVolume(ctx, st, player)
	seq := playback.NewSequencer(player, lib)

	svcs, err := initServices(cfg, st, tr, aliases, lib)
	if err != nil {
		return err
	}

	return runServer(ctx, cfg, configPath, lib, seq, player, svcs, st, tr)
}

// applyEnvKeys fills in API keys from the environment when the config file
// leaves them blank.
func applyEnvKeys(cfg *config.Config) {
	if cfg.OpenAI.Key == "" {
		cfg.OpenAI.Key = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Translate.Key == "" {
		cfg.Translate.Key = os.Getenv("DEEPL_API_KEY")
	}
}

func initDB(cfg *config.Config) (*db.DB, *store.SQLiteStore, error) {
	dbConn, err := db.Init(cfg.DB.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return dbConn, store.NewSQLiteStore(dbConn), nil
}

func loadAliases(path string) alias.Table {
	if path == "" {
		return alias.DefaultTable()
	}
	table, err := alias.LoadTable(path)
	if err != nil {
		slog.Warn("Alias table not loaded, using defaults", "path", path, "error", err)
		return alias.DefaultTable()
	}
	return table
}

func restoreVolume(ctx context.Context, st *store.SQLiteStore, player audio.Service) {
	volStr, ok := st.GetState(ctx, "volume")
	if !ok || volStr == "" {
		return
	}
	var val float64
	if _, err := fmt.Sscanf(volStr, "%f", &val); err == nil {
		player.SetVolume(val)
	}
}

// Services bundles the optional API-backed components. Fields are nil when
// the matching API key is missing.
type Services struct {
	Cache      *transcribe.Cache
	Transcribe *transcribe.Service
	Builder    *export.Builder
	Translator translate.Translator
}

func initServices(cfg *config.Config, st *store.SQLiteStore, tr *tracker.Tracker, aliases alias.Table, lib *library.Library) (*Services, error) {
	cache, err := transcribe.NewCache(cfg.Transcribe.Directory)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize transcription cache: %w", err)
	}
	svcs := &Services{Cache: cache}

	var provider llm.Provider
	if cfg.OpenAI.Key != "" {
		chat, err := openai.NewClient(&cfg.OpenAI)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize chat client: %w", err)
		}
		provider = chat

		prompt, err := transcribe.LoadVocabulary(cfg.Transcribe.VocabularyFile)
		if err != nil {
			slog.Warn("Vocabulary file not loaded", "path", cfg.Transcribe.VocabularyFile, "error", err)
		}
		whisper, err := transcribe.NewClient(&cfg.OpenAI, &cfg.Transcribe, prompt)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize transcription client: %w", err)
		}
		svcs.Transcribe = transcribe.NewService(whisper, cache, aliases, lib, st, cfg.OpenAI.WhisperModel)
	} else {
		slog.Info("OpenAI key not set, transcription and summaries disabled")
	}

	summarizer := llm.NewSummarizer(provider, cfg.OpenAI.SummaryWordLimit)
	svcs.Builder = export.NewBuilder(aliases, cache, lib, summarizer, st, st)

	if cfg.Translate.Key != "" {
		reqClient := request.New(&cfg.Request, st, tr)
		deepl, err := translate.NewClient(&cfg.Translate, reqClient)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize translation client: %w", err)
		}
		svcs.Translator = deepl
	} else {
		slog.Info("DeepL key not set, translation disabled")
	}

	return svcs, nil
}

func runServer(ctx context.Context, cfg *config.Config, cfgPath string, lib *library.Library, seq *playback.Sequencer, player audio.Service, svcs *Services, st *store.SQLiteStore, tr *tracker.Tracker) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	shutdownFunc := func() { quit <- syscall.SIGTERM }

	hub := api.NewHub()

	var transH *api.TranscribeHandler
	if svcs.Transcribe != nil {
		transH = api.NewTranscribeHandler(svcs.Transcribe, svcs.Cache, lib, hub)
	}

	srv := api.NewServer(cfg.Server.Address,
		api.NewLibraryHandler(lib, hub),
		api.NewPlaybackHandler(seq, player, lib, st, hub),
		transH,
		api.NewExportHandler(svcs.Builder, svcs.Cache, lib, st, cfg.Export.Directory, hub),
		api.NewTranslateHandler(svcs.Translator, cfg.Translate.StrictMode, hub),
		api.NewConfigHandler(cfg, cfgPath, lib, st),
		api.NewStatsHandler(tr, lib, st, hub),
		hub,
		shutdownFunc,
	)

	srv.Handler = loggingMiddleware(srv.Handler)
	return runServerLifecycle(ctx, srv, quit)
}

func runServerLifecycle(ctx context.Context, srv *http.Server, quit chan os.Signal) error {
	slog.Info("Starting server", "addr", srv.Addr)
	serverErrors := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()
	select {
	case <-quit:
		slog.Info("Shutting down server...")
	case <-ctx.Done():
		slog.Info("Context cancelled, shutting down...")
	case err := <-serverErrors:
		return fmt.Errorf("server failed: %w", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logging.RequestLogger.Info("Request Processed", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
