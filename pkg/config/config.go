package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Source     SourceConfig     `yaml:"source"`
	Request    RequestConfig    `yaml:"request"`
	Log        LogConfig        `yaml:"log"`
	DB         DBConfig         `yaml:"db"`
	Server     ServerConfig     `yaml:"server"`
	OpenAI     OpenAIConfig     `yaml:"openai"`
	Transcribe TranscribeConfig `yaml:"transcribe"`
	Translate  TranslateConfig  `yaml:"translate"`
	Export     ExportConfig     `yaml:"export"`
	Organizer  OrganizerConfig  `yaml:"organizer"`
	Audio      AudioConfig      `yaml:"audio"`
}

// SourceConfig locates the voice-line library on disk.
type SourceConfig struct {
	Directory  string `yaml:"directory"`
	AliasTable string `yaml:"alias_table"`
}

// RequestConfig holds HTTP request settings.
type RequestConfig struct {
	Retries int           `yaml:"retries"`
	Timeout Duration      `yaml:"timeout"`
	Backoff BackoffConfig `yaml:"backoff"`
}

// BackoffConfig holds exponential backoff settings.
type BackoffConfig struct {
	BaseDelay Duration `yaml:"base_delay"`
	MaxDelay  Duration `yaml:"max_delay"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Server    LogSettings `yaml:"server"`
	Requests  LogSettings `yaml:"requests"`
	OpenAI    LogSettings `yaml:"openai"`
	Translate LogSettings `yaml:"translate"`
}

// LogSettings holds settings for a specific logger.
type LogSettings struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// DBConfig holds database settings.
type DBConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// OpenAIConfig holds settings for the OpenAI-backed features.
type OpenAIConfig struct {
	Key              string `yaml:"key"`
	WhisperModel     string `yaml:"whisper_model"`
	ChatModel        string `yaml:"chat_model"`
	SummaryWordLimit int    `yaml:"summary_word_limit"`
}

// TranscribeConfig holds transcription settings.
type TranscribeConfig struct {
	Directory      string `yaml:"directory"`
	Workers        int    `yaml:"workers"`
	Language       string `yaml:"language"`
	VocabularyFile string `yaml:"vocabulary_file"`
}

// TranslateConfig holds DeepL settings.
type TranslateConfig struct {
	Key        string `yaml:"key"`
	APIHost    string `yaml:"api_host"`
	TargetLang string `yaml:"target_lang"`
	StrictMode bool   `yaml:"strict_mode"`
}

// ExportConfig holds export output settings.
type ExportConfig struct {
	Directory string `yaml:"directory"`
}

// OrganizerConfig holds settings for the topic catalog builder.
type OrganizerConfig struct {
	AliasFile           string `yaml:"alias_file"`
	TopicAliasFile      string `yaml:"topic_alias_file"`
	ExcludeRegularPings bool   `yaml:"exclude_regular_pings"`
}

// AudioConfig holds playback settings.
type AudioConfig struct {
	Volume float64 `yaml:"volume"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			Directory:  "",
			AliasTable: "character_mappings.json",
		},
		Request: RequestConfig{
			Retries: 5,
			Timeout: Duration(300 * time.Second),
			Backoff: BackoffConfig{
				BaseDelay: Duration(1 * time.Second),
				MaxDelay:  Duration(60 * time.Second),
			},
		},
		Log: LogConfig{
			Server: LogSettings{
				Path:  "./logs/server.log",
				Level: "INFO",
			},
			Requests: LogSettings{
				Path:  "./logs/requests.log",
				Level: "INFO",
			},
			OpenAI: LogSettings{
				Path:  "./logs/openai.log",
				Level: "INFO",
			},
			Translate: LogSettings{
				Path:  "./logs/translate.log",
				Level: "INFO",
			},
		},
		DB: DBConfig{
			Path: "./data/convoscope.db",
		},
		Server: ServerConfig{
			Address: "localhost:1923",
		},
		OpenAI: OpenAIConfig{
			Key:              "",
			WhisperModel:     "whisper-1",
			ChatModel:        "gpt-3.5-turbo",
			SummaryWordLimit: 7,
		},
		Transcribe: TranscribeConfig{
			Directory:      "transcriptions",
			Workers:        5,
			Language:       "en",
			VocabularyFile: "",
		},
		Translate: TranslateConfig{
			Key:        "",
			APIHost:    "https://api-free.deepl.com",
			TargetLang: "EN-US",
			StrictMode: true,
		},
		Export: ExportConfig{
			Directory: "./exports",
		},
		Organizer: OrganizerConfig{
			AliasFile:           "hero_aliases.json",
			TopicAliasFile:      "topic_aliases.json",
			ExcludeRegularPings: false,
		},
		Audio: AudioConfig{
			Volume: 1.0,
		},
	}
}

// Load loads the configuration from the given path.
// If the file does not exist, it creates it with default values.
// If the file exists, it merges defaults with existing values but does NOT
// save back to disk (to preserve user formatting and comments).
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}

		// Load from Env if empty (as a fallback, but do NOT save back to disk)
		if cfg.OpenAI.Key == "" {
			if key := os.Getenv("OPENAI_API_KEY"); key != "" {
				cfg.OpenAI.Key = key
			}
		}
		if cfg.Translate.Key == "" {
			if key := os.Getenv("DEEPL_API_KEY"); key != "" {
				cfg.Translate.Key = key
			}
		}

		return cfg, nil
	}

	if err := Save(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to save config file: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# Convoscope Configuration
# ------------------------
# Supported Units:
#   Duration: ns, us (or µs), ms, s, m, h, d (day), w (week)

`)
	data = append(header, data...)

	// Inject comments for fields whose values are not self-explanatory.
	reTarget := regexp.MustCompile(`(?m)^(\s+)target_lang:`)
	data = reTarget.ReplaceAll(data, []byte("${1}# DeepL target language code, e.g. EN-US, DE, JA\n${1}target_lang:"))

	reStrict := regexp.MustCompile(`(?m)^(\s+)strict_mode:`)
	data = reStrict.ReplaceAll(data, []byte("${1}# true: only Japanese text is translated; false: any non-English text\n${1}strict_mode:"))

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateDefault creates a default config file at the given path.
// Returns nil if the file already exists.
func GenerateDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return Save(path, DefaultConfig())
}
