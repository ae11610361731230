// Package config provides the configuration structure for the dialogue-service.
package config

import (
	"fmt"
	"time"

	"github.com/book-expert/configurator"
	"github.com/book-expert/dialogue-service/internal/dialogue"
	"github.com/book-expert/logger"
)

// Defaults applied to missing configuration values.
const (
	DefaultNATSURL                   = "nats://127.0.0.1:4222"
	DefaultChapterSubmittedSubject   = "chapter.submitted"
	DefaultVoiceRegenerateSubject    = "dialogue.voice.regenerate"
	DefaultDialogueObjectStoreBucket = "DIALOGUES"
	DefaultContextWindow             = 100
	DefaultVoiceServiceURL           = "http://localhost:8000"
	DefaultVoiceTimeoutSeconds       = 60
	DefaultVoicePauseMillis          = 1000
	DefaultVoiceModel                = "alloy"
	DefaultVoiceLanguage             = "zh"
	DefaultJobTimeoutSeconds         = 600
	DefaultBaseLogsDir               = "logs"
)

// NATSConfig holds the configuration for NATS.
type NATSConfig struct {
	URL                       string `toml:"url"`
	ChapterSubmittedSubject   string `toml:"chapter_submitted_subject"`
	VoiceRegenerateSubject    string `toml:"voice_regenerate_subject"`
	DialogueObjectStoreBucket string `toml:"dialogue_object_store_bucket"`
	JobTimeoutSeconds         int    `toml:"job_timeout_seconds"`
}

// ExtractionConfig tunes dialogue extraction.
type ExtractionConfig struct {
	ContextWindow    int  `toml:"context_window"`
	SingleLineQuotes bool `toml:"single_line_quotes"`
}

// VoiceConfig holds the configuration of the TTS collaborator.
type VoiceConfig struct {
	ServiceURL     string `toml:"service_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	PauseMillis    int    `toml:"pause_millis"`
	DefaultModel   string `toml:"default_model"`
	Language       string `toml:"language"`
}

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	BaseLogsDir string `toml:"base_logs_dir"`
}

// Config is the root configuration structure.
type Config struct {
	NATS       NATSConfig       `toml:"nats"`
	Extraction ExtractionConfig `toml:"extraction"`
	Voice      VoiceConfig      `toml:"voice"`
	Paths      PathsConfig      `toml:"paths"`
}

// Load loads the configuration for the dialogue-service and fills in defaults.
func Load(log *logger.Logger) (*Config, error) {
	var cfg Config

	err := configurator.Load(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	cfg.ApplyDefaults()

	return &cfg, nil
}

// ApplyDefaults replaces zero values with their defaults. A negative
// pause_millis disables pacing between voice calls.
func (c *Config) ApplyDefaults() {
	setDefault(&c.NATS.URL, DefaultNATSURL)
	setDefault(&c.NATS.ChapterSubmittedSubject, DefaultChapterSubmittedSubject)
	setDefault(&c.NATS.VoiceRegenerateSubject, DefaultVoiceRegenerateSubject)
	setDefault(&c.NATS.DialogueObjectStoreBucket, DefaultDialogueObjectStoreBucket)
	setDefault(&c.NATS.JobTimeoutSeconds, DefaultJobTimeoutSeconds)
	setDefault(&c.Extraction.ContextWindow, DefaultContextWindow)
	setDefault(&c.Voice.ServiceURL, DefaultVoiceServiceURL)
	setDefault(&c.Voice.TimeoutSeconds, DefaultVoiceTimeoutSeconds)
	setDefault(&c.Voice.PauseMillis, DefaultVoicePauseMillis)
	setDefault(&c.Voice.DefaultModel, DefaultVoiceModel)
	setDefault(&c.Voice.Language, DefaultVoiceLanguage)
	setDefault(&c.Paths.BaseLogsDir, DefaultBaseLogsDir)
}

// JobTimeout is the deadline given to one chapter job.
func (c *NATSConfig) JobTimeout() time.Duration {
	return time.Duration(c.JobTimeoutSeconds) * time.Second
}

// Timeout is the HTTP timeout of one synthesis call.
func (c *VoiceConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Pause is the interval kept between synthesis calls.
func (c *VoiceConfig) Pause() time.Duration {
	if c.PauseMillis < 0 {
		return 0
	}

	return time.Duration(c.PauseMillis) * time.Millisecond
}

// Pipeline builds the dialogue extraction pipeline these settings describe.
func (c ExtractionConfig) Pipeline() *dialogue.Pipeline {
	var extractorOpts []dialogue.ExtractorOption
	if c.SingleLineQuotes {
		extractorOpts = append(extractorOpts, dialogue.WithSingleLine())
	}

	return dialogue.NewPipeline(
		dialogue.NewExtractor(extractorOpts...),
		dialogue.NewResolver(dialogue.WithContextWindow(c.ContextWindow)),
	)
}

func setDefault[T comparable](field *T, value T) {
	var zero T
	if *field == zero {
		*field = value
	}
}
