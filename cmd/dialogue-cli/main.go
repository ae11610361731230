package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/book-expert/dialogue-service/internal/config"
	"github.com/book-expert/dialogue-service/internal/dialogue"
	"github.com/book-expert/dialogue-service/internal/objectstore"
	"github.com/book-expert/dialogue-service/internal/voice"
	"github.com/book-expert/logger"
	"github.com/nats-io/nats.go"
	"github.com/pelletier/go-toml/v2"
)

// Flag descriptions.
const (
	flagTextDesc       = "Chapter text file to extract dialogue from"
	flagRosterDesc     = "TOML file listing the characters ([[characters]] tables)"
	flagOutputDesc     = "Output file for the JSON report or fetched voice file (defaults to stdout)"
	flagChapterDesc    = "Chapter number recorded in the report"
	flagWindowDesc     = "Runes searched on each side of an unlabeled quote"
	flagSingleLineDesc = "Do not let labels or quotes cross a line break"
	flagFrequencyDesc  = "Include the character frequency table in the report"
	flagVerboseDesc    = "Enable verbose logging"
	flagHealthDesc     = "Check TTS service health and exit"
	flagTTSURLDesc     = "Base URL of the TTS service used by --health"
	flagFetchDesc      = "Key of a stored voice file to fetch and exit"
	flagNATSURLDesc    = "NATS server URL used by --fetch"
	flagBucketDesc     = "Object store bucket used by --fetch"
)

// Flag names.
const (
	flagText       = "text"
	flagRoster     = "roster"
	flagOutput     = "output"
	flagChapter    = "chapter"
	flagWindow     = "window"
	flagSingleLine = "single-line"
	flagFrequency  = "frequency"
	flagVerbose    = "verbose"
	flagHealth     = "health"
	flagTTSURL     = "tts-url"
	flagFetch      = "fetch"
	flagNATSURL    = "nats-url"
	flagBucket     = "bucket"
)

// Log messages.
const (
	logExtracting      = "Extracting dialogue from %s with %d characters"
	logExtracted       = "Extracted %d dialogue lines"
	logOutputWritten   = "Output written to %s"
	logFetched         = "Fetched voice file %s from bucket %s (%d bytes)"
	msgServiceHealthy  = "TTS service is healthy"
	logHealthCheckFail = "Health check failed: %v"
)

// File names and limits.
const (
	logFileNameDefault = "dialogue-cli.log"
	logFileNameVerbose = "dialogue-cli-verbose.log"
	outputFilePerm     = 0o600
	healthCheckTimeout = 10 * time.Second
	fetchTimeout       = 30 * time.Second
)

var (
	errTextRequired   = errors.New("--text must be provided")
	errRosterRequired = errors.New("--roster must be provided")
)

// appFlags holds the parsed command-line flag values.
type appFlags struct {
	text       string
	roster     string
	output     string
	ttsURL     string
	fetch      string
	natsURL    string
	bucket     string
	chapter    int
	window     int
	singleLine bool
	frequency  bool
	verbose    bool
	health     bool
}

// rosterFile is the TOML layout of a roster file.
type rosterFile struct {
	Characters []dialogue.Character `toml:"characters"`
}

// report is the JSON document written by the CLI.
type report struct {
	Chapter   int                     `json:"chapter"`
	Dialogues []dialogue.Line         `json:"dialogues"`
	Frequency dialogue.FrequencyTable `json:"frequency,omitempty"`
}

func main() {
	err := run(os.Args[1:], os.Stdout)
	if err != nil {
		// A logger might not be initialized yet, so use the standard log package.
		log.Fatalf("Error: %v", err)
	}
}

// run is the main application entry point, returning an error on failure.
func run(args []string, stdout io.Writer) error {
	flags, err := parseFlags(args)
	if err != nil {
		return err
	}

	logFileName := logFileNameDefault
	if flags.verbose {
		logFileName = logFileNameVerbose
	}

	cliLog, err := logger.New(os.TempDir(), logFileName)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer cliLog.Close()

	if flags.health {
		return handleHealthCheck(flags.ttsURL, cliLog, stdout)
	}

	if flags.fetch != "" {
		return handleFetch(flags, cliLog, stdout)
	}

	err = validateFlags(flags)
	if err != nil {
		cliLog.Error("%v", err)

		return err
	}

	return extract(flags, cliLog, stdout)
}

// parseFlags defines and parses command-line flags, returning them in a struct.
func parseFlags(args []string) (appFlags, error) {
	var flags appFlags

	flagSet := flag.NewFlagSet("dialogue-cli", flag.ContinueOnError)
	flagSet.StringVar(&flags.text, flagText, "", flagTextDesc)
	flagSet.StringVar(&flags.roster, flagRoster, "", flagRosterDesc)
	flagSet.StringVar(&flags.output, flagOutput, "", flagOutputDesc)
	flagSet.StringVar(&flags.ttsURL, flagTTSURL, config.DefaultVoiceServiceURL, flagTTSURLDesc)
	flagSet.StringVar(&flags.fetch, flagFetch, "", flagFetchDesc)
	flagSet.StringVar(&flags.natsURL, flagNATSURL, config.DefaultNATSURL, flagNATSURLDesc)
	flagSet.StringVar(&flags.bucket, flagBucket, config.DefaultDialogueObjectStoreBucket, flagBucketDesc)
	flagSet.IntVar(&flags.chapter, flagChapter, 1, flagChapterDesc)
	flagSet.IntVar(&flags.window, flagWindow, dialogue.DefaultContextWindow, flagWindowDesc)
	flagSet.BoolVar(&flags.singleLine, flagSingleLine, false, flagSingleLineDesc)
	flagSet.BoolVar(&flags.frequency, flagFrequency, false, flagFrequencyDesc)
	flagSet.BoolVar(&flags.verbose, flagVerbose, false, flagVerboseDesc)
	flagSet.BoolVar(&flags.health, flagHealth, false, flagHealthDesc)

	err := flagSet.Parse(args)
	if err != nil {
		return flags, fmt.Errorf("failed to parse flags: %w", err)
	}

	return flags, nil
}

// validateFlags checks the flags an extraction run needs.
func validateFlags(flags appFlags) error {
	if flags.text == "" {
		return errTextRequired
	}

	if flags.roster == "" {
		return errRosterRequired
	}

	return nil
}

// loadRoster reads and validates a TOML roster file. A roster without
// characters is valid and attributes nothing.
func loadRoster(path string) ([]dialogue.Character, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster %s: %w", path, err)
	}

	var roster rosterFile

	err = toml.Unmarshal(data, &roster)
	if err != nil {
		return nil, fmt.Errorf("failed to parse roster %s: %w", path, err)
	}

	err = dialogue.ValidateRoster(roster.Characters)
	if err != nil {
		return nil, fmt.Errorf("invalid roster %s: %w", path, err)
	}

	return roster.Characters, nil
}

// extract runs the pipeline over the text file and writes the JSON report.
func extract(flags appFlags, cliLog *logger.Logger, stdout io.Writer) error {
	roster, err := loadRoster(flags.roster)
	if err != nil {
		cliLog.Error("%v", err)

		return err
	}

	content, err := os.ReadFile(flags.text)
	if err != nil {
		return fmt.Errorf("failed to read chapter text %s: %w", flags.text, err)
	}

	cliLog.Info(logExtracting, flags.text, len(roster))

	pipeline := config.ExtractionConfig{
		ContextWindow:    flags.window,
		SingleLineQuotes: flags.singleLine,
	}.Pipeline()

	chapter := dialogue.Chapter{Number: flags.chapter, Content: string(content)}
	result := report{
		Chapter:   chapter.Number,
		Dialogues: pipeline.Extract(chapter, roster),
	}

	if flags.frequency {
		result.Frequency = pipeline.Frequency(chapter, roster)
	}

	cliLog.Info(logExtracted, len(result.Dialogues))

	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	return writeOutput(flags.output, append(encoded, '\n'), cliLog, stdout)
}

// handleFetch copies a stored voice file from the object store to the output.
func handleFetch(flags appFlags, cliLog *logger.Logger, stdout io.Writer) error {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	natsConnection, err := nats.Connect(flags.natsURL)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS at %s: %w", flags.natsURL, err)
	}
	defer natsConnection.Close()

	jetstreamContext, err := natsConnection.JetStream()
	if err != nil {
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	store, err := objectstore.New(jetstreamContext, flags.bucket)
	if err != nil {
		return fmt.Errorf("failed to open object store: %w", err)
	}

	generator := voice.NewGenerator(voice.NewHTTPClient(flags.ttsURL, fetchTimeout), store, voice.Settings{}, cliLog)

	audio, err := generator.Fetch(ctx, flags.fetch)
	if err != nil {
		cliLog.Error("%v", err)

		return err
	}

	cliLog.Info(logFetched, flags.fetch, store.Bucket(), len(audio))

	return writeOutput(flags.output, audio, cliLog, stdout)
}

// writeOutput writes data to path, or to stdout when path is empty.
func writeOutput(path string, data []byte, cliLog *logger.Logger, stdout io.Writer) error {
	if path == "" {
		_, err := stdout.Write(data)
		if err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}

		return nil
	}

	err := os.WriteFile(path, data, outputFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	cliLog.Info(logOutputWritten, path)

	return nil
}

// handleHealthCheck performs a service health check and prints the result.
func handleHealthCheck(serviceURL string, cliLog *logger.Logger, stdout io.Writer) error {
	ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
	defer cancel()

	client := voice.NewHTTPClient(serviceURL, healthCheckTimeout)

	err := client.HealthCheck(ctx)
	if err != nil {
		cliLog.Error(logHealthCheckFail, err)

		return err
	}

	fmt.Fprintln(stdout, msgServiceHealthy)

	return nil
}
