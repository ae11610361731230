package voice

import (
	"context"
	"fmt"
	"time"

	"github.com/book-expert/dialogue-service/internal/core"
	"github.com/book-expert/dialogue-service/internal/dialogue"
	"github.com/book-expert/logger"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// DefaultPause is the interval kept between two synthesis calls.
const DefaultPause = time.Second

const voiceFileFormat = "%s_%d_%s.wav"

// Settings configures a Generator.
type Settings struct {
	// Pause between two synthesis calls. Zero disables pacing.
	Pause time.Duration
	// Language is forwarded to the synthesizer.
	Language string
	// DefaultModel replaces an empty character voice model.
	DefaultModel string
}

// Generator synthesizes dialogue lines one at a time and stores the audio.
// It implements core.VoiceGenerator.
type Generator struct {
	synthesizer core.SpeechSynthesizer
	store       core.ObjectStore
	limiter     *rate.Limiter
	settings    Settings
	log         *logger.Logger
}

// NewGenerator creates a Generator writing voice files to store.
func NewGenerator(
	synthesizer core.SpeechSynthesizer,
	store core.ObjectStore,
	settings Settings,
	log *logger.Logger,
) *Generator {
	limit := rate.Inf
	if settings.Pause > 0 {
		limit = rate.Every(settings.Pause)
	}

	if settings.DefaultModel == "" {
		settings.DefaultModel = dialogue.DefaultVoiceModel
	}

	return &Generator{
		synthesizer: synthesizer,
		store:       store,
		limiter:     rate.NewLimiter(limit, 1),
		settings:    settings,
		log:         log,
	}
}

// GenerateAll synthesizes every line not yet generated, in order, updating
// the lines in place. A failing line is logged and left ungenerated; only
// cancellation of ctx stops the batch.
func (g *Generator) GenerateAll(ctx context.Context, lines []dialogue.Line) (int, error) {
	generated := 0

	for index := range lines {
		if lines[index].Generated {
			continue
		}

		err := g.limiter.Wait(ctx)
		if err != nil {
			return generated, fmt.Errorf("voice generation stopped after %d lines: %w", generated, err)
		}

		err = g.Generate(ctx, index, &lines[index])
		if err != nil {
			g.log.Error("Failed to generate voice for line %d (%s): %v", index, lines[index].Speaker.Name, err)

			continue
		}

		generated++
	}

	return generated, nil
}

// Generate synthesizes a single line and records where its audio was stored.
func (g *Generator) Generate(ctx context.Context, index int, line *dialogue.Line) error {
	text := NormalizeText(line.Content)
	if text == "" {
		return ErrTextCannotBeEmpty
	}

	params := line.Speaker.Voice
	if params.Model == "" {
		params.Model = g.settings.DefaultModel
	}

	audio, err := g.synthesizer.GenerateSpeech(ctx, core.SpeechRequest{
		Text:     text,
		Prompt:   BuildPrompt(line.Speaker, text),
		Voice:    params,
		Language: g.settings.Language,
	})
	if err != nil {
		return fmt.Errorf("failed to synthesize speech: %w", err)
	}

	key := FileKey(line.Speaker.Name, index)

	err = g.store.Upload(ctx, key, audio)
	if err != nil {
		return fmt.Errorf("failed to store voice file '%s': %w", key, err)
	}

	line.VoiceFilePath = key
	line.Generated = true

	g.log.Info("Generated voice for dialogue: %s", key)

	return nil
}

// Fetch returns a previously stored voice file.
func (g *Generator) Fetch(ctx context.Context, path string) ([]byte, error) {
	data, err := g.store.Download(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read voice file '%s': %w", path, err)
	}

	return data, nil
}

// FileKey names the voice file of the line at index spoken by name.
func FileKey(name string, index int) string {
	return fmt.Sprintf(voiceFileFormat, SanitizeName(name), index, uuid.NewString())
}
