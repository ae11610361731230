// Package core defines the interfaces shared by the dialogue service components.
package core

import (
	"context"

	"github.com/book-expert/dialogue-service/internal/dialogue"
)

// ObjectStore defines the interface for interacting with a key-value blob store.
type ObjectStore interface {
	Download(ctx context.Context, key string) ([]byte, error)
	Upload(ctx context.Context, key string, data []byte) error
}

// DocumentStore is an ObjectStore that also keeps JSON documents and can
// remove objects.
type DocumentStore interface {
	ObjectStore
	UploadJSON(ctx context.Context, key string, value any) error
	DownloadJSON(ctx context.Context, key string, target any) error
	Delete(ctx context.Context, key string) error
}

// SpeechRequest holds everything a synthesis backend needs for one line.
type SpeechRequest struct {
	Text     string
	Prompt   string
	Voice    dialogue.VoiceParams
	Language string
}

// SpeechSynthesizer turns a single request into encoded audio.
type SpeechSynthesizer interface {
	GenerateSpeech(ctx context.Context, req SpeechRequest) ([]byte, error)
	HealthCheck(ctx context.Context) error
}

// VoiceGenerator fills in VoiceFilePath and Generated for dialogue lines.
// GenerateAll returns the number of lines generated by the call; Generate
// always synthesizes, even when the line was generated before.
type VoiceGenerator interface {
	GenerateAll(ctx context.Context, lines []dialogue.Line) (int, error)
	Generate(ctx context.Context, index int, line *dialogue.Line) error
}
