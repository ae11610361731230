// Package worker provides a NATS worker that extracts chapter dialogue.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/book-expert/dialogue-service/internal/core"
	"github.com/book-expert/dialogue-service/internal/dialogue"
	"github.com/book-expert/logger"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// DefaultJobTimeout bounds one chapter job when no timeout is configured.
const DefaultJobTimeout = 10 * time.Minute

const dialogueKeyFormat = "dialogues/%s/%d/%s.json"

var (
	// ErrChapterKeyEmpty indicates an event without a chapter key.
	ErrChapterKeyEmpty = errors.New("chapter key cannot be empty")
	// ErrNoVoiceGenerator indicates that voices were requested but no generator is configured.
	ErrNoVoiceGenerator = errors.New("voice generation requested but no generator is configured")
	// ErrDialoguesKeyEmpty indicates a regeneration request without a document key.
	ErrDialoguesKeyEmpty = errors.New("dialogues key cannot be empty")
	// ErrLineIndexOutOfRange indicates a regeneration request for a line the document does not have.
	ErrLineIndexOutOfRange = errors.New("line index out of range")
)

// NatsWorker listens for chapter jobs and voice regeneration requests on
// NATS subjects and processes them.
type NatsWorker struct {
	natsConnection    *nats.Conn
	subject           string
	regenerateSubject string
	store             core.DocumentStore
	pipeline          *dialogue.Pipeline
	voices            core.VoiceGenerator
	jobTimeout        time.Duration
	log               *logger.Logger
}

// NewNatsWorker creates a new instance of a NATS worker. voices may be nil,
// in which case jobs asking for voice generation are rejected. An empty
// regenerateSubject disables voice regeneration requests.
func NewNatsWorker(
	natsConnection *nats.Conn,
	subject string,
	regenerateSubject string,
	store core.DocumentStore,
	pipeline *dialogue.Pipeline,
	voices core.VoiceGenerator,
	jobTimeout time.Duration,
	log *logger.Logger,
) (*NatsWorker, error) {
	if pipeline == nil {
		pipeline = dialogue.NewPipeline(nil, nil)
	}

	if jobTimeout <= 0 {
		jobTimeout = DefaultJobTimeout
	}

	return &NatsWorker{
		natsConnection:    natsConnection,
		subject:           subject,
		regenerateSubject: regenerateSubject,
		store:             store,
		pipeline:          pipeline,
		voices:            voices,
		jobTimeout:        jobTimeout,
		log:               log,
	}, nil
}

// Run starts the worker and blocks until ctx is cancelled.
func (w *NatsWorker) Run(ctx context.Context) error {
	handlers := map[string]nats.MsgHandler{w.subject: w.handleMessage}
	if w.regenerateSubject != "" {
		handlers[w.regenerateSubject] = w.handleRegeneration
	}

	subscriptions := make([]*nats.Subscription, 0, len(handlers))

	for subject, handler := range handlers {
		sub, err := w.natsConnection.Subscribe(subject, handler)
		if err != nil {
			_ = drainAll(subscriptions)

			return fmt.Errorf("failed to subscribe to subject %s: %w", subject, err)
		}

		subscriptions = append(subscriptions, sub)
	}

	<-ctx.Done()

	drainErr := drainAll(subscriptions)
	if drainErr != nil {
		return fmt.Errorf("failed to drain subscription: %w", drainErr)
	}

	return nil
}

func drainAll(subscriptions []*nats.Subscription) error {
	var errs []error

	for _, sub := range subscriptions {
		err := sub.Drain()
		if err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (w *NatsWorker) handleMessage(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), w.jobTimeout)
	defer cancel()

	event, err := w.parseAndValidateEvent(msg)
	if err != nil {
		w.log.Error("Failed to parse and validate event: %v", err)
		w.reply(msg, &DialoguesExtractedEvent{Error: err.Error()})

		return
	}

	reply, err := w.processChapterJob(ctx, event)
	if err != nil {
		w.log.Error("Failed to process chapter job for workflow %s: %v", event.Header.WorkflowID, err)
		w.reply(msg, &DialoguesExtractedEvent{Header: event.Header, ChapterNumber: event.ChapterNumber, Error: err.Error()})

		return
	}

	w.reply(msg, reply)
}

// processChapterJob downloads the chapter, extracts and attributes its
// dialogue, optionally voices it, and uploads the resulting document.
func (w *NatsWorker) processChapterJob(ctx context.Context, event *ChapterSubmittedEvent) (*DialoguesExtractedEvent, error) {
	if event.GenerateVoices && w.voices == nil {
		return nil, ErrNoVoiceGenerator
	}

	content, err := w.store.Download(ctx, event.ChapterKey)
	if err != nil {
		return nil, fmt.Errorf("failed to download chapter for key '%s': %w", event.ChapterKey, err)
	}

	chapter := dialogue.Chapter{
		NovelID: event.NovelID,
		Number:  event.ChapterNumber,
		Content: string(content),
	}

	lines := w.pipeline.Extract(chapter, event.Characters)
	frequency := w.pipeline.Frequency(chapter, event.Characters)

	w.log.Info("Extracted %d dialogue lines from chapter %d of novel %s",
		len(lines), chapter.Number, chapter.NovelID)

	voicesGenerated := 0

	if event.GenerateVoices {
		voicesGenerated, err = w.voices.GenerateAll(ctx, lines)
		if err != nil {
			w.log.Warn("Voice generation for workflow %s incomplete: %v", event.Header.WorkflowID, err)
		}
	}

	dialoguesKey := fmt.Sprintf(dialogueKeyFormat, chapter.NovelID, chapter.Number, uuid.NewString())

	err = w.store.UploadJSON(ctx, dialoguesKey, DialogueDocument{
		NovelID:       chapter.NovelID,
		ChapterNumber: chapter.Number,
		Dialogues:     lines,
		Frequency:     frequency,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload dialogue document for key '%s': %w", dialoguesKey, err)
	}

	return &DialoguesExtractedEvent{
		Header:          event.Header,
		DialoguesKey:    dialoguesKey,
		ChapterNumber:   chapter.Number,
		DialogueCount:   len(lines),
		VoicesGenerated: voicesGenerated,
		Frequency:       frequencyCounts(frequency),
	}, nil
}

func (w *NatsWorker) handleRegeneration(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), w.jobTimeout)
	defer cancel()

	var event VoiceRegenerationRequestedEvent

	err := json.Unmarshal(msg.Data, &event)
	if err != nil {
		w.log.Error("Failed to parse regeneration request: %v", err)
		w.reply(msg, &VoiceRegeneratedEvent{Error: fmt.Sprintf("failed to unmarshal event: %v", err)})

		return
	}

	reply, err := w.regenerateVoice(ctx, &event)
	if err != nil {
		w.log.Error("Failed to regenerate voice %d of %s: %v", event.LineIndex, event.DialoguesKey, err)
		w.reply(msg, &VoiceRegeneratedEvent{
			Header:       event.Header,
			DialoguesKey: event.DialoguesKey,
			LineIndex:    event.LineIndex,
			Error:        err.Error(),
		})

		return
	}

	w.reply(msg, reply)
}

// regenerateVoice synthesizes one line of a stored dialogue document again,
// removes the audio it replaces and stores the updated document.
func (w *NatsWorker) regenerateVoice(
	ctx context.Context,
	event *VoiceRegenerationRequestedEvent,
) (*VoiceRegeneratedEvent, error) {
	if event.DialoguesKey == "" {
		return nil, ErrDialoguesKeyEmpty
	}

	if w.voices == nil {
		return nil, ErrNoVoiceGenerator
	}

	var document DialogueDocument

	err := w.store.DownloadJSON(ctx, event.DialoguesKey, &document)
	if err != nil {
		return nil, fmt.Errorf("failed to load dialogue document '%s': %w", event.DialoguesKey, err)
	}

	if event.LineIndex < 0 || event.LineIndex >= len(document.Dialogues) {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrLineIndexOutOfRange, event.LineIndex, len(document.Dialogues))
	}

	line := &document.Dialogues[event.LineIndex]
	previous := line.VoiceFilePath

	err = w.voices.Generate(ctx, event.LineIndex, line)
	if err != nil {
		return nil, fmt.Errorf("failed to generate voice: %w", err)
	}

	if previous != "" && previous != line.VoiceFilePath {
		deleteErr := w.store.Delete(ctx, previous)
		if deleteErr != nil {
			w.log.Warn("Failed to delete replaced voice file %s: %v", previous, deleteErr)
		}
	}

	err = w.store.UploadJSON(ctx, event.DialoguesKey, document)
	if err != nil {
		return nil, fmt.Errorf("failed to upload dialogue document for key '%s': %w", event.DialoguesKey, err)
	}

	return &VoiceRegeneratedEvent{
		Header:        event.Header,
		DialoguesKey:  event.DialoguesKey,
		LineIndex:     event.LineIndex,
		VoiceFilePath: line.VoiceFilePath,
	}, nil
}

// reply marshals and responds with the event; failures are only logged.
func (w *NatsWorker) reply(msg *nats.Msg, replyEvent any) {
	if msg.Reply == "" {
		return
	}

	replyData, err := json.Marshal(replyEvent)
	if err != nil {
		w.log.Error("Failed to marshal reply event: %v", err)

		return
	}

	err = msg.Respond(replyData)
	if err != nil {
		w.log.Error("Failed to publish reply on %s: %v", msg.Subject, err)
	}
}

func (w *NatsWorker) parseAndValidateEvent(msg *nats.Msg) (*ChapterSubmittedEvent, error) {
	var event ChapterSubmittedEvent

	err := json.Unmarshal(msg.Data, &event)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}

	if event.ChapterKey == "" {
		return nil, ErrChapterKeyEmpty
	}

	err = dialogue.ValidateRoster(event.Characters)
	if err != nil {
		return nil, fmt.Errorf("invalid roster: %w", err)
	}

	return &event, nil
}
