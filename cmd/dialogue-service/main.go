// main package for the dialogue-service
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/book-expert/dialogue-service/internal/config"
	"github.com/book-expert/dialogue-service/internal/objectstore"
	"github.com/book-expert/dialogue-service/internal/voice"
	"github.com/book-expert/dialogue-service/internal/worker"
	"github.com/book-expert/logger"
	"github.com/nats-io/nats.go"
)

func setupLogger(logPath, fileName string) (*logger.Logger, error) {
	log, err := logger.New(logPath, fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger in %s: %w", logPath, err)
	}

	return log, nil
}

func run() error {
	// 1. Create a temporary logger for the bootstrap process
	bootstrapLog, err := setupLogger(os.TempDir(), "dialogue-service-bootstrap.log")
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to create bootstrap logger: %v\n", err)

		return err
	}

	bootstrapLog.Info("Bootstrap logger created.")

	// 2. Load configuration using the central configurator
	cfg, err := config.Load(bootstrapLog)
	if err != nil {
		bootstrapLog.Error("Failed to load configuration: %v", err)

		return fmt.Errorf("failed to load configuration: %w", err)
	}

	bootstrapLog.Info("Configuration loaded successfully.")

	// 3. Initialize the final logger based on the loaded configuration
	finalLog, err := setupLogger(cfg.Paths.BaseLogsDir, "dialogue-service.log")
	if err != nil {
		bootstrapLog.Error("Failed to create final logger: %v", err)

		return fmt.Errorf("failed to create final logger: %w", err)
	}

	defer func() {
		closeErr := finalLog.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing final logger: %v\n", closeErr)
		}
	}()

	// 4. Connect to NATS and bind the object store
	natsConnection, err := nats.Connect(cfg.NATS.URL)
	if err != nil {
		finalLog.Error("Failed to connect to NATS at %s: %v", cfg.NATS.URL, err)

		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	defer natsConnection.Close()

	jetstreamContext, err := natsConnection.JetStream()
	if err != nil {
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	store, err := objectstore.New(jetstreamContext, cfg.NATS.DialogueObjectStoreBucket)
	if err != nil {
		finalLog.Error("Failed to open object store: %v", err)

		return fmt.Errorf("failed to open object store: %w", err)
	}

	finalLog.Info("Object store bucket %s ready.", store.Bucket())

	// 5. Wire the voice generator and the worker
	client := voice.NewHTTPClient(cfg.Voice.ServiceURL, cfg.Voice.Timeout())
	generator := voice.NewGenerator(client, store, voice.Settings{
		Pause:        cfg.Voice.Pause(),
		Language:     cfg.Voice.Language,
		DefaultModel: cfg.Voice.DefaultModel,
	}, finalLog)

	chapterWorker, err := worker.NewNatsWorker(
		natsConnection,
		cfg.NATS.ChapterSubmittedSubject,
		cfg.NATS.VoiceRegenerateSubject,
		store,
		cfg.Extraction.Pipeline(),
		generator,
		cfg.NATS.JobTimeout(),
		finalLog,
	)
	if err != nil {
		return fmt.Errorf("failed to create worker: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	finalLog.System("Dialogue-Service successfully initialized. Listening for jobs on subjects: %s, %s",
		cfg.NATS.ChapterSubmittedSubject, cfg.NATS.VoiceRegenerateSubject)

	err = chapterWorker.Run(ctx)
	if err != nil {
		finalLog.Error("Worker stopped with error: %v", err)

		return fmt.Errorf("worker stopped: %w", err)
	}

	finalLog.System("Dialogue-Service shut down.")

	return nil
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Service exited with error: %v\n", err)
		os.Exit(1)
	}
}
