// mailimport ingests the resume attachments of unseen messages of one IMAP
// mailbox on behalf of one organization, then exits.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gartstein/recruit/internal/recruit/app"
	"github.com/gartstein/recruit/internal/recruit/events"
	"github.com/gartstein/recruit/internal/recruit/mailbox"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	logger := app.InitLogger()
	defer app.Sync(logger)

	cfg, err := app.LoadConfig()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}
	orgID, err := uuid.Parse(cfg.IMAPOrganizationID)
	if err != nil {
		logger.Fatal("IMAP_ORGANIZATION_ID must be a UUID", zap.Error(err))
	}
	if cfg.IMAPHost == "" {
		logger.Fatal("IMAP_HOST is required")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	repo, err := app.InitDatabase(cfg)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer repo.Close()

	producer, err := events.NewProducer(cfg.KafkaBrokers, logger, cfg.Topic)
	if err != nil {
		logger.Fatal("failed to initialize Kafka producer", zap.Error(err))
	}
	defer producer.Close()

	gen, err := app.InitLLM(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to initialize LLM client", zap.Error(err))
	}
	defer gen.Close()

	// Scoring is left to the scorer worker.
	pipeline, err := app.InitPipeline(ctx, cfg, repo, gen, producer, logger)
	if err != nil {
		logger.Fatal("failed to initialize ingestion", zap.Error(err))
	}

	source := mailbox.NewIMAP(mailbox.Config{
		Host:        cfg.IMAPHost,
		User:        cfg.IMAPUser,
		Password:    cfg.IMAPPassword,
		Mailbox:     cfg.IMAPMailbox,
		MaxMessages: cfg.IMAPMaxMessages,
	}, logger)

	summary, err := mailbox.NewImporter(source, pipeline, logger).Run(ctx, orgID)
	if err != nil {
		logger.Error("Mailbox import failed", zap.Error(err))
		return
	}
	logger.Info("Mailbox import done",
		zap.Int("messages", summary.Messages),
		zap.Int("uploaded", len(summary.Uploaded)),
		zap.Int("failed", len(summary.Failed)),
	)
}
