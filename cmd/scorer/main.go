// The scorer worker consumes candidate_ingested events and scores each new
// candidate against the open job posts of its organization.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gartstein/recruit/internal/recruit/app"
	"github.com/gartstein/recruit/internal/recruit/controller"
	"github.com/gartstein/recruit/internal/recruit/events"
	"github.com/gartstein/recruit/internal/recruit/llm"
	"go.uber.org/zap"
)

func main() {
	logger := app.InitLogger()
	defer app.Sync(logger)

	cfg, err := app.LoadConfig()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	repo, err := app.InitDatabase(cfg)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer repo.Close()

	gen, err := app.InitLLM(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to initialize LLM client", zap.Error(err))
	}
	defer gen.Close()

	// match_scored events still go to the topic for downstream consumers.
	producer, err := events.NewProducer(cfg.KafkaBrokers, logger, cfg.Topic)
	if err != nil {
		logger.Fatal("failed to initialize Kafka producer", zap.Error(err))
	}
	defer producer.Close()

	matchSvc := controller.NewMatchService(repo, llm.NewScorer(gen, logger), producer, logger)

	consumer := events.NewConsumer(cfg.KafkaBrokers, cfg.GroupID, cfg.Topic, logger)
	consumer.RegisterHandler(events.CandidateIngested, matchSvc.HandleCandidateIngested)
	consumer.Start(ctx)
	logger.Info("Scorer started",
		zap.Strings("brokers", cfg.KafkaBrokers),
		zap.String("topic", cfg.Topic),
		zap.String("group_id", cfg.GroupID),
	)

	<-ctx.Done()
	consumer.Close()
	<-consumer.Done()
	logger.Info("Scorer stopped properly")
}
