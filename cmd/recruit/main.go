package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gartstein/recruit/internal/recruit/app"
	"github.com/gartstein/recruit/internal/recruit/auth"
	"github.com/gartstein/recruit/internal/recruit/calendar"
	"github.com/gartstein/recruit/internal/recruit/config"
	"github.com/gartstein/recruit/internal/recruit/controller"
	"github.com/gartstein/recruit/internal/recruit/events"
	"github.com/gartstein/recruit/internal/recruit/handlers"
	"github.com/gartstein/recruit/internal/recruit/ingestion"
	"github.com/gartstein/recruit/internal/recruit/jobboard"
	"github.com/gartstein/recruit/internal/recruit/llm"
	"github.com/gartstein/recruit/internal/recruit/models"
	"github.com/gartstein/recruit/internal/recruit/notify"
	"github.com/gartstein/recruit/internal/recruit/oauth"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func main() {
	logger := app.InitLogger()
	defer app.Sync(logger)

	cfg, err := app.LoadConfig()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	ctx := context.Background()

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

	matchSvc := controller.NewMatchService(repo, llm.NewScorer(gen, logger), producer, logger)

	var trigger ingestion.MatchTrigger = producer
	if cfg.ScoreInline {
		trigger = matchSvc
	}
	pipeline, err := app.InitPipeline(ctx, cfg, repo, gen, trigger, logger)
	if err != nil {
		logger.Fatal("failed to initialize ingestion", zap.Error(err))
	}

	registry, err := oauth.NewRegistry(cfg.OAuth)
	if err != nil {
		logger.Fatal("failed to initialize OAuth providers", zap.Error(err))
	}
	calendarSvc := controller.NewCalendarService(repo, initCalendar(cfg, registry, logger), logger)

	mailer := notify.NewSMTPSender(notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		Timeout:  cfg.SMTPTimeout,
	}, logger)

	linkedIn := jobboard.NewLinkedIn(cfg.LinkedInAPIURL, cfg.LinkedInOrganizationURN, logger)

	api := handlers.NewAPI(
		auth.NewAuthenticator(cfg.JWTSecret, repo),
		handlers.Services{
			Ingestion:    pipeline,
			Candidates:   controller.NewCandidateService(repo, logger),
			JobPosts:     controller.NewJobPostService(repo, logger),
			Matches:      matchSvc,
			Workflow:     controller.NewWorkflowService(repo, mailer, calendarSvc, producer, cfg.Location(), logger),
			Integrations: controller.NewIntegrationService(repo, registry, logger),
			Calendar:     calendarSvc,
			JobBoards:    controller.NewJobBoardService(repo, repo, linkedIn, logger),
		},
		cfg.MaxUploadSize,
		cfg.AppURL,
		logger,
	)

	server := handlers.NewServer(cfg.GRPCPort, cfg.HTTPPort, logger)
	if err := server.RegisterHTTPGateway(
		ctx,
		[]grpc.DialOption{
			grpc.WithTransportCredentials(insecure.NewCredentials()),
		},
		api); err != nil {
		logger.Fatal("Failed to register HTTP gateway", zap.Error(err))
	}

	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("Failed to start servers", zap.Error(err))
		}
	}()

	waitForShutdown(server, logger)
}

// initCalendar returns nil when no Google client is configured, which
// disables every calendar feature.
func initCalendar(cfg *config.Config, registry *oauth.Registry, logger *zap.Logger) controller.Calendar {
	googleCfg, err := registry.Config(models.ProviderGoogle)
	if err != nil {
		logger.Warn("Google Calendar is not configured", zap.Error(err))
		return nil
	}
	return calendar.NewGoogle(googleCfg, cfg.Location(), logger)
}

// waitForShutdown blocks until an interrupt or SIGTERM is received, then shuts down servers.
func waitForShutdown(server *handlers.Server, logger *zap.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	server.Stop()
	logger.Info("Servers stopped properly")
}
