// Package app wires the shared building blocks of the recruit binaries
// from a loaded configuration.
package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gartstein/recruit/internal/recruit/config"
	"github.com/gartstein/recruit/internal/recruit/db"
	"github.com/gartstein/recruit/internal/recruit/ingestion"
	"github.com/gartstein/recruit/internal/recruit/llm"
	"github.com/gartstein/recruit/internal/recruit/ocr"
	"github.com/gartstein/recruit/internal/recruit/storage"
	"go.uber.org/zap"
)

const defaultConfigPath = "internal/recruit/config/config.yaml"

// InitLogger initializes a Zap production logger.
func InitLogger() *zap.Logger {
	logger, err := zap.NewProduction()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// LoadConfig loads and validates the configuration named by CONFIG_PATH.
func LoadConfig() (*config.Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = defaultConfigPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// InitDatabase connects to Postgres and migrates the schema.
func InitDatabase(cfg *config.Config) (*db.Repository, error) {
	return db.NewRepository(&db.Config{
		Host:           cfg.DBHost,
		Port:           cfg.DBPort,
		User:           cfg.DBUser,
		Password:       cfg.DBPassword,
		DBName:         cfg.DBName,
		SSLMode:        cfg.DBSSLMode,
		ConnectTimeout: cfg.DBConnectTimeout,
	})
}

// InitLLM connects to Vertex AI. The caller closes the client.
func InitLLM(ctx context.Context, cfg *config.Config) (*llm.VertexAIClient, error) {
	return llm.NewVertexAIClient(ctx, llm.VertexConfig{
		ProjectID: cfg.GCPProject,
		Location:  cfg.GCPLocation,
		Model:     cfg.LLMModel,
	})
}

// InitPipeline builds the resume ingestion pipeline on top of repo and gen.
// trigger is told about every stored candidate.
func InitPipeline(
	ctx context.Context,
	cfg *config.Config,
	repo *db.Repository,
	gen llm.Generator,
	trigger ingestion.MatchTrigger,
	logger *zap.Logger,
) (*ingestion.Pipeline, error) {
	store, err := storage.NewS3(ctx, storage.Config{
		Bucket:          cfg.S3Bucket,
		Region:          cfg.S3Region,
		Endpoint:        cfg.S3Endpoint,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize object storage: %w", err)
	}

	ocrClient := ocr.NewClient(ocr.Config{
		APIURL:      cfg.OCRAPIURL,
		APIKey:      cfg.OCRAPIKey,
		Timeout:     cfg.OCRTimeout,
		MaxAttempts: cfg.OCRMaxAttempts,
		BaseDelay:   cfg.OCRBaseDelay,
	}, store, logger)

	return ingestion.NewPipeline(
		store,
		ocrClient,
		llm.NewExtractor(gen, time.Now, logger),
		repo,
		trigger,
		ingestion.NewLimiter(cfg.UploadInterval),
		logger,
	), nil
}

// Sync flushes logger. Errors from syncing a terminal are ignored.
func Sync(logger *zap.Logger) {
	_ = logger.Sync()
}
