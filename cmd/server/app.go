package main

import (
	"context"
	"fmt"

	"github.com/godfrey-tankan/document-insight-view/internal/cache"
	"github.com/godfrey-tankan/document-insight-view/internal/classifier"
	"github.com/godfrey-tankan/document-insight-view/internal/config"
	"github.com/godfrey-tankan/document-insight-view/internal/db"
	"github.com/godfrey-tankan/document-insight-view/internal/events"
	"github.com/godfrey-tankan/document-insight-view/internal/repository"
	"github.com/godfrey-tankan/document-insight-view/internal/services"
	"github.com/godfrey-tankan/document-insight-view/internal/similarity"
	"github.com/godfrey-tankan/document-insight-view/internal/storage"
	"github.com/godfrey-tankan/document-insight-view/internal/utils"
	"github.com/redis/go-redis/v9"
)

// memoryDatabaseURL keeps the corpus in process memory.
const memoryDatabaseURL = "memory"

// app holds the wired analysis service and everything that must be closed
// on shutdown.
type app struct {
	service services.AnalysisService
	closers []func() error
	logger  *utils.Logger
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("Failed to close resource", "error", err)
		}
	}
}

func openRepository(cfg *config.Config, logger *utils.Logger) (repository.Repository, func() error, error) {
	if cfg.DatabaseURL == memoryDatabaseURL {
		logger.Info("Using in-memory document store")
		return repository.NewMemoryRepository(), func() error { return nil }, nil
	}

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.RunMigrations(database); err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("Database ready", "driver", db.DriverFor(cfg.DatabaseURL))
	return repository.NewRepository(database), database.Close, nil
}

func newApp(ctx context.Context, cfg *config.Config, logger *utils.Logger) (*app, error) {
	a := &app{logger: logger}

	repo, closeRepo, err := openRepository(cfg, logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closeRepo)

	factory := classifier.NewFactory(classifier.BackendConfig{
		Backend:         cfg.ClassifierBackend,
		HFAPIToken:      cfg.HFAPIToken,
		HFModelURL:      cfg.HFModelURL,
		OpenAIAPIKey:    cfg.OpenAIAPIKey,
		OpenAIBaseURL:   cfg.OpenAIBaseURL,
		OpenAIModel:     cfg.OpenAIModel,
		AnthropicAPIKey: cfg.AnthropicAPIKey,
		AnthropicModel:  cfg.AnthropicModel,
	}, logger)

	detector := classifier.NewDetector(classifier.NewService(factory, logger), classifier.DetectorConfig{
		ChunkSize: cfg.ChunkSize,
		MinChunk:  cfg.MinChunkSize,
		MinLength: cfg.MinClassifyLength,
		Workers:   cfg.ClassifierWorkers,
		BatchSize: cfg.ClassifierBatchSize,
	})

	engine := similarity.NewEngine(similarity.Config{
		NGram:     cfg.SimilarityNGram,
		Window:    cfg.SimilarityWindow,
		Step:      cfg.SimilarityStep,
		Threshold: cfg.SimilarityThreshold,
	})

	deps := services.Deps{
		Repo:       repo,
		Similarity: engine,
		Detector:   detector,
		Logger:     logger,
	}

	if cfg.S3Endpoint != "" {
		store, err := storage.NewS3Storage(ctx, storage.S3Config{
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			BucketName:      cfg.S3BucketName,
			UseSSL:          cfg.S3UseSSL,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		deps.Storage = store
		logger.Info("Upload archive enabled", "bucket", cfg.S3BucketName)
	}

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis unreachable, lookups will go to the database", "error", err)
		}
		deps.Cache = cache.NewRedisCache(client, cfg.CacheTTL)
		a.closers = append(a.closers, client.Close)
		logger.Info("Result cache enabled", "addr", cfg.RedisAddr)
	}

	if len(cfg.KafkaBrokers) > 0 {
		publisher := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		deps.Publisher = publisher
		a.closers = append(a.closers, publisher.Close)
		logger.Info("Analysis events enabled", "topic", cfg.KafkaTopic)
	}

	opts := services.DefaultOptions()
	opts.Extract.MaxPages = cfg.PDFMaxPages
	opts.MinTextLength = cfg.MinTextLength
	opts.DedupScope = cfg.DedupScope
	opts.ClassifierTimeout = cfg.ClassifierTimeout

	a.service = services.NewAnalysisService(deps, opts)
	return a, nil
}
