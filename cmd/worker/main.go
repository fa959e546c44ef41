package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/YingY4ang/Transcriber/internal/adapters/database"
	"github.com/YingY4ang/Transcriber/internal/adapters/events"
	"github.com/YingY4ang/Transcriber/internal/adapters/queue"
	"github.com/YingY4ang/Transcriber/internal/adapters/storage"
	"github.com/YingY4ang/Transcriber/internal/adapters/subscriptions"
	"github.com/YingY4ang/Transcriber/internal/analysis"
	"github.com/YingY4ang/Transcriber/internal/audio"
	"github.com/YingY4ang/Transcriber/internal/infrastructure/clients/anthropic"
	"github.com/YingY4ang/Transcriber/internal/infrastructure/clients/openai"
	"github.com/YingY4ang/Transcriber/internal/infrastructure/clients/postgres"
	"github.com/YingY4ang/Transcriber/internal/infrastructure/clients/redis"
	"github.com/YingY4ang/Transcriber/internal/infrastructure/observability"
	"github.com/YingY4ang/Transcriber/internal/pipeline"
	"github.com/YingY4ang/Transcriber/internal/report"
	"github.com/YingY4ang/Transcriber/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize structured logging
	observability.InitLogger("transcriber-worker", os.Getenv("APP_ENV"))
	logger := observability.GetLogger()

	// Set up context cancelled on SIGINT/SIGTERM
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(
			ctx,
			cfg.OTEL.ServiceName+"-worker",
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			logger.Info().Msg("OpenTelemetry initialized successfully")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	// Initialize infrastructure clients
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize Redis client")
	}
	defer redisClient.Close()

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()

	openaiClient, err := openai.NewClient(&cfg.OpenAI)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize OpenAI client")
	}

	anthropicClient, err := anthropic.NewClient(&cfg.Anthropic)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize Anthropic client")
	}

	// Initialize adapters
	objectStore, err := storage.NewLocalObjectStore(cfg.Storage.RootDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize object store")
	}
	jobQueue := queue.NewRedisJobQueue(redisClient, &cfg.Queue)
	consultationRepo := database.NewConsultationAdapter(pgClient)
	eventBus := events.NewRedisEventBus(redisClient)
	registry := subscriptions.NewRedisSubscriptionRegistry(redisClient)

	// Assemble the pipeline
	trimmer := audio.NewTrimmer(*logger)
	transcription := pipeline.NewTranscriptionStage(openaiClient, trimmer, *logger)
	extractor := analysis.NewOrchestrator(anthropicClient, *logger)
	var facility *report.FacilityInfo
	if name := os.Getenv("FACILITY_NAME"); name != "" {
		facility = &report.FacilityInfo{
			Name:    name,
			Address: os.Getenv("FACILITY_ADDRESS"),
			Phone:   os.Getenv("FACILITY_PHONE"),
		}
	}
	renderer := report.NewRenderer(facility)

	dispatcher := pipeline.NewDispatcher(pipeline.DispatcherConfig{
		Queue:         jobQueue,
		Store:         objectStore,
		Transcription: transcription,
		Extractor:     extractor,
		Renderer:      renderer,
		Repository:    consultationRepo,
		EventBus:      eventBus,
		Subscriptions: registry,
		ReportsBucket: cfg.Storage.ReportsBucket,
		TempDir:       cfg.Storage.TempDir,
		Metrics:       metrics,
		Logger:        *logger,
	})

	// Run until interrupted
	done := make(chan error, 1)
	go func() {
		done <- dispatcher.Run(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info().Msg("Worker shutting down...")
		cancel()
		<-done
	case err := <-done:
		if err != nil && err != context.Canceled {
			logger.Error().Err(err).Msg("Dispatcher exited")
		}
	}

	if err := eventBus.Close(); err != nil {
		logger.Error().Err(err).Msg("Error closing event bus")
	}

	logger.Info().Msg("Worker stopped")
}
