package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/YingY4ang/Transcriber/internal/adapters/database"
	"github.com/YingY4ang/Transcriber/internal/adapters/queue"
	"github.com/YingY4ang/Transcriber/internal/adapters/storage"
	"github.com/YingY4ang/Transcriber/internal/api/handlers"
	"github.com/YingY4ang/Transcriber/internal/api/routes"
	"github.com/YingY4ang/Transcriber/internal/infrastructure/clients/postgres"
	"github.com/YingY4ang/Transcriber/internal/infrastructure/clients/redis"
	"github.com/YingY4ang/Transcriber/internal/infrastructure/observability"
	"github.com/YingY4ang/Transcriber/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			log.Printf("Warning: Failed to set up OpenTelemetry: %v", err)
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Printf("Error shutting down OpenTelemetry: %v", err)
				}
			}()
			log.Println("OpenTelemetry initialized successfully")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to initialize metrics: %v", err)
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize PostgreSQL client: %v", err)
	}
	defer pgClient.Close()
	log.Println("PostgreSQL client initialized successfully")

	// Initialize Redis client (required for the processing queue)
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to initialize Redis client: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis client initialized successfully")

	// Initialize adapters
	objectStore, err := storage.NewLocalObjectStore(cfg.Storage.RootDir)
	if err != nil {
		log.Fatalf("Failed to initialize object store: %v", err)
	}
	jobQueue := queue.NewRedisJobQueue(redisClient, &cfg.Queue)
	consultationRepo := database.NewConsultationAdapter(pgClient)

	// Initialize handlers
	uploadHandler := handlers.NewUploadHandler(objectStore, jobQueue, cfg.Storage.Bucket, cfg.Server.PublicURL)
	resultHandler := handlers.NewResultHandler(consultationRepo, objectStore, cfg.Storage.ReportsBucket, cfg.Server.PublicURL, cfg.Server.SSEURL)
	taskHandler := handlers.NewTaskHandler(consultationRepo)

	// Set up router
	router := routes.NewRouter(uploadHandler, resultHandler, taskHandler, metrics)
	handler := router.SetupRoutes()

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s", serverAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}

	log.Println("Server stopped")
}
