package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"campusmerch/config"
	"campusmerch/internal/api"
	"campusmerch/internal/auth"
	"campusmerch/internal/checkout"
	"campusmerch/internal/clickhouse"
	"campusmerch/internal/ocr"
	"campusmerch/internal/ocr/tesseract"
	"campusmerch/internal/postgres"
	"campusmerch/internal/rabbitmq"
	"campusmerch/internal/storage"
	"campusmerch/internal/workers"
	"campusmerch/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Log.Fatal("Failed to load config", zap.Error(err))
	}

	logger.Initialize(cfg.Env)
	defer logger.Sync()
	log := logger.Log

	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration", zap.Error(err))
	}

	log.Info("Starting checkout service",
		zap.String("postgres", cfg.Postgres.Host),
		zap.String("queue", cfg.RabbitMQ.OrderEventQueue),
		zap.Bool("clickhouse", cfg.ClickHouse.Enabled),
		zap.String("bucket", cfg.Storage.Bucket),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Connect to Postgres
	pgClient, err := postgres.NewClient(cfg.Postgres)
	if err != nil {
		log.Fatal("Failed to connect to Postgres", zap.Error(err))
	}
	defer pgClient.Close()
	if cfg.Postgres.AutoMigrate {
		if err := pgClient.AutoMigrate(); err != nil {
			log.Fatal("Failed to migrate Postgres schema", zap.Error(err))
		}
	}
	repo := postgres.NewRepository(pgClient.DB())

	// Object storage
	s3Client, err := storage.NewS3Client(ctx, cfg.Storage)
	if err != nil {
		log.Fatal("Failed to configure object storage", zap.Error(err))
	}
	objects := storage.NewS3Store(s3Client, cfg.Storage)

	// RabbitMQ
	publisher, err := rabbitmq.NewPublisher(cfg.RabbitMQ)
	if err != nil {
		log.Fatal("Failed to connect publisher to RabbitMQ", zap.Error(err))
	}
	defer publisher.Close()

	var wg sync.WaitGroup

	if cfg.ClickHouse.Enabled {
		chClient, err := clickhouse.NewClient(cfg.ClickHouse)
		if err != nil {
			log.Fatal("Failed to connect to ClickHouse", zap.Error(err))
		}
		defer chClient.Close()
		if err := chClient.EnsureSchema(ctx); err != nil {
			log.Fatal("Failed to prepare ClickHouse schema", zap.Error(err))
		}

		consumer, err := rabbitmq.NewConsumer(cfg.RabbitMQ)
		if err != nil {
			log.Fatal("Failed to create order consumer", zap.Error(err))
		}
		defer consumer.Close()

		orderWorker := workers.NewOrderWorker(consumer, repo, chClient, cfg.RabbitMQ.OrderEventQueue)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := orderWorker.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("Order worker stopped", zap.Error(err))
			}
		}()
	}

	extractor := ocr.Limit(tesseract.NewEngine(cfg.Checkout.OCRLanguage), cfg.Checkout.OCRConcurrency)
	svc := checkout.NewService(repo, extractor, objects, publisher, checkout.Options{
		EventQueue:  cfg.RabbitMQ.OrderEventQueue,
		Concurrency: cfg.Checkout.CheckoutConcurrency,
	})

	handler := api.NewCheckoutHandler(svc, cfg.Checkout.ReceiptMaxBytes)
	router := api.NewRouter(handler, auth.NewVerifier(cfg.Auth.JWTSecret))

	srv := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server failed", zap.Error(err))
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 15*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP shutdown failed", zap.Error(err))
	}

	wg.Wait()
	log.Info("Stopped gracefully")
}
