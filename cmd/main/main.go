package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/config"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/events"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/gateway"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/httpapi"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/ingestion"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/ingestion/handler"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/observer"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/storage"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/usecase"
	"gitlab.com/miqsuite/api/wa-attendance-engine/pkg/logger"
	"gitlab.com/miqsuite/api/wa-attendance-engine/pkg/utils"
)

func main() {
	// Set timezone to UTC
	time.Local = time.UTC

	// Load configuration
	cfg, err := config.LoadConfig("")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Initialize(cfg.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	metricsEnabled := cfg.Metrics.Enabled
	observer.InitMetrics(metricsEnabled)

	logger.Log.Info("Starting WA Attendance Engine",
		zap.String("environment", cfg.Environment),
		zap.String("gateway_url", cfg.Gateway.BaseURL),
		zap.String("default_instance", cfg.Gateway.DefaultInstance),
	)

	// Initialize repositories
	postgresRepo, err := initPostgresRepo(cfg.Database.PostgresDSN, cfg.Database.PostgresAutoMigrate)
	if err != nil {
		logger.Log.Fatal("Failed to initialize Postgres repository", zap.Error(err))
	}

	// Initialize the event publisher. NATS being down degrades to local-only
	// operation, it never blocks attendance.
	var publisher events.Publisher
	if cfg.NATS.URL != "" {
		jsPublisher, err := events.NewJetStreamPublisher(cfg.NATS.URL, cfg.NATS.Stream, cfg.NATS.SubjectPrefix)
		if err != nil {
			logger.Log.Warn("NATS unavailable, engine events disabled", zap.Error(err))
			publisher = events.NoopPublisher{}
		} else {
			publisher = jsPublisher
		}
	} else {
		publisher = events.NoopPublisher{}
	}

	// Create repository adapters for the service
	contactRepo := storage.NewContactRepoAdapter(postgresRepo)
	conversationRepo := storage.NewConversationRepoAdapter(postgresRepo)
	messageRepo := storage.NewMessageRepoAdapter(postgresRepo)
	instanceRepo := storage.NewInstanceRepoAdapter(postgresRepo)
	botConfigRepo := storage.NewBotConfigRepoAdapter(postgresRepo)
	quickReplyRepo := storage.NewQuickReplyRepoAdapter(postgresRepo)
	classificationRepo := storage.NewClassificationRepoAdapter(postgresRepo)
	directoryRepo := storage.NewDirectoryRepoAdapter(postgresRepo)

	// Gateway client
	gatewayClient := gateway.NewHTTPClient(cfg.Gateway.BaseURL, cfg.Gateway.APIKey, cfg.Gateway.Timeout)

	// Create chatbot reply worker pool
	replyWorker, err := usecase.NewReplyWorker(
		cfg.WorkerPools.Reply,
		gatewayClient,
		messageRepo,
		conversationRepo,
		logger.Log,
	)
	if err != nil {
		logger.Log.Fatal("Failed to initialize reply worker pool", zap.Error(err))
	}

	// Create service, injecting the worker pool
	service := usecase.NewAttendanceService(
		contactRepo,
		conversationRepo,
		messageRepo,
		instanceRepo,
		botConfigRepo,
		quickReplyRepo,
		classificationRepo,
		directoryRepo,
		gatewayClient,
		publisher,
		replyWorker,
		cfg.Gateway.DefaultInstance,
	)

	// Wire the webhook event router
	eventRouter := ingestion.NewRouter()
	handler.NewWebhookHandler(service).RegisterRoutes(eventRouter)

	// HTTP server: webhook + agent API
	webhookURL := strings.TrimRight(cfg.Gateway.WebhookBaseURL, "/") + "/webhook"
	apiServer := httpapi.NewServer(cfg.Server.Port, service, eventRouter, postgresRepo, webhookURL)

	// Metrics server on its own port
	var metricsServer *http.Server
	if metricsEnabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Metrics.Port),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		utils.SafeGo(func() {
			logger.Log.Info("Metrics endpoint enabled", zap.String("path", "/metrics"), zap.Int("port", cfg.Metrics.Port))
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Log.Error("Metrics server failed", zap.Error(err))
			}
		}, func(r interface{}, stack []byte) {
			logger.Log.Error("[panic] Metrics server goroutine panicked",
				zap.Any("panic", r),
				zap.ByteString("stack", stack),
			)
		})
	} else {
		logger.Log.Info("Metrics endpoint disabled for environment", zap.String("environment", cfg.Environment))
	}

	sigChan := make(chan os.Signal, 1)
	utils.SafeGo(func() {
		if err := apiServer.Start(); err != nil {
			logger.Log.Error("HTTP server failed, initiating shutdown...", zap.Error(err))
			select {
			case sigChan <- syscall.SIGTERM:
			default:
				logger.Log.Warn("Could not send SIGTERM to signal channel immediately")
			}
		}
	}, func(r interface{}, stack []byte) {
		logger.Log.Error("[panic] HTTP server goroutine panicked",
			zap.Any("panic", r),
			zap.ByteString("stack", stack),
		)
	})

	logger.Log.Info("Endpoints available",
		zap.String("webhook", fmt.Sprintf("http://localhost:%d/webhook", cfg.Server.Port)),
		zap.String("api", fmt.Sprintf("http://localhost:%d/api/v1", cfg.Server.Port)),
		zap.String("health", fmt.Sprintf("http://localhost:%d/health", cfg.Server.Port)),
	)

	// Wait for termination signal
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Log.Info("Received termination signal", zap.String("signal", sig.String()))

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	logger.Log.Info("Starting graceful shutdown", zap.Duration("timeout", 30*time.Second))

	var wg sync.WaitGroup
	wg.Add(3)

	// Shutdown HTTP servers
	utils.SafeGo(func() {
		defer wg.Done()
		logger.Log.Info("[shutdown] Stopping HTTP server")
		start := time.Now()
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			logger.Log.Error("[shutdown] Error stopping HTTP server", zap.Error(err))
		}
		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Log.Error("[shutdown] Error stopping metrics server", zap.Error(err))
			}
		}
		logger.Log.Info("[shutdown] HTTP servers stopped",
			zap.Duration("duration", time.Since(start)))
	}, func(r interface{}, stack []byte) {
		logger.Log.Error("[shutdown] Panic while stopping HTTP servers",
			zap.Any("panic", r),
			zap.ByteString("stack", stack),
		)
		wg.Done()
	})

	// Shutdown reply worker pool
	utils.SafeGo(func() {
		defer wg.Done()
		logger.Log.Info("[shutdown] Stopping reply worker pool")
		start := time.Now()
		replyWorker.Stop()
		logger.Log.Info("[shutdown] Reply worker pool stopped",
			zap.Duration("duration", time.Since(start)))
	}, func(r interface{}, stack []byte) {
		logger.Log.Error("[shutdown] Panic while stopping reply worker pool",
			zap.Any("panic", r),
			zap.ByteString("stack", stack),
		)
		wg.Done()
	})

	// Close external connections
	utils.SafeGo(func() {
		defer wg.Done()

		logger.Log.Info("[shutdown] Closing event publisher")
		pubStart := time.Now()
		publisher.Close()
		logger.Log.Info("[shutdown] Event publisher closed",
			zap.Duration("duration", time.Since(pubStart)))

		logger.Log.Info("[shutdown] Closing PostgreSQL connection")
		pgStart := time.Now()
		if err := postgresRepo.Close(shutdownCtx); err != nil {
			logger.Log.Error("[shutdown] Failed to close PostgreSQL connection", zap.Error(err))
		} else {
			logger.Log.Info("[shutdown] PostgreSQL connection closed",
				zap.Duration("duration", time.Since(pgStart)))
		}
	}, func(r interface{}, stack []byte) {
		logger.Log.Error("[shutdown] Panic while closing connections",
			zap.Any("panic", r),
			zap.ByteString("stack", stack),
		)
		wg.Done()
	})

	// Wait with a timeout for all components to shut down
	waitCh := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitCh)
	}()

	select {
	case <-waitCh:
		logger.Log.Info("[shutdown] All components stopped gracefully")
	case <-shutdownCtx.Done():
		logger.Log.Warn("[shutdown] Graceful shutdown timed out, forcing exit")
	}

	logger.Log.Info("WA Attendance Engine shutdown complete")
}

// Initialize PostgreSQL repository
func initPostgresRepo(dsn string, autoMigrate bool) (*storage.PostgresRepo, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	repo, err := storage.NewPostgresRepo(dsn, autoMigrate)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres repository: %w", err)
	}

	logger.Log.Info("Initialized PostgreSQL repository")
	return repo, nil
}
