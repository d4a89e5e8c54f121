package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aryan0dhankhar/vendoronboard/internal/handler"
	"github.com/aryan0dhankhar/vendoronboard/internal/infrastructure/logger"
	"github.com/aryan0dhankhar/vendoronboard/internal/infrastructure/redis"
	"github.com/aryan0dhankhar/vendoronboard/internal/notify"
	"github.com/aryan0dhankhar/vendoronboard/internal/observability/metrics"
	"github.com/aryan0dhankhar/vendoronboard/internal/observability/tracing"
	"github.com/aryan0dhankhar/vendoronboard/internal/repository"
	"github.com/aryan0dhankhar/vendoronboard/internal/security/audit"
	"github.com/aryan0dhankhar/vendoronboard/internal/security/auth"
	"github.com/aryan0dhankhar/vendoronboard/internal/security/ratelimit"
	"github.com/aryan0dhankhar/vendoronboard/internal/service"
	"github.com/aryan0dhankhar/vendoronboard/internal/storage"
	"github.com/aryan0dhankhar/vendoronboard/internal/worker"
	"github.com/aryan0dhankhar/vendoronboard/pkg/config"
	"github.com/aryan0dhankhar/vendoronboard/pkg/database"
	"github.com/dustin/go-humanize"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	reconcileOnce := flag.Bool("reconcile-once", false, "run one storage reconciliation sweep and exit")
	flag.Parse()

	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("starting vendoronboard server", slog.String("environment", cfg.Environment))

	if cfg.JWTSecret == "" {
		if cfg.Environment == "production" {
			log.Error("JWT_SECRET must be set in production")
			os.Exit(1)
		}
		log.Warn("JWT_SECRET not set, using development secret")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.Init(ctx, log, "vendoronboard", cfg.Environment)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 3. Initialize PostgreSQL and apply the schema
	pool, err := database.NewConnectionPool(ctx, cfg.Database, log)
	if err != nil {
		log.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Migrate(ctx); err != nil {
		log.Error("failed to apply schema", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Initialize blob storage
	blobs, err := storage.NewFileStore(cfg.StoragePath, log)
	if err != nil {
		log.Error("failed to initialize storage", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 5. Initialize repositories
	db := pool.GetDB()
	businessRepo := repository.NewPostgresBusinessRepository(db, log)
	vendorRepo := repository.NewPostgresVendorRepository(db, log)
	documentRepo := repository.NewPostgresDocumentRepository(db, log)
	ownerRepo := repository.NewPostgresOwnerRepository(db, log)

	reconciler := worker.NewReconcileWorker(documentRepo, blobs, log, cfg.ReconcileInterval, cfg.ReconcileGrace)
	if *reconcileOnce {
		report, err := reconciler.RunOnce(ctx)
		if err != nil {
			log.Error("reconcile sweep failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		fmt.Printf("scanned %d blobs, deleted %d orphans (%s), kept %d recent orphans, %d missing blobs\n",
			report.BlobsScanned, len(report.OrphansDeleted), humanize.Bytes(uint64(report.BytesReclaimed)),
			len(report.OrphansKept), len(report.MissingBlobs))
		return
	}

	// 6. Initialize the notifier; Redis is only required for the outbox
	checks := map[string]handler.Check{
		"database": pool.Health,
	}
	var notifier notify.Notifier = notify.NewLogNotifier(log)
	if cfg.Notifier == "redis" {
		redisClient, err := redis.NewClient(cfg.RedisURL)
		if err != nil {
			log.Error("failed to connect to Redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer redisClient.Close()
		notifier = notify.NewOutboxNotifier(redisClient, cfg.NotifyQueue, log)
		checks["redis"] = func(ctx context.Context) error {
			depth, err := redisClient.Len(ctx, cfg.NotifyQueue)
			if err != nil {
				return err
			}
			metrics.SetOutboxDepth(depth)
			return nil
		}
	}

	// 7. Initialize services
	auditLogger := audit.NewLogger(log)
	tokenManager := auth.NewTokenManager(cfg.JWTSecret, "vendoronboard")
	onboardingService := service.NewOnboardingService(businessRepo, vendorRepo, documentRepo, blobs, notifier, auditLogger, log, cfg)
	authService := service.NewAuthService(ownerRepo, businessRepo, tokenManager, cfg.SessionTTL, log)

	// 8. Setup HTTP routes
	rateLimiter := ratelimit.NewLimiter(cfg.VendorRateLimit, cfg.VendorRateLimitWindow)
	router := handler.NewRouter(handler.RouterDeps{
		Auth:         handler.NewAuthHandler(authService, log),
		Vendors:      handler.NewVendorHandler(onboardingService, log),
		Onboarding:   handler.NewOnboardingHandler(onboardingService, cfg.MaxUploadBytes, log),
		Documents:    handler.NewDocumentHandler(onboardingService, log),
		Health:       handler.NewHealthHandler(checks, log),
		TokenManager: tokenManager,
		VendorLimit:  rateLimiter,
		CORSOrigins:  cfg.CORSAllowedOrigins,
		Logger:       log,
	})

	// 9. Start reconciliation and redelivery workers in background
	if cfg.ReconcileInterval > 0 {
		go reconciler.Start(ctx)
	} else {
		log.Info("reconcile worker disabled: RECONCILE_INTERVAL_MINUTES is 0")
	}
	if cfg.NotifyRetryInterval > 0 {
		go worker.NewRedeliveryWorker(onboardingService, log, cfg.NotifyRetryInterval, cfg.NotifyRetryDelay).Start(ctx)
	} else {
		log.Warn("invite redelivery disabled: NOTIFY_RETRY_INTERVAL is 0")
	}

	// 10. Start HTTP server
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           otelhttp.NewHandler(router, "vendoronboard"),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.String("notifier", cfg.Notifier),
		slog.String("max_upload", humanize.Bytes(uint64(cfg.MaxUploadBytes))),
		slog.Int("vendor_rate_limit", cfg.VendorRateLimit),
		slog.Duration("vendor_rate_limit_window", cfg.VendorRateLimitWindow),
	)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.String("error", err.Error()))
			sigChan <- syscall.SIGTERM
		}
	}()

	<-sigChan
	log.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}

	cancel() // Stop background workers
	rateLimiter.Stop()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown error", slog.String("error", err.Error()))
	}
	log.Info("server stopped")
}
