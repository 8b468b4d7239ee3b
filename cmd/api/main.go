package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lop-gin/factory-finance-pal/internal/application/service"
	"github.com/lop-gin/factory-finance-pal/internal/config"
	domainRepo "github.com/lop-gin/factory-finance-pal/internal/domain/repository"
	"github.com/lop-gin/factory-finance-pal/internal/infrastructure/cache"
	"github.com/lop-gin/factory-finance-pal/internal/infrastructure/database"
	"github.com/lop-gin/factory-finance-pal/internal/infrastructure/repository"
	"github.com/lop-gin/factory-finance-pal/internal/presentation/http/handler"
	"github.com/lop-gin/factory-finance-pal/internal/presentation/http/middleware"
	"github.com/lop-gin/factory-finance-pal/internal/presentation/http/routes"
	"github.com/lop-gin/factory-finance-pal/pkg/logger"
	"github.com/lop-gin/factory-finance-pal/pkg/utils"
	"go.uber.org/zap"
)

const idempotencySweepInterval = time.Hour

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "factory-finance-pal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgresDB(&cfg.Database, cfg.App.Debug, log)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if err := database.AutoMigrate(db, log); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	jwtManager := utils.NewJWTManager(cfg.JWT.Secret, cfg.JWT.ExpiryHours)

	// Repositories
	customerRepo := repository.NewCustomerRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)

	sequence, closeSequence := buildSequence(ctx, cfg, documentRepo, log)
	defer closeSequence()

	// Services
	numbering := service.NewNumberingService(sequence, cfg.Numbering.Width)
	lookup := service.NewTransactionService(documentRepo)
	customerService := service.NewCustomerService(customerRepo)
	documentService := service.NewDocumentService(documentRepo)
	drafts := service.NewDraftService(service.DraftConfig{
		Numbers:   numbering,
		Store:     service.NewDocumentStore(documentRepo),
		Lookup:    lookup,
		Customers: customerRepo,
		Logger:    log.Named("drafts"),
		TTL:       cfg.Drafts.TTL,
	})
	drafts.StartCleanup(cfg.Drafts.CleanupInterval)
	defer drafts.Stop()

	go sweepIdempotencyKeys(ctx, idempotencyRepo, log)

	rateLimiter := middleware.NewUserRateLimiter(middleware.RateLimiterConfigFor(
		cfg.RateLimit.Requests,
		time.Duration(cfg.RateLimit.Duration)*time.Second,
	))
	defer rateLimiter.Stop()

	router := routes.Setup(&routes.Handlers{
		Customer: handler.NewCustomerHandler(customerService, lookup),
		Document: handler.NewDocumentHandler(documentService),
		Draft:    handler.NewDraftHandler(drafts),
	}, &routes.Deps{
		JWTManager:      jwtManager,
		Cfg:             cfg,
		Logger:          log,
		IdempotencyRepo: idempotencyRepo,
		RateLimiter:     rateLimiter,
		Stats:           drafts.Stats,
	})

	port := cfg.App.Port
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server",
			zap.String("service", cfg.App.Name),
			zap.String("env", cfg.App.Env),
			zap.String("port", port),
			zap.String("numbering", cfg.Numbering.Backend),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildSequence picks the document number backend. Redis is preferred; the
// database count is used when Redis is not configured or unreachable.
func buildSequence(ctx context.Context, cfg *config.Config, docs domainRepo.DocumentRepository, log *zap.Logger) (domainRepo.SequenceRepository, func()) {
	dbSequence := repository.NewDocumentSequence(docs)
	if cfg.Numbering.Backend != config.NumberingBackendRedis {
		return dbSequence, func() {}
	}

	client, err := cache.NewRedisClient(ctx, &cfg.Redis)
	if err != nil {
		log.Warn("redis unavailable, numbering from database", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		return dbSequence, func() {}
	}
	return cache.NewRedisSequence(client, dbSequence), func() { _ = client.Close() }
}

func sweepIdempotencyKeys(ctx context.Context, repo domainRepo.IdempotencyRepository, log *zap.Logger) {
	ticker := time.NewTicker(idempotencySweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			n, err := repo.DeleteExpired(ctx)
			if err != nil {
				log.Warn("failed to delete expired idempotency keys", zap.Error(err))
				continue
			}
			if n > 0 {
				log.Info("deleted expired idempotency keys", zap.Int64("count", n))
			}
		case <-ctx.Done():
			return
		}
	}
}
