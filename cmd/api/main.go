package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"aperture/api/internal/audit"
	"aperture/api/internal/cache"
	"aperture/api/internal/config"
	"aperture/api/internal/database"
	"aperture/api/internal/handlers"
	"aperture/api/internal/jobs"
	"aperture/api/internal/log"
	"aperture/api/internal/ratelimit"
	"aperture/api/internal/repository"
	"aperture/api/internal/server"
	"aperture/api/internal/service"
	"aperture/api/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	ctx := context.Background()

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}

	objectStore, err := storage.NewObjectStore(cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init object store")
	}
	if err := objectStore.EnsureBucket(ctx); err != nil {
		logger.Warn().Err(err).Msg("ensure asset bucket failed")
	}

	auditRepo := repository.NewAuditRepository(dbPool)
	recorder := audit.NewRecorder(auditRepo, logger, cfg.IsProduction())

	memLimiter := ratelimit.NewMemoryLimiter()
	var limiter ratelimit.Limiter = memLimiter
	if cfg.RateLimit.Store == "redis" {
		limiter = ratelimit.NewRedisLimiter(redisClient)
		memLimiter = nil
	}
	lockouts := ratelimit.NewMemoryLockoutTracker(cfg.Lockout.MaxFailures, cfg.Lockout.Duration)

	roleRepo := repository.NewRoleRepository(dbPool)
	userRepo := repository.NewUserRepository(dbPool)
	if err := service.Bootstrap(ctx, roleRepo, userRepo, recorder, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("bootstrap failed")
	}

	handlerSet := handlers.NewHandlerSet(logger, dbPool, redisClient, objectStore, limiter, lockouts, recorder, cfg)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	scheduler := jobs.NewScheduler(memLimiter, lockouts, auditRepo, cfg.Audit.RetentionDays, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, recorder, dbPool, redisClient)
}

func waitForShutdown(
	logger zerolog.Logger,
	srv *server.HTTPServer,
	scheduler *jobs.Scheduler,
	recorder *audit.Recorder,
	db *pgxpool.Pool,
	redisClient *redis.Client,
) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("forced shutdown failed")
		}
	}

	if scheduler != nil {
		scheduler.Stop()
	}

	// Let in-flight audit writes land before the pool closes.
	recorder.Drain()

	db.Close()
	if err := redisClient.Close(); err != nil {
		logger.Error().Err(err).Msg("redis close error")
	}

	logger.Info().Msg("server exited cleanly")
}

