package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shareit/internal/config"
	"shareit/internal/domain"
	"shareit/internal/gateway"
	"shareit/internal/logging"
	"shareit/internal/metrics"
	"shareit/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	cachePrefix      = "shareit:cache:items:"
	limiterIdleAfter = 10 * time.Minute
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient := initRedis(ctx, cfg, logger)
	if redisClient != nil {
		defer func() { _ = repository.Close(redisClient) }()
	}

	deps := gateway.Deps{
		Upstream: gateway.NewServerClient(cfg.Gateway.ServerURL, cfg.Gateway.Timeout),
		Limiter:  initLimiter(ctx, cfg, redisClient, logger),
		Cache:    repository.NewResponseCache(redisClient, cachePrefix, cfg.Gateway.CacheTTL),
	}

	if addr := cfg.Gateway.ServerGRPCAddr; addr != "" {
		checker, err := gateway.NewHealthChecker(addr)
		if err != nil {
			return err
		}
		defer checker.Close()
		deps.Health = checker
	}

	gw := gateway.New(cfg.Gateway, deps, domain.SystemClock{}, logging.Component(logger, "gateway"))

	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
		go metrics.Serve(ctx, cfg.Monitoring.PrometheusPort, logger)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := gw.Start(); err != nil {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case runErr = <-errCh:
		logger.Error().Err(runErr).Msg("gateway stopped unexpectedly")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := gw.Shutdown(shutdownCtx); err != nil {
		runErr = errors.Join(runErr, err)
	}
	logger.Info().Msg("Gateway stopped")
	return runErr
}

func loadConfigAndLogger() (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logging.Component(baseLogger, "gateway-main"), closer, nil
}

// initRedis returns nil when Redis is not configured. An unreachable Redis
// is kept: the limiter fails over and the cache reports errors per request.
func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	client := repository.NewRedisClient(cfg.Redis)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := repository.Ping(pingCtx, client); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, starting degraded")
	} else {
		logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	}
	return client
}

func initLimiter(ctx context.Context, cfg *config.Config, redisClient *redis.Client, logger *zerolog.Logger) domain.RateLimitStore {
	rl := cfg.Gateway.RateLimit
	if !rl.Enabled {
		return nil
	}

	memory := repository.NewMemoryRateLimitStore(rl.RPS, rl.Burst)
	go func() {
		ticker := time.NewTicker(limiterIdleAfter)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				memory.Cleanup(limiterIdleAfter)
			}
		}
	}()

	if redisClient == nil {
		logger.Info().Msg("rate limiting in memory only")
		return memory
	}
	return repository.NewFailoverRateLimitStore(
		repository.NewRedisRateLimitStore(redisClient),
		memory,
		logging.Component(logger, "rate-limit"),
	)
}
