package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shareit/internal/api"
	"shareit/internal/config"
	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/export"
	"shareit/internal/logging"
	"shareit/internal/metrics"
	"shareit/internal/notification"
	"shareit/internal/service"
	"shareit/internal/worker"

	"github.com/rs/zerolog"
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

	db, err := database.NewDB(cfg.Database.Path, logging.Component(logger, "database"))
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := events.NewEventBus()
	bus.OnError(func(ev *events.Event, err error) {
		logger.Warn().Err(err).Str("event_type", ev.Type).Msg("event handler failed")
	})
	bus.Subscribe(func(ev *events.Event) error {
		metrics.IncBookingEvent(ev.Type)
		return nil
	}, events.BookingEvents...)

	notifier, closeSinks := initNotifications(ctx, cfg, logger)
	defer closeSinks()
	if notifier != nil {
		bus.Subscribe(notifier.Handle, events.BookingEvents...)
	}

	clock := domain.SystemClock{}
	svcLogger := logging.Component(logger, "service")
	services := api.Services{
		Users:    service.NewUserService(db, svcLogger),
		Items:    service.NewItemService(db, clock, svcLogger),
		Bookings: service.NewBookingService(db, bus, clock, svcLogger),
		Requests: service.NewRequestService(db, clock, svcLogger),
	}

	grpcServer, err := api.NewGRPCServer(cfg.Server, db, logger)
	if err != nil {
		logger.Error().Err(err).Msg("create grpc server")
		return err
	}
	go grpcServer.WatchDatabase(ctx, 15*time.Second)

	httpServer := api.NewHTTPServer(
		cfg.Server,
		services,
		db,
		clock,
		export.NewBookingExporter(cfg.Exports.SheetName),
		logging.Component(logger, "http"),
	)

	backup := database.NewBackupService(db, cfg.Backup, logging.Component(logger, "backup"))
	go backup.Start(ctx)

	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
		go metrics.Serve(ctx, cfg.Monitoring.PrometheusPort, logger)
	}

	err = startServers(ctx, grpcServer, httpServer, cfg, logger)
	stop()
	if notifier != nil {
		notifier.Wait()
	}
	return err
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
	return cfg, logging.Component(baseLogger, "server-main"), closer, nil
}

// initNotifications wires the configured sinks behind a delivery worker. It
// returns a nil worker when no sink is configured.
func initNotifications(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*worker.NotifyWorker, func()) {
	var (
		sinks   []notification.Sink
		closers []io.Closer
	)

	if tg := cfg.Notifications.Telegram; tg.BotToken != "" {
		sink, err := notification.NewTelegramSink(tg.BotToken, tg.ChatID)
		if err != nil {
			logger.Warn().Err(err).Msg("telegram init failed, continuing without telegram")
		} else {
			sinks = append(sinks, sink)
			logger.Info().Int64("chat_id", tg.ChatID).Msg("telegram notifications enabled")
		}
	}

	if mq := cfg.Notifications.AMQP; mq.URL != "" {
		sink, err := notification.DialAMQP(mq.URL, mq.Queue)
		if err != nil {
			logger.Warn().Err(err).Msg("rabbitmq init failed, continuing without rabbitmq")
		} else {
			sinks = append(sinks, sink)
			closers = append(closers, sink)
			logger.Info().Str("queue", mq.Queue).Msg("rabbitmq notifications enabled")
		}
	}

	closeAll := func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}
	if len(sinks) == 0 {
		return nil, closeAll
	}

	wc := cfg.Notifications.Worker
	w := worker.NewNotifyWorker(sinks, wc.QueueSize, worker.RetryPolicy{
		MaxRetries:   wc.MaxRetries,
		InitialDelay: wc.InitialDelay,
		MaxDelay:     wc.MaxDelay,
	}, logging.Component(logger, "notify-worker"))
	w.Start(ctx, len(sinks))
	return w, closeAll
}

func startServers(
	ctx context.Context,
	grpcServer *api.GRPCServer,
	httpServer *api.HTTPServer,
	cfg *config.Config,
	logger *zerolog.Logger,
) error {
	errCh := make(chan error, 2)
	go func() {
		if err := grpcServer.Serve(); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()
	go func() {
		if err := httpServer.Start(); err != nil {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	logger.Info().Str("grpc_addr", grpcServer.Addr()).Int("http_port", cfg.Server.HTTPPort).Msg("ShareIt server started")

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case runErr = <-errCh:
		logger.Error().Err(runErr).Msg("server stopped unexpectedly")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	grpcServer.Shutdown(shutdownCtx)
	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("ShareIt server stopped")
	return runErr
}
