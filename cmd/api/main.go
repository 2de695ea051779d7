package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/pawbridge/message-security-backend/internal/api/rest"
	"github.com/pawbridge/message-security-backend/internal/infrastructure/cache"
	"github.com/pawbridge/message-security-backend/internal/infrastructure/calendar"
	"github.com/pawbridge/message-security-backend/internal/infrastructure/config"
	"github.com/pawbridge/message-security-backend/internal/infrastructure/database"
	"github.com/pawbridge/message-security-backend/internal/infrastructure/notify"
	"github.com/pawbridge/message-security-backend/internal/infrastructure/telemetry"
	"github.com/pawbridge/message-security-backend/internal/service/accesspolicy"
	"github.com/pawbridge/message-security-backend/internal/service/audit"
	incidentsvc "github.com/pawbridge/message-security-backend/internal/service/incident"
	"github.com/pawbridge/message-security-backend/internal/service/risk"
	selfdestructsvc "github.com/pawbridge/message-security-backend/internal/service/selfdestruct"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := telemetry.NewLogger(cfg.LogLevel, cfg.Environment)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	otelProvider, err := telemetry.Initialize(ctx, &telemetry.Config{
		ServiceName:    "message-security",
		ServiceVersion: cfg.Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Enabled:        cfg.Telemetry.Enabled,
		SamplingRate:   cfg.Telemetry.SamplingRate,
		ExportTimeout:  cfg.Telemetry.ExportTimeout,
		BatchTimeout:   cfg.Telemetry.BatchTimeout,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		if err := otelProvider.Shutdown(context.Background()); err != nil {
			logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	pool, err := database.Connect(ctx, &cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	redisClient, err := cache.NewRedisClient(&cfg.Redis, logger)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer redisClient.Close()

	// Infrastructure adapters.
	configStore := database.NewSecurityConfigRepository(pool)
	destructRepo := database.NewSelfDestructRepository(pool)
	accessLogRepo := database.NewAccessLogRepository(pool)
	incidentRepo := database.NewIncidentRepository(pool)
	messageLookup := database.NewMessageLookup(pool)
	tracker := cache.NewAttemptTracker(redisClient, cfg.Security.DenialWindow, logger)
	holidays, err := calendar.NewStaticHolidays(cfg.Security.Holidays)
	if err != nil {
		return fmt.Errorf("parsing holiday calendar: %w", err)
	}
	notifier := notify.NewQueueNotifier(redisClient, logger)

	// Services.
	auditRecorder := audit.NewService(accessLogRepo, logger)
	incidents := incidentsvc.NewService(incidentRepo, notifier, logger)
	reporter := incidentsvc.NewReporter(incidents, logger)
	scorer := risk.NewService(tracker, tracker, holidays, &risk.Config{
		Weights: risk.Weights{
			UnknownDevice:  cfg.Security.RiskWeights.UnknownDevice,
			UnknownIP:      cfg.Security.RiskWeights.UnknownIP,
			UnknownCountry: cfg.Security.RiskWeights.UnknownCountry,
			OutsideWindow:  cfg.Security.RiskWeights.OutsideWindow,
			RapidAttempts:  cfg.Security.RiskWeights.RapidAttempts,
		},
		HighRiskThreshold: cfg.Security.HighRiskThreshold,
		DenialLimit:       cfg.Security.DenialLimit,
	}, logger)
	policy := accesspolicy.NewService(
		configStore, messageLookup, scorer, auditRecorder,
		tracker, reporter, notifier, holidays,
		cfg.Security.DenialLimit, logger,
	)
	destruct := selfdestructsvc.NewService(destructRepo, notifier, logger)

	// HTTP front.
	handler := rest.NewHandler(policy, destruct, incidents, auditRecorder, logger)
	health := rest.NewHealthChecker(cfg.Version, pool, redisClient)
	tracer := otelProvider.TracerProvider.Tracer("api.rest")
	server := rest.NewServer(cfg, handler, health, tracer, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}
