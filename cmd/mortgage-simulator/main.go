package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/iwvelando/mortgage-simulator/internal/conditions"
	"github.com/iwvelando/mortgage-simulator/internal/config"
	"github.com/iwvelando/mortgage-simulator/internal/server"
	"github.com/iwvelando/mortgage-simulator/internal/session"
	"github.com/iwvelando/mortgage-simulator/internal/simulation"
	"github.com/iwvelando/mortgage-simulator/pkg/constants"
	"github.com/iwvelando/mortgage-simulator/pkg/format"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// initializeLogger creates a zap logger based on configuration and CLI override
func initializeLogger(loggingConfig config.LoggingConfig, logLevelOverride string) (*zap.Logger, error) {
	level := loggingConfig.Level
	if logLevelOverride != "" {
		level = logLevelOverride
	}
	if level == "" {
		level = "info"
	}

	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn", "warning":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("invalid log level: %s", level)
	}

	logFormat := loggingConfig.Format
	if logFormat == "" {
		logFormat = "json"
	}

	var zapConfig zap.Config
	switch logFormat {
	case "console":
		zapConfig = zap.NewDevelopmentConfig()
	case "json":
		zapConfig = zap.NewProductionConfig()
	default:
		return nil, fmt.Errorf("invalid log format: %s", logFormat)
	}
	zapConfig.Level = zap.NewAtomicLevelAt(zapLevel)

	if loggingConfig.OutputFile != "" {
		if dir := filepath.Dir(loggingConfig.OutputFile); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory %s: %v", dir, err)
			}
		}

		file, err := os.OpenFile(loggingConfig.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %v", loggingConfig.OutputFile, err)
		}
		_ = file.Close()

		zapConfig.OutputPaths = []string{loggingConfig.OutputFile}
		zapConfig.ErrorOutputPaths = []string{loggingConfig.OutputFile}
	}

	return zapConfig.Build()
}

// buildCodecs turns the format section into field codecs.
func buildCodecs(f config.FormatConfig) (conditions.Codecs, error) {
	tag, err := f.Tag()
	if err != nil {
		return conditions.Codecs{}, err
	}
	unit, err := f.Unit()
	if err != nil {
		return conditions.Codecs{}, err
	}
	return conditions.Codecs{
		Currency:   format.NewCurrencyCodec(tag, unit, f.SymbolPosition),
		Percentage: format.NewPercentageCodec(tag, f.PercentageMax),
		Years:      format.YearsCodec{},
	}, nil
}

// buildRepository selects the session store. The returned cleanup stops the
// sweeper or closes the Redis client.
func buildRepository(ctx context.Context, conf config.SessionConfig, logger *zap.Logger) (session.Repository, func(context.Context), error) {
	switch conf.Backend {
	case constants.SessionBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     conf.RedisAddress,
			Password: conf.RedisPassword,
			DB:       conf.RedisDB,
		})
		repo := session.NewRedisRepository(client, conf.RedisPrefix, conf.TTL)
		if err := repo.Ping(ctx); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("failed to reach redis at %s: %w", conf.RedisAddress, err)
		}
		return repo, func(context.Context) { _ = client.Close() }, nil
	default:
		repo := session.NewMemoryRepository(conf.TTL)
		if conf.TTL <= 0 {
			return repo, func(context.Context) {}, nil
		}
		sweeper, err := session.NewSweeper(repo, conf.SweepSchedule, logger)
		if err != nil {
			return nil, nil, err
		}
		sweeper.Start()
		return repo, sweeper.Stop, nil
	}
}

func main() {
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	envFile := flag.String("env-file", ".env", "path to an optional env file")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	validateOnly := flag.Bool("validate", false, "validate the configuration and exit")
	flag.Parse()

	if err := config.LoadEnvFile(*envFile); err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load env file\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}

	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	logger, err := initializeLogger(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}
	if *validateOnly {
		logger.Info("configuration is valid", zap.String("op", "main"), zap.String("config", *configLocation))
		return
	}

	codecs, err := buildCodecs(conf.Format)
	if err != nil {
		logger.Fatal("failed to build field formats", zap.String("op", "main"), zap.Error(err))
	}
	locale, _ := conf.Format.Tag()

	ctx := context.Background()
	repo, closeRepo, err := buildRepository(ctx, conf.Session, logger)
	if err != nil {
		logger.Fatal("failed to initialize session storage", zap.String("op", "main"), zap.Error(err))
	}

	client := simulation.NewClient(conf.Simulation.ServiceURL, conf.Simulation.Timeout, logger)
	manager := session.NewManager(repo, client, codecs, session.Defaults{
		General:   conf.Defaults.General,
		Condition: conf.Defaults.Condition,
	}, logger)

	srv := &http.Server{
		Addr: conf.Server.Address,
		Handler: server.NewHandler(logger, manager, server.Options{
			MaxBodySize:    conf.Server.MaxBodySizeBytes(),
			Version:        conf.Server.Version,
			AllowedOrigins: conf.Server.AllowedOrigins,
			Locale:         locale,
			Codecs:         codecs,
		}),
	}

	go func() {
		logger.Info("starting server",
			zap.String("op", "main"),
			zap.String("address", conf.Server.Address),
			zap.String("simulationService", client.Endpoint()),
			zap.String("sessionBackend", conf.Session.Backend),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.String("op", "main"), zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down", zap.String("op", "main"))
	shutdownCtx, cancel := context.WithTimeout(ctx, constants.DefaultShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.String("op", "main"), zap.Error(err))
	}
	closeRepo(shutdownCtx)
	logger.Info("server stopped", zap.String("op", "main"))
}
