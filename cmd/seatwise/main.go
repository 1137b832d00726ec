// cmd/seatwise/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/seatwise/seatwise/internal/api"
	"github.com/seatwise/seatwise/internal/auth"
	"github.com/seatwise/seatwise/internal/config"
	"github.com/seatwise/seatwise/internal/model"
	"github.com/seatwise/seatwise/internal/predlog"
)

func main() {
	configPath := flag.String("config", os.Getenv("SEATWISE_CONFIG"), "path to YAML config file")
	flag.Parse()

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if cfg.Auth.JWTSecret == "" {
		logger.Fatal("SEATWISE_JWT_SECRET (or auth.jwt_secret) is required")
	}

	// A missing artifact is a degraded-but-running state: every
	// scoring request reports "model unavailable" until an operator
	// trains and restarts.
	var m *model.WasteModel
	m, err = model.Load(cfg.Model.ArtifactPath)
	switch {
	case err == nil:
		logger.Info("model loaded",
			zap.String("path", cfg.Model.ArtifactPath),
			zap.String("version", m.Version),
			zap.String("mode", string(m.Mode)))
	case errors.Is(err, model.ErrModelUnavailable):
		logger.Warn("serving without a model", zap.Error(err))
		m = nil
	default:
		logger.Fatal("load model", zap.Error(err))
	}

	var logs predlog.Store
	switch cfg.Log.Backend {
	case "postgres":
		store, err := predlog.NewPostgresStore(cfg.Log.DSN)
		if err != nil {
			logger.Fatal("open prediction log", zap.Error(err))
		}
		defer func() { _ = store.Close() }()
		logs = store
		logger.Info("prediction log on postgres")
	case "csv", "":
		logs = predlog.NewCSVStore(cfg.Log.CSVPath)
		logger.Info("prediction log on csv", zap.String("path", cfg.Log.CSVPath))
	default:
		logger.Fatal("invalid log backend", zap.String("backend", cfg.Log.Backend))
	}

	authSvc := auth.NewService(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTL))
	server := api.NewServer(cfg, logger, authSvc, m, logs)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("shutdown error", zap.Error(err))
		}
		os.Exit(0)
	}()

	if err := server.Start(); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}
