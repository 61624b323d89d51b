package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/park285/whales/internal/builder"
	appcfg "github.com/park285/whales/internal/config"
	"github.com/park285/whales/internal/httpapi"
	"github.com/park285/whales/internal/obslog"
	"go.uber.org/zap"
)

func main() {
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	cfg, err := appcfg.Load()
	if err != nil {
		logger.Fatal("config error", zap.Error(err))
	}

	deps, err := builder.New(cfg, logger)
	if err != nil {
		logger.Fatal("init error", zap.Error(err))
	}
	defer deps.Close()

	for _, m := range deps.Service.Models() {
		logger.Info("model registered", zap.String("model", m.InternalName), zap.String("name", m.DisplayName))
	}

	srv := httpapi.New(deps.Handler, httpapi.Config{
		HTTPAddr:     cfg.HTTPAddr,
		WSAddr:       cfg.WSAddr,
		MaxBodySize:  cfg.MaxBodyBytes,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}, logger, deps.Health...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		logger.Error("server stopped", zap.Error(err))
		return
	}
	logger.Info("server stopped")
}
