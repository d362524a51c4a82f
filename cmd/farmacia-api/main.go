package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mecber11/farmacia/cmd/farmacia-api/app"
	"github.com/mecber11/farmacia/configs"
	"github.com/mecber11/farmacia/internal/logging"
	"go.uber.org/zap"
)

func main() {
	env := os.Getenv("APP_ENV") // dev | staging | prod
	if env == "" {
		env = "dev"
	}

	cfg, err := configs.Load("configs", env)
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.Init(cfg.App.Name, cfg.Log.File, cfg.Log.Level)
	defer logging.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.WithCtx(ctx, logger)

	a, err := app.InitWithConfig(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("init", zap.Error(err))
	}
	defer a.Close()

	logger.Info("farmacia-api listening", zap.String("env", env), zap.String("addr", cfg.App.HTTPAddr))
	if err := a.Run(ctx); err != nil {
		logger.Error("server stopped", zap.Error(err))
	}
}
