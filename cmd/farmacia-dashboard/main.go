package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/mecber11/farmacia/configs"
	"github.com/mecber11/farmacia/internal/adapter/cache"
	"github.com/mecber11/farmacia/internal/bootstrap"
	"github.com/mecber11/farmacia/internal/dashboard"
	"github.com/mecber11/farmacia/internal/logging"
	"go.uber.org/zap"
)

func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	cfg, err := configs.Load("configs", env)
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.Init("farmacia-dashboard", cfg.Log.File, cfg.Log.Level)
	defer logging.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.WithCtx(ctx, logger)

	d := cfg.Dashboard
	var snapshots dashboard.Cache = dashboard.NewMemoryCache(d.CacheTTL)
	if d.Cache == "redis" {
		rdb, err := bootstrap.OpenRedis(ctx, cfg)
		if err != nil {
			logger.Fatal("redis", zap.Error(err))
		}
		defer rdb.Close()
		snapshots = cache.NewRedisCache(rdb, "farmacia:dashboard:", d.CacheTTL)
	}

	client := dashboard.NewClient(dashboard.ClientConfig{
		APIURL:       d.APIURL,
		TokenURL:     d.TokenURL,
		ClientID:     d.ClientID,
		ClientSecret: d.ClientSecret,
	})
	svc := dashboard.NewService(client, snapshots, d.RecentLimit, d.PollInterval)
	go dashboard.NewPoller(svc, d.PollInterval).Run(ctx)

	srv := &http.Server{
		Addr:         d.HTTPAddr,
		Handler:      dashboard.NewRouter(logger, svc),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("farmacia-dashboard listening", zap.String("addr", d.HTTPAddr), zap.String("api", d.APIURL))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server stopped", zap.Error(err))
	}
}
