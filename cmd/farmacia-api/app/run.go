package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/mecber11/farmacia/configs"
	"github.com/mecber11/farmacia/internal/adapter/cache"
	httpadapter "github.com/mecber11/farmacia/internal/adapter/http"
	"github.com/mecber11/farmacia/internal/adapter/http/middleware"
	"github.com/mecber11/farmacia/internal/adapter/kafka"
	"github.com/mecber11/farmacia/internal/adapter/observ"
	"github.com/mecber11/farmacia/internal/adapter/queue"
	"github.com/mecber11/farmacia/internal/adapter/repo"
	"github.com/mecber11/farmacia/internal/adapter/webhook"
	"github.com/mecber11/farmacia/internal/bootstrap"
	"github.com/mecber11/farmacia/internal/security"
	"github.com/mecber11/farmacia/internal/usecase"
	"github.com/prometheus/client_golang/prometheus"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type App struct {
	Server *http.Server

	cfg     configs.Config
	log     *zap.Logger
	cleanup bootstrap.Cleanup
	workers []func(ctx context.Context) error
}

func InitWithConfig(ctx context.Context, cfg configs.Config, log *zap.Logger) (*App, error) {
	a := &App{cfg: cfg, log: log}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	log.Info("farmacia-api: starting up", zap.String("env", cfg.App.Env))

	// postgres
	db, err := bootstrap.OpenDatabase(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	a.cleanup.Add(func() { _ = db.Close() })

	// redis, only when something needs it
	var rdb *redis.Client
	if cfg.Session.Store == "redis" || cfg.Checkout.DuplicateWindow > 0 {
		if rdb, err = bootstrap.OpenRedis(ctx, cfg); err != nil {
			return nil, err
		}
		a.cleanup.Add(func() { _ = rdb.Close() })
	}

	// rabbitmq
	var ch *amqp.Channel
	if cfg.Events.Transport == "rabbitmq" || cfg.Events.Publish {
		conn, c, err := bootstrap.DialRabbit(cfg.Rabbit.URL)
		if err != nil {
			return nil, err
		}
		a.cleanup.Add(func() { _ = conn.Close() })
		if err := queue.DeclareTopology(c, cfg.Rabbit.Exchange, cfg.Rabbit.StatusQueue); err != nil {
			return nil, err
		}
		ch = c
	}

	metrics := observ.NewMetrics(prometheus.DefaultRegisterer)
	qt := cfg.Database.QueryTimeout

	// infra
	customers := repo.NewPostgresCustomerRepo(db, qt)
	catalog := repo.NewPostgresCatalogRepo(db, qt)
	salesRepo := repo.NewPostgresSalesRepo(db, qt)
	orders := repo.NewPostgresOrderRepo(db, qt)

	var sessions usecase.SessionStore
	if cfg.Session.Store == "redis" {
		sessions = cache.NewRedisSessionStore(rdb, cfg.Session.TTL)
	} else {
		sessions = cache.NewMemorySessionStore(cfg.Session.TTL)
	}

	dispatcher := webhook.NewDispatcher(webhook.Config{
		URL:           cfg.Webhook.URL,
		Timeout:       cfg.Webhook.Timeout,
		RedirectField: cfg.Webhook.RedirectField,
		UserAgent:     cfg.Webhook.UserAgent,
	})

	var opts []usecase.CheckoutOption
	if cfg.Checkout.DuplicateWindow > 0 {
		opts = append(opts, usecase.WithDuplicateGuard(cache.NewRedisIdempotencyStore(rdb, cfg.Checkout.DuplicateWindow)))
	}
	if cfg.Events.Publish {
		opts = append(opts, usecase.WithEvents(queue.NewRabbitProducer(ch, cfg.Rabbit.Exchange)))
	}

	// usecases
	checkout := usecase.NewCheckout(dispatcher, metrics, opts...)
	storefront := usecase.NewStorefront(sessions, customers, catalog, security.NewPasswords(), checkout, metrics)
	report := usecase.NewSalesReport(salesRepo)
	payments := usecase.NewPaymentStatus(orders, metrics)

	// handlers + router
	// handlers outlive the webhook call; no webhook timeout means no handler timeout
	var handlerTimeout time.Duration
	if cfg.Webhook.Timeout > 0 {
		handlerTimeout = cfg.Webhook.Timeout + 10*time.Second
	}
	tokens := security.NewTokens(cfg.Security.JWTSecret, cfg.Security.Issuer, cfg.Security.Audience, cfg.Security.TokenTTL)
	sf := httpadapter.NewStorefrontHandler(storefront, tokens, httpadapter.CookieConfig{
		Name:   cfg.Session.CookieName,
		Secure: cfg.Session.Secure,
		MaxAge: cfg.Session.TTL,
	}, handlerTimeout)
	th := httpadapter.NewTokenHandler(security.NewClients(cfg.Reporting.Clients), tokens)

	rc := httpadapter.RouterConfig{
		SessionCookie:  cfg.Session.CookieName,
		RequireToken:   cfg.Reporting.RequireToken,
		ReportingPerms: []string{"sales.read"},
	}
	if cfg.Security.LoginRatePerMinute > 0 {
		rc.LoginThrottle = middleware.NewLoginThrottle(cfg.Security.LoginRatePerMinute, cfg.Security.LoginBurst)
	}
	router := httpadapter.NewRouter(log, sf, httpadapter.NewSalesHandler(report), th, tokens, rc)

	a.Server = &http.Server{
		Addr:         cfg.App.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	// payment status listeners
	switch cfg.Events.Transport {
	case "rabbitmq":
		qr := queue.NewRouter(ch, queue.WithPrefetch(cfg.Rabbit.Prefetch),
			queue.WithRequeue(true), queue.WithRequeueDelay(cfg.Rabbit.RequeueDelay))
		qr.Register(cfg.Rabbit.StatusQueue, queue.NewPaymentStatusHandler(payments))
		a.workers = append(a.workers, func(ctx context.Context) error {
			if err := qr.Start(ctx); err != nil {
				return err
			}
			<-ctx.Done()
			return nil
		})
	case "kafka":
		grp, err := kafka.NewGroup(kafka.GroupConfig{
			Brokers: cfg.Kafka.Brokers,
			GroupID: cfg.Kafka.GroupID,
			Version: cfg.Kafka.Version,
			Offset:  cfg.Kafka.Offset,
		})
		if err != nil {
			return nil, err
		}
		a.cleanup.Add(func() { _ = grp.Close() })
		consumer := kafka.NewConsumer(grp, []string{cfg.Kafka.StatusTopic}, payments.Handle)
		a.workers = append(a.workers, consumer.Start)
	}

	ok = true
	return a, nil
}

// Run serves HTTP and the event listeners until ctx is cancelled, then
// drains in-flight requests for up to http.shutdown_timeout.
func (a *App) Run(ctx context.Context) error {
	for _, w := range a.workers {
		go func(w func(context.Context) error) {
			if err := w(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.log.Error("event listener stopped", zap.Error(err))
			}
		}(w)
	}

	errc := make(chan error, 1)
	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.HTTP.ShutdownTimeout)
	defer cancel()
	return a.Server.Shutdown(shutdownCtx)
}

func (a *App) Close() { a.cleanup.Run() }
