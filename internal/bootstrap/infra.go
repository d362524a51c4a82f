package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mecber11/farmacia/configs"
	"github.com/mecber11/farmacia/internal/adapter/repo"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cleanup runs registered closers in reverse order.
type Cleanup struct {
	fns []func()
}

func (c *Cleanup) Add(fn func()) { c.fns = append(c.fns, fn) }

func (c *Cleanup) Run() {
	for i := len(c.fns) - 1; i >= 0; i-- {
		c.fns[i]()
	}
	c.fns = nil
}

// OpenDatabase opens the Postgres pool. A failed ping is only logged: the
// database may come up after the API, and every query reports its own error.
func OpenDatabase(ctx context.Context, cfg configs.Config, log *zap.Logger) (*sql.DB, error) {
	db, err := repo.OpenPostgres(cfg.DSN(), repo.PoolConfig{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		log.Warn("postgres not reachable at startup",
			zap.String("host", cfg.Database.Host), zap.String("db", cfg.Database.Name), zap.Error(err))
	}
	return db, nil
}

func OpenRedis(ctx context.Context, cfg configs.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis %s: %w", cfg.Redis.Addr, err)
	}
	return rdb, nil
}

// DialRabbit returns a connection and one channel on it.
func DialRabbit(url string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	return conn, ch, nil
}
