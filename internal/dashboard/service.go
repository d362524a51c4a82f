package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mecber11/farmacia/internal/logging"
	"go.uber.org/zap"
)

const snapshotKey = "ventas"

type SalesSource interface {
	FetchSales(ctx context.Context) ([]Sale, error)
}

// Service serves summaries from the cached snapshot and refreshes it from
// the API when it is missing or stale.
type Service struct {
	src   SalesSource
	cache Cache
	limit int
	retry time.Duration
	now   func() time.Time
}

func NewService(src SalesSource, cache Cache, recentLimit int, retry time.Duration) *Service {
	return &Service{src: src, cache: cache, limit: recentLimit, retry: retry, now: time.Now}
}

// Summary never fails: an unreachable API yields an empty summary with a message.
func (s *Service) Summary(ctx context.Context) Summary {
	log := logging.FromCtx(ctx)

	if b, ok, err := s.cache.Get(ctx, snapshotKey); err != nil {
		log.Warn("dashboard cache read", zap.Error(err))
	} else if ok {
		var sales []Sale
		if err := json.Unmarshal(b, &sales); err == nil {
			return s.summarize(sales)
		}
		log.Warn("dashboard cache entry unreadable")
	}

	sales, err := s.Refresh(ctx)
	if err != nil {
		out := s.summarize(nil)
		out.Error = fmt.Sprintf("No se pudo conectar a la API. Asegúrate de que está corriendo. Error: %v", err)
		return out
	}
	return s.summarize(sales)
}

// Refresh fetches the sales and replaces the cached snapshot.
func (s *Service) Refresh(ctx context.Context) ([]Sale, error) {
	sales, err := s.src.FetchSales(ctx)
	if err != nil {
		logging.FromCtx(ctx).Warn("fetch sales", zap.Error(err))
		return nil, err
	}
	b, err := json.Marshal(sales)
	if err == nil {
		err = s.cache.Set(ctx, snapshotKey, b)
	}
	if err != nil {
		logging.FromCtx(ctx).Warn("dashboard cache write", zap.Error(err))
	}
	return sales, nil
}

func (s *Service) summarize(sales []Sale) Summary {
	out := Summarize(sales, s.limit)
	out.GeneratedAt = s.now().UTC()
	if len(sales) == 0 && s.retry > 0 {
		out.Message += " " + fmt.Sprintf(msgRetry, formatRetry(s.retry))
	}
	return out
}

func formatRetry(d time.Duration) string {
	if d%time.Second == 0 {
		return fmt.Sprintf("%d segundos", int(d/time.Second))
	}
	return d.String()
}
