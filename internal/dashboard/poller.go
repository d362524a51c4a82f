package dashboard

import (
	"context"
	"time"

	"github.com/mecber11/farmacia/internal/logging"
	"go.uber.org/zap"
)

// Poller refreshes the snapshot on a fixed interval until ctx is cancelled.
type Poller struct {
	svc      *Service
	interval time.Duration
}

func NewPoller(svc *Service, interval time.Duration) *Poller {
	return &Poller{svc: svc, interval: interval}
}

func (p *Poller) Run(ctx context.Context) {
	log := logging.FromCtx(ctx).With(zap.String("component", "dashboard-poller"))
	if p.interval <= 0 {
		log.Info("polling disabled")
		return
	}

	t := time.NewTicker(p.interval)
	defer t.Stop()

	p.tick(ctx, log)
	for {
		select {
		case <-ctx.Done():
			log.Info("poller stopped")
			return
		case <-t.C:
			p.tick(ctx, log)
		}
	}
}

func (p *Poller) tick(ctx context.Context, log *zap.Logger) {
	sales, err := p.svc.Refresh(ctx)
	if err != nil {
		return
	}
	log.Debug("sales refreshed", zap.Int("rows", len(sales)))
}
