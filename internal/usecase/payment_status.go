package usecase

import (
	"context"

	domain "github.com/mecber11/farmacia/internal/entity"
	"github.com/mecber11/farmacia/internal/logging"
	"go.uber.org/zap"
)

// PaymentStatus applies payment outcomes reported by the automation service.
// Only pendiente orders move; anything else is already settled.
type PaymentStatus struct {
	repo    OrderRepo
	metrics Metrics
}

func NewPaymentStatus(repo OrderRepo, metrics Metrics) *PaymentStatus {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &PaymentStatus{repo: repo, metrics: metrics}
}

// Handle returns an error only for failures worth redelivering. Malformed
// events are logged and dropped.
func (h *PaymentStatus) Handle(ctx context.Context, ev PaymentStatusChangedMsg) error {
	log := logging.FromCtx(ctx).With(zap.Int64("pedido_id", ev.PedidoID), zap.String("estado", ev.Estado))

	to, err := domain.ParseStatus(ev.Estado)
	if err != nil || ev.PedidoID <= 0 {
		h.metrics.PaymentStatusEvent("rejected")
		log.Warn("payment status event rejected", zap.Error(err))
		return nil
	}

	applied, err := h.repo.UpdateStatusIf(ctx, ev.PedidoID, domain.StatusPending, to)
	if err != nil {
		h.metrics.PaymentStatusEvent("error")
		return storeErr("update order status", err)
	}
	if !applied {
		h.metrics.PaymentStatusEvent("ignored")
		log.Info("payment status ignored: order missing or already settled")
		return nil
	}

	h.metrics.PaymentStatusEvent("applied")
	log.Info("payment status applied")
	return nil
}
