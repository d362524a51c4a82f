package queue

import (
	"context"

	"github.com/mecber11/farmacia/internal/usecase"
)

type PaymentStatusUsecase interface {
	Handle(ctx context.Context, ev usecase.PaymentStatusChangedMsg) error
}

// NewPaymentStatusHandler decodes {"pedido_id","estado"} deliveries for uc.
func NewPaymentStatusHandler(uc PaymentStatusUsecase) Handler {
	return JSONHandler[usecase.PaymentStatusChangedMsg]{HandleFunc: uc.Handle}
}
