package usecase

import "time"

// Published on RabbitMQ after the automation webhook accepted an order.
type CheckoutDispatchedMsg struct {
	SessionID    string              `json:"session_id"`
	ClienteID    int64               `json:"cliente_id"`
	Items        []CheckoutEventItem `json:"items"`
	ApproveURL   string              `json:"approve_url"`
	DispatchedAt time.Time           `json:"dispatched_at"`
}

type CheckoutEventItem struct {
	ID       int64 `json:"id"`
	Cantidad int   `json:"cantidad"`
}

// Sent by the automation service once the payment provider settles an order.
type PaymentStatusChangedMsg struct {
	PedidoID   int64  `json:"pedido_id"`
	Estado     string `json:"estado"` // e.g. "pagado"
	Referencia string `json:"referencia,omitempty"`
}
