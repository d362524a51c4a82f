package domain

import (
	"errors"
	"fmt"
)

// Status is the pedidos.estado value owned by the automation service.
type Status string

const (
	StatusPending   Status = "pendiente"
	StatusPaid      Status = "pagado"
	StatusCancelled Status = "cancelado"
	StatusFailed    Status = "fallido"
)

var ErrUnknownStatus = errors.New("unknown order status")

// ParseStatus accepts only final states; pendiente is never reported back.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPaid, StatusCancelled, StatusFailed:
		return st, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
}

// OrderCustomer is the customer block of the webhook body.
type OrderCustomer struct {
	Nombre   string `json:"nombre"`
	Telefono string `json:"telefono"`
	ID       int64  `json:"id"`
}

// OrderLine is one requested medication. Quantity mirrors the cart line.
type OrderLine struct {
	ID       int64 `json:"id"`
	Cantidad int   `json:"cantidad"`
}

// OrderPayload is built only to be handed to the automation webhook.
type OrderPayload struct {
	Cliente OrderCustomer `json:"cliente"`
	Items   []OrderLine   `json:"items"`
}

var (
	ErrEmptyOrder     = errors.New("order has no items")
	ErrAnonymousOrder = errors.New("order has no customer")
)

// NewOrderPayload snapshots identity and cart in cart order.
func NewOrderPayload(who *Identity, cart Cart) (OrderPayload, error) {
	if who == nil {
		return OrderPayload{}, ErrAnonymousOrder
	}
	if cart.IsEmpty() {
		return OrderPayload{}, ErrEmptyOrder
	}
	lines := make([]OrderLine, 0, len(cart))
	for _, it := range cart {
		lines = append(lines, OrderLine{ID: it.MedicationID, Cantidad: it.Cantidad})
	}
	return OrderPayload{
		Cliente: OrderCustomer{Nombre: who.Nombre, Telefono: who.Telefono, ID: who.ID},
		Items:   lines,
	}, nil
}
