package domain

import "github.com/shopspring/decimal"

// Medication is a medicamentos row. Read-only for the storefront.
type Medication struct {
	ID             int64
	Nombre         string
	Presentacion   string
	PrecioUnitario decimal.Decimal
	Stock          int
	Activo         bool
}

// Available reports whether the medication may be added to a cart.
func (m Medication) Available() bool {
	return m.Activo && m.Stock > 0
}
