package domain

import "github.com/shopspring/decimal"

// CartItem is one add-to-cart click. Cantidad is always 1; repeated adds of
// the same medication produce repeated lines.
type CartItem struct {
	MedicationID int64           `json:"id"`
	Nombre       string          `json:"nombre"`
	Precio       decimal.Decimal `json:"precio"`
	Cantidad     int             `json:"cantidad"`
}

// Cart keeps lines in insertion order.
type Cart []CartItem

// Add appends a line for m with quantity 1 and returns the grown cart.
func (c Cart) Add(m Medication) Cart {
	return append(c, CartItem{
		MedicationID: m.ID,
		Nombre:       m.Nombre,
		Precio:       m.PrecioUnitario,
		Cantidad:     1,
	})
}

func (c Cart) IsEmpty() bool { return len(c) == 0 }

// Total sums price times quantity over every line.
func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c {
		total = total.Add(it.Precio.Mul(decimal.NewFromInt(int64(it.Cantidad))))
	}
	return total
}

// Clone returns a copy that shares no backing array with c.
func (c Cart) Clone() Cart {
	if c == nil {
		return nil
	}
	out := make(Cart, len(c))
	copy(out, c)
	return out
}
