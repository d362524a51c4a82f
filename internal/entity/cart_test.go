package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func med(id int64, name, price string) Medication {
	return Medication{ID: id, Nombre: name, PrecioUnitario: decimal.RequireFromString(price), Stock: 10, Activo: true}
}

func TestCart_AddKeepsDuplicates(t *testing.T) {
	paracetamol := med(1, "Paracetamol", "5.00")
	ibuprofeno := med(2, "Ibuprofeno", "7.50")

	for n := 0; n <= 20; n++ {
		var c Cart
		for i := 0; i < n; i++ {
			if i%3 == 0 {
				c = c.Add(ibuprofeno)
			} else {
				c = c.Add(paracetamol)
			}
		}
		require.Len(t, c, n, "adding %d items", n)
		for _, it := range c {
			assert.Equal(t, 1, it.Cantidad)
		}
	}
}

func TestCart_AddSnapshotsPrice(t *testing.T) {
	m := med(1, "Paracetamol", "5.00")
	c := Cart{}.Add(m)

	m.PrecioUnitario = decimal.RequireFromString("9.00")
	assert.True(t, c[0].Precio.Equal(decimal.RequireFromString("5.00")))
	assert.Equal(t, "Paracetamol", c[0].Nombre)
	assert.Equal(t, int64(1), c[0].MedicationID)
}

func TestCart_Total(t *testing.T) {
	c := Cart{}.
		Add(med(1, "Paracetamol", "5.00")).
		Add(med(1, "Paracetamol", "5.00")).
		Add(med(2, "Ibuprofeno", "7.35"))

	assert.Equal(t, "17.35", c.Total().StringFixed(2))
	assert.True(t, Cart{}.Total().IsZero())
}

func TestCart_Clone(t *testing.T) {
	c := Cart{}.Add(med(1, "Paracetamol", "5.00"))
	cp := c.Clone()
	cp[0].Nombre = "changed"

	assert.Equal(t, "Paracetamol", c[0].Nombre)
	assert.Nil(t, Cart(nil).Clone())
}

func TestNewOrderPayload(t *testing.T) {
	who := &Identity{ID: 7, Nombre: "Ana", Telefono: "+51987654321"}

	t.Run("keeps cart order and quantities", func(t *testing.T) {
		c := Cart{}.Add(med(3, "C", "1")).Add(med(1, "A", "1")).Add(med(3, "C", "1"))

		p, err := NewOrderPayload(who, c)
		require.NoError(t, err)
		assert.Equal(t, OrderCustomer{Nombre: "Ana", Telefono: "+51987654321", ID: 7}, p.Cliente)
		assert.Equal(t, []OrderLine{{ID: 3, Cantidad: 1}, {ID: 1, Cantidad: 1}, {ID: 3, Cantidad: 1}}, p.Items)
	})

	t.Run("rejects empty cart", func(t *testing.T) {
		_, err := NewOrderPayload(who, Cart{})
		assert.ErrorIs(t, err, ErrEmptyOrder)
	})

	t.Run("rejects missing identity", func(t *testing.T) {
		_, err := NewOrderPayload(nil, Cart{}.Add(med(1, "A", "1")))
		assert.ErrorIs(t, err, ErrAnonymousOrder)
	})
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus("pagado")
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, st)

	_, err = ParseStatus("pendiente")
	assert.ErrorIs(t, err, ErrUnknownStatus)

	_, err = ParseStatus("PAID")
	assert.ErrorIs(t, err, ErrUnknownStatus)
}
