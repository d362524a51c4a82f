package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/mecber11/farmacia/internal/usecase"
)

type PostgresSalesRepo struct {
	db      *sql.DB
	timeout time.Duration
}

func NewPostgresSalesRepo(db *sql.DB, timeout time.Duration) *PostgresSalesRepo {
	return &PostgresSalesRepo{db: db, timeout: timeout}
}

// ListPaid returns one row per paid order line, newest order first.
func (r *PostgresSalesRepo) ListPaid(ctx context.Context) ([]usecase.SaleLine, error) {
	ctx, cancel := queryCtx(ctx, r.timeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
SELECT p.id, p.fecha, c.nombre AS cliente, m.nombre AS medicamento, pi.cantidad, pi.subtotal
FROM pedidos p
JOIN clientes c ON p.cliente_id = c.id
JOIN pedido_items pi ON p.id = pi.pedido_id
JOIN medicamentos m ON pi.medicamento_id = m.id
WHERE p.estado = 'pagado'
ORDER BY p.fecha DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []usecase.SaleLine
	for rows.Next() {
		var s usecase.SaleLine
		if err := rows.Scan(&s.ID, &s.Fecha, &s.Cliente, &s.Medicamento, &s.Cantidad, &s.Subtotal); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

var _ usecase.SalesRepo = (*PostgresSalesRepo)(nil)
