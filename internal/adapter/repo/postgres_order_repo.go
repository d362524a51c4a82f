package repo

import (
	"context"
	"database/sql"
	"time"

	domain "github.com/mecber11/farmacia/internal/entity"
	"github.com/mecber11/farmacia/internal/usecase"
)

type PostgresOrderRepo struct {
	db      *sql.DB
	timeout time.Duration
}

func NewPostgresOrderRepo(db *sql.DB, timeout time.Duration) *PostgresOrderRepo {
	return &PostgresOrderRepo{db: db, timeout: timeout}
}

func (r *PostgresOrderRepo) UpdateStatusIf(ctx context.Context, id int64, from, to domain.Status) (bool, error) {
	ctx, cancel := queryCtx(ctx, r.timeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
UPDATE pedidos
SET estado = $1
WHERE id = $2 AND estado = $3`,
		string(to), id, string(from),
	)
	if err != nil {
		return false, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	// rows == 0 → either not found or already moved on
	return rows > 0, nil
}

var _ usecase.OrderRepo = (*PostgresOrderRepo)(nil)
