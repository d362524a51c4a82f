package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	domain "github.com/mecber11/farmacia/internal/entity"
	"github.com/mecber11/farmacia/internal/usecase"
)

type PostgresCustomerRepo struct {
	db      *sql.DB
	timeout time.Duration
}

func NewPostgresCustomerRepo(db *sql.DB, timeout time.Duration) *PostgresCustomerRepo {
	return &PostgresCustomerRepo{db: db, timeout: timeout}
}

func (r *PostgresCustomerRepo) FindByPhone(ctx context.Context, phone string) (*domain.Customer, error) {
	ctx, cancel := queryCtx(ctx, r.timeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `
SELECT id, nombre, telefono, password_hash
FROM clientes WHERE telefono = $1`, phone)
	var c domain.Customer
	if err := row.Scan(&c.ID, &c.Nombre, &c.Telefono, &c.PasswordHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, usecase.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Create inserts one clientes row. A taken telefono maps to ErrPhoneTaken.
func (r *PostgresCustomerRepo) Create(ctx context.Context, c *domain.Customer) (int64, error) {
	ctx, cancel := queryCtx(ctx, r.timeout)
	defer cancel()

	var id int64
	err := r.db.QueryRowContext(ctx, `
INSERT INTO clientes (nombre, telefono, email, direccion, password_hash)
VALUES ($1, $2, $3, $4, $5)
RETURNING id`, c.Nombre, c.Telefono, nullIfEmpty(c.Email), nullIfEmpty(c.Direccion), c.PasswordHash).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, usecase.ErrPhoneTaken
		}
		return 0, err
	}
	return id, nil
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

var _ usecase.CustomerRepo = (*PostgresCustomerRepo)(nil)
