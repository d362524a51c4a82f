package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	domain "github.com/mecber11/farmacia/internal/entity"
	"github.com/mecber11/farmacia/internal/usecase"
)

type PostgresCatalogRepo struct {
	db      *sql.DB
	timeout time.Duration
}

func NewPostgresCatalogRepo(db *sql.DB, timeout time.Duration) *PostgresCatalogRepo {
	return &PostgresCatalogRepo{db: db, timeout: timeout}
}

func (r *PostgresCatalogRepo) ListAvailable(ctx context.Context) ([]domain.Medication, error) {
	ctx, cancel := queryCtx(ctx, r.timeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
SELECT id, nombre, presentacion, precio_unitario, stock
FROM medicamentos
WHERE activo = TRUE AND stock > 0
ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Medication
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *PostgresCatalogRepo) FindAvailable(ctx context.Context, id int64) (*domain.Medication, error) {
	ctx, cancel := queryCtx(ctx, r.timeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `
SELECT id, nombre, presentacion, precio_unitario, stock
FROM medicamentos
WHERE id = $1 AND activo = TRUE AND stock > 0`, id)
	m, err := scanMedication(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, usecase.ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

type scanner interface{ Scan(dest ...any) error }

func scanMedication(s scanner) (domain.Medication, error) {
	var (
		m   domain.Medication
		pre sql.NullString
	)
	if err := s.Scan(&m.ID, &m.Nombre, &pre, &m.PrecioUnitario, &m.Stock); err != nil {
		return domain.Medication{}, err
	}
	m.Presentacion = pre.String
	m.Activo = true
	return m, nil
}

var _ usecase.CatalogRepo = (*PostgresCatalogRepo)(nil)
