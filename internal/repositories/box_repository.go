package repositories

import (
	"context"
	"errors"
	"fmt"

	"lotto-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BoxRepository struct {
	DB *pgxpool.Pool
}

func NewBoxRepository(db *pgxpool.Pool) *BoxRepository {
	return &BoxRepository{DB: db}
}

// Create adds a dispenser box for a store. Labels are unique per store.
func (r *BoxRepository) Create(ctx context.Context, req *models.CreateBoxRequest) (*models.Box, error) {
	box := &models.Box{
		StoreID: req.StoreID,
		Label:   req.Label,
		Active:  true,
	}

	err := r.DB.QueryRow(ctx,
		`INSERT INTO boxes (store_id, label, active)
		 VALUES ($1, $2, true)
		 RETURNING id, created_at`,
		req.StoreID, req.Label,
	).Scan(&box.ID, &box.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create box: %w", err)
	}

	return box, nil
}

func (r *BoxRepository) Get(ctx context.Context, id int) (*models.Box, error) {
	var b models.Box
	err := r.DB.QueryRow(ctx,
		`SELECT id, store_id, label, active, created_at FROM boxes WHERE id = $1`, id,
	).Scan(&b.ID, &b.StoreID, &b.Label, &b.Active, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *BoxRepository) GetByLabel(ctx context.Context, storeID int, label string) (*models.Box, error) {
	var b models.Box
	err := r.DB.QueryRow(ctx,
		`SELECT id, store_id, label, active, created_at
		 FROM boxes WHERE store_id = $1 AND label = $2`, storeID, label,
	).Scan(&b.ID, &b.StoreID, &b.Label, &b.Active, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *BoxRepository) ListByStore(ctx context.Context, storeID int) ([]*models.Box, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, store_id, label, active, created_at
		 FROM boxes WHERE store_id = $1 ORDER BY label`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var boxes []*models.Box
	for rows.Next() {
		var b models.Box
		if err := rows.Scan(&b.ID, &b.StoreID, &b.Label, &b.Active, &b.CreatedAt); err != nil {
			return nil, err
		}
		boxes = append(boxes, &b)
	}

	return boxes, rows.Err()
}
