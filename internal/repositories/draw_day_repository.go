package repositories

import (
	"context"
	"errors"
	"fmt"

	"lotto-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DrawDayRepository struct {
	DB *pgxpool.Pool
}

func NewDrawDayRepository(db *pgxpool.Pool) *DrawDayRepository {
	return &DrawDayRepository{DB: db}
}

// Upsert replaces the draw entry for (store, date). One row per store
// per date is an invariant enforced by a unique constraint.
func (r *DrawDayRepository) Upsert(ctx context.Context, req *models.UpsertDrawDayRequest, createdBy int) (*models.DrawDay, error) {
	d := &models.DrawDay{
		StoreID:          req.StoreID,
		BusinessDate:     req.BusinessDate,
		TotalSales:       req.TotalSales,
		TotalCashed:      req.TotalCashed,
		Adjustments:      req.Adjustments,
		CommissionSource: req.CommissionSource,
		CommissionAmount: req.CommissionAmount,
		CreatedBy:        createdBy,
	}

	err := r.DB.QueryRow(ctx,
		`INSERT INTO draw_days (store_id, business_date, total_sales, total_cashed, adjustments,
		                        commission_source, commission_amount, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (store_id, business_date) DO UPDATE SET
		   total_sales = EXCLUDED.total_sales,
		   total_cashed = EXCLUDED.total_cashed,
		   adjustments = EXCLUDED.adjustments,
		   commission_source = EXCLUDED.commission_source,
		   commission_amount = EXCLUDED.commission_amount,
		   updated_at = NOW()
		 RETURNING id, updated_at`,
		req.StoreID, req.BusinessDate, req.TotalSales, req.TotalCashed, req.Adjustments,
		req.CommissionSource, req.CommissionAmount, createdBy,
	).Scan(&d.ID, &d.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert draw day: %w", err)
	}

	return d, nil
}

func (r *DrawDayRepository) Get(ctx context.Context, storeID int, date string) (*models.DrawDay, error) {
	return scanDrawDay(r.DB.QueryRow(ctx,
		`SELECT id, store_id, business_date, total_sales, total_cashed, adjustments,
		        commission_source, commission_amount, created_by, updated_at
		 FROM draw_days WHERE store_id = $1 AND business_date = $2`, storeID, date))
}

func scanDrawDay(row pgx.Row) (*models.DrawDay, error) {
	var d models.DrawDay
	err := row.Scan(&d.ID, &d.StoreID, &d.BusinessDate, &d.TotalSales, &d.TotalCashed,
		&d.Adjustments, &d.CommissionSource, &d.CommissionAmount, &d.CreatedBy, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}
