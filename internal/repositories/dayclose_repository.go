package repositories

import (
	"context"
	"errors"

	"lotto-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type DayCloseRepository struct {
	DB *pgxpool.Pool
}

func NewDayCloseRepository(db *pgxpool.Pool) *DayCloseRepository {
	return &DayCloseRepository{DB: db}
}

// Load gathers everything a day-close summary is computed from, without
// any locking. Used by the read-only preview path.
func (r *DayCloseRepository) Load(ctx context.Context, storeID int, date string) (*models.DayCloseData, error) {
	return loadDayClose(ctx, r.DB, storeID, date, false)
}

// loadDayClose is shared between the preview path (no locks) and the
// posting transaction (anomaly rows locked so a resolution cannot race
// a post that already counted them).
func loadDayClose(ctx context.Context, q Querier, storeID int, date string, lockAnomalies bool) (*models.DayCloseData, error) {
	data := &models.DayCloseData{
		StoreID:      storeID,
		BusinessDate: date,
	}

	rows, err := q.Query(ctx,
		`SELECT r.id, r.store_id, r.pack_id, r.box_label, r.ticket_number, r.prev_ticket,
		        r.source, r.business_date, r.recorded_by, COALESCE(r.recorded_by_name, ''), r.created_at,
		        g.id, g.code, g.name, g.ticket_price, g.commission_rate
		 FROM readings r
		 JOIN packs p ON p.id = r.pack_id
		 JOIN games g ON g.id = p.game_id
		 WHERE r.store_id = $1 AND r.business_date = $2
		 ORDER BY r.created_at, r.id`, storeID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var rg models.ReadingWithGame
		err := rows.Scan(&rg.ID, &rg.StoreID, &rg.PackID, &rg.BoxLabel, &rg.TicketNumber,
			&rg.PrevTicket, &rg.Source, &rg.BusinessDate, &rg.RecordedBy, &rg.RecordedName,
			&rg.CreatedAt, &rg.GameID, &rg.GameCode, &rg.GameName, &rg.TicketPrice, &rg.CommissionRate)
		if err != nil {
			return nil, err
		}
		data.Readings = append(data.Readings, &rg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	drawDay, err := scanDrawDay(q.QueryRow(ctx,
		`SELECT id, store_id, business_date, total_sales, total_cashed, adjustments,
		        commission_source, commission_amount, created_by, updated_at
		 FROM draw_days WHERE store_id = $1 AND business_date = $2`, storeID, date))
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}
	data.DrawDay = drawDay

	anomalyQuery := `SELECT ` + anomalyColumns + `
		 FROM anomalies WHERE store_id = $1 AND business_date = $2
		 ORDER BY detected_at, id`
	if lockAnomalies {
		anomalyQuery += ` FOR UPDATE`
	}
	aRows, err := q.Query(ctx, anomalyQuery, storeID, date)
	if err != nil {
		return nil, err
	}
	defer aRows.Close()
	data.Anomalies, err = collectAnomalies(aRows)
	if err != nil {
		return nil, err
	}

	bRows, err := q.Query(ctx,
		`SELECT b.id, b.label,
		        EXISTS (SELECT 1 FROM packs p WHERE p.box_id = b.id AND p.status = 'active') AS has_pack,
		        EXISTS (SELECT 1 FROM readings r
		                WHERE r.store_id = b.store_id AND r.business_date = $2 AND r.box_label = b.label) AS has_reading
		 FROM boxes b
		 WHERE b.store_id = $1 AND b.active
		 ORDER BY b.label`, storeID, date)
	if err != nil {
		return nil, err
	}
	defer bRows.Close()

	for bRows.Next() {
		var ba models.BoxActivity
		if err := bRows.Scan(&ba.BoxID, &ba.Label, &ba.HasPack, &ba.HasReading); err != nil {
			return nil, err
		}
		data.Boxes = append(data.Boxes, ba)
	}

	return data, bRows.Err()
}
