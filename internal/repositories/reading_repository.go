package repositories

import (
	"context"
	"errors"
	"fmt"

	"lotto-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReadingRepository struct {
	DB *pgxpool.Pool
}

func NewReadingRepository(db *pgxpool.Pool) *ReadingRepository {
	return &ReadingRepository{DB: db}
}

// ReadingDecision is what the validator decides to persist for one
// observation. Anomalies are stored regardless of whether the reading
// itself was accepted; the reading and pack update only when the
// observation passed the hard checks.
type ReadingDecision struct {
	Reading   *models.Reading
	Anomalies []*models.Anomaly
	Pack      *models.Pack
}

// RecordInPackTx runs decide while holding a row lock on the pack, then
// persists whatever it returns, all in one transaction. The lock
// serializes concurrent submissions for the same pack so the previous
// reading comparison is never computed against a stale value.
//
// The transaction commits whenever decide returns a decision, even
// alongside an error: a rejected out-of-range observation still leaves
// its anomaly behind. A nil decision rolls everything back.
func (r *ReadingRepository) RecordInPackTx(ctx context.Context, packID int,
	decide func(pack *models.Pack, game *models.Game, last *models.Reading) (*ReadingDecision, error),
) (*ReadingDecision, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	pack, err := scanPack(tx.QueryRow(ctx,
		`SELECT `+packColumns+` FROM packs WHERE id = $1 FOR UPDATE`, packID))
	if err != nil {
		return nil, err
	}

	var game models.Game
	err = tx.QueryRow(ctx,
		`SELECT id, code, name, ticket_price, pack_size, commission_rate, active, created_at
		 FROM games WHERE id = $1`, pack.GameID,
	).Scan(&game.ID, &game.Code, &game.Name, &game.TicketPrice,
		&game.PackSize, &game.CommissionRate, &game.Active, &game.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to load game %d: %w", pack.GameID, err)
	}

	last, err := r.lastReading(ctx, tx, packID)
	if err != nil {
		return nil, err
	}

	decision, decideErr := decide(pack, &game, last)
	if decision == nil {
		return nil, decideErr
	}

	if decision.Reading != nil {
		rd := decision.Reading
		err = tx.QueryRow(ctx,
			`INSERT INTO readings (store_id, pack_id, box_label, ticket_number, prev_ticket,
			                       source, business_date, recorded_by, recorded_by_name)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 RETURNING id, created_at`,
			rd.StoreID, rd.PackID, rd.BoxLabel, rd.TicketNumber, rd.PrevTicket,
			rd.Source, rd.BusinessDate, rd.RecordedBy, rd.RecordedName,
		).Scan(&rd.ID, &rd.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to persist reading: %w", err)
		}

		// Anomalies in an accepted decision were raised by this reading.
		for _, a := range decision.Anomalies {
			a.ReadingID = &rd.ID
		}
	}

	for _, a := range decision.Anomalies {
		if err := insertAnomaly(ctx, tx, a); err != nil {
			return nil, err
		}
	}

	if decision.Pack != nil {
		p := decision.Pack
		if _, err := tx.Exec(ctx,
			`UPDATE packs SET current_ticket = $2, status = $3, updated_at = NOW() WHERE id = $1`,
			p.ID, p.CurrentTicket, p.Status); err != nil {
			return nil, fmt.Errorf("failed to advance pack %d: %w", p.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return decision, decideErr
}

func (r *ReadingRepository) lastReading(ctx context.Context, tx pgx.Tx, packID int) (*models.Reading, error) {
	var rd models.Reading
	err := tx.QueryRow(ctx,
		`SELECT id, store_id, pack_id, box_label, ticket_number, prev_ticket,
		        source, business_date, recorded_by, COALESCE(recorded_by_name, ''), created_at
		 FROM readings WHERE pack_id = $1
		 ORDER BY created_at DESC, id DESC LIMIT 1`, packID,
	).Scan(&rd.ID, &rd.StoreID, &rd.PackID, &rd.BoxLabel, &rd.TicketNumber, &rd.PrevTicket,
		&rd.Source, &rd.BusinessDate, &rd.RecordedBy, &rd.RecordedName, &rd.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rd, nil
}

// ListByPack returns the observation history for one pack, newest first.
func (r *ReadingRepository) ListByPack(ctx context.Context, packID int, limit int) ([]*models.Reading, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.DB.Query(ctx,
		`SELECT id, store_id, pack_id, box_label, ticket_number, prev_ticket,
		        source, business_date, recorded_by, COALESCE(recorded_by_name, ''), created_at
		 FROM readings WHERE pack_id = $1
		 ORDER BY created_at DESC, id DESC LIMIT $2`, packID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var readings []*models.Reading
	for rows.Next() {
		var rd models.Reading
		if err := rows.Scan(&rd.ID, &rd.StoreID, &rd.PackID, &rd.BoxLabel, &rd.TicketNumber,
			&rd.PrevTicket, &rd.Source, &rd.BusinessDate, &rd.RecordedBy,
			&rd.RecordedName, &rd.CreatedAt); err != nil {
			return nil, err
		}
		readings = append(readings, &rd)
	}

	return readings, rows.Err()
}
