package repositories

import (
	"context"
	"errors"
	"fmt"

	"lotto-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PackRepository struct {
	DB *pgxpool.Pool
}

func NewPackRepository(db *pgxpool.Pool) *PackRepository {
	return &PackRepository{DB: db}
}

const packColumns = `id, store_id, game_id, pack_number, box_id, start_ticket, current_ticket, status, received_at, updated_at`

func scanPack(row pgx.Row) (*models.Pack, error) {
	var p models.Pack
	err := row.Scan(&p.ID, &p.StoreID, &p.GameID, &p.PackNumber, &p.BoxID,
		&p.StartTicket, &p.CurrentTicket, &p.Status, &p.ReceivedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Create records a received pack shipment. The pack starts active and
// unassigned, with current_ticket one below start_ticket meaning "no
// ticket observed yet" is not representable; current_ticket starts at
// start_ticket.
func (r *PackRepository) Create(ctx context.Context, req *models.CreatePackRequest) (*models.Pack, error) {
	pack := &models.Pack{
		StoreID:       req.StoreID,
		GameID:        req.GameID,
		PackNumber:    req.PackNumber,
		StartTicket:   req.StartTicket,
		CurrentTicket: req.StartTicket,
		Status:        models.PackStatusActive,
	}

	err := r.DB.QueryRow(ctx,
		`INSERT INTO packs (store_id, game_id, pack_number, start_ticket, current_ticket, status)
		 VALUES ($1, $2, $3, $4, $4, 'active')
		 RETURNING id, received_at, updated_at`,
		req.StoreID, req.GameID, req.PackNumber, req.StartTicket,
	).Scan(&pack.ID, &pack.ReceivedAt, &pack.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create pack: %w", err)
	}

	return pack, nil
}

func (r *PackRepository) Get(ctx context.Context, id int) (*models.Pack, error) {
	return scanPack(r.DB.QueryRow(ctx,
		`SELECT `+packColumns+` FROM packs WHERE id = $1`, id))
}

// GetActiveByBox returns the active pack currently assigned to a box,
// or ErrNotFound when the box is empty.
func (r *PackRepository) GetActiveByBox(ctx context.Context, boxID int) (*models.Pack, error) {
	return scanPack(r.DB.QueryRow(ctx,
		`SELECT `+packColumns+` FROM packs WHERE box_id = $1 AND status = 'active'`, boxID))
}

func (r *PackRepository) ListByStore(ctx context.Context, storeID int) ([]*models.Pack, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+packColumns+` FROM packs WHERE store_id = $1 ORDER BY received_at DESC`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var packs []*models.Pack
	for rows.Next() {
		var p models.Pack
		if err := rows.Scan(&p.ID, &p.StoreID, &p.GameID, &p.PackNumber, &p.BoxID,
			&p.StartTicket, &p.CurrentTicket, &p.Status, &p.ReceivedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		packs = append(packs, &p)
	}

	return packs, rows.Err()
}

// Assign moves a pack into a box. Fails with ErrConflict when the box
// already holds a different active pack, unless supersede is set, in
// which case the previous pack is released from the box (it stays
// active) and its identity is returned so the caller can warn.
func (r *PackRepository) Assign(ctx context.Context, packID, boxID int, supersede bool) (*models.Pack, *models.Pack, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx)

	pack, err := scanPack(tx.QueryRow(ctx,
		`SELECT `+packColumns+` FROM packs WHERE id = $1 FOR UPDATE`, packID))
	if err != nil {
		return nil, nil, err
	}
	if !pack.IsActive() {
		return nil, nil, fmt.Errorf("pack %d is %s: %w", pack.ID, pack.Status, models.ErrPackClosed)
	}

	// Lock whatever active pack currently occupies the box.
	occupant, err := scanPack(tx.QueryRow(ctx,
		`SELECT `+packColumns+` FROM packs WHERE box_id = $1 AND status = 'active' AND id <> $2 FOR UPDATE`,
		boxID, packID))
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, nil, err
	}

	var superseded *models.Pack
	if occupant != nil {
		if !supersede {
			return nil, nil, fmt.Errorf("box %d already holds active pack %d: %w",
				boxID, occupant.ID, models.ErrConflict)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE packs SET box_id = NULL, updated_at = NOW() WHERE id = $1`, occupant.ID); err != nil {
			return nil, nil, fmt.Errorf("failed to release pack %d: %w", occupant.ID, err)
		}
		occupant.BoxID = nil
		superseded = occupant
	}

	if err := tx.QueryRow(ctx,
		`UPDATE packs SET box_id = $2, updated_at = NOW() WHERE id = $1 RETURNING updated_at`,
		packID, boxID).Scan(&pack.UpdatedAt); err != nil {
		return nil, nil, fmt.Errorf("failed to assign pack %d: %w", packID, err)
	}
	pack.BoxID = &boxID

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}

	return pack, superseded, nil
}

// Return transitions an active pack to returned and releases its box.
func (r *PackRepository) Return(ctx context.Context, packID int) (*models.Pack, error) {
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
	if !pack.IsActive() {
		return nil, fmt.Errorf("pack %d is %s: %w", pack.ID, pack.Status, models.ErrState)
	}

	if err := tx.QueryRow(ctx,
		`UPDATE packs SET status = 'returned', box_id = NULL, updated_at = NOW()
		 WHERE id = $1 RETURNING updated_at`, packID).Scan(&pack.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to return pack %d: %w", packID, err)
	}
	pack.Status = models.PackStatusReturned
	pack.BoxID = nil

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return pack, nil
}
