package repositories

import (
	"context"
	"errors"
	"fmt"

	"lotto-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostingRepository struct {
	DB *pgxpool.Pool
}

func NewPostingRepository(db *pgxpool.Pool) *PostingRepository {
	return &PostingRepository{DB: db}
}

// PostInTx performs the check-and-post for one (store, date) atomically.
// It takes an advisory lock keyed on the posting key so concurrent posts
// for the same date serialize, reloads the day-close data fresh with the
// anomaly rows locked, and only then lets build decide. A build error
// (e.g. the gate refusing) rolls everything back. On success the posting
// row is upserted: the same key always supersedes, never duplicates, and
// the GL entry set is replaced wholesale.
func (r *PostingRepository) PostInTx(ctx context.Context, storeID int, date string,
	build func(data *models.DayCloseData, previous *models.Posting) (*models.Posting, error),
) (*models.Posting, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`SELECT pg_advisory_xact_lock($1::int, hashtext($2)::int)`, storeID, date); err != nil {
		return nil, fmt.Errorf("failed to lock posting key: %w", err)
	}

	data, err := loadDayClose(ctx, tx, storeID, date, true)
	if err != nil {
		return nil, err
	}

	previous, err := scanPosting(tx.QueryRow(ctx,
		`SELECT `+postingColumns+` FROM postings
		 WHERE store_id = $1 AND business_date = $2 FOR UPDATE`, storeID, date))
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	posting, err := build(data, previous)
	if err != nil {
		return nil, err
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO postings (store_id, business_date, batch_id, revision, instant_commission,
		                       draw_commission, total_commission, posted_by, posted_by_name, posted_at)
		 VALUES ($1, $2, $3, 1, $4, $5, $6, $7, $8, NOW())
		 ON CONFLICT (store_id, business_date) DO UPDATE SET
		   batch_id = EXCLUDED.batch_id,
		   revision = postings.revision + 1,
		   instant_commission = EXCLUDED.instant_commission,
		   draw_commission = EXCLUDED.draw_commission,
		   total_commission = EXCLUDED.total_commission,
		   posted_by = EXCLUDED.posted_by,
		   posted_by_name = EXCLUDED.posted_by_name,
		   posted_at = NOW()
		 RETURNING id, revision, posted_at`,
		posting.StoreID, posting.BusinessDate, posting.BatchID,
		posting.InstantCommission, posting.DrawCommission, posting.TotalCommission,
		posting.PostedBy, posting.PostedByName,
	).Scan(&posting.ID, &posting.Revision, &posting.PostedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert posting: %w", err)
	}

	// Superseding replaces the entire entry set.
	if _, err := tx.Exec(ctx, `DELETE FROM gl_entries WHERE posting_id = $1`, posting.ID); err != nil {
		return nil, err
	}
	for i := range posting.Entries {
		e := &posting.Entries[i]
		e.PostingID = posting.ID
		err := tx.QueryRow(ctx,
			`INSERT INTO gl_entries (posting_id, account, description, debit, credit)
			 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			posting.ID, e.Account, e.Description, e.Debit, e.Credit,
		).Scan(&e.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to insert gl entry: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return posting, nil
}

const postingColumns = `id, store_id, business_date, batch_id, revision, instant_commission,
	draw_commission, total_commission, posted_by, COALESCE(posted_by_name, ''), posted_at`

func scanPosting(row pgx.Row) (*models.Posting, error) {
	var p models.Posting
	err := row.Scan(&p.ID, &p.StoreID, &p.BusinessDate, &p.BatchID, &p.Revision,
		&p.InstantCommission, &p.DrawCommission, &p.TotalCommission,
		&p.PostedBy, &p.PostedByName, &p.PostedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Get returns the posting for (store, date) with its GL entries.
func (r *PostingRepository) Get(ctx context.Context, storeID int, date string) (*models.Posting, error) {
	p, err := scanPosting(r.DB.QueryRow(ctx,
		`SELECT `+postingColumns+` FROM postings
		 WHERE store_id = $1 AND business_date = $2`, storeID, date))
	if err != nil {
		return nil, err
	}
	if err := r.loadEntries(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ListByStore returns posting history for a store, newest date first.
func (r *PostingRepository) ListByStore(ctx context.Context, storeID int, limit int) ([]*models.Posting, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.DB.Query(ctx,
		`SELECT `+postingColumns+` FROM postings
		 WHERE store_id = $1 ORDER BY business_date DESC LIMIT $2`, storeID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var postings []*models.Posting
	for rows.Next() {
		var p models.Posting
		err := rows.Scan(&p.ID, &p.StoreID, &p.BusinessDate, &p.BatchID, &p.Revision,
			&p.InstantCommission, &p.DrawCommission, &p.TotalCommission,
			&p.PostedBy, &p.PostedByName, &p.PostedAt)
		if err != nil {
			return nil, err
		}
		postings = append(postings, &p)
	}

	return postings, rows.Err()
}

func (r *PostingRepository) loadEntries(ctx context.Context, p *models.Posting) error {
	rows, err := r.DB.Query(ctx,
		`SELECT id, posting_id, account, description, debit, credit
		 FROM gl_entries WHERE posting_id = $1 ORDER BY id`, p.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var e models.GLEntry
		if err := rows.Scan(&e.ID, &e.PostingID, &e.Account, &e.Description, &e.Debit, &e.Credit); err != nil {
			return err
		}
		p.Entries = append(p.Entries, e)
	}

	return rows.Err()
}
