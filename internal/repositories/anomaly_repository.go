package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lotto-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is satisfied by both *pgxpool.Pool and pgx.Tx so that shared
// queries can run inside or outside a transaction.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type AnomalyRepository struct {
	DB *pgxpool.Pool
}

func NewAnomalyRepository(db *pgxpool.Pool) *AnomalyRepository {
	return &AnomalyRepository{DB: db}
}

const anomalyColumns = `id, store_id, business_date, type, severity, pack_id, box_id, reading_id,
	detail, status, COALESCE(resolution_note, ''), resolved_by, COALESCE(resolved_by_name, ''),
	detected_at, resolved_at`

func scanAnomaly(row pgx.Row) (*models.Anomaly, error) {
	var a models.Anomaly
	err := row.Scan(&a.ID, &a.StoreID, &a.BusinessDate, &a.Type, &a.Severity,
		&a.PackID, &a.BoxID, &a.ReadingID, &a.Detail, &a.Status,
		&a.ResolutionNote, &a.ResolvedBy, &a.ResolvedByName, &a.DetectedAt, &a.ResolvedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// insertAnomaly writes one anomaly row, filling ID and DetectedAt.
// Shared with the reading transaction so findings land atomically with
// the observation that raised them.
func insertAnomaly(ctx context.Context, q Querier, a *models.Anomaly) error {
	err := q.QueryRow(ctx,
		`INSERT INTO anomalies (store_id, business_date, type, severity, pack_id, box_id,
		                        reading_id, detail, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'open')
		 RETURNING id, detected_at`,
		a.StoreID, a.BusinessDate, a.Type, a.Severity, a.PackID, a.BoxID, a.ReadingID, a.Detail,
	).Scan(&a.ID, &a.DetectedAt)
	if err != nil {
		return fmt.Errorf("failed to create anomaly: %w", err)
	}
	a.Status = models.AnomalyStatusOpen
	return nil
}

// Create records an anomaly outside a reading transaction (used by the
// day-close aggregator for missing-data findings).
func (r *AnomalyRepository) Create(ctx context.Context, a *models.Anomaly) error {
	return insertAnomaly(ctx, r.DB, a)
}

func (r *AnomalyRepository) Get(ctx context.Context, id int) (*models.Anomaly, error) {
	return scanAnomaly(r.DB.QueryRow(ctx,
		`SELECT `+anomalyColumns+` FROM anomalies WHERE id = $1`, id))
}

// UpdateInTx loads the anomaly under a row lock, applies fn, and
// persists the mutated state. fn returning an error rolls back. This is
// the only write path for resolution transitions, so a transition can
// never race another transition or an in-flight posting check.
func (r *AnomalyRepository) UpdateInTx(ctx context.Context, id int, fn func(*models.Anomaly) error) (*models.Anomaly, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	a, err := scanAnomaly(tx.QueryRow(ctx,
		`SELECT `+anomalyColumns+` FROM anomalies WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, err
	}

	if err := fn(a); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx,
		`UPDATE anomalies
		 SET status = $2, resolution_note = $3, resolved_by = $4, resolved_by_name = $5, resolved_at = $6
		 WHERE id = $1`,
		a.ID, a.Status, a.ResolutionNote, a.ResolvedBy, a.ResolvedByName, a.ResolvedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update anomaly %d: %w", id, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return a, nil
}

// List returns anomalies matching the filter, newest first.
func (r *AnomalyRepository) List(ctx context.Context, filter *models.AnomalyFilter) ([]*models.Anomaly, error) {
	var conditions []string
	var args []interface{}
	argNum := 1

	if filter.StoreID != 0 {
		conditions = append(conditions, fmt.Sprintf("store_id = $%d", argNum))
		args = append(args, filter.StoreID)
		argNum++
	}
	if filter.BusinessDate != "" {
		conditions = append(conditions, fmt.Sprintf("business_date = $%d", argNum))
		args = append(args, filter.BusinessDate)
		argNum++
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argNum))
		args = append(args, filter.Status)
		argNum++
	}
	if filter.Severity != "" {
		conditions = append(conditions, fmt.Sprintf("severity = $%d", argNum))
		args = append(args, filter.Severity)
		argNum++
	}
	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", argNum))
		args = append(args, filter.Type)
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}

	query := fmt.Sprintf(`
		SELECT `+anomalyColumns+`
		FROM anomalies
		%s
		ORDER BY detected_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, whereClause, argNum, argNum+1)
	args = append(args, limit, filter.Offset)

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAnomalies(rows)
}

func collectAnomalies(rows pgx.Rows) ([]*models.Anomaly, error) {
	var anomalies []*models.Anomaly
	for rows.Next() {
		var a models.Anomaly
		err := rows.Scan(&a.ID, &a.StoreID, &a.BusinessDate, &a.Type, &a.Severity,
			&a.PackID, &a.BoxID, &a.ReadingID, &a.Detail, &a.Status,
			&a.ResolutionNote, &a.ResolvedBy, &a.ResolvedByName, &a.DetectedAt, &a.ResolvedAt)
		if err != nil {
			return nil, err
		}
		anomalies = append(anomalies, &a)
	}
	return anomalies, rows.Err()
}

// CountOpenBySeverity returns open anomaly counts keyed by severity for
// a store/date, used by the monitoring dashboard.
func (r *AnomalyRepository) CountOpenBySeverity(ctx context.Context, storeID int, date string) (map[models.AnomalySeverity]int, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT severity, COUNT(*) FROM anomalies
		 WHERE store_id = $1 AND business_date = $2 AND status = 'open'
		 GROUP BY severity`, storeID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.AnomalySeverity]int)
	for rows.Next() {
		var sev models.AnomalySeverity
		var n int
		if err := rows.Scan(&sev, &n); err != nil {
			return nil, err
		}
		counts[sev] = n
	}

	return counts, rows.Err()
}
