package services

import (
	"context"
	"fmt"

	"lotto-backend/internal/cache"
	"lotto-backend/internal/gl"
	"lotto-backend/internal/metrics"
	"lotto-backend/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// PostingStore is implemented by repositories.PostingRepository.
type PostingStore interface {
	PostInTx(ctx context.Context, storeID int, date string,
		build func(data *models.DayCloseData, previous *models.Posting) (*models.Posting, error),
	) (*models.Posting, error)
	Get(ctx context.Context, storeID int, date string) (*models.Posting, error)
	ListByStore(ctx context.Context, storeID int, limit int) ([]*models.Posting, error)
}

// PostingService is the gate between reconciliation and the General
// Ledger. The gate check and the write happen in one transaction with
// the anomaly rows locked, so a resolution committed after the check
// cannot slip a blocked day through.
type PostingService struct {
	Postings PostingStore
	DayClose *DayCloseService
	Sink     gl.Sink
	Logger   *logrus.Logger
}

func NewPostingService(postings PostingStore, dayClose *DayCloseService, sink gl.Sink, logger *logrus.Logger) *PostingService {
	return &PostingService{Postings: postings, DayClose: dayClose, Sink: sink, Logger: logger}
}

// Post closes the given store-day into the ledger. Re-posting the same
// key supersedes the previous batch in place; the returned posting's
// Revision tells the caller which case occurred.
func (s *PostingService) Post(ctx context.Context, storeID int, date string, actorID int, actorName string) (*models.Posting, error) {
	posting, err := s.Postings.PostInTx(ctx, storeID, date,
		func(data *models.DayCloseData, previous *models.Posting) (*models.Posting, error) {
			summary := s.DayClose.Summarize(data)

			if blocking := summary.BlockingAnomalies(); len(blocking) > 0 {
				return nil, &models.PostingBlockedError{
					StoreID:      storeID,
					BusinessDate: date,
					Anomalies:    blocking,
				}
			}
			if !summary.CanPost {
				return nil, fmt.Errorf("no draw entry for store %d on %s: %w",
					storeID, date, models.ErrState)
			}

			p := &models.Posting{
				StoreID:           storeID,
				BusinessDate:      date,
				BatchID:           uuid.NewString(),
				InstantCommission: summary.InstantCommission,
				DrawCommission:    summary.Draw.Commission,
				TotalCommission:   summary.TotalCommission,
				PostedBy:          actorID,
				PostedByName:      actorName,
			}
			p.Entries = buildEntries(p, summary)
			return p, nil
		})
	if err != nil {
		if _, blocked := err.(*models.PostingBlockedError); blocked {
			metrics.PostingsBlocked.Inc()
		}
		return nil, err
	}

	metrics.PostingsTotal.Inc()
	cache.InvalidateDayClose(ctx, storeID, date)

	entry := s.Logger.WithFields(logrus.Fields{
		"store":    storeID,
		"date":     date,
		"batch_id": posting.BatchID,
		"revision": posting.Revision,
		"total":    posting.TotalCommission.String(),
	})
	if posting.Revision > 1 {
		entry.Info("day-close re-posted, previous batch superseded")
	} else {
		entry.Info("day-close posted")
	}

	if s.Sink != nil {
		if err := s.Sink.Emit(ctx, posting); err != nil {
			// The posting is committed; archive failure is not a reason
			// to report the post as failed.
			s.Logger.WithError(err).WithField("batch_id", posting.BatchID).
				Error("failed to archive posting batch")
		}
	}

	return posting, nil
}

func (s *PostingService) Get(ctx context.Context, storeID int, date string) (*models.Posting, error) {
	return s.Postings.Get(ctx, storeID, date)
}

func (s *PostingService) History(ctx context.Context, storeID, limit int) ([]*models.Posting, error) {
	if limit <= 0 || limit > 100 {
		limit = 30
	}
	return s.Postings.ListByStore(ctx, storeID, limit)
}

// buildEntries produces the balanced double-entry set for one batch:
// one receivable debit against a credit per commission source.
func buildEntries(p *models.Posting, summary *models.DayCloseSummary) []models.GLEntry {
	entries := []models.GLEntry{{
		Account:     models.AccountCommissionReceivable,
		Description: fmt.Sprintf("lottery commission receivable %s", p.BusinessDate),
		Debit:       p.TotalCommission,
	}}
	if !p.InstantCommission.IsZero() {
		entries = append(entries, models.GLEntry{
			Account:     models.AccountInstantCommission,
			Description: fmt.Sprintf("instant ticket commission %s", p.BusinessDate),
			Credit:      p.InstantCommission,
		})
	}
	if summary.Draw.Present && !p.DrawCommission.IsZero() {
		entries = append(entries, models.GLEntry{
			Account:     models.AccountDrawCommission,
			Description: fmt.Sprintf("draw game commission %s", p.BusinessDate),
			Credit:      p.DrawCommission,
		})
	}
	return entries
}
