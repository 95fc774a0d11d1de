package services

import (
	"context"
	"errors"
	"fmt"

	"lotto-backend/internal/cache"
	"lotto-backend/internal/metrics"
	"lotto-backend/internal/models"
	"lotto-backend/internal/repositories"
	"lotto-backend/internal/timeutil"

	"github.com/sirupsen/logrus"
)

// ReadingStore is implemented by repositories.ReadingRepository.
type ReadingStore interface {
	RecordInPackTx(ctx context.Context, packID int,
		decide func(pack *models.Pack, game *models.Game, last *models.Reading) (*repositories.ReadingDecision, error),
	) (*repositories.ReadingDecision, error)
	ListByPack(ctx context.Context, packID int, limit int) ([]*models.Reading, error)
}

// ReadingService validates ticket-count observations and records them
// together with whatever anomalies they raise. Only out-of-range
// observations are hard-rejected; every other irregularity is recorded
// as data and returned alongside the successful reading.
type ReadingService struct {
	Readings ReadingStore
	Boxes    BoxStore
	PackSvc  *PackService
	Logger   *logrus.Logger

	// SkipThreshold is the plausible number of tickets sold between two
	// readings; larger jumps raise a skipped_range anomaly.
	SkipThreshold int
}

func NewReadingService(readings ReadingStore, boxes BoxStore, packSvc *PackService, skipThreshold int, logger *logrus.Logger) *ReadingService {
	if skipThreshold <= 0 {
		skipThreshold = 30
	}
	return &ReadingService{
		Readings:      readings,
		Boxes:         boxes,
		PackSvc:       packSvc,
		Logger:        logger,
		SkipThreshold: skipThreshold,
	}
}

// RecordReading applies the validation rules of the reconciliation core
// to one observation. The comparison against the pack's previous
// reading happens under the pack row lock, so concurrent submissions
// for the same pack serialize.
func (s *ReadingService) RecordReading(ctx context.Context, storeID int, req *models.RecordReadingRequest, actorID int, actorName string) (*models.ReadingResult, error) {
	if req.TicketNumber < 0 {
		return nil, fmt.Errorf("ticket number must be non-negative: %w", models.ErrValidation)
	}

	// Resolve the claimed box up front; an unknown label is still a
	// recordable observation, it just raises a mismatch below.
	claimedBox, err := s.Boxes.GetByLabel(ctx, storeID, req.BoxLabel)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	date := timeutil.BusinessDate(timeutil.Now())
	result := &models.ReadingResult{}

	decision, err := s.Readings.RecordInPackTx(ctx, req.PackID,
		func(pack *models.Pack, game *models.Game, last *models.Reading) (*repositories.ReadingDecision, error) {
			if pack.StoreID != storeID {
				return nil, fmt.Errorf("pack %d does not belong to store %d: %w", pack.ID, storeID, models.ErrNotFound)
			}
			if !pack.IsActive() {
				return nil, fmt.Errorf("pack %d is %s: %w", pack.ID, pack.Status, models.ErrPackClosed)
			}

			low := pack.StartTicket
			high := game.FinalTicket(pack.StartTicket)
			if req.TicketNumber < low || req.TicketNumber > high {
				// Malformed observation: reject the write so it cannot
				// corrupt pack state, but keep the anomaly as evidence.
				oor := &models.OutOfRangeError{
					PackID: pack.ID, TicketNumber: req.TicketNumber, Low: low, High: high,
				}
				anomaly := s.newAnomaly(pack, date, models.AnomalyOutOfRange, models.SeverityHigh, oor.Error())
				return &repositories.ReadingDecision{Anomalies: []*models.Anomaly{anomaly}}, oor
			}

			reading := &models.Reading{
				StoreID:      storeID,
				PackID:       pack.ID,
				BoxLabel:     req.BoxLabel,
				TicketNumber: req.TicketNumber,
				Source:       req.Source,
				BusinessDate: date,
				RecordedBy:   actorID,
				RecordedName: actorName,
			}

			var anomalies []*models.Anomaly
			if last != nil {
				prev := last.TicketNumber
				reading.PrevTicket = &prev

				if req.TicketNumber < prev {
					anomalies = append(anomalies, s.newAnomaly(pack, date,
						models.AnomalyTicketRegression, models.SeverityHigh,
						fmt.Sprintf("pack %s count went backwards: %d after %d", pack.PackNumber, req.TicketNumber, prev)))
				} else if req.TicketNumber-prev > s.SkipThreshold {
					anomalies = append(anomalies, s.newAnomaly(pack, date,
						models.AnomalySkippedRange, models.SeverityMedium,
						fmt.Sprintf("pack %s jumped %d tickets since last reading (threshold %d)",
							pack.PackNumber, req.TicketNumber-prev, s.SkipThreshold)))
				}
			}

			if claimedBox == nil || pack.BoxID == nil || *pack.BoxID != claimedBox.ID {
				anomalies = append(anomalies, s.newAnomaly(pack, date,
					models.AnomalyBoxPackMismatch, models.SeverityMedium,
					fmt.Sprintf("pack %s counted in box %q but assigned elsewhere", pack.PackNumber, req.BoxLabel)))
			}

			if err := s.PackSvc.Advance(pack, game, req.TicketNumber); err != nil {
				return nil, err
			}
			if pack.Status == models.PackStatusSoldOut {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("pack %s sold out at ticket %d", pack.PackNumber, req.TicketNumber))
			}

			return &repositories.ReadingDecision{
				Reading:   reading,
				Anomalies: anomalies,
				Pack:      pack,
			}, nil
		})

	if decision != nil {
		cache.InvalidateDayClose(ctx, storeID, date)
		for _, a := range decision.Anomalies {
			metrics.AnomaliesRaised.WithLabelValues(string(a.Type), string(a.Severity)).Inc()
		}
	}
	if err != nil {
		var oor *models.OutOfRangeError
		if errors.As(err, &oor) {
			metrics.ReadingsRejected.Inc()
			s.Logger.WithFields(logrus.Fields{
				"store":   storeID,
				"pack_id": req.PackID,
				"ticket":  req.TicketNumber,
			}).Warn("reading rejected out of range")
		}
		return nil, err
	}

	metrics.ReadingsRecorded.WithLabelValues(string(req.Source)).Inc()
	result.Reading = decision.Reading
	result.Anomalies = decision.Anomalies

	if len(result.Anomalies) > 0 {
		s.Logger.WithFields(logrus.Fields{
			"store":     storeID,
			"pack_id":   req.PackID,
			"anomalies": len(result.Anomalies),
		}).Warn("reading recorded with findings")
	}

	return result, nil
}

func (s *ReadingService) ListByPack(ctx context.Context, packID, limit int) ([]*models.Reading, error) {
	return s.Readings.ListByPack(ctx, packID, limit)
}

func (s *ReadingService) newAnomaly(pack *models.Pack, date string, typ models.AnomalyType, sev models.AnomalySeverity, detail string) *models.Anomaly {
	packID := pack.ID
	return &models.Anomaly{
		StoreID:      pack.StoreID,
		BusinessDate: date,
		Type:         typ,
		Severity:     sev,
		PackID:       &packID,
		BoxID:        pack.BoxID,
		Detail:       detail,
		Status:       models.AnomalyStatusOpen,
	}
}
