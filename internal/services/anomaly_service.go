package services

import (
	"context"
	"fmt"
	"strings"

	"lotto-backend/internal/cache"
	"lotto-backend/internal/metrics"
	"lotto-backend/internal/models"
	"lotto-backend/internal/timeutil"

	"github.com/sirupsen/logrus"
)

// AnomalyStore is implemented by repositories.AnomalyRepository.
type AnomalyStore interface {
	Create(ctx context.Context, a *models.Anomaly) error
	Get(ctx context.Context, id int) (*models.Anomaly, error)
	UpdateInTx(ctx context.Context, id int, fn func(a *models.Anomaly) error) (*models.Anomaly, error)
	List(ctx context.Context, filter *models.AnomalyFilter) ([]*models.Anomaly, error)
	CountOpenBySeverity(ctx context.Context, storeID int, date string) (map[models.AnomalySeverity]int, error)
}

// AnomalyService owns the anomaly lifecycle. Transitions run under a
// row lock so a transition cannot race an in-flight posting that has
// already locked the same rows.
type AnomalyService struct {
	Anomalies AnomalyStore
	Logger    *logrus.Logger
}

func NewAnomalyService(anomalies AnomalyStore, logger *logrus.Logger) *AnomalyService {
	return &AnomalyService{Anomalies: anomalies, Logger: logger}
}

func (s *AnomalyService) Get(ctx context.Context, id int) (*models.Anomaly, error) {
	return s.Anomalies.Get(ctx, id)
}

func (s *AnomalyService) List(ctx context.Context, filter *models.AnomalyFilter) ([]*models.Anomaly, error) {
	return s.Anomalies.List(ctx, filter)
}

// Acknowledge closes an open anomaly without a note: "seen, not worth
// investigating". Terminal, like resolve.
func (s *AnomalyService) Acknowledge(ctx context.Context, id int, actorID int, actorName string) (*models.Anomaly, error) {
	return s.transition(ctx, id, models.AnomalyStatusAcknowledged, "", actorID, actorName)
}

// Resolve closes an anomaly with a mandatory note explaining what was
// found. A resolved anomaly never reopens and never blocks posting.
func (s *AnomalyService) Resolve(ctx context.Context, id int, req *models.ResolveAnomalyRequest, actorID int, actorName string) (*models.Anomaly, error) {
	note := strings.TrimSpace(req.Note)
	if note == "" {
		return nil, fmt.Errorf("resolution note is required: %w", models.ErrValidation)
	}
	return s.transition(ctx, id, models.AnomalyStatusResolved, note, actorID, actorName)
}

func (s *AnomalyService) transition(ctx context.Context, id int, to models.AnomalyStatus, note string, actorID int, actorName string) (*models.Anomaly, error) {
	a, err := s.Anomalies.UpdateInTx(ctx, id, func(a *models.Anomaly) error {
		if a.IsTerminal() {
			return fmt.Errorf("anomaly %d is already %s: %w", a.ID, a.Status, models.ErrState)
		}
		now := timeutil.Now()
		a.Status = to
		a.ResolutionNote = note
		a.ResolvedBy = &actorID
		a.ResolvedByName = actorName
		a.ResolvedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.AnomaliesClosed.WithLabelValues(string(to)).Inc()
	cache.InvalidateDayClose(ctx, a.StoreID, a.BusinessDate)

	s.Logger.WithFields(logrus.Fields{
		"anomaly_id": a.ID,
		"type":       a.Type,
		"severity":   a.Severity,
		"status":     a.Status,
		"by":         actorName,
	}).Info("anomaly closed")

	return a, nil
}
