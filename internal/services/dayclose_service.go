package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"lotto-backend/internal/cache"
	"lotto-backend/internal/metrics"
	"lotto-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// DayCloseStore is implemented by repositories.DayCloseRepository.
type DayCloseStore interface {
	Load(ctx context.Context, storeID int, date string) (*models.DayCloseData, error)
}

// DrawDayStore is implemented by repositories.DrawDayRepository.
type DrawDayStore interface {
	Upsert(ctx context.Context, req *models.UpsertDrawDayRequest, actorID int) (*models.DrawDay, error)
	Get(ctx context.Context, storeID int, date string) (*models.DrawDay, error)
}

// DayCloseService derives the reconciliation summary for a store-day.
// The summary is never persisted; it is recomputed from readings, the
// draw entry and the anomaly ledger every time it is asked for.
type DayCloseService struct {
	Data      DayCloseStore
	DrawDays  DrawDayStore
	Anomalies AnomalyStore
	Logger    *logrus.Logger

	// DrawRate is the commission rate applied to draw net sales when no
	// explicit commission amount was entered.
	DrawRate decimal.Decimal
	// DrawOptional lists stores allowed to post without a draw entry.
	DrawOptional map[int]bool
}

func NewDayCloseService(data DayCloseStore, drawDays DrawDayStore, anomalies AnomalyStore,
	drawRate decimal.Decimal, drawOptional []int, logger *logrus.Logger) *DayCloseService {
	optional := make(map[int]bool, len(drawOptional))
	for _, id := range drawOptional {
		optional[id] = true
	}
	return &DayCloseService{
		Data:         data,
		DrawDays:     drawDays,
		Anomalies:    anomalies,
		Logger:       logger,
		DrawRate:     drawRate,
		DrawOptional: optional,
	}
}

// Preview computes the day-close summary without any side effects.
// Previews are cached briefly; every write path that can change the
// summary invalidates the cache, so a resolved blocker shows up on the
// very next call.
func (s *DayCloseService) Preview(ctx context.Context, storeID int, date string) (*models.DayCloseSummary, error) {
	if cached, ok := cache.GetCachedDayClose(ctx, storeID, date); ok {
		var summary models.DayCloseSummary
		if err := json.Unmarshal(cached, &summary); err == nil {
			return &summary, nil
		}
	}

	data, err := s.Data.Load(ctx, storeID, date)
	if err != nil {
		return nil, err
	}
	summary := s.Summarize(data)

	if buf, err := json.Marshal(summary); err == nil {
		cache.CacheDayClose(ctx, storeID, date, buf)
	}
	return summary, nil
}

// Summarize aggregates raw day-close data into the summary view. It is
// pure: posting calls it on data loaded inside its own transaction and
// gets the identical arithmetic the preview showed.
func (s *DayCloseService) Summarize(data *models.DayCloseData) *models.DayCloseSummary {
	summary := &models.DayCloseSummary{
		StoreID:      data.StoreID,
		BusinessDate: data.BusinessDate,
		Anomalies:    data.Anomalies,
	}

	byGame := make(map[int]*models.GameCommission)
	for _, r := range data.Readings {
		gc, ok := byGame[r.GameID]
		if !ok {
			gc = &models.GameCommission{
				GameID:   r.GameID,
				GameCode: r.GameCode,
				GameName: r.GameName,
			}
			byGame[r.GameID] = gc
		}
		sold := r.Delta()
		gc.TicketsSold += sold
		gc.Commission = gc.Commission.Add(
			r.TicketPrice.Mul(r.CommissionRate).Mul(decimal.NewFromInt(int64(sold))))
	}

	games := make([]models.GameCommission, 0, len(byGame))
	for _, gc := range byGame {
		games = append(games, *gc)
	}
	sort.Slice(games, func(i, j int) bool { return games[i].GameCode < games[j].GameCode })
	summary.InstantByGame = games

	for _, gc := range games {
		summary.InstantCommission = summary.InstantCommission.Add(gc.Commission)
	}

	if data.DrawDay != nil {
		d := data.DrawDay
		summary.Draw = models.DrawTotals{
			Present:     true,
			TotalSales:  d.TotalSales,
			TotalCashed: d.TotalCashed,
			Adjustments: d.Adjustments,
			NetSale:     d.NetSale(),
			Commission:  d.Commission(s.DrawRate),
		}
	} else if !s.DrawOptional[data.StoreID] {
		summary.Warnings = append(summary.Warnings, "no draw entry for this date")
	}
	summary.TotalCommission = summary.InstantCommission.Add(summary.Draw.Commission)

	for _, b := range data.Boxes {
		if b.HasPack && !b.HasReading {
			summary.Warnings = append(summary.Warnings,
				fmt.Sprintf("box %s has an active pack but no reading today", b.Label))
		}
	}

	drawOK := summary.Draw.Present || s.DrawOptional[data.StoreID]
	summary.CanPost = drawOK && len(summary.BlockingAnomalies()) == 0

	return summary
}

// UpsertDrawDay replaces the single draw entry for a store-date.
func (s *DayCloseService) UpsertDrawDay(ctx context.Context, req *models.UpsertDrawDayRequest, actorID int) (*models.DrawDay, error) {
	if req.TotalCashed.GreaterThan(req.TotalSales) {
		s.Logger.WithFields(logrus.Fields{
			"store": req.StoreID,
			"date":  req.BusinessDate,
		}).Warn("draw cashed exceeds sales")
	}
	d, err := s.DrawDays.Upsert(ctx, req, actorID)
	if err != nil {
		return nil, err
	}
	cache.InvalidateDayClose(ctx, req.StoreID, req.BusinessDate)
	return d, nil
}

func (s *DayCloseService) GetDrawDay(ctx context.Context, storeID int, date string) (*models.DrawDay, error) {
	return s.DrawDays.Get(ctx, storeID, date)
}

// FlagMissingReadings turns the preview's "no reading today" warnings
// into low-severity ledger entries. It is an explicit step so that the
// preview itself stays side-effect free, and it is idempotent per day.
func (s *DayCloseService) FlagMissingReadings(ctx context.Context, storeID int, date string, actorID int, actorName string) ([]*models.Anomaly, error) {
	data, err := s.Data.Load(ctx, storeID, date)
	if err != nil {
		return nil, err
	}

	flagged := make(map[int]bool)
	for _, a := range data.Anomalies {
		if a.Type == models.AnomalyMissingReading && a.BoxID != nil {
			flagged[*a.BoxID] = true
		}
	}

	var created []*models.Anomaly
	for _, b := range data.Boxes {
		if !b.HasPack || b.HasReading || flagged[b.BoxID] {
			continue
		}
		boxID := b.BoxID
		a := &models.Anomaly{
			StoreID:      storeID,
			BusinessDate: date,
			Type:         models.AnomalyMissingReading,
			Severity:     models.SeverityLow,
			BoxID:        &boxID,
			Detail:       fmt.Sprintf("box %s has an active pack but no reading on %s", b.Label, date),
			Status:       models.AnomalyStatusOpen,
		}
		if err := s.Anomalies.Create(ctx, a); err != nil {
			return created, err
		}
		metrics.AnomaliesRaised.WithLabelValues(string(a.Type), string(a.Severity)).Inc()
		created = append(created, a)
	}

	if len(created) > 0 {
		cache.InvalidateDayClose(ctx, storeID, date)
		s.Logger.WithFields(logrus.Fields{
			"store":   storeID,
			"date":    date,
			"flagged": len(created),
		}).Info("missing readings flagged")
	}
	return created, nil
}
