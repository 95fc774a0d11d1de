package services_test

import (
	"context"
	"reflect"
	"testing"

	"lotto-backend/internal/models"
	"lotto-backend/internal/services"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func withGame(r models.Reading, gameID int, code string, price, rate string) *models.ReadingWithGame {
	return &models.ReadingWithGame{
		Reading:        r,
		GameID:         gameID,
		GameCode:       code,
		GameName:       code,
		TicketPrice:    dec(price),
		CommissionRate: dec(rate),
	}
}

func newDayCloseService(data *models.DayCloseData, drawOptional []int) *services.DayCloseService {
	return services.NewDayCloseService(
		&fakeDayCloseStore{data: data}, newFakeDrawDayStore(), newFakeAnomalyStore(),
		dec("0.05"), drawOptional, testLogger())
}

func TestSummarizeInstantCommission(t *testing.T) {
	data := &models.DayCloseData{
		StoreID:      1,
		BusinessDate: "2025-03-10",
		Readings: []*models.ReadingWithGame{
			// 30 + 20 tickets of a $1.00 game at 6% = $3.00
			withGame(models.Reading{TicketNumber: 40, PrevTicket: intPtr(10)}, 1, "0512", "1.00", "0.06"),
			withGame(models.Reading{TicketNumber: 60, PrevTicket: intPtr(40)}, 1, "0512", "1.00", "0.06"),
			// first reading of the day contributes nothing
			withGame(models.Reading{TicketNumber: 12, PrevTicket: nil}, 2, "0731", "5.00", "0.06"),
			// regression contributes nothing
			withGame(models.Reading{TicketNumber: 5, PrevTicket: intPtr(9)}, 2, "0731", "5.00", "0.06"),
		},
		DrawDay: &models.DrawDay{
			TotalSales:  dec("500.00"),
			TotalCashed: dec("100.00"),
			Adjustments: dec("10.00"),
		},
	}
	svc := newDayCloseService(data, nil)

	summary := svc.Summarize(data)

	if len(summary.InstantByGame) != 2 {
		t.Fatalf("got %d games, want 2", len(summary.InstantByGame))
	}
	// deterministic order by game code
	if summary.InstantByGame[0].GameCode != "0512" || summary.InstantByGame[1].GameCode != "0731" {
		t.Errorf("game order = %s, %s", summary.InstantByGame[0].GameCode, summary.InstantByGame[1].GameCode)
	}
	if summary.InstantByGame[0].TicketsSold != 50 {
		t.Errorf("tickets sold = %d, want 50", summary.InstantByGame[0].TicketsSold)
	}
	if want := dec("3.00"); !summary.InstantByGame[0].Commission.Equal(want) {
		t.Errorf("game commission = %s, want %s", summary.InstantByGame[0].Commission, want)
	}
	if summary.InstantByGame[1].TicketsSold != 0 {
		t.Errorf("tickets sold = %d, want 0", summary.InstantByGame[1].TicketsSold)
	}
	if want := dec("3.00"); !summary.InstantCommission.Equal(want) {
		t.Errorf("instant commission = %s, want %s", summary.InstantCommission, want)
	}

	if !summary.Draw.Present {
		t.Fatal("draw totals should be present")
	}
	if want := dec("390.00"); !summary.Draw.NetSale.Equal(want) {
		t.Errorf("net sale = %s, want %s", summary.Draw.NetSale, want)
	}
	if want := dec("19.50"); !summary.Draw.Commission.Equal(want) {
		t.Errorf("draw commission = %s, want %s", summary.Draw.Commission, want)
	}
	if want := dec("22.50"); !summary.TotalCommission.Equal(want) {
		t.Errorf("total commission = %s, want %s", summary.TotalCommission, want)
	}
	if !summary.CanPost {
		t.Errorf("clean day should be postable, warnings: %v", summary.Warnings)
	}
}

func TestSummarizeBlockedByAnomaly(t *testing.T) {
	data := &models.DayCloseData{
		StoreID: 1, BusinessDate: "2025-03-10",
		DrawDay: &models.DrawDay{},
		Anomalies: []*models.Anomaly{
			{ID: 1, Status: models.AnomalyStatusOpen, Severity: models.SeverityHigh},
			{ID: 2, Status: models.AnomalyStatusOpen, Severity: models.SeverityLow},
		},
	}
	svc := newDayCloseService(data, nil)

	summary := svc.Summarize(data)
	if summary.CanPost {
		t.Error("open high-severity anomaly must block posting")
	}

	// acknowledging the blocker unblocks
	data.Anomalies[0].Status = models.AnomalyStatusAcknowledged
	summary = svc.Summarize(data)
	if !summary.CanPost {
		t.Error("acknowledged anomaly must not block posting")
	}
}

func TestSummarizeMissingDraw(t *testing.T) {
	data := &models.DayCloseData{StoreID: 1, BusinessDate: "2025-03-10"}

	svc := newDayCloseService(data, nil)
	summary := svc.Summarize(data)
	if summary.CanPost {
		t.Error("missing draw entry must block posting for a non-optional store")
	}
	if len(summary.Warnings) != 1 {
		t.Fatalf("expected the missing-draw warning, got %v", summary.Warnings)
	}

	optional := newDayCloseService(data, []int{1})
	summary = optional.Summarize(data)
	if !summary.CanPost {
		t.Error("draw-optional store should post without a draw entry")
	}
	if len(summary.Warnings) != 0 {
		t.Errorf("draw-optional store should not be warned, got %v", summary.Warnings)
	}
}

func TestSummarizeBoxWarnings(t *testing.T) {
	data := &models.DayCloseData{
		StoreID: 1, BusinessDate: "2025-03-10",
		DrawDay: &models.DrawDay{},
		Boxes: []models.BoxActivity{
			{BoxID: 1, Label: "B1", HasPack: true, HasReading: true},
			{BoxID: 2, Label: "B2", HasPack: true, HasReading: false},
			{BoxID: 3, Label: "B3", HasPack: false, HasReading: false},
		},
	}
	svc := newDayCloseService(data, nil)

	summary := svc.Summarize(data)
	if len(summary.Warnings) != 1 {
		t.Fatalf("got warnings %v, want exactly the B2 warning", summary.Warnings)
	}
	// a warning is advisory, it never gates posting
	if !summary.CanPost {
		t.Error("box warning must not block posting")
	}
}

func TestFlagMissingReadings(t *testing.T) {
	data := &models.DayCloseData{
		StoreID: 1, BusinessDate: "2025-03-10",
		Boxes: []models.BoxActivity{
			{BoxID: 1, Label: "B1", HasPack: true, HasReading: false},
			{BoxID: 2, Label: "B2", HasPack: true, HasReading: true},
			{BoxID: 3, Label: "B3", HasPack: false, HasReading: false},
		},
	}
	anomalies := newFakeAnomalyStore()
	svc := services.NewDayCloseService(&fakeDayCloseStore{data: data}, newFakeDrawDayStore(),
		anomalies, dec("0.05"), nil, testLogger())

	created, err := svc.FlagMissingReadings(context.Background(), 1, "2025-03-10", 9, "Acct")
	if err != nil {
		t.Fatalf("FlagMissingReadings: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("flagged %d boxes, want 1", len(created))
	}
	a := created[0]
	if a.Type != models.AnomalyMissingReading || a.Severity != models.SeverityLow {
		t.Errorf("got %s/%s, want missing_reading/low", a.Type, a.Severity)
	}
	if a.BoxID == nil || *a.BoxID != 1 {
		t.Errorf("box id = %v, want 1", a.BoxID)
	}

	// idempotent: the existing anomaly suppresses a duplicate
	data.Anomalies = append(data.Anomalies, a)
	created, err = svc.FlagMissingReadings(context.Background(), 1, "2025-03-10", 9, "Acct")
	if err != nil {
		t.Fatalf("second FlagMissingReadings: %v", err)
	}
	if len(created) != 0 {
		t.Fatalf("second run flagged %d boxes, want 0", len(created))
	}
}

// countingDayCloseStore counts Load calls so tests can account for
// every repository touch a preview makes.
type countingDayCloseStore struct {
	data  *models.DayCloseData
	loads int
}

func (c *countingDayCloseStore) Load(ctx context.Context, storeID int, date string) (*models.DayCloseData, error) {
	c.loads++
	return c.data, nil
}

func TestPreviewPure(t *testing.T) {
	data := &models.DayCloseData{
		StoreID:      1,
		BusinessDate: "2025-03-10",
		Readings: []*models.ReadingWithGame{
			withGame(models.Reading{TicketNumber: 40, PrevTicket: intPtr(10)}, 1, "0512", "1.00", "0.06"),
		},
		DrawDay: &models.DrawDay{
			TotalSales:  dec("500.00"),
			TotalCashed: dec("100.00"),
			Adjustments: dec("10.00"),
		},
		Anomalies: []*models.Anomaly{
			{ID: 1, Status: models.AnomalyStatusOpen, Severity: models.SeverityLow},
		},
	}
	store := &countingDayCloseStore{data: data}
	anomalies := newFakeAnomalyStore()
	drawDays := newFakeDrawDayStore()
	svc := services.NewDayCloseService(store, drawDays, anomalies, dec("0.05"), nil, testLogger())

	first, err := svc.Preview(context.Background(), 1, "2025-03-10")
	if err != nil {
		t.Fatalf("first Preview: %v", err)
	}
	second, err := svc.Preview(context.Background(), 1, "2025-03-10")
	if err != nil {
		t.Fatalf("second Preview: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("previews differ with no intervening writes:\n%+v\n%+v", first, second)
	}
	if store.loads != 2 {
		t.Errorf("Load called %d times, want one per preview", store.loads)
	}
	// a preview only reads: nothing lands in the other stores
	if len(anomalies.anomalies) != 0 {
		t.Errorf("preview created anomalies: %+v", anomalies.anomalies)
	}
	if len(drawDays.byKey) != 0 {
		t.Errorf("preview wrote draw days: %+v", drawDays.byKey)
	}
}

// liveDayCloseStore derives box activity from pack state on every
// load, the way the repository does from the packs table.
type liveDayCloseStore struct {
	packs *fakePackStore
	boxes *fakeBoxStore
}

func (l *liveDayCloseStore) Load(ctx context.Context, storeID int, date string) (*models.DayCloseData, error) {
	data := &models.DayCloseData{
		StoreID:      storeID,
		BusinessDate: date,
		DrawDay:      &models.DrawDay{},
	}
	for _, b := range l.boxes.boxes {
		if b.StoreID != storeID {
			continue
		}
		activity := models.BoxActivity{BoxID: b.ID, Label: b.Label}
		for _, p := range l.packs.packs {
			if p.BoxID != nil && *p.BoxID == b.ID && p.IsActive() {
				activity.HasPack = true
			}
		}
		data.Boxes = append(data.Boxes, activity)
	}
	return data, nil
}

func TestPreviewReflectsPackTransitions(t *testing.T) {
	packs := newFakePackStore()
	boxes := newFakeBoxStore(&models.Box{ID: 5, StoreID: 1, Label: "B1", Active: true})
	packSvc := services.NewPackService(packs, boxes, newFakeGameStore(), testLogger())
	svc := services.NewDayCloseService(&liveDayCloseStore{packs: packs, boxes: boxes},
		newFakeDrawDayStore(), newFakeAnomalyStore(), dec("0.05"), nil, testLogger())

	pack := packs.add(&models.Pack{StoreID: 1, PackNumber: "P-1", Status: models.PackStatusActive})

	summary, err := svc.Preview(context.Background(), 1, "2025-03-10")
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if len(summary.Warnings) != 0 {
		t.Fatalf("empty box should not warn, got %v", summary.Warnings)
	}

	if _, _, err := packSvc.AssignPack(context.Background(), pack.ID, 5, false); err != nil {
		t.Fatalf("AssignPack: %v", err)
	}
	summary, err = svc.Preview(context.Background(), 1, "2025-03-10")
	if err != nil {
		t.Fatalf("Preview after assign: %v", err)
	}
	if len(summary.Warnings) != 1 {
		t.Fatalf("assigned-but-unread box should warn on the next preview, got %v", summary.Warnings)
	}

	if _, err := packSvc.ReturnPack(context.Background(), pack.ID); err != nil {
		t.Fatalf("ReturnPack: %v", err)
	}
	summary, err = svc.Preview(context.Background(), 1, "2025-03-10")
	if err != nil {
		t.Fatalf("Preview after return: %v", err)
	}
	if len(summary.Warnings) != 0 {
		t.Fatalf("returned pack should clear the warning, got %v", summary.Warnings)
	}
}

func TestUpsertDrawDay(t *testing.T) {
	drawDays := newFakeDrawDayStore()
	svc := services.NewDayCloseService(&fakeDayCloseStore{}, drawDays, newFakeAnomalyStore(),
		dec("0.05"), nil, testLogger())

	req := &models.UpsertDrawDayRequest{
		StoreID:          1,
		BusinessDate:     "2025-03-10",
		TotalSales:       dec("500.00"),
		TotalCashed:      dec("600.00"), // cashed over sales is legal, just logged
		CommissionSource: models.DrawCommissionRate,
	}
	d, err := svc.UpsertDrawDay(context.Background(), req, 9)
	if err != nil {
		t.Fatalf("UpsertDrawDay: %v", err)
	}
	if d.CreatedBy != 9 {
		t.Errorf("created by = %d, want 9", d.CreatedBy)
	}

	got, err := svc.GetDrawDay(context.Background(), 1, "2025-03-10")
	if err != nil {
		t.Fatalf("GetDrawDay: %v", err)
	}
	if !got.TotalCashed.Equal(dec("600.00")) {
		t.Errorf("cashed = %s, want 600.00", got.TotalCashed)
	}
}
