package services_test

import (
	"context"
	"errors"
	"testing"

	"lotto-backend/internal/models"
	"lotto-backend/internal/services"

	"github.com/shopspring/decimal"
)

func readingFixture() (*fakeReadingStore, *fakeBoxStore, *services.ReadingService) {
	game := &models.Game{
		ID:             1,
		Code:           "0512",
		PackSize:       300,
		TicketPrice:    decimal.RequireFromString("1.00"),
		CommissionRate: decimal.RequireFromString("0.06"),
	}
	pack := &models.Pack{
		ID: 10, StoreID: 1, GameID: 1, PackNumber: "P-100",
		BoxID: intPtr(5), StartTicket: 0, CurrentTicket: 0,
		Status: models.PackStatusActive,
	}
	readings := &fakeReadingStore{pack: pack, game: game}
	boxes := newFakeBoxStore(&models.Box{ID: 5, StoreID: 1, Label: "B1", Active: true})

	packSvc := services.NewPackService(newFakePackStore(), boxes, newFakeGameStore(game), testLogger())
	svc := services.NewReadingService(readings, boxes, packSvc, 30, testLogger())
	return readings, boxes, svc
}

func record(t *testing.T, svc *services.ReadingService, ticket int, label string) (*models.ReadingResult, error) {
	t.Helper()
	return svc.RecordReading(context.Background(), 1, &models.RecordReadingRequest{
		PackID: 10, BoxLabel: label, TicketNumber: ticket, Source: models.ReadingSourceScan,
	}, 7, "Clerk One")
}

func TestRecordFirstReading(t *testing.T) {
	_, _, svc := readingFixture()

	result, err := record(t, svc, 15, "B1")
	if err != nil {
		t.Fatalf("RecordReading: %v", err)
	}
	if result.Reading.PrevTicket != nil {
		t.Errorf("first reading should have no previous ticket, got %d", *result.Reading.PrevTicket)
	}
	if result.Reading.Delta() != 0 {
		t.Errorf("first reading delta = %d, want 0", result.Reading.Delta())
	}
	if len(result.Anomalies) != 0 {
		t.Errorf("unexpected anomalies: %+v", result.Anomalies)
	}
}

func TestRecordProgression(t *testing.T) {
	_, _, svc := readingFixture()

	if _, err := record(t, svc, 10, "B1"); err != nil {
		t.Fatalf("first reading: %v", err)
	}
	result, err := record(t, svc, 40, "B1")
	if err != nil {
		t.Fatalf("second reading: %v", err)
	}
	if result.Reading.PrevTicket == nil || *result.Reading.PrevTicket != 10 {
		t.Fatalf("prev ticket = %v, want 10", result.Reading.PrevTicket)
	}
	if result.Reading.Delta() != 30 {
		t.Errorf("delta = %d, want 30", result.Reading.Delta())
	}
	if len(result.Anomalies) != 0 {
		t.Errorf("a jump of exactly the threshold should not raise anomalies: %+v", result.Anomalies)
	}
}

func TestRecordRegression(t *testing.T) {
	readings, _, svc := readingFixture()

	if _, err := record(t, svc, 40, "B1"); err != nil {
		t.Fatalf("first reading: %v", err)
	}
	result, err := record(t, svc, 25, "B1")
	if err != nil {
		t.Fatalf("regression should record, got %v", err)
	}
	if len(result.Anomalies) != 1 {
		t.Fatalf("got %d anomalies, want 1", len(result.Anomalies))
	}
	a := result.Anomalies[0]
	if a.Type != models.AnomalyTicketRegression {
		t.Errorf("type = %s, want ticket_regression", a.Type)
	}
	if a.Severity != models.SeverityHigh {
		t.Errorf("severity = %s, want high", a.Severity)
	}
	if result.Reading.Delta() != 0 {
		t.Errorf("regression delta = %d, want 0", result.Reading.Delta())
	}
	// pack counter still moves to the observed value
	if readings.pack.CurrentTicket != 25 {
		t.Errorf("pack current ticket = %d, want 25", readings.pack.CurrentTicket)
	}
}

func TestRecordSkippedRange(t *testing.T) {
	_, _, svc := readingFixture()

	if _, err := record(t, svc, 10, "B1"); err != nil {
		t.Fatalf("first reading: %v", err)
	}
	result, err := record(t, svc, 41, "B1")
	if err != nil {
		t.Fatalf("second reading: %v", err)
	}
	if len(result.Anomalies) != 1 {
		t.Fatalf("got %d anomalies, want 1", len(result.Anomalies))
	}
	if result.Anomalies[0].Type != models.AnomalySkippedRange {
		t.Errorf("type = %s, want skipped_range", result.Anomalies[0].Type)
	}
	if result.Anomalies[0].Severity != models.SeverityMedium {
		t.Errorf("severity = %s, want medium", result.Anomalies[0].Severity)
	}
}

func TestRecordOutOfRange(t *testing.T) {
	readings, _, svc := readingFixture()

	_, err := record(t, svc, 500, "B1")
	var oor *models.OutOfRangeError
	if !errors.As(err, &oor) {
		t.Fatalf("expected OutOfRangeError, got %v", err)
	}
	if oor.Low != 0 || oor.High != 299 {
		t.Errorf("range = [%d, %d], want [0, 299]", oor.Low, oor.High)
	}
	if len(readings.readings) != 0 {
		t.Error("rejected reading must not be persisted")
	}
	if len(readings.anomalies) != 1 || readings.anomalies[0].Type != models.AnomalyOutOfRange {
		t.Fatalf("out_of_range anomaly should be persisted despite the rejection: %+v", readings.anomalies)
	}
	if readings.anomalies[0].Severity != models.SeverityHigh {
		t.Errorf("severity = %s, want high", readings.anomalies[0].Severity)
	}
	if readings.pack.CurrentTicket != 0 {
		t.Errorf("pack counter moved on a rejected reading: %d", readings.pack.CurrentTicket)
	}
}

func TestRecordBoxMismatch(t *testing.T) {
	_, boxes, svc := readingFixture()
	boxes.boxes[6] = &models.Box{ID: 6, StoreID: 1, Label: "B2", Active: true}

	result, err := record(t, svc, 5, "B2")
	if err != nil {
		t.Fatalf("mismatched box should record, got %v", err)
	}
	if len(result.Anomalies) != 1 || result.Anomalies[0].Type != models.AnomalyBoxPackMismatch {
		t.Fatalf("expected box_pack_mismatch, got %+v", result.Anomalies)
	}

	// Unknown label is also a mismatch, not a rejection.
	result, err = record(t, svc, 8, "NOPE")
	if err != nil {
		t.Fatalf("unknown box label should record, got %v", err)
	}
	if len(result.Anomalies) != 1 || result.Anomalies[0].Type != models.AnomalyBoxPackMismatch {
		t.Fatalf("expected box_pack_mismatch for unknown label, got %+v", result.Anomalies)
	}
}

func TestRecordSoldOut(t *testing.T) {
	readings, _, svc := readingFixture()

	result, err := record(t, svc, 299, "B1")
	if err != nil {
		t.Fatalf("RecordReading: %v", err)
	}
	if readings.pack.Status != models.PackStatusSoldOut {
		t.Errorf("pack status = %s, want sold_out", readings.pack.Status)
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("expected a sold-out warning, got %v", result.Warnings)
	}

	if _, err := record(t, svc, 299, "B1"); !errors.Is(err, models.ErrPackClosed) {
		t.Fatalf("sold-out pack should reject further readings, got %v", err)
	}
}

func TestRecordWrongStore(t *testing.T) {
	readings, boxes, _ := readingFixture()
	packSvc := services.NewPackService(newFakePackStore(), boxes, newFakeGameStore(readings.game), testLogger())
	svc := services.NewReadingService(readings, boxes, packSvc, 30, testLogger())

	_, err := svc.RecordReading(context.Background(), 2, &models.RecordReadingRequest{
		PackID: 10, BoxLabel: "B1", TicketNumber: 5, Source: models.ReadingSourceManual,
	}, 7, "Clerk One")
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("pack from another store should look absent, got %v", err)
	}
}
