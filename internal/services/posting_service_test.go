package services_test

import (
	"context"
	"errors"
	"testing"

	"lotto-backend/internal/models"
	"lotto-backend/internal/services"

	"github.com/shopspring/decimal"
)

func postingFixture(data *models.DayCloseData, drawOptional []int) (*fakePostingStore, *fakeSink, *services.PostingService) {
	dayClose := newDayCloseService(data, drawOptional)
	postings := newFakePostingStore(data)
	sink := &fakeSink{}
	svc := services.NewPostingService(postings, dayClose, sink, testLogger())
	return postings, sink, svc
}

func cleanDayData() *models.DayCloseData {
	return &models.DayCloseData{
		StoreID:      1,
		BusinessDate: "2025-03-10",
		Readings: []*models.ReadingWithGame{
			withGame(models.Reading{TicketNumber: 60, PrevTicket: intPtr(10)}, 1, "0512", "1.00", "0.06"),
		},
		DrawDay: &models.DrawDay{
			TotalSales:  dec("500.00"),
			TotalCashed: dec("100.00"),
			Adjustments: dec("10.00"),
		},
	}
}

func TestPost(t *testing.T) {
	_, sink, svc := postingFixture(cleanDayData(), nil)

	p, err := svc.Post(context.Background(), 1, "2025-03-10", 9, "Acct")
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if p.Revision != 1 {
		t.Errorf("revision = %d, want 1", p.Revision)
	}
	if p.BatchID == "" {
		t.Error("batch id not generated")
	}
	// 50 * $1.00 * 6% instant, 390 * 5% draw
	if want := dec("3.00"); !p.InstantCommission.Equal(want) {
		t.Errorf("instant = %s, want %s", p.InstantCommission, want)
	}
	if want := dec("19.50"); !p.DrawCommission.Equal(want) {
		t.Errorf("draw = %s, want %s", p.DrawCommission, want)
	}
	if want := dec("22.50"); !p.TotalCommission.Equal(want) {
		t.Errorf("total = %s, want %s", p.TotalCommission, want)
	}

	if len(sink.emitted) != 1 {
		t.Errorf("sink received %d batches, want 1", len(sink.emitted))
	}
}

func TestPostEntriesBalance(t *testing.T) {
	_, _, svc := postingFixture(cleanDayData(), nil)

	p, err := svc.Post(context.Background(), 1, "2025-03-10", 9, "Acct")
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if len(p.Entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(p.Entries))
	}

	var debits, credits decimal.Decimal
	for _, e := range p.Entries {
		debits = debits.Add(e.Debit)
		credits = credits.Add(e.Credit)
	}
	if !debits.Equal(credits) {
		t.Errorf("entries unbalanced: debits %s, credits %s", debits, credits)
	}
	if p.Entries[0].Account != models.AccountCommissionReceivable || !p.Entries[0].Debit.Equal(p.TotalCommission) {
		t.Errorf("receivable debit = %+v", p.Entries[0])
	}
}

func TestPostBlocked(t *testing.T) {
	data := cleanDayData()
	data.Anomalies = []*models.Anomaly{
		{ID: 4, Status: models.AnomalyStatusOpen, Severity: models.SeverityHigh, Type: models.AnomalyTicketRegression, Detail: "count went backwards"},
		{ID: 5, Status: models.AnomalyStatusOpen, Severity: models.SeverityMedium, Type: models.AnomalySkippedRange, Detail: "big jump"},
	}
	postings, sink, svc := postingFixture(data, nil)

	_, err := svc.Post(context.Background(), 1, "2025-03-10", 9, "Acct")
	var blocked *models.PostingBlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("expected PostingBlockedError, got %v", err)
	}
	if len(blocked.Anomalies) != 1 || blocked.Anomalies[0].ID != 4 {
		t.Errorf("blockers = %+v, want only the high-severity one", blocked.Anomalies)
	}
	if len(postings.postings) != 0 {
		t.Error("blocked post must not persist anything")
	}
	if len(sink.emitted) != 0 {
		t.Error("blocked post must not reach the sink")
	}

	// the medium anomaly alone does not block
	data.Anomalies = data.Anomalies[1:]
	if _, err := svc.Post(context.Background(), 1, "2025-03-10", 9, "Acct"); err != nil {
		t.Fatalf("medium anomaly should not block, got %v", err)
	}
}

func TestPostMissingDraw(t *testing.T) {
	data := cleanDayData()
	data.DrawDay = nil

	_, _, svc := postingFixture(data, nil)
	if _, err := svc.Post(context.Background(), 1, "2025-03-10", 9, "Acct"); !errors.Is(err, models.ErrState) {
		t.Fatalf("expected ErrState without a draw entry, got %v", err)
	}

	_, _, optional := postingFixture(data, []int{1})
	p, err := optional.Post(context.Background(), 1, "2025-03-10", 9, "Acct")
	if err != nil {
		t.Fatalf("draw-optional store should post, got %v", err)
	}
	if !p.DrawCommission.IsZero() {
		t.Errorf("draw commission = %s, want 0", p.DrawCommission)
	}
	// no draw credit line without a draw entry
	for _, e := range p.Entries {
		if e.Account == models.AccountDrawCommission {
			t.Errorf("unexpected draw credit: %+v", e)
		}
	}
}

func TestRepostSupersedes(t *testing.T) {
	data := cleanDayData()
	_, _, svc := postingFixture(data, nil)

	first, err := svc.Post(context.Background(), 1, "2025-03-10", 9, "Acct")
	if err != nil {
		t.Fatalf("first post: %v", err)
	}

	// a correction lands after the first post
	data.Readings = append(data.Readings,
		withGame(models.Reading{TicketNumber: 70, PrevTicket: intPtr(60)}, 1, "0512", "1.00", "0.06"))

	second, err := svc.Post(context.Background(), 1, "2025-03-10", 9, "Acct")
	if err != nil {
		t.Fatalf("re-post: %v", err)
	}
	if second.Revision != 2 {
		t.Errorf("revision = %d, want 2", second.Revision)
	}
	if second.BatchID == first.BatchID {
		t.Error("batch id must be regenerated on supersede")
	}
	if want := dec("3.60"); !second.InstantCommission.Equal(want) {
		t.Errorf("instant = %s, want %s", second.InstantCommission, want)
	}

	got, err := svc.Get(context.Background(), 1, "2025-03-10")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Revision != 2 {
		t.Errorf("stored revision = %d, want 2 (one posting per store-day)", got.Revision)
	}
}

func TestHistoryLimit(t *testing.T) {
	postings, _, svc := postingFixture(cleanDayData(), nil)
	postings.postings[drawKey(1, "2025-03-09")] = &models.Posting{ID: 1, StoreID: 1, BusinessDate: "2025-03-09"}

	out, err := svc.History(context.Background(), 1, -5)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(out) != 1 {
		t.Errorf("got %d postings, want 1", len(out))
	}
}
