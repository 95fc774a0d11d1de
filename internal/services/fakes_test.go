package services_test

import (
	"context"
	"fmt"
	"io"

	"lotto-backend/internal/models"
	"lotto-backend/internal/repositories"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func intPtr(v int) *int { return &v }

// fakePackStore keeps packs in a map and mimics the repository's
// assign/return semantics.
type fakePackStore struct {
	packs  map[int]*models.Pack
	nextID int
}

func newFakePackStore() *fakePackStore {
	return &fakePackStore{packs: make(map[int]*models.Pack), nextID: 1}
}

func (f *fakePackStore) add(p *models.Pack) *models.Pack {
	if p.ID == 0 {
		p.ID = f.nextID
		f.nextID++
	}
	f.packs[p.ID] = p
	return p
}

func (f *fakePackStore) Create(ctx context.Context, req *models.CreatePackRequest) (*models.Pack, error) {
	return f.add(&models.Pack{
		StoreID:       req.StoreID,
		GameID:        req.GameID,
		PackNumber:    req.PackNumber,
		StartTicket:   req.StartTicket,
		CurrentTicket: req.StartTicket,
		Status:        models.PackStatusActive,
	}), nil
}

func (f *fakePackStore) Get(ctx context.Context, id int) (*models.Pack, error) {
	p, ok := f.packs[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return p, nil
}

func (f *fakePackStore) ListByStore(ctx context.Context, storeID int) ([]*models.Pack, error) {
	var out []*models.Pack
	for _, p := range f.packs {
		if p.StoreID == storeID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePackStore) Assign(ctx context.Context, packID, boxID int, supersede bool) (*models.Pack, *models.Pack, error) {
	p, ok := f.packs[packID]
	if !ok {
		return nil, nil, models.ErrNotFound
	}
	var occupant *models.Pack
	for _, other := range f.packs {
		if other.ID != packID && other.BoxID != nil && *other.BoxID == boxID && other.IsActive() {
			occupant = other
		}
	}
	if occupant != nil {
		if !supersede {
			return nil, nil, fmt.Errorf("box %d occupied: %w", boxID, models.ErrConflict)
		}
		occupant.BoxID = nil
	}
	p.BoxID = &boxID
	return p, occupant, nil
}

func (f *fakePackStore) Return(ctx context.Context, packID int) (*models.Pack, error) {
	p, ok := f.packs[packID]
	if !ok {
		return nil, models.ErrNotFound
	}
	if !p.IsActive() {
		return nil, fmt.Errorf("pack %d is %s: %w", p.ID, p.Status, models.ErrPackClosed)
	}
	p.Status = models.PackStatusReturned
	p.BoxID = nil
	return p, nil
}

type fakeBoxStore struct {
	boxes map[int]*models.Box
}

func newFakeBoxStore(boxes ...*models.Box) *fakeBoxStore {
	f := &fakeBoxStore{boxes: make(map[int]*models.Box)}
	for _, b := range boxes {
		f.boxes[b.ID] = b
	}
	return f
}

func (f *fakeBoxStore) Create(ctx context.Context, req *models.CreateBoxRequest) (*models.Box, error) {
	b := &models.Box{ID: len(f.boxes) + 1, StoreID: req.StoreID, Label: req.Label, Active: true}
	f.boxes[b.ID] = b
	return b, nil
}

func (f *fakeBoxStore) Get(ctx context.Context, id int) (*models.Box, error) {
	b, ok := f.boxes[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return b, nil
}

func (f *fakeBoxStore) GetByLabel(ctx context.Context, storeID int, label string) (*models.Box, error) {
	for _, b := range f.boxes {
		if b.StoreID == storeID && b.Label == label {
			return b, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeBoxStore) ListByStore(ctx context.Context, storeID int) ([]*models.Box, error) {
	var out []*models.Box
	for _, b := range f.boxes {
		if b.StoreID == storeID {
			out = append(out, b)
		}
	}
	return out, nil
}

type fakeGameStore struct {
	games map[int]*models.Game
}

func newFakeGameStore(games ...*models.Game) *fakeGameStore {
	f := &fakeGameStore{games: make(map[int]*models.Game)}
	for _, g := range games {
		f.games[g.ID] = g
	}
	return f
}

func (f *fakeGameStore) Create(ctx context.Context, req *models.CreateGameRequest) (*models.Game, error) {
	g := &models.Game{
		ID:             len(f.games) + 1,
		Code:           req.Code,
		Name:           req.Name,
		TicketPrice:    req.TicketPrice,
		PackSize:       req.PackSize,
		CommissionRate: req.CommissionRate,
		Active:         true,
	}
	f.games[g.ID] = g
	return g, nil
}

func (f *fakeGameStore) Get(ctx context.Context, id int) (*models.Game, error) {
	g, ok := f.games[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return g, nil
}

func (f *fakeGameStore) List(ctx context.Context) ([]*models.Game, error) {
	var out []*models.Game
	for _, g := range f.games {
		out = append(out, g)
	}
	return out, nil
}

// fakeReadingStore replays the repository's transaction contract: the
// decide callback sees the pack, game and last reading; whatever
// decision it returns is persisted, even alongside an error.
type fakeReadingStore struct {
	pack *models.Pack
	game *models.Game
	last *models.Reading

	readings  []*models.Reading
	anomalies []*models.Anomaly
}

func (f *fakeReadingStore) RecordInPackTx(ctx context.Context, packID int,
	decide func(pack *models.Pack, game *models.Game, last *models.Reading) (*repositories.ReadingDecision, error),
) (*repositories.ReadingDecision, error) {
	if f.pack == nil || f.pack.ID != packID {
		return nil, models.ErrNotFound
	}
	decision, err := decide(f.pack, f.game, f.last)
	if decision != nil {
		if decision.Reading != nil {
			decision.Reading.ID = len(f.readings) + 1
			f.readings = append(f.readings, decision.Reading)
			f.last = decision.Reading
		}
		for _, a := range decision.Anomalies {
			a.ID = len(f.anomalies) + 1
			f.anomalies = append(f.anomalies, a)
		}
	}
	return decision, err
}

func (f *fakeReadingStore) ListByPack(ctx context.Context, packID int, limit int) ([]*models.Reading, error) {
	return f.readings, nil
}

type fakeAnomalyStore struct {
	anomalies map[int]*models.Anomaly
	nextID    int
}

func newFakeAnomalyStore(anomalies ...*models.Anomaly) *fakeAnomalyStore {
	f := &fakeAnomalyStore{anomalies: make(map[int]*models.Anomaly), nextID: 1}
	for _, a := range anomalies {
		if a.ID >= f.nextID {
			f.nextID = a.ID + 1
		}
		f.anomalies[a.ID] = a
	}
	return f
}

func (f *fakeAnomalyStore) Create(ctx context.Context, a *models.Anomaly) error {
	a.ID = f.nextID
	f.nextID++
	f.anomalies[a.ID] = a
	return nil
}

func (f *fakeAnomalyStore) Get(ctx context.Context, id int) (*models.Anomaly, error) {
	a, ok := f.anomalies[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return a, nil
}

func (f *fakeAnomalyStore) UpdateInTx(ctx context.Context, id int, fn func(a *models.Anomaly) error) (*models.Anomaly, error) {
	a, ok := f.anomalies[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if err := fn(a); err != nil {
		return nil, err
	}
	return a, nil
}

func (f *fakeAnomalyStore) List(ctx context.Context, filter *models.AnomalyFilter) ([]*models.Anomaly, error) {
	var out []*models.Anomaly
	for _, a := range f.anomalies {
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeAnomalyStore) CountOpenBySeverity(ctx context.Context, storeID int, date string) (map[models.AnomalySeverity]int, error) {
	counts := make(map[models.AnomalySeverity]int)
	for _, a := range f.anomalies {
		if a.StoreID == storeID && a.BusinessDate == date && a.Status == models.AnomalyStatusOpen {
			counts[a.Severity]++
		}
	}
	return counts, nil
}

type fakeDayCloseStore struct {
	data *models.DayCloseData
	err  error
}

func (f *fakeDayCloseStore) Load(ctx context.Context, storeID int, date string) (*models.DayCloseData, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

type fakeDrawDayStore struct {
	byKey map[string]*models.DrawDay
}

func newFakeDrawDayStore() *fakeDrawDayStore {
	return &fakeDrawDayStore{byKey: make(map[string]*models.DrawDay)}
}

func drawKey(storeID int, date string) string {
	return fmt.Sprintf("%d:%s", storeID, date)
}

func (f *fakeDrawDayStore) Upsert(ctx context.Context, req *models.UpsertDrawDayRequest, actorID int) (*models.DrawDay, error) {
	d := &models.DrawDay{
		ID:               len(f.byKey) + 1,
		StoreID:          req.StoreID,
		BusinessDate:     req.BusinessDate,
		TotalSales:       req.TotalSales,
		TotalCashed:      req.TotalCashed,
		Adjustments:      req.Adjustments,
		CommissionSource: req.CommissionSource,
		CommissionAmount: req.CommissionAmount,
		CreatedBy:        actorID,
	}
	f.byKey[drawKey(req.StoreID, req.BusinessDate)] = d
	return d, nil
}

func (f *fakeDrawDayStore) Get(ctx context.Context, storeID int, date string) (*models.DrawDay, error) {
	d, ok := f.byKey[drawKey(storeID, date)]
	if !ok {
		return nil, models.ErrNotFound
	}
	return d, nil
}

// fakePostingStore replays the posting transaction contract: build sees
// freshly loaded data plus the previous posting for the key, and a
// successful build supersedes in place.
type fakePostingStore struct {
	data     *models.DayCloseData
	postings map[string]*models.Posting
}

func newFakePostingStore(data *models.DayCloseData) *fakePostingStore {
	return &fakePostingStore{data: data, postings: make(map[string]*models.Posting)}
}

func (f *fakePostingStore) PostInTx(ctx context.Context, storeID int, date string,
	build func(data *models.DayCloseData, previous *models.Posting) (*models.Posting, error),
) (*models.Posting, error) {
	previous := f.postings[drawKey(storeID, date)]
	p, err := build(f.data, previous)
	if err != nil {
		return nil, err
	}
	if previous != nil {
		p.ID = previous.ID
		p.Revision = previous.Revision + 1
	} else {
		p.ID = len(f.postings) + 1
		p.Revision = 1
	}
	f.postings[drawKey(storeID, date)] = p
	return p, nil
}

func (f *fakePostingStore) Get(ctx context.Context, storeID int, date string) (*models.Posting, error) {
	p, ok := f.postings[drawKey(storeID, date)]
	if !ok {
		return nil, models.ErrNotFound
	}
	return p, nil
}

func (f *fakePostingStore) ListByStore(ctx context.Context, storeID int, limit int) ([]*models.Posting, error) {
	var out []*models.Posting
	for _, p := range f.postings {
		if p.StoreID == storeID {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeSink struct {
	emitted []*models.Posting
	err     error
}

func (f *fakeSink) Emit(ctx context.Context, p *models.Posting) error {
	if f.err != nil {
		return f.err
	}
	f.emitted = append(f.emitted, p)
	return nil
}
