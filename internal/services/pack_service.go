package services

import (
	"context"
	"fmt"

	"lotto-backend/internal/cache"
	"lotto-backend/internal/models"
	"lotto-backend/internal/timeutil"

	"github.com/sirupsen/logrus"
)

// PackStore is the persistence surface the lifecycle tracker needs.
// Implemented by repositories.PackRepository.
type PackStore interface {
	Create(ctx context.Context, req *models.CreatePackRequest) (*models.Pack, error)
	Get(ctx context.Context, id int) (*models.Pack, error)
	ListByStore(ctx context.Context, storeID int) ([]*models.Pack, error)
	Assign(ctx context.Context, packID, boxID int, supersede bool) (*models.Pack, *models.Pack, error)
	Return(ctx context.Context, packID int) (*models.Pack, error)
}

// BoxStore is implemented by repositories.BoxRepository.
type BoxStore interface {
	Create(ctx context.Context, req *models.CreateBoxRequest) (*models.Box, error)
	Get(ctx context.Context, id int) (*models.Box, error)
	GetByLabel(ctx context.Context, storeID int, label string) (*models.Box, error)
	ListByStore(ctx context.Context, storeID int) ([]*models.Box, error)
}

// GameStore is implemented by repositories.GameRepository.
type GameStore interface {
	Create(ctx context.Context, req *models.CreateGameRequest) (*models.Game, error)
	Get(ctx context.Context, id int) (*models.Game, error)
	List(ctx context.Context) ([]*models.Game, error)
}

// PackService owns pack state transitions: assignment to boxes,
// progression of the observed ticket counter, sale-out and returns.
type PackService struct {
	Packs  PackStore
	Boxes  BoxStore
	Games  GameStore
	Logger *logrus.Logger
}

func NewPackService(packs PackStore, boxes BoxStore, games GameStore, logger *logrus.Logger) *PackService {
	return &PackService{
		Packs:  packs,
		Boxes:  boxes,
		Games:  games,
		Logger: logger,
	}
}

func (s *PackService) CreatePack(ctx context.Context, req *models.CreatePackRequest) (*models.Pack, error) {
	if _, err := s.Games.Get(ctx, req.GameID); err != nil {
		return nil, fmt.Errorf("game %d: %w", req.GameID, err)
	}
	return s.Packs.Create(ctx, req)
}

func (s *PackService) GetPack(ctx context.Context, id int) (*models.Pack, error) {
	return s.Packs.Get(ctx, id)
}

func (s *PackService) ListPacks(ctx context.Context, storeID int) ([]*models.Pack, error) {
	return s.Packs.ListByStore(ctx, storeID)
}

// AssignPack puts a pack into a dispenser box. Without supersede the
// call fails with ErrConflict when the box holds a different active
// pack. With supersede the previous pack is released and a warning is
// returned for downstream display; the released pack stays active (an
// implicit early retirement the day-close surfaces, not a hard stop).
func (s *PackService) AssignPack(ctx context.Context, packID, boxID int, supersede bool) (*models.Pack, string, error) {
	if _, err := s.Boxes.Get(ctx, boxID); err != nil {
		return nil, "", fmt.Errorf("box %d: %w", boxID, err)
	}

	pack, superseded, err := s.Packs.Assign(ctx, packID, boxID, supersede)
	if err != nil {
		return nil, "", err
	}
	// Box occupancy feeds the day-close warnings.
	cache.InvalidateDayClose(ctx, pack.StoreID, timeutil.BusinessDate(timeutil.Now()))

	warning := ""
	if superseded != nil {
		warning = fmt.Sprintf("box %d reassigned while pack %s (id %d) was still active",
			boxID, superseded.PackNumber, superseded.ID)
		s.Logger.WithFields(logrus.Fields{
			"box_id":          boxID,
			"pack_id":         packID,
			"superseded_pack": superseded.ID,
		}).Warn("box reassigned over an active pack")
	}

	return pack, warning, nil
}

// ReturnPack transitions an active pack to returned and frees its box.
func (s *PackService) ReturnPack(ctx context.Context, packID int) (*models.Pack, error) {
	pack, err := s.Packs.Return(ctx, packID)
	if err != nil {
		return nil, err
	}
	cache.InvalidateDayClose(ctx, pack.StoreID, timeutil.BusinessDate(timeutil.Now()))

	s.Logger.WithFields(logrus.Fields{
		"pack_id": pack.ID,
		"store":   pack.StoreID,
	}).Info("pack returned to supplier")

	return pack, nil
}

// Advance moves a pack's observed ticket counter to ticketNumber and
// transitions it to sold_out exactly when the final index is reached.
// The caller must have validated the range; Advance only enforces the
// lifecycle rules. A closed pack rejects the advance with ErrPackClosed.
//
// Mutates pack in place; persisting is the caller's transaction.
func (s *PackService) Advance(pack *models.Pack, game *models.Game, ticketNumber int) error {
	if !pack.IsActive() {
		return fmt.Errorf("pack %d is %s: %w", pack.ID, pack.Status, models.ErrPackClosed)
	}

	pack.CurrentTicket = ticketNumber
	if ticketNumber == game.FinalTicket(pack.StartTicket) {
		pack.Status = models.PackStatusSoldOut
	}

	return nil
}
