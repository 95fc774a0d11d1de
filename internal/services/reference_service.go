package services

import (
	"context"
	"encoding/json"

	"lotto-backend/internal/cache"
	"lotto-backend/internal/models"
)

// GameService manages the game catalogue. The list is cached since the
// catalogue changes rarely and every reading touches game pricing.
type GameService struct {
	Games GameStore
}

func NewGameService(games GameStore) *GameService {
	return &GameService{Games: games}
}

func (s *GameService) Create(ctx context.Context, req *models.CreateGameRequest) (*models.Game, error) {
	g, err := s.Games.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	cache.InvalidateGames(ctx)
	return g, nil
}

func (s *GameService) Get(ctx context.Context, id int) (*models.Game, error) {
	return s.Games.Get(ctx, id)
}

func (s *GameService) List(ctx context.Context) ([]*models.Game, error) {
	if cached, ok := cache.GetCachedGames(ctx); ok {
		var games []*models.Game
		if err := json.Unmarshal(cached, &games); err == nil {
			return games, nil
		}
	}
	games, err := s.Games.List(ctx)
	if err != nil {
		return nil, err
	}
	if buf, err := json.Marshal(games); err == nil {
		cache.CacheGames(ctx, buf)
	}
	return games, nil
}

// BoxService manages the fixed display positions of a store.
type BoxService struct {
	Boxes BoxStore
}

func NewBoxService(boxes BoxStore) *BoxService {
	return &BoxService{Boxes: boxes}
}

func (s *BoxService) Create(ctx context.Context, req *models.CreateBoxRequest) (*models.Box, error) {
	return s.Boxes.Create(ctx, req)
}

func (s *BoxService) Get(ctx context.Context, id int) (*models.Box, error) {
	return s.Boxes.Get(ctx, id)
}

func (s *BoxService) List(ctx context.Context, storeID int) ([]*models.Box, error) {
	return s.Boxes.ListByStore(ctx, storeID)
}
