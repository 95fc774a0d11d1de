package repositories

import (
	"context"
	"errors"
	"fmt"

	"lotto-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type GameRepository struct {
	DB *pgxpool.Pool
}

func NewGameRepository(db *pgxpool.Pool) *GameRepository {
	return &GameRepository{DB: db}
}

// Create registers a new game. Game reference data is owned by the
// store-configuration surface; this core only reads it afterwards.
func (r *GameRepository) Create(ctx context.Context, req *models.CreateGameRequest) (*models.Game, error) {
	game := &models.Game{
		Code:           req.Code,
		Name:           req.Name,
		TicketPrice:    req.TicketPrice,
		PackSize:       req.PackSize,
		CommissionRate: req.CommissionRate,
		Active:         true,
	}

	err := r.DB.QueryRow(ctx,
		`INSERT INTO games (code, name, ticket_price, pack_size, commission_rate, active)
		 VALUES ($1, $2, $3, $4, $5, true)
		 RETURNING id, created_at`,
		req.Code, req.Name, req.TicketPrice, req.PackSize, req.CommissionRate,
	).Scan(&game.ID, &game.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	return game, nil
}

func (r *GameRepository) Get(ctx context.Context, id int) (*models.Game, error) {
	return r.scanOne(r.DB.QueryRow(ctx,
		`SELECT id, code, name, ticket_price, pack_size, commission_rate, active, created_at
		 FROM games WHERE id = $1`, id))
}

func (r *GameRepository) GetByCode(ctx context.Context, code string) (*models.Game, error) {
	return r.scanOne(r.DB.QueryRow(ctx,
		`SELECT id, code, name, ticket_price, pack_size, commission_rate, active, created_at
		 FROM games WHERE code = $1`, code))
}

func (r *GameRepository) List(ctx context.Context) ([]*models.Game, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, code, name, ticket_price, pack_size, commission_rate, active, created_at
		 FROM games ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var games []*models.Game
	for rows.Next() {
		var g models.Game
		if err := rows.Scan(&g.ID, &g.Code, &g.Name, &g.TicketPrice,
			&g.PackSize, &g.CommissionRate, &g.Active, &g.CreatedAt); err != nil {
			return nil, err
		}
		games = append(games, &g)
	}

	return games, rows.Err()
}

func (r *GameRepository) scanOne(row pgx.Row) (*models.Game, error) {
	var g models.Game
	err := row.Scan(&g.ID, &g.Code, &g.Name, &g.TicketPrice,
		&g.PackSize, &g.CommissionRate, &g.Active, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &g, nil
}
