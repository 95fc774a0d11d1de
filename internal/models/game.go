package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Game is the immutable reference data for one instant-ticket game.
// Created by administrators through the store-configuration surface;
// the reconciliation core only reads pricing and commission figures.
type Game struct {
	ID             int             `json:"id"`
	Code           string          `json:"code"` // e.g. "G1", unique
	Name           string          `json:"name"`
	TicketPrice    decimal.Decimal `json:"ticket_price"`
	PackSize       int             `json:"pack_size"`        // tickets per pack
	CommissionRate decimal.Decimal `json:"commission_rate"`  // fraction, e.g. 0.05
	Active         bool            `json:"active"`
	CreatedAt      time.Time       `json:"created_at"`
}

// FinalTicket returns the last sellable ticket index for a pack of this
// game starting at startTicket.
func (g *Game) FinalTicket(startTicket int) int {
	return startTicket + g.PackSize - 1
}

// CreateGameRequest is used when registering a new game
type CreateGameRequest struct {
	Code           string          `json:"code" validate:"required"`
	Name           string          `json:"name" validate:"required"`
	TicketPrice    decimal.Decimal `json:"ticket_price" validate:"required"`
	PackSize       int             `json:"pack_size" validate:"required,gt=0"`
	CommissionRate decimal.Decimal `json:"commission_rate" validate:"required"`
}
