package models

import "time"

// PackStatus represents the lifecycle state of a pack
type PackStatus string

const (
	PackStatusActive   PackStatus = "active"   // Assigned or assignable, accepting readings
	PackStatusSoldOut  PackStatus = "sold_out" // Final ticket observed, rejects further readings
	PackStatusReturned PackStatus = "returned" // Sent back to the lottery supplier
)

// Pack is one shipment unit of sequentially numbered tickets for a game.
// A pack is assigned to at most one box at a time.
//
// Invariant: StartTicket <= CurrentTicket < StartTicket + game.PackSize.
type Pack struct {
	ID            int        `json:"id"`
	StoreID       int        `json:"store_id"`
	GameID        int        `json:"game_id"`
	PackNumber    string     `json:"pack_number"` // supplier-issued identifier
	BoxID         *int       `json:"box_id"`      // nil when not in a dispenser
	StartTicket   int        `json:"start_ticket"`
	CurrentTicket int        `json:"current_ticket"` // last observed ticket index
	Status        PackStatus `json:"status"`
	ReceivedAt    time.Time  `json:"received_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// IsActive reports whether the pack may still receive readings.
func (p *Pack) IsActive() bool {
	return p.Status == PackStatusActive
}

// CreatePackRequest is used when receiving a pack shipment
type CreatePackRequest struct {
	StoreID     int    `json:"store_id" validate:"required"`
	GameID      int    `json:"game_id" validate:"required"`
	PackNumber  string `json:"pack_number" validate:"required"`
	StartTicket int    `json:"start_ticket" validate:"gte=0"`
}

// AssignPackRequest assigns a pack to a dispenser box. Supersede
// releases the box's current occupant instead of conflicting.
type AssignPackRequest struct {
	BoxID     int  `json:"box_id" validate:"required"`
	Supersede bool `json:"supersede"`
}
