package models

import "time"

// Box is a physical dispenser slot at a store. The label is unique per
// store. Boxes are never deleted while referenced by pack history.
type Box struct {
	ID        int       `json:"id"`
	StoreID   int       `json:"store_id"`
	Label     string    `json:"label"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateBoxRequest is used when setting up a new dispenser slot
type CreateBoxRequest struct {
	StoreID int    `json:"store_id" validate:"required"`
	Label   string `json:"label" validate:"required"`
}

// BoxActivity is a per-box slice of a day-close: whether the box saw at
// least one reading on the business date. Used for warning generation.
type BoxActivity struct {
	BoxID      int    `json:"box_id"`
	Label      string `json:"label"`
	HasPack    bool   `json:"has_pack"`
	HasReading bool   `json:"has_reading"`
}
