package models

import "time"

// ReadingSource indicates how a ticket-count observation was captured
type ReadingSource string

const (
	ReadingSourceManual ReadingSource = "manual" // Typed in by an employee
	ReadingSourceScan   ReadingSource = "scan"   // Barcode scanner
	ReadingSourceOCR    ReadingSource = "ocr"    // Camera/OCR capture
)

// Reading is an immutable point-in-time observation of a pack's current
// ticket number. Readings are append-only; the pack's "current" count is
// the ticket number of its most recent reading.
type Reading struct {
	ID           int           `json:"id"`
	StoreID      int           `json:"store_id"`
	PackID       int           `json:"pack_id"`
	BoxLabel     string        `json:"box_label"` // label claimed at capture time
	TicketNumber int           `json:"ticket_number"`
	PrevTicket   *int          `json:"prev_ticket"` // ticket number of the prior reading, nil for the first
	Source       ReadingSource `json:"source"`
	BusinessDate string        `json:"business_date"` // YYYY-MM-DD store-local date
	RecordedBy   int           `json:"recorded_by"`
	RecordedName string        `json:"recorded_by_name"`
	CreatedAt    time.Time     `json:"created_at"`
}

// Delta returns the positive ticket progression since the previous
// reading, zero for the first reading of a pack or for a regression.
func (r *Reading) Delta() int {
	if r.PrevTicket == nil {
		return 0
	}
	d := r.TicketNumber - *r.PrevTicket
	if d < 0 {
		return 0
	}
	return d
}

// RecordReadingRequest is the payload for submitting an observation
type RecordReadingRequest struct {
	PackID       int           `json:"pack_id" validate:"required"`
	BoxLabel     string        `json:"box_label" validate:"required"`
	TicketNumber int           `json:"ticket_number" validate:"gte=0"`
	Source       ReadingSource `json:"source" validate:"required,oneof=manual scan ocr"`
}

// ReadingResult is the tagged result of a successful reading submission:
// the persisted reading plus any anomalies raised while validating it.
// A reading can succeed and still carry findings; only out-of-range
// observations are hard-rejected.
type ReadingResult struct {
	Reading   *Reading   `json:"reading"`
	Anomalies []*Anomaly `json:"anomalies"`
	Warnings  []string   `json:"warnings,omitempty"`
}
