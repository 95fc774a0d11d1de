package models

import "time"

// AnomalyType classifies a detected reconciliation deviation
type AnomalyType string

const (
	AnomalyTicketRegression AnomalyType = "ticket_regression" // Count went backwards
	AnomalyOutOfRange       AnomalyType = "out_of_range"      // Ticket number outside the pack's range
	AnomalyBoxPackMismatch  AnomalyType = "box_pack_mismatch" // Claimed box differs from assignment
	AnomalyMissingReading   AnomalyType = "missing_reading"   // Active box never counted that day
	AnomalySkippedRange     AnomalyType = "skipped_range"     // Implausibly large jump between readings
)

// AnomalySeverity ranks how strongly an anomaly gates day-close
type AnomalySeverity string

const (
	SeverityLow    AnomalySeverity = "low"
	SeverityMedium AnomalySeverity = "medium"
	SeverityHigh   AnomalySeverity = "high" // Open high-severity anomalies block posting
)

// AnomalyStatus is the resolution lifecycle state
type AnomalyStatus string

const (
	AnomalyStatusOpen         AnomalyStatus = "open"
	AnomalyStatusAcknowledged AnomalyStatus = "acknowledged" // Terminal, no note required
	AnomalyStatusResolved     AnomalyStatus = "resolved"     // Terminal, note required
)

// Anomaly is a detected deviation from expected sale progression.
// Anomalies are never deleted, only state-transitioned, preserving the
// audit trail. A recurring issue raises a new record tied to the next
// reading.
type Anomaly struct {
	ID             int             `json:"id"`
	StoreID        int             `json:"store_id"`
	BusinessDate   string          `json:"business_date"`
	Type           AnomalyType     `json:"type"`
	Severity       AnomalySeverity `json:"severity"`
	PackID         *int            `json:"pack_id"`
	BoxID          *int            `json:"box_id"`
	ReadingID      *int            `json:"reading_id"`
	Detail         string          `json:"detail"` // human-readable, triageable without logs
	Status         AnomalyStatus   `json:"status"`
	ResolutionNote string          `json:"resolution_note,omitempty"`
	ResolvedBy     *int            `json:"resolved_by,omitempty"`
	ResolvedByName string          `json:"resolved_by_name,omitempty"`
	DetectedAt     time.Time       `json:"detected_at"`
	ResolvedAt     *time.Time      `json:"resolved_at,omitempty"`
}

// IsTerminal reports whether the anomaly can no longer be transitioned.
func (a *Anomaly) IsTerminal() bool {
	return a.Status != AnomalyStatusOpen
}

// Blocking reports whether this anomaly, in its current state, blocks
// posting of its business date.
func (a *Anomaly) Blocking() bool {
	return a.Status == AnomalyStatusOpen && a.Severity == SeverityHigh
}

// ResolveAnomalyRequest carries the mandatory resolution note
type ResolveAnomalyRequest struct {
	Note string `json:"note" validate:"required"`
}

// AnomalyFilter is used for triage listings
type AnomalyFilter struct {
	StoreID      int             `json:"store_id"`
	BusinessDate string          `json:"business_date"`
	Status       AnomalyStatus   `json:"status"`
	Severity     AnomalySeverity `json:"severity"`
	Type         AnomalyType     `json:"type"`
	Limit        int             `json:"limit"`
	Offset       int             `json:"offset"`
}
