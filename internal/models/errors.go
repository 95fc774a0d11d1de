package models

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the reconciliation core. Handlers map these to
// HTTP statuses; services return them wrapped with context.
var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")           // box already holds a different active pack, or a racing write
	ErrPackClosed = errors.New("pack closed")        // sold_out/returned packs reject readings
	ErrValidation = errors.New("validation failed")  // malformed input, rejected with no state change
	ErrState      = errors.New("invalid transition") // anomaly already terminal
)

// OutOfRangeError rejects a reading whose ticket number falls outside
// the pack's valid range. The reading is not persisted; the anomaly is.
type OutOfRangeError struct {
	PackID       int
	TicketNumber int
	Low, High    int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("ticket %d outside pack %d range [%d, %d]",
		e.TicketNumber, e.PackID, e.Low, e.High)
}

// PostingBlockedError is returned by the posting gate when open
// high-severity anomalies exist for the date. It names every blocker so
// the caller knows exactly what must be resolved.
type PostingBlockedError struct {
	StoreID      int
	BusinessDate string
	Anomalies    []*Anomaly
}

func (e *PostingBlockedError) Error() string {
	details := make([]string, 0, len(e.Anomalies))
	for _, a := range e.Anomalies {
		details = append(details, fmt.Sprintf("#%d %s: %s", a.ID, a.Type, a.Detail))
	}
	return fmt.Sprintf("day-close posting blocked for store %d on %s by %d open high-severity anomalies: %s",
		e.StoreID, e.BusinessDate, len(e.Anomalies), strings.Join(details, "; "))
}
