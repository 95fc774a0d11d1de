package timeutil

import (
	"time"
)

// Store-local timezone for business dates. Day-close keys on the
// store's calendar day, not UTC.
var StoreTZ *time.Location

func init() {
	var err error
	StoreTZ, err = time.LoadLocation("America/New_York")
	if err != nil {
		StoreTZ = time.FixedZone("EST", -5*60*60)
	}
}

// Now returns the current time in the store timezone
func Now() time.Time {
	return time.Now().In(StoreTZ)
}

// BusinessDate returns the store-local calendar date for t.
func BusinessDate(t time.Time) string {
	return t.In(StoreTZ).Format(DateLayout)
}

// ParseDate validates a YYYY-MM-DD business date string.
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, value, StoreTZ)
}

// StartOfDay returns the start of the store-local day for the given time
func StartOfDay(t time.Time) time.Time {
	lt := t.In(StoreTZ)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, StoreTZ)
}

// Common layouts
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
)
