package membership

import (
	"time"

	"github.com/dukerupert/frontdesk/internal/model"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusExpired   Status = "expired"
	StatusSuspended Status = "suspended"
)

// EffectiveStatus combines the stored suspension flag with date-based expiry.
// A membership stays active through the whole of its end date.
func EffectiveStatus(m model.Member, asOf time.Time) Status {
	if m.Status == model.MemberStatusSuspended {
		return StatusSuspended
	}
	if DateOf(asOf).After(DateOf(m.EndDate)) {
		return StatusExpired
	}
	return StatusActive
}

// DateOf returns the calendar date of t, read in t's location, as 00:00 UTC.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysUntil returns the number of calendar days from asOf to end. Negative
// once end has passed.
func DaysUntil(end, asOf time.Time) int {
	return int(DateOf(end).Sub(DateOf(asOf)).Hours() / 24)
}
