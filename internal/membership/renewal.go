package membership

import (
	"time"

	"github.com/dukerupert/frontdesk/internal/model"
)

// Renewal describes the member mutation and log entry produced by renewing.
type Renewal struct {
	PlanType        model.PlanType
	PreviousEndDate time.Time
	NewEndDate      time.Time
	NewStatus       model.MemberStatus
}

// RenewalEndDate extends from the later of currentEnd and asOf's date. Unlike
// EndDate, a single-day plan adds one day here.
func RenewalEndDate(currentEnd time.Time, p model.PlanType, asOf time.Time) (time.Time, error) {
	days, err := PlanDays(p)
	if err != nil {
		return time.Time{}, err
	}
	if days == 0 {
		days = 1
	}

	anchor := DateOf(currentEnd)
	if today := DateOf(asOf); anchor.Before(today) {
		anchor = today
	}
	return anchor.AddDate(0, 0, days), nil
}

// Renew computes the renewal of m under plan p. Renewal always reactivates.
func Renew(m model.Member, p model.PlanType, asOf time.Time) (Renewal, error) {
	end, err := RenewalEndDate(m.EndDate, p, asOf)
	if err != nil {
		return Renewal{}, err
	}
	return Renewal{
		PlanType:        p,
		PreviousEndDate: DateOf(m.EndDate),
		NewEndDate:      end,
		NewStatus:       model.MemberStatusActive,
	}, nil
}
