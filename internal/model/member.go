package model

import (
	"errors"
	"time"
)

// DateLayout is the storage and wire format of calendar dates.
const DateLayout = "2006-01-02"

type PlanType string

const (
	PlanSingleDay PlanType = "1day"
	PlanWeekly    PlanType = "weekly"
	PlanMonthly   PlanType = "monthly"
)

// MemberStatus is the operator-controlled stored status. Expiry is derived,
// never stored.
type MemberStatus string

const (
	MemberStatusActive    MemberStatus = "active"
	MemberStatusSuspended MemberStatus = "suspended"
)

var (
	ErrInvalidPlan      = errors.New("invalid plan type")
	ErrMemberNotFound   = errors.New("member not found")
	ErrAlreadyCheckedIn = errors.New("already checked in for this date")
)

// Member is a gym member. StartDate and EndDate are calendar dates held at
// 00:00 UTC.
type Member struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Email     *string      `json:"email"`
	Photo     *string      `json:"photo"`
	PlanType  PlanType     `json:"plan_type"`
	StartDate time.Time    `json:"start_date"`
	EndDate   time.Time    `json:"end_date"`
	Status    MemberStatus `json:"status"`
	Payment   float64      `json:"payment"`
	CreatedAt time.Time    `json:"created_at"`
}
