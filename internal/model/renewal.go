package model

import "time"

// Renewal is an append-only record of one renewal action.
type Renewal struct {
	ID              int64     `json:"id"`
	MemberID        string    `json:"member_id"`
	Amount          float64   `json:"amount"`
	PlanType        PlanType  `json:"plan_type"`
	PreviousEndDate time.Time `json:"previous_end_date"`
	NewEndDate      time.Time `json:"new_end_date"`
	CreatedAt       time.Time `json:"created_at"`
	MemberName      string    `json:"member_name,omitempty"`
}
