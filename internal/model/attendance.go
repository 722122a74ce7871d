package model

import "time"

// Attendance is one admitted check-in. Date is the admission calendar date.
type Attendance struct {
	ID          int64     `json:"id"`
	MemberID    string    `json:"member_id"`
	Date        time.Time `json:"date"`
	CheckInTime time.Time `json:"check_in_time"`
	MemberName  string    `json:"member_name,omitempty"`
}
