package checkin

import (
	"errors"
	"log/slog"
	"time"

	"github.com/dukerupert/frontdesk/internal/membership"
	"github.com/dukerupert/frontdesk/internal/model"
)

type Outcome string

const (
	OutcomeValid       Outcome = "valid"
	OutcomeAlreadyUsed Outcome = "already_used"
	OutcomeExpired     Outcome = "expired"
	OutcomeSuspended   Outcome = "suspended"
	OutcomeNotFound    Outcome = "not_found"
)

const (
	MessageValid       = "Check-in successful!"
	MessageAlreadyUsed = "Already checked in today."
	MessageExpired     = "This membership has expired."
	MessageSuspended   = "This membership is suspended."
	MessageNotFound    = "Member not found. Invalid QR code."
	MessageError       = "An error occurred. Please try again."
)

// Store is the storage the admission procedure reads and writes. Lookups that
// miss return nil without an error.
type Store interface {
	GetMember(id string) (*model.Member, error)
	CountAttendance(memberID string) (int, error)
	FindAttendance(memberID string, date time.Time) (*model.Attendance, error)
	// InsertAttendance returns model.ErrAlreadyCheckedIn when the member
	// already has a row for date.
	InsertAttendance(memberID string, date, at time.Time) (*model.Attendance, error)
}

// Result is the outcome of one check-in attempt.
type Result struct {
	Outcome     Outcome           `json:"outcome"`
	Message     string            `json:"message"`
	Member      *model.Member     `json:"member,omitempty"`
	Status      membership.Status `json:"effective_status,omitempty"`
	TotalVisits int               `json:"total_visits"`
	Attendance  *model.Attendance `json:"attendance,omitempty"`
	Err         error             `json:"-"`
}

// Admit decides whether token is admitted at now and records the attendance
// when it is. Storage failures surface as OutcomeNotFound with Err set.
func Admit(st Store, token string, now time.Time, logger *slog.Logger) Result {
	if logger == nil {
		logger = slog.Default()
	}
	fail := func(stage string, err error) Result {
		logger.Error("check-in storage failure", "stage", stage, "token", token, "error", err)
		return Result{Outcome: OutcomeNotFound, Message: MessageError, Err: err}
	}

	if token == "" {
		return Result{Outcome: OutcomeNotFound, Message: MessageNotFound}
	}

	member, err := st.GetMember(token)
	if err != nil {
		return fail("get member", err)
	}
	if member == nil {
		return Result{Outcome: OutcomeNotFound, Message: MessageNotFound}
	}

	visits, err := st.CountAttendance(member.ID)
	if err != nil {
		return fail("count attendance", err)
	}

	res := Result{Member: member, TotalVisits: visits}
	res.Status = membership.EffectiveStatus(*member, now)
	switch res.Status {
	case membership.StatusSuspended:
		res.Outcome, res.Message = OutcomeSuspended, MessageSuspended
		return res
	case membership.StatusExpired:
		res.Outcome, res.Message = OutcomeExpired, MessageExpired
		return res
	}

	today := membership.DateOf(now)
	existing, err := st.FindAttendance(member.ID, today)
	if err != nil {
		return fail("find attendance", err)
	}
	if existing != nil {
		res.Outcome, res.Message = OutcomeAlreadyUsed, MessageAlreadyUsed
		return res
	}

	att, err := st.InsertAttendance(member.ID, today, now)
	if errors.Is(err, model.ErrAlreadyCheckedIn) {
		res.Outcome, res.Message = OutcomeAlreadyUsed, MessageAlreadyUsed
		return res
	}
	if err != nil {
		return fail("insert attendance", err)
	}

	res.Outcome, res.Message = OutcomeValid, MessageValid
	res.TotalVisits = visits + 1
	res.Attendance = att
	return res
}
