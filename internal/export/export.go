// Package export renders attendance, member history and renewal logs as CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dukerupert/frontdesk/internal/analytics"
	"github.com/dukerupert/frontdesk/internal/membership"
	"github.com/dukerupert/frontdesk/internal/model"
)

const (
	timeLayout    = "15:04:05"
	unknownMember = "Unknown Member"
)

var (
	attendanceHeader = []string{"Date", "Time", "Member Name", "Member ID"}
	historyHeader    = []string{"Name", "Email", "Type", "Status", "Start Date", "Total Visits", "Renewals", "Total Paid (P)"}
	renewalHeader    = []string{"Date", "Member Name", "Type", "Amount", "Before End Date", "After End Date"}
)

// Attendance writes the attendance log. Check-in times are shown in loc.
func Attendance(w io.Writer, rows []model.Attendance, loc *time.Location) error {
	return write(w, attendanceHeader, len(rows), func(i int) []string {
		a := rows[i]
		clock := ""
		if !a.CheckInTime.IsZero() {
			clock = a.CheckInTime.In(loc).Format(timeLayout)
		}
		return []string{a.Date.Format(model.DateLayout), clock, memberName(a.MemberName), a.MemberID}
	})
}

// History writes one line per member history row.
func History(w io.Writer, rows []analytics.HistoryRow) error {
	return write(w, historyHeader, len(rows), func(i int) []string {
		r := rows[i]
		email := ""
		if r.Member.Email != nil {
			email = *r.Member.Email
		}
		return []string{
			r.Member.Name,
			email,
			membership.PlanLabel(r.Member.PlanType),
			string(r.Status),
			r.Member.StartDate.Format(model.DateLayout),
			strconv.Itoa(r.Visits),
			strconv.Itoa(r.Renewals),
			money(r.TotalPaid),
		}
	})
}

// Renewals writes the renewal log. The renewal date is read in loc.
func Renewals(w io.Writer, rows []model.Renewal, loc *time.Location) error {
	return write(w, renewalHeader, len(rows), func(i int) []string {
		r := rows[i]
		return []string{
			r.CreatedAt.In(loc).Format(model.DateLayout),
			memberName(r.MemberName),
			membership.PlanLabel(r.PlanType),
			money(r.Amount),
			r.PreviousEndDate.Format(model.DateLayout),
			r.NewEndDate.Format(model.DateLayout),
		}
	})
}

func write(w io.Writer, header []string, n int, row func(int) []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := 0; i < n; i++ {
		if err := cw.Write(row(i)); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func memberName(name string) string {
	if name == "" {
		return unknownMember
	}
	return name
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
