package analytics

import (
	"sort"
	"strings"
	"time"

	"github.com/dukerupert/frontdesk/internal/membership"
	"github.com/dukerupert/frontdesk/internal/model"
)

// HistoryRow is one member's lifetime summary.
type HistoryRow struct {
	Member    model.Member      `json:"member"`
	Status    membership.Status `json:"effective_status"`
	Visits    int               `json:"visits"`
	Renewals  int               `json:"renewals"`
	TotalPaid float64           `json:"total_paid"`
}

// MatchesSearch reports whether q is a case-insensitive substring of the
// member's name or email. An empty q matches everyone.
func MatchesSearch(m model.Member, q string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(m.Name), q) {
		return true
	}
	return m.Email != nil && strings.Contains(strings.ToLower(*m.Email), q)
}

// BuildHistory summarizes each member matching search, keeping the order of
// members. Total paid is the signup payment plus every renewal.
func BuildHistory(members []model.Member, attendance []model.Attendance, renewals []model.Renewal, search string, asOf time.Time) []HistoryRow {
	visits := make(map[string]int)
	for _, a := range attendance {
		visits[a.MemberID]++
	}
	renewCount := make(map[string]int)
	renewPaid := make(map[string]float64)
	for _, r := range renewals {
		renewCount[r.MemberID]++
		renewPaid[r.MemberID] += r.Amount
	}

	rows := []HistoryRow{}
	for _, m := range members {
		if !MatchesSearch(m, search) {
			continue
		}
		rows = append(rows, HistoryRow{
			Member:    m,
			Status:    membership.EffectiveStatus(m, asOf),
			Visits:    visits[m.ID],
			Renewals:  renewCount[m.ID],
			TotalPaid: m.Payment + renewPaid[m.ID],
		})
	}
	return rows
}

type Drilldown struct {
	Member        model.Member       `json:"member"`
	Status        membership.Status  `json:"effective_status"`
	TotalVisits   int                `json:"total_visits"`
	TotalPaid     float64            `json:"total_paid"`
	VisitsByMonth []Count            `json:"visits_by_month"`
	Renewals      []model.Renewal    `json:"renewals"`
	Attendance    []model.Attendance `json:"attendance"`
}

// BuildDrilldown details one member. attendance and renewals must belong to
// m; both are returned newest first.
func BuildDrilldown(m model.Member, attendance []model.Attendance, renewals []model.Renewal, asOf time.Time) Drilldown {
	d := Drilldown{
		Member:        m,
		Status:        membership.EffectiveStatus(m, asOf),
		TotalVisits:   len(attendance),
		TotalPaid:     m.Payment,
		VisitsByMonth: []Count{},
		Renewals:      append([]model.Renewal{}, renewals...),
		Attendance:    append([]model.Attendance{}, attendance...),
	}

	months := make(map[string]int)
	for _, a := range attendance {
		months[monthKey(a.Date)]++
	}
	for _, k := range sortedKeys(months) {
		d.VisitsByMonth = append(d.VisitsByMonth, Count{Label: k, Count: months[k]})
	}

	for _, r := range renewals {
		d.TotalPaid += r.Amount
	}

	sort.SliceStable(d.Renewals, func(i, j int) bool {
		return d.Renewals[i].CreatedAt.After(d.Renewals[j].CreatedAt)
	})
	sort.SliceStable(d.Attendance, func(i, j int) bool {
		return d.Attendance[i].CheckInTime.After(d.Attendance[j].CheckInTime)
	})
	return d
}
