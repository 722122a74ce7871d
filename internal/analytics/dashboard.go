package analytics

import (
	"time"

	"github.com/dukerupert/frontdesk/internal/membership"
	"github.com/dukerupert/frontdesk/internal/model"
)

// ExpiringWindowDays is how far ahead the dashboard looks for memberships
// about to lapse.
const ExpiringWindowDays = 7

var weekLabels = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

type Dashboard struct {
	ActiveMembers    int            `json:"active_members"`
	ExpiringSoon     []model.Member `json:"expiring_soon"`
	TodayCheckIns    int            `json:"today_check_ins"`
	TodayRevenue     float64        `json:"today_revenue"`
	MonthlyRevenue   float64        `json:"monthly_revenue"`
	WeeklyAttendance []Count        `json:"weekly_attendance"`
	WeeklySales      []Amount       `json:"weekly_sales"`
}

// WeekStart returns the Monday of the week containing asOf's date.
func WeekStart(asOf time.Time) time.Time {
	today := membership.DateOf(asOf)
	offset := (int(today.Weekday()) + 6) % 7
	return today.AddDate(0, 0, -offset)
}

// BuildDashboard computes the front desk overview. Revenue figures count
// signup payments by the member's creation date.
func BuildDashboard(members []model.Member, attendance []model.Attendance, asOf time.Time) Dashboard {
	loc := asOf.Location()
	today := membership.DateOf(asOf)
	monday := WeekStart(asOf)

	d := Dashboard{ExpiringSoon: []model.Member{}}

	checkIns := make(map[time.Time]int)
	for _, a := range attendance {
		checkIns[a.Date]++
	}
	d.TodayCheckIns = checkIns[today]

	sales := make(map[time.Time]float64)
	for _, m := range members {
		if membership.EffectiveStatus(m, asOf) == membership.StatusActive {
			d.ActiveMembers++
			if left := membership.DaysUntil(m.EndDate, asOf); left >= 0 && left <= ExpiringWindowDays {
				d.ExpiringSoon = append(d.ExpiringSoon, m)
			}
		}

		created := localDate(m.CreatedAt, loc)
		sales[created] += m.Payment
		if created.Equal(today) {
			d.TodayRevenue += m.Payment
		}
		if monthKey(created) == monthKey(today) {
			d.MonthlyRevenue += m.Payment
		}
	}

	for i, label := range weekLabels {
		day := monday.AddDate(0, 0, i)
		d.WeeklyAttendance = append(d.WeeklyAttendance, Count{Label: label, Count: checkIns[day]})
		d.WeeklySales = append(d.WeeklySales, Amount{Label: label, Amount: sales[day]})
	}
	return d
}
