package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/dukerupert/frontdesk/internal/membership"
	"github.com/dukerupert/frontdesk/internal/model"
)

var manila = time.FixedZone("PHT", 8*60*60)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func strPtr(s string) *string { return &s }

func member(id, name string, plan model.PlanType, start, end time.Time, payment float64) model.Member {
	return model.Member{
		ID: id, Name: name, PlanType: plan, StartDate: start, EndDate: end,
		Status: model.MemberStatusActive, Payment: payment,
		CreatedAt: time.Date(start.Year(), start.Month(), start.Day(), 10, 0, 0, 0, manila),
	}
}

func checkIn(memberID string, at time.Time) model.Attendance {
	return model.Attendance{MemberID: memberID, Date: membership.DateOf(at), CheckInTime: at}
}

func TestWeekStart(t *testing.T) {
	// 2024-01-17 is a Wednesday.
	if got := WeekStart(day(2024, 1, 17)); !got.Equal(day(2024, 1, 15)) {
		t.Errorf("WeekStart(Wed) = %v, want 2024-01-15", got)
	}
	// Sunday belongs to the week that started the previous Monday.
	if got := WeekStart(day(2024, 1, 21)); !got.Equal(day(2024, 1, 15)) {
		t.Errorf("WeekStart(Sun) = %v, want 2024-01-15", got)
	}
	if got := WeekStart(day(2024, 1, 15)); !got.Equal(day(2024, 1, 15)) {
		t.Errorf("WeekStart(Mon) = %v, want 2024-01-15", got)
	}
}

func TestBuildDashboard(t *testing.T) {
	asOf := time.Date(2024, 1, 17, 15, 0, 0, 0, manila)
	members := []model.Member{
		member("a", "Ana", model.PlanMonthly, day(2024, 1, 17), day(2024, 2, 16), 800),
		member("b", "Ben", model.PlanWeekly, day(2024, 1, 15), day(2024, 1, 22), 300),
		member("c", "Cara", model.PlanWeekly, day(2023, 12, 1), day(2023, 12, 8), 300),
		member("d", "Dan", model.PlanSingleDay, day(2024, 1, 17), day(2024, 1, 17), 100),
	}
	members[3].Status = model.MemberStatusSuspended
	attendance := []model.Attendance{
		checkIn("a", time.Date(2024, 1, 17, 7, 0, 0, 0, manila)),
		checkIn("b", time.Date(2024, 1, 17, 8, 0, 0, 0, manila)),
		checkIn("b", time.Date(2024, 1, 15, 8, 0, 0, 0, manila)),
		checkIn("c", time.Date(2023, 12, 5, 8, 0, 0, 0, manila)),
	}

	d := BuildDashboard(members, attendance, asOf)
	if d.ActiveMembers != 2 {
		t.Errorf("active = %d, want 2", d.ActiveMembers)
	}
	if len(d.ExpiringSoon) != 1 || d.ExpiringSoon[0].ID != "b" {
		t.Errorf("expiring = %+v, want [b]", d.ExpiringSoon)
	}
	if d.TodayCheckIns != 2 {
		t.Errorf("today check-ins = %d, want 2", d.TodayCheckIns)
	}
	if d.TodayRevenue != 900 {
		t.Errorf("today revenue = %v, want 900", d.TodayRevenue)
	}
	if d.MonthlyRevenue != 1200 {
		t.Errorf("monthly revenue = %v, want 1200", d.MonthlyRevenue)
	}

	if len(d.WeeklyAttendance) != 7 || d.WeeklyAttendance[0].Label != "Mon" || d.WeeklyAttendance[6].Label != "Sun" {
		t.Fatalf("weekly attendance labels = %+v", d.WeeklyAttendance)
	}
	if d.WeeklyAttendance[0].Count != 1 || d.WeeklyAttendance[2].Count != 2 {
		t.Errorf("weekly attendance = %+v", d.WeeklyAttendance)
	}
	if d.WeeklySales[0].Amount != 300 || d.WeeklySales[2].Amount != 900 {
		t.Errorf("weekly sales = %+v", d.WeeklySales)
	}
}

func TestBuildDashboardExpiringBoundaries(t *testing.T) {
	asOf := day(2024, 1, 10)
	members := []model.Member{
		member("today", "A", model.PlanWeekly, day(2024, 1, 3), day(2024, 1, 10), 0),
		member("seven", "B", model.PlanWeekly, day(2024, 1, 10), day(2024, 1, 17), 0),
		member("eight", "C", model.PlanWeekly, day(2024, 1, 10), day(2024, 1, 18), 0),
	}
	d := BuildDashboard(members, nil, asOf)
	if len(d.ExpiringSoon) != 2 {
		t.Errorf("expiring = %d, want 2", len(d.ExpiringSoon))
	}
}

func TestBuildRevenue(t *testing.T) {
	members := []model.Member{
		member("a", "Ana", model.PlanMonthly, day(2024, 1, 5), day(2024, 2, 4), 800),
		member("b", "Ben", model.PlanWeekly, day(2024, 2, 5), day(2024, 2, 12), 300),
	}
	renewals := []model.Renewal{
		{MemberID: "a", Amount: 800, PlanType: model.PlanMonthly, CreatedAt: time.Date(2024, 2, 4, 9, 0, 0, 0, manila)},
		{MemberID: "b", Amount: 100, PlanType: model.PlanSingleDay, CreatedAt: time.Date(2024, 2, 12, 9, 0, 0, 0, manila)},
	}

	r := BuildRevenue(members, renewals, manila)
	if r.NewRevenue != 1100 || r.RenewalRevenue != 900 || r.TotalRevenue != 2000 {
		t.Errorf("totals = %v/%v/%v, want 1100/900/2000", r.NewRevenue, r.RenewalRevenue, r.TotalRevenue)
	}
	if len(r.BySource) != 2 || r.BySource[0].Label != SourceNewSignups {
		t.Errorf("by source = %+v", r.BySource)
	}

	want := []Amount{{"1 Day", 100}, {"Weekly", 300}, {"Monthly", 1600}}
	if len(r.ByPlan) != len(want) {
		t.Fatalf("by plan = %+v, want %+v", r.ByPlan, want)
	}
	for i := range want {
		if r.ByPlan[i] != want[i] {
			t.Errorf("by plan[%d] = %+v, want %+v", i, r.ByPlan[i], want[i])
		}
	}

	if len(r.ByMonth) != 2 || r.ByMonth[0] != (Amount{"2024-01", 800}) || r.ByMonth[1] != (Amount{"2024-02", 1200}) {
		t.Errorf("by month = %+v", r.ByMonth)
	}
}

func TestBuildRevenueSkipsEmptySources(t *testing.T) {
	members := []model.Member{member("a", "Ana", model.PlanWeekly, day(2024, 1, 5), day(2024, 1, 12), 300)}
	r := BuildRevenue(members, nil, manila)
	if len(r.BySource) != 1 || r.BySource[0].Label != SourceNewSignups {
		t.Errorf("by source = %+v", r.BySource)
	}
}

func TestBuildRetention(t *testing.T) {
	asOf := day(2024, 3, 1)
	members := []model.Member{
		member("a", "Ana", model.PlanMonthly, day(2024, 1, 5), day(2024, 3, 5), 800),
		member("b", "Ben", model.PlanWeekly, day(2024, 1, 20), day(2024, 1, 27), 300),
		member("c", "Cara", model.PlanWeekly, day(2024, 2, 1), day(2024, 2, 8), 300),
		member("d", "Dan", model.PlanMonthly, day(2024, 2, 10), day(2024, 3, 11), 800),
	}
	members[3].Status = model.MemberStatusSuspended
	renewals := []model.Renewal{{MemberID: "a"}, {MemberID: "a"}, {MemberID: "c"}}

	r := BuildRetention(members, renewals, asOf)
	if r.Total != 4 || r.Active != 1 || r.Expired != 2 || r.Suspended != 1 {
		t.Errorf("counts = %d/%d/%d/%d", r.Total, r.Active, r.Expired, r.Suspended)
	}
	if r.ChurnRate != 50 {
		t.Errorf("churn = %v, want 50", r.ChurnRate)
	}
	if r.RenewalRate != 50 {
		t.Errorf("renewal rate = %v, want 50", r.RenewalRate)
	}
	if len(r.Growth) != 2 || r.Growth[0] != (Growth{"2024-01", 2, 2}) || r.Growth[1] != (Growth{"2024-02", 2, 4}) {
		t.Errorf("growth = %+v", r.Growth)
	}
	if len(r.ByPlan) != 2 || r.ByPlan[0] != (Count{"Weekly", 2}) || r.ByPlan[1] != (Count{"Monthly", 2}) {
		t.Errorf("by plan = %+v", r.ByPlan)
	}
	if len(r.ByStatus) != 3 {
		t.Errorf("by status = %+v", r.ByStatus)
	}
}

func TestBuildRetentionEmpty(t *testing.T) {
	r := BuildRetention(nil, nil, day(2024, 3, 1))
	if r.ChurnRate != 0 || r.RenewalRate != 0 || math.IsNaN(r.ChurnRate) {
		t.Errorf("rates = %v/%v, want 0/0", r.ChurnRate, r.RenewalRate)
	}
	if len(r.ByStatus) != 0 {
		t.Errorf("by status = %+v, want empty", r.ByStatus)
	}
}

func TestHourLabel(t *testing.T) {
	tests := map[int]string{0: "12am", 5: "5am", 11: "11am", 12: "12pm", 13: "1pm", 23: "11pm"}
	for h, want := range tests {
		if got := HourLabel(h); got != want {
			t.Errorf("HourLabel(%d) = %q, want %q", h, got, want)
		}
	}
}

func TestBuildAttendance(t *testing.T) {
	attendance := []model.Attendance{
		// 2024-01-15 is a Monday.
		checkIn("a", time.Date(2024, 1, 15, 6, 10, 0, 0, manila)),
		checkIn("b", time.Date(2024, 1, 15, 6, 50, 0, 0, manila)),
		checkIn("c", time.Date(2024, 1, 15, 18, 0, 0, 0, manila)),
		checkIn("a", time.Date(2024, 1, 16, 4, 0, 0, 0, manila)),
	}

	r := BuildAttendance(attendance, manila)
	if r.TotalVisits != 4 {
		t.Errorf("total = %d, want 4", r.TotalVisits)
	}
	if r.AveragePerDay != 2 {
		t.Errorf("average = %d, want 2", r.AveragePerDay)
	}
	if r.BusiestDay != "Monday" || r.BusiestCount != 3 {
		t.Errorf("busiest = %s (%d), want Monday (3)", r.BusiestDay, r.BusiestCount)
	}
	if len(r.Daily) != 2 || r.Daily[0] != (Count{"2024-01-15", 3}) {
		t.Errorf("daily = %+v", r.Daily)
	}
	if len(r.ByWeekday) != 7 || r.ByWeekday[0].Label != "Sun" || r.ByWeekday[1] != (Count{"Mon", 3}) {
		t.Errorf("by weekday = %+v", r.ByWeekday)
	}

	if len(r.ByHour) != 19 || r.ByHour[0].Label != "5am" || r.ByHour[18].Label != "11pm" {
		t.Fatalf("by hour labels = %+v", r.ByHour)
	}
	if r.ByHour[1] != (Count{"6am", 2}) || r.ByHour[13] != (Count{"6pm", 1}) {
		t.Errorf("by hour = %+v", r.ByHour)
	}
	total := 0
	for _, c := range r.ByHour {
		total += c.Count
	}
	if total != 3 {
		t.Errorf("hourly total = %d, want 3 (4am is outside opening hours)", total)
	}
}

func TestBuildAttendanceEmpty(t *testing.T) {
	r := BuildAttendance(nil, manila)
	if r.BusiestDay != "-" || r.AveragePerDay != 0 || len(r.Daily) != 0 {
		t.Errorf("empty = %+v", r)
	}
}

func TestBuildAttendanceKeepsRecentDays(t *testing.T) {
	var attendance []model.Attendance
	start := time.Date(2024, 1, 1, 8, 0, 0, 0, manila)
	for i := 0; i < 40; i++ {
		attendance = append(attendance, checkIn("a", start.AddDate(0, 0, i)))
	}
	r := BuildAttendance(attendance, manila)
	if len(r.Daily) != 30 {
		t.Fatalf("daily = %d, want 30", len(r.Daily))
	}
	if r.Daily[0].Label != "2024-01-11" || r.Daily[29].Label != "2024-02-09" {
		t.Errorf("daily range = %s..%s", r.Daily[0].Label, r.Daily[29].Label)
	}
}

func TestBuildHistory(t *testing.T) {
	asOf := day(2024, 3, 1)
	ana := member("a", "Ana Cruz", model.PlanMonthly, day(2024, 1, 5), day(2024, 3, 5), 800)
	ana.Email = strPtr("ana@gym.ph")
	ben := member("b", "Ben", model.PlanWeekly, day(2024, 1, 20), day(2024, 1, 27), 300)
	attendance := []model.Attendance{
		checkIn("a", time.Date(2024, 1, 6, 8, 0, 0, 0, manila)),
		checkIn("a", time.Date(2024, 1, 7, 8, 0, 0, 0, manila)),
		checkIn("b", time.Date(2024, 1, 21, 8, 0, 0, 0, manila)),
	}
	renewals := []model.Renewal{{MemberID: "a", Amount: 800}, {MemberID: "a", Amount: 750}}

	rows := BuildHistory([]model.Member{ana, ben}, attendance, renewals, "", asOf)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].Visits != 2 || rows[0].Renewals != 2 || rows[0].TotalPaid != 2350 {
		t.Errorf("ana = %+v", rows[0])
	}
	if rows[1].Status != membership.StatusExpired || rows[1].TotalPaid != 300 {
		t.Errorf("ben = %+v", rows[1])
	}

	byEmail := BuildHistory([]model.Member{ana, ben}, attendance, renewals, "GYM.PH", asOf)
	if len(byEmail) != 1 || byEmail[0].Member.ID != "a" {
		t.Errorf("search by email = %+v", byEmail)
	}
}

func TestBuildDrilldown(t *testing.T) {
	ana := member("a", "Ana", model.PlanMonthly, day(2024, 1, 5), day(2024, 3, 5), 800)
	attendance := []model.Attendance{
		checkIn("a", time.Date(2024, 1, 6, 8, 0, 0, 0, manila)),
		checkIn("a", time.Date(2024, 2, 7, 8, 0, 0, 0, manila)),
		checkIn("a", time.Date(2024, 2, 9, 8, 0, 0, 0, manila)),
	}
	renewals := []model.Renewal{
		{ID: 1, MemberID: "a", Amount: 800, CreatedAt: time.Date(2024, 2, 4, 9, 0, 0, 0, manila)},
		{ID: 2, MemberID: "a", Amount: 700, CreatedAt: time.Date(2024, 3, 4, 9, 0, 0, 0, manila)},
	}

	d := BuildDrilldown(ana, attendance, renewals, day(2024, 3, 1))
	if d.TotalPaid != 2300 {
		t.Errorf("total paid = %v, want 2300", d.TotalPaid)
	}
	if d.TotalVisits != 3 {
		t.Errorf("total visits = %d, want 3", d.TotalVisits)
	}
	if len(d.VisitsByMonth) != 2 || d.VisitsByMonth[0] != (Count{"2024-01", 1}) || d.VisitsByMonth[1] != (Count{"2024-02", 2}) {
		t.Errorf("visits by month = %+v", d.VisitsByMonth)
	}
	if d.Renewals[0].ID != 2 {
		t.Errorf("first renewal = %d, want newest (2)", d.Renewals[0].ID)
	}
	if !d.Attendance[0].Date.Equal(day(2024, 2, 9)) {
		t.Errorf("first attendance = %v, want 2024-02-09", d.Attendance[0].Date)
	}
	if renewals[0].ID != 1 {
		t.Error("input renewals were reordered")
	}
}

func TestFilterMembers(t *testing.T) {
	asOf := day(2024, 3, 1)
	members := []model.Member{
		member("a", "Ana", model.PlanMonthly, day(2024, 2, 5), day(2024, 3, 6), 800),
		member("b", "Ben", model.PlanWeekly, day(2024, 1, 20), day(2024, 1, 27), 300),
		member("c", "Banjo", model.PlanWeekly, day(2024, 2, 28), day(2024, 3, 6), 300),
	}

	if got := FilterMembers(members, MemberFilter{}, asOf); len(got) != 3 {
		t.Errorf("no filter = %d, want 3", len(got))
	}
	if got := FilterMembers(members, MemberFilter{Search: "b"}, asOf); len(got) != 2 {
		t.Errorf("search b = %d, want 2", len(got))
	}
	if got := FilterMembers(members, MemberFilter{Plan: model.PlanWeekly, Status: membership.StatusActive}, asOf); len(got) != 1 || got[0].ID != "c" {
		t.Errorf("weekly active = %+v", got)
	}
	if got := FilterMembers(members, MemberFilter{Status: membership.StatusExpired}, asOf); len(got) != 1 || got[0].ID != "b" {
		t.Errorf("expired = %+v", got)
	}
}
