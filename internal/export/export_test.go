package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/dukerupert/frontdesk/internal/analytics"
	"github.com/dukerupert/frontdesk/internal/membership"
	"github.com/dukerupert/frontdesk/internal/model"
)

var manila = time.FixedZone("PHT", 8*60*60)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func readAll(t *testing.T, buf *bytes.Buffer) [][]string {
	t.Helper()
	records, err := csv.NewReader(buf).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	return records
}

func TestAttendance(t *testing.T) {
	rows := []model.Attendance{
		{MemberID: "m-1", MemberName: "Cruz, Ana", Date: day(2024, 1, 15), CheckInTime: time.Date(2024, 1, 14, 23, 5, 9, 0, time.UTC)},
		{MemberID: "m-2", Date: day(2024, 1, 15)},
	}

	var buf bytes.Buffer
	if err := Attendance(&buf, rows, manila); err != nil {
		t.Fatalf("export: %v", err)
	}
	records := readAll(t, &buf)
	if len(records) != 3 {
		t.Fatalf("records = %d, want 3", len(records))
	}
	if records[0][2] != "Member Name" {
		t.Errorf("header = %v", records[0])
	}
	want := []string{"2024-01-15", "07:05:09", "Cruz, Ana", "m-1"}
	for i, v := range want {
		if records[1][i] != v {
			t.Errorf("row 1 col %d = %q, want %q", i, records[1][i], v)
		}
	}
	if records[2][1] != "" || records[2][2] != "Unknown Member" {
		t.Errorf("row 2 = %v, want empty time and Unknown Member", records[2])
	}
}

func TestHistory(t *testing.T) {
	email := "ana@gym.ph"
	rows := []analytics.HistoryRow{
		{
			Member:    model.Member{Name: "Ana", Email: &email, PlanType: model.PlanMonthly, StartDate: day(2024, 1, 5)},
			Status:    membership.StatusExpired,
			Visits:    12,
			Renewals:  2,
			TotalPaid: 2350.5,
		},
		{Member: model.Member{Name: "Walk-in", PlanType: model.PlanSingleDay, StartDate: day(2024, 2, 1)}, Status: membership.StatusActive, TotalPaid: 100},
	}

	var buf bytes.Buffer
	if err := History(&buf, rows); err != nil {
		t.Fatalf("export: %v", err)
	}
	records := readAll(t, &buf)
	if records[0][7] != "Total Paid (P)" {
		t.Errorf("header = %v", records[0])
	}
	want := []string{"Ana", "ana@gym.ph", "Monthly", "expired", "2024-01-05", "12", "2", "2350.5"}
	for i, v := range want {
		if records[1][i] != v {
			t.Errorf("row 1 col %d = %q, want %q", i, records[1][i], v)
		}
	}
	if records[2][1] != "" || records[2][2] != "1 Day" || records[2][7] != "100" {
		t.Errorf("row 2 = %v", records[2])
	}
}

func TestRenewals(t *testing.T) {
	rows := []model.Renewal{{
		MemberName:      "Ben",
		PlanType:        model.PlanWeekly,
		Amount:          300,
		PreviousEndDate: day(2024, 1, 10),
		NewEndDate:      day(2024, 1, 17),
		CreatedAt:       time.Date(2024, 1, 9, 18, 30, 0, 0, time.UTC),
	}}

	var buf bytes.Buffer
	if err := Renewals(&buf, rows, manila); err != nil {
		t.Fatalf("export: %v", err)
	}
	records := readAll(t, &buf)
	want := []string{"2024-01-10", "Ben", "Weekly", "300", "2024-01-10", "2024-01-17"}
	for i, v := range want {
		if records[1][i] != v {
			t.Errorf("col %d = %q, want %q", i, records[1][i], v)
		}
	}
}

func TestEmptyExportHasHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := Renewals(&buf, nil, manila); err != nil {
		t.Fatalf("export: %v", err)
	}
	if got := buf.String(); got != "Date,Member Name,Type,Amount,Before End Date,After End Date\n" {
		t.Errorf("output = %q", got)
	}
}
