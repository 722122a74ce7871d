package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/frontdesk/internal/membership"
	"github.com/dukerupert/frontdesk/internal/model"
)

type AttendanceStore struct {
	db *sql.DB
}

func NewAttendanceStore(db *sql.DB) *AttendanceStore {
	return &AttendanceStore{db: db}
}

// AttendanceFilter narrows List. Zero values match everything.
type AttendanceFilter struct {
	Date     *time.Time
	MemberID string
	Search   string
	Limit    int
}

const attendanceCols = "a.id, a.member_id, a.date, a.check_in_time, COALESCE(m.name, '')"

func scanAttendance(scanner interface{ Scan(...any) error }) (*model.Attendance, error) {
	var a model.Attendance
	var date string
	if err := scanner.Scan(&a.ID, &a.MemberID, &date, &a.CheckInTime, &a.MemberName); err != nil {
		return nil, err
	}
	d, err := parseDate(date)
	if err != nil {
		return nil, err
	}
	a.Date = d
	return &a, nil
}

// Create records a check-in. A second row for the same member and date is
// rejected with model.ErrAlreadyCheckedIn.
func (s *AttendanceStore) Create(memberID string, date, at time.Time) (*model.Attendance, error) {
	result, err := s.db.Exec(
		`INSERT INTO attendance (member_id, date, check_in_time) VALUES (?, ?, ?)
		 ON CONFLICT (member_id, date) DO NOTHING`,
		memberID, formatDate(date), at.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert attendance: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, model.ErrAlreadyCheckedIn
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return &model.Attendance{
		ID:          id,
		MemberID:    memberID,
		Date:        membership.DateOf(date),
		CheckInTime: at,
	}, nil
}

func (s *AttendanceStore) FindByMemberAndDate(memberID string, date time.Time) (*model.Attendance, error) {
	a, err := scanAttendance(s.db.QueryRow(
		`SELECT `+attendanceCols+` FROM attendance a LEFT JOIN members m ON m.id = a.member_id
		 WHERE a.member_id = ? AND a.date = ?`,
		memberID, formatDate(date),
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query attendance: %w", err)
	}
	return a, nil
}

func (s *AttendanceStore) CountByMember(memberID string) (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM attendance WHERE member_id = ?", memberID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count attendance: %w", err)
	}
	return n, nil
}

// List returns check-ins newest first, with the member's name when the member
// still exists.
func (s *AttendanceStore) List(f AttendanceFilter) ([]model.Attendance, error) {
	var where []string
	var args []any
	if f.Date != nil {
		where = append(where, "a.date = ?")
		args = append(args, formatDate(*f.Date))
	}
	if f.MemberID != "" {
		where = append(where, "a.member_id = ?")
		args = append(args, f.MemberID)
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		where = append(where, "m.name LIKE ?")
		args = append(args, "%"+q+"%")
	}

	query := `SELECT ` + attendanceCols + ` FROM attendance a LEFT JOIN members m ON m.id = a.member_id`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY a.check_in_time DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query attendance: %w", err)
	}
	defer rows.Close()

	var out []model.Attendance
	for rows.Next() {
		a, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}
