package store

import (
	"time"

	"github.com/dukerupert/frontdesk/internal/model"
)

// CheckInStore serves the admission procedure from the member and attendance
// tables.
type CheckInStore struct {
	members    *MemberStore
	attendance *AttendanceStore
}

func NewCheckInStore(members *MemberStore, attendance *AttendanceStore) *CheckInStore {
	return &CheckInStore{members: members, attendance: attendance}
}

func (s *CheckInStore) GetMember(id string) (*model.Member, error) {
	return s.members.GetByID(id)
}

func (s *CheckInStore) CountAttendance(memberID string) (int, error) {
	return s.attendance.CountByMember(memberID)
}

func (s *CheckInStore) FindAttendance(memberID string, date time.Time) (*model.Attendance, error) {
	return s.attendance.FindByMemberAndDate(memberID, date)
}

func (s *CheckInStore) InsertAttendance(memberID string, date, at time.Time) (*model.Attendance, error) {
	return s.attendance.Create(memberID, date, at)
}
