package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/frontdesk/internal/membership"
	"github.com/dukerupert/frontdesk/internal/model"
	"github.com/google/uuid"
)

const memberCols = "id, name, email, photo, plan_type, start_date, end_date, status, payment, created_at"

type MemberStore struct {
	db *sql.DB
}

func NewMemberStore(db *sql.DB) *MemberStore {
	return &MemberStore{db: db}
}

func scanMember(scanner interface{ Scan(...any) error }) (*model.Member, error) {
	var m model.Member
	var email, photo sql.NullString
	var start, end string
	if err := scanner.Scan(&m.ID, &m.Name, &email, &photo, &m.PlanType, &start, &end, &m.Status, &m.Payment, &m.CreatedAt); err != nil {
		return nil, err
	}
	if email.Valid {
		m.Email = &email.String
	}
	if photo.Valid {
		m.Photo = &photo.String
	}
	var err error
	if m.StartDate, err = parseDate(start); err != nil {
		return nil, err
	}
	if m.EndDate, err = parseDate(end); err != nil {
		return nil, err
	}
	return &m, nil
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

func formatDate(t time.Time) string {
	return membership.DateOf(t).Format(model.DateLayout)
}

// Create inserts m, assigning a new identity token when m.ID is empty.
func (s *MemberStore) Create(m model.Member) (*model.Member, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Status == "" {
		m.Status = model.MemberStatusActive
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}

	_, err := s.db.Exec(
		`INSERT INTO members (`+memberCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Name, m.Email, m.Photo, m.PlanType, formatDate(m.StartDate), formatDate(m.EndDate),
		m.Status, m.Payment, m.CreatedAt.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert member: %w", err)
	}
	return s.GetByID(m.ID)
}

func (s *MemberStore) GetByID(id string) (*model.Member, error) {
	m, err := scanMember(s.db.QueryRow("SELECT "+memberCols+" FROM members WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query member: %w", err)
	}
	return m, nil
}

// List returns all members, newest first.
func (s *MemberStore) List() ([]model.Member, error) {
	rows, err := s.db.Query("SELECT " + memberCols + " FROM members ORDER BY created_at DESC, name")
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	var members []model.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

func (s *MemberStore) Update(id, name string, email *string) (*model.Member, error) {
	_, err := s.db.Exec("UPDATE members SET name = ?, email = ? WHERE id = ?", name, email, id)
	if err != nil {
		return nil, fmt.Errorf("update member: %w", err)
	}
	return s.GetByID(id)
}

func (s *MemberStore) UpdateStatus(id string, status model.MemberStatus) (*model.Member, error) {
	_, err := s.db.Exec("UPDATE members SET status = ? WHERE id = ?", status, id)
	if err != nil {
		return nil, fmt.Errorf("update member status: %w", err)
	}
	return s.GetByID(id)
}

func (s *MemberStore) SetPhoto(id, key string) error {
	_, err := s.db.Exec("UPDATE members SET photo = ? WHERE id = ?", key, id)
	if err != nil {
		return fmt.Errorf("set member photo: %w", err)
	}
	return nil
}

// Renew extends the member's end date under plan, reactivates it and logs the
// renewal in one transaction. Returns model.ErrMemberNotFound for unknown ids.
func (s *MemberStore) Renew(id string, plan model.PlanType, amount float64, asOf time.Time) (*model.Member, *model.Renewal, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	m, err := scanMember(tx.QueryRow("SELECT "+memberCols+" FROM members WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil, model.ErrMemberNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("query member: %w", err)
	}

	next, err := membership.Renew(*m, plan, asOf)
	if err != nil {
		return nil, nil, err
	}

	if _, err := tx.Exec(
		"UPDATE members SET end_date = ?, status = ? WHERE id = ?",
		formatDate(next.NewEndDate), next.NewStatus, id,
	); err != nil {
		return nil, nil, fmt.Errorf("update member end date: %w", err)
	}

	createdAt := asOf.UTC()
	result, err := tx.Exec(
		`INSERT INTO renewals (member_id, amount, plan_type, previous_end_date, new_end_date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, amount, plan, formatDate(next.PreviousEndDate), formatDate(next.NewEndDate), createdAt,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("insert renewal: %w", err)
	}
	renewalID, err := result.LastInsertId()
	if err != nil {
		return nil, nil, fmt.Errorf("last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit renewal: %w", err)
	}

	m.EndDate = next.NewEndDate
	m.Status = next.NewStatus
	return m, &model.Renewal{
		ID:              renewalID,
		MemberID:        id,
		Amount:          amount,
		PlanType:        plan,
		PreviousEndDate: next.PreviousEndDate,
		NewEndDate:      next.NewEndDate,
		CreatedAt:       createdAt,
		MemberName:      m.Name,
	}, nil
}
