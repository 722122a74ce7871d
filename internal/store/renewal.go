package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/dukerupert/frontdesk/internal/model"
)

type RenewalStore struct {
	db *sql.DB
}

func NewRenewalStore(db *sql.DB) *RenewalStore {
	return &RenewalStore{db: db}
}

const renewalCols = "r.id, r.member_id, r.amount, r.plan_type, r.previous_end_date, r.new_end_date, r.created_at, COALESCE(m.name, '')"

func scanRenewal(scanner interface{ Scan(...any) error }) (*model.Renewal, error) {
	var r model.Renewal
	var prev, next string
	if err := scanner.Scan(&r.ID, &r.MemberID, &r.Amount, &r.PlanType, &prev, &next, &r.CreatedAt, &r.MemberName); err != nil {
		return nil, err
	}
	var err error
	if r.PreviousEndDate, err = parseDate(prev); err != nil {
		return nil, err
	}
	if r.NewEndDate, err = parseDate(next); err != nil {
		return nil, err
	}
	return &r, nil
}

// List returns renewals newest first. search matches the member name.
func (s *RenewalStore) List(search string) ([]model.Renewal, error) {
	query := `SELECT ` + renewalCols + ` FROM renewals r LEFT JOIN members m ON m.id = r.member_id`
	var args []any
	if q := strings.TrimSpace(search); q != "" {
		query += " WHERE m.name LIKE ?"
		args = append(args, "%"+q+"%")
	}
	query += " ORDER BY r.created_at DESC, r.id DESC"
	return s.query(query, args...)
}

func (s *RenewalStore) ListByMember(memberID string) ([]model.Renewal, error) {
	return s.query(
		`SELECT `+renewalCols+` FROM renewals r LEFT JOIN members m ON m.id = r.member_id
		 WHERE r.member_id = ? ORDER BY r.created_at DESC, r.id DESC`,
		memberID,
	)
}

func (s *RenewalStore) query(query string, args ...any) ([]model.Renewal, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query renewals: %w", err)
	}
	defer rows.Close()

	var out []model.Renewal
	for rows.Next() {
		r, err := scanRenewal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan renewal: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}
