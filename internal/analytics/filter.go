package analytics

import (
	"time"

	"github.com/dukerupert/frontdesk/internal/membership"
	"github.com/dukerupert/frontdesk/internal/model"
)

// MemberFilter selects members for the member list. Empty fields match all.
type MemberFilter struct {
	Search string
	Plan   model.PlanType
	Status membership.Status
}

func FilterMembers(members []model.Member, f MemberFilter, asOf time.Time) []model.Member {
	out := []model.Member{}
	for _, m := range members {
		if !MatchesSearch(m, f.Search) {
			continue
		}
		if f.Plan != "" && m.PlanType != f.Plan {
			continue
		}
		if f.Status != "" && membership.EffectiveStatus(m, asOf) != f.Status {
			continue
		}
		out = append(out, m)
	}
	return out
}
