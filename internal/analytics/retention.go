package analytics

import (
	"time"

	"github.com/dukerupert/frontdesk/internal/membership"
	"github.com/dukerupert/frontdesk/internal/model"
)

type Growth struct {
	Month      string `json:"month"`
	New        int    `json:"new"`
	Cumulative int    `json:"cumulative"`
}

type Retention struct {
	Total       int      `json:"total"`
	Active      int      `json:"active"`
	Expired     int      `json:"expired"`
	Suspended   int      `json:"suspended"`
	ChurnRate   float64  `json:"churn_rate"`
	RenewalRate float64  `json:"renewal_rate"`
	Growth      []Growth `json:"growth"`
	ByPlan      []Count  `json:"by_plan"`
	ByStatus    []Count  `json:"by_status"`
}

// BuildRetention reports membership health. Churn is the share of members
// currently expired; renewal rate is the share that renewed at least once.
func BuildRetention(members []model.Member, renewals []model.Renewal, asOf time.Time) Retention {
	r := Retention{Total: len(members), Growth: []Growth{}, ByPlan: []Count{}, ByStatus: []Count{}}

	starts := make(map[string]int)
	plans := make(map[model.PlanType]int)
	for _, m := range members {
		switch membership.EffectiveStatus(m, asOf) {
		case membership.StatusActive:
			r.Active++
		case membership.StatusExpired:
			r.Expired++
		case membership.StatusSuspended:
			r.Suspended++
		}
		starts[monthKey(m.StartDate)]++
		plans[m.PlanType]++
	}

	renewed := make(map[string]struct{})
	for _, rn := range renewals {
		renewed[rn.MemberID] = struct{}{}
	}

	if r.Total > 0 {
		r.ChurnRate = float64(r.Expired) / float64(r.Total) * 100
		r.RenewalRate = float64(len(renewed)) / float64(r.Total) * 100
	}

	cumulative := 0
	for _, month := range sortedKeys(starts) {
		cumulative += starts[month]
		r.Growth = append(r.Growth, Growth{Month: month, New: starts[month], Cumulative: cumulative})
	}

	for _, p := range membership.Plans {
		if n := plans[p]; n > 0 {
			r.ByPlan = append(r.ByPlan, Count{Label: membership.PlanLabel(p), Count: n})
		}
	}

	for _, c := range []Count{
		{Label: "Active", Count: r.Active},
		{Label: "Expired", Count: r.Expired},
		{Label: "Suspended", Count: r.Suspended},
	} {
		if c.Count > 0 {
			r.ByStatus = append(r.ByStatus, c)
		}
	}
	return r
}
