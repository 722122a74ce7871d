package analytics

import (
	"time"

	"github.com/dukerupert/frontdesk/internal/model"
)

const (
	SourceNewSignups = "New Signups"
	SourceRenewals   = "Renewals"
)

type Revenue struct {
	NewRevenue     float64  `json:"new_revenue"`
	RenewalRevenue float64  `json:"renewal_revenue"`
	TotalRevenue   float64  `json:"total_revenue"`
	BySource       []Amount `json:"by_source"`
	ByPlan         []Amount `json:"by_plan"`
	ByMonth        []Amount `json:"by_month"`
}

// BuildRevenue totals signup payments and renewal amounts. Months are taken
// from creation instants in loc.
func BuildRevenue(members []model.Member, renewals []model.Renewal, loc *time.Location) Revenue {
	r := Revenue{BySource: []Amount{}, ByMonth: []Amount{}}
	plans := make(map[model.PlanType]float64)
	months := make(map[string]float64)

	for _, m := range members {
		r.NewRevenue += m.Payment
		plans[m.PlanType] += m.Payment
		months[monthKey(m.CreatedAt.In(loc))] += m.Payment
	}
	for _, rn := range renewals {
		r.RenewalRevenue += rn.Amount
		plans[rn.PlanType] += rn.Amount
		months[monthKey(rn.CreatedAt.In(loc))] += rn.Amount
	}
	r.TotalRevenue = r.NewRevenue + r.RenewalRevenue

	if r.NewRevenue > 0 {
		r.BySource = append(r.BySource, Amount{Label: SourceNewSignups, Amount: r.NewRevenue})
	}
	if r.RenewalRevenue > 0 {
		r.BySource = append(r.BySource, Amount{Label: SourceRenewals, Amount: r.RenewalRevenue})
	}
	r.ByPlan = byPlanLabel(plans)
	for _, k := range sortedKeys(months) {
		r.ByMonth = append(r.ByMonth, Amount{Label: k, Amount: months[k]})
	}
	return r
}
