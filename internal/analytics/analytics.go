// Package analytics derives dashboard and report figures from members,
// attendance and renewals. Every function takes the reference instant
// explicitly; its location defines the gym's calendar day.
package analytics

import (
	"sort"
	"time"

	"github.com/dukerupert/frontdesk/internal/membership"
	"github.com/dukerupert/frontdesk/internal/model"
)

const monthLayout = "2006-01"

// Count is a labelled tally.
type Count struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Amount is a labelled money total.
type Amount struct {
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
}

// localDate is the gym calendar date of an instant, read in loc.
func localDate(t time.Time, loc *time.Location) time.Time {
	return membership.DateOf(t.In(loc))
}

func monthKey(t time.Time) string {
	return t.Format(monthLayout)
}

// byPlanLabel turns per-plan totals into amounts in plan display order.
func byPlanLabel(totals map[model.PlanType]float64) []Amount {
	out := []Amount{}
	seen := make(map[model.PlanType]bool)
	for _, p := range membership.Plans {
		if v, ok := totals[p]; ok {
			out = append(out, Amount{Label: membership.PlanLabel(p), Amount: v})
			seen[p] = true
		}
	}
	var rest []string
	for p := range totals {
		if !seen[p] {
			rest = append(rest, string(p))
		}
	}
	sort.Strings(rest)
	for _, p := range rest {
		out = append(out, Amount{Label: p, Amount: totals[model.PlanType(p)]})
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
