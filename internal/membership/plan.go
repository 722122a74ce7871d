package membership

import (
	"fmt"
	"time"

	"github.com/dukerupert/frontdesk/internal/model"
)

var planDays = map[model.PlanType]int{
	model.PlanSingleDay: 0,
	model.PlanWeekly:    7,
	model.PlanMonthly:   30,
}

var planLabels = map[model.PlanType]string{
	model.PlanSingleDay: "1 Day",
	model.PlanWeekly:    "Weekly",
	model.PlanMonthly:   "Monthly",
}

// Plans lists every plan in display order.
var Plans = []model.PlanType{model.PlanSingleDay, model.PlanWeekly, model.PlanMonthly}

func ParsePlan(s string) (model.PlanType, error) {
	p := model.PlanType(s)
	if _, ok := planDays[p]; !ok {
		return "", fmt.Errorf("%w: %q", model.ErrInvalidPlan, s)
	}
	return p, nil
}

func PlanDays(p model.PlanType) (int, error) {
	days, ok := planDays[p]
	if !ok {
		return 0, fmt.Errorf("%w: %q", model.ErrInvalidPlan, p)
	}
	return days, nil
}

// PlanLabel returns the display label, or the raw value for unknown plans.
func PlanLabel(p model.PlanType) string {
	if l, ok := planLabels[p]; ok {
		return l
	}
	return string(p)
}

// EndDate computes the end date of a new membership. A single-day plan ends
// on its start date.
func EndDate(start time.Time, p model.PlanType) (time.Time, error) {
	days, err := PlanDays(p)
	if err != nil {
		return time.Time{}, err
	}
	return DateOf(start).AddDate(0, 0, days), nil
}
