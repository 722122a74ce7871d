package analytics

import (
	"fmt"
	"math"
	"time"

	"github.com/dukerupert/frontdesk/internal/model"
)

const (
	recentDays = 30
	firstHour  = 5
	lastHour   = 23
)

type Attendance struct {
	TotalVisits   int     `json:"total_visits"`
	AveragePerDay int     `json:"average_per_day"`
	BusiestDay    string  `json:"busiest_day"`
	BusiestCount  int     `json:"busiest_count"`
	Daily         []Count `json:"daily"`
	ByWeekday     []Count `json:"by_weekday"`
	ByHour        []Count `json:"by_hour"`
}

// HourLabel formats an hour of day as 5am, 12pm, 11pm.
func HourLabel(hour int) string {
	suffix := "am"
	if hour >= 12 {
		suffix = "pm"
	}
	h := hour % 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%d%s", h, suffix)
}

// BuildAttendance summarizes check-in patterns. Daily covers the most recent
// days that had check-ins. Hours are read in loc and limited to opening
// hours.
func BuildAttendance(attendance []model.Attendance, loc *time.Location) Attendance {
	r := Attendance{TotalVisits: len(attendance), BusiestDay: "-", Daily: []Count{}}

	daily := make(map[string]int)
	var weekdays [7]int
	hours := make(map[int]int)
	for _, a := range attendance {
		daily[a.Date.Format(model.DateLayout)]++
		weekdays[a.Date.Weekday()]++
		if !a.CheckInTime.IsZero() {
			hours[a.CheckInTime.In(loc).Hour()]++
		}
	}

	dates := sortedKeys(daily)
	if len(dates) > 0 {
		r.AveragePerDay = int(math.Round(float64(len(attendance)) / float64(len(dates))))
	}
	if len(dates) > recentDays {
		dates = dates[len(dates)-recentDays:]
	}
	for _, d := range dates {
		r.Daily = append(r.Daily, Count{Label: d, Count: daily[d]})
	}

	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		n := weekdays[wd]
		r.ByWeekday = append(r.ByWeekday, Count{Label: wd.String()[:3], Count: n})
		if n > r.BusiestCount {
			r.BusiestDay, r.BusiestCount = wd.String(), n
		}
	}

	for h := firstHour; h <= lastHour; h++ {
		r.ByHour = append(r.ByHour, Count{Label: HourLabel(h), Count: hours[h]})
	}
	return r
}
