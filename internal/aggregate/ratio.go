package aggregate

import (
	"fmt"
	"math"
	"time"

	"lune/internal/domain"
)

// RatioWindow is the lookback of the completion ratio, in days.
const RatioWindow = 7

type Ratio struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

func (r Ratio) Summary() string {
	return fmt.Sprintf("In the last %d days, you completed %d out of %d tasks/habits.", RatioWindow, r.Completed, r.Total)
}

// SevenDayRatio sums completions over opportunities for the last week.
//
// The window is the seven calendar days ending today. One-off tasks count
// when their date (or createdAt when undated) falls in it. Habits count only
// when they have a completion in the window; each contributes its distinct
// completions in the window over min(7, days since createdAt), never less
// than 1.
func SevenDayRatio(tasks []domain.Task, now time.Time) Ratio {
	boundary := domain.FormatDate(domain.CivilDay(now).AddDate(0, 0, -(RatioWindow - 1)))
	var r Ratio
	for _, t := range tasks {
		if t.IsHabit {
			done := recentCompletions(t.HabitDatesCompleted, boundary)
			if done == 0 {
				continue
			}
			r.Completed += done
			r.Total += habitOpportunities(t.CreatedAt, now)
			continue
		}
		day := t.Date
		if day == "" {
			day = t.CreatedAt
		}
		if day < boundary {
			continue
		}
		r.Total++
		if t.Completed {
			r.Completed++
		}
	}
	return r
}

func recentCompletions(dates []string, boundary string) int {
	seen := map[string]struct{}{}
	for _, d := range dates {
		if d >= boundary {
			seen[d] = struct{}{}
		}
	}
	return len(seen)
}

// habitOpportunities is ceil(days elapsed since createdAt) capped at the
// window. Unparseable or future creation dates count as one day.
func habitOpportunities(createdAt string, now time.Time) int {
	created, err := domain.ParseDate(createdAt)
	if err != nil {
		return 1
	}
	y, m, d := now.Date()
	wall := time.Date(y, m, d, now.Hour(), now.Minute(), now.Second(), now.Nanosecond(), time.UTC)
	days := int(math.Ceil(wall.Sub(created).Hours() / 24))
	if days > RatioWindow {
		days = RatioWindow
	}
	if days < 1 {
		days = 1
	}
	return days
}
