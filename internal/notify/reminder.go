// Package notify decides which task reminders a notification scheduler
// should hold. It only reads tasks; delivery is someone else's job.
package notify

import (
	"fmt"
	"sort"
	"time"

	"lune/internal/domain"
)

// DefaultHour is the local hour reminders fire on the task date.
const DefaultHour = 9

type Reminder struct {
	TaskID string    `json:"task_id"`
	Title  string    `json:"title"`
	Body   string    `json:"body"`
	At     time.Time `json:"at"`
}

// Skip reasons reported by PlanReminder.
const (
	SkipNoDate    = "no date"
	SkipCompleted = "completed"
	SkipPast      = "in the past"
	SkipBadDate   = "invalid date"
)

// PlanReminder returns the reminder for t at hour:00 on its date in loc,
// or the reason none should be scheduled.
func PlanReminder(t domain.Task, now time.Time, loc *time.Location, hour int) (Reminder, string) {
	if t.Date == "" {
		return Reminder{}, SkipNoDate
	}
	if t.Completed {
		return Reminder{}, SkipCompleted
	}
	if loc == nil {
		loc = time.Local
	}
	day, err := time.ParseInLocation(domain.DateLayout, t.Date, loc)
	if err != nil {
		return Reminder{}, SkipBadDate
	}
	at := time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, loc)
	if at.Before(now) {
		return Reminder{}, SkipPast
	}
	return Reminder{
		TaskID: t.ID,
		Title:  "Task Reminder",
		Body:   fmt.Sprintf("It's time to complete your task: %s.", t.Text),
		At:     at,
	}, ""
}

// Plan returns every reminder due at or after now, earliest first.
func Plan(tasks []domain.Task, now time.Time, loc *time.Location, hour int) []Reminder {
	out := []Reminder{}
	for _, t := range tasks {
		if r, skip := PlanReminder(t, now, loc, hour); skip == "" {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out
}
