package domain

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-date encoding used for every date key.
const DateLayout = "2006-01-02"

type Task struct {
	ID                  string   `json:"id"`
	Text                string   `json:"text"`
	Description         string   `json:"description"`
	Date                string   `json:"date"`
	Completed           bool     `json:"completed"`
	IsHabit             bool     `json:"isHabit"`
	HabitDatesCompleted []string `json:"habitDatesCompleted,omitempty"`
	CreatedAt           string   `json:"createdAt"`
}

type MoodEntry struct {
	Date string `json:"date"`
	Mood int    `json:"mood"`
}

type JournalEntry struct {
	Date string `json:"date"`
	Text string `json:"text"`
}

type ChatMessage struct {
	ID        string `json:"id,omitempty"`
	Role      string `json:"role"`
	Text      string `json:"text"`
	Type      string `json:"type,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

type Event struct {
	ID         string         `json:"id"`
	TS         string         `json:"ts"`
	Type       string         `json:"type"`
	EntityKind string         `json:"entity_kind"`
	EntityID   string         `json:"entity_id,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// ReflectionPayload is the request body of the AI reflection function.
type ReflectionPayload struct {
	UserMessage string  `json:"userMessage"`
	Mood        *int    `json:"mood"`
	MoodName    *string `json:"moodName"`
	Journal     *string `json:"journal"`
	Tasks       string  `json:"tasks"`
}

// FormatDate renders t as a local calendar date.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a calendar date at UTC midnight so day arithmetic is DST-free.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// CivilDay truncates t to its calendar day, expressed at UTC midnight.
func CivilDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddDays shifts a YYYY-MM-DD date by n days.
func AddDays(date string, n int) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return FormatDate(t.AddDate(0, 0, n)), nil
}
