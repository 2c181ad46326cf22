// Package aggregate derives the reporting views (calendar markers, activity
// histograms, heatmap grids, mood distribution and the seven-day completion
// ratio) from task and mood records. Everything here is pure: callers load
// the records and pass them in.
package aggregate

import (
	"fmt"
	"slices"

	"lune/internal/domain"
)

// MarkerCompleted is the key of the "something was completed" marker.
const MarkerCompleted = "task-completed"

// FallbackColor is used for mood codes outside the configured palette.
const FallbackColor = "#CCCCCC"

var moodPalette = map[int]string{
	1: "#FF69B4",
	2: "#8A2BE2",
	3: "#4169E1",
	4: "#32CD32",
	5: "#FFD700",
}

// DefaultMoodNames labels the five mood codes.
var DefaultMoodNames = map[int]string{
	1: "Red",
	2: "Purple",
	3: "Blue",
	4: "Green",
	5: "Yellow",
}

// MoodColor returns the calendar color of a mood code.
func MoodColor(mood int) (string, bool) {
	c, ok := moodPalette[mood]
	return c, ok
}

// MoodName returns the display name of a mood code from names, falling back
// to DefaultMoodNames and then to "Mood N".
func MoodName(names map[int]string, mood int) string {
	if n, ok := names[mood]; ok && n != "" {
		return n
	}
	if n, ok := DefaultMoodNames[mood]; ok {
		return n
	}
	return fmt.Sprintf("Mood %d", mood)
}

type Marker struct {
	Key   string `json:"key"`
	Color string `json:"color"`
}

// CalendarMarkers returns, per date, at most one completion marker followed
// by at most one mood marker. Unknown mood codes use completionColor.
func CalendarMarkers(tasks []domain.Task, moods []domain.MoodEntry, completionColor string) map[string][]Marker {
	out := map[string][]Marker{}
	add := func(date string, m Marker) {
		if date == "" {
			return
		}
		for _, existing := range out[date] {
			if existing.Key == m.Key {
				return
			}
		}
		out[date] = append(out[date], m)
	}
	done := Marker{Key: MarkerCompleted, Color: completionColor}
	for _, t := range tasks {
		if t.IsHabit {
			for _, d := range t.HabitDatesCompleted {
				add(d, done)
			}
			continue
		}
		if t.Completed {
			add(t.Date, done)
		}
	}
	for _, m := range moods {
		color, ok := MoodColor(m.Mood)
		if !ok {
			color = completionColor
		}
		add(m.Date, Marker{Key: fmt.Sprintf("mood-%d", m.Mood), Color: color})
	}
	return out
}

// IsCompletedOn reports whether t counts as done on date. Habits consult
// their completion set; one-off tasks their completed flag.
func IsCompletedOn(t domain.Task, date string) bool {
	if !t.IsHabit {
		return t.Completed
	}
	return slices.Contains(t.HabitDatesCompleted, date)
}

// TasksForDate lists every habit plus the one-off tasks scheduled on date,
// in stored order.
func TasksForDate(tasks []domain.Task, date string) []domain.Task {
	out := []domain.Task{}
	for _, t := range tasks {
		if t.IsHabit || t.Date == date {
			out = append(out, t)
		}
	}
	return out
}
