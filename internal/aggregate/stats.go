package aggregate

import (
	"sort"
	"time"

	"lune/internal/domain"
)

type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// completionCounts counts completion events per date: each habit completion
// and each completed one-off task on its scheduled date.
func completionCounts(tasks []domain.Task) map[string]int {
	counts := map[string]int{}
	for _, t := range tasks {
		if t.IsHabit {
			for _, d := range t.HabitDatesCompleted {
				counts[d]++
			}
			continue
		}
		if t.Completed && t.Date != "" {
			counts[t.Date]++
		}
	}
	return counts
}

// ActivityHistogram returns n consecutive days ending at today, oldest
// first, with the completion count of each day.
func ActivityHistogram(tasks []domain.Task, today time.Time, n int) []DayCount {
	if n <= 0 {
		return []DayCount{}
	}
	counts := completionCounts(tasks)
	day := domain.CivilDay(today).AddDate(0, 0, -(n - 1))
	out := make([]DayCount, n)
	for i := range out {
		d := domain.FormatDate(day)
		out[i] = DayCount{Date: d, Count: counts[d]}
		day = day.AddDate(0, 0, 1)
	}
	return out
}

// WeeklyGrid lays start..end out as Sunday-first weeks of seven cells.
// Cells before start and after end are nil; days in range without a count
// get a zero count.
func WeeklyGrid(counts []DayCount, start, end string) ([][]*DayCount, error) {
	from, err := domain.ParseDate(start)
	if err != nil {
		return nil, err
	}
	to, err := domain.ParseDate(end)
	if err != nil {
		return nil, err
	}
	if to.Before(from) {
		return [][]*DayCount{}, nil
	}
	byDate := make(map[string]int, len(counts))
	for _, c := range counts {
		byDate[c.Date] = c.Count
	}

	var weeks [][]*DayCount
	week := make([]*DayCount, 0, 7)
	for i := 0; i < int(from.Weekday()); i++ {
		week = append(week, nil)
	}
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		d := domain.FormatDate(day)
		week = append(week, &DayCount{Date: d, Count: byDate[d]})
		if len(week) == 7 {
			weeks = append(weeks, week)
			week = make([]*DayCount, 0, 7)
		}
	}
	if len(week) > 0 {
		for len(week) < 7 {
			week = append(week, nil)
		}
		weeks = append(weeks, week)
	}
	return weeks, nil
}

type MoodSlice struct {
	Mood  int    `json:"mood"`
	Name  string `json:"name"`
	Count int    `json:"count"`
	Color string `json:"color"`
}

// MoodDistribution counts moods per code. Every palette position appears
// even with a zero count; codes outside the palette are appended with the
// fallback color. Output is ordered by mood code.
func MoodDistribution(moods []domain.MoodEntry, colors []string, names map[int]string) []MoodSlice {
	counts := map[int]int{}
	for _, m := range moods {
		counts[m.Mood]++
	}
	for i := range colors {
		if _, ok := counts[i+1]; !ok {
			counts[i+1] = 0
		}
	}
	out := make([]MoodSlice, 0, len(counts))
	for mood, n := range counts {
		color := FallbackColor
		if mood >= 1 && mood <= len(colors) {
			color = colors[mood-1]
		}
		out = append(out, MoodSlice{Mood: mood, Name: MoodName(names, mood), Count: n, Color: color})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Mood < out[j].Mood })
	return out
}
