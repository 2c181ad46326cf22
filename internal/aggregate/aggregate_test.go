package aggregate

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"lune/internal/domain"
)

func day(s string) time.Time {
	t, err := time.ParseInLocation(domain.DateLayout, s, time.Local)
	if err != nil {
		panic(err)
	}
	return t
}

func TestHistogramCountsOnlyCompletedOneOffs(t *testing.T) {
	tasks := []domain.Task{
		{ID: "a", Date: "2024-01-01", Completed: true},
		{ID: "b", Date: "2024-01-01", Completed: false},
	}
	got := ActivityHistogram(tasks, day("2024-01-02"), 3)
	want := []DayCount{
		{Date: "2023-12-31", Count: 0},
		{Date: "2024-01-01", Count: 1},
		{Date: "2024-01-02", Count: 0},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("histogram mismatch (-want +got):\n%s", diff)
	}
}

func TestHistogramAddsHabitCompletions(t *testing.T) {
	tasks := []domain.Task{
		{ID: "h1", IsHabit: true, HabitDatesCompleted: []string{"2024-01-09", "2024-01-10"}},
		{ID: "h2", IsHabit: true, HabitDatesCompleted: []string{"2024-01-10"}},
		{ID: "a", Date: "2024-01-10", Completed: true},
		{ID: "old", Date: "2023-06-01", Completed: true},
	}
	got := ActivityHistogram(tasks, day("2024-01-10"), 90)
	if len(got) != 90 {
		t.Fatalf("expected 90 days, got %d", len(got))
	}
	if got[0].Date != "2023-10-13" || got[89].Date != "2024-01-10" {
		t.Fatalf("window bounds %s..%s", got[0].Date, got[89].Date)
	}
	if got[89].Count != 3 || got[88].Count != 1 {
		t.Fatalf("unexpected tail counts: %+v", got[87:])
	}
	total := 0
	for _, c := range got {
		total += c.Count
	}
	if total != 4 {
		t.Fatalf("out-of-window completion leaked, total=%d", total)
	}
}

func TestWeeklyGridPadsToSundayWeeks(t *testing.T) {
	counts := []DayCount{{Date: "2024-01-04", Count: 2}}
	weeks, err := WeeklyGrid(counts, "2024-01-03", "2024-01-08")
	if err != nil {
		t.Fatal(err)
	}
	cell := func(d string, n int) *DayCount { return &DayCount{Date: d, Count: n} }
	want := [][]*DayCount{
		{nil, nil, nil, cell("2024-01-03", 0), cell("2024-01-04", 2), cell("2024-01-05", 0), cell("2024-01-06", 0)},
		{cell("2024-01-07", 0), cell("2024-01-08", 0), nil, nil, nil, nil, nil},
	}
	if diff := cmp.Diff(want, weeks); diff != "" {
		t.Fatalf("grid mismatch (-want +got):\n%s", diff)
	}
}

func TestWeeklyGridSundayStartHasNoLeadingPadding(t *testing.T) {
	weeks, err := WeeklyGrid(nil, "2024-01-07", "2024-01-13")
	if err != nil {
		t.Fatal(err)
	}
	if len(weeks) != 1 || weeks[0][0] == nil || weeks[0][6] == nil || weeks[0][6].Date != "2024-01-13" {
		t.Fatalf("expected one full week, got %+v", weeks)
	}
}

func TestWeeklyGridRejectsBadDates(t *testing.T) {
	if _, err := WeeklyGrid(nil, "yesterday", "2024-01-13"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestMoodDistributionEmptyKeepsPalette(t *testing.T) {
	colors := []string{"#FF6347", "#8A2BE2", "#4169E1", "#32CD32", "#FFD700"}
	got := MoodDistribution(nil, colors, nil)
	want := []MoodSlice{
		{Mood: 1, Name: "Red", Count: 0, Color: "#FF6347"},
		{Mood: 2, Name: "Purple", Count: 0, Color: "#8A2BE2"},
		{Mood: 3, Name: "Blue", Count: 0, Color: "#4169E1"},
		{Mood: 4, Name: "Green", Count: 0, Color: "#32CD32"},
		{Mood: 5, Name: "Yellow", Count: 0, Color: "#FFD700"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("distribution mismatch (-want +got):\n%s", diff)
	}
}

func TestMoodDistributionCountsAndUnknownCodes(t *testing.T) {
	moods := []domain.MoodEntry{
		{Date: "2024-01-01", Mood: 3},
		{Date: "2024-01-02", Mood: 3},
		{Date: "2024-01-03", Mood: 1},
		{Date: "2024-01-04", Mood: 7},
	}
	got := MoodDistribution(moods, []string{"#a", "#b", "#c"}, map[int]string{1: "Low"})
	want := []MoodSlice{
		{Mood: 1, Name: "Low", Count: 1, Color: "#a"},
		{Mood: 2, Name: "Purple", Count: 0, Color: "#b"},
		{Mood: 3, Name: "Blue", Count: 2, Color: "#c"},
		{Mood: 7, Name: "Mood 7", Count: 1, Color: FallbackColor},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("distribution mismatch (-want +got):\n%s", diff)
	}
}

func TestCalendarMarkers(t *testing.T) {
	tasks := []domain.Task{
		{ID: "a", Date: "2024-01-05", Completed: true},
		{ID: "b", Date: "2024-01-05", Completed: true},
		{ID: "c", Date: "2024-01-06", Completed: false},
		{ID: "h", IsHabit: true, HabitDatesCompleted: []string{"2024-01-06"}},
	}
	moods := []domain.MoodEntry{
		{Date: "2024-01-05", Mood: 1},
		{Date: "2024-01-07", Mood: 9},
	}
	got := CalendarMarkers(tasks, moods, "#000")
	want := map[string][]Marker{
		"2024-01-05": {{Key: MarkerCompleted, Color: "#000"}, {Key: "mood-1", Color: "#FF69B4"}},
		"2024-01-06": {{Key: MarkerCompleted, Color: "#000"}},
		"2024-01-07": {{Key: "mood-9", Color: "#000"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("markers mismatch (-want +got):\n%s", diff)
	}
}

func TestTasksForDateAndCompletion(t *testing.T) {
	tasks := []domain.Task{
		{ID: "a", Date: "2024-01-05", Completed: true},
		{ID: "b", Date: "2024-01-06"},
		{ID: "h", IsHabit: true, HabitDatesCompleted: []string{"2024-01-04"}},
	}
	got := TasksForDate(tasks, "2024-01-05")
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "h" {
		t.Fatalf("unexpected tasks for date: %+v", got)
	}
	if !IsCompletedOn(tasks[0], "2024-01-05") || IsCompletedOn(tasks[2], "2024-01-05") || !IsCompletedOn(tasks[2], "2024-01-04") {
		t.Fatalf("completion lookup wrong")
	}
}

func TestSevenDayRatio(t *testing.T) {
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.Local)
	tasks := []domain.Task{
		{ID: "done", Date: "2024-01-04", Completed: true},
		{ID: "eighth-day", Date: "2024-01-03", Completed: true},
		{ID: "open", Date: "2024-01-09"},
		{ID: "stale", Date: "2024-01-02", Completed: true},
		{ID: "undated", CreatedAt: "2024-01-08"},
		// created 2 days ago: ceil(2.5) = 3 opportunities
		{ID: "young", IsHabit: true, CreatedAt: "2024-01-08", HabitDatesCompleted: []string{"2024-01-08", "2024-01-09"}},
		{ID: "veteran", IsHabit: true, CreatedAt: "2023-01-01", HabitDatesCompleted: []string{"2023-12-31", "2024-01-10"}},
		{ID: "idle", IsHabit: true, CreatedAt: "2023-01-01", HabitDatesCompleted: []string{"2023-12-01"}},
	}
	got := SevenDayRatio(tasks, now)
	want := Ratio{Completed: 1 + 2 + 1, Total: 3 + 3 + 7}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ratio mismatch (-want +got):\n%s", diff)
	}
	if s := got.Summary(); s != "In the last 7 days, you completed 4 out of 13 tasks/habits." {
		t.Fatalf("unexpected summary %q", s)
	}
}

func TestSevenDayRatioDailyHabitNeverExceedsWindow(t *testing.T) {
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	var done []string
	for d := 3; d <= 10; d++ {
		done = append(done, fmt.Sprintf("2024-01-%02d", d))
	}
	tasks := []domain.Task{{ID: "daily", IsHabit: true, CreatedAt: "2024-01-01", HabitDatesCompleted: done}}
	got := SevenDayRatio(tasks, now)
	if diff := cmp.Diff(Ratio{Completed: 7, Total: 7}, got); diff != "" {
		t.Fatalf("ratio mismatch (-want +got):\n%s", diff)
	}
}

func TestSevenDayRatioHabitFloor(t *testing.T) {
	now := time.Date(2024, 1, 10, 0, 0, 0, 0, time.Local)
	tasks := []domain.Task{
		{ID: "today", IsHabit: true, CreatedAt: "2024-01-10", HabitDatesCompleted: []string{"2024-01-10"}},
	}
	if got := SevenDayRatio(tasks, now); got != (Ratio{Completed: 1, Total: 1}) {
		t.Fatalf("expected 1/1, got %+v", got)
	}
}

func TestSevenDayRatioEmpty(t *testing.T) {
	got := SevenDayRatio(nil, time.Now())
	if got.Summary() != "In the last 7 days, you completed 0 out of 0 tasks/habits." {
		t.Fatalf("unexpected summary %q", got.Summary())
	}
}
