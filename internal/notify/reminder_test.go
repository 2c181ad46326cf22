package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lune/internal/domain"
)

func TestPlanReminder(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	now := time.Date(2024, 1, 10, 8, 0, 0, 0, tokyo)

	cases := []struct {
		name string
		task domain.Task
		skip string
		at   time.Time
	}{
		{"no date", domain.Task{ID: "a"}, SkipNoDate, time.Time{}},
		{"completed", domain.Task{ID: "b", Date: "2024-01-11", Completed: true}, SkipCompleted, time.Time{}},
		{"past", domain.Task{ID: "c", Date: "2024-01-09"}, SkipPast, time.Time{}},
		{"bad date", domain.Task{ID: "d", Date: "soon"}, SkipBadDate, time.Time{}},
		{"today", domain.Task{ID: "e", Date: "2024-01-10", Text: "Stretch"}, "", time.Date(2024, 1, 10, 9, 0, 0, 0, tokyo)},
		{"future", domain.Task{ID: "f", Date: "2024-02-01"}, "", time.Date(2024, 2, 1, 9, 0, 0, 0, tokyo)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, skip := PlanReminder(tc.task, now, tokyo, DefaultHour)
			assert.Equal(t, tc.skip, skip)
			if tc.skip == "" {
				assert.True(t, tc.at.Equal(r.At), "at %s, want %s", r.At, tc.at)
				assert.Equal(t, tc.task.ID, r.TaskID)
			}
		})
	}
}

func TestPlanReminderBody(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r, skip := PlanReminder(domain.Task{ID: "x", Text: "Buy milk", Date: "2024-01-02"}, now, time.UTC, DefaultHour)
	require.Empty(t, skip)
	assert.Equal(t, "It's time to complete your task: Buy milk.", r.Body)
}

func TestPlanOrdersAndFilters(t *testing.T) {
	now := time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC)
	tasks := []domain.Task{
		{ID: "late", Date: "2024-01-20"},
		{ID: "gone", Date: "2024-01-10"},
		{ID: "soon", Date: "2024-01-11"},
		{ID: "habit", IsHabit: true},
	}
	got := Plan(tasks, now, time.UTC, DefaultHour)
	require.Len(t, got, 2)
	assert.Equal(t, "soon", got[0].TaskID)
	assert.Equal(t, "late", got[1].TaskID)
}
