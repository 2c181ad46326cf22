package repo

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"lune/internal/domain"
	"lune/internal/events"
	"lune/internal/kv"
)

// readTasks loads the task collection. Malformed data yields an empty
// collection; medium failures are returned so mutators never overwrite
// data they could not read.
func (r *Repo) readTasks(ctx context.Context) ([]domain.Task, error) {
	var tasks []domain.Task
	if _, err := r.readJSON(ctx, kv.KeyTasks, &tasks); err != nil {
		return nil, err
	}
	for i := range tasks {
		normalizeShape(&tasks[i])
	}
	return tasks, nil
}

// Tasks is LoadTasks for callers that must tell an empty collection from an
// unreadable medium.
func (r *Repo) Tasks(ctx context.Context) ([]domain.Task, error) {
	tasks, err := r.readTasks(ctx)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	return tasks, nil
}

// LoadTasks returns every stored task. It never fails: an empty or
// unreadable collection is returned as an empty slice.
func (r *Repo) LoadTasks(ctx context.Context) []domain.Task {
	tasks, err := r.readTasks(ctx)
	if err != nil {
		r.Log.Error().Err(err).Msg("failed to load tasks")
		return []domain.Task{}
	}
	if tasks == nil {
		return []domain.Task{}
	}
	return tasks
}

func (r *Repo) GetTask(ctx context.Context, id string) (domain.Task, error) {
	for _, t := range r.LoadTasks(ctx) {
		if t.ID == id {
			return t, nil
		}
	}
	return domain.Task{}, ErrNotFound
}

// AddTask appends a new task. Empty text is accepted; callers validate.
func (r *Repo) AddTask(ctx context.Context, text, description, date string, isHabit bool) (domain.Task, error) {
	unlock := r.lock(kv.KeyTasks)
	defer unlock()
	t := domain.Task{
		ID:          uuid.NewString(),
		Text:        text,
		Description: description,
		Date:        date,
		IsHabit:     isHabit,
		CreatedAt:   r.Today(),
	}
	if isHabit {
		t.HabitDatesCompleted = []string{}
	}
	tasks, err := r.readTasks(ctx)
	if err != nil {
		return domain.Task{}, err
	}
	if err := r.writeJSON(ctx, kv.KeyTasks, append(tasks, t)); err != nil {
		return domain.Task{}, err
	}
	r.committed(ctx, "task.add", "task", t.ID, events.EventPayload{"text": t.Text, "is_habit": t.IsHabit})
	return t, nil
}

// UpdateTask replaces the stored task with the same id. An unknown id is
// a logged no-op. CreatedAt is immutable and always kept from the stored
// record. Flipping IsHabit migrates HabitDatesCompleted only; Completed and
// Date are kept as they were.
func (r *Repo) UpdateTask(ctx context.Context, updated domain.Task) error {
	unlock := r.lock(kv.KeyTasks)
	defer unlock()
	tasks, err := r.readTasks(ctx)
	if err != nil {
		return err
	}
	idx := indexOf(tasks, updated.ID)
	if idx < 0 {
		r.Log.Warn().Str("task_id", updated.ID).Msg("update: task not found")
		return nil
	}
	updated.CreatedAt = tasks[idx].CreatedAt
	normalizeShape(&updated)
	tasks[idx] = updated
	if err := r.writeJSON(ctx, kv.KeyTasks, tasks); err != nil {
		return err
	}
	r.committed(ctx, "task.update", "task", updated.ID, nil)
	return nil
}

func (r *Repo) DeleteTask(ctx context.Context, id string) error {
	unlock := r.lock(kv.KeyTasks)
	defer unlock()
	tasks, err := r.readTasks(ctx)
	if err != nil {
		return err
	}
	idx := indexOf(tasks, id)
	if idx < 0 {
		r.Log.Warn().Str("task_id", id).Msg("delete: task not found")
		return nil
	}
	tasks = append(tasks[:idx], tasks[idx+1:]...)
	if err := r.writeJSON(ctx, kv.KeyTasks, tasks); err != nil {
		return err
	}
	r.committed(ctx, "task.delete", "task", id, nil)
	return nil
}

// ToggleTaskCompletion flips a one-off task's completed flag, or flips
// membership of referenceDate in a habit's completion dates. An empty
// referenceDate means today.
func (r *Repo) ToggleTaskCompletion(ctx context.Context, id, referenceDate string) error {
	unlock := r.lock(kv.KeyTasks)
	defer unlock()
	tasks, err := r.readTasks(ctx)
	if err != nil {
		return err
	}
	idx := indexOf(tasks, id)
	if idx < 0 {
		r.Log.Warn().Str("task_id", id).Msg("toggle: task not found")
		return nil
	}
	t := &tasks[idx]
	payload := events.EventPayload{}
	if t.IsHabit {
		day := referenceDate
		if day == "" {
			day = r.Today()
		}
		done := toggleDate(t, day)
		payload["date"] = day
		payload["completed"] = done
	} else {
		t.Completed = !t.Completed
		payload["completed"] = t.Completed
	}
	if err := r.writeJSON(ctx, kv.KeyTasks, tasks); err != nil {
		return err
	}
	r.committed(ctx, "task.toggle", "task", id, payload)
	return nil
}

// toggleDate flips day in the habit's completion set and reports whether
// the habit is now complete for that day.
func toggleDate(t *domain.Task, day string) bool {
	kept := make([]string, 0, len(t.HabitDatesCompleted)+1)
	found := false
	for _, d := range t.HabitDatesCompleted {
		if d == day {
			found = true
			continue
		}
		kept = append(kept, d)
	}
	if !found {
		kept = append(kept, day)
		sort.Strings(kept)
	}
	t.HabitDatesCompleted = kept
	return !found
}

// normalizeShape keeps HabitDatesCompleted consistent with IsHabit:
// habits always carry a sorted, deduplicated list, one-off tasks none.
func normalizeShape(t *domain.Task) {
	if !t.IsHabit {
		t.HabitDatesCompleted = nil
		return
	}
	if t.HabitDatesCompleted == nil {
		t.HabitDatesCompleted = []string{}
		return
	}
	seen := make(map[string]struct{}, len(t.HabitDatesCompleted))
	dates := make([]string, 0, len(t.HabitDatesCompleted))
	for _, d := range t.HabitDatesCompleted {
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		dates = append(dates, d)
	}
	sort.Strings(dates)
	t.HabitDatesCompleted = dates
}

func indexOf(tasks []domain.Task, id string) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
