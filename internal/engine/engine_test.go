package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"lune/internal/config"
	"lune/internal/domain"
	"lune/internal/engine"
	"lune/internal/kv"
	"lune/internal/repo"
)

type fakeReflector struct {
	reply    string
	err      error
	payloads []domain.ReflectionPayload
	reported []domain.ChatMessage
}

func (f *fakeReflector) Generate(_ context.Context, p domain.ReflectionPayload) (string, error) {
	f.payloads = append(f.payloads, p)
	return f.reply, f.err
}

func (f *fakeReflector) Report(_ context.Context, m domain.ChatMessage) error {
	f.reported = append(f.reported, m)
	return nil
}

type premium bool

func (p premium) IsPremium(context.Context) bool { return bool(p) }

type testEnv struct {
	Engine    engine.Engine
	Reflector *fakeReflector
	Ctx       context.Context
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	ctx := context.Background()
	store, err := kv.OpenSQLite(ctx, t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return newEnvWithStore(t, store)
}

func newEnvWithStore(t *testing.T, store kv.Store) testEnv {
	t.Helper()
	now := func() time.Time { return time.Date(2024, 1, 10, 12, 0, 0, 0, time.Local) }
	r := repo.New(store, zerolog.Nop())
	r.Now = now
	r.VerifyDelay = 0
	eng := engine.New(r, config.Default(), zerolog.Nop())
	eng.Now = now
	refl := &fakeReflector{reply: "You did well."}
	eng.Reflection = refl
	eng.Entitlement = premium(true)
	return testEnv{Engine: eng, Reflector: refl, Ctx: context.Background()}
}

func TestReflectionPayloadGathersToday(t *testing.T) {
	env := newTestEnv(t)
	r := env.Engine.Repo
	if _, ok, err := r.SetMoodForDate(env.Ctx, "2024-01-10", 4); err != nil || !ok {
		t.Fatalf("set mood: %v", err)
	}
	if err := r.SaveJournalEntry(env.Ctx, "2024-01-10", "quiet day"); err != nil {
		t.Fatal(err)
	}
	task, _ := r.AddTask(env.Ctx, "Walk", "", "2024-01-09", false)
	_ = r.ToggleTaskCompletion(env.Ctx, task.ID, "")
	_, _ = r.AddTask(env.Ctx, "Read", "", "2024-01-10", false)

	p := env.Engine.ReflectionPayload(env.Ctx, "how am I doing?")
	if p.UserMessage != "how am I doing?" {
		t.Fatalf("message lost: %+v", p)
	}
	if p.Mood == nil || *p.Mood != 4 || p.MoodName == nil || *p.MoodName != "Green" {
		t.Fatalf("unexpected mood fields: %+v", p)
	}
	if p.Journal == nil || *p.Journal != "quiet day" {
		t.Fatalf("unexpected journal: %+v", p.Journal)
	}
	if p.Tasks != "In the last 7 days, you completed 1 out of 2 tasks/habits." {
		t.Fatalf("unexpected summary %q", p.Tasks)
	}
}

func TestReflectionPayloadWithoutRecords(t *testing.T) {
	env := newTestEnv(t)
	p := env.Engine.ReflectionPayload(env.Ctx, "hi")
	if p.Mood != nil || p.MoodName != nil || p.Journal != nil {
		t.Fatalf("absent records must be nil: %+v", p)
	}
	if p.Tasks != "In the last 7 days, you completed 0 out of 0 tasks/habits." {
		t.Fatalf("unexpected summary %q", p.Tasks)
	}
}

// brokenStore fails reads of one key.
type brokenStore struct {
	kv.Store
	key string
}

func (b brokenStore) Get(ctx context.Context, key string) (string, bool, error) {
	if key == b.key {
		return "", false, errors.New("medium unavailable")
	}
	return b.Store.Get(ctx, key)
}

func TestReflectionPayloadFallsBackOnReadFailure(t *testing.T) {
	env := newEnvWithStore(t, brokenStore{Store: kv.NewMemory(), key: kv.KeyJournal})
	p := env.Engine.ReflectionPayload(env.Ctx, "hi")
	if p.Tasks != "Failed to retrieve data." || p.Mood != nil || p.Journal != nil {
		t.Fatalf("expected fallback payload, got %+v", p)
	}
}

func TestReflectRequiresPremium(t *testing.T) {
	env := newTestEnv(t)
	env.Engine.Entitlement = premium(false)
	if _, err := env.Engine.Reflect(env.Ctx, "hello"); !errors.Is(err, engine.ErrPremiumRequired) {
		t.Fatalf("expected ErrPremiumRequired, got %v", err)
	}
	if len(env.Reflector.payloads) != 0 {
		t.Fatalf("service called without premium")
	}
	if msgs := env.Engine.Repo.LoadChatMessages(env.Ctx); len(msgs) != 0 {
		t.Fatalf("transcript written without premium")
	}
}

func TestReflectRecordsExchange(t *testing.T) {
	env := newTestEnv(t)
	reply, err := env.Engine.Reflect(env.Ctx, "  hello  ")
	if err != nil {
		t.Fatalf("reflect: %v", err)
	}
	if reply.Text != "You did well." || reply.Type != "analysis" || reply.Role != "ai" {
		t.Fatalf("unexpected reply %+v", reply)
	}
	msgs := env.Engine.Repo.LoadChatMessages(env.Ctx)
	if len(msgs) != 2 || msgs[0].Role != "user" || msgs[0].Text != "hello" {
		t.Fatalf("unexpected transcript %+v", msgs)
	}
	if _, err := env.Engine.Reflect(env.Ctx, "   "); !errors.Is(err, engine.ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
}

func TestReflectServiceFailureStoresApology(t *testing.T) {
	env := newTestEnv(t)
	env.Reflector.err = errors.New("timeout")
	reply, err := env.Engine.Reflect(env.Ctx, "hello")
	if err == nil {
		t.Fatalf("expected error")
	}
	if reply.Text != "Sorry, a temporary error occurred. Please try again." {
		t.Fatalf("unexpected reply %+v", reply)
	}

	env.Reflector.err = nil
	env.Reflector.reply = ""
	reply, err = env.Engine.Reflect(env.Ctx, "hello again")
	if err != nil || reply.Text != "Thank you for sharing! Could you tell me a bit more?" {
		t.Fatalf("unexpected empty-reply handling: %+v %v", reply, err)
	}
}

func TestReportMessage(t *testing.T) {
	env := newTestEnv(t)
	reply, err := env.Engine.Reflect(env.Ctx, "hello")
	if err != nil {
		t.Fatal(err)
	}
	if err := env.Engine.ReportMessage(env.Ctx, reply.ID); err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(env.Reflector.reported) != 1 || env.Reflector.reported[0].Text != "You did well." {
		t.Fatalf("report not forwarded: %+v", env.Reflector.reported)
	}
	user := env.Engine.Repo.LoadChatMessages(env.Ctx)[0]
	if err := env.Engine.ReportMessage(env.Ctx, user.ID); err == nil {
		t.Fatalf("user messages cannot be reported")
	}
	if err := env.Engine.ReportMessage(env.Ctx, "missing"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStats(t *testing.T) {
	env := newTestEnv(t)
	r := env.Engine.Repo
	h, _ := r.AddTask(env.Ctx, "Stretch", "", "", true)
	_ = r.ToggleTaskCompletion(env.Ctx, h.ID, "2024-01-10")
	_ = r.ToggleTaskCompletion(env.Ctx, h.ID, "2024-01-08")
	_, _, _ = r.SetMoodForDate(env.Ctx, "2024-01-10", 2)
	_, _, _ = r.SetMoodForDate(env.Ctx, "2023-01-01", 5)

	stats, err := env.Engine.Stats(env.Ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(stats.Histogram) != engine.StatsWindow || stats.End != "2024-01-10" {
		t.Fatalf("unexpected window %s..%s (%d)", stats.Start, stats.End, len(stats.Histogram))
	}
	if stats.Histogram[len(stats.Histogram)-1].Count != 1 {
		t.Fatalf("today's count wrong")
	}
	if len(stats.Moods) != 5 || stats.Moods[1].Count != 1 || stats.Moods[4].Count != 0 {
		t.Fatalf("mood distribution should only see the window: %+v", stats.Moods)
	}
	for _, w := range stats.Weeks {
		if len(w) != 7 {
			t.Fatalf("week of %d cells", len(w))
		}
	}
	if stats.Ratio.Completed != 2 {
		t.Fatalf("unexpected ratio %+v", stats.Ratio)
	}
}

func TestCalendarAndDayView(t *testing.T) {
	env := newTestEnv(t)
	r := env.Engine.Repo
	task, _ := r.AddTask(env.Ctx, "Call", "", "2024-01-09", false)
	_ = r.ToggleTaskCompletion(env.Ctx, task.ID, "")
	_, _ = r.AddTask(env.Ctx, "Water plants", "", "", true)
	_, _, _ = r.SetMoodForDate(env.Ctx, "2024-01-09", 1)
	_ = r.SaveJournalEntry(env.Ctx, "2024-01-09", "busy")

	markers, err := env.Engine.Calendar(env.Ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got := markers["2024-01-09"]; len(got) != 2 || got[1].Color != "#FF69B4" {
		t.Fatalf("unexpected markers %+v", got)
	}

	day, err := env.Engine.DayView(env.Ctx, "2024-01-09")
	if err != nil {
		t.Fatal(err)
	}
	if day.Mood == nil || day.MoodName != "Red" || day.Journal == nil || *day.Journal != "busy" {
		t.Fatalf("unexpected day %+v", day)
	}
	if len(day.Tasks) != 2 || !day.Tasks[0].Done || day.Tasks[1].Done {
		t.Fatalf("unexpected day tasks %+v", day.Tasks)
	}
	if _, err := env.Engine.DayView(env.Ctx, "not-a-date"); err == nil {
		t.Fatalf("expected invalid date error")
	}
}

func TestRemindersFollowNotificationSetting(t *testing.T) {
	env := newTestEnv(t)
	r := env.Engine.Repo
	_, _ = r.AddTask(env.Ctx, "Dentist", "", "2024-01-12", false)

	got, err := env.Engine.Reminders(env.Ctx)
	if err != nil || len(got) != 0 {
		t.Fatalf("reminders planned while disabled: %v %v", got, err)
	}
	_ = r.SaveNotificationsEnabled(env.Ctx, true)
	got, err = env.Engine.Reminders(env.Ctx)
	if err != nil || len(got) != 1 || got[0].At.Hour() != 9 {
		t.Fatalf("unexpected reminders %+v %v", got, err)
	}
}

func TestClearAll(t *testing.T) {
	env := newTestEnv(t)
	_, _ = env.Engine.Repo.AddTask(env.Ctx, "a", "", "2024-01-10", false)
	if err := env.Engine.ClearAll(env.Ctx); err != nil {
		t.Fatal(err)
	}
	if n := len(env.Engine.Repo.LoadTasks(env.Ctx)); n != 0 {
		t.Fatalf("tasks survived clear: %d", n)
	}
}
