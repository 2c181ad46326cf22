package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"lune/internal/aggregate"
	"lune/internal/config"
	"lune/internal/domain"
	"lune/internal/notify"
	"lune/internal/repo"
)

var (
	ErrPremiumRequired    = errors.New("premium subscription required")
	ErrServiceUnavailable = errors.New("reflection service unavailable")
	ErrEmptyMessage       = errors.New("message is empty")
)

const (
	// StatsWindow is the default lookback of the statistics views.
	StatsWindow = 90
	// CalendarWindow is how many days of moods the calendar loads.
	CalendarWindow = 365
	// CompletionColor marks dates with completed work on the calendar.
	CompletionColor = "#4CAF50"

	fallbackTasks   = "Failed to retrieve data."
	replyOnError    = "Sorry, a temporary error occurred. Please try again."
	replyOnEmpty    = "Thank you for sharing! Could you tell me a bit more?"
	replyTypeResult = "analysis"
)

// Reflector produces AI reflections and accepts moderation reports.
type Reflector interface {
	Generate(ctx context.Context, payload domain.ReflectionPayload) (string, error)
	Report(ctx context.Context, msg domain.ChatMessage) error
}

// PremiumChecker gates the reflection feature.
type PremiumChecker interface {
	IsPremium(ctx context.Context) bool
}

// Engine composes the record store with the derived views and the hosted
// collaborators. Nothing in the store or the aggregator depends on it.
type Engine struct {
	Repo        *repo.Repo
	Config      *config.Config
	Reflection  Reflector
	Entitlement PremiumChecker
	Log         zerolog.Logger
	Now         func() time.Time
}

func New(r *repo.Repo, cfg *config.Config, log zerolog.Logger) Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	return Engine{
		Repo:   r,
		Config: cfg,
		Log:    log,
		Now:    time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) today() string {
	return domain.FormatDate(e.now())
}

type Stats struct {
	Start     string                  `json:"start"`
	End       string                  `json:"end"`
	Histogram []aggregate.DayCount    `json:"histogram"`
	Weeks     [][]*aggregate.DayCount `json:"weeks"`
	Moods     []aggregate.MoodSlice   `json:"moods"`
	Ratio     aggregate.Ratio         `json:"ratio"`
	Summary   string                  `json:"summary"`
}

// Stats builds the statistics views over the last window days.
func (e Engine) Stats(ctx context.Context, window int) (Stats, error) {
	if window <= 0 {
		window = StatsWindow
	}
	now := e.now()
	tasks := e.Repo.LoadTasks(ctx)
	hist := aggregate.ActivityHistogram(tasks, now, window)
	start, end := hist[0].Date, hist[len(hist)-1].Date
	weeks, err := aggregate.WeeklyGrid(hist, start, end)
	if err != nil {
		return Stats{}, err
	}
	moods := e.Repo.MoodsInRange(ctx, start, end)
	ratio := aggregate.SevenDayRatio(tasks, now)
	return Stats{
		Start:     start,
		End:       end,
		Histogram: hist,
		Weeks:     weeks,
		Moods:     aggregate.MoodDistribution(moods, e.Repo.MoodColors(ctx), e.Config.Mood.Names),
		Ratio:     ratio,
		Summary:   ratio.Summary(),
	}, nil
}

// Calendar returns the markers for the last days days.
func (e Engine) Calendar(ctx context.Context, days int) (map[string][]aggregate.Marker, error) {
	if days <= 0 {
		days = CalendarWindow
	}
	today := e.today()
	from, err := domain.AddDays(today, -(days - 1))
	if err != nil {
		return nil, err
	}
	moods := e.Repo.MoodsInRange(ctx, from, today)
	return aggregate.CalendarMarkers(e.Repo.LoadTasks(ctx), moods, CompletionColor), nil
}

type TaskStatus struct {
	domain.Task
	Done bool `json:"done"`
}

// Day is everything recorded for one calendar date.
type Day struct {
	Date      string       `json:"date"`
	Mood      *int         `json:"mood"`
	MoodName  string       `json:"mood_name,omitempty"`
	MoodColor string       `json:"mood_color,omitempty"`
	Journal   *string      `json:"journal"`
	Tasks     []TaskStatus `json:"tasks"`
}

// DayView collects the mood, journal entry and tasks of date; empty means today.
func (e Engine) DayView(ctx context.Context, date string) (Day, error) {
	if date == "" {
		date = e.today()
	}
	if _, err := domain.ParseDate(date); err != nil {
		return Day{}, err
	}
	d := Day{Date: date, Tasks: []TaskStatus{}}
	if m, ok := e.Repo.GetMoodForDate(ctx, date); ok {
		d.Mood = &m
		d.MoodName = aggregate.MoodName(e.Config.Mood.Names, m)
		d.MoodColor, _ = aggregate.MoodColor(m)
	}
	if text, ok := e.Repo.GetJournalEntryForDate(ctx, date); ok {
		d.Journal = &text
	}
	for _, t := range aggregate.TasksForDate(e.Repo.LoadTasks(ctx), date) {
		d.Tasks = append(d.Tasks, TaskStatus{Task: t, Done: aggregate.IsCompletedOn(t, date)})
	}
	return d, nil
}

// ReflectionPayload gathers today's mood, journal entry and the seven-day
// summary concurrently. Any gathering failure yields the fallback payload.
func (e Engine) ReflectionPayload(ctx context.Context, message string) domain.ReflectionPayload {
	today := e.today()
	var (
		mood    int
		hasMood bool
		journal string
		hasJrnl bool
		tasks   []domain.Task
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		mood, hasMood, err = e.Repo.LookupMood(gctx, today)
		return err
	})
	g.Go(func() error {
		var err error
		journal, hasJrnl, err = e.Repo.LookupJournal(gctx, today)
		return err
	})
	g.Go(func() error {
		var err error
		tasks, err = e.Repo.Tasks(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		e.Log.Error().Err(err).Msg("failed to prepare reflection data")
		return domain.ReflectionPayload{UserMessage: message, Tasks: fallbackTasks}
	}

	p := domain.ReflectionPayload{
		UserMessage: message,
		Tasks:       aggregate.SevenDayRatio(tasks, e.now()).Summary(),
	}
	if hasMood {
		name := aggregate.MoodName(e.Config.Mood.Names, mood)
		p.Mood = &mood
		p.MoodName = &name
	}
	if hasJrnl {
		p.Journal = &journal
	}
	return p
}

// Reflect sends message to the reflection service and records both sides
// of the exchange in the chat transcript. Service failures still record an
// apology reply before the error is returned.
func (e Engine) Reflect(ctx context.Context, message string) (domain.ChatMessage, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return domain.ChatMessage{}, ErrEmptyMessage
	}
	if e.Entitlement == nil || !e.Entitlement.IsPremium(ctx) {
		return domain.ChatMessage{}, ErrPremiumRequired
	}
	if e.Reflection == nil {
		return domain.ChatMessage{}, ErrServiceUnavailable
	}
	if _, err := e.Repo.AppendChatMessages(ctx, domain.ChatMessage{Role: "user", Text: message}); err != nil {
		return domain.ChatMessage{}, err
	}
	payload := e.ReflectionPayload(ctx, message)
	text, genErr := e.Reflection.Generate(ctx, payload)

	reply := domain.ChatMessage{Role: "ai", Text: text, Type: replyTypeResult}
	switch {
	case genErr != nil:
		e.Log.Error().Err(genErr).Msg("reflection request failed")
		reply = domain.ChatMessage{Role: "ai", Text: replyOnError}
	case text == "":
		reply = domain.ChatMessage{Role: "ai", Text: replyOnEmpty}
	}
	msgs, err := e.Repo.AppendChatMessages(ctx, reply)
	if err != nil {
		return domain.ChatMessage{}, err
	}
	if genErr != nil {
		return msgs[len(msgs)-1], fmt.Errorf("generate reflection: %w", genErr)
	}
	return msgs[len(msgs)-1], nil
}

// ReportMessage reports an AI message from the transcript by id.
func (e Engine) ReportMessage(ctx context.Context, id string) error {
	if e.Reflection == nil {
		return ErrServiceUnavailable
	}
	for _, m := range e.Repo.LoadChatMessages(ctx) {
		if m.ID != id {
			continue
		}
		if m.Role != "ai" {
			return fmt.Errorf("message %s is not an AI message", id)
		}
		return e.Reflection.Report(ctx, m)
	}
	return repo.ErrNotFound
}

// Reminders lists the task reminders a scheduler should hold. Nothing is
// planned while notifications are disabled.
func (e Engine) Reminders(ctx context.Context) ([]notify.Reminder, error) {
	if !e.Repo.NotificationsEnabled(ctx) {
		return []notify.Reminder{}, nil
	}
	loc, err := e.Config.Location()
	if err != nil {
		return nil, err
	}
	return notify.Plan(e.Repo.LoadTasks(ctx), e.now(), loc, e.Config.Reminder.Hour), nil
}

// ClearAll removes every app key.
func (e Engine) ClearAll(ctx context.Context) error {
	return e.Repo.ClearAll(ctx)
}
