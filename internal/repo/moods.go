package repo

import (
	"context"
	"sort"
	"time"

	"lune/internal/domain"
	"lune/internal/events"
	"lune/internal/kv"
)

// GetMoodForDate returns the mood recorded for date. A malformed ledger or
// an unreadable medium reads as absent.
func (r *Repo) GetMoodForDate(ctx context.Context, date string) (int, bool) {
	m, ok, err := r.LookupMood(ctx, date)
	if err != nil {
		r.Log.Error().Err(err).Str("date", date).Msg("failed to load mood")
		return 0, false
	}
	return m, ok
}

// LookupMood is GetMoodForDate with medium failures returned.
func (r *Repo) LookupMood(ctx context.Context, date string) (int, bool, error) {
	moods, err := readObject[int](ctx, r, kv.KeyMoods)
	if err != nil {
		return 0, false, err
	}
	m, ok := moods[date]
	return m, ok, nil
}

// SetMoodForDate writes mood under date, waits VerifyDelay and reads the
// ledger back. It returns (mood, true) and bumps the data version only when
// the read-back matches; otherwise (0, false) so callers re-fetch truth.
func (r *Repo) SetMoodForDate(ctx context.Context, date string, mood int) (int, bool, error) {
	unlock := r.lock(kv.KeyMoods)
	defer unlock()
	moods, err := readObject[int](ctx, r, kv.KeyMoods)
	if err != nil {
		return 0, false, err
	}
	moods[date] = mood
	if err := r.writeJSON(ctx, kv.KeyMoods, moods); err != nil {
		return 0, false, err
	}
	if err := sleep(ctx, r.VerifyDelay); err != nil {
		return 0, false, err
	}
	verify, err := readObject[int](ctx, r, kv.KeyMoods)
	if err != nil {
		return 0, false, err
	}
	got, ok := verify[date]
	if !ok || got != mood {
		r.Log.Error().Str("date", date).Int("expected", mood).Int("got", got).Bool("present", ok).
			Msg("mood verification failed")
		return 0, false, nil
	}
	r.committed(ctx, "mood.set", "mood", date, events.EventPayload{"mood": mood})
	return mood, true, nil
}

// AllMoods returns every recorded mood ordered by date.
func (r *Repo) AllMoods(ctx context.Context) []domain.MoodEntry {
	return r.MoodsInRange(ctx, "", "")
}

// MoodsInRange returns moods with from <= date <= to, ordered by date.
// Empty bounds are open.
func (r *Repo) MoodsInRange(ctx context.Context, from, to string) []domain.MoodEntry {
	moods, err := readObject[int](ctx, r, kv.KeyMoods)
	if err != nil {
		r.Log.Error().Err(err).Msg("failed to load moods")
		return []domain.MoodEntry{}
	}
	out := make([]domain.MoodEntry, 0, len(moods))
	for date, m := range moods {
		if from != "" && date < from {
			continue
		}
		if to != "" && date > to {
			continue
		}
		out = append(out, domain.MoodEntry{Date: date, Mood: m})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
