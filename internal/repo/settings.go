package repo

import (
	"context"
	"fmt"

	"lune/internal/kv"
)

// DefaultMoodColors is the palette used until the user picks one.
var DefaultMoodColors = []string{"#FF6347", "#8A2BE2", "#4169E1", "#32CD32", "#FFD700"}

const DefaultUserName = "User"

// Theme returns the selected theme key, or "" when none was chosen.
func (r *Repo) Theme(ctx context.Context) string {
	v, ok, err := r.Store.Get(ctx, kv.KeyTheme)
	if err != nil {
		r.Log.Error().Err(err).Msg("failed to load theme")
		return ""
	}
	if !ok {
		return ""
	}
	return v
}

func (r *Repo) SaveTheme(ctx context.Context, theme string) error {
	if err := r.Store.Set(ctx, kv.KeyTheme, theme); err != nil {
		return fmt.Errorf("save theme: %w", err)
	}
	return nil
}

func (r *Repo) MoodColors(ctx context.Context) []string {
	var colors []string
	found, err := r.readJSON(ctx, kv.KeyMoodColors, &colors)
	if err != nil {
		r.Log.Error().Err(err).Msg("failed to load mood colors")
	}
	if !found || len(colors) == 0 {
		return append([]string(nil), DefaultMoodColors...)
	}
	return colors
}

func (r *Repo) SaveMoodColors(ctx context.Context, colors []string) error {
	return r.writeJSON(ctx, kv.KeyMoodColors, colors)
}

// IsFirstLaunch reports whether the onboarding flag was never set. Read
// failures count as a first launch.
func (r *Repo) IsFirstLaunch(ctx context.Context) bool {
	_, ok, err := r.Store.Get(ctx, kv.KeyFirstLaunch)
	if err != nil {
		r.Log.Error().Err(err).Msg("failed to check first launch")
		return true
	}
	return !ok
}

func (r *Repo) CompleteFirstLaunch(ctx context.Context) error {
	return r.Store.Set(ctx, kv.KeyFirstLaunch, "true")
}

func (r *Repo) UserName(ctx context.Context) string {
	v, ok, err := r.Store.Get(ctx, kv.KeyUserName)
	if err != nil {
		r.Log.Error().Err(err).Msg("failed to load user name")
	}
	if !ok || v == "" {
		return DefaultUserName
	}
	return v
}

func (r *Repo) SaveUserName(ctx context.Context, name string) error {
	return r.Store.Set(ctx, kv.KeyUserName, name)
}

func (r *Repo) NotificationsEnabled(ctx context.Context) bool {
	var enabled bool
	if _, err := r.readJSON(ctx, kv.KeyNotificationsEnabled, &enabled); err != nil {
		r.Log.Error().Err(err).Msg("failed to load notification setting")
		return false
	}
	return enabled
}

func (r *Repo) SaveNotificationsEnabled(ctx context.Context, enabled bool) error {
	return r.writeJSON(ctx, kv.KeyNotificationsEnabled, enabled)
}
