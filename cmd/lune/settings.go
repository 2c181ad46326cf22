package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"lune/internal/app"
)

func settingsCmd() *cobra.Command {
	s := &cobra.Command{
		Use:   "settings",
		Short: "Preference commands",
	}
	s.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show preferences",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				return printJSONOrTable(map[string]any{
					"theme":         a.Repo.Theme(ctx),
					"user_name":     a.Repo.UserName(ctx),
					"notifications": a.Repo.NotificationsEnabled(ctx),
					"mood_colors":   a.Repo.MoodColors(ctx),
					"first_launch":  a.Repo.IsFirstLaunch(ctx),
				})
			})
		},
	})
	s.AddCommand(settingsSetCmd())
	return s
}

func settingsSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <theme|name|notifications|mood-colors|onboarded> <value>",
		Short: "Change a preference",
		Long:  "mood-colors takes five comma-separated colors; onboarded ignores its value.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				switch key {
				case "theme":
					return a.Repo.SaveTheme(ctx, value)
				case "name":
					return a.Repo.SaveUserName(ctx, value)
				case "notifications":
					on, err := strconv.ParseBool(value)
					if err != nil {
						return fmt.Errorf("notifications must be true or false")
					}
					return a.Repo.SaveNotificationsEnabled(ctx, on)
				case "mood-colors":
					colors := strings.Split(value, ",")
					if len(colors) != maxMood {
						return fmt.Errorf("mood-colors needs %d colors, got %d", maxMood, len(colors))
					}
					for i := range colors {
						colors[i] = strings.TrimSpace(colors[i])
					}
					return a.Repo.SaveMoodColors(ctx, colors)
				case "onboarded":
					return a.Repo.CompleteFirstLaunch(ctx)
				default:
					return fmt.Errorf("unknown setting %q", key)
				}
			})
		},
	}
}
