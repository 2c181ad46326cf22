package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"lune/internal/app"
	"lune/internal/config"
	"lune/internal/db"
)

var rootCmd = &cobra.Command{
	Use:   "lune",
	Short: "Lune wellbeing journal",
	Long: `Lune keeps a private wellbeing journal on this machine.
- Tasks: one-off tasks scheduled on a date, or habits completed on many dates.
- Moods: one mood (1-5) per day; the last write for a day wins.
- Journal: one free-text entry per day.
- Stats and calendar: views derived from the records above, nothing extra is stored.
- Reflect: premium users can ask the AI reflection service about their week.
- Data lives in .lune/ under the workspace (SQLite by default; redis, file and memory stores are available).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	workspace := viper.GetString("workspace")
	if err := godotenv.Load(filepath.Join(workspace, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "warning: could not read .env:", err)
	}
	viper.SetEnvPrefix("LUNE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()
	config.BindEnv(viper.GetViper())
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("store", "", "store backend: sqlite, redis, file or memory")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("store.backend", rootCmd.PersistentFlags().Lookup("store"))
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func registerCommands() {
	rootCmd.AddCommand(taskCmd())
	rootCmd.AddCommand(moodCmd())
	rootCmd.AddCommand(journalCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(calendarCmd())
	rootCmd.AddCommand(reflectCmd())
	rootCmd.AddCommand(premiumCmd())
	rootCmd.AddCommand(settingsCmd())
	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(backupCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(clearCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(configCmd())
}

// --- helpers ---

func withApp(ctx context.Context, fn func(context.Context, *app.App) error) error {
	a, err := app.Open(ctx, app.Options{Workspace: viper.GetString("workspace"), Viper: viper.GetViper()})
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}
