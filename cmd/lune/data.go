package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"lune/internal/app"
	"lune/internal/backup"
	"lune/internal/config"
	"lune/internal/events"
)

func backupCmd() *cobra.Command {
	b := &cobra.Command{
		Use:   "backup",
		Short: "Export or import all records",
	}
	b.AddCommand(&cobra.Command{
		Use:   "export <path>",
		Short: "Write every app key to a JSON document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				n, err := backup.Export(ctx, a.Store, args[0], time.Now())
				if err != nil {
					return err
				}
				fmt.Printf("Exported %d keys to %s\n", n, args[0])
				return nil
			})
		},
	})
	var replace bool
	imp := &cobra.Command{
		Use:   "import <path>",
		Short: "Restore keys from a backup document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				n, err := backup.Import(ctx, a.Store, args[0], replace)
				if err != nil {
					return err
				}
				if err := a.Repo.Bump(ctx); err != nil {
					a.Log.Warn().Err(err).Msg("failed to bump version after import")
				}
				fmt.Printf("Imported %d keys from %s\n", n, args[0])
				return nil
			})
		},
	}
	imp.Flags().BoolVar(&replace, "replace", false, "clear existing app keys first")
	b.AddCommand(imp)
	return b
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the data version counter",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				return printJSONOrTable(map[string]any{"version": a.Repo.Version(ctx)})
			})
		},
	}
}

func clearCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all tasks, moods, journal entries and preferences",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes && !confirm("Delete all data? This cannot be undone [y/N]: ") {
				return fmt.Errorf("aborted")
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				return a.Engine.ClearAll(ctx)
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}

func confirm(prompt string) bool {
	fmt.Fprint(os.Stderr, prompt)
	line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	line = strings.ToLower(strings.TrimSpace(line))
	return line == "y" || line == "yes"
}

func logCmd() *cobra.Command {
	l := &cobra.Command{
		Use:   "log",
		Short: "Mutation event log",
	}
	var n int
	var f events.Filter
	tail := &cobra.Command{
		Use:   "tail",
		Short: "Show the latest events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				evts, err := a.Repo.Events.Latest(ctx, n, f)
				if err != nil {
					return err
				}
				rows := make([]table.Row, 0, len(evts))
				for _, e := range evts {
					rows = append(rows, table.Row{e.TS, e.Type, e.EntityKind, orDash(e.EntityID)})
				}
				return renderTable(evts, table.Row{"TS", "Type", "Kind", "Entity"}, rows)
			})
		},
	}
	tail.Flags().IntVarP(&n, "n", "n", 20, "number of events")
	tail.Flags().StringVar(&f.Type, "type", "", "filter by event type")
	tail.Flags().StringVar(&f.EntityKind, "entity-kind", "", "filter by entity kind")
	tail.Flags().StringVar(&f.EntityID, "entity-id", "", "filter by entity id")
	l.AddCommand(tail)
	return l
}

func configCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "config",
		Short: "Workspace configuration",
	}
	c.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(viper.GetString("workspace"), viper.GetViper())
			if err != nil {
				return err
			}
			shown := *cfg
			shown.Reflection.AnonKey = mask(shown.Reflection.AnonKey)
			shown.Entitlement.APIKey = mask(shown.Entitlement.APIKey)
			return printJSON(shown)
		},
	})
	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default " + config.FileName,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force)", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
				return err
			}
			fmt.Println("Wrote", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	c.AddCommand(initCmd)
	c.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate " + config.FileName,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOptional(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			fmt.Println("ok")
			return nil
		},
	})
	return c
}

func mask(secret string) string {
	if len(secret) <= 4 {
		return strings.Repeat("*", len(secret))
	}
	return secret[:4] + strings.Repeat("*", len(secret)-4)
}
