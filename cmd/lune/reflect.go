package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"lune/internal/app"
	"lune/internal/engine"
)

func reflectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reflect <message>",
		Short: "Ask the AI reflection service about your day (premium)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg := strings.Join(args, " ")
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				reply, err := a.Engine.Reflect(ctx, msg)
				if errors.Is(err, engine.ErrPremiumRequired) {
					return fmt.Errorf("%w: see 'lune premium status'", err)
				}
				if err != nil {
					return err
				}
				return printJSONOrTable(reply)
			})
		},
	}
}

func premiumCmd() *cobra.Command {
	p := &cobra.Command{
		Use:   "premium",
		Short: "Subscription status",
	}
	p.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show premium status and active entitlements",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				out := map[string]any{
					"premium":      a.Entitlement.IsPremium(ctx),
					"entitlements": []string{},
				}
				if a.Entitlement.Initialized() {
					active, err := a.Entitlement.ActiveEntitlements(ctx)
					if err != nil {
						return err
					}
					out["entitlements"] = active
				}
				return printJSONOrTable(out)
			})
		},
	})
	return p
}

func chatCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "chat",
		Short: "Reflection transcript commands",
	}
	c.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the transcript",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				msgs := a.Repo.LoadChatMessages(ctx)
				rows := make([]table.Row, 0, len(msgs))
				for _, m := range msgs {
					rows = append(rows, table.Row{m.ID, m.Role, orDash(m.Type), m.Text})
				}
				return renderTable(msgs, table.Row{"ID", "Role", "Type", "Text"}, rows)
			})
		},
	})
	c.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Clear the transcript",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				return a.Repo.ClearChat(ctx)
			})
		},
	})
	c.AddCommand(&cobra.Command{
		Use:   "report <id>",
		Short: "Report an AI message as inappropriate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := a.Engine.ReportMessage(ctx, args[0]); err != nil {
					return err
				}
				fmt.Println("Reported", args[0])
				return nil
			})
		},
	})
	return c
}
