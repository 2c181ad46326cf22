package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"lune/internal/aggregate"
	"lune/internal/app"
	"lune/internal/domain"
	"lune/internal/notify"
)

func taskCmd() *cobra.Command {
	task := &cobra.Command{
		Use:   "task",
		Short: "Task and habit commands",
		Long:  "One-off tasks are done once on their date; habits are ticked off per day.",
	}
	task.AddCommand(taskAddCmd())
	task.AddCommand(taskListCmd())
	task.AddCommand(taskShowCmd())
	task.AddCommand(taskUpdateCmd())
	task.AddCommand(taskDeleteCmd())
	task.AddCommand(taskToggleCmd())
	task.AddCommand(taskRemindersCmd())
	return task
}

func validateDate(date string) error {
	if date == "" {
		return nil
	}
	_, err := domain.ParseDate(date)
	return err
}

func taskAddCmd() *cobra.Command {
	var description, date string
	var habit bool
	cmd := &cobra.Command{
		Use:   "add <text>",
		Short: "Add a task or habit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.TrimSpace(strings.Join(args, " "))
			if text == "" {
				return fmt.Errorf("task text is required")
			}
			if err := validateDate(date); err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if date == "" && !habit {
					date = a.Repo.Today()
				}
				t, err := a.Repo.AddTask(ctx, text, description, date, habit)
				if err != nil {
					return err
				}
				return printJSONOrTable(t)
			})
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "task description")
	cmd.Flags().StringVar(&date, "date", "", "scheduled date YYYY-MM-DD (default today for tasks)")
	cmd.Flags().BoolVar(&habit, "habit", false, "create a habit instead of a one-off task")
	return cmd
}

func taskListCmd() *cobra.Command {
	var date string
	var habitsOnly bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateDate(date); err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				tasks := a.Repo.LoadTasks(ctx)
				if date != "" {
					tasks = aggregate.TasksForDate(tasks, date)
				}
				if habitsOnly {
					habits := []domain.Task{}
					for _, t := range tasks {
						if t.IsHabit {
							habits = append(habits, t)
						}
					}
					tasks = habits
				}
				ref := date
				if ref == "" {
					ref = a.Repo.Today()
				}
				rows := make([]table.Row, 0, len(tasks))
				for _, t := range tasks {
					kind := "task"
					if t.IsHabit {
						kind = "habit"
					}
					rows = append(rows, table.Row{t.ID, t.Text, kind, orDash(t.Date), checkmark(aggregate.IsCompletedOn(t, ref))})
				}
				return renderTable(tasks, table.Row{"ID", "Text", "Kind", "Date", "Done (" + ref + ")"}, rows)
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "only tasks shown on this date (habits always shown)")
	cmd.Flags().BoolVar(&habitsOnly, "habits", false, "only habits")
	return cmd
}

func taskShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				t, err := a.Repo.GetTask(ctx, args[0])
				if err != nil {
					return fmt.Errorf("task %s: %w", args[0], err)
				}
				return printJSONOrTable(t)
			})
		},
	}
}

func taskUpdateCmd() *cobra.Command {
	var text, description, date string
	var habit bool
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a task",
		Long:  "Switching a task to a habit (or back) keeps its date and completed flag as they were.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateDate(date); err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				t, err := a.Repo.GetTask(ctx, args[0])
				if err != nil {
					return fmt.Errorf("task %s: %w", args[0], err)
				}
				flags := cmd.Flags()
				if flags.Changed("text") {
					if strings.TrimSpace(text) == "" {
						return fmt.Errorf("task text cannot be empty")
					}
					t.Text = text
				}
				if flags.Changed("description") {
					t.Description = description
				}
				if flags.Changed("date") {
					t.Date = date
				}
				if flags.Changed("habit") {
					t.IsHabit = habit
				}
				if err := a.Repo.UpdateTask(ctx, t); err != nil {
					return err
				}
				updated, err := a.Repo.GetTask(ctx, t.ID)
				if err != nil {
					return err
				}
				return printJSONOrTable(updated)
			})
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "task text")
	cmd.Flags().StringVar(&description, "description", "", "task description")
	cmd.Flags().StringVar(&date, "date", "", "scheduled date YYYY-MM-DD")
	cmd.Flags().BoolVar(&habit, "habit", false, "make the task a habit (--habit=false to revert)")
	return cmd
}

func taskDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				return a.Repo.DeleteTask(ctx, args[0])
			})
		},
	}
}

func taskToggleCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "toggle <id>",
		Short: "Toggle completion",
		Long:  "Flips a one-off task's completed flag, or a habit's completion for --date (default today).",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateDate(date); err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := a.Repo.ToggleTaskCompletion(ctx, args[0], date); err != nil {
					return err
				}
				t, err := a.Repo.GetTask(ctx, args[0])
				if err != nil {
					return fmt.Errorf("task %s: %w", args[0], err)
				}
				return printJSONOrTable(t)
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "habit completion date YYYY-MM-DD")
	return cmd
}

func taskRemindersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reminders",
		Short: "List reminders a scheduler should hold",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				reminders, err := a.Engine.Reminders(ctx)
				if err != nil {
					return err
				}
				rows := make([]table.Row, 0, len(reminders))
				for _, r := range reminders {
					rows = append(rows, table.Row{r.TaskID, r.At.Format("2006-01-02 15:04 MST"), r.Body})
				}
				if reminders == nil {
					reminders = []notify.Reminder{}
				}
				return renderTable(reminders, table.Row{"Task", "At", "Message"}, rows)
			})
		},
	}
}
