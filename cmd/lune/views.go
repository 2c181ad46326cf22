package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"lune/internal/aggregate"
	"lune/internal/app"
	"lune/internal/engine"
)

func statsCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Activity heatmap, mood distribution and weekly summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				s, err := a.Engine.Stats(ctx, days)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(s)
				}
				fmt.Printf("Activity %s .. %s\n", s.Start, s.End)
				printHeatmap(s.Weeks)
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Mood", "Name", "Days", "Color"})
				for _, m := range s.Moods {
					tw.AppendRow(table.Row{m.Mood, m.Name, m.Count, m.Color})
				}
				tw.Render()
				fmt.Println(s.Summary)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", engine.StatsWindow, "window in days")
	return cmd
}

// printHeatmap prints weeks as columns and weekdays as rows.
func printHeatmap(weeks [][]*aggregate.DayCount) {
	labels := []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	for wd, label := range labels {
		var b strings.Builder
		b.WriteString(label)
		b.WriteString(" ")
		for _, w := range weeks {
			b.WriteString(heatCell(w[wd]))
		}
		fmt.Println(b.String())
	}
}

func heatCell(c *aggregate.DayCount) string {
	switch {
	case c == nil:
		return " "
	case c.Count == 0:
		return "·"
	case c.Count <= 2:
		return "░"
	case c.Count <= 5:
		return "▒"
	default:
		return "█"
	}
}

func calendarCmd() *cobra.Command {
	var days int
	var date string
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Calendar markers, or everything recorded on --date",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if date != "" {
					day, err := a.Engine.DayView(ctx, date)
					if err != nil {
						return err
					}
					return printJSONOrTable(day)
				}
				markers, err := a.Engine.Calendar(ctx, days)
				if err != nil {
					return err
				}
				dates := make([]string, 0, len(markers))
				for d := range markers {
					dates = append(dates, d)
				}
				sort.Strings(dates)
				rows := make([]table.Row, 0, len(dates))
				for _, d := range dates {
					keys := make([]string, 0, len(markers[d]))
					for _, m := range markers[d] {
						keys = append(keys, m.Key+" "+m.Color)
					}
					rows = append(rows, table.Row{d, strings.Join(keys, ", ")})
				}
				return renderTable(markers, table.Row{"Date", "Markers"}, rows)
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", engine.CalendarWindow, "days of history")
	cmd.Flags().StringVar(&date, "date", "", "show one day YYYY-MM-DD")
	return cmd
}
