package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"kaizen/internal/dates"
	"kaizen/internal/quit"
	"kaizen/internal/reconcile"
	"kaizen/internal/stats"
	"kaizen/internal/store"
)

func newStatsCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "stats [habit]",
		Short: "Show consistency stats for one habit, or the dashboard",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				printDashboard(out, rt.palette, rt.tracker().Dashboard())
				return nil
			}

			h, err := resolveHabit(rt.tracker().Habits(), args[0])
			if err != nil {
				return err
			}
			s, err := rt.tracker().Stats(h.ID)
			if err != nil {
				return err
			}
			printHabitStats(out, rt.palette, s)
			return nil
		},
	}
}

func printHabitStats(out io.Writer, p palette, s stats.HabitStats) {
	fmt.Fprintf(out, "%s  [%s] %d%% (target %d%%, %s) %s\n",
		p.title.Sprint(s.Name), p.grade(s.Grade), s.CurrentConsistency, s.Target, signed(s.Gap), p.status(s.Status))

	row := func(label, value string) {
		fmt.Fprintf(out, "  %s %s\n", p.label.Sprintf("%-13s", label), value)
	}
	row("Yearly avg", fmt.Sprintf("%d%%", s.YearlyAverage))
	if s.BestMonth != "" {
		row("Best month", fmt.Sprintf("%s (%s)", s.BestMonth, plural(s.BestMonthCount, "day")))
	}

	streak := fmt.Sprintf("%s (longest %d)", plural(s.LiveStreak, "day"), s.LongestStreak)
	if s.StreakGoal > 0 {
		mark := p.muted.Sprintf("goal %d", s.StreakGoal)
		if s.StreakGoalMet {
			mark = p.good.Sprintf("goal %d ✓", s.StreakGoal)
		}
		streak += ", " + mark
	}
	row("Live streak", streak)

	if s.WeeklyGoal > 0 {
		row("This week", fmt.Sprintf("%d/%d", s.WeeklyCompleted, s.WeeklyGoal))
	} else {
		row("This week", fmt.Sprintf("%d", s.WeeklyCompleted))
	}
	row("Completions", fmt.Sprintf("%d", s.TotalCompletions))
	if s.CompletedToday {
		row("Today", p.good.Sprint("done"))
	} else {
		row("Today", p.muted.Sprint("not yet"))
	}
	row("Advice", s.Recommendation.Message())
}

func printDashboard(out io.Writer, p palette, d stats.Dashboard) {
	fmt.Fprintln(out, p.title.Sprint("=== Dashboard ==="))
	if len(d.Habits) == 0 {
		fmt.Fprintln(out, p.muted.Sprint("No build habits to grade yet."))
		return
	}

	fmt.Fprintf(out, "Average consistency %d%% (grade %s), %d/%d on track, %d done today\n",
		d.AverageConsistency, p.grade(d.OverallGrade), d.OnTrack, len(d.Habits), d.CompletedToday)

	names := make(map[string]string, len(d.Habits))
	for _, s := range d.Habits {
		names[s.HabitID] = s.Name
	}
	if d.BestLiveStreak > 0 {
		fmt.Fprintf(out, "Best live streak: %s (%s)\n", plural(d.BestLiveStreak, "day"), names[d.BestStreakHabitID])
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %s\n", p.label.Sprintf("%-3s %-24s %-12s %-6s %s", "#", "Habit", "Consistency", "Grade", "Best month"))
	for _, r := range d.Ranking {
		best := r.BestMonth
		if best == "" {
			best = "-"
		}
		fmt.Fprintf(out, "  %-3d %-24s %-12s %-6s %s\n",
			r.Rank, r.Name, fmt.Sprintf("%d%%", r.Consistency), p.grade(r.Grade), best)
	}
}

func newQuitStatusCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "quit-status [habit]",
		Short: "Show the journey of one or every quit habit",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 1 {
				h, err := resolveHabit(rt.tracker().Habits(), args[0])
				if err != nil {
					return err
				}
				summary, err := rt.tracker().QuitSummary(h.ID)
				if err != nil {
					return err
				}
				printQuitSummary(out, rt.palette, summary)
				return nil
			}

			summaries := rt.tracker().QuitSummaries()
			if len(summaries) == 0 {
				fmt.Fprintln(out, rt.palette.muted.Sprint("No quit habits. Add one with: kaizen habit add <name> --kind quit"))
				return nil
			}
			for i, summary := range summaries {
				if i > 0 {
					fmt.Fprintln(out)
				}
				printQuitSummary(out, rt.palette, summary)
			}
			return nil
		},
	}
}

func printQuitSummary(out io.Writer, p palette, s quit.Summary) {
	fmt.Fprintln(out, p.title.Sprint(s.Name))

	row := func(label, value string) {
		fmt.Fprintf(out, "  %s %s\n", p.label.Sprintf("%-13s", label), value)
	}
	row("Clean for", fmt.Sprintf("%s %s", p.good.Sprint(s.Current.String()),
		p.muted.Sprintf("(since %s)", s.QuitDate.Local().Format("2006-01-02 15:04"))))
	row("Best streak", dates.FormatSeconds(s.BestStreakSeconds))
	if s.MoneySaved > 0 {
		row("Money saved", fmt.Sprintf("%.2f", s.MoneySaved))
	}
	row("Relapses", fmt.Sprintf("%d", s.Relapses))
	row("Days", fmt.Sprintf("%s success / %s relapse",
		p.good.Sprint(s.SuccessDays), p.bad.Sprint(s.RelapseDays)))

	if len(s.Triggers) > 0 {
		parts := make([]string, 0, len(s.Triggers))
		for _, t := range s.Triggers {
			parts = append(parts, fmt.Sprintf("%s (%d)", t.Trigger, t.Count))
		}
		row("Triggers", strings.Join(parts, ", "))
	}
}

func newHeatmapCmd(rt *runtime) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "heatmap <habit>",
		Short: "Show the success and relapse days of a quit habit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := resolveHabit(rt.tracker().Habits(), args[0])
			if err != nil {
				return err
			}
			hm, err := rt.tracker().Heatmap(h.ID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			p := rt.palette
			cells := hm.Cells
			if days > 0 && len(cells) > days {
				cells = cells[len(cells)-days:]
			}

			fmt.Fprintln(out, p.title.Sprint(h.Name))
			for i := 0; i < len(cells); i += 7 {
				end := min(i+7, len(cells))
				var row strings.Builder
				for _, c := range cells[i:end] {
					row.WriteString(p.cell(c.State))
					row.WriteString(" ")
				}
				fmt.Fprintf(out, "  %s %s\n", p.muted.Sprint(cells[i].Date), row.String())
			}
			fmt.Fprintf(out, "  %s success, %s relapse\n",
				p.good.Sprint(plural(hm.SuccessDays, "day")), p.bad.Sprint(plural(hm.RelapseDays, "day")))
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 28, "Number of most recent days to draw (0 for all)")
	return cmd
}

// exportDocument is the file format of export and import: each collection
// as its persisted JSON
type exportDocument map[string]json.RawMessage

func newExportCmd(rt *runtime) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every collection as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := rt.tracker().Export()
			if err != nil {
				return err
			}

			doc := make(exportDocument, len(docs))
			for collection, raw := range docs {
				doc[collection] = json.RawMessage(raw)
			}
			data, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding export: %w", err)
			}
			data = append(data, '\n')

			if output == "" || output == "-" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("writing export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s exported %d collections to %s\n",
				rt.palette.good.Sprint("✓"), len(doc), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	return cmd
}

func newImportCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the current user's data with an export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading import: %w", err)
			}
			var doc exportDocument
			if err := json.Unmarshal(data, &doc); err != nil {
				return fmt.Errorf("parsing import: %w", err)
			}

			docs := make(reconcile.Documents, len(doc))
			for collection, raw := range doc {
				docs[collection] = string(raw)
			}
			res := rt.tracker().Import(cmd.Context(), docs)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s imported %s and %s of tracking\n", rt.palette.good.Sprint("✓"),
				plural(len(res.State.Habits), "habit"), plural(len(res.State.Tracking), "day"))
			rt.warnIfNotPersisted(out, res)
			return nil
		},
	}
}

func newUsersCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List the users with stored data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := store.Users(cmd.Context(), rt.app.Store())
			if err != nil {
				return err
			}
			sort.Strings(users)

			out := cmd.OutOrStdout()
			current := rt.tracker().User()
			for _, u := range users {
				if u == current {
					fmt.Fprintf(out, "%s %s\n", rt.palette.good.Sprint("*"), u)
					continue
				}
				fmt.Fprintf(out, "  %s\n", u)
			}
			if len(users) == 0 {
				fmt.Fprintln(out, rt.palette.muted.Sprint("No stored users"))
			}
			return nil
		},
	}
}
