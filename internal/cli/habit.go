package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"kaizen/internal/dates"
	"kaizen/internal/services"
	"kaizen/internal/types"
)

func newHabitCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "habit",
		Short: "Manage habits",
	}
	cmd.AddCommand(
		newHabitAddCmd(rt),
		newHabitEditCmd(rt),
		newHabitRmCmd(rt),
		newHabitListCmd(rt),
	)
	return cmd
}

// habitFlags are shared by add and edit
type habitFlags struct {
	name              string
	kind              string
	category          string
	color             string
	goalFrequency     int
	targetConsistency int
	trackingType      string
	dailyTarget       float64
	streakGoal        int
	quitDate          string
	costPerDay        float64
}

func (f *habitFlags) register(cmd *cobra.Command, withName bool) {
	if withName {
		cmd.Flags().StringVar(&f.name, "name", "", "Habit name")
	}
	cmd.Flags().StringVarP(&f.kind, "kind", "k", "build", "Habit kind (build|quit)")
	cmd.Flags().StringVar(&f.category, "category", "", "Category label")
	cmd.Flags().StringVar(&f.color, "color", "", "Display color (#rrggbb)")
	cmd.Flags().IntVarP(&f.goalFrequency, "goal", "g", 0, "Target days per week (0-7)")
	cmd.Flags().IntVarP(&f.targetConsistency, "target", "t", 80, "Target consistency percent (0-100)")
	cmd.Flags().StringVar(&f.trackingType, "tracking", "boolean", "Tracking type (boolean|count)")
	cmd.Flags().Float64Var(&f.dailyTarget, "daily-target", 1, "Daily target for count tracking")
	cmd.Flags().IntVar(&f.streakGoal, "streak-goal", 0, "Streak goal in days")
	cmd.Flags().StringVar(&f.quitDate, "quit-date", "", "Quit date (YYYY-MM-DD or RFC3339, default now)")
	cmd.Flags().Float64Var(&f.costPerDay, "cost", 0, "Money spent per day on a quit habit")
}

// parseMoment accepts a date key (local midnight) or an RFC3339 timestamp
func parseMoment(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := dates.ParseKey(s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected YYYY-MM-DD or RFC3339, got %q", s)
	}
	return t, nil
}

func (f *habitFlags) input(cmd *cobra.Command, name string) (services.HabitInput, error) {
	in := services.HabitInput{
		Name:         name,
		Kind:         types.HabitKind(strings.ToLower(f.kind)),
		Category:     f.category,
		Color:        f.color,
		TrackingType: types.TrackingType(strings.ToLower(f.trackingType)),
		DailyTarget:  f.dailyTarget,
		StreakGoal:   f.streakGoal,
	}
	if cmd.Flags().Changed("goal") {
		in.GoalFrequency = &f.goalFrequency
	}
	target := f.targetConsistency
	in.TargetConsistency = &target

	if f.quitDate != "" {
		t, err := parseMoment(f.quitDate)
		if err != nil {
			return in, fmt.Errorf("--quit-date: %w", err)
		}
		in.QuitDate = &t
	}
	if cmd.Flags().Changed("cost") {
		in.QuitCostPerDay = &f.costPerDay
	}
	return in, nil
}

func (f *habitFlags) patch(cmd *cobra.Command) services.HabitPatch {
	var p services.HabitPatch
	flags := cmd.Flags()
	if flags.Changed("name") {
		p.Name = &f.name
	}
	if flags.Changed("kind") {
		kind := types.HabitKind(strings.ToLower(f.kind))
		p.Kind = &kind
	}
	if flags.Changed("category") {
		p.Category = &f.category
	}
	if flags.Changed("color") {
		p.Color = &f.color
	}
	if flags.Changed("goal") {
		p.GoalFrequency = &f.goalFrequency
	}
	if flags.Changed("target") {
		p.TargetConsistency = &f.targetConsistency
	}
	if flags.Changed("tracking") {
		tracking := types.TrackingType(strings.ToLower(f.trackingType))
		p.TrackingType = &tracking
	}
	if flags.Changed("daily-target") {
		p.DailyTarget = &f.dailyTarget
	}
	if flags.Changed("streak-goal") {
		p.StreakGoal = &f.streakGoal
	}
	if flags.Changed("cost") {
		p.QuitCostPerDay = &f.costPerDay
	}
	return p
}

func newHabitAddCmd(rt *runtime) *cobra.Command {
	var flags habitFlags

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a habit to build or to quit",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("name is required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := flags.input(cmd, args[0])
			if err != nil {
				return err
			}
			res, err := rt.tracker().AddHabit(cmd.Context(), in)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s Added %s habit %s (%s)\n",
				rt.palette.good.Sprint("✓"), res.Habit.Kind, res.Habit.Name, shortID(res.Habit.ID))
			rt.warnIfNotPersisted(out, res.Result)
			return nil
		},
	}
	flags.register(cmd, false)
	return cmd
}

func newHabitEditCmd(rt *runtime) *cobra.Command {
	var flags habitFlags

	cmd := &cobra.Command{
		Use:   "edit <habit>",
		Short: "Change a habit; switching --kind drops the other kind's settings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := resolveHabit(rt.tracker().Habits(), args[0])
			if err != nil {
				return err
			}
			res, err := rt.tracker().EditHabit(cmd.Context(), h.ID, flags.patch(cmd))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s Updated %s (%s)\n", rt.palette.good.Sprint("✓"), res.Habit.Name, res.Habit.Kind)
			rt.warnIfNotPersisted(out, res.Result)
			return nil
		},
	}
	flags.register(cmd, true)
	return cmd
}

func newHabitRmCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <habit>",
		Aliases: []string{"remove", "delete"},
		Short:   "Delete a habit; its completion history is kept",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := resolveHabit(rt.tracker().Habits(), args[0])
			if err != nil {
				return err
			}
			res, err := rt.tracker().DeleteHabit(cmd.Context(), h.ID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s Deleted %s\n", rt.palette.good.Sprint("✓"), h.Name)
			rt.warnIfNotPersisted(out, res)
			return nil
		},
	}
}

func newHabitListCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List habits",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			habits := rt.tracker().Habits()
			out := cmd.OutOrStdout()
			p := rt.palette

			if len(habits) == 0 {
				fmt.Fprintln(out, p.muted.Sprint("No habits yet. Add one with: kaizen habit add <name>"))
				return nil
			}

			today := dates.Key(rt.now())
			done := make(map[string]bool)
			if ids, err := rt.tracker().CompletedOn(today); err == nil {
				for _, id := range ids {
					done[id] = true
				}
			}

			fmt.Fprintf(out, "%s\n", p.title.Sprint("Habits"))
			for _, h := range habits {
				marker := p.muted.Sprint("○")
				detail := ""
				switch {
				case h.IsQuit():
					marker = p.label.Sprint("⊘")
					detail = "quit since " + h.Quit.QuitDate.Local().Format("2006-01-02")
				default:
					if done[h.ID] {
						marker = p.good.Sprint("●")
					}
					detail = fmt.Sprintf("target %d%%", h.TargetConsistency)
					if h.GoalFrequency > 0 {
						detail += fmt.Sprintf(", %d/week", h.GoalFrequency)
					}
				}

				fmt.Fprintf(out, "  %s %-8s  %-24s %-12s %s\n",
					marker, shortID(h.ID), h.Name, h.Category, p.muted.Sprint(detail))
			}
			return nil
		},
	}
}
