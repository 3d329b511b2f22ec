package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"kaizen/internal/dates"
	"kaizen/internal/gamification"
	"kaizen/internal/types"
)

func newToggleCmd(rt *runtime) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "toggle <habit>",
		Short: "Mark a build habit done, or undo it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day := rt.now()
			if date != "" {
				parsed, err := dates.ParseKey(date, rt.now().Location())
				if err != nil {
					return err
				}
				day = parsed
			}

			h, err := resolveHabit(rt.tracker().Habits(), args[0])
			if err != nil {
				return err
			}
			res, err := rt.tracker().ToggleHabit(cmd.Context(), h.ID, day)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			p := rt.palette
			if res.Completed {
				fmt.Fprintf(out, "%s %s done on %s\n", p.good.Sprint("✓"), h.Name, res.Date)
			} else {
				fmt.Fprintf(out, "%s %s unmarked on %s\n", p.muted.Sprint("○"), h.Name, res.Date)
			}

			if res.Hero != nil {
				fmt.Fprintf(out, "  %s XP, level %d (%d/%d)\n",
					signed(res.Hero.Delta), res.Hero.Stats.Level, res.Hero.Stats.XP, res.Hero.Stats.NextLevelXP)
				if res.Hero.LevelsGained > 0 {
					fmt.Fprintln(out, p.title.Sprintf("  ★ Level up! Now level %d", res.Hero.Stats.Level))
				}
			}
			rt.warnIfNotPersisted(out, res.Result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&date, "date", "d", "", "Day to toggle (YYYY-MM-DD, default today)")
	return cmd
}

func newDayCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "day [YYYY-MM-DD]",
		Short: "Show the habits completed on a day",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date := dates.Key(rt.now())
			if len(args) == 1 {
				date = args[0]
			}
			ids, err := rt.tracker().CompletedOn(date)
			if err != nil {
				return err
			}

			names := make(map[string]string)
			for _, h := range rt.tracker().Habits() {
				names[h.ID] = h.Name
			}

			out := cmd.OutOrStdout()
			p := rt.palette
			fmt.Fprintln(out, p.title.Sprint(date))
			if len(ids) == 0 {
				fmt.Fprintln(out, p.muted.Sprint("  nothing completed"))
				return nil
			}
			for _, id := range ids {
				name, ok := names[id]
				if !ok {
					name = p.muted.Sprintf("%s (deleted)", shortID(id))
				}
				fmt.Fprintf(out, "  %s %s\n", p.good.Sprint("✓"), name)
			}
			return nil
		},
	}
}

func newRelapseCmd(rt *runtime) *cobra.Command {
	var trigger string
	var at string

	cmd := &cobra.Command{
		Use:   "relapse <habit>",
		Short: "Log a relapse of a quit habit and restart its clean streak",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			moment := rt.now()
			if at != "" {
				parsed, err := parseMoment(at)
				if err != nil {
					return fmt.Errorf("--at: %w", err)
				}
				moment = parsed
			}

			h, err := resolveHabit(rt.tracker().Habits(), args[0])
			if err != nil {
				return err
			}
			res, err := rt.tracker().LogRelapse(cmd.Context(), h.ID, moment, trigger)
			if err != nil {
				return err
			}

			rec := res.Habit.Quit.History[0]
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s Relapse logged for %s after %s\n",
				rt.palette.bad.Sprint("●"), h.Name, dates.FormatSeconds(rec.DurationSeconds))
			fmt.Fprintln(out, rt.palette.muted.Sprint("  A new streak starts now. Every day still counts."))
			rt.warnIfNotPersisted(out, res.Result)
			return nil
		},
	}

	cmd.Flags().StringVar(&trigger, "trigger", "", "What led to the relapse")
	cmd.Flags().StringVar(&at, "at", "", "When it happened (YYYY-MM-DD or RFC3339, default now)")
	return cmd
}

func newModeCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:       "mode [standard|gamified]",
		Short:     "Show or switch the tracking mode",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{string(types.ModeStandard), string(types.ModeGamified)},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				fmt.Fprintf(out, "mode: %s\n", rt.tracker().Snapshot().Settings.Mode)
				return nil
			}

			res, err := rt.tracker().SetMode(cmd.Context(), types.AppMode(strings.ToLower(args[0])))
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s mode set to %s\n", rt.palette.good.Sprint("✓"), res.State.Settings.Mode)
			rt.warnIfNotPersisted(out, res)
			return nil
		},
	}
}

func newHeroCmd(rt *runtime) *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "hero",
		Short: "Show hero level and experience",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			p := rt.palette

			if reset {
				res, err := rt.tracker().ResetHero(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s hero reset\n", p.good.Sprint("✓"))
				rt.warnIfNotPersisted(out, res)
			}

			settings := rt.tracker().Snapshot().Settings
			hero := settings.HeroStats
			fmt.Fprintln(out, p.title.Sprintf("Hero · level %d", hero.Level))
			fmt.Fprintf(out, "  XP  %s %d/%d\n", progressBar(gamification.Progress(hero), 20), hero.XP, hero.NextLevelXP)
			fmt.Fprintf(out, "  HP  %d/%d\n", hero.HP, hero.MaxHP)
			if !settings.Gamified() {
				fmt.Fprintln(out, p.muted.Sprint("  Gamified mode is off; enable it with: kaizen mode gamified"))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&reset, "reset", false, "Reset the hero to level 1")
	return cmd
}
