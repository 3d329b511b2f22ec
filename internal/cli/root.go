package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"kaizen/internal/app"
	"kaizen/internal/config"
	"kaizen/internal/services"
)

// Version is the release of the kaizen binary
const Version = "0.3.0"

// skipAppAnnotation marks commands that run without opening the store
const skipAppAnnotation = "kaizen/skip-app"

// Options customizes the command tree. Zero values use the process
// streams, the wall clock and app.NewApp.
type Options struct {
	Out     io.Writer
	Err     io.Writer
	Now     func() time.Time
	OpenApp func(ctx context.Context, cfg *config.Config) (*app.App, error)
}

// runtime carries the flag values and the lazily opened application of
// one invocation
type runtime struct {
	opts       Options
	configPath string
	user       string
	noColor    bool

	app     *app.App
	palette palette
}

// NewRootCmd builds the kaizen command tree
func NewRootCmd(opts Options) *cobra.Command {
	cmd, _ := newRoot(opts)
	return cmd
}

func newRoot(opts Options) (*cobra.Command, *runtime) {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.OpenApp == nil {
		opts.OpenApp = app.NewApp
	}
	rt := &runtime{opts: opts, palette: newPalette(false)}

	rootCmd := &cobra.Command{
		Use:           "kaizen",
		Short:         "Habit tracking analytics",
		Long:          "Kaizen tracks habits you build and habits you quit, grades your consistency and levels up a hero along the way.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			rt.palette = newPalette(rt.noColor)
			if skipsApp(cmd) {
				return nil
			}
			return rt.open(cmd.Context())
		},
	}
	rootCmd.SetOut(opts.Out)
	rootCmd.SetErr(opts.Err)
	rootCmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	defaultConfig := config.DefaultPath
	if env := os.Getenv("KAIZEN_CONFIG"); env != "" {
		defaultConfig = env
	}
	rootCmd.PersistentFlags().StringVarP(&rt.configPath, "config", "c", defaultConfig, "Configuration file (YAML)")
	rootCmd.PersistentFlags().StringVarP(&rt.user, "user", "u", "", "User identity (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&rt.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(
		newHabitCmd(rt),
		newToggleCmd(rt),
		newDayCmd(rt),
		newRelapseCmd(rt),
		newModeCmd(rt),
		newHeroCmd(rt),
		newStatsCmd(rt),
		newQuitStatusCmd(rt),
		newHeatmapCmd(rt),
		newExportCmd(rt),
		newImportCmd(rt),
		newUsersCmd(rt),
		newDBCmd(rt),
		newConfigCmd(rt),
	)

	return rootCmd, rt
}

// Execute runs the command tree against the process arguments and returns
// the exit code
func Execute() int {
	rootCmd, rt := newRoot(Options{})
	defer rt.close()

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(rt.opts.Err, rt.palette.bad.Sprint("✗ "+err.Error()))
		return 1
	}
	return 0
}

func skipsApp(cmd *cobra.Command) bool {
	if cmd.Name() == "help" {
		return true
	}
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[skipAppAnnotation] == "true" {
			return true
		}
	}
	return false
}

// open loads the configuration and starts the application
func (rt *runtime) open(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(rt.configPath)
	if err != nil {
		return err
	}
	if rt.user != "" {
		cfg.User = rt.user
	}

	a, err := rt.opts.OpenApp(ctx, cfg)
	if err != nil {
		return err
	}
	a.Tracker().SetClock(rt.opts.Now)
	a.Startup(ctx)

	rt.app = a
	return nil
}

// close shuts the application down if it was opened
func (rt *runtime) close() {
	if rt.app == nil {
		return
	}
	if err := rt.app.Shutdown(context.Background()); err != nil {
		fmt.Fprintln(rt.opts.Err, rt.palette.warn.Sprint("⚠ "+err.Error()))
	}
	rt.app = nil
}

func (rt *runtime) tracker() *services.HabitTracker {
	return rt.app.Tracker()
}

func (rt *runtime) now() time.Time {
	return rt.opts.Now()
}

// warnIfNotPersisted tells the user a change only lives in memory
func (rt *runtime) warnIfNotPersisted(w io.Writer, res services.Result) {
	if !res.Persisted {
		fmt.Fprintln(w, rt.palette.warn.Sprint("⚠ change was not saved"))
	}
}
