package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"kaizen/internal/config"
	"kaizen/internal/store"
)

func newDBCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Maintain the SQLite document store",
	}

	sqliteStore := func() (*store.SQLiteStore, error) {
		s, ok := rt.app.Store().(*store.SQLiteStore)
		if !ok {
			return nil, fmt.Errorf("backend %q does not support this command", rt.app.Config().Store.Backend)
		}
		return s, nil
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "version",
			Short: "Show the applied schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := sqliteStore()
				if err != nil {
					return err
				}
				version, err := s.SchemaVersion(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)
				return nil
			},
		},
		&cobra.Command{
			Use:   "optimize",
			Short: "Run ANALYZE and VACUUM",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := sqliteStore()
				if err != nil {
					return err
				}
				if err := s.Optimize(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s database optimized\n", rt.palette.good.Sprint("✓"))
				return nil
			},
		},
	)
	return cmd
}

func newConfigCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:         "config",
		Short:       "Manage the configuration file",
		Annotations: map[string]string{skipAppAnnotation: "true"},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(rt.configPath); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", rt.configPath)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("checking %s: %w", rt.configPath, err)
			}

			if err := config.Default().Save(rt.configPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s wrote %s\n", rt.palette.good.Sprint("✓"), rt.configPath)
			return nil
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")

	cmd.AddCommand(
		initCmd,
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := config.Load(rt.configPath)
				if err != nil {
					return err
				}
				if rt.user != "" {
					cfg.User = rt.user
				}
				fmt.Fprintf(cmd.OutOrStdout(), "environment: %s\nuser: %s\nbackend: %s\nwindowDays: %d\n",
					cfg.Environment, cfg.User, cfg.Store.Backend, cfg.Tracking.WindowDays)
				return nil
			},
		},
	)
	return cmd
}
