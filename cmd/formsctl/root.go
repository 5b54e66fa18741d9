package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"properforms/internal/app"
	"properforms/internal/database"
	"properforms/internal/pkg/logger"
)

// cli holds what every subcommand shares once the root pre-run has opened it.
type cli struct {
	configFile string
	verbose    bool
	app        *app.App
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "formsctl",
		Short: "Administer forms, submissions and uploaded files",
		Long: `formsctl runs maintenance against the forms database: schema
migration, CSV export of submissions, sweeping abandoned uploads and
creating admin users.`,
		SilenceUsage:       true,
		PersistentPreRunE:  c.open,
		PersistentPostRunE: c.close,
	}
	root.PersistentFlags().StringVar(&c.configFile, "config", "", "config file (default: ./formsctl.yaml when present)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log service activity to stderr")

	root.AddCommand(
		c.migrateCmd(),
		c.exportCmd(),
		c.sweepCmd(),
		c.userCmd(),
	)
	return root
}

func (c *cli) open(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(c.configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := zap.NewNop()
	if c.verbose {
		if log, err = logger.New(cfg.AppEnv); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
	}

	db, err := database.Connect(cfg.DatabaseURL, log)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if c.app, err = app.New(cfg, log, db); err != nil {
		return err
	}
	return nil
}

func (c *cli) close(*cobra.Command, []string) error {
	if c.app == nil {
		return nil
	}
	_ = c.app.Log.Sync()
	sqlDB, err := c.app.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.Migrate(c.app.DB); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}
