package app

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/biosecret/go-tasks/config"
	"github.com/biosecret/go-tasks/database"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "go-tasks",
		Short:         "Personal task tracking API",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return SetupAndRunApp(cmd.Context())
		},
	}
}

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	var down bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long:  `Apply every pending migration to POSTGRESQL_URI, or roll them all back with --down.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.Store != config.StorePostgres {
				return oops.Code("CONFIG_INVALID").Errorf("migrations need STORE=%s", config.StorePostgres)
			}

			m, err := database.NewMigrator(cfg.PostgreSQLURI)
			if err != nil {
				return err
			}
			defer func() { _ = m.Close() }()

			if down {
				cmd.Println("Rolling back migrations...")
				if err := m.Down(); err != nil {
					return err
				}
			} else {
				cmd.Println("Running migrations...")
				if err := m.Up(); err != nil {
					return err
				}
			}

			version, dirty, err := m.Version()
			if err != nil {
				return err
			}
			cmd.Printf("Schema version %d (dirty=%t)\n", version, dirty)
			return nil
		},
	}
	cmd.Flags().BoolVar(&down, "down", false, "roll back every migration")

	return cmd
}
