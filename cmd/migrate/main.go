// migrate administra el esquema de la base de datos y los datos de demostración.
//
// Uso:
//
//	go run ./cmd/migrate up
//	go run ./cmd/migrate status
//	go run ./cmd/migrate seed --password cambiar123
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/jhoicas/materiales-api/internal/application/auth"
	"github.com/jhoicas/materiales-api/internal/infrastructure/postgres"
	"github.com/jhoicas/materiales-api/pkg/config"
	"github.com/jhoicas/materiales-api/pkg/logger"
)

func main() {
	os.Exit(execute())
}

func execute() int {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// env conexión y logger compartidos por los subcomandos.
type env struct {
	pool   *pgxpool.Pool
	log    *logger.Logger
	cancel context.CancelFunc
}

func newRootCmd() *cobra.Command {
	var timeout time.Duration
	e := &env{}

	rootCmd := &cobra.Command{
		Use:           "migrate",
		Short:         "Migraciones y datos de demostración de materiales-api",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("cargar configuración: %w", err)
			}
			e.log = logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			e.cancel = cancel
			cmd.SetContext(ctx)

			e.pool, err = postgres.NewPool(ctx, cfg.DB)
			if err != nil {
				return fmt.Errorf("conexión a PostgreSQL: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if e.pool != nil {
				e.pool.Close()
			}
			if e.cancel != nil {
				e.cancel()
			}
		},
	}
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "tiempo máximo de la operación")

	rootCmd.AddCommand(
		newMigrateCmd(e, "up", "Aplica las migraciones pendientes", (*postgres.Migrator).Up),
		newMigrateCmd(e, "down", "Revierte la última migración", (*postgres.Migrator).Down),
		newMigrateCmd(e, "status", "Muestra el estado de las migraciones", (*postgres.Migrator).Status),
		newVersionCmd(e),
		newSeedCmd(e),
	)
	return rootCmd
}

func newMigrateCmd(e *env, use, short string, run func(*postgres.Migrator, context.Context) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := postgres.NewMigrator(e.pool, e.log)
			if err != nil {
				return err
			}
			return run(m, cmd.Context())
		},
	}
}

func newVersionCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Imprime la versión actual del esquema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := postgres.NewMigrator(e.pool, e.log)
			if err != nil {
				return err
			}
			v, err := m.Version(cmd.Context())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "versión del esquema: %d\n", v)
			return nil
		},
	}
}

func newSeedCmd(e *env) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Inserta usuarios (admin, almacenero, produccion) y materiales de demostración",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(password) < 8 {
				return fmt.Errorf("--password debe tener al menos 8 caracteres")
			}
			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			return postgres.SeedDemo(cmd.Context(), e.pool, hash, e.log.Named("seed"))
		},
	}
	cmd.Flags().StringVar(&password, "password", "josafat123", "contraseña de los usuarios de demostración")
	return cmd
}
