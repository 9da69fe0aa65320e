// Package main provides ebdctl, the operator CLI for the dashboard database.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/yigit/ebdashboard/internal/app/auth"
	"github.com/yigit/ebdashboard/internal/app/models"
	"github.com/yigit/ebdashboard/internal/bootstrap"
	"github.com/yigit/ebdashboard/internal/config"
	"github.com/yigit/ebdashboard/internal/db"
)

const appName = "ebdctl"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// env is what every subcommand works with once config and database are up
type env struct {
	cfg      *config.Config
	database *db.PostgresDB
	logger   zerolog.Logger
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Operate the Environmental Benefits Dashboard database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", bootstrap.DefaultConfigPath, "Config file path (YAML)")

	cmd.AddCommand(
		migrateCmd(&configPath),
		seedCmd(&configPath),
		reconcileCmd(&configPath),
		resetUsageCmd(&configPath),
	)
	return cmd
}

func migrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), *configPath, func(ctx context.Context, e *env) error {
				return bootstrap.Migrate(ctx, e.database, e.logger)
			})
		},
	}
}

func seedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the default admin account and course catalogue",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), *configPath, func(ctx context.Context, e *env) error {
				return bootstrap.Seed(ctx, e.cfg, e.database, e.logger)
			})
		},
	}
}

func reconcileCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Write missing ledger transactions for approved purchase requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), *configPath, func(ctx context.Context, e *env) error {
				deps, err := bootstrap.BuildPostgresDependencies(e.cfg, e.database, e.logger)
				if err != nil {
					return err
				}
				repaired, err := deps.ReconciliationService.Run(ctx)
				if err != nil {
					return fmt.Errorf("reconcile: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "repaired %d approved request(s)\n", repaired)
				return nil
			})
		},
	}
}

func resetUsageCmd(configPath *string) *cobra.Command {
	var studentID int64

	cmd := &cobra.Command{
		Use:   "reset-usage",
		Short: "Zero a student's used purchase amount",
		RunE: func(cmd *cobra.Command, args []string) error {
			if studentID <= 0 {
				return fmt.Errorf("--student must be a positive id")
			}
			return withEnv(cmd.Context(), *configPath, func(ctx context.Context, e *env) error {
				deps, err := bootstrap.BuildPostgresDependencies(e.cfg, e.database, e.logger)
				if err != nil {
					return err
				}
				student, err := deps.StudentService.ResetUsage(ctx, operator(), studentID)
				if err != nil {
					return fmt.Errorf("reset usage: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "student %d: used %s of %s\n",
					student.ID, student.UsedPurchaseAmount.StringFixed(2), student.PurchaseLimit.StringFixed(2))
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&studentID, "student", 0, "Student id")
	_ = cmd.MarkFlagRequired("student")
	return cmd
}

// operator is the admin identity CLI actions run as
func operator() auth.Actor {
	return auth.Actor{Role: models.RoleAdmin}
}

func withEnv(ctx context.Context, configPath string, fn func(ctx context.Context, e *env) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	database, err := bootstrap.ConnectDatabase(cfg, lgr)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer database.Close()

	return fn(ctx, &env{cfg: cfg, database: database, logger: lgr})
}
