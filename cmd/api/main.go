package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"groupmanager/internal/config"
	"groupmanager/internal/database"
	"groupmanager/pkg/logger"
)

// @title           Group Manager API
// @version         1.0
// @description     Manages users, groups, their representatives and members.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "groupmanager",
		Short:         "Group and member management API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", config.DefaultEnvFile, "dotenv file read before the environment")

	serve := newServeCmd(&envFile)
	root.AddCommand(serve, newMigrateCmd(&envFile), newCreateAdminCmd(&envFile))
	// running the binary without a subcommand starts the server
	root.RunE = serve.RunE
	return root
}

func newServeCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
			defer cancel()

			cfg, err := loadConfig(ctx, *envFile)
			if err != nil {
				return err
			}
			return serve(ctx, cfg)
		},
	}
}

func newMigrateCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the schema and seed the user types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd.Context(), *envFile)
			if err != nil {
				return err
			}
			log := logger.Get()
			db, err := database.NewConnection(cfg.Database.DSN(), log)
			if err != nil {
				return err
			}
			if err := prepareSchema(cmd.Context(), db); err != nil {
				return err
			}
			log.Info().Msg("schema up to date")
			return nil
		},
	}
}

func newCreateAdminCmd(envFile *string) *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Provision an administrator account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(ctx, *envFile)
			if err != nil {
				return err
			}
			if name == "" {
				name = cfg.Admin.Name
			}
			if email == "" {
				email = cfg.Admin.Email
			}
			if password == "" {
				password = cfg.Admin.Password
			}
			if email == "" || password == "" {
				return fmt.Errorf("create-admin: e-mail and password are required (flags or ADMIN_EMAIL/ADMIN_PASSWORD)")
			}

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.close()

			admin, err := a.users.CreateAdmin(ctx, name, email, password)
			if err != nil {
				return err
			}
			a.log.Info().Str("user_id", admin.ID).Str("email", admin.Email).Msg("administrator created")
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "administrator name (default ADMIN_NAME)")
	cmd.Flags().StringVar(&email, "email", "", "administrator e-mail (default ADMIN_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "administrator password (default ADMIN_PASSWORD)")
	return cmd
}

func loadConfig(ctx context.Context, envFile string) (*config.Config, error) {
	cfg, err := config.Load(ctx, envFile)
	if err != nil {
		return nil, err
	}
	logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: !cfg.IsProduction(),
	})
	return cfg, nil
}
