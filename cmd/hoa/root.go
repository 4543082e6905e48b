package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/streethall/hoa/internal/app"
	"github.com/streethall/hoa/internal/buildinfo"
	"github.com/streethall/hoa/internal/config"
)

func newRootCmd() *cobra.Command {
	var appCfg config.AppConfig

	root := &cobra.Command{
		Use:           "hoa",
		Short:         "Neighborhood association workflow server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&appCfg.ConfigPath, "config", "", "config file (default $HOA_CONFIG or ./config.yaml)")

	root.AddCommand(
		newServeCmd(&appCfg),
		newMigrateCmd(&appCfg),
		newCreateAdminCmd(&appCfg),
		newVersionCmd(),
	)
	return root
}

func newServeCmd(appCfg *config.AppConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return app.RunServer(ctx, *appCfg)
		},
	}
}

func newMigrateCmd(appCfg *config.AppConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Migrate(contextOf(cmd), *appCfg)
		},
	}
}

func newCreateAdminCmd(appCfg *config.AppConfig) *cobra.Command {
	var params app.CreateAdminParams
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account or promote an existing user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.CreateAdmin(contextOf(cmd), *appCfg, params)
		},
	}
	cmd.Flags().StringVar(&params.Username, "username", "", "admin username")
	cmd.Flags().StringVar(&params.Password, "password", "", "admin password (at least 8 characters)")
	cmd.Flags().StringVar(&params.Email, "email", "", "admin email")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "hoa %s", buildinfo.Version)
			if buildinfo.Commit != "" {
				fmt.Fprintf(cmd.OutOrStdout(), " (%s", buildinfo.Commit)
				if buildinfo.BuildDate != "" {
					fmt.Fprintf(cmd.OutOrStdout(), ", %s", buildinfo.BuildDate)
				}
				fmt.Fprint(cmd.OutOrStdout(), ")")
			}
			fmt.Fprintln(cmd.OutOrStdout())
		},
	}
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
