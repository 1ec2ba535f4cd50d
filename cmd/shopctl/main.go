package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/marketplace/internal/app"
	"github.com/Skotchmaster/marketplace/pkg/config"
	"github.com/Skotchmaster/marketplace/pkg/logging"
)

var envFile string

func main() {
	rootCmd := &cobra.Command{
		Use:          "shopctl",
		Short:        "Maintenance commands for the marketplace backend",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "env file to load before reading the environment")

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(reindexCmd())
	rootCmd.AddCommand(createAdminCmd())
	rootCmd.AddCommand(flushViewsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withApp loads the configuration, wires the services and closes them once fn returns.
func withApp(ctx context.Context, fn func(a *app.App) error) error {
	cfg := config.Load(envFile)
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is empty")
	}
	log := logging.NewWithOptions(logging.Options{Level: cfg.LogLevel}).With("service", "shopctl")

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				if err := a.Migrate(); err != nil {
					return fmt.Errorf("migrate: %w", err)
				}
				fmt.Println("schema is up to date")
				return nil
			})
		},
	}
}

func reindexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the Elasticsearch product index from the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				n, err := a.Catalog.Reindex(cmd.Context())
				if err != nil {
					return fmt.Errorf("reindex: %w", err)
				}
				fmt.Printf("indexed %d products\n", n)
				return nil
			})
		},
	}
}

func createAdminCmd() *cobra.Command {
	var password, name string

	cmd := &cobra.Command{
		Use:   "create-admin [email]",
		Short: "Create an admin account or promote an existing user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				u, created, err := a.Users.EnsureAdmin(cmd.Context(), args[0], password, name)
				if err != nil {
					return fmt.Errorf("create admin: %w", err)
				}
				if created {
					fmt.Printf("created admin %s (id %d)\n", u.Email, u.ID)
				} else {
					fmt.Printf("promoted %s (id %d) to admin\n", u.Email, u.ID)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "password for a new account (8..64 characters)")
	cmd.Flags().StringVarP(&name, "name", "n", "", "display name for a new account")
	return cmd
}

func flushViewsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "flush-views",
		Short: "Write buffered product view counters to the database now",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				n, err := a.Views.Flush(cmd.Context())
				if err != nil {
					return fmt.Errorf("flush views: %w", err)
				}
				fmt.Printf("flushed views of %d products\n", n)
				return nil
			})
		},
	}
}
