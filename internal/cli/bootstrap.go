package cli

import (
	"fmt"
	"log/slog"

	"github.com/go-notification-api/internal/config"
	"github.com/go-notification-api/internal/infrastructure/dynamo"
	"github.com/go-notification-api/internal/infrastructure/sqlstore"
	"github.com/spf13/cobra"
)

func newBootstrapCmd() *cobra.Command {
	var driver, dsn string

	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Create notification tables for the configured store",
		Long:  "Create the DynamoDB tables or the SQL schema for STORE_DRIVER. Existing tables are left untouched.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if driver != "" {
				cfg.StoreDriver = driver
			}
			if dsn != "" {
				cfg.DatabaseURL = dsn
			}
			ctx := cmd.Context()

			switch cfg.StoreDriver {
			case "dynamo":
				client, err := dynamo.NewClient(ctx, cfg)
				if err != nil {
					return err
				}
				if err := dynamo.Bootstrap(ctx, client, cfg.DynamoTables); err != nil {
					return fmt.Errorf("bootstrapping dynamo: %w", err)
				}
				slog.Debug("dynamo tables ready", "notifications", cfg.DynamoTables.Notifications, "recipients", cfg.DynamoTables.Recipients)
			case string(sqlstore.SQLite), string(sqlstore.Postgres):
				// Open applies the schema.
				db, err := sqlstore.Open(ctx, sqlstore.Dialect(cfg.StoreDriver), cfg.DatabaseURL)
				if err != nil {
					return fmt.Errorf("bootstrapping %s: %w", cfg.StoreDriver, err)
				}
				defer db.Close()
			default:
				return fmt.Errorf("unknown store driver %q (valid: dynamo, sqlite, postgres)", cfg.StoreDriver)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s store ready\n", cfg.StoreDriver)
			return nil
		},
	}

	cmd.Flags().StringVar(&driver, "driver", "", "store driver, overrides STORE_DRIVER")
	cmd.Flags().StringVar(&dsn, "dsn", "", "database URL, overrides DATABASE_URL")
	return cmd
}
