package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nizwa-nursing/cpd-portal/db"
	"github.com/nizwa-nursing/cpd-portal/internal/storage"
)

var (
	migrateCmd = &cobra.Command{
		RunE:  runMigration,
		Use:   "migrate",
		Short: "apply the embedded sql migrations to the local store",
	}
	migrateRollback bool
)

func init() {
	migrateCmd.Flags().BoolVarP(&migrateRollback, "rollback", "r", false, "to rollback the latest version of sql migration")
}

func runMigration(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	storeCfg := cfg.Storage
	storeCfg.AutoMigrate = false
	handles, err := storage.Open(ctx, storeCfg, log)
	if err != nil {
		return err
	}
	defer handles.Close()

	if migrateRollback {
		if err := db.Rollback(ctx, handles.SQL, storeCfg.Driver); err != nil {
			return err
		}
		log.Info("rolled back latest migration", "driver", storeCfg.Driver, "source", storage.Redacted(storeCfg.Source))
		return nil
	}

	if err := db.Migrate(ctx, handles.SQL, storeCfg.Driver); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
	return nil
}
