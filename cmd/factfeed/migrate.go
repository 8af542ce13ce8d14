package main

import (
	"github.com/Luismorlan/factfeed/utils"
	. "github.com/Luismorlan/factfeed/utils/log"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			if err := utils.DatabaseSetupAndMigration(db); err != nil {
				return err
			}
			Log.WithField("db", cfg.DB.Name).Info("schema migrated")
			return nil
		},
	}
}
