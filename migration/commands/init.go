package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/beesaferoot/yatube/migration"
)

func InitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize migration tracking table in the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := getDB()
			if err != nil {
				return err
			}
			defer closeDB(db)

			if err := db.AutoMigrate(&migration.MigrationRecord{}); err != nil {
				return fmt.Errorf("failed to create schema_migrations table: %v", err)
			}

			fmt.Println("Migration table initialized")
			return nil
		},
	}
}
