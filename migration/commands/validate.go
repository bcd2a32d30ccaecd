package commands

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/beesaferoot/yatube/migration"
)

func ValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate all migrations",
		Long:  `Checks the registered migrations and reports registered models whose table is missing from the database.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := migration.Validate(migration.GetRegisteredMigrations()); err != nil {
				return fmt.Errorf("validation failed: %v", err)
			}

			db, err := getDB()
			if err != nil {
				return err
			}
			defer closeDB(db)

			missing, err := migration.MissingTables(db)
			if err != nil {
				return err
			}
			if len(missing) > 0 {
				return fmt.Errorf("tables missing for models: %s (run migrate up)", strings.Join(missing, ", "))
			}

			fmt.Println(color.GreenString("All migrations are valid"))
			return nil
		},
	}
}
