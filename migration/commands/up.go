package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/beesaferoot/yatube/migration"
)

func UpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			if err := migration.Validate(migration.GetRegisteredMigrations()); err != nil {
				return fmt.Errorf("validation failed: %v", err)
			}

			db, err := getDB()
			if err != nil {
				return err
			}
			defer closeDB(db)

			migrator := migration.NewMigrator(db)

			if dryRun {
				pending, err := migrator.Pending()
				if err != nil {
					return err
				}
				if len(pending) == 0 {
					fmt.Println("No pending migrations")
				}
				for _, m := range pending {
					fmt.Printf("Would apply %s %s\n", m.Version, m.Name)
				}
				return nil
			}

			applied, err := migrator.Up()
			for _, m := range applied {
				fmt.Printf("%s %s %s\n", color.GreenString("Applied"), m.Version, m.Name)
			}
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Println("No pending migrations")
			}
			return nil
		},
	}

	cmd.Flags().Bool("dry-run", false, "List pending migrations without applying them")

	return cmd
}
