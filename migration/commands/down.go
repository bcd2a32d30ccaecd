package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/beesaferoot/yatube/migration"
)

func DownCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := getDB()
			if err != nil {
				return err
			}
			defer closeDB(db)

			reverted, err := migration.NewMigrator(db).Down()
			if err != nil {
				return err
			}
			if reverted == nil {
				fmt.Println("No migrations to roll back")
				return nil
			}

			fmt.Printf("%s %s %s\n", color.YellowString("Reverted"), reverted.Version, reverted.Name)
			return nil
		},
	}
}
