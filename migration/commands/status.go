package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/beesaferoot/yatube/migration"
)

var (
	appliedLabel = color.New(color.FgGreen).Sprint("Applied")
	pendingLabel = color.New(color.FgYellow).Sprint("Pending")
)

func StatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show status of all migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := getDB()
			if err != nil {
				return err
			}
			defer closeDB(db)

			statuses, err := migration.NewMigrator(db).Status()
			if err != nil {
				return fmt.Errorf("failed to get applied migrations: %v", err)
			}

			fmt.Printf("%-16s  %-30s  %-8s\n", "Version", "Name", "Status")
			for _, s := range statuses {
				status := pendingLabel
				if s.Applied {
					status = appliedLabel
				}
				fmt.Printf("%-16s  %-30s  %s\n", s.Migration.Version, s.Migration.Name, status)
			}

			return nil
		},
	}
}
