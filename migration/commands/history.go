package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/beesaferoot/yatube/migration"
)

func HistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show applied migrations, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := getDB()
			if err != nil {
				return err
			}
			defer closeDB(db)

			records, err := migration.NewMigrator(db).History()
			if err != nil {
				return err
			}

			if len(records) == 0 {
				fmt.Println("No migrations applied")
				return nil
			}

			fmt.Printf("%-16s  %-30s  %s\n", "Version", "Name", "Applied at")
			for _, r := range records {
				fmt.Printf("%-16s  %-30s  %s\n", r.Version, r.Name, r.AppliedAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
}
