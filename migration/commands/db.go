package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/beesaferoot/yatube/internal/config"
	"github.com/beesaferoot/yatube/internal/database"
)

// DBCmd manages the PostgreSQL database named in DATABASE_URL.
func DBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Create or drop the configured PostgreSQL database",
	}
	cmd.AddCommand(dbCreateCmd(), dbDropCmd())
	return cmd
}

func getManager() (*database.Manager, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return database.NewManager(cfg.DatabaseURL), nil
}

func dbCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Create the database if it does not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := getManager()
			if err != nil {
				return err
			}
			created, err := manager.CreateDB(cmd.Context())
			if err != nil {
				return err
			}
			if created {
				fmt.Println("Database created")
			} else {
				fmt.Println("Database already exists")
			}
			return nil
		},
	}
}

func dbDropCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drop",
		Short: "Drop the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			if force, _ := cmd.Flags().GetBool("force"); !force {
				return fmt.Errorf("refusing to drop the database without --force")
			}
			manager, err := getManager()
			if err != nil {
				return err
			}
			if err := manager.DropDB(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("Database dropped")
			return nil
		},
	}
	cmd.Flags().Bool("force", false, "Confirm dropping the database")
	return cmd
}
