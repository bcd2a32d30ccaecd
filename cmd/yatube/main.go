package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/beesaferoot/yatube/migration"
	"github.com/beesaferoot/yatube/migration/commands"
	"github.com/beesaferoot/yatube/models"
)

type modelRegistry struct{}

func (r *modelRegistry) GetModels() map[string]interface{} {
	return models.ModelTypeRegistry
}

func init() {
	migration.GlobalModelRegistry = &modelRegistry{}
}

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:          "yatube",
		Short:        "Yatube blogging platform",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		groupCmd(),
		userCmd(),
		seedCmd(),
		commands.MigrateCmd(),
		commands.DBCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
