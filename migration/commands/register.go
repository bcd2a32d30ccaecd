package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func RegisterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register [path]",
		Short: "Generates model registry file",
		Long:  `Scans the given path for GORM models (structs embedding gorm.Model or declaring a primaryKey field) and regenerates models_registry.go. Defaults to the 'models' directory.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var pathToValidate string
			if len(args) > 0 {
				pathToValidate = args[0]
			}

			validatedPath, err := validateModelPath(pathToValidate)
			if err != nil {
				return fmt.Errorf("failed to validate model path: %w", err)
			}

			registryFile, err := createModelRegisterFile(validatedPath)
			if err != nil {
				return fmt.Errorf("failed to create model registry file: %w", err)
			}

			fmt.Printf("Successfully generated model registry: %s\n", registryFile)
			return nil
		},
	}
}
