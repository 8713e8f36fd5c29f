package cmd

import (
	"fmt"

	"github.com/arkdata/dbtctl/internal/config"
	"github.com/spf13/cobra"
)

var validateEnvironment string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and table files",
	Long: `Validate checks the settings file and every environment's table
configuration file.

Checks performed:
  - Settings syntax and required fields
  - Table file parse success and top-level structure
  - Required fields present on every record
  - Duplicate target table detection

Example:
  dbtctl validate --config dbtctl.yaml`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVarP(&validateEnvironment, "environment", "e", "",
		"Validate only this environment's table file")

	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile := GetConfigFile()

	// Load configuration
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Apply CLI overrides
	overrides := GetCLIOverrides()
	cfg.ApplyOverrides(overrides.LogLevel, overrides.LogFormat,
		overrides.DbtBinary, overrides.NoLedger)

	cmd.Printf("=== Configuration Validation ===\n")
	cmd.Printf("Config file: %s\n", configFile)

	hasErrors := false

	if err := cfg.Validate(); err != nil {
		cmd.Printf("❌ Settings invalid: %v\n", err)
		hasErrors = true
	} else {
		cmd.Printf("✅ Settings valid\n")
	}

	environments := cfg.ListEnvironments()
	if validateEnvironment != "" {
		if _, err := cfg.GetEnvironment(validateEnvironment); err != nil {
			return err
		}
		environments = []string{validateEnvironment}
	}

	cmd.Printf("Environments: %d\n\n", len(environments))

	for _, name := range environments {
		envCfg := cfg.Environments[name]
		cmd.Printf("--- Environment: %s ---\n", name)
		cmd.Printf("Tables file: %s\n", envCfg.TablesFile)

		tables, err := config.LoadTables(envCfg.TablesFile)
		if err != nil {
			cmd.Printf("❌ Load failed: %v\n\n", err)
			hasErrors = true
			continue
		}

		cmd.Printf("Models: %d\n", tables.Len())

		if err := tables.Validate(); err != nil {
			cmd.Printf("❌ Validation failed: %v\n\n", err)
			hasErrors = true
			continue
		}

		cmd.Printf("✅ All checks passed\n\n")
	}

	if hasErrors {
		return fmt.Errorf("validation failed for configuration or one or more environments")
	}

	cmd.Println("=== Validation Complete ===")
	cmd.Println("✅ All environments validated successfully")
	return nil
}
