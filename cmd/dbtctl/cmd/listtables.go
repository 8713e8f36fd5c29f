package cmd

import (
	"fmt"

	"github.com/arkdata/dbtctl/internal/config"
	"github.com/arkdata/dbtctl/internal/render"
	"github.com/spf13/cobra"
)

var listTablesCmd = &cobra.Command{
	Use:   "list-tables <environment>",
	Short: "List all tables configured for an environment",
	Long: `List-tables displays every table record of an environment's
configuration file in dispatch order, with its source and target fields.

Example:
  dbtctl list-tables prod --config dbtctl.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runListTables,
}

func init() {
	rootCmd.AddCommand(listTablesCmd)
}

func runListTables(cmd *cobra.Command, args []string) error {
	configFile := GetConfigFile()
	environment := args[0]

	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	envCfg, err := cfg.GetEnvironment(environment)
	if err != nil {
		return err
	}

	tables, err := config.LoadTables(envCfg.TablesFile)
	if err != nil {
		return fmt.Errorf("failed to load tables for environment %q: %w", environment, err)
	}

	if tables.Len() == 0 {
		cmd.Printf("No tables configured in %s\n", envCfg.TablesFile)
		return nil
	}

	cmd.Printf("Tables configured in %s:\n\n", envCfg.TablesFile)

	table := render.NewTable("MODEL", "SOURCE PROJECT", "SOURCE DATASET", "SOURCE TABLE", "TARGET DATASET", "TARGET TABLE")
	for _, rec := range tables.Records() {
		table.AddRow(
			rec.Name,
			rec.Spec.SourceProject,
			rec.Spec.SourceDataset,
			rec.Spec.SourceTable,
			rec.Spec.TargetDataset,
			rec.Spec.TargetTable,
		)
	}
	cmd.Print(table.String())

	cmd.Printf("\nTotal: %d table(s)\n", tables.Len())
	return nil
}
