package cmd

import (
	"fmt"

	"github.com/arkdata/dbtctl/internal/config"
	"github.com/arkdata/dbtctl/internal/dispatch"
	"github.com/arkdata/dbtctl/internal/logger"
	"github.com/arkdata/dbtctl/internal/render"
	"github.com/spf13/cobra"
)

var planFullRefresh bool

var planCmd = &cobra.Command{
	Use:   "plan <environment>",
	Short: "Show the dbt invocations a run would execute, without running",
	Long: `Plan builds the exact invocation for every configured table of an
environment and prints them in dispatch order. Nothing is executed and
no warehouse state changes.

Example:
  dbtctl plan prod --config dbtctl.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runPlan,
}

func init() {
	planCmd.Flags().BoolVar(&planFullRefresh, "full-refresh", false,
		"Include --full-refresh in the previewed invocations")

	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	configFile := GetConfigFile()
	environment := args[0]

	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	overrides := GetCLIOverrides()
	cfg.ApplyOverrides(overrides.LogLevel, overrides.LogFormat,
		overrides.DbtBinary, overrides.NoLedger)

	envCfg, err := cfg.GetEnvironment(environment)
	if err != nil {
		return err
	}

	tables, err := config.LoadTables(envCfg.TablesFile)
	if err != nil {
		return fmt.Errorf("failed to load tables for environment %q: %w", environment, err)
	}

	opts := dispatch.Options{
		Target:      cfg.DbtTarget(environment),
		FullRefresh: planFullRefresh,
	}
	dispatcher := dispatch.NewDispatcher(cfg.Dbt, opts, nil, logger.NewDefault())
	invocations := dispatcher.Plan(tables)

	cmd.Printf("%s\n", render.Emphasize(fmt.Sprintf("Plan for environment %q (%d models)", environment, len(invocations))))
	if len(invocations) == 0 {
		cmd.Println("No tables configured.")
		return nil
	}

	table := render.NewTable("#", "MODEL", "SOURCE", "TARGET")
	for i, inv := range invocations {
		spec, _ := tables.Get(inv.Model)
		source := fmt.Sprintf("%s.%s.%s", spec.SourceProject, spec.SourceDataset, spec.SourceTable)
		target := fmt.Sprintf("%s.%s", spec.TargetDataset, spec.TargetTable)
		table.AddRow(fmt.Sprintf("%d", i+1), inv.Model, source, target)
	}
	cmd.Printf("\n%s\n", table.String())

	cmd.Println("Invocations:")
	for i, inv := range invocations {
		cmd.Printf("%3d. %s\n", i+1, inv.String())
	}

	return nil
}
