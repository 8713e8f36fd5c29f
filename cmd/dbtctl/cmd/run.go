package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/arkdata/dbtctl/internal/config"
	"github.com/arkdata/dbtctl/internal/dispatch"
	"github.com/arkdata/dbtctl/internal/ledger"
	"github.com/arkdata/dbtctl/internal/logger"
	"github.com/spf13/cobra"
)

var (
	runFullRefresh bool
	runForce       bool
)

var runCmd = &cobra.Command{
	Use:   "run <environment>",
	Short: "Run dbt once per configured table of an environment",
	Long: `Run loads the environment's table configuration file and invokes dbt
once per record, in file order. Each record's fields are exported as
environment variables (SOURCE_PROJECT, SOURCE_DATASET, SOURCE_TABLE,
TARGET_DATASET, TARGET_TABLE) and the record's name selects the model.

Invocations are sequential: each dbt process runs to completion before
the next starts, and the first failure stops the run.

Example:
  dbtctl run prod --config dbtctl.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&runFullRefresh, "full-refresh", false,
		"Pass --full-refresh to every dbt invocation")
	runCmd.Flags().BoolVar(&runForce, "force", false,
		"Run even if the environment lock cannot be acquired (use with caution)")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	configFile := GetConfigFile()
	environment := args[0]

	// Load configuration
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Apply CLI overrides
	overrides := GetCLIOverrides()
	cfg.ApplyOverrides(overrides.LogLevel, overrides.LogFormat,
		overrides.DbtBinary, overrides.NoLedger)

	// Resolve the environment before doing anything else
	envCfg, err := cfg.GetEnvironment(environment)
	if err != nil {
		return err
	}

	// Initialize logger
	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	log.Infow("Starting run",
		"environment", environment,
		"config", configFile,
		"tables_file", envCfg.TablesFile,
	)

	// Load the environment's table records. Parse success is the only
	// requirement here; field checking belongs to the validate command.
	tables, err := config.LoadTables(envCfg.TablesFile)
	if err != nil {
		return fmt.Errorf("failed to load tables for environment %q: %w", environment, err)
	}

	if tables.Len() == 0 {
		log.Warnw("No tables configured, nothing to run", "environment", environment)
		return nil
	}

	// Setup context with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Warn("Received shutdown signal - stopping after current model...")
		cancel()
	}()

	// Wire the optional run ledger
	var record dispatch.RecordCallback
	if cfg.Ledger.Enabled {
		led := ledger.New(&cfg.Ledger)
		if err := led.Connect(ctx); err != nil {
			return err
		}
		defer led.Close()

		if err := led.EnsureSchema(ctx); err != nil {
			return err
		}

		if !runForce {
			envLock := ledger.NewEnvironmentLock(led.DB, environment)
			if err := envLock.Acquire(ctx, cfg.Ledger.LockTimeoutSeconds); err != nil {
				if errors.Is(err, ledger.ErrLockHeld) {
					return fmt.Errorf("environment %q is already running on another instance (use --force to override)", environment)
				}
				return fmt.Errorf("failed to acquire environment lock: %w", err)
			}
			defer envLock.Release(context.Background())
			log.Infow("Acquired environment lock", "environment", environment)
		} else {
			log.Warnw("Skipping environment lock acquisition (--force flag used)", "environment", environment)
		}

		record = newLedgerCallback(led, environment)
	}

	// Create dispatcher
	opts := dispatch.Options{
		Target:      cfg.DbtTarget(environment),
		FullRefresh: runFullRefresh,
	}
	dispatcher := dispatch.NewDispatcher(cfg.Dbt, opts, nil, log)

	// Execute the run
	result, err := dispatcher.Execute(ctx, environment, tables, record)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Warn("Run cancelled by user")
			return nil
		}
		printRunSummary(cmd, result)
		return fmt.Errorf("run failed: %w", err)
	}

	printRunSummary(cmd, result)
	return nil
}

// newLedgerCallback returns a callback that appends one ledger row per
// model result. Writes use a background context so the row for a model
// interrupted by shutdown is still recorded.
func newLedgerCallback(led *ledger.Ledger, environment string) dispatch.RecordCallback {
	return func(res dispatch.ModelResult) error {
		entry := ledger.Entry{
			Environment: environment,
			Model:       res.Model,
			Status:      res.Status,
			StartedAt:   res.StartedAt,
			Duration:    res.Duration,
		}
		if res.Err != nil {
			entry.Error = res.Err.Error()
		}
		return led.Record(context.Background(), entry)
	}
}

func printRunSummary(cmd *cobra.Command, result *dispatch.RunResult) {
	if result == nil {
		return
	}
	cmd.Printf("\n=== Run Complete ===\n")
	cmd.Printf("Environment: %s\n", result.Environment)
	cmd.Printf("Duration: %s\n", result.Duration)
	cmd.Printf("Models Run: %d/%d\n", result.ModelsRun, result.ModelsTotal)
	cmd.Printf("Success: %v\n", result.Success)

	if result.FailedModel != "" {
		cmd.Printf("Failed Model: %s\n", result.FailedModel)
	}
}
