package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags at build time)
var (
	Version = "0.0.1-dev"
	Commit  = "unknown"
)

// CLI flags that override config file values
var (
	cfgFile   string
	logLevel  string
	logFormat string
	dbtBinary string
	noLedger  bool
)

var rootCmd = &cobra.Command{
	Use:   "dbtctl",
	Short: "Per-environment dbt model runner for BigQuery table replication",
	Long: `A CLI tool that drives dbt over per-environment table configuration
files: each configured table produces exactly one dbt invocation with the
record's fields exported as environment variables and the record's name
used as the model selector.

Features:
  - Ordered, sequential dispatch that halts on the first failure
  - Per-environment YAML table configuration (prod, preprod, dev, ...)
  - Plan output previewing every invocation before running
  - Optional MySQL run ledger with per-environment advisory locking`,
	Version: Version,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Config file flag
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "dbtctl.yaml",
		"Path to configuration file")

	// Logging overrides
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"Override log format (json, text)")

	// dbt overrides
	rootCmd.PersistentFlags().StringVar(&dbtBinary, "dbt-bin", "",
		"Override path to the dbt executable")

	// Ledger override
	rootCmd.PersistentFlags().BoolVar(&noLedger, "no-ledger", false,
		"Disable the run ledger even if enabled in configuration")
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// CLIOverrides contains flag values that override config file settings
type CLIOverrides struct {
	LogLevel  string
	LogFormat string
	DbtBinary string
	NoLedger  bool
}

// GetCLIOverrides returns the CLI flag override values
func GetCLIOverrides() CLIOverrides {
	return CLIOverrides{
		LogLevel:  logLevel,
		LogFormat: logFormat,
		DbtBinary: dbtBinary,
		NoLedger:  noLedger,
	}
}
