// Package config provides configuration structures and loading for dbtctl.
package config

// Config represents the complete application configuration.
type Config struct {
	Dbt          DbtConfig                    `yaml:"dbt" mapstructure:"dbt"`
	Environments map[string]EnvironmentConfig `yaml:"environments" mapstructure:"environments"`
	Ledger       LedgerConfig                 `yaml:"ledger" mapstructure:"ledger"`
	Logging      LoggingConfig                `yaml:"logging" mapstructure:"logging"`
}

// DbtConfig represents settings for invoking the dbt CLI.
type DbtConfig struct {
	Binary      string   `yaml:"binary" mapstructure:"binary"`             // dbt executable, resolved via PATH if relative
	ProjectDir  string   `yaml:"project_dir" mapstructure:"project_dir"`   // passed as --project-dir when set
	ProfilesDir string   `yaml:"profiles_dir" mapstructure:"profiles_dir"` // passed as --profiles-dir when set
	Target      string   `yaml:"target" mapstructure:"target"`             // passed as --target when set
	Args        []string `yaml:"args" mapstructure:"args"`                 // extra args appended to every invocation
}

// EnvironmentConfig represents a deployment environment and its table file.
type EnvironmentConfig struct {
	TablesFile string `yaml:"tables_file" mapstructure:"tables_file"`
	Target     string `yaml:"target" mapstructure:"target"` // per-environment dbt target override
}

// LedgerConfig represents the optional MySQL run ledger.
type LedgerConfig struct {
	Enabled            bool           `yaml:"enabled" mapstructure:"enabled"`
	Table              string         `yaml:"table" mapstructure:"table"`
	LockTimeoutSeconds int            `yaml:"lock_timeout_seconds" mapstructure:"lock_timeout_seconds"`
	Database           DatabaseConfig `yaml:"database" mapstructure:"database"`
}

// DatabaseConfig represents a MySQL database connection configuration.
type DatabaseConfig struct {
	Host               string `yaml:"host" mapstructure:"host"`
	Port               int    `yaml:"port" mapstructure:"port"`
	User               string `yaml:"user" mapstructure:"user"`
	Password           string `yaml:"password" mapstructure:"password"`
	Database           string `yaml:"database" mapstructure:"database"`
	TLS                string `yaml:"tls" mapstructure:"tls"` // disable, preferred, required
	MaxConnections     int    `yaml:"max_connections" mapstructure:"max_connections"`
	MaxIdleConnections int    `yaml:"max_idle_connections" mapstructure:"max_idle_connections"`
}

// LoggingConfig represents logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or text
	Output string `yaml:"output" mapstructure:"output"` // stdout, stderr, or file path
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Dbt: DbtConfig{
			Binary: "dbt",
		},
		// Unmarshal merges into a pre-populated map, so environments
		// must start empty or undefined ones would survive loading.
		Environments: map[string]EnvironmentConfig{},
		Ledger: LedgerConfig{
			Enabled:            false,
			Table:              "dbt_runs",
			LockTimeoutSeconds: 1,
			Database: DatabaseConfig{
				Port:               3306,
				TLS:                "preferred",
				MaxConnections:     5,
				MaxIdleConnections: 2,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// DbtTarget returns the effective dbt target for an environment, falling
// back to the global dbt target if the environment does not override it.
func (c *Config) DbtTarget(env string) string {
	if ec, exists := c.Environments[env]; exists && ec.Target != "" {
		return ec.Target
	}
	return c.Dbt.Target
}

// ApplyOverrides applies CLI flag overrides to the configuration.
// Only non-empty values are applied.
func (c *Config) ApplyOverrides(logLevel, logFormat, dbtBinary string, noLedger bool) {
	if logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFormat != "" {
		c.Logging.Format = logFormat
	}
	if dbtBinary != "" {
		c.Dbt.Binary = dbtBinary
	}
	if noLedger {
		c.Ledger.Enabled = false
	}
}
