package config

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configuration from the specified file path.
// It supports YAML files and performs environment variable substitution.
// A .env file in the working directory, if present, is loaded first so
// that its values are available for substitution.
func Load(configPath string) (*Config, error) {
	// Missing .env is not an error; values already in the environment win.
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	// Read the config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults
	cfg := DefaultConfig()

	// Unmarshal into config struct
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	substituteEnvVars(cfg)

	return cfg, nil
}

// LoadFromViper creates a Config from an existing Viper instance.
// Useful for testing or when Viper is configured externally.
func LoadFromViper(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	substituteEnvVars(cfg)

	return cfg, nil
}

// envVarPattern matches ${VAR_NAME} or $VAR_NAME patterns
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// substituteEnvVars replaces ${VAR_NAME} patterns with environment variable values.
func substituteEnvVars(cfg *Config) {
	// Substitute in dbt config
	cfg.Dbt.Binary = expandEnvVar(cfg.Dbt.Binary)
	cfg.Dbt.ProjectDir = expandEnvVar(cfg.Dbt.ProjectDir)
	cfg.Dbt.ProfilesDir = expandEnvVar(cfg.Dbt.ProfilesDir)
	cfg.Dbt.Target = expandEnvVar(cfg.Dbt.Target)

	// Substitute in environment table file paths
	for name, env := range cfg.Environments {
		env.TablesFile = expandEnvVar(env.TablesFile)
		cfg.Environments[name] = env
	}

	// Substitute in ledger database config
	cfg.Ledger.Database.Host = expandEnvVar(cfg.Ledger.Database.Host)
	cfg.Ledger.Database.User = expandEnvVar(cfg.Ledger.Database.User)
	cfg.Ledger.Database.Password = expandEnvVar(cfg.Ledger.Database.Password)
	cfg.Ledger.Database.Database = expandEnvVar(cfg.Ledger.Database.Database)

	// Substitute in logging config
	cfg.Logging.Output = expandEnvVar(cfg.Logging.Output)
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		var varName string
		if strings.HasPrefix(match, "${") {
			varName = match[2 : len(match)-1]
		} else {
			varName = match[1:]
		}

		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		// Return original if env var not found
		return match
	})
}

// GetEnvironment retrieves a specific environment configuration by name.
func (c *Config) GetEnvironment(name string) (*EnvironmentConfig, error) {
	env, exists := c.Environments[name]
	if !exists {
		return nil, fmt.Errorf("environment %q not found in configuration", name)
	}
	return &env, nil
}

// ListEnvironments returns all environment names defined in the
// configuration, sorted for deterministic output.
func (c *Config) ListEnvironments() []string {
	envs := make([]string, 0, len(c.Environments))
	for name := range c.Environments {
		envs = append(envs, name)
	}
	sort.Strings(envs)
	return envs
}
