package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// Validate checks the configuration for required fields and valid values.
func (c *Config) Validate() error {
	var errors ValidationErrors

	if c.Dbt.Binary == "" {
		errors = append(errors, ValidationError{
			Field:   "dbt.binary",
			Message: "binary is required",
		})
	}

	if len(c.Environments) == 0 {
		errors = append(errors, ValidationError{
			Field:   "environments",
			Message: "at least one environment must be defined",
		})
	}
	for name, env := range c.Environments {
		if env.TablesFile == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("environments.%s.tables_file", name),
				Message: "tables_file is required",
			})
		}
	}

	if c.Ledger.Enabled {
		errors = append(errors, c.validateLedger()...)
	}

	errors = append(errors, c.validateLogging()...)

	if len(errors) > 0 {
		return errors
	}
	return nil
}

func (c *Config) validateLedger() ValidationErrors {
	var errors ValidationErrors
	db := &c.Ledger.Database

	if db.Host == "" {
		errors = append(errors, ValidationError{
			Field:   "ledger.database.host",
			Message: "host is required when ledger is enabled",
		})
	}

	if db.Port <= 0 || db.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "ledger.database.port",
			Message: "port must be between 1 and 65535",
		})
	}

	if db.User == "" {
		errors = append(errors, ValidationError{
			Field:   "ledger.database.user",
			Message: "user is required when ledger is enabled",
		})
	}

	if db.Database == "" {
		errors = append(errors, ValidationError{
			Field:   "ledger.database.database",
			Message: "database name is required when ledger is enabled",
		})
	}

	validTLS := map[string]bool{"disable": true, "preferred": true, "required": true, "": true}
	if !validTLS[db.TLS] {
		errors = append(errors, ValidationError{
			Field:   "ledger.database.tls",
			Message: "tls must be 'disable', 'preferred', or 'required'",
		})
	}

	if c.Ledger.Table == "" {
		errors = append(errors, ValidationError{
			Field:   "ledger.table",
			Message: "table is required when ledger is enabled",
		})
	}

	if c.Ledger.LockTimeoutSeconds < 0 {
		errors = append(errors, ValidationError{
			Field:   "ledger.lock_timeout_seconds",
			Message: "lock_timeout_seconds cannot be negative",
		})
	}

	return errors
}

func (c *Config) validateLogging() ValidationErrors {
	var errors ValidationErrors

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true, "": true}
	if !validLevels[c.Logging.Level] {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Message: "level must be 'debug', 'info', 'warn', or 'error'",
		})
	}

	validFormats := map[string]bool{"json": true, "text": true, "": true}
	if !validFormats[c.Logging.Format] {
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Message: "format must be 'json' or 'text'",
		})
	}

	return errors
}

// requiredTableFields maps field labels to accessors, in display order.
var requiredTableFields = []struct {
	label string
	value func(TableSpec) string
}{
	{"source_project", func(s TableSpec) string { return s.SourceProject }},
	{"source_dataset", func(s TableSpec) string { return s.SourceDataset }},
	{"source_table", func(s TableSpec) string { return s.SourceTable }},
	{"target_dataset", func(s TableSpec) string { return s.TargetDataset }},
	{"target_table", func(s TableSpec) string { return s.TargetTable }},
}

// Validate checks that every model record has all required fields and that
// no two models write the same target table. The run path deliberately does
// not call this: a parseable file is runnable, and missing fields surface
// through the dbt invocation itself.
func (ts *TableSet) Validate() error {
	var errors ValidationErrors

	targets := make(map[string]string)
	for _, rec := range ts.Records() {
		prefix := fmt.Sprintf("models.%s", rec.Name)

		for _, f := range requiredTableFields {
			if f.value(rec.Spec) == "" {
				errors = append(errors, ValidationError{
					Field:   prefix + "." + f.label,
					Message: f.label + " is required",
				})
			}
		}

		if rec.Spec.TargetDataset != "" && rec.Spec.TargetTable != "" {
			target := rec.Spec.TargetDataset + "." + rec.Spec.TargetTable
			if other, dup := targets[target]; dup {
				errors = append(errors, ValidationError{
					Field:   prefix,
					Message: fmt.Sprintf("target table %s already written by model %q", target, other),
				})
			} else {
				targets[target] = rec.Name
			}
		}
	}

	if len(errors) > 0 {
		return errors
	}
	return nil
}
