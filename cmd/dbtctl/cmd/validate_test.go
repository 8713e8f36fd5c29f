package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCommandStructure(t *testing.T) {
	assert.Equal(t, "validate", validateCmd.Use)
	assert.NotEmpty(t, validateCmd.Short)
	assert.NotNil(t, validateCmd.RunE)
	assert.NotNil(t, validateCmd.Flags().Lookup("environment"))
}

func TestRunValidateSuccess(t *testing.T) {
	useConfigFile(t, writeTestSetup(t, "dbt", testTablesContent))

	var out bytes.Buffer
	validateCmd.SetOut(&out)
	defer validateCmd.SetOut(nil)

	err := runValidate(validateCmd, nil)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "All environments validated successfully")
}

func TestRunValidateMissingFields(t *testing.T) {
	tables := `
orders:
  source_dataset: raw
`
	useConfigFile(t, writeTestSetup(t, "dbt", tables))

	var out bytes.Buffer
	validateCmd.SetOut(&out)
	defer validateCmd.SetOut(nil)

	err := runValidate(validateCmd, nil)
	require.Error(t, err)
	assert.Contains(t, out.String(), "Validation failed")
	assert.Contains(t, out.String(), "models.orders.source_project")
}

func TestRunValidateUnknownEnvironmentFlag(t *testing.T) {
	useConfigFile(t, writeTestSetup(t, "dbt", testTablesContent))

	originalEnv := validateEnvironment
	validateEnvironment = "staging"
	defer func() { validateEnvironment = originalEnv }()

	err := runValidate(validateCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `environment "staging" not found`)
}

func TestRunValidateSingleEnvironment(t *testing.T) {
	useConfigFile(t, writeTestSetup(t, "dbt", testTablesContent))

	originalEnv := validateEnvironment
	validateEnvironment = "prod"
	defer func() { validateEnvironment = originalEnv }()

	var out bytes.Buffer
	validateCmd.SetOut(&out)
	defer validateCmd.SetOut(nil)

	err := runValidate(validateCmd, nil)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "--- Environment: prod ---")
}
