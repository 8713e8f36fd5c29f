package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListTablesCommandStructure(t *testing.T) {
	assert.Equal(t, "list-tables <environment>", listTablesCmd.Use)
	assert.NotEmpty(t, listTablesCmd.Short)
	assert.NotNil(t, listTablesCmd.RunE)
}

func TestRunListTables(t *testing.T) {
	useConfigFile(t, writeTestSetup(t, "dbt", testTablesContent))

	var out bytes.Buffer
	listTablesCmd.SetOut(&out)
	defer listTablesCmd.SetOut(nil)

	err := runListTables(listTablesCmd, []string{"prod"})
	require.NoError(t, err)

	s := out.String()
	assert.Contains(t, s, "orders")
	assert.Contains(t, s, "customers")
	assert.Contains(t, s, "acme-dwh-prod")
	assert.Contains(t, s, "orders_v1")
	assert.Contains(t, s, "Total: 2 table(s)")
}

func TestRunListTablesEmpty(t *testing.T) {
	useConfigFile(t, writeTestSetup(t, "dbt", ""))

	var out bytes.Buffer
	listTablesCmd.SetOut(&out)
	defer listTablesCmd.SetOut(nil)

	err := runListTables(listTablesCmd, []string{"prod"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "No tables configured")
}

func TestRunListTablesMissingConfig(t *testing.T) {
	useConfigFile(t, "/nonexistent/dbtctl.yaml")

	err := runListTables(listTablesCmd, []string{"prod"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}
