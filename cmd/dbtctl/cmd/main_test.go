package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

const testTablesContent = `
orders:
  source_project: acme-dwh-prod
  source_dataset: raw
  source_table: orders_v1
  target_dataset: analytics
  target_table: orders

customers:
  source_project: acme-dwh-prod
  source_dataset: raw
  source_table: customers_v2
  target_dataset: analytics
  target_table: customers
`

// writeTestSetup writes a settings file and a prod tables file into a
// temp dir and returns the settings file path.
func writeTestSetup(t *testing.T, binary, tablesContent string) string {
	t.Helper()

	tmpDir := t.TempDir()
	tablesPath := filepath.Join(tmpDir, "tables_prod.yml")
	if err := os.WriteFile(tablesPath, []byte(tablesContent), 0644); err != nil {
		t.Fatalf("failed to write tables file: %v", err)
	}

	configPath := filepath.Join(tmpDir, "dbtctl.yaml")
	// The binary must be quoted: bare true/false would parse as YAML
	// booleans instead of an executable name.
	configContent := fmt.Sprintf(`dbt:
  binary: "%s"

environments:
  prod:
    tables_file: %s

logging:
  level: error
  format: text
  output: stderr
`, binary, tablesPath)
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	return configPath
}

// useConfigFile points the global --config flag at the given path for the
// duration of the test.
func useConfigFile(t *testing.T, path string) {
	t.Helper()
	original := cfgFile
	cfgFile = path
	t.Cleanup(func() {
		cfgFile = original
	})
}
