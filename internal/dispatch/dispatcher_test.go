package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/arkdata/dbtctl/internal/config"
	"github.com/arkdata/dbtctl/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner records every invocation and fails on configured models.
type fakeRunner struct {
	invocations []Invocation
	failOn      map[string]error
}

func (f *fakeRunner) Run(ctx context.Context, inv Invocation) error {
	f.invocations = append(f.invocations, inv)
	if err, fail := f.failOn[inv.Model]; fail {
		return err
	}
	return nil
}

func testTables(t *testing.T) *config.TableSet {
	t.Helper()
	ts, err := config.ParseTables([]byte(`
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

events:
  source_project: acme-events-prod
  source_dataset: tracking
  source_table: events_raw
  target_dataset: analytics
  target_table: events
`))
	require.NoError(t, err)
	return ts
}

func newTestDispatcher(runner CommandRunner) *Dispatcher {
	dbt := config.DbtConfig{Binary: "dbt"}
	return NewDispatcher(dbt, Options{Target: "prod"}, runner, logger.NewDefault())
}

func TestExecuteOneInvocationPerRecord(t *testing.T) {
	runner := &fakeRunner{}
	d := newTestDispatcher(runner)

	result, err := d.Execute(context.Background(), "prod", testTables(t), nil)

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.Success)
	assert.Equal(t, 3, result.ModelsTotal)
	assert.Equal(t, 3, result.ModelsRun)

	// Exactly one invocation per record, in file order, no duplicates
	require.Len(t, runner.invocations, 3)
	assert.Equal(t, "orders", runner.invocations[0].Model)
	assert.Equal(t, "customers", runner.invocations[1].Model)
	assert.Equal(t, "events", runner.invocations[2].Model)
}

func TestExecuteSubstitutesRecordFields(t *testing.T) {
	runner := &fakeRunner{}
	d := newTestDispatcher(runner)

	_, err := d.Execute(context.Background(), "prod", testTables(t), nil)
	require.NoError(t, err)

	inv := runner.invocations[1] // customers
	assert.Equal(t, []string{"run", "--select", "customers", "--target", "prod"}, inv.Args)
	assert.Contains(t, inv.Env, "SOURCE_PROJECT=acme-dwh-prod")
	assert.Contains(t, inv.Env, "SOURCE_TABLE=customers_v2")
	assert.Contains(t, inv.Env, "TARGET_DATASET=analytics")
	assert.Contains(t, inv.Env, "TARGET_TABLE=customers")
}

func TestExecuteHaltsOnFirstFailure(t *testing.T) {
	runner := &fakeRunner{
		failOn: map[string]error{"customers": errors.New("dbt exited with code 1")},
	}
	d := newTestDispatcher(runner)

	result, err := d.Execute(context.Background(), "prod", testTables(t), nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), `model "customers" failed`)

	require.NotNil(t, result)
	assert.False(t, result.Success)
	assert.Equal(t, "customers", result.FailedModel)
	assert.Equal(t, 2, result.ModelsRun)

	// events must not have been invoked
	require.Len(t, runner.invocations, 2)
	assert.Equal(t, "customers", runner.invocations[1].Model)

	require.Len(t, result.Models, 2)
	assert.Equal(t, StatusSucceeded, result.Models[0].Status)
	assert.Equal(t, StatusFailed, result.Models[1].Status)
}

func TestExecuteEmptyTableSet(t *testing.T) {
	ts, err := config.ParseTables([]byte(""))
	require.NoError(t, err)

	runner := &fakeRunner{}
	d := newTestDispatcher(runner)

	result, execErr := d.Execute(context.Background(), "prod", ts, nil)

	require.NoError(t, execErr)
	assert.True(t, result.Success)
	assert.Equal(t, 0, result.ModelsRun)
	assert.Empty(t, runner.invocations)
}

func TestExecuteRecordCallback(t *testing.T) {
	runner := &fakeRunner{
		failOn: map[string]error{"events": errors.New("dbt exited with code 2")},
	}
	d := newTestDispatcher(runner)

	var recorded []ModelResult
	record := func(res ModelResult) error {
		recorded = append(recorded, res)
		return nil
	}

	_, err := d.Execute(context.Background(), "prod", testTables(t), record)
	require.Error(t, err)

	// The failing invocation is recorded too
	require.Len(t, recorded, 3)
	assert.Equal(t, StatusSucceeded, recorded[0].Status)
	assert.Equal(t, StatusSucceeded, recorded[1].Status)
	assert.Equal(t, StatusFailed, recorded[2].Status)
	assert.EqualError(t, recorded[2].Err, "dbt exited with code 2")
}

func TestExecuteRecordCallbackErrorDoesNotStopRun(t *testing.T) {
	runner := &fakeRunner{}
	d := newTestDispatcher(runner)

	record := func(res ModelResult) error {
		return errors.New("ledger unavailable")
	}

	result, err := d.Execute(context.Background(), "prod", testTables(t), record)

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 3, result.ModelsRun)
}

func TestExecuteCancelledContext(t *testing.T) {
	runner := &fakeRunner{}
	d := newTestDispatcher(runner)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := d.Execute(ctx, "prod", testTables(t), nil)

	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, result.Success)
	assert.Empty(t, runner.invocations)
}

func TestPlan(t *testing.T) {
	runner := &fakeRunner{}
	d := newTestDispatcher(runner)

	invocations := d.Plan(testTables(t))

	require.Len(t, invocations, 3)
	assert.Equal(t, "orders", invocations[0].Model)
	assert.Equal(t, "events", invocations[2].Model)
	// Plan never executes anything
	assert.Empty(t, runner.invocations)
}

func TestNewDispatcherDefaults(t *testing.T) {
	d := NewDispatcher(config.DbtConfig{Binary: "dbt"}, Options{}, nil, nil)

	require.NotNil(t, d)
	assert.NotNil(t, d.runner)
	assert.NotNil(t, d.logger)
	assert.IsType(t, &ExecRunner{}, d.runner)
}
