package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/arkdata/dbtctl/internal/config"
	"github.com/arkdata/dbtctl/internal/logger"
)

// Model invocation statuses as recorded in results and the run ledger.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// ModelResult records the outcome of one model invocation.
type ModelResult struct {
	Model      string
	Invocation Invocation
	StartedAt  time.Time
	Duration   time.Duration
	Status     string
	Err        error
}

// RunResult contains statistics and status of a dispatch run.
type RunResult struct {
	Environment string
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
	ModelsTotal int
	ModelsRun   int
	FailedModel string
	Models      []ModelResult
	Success     bool
}

// RecordCallback is called after each model invocation completes, before
// the next one starts. Used to append ledger rows.
type RecordCallback func(res ModelResult) error

// Dispatcher executes the configured tables of one environment in file
// order, one dbt process at a time.
type Dispatcher struct {
	dbt    config.DbtConfig
	opts   Options
	runner CommandRunner
	logger *logger.Logger
}

// NewDispatcher creates a dispatcher for the given dbt settings.
// A nil runner defaults to the exec-backed implementation.
func NewDispatcher(dbt config.DbtConfig, opts Options, runner CommandRunner, log *logger.Logger) *Dispatcher {
	if runner == nil {
		runner = NewExecRunner()
	}
	if log == nil {
		log = logger.NewDefault()
	}
	return &Dispatcher{
		dbt:    dbt,
		opts:   opts,
		runner: runner,
		logger: log,
	}
}

// Plan returns the invocations Execute would run, in order, without
// running anything.
func (d *Dispatcher) Plan(tables *config.TableSet) []Invocation {
	records := tables.Records()
	invocations := make([]Invocation, 0, len(records))
	for _, rec := range records {
		invocations = append(invocations, NewInvocation(d.dbt, rec, d.opts))
	}
	return invocations
}

// Execute runs every model of the table set sequentially. Each record
// produces exactly one invocation; the loop stops at the first failure
// and the remaining models are not run. The returned RunResult is always
// populated, also on error.
func (d *Dispatcher) Execute(ctx context.Context, environment string, tables *config.TableSet, record RecordCallback) (*RunResult, error) {
	result := &RunResult{
		Environment: environment,
		StartedAt:   time.Now(),
		ModelsTotal: tables.Len(),
	}

	log := d.logger.WithEnvironment(environment)
	log.Infow("Starting dispatch",
		"models", result.ModelsTotal,
	)

	for _, rec := range tables.Records() {
		if err := ctx.Err(); err != nil {
			d.finish(result)
			return result, err
		}

		inv := NewInvocation(d.dbt, rec, d.opts)
		modelLog := log.WithModel(rec.Name)
		modelLog.Infow("Running model", "command", inv.CommandLine())

		mres := ModelResult{
			Model:      rec.Name,
			Invocation: inv,
			StartedAt:  time.Now(),
		}

		err := d.runner.Run(ctx, inv)
		mres.Duration = time.Since(mres.StartedAt)
		result.ModelsRun++

		if err != nil {
			mres.Status = StatusFailed
			mres.Err = err
			result.Models = append(result.Models, mres)
			result.FailedModel = rec.Name
			d.notify(record, mres, modelLog)
			d.finish(result)

			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			modelLog.Errorw("Model failed", "error", err, "duration", mres.Duration)
			return result, fmt.Errorf("model %q failed: %w", rec.Name, err)
		}

		mres.Status = StatusSucceeded
		result.Models = append(result.Models, mres)
		d.notify(record, mres, modelLog)
		modelLog.Infow("Model succeeded", "duration", mres.Duration)
	}

	result.Success = true
	d.finish(result)

	log.Infow("Dispatch complete",
		"models_run", result.ModelsRun,
		"duration", result.Duration,
	)
	return result, nil
}

func (d *Dispatcher) finish(result *RunResult) {
	result.CompletedAt = time.Now()
	result.Duration = result.CompletedAt.Sub(result.StartedAt)
}

// notify invokes the record callback. Ledger write failures must not
// interrupt the run, so they are logged and swallowed here.
func (d *Dispatcher) notify(record RecordCallback, res ModelResult, log *logger.Logger) {
	if record == nil {
		return
	}
	if err := record(res); err != nil {
		log.Warnw("Failed to record model result", "error", err)
	}
}
