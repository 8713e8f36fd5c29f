// Package dispatch builds and executes one dbt invocation per configured table.
package dispatch

import (
	"fmt"
	"strings"

	"github.com/arkdata/dbtctl/internal/config"
)

// Environment variable names consumed by the SQL model templates via
// dbt's env_var(). One set is exported per invocation.
const (
	EnvSourceProject = "SOURCE_PROJECT"
	EnvSourceDataset = "SOURCE_DATASET"
	EnvSourceTable   = "SOURCE_TABLE"
	EnvTargetDataset = "TARGET_DATASET"
	EnvTargetTable   = "TARGET_TABLE"
)

// Invocation is a fully resolved dbt command: binary, arguments, and the
// extra environment exported to the child process.
type Invocation struct {
	Model  string
	Binary string
	Args   []string
	Env    []string // KEY=VALUE pairs appended to the inherited environment
	Dir    string   // working directory; empty means inherit
}

// Options adjusts how invocations are built for a run.
type Options struct {
	Target      string // dbt --target; empty omits the flag
	FullRefresh bool   // append --full-refresh
}

// NewInvocation builds the dbt command for one table record. The record's
// name selects the model and its fields are exported as environment
// variables, so the same SQL template serves every table.
func NewInvocation(dbt config.DbtConfig, rec config.TableRecord, opts Options) Invocation {
	args := []string{"run", "--select", rec.Name}

	if opts.Target != "" {
		args = append(args, "--target", opts.Target)
	}
	if dbt.ProjectDir != "" {
		args = append(args, "--project-dir", dbt.ProjectDir)
	}
	if dbt.ProfilesDir != "" {
		args = append(args, "--profiles-dir", dbt.ProfilesDir)
	}
	if opts.FullRefresh {
		args = append(args, "--full-refresh")
	}
	args = append(args, dbt.Args...)

	env := []string{
		EnvSourceProject + "=" + rec.Spec.SourceProject,
		EnvSourceDataset + "=" + rec.Spec.SourceDataset,
		EnvSourceTable + "=" + rec.Spec.SourceTable,
		EnvTargetDataset + "=" + rec.Spec.TargetDataset,
		EnvTargetTable + "=" + rec.Spec.TargetTable,
	}

	return Invocation{
		Model:  rec.Name,
		Binary: dbt.Binary,
		Args:   args,
		Env:    env,
		Dir:    dbt.ProjectDir,
	}
}

// String renders the invocation the way it would appear in a shell,
// environment assignments first. Used by the plan output and logs.
func (inv Invocation) String() string {
	parts := make([]string, 0, len(inv.Env)+len(inv.Args)+1)
	parts = append(parts, inv.Env...)
	parts = append(parts, inv.Binary)
	parts = append(parts, inv.Args...)
	return strings.Join(parts, " ")
}

// CommandLine renders only the binary and arguments, without environment.
func (inv Invocation) CommandLine() string {
	return fmt.Sprintf("%s %s", inv.Binary, strings.Join(inv.Args, " "))
}
