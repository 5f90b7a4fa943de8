// Package executor implements the ordered step executor (C6): for each
// step in a job, render its processor config, run it, persist the result,
// and chain its output into the next step, aborting on the first failure.
package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	engctx "github.com/blendle/automaat/internal/engine/context"
	"github.com/blendle/automaat/internal/engine/processor"
	"github.com/blendle/automaat/internal/engine/template"
	"github.com/blendle/automaat/internal/job"
)

// Store is the persistence contract the executor depends on.
type Store interface {
	StartStep(ctx context.Context, stepID int32, startedAt time.Time) error
	FinishStep(ctx context.Context, stepID int32, status job.StepStatus, output *string, finishedAt time.Time) error
}

// Run executes j's steps in position order, rendering and running each one,
// persisting its status and output, and chaining its output into the next
// step's `sys.previous step output`. It returns the job's derived final
// status (I1: the status of the last executed step).
func Run(ctx context.Context, store Store, ectx *engctx.Context, j *job.Job) (job.Status, error) {
	varDataset := make(map[string]string, len(j.Variables))
	for _, v := range j.Variables {
		varDataset[v.Key] = v.Value
	}

	chainInput := ""
	lastStatus := job.StepStatusInitialized

	for i := range j.Steps {
		step := &j.Steps[i]

		startedAt := time.Now()
		step.Status = job.StepStatusRunning
		step.StartedAt = &startedAt
		if err := store.StartStep(ctx, step.ID, startedAt); err != nil {
			return job.StatusFailed, fmt.Errorf("starting step %q: %w", step.Name, err)
		}

		output, runErr := runStep(ctx, ectx, step, varDataset, chainInput)
		finishedAt := time.Now()

		if runErr != nil {
			message := runErr.Error()
			step.Status = job.StepStatusFailed
			step.Output = &message
			step.FinishedAt = &finishedAt
			lastStatus = job.StepStatusFailed

			if err := store.FinishStep(ctx, step.ID, step.Status, step.Output, finishedAt); err != nil {
				return job.StatusFailed, fmt.Errorf("persisting failed step %q: %w", step.Name, err)
			}
			break
		}

		step.Status = job.StepStatusOk
		step.Output = output
		step.FinishedAt = &finishedAt
		lastStatus = job.StepStatusOk

		if err := store.FinishStep(ctx, step.ID, step.Status, step.Output, finishedAt); err != nil {
			return job.StatusFailed, fmt.Errorf("persisting step %q: %w", step.Name, err)
		}

		if output != nil {
			chainInput = *output
		} else {
			chainInput = ""
		}
	}

	return job.FromStepStatus(lastStatus), nil
}

func runStep(ctx context.Context, ectx *engctx.Context, step *job.Step, vars map[string]string, previousOutput string) (*string, error) {
	// The {$workspace}/{$input} legacy tokens only resolve once the
	// workspace exists and the previous step has run, so unlike {key}
	// variable substitution (done once at instantiation) they're applied
	// here, ahead of the Jinja-like pass.
	legacySubstituted, err := template.SubstituteRunContext(step.Processor, previousOutput, ectx.WorkspacePath())
	if err != nil {
		return nil, fmt.Errorf("substituting run context in step %q: %w", step.Name, err)
	}

	dataset := template.Dataset{
		Var: vars,
		Sys: map[string]string{
			"previous step output": previousOutput,
			"workspace path":       ectx.WorkspacePath(),
		},
	}

	rendered, err := template.Render(legacySubstituted, dataset)
	if err != nil {
		return nil, fmt.Errorf("rendering step %q: %w", step.Name, err)
	}

	var wrapped processor.Step
	if err := json.Unmarshal(rendered, &wrapped); err != nil {
		return nil, fmt.Errorf("deserializing step %q processor: %w", step.Name, err)
	}

	if err := wrapped.Processor.Validate(); err != nil {
		return nil, err
	}

	return wrapped.Processor.Run(ctx, ectx)
}
