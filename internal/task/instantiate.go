package task

import (
	"context"
	"fmt"

	"github.com/blendle/automaat/internal/apierr"
	"github.com/blendle/automaat/internal/engine/template"
	"github.com/blendle/automaat/internal/job"
)

// Store is the persistence contract Instantiate depends on.
type Store interface {
	GetTask(ctx context.Context, id int32) (*Task, error)
	CountJobsForTask(ctx context.Context, taskID int32) (int, error)
	CreateJob(ctx context.Context, j *job.Job) (*job.Job, error)
}

// Instantiate turns a task into a job bound to values, following spec.md
// §4.5: validate values against declared variables, legacy-substitute each
// step's processor config, and persist the job, its step snapshots and its
// variable bindings in one transaction.
func Instantiate(ctx context.Context, store Store, taskID int32, values []VariableValue) (*job.Job, error) {
	t, err := store.GetTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("loading task %d: %w", taskID, err)
	}

	if err := validateValues(t, values); err != nil {
		return nil, err
	}

	bindings := make([]template.Binding, len(values))
	for i, v := range values {
		bindings[i] = template.Binding{Key: v.Key, Value: v.Value}
	}

	count, err := store.CountJobsForTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("counting jobs for task %d: %w", taskID, err)
	}

	j := &job.Job{
		Name:          fmt.Sprintf("%s #%d", t.Name, count+1),
		Description:   t.Description,
		Status:        job.StatusPending,
		TaskReference: &t.ID,
	}

	for _, v := range values {
		j.Variables = append(j.Variables, job.Variable{Key: v.Key, Value: v.Value})
	}

	for _, st := range t.Steps {
		processor, err := template.SubstituteVariables(st.Processor, bindings)
		if err != nil {
			return nil, fmt.Errorf("substituting variables in step %q: %w", st.Name, err)
		}

		j.Steps = append(j.Steps, job.Step{
			Name:                  st.Name,
			Description:           st.Description,
			Processor:             processor,
			Position:              st.Position,
			AdvertisedVariableKey: st.AdvertisedVariableKey,
			Status:                job.StepStatusPending,
		})
	}

	created, err := store.CreateJob(ctx, j)
	if err != nil {
		return nil, fmt.Errorf("creating job for task %d: %w", taskID, err)
	}
	return created, nil
}

func validateValues(t *Task, values []VariableValue) error {
	provided := make(map[string]string, len(values))
	for _, v := range values {
		provided[v.Key] = v.Value
	}

	var missing []string
	for _, v := range t.Variables {
		value, ok := provided[v.Key]
		if !ok {
			if v.DefaultValue == nil {
				missing = append(missing, v.Key)
			}
			continue
		}
		if !v.Admits(value) {
			return &apierr.ConstraintMismatchError{Variable: v.Key, Value: value}
		}
	}

	if len(missing) > 0 {
		return &apierr.MissingValuesError{Keys: missing}
	}
	return nil
}
