package task

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blendle/automaat/internal/apierr"
	"github.com/blendle/automaat/internal/job"
)

type fakeStore struct {
	task      *Task
	jobCount  int
	created   *job.Job
}

func (f *fakeStore) GetTask(ctx context.Context, id int32) (*Task, error) {
	return f.task, nil
}

func (f *fakeStore) CountJobsForTask(ctx context.Context, taskID int32) (int, error) {
	return f.jobCount, nil
}

func (f *fakeStore) CreateJob(ctx context.Context, j *job.Job) (*job.Job, error) {
	f.created = j
	j.ID = 1
	return j, nil
}

func defaultValue(s string) *string { return &s }

func baseTask() *Task {
	return &Task{
		ID:   7,
		Name: "deploy service",
		Steps: []Step{
			{
				Name:      "announce",
				Processor: json.RawMessage(`{"PrintOutput":{"output":"deploying {service} to {env}"}}`),
				Position:  0,
			},
		},
		Variables: []Variable{
			{Key: "service"},
			{Key: "env", DefaultValue: defaultValue("staging"), SelectionConstraint: []string{"staging", "production"}},
		},
	}
}

func TestInstantiate_MissingRequiredValue(t *testing.T) {
	store := &fakeStore{task: baseTask()}

	_, err := Instantiate(t.Context(), store, 7, nil)
	require.Error(t, err)

	var missing *apierr.MissingValuesError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"service"}, missing.Keys)
}

func TestInstantiate_ConstraintMismatch(t *testing.T) {
	store := &fakeStore{task: baseTask()}

	_, err := Instantiate(t.Context(), store, 7, []VariableValue{
		{Key: "service", Value: "billing"},
		{Key: "env", Value: "canary"},
	})
	require.Error(t, err)

	var mismatch *apierr.ConstraintMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "env", mismatch.Variable)
}

func TestInstantiate_UsesDefaultAndSubstitutes(t *testing.T) {
	store := &fakeStore{task: baseTask(), jobCount: 2}

	j, err := Instantiate(t.Context(), store, 7, []VariableValue{
		{Key: "service", Value: "billing"},
	})
	require.NoError(t, err)

	assert.Equal(t, "deploy service #3", j.Name)
	require.Len(t, j.Steps, 1)

	var processor map[string]interface{}
	require.NoError(t, json.Unmarshal(j.Steps[0].Processor, &processor))
	printOutput := processor["PrintOutput"].(map[string]interface{})
	assert.Equal(t, "deploying billing to {env}", printOutput["output"])
}
