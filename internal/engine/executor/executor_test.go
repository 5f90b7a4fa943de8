package executor

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	engctx "github.com/blendle/automaat/internal/engine/context"
	"github.com/blendle/automaat/internal/job"
)

type fakeStore struct {
	started  []int32
	finished map[int32]job.StepStatus
}

func newFakeStore() *fakeStore {
	return &fakeStore{finished: make(map[int32]job.StepStatus)}
}

func (f *fakeStore) StartStep(ctx context.Context, stepID int32, startedAt time.Time) error {
	f.started = append(f.started, stepID)
	return nil
}

func (f *fakeStore) FinishStep(ctx context.Context, stepID int32, status job.StepStatus, output *string, finishedAt time.Time) error {
	f.finished[stepID] = status
	return nil
}

func TestRun_ChainsOutputAndSucceeds(t *testing.T) {
	ectx, err := engctx.New()
	require.NoError(t, err)
	defer ectx.Close()

	j := &job.Job{
		Variables: []job.Variable{{Key: "name", Value: "ada"}},
		Steps: []job.Step{
			{
				ID:        1,
				Processor: json.RawMessage(`{"PrintOutput":{"output":"hello {{ .var.name }}"}}`),
			},
			{
				ID:        2,
				Processor: json.RawMessage(`{"PrintOutput":{"output":"echo: {{ index .sys \"previous step output\" }}"}}`),
			},
		},
	}

	store := newFakeStore()
	status, err := Run(t.Context(), store, ectx, j)
	require.NoError(t, err)
	assert.Equal(t, job.StatusOk, status)

	assert.Equal(t, job.StepStatusOk, j.Steps[0].Status)
	require.NotNil(t, j.Steps[0].Output)
	assert.Equal(t, "hello ada", *j.Steps[0].Output)

	require.NotNil(t, j.Steps[1].Output)
	assert.Equal(t, "echo: hello ada", *j.Steps[1].Output)

	assert.Equal(t, []int32{1, 2}, store.started)
	assert.Equal(t, job.StepStatusOk, store.finished[1])
	assert.Equal(t, job.StepStatusOk, store.finished[2])
}

func TestRun_AbortsOnFirstFailure(t *testing.T) {
	ectx, err := engctx.New()
	require.NoError(t, err)
	defer ectx.Close()

	j := &job.Job{
		Steps: []job.Step{
			{ID: 1, Processor: json.RawMessage(`{"StringRegex":{"input":"nope","regex":"^[0-9]+$"}}`), Status: job.StepStatusPending},
			{ID: 2, Processor: json.RawMessage(`{"PrintOutput":{"output":"should not run"}}`), Status: job.StepStatusPending},
		},
	}

	store := newFakeStore()
	status, err := Run(t.Context(), store, ectx, j)
	require.NoError(t, err)
	assert.Equal(t, job.StatusFailed, status)

	assert.Equal(t, job.StepStatusFailed, j.Steps[0].Status)
	assert.Equal(t, job.StepStatusPending, j.Steps[1].Status)
	assert.Equal(t, []int32{1}, store.started)
}
