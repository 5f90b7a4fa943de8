// Package worker implements the worker loop (C7): poll for a single
// pending job, claim it under a row lock, run it to completion, finalize
// its status, and drain gracefully on shutdown.
package worker

import (
	"context"
	"errors"
	"log"
	"time"

	engctx "github.com/blendle/automaat/internal/engine/context"
	"github.com/blendle/automaat/internal/engine/executor"
	"github.com/blendle/automaat/internal/job"
	"github.com/blendle/automaat/internal/store"
)

// Loop polls Store for pending jobs and executes them strictly serially,
// one at a time, in the same process.
type Loop struct {
	store        *store.Store
	pollInterval time.Duration
}

// New constructs a Loop backed by s, polling every pollInterval when no job
// is waiting.
func New(s *store.Store, pollInterval time.Duration) *Loop {
	return &Loop{store: s, pollInterval: pollInterval}
}

// Run blocks, claiming and executing jobs until ctx is cancelled. A job
// already in flight when ctx is cancelled is allowed to finish before Run
// returns: ctx (typically derived from signal.NotifyContext) only governs
// polling and claiming, while the claimed job runs under its own
// un-cancelled context so that it can complete the drain.
func (l *Loop) Run(ctx context.Context) {
	log.Println("[worker] starting")

	for {
		select {
		case <-ctx.Done():
			log.Println("[worker] shutting down")
			return
		default:
		}

		claimed, err := l.store.ClaimNextJob(ctx)
		if errors.Is(err, store.ErrNotFound) {
			select {
			case <-ctx.Done():
				log.Println("[worker] shutting down")
				return
			case <-time.After(l.pollInterval):
			}
			continue
		}
		if err != nil {
			log.Printf("[worker] error claiming job: %v", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(l.pollInterval):
			}
			continue
		}

		l.runJob(context.Background(), claimed)
	}
}

func (l *Loop) runJob(ctx context.Context, j *job.Job) {
	log.Printf("[worker] running job %d (%s)", j.ID, j.Name)

	ectx, err := engctx.New()
	if err != nil {
		log.Printf("[worker] job %d: creating workspace: %v", j.ID, err)
		_ = l.store.FinalizeJob(ctx, j.ID, job.StatusFailed)
		return
	}
	defer func() {
		if err := ectx.Close(); err != nil {
			log.Printf("[worker] job %d: cleaning up workspace: %v", j.ID, err)
		}
	}()

	status, err := executor.Run(ctx, l.store, ectx, j)
	if err != nil {
		log.Printf("[worker] job %d: %v", j.ID, err)
		status = job.StatusFailed
	}

	if err := l.store.FinalizeJob(ctx, j.ID, status); err != nil {
		log.Printf("[worker] job %d: finalizing status: %v", j.ID, err)
		return
	}

	log.Printf("[worker] job %d finished: %s", j.ID, status)
}
