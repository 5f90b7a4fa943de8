// Package context provides the per-job execution context (C2): a freshly
// created, uniquely named workspace directory, released when the job ends.
//
// Named "context" to match the domain term used throughout the rest of the
// engine ("execution context"); callers import it aliased to avoid shadowing
// the standard library's context.Context, exactly as stdlib context.Context
// values are threaded alongside it through Run/Execute signatures.
package context

import (
	"fmt"
	"os"

	"github.com/google/uuid"
)

// Context exposes the workspace a job's steps run inside. Concurrent jobs
// always get disjoint workspaces because each is backed by its own
// uniquely-named temporary directory.
type Context struct {
	workspacePath string
}

// New creates a fresh workspace directory on local storage.
func New() (*Context, error) {
	dir, err := os.MkdirTemp("", fmt.Sprintf("automaat-job-%s-", uuid.NewString()))
	if err != nil {
		return nil, fmt.Errorf("creating job workspace: %w", err)
	}

	return &Context{workspacePath: dir}, nil
}

// WorkspacePath returns the absolute path to the job's private workspace.
func (c *Context) WorkspacePath() string {
	return c.workspacePath
}

// Close destroys the workspace. Safe to call once a job has reached a
// terminal state, whether it succeeded, failed, or was aborted.
func (c *Context) Close() error {
	return os.RemoveAll(c.workspacePath)
}
