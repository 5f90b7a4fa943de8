// Package apierr defines the validation error shapes surfaced at the API
// boundary, before a job is ever created (spec §7: "validation errors are
// returned to the caller before a job is created").
package apierr

import (
	"fmt"
	"strings"
)

// MissingValuesError is returned when instantiation is attempted without
// values for one or more variables that have no default.
type MissingValuesError struct {
	Keys []string
}

func (e *MissingValuesError) Error() string {
	return fmt.Sprintf("missing values for variables: %s", strings.Join(e.Keys, ", "))
}

// ConstraintMismatchError is returned when a provided value is not a member
// of its variable's selection constraint.
type ConstraintMismatchError struct {
	Variable string
	Value    string
}

func (e *ConstraintMismatchError) Error() string {
	return fmt.Sprintf("value %q is not allowed for variable %q", e.Value, e.Variable)
}

// NotFoundError is returned when a requested resource does not exist, or
// when a weak reference (e.g. job.task_reference) no longer resolves.
type NotFoundError struct {
	Resource string
	ID       interface{}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Resource, e.ID)
}
