package models

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCohortFile is returned when the staff or worker workbook is absent.
	ErrMissingCohortFile = errors.New("missing cohort workbook")

	// ErrInvalidInputPath is returned when an input path escapes the configured base directory.
	ErrInvalidInputPath = errors.New("invalid input path")

	ErrRunNotFound         = errors.New("bonus run not found")
	ErrRunInProgress       = errors.New("bonus run already in progress for these inputs")
	ErrPersistenceDisabled = errors.New("run history requires a database")
)

// RunError reports which pipeline stage failed and why.
type RunError struct {
	Stage  string
	Reason string
	Err    error
}

func (e *RunError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Stage, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %v", e.Stage, e.Reason, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// Pipeline stages
const (
	StageInput     = "input"
	StageNormalize = "normalize"
	StageCompute   = "compute"
	StageReconcile = "reconcile"
	StageRecord    = "record"
)
