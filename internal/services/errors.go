package services

import (
	"errors"
	"fmt"
)

// Failure kinds for the pipeline. Retrieval problems never surface as
// errors (the retriever degrades its context instead); generation
// errors either retry or propagate; execution errors always propagate
// to the orchestrator, which turns them into an error-typed response.

// ErrBackendUnavailable means there is no database pool to run against.
var ErrBackendUnavailable = errors.New("database connection unavailable")

// ExecutionError means the SQL ran and the engine rejected it. Carries
// the engine message; deterministic for a given statement, so never
// retried.
type ExecutionError struct {
	SQL string
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("sql execution failed: %v", e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// GenerationTimeout means one generation attempt exceeded its stage
// deadline. Counted as transient by the generator's retry loop.
type GenerationTimeout struct {
	Err error
}

func (e *GenerationTimeout) Error() string {
	return fmt.Sprintf("generation timed out: %v", e.Err)
}

func (e *GenerationTimeout) Unwrap() error {
	return e.Err
}
