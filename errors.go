// Package chatpod - errors.go
// Defines the errors returned by the agent loop, the stores and the LLM client.

package chatpod

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrNoMatch         = errors.New("no matching knowledge found")
	ErrTurnNotRecorded = errors.New("conversation turn was not recorded")
	ErrMissingConfig   = errors.New("missing required configuration")
)

// CompletionError is returned when the remote completion call fails. The caller decides
// whether the process should keep going; the command line exits on it.
type CompletionError struct {
	Model string
	Err   error
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("completion with model %s failed: %v", e.Model, e.Err)
}

func (e *CompletionError) Unwrap() error {
	return e.Err
}
