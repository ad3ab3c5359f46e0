package cli

import (
	"errors"

	"github.com/agentflare-ai/jsondelta"
)

type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }

func (e usageError) Unwrap() error { return e.err }

// ExitCodeForError maps a command error to the process exit code.
func ExitCodeForError(err error) int {
	if err == nil {
		return 0
	}

	var usage usageError
	if errors.As(err, &usage) {
		return 2
	}

	var patchErr *jsondelta.Error
	if !errors.As(err, &patchErr) {
		return 1
	}
	if patchErr.Kind == jsondelta.TestFailed {
		return 3
	}
	return 4
}
