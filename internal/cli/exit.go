package cli

import (
	"errors"

	"github.com/sdejongh/doccompare/pkg/models"
)

// Exit codes
const (
	ExitOK          = 0
	ExitDifferences = 1
	ExitFailure     = 2
	ExitAuth        = 3
)

// ErrDifferences signals a successful comparison that found differences
var ErrDifferences = errors.New("documents differ")

// ExitCode maps a command error to the process exit code
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrDifferences):
		return ExitDifferences
	case errors.Is(err, models.ErrUnauthenticated):
		return ExitAuth
	default:
		return ExitFailure
	}
}

// reportedError is an error the formatter has already shown
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// IsReported reports whether err needs no further printing
func IsReported(err error) bool {
	var r *reportedError
	return errors.As(err, &r) || errors.Is(err, ErrDifferences)
}
