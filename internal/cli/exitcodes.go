package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/UserUpload/internal/core"
)

// Process exit codes.
const (
	ExitSuccess          = 0
	ExitGeneralError     = 1
	ExitRejectedFile     = 2
	ExitValidationFailed = 3
	ExitStoreFailed      = 4
	ExitConfigError      = 10
	ExitConnectionError  = 11
	ExitUsageError       = 64
	ExitPanic            = 70
)

// ErrInvalidConfig indicates configuration could not be loaded or validated.
var ErrInvalidConfig = errors.New("invalid configuration")

// ExitError carries an exit code for a failure that was already reported to the user.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// OutcomeExitCode maps an ingestion outcome to its exit code.
func OutcomeExitCode(o core.Outcome) int {
	switch o {
	case core.OutcomeSuccess:
		return ExitSuccess
	case core.OutcomeRejectedFile:
		return ExitRejectedFile
	case core.OutcomeValidationFailed:
		return ExitValidationFailed
	case core.OutcomeStoreFailed:
		return ExitStoreFailed
	}
	return ExitGeneralError
}

// usagePatterns are cobra's argument and flag errors.
var usagePatterns = []string{
	"unknown flag",
	"unknown shorthand flag",
	"unknown command",
	"accepts ",
	"requires at least",
	"required flag",
	"invalid argument",
}

// ExitCodeForError returns the exit code for an error returned by Execute.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if errors.Is(err, ErrInvalidConfig) {
		return ExitConfigError
	}

	var e *core.Error
	if errors.As(err, &e) {
		switch {
		case e.Category == "connection":
			return ExitConnectionError
		case e.Kind == core.KindStore || e.Kind == core.KindPoolExhausted:
			return ExitStoreFailed
		case e.Kind == core.KindValidation:
			return ExitValidationFailed
		case e.Kind == core.KindFileSelection || e.Kind == core.KindParse:
			return ExitRejectedFile
		}
	}

	msg := err.Error()
	for _, p := range usagePatterns {
		if strings.Contains(msg, p) {
			return ExitUsageError
		}
	}

	return ExitGeneralError
}
