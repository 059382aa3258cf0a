package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/JonMunkholm/UserUpload/internal/core"
)

func TestExitCodeForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil error", nil, ExitSuccess},
		{"exit error", &ExitError{Code: ExitValidationFailed}, ExitValidationFailed},
		{"wrapped exit error", fmt.Errorf("run: %w", &ExitError{Code: ExitRejectedFile}), ExitRejectedFile},
		{"invalid config", fmt.Errorf("%w: DB_USER is required", ErrInvalidConfig), ExitConfigError},
		{"connection", &core.Error{Kind: core.KindStore, Category: "connection"}, ExitConnectionError},
		{"store", &core.Error{Kind: core.KindStore, Category: "unique_violation"}, ExitStoreFailed},
		{"pool exhausted", &core.Error{Kind: core.KindPoolExhausted, Category: "timeout"}, ExitStoreFailed},
		{"unknown flag", errors.New("unknown flag: --foo"), ExitUsageError},
		{"accepts args", errors.New("accepts 1 arg(s), received 0"), ExitUsageError},
		{"unknown command", errors.New(`unknown command "frobnicate" for "uploader"`), ExitUsageError},
		{"general error", errors.New("something went wrong"), ExitGeneralError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCodeForError(tt.err); got != tt.want {
				t.Errorf("ExitCodeForError(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestOutcomeExitCode(t *testing.T) {
	tests := map[core.Outcome]int{
		core.OutcomeSuccess:          ExitSuccess,
		core.OutcomeRejectedFile:     ExitRejectedFile,
		core.OutcomeValidationFailed: ExitValidationFailed,
		core.OutcomeStoreFailed:      ExitStoreFailed,
		core.Outcome("other"):        ExitGeneralError,
	}
	for outcome, want := range tests {
		if got := OutcomeExitCode(outcome); got != want {
			t.Errorf("OutcomeExitCode(%q) = %d, want %d", outcome, got, want)
		}
	}
}

func TestExitError_Unwrap(t *testing.T) {
	inner := &core.Error{Kind: core.KindValidation, Message: "bad"}
	err := &ExitError{Code: ExitValidationFailed, Err: inner}

	if !errors.Is(err, core.ErrValidation) {
		t.Error("ExitError should unwrap to the ingestion error")
	}
	if err.Error() != inner.Error() {
		t.Errorf("Error() = %q, want %q", err.Error(), inner.Error())
	}
	if (&ExitError{Code: 3}).Error() != "exit status 3" {
		t.Error("ExitError without cause should describe the code")
	}
}
