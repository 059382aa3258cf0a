package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "file too large",
			err:         &Error{Kind: KindFileSelection, Op: "archive", Category: "file_too_large", Message: "file too large"},
			wantCode:    "FILE001",
			wantMessage: "File exceeds the maximum size limit",
		},
		{
			name:     "wrong extension",
			err:      &Error{Kind: KindFileSelection, Op: "select", Category: "invalid_extension"},
			wantCode: "FILE002",
		},
		{
			name:     "no file selected",
			err:      fileError("select", "no file selected", nil),
			wantCode: "FILE003",
		},
		{
			name:     "unreadable file",
			err:      fileError("archive", "cannot open source file", errors.New("permission denied")),
			wantCode: "FILE004",
		},
		{
			name:     "empty file",
			err:      parseError("empty file", 0, nil),
			wantCode: "CSV001",
		},
		{
			name:     "header column count",
			err:      parseError("header has 2 columns, expected name,email,age", 0, nil),
			wantCode: "CSV002",
		},
		{
			name:     "header column name",
			err:      parseError(`column 2 is "mail", expected "email"`, 0, nil),
			wantCode: "CSV002",
		},
		{
			name:     "malformed csv",
			err:      parseError("invalid csv at line 3", 0, errors.New(`bare " in non-quoted-field`)),
			wantCode: "CSV003",
		},
		{
			name:        "disallowed characters",
			err:         &Error{Kind: KindValidation, Category: "disallowed_characters"},
			wantCode:    "VAL001",
			wantMessage: "The file contains invalid or unsafe characters",
		},
		{
			name:     "too long",
			err:      &Error{Kind: KindValidation, Category: "too_long"},
			wantCode: "VAL002",
		},
		{
			name:     "invalid age",
			err:      &Error{Kind: KindValidation, Category: "invalid_age"},
			wantCode: "VAL003",
		},
		{
			name:     "field count",
			err:      &Error{Kind: KindValidation, Category: "field_count"},
			wantCode: "VAL004",
		},
		{
			name:        "typed unique violation",
			err:         &Error{Kind: KindStore, Category: "unique_violation"},
			wantCode:    "DB001",
			wantMessage: "A record with this value already exists",
		},
		{
			name:     "check violation",
			err:      &Error{Kind: KindStore, Category: "check_violation"},
			wantCode: "DB002",
		},
		{
			name:     "column width",
			err:      &Error{Kind: KindStore, Category: "string_data_right_truncation"},
			wantCode: "DB003",
		},
		{
			name:        "connection",
			err:         &Error{Kind: KindStore, Category: "connection"},
			wantCode:    "DB004",
			wantMessage: "Unable to connect to database",
		},
		{
			name:     "row count mismatch",
			err:      &Error{Kind: KindStore, Category: "row_count_mismatch"},
			wantCode: "DB007",
		},
		{
			name:     "other store error",
			err:      &Error{Kind: KindStore, Category: "unknown"},
			wantCode: "DB008",
		},
		{
			name:        "pool exhausted",
			err:         &Error{Kind: KindPoolExhausted, Op: "lease", Category: "timeout"},
			wantCode:    "POOL001",
			wantMessage: "The system is busy",
		},
		{
			name:     "pool wait cancelled",
			err:      &Error{Kind: KindPoolExhausted, Op: "lease", Category: "cancelled", Err: context.Canceled},
			wantCode: "DB006",
		},
		{
			name:     "wrapped typed error",
			err:      fmt.Errorf("ingest: %w", &Error{Kind: KindValidation, Category: "invalid_age"}),
			wantCode: "VAL003",
		},
		{
			name:        "untyped duplicate key",
			err:         errors.New("ERROR: duplicate key value violates unique constraint"),
			wantCode:    "DB001",
			wantMessage: "A record with this value already exists",
		},
		{
			name:     "untyped connection refused",
			err:      errors.New("dial tcp: connection refused"),
			wantCode: "DB004",
		},
		{
			name:     "untyped deadline",
			err:      context.DeadlineExceeded,
			wantCode: "DB005",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("something completely unexpected"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if tt.wantMessage != "" && got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
			if tt.err != nil && got.Action == "" {
				t.Error("MapError() should always suggest an action")
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	err := &Error{Kind: KindValidation, Category: "disallowed_characters"}
	got := FormatUserError(err)
	want := "The file contains invalid or unsafe characters (Code: VAL001). Use only letters, digits, spaces and , . @ _ -"
	if got != want {
		t.Errorf("FormatUserError() = %q, want %q", got, want)
	}

	if FormatUserError(nil) != "" {
		t.Error("FormatUserError(nil) should be empty")
	}
}

func TestError_Is(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &Error{Kind: KindStore, Op: "insert", Category: "unique_violation"})

	if !errors.Is(err, ErrStore) {
		t.Error("errors.Is(err, ErrStore) = false")
	}
	if errors.Is(err, ErrValidation) {
		t.Error("errors.Is(err, ErrValidation) = true for a store error")
	}
	if KindOf(err) != KindStore {
		t.Errorf("KindOf() = %v, want %v", KindOf(err), KindStore)
	}
	if KindOf(errors.New("plain")) != KindUnknown {
		t.Error("KindOf() of an untyped error should be KindUnknown")
	}

	// Two concrete errors of the same kind are not equal to each other.
	other := &Error{Kind: KindStore, Op: "commit"}
	if errors.Is(err, other) {
		t.Error("errors.Is should only match sentinels")
	}
}

func TestError_Error(t *testing.T) {
	cause := errors.New("underlying")
	err := &Error{
		Kind:     KindValidation,
		Op:       "validate",
		Category: "disallowed_characters",
		Message:  `contains disallowed character ";"`,
		Row:      2,
		Column:   "email",
		Err:      cause,
	}

	want := `ValidationError (validate): row 2: email: contains disallowed character ";" [disallowed_characters]: underlying`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, cause) {
		t.Error("Error should unwrap to its cause")
	}
}
