package core

// error_messages.go maps ingestion failures to user-friendly messages with
// codes for support reference. Users quote the code; support looks it up here.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large        (category file_too_large)
//	FILE002 - Not a CSV file        (category invalid_extension)
//	FILE003 - No file selected      (select with empty path)
//	FILE004 - File cannot be read   (any other FileSelectionError)
//
// # CSV Errors (CSV001-CSV099)
//
//	CSV001 - Empty file             (message "empty file")
//	CSV002 - Wrong header           (header column mismatch)
//	CSV003 - Malformed CSV          (any other ParseError)
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Disallowed characters  (category disallowed_characters)
//	VAL002 - Value too long         (category too_long)
//	VAL003 - Invalid age            (category invalid_age)
//	VAL004 - Wrong field count      (category field_count)
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate value         (category unique_violation)
//	DB002 - Constraint violated     (check/not-null/foreign key violations)
//	DB003 - Value too long for column (category string_data_right_truncation)
//	DB004 - Connection failed       (category connection)
//	DB005 - Timeout                 (category timeout)
//	DB006 - Cancelled               (category cancelled)
//	DB007 - Row count mismatch      (category row_count_mismatch)
//	DB008 - Database error          (any other StoreError)
//
// # Pool Errors (POOL001-POOL099)
//
//	POOL001 - No connection available (PoolExhaustedError)
//
// # Default Error (ERR000)
//
// Untyped errors fall back to case-insensitive substring patterns, then to
// ERR000. Support staff should check the logs for the technical error.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened (user-friendly)
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

var (
	msgFileTooLarge = UserMessage{"File exceeds the maximum size limit", "Split the file into smaller files", "FILE001"}
	msgNotCSV       = UserMessage{"Only CSV files are allowed", "Select a file with the .csv extension", "FILE002"}
	msgNoFile       = UserMessage{"No file was selected", "Please select a CSV file to upload", "FILE003"}
	msgFileRead     = UserMessage{"The file could not be read", "Check that the file exists and is readable", "FILE004"}

	msgEmptyFile = UserMessage{"The uploaded file is empty", "Upload a CSV file with a header and data rows", "CSV001"}
	msgBadHeader = UserMessage{"The CSV header is not name,email,age", "Use exactly the columns name, email, age", "CSV002"}
	msgBadCSV    = UserMessage{"The file is not a valid CSV", "Ensure the file is comma-separated with consistent columns", "CSV003"}

	msgBadChars   = UserMessage{"The file contains invalid or unsafe characters", "Use only letters, digits, spaces and , . @ _ -", "VAL001"}
	msgTooLong    = UserMessage{"A name or email is too long", "Keep names and emails under 100 characters", "VAL002"}
	msgBadAge     = UserMessage{"An age value is invalid", "Use whole numbers between 0 and 150", "VAL003"}
	msgFieldCount = UserMessage{"A row has the wrong number of fields", "Every row needs a name, email and age", "VAL004"}

	msgDuplicate   = UserMessage{"A record with this value already exists", "Check for duplicate entries in your CSV", "DB001"}
	msgConstraint  = UserMessage{"A record violates a database constraint", "Check the file for missing or invalid values", "DB002"}
	msgColumnWidth = UserMessage{"A value is too long for the database", "Shorten the value and try again", "DB003"}
	msgConnection  = UserMessage{"Unable to connect to database", "Please try again in a few moments", "DB004"}
	msgTimeout     = UserMessage{"Operation timed out", "Try uploading a smaller file or try again later", "DB005"}
	msgCancelled   = UserMessage{"The upload was cancelled", "Start a new upload when ready", "DB006"}
	msgRowMismatch = UserMessage{"The database reported an unexpected row count", "Nothing was saved. Please try again", "DB007"}
	msgStore       = UserMessage{"The database rejected the upload", "Nothing was saved. Please try again or contact support", "DB008"}

	msgPoolBusy = UserMessage{"The system is busy", "Please wait a moment and try again", "POOL001"}
)

// categoryMessages maps typed error categories to user messages.
var categoryMessages = map[string]UserMessage{
	"file_too_large":               msgFileTooLarge,
	"invalid_extension":            msgNotCSV,
	"disallowed_characters":        msgBadChars,
	"too_long":                     msgTooLong,
	"invalid_age":                  msgBadAge,
	"field_count":                  msgFieldCount,
	"unique_violation":             msgDuplicate,
	"check_violation":              msgConstraint,
	"not_null_violation":           msgConstraint,
	"foreign_key_violation":        msgConstraint,
	"string_data_right_truncation": msgColumnWidth,
	"connection":                   msgConnection,
	"timeout":                      msgTimeout,
	"cancelled":                    msgCancelled,
	"row_count_mismatch":           msgRowMismatch,
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns covers untyped errors. The first match wins, so more specific
// patterns come before general ones.
var errorPatterns = []errorPattern{
	{"duplicate key", msgDuplicate},
	{"violates unique", msgDuplicate},
	{"violates check constraint", msgConstraint},
	{"violates not-null", msgConstraint},
	{"value too long", msgColumnWidth},
	{"connection refused", msgConnection},
	{"connection reset", msgConnection},
	{"context canceled", msgCancelled},
	{"context deadline exceeded", msgTimeout},
	{"timeout", msgTimeout},
	{"file too large", msgFileTooLarge},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts an error to a user-friendly message.
// Typed *Error values are mapped by category, then by kind. Other errors are
// matched against known patterns, falling back to ERR000.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var e *Error
	if errors.As(err, &e) {
		return mapTyped(e)
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

func mapTyped(e *Error) UserMessage {
	if e.Kind == KindPoolExhausted {
		if e.Category == "cancelled" {
			return msgCancelled
		}
		return msgPoolBusy
	}
	if msg, ok := categoryMessages[e.Category]; ok {
		return msg
	}

	switch e.Kind {
	case KindFileSelection:
		if e.Op == "select" {
			return msgNoFile
		}
		return msgFileRead
	case KindParse:
		switch {
		case e.Message == "empty file":
			return msgEmptyFile
		case strings.HasPrefix(e.Message, "header") || strings.HasPrefix(e.Message, "column"):
			return msgBadHeader
		}
		return msgBadCSV
	case KindValidation:
		return msgBadChars
	case KindStore:
		return msgStore
	}
	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}
