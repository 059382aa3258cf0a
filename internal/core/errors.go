package core

// errors.go defines the failure taxonomy shared by every ingestion stage.
//
// Each component reports failures as a *Error carrying a Kind. Callers test
// for a kind with errors.Is against the per-kind sentinels, or extract it
// with KindOf:
//
//	if errors.Is(err, core.ErrValidation) { ... }
//	switch core.KindOf(err) { ... }

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an ingestion failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindFileSelection
	KindParse
	KindValidation
	KindStore
	KindPoolExhausted
)

func (k Kind) String() string {
	switch k {
	case KindFileSelection:
		return "FileSelectionError"
	case KindParse:
		return "ParseError"
	case KindValidation:
		return "ValidationError"
	case KindStore:
		return "StoreError"
	case KindPoolExhausted:
		return "PoolExhaustedError"
	default:
		return "UnknownError"
	}
}

// Error is a typed ingestion failure.
type Error struct {
	Kind     Kind
	Op       string // Operation that failed: "archive", "insert", "lease", ...
	Category string // Finer classification, e.g. "unique_violation"
	Message  string // Human-readable description
	Row      int    // 1-based data row, 0 if not row-specific
	Column   string // Column name, empty if not column-specific
	Err      error  // Underlying cause, may be nil
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Op != "" {
		b.WriteString(" (")
		b.WriteString(e.Op)
		b.WriteString(")")
	}
	b.WriteString(": ")
	if e.Row > 0 {
		fmt.Fprintf(&b, "row %d: ", e.Row)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, "%s: ", e.Column)
	}
	b.WriteString(e.Message)
	if e.Category != "" {
		fmt.Fprintf(&b, " [%s]", e.Category)
	}
	if e.Err != nil && e.Message != e.Err.Error() {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || !t.sentinel() {
		return false
	}
	return t.Kind == e.Kind
}

func (e *Error) sentinel() bool {
	return e.Op == "" && e.Category == "" && e.Message == "" && e.Err == nil && e.Row == 0 && e.Column == ""
}

// Sentinels for errors.Is.
var (
	ErrFileSelection = &Error{Kind: KindFileSelection}
	ErrParse         = &Error{Kind: KindParse}
	ErrValidation    = &Error{Kind: KindValidation}
	ErrStore         = &Error{Kind: KindStore}
	ErrPoolExhausted = &Error{Kind: KindPoolExhausted}
)

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// fileError builds a file-selection failure.
func fileError(op, msg string, cause error) *Error {
	return &Error{Kind: KindFileSelection, Op: op, Message: msg, Err: cause}
}

// parseError builds a parse failure.
func parseError(msg string, row int, cause error) *Error {
	return &Error{Kind: KindParse, Op: "parse", Message: msg, Row: row, Err: cause}
}
