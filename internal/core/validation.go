package core

// validation.go enforces the content policy on parsed rows before insertion.
//
// Validation happens at two levels:
//  1. Policy check: every trimmed field must match AllowedPattern in full
//  2. Column check: name/email length limits and an integer age range
//
// Validation is all-or-nothing per batch. The first failing field aborts the
// pass and no sanitized rows are returned.

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// AllowedPattern is the character allow-list applied to every field.
var AllowedPattern = regexp.MustCompile(`^[A-Za-z0-9,.\s@_-]+$`)

// Default column limits, matching the users table definition.
const (
	DefaultMaxFieldLength = 100
	DefaultMinAge         = 0
	DefaultMaxAge         = 150
)

// Validator checks raw rows against the content policy.
type Validator struct {
	pattern        *regexp.Regexp
	maxFieldLength int
	minAge         int
	maxAge         int
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithMaxFieldLength limits name and email to n characters. Zero disables the check.
func WithMaxFieldLength(n int) ValidatorOption {
	return func(v *Validator) {
		v.maxFieldLength = n
	}
}

// WithAgeRange sets the inclusive range accepted for age.
func WithAgeRange(min, max int) ValidatorOption {
	return func(v *Validator) {
		v.minAge = min
		v.maxAge = max
	}
}

// NewValidator creates a validator using AllowedPattern and the default column limits.
func NewValidator(opts ...ValidatorOption) *Validator {
	v := &Validator{
		pattern:        AllowedPattern,
		maxFieldLength: DefaultMaxFieldLength,
		minAge:         DefaultMinAge,
		maxAge:         DefaultMaxAge,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate checks every field of every row and returns the sanitized batch.
// On the first violation it returns a *Error of KindValidation and no rows.
func (v *Validator) Validate(rows []RawRecord) ([]SanitizedRecord, error) {
	out := make([]SanitizedRecord, 0, len(rows))

	for i, row := range rows {
		rowNum := i + 1

		if len(row) != len(Columns) {
			return nil, &Error{
				Kind:     KindValidation,
				Op:       "validate",
				Category: "field_count",
				Message:  fmt.Sprintf("expected %d fields, got %d", len(Columns), len(row)),
				Row:      rowNum,
			}
		}

		fields := make([]string, len(row))
		for j, cell := range row {
			cell = strings.TrimSpace(cell)
			if !v.pattern.MatchString(cell) {
				return nil, &Error{
					Kind:     KindValidation,
					Op:       "validate",
					Category: "disallowed_characters",
					Message:  describeViolation(cell),
					Row:      rowNum,
					Column:   Columns[j],
				}
			}
			fields[j] = cell
		}

		rec, err := v.buildRecord(fields, rowNum)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}

	return out, nil
}

// buildRecord applies the column-level checks to already-allowed fields.
func (v *Validator) buildRecord(fields []string, rowNum int) (SanitizedRecord, error) {
	name, email, ageRaw := fields[0], fields[1], fields[2]

	for j, val := range []string{name, email} {
		if v.maxFieldLength > 0 && utf8.RuneCountInString(val) > v.maxFieldLength {
			return SanitizedRecord{}, &Error{
				Kind:     KindValidation,
				Op:       "validate",
				Category: "too_long",
				Message:  fmt.Sprintf("value exceeds %d characters", v.maxFieldLength),
				Row:      rowNum,
				Column:   Columns[j],
			}
		}
	}

	age, err := strconv.ParseInt(ageRaw, 10, 32)
	if err != nil {
		return SanitizedRecord{}, &Error{
			Kind:     KindValidation,
			Op:       "validate",
			Category: "invalid_age",
			Message:  fmt.Sprintf("age %q is not a whole number", ageRaw),
			Row:      rowNum,
			Column:   "age",
		}
	}
	if int(age) < v.minAge || int(age) > v.maxAge {
		return SanitizedRecord{}, &Error{
			Kind:     KindValidation,
			Op:       "validate",
			Category: "invalid_age",
			Message:  fmt.Sprintf("age %d outside %d-%d", age, v.minAge, v.maxAge),
			Row:      rowNum,
			Column:   "age",
		}
	}

	return SanitizedRecord{Name: name, Email: email, Age: int32(age)}, nil
}

// describeViolation names the first disallowed rune without echoing the field.
func describeViolation(cell string) string {
	if cell == "" {
		return "empty value"
	}
	for _, r := range cell {
		if !AllowedPattern.MatchString(string(r)) {
			return fmt.Sprintf("contains disallowed character %q", r)
		}
	}
	return "contains disallowed characters"
}
