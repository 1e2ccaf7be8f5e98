package parser

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a parse failure
type ErrorKind string

const (
	KindFileNotFound       ErrorKind = "file_not_found"
	KindInvalidExtension   ErrorKind = "invalid_extension"
	KindUnknownTimezone    ErrorKind = "unknown_timezone"
	KindMalformedDocument  ErrorKind = "malformed_document"
	KindMissingElement     ErrorKind = "missing_element"
	KindMissingField       ErrorKind = "missing_field"
	KindMalformedHeader    ErrorKind = "malformed_header"
	KindMalformedTimestamp ErrorKind = "malformed_timestamp"
	KindMalformedRow       ErrorKind = "malformed_row"
	KindMalformedValue     ErrorKind = "malformed_value"
)

// noRow marks errors that are not tied to a row or track point.
const noRow = -1

// ParseError is returned by every parser in this package. A parse either
// succeeds completely or fails with one ParseError and no records.
type ParseError struct {
	Kind     ErrorKind
	Path     string
	Row      int    // CSV row index or GPX/FIT point index, -1 if not applicable
	Field    string // field or element name, if any
	Expected string
	Actual   string
	Message  string
	Err      error
}

func (e *ParseError) Error() string {
	if e == nil {
		return "unknown parse error"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s]", e.Kind)
	if e.Path != "" {
		fmt.Fprintf(&b, " %s", e.Path)
	}
	if e.Row >= 0 {
		fmt.Fprintf(&b, " row %d", e.Row)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, " field %q", e.Field)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	if e.Expected != "" || e.Actual != "" {
		fmt.Fprintf(&b, " (expected %q, got %q)", e.Expected, e.Actual)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// KindOf returns the kind of the first ParseError in err's chain, or "" if
// there is none.
func KindOf(err error) ErrorKind {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// IsKind reports whether err carries a ParseError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

func newError(kind ErrorKind, path, message string) *ParseError {
	return &ParseError{Kind: kind, Path: path, Row: noRow, Message: message}
}

func rowError(path string, row int, field string, err error) *ParseError {
	return &ParseError{
		Kind:  KindMalformedRow,
		Path:  path,
		Row:   row,
		Field: field,
		Err:   err,
	}
}
