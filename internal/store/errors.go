package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
	"modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"
)

// ErrorCode categorizes store failures.
type ErrorCode string

const (
	// CodeConflict indicates a uniqueness constraint was violated
	// (node label or triple tuple).
	CodeConflict ErrorCode = "CONFLICT"

	// CodeIntegrity indicates a reference to a node that does not exist,
	// or an attempt to delete a node that is still referenced.
	CodeIntegrity ErrorCode = "INTEGRITY_VIOLATION"

	// CodeUnavailable indicates the backing engine could not be opened,
	// configured or used.
	CodeUnavailable ErrorCode = "STORAGE_UNAVAILABLE"

	// CodeInvalid indicates the caller passed unusable input.
	CodeInvalid ErrorCode = "INVALID_ARGUMENT"

	// CodeCanceled indicates the caller's context ended before the
	// operation finished. The context error stays in the chain.
	CodeCanceled ErrorCode = "CANCELED"
)

// Error is the typed failure returned by the store and its consumers.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Op names the operation that failed ("create node", "open", ...).
	Op string

	// Message is a human-readable description.
	Message string

	// Missing lists node ids that a rejected write referenced but that
	// do not exist. Only set for CodeIntegrity.
	Missing []int64

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	if e.Op != "" {
		b.WriteString(": ")
		b.WriteString(e.Op)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, " (missing node ids %v)", e.Missing)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func hasCode(err error, code ErrorCode) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

// IsConflict returns true if err is a uniqueness violation.
func IsConflict(err error) bool {
	return hasCode(err, CodeConflict)
}

// IsIntegrityViolation returns true if err is a referential-integrity violation.
func IsIntegrityViolation(err error) bool {
	return hasCode(err, CodeIntegrity)
}

// IsUnavailable returns true if the backing engine failed.
func IsUnavailable(err error) bool {
	return hasCode(err, CodeUnavailable)
}

// IsInvalid returns true if err reports unusable caller input.
func IsInvalid(err error) bool {
	return hasCode(err, CodeInvalid)
}

// IsCanceled returns true if the operation was abandoned because its
// context was canceled or timed out.
func IsCanceled(err error) bool {
	return hasCode(err, CodeCanceled)
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// NewConflict creates a conflict error.
func NewConflict(op, message string, err error) *Error {
	return &Error{Code: CodeConflict, Op: op, Message: message, Err: err}
}

// NewIntegrity creates an integrity error listing the missing node ids.
func NewIntegrity(op, message string, missing []int64, err error) *Error {
	return &Error{Code: CodeIntegrity, Op: op, Message: message, Missing: missing, Err: err}
}

// NewInvalid creates an invalid-argument error.
func NewInvalid(op, message string, err error) *Error {
	return &Error{Code: CodeInvalid, Op: op, Message: message, Err: err}
}

func unavailable(op, message string, err error) *Error {
	return &Error{Code: CodeUnavailable, Op: op, Message: message, Err: err}
}

type constraintKind int

const (
	constraintNone constraintKind = iota
	constraintUnique
	constraintForeignKey
)

// Classify maps an engine error onto the store taxonomy:
//   - unique / primary key violations become CodeConflict
//   - foreign key violations become CodeIntegrity
//   - context cancellation and deadlines become CodeCanceled
//   - every other engine failure becomes CodeUnavailable
//
// Errors that are already *Error pass through unchanged.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var se *Error
	if errors.As(err, &se) {
		return err
	}

	switch classifyConstraint(err) {
	case constraintUnique:
		return NewConflict(op, "uniqueness constraint violated", err)
	case constraintForeignKey:
		return NewIntegrity(op, "foreign key constraint violated", nil, err)
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{Code: CodeCanceled, Op: op, Message: "context done", Err: err}
	}

	return unavailable(op, "storage failure", err)
}

func classifyConstraint(err error) constraintKind {
	var cgoErr sqlite3.Error
	if errors.As(err, &cgoErr) {
		switch cgoErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return constraintUnique
		case sqlite3.ErrConstraintForeignKey:
			return constraintForeignKey
		}
	}

	var pureErr *sqlite.Error
	if errors.As(err, &pureErr) {
		switch pureErr.Code() {
		case sqlitelib.SQLITE_CONSTRAINT_UNIQUE, sqlitelib.SQLITE_CONSTRAINT_PRIMARYKEY:
			return constraintUnique
		case sqlitelib.SQLITE_CONSTRAINT_FOREIGNKEY:
			return constraintForeignKey
		}
	}

	// Both drivers carry SQLite's message; this catches errors that were
	// flattened to strings on the way out.
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return constraintUnique
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return constraintForeignKey
	}
	return constraintNone
}
