// Package rgerr defines the error taxonomy shared by every ReGraph package.
//
// Every error the rewriting core returns is one *Error tagged with a Kind.
// Callers discriminate with Is/Kind rather than string matching, and reach
// a wrapped root cause through errors.Is/errors.As (via Unwrap).
package rgerr

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Kind discriminates the category of a ReGraph error, mirroring spec §7.
type Kind string

const (
	// KindAttributeSet covers lattice operations on incompatible variants,
	// malformed regexes, and undefined complements.
	KindAttributeSet Kind = "ATTRIBUTE_SET_ERROR"
	// KindGraph covers missing/duplicate nodes and edges, relabel collisions.
	KindGraph Kind = "GRAPH_ERROR"
	// KindHomomorphism covers totality, edge, and attribute preservation violations.
	KindHomomorphism Kind = "HOMOMORPHISM_ERROR"
	// KindRule covers invalid rule injections.
	KindRule Kind = "RULE_ERROR"
	// KindRewriting covers invalid matches and attribute incompatibilities during SqPO.
	KindRewriting Kind = "REWRITING_ERROR"
	// KindHierarchy covers cycles, commutativity violations, missing graphs/typings.
	KindHierarchy Kind = "HIERARCHY_ERROR"
	// KindAudit covers invalid branch/commit ids and unresolvable merges.
	KindAudit Kind = "AUDIT_ERROR"
)

// Error is the concrete error type returned by every ReGraph package.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]interface{}
	Cause   error
}

// New creates an Error of the given kind with no details yet attached.
func New(kind Kind, message string) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf is New with fmt.Sprintf-style formatting.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return New(kind, fmt.Sprintf(format, args...))
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause to errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithCause stores an underlying error in the Cause field, wrapped with a
// github.com/pkg/errors stack trace; *Error itself has no Cause() method, so
// the original error is reached through Unwrap or pkg/errors.Cause(e.Cause).
func (e *Error) WithCause(cause error) *Error {
	if cause != nil {
		e.Cause = pkgerrors.WithStack(cause)
	}
	return e
}

// WithDetail attaches one piece of structured context (e.g. "node", "typing").
func (e *Error) WithDetail(key string, value interface{}) *Error {
	e.Details[key] = value
	return e
}

// WithDetails merges several pieces of structured context at once.
func (e *Error) WithDetails(details map[string]interface{}) *Error {
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// Is reports whether target is an *Error of the same Kind, so callers can
// write errors.Is(err, rgerr.New(rgerr.KindGraph, "")) — only Kind is compared.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// IsKind reports whether err is a ReGraph *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

func AttributeSet(format string, args ...interface{}) *Error {
	return Newf(KindAttributeSet, format, args...)
}

func Graph(format string, args ...interface{}) *Error {
	return Newf(KindGraph, format, args...)
}

func Homomorphism(format string, args ...interface{}) *Error {
	return Newf(KindHomomorphism, format, args...)
}

func Rule(format string, args ...interface{}) *Error {
	return Newf(KindRule, format, args...)
}

func Rewriting(format string, args ...interface{}) *Error {
	return Newf(KindRewriting, format, args...)
}

func Hierarchy(format string, args ...interface{}) *Error {
	return Newf(KindHierarchy, format, args...)
}

func Audit(format string, args ...interface{}) *Error {
	return Newf(KindAudit, format, args...)
}
