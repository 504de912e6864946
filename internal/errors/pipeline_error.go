// Package errors provides the error taxonomy shared by every pipeline stage.
// Each failure is a PipelineError carrying its Kind, the operation that
// failed, the column involved (if any) and the underlying cause.
package errors

import (
	"fmt"
)

// Kind classifies pipeline failures. Every kind is fatal to a run.
type Kind int

const (
	// KindDataAccess covers missing, unreadable or malformed input files.
	KindDataAccess Kind = iota + 1
	// KindSchemaMismatch covers missing columns, wrong column kinds and
	// diverging training/prediction column sets.
	KindSchemaMismatch
	// KindImputation is raised when a fill policy has no value to use.
	KindImputation
	// KindModelFit covers degenerate training data.
	KindModelFit
	// KindConfig covers invalid configuration or profiles.
	KindConfig
)

// String returns the name used in error messages.
func (k Kind) String() string {
	switch k {
	case KindDataAccess:
		return "DataAccessError"
	case KindSchemaMismatch:
		return "SchemaMismatchError"
	case KindImputation:
		return "ImputationError"
	case KindModelFit:
		return "ModelFitError"
	case KindConfig:
		return "ConfigError"
	default:
		return "UnknownError"
	}
}

// PipelineError represents a failure in one pipeline operation.
type PipelineError struct {
	Kind    Kind   // Failure class
	Op      string // Operation name (e.g., "Merge", "Impute", "Fit")
	Column  string // Column name if applicable
	Message string // Human-readable error description
	Cause   error  // Underlying error cause
}

// Error implements the error interface
func (e *PipelineError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.Column != "" {
		return fmt.Sprintf("%s: %s failed on column '%s': %s", e.Kind, e.Op, e.Column, msg)
	}
	return fmt.Sprintf("%s: %s failed: %s", e.Kind, e.Op, msg)
}

// Unwrap returns the underlying cause for error wrapping support
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a PipelineError of the same kind. Sentinels
// such as ErrSchemaMismatch only set Kind, so errors.Is(err, ErrSchemaMismatch)
// matches any schema failure; fully populated targets must match exactly.
func (e *PipelineError) Is(target error) bool {
	pe, ok := target.(*PipelineError)
	if !ok || pe.Kind != e.Kind {
		return false
	}
	if pe.Op == "" && pe.Column == "" && pe.Message == "" {
		return true
	}
	return e.Op == pe.Op && e.Column == pe.Column && e.Message == pe.Message
}

// Sentinels for errors.Is checks by kind.
var (
	ErrDataAccess     = &PipelineError{Kind: KindDataAccess}
	ErrSchemaMismatch = &PipelineError{Kind: KindSchemaMismatch}
	ErrImputation     = &PipelineError{Kind: KindImputation}
	ErrModelFit       = &PipelineError{Kind: KindModelFit}
	ErrConfig         = &PipelineError{Kind: KindConfig}
)

// NewDataAccessError creates an error for unreadable or malformed input.
func NewDataAccessError(op, message string, cause error) *PipelineError {
	return &PipelineError{
		Kind:    KindDataAccess,
		Op:      op,
		Message: message,
		Cause:   cause,
	}
}

// NewColumnNotFoundError creates an error for operations on non-existent columns
func NewColumnNotFoundError(op, column string) *PipelineError {
	return &PipelineError{
		Kind:    KindSchemaMismatch,
		Op:      op,
		Column:  column,
		Message: "column does not exist",
	}
}

// NewSchemaMismatchError creates an error for incompatible table schemas.
func NewSchemaMismatchError(op, column, message string) *PipelineError {
	return &PipelineError{
		Kind:    KindSchemaMismatch,
		Op:      op,
		Column:  column,
		Message: message,
	}
}

// NewImputationError creates an error for a fill policy without a usable value.
func NewImputationError(op, column, message string) *PipelineError {
	return &PipelineError{
		Kind:    KindImputation,
		Op:      op,
		Column:  column,
		Message: message,
	}
}

// NewModelFitError creates an error for degenerate training data.
func NewModelFitError(op, message string, cause error) *PipelineError {
	return &PipelineError{
		Kind:    KindModelFit,
		Op:      op,
		Message: message,
		Cause:   cause,
	}
}

// NewConfigError creates an error for invalid configuration.
func NewConfigError(op, message string, cause error) *PipelineError {
	return &PipelineError{
		Kind:    KindConfig,
		Op:      op,
		Message: message,
		Cause:   cause,
	}
}
