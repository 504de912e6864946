// Package validation provides the schema checks run at every pipeline stage
// boundary. Validators report SchemaMismatch errors, except the null check
// which reports an Imputation error.
package validation

import (
	"fmt"

	"github.com/gangfang/kaggle-scripts/internal/errors"
	"github.com/gangfang/kaggle-scripts/internal/series"
)

// Validator interface for input validation
type Validator interface {
	Validate() error
}

// ColumnProvider interface for types that provide column information
type ColumnProvider interface {
	HasColumn(name string) bool
	Columns() []string
	Len() int
	Width() int
}

// SchemaProvider adds per-column kind and null information
type SchemaProvider interface {
	ColumnProvider
	ColumnKind(name string) (series.Kind, bool)
	NullCount(name string) int
}

// ColumnValidator validates column existence
type ColumnValidator struct {
	df      ColumnProvider
	columns []string
	op      string
}

// NewColumnValidator creates a validator for column operations
func NewColumnValidator(df ColumnProvider, op string, columns ...string) *ColumnValidator {
	return &ColumnValidator{
		df:      df,
		columns: columns,
		op:      op,
	}
}

// Validate checks if all columns exist in the table
func (v *ColumnValidator) Validate() error {
	for _, column := range v.columns {
		if !v.df.HasColumn(column) {
			return errors.NewColumnNotFoundError(v.op, column)
		}
	}
	return nil
}

// KindValidator validates that columns exist and carry one of the allowed kinds
type KindValidator struct {
	df      SchemaProvider
	columns []string
	allowed []series.Kind
	op      string
}

// NewKindValidator creates a validator for column kinds
func NewKindValidator(df SchemaProvider, op string, allowed []series.Kind, columns ...string) *KindValidator {
	return &KindValidator{
		df:      df,
		columns: columns,
		allowed: allowed,
		op:      op,
	}
}

// Validate checks every column's kind
func (v *KindValidator) Validate() error {
	for _, column := range v.columns {
		kind, ok := v.df.ColumnKind(column)
		if !ok {
			return errors.NewColumnNotFoundError(v.op, column)
		}
		if !containsKind(v.allowed, kind) {
			return errors.NewSchemaMismatchError(v.op, column,
				fmt.Sprintf("expected %s column, got %s", kindList(v.allowed), kind))
		}
	}
	return nil
}

// LengthValidator validates length consistency
type LengthValidator struct {
	expected int
	actual   int
	op       string
	context  string
}

// NewLengthValidator creates a validator for length consistency
func NewLengthValidator(expected, actual int, op, context string) *LengthValidator {
	return &LengthValidator{
		expected: expected,
		actual:   actual,
		op:       op,
		context:  context,
	}
}

// Validate checks if lengths match
func (v *LengthValidator) Validate() error {
	if v.expected != v.actual {
		message := fmt.Sprintf("%s: expected length %d, got %d", v.context, v.expected, v.actual)
		return errors.NewSchemaMismatchError(v.op, "", message)
	}
	return nil
}

// NullFreeValidator validates that columns hold no null cells
type NullFreeValidator struct {
	df      SchemaProvider
	columns []string
	op      string
}

// NewNullFreeValidator creates a validator for the imputation postcondition
func NewNullFreeValidator(df SchemaProvider, op string, columns ...string) *NullFreeValidator {
	return &NullFreeValidator{
		df:      df,
		columns: columns,
		op:      op,
	}
}

// Validate checks that every column exists and has no nulls
func (v *NullFreeValidator) Validate() error {
	for _, column := range v.columns {
		if !v.df.HasColumn(column) {
			return errors.NewColumnNotFoundError(v.op, column)
		}
		if n := v.df.NullCount(column); n > 0 {
			return errors.NewImputationError(v.op, column, fmt.Sprintf("%d null values remain", n))
		}
	}
	return nil
}

// EmptyTableValidator validates operations that need at least one row
type EmptyTableValidator struct {
	df ColumnProvider
	op string
}

// NewEmptyTableValidator creates a validator for empty table checks
func NewEmptyTableValidator(df ColumnProvider, op string) *EmptyTableValidator {
	return &EmptyTableValidator{
		df: df,
		op: op,
	}
}

// Validate checks if the table is empty when the operation requires data
func (v *EmptyTableValidator) Validate() error {
	if v.df.Len() == 0 {
		return errors.NewSchemaMismatchError(v.op, "", "operation not supported on empty table")
	}
	return nil
}

// CompoundValidator combines multiple validators
type CompoundValidator struct {
	validators []Validator
}

// NewCompoundValidator creates a validator that checks multiple conditions
func NewCompoundValidator(validators ...Validator) *CompoundValidator {
	return &CompoundValidator{
		validators: validators,
	}
}

// Validate runs all validators and returns the first error encountered
func (v *CompoundValidator) Validate() error {
	for _, validator := range v.validators {
		if err := validator.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Convenience validation functions

// ValidateColumns is a convenience function for column validation
func ValidateColumns(df ColumnProvider, op string, columns ...string) error {
	return NewColumnValidator(df, op, columns...).Validate()
}

// ValidateNumeric checks that the columns exist and are numeric
func ValidateNumeric(df SchemaProvider, op string, columns ...string) error {
	return NewKindValidator(df, op, []series.Kind{series.Numeric}, columns...).Validate()
}

// ValidateCategorical checks that the columns exist and are categorical
func ValidateCategorical(df SchemaProvider, op string, columns ...string) error {
	return NewKindValidator(df, op, []series.Kind{series.Categorical}, columns...).Validate()
}

// ValidateLength is a convenience function for length validation
func ValidateLength(expected, actual int, op, context string) error {
	return NewLengthValidator(expected, actual, op, context).Validate()
}

// ValidateNoNulls is a convenience function for the null check
func ValidateNoNulls(df SchemaProvider, op string, columns ...string) error {
	return NewNullFreeValidator(df, op, columns...).Validate()
}

// ValidateNotEmpty is a convenience function for empty table validation
func ValidateNotEmpty(df ColumnProvider, op string) error {
	return NewEmptyTableValidator(df, op).Validate()
}

func containsKind(kinds []series.Kind, k series.Kind) bool {
	for _, kind := range kinds {
		if kind == k {
			return true
		}
	}
	return false
}

func kindList(kinds []series.Kind) string {
	if len(kinds) == 1 {
		return kinds[0].String()
	}
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return fmt.Sprintf("%v", names)
}
