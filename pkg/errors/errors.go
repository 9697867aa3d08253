// Package errors provides the error taxonomy shared by every oxypred
// package. Error types mirror the failure modes of an analysis run
// (unfitted estimators, shape mismatches, bad input values) and carry
// stack traces via cockroachdb/errors so the CLI can log them.
package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// NotFittedError is returned when Predict or Transform is called on an
// estimator whose Fit has not run yet.
type NotFittedError struct {
	EstimatorName string
	Method        string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("oxypred: %s: estimator is not fitted yet. Call Fit() before %s()", e.EstimatorName, e.Method)
}

// MarshalZerologObject adds structured error fields to a zerolog event.
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("estimator", e.EstimatorName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError creates a NotFittedError with a stack trace attached.
func NewNotFittedError(estimator, method string) error {
	err := &NotFittedError{EstimatorName: estimator, Method: method}
	return errors.WithStack(err)
}

// DimensionError is returned when input dimensions disagree with what an
// operation expects. Axis 0 is rows, axis 1 is columns/features.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int
}

func (e *DimensionError) Error() string {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("oxypred: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// MarshalZerologObject adds structured error fields to a zerolog event.
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("type", "DimensionError")
}

// NewDimensionError creates a DimensionError with a stack trace attached.
func NewDimensionError(op string, expected, got, axis int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
	return errors.WithStack(err)
}

// ValueError is returned when an argument value is invalid for the
// operation, such as an empty vector passed to a metric.
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("oxypred: %s: %s", e.Op, e.Message)
}

// NewValueError creates a ValueError with a stack trace attached.
func NewValueError(op, message string) error {
	err := &ValueError{Op: op, Message: message}
	return errors.WithStack(err)
}

// ValidationError is returned when a configuration or hyperparameter
// fails validation before a run starts.
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("oxypred: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject adds structured error fields to a zerolog event.
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError creates a ValidationError with a stack trace attached.
func NewValidationError(param, reason string, value interface{}) error {
	err := &ValidationError{ParamName: param, Reason: reason, Value: value}
	return errors.WithStack(err)
}

// DataError is returned when the input dataset cannot be loaded or does
// not match the expected schema: unreadable file, malformed CSV, a date
// that does not match the configured format, or a missing column.
type DataError struct {
	Op     string
	Column string
	Row    int // -1 when the failure is not tied to a single row
	Err    error
}

func (e *DataError) Error() string {
	switch {
	case e.Column != "" && e.Row >= 0:
		return fmt.Sprintf("oxypred: %s: column %q row %d: %v", e.Op, e.Column, e.Row, e.Err)
	case e.Column != "":
		return fmt.Sprintf("oxypred: %s: column %q: %v", e.Op, e.Column, e.Err)
	default:
		return fmt.Sprintf("oxypred: %s: %v", e.Op, e.Err)
	}
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject adds structured error fields to a zerolog event.
func (e *DataError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("column", e.Column).
		Int("row", e.Row).
		AnErr("cause", e.Err).
		Str("type", "DataError")
}

// NewDataError creates a DataError with a stack trace attached.
func NewDataError(op, column string, row int, err error) error {
	dataErr := &DataError{Op: op, Column: column, Row: row, Err: err}
	return errors.WithStack(dataErr)
}

// Is reports whether err matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with a message.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New creates an error with a stack trace.
func New(message string) error {
	return errors.New(message)
}

// Newf creates a formatted error with a stack trace.
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack annotates err with a stack trace.
func WithStack(err error) error {
	return errors.WithStack(err)
}

var (
	// ErrEmptyData is returned when an operation receives no rows.
	ErrEmptyData = New("empty data")

	// ErrMissingColumn is returned when a required column is absent.
	ErrMissingColumn = New("missing column")
)
