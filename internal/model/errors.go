package model

import (
	"errors"
	"fmt"
)

var (
	ErrRecordNotFound     = errors.New("record not found")
	ErrUnrecognizedSchema = errors.New("unrecognized record schema")
	ErrNonNumericMetric   = errors.New("non-numeric metric")
	ErrMissingElapsed     = errors.New("elapsed time is unknown")
	ErrUnknownCommit      = errors.New("unknown commit")
)

// SchemaError reports the set and the commit whose record matched no known format
type SchemaError struct {
	Set    string
	Commit string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: set %q, commit %s", ErrUnrecognizedSchema.Error(), e.Set, e.Commit)
}

func (e *SchemaError) Unwrap() error {
	return ErrUnrecognizedSchema
}

// MetricError reports a value that was expected to be numeric
type MetricError struct {
	Field string
	Value any
}

func (e *MetricError) Error() string {
	return fmt.Sprintf("%s: field %q has value %v (%T)", ErrNonNumericMetric.Error(), e.Field, e.Value, e.Value)
}

func (e *MetricError) Unwrap() error {
	return ErrNonNumericMetric
}
