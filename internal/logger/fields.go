package logger

import (
	"go.uber.org/zap"
)

// Field is a structured logging field.
type Field = zap.Field

// Field constructors. Thin aliases over zap so call sites read as
// logger.String(...), logger.Error(err), etc.
var (
	// String creates a string field.
	String = zap.String
	// Int creates an int field.
	Int = zap.Int
	// Int64 creates an int64 field.
	Int64 = zap.Int64
	// Uint64 creates a uint64 field.
	Uint64 = zap.Uint64
	// Float64 creates a float64 field.
	Float64 = zap.Float64
	// Bool creates a bool field.
	Bool = zap.Bool

	// Time creates a time field.
	Time = zap.Time
	// Duration creates a duration field.
	Duration = zap.Duration

	// Error creates an error field.
	Error = zap.Error

	// Stringer creates a field from a Stringer.
	Stringer = zap.Stringer

	// Any creates a field with reflection-based encoding.
	Any = zap.Any

	// Strings creates a string-slice field.
	Strings = zap.Strings
)
