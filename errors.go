// Copyright (C) 2020 Michael J. Fromberger. All Rights Reserved.

package opack

import "fmt"

// ErrorKind classifies why an Encode or Decode call failed.
type ErrorKind int

const (
	// InvalidType indicates a tag byte outside the recognized ranges, or a
	// terminator sentinel observed where it is not permitted.
	InvalidType ErrorKind = iota

	// IntegerOutOfBounds indicates an integer value's magnitude does not
	// fit where it is being asked to go. Encode can never produce this —
	// an Int payload is always a valid uint64 — but Unmarshal does, when a
	// decoded Int is too large for the narrower Go integer type requested
	// (see overflowError in unmarshal.go).
	IntegerOutOfBounds

	// BytesTooLarge indicates a byte string longer than 2^64-1 bytes.
	BytesTooLarge

	// UnexpectedEndOfInput indicates the decoder ran out of bytes mid-value.
	UnexpectedEndOfInput

	// InvalidUtf8 indicates a string payload that is not valid UTF-8.
	InvalidUtf8

	// TrailingData indicates extra bytes remained after the top-level value.
	TrailingData

	// TooDeep indicates the recursion depth limit was exceeded.
	TooDeep
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidType:
		return "InvalidType"
	case IntegerOutOfBounds:
		return "IntegerOutOfBounds"
	case BytesTooLarge:
		return "BytesTooLarge"
	case UnexpectedEndOfInput:
		return "UnexpectedEndOfInput"
	case InvalidUtf8:
		return "InvalidUtf8"
	case TrailingData:
		return "TrailingData"
	case TooDeep:
		return "TooDeep"
	default:
		return "Unknown"
	}
}

// Error is the error type returned by Encode and Decode. Callers can recover
// the taxonomy of spec-defined failure kinds with errors.As and a type
// switch on Kind.
type Error struct {
	// Kind classifies the failure.
	Kind ErrorKind

	// Offset is the byte offset in the input at which the failure was
	// detected, or -1 if the failure is not tied to an input position (for
	// example, an encoder-side TooDeep).
	Offset int

	msg string
	err error
}

func (e *Error) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("opack: %s at offset %d: %s", e.Kind, e.Offset, e.msg)
	}
	return fmt.Sprintf("opack: %s: %s", e.Kind, e.msg)
}

// Unwrap returns the underlying cause, if any, so errors.Is and errors.As
// see through an *Error to a wrapped standard-library error.
func (e *Error) Unwrap() error { return e.err }

func newError(kind ErrorKind, offset int, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Offset: offset, msg: fmt.Sprintf(format, args...)}
}

func wrapError(kind ErrorKind, offset int, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Offset: offset, msg: fmt.Sprintf(format, args...), err: cause}
}
