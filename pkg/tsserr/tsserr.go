// Package tsserr defines the closed set of error kinds reported by the
// two-party threshold signing core.
//
// The numeric values of Code are part of the binary contract with host
// applications and must never be reordered.
package tsserr

import (
	"errors"
	"fmt"
)

// Code is a caller-visible error kind
type Code int32

const (
	Ok Code = iota
	NoError
	InvalidHandle
	HandleInUse
	InvalidHandleType
	NullPtr
	InvalidSessionId
	InvalidSessionState
	UnknownError
	SerializationError
	ProcessMessageError
	InvalidMsgHash
	InvalidDerivationPathStr
	MessageSignature
	MessageSignPk
	MessageSignVerify
)

var codeNames = [...]string{
	Ok:                       "ok",
	NoError:                  "no error",
	InvalidHandle:            "invalid handle",
	HandleInUse:              "handle in use",
	InvalidHandleType:        "invalid handle type",
	NullPtr:                  "null pointer",
	InvalidSessionId:         "invalid session id",
	InvalidSessionState:      "invalid session state",
	UnknownError:             "unknown error",
	SerializationError:       "serialization error",
	ProcessMessageError:      "process message error",
	InvalidMsgHash:           "invalid message hash",
	InvalidDerivationPathStr: "invalid derivation path",
	MessageSignature:         "malformed message signature",
	MessageSignPk:            "malformed message public key",
	MessageSignVerify:        "message signature verification failed",
}

// String returns a short human-readable name for the code
func (c Code) String() string {
	if c < 0 || int(c) >= len(codeNames) {
		return fmt.Sprintf("code(%d)", int32(c))
	}
	return codeNames[c]
}

// Error carries a Code together with the underlying cause
type Error struct {
	Code Code
	Err  error
}

// New wraps err with the given code. A nil err is replaced by the code's name.
func New(code Code, err error) *Error {
	if err == nil {
		err = errors.New(code.String())
	}
	return &Error{Code: code, Err: err}
}

// Errorf formats a message and wraps it with the given code
func Errorf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Code.String()
	}
	return e.Code.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same code, so that
// errors.Is(err, tsserr.New(tsserr.InvalidHandle, nil)) works.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// CodeOf extracts the code of err. nil maps to Ok and errors that were never
// classified map to UnknownError.
func CodeOf(err error) Code {
	if err == nil {
		return Ok
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return UnknownError
}

// Sentinel values for errors.Is comparisons
var (
	ErrInvalidHandle       = New(InvalidHandle, nil)
	ErrHandleInUse         = New(HandleInUse, nil)
	ErrInvalidHandleType   = New(InvalidHandleType, nil)
	ErrNullPtr             = New(NullPtr, nil)
	ErrInvalidSessionID    = New(InvalidSessionId, nil)
	ErrInvalidSessionState = New(InvalidSessionState, nil)
)
