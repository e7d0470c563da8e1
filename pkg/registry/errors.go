package registry

import "errors"

var (
	// ErrInvalidHandle is returned for unknown or already released handles
	ErrInvalidHandle = errors.New("invalid handle")

	// ErrWrongKind is returned when a handle refers to an object of another kind
	ErrWrongKind = errors.New("handle refers to an object of another kind")

	// ErrHandleInUse is returned when the object is borrowed by another operation
	ErrHandleInUse = errors.New("handle in use")

	// ErrNilObject is returned when registering a nil object
	ErrNilObject = errors.New("cannot register nil object")

	// ErrExhausted is returned once every positive handle value has been issued
	ErrExhausted = errors.New("handle space exhausted")
)
