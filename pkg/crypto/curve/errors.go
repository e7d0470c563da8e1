package curve

import "errors"

var (
	// ErrInvalidPoint is returned when a point is not on the curve
	ErrInvalidPoint = errors.New("invalid point: not on curve")

	// ErrInvalidScalar is returned when a scalar is invalid (e.g., zero or >= order)
	ErrInvalidScalar = errors.New("invalid scalar value")

	// ErrPointAtInfinity is returned when an operation yields the identity
	ErrPointAtInfinity = errors.New("point at infinity")

	// ErrInvalidEncoding is returned when unmarshaling fails
	ErrInvalidEncoding = errors.New("invalid point encoding")

	// ErrScalarZero is returned when a scalar is zero but shouldn't be
	ErrScalarZero = errors.New("scalar is zero")
)
