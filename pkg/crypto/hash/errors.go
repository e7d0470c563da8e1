package hash

import "errors"

var (
	// ErrInvalidLength is returned when an invalid length is specified
	ErrInvalidLength = errors.New("length must be positive")

	// ErrInvalidModulus is returned when a challenge modulus is not positive
	ErrInvalidModulus = errors.New("modulus must be positive")
)
