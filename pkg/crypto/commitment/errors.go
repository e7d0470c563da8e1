package commitment

import "errors"

var (
	// ErrEmptyValue is returned when an empty value is provided
	ErrEmptyValue = errors.New("value cannot be empty")

	// ErrInvalidOpening is returned when commitment opening verification fails
	ErrInvalidOpening = errors.New("commitment opening verification failed")

	// ErrInvalidCommitment is returned when a commitment has the wrong shape
	ErrInvalidCommitment = errors.New("invalid commitment")
)
