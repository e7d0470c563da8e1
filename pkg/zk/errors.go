package zk

import "errors"

var (
	// ErrNilSecret is returned when a nil secret is provided
	ErrNilSecret = errors.New("secret cannot be nil")

	// ErrNilPublicPoint is returned when a nil public point is provided
	ErrNilPublicPoint = errors.New("public point cannot be nil")

	// ErrInvalidWitness is returned when the witness doesn't satisfy the relation
	ErrInvalidWitness = errors.New("invalid witness: does not satisfy the relation")

	// ErrInvalidProof is returned when proof verification fails
	ErrInvalidProof = errors.New("invalid proof")

	// ErrMalformedProof is returned when a proof encoding cannot be parsed
	ErrMalformedProof = errors.New("malformed proof encoding")

	// ErrWeakModulus is returned when a Paillier modulus is too small or has small factors
	ErrWeakModulus = errors.New("paillier modulus rejected")
)
