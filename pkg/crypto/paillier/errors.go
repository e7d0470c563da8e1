package paillier

import "errors"

var (
	// ErrInvalidKeySize is returned when the requested modulus size is unsupported
	ErrInvalidKeySize = errors.New("paillier modulus must be an even number of bits >= 1024")

	// ErrInvalidPrimes is returned when the prime factors cannot form a key
	ErrInvalidPrimes = errors.New("invalid paillier prime factors")

	// ErrInvalidModulus is returned when a public modulus is structurally invalid
	ErrInvalidModulus = errors.New("invalid paillier modulus")

	// ErrMessageOutOfRange is returned when a plaintext is outside [0, N)
	ErrMessageOutOfRange = errors.New("plaintext out of range")

	// ErrInvalidNonce is returned when an encryption nonce is outside (0, N)
	ErrInvalidNonce = errors.New("invalid encryption nonce")

	// ErrInvalidCiphertext is returned when a ciphertext is not a unit mod N^2
	ErrInvalidCiphertext = errors.New("invalid ciphertext")
)
