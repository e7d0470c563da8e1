package partykeys

import "errors"

var (
	// ErrInvalidSecret is returned when an encoded secret key is zero or not below the group order
	ErrInvalidSecret = errors.New("party keys: invalid secret key")

	// ErrInvalidPublicKey is returned when a public key cannot be parsed
	ErrInvalidPublicKey = errors.New("party keys: malformed public key")

	// ErrInvalidSignature is returned when a signature cannot be parsed
	ErrInvalidSignature = errors.New("party keys: malformed signature")

	// ErrVerifyFailed is returned when a well-formed signature does not verify
	ErrVerifyFailed = errors.New("party keys: signature verification failed")
)
