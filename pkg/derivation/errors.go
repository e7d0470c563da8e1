package derivation

import "errors"

var (
	// ErrEmptySegment is returned for paths like "m//1"
	ErrEmptySegment = errors.New("derivation: empty path segment")

	// ErrInvalidSegment is returned when a segment is not a decimal index
	ErrInvalidSegment = errors.New("derivation: invalid path segment")

	// ErrHardenedSegment is returned for hardened indices
	ErrHardenedSegment = errors.New("derivation: hardened derivation is not supported")

	// ErrPathTooDeep is returned when a path exceeds MaxDepth
	ErrPathTooDeep = errors.New("derivation: path too deep")

	// ErrInvalidChainCode is returned when the chain code is not 32 bytes
	ErrInvalidChainCode = errors.New("derivation: invalid chain code")

	// ErrChildMismatch is returned when the computed child disagrees with
	// hdkeychain
	ErrChildMismatch = errors.New("derivation: child key mismatch")

	// ErrInvalidChild is returned for the negligible-probability invalid child case
	ErrInvalidChild = errors.New("derivation: invalid child key")
)
