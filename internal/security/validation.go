package security

import "errors"

// DigestSize is the only accepted message digest length
const DigestSize = 32

var (
	// ErrEmptySessionID is returned for a zero-length session identifier
	ErrEmptySessionID = errors.New("session id is empty")

	// ErrSessionIDTooLong is returned when a session identifier exceeds the configured maximum
	ErrSessionIDTooLong = errors.New("session id too long")

	// ErrInvalidDigest is returned when a message digest is not 32 bytes
	ErrInvalidDigest = errors.New("message digest must be 32 bytes"))

// ValidateSessionID checks that a session identifier is non-empty and at
// most maxLen bytes
func ValidateSessionID(sid []byte, maxLen int) error {
	if len(sid) == 0 {
		return ErrEmptySessionID
	}
	if len(sid) > maxLen {
		return ErrSessionIDTooLong
	}
	return nil
}

// ValidateDigest checks the length of a message digest
func ValidateDigest(digest []byte) error {
	if len(digest) != DigestSize {
		return ErrInvalidDigest
	}
	return nil
}
