// Package session binds protocol messages to the caller's session
// identifier.
package session

import (
	"errors"
	"fmt"

	"github.com/Caqil/tss-2p/internal/security"
	"github.com/Caqil/tss-2p/pkg/crypto/hash"
)

// HashSize is the length of the session hash carried by every message
const HashSize = 32

var (
	// ErrInvalidID is returned when a session identifier is empty or too long
	ErrInvalidID = errors.New("invalid session id")

	// ErrMismatch is returned when a message belongs to a different session
	ErrMismatch = errors.New("message session id does not match")
)

// Session is the identifier of one protocol run and its hash
type Session struct {
	id   []byte
	hash []byte
}

// New copies sid and checks it is non-empty and at most maxLen bytes
func New(sid []byte, maxLen int) (Session, error) {
	if err := security.ValidateSessionID(sid, maxLen); err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidID, err)
	}
	id := append([]byte(nil), sid...)
	return Session{id: id, hash: hash.SessionHash(id)}, nil
}

// ID returns the raw identifier
func (s Session) ID() []byte {
	return s.id
}

// Hash returns the tag carried by every message of the run
func (s Session) Hash() []byte {
	return s.hash
}

// Context returns the proof and commitment context for one step
func (s Session) Context(step string) []byte {
	return hash.SessionContext(s.id, step)
}

// Check compares a received session hash with ours
func (s Session) Check(sidHash []byte) error {
	if !security.ConstantTimeCompare(s.hash, sidHash) {
		return ErrMismatch
	}
	return nil
}
