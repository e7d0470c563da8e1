package keygen

import (
	"errors"

	"github.com/Caqil/tss-2p/internal/session"
)

var (
	// ErrInvalidSessionID is returned when a session identifier is empty or too long
	ErrInvalidSessionID = session.ErrInvalidID

	// ErrInvalidState is returned when a step is invoked out of order
	ErrInvalidState = errors.New("operation not valid in current session state")

	// ErrSessionMismatch is returned when a message belongs to a different session
	ErrSessionMismatch = session.ErrMismatch

	// ErrMalformedMessage is returned when a protocol message cannot be decoded
	ErrMalformedMessage = errors.New("malformed protocol message")

	// ErrPartySignature is returned when P1's message signature does not verify
	ErrPartySignature = errors.New("party signature verification failed")

	// ErrInvalidCommitment is returned when a decommitment does not open the commitment
	ErrInvalidCommitment = errors.New("invalid commitment")

	// ErrInvalidProof is returned when a zero-knowledge proof fails verification
	ErrInvalidProof = errors.New("proof verification failed")

	// ErrInvalidPaillierKey is returned when the counterparty's Paillier key is rejected
	ErrInvalidPaillierKey = errors.New("paillier key rejected")

	// ErrMalformedKeyShare is returned when a stored key share cannot be decoded
	ErrMalformedKeyShare = errors.New("malformed key share")

	// ErrNilPartyKeys is returned when P1 is created without party keys
	ErrNilPartyKeys = errors.New("party keys cannot be nil")

	// ErrNilKeyShare is returned when a refresh is started without a key share
	ErrNilKeyShare = errors.New("key share cannot be nil")

	// ErrPartyKeysMismatch is returned when a refresh is started or answered
	// with party keys other than the ones pinned in the key share
	ErrPartyKeysMismatch = errors.New("party keys do not match key share")

	// ErrDegenerateBlinding is returned when the refresh factor is zero
	ErrDegenerateBlinding = errors.New("degenerate refresh factor")
)
