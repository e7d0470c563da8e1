package signing

import (
	"errors"

	"github.com/Caqil/tss-2p/internal/session"
)

var (
	// ErrInvalidSessionID is returned when a session identifier is empty or too long
	ErrInvalidSessionID = session.ErrInvalidID

	// ErrSessionMismatch is returned when a message belongs to a different session
	ErrSessionMismatch = session.ErrMismatch

	// ErrInvalidState is returned when a step is invoked out of order
	ErrInvalidState = errors.New("operation not valid in current session state")

	// ErrInvalidDigest is returned when the message digest is not 32 bytes
	ErrInvalidDigest = errors.New("message digest must be 32 bytes")

	// ErrDigestMismatch is returned when the counterparty signs a different digest
	ErrDigestMismatch = errors.New("counterparty digest does not match")

	// ErrInvalidPath is returned when a derivation path cannot be used
	ErrInvalidPath = errors.New("invalid derivation path")

	// ErrPathMismatch is returned when the counterparty uses a different derivation path
	ErrPathMismatch = errors.New("counterparty derivation path does not match")

	// ErrNilKeyShare is returned when a signer is created without a key share
	ErrNilKeyShare = errors.New("key share cannot be nil")

	// ErrMalformedMessage is returned when a protocol message cannot be decoded
	ErrMalformedMessage = errors.New("malformed protocol message")

	// ErrPartySignature is returned when P1's message signature does not verify
	ErrPartySignature = errors.New("party signature verification failed")

	// ErrInvalidCommitment is returned when a decommitment does not open the commitment
	ErrInvalidCommitment = errors.New("invalid commitment")

	// ErrInvalidProof is returned when a nonce proof fails verification
	ErrInvalidProof = errors.New("proof verification failed")

	// ErrInvalidCiphertext is returned when msg4 carries an unusable ciphertext
	ErrInvalidCiphertext = errors.New("invalid partial signature ciphertext")

	// ErrInvalidSignature is returned when the final signature does not verify
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrDegenerateNonce is returned for the negligible case r = 0 or s = 0
	ErrDegenerateNonce = errors.New("degenerate signature nonce")
)
