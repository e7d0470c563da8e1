// Package commitment provides the hash commitments used by the commit/reveal
// rounds of key generation and signing
package commitment

import (
	"crypto/subtle"

	"github.com/Caqil/tss-2p/pkg/crypto/hash"
	"github.com/Caqil/tss-2p/pkg/crypto/rand"
)

const (
	// Size is the byte length of a commitment value
	Size = 32

	// NonceSize is the byte length of the opening nonce
	NonceSize = 32

	domainTag = "tss2p/hash-commit/v1"
)

// HashCommitment is a hiding, binding commitment to a byte string
type HashCommitment struct {
	// Commitment is safe to publish before the reveal
	Commitment []byte

	// Nonce is the opening nonce (kept secret until reveal)
	Nonce []byte

	// Value is the committed value (kept secret until reveal)
	Value []byte

	// Context binds the commitment to a session and a protocol step
	Context []byte
}

// NewHashCommitment commits to value under context with a fresh nonce
func NewHashCommitment(value, context []byte) (*HashCommitment, error) {
	if len(value) == 0 {
		return nil, ErrEmptyValue
	}

	nonce, err := rand.GenerateRandomBytes(NonceSize)
	if err != nil {
		return nil, err
	}

	return &HashCommitment{
		Commitment: compute(value, nonce, context),
		Nonce:      nonce,
		Value:      value,
		Context:    context,
	}, nil
}

// Verify recomputes the commitment from its opening
func (hc *HashCommitment) Verify() bool {
	return VerifyHashCommitment(hc.Commitment, hc.Value, hc.Nonce, hc.Context)
}

// VerifyHashCommitment checks an opening against a published commitment
func VerifyHashCommitment(commitment, value, nonce, context []byte) bool {
	if len(commitment) != Size || len(value) == 0 || len(nonce) != NonceSize {
		return false
	}
	expected := compute(value, nonce, context)
	return subtle.ConstantTimeCompare(commitment, expected) == 1
}

// compute returns HMAC-SHA256(nonce, H(domain || value || context))
func compute(value, nonce, context []byte) []byte {
	inner := hash.NewTranscript(domainTag).Append(value, context).Sum()
	return hash.HMAC(nonce, inner)
}
