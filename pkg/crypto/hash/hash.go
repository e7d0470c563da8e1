// Package hash provides the transcript hashing and key-derivation helpers
// shared by commitments, zero-knowledge proofs and the protocol messages
package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"hash"
	"io"
	"math/big"

	"golang.org/x/crypto/hkdf"
)

// Domain prefixes every label fed into a transcript
const Domain = "tss2p/v1/"

// Transcript is a domain-separated, length-prefixed SHA-256 accumulator.
// Every item is written as an 8-byte big-endian length followed by its
// bytes, so distinct item sequences never collide.
type Transcript struct {
	h hash.Hash
}

// NewTranscript starts a transcript under the given label
func NewTranscript(label string) *Transcript {
	t := &Transcript{h: sha256.New()}
	t.Append([]byte(Domain + label))
	return t
}

// Append adds items to the transcript
func (t *Transcript) Append(items ...[]byte) *Transcript {
	var l [8]byte
	for _, item := range items {
		binary.BigEndian.PutUint64(l[:], uint64(len(item)))
		t.h.Write(l[:])
		t.h.Write(item)
	}
	return t
}

// AppendInt adds a big integer in minimal big-endian form
func (t *Transcript) AppendInt(values ...*big.Int) *Transcript {
	for _, v := range values {
		t.Append(v.Bytes())
	}
	return t
}

// Sum returns the 32-byte digest of everything appended so far
func (t *Transcript) Sum() []byte {
	return t.h.Sum(nil)
}

// Challenge reduces the transcript digest into [1, modulus)
func (t *Transcript) Challenge(modulus *big.Int) *big.Int {
	return FiatShamirChallenge(t.Sum(), modulus)
}

// FiatShamirChallenge maps a digest into [1, modulus). A zero result is
// replaced by one so that challenges are always usable as multipliers.
func FiatShamirChallenge(digest []byte, modulus *big.Int) *big.Int {
	challenge := new(big.Int).SetBytes(digest)
	challenge.Mod(challenge, modulus)
	if challenge.Sign() == 0 {
		challenge.SetInt64(1)
	}
	return challenge
}

// SessionHash binds a caller-supplied session identifier into a fixed-size
// tag carried by every protocol message
func SessionHash(sessionID []byte) []byte {
	return NewTranscript("sid").Append(sessionID).Sum()
}

// HMAC computes HMAC-SHA256 of data with given key
func HMAC(key, data []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}

// HKDF derives key material using HKDF-SHA256
func HKDF(secret, salt, info []byte, length int) ([]byte, error) {
	if length <= 0 {
		return nil, ErrInvalidLength
	}

	out := make([]byte, length)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, salt, info), out); err != nil {
		return nil, err
	}
	return out, nil
}

// ExpandToInt deterministically derives an integer in [0, modulus) from seed
// by expanding 128 extra bits with HKDF and reducing. The bias is below 2^-128.
func ExpandToInt(seed, info []byte, modulus *big.Int) (*big.Int, error) {
	if modulus == nil || modulus.Sign() <= 0 {
		return nil, ErrInvalidModulus
	}
	n := (modulus.BitLen() + 128 + 7) / 8
	buf, err := HKDF(seed, nil, info, n)
	if err != nil {
		return nil, err
	}
	v := new(big.Int).SetBytes(buf)
	return v.Mod(v, modulus), nil
}

// SessionContext derives the context bytes for one protocol step of one
// session. Proofs and commitments made for one step never verify in another.
func SessionContext(sessionID []byte, step string) []byte {
	return NewTranscript("ctx").Append(sessionID, []byte(step)).Sum()
}
