// Package signing implements the five-message two-party ECDSA signing
// protocol over key shares produced by package keygen.
//
// PROTOCOL
//
// Setup (from key generation):
//   - P1 holds x1 and a Paillier private key
//   - P2 holds x2, the Paillier public key and ckey = Enc(x1)
//   - Joint public key Q = x1*x2*G; an optional BIP-32 path adds a tweak t,
//     giving the child key Q' = Q + t*G
//
// Messages:
//
//	msg1 P1 -> P2: commit(R1 = k1*G, proof of k1), digest, path   (signed)
//	msg2 P2 -> P1: R2 = k2*G, proof of k2
//	msg3 P1 -> P2: open R1 and its proof                          (signed)
//	msg4 P2 -> P1: c3 = Enc(k2^-1 (m + r t) + rho q) + ckey * (k2^-1 r x2)
//	msg5 P1 -> P2: (r, s)                                          (signed)
//
// Both parties compute R = k1*k2*G and r = R.x mod q. P1 decrypts c3,
// sets s = k1^-1 * Dec(c3) mod q, normalises s to the lower half of the
// group order and checks the signature under Q' before releasing it. P2
// checks it again when processing msg5.
//
// The digest and derivation path travel in msg1 and P2 refuses to sign if
// they differ from its own, so neither party has to trust the caller to
// pass identical inputs to both sides.
package signing

import (
	"math/big"

	"github.com/Caqil/tss-2p/pkg/crypto/curve"
)

// SignatureSize is the length of an r||s signature
const SignatureSize = 2 * curve.ScalarSize

// Signature is an ECDSA signature over secp256k1
type Signature struct {
	R *big.Int
	S *big.Int
}

// Bytes serializes the signature as r||s, 32 bytes each
func (sig *Signature) Bytes() []byte {
	out := make([]byte, 0, SignatureSize)
	out = append(out, curve.ScalarBytes(sig.R)...)
	return append(out, curve.ScalarBytes(sig.S)...)
}

// SignatureFromBytes parses r||s, requiring both halves in [1, q)
func SignatureFromBytes(data []byte) (*Signature, error) {
	if len(data) != SignatureSize {
		return nil, ErrInvalidSignature
	}

	c := curve.Secp256k1()
	r, err := curve.ParseScalar(c, data[:curve.ScalarSize])
	if err != nil {
		return nil, ErrInvalidSignature
	}
	s, err := curve.ParseScalar(c, data[curve.ScalarSize:])
	if err != nil {
		return nil, ErrInvalidSignature
	}
	return &Signature{R: r, S: s}, nil
}

// IsLowS reports whether s is in the lower half of the group order
func (sig *Signature) IsLowS() bool {
	return sig.S.Cmp(halfOrder()) <= 0
}

// normalize replaces s by q - s when s is in the upper half
func (sig *Signature) normalize() {
	if !sig.IsLowS() {
		sig.S = new(big.Int).Sub(curve.Secp256k1().Order(), sig.S)
	}
}

func halfOrder() *big.Int {
	return new(big.Int).Rsh(curve.Secp256k1().Order(), 1)
}

// Verify checks a 64-byte r||s signature over a 32-byte digest under a
// 33-byte compressed public key, with a standard ECDSA verifier
func Verify(publicKey, digest, sig []byte) bool {
	pub, err := curve.Secp256k1().Unmarshal(publicKey)
	if err != nil {
		return false
	}
	return curve.VerifyECDSA(pub, digest, sig)
}

// VerifySignature is Verify for already-decoded values
func VerifySignature(pub *curve.Point, digest []byte, sig *Signature) bool {
	if pub == nil || sig == nil || sig.R == nil || sig.S == nil {
		return false
	}
	return curve.VerifyECDSA(pub, digest, sig.Bytes())
}
