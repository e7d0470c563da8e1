// Package zk implements the non-interactive zero-knowledge proofs exchanged
// by the two-party protocols. All proofs use the Fiat-Shamir transform over
// a hash.Transcript that includes a caller-supplied context, which the
// protocols set to the session identifier plus the protocol step.
package zk

import (
	"math/big"

	"github.com/Caqil/tss-2p/internal/security"
	"github.com/Caqil/tss-2p/pkg/crypto/curve"
	"github.com/Caqil/tss-2p/pkg/crypto/hash"
	"github.com/Caqil/tss-2p/pkg/crypto/rand"
)

// SchnorrProofSize is the encoded size of a SchnorrProof
const SchnorrProofSize = curve.PointSize + curve.ScalarSize

// SchnorrProof represents a Schnorr proof of knowledge of discrete logarithm
// Proves knowledge of x such that Y = x*G without revealing x
type SchnorrProof struct {
	// Commitment is the prover's commitment R = k*G
	Commitment *curve.Point

	// Response is z = k + e*x mod n
	Response *big.Int
}

// ProveSchnorr creates a Schnorr proof of knowledge of discrete log
func ProveSchnorr(secret *big.Int, publicPoint *curve.Point, context []byte) (*SchnorrProof, error) {
	if secret == nil {
		return nil, ErrNilSecret
	}
	if publicPoint == nil {
		return nil, ErrNilPublicPoint
	}

	c := curve.Secp256k1()
	expected, err := c.ScalarBaseMult(secret)
	if err != nil {
		return nil, err
	}
	if !expected.IsEqual(publicPoint) {
		return nil, ErrInvalidWitness
	}

	order := c.Order()
	k, err := rand.GenerateRandomScalar(order)
	if err != nil {
		return nil, err
	}
	defer security.SecureZeroBigInt(k)

	commitment, err := c.ScalarBaseMult(k)
	if err != nil {
		return nil, err
	}

	e := schnorrChallenge(publicPoint, commitment, context)

	response := new(big.Int).Mul(e, secret)
	response.Add(response, k)
	response.Mod(response, order)

	return &SchnorrProof{
		Commitment: commitment,
		Response:   response,
	}, nil
}

// Verify checks z*G = R + e*Y
func (sp *SchnorrProof) Verify(publicPoint *curve.Point, context []byte) bool {
	if sp == nil || sp.Commitment == nil || sp.Response == nil || publicPoint == nil {
		return false
	}

	c := curve.Secp256k1()
	if !c.IsOnCurve(publicPoint) || !c.IsOnCurve(sp.Commitment) {
		return false
	}

	e := schnorrChallenge(publicPoint, sp.Commitment, context)

	zG, err := c.ScalarBaseMult(sp.Response)
	if err != nil {
		return false
	}

	eY, err := c.ScalarMult(publicPoint, e)
	if err != nil {
		return false
	}

	rhs, err := c.Add(sp.Commitment, eY)
	if err != nil {
		return false
	}

	return zG.IsEqual(rhs)
}

// Bytes encodes the proof as R (33 bytes) || z (32 bytes)
func (sp *SchnorrProof) Bytes() []byte {
	out := make([]byte, 0, SchnorrProofSize)
	out = append(out, sp.Commitment.Bytes()...)
	return append(out, curve.ScalarBytes(sp.Response)...)
}

// ParseSchnorrProof decodes a proof produced by Bytes
func ParseSchnorrProof(data []byte) (*SchnorrProof, error) {
	if len(data) != SchnorrProofSize {
		return nil, ErrMalformedProof
	}
	c := curve.Secp256k1()
	commitment, err := c.Unmarshal(data[:curve.PointSize])
	if err != nil {
		return nil, ErrMalformedProof
	}
	response, err := curve.ParseScalar(c, data[curve.PointSize:])
	if err != nil {
		return nil, ErrMalformedProof
	}
	return &SchnorrProof{Commitment: commitment, Response: response}, nil
}

// schnorrChallenge computes e = H(G || Y || R || context) mod n
func schnorrChallenge(publicPoint, commitment *curve.Point, context []byte) *big.Int {
	c := curve.Secp256k1()
	return hash.NewTranscript("zk/dlog").
		Append(c.Generator().Bytes(), publicPoint.Bytes(), commitment.Bytes(), context).
		Challenge(c.Order())
}
