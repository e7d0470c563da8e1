// Package curve provides the secp256k1 group operations used by the
// two-party protocols. Points are affine; the identity is never a valid
// protocol value and every operation that would produce it fails.
package curve

import (
	"math/big"
)

// ScalarSize is the byte length of a canonical scalar encoding
const ScalarSize = 32

// PointSize is the byte length of a compressed point encoding
const PointSize = 33

// Point represents a point on an elliptic curve
type Point struct {
	X     *big.Int
	Y     *big.Int
	curve Curve
}

// Curve defines the group operations the protocols rely on
type Curve interface {
	// ScalarBaseMult computes k*G where G is the generator
	ScalarBaseMult(k *big.Int) (*Point, error)

	// ScalarMult computes k*P for point P
	ScalarMult(p *Point, k *big.Int) (*Point, error)

	// Add computes P1 + P2
	Add(p1, p2 *Point) (*Point, error)

	// Negate computes -P
	Negate(p *Point) (*Point, error)

	// IsOnCurve verifies if point P is on the curve
	IsOnCurve(p *Point) bool

	// Marshal encodes a point to its 33-byte compressed form
	Marshal(p *Point) []byte

	// Unmarshal decodes a 33-byte compressed point
	Unmarshal(data []byte) (*Point, error)

	// Generator returns the generator point
	Generator() *Point

	// Order returns the order of the curve
	Order() *big.Int

	// Name returns the curve name
	Name() string
}

// IsEqual checks if two points are equal
func (p *Point) IsEqual(other *Point) bool {
	if p == nil || other == nil {
		return p == other
	}
	if p.X == nil || other.X == nil {
		return false
	}
	return p.X.Cmp(other.X) == 0 && p.Y.Cmp(other.Y) == 0
}

// Clone creates a deep copy of the point
func (p *Point) Clone() *Point {
	if p == nil {
		return nil
	}
	return &Point{
		X:     new(big.Int).Set(p.X),
		Y:     new(big.Int).Set(p.Y),
		curve: p.curve,
	}
}

// Bytes returns the compressed encoding of the point
func (p *Point) Bytes() []byte {
	if p == nil || p.curve == nil {
		return nil
	}
	return p.curve.Marshal(p)
}

// ScalarBytes returns k as a fixed 32-byte big-endian value. k must already
// be reduced modulo the group order.
func ScalarBytes(k *big.Int) []byte {
	return paddedBytes(k, ScalarSize)
}

// ParseScalar decodes a 32-byte big-endian scalar and checks 0 < k < n
func ParseScalar(c Curve, data []byte) (*big.Int, error) {
	if len(data) != ScalarSize {
		return nil, ErrInvalidScalar
	}
	k := new(big.Int).SetBytes(data)
	if k.Sign() == 0 {
		return nil, ErrScalarZero
	}
	if k.Cmp(c.Order()) >= 0 {
		return nil, ErrInvalidScalar
	}
	return k, nil
}

// paddedBytes returns the bytes of a big.Int, padded to the specified length
func paddedBytes(value *big.Int, length int) []byte {
	b := value.Bytes()
	if len(b) >= length {
		return b
	}
	padded := make([]byte, length)
	copy(padded[length-len(b):], b)
	return padded
}
