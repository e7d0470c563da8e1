package curve

import (
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
)

// secp256k1Curve implements the Curve interface for secp256k1 using btcec
type secp256k1Curve struct {
	n *big.Int
	p *big.Int
}

var secp = &secp256k1Curve{
	n: btcec.S256().Params().N,
	p: btcec.S256().Params().P,
}

// Secp256k1 returns the shared secp256k1 instance
func Secp256k1() Curve {
	return secp
}

func (c *secp256k1Curve) ScalarBaseMult(k *big.Int) (*Point, error) {
	if k == nil || k.Sign() <= 0 {
		return nil, ErrInvalidScalar
	}

	k = new(big.Int).Mod(k, c.n)
	if k.Sign() == 0 {
		return nil, ErrScalarZero
	}

	var s btcec.ModNScalar
	s.SetByteSlice(paddedBytes(k, ScalarSize))

	var r btcec.JacobianPoint
	btcec.ScalarBaseMultNonConst(&s, &r)
	s.Zero()
	r.ToAffine()

	return c.fromJacobian(&r)
}

func (c *secp256k1Curve) ScalarMult(p *Point, k *big.Int) (*Point, error) {
	if p == nil {
		return nil, ErrInvalidPoint
	}
	if k == nil || k.Sign() <= 0 {
		return nil, ErrInvalidScalar
	}
	if !c.IsOnCurve(p) {
		return nil, ErrInvalidPoint
	}

	k = new(big.Int).Mod(k, c.n)
	if k.Sign() == 0 {
		return nil, ErrScalarZero
	}

	var s btcec.ModNScalar
	s.SetByteSlice(paddedBytes(k, ScalarSize))

	var in, out btcec.JacobianPoint
	toJacobian(p, &in)
	btcec.ScalarMultNonConst(&s, &in, &out)
	s.Zero()
	out.ToAffine()

	return c.fromJacobian(&out)
}

func (c *secp256k1Curve) Add(p1, p2 *Point) (*Point, error) {
	if p1 == nil || p2 == nil {
		return nil, ErrInvalidPoint
	}
	if !c.IsOnCurve(p1) || !c.IsOnCurve(p2) {
		return nil, ErrInvalidPoint
	}

	var a, b, sum btcec.JacobianPoint
	toJacobian(p1, &a)
	toJacobian(p2, &b)
	btcec.AddNonConst(&a, &b, &sum)
	sum.ToAffine()

	return c.fromJacobian(&sum)
}

func (c *secp256k1Curve) Negate(p *Point) (*Point, error) {
	if p == nil {
		return nil, ErrInvalidPoint
	}
	if !c.IsOnCurve(p) {
		return nil, ErrInvalidPoint
	}

	// (x, y) -> (x, -y mod P)
	negY := new(big.Int).Sub(c.p, p.Y)
	negY.Mod(negY, c.p)

	return &Point{
		X:     new(big.Int).Set(p.X),
		Y:     negY,
		curve: c,
	}, nil
}

func (c *secp256k1Curve) IsOnCurve(p *Point) bool {
	if p == nil || p.X == nil || p.Y == nil {
		return false
	}
	return btcec.S256().IsOnCurve(p.X, p.Y)
}

func (c *secp256k1Curve) Marshal(p *Point) []byte {
	pub, err := c.PublicKey(p)
	if err != nil {
		return nil
	}
	return pub.SerializeCompressed()
}

func (c *secp256k1Curve) Unmarshal(data []byte) (*Point, error) {
	if len(data) != PointSize {
		return nil, ErrInvalidEncoding
	}

	pubKey, err := btcec.ParsePubKey(data)
	if err != nil {
		return nil, ErrInvalidEncoding
	}

	return &Point{
		X:     pubKey.X(),
		Y:     pubKey.Y(),
		curve: c,
	}, nil
}

func (c *secp256k1Curve) Generator() *Point {
	params := btcec.S256().Params()
	return &Point{
		X:     new(big.Int).Set(params.Gx),
		Y:     new(big.Int).Set(params.Gy),
		curve: c,
	}
}

func (c *secp256k1Curve) Order() *big.Int {
	return new(big.Int).Set(c.n)
}

func (c *secp256k1Curve) Name() string {
	return "secp256k1"
}

// PublicKey converts p to a btcec public key
func (c *secp256k1Curve) PublicKey(p *Point) (*btcec.PublicKey, error) {
	if !c.IsOnCurve(p) {
		return nil, ErrInvalidPoint
	}
	var x, y btcec.FieldVal
	x.SetByteSlice(paddedBytes(p.X, 32))
	y.SetByteSlice(paddedBytes(p.Y, 32))
	return btcec.NewPublicKey(&x, &y), nil
}

func (c *secp256k1Curve) fromJacobian(j *btcec.JacobianPoint) (*Point, error) {
	if (j.X.IsZero() && j.Y.IsZero()) || j.Z.IsZero() {
		return nil, ErrPointAtInfinity
	}
	x := j.X.Bytes()
	y := j.Y.Bytes()
	return &Point{
		X:     new(big.Int).SetBytes(x[:]),
		Y:     new(big.Int).SetBytes(y[:]),
		curve: c,
	}, nil
}

func toJacobian(p *Point, out *btcec.JacobianPoint) {
	out.X.SetByteSlice(paddedBytes(p.X, 32))
	out.Y.SetByteSlice(paddedBytes(p.Y, 32))
	out.Z.SetInt(1)
}

// VerifyECDSA checks a 64-byte r||s signature over a 32-byte digest
func VerifyECDSA(pub *Point, digest, sig []byte) bool {
	if len(digest) != 32 || len(sig) != 64 {
		return false
	}
	pk, err := secp.PublicKey(pub)
	if err != nil {
		return false
	}

	var r, s btcec.ModNScalar
	if overflow := r.SetByteSlice(sig[:32]); overflow || r.IsZero() {
		return false
	}
	if overflow := s.SetByteSlice(sig[32:]); overflow || s.IsZero() {
		return false
	}

	return ecdsa.NewSignature(&r, &s).Verify(digest, pk)
}
