package signing

import (
	"fmt"
	"math/big"

	"github.com/Caqil/tss-2p/internal/security"
	"github.com/Caqil/tss-2p/pkg/crypto/curve"
	"github.com/Caqil/tss-2p/pkg/derivation"
)

const (
	stepCommit  = "sign/commit"
	stepP1Nonce = "sign/p1-nonce"
	stepP2Nonce = "sign/p2-nonce"
)

// Options tunes signing sessions
type Options struct {
	// MaxSessionIDLen bounds the session identifier
	MaxSessionIDLen int
}

// DefaultOptions returns production settings
func DefaultOptions() Options {
	return Options{MaxSessionIDLen: 1024}
}

// request is what both parties must agree on before signing
type request struct {
	digest []byte
	path   derivation.Path
	// canonical form of path, carried in msg1
	pathStr string
}

func newRequest(digest []byte, path string) (request, error) {
	if err := security.ValidateDigest(digest); err != nil {
		return request{}, ErrInvalidDigest
	}
	p, err := derivation.ParsePath(path)
	if err != nil {
		return request{}, fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	return request{
		digest:  append([]byte(nil), digest...),
		path:    p,
		pathStr: p.String(),
	}, nil
}

// derive applies the request's path to a joint key
func (rq request) derive(pub *curve.Point, chainCode []byte) (*derivation.Result, error) {
	res, err := derivation.Derive(pub, chainCode, rq.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	return res, nil
}

// digestScalar converts the digest to the integer m of the ECDSA equation
func (rq request) digestScalar() *big.Int {
	m := new(big.Int).SetBytes(rq.digest)
	return m.Mod(m, curve.Secp256k1().Order())
}

// sigR returns r = (k*P).x mod q
func sigR(k *big.Int, p *curve.Point) (*big.Int, error) {
	c := curve.Secp256k1()
	point, err := c.ScalarMult(p, k)
	if err != nil {
		return nil, err
	}
	r := new(big.Int).Mod(point.X, c.Order())
	if r.Sign() == 0 {
		return nil, ErrDegenerateNonce
	}
	return r, nil
}

type failed struct {
	reason string
}

type finalized struct{}
