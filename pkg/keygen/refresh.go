package keygen

import (
	"math/big"

	"github.com/Caqil/tss-2p/internal/session"
	"github.com/Caqil/tss-2p/pkg/crypto/curve"
	"github.com/Caqil/tss-2p/pkg/crypto/hash"
)

// blindingFactor derives the refresh factor r from k*R, where k is this
// party's ephemeral scalar and R the other party's ephemeral point. P1
// commits to R1 before seeing R2, so neither party chooses r alone.
func blindingFactor(s session.Session, k *big.Int, other *curve.Point) (*big.Int, error) {
	c := curve.Secp256k1()
	shared, err := c.ScalarMult(other, k)
	if err != nil {
		return nil, err
	}
	r, err := hash.ExpandToInt(shared.Bytes(), s.Context(refreshLabels.blind), c.Order())
	if err != nil {
		return nil, err
	}
	if r.Sign() == 0 {
		return nil, ErrDegenerateBlinding
	}
	return r, nil
}
