package zk

import (
	"encoding/binary"
	"math/big"
	"sync"

	"github.com/Caqil/tss-2p/internal/security"
	"github.com/Caqil/tss-2p/pkg/crypto/curve"
	"github.com/Caqil/tss-2p/pkg/crypto/hash"
	"github.com/Caqil/tss-2p/pkg/crypto/paillier"
	"github.com/Caqil/tss-2p/pkg/crypto/rand"
)

const (
	// PaillierKeyRounds is the number of N-th roots in a PaillierKeyProof
	PaillierKeyRounds = 11

	// smallPrimeBound is the trial-division bound paired with
	// PaillierKeyRounds; together they give soundness error below 2^-128
	smallPrimeBound = 6370

	// ChallengeBits is the challenge length of EncDLogProof
	ChallengeBits = 128

	// SlackBits is the statistical hiding parameter of EncDLogProof
	SlackBits = 128
)

var one = big.NewInt(1)

// PaillierKeyProof shows that gcd(N, phi(N)) = 1 by exhibiting N-th roots
// of values the prover cannot choose
type PaillierKeyProof struct {
	Sigmas []*big.Int
}

// ProvePaillierKey produces a PaillierKeyProof for sk
func ProvePaillierKey(sk *paillier.PrivateKey, context []byte) (*PaillierKeyProof, error) {
	rhos, err := paillierKeyChallenges(sk.N, context)
	if err != nil {
		return nil, err
	}

	sigmas := make([]*big.Int, len(rhos))
	for i, rho := range rhos {
		sigma, err := sk.NthRoot(rho)
		if err != nil {
			return nil, err
		}
		sigmas[i] = sigma
	}
	return &PaillierKeyProof{Sigmas: sigmas}, nil
}

// VerifyPaillierKey checks the proof and the public properties of N
func VerifyPaillierKey(n *big.Int, proof *PaillierKeyProof, minBits int, context []byte) error {
	if n == nil || n.BitLen() < minBits || n.Bit(0) == 0 {
		return ErrWeakModulus
	}
	if hasSmallFactor(n) {
		return ErrWeakModulus
	}
	if proof == nil || len(proof.Sigmas) != PaillierKeyRounds {
		return ErrInvalidProof
	}

	rhos, err := paillierKeyChallenges(n, context)
	if err != nil {
		return ErrInvalidProof
	}

	for i, rho := range rhos {
		sigma := proof.Sigmas[i]
		if sigma == nil || sigma.Sign() <= 0 || sigma.Cmp(n) >= 0 {
			return ErrInvalidProof
		}
		if new(big.Int).Exp(sigma, n, n).Cmp(rho) != 0 {
			return ErrInvalidProof
		}
	}
	return nil
}

func paillierKeyChallenges(n *big.Int, context []byte) ([]*big.Int, error) {
	seed := hash.NewTranscript("zk/paillier-key").AppendInt(n).Append(context).Sum()

	rhos := make([]*big.Int, PaillierKeyRounds)
	var info [4]byte
	gcd := new(big.Int)
	for i := range rhos {
		binary.BigEndian.PutUint32(info[:], uint32(i))
		rho, err := hash.ExpandToInt(seed, info[:], n)
		if err != nil {
			return nil, err
		}
		if rho.Sign() == 0 || gcd.GCD(nil, nil, rho, n).Cmp(one) != 0 {
			return nil, ErrWeakModulus
		}
		rhos[i] = rho
	}
	return rhos, nil
}

var (
	smallPrimesOnce sync.Once
	smallPrimes     []*big.Int
)

func hasSmallFactor(n *big.Int) bool {
	smallPrimesOnce.Do(func() {
		sieve := make([]bool, smallPrimeBound)
		for i := 2; i < smallPrimeBound; i++ {
			if sieve[i] {
				continue
			}
			smallPrimes = append(smallPrimes, big.NewInt(int64(i)))
			for j := i * i; j < smallPrimeBound; j += i {
				sieve[j] = true
			}
		}
	})

	r := new(big.Int)
	for _, p := range smallPrimes {
		if r.Mod(n, p).Sign() == 0 {
			return true
		}
	}
	return false
}

// EncDLogProof shows that a Paillier ciphertext C encrypts the discrete log
// of a curve point Q, with the plaintext bounded by q*2^(ChallengeBits+SlackBits+1).
type EncDLogProof struct {
	A  *big.Int     // (1+N)^alpha * beta^N mod N^2
	B  *curve.Point // alpha*G
	Z1 *big.Int     // alpha + e*x over the integers
	Z2 *big.Int     // beta * r^e mod N
}

// ProveEncDLog proves C = Enc(x; r) and Q = x*G
func ProveEncDLog(pk *paillier.PublicKey, ciphertext, nonce, x *big.Int, q *curve.Point, context []byte) (*EncDLogProof, error) {
	if x == nil || nonce == nil {
		return nil, ErrNilSecret
	}
	if q == nil {
		return nil, ErrNilPublicPoint
	}

	c := curve.Secp256k1()
	order := c.Order()
	alphaBound := new(big.Int).Lsh(order, ChallengeBits+SlackBits)

	var (
		alpha *big.Int
		b     *curve.Point
		err   error
	)
	for b == nil {
		alpha, err = rand.GenerateBelow(alphaBound)
		if err != nil {
			return nil, err
		}
		b, err = c.ScalarBaseMult(alpha)
		if err != nil {
			b = nil
		}
	}
	defer security.SecureZeroBigInt(alpha)

	beta, err := rand.GenerateUnit(pk.N)
	if err != nil {
		return nil, err
	}
	defer security.SecureZeroBigInt(beta)

	a, err := pk.EncryptWithNonce(alpha, beta)
	if err != nil {
		return nil, err
	}

	e := encDLogChallenge(pk.N, ciphertext, q, a, b, context)

	z1 := new(big.Int).Mul(e, x)
	z1.Add(z1, alpha)

	z2 := new(big.Int).Exp(nonce, e, pk.N)
	z2.Mul(z2, beta)
	z2.Mod(z2, pk.N)

	return &EncDLogProof{A: a, B: b, Z1: z1, Z2: z2}, nil
}

// Verify checks the proof against ciphertext and point
func (p *EncDLogProof) Verify(pk *paillier.PublicKey, ciphertext *big.Int, q *curve.Point, context []byte) bool {
	if p == nil || p.A == nil || p.B == nil || p.Z1 == nil || p.Z2 == nil || q == nil {
		return false
	}

	c := curve.Secp256k1()
	if !c.IsOnCurve(p.B) || !c.IsOnCurve(q) {
		return false
	}
	if pk.ValidateCiphertext(p.A) != nil || pk.ValidateCiphertext(ciphertext) != nil {
		return false
	}

	bound := new(big.Int).Lsh(c.Order(), ChallengeBits+SlackBits+1)
	if p.Z1.Sign() < 0 || p.Z1.Cmp(bound) >= 0 {
		return false
	}
	if p.Z2.Sign() <= 0 || p.Z2.Cmp(pk.N) >= 0 || new(big.Int).GCD(nil, nil, p.Z2, pk.N).Cmp(one) != 0 {
		return false
	}

	e := encDLogChallenge(pk.N, ciphertext, q, p.A, p.B, context)
	n2 := pk.NSquared()

	// (1+N)^z1 * z2^N == A * C^e  (mod N^2)
	lhs := new(big.Int).Mul(p.Z1, pk.N)
	lhs.Add(lhs, one)
	lhs.Mod(lhs, n2)
	lhs.Mul(lhs, new(big.Int).Exp(p.Z2, pk.N, n2))
	lhs.Mod(lhs, n2)

	rhs := new(big.Int).Exp(ciphertext, e, n2)
	rhs.Mul(rhs, p.A)
	rhs.Mod(rhs, n2)

	if lhs.Cmp(rhs) != 0 {
		return false
	}

	// z1*G == B + e*Q
	zG, err := c.ScalarBaseMult(p.Z1)
	if err != nil {
		return false
	}
	eQ, err := c.ScalarMult(q, e)
	if err != nil {
		return false
	}
	expected, err := c.Add(p.B, eQ)
	if err != nil {
		return false
	}
	return zG.IsEqual(expected)
}

func encDLogChallenge(n, ciphertext *big.Int, q *curve.Point, a *big.Int, b *curve.Point, context []byte) *big.Int {
	digest := hash.NewTranscript("zk/enc-dlog").
		AppendInt(n, ciphertext, a).
		Append(q.Bytes(), b.Bytes(), context).
		Sum()
	e := new(big.Int).SetBytes(digest[:ChallengeBits/8])
	if e.Sign() == 0 {
		e.SetInt64(1)
	}
	return e
}
