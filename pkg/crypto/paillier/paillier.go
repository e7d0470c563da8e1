// Package paillier implements the Paillier additively homomorphic
// cryptosystem with generator g = N+1.
//
// P1 holds the private key; P2 holds the public key and an encryption of
// P1's key share, which it combines homomorphically during signing.
package paillier

import (
	"errors"
	"math/big"

	"github.com/Caqil/tss-2p/internal/security"
	"github.com/Caqil/tss-2p/pkg/crypto/rand"
)

// MinBits is the smallest modulus accepted anywhere
const MinBits = 1024

var one = big.NewInt(1)

// PublicKey is a Paillier public key
type PublicKey struct {
	N  *big.Int
	n2 *big.Int
}

// PrivateKey is a Paillier private key
type PrivateKey struct {
	PublicKey
	P   *big.Int
	Q   *big.Int
	phi *big.Int
	mu  *big.Int
}

// NewPublicKey builds a public key from its modulus, checking only the
// structural requirements. Whether N is well formed is established by
// zk.VerifyPaillierKey.
func NewPublicKey(n *big.Int) (*PublicKey, error) {
	if n == nil || n.BitLen() < MinBits || n.Bit(0) == 0 {
		return nil, ErrInvalidModulus
	}
	return &PublicKey{N: new(big.Int).Set(n), n2: new(big.Int).Mul(n, n)}, nil
}

// GenerateKey creates a key whose modulus is exactly bits long
func GenerateKey(bits int) (*PrivateKey, error) {
	if bits < MinBits || bits%2 != 0 {
		return nil, ErrInvalidKeySize
	}

	for {
		p, err := rand.GeneratePrime(bits / 2)
		if err != nil {
			return nil, err
		}
		q, err := rand.GeneratePrime(bits / 2)
		if err != nil {
			return nil, err
		}
		if p.Cmp(q) == 0 {
			continue
		}

		sk, err := NewPrivateKey(p, q)
		if errors.Is(err, ErrInvalidPrimes) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if sk.N.BitLen() != bits {
			continue
		}
		return sk, nil
	}
}

// NewPrivateKey rebuilds a private key from its prime factors
func NewPrivateKey(p, q *big.Int) (*PrivateKey, error) {
	if p == nil || q == nil || p.Cmp(q) == 0 || p.Cmp(one) <= 0 || q.Cmp(one) <= 0 {
		return nil, ErrInvalidPrimes
	}

	n := new(big.Int).Mul(p, q)
	pm1 := new(big.Int).Sub(p, one)
	qm1 := new(big.Int).Sub(q, one)
	phi := new(big.Int).Mul(pm1, qm1)

	// gcd(N, phi(N)) = 1 is what makes g = N+1 a valid generator and
	// N-th roots unique; it rules out p | q-1 and q | p-1.
	if new(big.Int).GCD(nil, nil, n, phi).Cmp(one) != 0 {
		return nil, ErrInvalidPrimes
	}

	mu := new(big.Int).ModInverse(phi, n)
	if mu == nil {
		return nil, ErrInvalidPrimes
	}

	return &PrivateKey{
		PublicKey: PublicKey{N: n, n2: new(big.Int).Mul(n, n)},
		P:         new(big.Int).Set(p),
		Q:         new(big.Int).Set(q),
		phi:       phi,
		mu:        mu,
	}, nil
}

// NSquared returns N^2
func (pk *PublicKey) NSquared() *big.Int {
	return new(big.Int).Set(pk.n2)
}

// Encrypt encrypts m in [0, N) with a fresh nonce and returns the nonce too
func (pk *PublicKey) Encrypt(m *big.Int) (c, r *big.Int, err error) {
	r, err = rand.GenerateUnit(pk.N)
	if err != nil {
		return nil, nil, err
	}
	c, err = pk.EncryptWithNonce(m, r)
	if err != nil {
		return nil, nil, err
	}
	return c, r, nil
}

// EncryptWithNonce computes (1+N)^m * r^N mod N^2
func (pk *PublicKey) EncryptWithNonce(m, r *big.Int) (*big.Int, error) {
	if m == nil || m.Sign() < 0 || m.Cmp(pk.N) >= 0 {
		return nil, ErrMessageOutOfRange
	}
	if r == nil || r.Sign() <= 0 || r.Cmp(pk.N) >= 0 {
		return nil, ErrInvalidNonce
	}

	// (1+N)^m = 1 + m*N mod N^2
	gm := new(big.Int).Mul(m, pk.N)
	gm.Add(gm, one)
	gm.Mod(gm, pk.n2)

	rn := new(big.Int).Exp(r, pk.N, pk.n2)
	return gm.Mul(gm, rn).Mod(gm, pk.n2), nil
}

// ValidateCiphertext checks that c is a unit modulo N^2
func (pk *PublicKey) ValidateCiphertext(c *big.Int) error {
	if c == nil || c.Sign() <= 0 || c.Cmp(pk.n2) >= 0 {
		return ErrInvalidCiphertext
	}
	if new(big.Int).GCD(nil, nil, c, pk.N).Cmp(one) != 0 {
		return ErrInvalidCiphertext
	}
	return nil
}

// Add returns an encryption of m1+m2 given encryptions of m1 and m2
func (pk *PublicKey) Add(c1, c2 *big.Int) (*big.Int, error) {
	if err := pk.ValidateCiphertext(c1); err != nil {
		return nil, err
	}
	if err := pk.ValidateCiphertext(c2); err != nil {
		return nil, err
	}
	out := new(big.Int).Mul(c1, c2)
	return out.Mod(out, pk.n2), nil
}

// MulPlain returns an encryption of k*m given an encryption of m
func (pk *PublicKey) MulPlain(c, k *big.Int) (*big.Int, error) {
	if err := pk.ValidateCiphertext(c); err != nil {
		return nil, err
	}
	if k == nil || k.Sign() < 0 {
		return nil, ErrMessageOutOfRange
	}
	return new(big.Int).Exp(c, k, pk.n2), nil
}

// Decrypt recovers the plaintext of c
func (sk *PrivateKey) Decrypt(c *big.Int) (*big.Int, error) {
	if err := sk.ValidateCiphertext(c); err != nil {
		return nil, err
	}

	// m = L(c^phi mod N^2) * mu mod N, L(x) = (x-1)/N
	x := new(big.Int).Exp(c, sk.phi, sk.n2)
	x.Sub(x, one)
	x.Div(x, sk.N)
	x.Mul(x, sk.mu)
	return x.Mod(x, sk.N), nil
}

// NthRoot returns the unique y with y^N = x mod N, for x a unit mod N
func (sk *PrivateKey) NthRoot(x *big.Int) (*big.Int, error) {
	if x == nil || x.Sign() <= 0 || x.Cmp(sk.N) >= 0 {
		return nil, ErrMessageOutOfRange
	}
	d := new(big.Int).ModInverse(sk.N, sk.phi)
	if d == nil {
		return nil, ErrInvalidPrimes
	}
	return new(big.Int).Exp(x, d, sk.N), nil
}

// Zero overwrites the secret factors
func (sk *PrivateKey) Zero() {
	for _, v := range []*big.Int{sk.P, sk.Q, sk.phi, sk.mu} {
		security.SecureZeroBigInt(v)
	}
}
