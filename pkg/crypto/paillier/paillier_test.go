package paillier

import (
	"math/big"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testKeyOnce sync.Once
	testKey     *PrivateKey
)

func key(t *testing.T) *PrivateKey {
	t.Helper()
	testKeyOnce.Do(func() {
		sk, err := GenerateKey(MinBits)
		require.NoError(t, err)
		testKey = sk
	})
	return testKey
}

func TestGenerateKey(t *testing.T) {
	sk := key(t)
	assert.Equal(t, MinBits, sk.N.BitLen())
	assert.Equal(t, 0, new(big.Int).Mul(sk.P, sk.Q).Cmp(sk.N))

	_, err := GenerateKey(512)
	assert.ErrorIs(t, err, ErrInvalidKeySize)
}

func TestEncryptDecrypt(t *testing.T) {
	sk := key(t)

	for _, m := range []int64{0, 1, 42, 1 << 40} {
		c, _, err := sk.Encrypt(big.NewInt(m))
		require.NoError(t, err)
		got, err := sk.Decrypt(c)
		require.NoError(t, err)
		assert.Equal(t, m, got.Int64())
	}

	_, _, err := sk.Encrypt(sk.N)
	assert.ErrorIs(t, err, ErrMessageOutOfRange)
}

func TestHomomorphism(t *testing.T) {
	sk := key(t)
	pk := &sk.PublicKey

	c1, _, err := pk.Encrypt(big.NewInt(1000))
	require.NoError(t, err)
	c2, _, err := pk.Encrypt(big.NewInt(234))
	require.NoError(t, err)

	sum, err := pk.Add(c1, c2)
	require.NoError(t, err)
	m, err := sk.Decrypt(sum)
	require.NoError(t, err)
	assert.Equal(t, int64(1234), m.Int64())

	prod, err := pk.MulPlain(c1, big.NewInt(7))
	require.NoError(t, err)
	m, err = sk.Decrypt(prod)
	require.NoError(t, err)
	assert.Equal(t, int64(7000), m.Int64())
}

func TestValidateCiphertext(t *testing.T) {
	sk := key(t)
	assert.ErrorIs(t, sk.ValidateCiphertext(big.NewInt(0)), ErrInvalidCiphertext)
	assert.ErrorIs(t, sk.ValidateCiphertext(sk.NSquared()), ErrInvalidCiphertext)
	assert.ErrorIs(t, sk.ValidateCiphertext(sk.P), ErrInvalidCiphertext)
}

func TestNthRoot(t *testing.T) {
	sk := key(t)
	x := big.NewInt(123456789)
	y, err := sk.NthRoot(x)
	require.NoError(t, err)
	assert.Equal(t, 0, new(big.Int).Exp(y, sk.N, sk.N).Cmp(x))
}

func TestNewPrivateKeyFromFactors(t *testing.T) {
	sk := key(t)
	again, err := NewPrivateKey(sk.P, sk.Q)
	require.NoError(t, err)
	assert.Equal(t, 0, again.N.Cmp(sk.N))

	_, err = NewPrivateKey(sk.P, sk.P)
	assert.ErrorIs(t, err, ErrInvalidPrimes)
}

func TestNewPublicKey(t *testing.T) {
	sk := key(t)
	pk, err := NewPublicKey(sk.N)
	require.NoError(t, err)
	assert.Equal(t, 0, pk.NSquared().Cmp(sk.NSquared()))

	_, err = NewPublicKey(big.NewInt(15))
	assert.ErrorIs(t, err, ErrInvalidModulus)
}

func TestZeroClearsBackingWords(t *testing.T) {
	shared := key(t)
	sk, err := NewPrivateKey(shared.P, shared.Q)
	require.NoError(t, err)

	backing := [][]big.Word{sk.P.Bits(), sk.Q.Bits(), sk.phi.Bits(), sk.mu.Bits()}
	sk.Zero()

	for i, words := range backing {
		for j, w := range words {
			assert.Zero(t, w, "secret %d word %d", i, j)
		}
	}
	assert.Zero(t, sk.P.Sign())
	assert.Zero(t, sk.phi.Sign())
	assert.NotZero(t, shared.P.Sign())
}
