package zk

import (
	"math/big"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Caqil/tss-2p/pkg/crypto/curve"
	"github.com/Caqil/tss-2p/pkg/crypto/paillier"
	"github.com/Caqil/tss-2p/pkg/crypto/rand"
)

var (
	testKeyOnce sync.Once
	testKey     *paillier.PrivateKey
)

func paillierKey(t *testing.T) *paillier.PrivateKey {
	t.Helper()
	testKeyOnce.Do(func() {
		var err error
		testKey, err = paillier.GenerateKey(1024)
		require.NoError(t, err)
	})
	require.NotNil(t, testKey)
	return testKey
}

func randomKeyPair(t *testing.T) (*big.Int, *curve.Point) {
	t.Helper()
	c := curve.Secp256k1()
	x, err := rand.GenerateRandomScalar(c.Order())
	require.NoError(t, err)
	q, err := c.ScalarBaseMult(x)
	require.NoError(t, err)
	return x, q
}

func TestSchnorrProof(t *testing.T) {
	x, q := randomKeyPair(t)
	ctx := []byte("sid|keygen/msg1")

	proof, err := ProveSchnorr(x, q, ctx)
	require.NoError(t, err)
	assert.True(t, proof.Verify(q, ctx))

	t.Run("wrong context", func(t *testing.T) {
		assert.False(t, proof.Verify(q, []byte("sid|keygen/msg2")))
	})

	t.Run("wrong point", func(t *testing.T) {
		_, other := randomKeyPair(t)
		assert.False(t, proof.Verify(other, ctx))
	})

	t.Run("encoding round trip", func(t *testing.T) {
		data := proof.Bytes()
		require.Len(t, data, SchnorrProofSize)
		parsed, err := ParseSchnorrProof(data)
		require.NoError(t, err)
		assert.True(t, parsed.Verify(q, ctx))

		data[len(data)-1] ^= 1
		tampered, err := ParseSchnorrProof(data)
		if err == nil {
			assert.False(t, tampered.Verify(q, ctx))
		}

		_, err = ParseSchnorrProof(data[:40])
		assert.ErrorIs(t, err, ErrMalformedProof)
	})

	t.Run("invalid witness", func(t *testing.T) {
		_, other := randomKeyPair(t)
		_, err := ProveSchnorr(x, other, ctx)
		assert.ErrorIs(t, err, ErrInvalidWitness)
	})

	t.Run("nil inputs", func(t *testing.T) {
		_, err := ProveSchnorr(nil, q, ctx)
		assert.ErrorIs(t, err, ErrNilSecret)
		_, err = ProveSchnorr(x, nil, ctx)
		assert.ErrorIs(t, err, ErrNilPublicPoint)
		var nilProof *SchnorrProof
		assert.False(t, nilProof.Verify(q, ctx))
	})
}

func TestPaillierKeyProof(t *testing.T) {
	sk := paillierKey(t)
	ctx := []byte("sid|keygen/msg3")

	proof, err := ProvePaillierKey(sk, ctx)
	require.NoError(t, err)
	require.Len(t, proof.Sigmas, PaillierKeyRounds)
	require.NoError(t, VerifyPaillierKey(sk.N, proof, 1024, ctx))

	t.Run("wrong context", func(t *testing.T) {
		assert.ErrorIs(t, VerifyPaillierKey(sk.N, proof, 1024, []byte("other")), ErrInvalidProof)
	})

	t.Run("modulus too small for policy", func(t *testing.T) {
		assert.ErrorIs(t, VerifyPaillierKey(sk.N, proof, 2048, ctx), ErrWeakModulus)
	})

	t.Run("small factor", func(t *testing.T) {
		n := new(big.Int).Mul(sk.N, big.NewInt(3))
		assert.ErrorIs(t, VerifyPaillierKey(n, proof, 1024, ctx), ErrWeakModulus)
	})

	t.Run("tampered root", func(t *testing.T) {
		bad := &PaillierKeyProof{Sigmas: append([]*big.Int(nil), proof.Sigmas...)}
		bad.Sigmas[3] = new(big.Int).Add(bad.Sigmas[3], big.NewInt(1))
		assert.ErrorIs(t, VerifyPaillierKey(sk.N, bad, 1024, ctx), ErrInvalidProof)
	})

	t.Run("truncated", func(t *testing.T) {
		bad := &PaillierKeyProof{Sigmas: proof.Sigmas[:PaillierKeyRounds-1]}
		assert.ErrorIs(t, VerifyPaillierKey(sk.N, bad, 1024, ctx), ErrInvalidProof)
	})
}

func TestEncDLogProof(t *testing.T) {
	sk := paillierKey(t)
	pk := &sk.PublicKey
	x, q := randomKeyPair(t)
	ctx := []byte("sid|keygen/msg3")

	ciphertext, nonce, err := pk.Encrypt(x)
	require.NoError(t, err)

	proof, err := ProveEncDLog(pk, ciphertext, nonce, x, q, ctx)
	require.NoError(t, err)
	assert.True(t, proof.Verify(pk, ciphertext, q, ctx))

	t.Run("wrong context", func(t *testing.T) {
		assert.False(t, proof.Verify(pk, ciphertext, q, []byte("other")))
	})

	t.Run("ciphertext of another value", func(t *testing.T) {
		other, _, err := pk.Encrypt(big.NewInt(7))
		require.NoError(t, err)
		assert.False(t, proof.Verify(pk, other, q, ctx))
	})

	t.Run("point of another value", func(t *testing.T) {
		_, other := randomKeyPair(t)
		assert.False(t, proof.Verify(pk, ciphertext, other, ctx))
	})

	t.Run("oversized response", func(t *testing.T) {
		bad := *proof
		bad.Z1 = new(big.Int).Lsh(big.NewInt(1), 600)
		assert.False(t, bad.Verify(pk, ciphertext, q, ctx))
	})

	t.Run("nil inputs", func(t *testing.T) {
		_, err := ProveEncDLog(pk, ciphertext, nil, x, q, ctx)
		assert.ErrorIs(t, err, ErrNilSecret)
		_, err = ProveEncDLog(pk, ciphertext, nonce, x, nil, ctx)
		assert.ErrorIs(t, err, ErrNilPublicPoint)
		var nilProof *EncDLogProof
		assert.False(t, nilProof.Verify(pk, ciphertext, q, ctx))
	})
}

func TestHasSmallFactor(t *testing.T) {
	assert.True(t, hasSmallFactor(big.NewInt(6361*6367)))
	assert.False(t, hasSmallFactor(big.NewInt(6373*6379)))
}
