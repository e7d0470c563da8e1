package hash

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscriptLengthPrefixing(t *testing.T) {
	a := NewTranscript("test").Append([]byte("ab"), []byte("c")).Sum()
	b := NewTranscript("test").Append([]byte("a"), []byte("bc")).Sum()
	assert.NotEqual(t, a, b)

	again := NewTranscript("test").Append([]byte("ab"), []byte("c")).Sum()
	assert.Equal(t, a, again)

	other := NewTranscript("other").Append([]byte("ab"), []byte("c")).Sum()
	assert.NotEqual(t, a, other)
}

func TestFiatShamirChallengeNonZero(t *testing.T) {
	c := FiatShamirChallenge([]byte{0x07}, big.NewInt(7))
	assert.Equal(t, int64(1), c.Int64())

	c = FiatShamirChallenge([]byte{0x09}, big.NewInt(7))
	assert.Equal(t, int64(2), c.Int64())
}

func TestSessionHash(t *testing.T) {
	assert.Len(t, SessionHash([]byte("run-42")), 32)
	assert.NotEqual(t, SessionHash([]byte("run-42")), SessionHash([]byte("run-43")))
}

func TestSessionContext(t *testing.T) {
	sid := []byte("run-42")
	assert.Equal(t, SessionContext(sid, "keygen/msg1"), SessionContext(sid, "keygen/msg1"))
	assert.NotEqual(t, SessionContext(sid, "keygen/msg1"), SessionContext(sid, "keygen/msg2"))
	assert.NotEqual(t, SessionContext(sid, "sign"), SessionContext([]byte("run-43"), "sign"))
	assert.NotEqual(t, SessionHash(sid), SessionContext(sid, ""))
}

func TestHKDF(t *testing.T) {
	out, err := HKDF([]byte("secret"), []byte("salt"), []byte("info"), 48)
	require.NoError(t, err)
	assert.Len(t, out, 48)

	_, err = HKDF([]byte("secret"), nil, nil, 0)
	assert.ErrorIs(t, err, ErrInvalidLength)
}

func TestExpandToInt(t *testing.T) {
	mod := new(big.Int).Lsh(big.NewInt(1), 300)
	mod.Sub(mod, big.NewInt(3))

	v1, err := ExpandToInt([]byte("seed"), []byte("i=0"), mod)
	require.NoError(t, err)
	v2, err := ExpandToInt([]byte("seed"), []byte("i=0"), mod)
	require.NoError(t, err)
	v3, err := ExpandToInt([]byte("seed"), []byte("i=1"), mod)
	require.NoError(t, err)

	assert.Equal(t, 0, v1.Cmp(v2))
	assert.NotEqual(t, 0, v1.Cmp(v3))
	assert.Equal(t, -1, v1.Cmp(mod))

	_, err = ExpandToInt([]byte("seed"), nil, big.NewInt(0))
	assert.ErrorIs(t, err, ErrInvalidModulus)
}
