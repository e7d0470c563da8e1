package security

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type secretBox struct {
	data []byte
}

func (s *secretBox) Zero() { SecureZero(s.data) }

func TestSecureZero(t *testing.T) {
	data := []byte{1, 2, 3, 4}
	SecureZero(data)
	assert.Equal(t, []byte{0, 0, 0, 0}, data)

	SecureZero(nil)
}

func TestSecureZeroBigInt(t *testing.T) {
	b, ok := new(big.Int).SetString("123456789abcdef0123456789abcdef", 16)
	require.True(t, ok)
	words := b.Bits()

	SecureZeroBigInt(b)
	assert.Equal(t, 0, b.Sign())
	for _, w := range words {
		assert.Zero(t, w)
	}

	SecureZeroBigInt(nil)
}

func TestValidateSessionID(t *testing.T) {
	assert.NoError(t, ValidateSessionID([]byte("run-42"), 1024))
	assert.ErrorIs(t, ValidateSessionID(nil, 1024), ErrEmptySessionID)
	assert.ErrorIs(t, ValidateSessionID(make([]byte, 1025), 1024), ErrSessionIDTooLong)
	assert.NoError(t, ValidateSessionID(make([]byte, 1024), 1024))
}

func TestValidateDigest(t *testing.T) {
	assert.NoError(t, ValidateDigest(make([]byte, 32)))
	assert.ErrorIs(t, ValidateDigest(make([]byte, 31)), ErrInvalidDigest)
	assert.ErrorIs(t, ValidateDigest(nil), ErrInvalidDigest)
}
