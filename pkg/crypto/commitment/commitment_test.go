package commitment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashCommitmentOpens(t *testing.T) {
	hc, err := NewHashCommitment([]byte("R1 point"), []byte("sid|sign/msg1"))
	require.NoError(t, err)
	require.Len(t, hc.Commitment, Size)
	require.Len(t, hc.Nonce, NonceSize)

	assert.True(t, hc.Verify())
	assert.True(t, VerifyHashCommitment(hc.Commitment, hc.Value, hc.Nonce, hc.Context))
}

func TestHashCommitmentBinding(t *testing.T) {
	hc, err := NewHashCommitment([]byte("value"), []byte("ctx"))
	require.NoError(t, err)

	tests := []struct {
		name    string
		value   []byte
		nonce   []byte
		context []byte
	}{
		{"other value", []byte("valuf"), hc.Nonce, hc.Context},
		{"other context", hc.Value, hc.Nonce, []byte("ctx2")},
		{"short nonce", hc.Value, hc.Nonce[:16], hc.Context},
		{"empty value", nil, hc.Nonce, hc.Context},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, VerifyHashCommitment(hc.Commitment, tt.value, tt.nonce, tt.context))
		})
	}

	other := append([]byte(nil), hc.Nonce...)
	other[0] ^= 1
	assert.False(t, VerifyHashCommitment(hc.Commitment, hc.Value, other, hc.Context))
}

func TestHashCommitmentHiding(t *testing.T) {
	a, err := NewHashCommitment([]byte("same"), nil)
	require.NoError(t, err)
	b, err := NewHashCommitment([]byte("same"), nil)
	require.NoError(t, err)
	assert.NotEqual(t, a.Commitment, b.Commitment)

	_, err = NewHashCommitment(nil, nil)
	assert.ErrorIs(t, err, ErrEmptyValue)
}
