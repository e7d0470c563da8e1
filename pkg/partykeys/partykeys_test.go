package partykeys

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Caqil/tss-2p/internal/wire"
)

func TestSignVerify(t *testing.T) {
	pk, err := New()
	require.NoError(t, err)

	pub := pk.PublicKey()
	require.Len(t, pub, PublicKeySize)

	msg := []byte("keygen msg1 body")
	sig, err := pk.Sign(msg)
	require.NoError(t, err)
	require.Len(t, sig, SignatureSize)

	assert.NoError(t, Verify(pub, msg, sig))
	assert.ErrorIs(t, Verify(pub, []byte("other body"), sig), ErrVerifyFailed)

	other, err := New()
	require.NoError(t, err)
	assert.ErrorIs(t, Verify(other.PublicKey(), msg, sig), ErrVerifyFailed)
}

func TestVerifyDistinguishesMalformedInput(t *testing.T) {
	pk, err := New()
	require.NoError(t, err)
	msg := []byte("payload")
	sig, err := pk.Sign(msg)
	require.NoError(t, err)

	assert.ErrorIs(t, Verify(pk.PublicKey()[:31], msg, sig), ErrInvalidPublicKey)
	assert.ErrorIs(t, Verify(make([]byte, PublicKeySize), msg, sig), ErrInvalidPublicKey)
	assert.ErrorIs(t, Verify(pk.PublicKey(), msg, sig[:63]), ErrInvalidSignature)

	badR := append([]byte(nil), sig...)
	for i := 0; i < 32; i++ {
		badR[i] = 0xff
	}
	assert.ErrorIs(t, Verify(pk.PublicKey(), msg, badR), ErrInvalidSignature)
}

func TestBytesRoundTrip(t *testing.T) {
	pk, err := New()
	require.NoError(t, err)

	data := pk.Bytes()
	restored, err := FromBytes(data)
	require.NoError(t, err)
	assert.Equal(t, pk.PublicKey(), restored.PublicKey())

	msg := []byte("round trip")
	sig, err := restored.Sign(msg)
	require.NoError(t, err)
	assert.NoError(t, Verify(pk.PublicKey(), msg, sig))
}

func TestFromBytesRejects(t *testing.T) {
	pk, err := New()
	require.NoError(t, err)
	data := pk.Bytes()

	_, err = FromBytes(data[:len(data)-1])
	assert.ErrorIs(t, err, wire.ErrTruncated)

	_, err = FromBytes(append(append([]byte(nil), data...), 0))
	assert.ErrorIs(t, err, wire.ErrTrailingData)

	wrongKind := append([]byte(nil), data...)
	wrongKind[3] = byte(wire.KindKeyShareP1)
	_, err = FromBytes(wrongKind)
	assert.ErrorIs(t, err, wire.ErrWrongKind)

	zero := wire.NewWriter(wire.KindPartyKeys).Bytes(make([]byte, 32)).Finish()
	_, err = FromBytes(zero)
	assert.ErrorIs(t, err, ErrInvalidSecret)
}

func TestZero(t *testing.T) {
	pk, err := New()
	require.NoError(t, err)
	pk.Zero()
	assert.True(t, pk.priv.Key.IsZero())
}
