package keygen

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Caqil/tss-2p/pkg/crypto/curve"
	"github.com/Caqil/tss-2p/pkg/partykeys"
)

func keygenWith(t *testing.T, pk *partykeys.PartyKeys, sid string) (*KeyShareP1, *KeyShareP2) {
	t.Helper()
	p1, err := NewP1([]byte(sid), pk, testOptions())
	require.NoError(t, err)
	p2, err := NewP2([]byte(sid), testOptions())
	require.NoError(t, err)
	return run(t, p1, p2)
}

func jointSecret(x1, x2 *big.Int) *big.Int {
	x := new(big.Int).Mul(x1, x2)
	return x.Mod(x, curve.Secp256k1().Order())
}

func TestRefreshKeepsJointKey(t *testing.T) {
	pk, err := partykeys.New()
	require.NoError(t, err)
	s1, s2 := keygenWith(t, pk, "before-refresh")
	oldX1 := new(big.Int).Set(s1.X1)

	r1, err := NewP1Refresh([]byte("refresh"), pk, s1, testOptions())
	require.NoError(t, err)
	r2, err := NewP2Refresh([]byte("refresh"), s2, testOptions())
	require.NoError(t, err)
	n1, n2 := run(t, r1, r2)

	assert.True(t, n1.PublicKey.IsEqual(s1.PublicKey))
	assert.True(t, n2.PublicKey.IsEqual(s2.PublicKey))
	assert.Equal(t, s1.ChainCode, n1.ChainCode)
	assert.Equal(t, s2.ChainCode, n2.ChainCode)
	assert.Equal(t, s2.P1MessagePK, n2.P1MessagePK)

	assert.NotEqual(t, 0, n1.X1.Cmp(s1.X1))
	assert.NotEqual(t, 0, n2.X2.Cmp(s2.X2))
	assert.NotEqual(t, 0, n1.Paillier.N.Cmp(s1.Paillier.N))
	assert.Equal(t, 0, jointSecret(n1.X1, n2.X2).Cmp(jointSecret(s1.X1, s2.X2)))

	x1, err := n1.Paillier.Decrypt(n2.CKey)
	require.NoError(t, err)
	assert.Equal(t, 0, x1.Cmp(n1.X1))

	// old and new shares do not combine
	assert.NotEqual(t, 0, jointSecret(s1.X1, n2.X2).Cmp(jointSecret(s1.X1, s2.X2)))
	assert.NotEqual(t, 0, jointSecret(n1.X1, s2.X2).Cmp(jointSecret(s1.X1, s2.X2)))

	// the caller's shares were copied, not consumed
	assert.Equal(t, 0, s1.X1.Cmp(oldX1))
}

func TestRefreshRejectsForeignPartyKeys(t *testing.T) {
	pk, err := partykeys.New()
	require.NoError(t, err)
	other, err := partykeys.New()
	require.NoError(t, err)
	s1, s2 := keygenWith(t, pk, "pinned")

	_, err = NewP1Refresh([]byte("refresh"), other, s1, testOptions())
	assert.ErrorIs(t, err, ErrPartyKeysMismatch)
	_, err = NewP1Refresh([]byte("refresh"), pk, nil, testOptions())
	assert.ErrorIs(t, err, ErrNilKeyShare)
	_, err = NewP2Refresh([]byte("refresh"), nil, testOptions())
	assert.ErrorIs(t, err, ErrNilKeyShare)

	// a P1 holding other keys cannot drive P2's refresh
	foreign, err := NewP1([]byte("refresh"), other, testOptions())
	require.NoError(t, err)
	r2, err := NewP2Refresh([]byte("refresh"), s2, testOptions())
	require.NoError(t, err)
	msg1, err := foreign.GenMsg1()
	require.NoError(t, err)
	_, err = r2.ProcessMsg1(msg1)
	assert.ErrorIs(t, err, ErrPartyKeysMismatch)
	assert.Equal(t, "failed", r2.State())
}

func TestRefreshDoesNotMixWithKeygen(t *testing.T) {
	pk, err := partykeys.New()
	require.NoError(t, err)
	s1, _ := keygenWith(t, pk, "mix")

	r1, err := NewP1Refresh([]byte("mix-run"), pk, s1, testOptions())
	require.NoError(t, err)
	p2, err := NewP2([]byte("mix-run"), testOptions())
	require.NoError(t, err)

	msg1, err := r1.GenMsg1()
	require.NoError(t, err)
	msg2, err := p2.ProcessMsg1(msg1)
	require.NoError(t, err)
	_, err = r1.ProcessMsg2(msg2)
	assert.ErrorIs(t, err, ErrInvalidProof)
	assert.Equal(t, "failed", r1.State())
}
