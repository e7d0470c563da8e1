package signing

import (
	"crypto/sha256"
	"sync"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Caqil/tss-2p/pkg/keygen"
	"github.com/Caqil/tss-2p/pkg/partykeys"
)

var (
	sharesOnce sync.Once
	testShare1 *keygen.KeyShareP1
	testShare2 *keygen.KeyShareP2
)

func shares(t *testing.T) (*keygen.KeyShareP1, *keygen.KeyShareP2) {
	t.Helper()
	sharesOnce.Do(func() {
		opts := keygen.Options{PaillierBits: 1024, MinPaillierBits: 1024, MaxSessionIDLen: 1024}
		pk, err := partykeys.New()
		require.NoError(t, err)
		p1, err := keygen.NewP1([]byte("signing-tests"), pk, opts)
		require.NoError(t, err)
		p2, err := keygen.NewP2([]byte("signing-tests"), opts)
		require.NoError(t, err)

		msg1, err := p1.GenMsg1()
		require.NoError(t, err)
		msg2, err := p2.ProcessMsg1(msg1)
		require.NoError(t, err)
		msg3, err := p1.ProcessMsg2(msg2)
		require.NoError(t, err)
		require.NoError(t, p2.ProcessMsg3(msg3))

		testShare1, err = p1.Finalize()
		require.NoError(t, err)
		testShare2, err = p2.Finalize()
		require.NoError(t, err)
	})
	require.NotNil(t, testShare1)
	return testShare1, testShare2
}

func digest(s string) []byte {
	d := sha256.Sum256([]byte(s))
	return d[:]
}

type signers struct {
	p1 *P1
	p2 *P2
}

func newSigners(t *testing.T, sid string, d []byte, path string) signers {
	t.Helper()
	s1, s2 := shares(t)
	p1, err := NewP1([]byte(sid), s1, d, path, DefaultOptions())
	require.NoError(t, err)
	p2, err := NewP2([]byte(sid), s2, d, path, DefaultOptions())
	require.NoError(t, err)
	return signers{p1: p1, p2: p2}
}

func (s signers) run(t *testing.T) (*Signature, *Signature) {
	t.Helper()
	msg1, err := s.p1.GenMsg1()
	require.NoError(t, err)
	msg2, err := s.p2.ProcessMsg1(msg1)
	require.NoError(t, err)
	msg3, err := s.p1.ProcessMsg2(msg2)
	require.NoError(t, err)
	msg4, err := s.p2.ProcessMsg3(msg3)
	require.NoError(t, err)
	msg5, err := s.p1.ProcessMsg4(msg4)
	require.NoError(t, err)
	sig1, err := s.p1.Finalize()
	require.NoError(t, err)
	sig2, err := s.p2.ProcessMsg5(msg5)
	require.NoError(t, err)
	return sig1, sig2
}

func TestSignAndVerify(t *testing.T) {
	s1, _ := shares(t)
	d := digest("hello")
	sig1, sig2 := newSigners(t, "sign-1", d, "").run(t)

	assert.Equal(t, sig1.Bytes(), sig2.Bytes())
	assert.True(t, sig1.IsLowS())
	assert.True(t, Verify(s1.PublicKeyBytes(), d, sig1.Bytes()))
	assert.False(t, Verify(s1.PublicKeyBytes(), digest("bye"), sig1.Bytes()))

	// independent verifier
	pub, err := btcec.ParsePubKey(s1.PublicKeyBytes())
	require.NoError(t, err)
	var r, s btcec.ModNScalar
	r.SetByteSlice(sig1.Bytes()[:32])
	s.SetByteSlice(sig1.Bytes()[32:])
	assert.True(t, ecdsa.NewSignature(&r, &s).Verify(d, pub))

	other, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	assert.False(t, Verify(other.PubKey().SerializeCompressed(), d, sig1.Bytes()))
}

func TestSignWithDerivationPath(t *testing.T) {
	s1, _ := shares(t)
	d := digest("derived")
	ss := newSigners(t, "sign-path", d, "m/0/1")
	sig, _ := ss.run(t)

	child, err := s1.DerivePublicKey([]uint32{0, 1})
	require.NoError(t, err)
	assert.True(t, ss.p1.PublicKey().IsEqual(child))
	assert.True(t, Verify(child.Bytes(), d, sig.Bytes()))
	assert.False(t, Verify(s1.PublicKeyBytes(), d, sig.Bytes()))
}

func TestSharesReusable(t *testing.T) {
	s1, _ := shares(t)
	for i, msg := range []string{"a", "b"} {
		d := digest(msg)
		sig, _ := newSigners(t, "reuse-"+msg, d, "").run(t)
		assert.True(t, Verify(s1.PublicKeyBytes(), d, sig.Bytes()), "run %d", i)
	}
}

func TestDigestMismatch(t *testing.T) {
	s1, s2 := shares(t)
	p1, err := NewP1([]byte("mismatch"), s1, digest("one"), "", DefaultOptions())
	require.NoError(t, err)
	p2, err := NewP2([]byte("mismatch"), s2, digest("two"), "", DefaultOptions())
	require.NoError(t, err)

	msg1, err := p1.GenMsg1()
	require.NoError(t, err)
	_, err = p2.ProcessMsg1(msg1)
	assert.ErrorIs(t, err, ErrDigestMismatch)
	assert.Equal(t, "failed", p2.State())
}

func TestPathMismatch(t *testing.T) {
	s1, s2 := shares(t)
	d := digest("path")
	p1, err := NewP1([]byte("path-mismatch"), s1, d, "m/0", DefaultOptions())
	require.NoError(t, err)
	p2, err := NewP2([]byte("path-mismatch"), s2, d, "m/1", DefaultOptions())
	require.NoError(t, err)

	msg1, err := p1.GenMsg1()
	require.NoError(t, err)
	_, err = p2.ProcessMsg1(msg1)
	assert.ErrorIs(t, err, ErrPathMismatch)
}

func TestSessionMismatch(t *testing.T) {
	s1, s2 := shares(t)
	d := digest("sid")
	p1, err := NewP1([]byte("run-42"), s1, d, "", DefaultOptions())
	require.NoError(t, err)
	p2, err := NewP2([]byte("run-43"), s2, d, "", DefaultOptions())
	require.NoError(t, err)

	msg1, err := p1.GenMsg1()
	require.NoError(t, err)
	_, err = p2.ProcessMsg1(msg1)
	assert.ErrorIs(t, err, ErrSessionMismatch)
}

func TestNewSignerValidation(t *testing.T) {
	s1, s2 := shares(t)

	_, err := NewP1([]byte("x"), s1, make([]byte, 31), "", DefaultOptions())
	assert.ErrorIs(t, err, ErrInvalidDigest)
	_, err = NewP2([]byte("x"), s2, nil, "", DefaultOptions())
	assert.ErrorIs(t, err, ErrInvalidDigest)
	_, err = NewP1([]byte("x"), s1, digest("x"), "m/0'", DefaultOptions())
	assert.ErrorIs(t, err, ErrInvalidPath)
	_, err = NewP2([]byte(""), s2, digest("x"), "", DefaultOptions())
	assert.ErrorIs(t, err, ErrInvalidSessionID)
	_, err = NewP1([]byte("x"), nil, digest("x"), "", DefaultOptions())
	assert.ErrorIs(t, err, ErrNilKeyShare)
}

func TestSigningOrdering(t *testing.T) {
	ss := newSigners(t, "order", digest("order"), "")

	_, err := ss.p1.ProcessMsg2(nil)
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = ss.p1.ProcessMsg4(nil)
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = ss.p1.Finalize()
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = ss.p2.ProcessMsg3(nil)
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = ss.p2.ProcessMsg5(nil)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, "init", ss.p1.State())

	msg1, err := ss.p1.GenMsg1()
	require.NoError(t, err)
	_, err = ss.p1.GenMsg1()
	assert.ErrorIs(t, err, ErrInvalidState)

	msg2, err := ss.p2.ProcessMsg1(msg1)
	require.NoError(t, err)
	msg3, err := ss.p1.ProcessMsg2(msg2)
	require.NoError(t, err)
	assert.Equal(t, "awaiting-msg4", ss.p1.State())
	_, err = ss.p1.Finalize()
	assert.ErrorIs(t, err, ErrInvalidState)

	msg4, err := ss.p2.ProcessMsg3(msg3)
	require.NoError(t, err)
	assert.Equal(t, "awaiting-msg5", ss.p2.State())
	_, err = ss.p1.ProcessMsg4(msg4)
	require.NoError(t, err)
	assert.Equal(t, "ready", ss.p1.State())
}

func TestTamperedMessages(t *testing.T) {
	t.Run("msg3 commitment", func(t *testing.T) {
		ss := newSigners(t, "tamper-msg3", digest("t3"), "")
		msg1, err := ss.p1.GenMsg1()
		require.NoError(t, err)
		msg2, err := ss.p2.ProcessMsg1(msg1)
		require.NoError(t, err)
		msg3, err := ss.p1.ProcessMsg2(msg2)
		require.NoError(t, err)

		m, err := UnmarshalMsg3(msg3)
		require.NoError(t, err)
		m.Nonce[0] ^= 1
		bad, err := m.MarshalBinary()
		require.NoError(t, err)

		_, err = ss.p2.ProcessMsg3(bad)
		assert.ErrorIs(t, err, ErrPartySignature)

		reason, err := ss.p2.ErrorMessage()
		require.NoError(t, err)
		assert.Contains(t, reason, "party signature")
	})

	t.Run("msg4 ciphertext", func(t *testing.T) {
		s1, _ := shares(t)
		ss := newSigners(t, "tamper-msg4", digest("t4"), "")
		msg1, err := ss.p1.GenMsg1()
		require.NoError(t, err)
		msg2, err := ss.p2.ProcessMsg1(msg1)
		require.NoError(t, err)
		msg3, err := ss.p1.ProcessMsg2(msg2)
		require.NoError(t, err)
		msg4, err := ss.p2.ProcessMsg3(msg3)
		require.NoError(t, err)

		m, err := UnmarshalMsg4(msg4)
		require.NoError(t, err)
		m.C3, err = s1.Paillier.Add(m.C3, m.C3)
		require.NoError(t, err)
		bad, err := m.MarshalBinary()
		require.NoError(t, err)

		_, err = ss.p1.ProcessMsg4(bad)
		assert.ErrorIs(t, err, ErrInvalidSignature)
		assert.Equal(t, "failed", ss.p1.State())
		_, err = ss.p1.Finalize()
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("msg5 from someone else", func(t *testing.T) {
		ss := newSigners(t, "tamper-msg5", digest("t5"), "")
		msg1, err := ss.p1.GenMsg1()
		require.NoError(t, err)
		msg2, err := ss.p2.ProcessMsg1(msg1)
		require.NoError(t, err)
		msg3, err := ss.p1.ProcessMsg2(msg2)
		require.NoError(t, err)
		msg4, err := ss.p2.ProcessMsg3(msg3)
		require.NoError(t, err)
		msg5, err := ss.p1.ProcessMsg4(msg4)
		require.NoError(t, err)

		m, err := UnmarshalMsg5(msg5)
		require.NoError(t, err)
		intruder, err := partykeys.New()
		require.NoError(t, err)
		m.Signature, err = intruder.Sign(m.body().Finish())
		require.NoError(t, err)
		bad, err := m.MarshalBinary()
		require.NoError(t, err)

		_, err = ss.p2.ProcessMsg5(bad)
		assert.ErrorIs(t, err, ErrPartySignature)
	})
}

func TestSignatureEncoding(t *testing.T) {
	_, err := SignatureFromBytes(make([]byte, 63))
	assert.ErrorIs(t, err, ErrInvalidSignature)
	_, err = SignatureFromBytes(make([]byte, 64))
	assert.ErrorIs(t, err, ErrInvalidSignature)

	assert.False(t, Verify([]byte{2}, digest("x"), make([]byte, 64)))
	assert.False(t, VerifySignature(nil, digest("x"), nil))
}

func TestZeroSigner(t *testing.T) {
	ss := newSigners(t, "zero", digest("zero"), "")
	_, err := ss.p1.GenMsg1()
	require.NoError(t, err)
	ss.p1.Zero()
	ss.p2.Zero()
	_, err = ss.p1.ProcessMsg2(nil)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, "finalized", ss.p2.State())

	// the caller's share is untouched
	s1, _ := shares(t)
	assert.NotZero(t, s1.X1.Sign())
}
