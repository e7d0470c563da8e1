package keygen

import (
	"fmt"
	"math/big"

	"github.com/Caqil/tss-2p/internal/session"
	"github.com/Caqil/tss-2p/internal/wire"
	"github.com/Caqil/tss-2p/pkg/crypto/commitment"
	"github.com/Caqil/tss-2p/pkg/crypto/curve"
	"github.com/Caqil/tss-2p/pkg/partykeys"
	"github.com/Caqil/tss-2p/pkg/zk"
)

// Msg1 is P1's commitment to its public share
type Msg1 struct {
	SessionHash []byte
	Commitment  []byte
	MessagePK   []byte
	Signature   []byte
}

// Msg2 is P2's public share with its proof
type Msg2 struct {
	SessionHash []byte
	Q2          *curve.Point
	Proof       *zk.SchnorrProof
	ChainSeed   []byte
}

// Msg3 opens P1's commitment and delivers the Paillier material
type Msg3 struct {
	SessionHash []byte
	Q1          *curve.Point
	Proof       *zk.SchnorrProof
	ChainSeed   []byte
	Nonce       []byte
	N           *big.Int
	CKey        *big.Int
	KeyProof    *zk.PaillierKeyProof
	EncProof    *zk.EncDLogProof
	Signature   []byte
}

const (
	msg1Fields = 4
	msg2Fields = 4
	msg3Fields = 7 + 1 + zk.PaillierKeyRounds + 4 + 1
)

func (m *Msg1) body() *wire.Writer {
	return wire.NewWriter(wire.KindKeygenMsg1).
		Bytes(m.SessionHash).
		Bytes(m.Commitment).
		Bytes(m.MessagePK)
}

// sign fills Signature using P1's party keys
func (m *Msg1) sign(pk *partykeys.PartyKeys) (err error) {
	m.Signature, err = pk.Sign(m.body().Finish())
	return err
}

// verify checks the signature against the embedded message key
func (m *Msg1) verify() error {
	if err := partykeys.Verify(m.MessagePK, m.body().Finish(), m.Signature); err != nil {
		return fmt.Errorf("%w: %v", ErrPartySignature, err)
	}
	return nil
}

// MarshalBinary encodes the message
func (m *Msg1) MarshalBinary() ([]byte, error) {
	return m.body().Bytes(m.Signature).Finish(), nil
}

// UnmarshalMsg1 decodes msg1
func UnmarshalMsg1(data []byte) (*Msg1, error) {
	r, err := wire.Decode(data, wire.KindKeygenMsg1, msg1Fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	m := &Msg1{
		SessionHash: r.Fixed(session.HashSize),
		Commitment:  r.Fixed(commitment.Size),
		MessagePK:   r.Fixed(partykeys.PublicKeySize),
		Signature:   r.Fixed(partykeys.SignatureSize),
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	return m, nil
}

// MarshalBinary encodes the message
func (m *Msg2) MarshalBinary() ([]byte, error) {
	return wire.NewWriter(wire.KindKeygenMsg2).
		Bytes(m.SessionHash).
		Bytes(m.Q2.Bytes()).
		Bytes(m.Proof.Bytes()).
		Bytes(m.ChainSeed).
		Finish(), nil
}

// UnmarshalMsg2 decodes msg2
func UnmarshalMsg2(data []byte) (*Msg2, error) {
	r, err := wire.Decode(data, wire.KindKeygenMsg2, msg2Fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	sidHash := r.Fixed(session.HashSize)
	q2Bytes := r.Fixed(curve.PointSize)
	proofBytes := r.Fixed(zk.SchnorrProofSize)
	seed := r.Fixed(chainSeedSize)
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	q2, err := curve.Secp256k1().Unmarshal(q2Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: Q2: %v", ErrMalformedMessage, err)
	}
	proof, err := zk.ParseSchnorrProof(proofBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	return &Msg2{SessionHash: sidHash, Q2: q2, Proof: proof, ChainSeed: seed}, nil
}

func (m *Msg3) body() *wire.Writer {
	return wire.NewWriter(wire.KindKeygenMsg3).
		Bytes(m.SessionHash).
		Bytes(m.Q1.Bytes()).
		Bytes(m.Proof.Bytes()).
		Bytes(m.ChainSeed).
		Bytes(m.Nonce).
		Int(m.N).
		Int(m.CKey).
		Ints(m.KeyProof.Sigmas).
		Int(m.EncProof.A).
		Bytes(m.EncProof.B.Bytes()).
		Int(m.EncProof.Z1).
		Int(m.EncProof.Z2)
}

func (m *Msg3) sign(pk *partykeys.PartyKeys) (err error) {
	m.Signature, err = pk.Sign(m.body().Finish())
	return err
}

func (m *Msg3) verify(messagePK []byte) error {
	if err := partykeys.Verify(messagePK, m.body().Finish(), m.Signature); err != nil {
		return fmt.Errorf("%w: %v", ErrPartySignature, err)
	}
	return nil
}

// MarshalBinary encodes the message
func (m *Msg3) MarshalBinary() ([]byte, error) {
	return m.body().Bytes(m.Signature).Finish(), nil
}

// UnmarshalMsg3 decodes msg3
func UnmarshalMsg3(data []byte) (*Msg3, error) {
	r, err := wire.Decode(data, wire.KindKeygenMsg3, msg3Fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	sidHash := r.Fixed(session.HashSize)
	q1Bytes := r.Fixed(curve.PointSize)
	proofBytes := r.Fixed(zk.SchnorrProofSize)
	seed := r.Fixed(chainSeedSize)
	nonce := r.Fixed(commitment.NonceSize)
	n := r.Int()
	ckey := r.Int()
	sigmas := r.Ints(zk.PaillierKeyRounds)
	a := r.Int()
	bBytes := r.Fixed(curve.PointSize)
	z1 := r.Int()
	z2 := r.Int()
	sig := r.Fixed(partykeys.SignatureSize)
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	c := curve.Secp256k1()
	q1, err := c.Unmarshal(q1Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: Q1: %v", ErrMalformedMessage, err)
	}
	proof, err := zk.ParseSchnorrProof(proofBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	b, err := c.Unmarshal(bBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: enc proof: %v", ErrMalformedMessage, err)
	}

	return &Msg3{
		SessionHash: sidHash,
		Q1:          q1,
		Proof:       proof,
		ChainSeed:   seed,
		Nonce:       nonce,
		N:           n,
		CKey:        ckey,
		KeyProof:    &zk.PaillierKeyProof{Sigmas: sigmas},
		EncProof:    &zk.EncDLogProof{A: a, B: b, Z1: z1, Z2: z2},
		Signature:   sig,
	}, nil
}

// commitValue is the byte string P1 commits to in msg1
func commitValue(q1 *curve.Point, proof *zk.SchnorrProof, seed []byte) []byte {
	out := make([]byte, 0, curve.PointSize+zk.SchnorrProofSize+len(seed))
	out = append(out, q1.Bytes()...)
	out = append(out, proof.Bytes()...)
	return append(out, seed...)
}
