package signing

import (
	"fmt"
	"math/big"

	"github.com/Caqil/tss-2p/internal/security"
	"github.com/Caqil/tss-2p/internal/session"
	"github.com/Caqil/tss-2p/internal/wire"
	"github.com/Caqil/tss-2p/pkg/crypto/commitment"
	"github.com/Caqil/tss-2p/pkg/crypto/curve"
	"github.com/Caqil/tss-2p/pkg/partykeys"
	"github.com/Caqil/tss-2p/pkg/zk"
)

// maxPathLen bounds the encoded derivation path carried in msg1
const maxPathLen = 4096

// Msg1 commits to P1's nonce and states what is being signed
type Msg1 struct {
	SessionHash []byte
	Commitment  []byte
	Digest      []byte
	Path        string
	Signature   []byte
}

// Msg2 carries P2's nonce point
type Msg2 struct {
	SessionHash []byte
	R2          *curve.Point
	Proof       *zk.SchnorrProof
}

// Msg3 opens P1's nonce commitment
type Msg3 struct {
	SessionHash []byte
	R1          *curve.Point
	Proof       *zk.SchnorrProof
	Nonce       []byte
	Signature   []byte
}

// Msg4 carries P2's encrypted partial signature
type Msg4 struct {
	SessionHash []byte
	C3          *big.Int
}

// Msg5 delivers the final signature to P2
type Msg5 struct {
	SessionHash []byte
	Sig         []byte
	Signature   []byte
}

func verifyParty(pk []byte, body *wire.Writer, sig []byte) error {
	if err := partykeys.Verify(pk, body.Finish(), sig); err != nil {
		return fmt.Errorf("%w: %v", ErrPartySignature, err)
	}
	return nil
}

func malformed(err error) error {
	return fmt.Errorf("%w: %v", ErrMalformedMessage, err)
}

func (m *Msg1) body() *wire.Writer {
	return wire.NewWriter(wire.KindSignMsg1).
		Bytes(m.SessionHash).
		Bytes(m.Commitment).
		Bytes(m.Digest).
		Bytes([]byte(m.Path))
}

// MarshalBinary encodes the message
func (m *Msg1) MarshalBinary() ([]byte, error) {
	return m.body().Bytes(m.Signature).Finish(), nil
}

// UnmarshalMsg1 decodes msg1
func UnmarshalMsg1(data []byte) (*Msg1, error) {
	r, err := wire.Decode(data, wire.KindSignMsg1, 5)
	if err != nil {
		return nil, malformed(err)
	}
	m := &Msg1{
		SessionHash: r.Fixed(session.HashSize),
		Commitment:  r.Fixed(commitment.Size),
		Digest:      r.Fixed(security.DigestSize),
		Path:        string(r.Bytes()),
		Signature:   r.Fixed(partykeys.SignatureSize),
	}
	if err := r.Err(); err != nil {
		return nil, malformed(err)
	}
	if len(m.Path) > maxPathLen {
		return nil, malformed(ErrInvalidPath)
	}
	return m, nil
}

// MarshalBinary encodes the message
func (m *Msg2) MarshalBinary() ([]byte, error) {
	return wire.NewWriter(wire.KindSignMsg2).
		Bytes(m.SessionHash).
		Bytes(m.R2.Bytes()).
		Bytes(m.Proof.Bytes()).
		Finish(), nil
}

// UnmarshalMsg2 decodes msg2
func UnmarshalMsg2(data []byte) (*Msg2, error) {
	r, err := wire.Decode(data, wire.KindSignMsg2, 3)
	if err != nil {
		return nil, malformed(err)
	}
	sidHash := r.Fixed(session.HashSize)
	pointBytes := r.Fixed(curve.PointSize)
	proofBytes := r.Fixed(zk.SchnorrProofSize)
	if err := r.Err(); err != nil {
		return nil, malformed(err)
	}

	r2, err := curve.Secp256k1().Unmarshal(pointBytes)
	if err != nil {
		return nil, malformed(err)
	}
	proof, err := zk.ParseSchnorrProof(proofBytes)
	if err != nil {
		return nil, malformed(err)
	}
	return &Msg2{SessionHash: sidHash, R2: r2, Proof: proof}, nil
}

func (m *Msg3) body() *wire.Writer {
	return wire.NewWriter(wire.KindSignMsg3).
		Bytes(m.SessionHash).
		Bytes(m.R1.Bytes()).
		Bytes(m.Proof.Bytes()).
		Bytes(m.Nonce)
}

// MarshalBinary encodes the message
func (m *Msg3) MarshalBinary() ([]byte, error) {
	return m.body().Bytes(m.Signature).Finish(), nil
}

// UnmarshalMsg3 decodes msg3
func UnmarshalMsg3(data []byte) (*Msg3, error) {
	r, err := wire.Decode(data, wire.KindSignMsg3, 5)
	if err != nil {
		return nil, malformed(err)
	}
	sidHash := r.Fixed(session.HashSize)
	pointBytes := r.Fixed(curve.PointSize)
	proofBytes := r.Fixed(zk.SchnorrProofSize)
	nonce := r.Fixed(commitment.NonceSize)
	sig := r.Fixed(partykeys.SignatureSize)
	if err := r.Err(); err != nil {
		return nil, malformed(err)
	}

	r1, err := curve.Secp256k1().Unmarshal(pointBytes)
	if err != nil {
		return nil, malformed(err)
	}
	proof, err := zk.ParseSchnorrProof(proofBytes)
	if err != nil {
		return nil, malformed(err)
	}
	return &Msg3{SessionHash: sidHash, R1: r1, Proof: proof, Nonce: nonce, Signature: sig}, nil
}

// MarshalBinary encodes the message
func (m *Msg4) MarshalBinary() ([]byte, error) {
	return wire.NewWriter(wire.KindSignMsg4).
		Bytes(m.SessionHash).
		Int(m.C3).
		Finish(), nil
}

// UnmarshalMsg4 decodes msg4
func UnmarshalMsg4(data []byte) (*Msg4, error) {
	r, err := wire.Decode(data, wire.KindSignMsg4, 2)
	if err != nil {
		return nil, malformed(err)
	}
	m := &Msg4{
		SessionHash: r.Fixed(session.HashSize),
		C3:          r.Int(),
	}
	if err := r.Err(); err != nil {
		return nil, malformed(err)
	}
	return m, nil
}

func (m *Msg5) body() *wire.Writer {
	return wire.NewWriter(wire.KindSignMsg5).
		Bytes(m.SessionHash).
		Bytes(m.Sig)
}

// MarshalBinary encodes the message
func (m *Msg5) MarshalBinary() ([]byte, error) {
	return m.body().Bytes(m.Signature).Finish(), nil
}

// UnmarshalMsg5 decodes msg5
func UnmarshalMsg5(data []byte) (*Msg5, error) {
	r, err := wire.Decode(data, wire.KindSignMsg5, 3)
	if err != nil {
		return nil, malformed(err)
	}
	m := &Msg5{
		SessionHash: r.Fixed(session.HashSize),
		Sig:         r.Fixed(SignatureSize),
		Signature:   r.Fixed(partykeys.SignatureSize),
	}
	if err := r.Err(); err != nil {
		return nil, malformed(err)
	}
	return m, nil
}

// nonceCommitValue is what P1 commits to in msg1
func nonceCommitValue(r1 *curve.Point, proof *zk.SchnorrProof) []byte {
	out := make([]byte, 0, curve.PointSize+zk.SchnorrProofSize)
	out = append(out, r1.Bytes()...)
	return append(out, proof.Bytes()...)
}
