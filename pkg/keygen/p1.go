package keygen

import (
	"bytes"
	"fmt"
	"math/big"
	"sync"

	"github.com/Caqil/tss-2p/internal/security"
	"github.com/Caqil/tss-2p/internal/session"
	"github.com/Caqil/tss-2p/pkg/crypto/commitment"
	"github.com/Caqil/tss-2p/pkg/crypto/curve"
	"github.com/Caqil/tss-2p/pkg/crypto/paillier"
	"github.com/Caqil/tss-2p/pkg/crypto/rand"
	"github.com/Caqil/tss-2p/pkg/partykeys"
	"github.com/Caqil/tss-2p/pkg/zk"
)

// P1 is P1's side of one key generation run. It is safe for concurrent
// use, but steps must still be called in protocol order.
type P1 struct {
	mu        sync.Mutex
	sess      session.Session
	opts      Options
	partyKeys *partykeys.PartyKeys
	labels    labels
	// prev is the share being refreshed, nil for key generation
	prev  *KeyShareP1
	state any
}

type p1Init struct{}

type p1AwaitingMsg2 struct {
	x1     *big.Int
	q1     *curve.Point
	proof  *zk.SchnorrProof
	seed   []byte
	commit *commitment.HashCommitment
}

type p1Ready struct {
	share *KeyShareP1
}

// NewP1 starts a run for P1. The party keys are copied into the resulting
// key share so that P1 can authenticate later signing messages.
func NewP1(sid []byte, pk *partykeys.PartyKeys, opts Options) (*P1, error) {
	if pk == nil {
		return nil, ErrNilPartyKeys
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	sess, err := session.New(sid, opts.MaxSessionIDLen)
	if err != nil {
		return nil, err
	}

	// hold a private copy so freeing the caller's handle cannot wipe it
	own, err := partykeys.FromBytes(pk.Bytes())
	if err != nil {
		return nil, err
	}

	return &P1{sess: sess, opts: opts, partyKeys: own, labels: keygenLabels, state: p1Init{}}, nil
}

// NewP1Refresh starts a refresh of share for P1. pk must be the party keys
// pinned in share. The result keeps the joint public key and chain code.
func NewP1Refresh(sid []byte, pk *partykeys.PartyKeys, share *KeyShareP1, opts Options) (*P1, error) {
	if share == nil {
		return nil, ErrNilKeyShare
	}
	p, err := NewP1(sid, pk, opts)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(p.partyKeys.PublicKey(), share.PartyKeys.PublicKey()) {
		p.Zero()
		return nil, ErrPartyKeysMismatch
	}
	prev, err := share.Clone()
	if err != nil {
		p.Zero()
		return nil, err
	}
	p.prev = prev
	p.labels = refreshLabels
	return p, nil
}

// State names the current state
func (p *P1) State() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state.(type) {
	case p1Init:
		return "init"
	case *p1AwaitingMsg2:
		return "awaiting-msg2"
	case *p1Ready:
		return "ready"
	case finalized:
		return "finalized"
	case *failed:
		return "failed"
	}
	return "unknown"
}

// GenMsg1 samples x1 and commits to Q1 = x1*G. When refreshing, the
// committed point is the blinding point R1 instead.
func (p *P1) GenMsg1() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.state.(p1Init); !ok {
		return nil, ErrInvalidState
	}

	c := curve.Secp256k1()
	x1, err := rand.GenerateRandomScalar(c.Order())
	if err != nil {
		return nil, p.fail(err)
	}
	q1, err := c.ScalarBaseMult(x1)
	if err != nil {
		return nil, p.fail(err)
	}
	proof, err := zk.ProveSchnorr(x1, q1, p.sess.Context(p.labels.p1DLog))
	if err != nil {
		return nil, p.fail(err)
	}
	seed, err := rand.GenerateRandomBytes(chainSeedSize)
	if err != nil {
		return nil, p.fail(err)
	}
	commit, err := commitment.NewHashCommitment(commitValue(q1, proof, seed), p.sess.Context(p.labels.commit))
	if err != nil {
		return nil, p.fail(err)
	}

	msg := &Msg1{
		SessionHash: p.sess.Hash(),
		Commitment:  commit.Commitment,
		MessagePK:   p.partyKeys.PublicKey(),
	}
	if err := msg.sign(p.partyKeys); err != nil {
		return nil, p.fail(err)
	}
	out, err := msg.MarshalBinary()
	if err != nil {
		return nil, p.fail(err)
	}

	p.state = &p1AwaitingMsg2{x1: x1, q1: q1, proof: proof, seed: seed, commit: commit}
	return out, nil
}

// ProcessMsg2 verifies P2's share, sets up Paillier and opens the commitment
func (p *P1) ProcessMsg2(data []byte) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	st, ok := p.state.(*p1AwaitingMsg2)
	if !ok {
		return nil, ErrInvalidState
	}

	msg, err := UnmarshalMsg2(data)
	if err != nil {
		return nil, p.fail(err)
	}
	if err := p.sess.Check(msg.SessionHash); err != nil {
		return nil, p.fail(err)
	}
	if !msg.Proof.Verify(msg.Q2, p.sess.Context(p.labels.p2DLog)) {
		return nil, p.fail(fmt.Errorf("%w: P2 dlog", ErrInvalidProof))
	}

	x1, q1, pub, chain, err := p.newShare(st, msg)
	if err != nil {
		return nil, p.fail(err)
	}

	sk, err := paillier.GenerateKey(p.opts.PaillierBits)
	if err != nil {
		return nil, p.fail(err)
	}
	ckey, nonce, err := sk.Encrypt(x1)
	if err != nil {
		return nil, p.fail(err)
	}
	defer security.SecureZeroBigInt(nonce)

	keyProof, err := zk.ProvePaillierKey(sk, p.sess.Context(p.labels.paillier))
	if err != nil {
		return nil, p.fail(err)
	}
	encProof, err := zk.ProveEncDLog(&sk.PublicKey, ckey, nonce, x1, q1, p.sess.Context(p.labels.encDLog))
	if err != nil {
		return nil, p.fail(err)
	}

	out := &Msg3{
		SessionHash: p.sess.Hash(),
		Q1:          st.q1,
		Proof:       st.proof,
		ChainSeed:   st.seed,
		Nonce:       st.commit.Nonce,
		N:           sk.N,
		CKey:        ckey,
		KeyProof:    keyProof,
		EncProof:    encProof,
	}
	if err := out.sign(p.partyKeys); err != nil {
		return nil, p.fail(err)
	}
	encoded, err := out.MarshalBinary()
	if err != nil {
		return nil, p.fail(err)
	}

	if p.prev != nil {
		security.SecureZeroBigInt(st.x1)
		p.prev.Zero()
		p.prev = nil
	}
	security.SecureZero(st.seed)
	p.state = &p1Ready{share: &KeyShareP1{
		X1:        x1,
		PublicKey: pub,
		Paillier:  sk,
		ChainCode: chain,
		PartyKeys: p.partyKeys,
	}}
	p.partyKeys = nil
	return encoded, nil
}

// newShare returns P1's share, its public point, the joint key and the
// chain code. Key generation takes them from the exchange; a refresh
// blinds the previous share by the factor both parties derive.
func (p *P1) newShare(st *p1AwaitingMsg2, msg *Msg2) (*big.Int, *curve.Point, *curve.Point, []byte, error) {
	c := curve.Secp256k1()
	if p.prev == nil {
		pub, err := c.ScalarMult(msg.Q2, st.x1)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		chain, err := chainCode(p.sess, st.seed, msg.ChainSeed)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		return st.x1, st.q1, pub, chain, nil
	}

	r, err := blindingFactor(p.sess, st.x1, msg.Q2)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	defer security.SecureZeroBigInt(r)

	x1 := new(big.Int).Mul(p.prev.X1, r)
	x1.Mod(x1, c.Order())
	q1, err := c.ScalarBaseMult(x1)
	if err != nil {
		security.SecureZeroBigInt(x1)
		return nil, nil, nil, nil, err
	}
	chain := append([]byte(nil), p.prev.ChainCode...)
	return x1, q1, p.prev.PublicKey.Clone(), chain, nil
}

// Finalize returns the key share. The session cannot be used afterwards.
func (p *P1) Finalize() (*KeyShareP1, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	st, ok := p.state.(*p1Ready)
	if !ok {
		return nil, ErrInvalidState
	}
	p.state = finalized{}
	return st.share, nil
}

// ErrorMessage returns the failure description of a failed session
func (p *P1) ErrorMessage() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	st, ok := p.state.(*failed)
	if !ok {
		return "", ErrInvalidState
	}
	return st.reason, nil
}

// Zero wipes all secret state held by the session
func (p *P1) Zero() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.wipe()
	if _, ok := p.state.(*failed); !ok {
		p.state = finalized{}
	}
}

func (p *P1) wipe() {
	switch st := p.state.(type) {
	case *p1AwaitingMsg2:
		security.SecureZeroBigInt(st.x1)
		security.SecureZero(st.seed)
		security.SecureZero(st.commit.Nonce)
	case *p1Ready:
		st.share.Zero()
	}
	if p.partyKeys != nil {
		p.partyKeys.Zero()
		p.partyKeys = nil
	}
	if p.prev != nil {
		p.prev.Zero()
		p.prev = nil
	}
}

func (p *P1) fail(err error) error {
	p.wipe()
	p.state = &failed{reason: err.Error()}
	return err
}
