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
	"github.com/Caqil/tss-2p/pkg/zk"
)

// P2 is P2's side of one key generation run
type P2 struct {
	mu    sync.Mutex
	sess  session.Session
	opts   Options
	labels labels
	// prev is the share being refreshed, nil for key generation
	prev  *KeyShareP2
	state any
}

type p2Init struct{}

type p2AwaitingMsg3 struct {
	x2         *big.Int
	q2         *curve.Point
	seed       []byte
	commitment []byte
	p1PK       []byte
}

type p2Ready struct {
	share *KeyShareP2
}

// NewP2 starts a run for P2
func NewP2(sid []byte, opts Options) (*P2, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	sess, err := session.New(sid, opts.MaxSessionIDLen)
	if err != nil {
		return nil, err
	}
	return &P2{sess: sess, opts: opts, labels: keygenLabels, state: p2Init{}}, nil
}

// NewP2Refresh starts a refresh of share for P2. Only the P1 party key
// pinned in share is accepted for the run.
func NewP2Refresh(sid []byte, share *KeyShareP2, opts Options) (*P2, error) {
	if share == nil {
		return nil, ErrNilKeyShare
	}
	p, err := NewP2(sid, opts)
	if err != nil {
		return nil, err
	}
	prev, err := share.Clone()
	if err != nil {
		return nil, err
	}
	p.prev = prev
	p.labels = refreshLabels
	return p, nil
}

// State names the current state
func (p *P2) State() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state.(type) {
	case p2Init:
		return "init"
	case *p2AwaitingMsg3:
		return "awaiting-msg3"
	case *p2Ready:
		return "ready"
	case finalized:
		return "finalized"
	case *failed:
		return "failed"
	}
	return "unknown"
}

// ProcessMsg1 records P1's commitment and answers with Q2 = x2*G, or with
// the blinding point R2 when refreshing
func (p *P2) ProcessMsg1(data []byte) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.state.(p2Init); !ok {
		return nil, ErrInvalidState
	}

	msg, err := UnmarshalMsg1(data)
	if err != nil {
		return nil, p.fail(err)
	}
	// signature first: it covers the session hash
	if err := msg.verify(); err != nil {
		return nil, p.fail(err)
	}
	if p.prev != nil && !bytes.Equal(msg.MessagePK, p.prev.P1MessagePK) {
		return nil, p.fail(ErrPartyKeysMismatch)
	}
	if err := p.sess.Check(msg.SessionHash); err != nil {
		return nil, p.fail(err)
	}

	c := curve.Secp256k1()
	x2, err := rand.GenerateRandomScalar(c.Order())
	if err != nil {
		return nil, p.fail(err)
	}
	q2, err := c.ScalarBaseMult(x2)
	if err != nil {
		return nil, p.fail(err)
	}
	proof, err := zk.ProveSchnorr(x2, q2, p.sess.Context(p.labels.p2DLog))
	if err != nil {
		return nil, p.fail(err)
	}
	seed, err := rand.GenerateRandomBytes(chainSeedSize)
	if err != nil {
		return nil, p.fail(err)
	}

	out, err := (&Msg2{SessionHash: p.sess.Hash(), Q2: q2, Proof: proof, ChainSeed: seed}).MarshalBinary()
	if err != nil {
		return nil, p.fail(err)
	}

	p.state = &p2AwaitingMsg3{
		x2:         x2,
		q2:         q2,
		seed:       seed,
		commitment: msg.Commitment,
		p1PK:       msg.MessagePK,
	}
	return out, nil
}

// ProcessMsg3 checks P1's opening and Paillier material
func (p *P2) ProcessMsg3(data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	st, ok := p.state.(*p2AwaitingMsg3)
	if !ok {
		return ErrInvalidState
	}

	msg, err := UnmarshalMsg3(data)
	if err != nil {
		return p.fail(err)
	}
	if err := msg.verify(st.p1PK); err != nil {
		return p.fail(err)
	}
	if err := p.sess.Check(msg.SessionHash); err != nil {
		return p.fail(err)
	}

	value := commitValue(msg.Q1, msg.Proof, msg.ChainSeed)
	if !commitment.VerifyHashCommitment(st.commitment, value, msg.Nonce, p.sess.Context(p.labels.commit)) {
		return p.fail(ErrInvalidCommitment)
	}
	if !msg.Proof.Verify(msg.Q1, p.sess.Context(p.labels.p1DLog)) {
		return p.fail(fmt.Errorf("%w: P1 dlog", ErrInvalidProof))
	}

	if err := zk.VerifyPaillierKey(msg.N, msg.KeyProof, p.opts.MinPaillierBits, p.sess.Context(p.labels.paillier)); err != nil {
		return p.fail(fmt.Errorf("%w: %v", ErrInvalidPaillierKey, err))
	}
	ppk, err := paillier.NewPublicKey(msg.N)
	if err != nil {
		return p.fail(fmt.Errorf("%w: %v", ErrInvalidPaillierKey, err))
	}
	if err := ppk.ValidateCiphertext(msg.CKey); err != nil {
		return p.fail(fmt.Errorf("%w: ckey: %v", ErrMalformedMessage, err))
	}

	x2, q1, pub, chain, err := p.newShare(st, msg)
	if err != nil {
		return p.fail(err)
	}
	if !msg.EncProof.Verify(ppk, msg.CKey, q1, p.sess.Context(p.labels.encDLog)) {
		if p.prev != nil {
			security.SecureZeroBigInt(x2)
		}
		return p.fail(fmt.Errorf("%w: ckey does not encrypt x1", ErrInvalidProof))
	}

	if p.prev != nil {
		security.SecureZeroBigInt(st.x2)
		p.prev.Zero()
		p.prev = nil
	}
	p.state = &p2Ready{share: &KeyShareP2{
		X2:          x2,
		PublicKey:   pub,
		Paillier:    ppk,
		CKey:        msg.CKey,
		ChainCode:   chain,
		P1MessagePK: st.p1PK,
	}}
	security.SecureZero(st.seed)
	return nil
}

// Finalize returns the key share. The session cannot be used afterwards.
func (p *P2) Finalize() (*KeyShareP2, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	st, ok := p.state.(*p2Ready)
	if !ok {
		return nil, ErrInvalidState
	}
	p.state = finalized{}
	return st.share, nil
}

// ErrorMessage returns the failure description of a failed session
func (p *P2) ErrorMessage() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	st, ok := p.state.(*failed)
	if !ok {
		return "", ErrInvalidState
	}
	return st.reason, nil
}

// Zero wipes all secret state held by the session
func (p *P2) Zero() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.wipe()
	if _, ok := p.state.(*failed); !ok {
		p.state = finalized{}
	}
}

func (p *P2) wipe() {
	switch st := p.state.(type) {
	case *p2AwaitingMsg3:
		security.SecureZeroBigInt(st.x2)
		security.SecureZero(st.seed)
	case *p2Ready:
		st.share.Zero()
	}
	if p.prev != nil {
		p.prev.Zero()
		p.prev = nil
	}
}

// newShare returns P2's share, the point P1's Paillier ciphertext must
// encrypt the discrete log of, the joint key and the chain code. When
// refreshing, x2' = x2/r and P1's new point is (x2')^-1 * Q.
func (p *P2) newShare(st *p2AwaitingMsg3, msg *Msg3) (*big.Int, *curve.Point, *curve.Point, []byte, error) {
	c := curve.Secp256k1()
	if p.prev == nil {
		pub, err := c.ScalarMult(msg.Q1, st.x2)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		chain, err := chainCode(p.sess, msg.ChainSeed, st.seed)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		return st.x2, msg.Q1, pub, chain, nil
	}

	order := c.Order()
	r, err := blindingFactor(p.sess, st.x2, msg.Q1)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	defer security.SecureZeroBigInt(r)

	x2 := new(big.Int).ModInverse(r, order)
	x2.Mul(x2, p.prev.X2)
	x2.Mod(x2, order)

	x2Inv := new(big.Int).ModInverse(x2, order)
	defer security.SecureZeroBigInt(x2Inv)
	q1, err := c.ScalarMult(p.prev.PublicKey, x2Inv)
	if err != nil {
		security.SecureZeroBigInt(x2)
		return nil, nil, nil, nil, err
	}
	chain := append([]byte(nil), p.prev.ChainCode...)
	return x2, q1, p.prev.PublicKey.Clone(), chain, nil
}

func (p *P2) fail(err error) error {
	p.wipe()
	p.state = &failed{reason: err.Error()}
	return err
}
