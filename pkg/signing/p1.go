package signing

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/Caqil/tss-2p/internal/security"
	"github.com/Caqil/tss-2p/internal/session"
	"github.com/Caqil/tss-2p/pkg/crypto/commitment"
	"github.com/Caqil/tss-2p/pkg/crypto/curve"
	"github.com/Caqil/tss-2p/pkg/crypto/rand"
	"github.com/Caqil/tss-2p/pkg/derivation"
	"github.com/Caqil/tss-2p/pkg/keygen"
	"github.com/Caqil/tss-2p/pkg/zk"
)

// P1 is P1's side of one signing run
type P1 struct {
	mu      sync.Mutex
	sess    session.Session
	share   *keygen.KeyShareP1
	req     request
	derived *derivation.Result
	state   any
}

type p1Init struct{}

type p1AwaitingMsg2 struct {
	k1     *big.Int
	r1     *curve.Point
	proof  *zk.SchnorrProof
	commit *commitment.HashCommitment
}

type p1AwaitingMsg4 struct {
	k1 *big.Int
	r  *big.Int
}

type p1Ready struct {
	sig *Signature
}

// NewP1 starts a signing run. The share is copied so the caller may free
// its own copy while the run is in progress. path may be empty.
func NewP1(sid []byte, share *keygen.KeyShareP1, digest []byte, path string, opts Options) (*P1, error) {
	if share == nil {
		return nil, ErrNilKeyShare
	}
	sess, err := session.New(sid, opts.MaxSessionIDLen)
	if err != nil {
		return nil, err
	}
	req, err := newRequest(digest, path)
	if err != nil {
		return nil, err
	}
	own, err := share.Clone()
	if err != nil {
		return nil, err
	}
	derived, err := req.derive(own.PublicKey, own.ChainCode)
	if err != nil {
		own.Zero()
		return nil, err
	}

	return &P1{sess: sess, share: own, req: req, derived: derived, state: p1Init{}}, nil
}

// PublicKey returns the key the signature will verify under
func (p *P1) PublicKey() *curve.Point {
	return p.derived.PublicKey
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
	case *p1AwaitingMsg4:
		return "awaiting-msg4"
	case *p1Ready:
		return "ready"
	case finalized:
		return "finalized"
	case *failed:
		return "failed"
	}
	return "unknown"
}

// GenMsg1 samples k1 and commits to R1 = k1*G
func (p *P1) GenMsg1() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.state.(p1Init); !ok {
		return nil, ErrInvalidState
	}

	c := curve.Secp256k1()
	k1, err := rand.GenerateRandomScalar(c.Order())
	if err != nil {
		return nil, p.fail(err)
	}
	r1, err := c.ScalarBaseMult(k1)
	if err != nil {
		return nil, p.fail(err)
	}
	proof, err := zk.ProveSchnorr(k1, r1, p.sess.Context(stepP1Nonce))
	if err != nil {
		return nil, p.fail(err)
	}
	commit, err := commitment.NewHashCommitment(nonceCommitValue(r1, proof), p.sess.Context(stepCommit))
	if err != nil {
		return nil, p.fail(err)
	}

	msg := &Msg1{
		SessionHash: p.sess.Hash(),
		Commitment:  commit.Commitment,
		Digest:      p.req.digest,
		Path:        p.req.pathStr,
	}
	if msg.Signature, err = p.share.PartyKeys.Sign(msg.body().Finish()); err != nil {
		return nil, p.fail(err)
	}
	out, err := msg.MarshalBinary()
	if err != nil {
		return nil, p.fail(err)
	}

	p.state = &p1AwaitingMsg2{k1: k1, r1: r1, proof: proof, commit: commit}
	return out, nil
}

// ProcessMsg2 checks P2's nonce and opens P1's commitment
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
	if !msg.Proof.Verify(msg.R2, p.sess.Context(stepP2Nonce)) {
		return nil, p.fail(fmt.Errorf("%w: P2 nonce", ErrInvalidProof))
	}

	r, err := sigR(st.k1, msg.R2)
	if err != nil {
		return nil, p.fail(err)
	}

	out := &Msg3{
		SessionHash: p.sess.Hash(),
		R1:          st.r1,
		Proof:       st.proof,
		Nonce:       st.commit.Nonce,
	}
	if out.Signature, err = p.share.PartyKeys.Sign(out.body().Finish()); err != nil {
		return nil, p.fail(err)
	}
	encoded, err := out.MarshalBinary()
	if err != nil {
		return nil, p.fail(err)
	}

	p.state = &p1AwaitingMsg4{k1: st.k1, r: r}
	return encoded, nil
}

// ProcessMsg4 decrypts P2's partial signature, completes and checks the
// signature, and returns msg5
func (p *P1) ProcessMsg4(data []byte) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	st, ok := p.state.(*p1AwaitingMsg4)
	if !ok {
		return nil, ErrInvalidState
	}

	msg, err := UnmarshalMsg4(data)
	if err != nil {
		return nil, p.fail(err)
	}
	if err := p.sess.Check(msg.SessionHash); err != nil {
		return nil, p.fail(err)
	}

	sk := p.share.Paillier
	if err := sk.ValidateCiphertext(msg.C3); err != nil {
		return nil, p.fail(fmt.Errorf("%w: %v", ErrInvalidCiphertext, err))
	}
	sPrime, err := sk.Decrypt(msg.C3)
	if err != nil {
		return nil, p.fail(fmt.Errorf("%w: %v", ErrInvalidCiphertext, err))
	}
	defer security.SecureZeroBigInt(sPrime)

	order := curve.Secp256k1().Order()
	k1Inv := new(big.Int).ModInverse(st.k1, order)
	if k1Inv == nil {
		return nil, p.fail(ErrDegenerateNonce)
	}
	defer security.SecureZeroBigInt(k1Inv)

	s := new(big.Int).Mul(k1Inv, sPrime)
	s.Mod(s, order)
	if s.Sign() == 0 {
		return nil, p.fail(ErrDegenerateNonce)
	}

	sig := &Signature{R: st.r, S: s}
	sig.normalize()
	if !VerifySignature(p.derived.PublicKey, p.req.digest, sig) {
		return nil, p.fail(ErrInvalidSignature)
	}

	out := &Msg5{SessionHash: p.sess.Hash(), Sig: sig.Bytes()}
	if out.Signature, err = p.share.PartyKeys.Sign(out.body().Finish()); err != nil {
		return nil, p.fail(err)
	}
	encoded, err := out.MarshalBinary()
	if err != nil {
		return nil, p.fail(err)
	}

	security.SecureZeroBigInt(st.k1)
	p.state = &p1Ready{sig: sig}
	return encoded, nil
}

// Finalize returns the signature after msg5 has been produced
func (p *P1) Finalize() (*Signature, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	st, ok := p.state.(*p1Ready)
	if !ok {
		return nil, ErrInvalidState
	}
	p.wipe()
	p.state = finalized{}
	return st.sig, nil
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

// Zero wipes the session's nonce and its copy of the key share
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
		security.SecureZeroBigInt(st.k1)
		security.SecureZero(st.commit.Nonce)
	case *p1AwaitingMsg4:
		security.SecureZeroBigInt(st.k1)
	}
	if p.share != nil {
		p.share.Zero()
		p.share = nil
	}
}

func (p *P1) fail(err error) error {
	p.wipe()
	p.state = &failed{reason: err.Error()}
	return err
}
