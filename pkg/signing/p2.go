package signing

import (
	"bytes"
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

// P2 is P2's side of one signing run
type P2 struct {
	mu      sync.Mutex
	sess    session.Session
	share   *keygen.KeyShareP2
	req     request
	derived *derivation.Result
	state   any
}

type p2Init struct{}

type p2AwaitingMsg3 struct {
	k2         *big.Int
	commitment []byte
}

type p2AwaitingMsg5 struct {
	r *big.Int
}

// NewP2 starts a signing run. The share is copied so the caller may free
// its own copy while the run is in progress. path may be empty.
func NewP2(sid []byte, share *keygen.KeyShareP2, digest []byte, path string, opts Options) (*P2, error) {
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

	return &P2{sess: sess, share: own, req: req, derived: derived, state: p2Init{}}, nil
}

// PublicKey returns the key the signature will verify under
func (p *P2) PublicKey() *curve.Point {
	return p.derived.PublicKey
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
	case *p2AwaitingMsg5:
		return "awaiting-msg5"
	case finalized:
		return "finalized"
	case *failed:
		return "failed"
	}
	return "unknown"
}

// ProcessMsg1 checks what P1 intends to sign and answers with R2 = k2*G
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
	if err := verifyParty(p.share.P1MessagePK, msg.body(), msg.Signature); err != nil {
		return nil, p.fail(err)
	}
	if err := p.sess.Check(msg.SessionHash); err != nil {
		return nil, p.fail(err)
	}
	if !bytes.Equal(msg.Digest, p.req.digest) {
		return nil, p.fail(ErrDigestMismatch)
	}
	if msg.Path != p.req.pathStr {
		return nil, p.fail(ErrPathMismatch)
	}

	c := curve.Secp256k1()
	k2, err := rand.GenerateRandomScalar(c.Order())
	if err != nil {
		return nil, p.fail(err)
	}
	r2, err := c.ScalarBaseMult(k2)
	if err != nil {
		return nil, p.fail(err)
	}
	proof, err := zk.ProveSchnorr(k2, r2, p.sess.Context(stepP2Nonce))
	if err != nil {
		return nil, p.fail(err)
	}

	out, err := (&Msg2{SessionHash: p.sess.Hash(), R2: r2, Proof: proof}).MarshalBinary()
	if err != nil {
		return nil, p.fail(err)
	}

	p.state = &p2AwaitingMsg3{k2: k2, commitment: msg.Commitment}
	return out, nil
}

// ProcessMsg3 checks P1's nonce opening and returns the encrypted partial
// signature
func (p *P2) ProcessMsg3(data []byte) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	st, ok := p.state.(*p2AwaitingMsg3)
	if !ok {
		return nil, ErrInvalidState
	}

	msg, err := UnmarshalMsg3(data)
	if err != nil {
		return nil, p.fail(err)
	}
	if err := verifyParty(p.share.P1MessagePK, msg.body(), msg.Signature); err != nil {
		return nil, p.fail(err)
	}
	if err := p.sess.Check(msg.SessionHash); err != nil {
		return nil, p.fail(err)
	}
	value := nonceCommitValue(msg.R1, msg.Proof)
	if !commitment.VerifyHashCommitment(st.commitment, value, msg.Nonce, p.sess.Context(stepCommit)) {
		return nil, p.fail(ErrInvalidCommitment)
	}
	if !msg.Proof.Verify(msg.R1, p.sess.Context(stepP1Nonce)) {
		return nil, p.fail(fmt.Errorf("%w: P1 nonce", ErrInvalidProof))
	}

	r, err := sigR(st.k2, msg.R1)
	if err != nil {
		return nil, p.fail(err)
	}

	c3, err := p.partialSignature(st.k2, r)
	if err != nil {
		return nil, p.fail(err)
	}

	out, err := (&Msg4{SessionHash: p.sess.Hash(), C3: c3}).MarshalBinary()
	if err != nil {
		return nil, p.fail(err)
	}

	security.SecureZeroBigInt(st.k2)
	p.state = &p2AwaitingMsg5{r: r}
	return out, nil
}

// partialSignature computes
//
//	c3 = Enc(k2^-1 (m + r t) + rho q) (+) ckey (*) (k2^-1 r x2 mod q)
//
// where rho in [0, q^2) masks the plaintext from P1
func (p *P2) partialSignature(k2, r *big.Int) (*big.Int, error) {
	q := curve.Secp256k1().Order()
	pk := p.share.Paillier

	k2Inv := new(big.Int).ModInverse(k2, q)
	if k2Inv == nil {
		return nil, ErrDegenerateNonce
	}
	defer security.SecureZeroBigInt(k2Inv)

	// k2^-1 (m + r t) mod q
	plain := new(big.Int).Mul(r, p.derived.Tweak)
	plain.Add(plain, p.req.digestScalar())
	plain.Mul(plain, k2Inv)
	plain.Mod(plain, q)
	defer security.SecureZeroBigInt(plain)

	rho, err := rand.GenerateBelow(new(big.Int).Mul(q, q))
	if err != nil {
		return nil, err
	}
	defer security.SecureZeroBigInt(rho)
	plain.Add(plain, rho.Mul(rho, q))

	c1, _, err := pk.Encrypt(plain)
	if err != nil {
		return nil, err
	}

	// k2^-1 r x2 mod q
	exp := new(big.Int).Mul(k2Inv, r)
	exp.Mul(exp, p.share.X2)
	exp.Mod(exp, q)
	defer security.SecureZeroBigInt(exp)

	c2, err := pk.MulPlain(p.share.CKey, exp)
	if err != nil {
		return nil, err
	}
	return pk.Add(c1, c2)
}

// ProcessMsg5 verifies the final signature delivered by P1 and returns it.
// The session is finalized on success.
func (p *P2) ProcessMsg5(data []byte) (*Signature, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	st, ok := p.state.(*p2AwaitingMsg5)
	if !ok {
		return nil, ErrInvalidState
	}

	msg, err := UnmarshalMsg5(data)
	if err != nil {
		return nil, p.fail(err)
	}
	if err := verifyParty(p.share.P1MessagePK, msg.body(), msg.Signature); err != nil {
		return nil, p.fail(err)
	}
	if err := p.sess.Check(msg.SessionHash); err != nil {
		return nil, p.fail(err)
	}

	sig, err := SignatureFromBytes(msg.Sig)
	if err != nil {
		return nil, p.fail(err)
	}
	if sig.R.Cmp(st.r) != 0 || !sig.IsLowS() {
		return nil, p.fail(ErrInvalidSignature)
	}
	if !VerifySignature(p.derived.PublicKey, p.req.digest, sig) {
		return nil, p.fail(ErrInvalidSignature)
	}

	p.wipe()
	p.state = finalized{}
	return sig, nil
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

// Zero wipes the session's nonce and its copy of the key share
func (p *P2) Zero() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.wipe()
	if _, ok := p.state.(*failed); !ok {
		p.state = finalized{}
	}
}

func (p *P2) wipe() {
	if st, ok := p.state.(*p2AwaitingMsg3); ok {
		security.SecureZeroBigInt(st.k2)
	}
	if p.share != nil {
		p.share.Zero()
		p.share = nil
	}
}

func (p *P2) fail(err error) error {
	p.wipe()
	p.state = &failed{reason: err.Error()}
	return err
}
