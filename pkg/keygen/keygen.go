// Package keygen implements the three-message two-party key generation.
//
//	P1                                   P2
//	GenMsg1      -- msg1: commit(Q1) -->  ProcessMsg1
//	ProcessMsg2  <-- msg2: Q2, proof --
//	             -- msg3: open, N, ckey -> ProcessMsg3
//	Finalize                             Finalize
//
// P1 ends with x1 and a Paillier private key; P2 ends with x2, the Paillier
// public key and ckey = Enc(x1). The joint public key is x1*x2*G.
//
// The same three messages refresh an existing pair of shares. The points
// exchanged are then ephemeral blinding points R1 and R2, both parties
// derive r from r1*r2*G, and the new shares are x1*r and x2/r under a fresh
// Paillier key. The joint key and chain code are unchanged.
package keygen

import (
	"fmt"

	"github.com/Caqil/tss-2p/internal/security"
	"github.com/Caqil/tss-2p/internal/session"
	"github.com/Caqil/tss-2p/pkg/crypto/hash"
	"github.com/Caqil/tss-2p/pkg/crypto/paillier"
	"github.com/Caqil/tss-2p/pkg/derivation"
)

const (
	chainSeedSize = 32
	chainCodeInfo = "tss2p/chaincode"
)

// labels names the protocol steps mixed into every proof and commitment
// context. Key generation and refresh never share a label.
type labels struct {
	commit   string
	p1DLog   string
	p2DLog   string
	paillier string
	encDLog  string
	blind    string
}

var (
	keygenLabels = labels{
		commit:   "keygen/commit",
		p1DLog:   "keygen/p1-dlog",
		p2DLog:   "keygen/p2-dlog",
		paillier: "keygen/paillier",
		encDLog:  "keygen/enc-dlog",
	}
	refreshLabels = labels{
		commit:   "refresh/commit",
		p1DLog:   "refresh/p1-dlog",
		p2DLog:   "refresh/p2-dlog",
		paillier: "refresh/paillier",
		encDLog:  "refresh/enc-dlog",
		blind:    "refresh/blind",
	}
)

// Options tunes key generation
type Options struct {
	// PaillierBits is the modulus size P1 generates
	PaillierBits int

	// MinPaillierBits is the smallest modulus P2 accepts
	MinPaillierBits int

	// MaxSessionIDLen bounds the session identifier
	MaxSessionIDLen int
}

// DefaultOptions returns production settings
func DefaultOptions() Options {
	return Options{
		PaillierBits:    2048,
		MinPaillierBits: 2048,
		MaxSessionIDLen: 1024,
	}
}

// Validate checks the options for consistency
func (o Options) Validate() error {
	if o.PaillierBits < paillier.MinBits || o.PaillierBits%2 != 0 {
		return fmt.Errorf("paillier bits %d: %w", o.PaillierBits, paillier.ErrInvalidKeySize)
	}
	if o.MinPaillierBits < paillier.MinBits {
		return fmt.Errorf("min paillier bits %d: %w", o.MinPaillierBits, paillier.ErrInvalidKeySize)
	}
	if o.MaxSessionIDLen <= 0 {
		return fmt.Errorf("max session id length %d: %w", o.MaxSessionIDLen, session.ErrInvalidID)
	}
	return nil
}

func chainCode(s session.Session, c1, c2 []byte) ([]byte, error) {
	ikm := make([]byte, 0, len(c1)+len(c2))
	ikm = append(ikm, c1...)
	ikm = append(ikm, c2...)
	defer security.SecureZero(ikm)
	return hash.HKDF(ikm, s.ID(), []byte(chainCodeInfo), derivation.ChainCodeSize)
}

// failed is the terminal state of a session that hit a protocol error
type failed struct {
	reason string
}

// finalized is the state of a session whose result was taken
type finalized struct{}
