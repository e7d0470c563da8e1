// Package derivation parses non-hardened BIP-32 paths and derives the
// additive tweak a path applies to the joint public key. Both parties apply
// the same tweak during signing, so signatures verify under the child key.
package derivation

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"math/big"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"

	"github.com/Caqil/tss-2p/pkg/crypto/curve"
)

// xpubVersion is the mainnet BIP-32 public version. It only labels the
// extended key used for checking and never leaves this package.
var xpubVersion = []byte{0x04, 0x88, 0xb2, 0x1e}

const (
	// ChainCodeSize is the length of a BIP-32 chain code
	ChainCodeSize = 32

	// MaxDepth bounds the number of path segments
	MaxDepth = 255
)

// Path is a sequence of non-hardened child indices
type Path []uint32

// ParsePath accepts "m", "m/0/1", "0/1" and the empty string. Hardened
// segments are rejected because they cannot be derived from a public key.
func ParsePath(s string) (Path, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "m" {
		return Path{}, nil
	}
	s = strings.TrimPrefix(s, "m/")

	segments := strings.Split(s, "/")
	if len(segments) > MaxDepth {
		return nil, ErrPathTooDeep
	}

	path := make(Path, 0, len(segments))
	for _, seg := range segments {
		if seg == "" {
			return nil, ErrEmptySegment
		}
		if strings.HasSuffix(seg, "'") || strings.HasSuffix(seg, "h") || strings.HasSuffix(seg, "H") {
			return nil, ErrHardenedSegment
		}
		if seg[0] == '+' || seg[0] == '-' {
			return nil, ErrInvalidSegment
		}
		idx, err := strconv.ParseUint(seg, 10, 32)
		if err != nil {
			return nil, ErrInvalidSegment
		}
		if idx >= hdkeychain.HardenedKeyStart {
			return nil, ErrHardenedSegment
		}
		path = append(path, uint32(idx))
	}
	return path, nil
}

// String renders the path in "m/0/1" form
func (p Path) String() string {
	var b strings.Builder
	b.WriteString("m")
	for _, idx := range p {
		b.WriteByte('/')
		b.WriteString(strconv.FormatUint(uint64(idx), 10))
	}
	return b.String()
}

// Result is the outcome of deriving a path from a public key
type Result struct {
	// Tweak is the sum of the per-level offsets, reduced mod the group order.
	// The child private key is the parent private key plus Tweak.
	Tweak *big.Int

	// PublicKey is parent + Tweak*G
	PublicKey *curve.Point

	// ChainCode is the chain code of the final child
	ChainCode []byte
}

// Derive walks path from the given public key and chain code. Every level
// is checked against the BIP-32 child computed by hdkeychain, so the tweak
// both signers apply always lands on the standard child key.
func Derive(pub *curve.Point, chainCode []byte, path Path) (*Result, error) {
	if len(chainCode) != ChainCodeSize {
		return nil, ErrInvalidChainCode
	}

	c := curve.Secp256k1()
	if !c.IsOnCurve(pub) {
		return nil, curve.ErrInvalidPoint
	}
	order := c.Order()

	tweak := new(big.Int)
	current := pub.Clone()
	chain := append([]byte(nil), chainCode...)
	ext := hdkeychain.NewExtendedKey(xpubVersion, current.Bytes(), chain, []byte{0, 0, 0, 0}, 0, 0, false)

	for _, idx := range path {
		if idx >= hdkeychain.HardenedKeyStart {
			return nil, ErrHardenedSegment
		}

		mac := hmac.New(sha512.New, chain)
		mac.Write(current.Bytes())
		var ser [4]byte
		binary.BigEndian.PutUint32(ser[:], idx)
		mac.Write(ser[:])
		sum := mac.Sum(nil)

		il := new(big.Int).SetBytes(sum[:32])
		if il.Cmp(order) >= 0 {
			return nil, ErrInvalidChild
		}

		next := current
		if il.Sign() != 0 {
			offset, err := c.ScalarBaseMult(il)
			if err != nil {
				return nil, err
			}
			if next, err = c.Add(current, offset); err != nil {
				return nil, ErrInvalidChild
			}
		}

		child, err := ext.Derive(idx)
		if err != nil {
			return nil, ErrInvalidChild
		}
		if err := matchChild(child, next, sum[32:]); err != nil {
			return nil, err
		}

		tweak.Add(tweak, il)
		tweak.Mod(tweak, order)
		current = next
		chain = sum[32:]
		ext = child
	}

	return &Result{Tweak: tweak, PublicKey: current, ChainCode: chain}, nil
}

func matchChild(child *hdkeychain.ExtendedKey, pub *curve.Point, chain []byte) error {
	want, err := child.ECPubKey()
	if err != nil {
		return ErrInvalidChild
	}
	if !bytes.Equal(want.SerializeCompressed(), pub.Bytes()) || !bytes.Equal(child.ChainCode(), chain) {
		return ErrChildMismatch
	}
	return nil
}
