// Package partykeys implements the long-lived key pair P1 uses to
// authenticate its protocol messages. It is a BIP-340 Schnorr key over
// secp256k1 and is unrelated to the threshold signing key.
package partykeys

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/Caqil/tss-2p/internal/security"
	"github.com/Caqil/tss-2p/internal/wire"
)

const (
	// PublicKeySize is the length of an x-only public key
	PublicKeySize = schnorr.PubKeyBytesLen

	// SignatureSize is the length of a BIP-340 signature
	SignatureSize = schnorr.SignatureSize

	secretSize = 32
	messageTag = "tss2p/message"
)

// PartyKeys is an authentication key pair. It is immutable after creation.
type PartyKeys struct {
	priv *btcec.PrivateKey
}

// New generates a fresh key pair
func New() (*PartyKeys, error) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, err
	}
	return &PartyKeys{priv: priv}, nil
}

// FromBytes decodes a key pair produced by Bytes
func FromBytes(data []byte) (*PartyKeys, error) {
	r, err := wire.Decode(data, wire.KindPartyKeys, 1)
	if err != nil {
		return nil, err
	}
	secret := r.Fixed(secretSize)
	if err := r.Err(); err != nil {
		return nil, err
	}
	defer security.SecureZero(secret)

	var s btcec.ModNScalar
	if overflow := s.SetByteSlice(secret); overflow || s.IsZero() {
		return nil, ErrInvalidSecret
	}
	s.Zero()

	priv, _ := btcec.PrivKeyFromBytes(secret)
	return &PartyKeys{priv: priv}, nil
}

// Bytes encodes the key pair, including the secret key
func (pk *PartyKeys) Bytes() []byte {
	secret := pk.priv.Serialize()
	defer security.SecureZero(secret)
	return wire.NewWriter(wire.KindPartyKeys).Bytes(secret).Finish()
}

// PublicKey returns the 32-byte x-only public key
func (pk *PartyKeys) PublicKey() []byte {
	return schnorr.SerializePubKey(pk.priv.PubKey())
}

// Sign produces a 64-byte BIP-340 signature over msg
func (pk *PartyKeys) Sign(msg []byte) ([]byte, error) {
	sig, err := schnorr.Sign(pk.priv, messageHash(msg))
	if err != nil {
		return nil, err
	}
	return sig.Serialize(), nil
}

// Zero wipes the secret key
func (pk *PartyKeys) Zero() {
	if pk.priv != nil {
		pk.priv.Zero()
	}
}

// Verify checks a signature produced by Sign. Structural problems with the
// public key or signature are reported separately from a signature that
// simply does not verify.
func Verify(publicKey, msg, sig []byte) error {
	pub, err := schnorr.ParsePubKey(publicKey)
	if err != nil {
		return ErrInvalidPublicKey
	}
	parsed, err := schnorr.ParseSignature(sig)
	if err != nil {
		return ErrInvalidSignature
	}
	if !parsed.Verify(messageHash(msg), pub) {
		return ErrVerifyFailed
	}
	return nil
}

// ValidatePublicKey checks that publicKey is a well-formed x-only key
func ValidatePublicKey(publicKey []byte) error {
	if _, err := schnorr.ParsePubKey(publicKey); err != nil {
		return ErrInvalidPublicKey
	}
	return nil
}

func messageHash(msg []byte) []byte {
	return chainhash.TaggedHash([]byte(messageTag), msg)[:]
}
