package keygen

import (
	"fmt"
	"math/big"

	"github.com/Caqil/tss-2p/internal/security"
	"github.com/Caqil/tss-2p/internal/wire"
	"github.com/Caqil/tss-2p/pkg/crypto/curve"
	"github.com/Caqil/tss-2p/pkg/crypto/paillier"
	"github.com/Caqil/tss-2p/pkg/derivation"
	"github.com/Caqil/tss-2p/pkg/partykeys"
)

// KeyShareP1 is P1's durable output of key generation
type KeyShareP1 struct {
	// X1 is P1's secret share
	X1 *big.Int

	// PublicKey is the joint public key x1*x2*G
	PublicKey *curve.Point

	// Paillier is the key under which P2 holds Enc(x1)
	Paillier *paillier.PrivateKey

	// ChainCode roots BIP-32 derivation from PublicKey
	ChainCode []byte

	// PartyKeys authenticates P1's signing messages
	PartyKeys *partykeys.PartyKeys
}

// KeyShareP2 is P2's durable output of key generation
type KeyShareP2 struct {
	// X2 is P2's secret share
	X2 *big.Int

	// PublicKey is the joint public key x1*x2*G
	PublicKey *curve.Point

	// Paillier is P1's Paillier public key
	Paillier *paillier.PublicKey

	// CKey is the Paillier encryption of x1
	CKey *big.Int

	// ChainCode roots BIP-32 derivation from PublicKey
	ChainCode []byte

	// P1MessagePK is P1's party public key, pinned at key generation
	P1MessagePK []byte
}

const (
	keyShareP1Fields = 6
	keyShareP2Fields = 6
)

// PublicKeyBytes returns the 33-byte compressed joint public key
func (ks *KeyShareP1) PublicKeyBytes() []byte {
	return ks.PublicKey.Bytes()
}

// DerivePublicKey returns the child public key at path
func (ks *KeyShareP1) DerivePublicKey(path derivation.Path) (*curve.Point, error) {
	res, err := derivation.Derive(ks.PublicKey, ks.ChainCode, path)
	if err != nil {
		return nil, err
	}
	return res.PublicKey, nil
}

// MarshalBinary encodes the share including all secrets
func (ks *KeyShareP1) MarshalBinary() ([]byte, error) {
	x1 := curve.ScalarBytes(ks.X1)
	defer security.SecureZero(x1)
	pk := ks.PartyKeys.Bytes()
	defer security.SecureZero(pk)

	return wire.NewWriter(wire.KindKeyShareP1).
		Bytes(x1).
		Bytes(ks.PublicKey.Bytes()).
		Bytes(ks.ChainCode).
		Int(ks.Paillier.P).
		Int(ks.Paillier.Q).
		Bytes(pk).
		Finish(), nil
}

// UnmarshalKeyShareP1 decodes a share produced by MarshalBinary
func UnmarshalKeyShareP1(data []byte) (*KeyShareP1, error) {
	r, err := wire.Decode(data, wire.KindKeyShareP1, keyShareP1Fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedKeyShare, err)
	}
	x1Bytes := r.Fixed(curve.ScalarSize)
	pubBytes := r.Fixed(curve.PointSize)
	chain := r.Fixed(derivation.ChainCodeSize)
	p := r.Int()
	q := r.Int()
	pkBytes := r.Bytes()
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedKeyShare, err)
	}
	defer security.SecureZero(x1Bytes)
	defer security.SecureZero(pkBytes)

	c := curve.Secp256k1()
	x1, err := curve.ParseScalar(c, x1Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: x1: %v", ErrMalformedKeyShare, err)
	}
	pub, err := c.Unmarshal(pubBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: public key: %v", ErrMalformedKeyShare, err)
	}
	sk, err := paillier.NewPrivateKey(p, q)
	if err != nil {
		return nil, fmt.Errorf("%w: paillier: %v", ErrMalformedKeyShare, err)
	}
	if sk.N.BitLen() < paillier.MinBits {
		return nil, fmt.Errorf("%w: paillier: %v", ErrMalformedKeyShare, paillier.ErrInvalidKeySize)
	}
	pk, err := partykeys.FromBytes(pkBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: party keys: %v", ErrMalformedKeyShare, err)
	}

	return &KeyShareP1{
		X1:        x1,
		PublicKey: pub,
		Paillier:  sk,
		ChainCode: chain,
		PartyKeys: pk,
	}, nil
}

// Clone returns an independent deep copy
func (ks *KeyShareP1) Clone() (*KeyShareP1, error) {
	data, err := ks.MarshalBinary()
	if err != nil {
		return nil, err
	}
	defer security.SecureZero(data)
	return UnmarshalKeyShareP1(data)
}

// Zero wipes the secret share, the Paillier factors and the party keys
func (ks *KeyShareP1) Zero() {
	security.SecureZeroBigInt(ks.X1)
	if ks.Paillier != nil {
		ks.Paillier.Zero()
	}
	if ks.PartyKeys != nil {
		ks.PartyKeys.Zero()
	}
	security.SecureZero(ks.ChainCode)
}

// PublicKeyBytes returns the 33-byte compressed joint public key
func (ks *KeyShareP2) PublicKeyBytes() []byte {
	return ks.PublicKey.Bytes()
}

// DerivePublicKey returns the child public key at path
func (ks *KeyShareP2) DerivePublicKey(path derivation.Path) (*curve.Point, error) {
	res, err := derivation.Derive(ks.PublicKey, ks.ChainCode, path)
	if err != nil {
		return nil, err
	}
	return res.PublicKey, nil
}

// MarshalBinary encodes the share including x2
func (ks *KeyShareP2) MarshalBinary() ([]byte, error) {
	x2 := curve.ScalarBytes(ks.X2)
	defer security.SecureZero(x2)

	return wire.NewWriter(wire.KindKeyShareP2).
		Bytes(x2).
		Bytes(ks.PublicKey.Bytes()).
		Bytes(ks.ChainCode).
		Int(ks.Paillier.N).
		Int(ks.CKey).
		Bytes(ks.P1MessagePK).
		Finish(), nil
}

// UnmarshalKeyShareP2 decodes a share produced by MarshalBinary
func UnmarshalKeyShareP2(data []byte) (*KeyShareP2, error) {
	r, err := wire.Decode(data, wire.KindKeyShareP2, keyShareP2Fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedKeyShare, err)
	}
	x2Bytes := r.Fixed(curve.ScalarSize)
	pubBytes := r.Fixed(curve.PointSize)
	chain := r.Fixed(derivation.ChainCodeSize)
	n := r.Int()
	ckey := r.Int()
	p1pk := r.Fixed(partykeys.PublicKeySize)
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedKeyShare, err)
	}
	defer security.SecureZero(x2Bytes)

	c := curve.Secp256k1()
	x2, err := curve.ParseScalar(c, x2Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: x2: %v", ErrMalformedKeyShare, err)
	}
	pub, err := c.Unmarshal(pubBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: public key: %v", ErrMalformedKeyShare, err)
	}
	ppk, err := paillier.NewPublicKey(n)
	if err != nil {
		return nil, fmt.Errorf("%w: paillier: %v", ErrMalformedKeyShare, err)
	}
	if err := ppk.ValidateCiphertext(ckey); err != nil {
		return nil, fmt.Errorf("%w: ckey: %v", ErrMalformedKeyShare, err)
	}
	if err := partykeys.ValidatePublicKey(p1pk); err != nil {
		return nil, fmt.Errorf("%w: p1 message key: %v", ErrMalformedKeyShare, err)
	}

	return &KeyShareP2{
		X2:          x2,
		PublicKey:   pub,
		Paillier:    ppk,
		CKey:        ckey,
		ChainCode:   chain,
		P1MessagePK: p1pk,
	}, nil
}

// Clone returns an independent deep copy
func (ks *KeyShareP2) Clone() (*KeyShareP2, error) {
	data, err := ks.MarshalBinary()
	if err != nil {
		return nil, err
	}
	defer security.SecureZero(data)
	return UnmarshalKeyShareP2(data)
}

// Zero wipes the secret share
func (ks *KeyShareP2) Zero() {
	security.SecureZeroBigInt(ks.X2)
	security.SecureZero(ks.ChainCode)
}
