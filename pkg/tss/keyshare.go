package tss

import (
	"github.com/Caqil/tss-2p/pkg/crypto/curve"
	"github.com/Caqil/tss-2p/pkg/derivation"
	"github.com/Caqil/tss-2p/pkg/keygen"
	"github.com/Caqil/tss-2p/pkg/registry"
	"github.com/Caqil/tss-2p/pkg/tsserr"
)

// P1KeyshareToBytes serializes P1's key share, secrets included
func (e *Engine) P1KeyshareToBytes(h Handle) ([]byte, error) {
	ks, lease, err := acquire[*keygen.KeyShareP1](e, h, registry.KindKeyShareP1)
	if err != nil {
		return nil, err
	}
	defer lease.Return()

	out, err := ks.MarshalBinary()
	if err != nil {
		return nil, tsserr.New(tsserr.SerializationError, err)
	}
	return out, nil
}

// P1KeyshareFromBytes restores a share produced by P1KeyshareToBytes
func (e *Engine) P1KeyshareFromBytes(data []byte) (Handle, error) {
	if data == nil {
		return 0, e.reject(protoKeyShare, "p1_from_bytes", 0, tsserr.ErrNullPtr)
	}
	ks, err := keygen.UnmarshalKeyShareP1(data)
	if err != nil {
		return 0, e.reject(protoKeyShare, "p1_from_bytes", 0, tsserr.New(tsserr.SerializationError, err))
	}
	return e.allocate(registry.KindKeyShareP1, ks)
}

// P1KeysharePublicKey returns the 33-byte compressed joint public key
func (e *Engine) P1KeysharePublicKey(h Handle) ([]byte, error) {
	ks, lease, err := acquire[*keygen.KeyShareP1](e, h, registry.KindKeyShareP1)
	if err != nil {
		return nil, err
	}
	defer lease.Return()
	return ks.PublicKeyBytes(), nil
}

// P1KeyshareFree releases the share and wipes its secrets
func (e *Engine) P1KeyshareFree(h Handle) error {
	return e.release(h, registry.KindKeyShareP1)
}

// P2KeyshareToBytes serializes P2's key share, secrets included
func (e *Engine) P2KeyshareToBytes(h Handle) ([]byte, error) {
	ks, lease, err := acquire[*keygen.KeyShareP2](e, h, registry.KindKeyShareP2)
	if err != nil {
		return nil, err
	}
	defer lease.Return()

	out, err := ks.MarshalBinary()
	if err != nil {
		return nil, tsserr.New(tsserr.SerializationError, err)
	}
	return out, nil
}

// P2KeyshareFromBytes restores a share produced by P2KeyshareToBytes
func (e *Engine) P2KeyshareFromBytes(data []byte) (Handle, error) {
	if data == nil {
		return 0, e.reject(protoKeyShare, "p2_from_bytes", 0, tsserr.ErrNullPtr)
	}
	ks, err := keygen.UnmarshalKeyShareP2(data)
	if err != nil {
		return 0, e.reject(protoKeyShare, "p2_from_bytes", 0, tsserr.New(tsserr.SerializationError, err))
	}
	return e.allocate(registry.KindKeyShareP2, ks)
}

// P2KeysharePublicKey returns the 33-byte compressed joint public key
func (e *Engine) P2KeysharePublicKey(h Handle) ([]byte, error) {
	ks, lease, err := acquire[*keygen.KeyShareP2](e, h, registry.KindKeyShareP2)
	if err != nil {
		return nil, err
	}
	defer lease.Return()
	return ks.PublicKeyBytes(), nil
}

// P2KeyshareFree releases the share and wipes its secrets
func (e *Engine) P2KeyshareFree(h Handle) error {
	return e.release(h, registry.KindKeyShareP2)
}

// KeyshareDerivePublicKey returns the 33-byte child public key at a
// non-hardened path. h may be either party's share; both derive the same key.
func (e *Engine) KeyshareDerivePublicKey(h Handle, path string) ([]byte, error) {
	p, err := derivation.ParsePath(path)
	if err != nil {
		return nil, tsserr.New(tsserr.InvalidDerivationPathStr, err)
	}

	kind, err := e.reg.KindOf(h)
	if err != nil {
		return nil, classify(err, tsserr.UnknownError)
	}

	type deriver interface {
		DerivePublicKey(derivation.Path) (*curve.Point, error)
	}
	var (
		d     deriver
		lease *registry.Lease
	)
	switch kind {
	case registry.KindKeyShareP1:
		d, lease, err = acquire[*keygen.KeyShareP1](e, h, kind)
	case registry.KindKeyShareP2:
		d, lease, err = acquire[*keygen.KeyShareP2](e, h, kind)
	default:
		return nil, tsserr.ErrInvalidHandleType
	}
	if err != nil {
		return nil, err
	}
	defer lease.Return()

	child, err := d.DerivePublicKey(p)
	if err != nil {
		return nil, tsserr.New(tsserr.InvalidDerivationPathStr, err)
	}
	return child.Bytes(), nil
}
