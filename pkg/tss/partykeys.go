package tss

import (
	"github.com/Caqil/tss-2p/pkg/partykeys"
	"github.com/Caqil/tss-2p/pkg/registry"
	"github.com/Caqil/tss-2p/pkg/tsserr"
)

// PartyKeysNew generates a fresh message-authentication key pair
func (e *Engine) PartyKeysNew() (Handle, error) {
	pk, err := partykeys.New()
	if err != nil {
		return 0, e.reject(protoPartyKeys, "new", 0, classify(err, tsserr.UnknownError))
	}
	return e.allocate(registry.KindPartyKeys, pk)
}

// PartyKeysFromBytes restores party keys serialized with PartyKeysToBytes
func (e *Engine) PartyKeysFromBytes(data []byte) (Handle, error) {
	if data == nil {
		return 0, e.reject(protoPartyKeys, "from_bytes", 0, tsserr.ErrNullPtr)
	}
	pk, err := partykeys.FromBytes(data)
	if err != nil {
		return 0, e.reject(protoPartyKeys, "from_bytes", 0, tsserr.New(tsserr.SerializationError, err))
	}
	return e.allocate(registry.KindPartyKeys, pk)
}

// PartyKeysToBytes serializes the key pair, secret included
func (e *Engine) PartyKeysToBytes(h Handle) ([]byte, error) {
	pk, lease, err := acquire[*partykeys.PartyKeys](e, h, registry.KindPartyKeys)
	if err != nil {
		return nil, err
	}
	defer lease.Return()
	return pk.Bytes(), nil
}

// PartyKeysMessagePK returns the 32-byte public key
func (e *Engine) PartyKeysMessagePK(h Handle) ([]byte, error) {
	pk, lease, err := acquire[*partykeys.PartyKeys](e, h, registry.KindPartyKeys)
	if err != nil {
		return nil, err
	}
	defer lease.Return()
	return pk.PublicKey(), nil
}

// PartyKeysMessageSign signs an arbitrary message, returning 64 bytes
func (e *Engine) PartyKeysMessageSign(h Handle, msg []byte) ([]byte, error) {
	if msg == nil {
		return nil, e.reject(protoPartyKeys, "sign", h, tsserr.ErrNullPtr)
	}
	pk, lease, err := acquire[*partykeys.PartyKeys](e, h, registry.KindPartyKeys)
	if err != nil {
		return nil, err
	}
	defer lease.Return()

	sig, err := pk.Sign(msg)
	if err != nil {
		return nil, classify(err, tsserr.UnknownError)
	}
	return sig, nil
}

// PartyKeysFree releases the key pair and wipes its secret
func (e *Engine) PartyKeysFree(h Handle) error {
	return e.release(h, registry.KindPartyKeys)
}

// VerifyMessage checks a signature produced by PartyKeysMessageSign. It
// needs no engine state.
func VerifyMessage(publicKey, msg, sig []byte) error {
	if publicKey == nil || msg == nil || sig == nil {
		return tsserr.ErrNullPtr
	}
	return classify(partykeys.Verify(publicKey, msg, sig), tsserr.MessageSignVerify)
}
