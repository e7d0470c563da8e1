package tss

import (
	"errors"

	"github.com/Caqil/tss-2p/internal/session"
	"github.com/Caqil/tss-2p/pkg/keygen"
	"github.com/Caqil/tss-2p/pkg/partykeys"
	"github.com/Caqil/tss-2p/pkg/registry"
	"github.com/Caqil/tss-2p/pkg/signing"
	"github.com/Caqil/tss-2p/pkg/tsserr"
)

// classification maps package sentinels to error codes. Order matters:
// the first match wins.
var classification = []struct {
	target error
	code   tsserr.Code
}{
	{registry.ErrInvalidHandle, tsserr.InvalidHandle},
	{registry.ErrWrongKind, tsserr.InvalidHandleType},
	{registry.ErrHandleInUse, tsserr.HandleInUse},
	{registry.ErrNilObject, tsserr.NullPtr},

	{session.ErrInvalidID, tsserr.InvalidSessionId},
	{session.ErrMismatch, tsserr.InvalidSessionId},
	{keygen.ErrInvalidState, tsserr.InvalidSessionState},
	{signing.ErrInvalidState, tsserr.InvalidSessionState},

	{keygen.ErrNilPartyKeys, tsserr.NullPtr},
	{keygen.ErrNilKeyShare, tsserr.NullPtr},
	{keygen.ErrPartyKeysMismatch, tsserr.MessageSignPk},
	{signing.ErrNilKeyShare, tsserr.NullPtr},

	{signing.ErrInvalidDigest, tsserr.InvalidMsgHash},
	{signing.ErrDigestMismatch, tsserr.InvalidMsgHash},
	{signing.ErrInvalidPath, tsserr.InvalidDerivationPathStr},
	{signing.ErrPathMismatch, tsserr.InvalidDerivationPathStr},

	{keygen.ErrMalformedKeyShare, tsserr.SerializationError},

	{partykeys.ErrInvalidPublicKey, tsserr.MessageSignPk},
	{partykeys.ErrInvalidSignature, tsserr.MessageSignature},
	{partykeys.ErrVerifyFailed, tsserr.MessageSignVerify},
}

// classify converts err into a *tsserr.Error. Errors that match no known
// sentinel get fallback, which depends on the operation: protocol steps
// use ProcessMessageError, decoders SerializationError.
func classify(err error, fallback tsserr.Code) error {
	if err == nil {
		return nil
	}
	var te *tsserr.Error
	if errors.As(err, &te) {
		return te
	}
	for _, c := range classification {
		if errors.Is(err, c.target) {
			return tsserr.New(c.code, err)
		}
	}
	return tsserr.New(fallback, err)
}
