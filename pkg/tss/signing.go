package tss

import (
	"github.com/Caqil/tss-2p/pkg/keygen"
	"github.com/Caqil/tss-2p/pkg/logger"
	"github.com/Caqil/tss-2p/pkg/registry"
	"github.com/Caqil/tss-2p/pkg/signing"
	"github.com/Caqil/tss-2p/pkg/tsserr"
)

// P1InitSigner starts a signing session for P1 over a 32-byte digest
// under the undelegated joint key
func (e *Engine) P1InitSigner(sid []byte, keyshare Handle, digest []byte) (Handle, error) {
	return e.P1InitSignerWithPath(sid, keyshare, digest, "")
}

// P1InitSignerWithPath is P1InitSigner with a non-hardened BIP-32 path
// such as "m/0/7". Both parties must use the same path.
func (e *Engine) P1InitSignerWithPath(sid []byte, keyshare Handle, digest []byte, path string) (Handle, error) {
	if sid == nil || digest == nil {
		return 0, e.reject(protoSign, "p1_init", 0, tsserr.ErrNullPtr)
	}
	share, lease, err := acquire[*keygen.KeyShareP1](e, keyshare, registry.KindKeyShareP1)
	if err != nil {
		return 0, e.reject(protoSign, "p1_init", keyshare, err)
	}
	s, err := signing.NewP1(sid, share, digest, path, e.cfg.signingOptions())
	lease.Return()
	if err != nil {
		return 0, e.reject(protoSign, "p1_init", 0, classify(err, tsserr.UnknownError))
	}

	h, err := e.allocate(registry.KindSignSessionP1, s)
	if err != nil {
		return 0, err
	}
	e.log.DebugEvent().
		Int("handle", int(h)).
		Str("sid", logger.Fingerprint(sid)).
		Str("key", logger.Fingerprint(s.PublicKey().Bytes())).
		Msg("signing session started for P1")
	return h, nil
}

// P2InitSigner starts a signing session for P2
func (e *Engine) P2InitSigner(sid []byte, keyshare Handle, digest []byte) (Handle, error) {
	return e.P2InitSignerWithPath(sid, keyshare, digest, "")
}

// P2InitSignerWithPath is P2InitSigner with a derivation path
func (e *Engine) P2InitSignerWithPath(sid []byte, keyshare Handle, digest []byte, path string) (Handle, error) {
	if sid == nil || digest == nil {
		return 0, e.reject(protoSign, "p2_init", 0, tsserr.ErrNullPtr)
	}
	share, lease, err := acquire[*keygen.KeyShareP2](e, keyshare, registry.KindKeyShareP2)
	if err != nil {
		return 0, e.reject(protoSign, "p2_init", keyshare, err)
	}
	s, err := signing.NewP2(sid, share, digest, path, e.cfg.signingOptions())
	lease.Return()
	if err != nil {
		return 0, e.reject(protoSign, "p2_init", 0, classify(err, tsserr.UnknownError))
	}

	h, err := e.allocate(registry.KindSignSessionP2, s)
	if err != nil {
		return 0, err
	}
	e.log.DebugEvent().
		Int("handle", int(h)).
		Str("sid", logger.Fingerprint(sid)).
		Str("key", logger.Fingerprint(s.PublicKey().Bytes())).
		Msg("signing session started for P2")
	return h, nil
}

// P1SignerGenMsg1 commits to P1's nonce and announces the request
func (e *Engine) P1SignerGenMsg1(h Handle) ([]byte, error) {
	return step(e, protoSign, "p1_gen_msg1", h, registry.KindSignSessionP1,
		func(s *signing.P1) ([]byte, error) {
			return s.GenMsg1()
		})
}

// P2SignerProcessMsg1 checks P1's request and produces msg2
func (e *Engine) P2SignerProcessMsg1(h Handle, msg1 []byte) ([]byte, error) {
	if msg1 == nil {
		return nil, e.reject(protoSign, "p2_process_msg1", h, tsserr.ErrNullPtr)
	}
	return step(e, protoSign, "p2_process_msg1", h, registry.KindSignSessionP2,
		func(s *signing.P2) ([]byte, error) {
			return s.ProcessMsg1(msg1)
		})
}

// P1SignerProcessMsg2 consumes msg2 and opens P1's nonce commitment
func (e *Engine) P1SignerProcessMsg2(h Handle, msg2 []byte) ([]byte, error) {
	if msg2 == nil {
		return nil, e.reject(protoSign, "p1_process_msg2", h, tsserr.ErrNullPtr)
	}
	return step(e, protoSign, "p1_process_msg2", h, registry.KindSignSessionP1,
		func(s *signing.P1) ([]byte, error) {
			return s.ProcessMsg2(msg2)
		})
}

// P2SignerProcessMsg3 consumes msg3 and produces the encrypted partial
// signature
func (e *Engine) P2SignerProcessMsg3(h Handle, msg3 []byte) ([]byte, error) {
	if msg3 == nil {
		return nil, e.reject(protoSign, "p2_process_msg3", h, tsserr.ErrNullPtr)
	}
	return step(e, protoSign, "p2_process_msg3", h, registry.KindSignSessionP2,
		func(s *signing.P2) ([]byte, error) {
			return s.ProcessMsg3(msg3)
		})
}

// P1SignerProcessMsg4 completes the signature and produces msg5
func (e *Engine) P1SignerProcessMsg4(h Handle, msg4 []byte) ([]byte, error) {
	if msg4 == nil {
		return nil, e.reject(protoSign, "p1_process_msg4", h, tsserr.ErrNullPtr)
	}
	return step(e, protoSign, "p1_process_msg4", h, registry.KindSignSessionP1,
		func(s *signing.P1) ([]byte, error) {
			return s.ProcessMsg4(msg4)
		})
}

// P1SignerFini returns the 64-byte r||s signature and consumes the handle
func (e *Engine) P1SignerFini(h Handle) ([]byte, error) {
	sig, err := finish(e, protoSign, "p1_fini", h, registry.KindSignSessionP1,
		func(s *signing.P1) (*signing.Signature, error) {
			return s.Finalize()
		})
	if err != nil {
		return nil, err
	}
	return sig.Bytes(), nil
}

// P2SignerProcessMsg5 verifies the signature P1 delivered and returns it.
// The handle is consumed on success.
func (e *Engine) P2SignerProcessMsg5(h Handle, msg5 []byte) ([]byte, error) {
	if msg5 == nil {
		return nil, e.reject(protoSign, "p2_process_msg5", h, tsserr.ErrNullPtr)
	}
	sig, err := finish(e, protoSign, "p2_process_msg5", h, registry.KindSignSessionP2,
		func(s *signing.P2) (*signing.Signature, error) {
			return s.ProcessMsg5(msg5)
		})
	if err != nil {
		return nil, err
	}
	return sig.Bytes(), nil
}

// P1SignerErrorMsg describes why a failed session failed
func (e *Engine) P1SignerErrorMsg(h Handle) (string, error) {
	return errorMessage[*signing.P1](e, h, registry.KindSignSessionP1)
}

// P2SignerErrorMsg describes why a failed session failed
func (e *Engine) P2SignerErrorMsg(h Handle) (string, error) {
	return errorMessage[*signing.P2](e, h, registry.KindSignSessionP2)
}

// VerifySignature checks a 64-byte r||s signature over a 32-byte digest
// against a 33-byte compressed public key
func VerifySignature(publicKey, digest, sig []byte) bool {
	return signing.Verify(publicKey, digest, sig)
}
