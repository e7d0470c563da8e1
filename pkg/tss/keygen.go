package tss

import (
	"github.com/Caqil/tss-2p/pkg/keygen"
	"github.com/Caqil/tss-2p/pkg/logger"
	"github.com/Caqil/tss-2p/pkg/partykeys"
	"github.com/Caqil/tss-2p/pkg/registry"
	"github.com/Caqil/tss-2p/pkg/tsserr"
)

// P1KeygenInit starts key generation for P1. partyKeys authenticates P1's
// messages and is copied into the resulting share; the handle stays owned
// by the caller.
func (e *Engine) P1KeygenInit(sid []byte, partyKeys Handle) (Handle, error) {
	if sid == nil {
		return 0, e.reject(protoKeygen, "p1_init", 0, tsserr.ErrNullPtr)
	}
	pk, lease, err := acquire[*partykeys.PartyKeys](e, partyKeys, registry.KindPartyKeys)
	if err != nil {
		return 0, e.reject(protoKeygen, "p1_init", partyKeys, err)
	}
	s, err := keygen.NewP1(sid, pk, e.cfg.keygenOptions())
	lease.Return()
	if err != nil {
		return 0, e.reject(protoKeygen, "p1_init", 0, classify(err, tsserr.UnknownError))
	}

	h, err := e.allocate(registry.KindKeygenSessionP1, s)
	if err != nil {
		return 0, err
	}
	e.log.DebugEvent().
		Int("handle", int(h)).
		Str("sid", logger.Fingerprint(sid)).
		Msg("keygen session started for P1")
	return h, nil
}

// P2KeygenInit starts key generation for P2
func (e *Engine) P2KeygenInit(sid []byte) (Handle, error) {
	if sid == nil {
		return 0, e.reject(protoKeygen, "p2_init", 0, tsserr.ErrNullPtr)
	}
	s, err := keygen.NewP2(sid, e.cfg.keygenOptions())
	if err != nil {
		return 0, e.reject(protoKeygen, "p2_init", 0, classify(err, tsserr.UnknownError))
	}

	h, err := e.allocate(registry.KindKeygenSessionP2, s)
	if err != nil {
		return 0, err
	}
	e.log.DebugEvent().
		Int("handle", int(h)).
		Str("sid", logger.Fingerprint(sid)).
		Msg("keygen session started for P2")
	return h, nil
}

// P1KeygenGenMsg1 produces P1's commitment message
func (e *Engine) P1KeygenGenMsg1(h Handle) ([]byte, error) {
	return step(e, protoKeygen, "p1_gen_msg1", h, registry.KindKeygenSessionP1,
		func(s *keygen.P1) ([]byte, error) {
			return s.GenMsg1()
		})
}

// P2KeygenProcessMsg1 consumes msg1 and produces msg2
func (e *Engine) P2KeygenProcessMsg1(h Handle, msg1 []byte) ([]byte, error) {
	if msg1 == nil {
		return nil, e.reject(protoKeygen, "p2_process_msg1", h, tsserr.ErrNullPtr)
	}
	return step(e, protoKeygen, "p2_process_msg1", h, registry.KindKeygenSessionP2,
		func(s *keygen.P2) ([]byte, error) {
			return s.ProcessMsg1(msg1)
		})
}

// P1KeygenProcessMsg2 consumes msg2 and produces msg3. This is where P1
// generates its Paillier key, so it is by far the slowest step.
func (e *Engine) P1KeygenProcessMsg2(h Handle, msg2 []byte) ([]byte, error) {
	if msg2 == nil {
		return nil, e.reject(protoKeygen, "p1_process_msg2", h, tsserr.ErrNullPtr)
	}
	return step(e, protoKeygen, "p1_process_msg2", h, registry.KindKeygenSessionP1,
		func(s *keygen.P1) ([]byte, error) {
			return s.ProcessMsg2(msg2)
		})
}

// P2KeygenProcessMsg3 consumes msg3, after which P2 can finalize
func (e *Engine) P2KeygenProcessMsg3(h Handle, msg3 []byte) error {
	if msg3 == nil {
		return e.reject(protoKeygen, "p2_process_msg3", h, tsserr.ErrNullPtr)
	}
	_, err := step(e, protoKeygen, "p2_process_msg3", h, registry.KindKeygenSessionP2,
		func(s *keygen.P2) ([]byte, error) {
			return nil, s.ProcessMsg3(msg3)
		})
	return err
}

// P1KeygenFini consumes the session handle and returns a key share handle
func (e *Engine) P1KeygenFini(h Handle) (Handle, error) {
	share, err := finish(e, protoKeygen, "p1_fini", h, registry.KindKeygenSessionP1,
		func(s *keygen.P1) (*keygen.KeyShareP1, error) {
			return s.Finalize()
		})
	if err != nil {
		return 0, err
	}
	return e.allocate(registry.KindKeyShareP1, share)
}

// P2KeygenFini consumes the session handle and returns a key share handle
func (e *Engine) P2KeygenFini(h Handle) (Handle, error) {
	share, err := finish(e, protoKeygen, "p2_fini", h, registry.KindKeygenSessionP2,
		func(s *keygen.P2) (*keygen.KeyShareP2, error) {
			return s.Finalize()
		})
	if err != nil {
		return 0, err
	}
	return e.allocate(registry.KindKeyShareP2, share)
}

// P1KeygenErrorMsg describes why a failed session failed
func (e *Engine) P1KeygenErrorMsg(h Handle) (string, error) {
	return errorMessage[*keygen.P1](e, h, registry.KindKeygenSessionP1)
}

// P2KeygenErrorMsg describes why a failed session failed
func (e *Engine) P2KeygenErrorMsg(h Handle) (string, error) {
	return errorMessage[*keygen.P2](e, h, registry.KindKeygenSessionP2)
}

// FreeSession disposes of any key generation or signing session that has
// not been finalized, wiping its secrets
func (e *Engine) FreeSession(h Handle) error {
	kind, err := e.reg.KindOf(h)
	if err != nil {
		return classify(err, tsserr.UnknownError)
	}
	switch kind {
	case registry.KindKeygenSessionP1, registry.KindKeygenSessionP2,
		registry.KindSignSessionP1, registry.KindSignSessionP2:
		return e.release(h, kind)
	}
	return tsserr.ErrInvalidHandleType
}

type diagnosable interface {
	ErrorMessage() (string, error)
}

func errorMessage[S diagnosable](e *Engine, h Handle, kind registry.Kind) (string, error) {
	s, lease, err := acquire[S](e, h, kind)
	if err != nil {
		return "", err
	}
	defer lease.Return()

	msg, err := s.ErrorMessage()
	if err != nil {
		return "", classify(err, tsserr.UnknownError)
	}
	return msg, nil
}
