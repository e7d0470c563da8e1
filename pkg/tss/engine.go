// Package tss is the operation surface of the two-party signing core.
//
// An Engine owns a handle registry. Every object it creates (party keys,
// key shares, sessions) is referred to by an opaque Handle, and every
// fallible operation returns a *tsserr.Error carrying one of the fixed
// error codes.
//
//	P1                                   P2
//	P1KeygenInit                         P2KeygenInit
//	P1KeygenGenMsg1        --msg1-->     P2KeygenProcessMsg1
//	P1KeygenProcessMsg2    <--msg2--
//	                       --msg3-->     P2KeygenProcessMsg3
//	P1KeygenFini                         P2KeygenFini
//
// P1KeyRefreshInit and P2KeyRefreshInit start the same three-message flow
// from an existing pair of shares.
//
//	P1InitSigner                         P2InitSigner
//	P1SignerGenMsg1        --msg1-->     P2SignerProcessMsg1
//	P1SignerProcessMsg2    <--msg2--
//	                       --msg3-->     P2SignerProcessMsg3
//	P1SignerProcessMsg4    <--msg4--
//	P1SignerFini           --msg5-->     P2SignerProcessMsg5
//
// Moving messages between the parties is the caller's job.
package tss

import (
	"time"

	"github.com/Caqil/tss-2p/internal/security"
	"github.com/Caqil/tss-2p/pkg/logger"
	"github.com/Caqil/tss-2p/pkg/metrics"
	"github.com/Caqil/tss-2p/pkg/registry"
	"github.com/Caqil/tss-2p/pkg/tsserr"
)

// Handle refers to an object owned by an Engine. Zero is never issued.
type Handle = registry.Handle

const (
	protoKeygen    = "keygen"
	protoSign      = "sign"
	protoPartyKeys = "partykeys"
	protoKeyShare  = "keyshare"
	protoRefresh   = "refresh"
)

// Engine runs key generation and signing sessions for either party.
// It is safe for concurrent use; concurrent calls on the same handle fail
// with HandleInUse.
type Engine struct {
	cfg     Config
	reg     *registry.Registry
	log     *logger.Logger
	metrics *metrics.Metrics
}

// NewEngine creates an engine. A nil cfg selects DefaultConfig.
func NewEngine(cfg *Config) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, tsserr.New(tsserr.UnknownError, err)
	}

	m, err := metrics.New(cfg.Registerer)
	if err != nil {
		return nil, tsserr.New(tsserr.UnknownError, err)
	}

	kinds := registry.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	m.InitKinds(names...)

	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}

	e := &Engine{
		cfg:     *cfg,
		reg:     registry.New(registry.WithObserver(m)),
		log:     log.With().Str("component", "tss").Logger(),
		metrics: m,
	}
	return e, nil
}

// LiveHandles returns the number of handles not yet released
func (e *Engine) LiveHandles() int {
	return e.reg.Len()
}

// Close releases every live handle, wiping the secrets they hold
func (e *Engine) Close() {
	n := e.reg.Len()
	e.reg.Close()
	e.log.DebugEvent().Int("released", n).Msg("engine closed")
}

// acquire borrows the object behind h exclusively
func acquire[T any](e *Engine, h Handle, kind registry.Kind) (T, *registry.Lease, error) {
	var zero T
	lease, err := e.reg.Acquire(h, kind)
	if err != nil {
		return zero, nil, classify(err, tsserr.UnknownError)
	}
	obj, ok := lease.Object().(T)
	if !ok {
		lease.Return()
		return zero, nil, tsserr.New(tsserr.InvalidHandleType, nil)
	}
	return obj, lease, nil
}

// step runs fn on the session behind h and records the outcome
func step[S any](e *Engine, protocol, name string, h Handle, kind registry.Kind, fn func(S) ([]byte, error)) ([]byte, error) {
	start := time.Now()
	out, err := func() ([]byte, error) {
		s, lease, err := acquire[S](e, h, kind)
		if err != nil {
			return nil, err
		}
		defer lease.Return()

		out, err := fn(s)
		if err != nil {
			return nil, classify(err, tsserr.ProcessMessageError)
		}
		return out, nil
	}()
	e.observe(protocol, name, h, start, err)
	return out, err
}

// finish runs fn on the session behind h and consumes the handle on
// success. On failure the handle stays live.
func finish[S, R any](e *Engine, protocol, name string, h Handle, kind registry.Kind, fn func(S) (R, error)) (R, error) {
	start := time.Now()
	out, err := func() (R, error) {
		var zero R
		s, lease, err := acquire[S](e, h, kind)
		if err != nil {
			return zero, err
		}

		out, err := fn(s)
		if err != nil {
			lease.Return()
			return zero, classify(err, tsserr.ProcessMessageError)
		}
		lease.Consume()
		return out, nil
	}()
	e.observe(protocol, name, h, start, err)
	return out, err
}

// allocate registers obj, wiping it if registration fails
func (e *Engine) allocate(kind registry.Kind, obj security.Zeroizer) (Handle, error) {
	h, err := e.reg.Allocate(kind, obj)
	if err != nil {
		obj.Zero()
		return 0, classify(err, tsserr.UnknownError)
	}
	e.log.DebugEvent().Stringer("kind", kind).Int("handle", int(h)).Msg("handle allocated")
	return h, nil
}

// release frees h after checking its kind
func (e *Engine) release(h Handle, kind registry.Kind) error {
	if err := e.reg.ReleaseKind(h, kind); err != nil {
		return classify(err, tsserr.UnknownError)
	}
	e.log.DebugEvent().Stringer("kind", kind).Int("handle", int(h)).Msg("handle released")
	return nil
}

// reject records a failure detected before any session was touched
func (e *Engine) reject(protocol, name string, h Handle, err error) error {
	e.observe(protocol, name, h, time.Now(), err)
	return err
}

func (e *Engine) observe(protocol, name string, h Handle, start time.Time, err error) {
	code := tsserr.CodeOf(err)
	e.metrics.ObserveStep(protocol, name, code.String(), time.Since(start))

	if err != nil {
		e.log.WarnEvent().
			Str("protocol", protocol).
			Str("step", name).
			Int("handle", int(h)).
			Stringer("code", code).
			Err(err).
			Msg("step failed")
		return
	}
	e.log.DebugEvent().
		Str("protocol", protocol).
		Str("step", name).
		Int("handle", int(h)).
		Msg("step complete")
}
