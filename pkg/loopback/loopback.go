// Package loopback runs both parties of a protocol inside one process,
// each on its own goroutine, passing messages over channels. It exists for
// tests and the demo command; it is not a transport.
package loopback

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/Caqil/tss-2p/pkg/tss"
)

// ErrDisagreement is returned when the parties finish with different signatures
var ErrDisagreement = errors.New("loopback: parties produced different signatures")

// KeygenResult holds the key share handles produced by RunKeygen
type KeygenResult struct {
	P1Share tss.Handle
	P2Share tss.Handle
}

// pipe carries messages in one direction
type pipe chan []byte

func newPipe() pipe {
	return make(pipe, 1)
}

func (p pipe) send(ctx context.Context, msg []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case p <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p pipe) recv(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	select {
	case msg := <-p:
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// RunKeygen runs key generation between P1 and P2 in sid. partyKeys
// authenticates P1 and remains owned by the caller. On failure no handle
// created here stays live.
func RunKeygen(ctx context.Context, e *tss.Engine, sid []byte, partyKeys tss.Handle) (*KeygenResult, error) {
	return runKeygen(ctx, e,
		func() (tss.Handle, error) { return e.P1KeygenInit(sid, partyKeys) },
		func() (tss.Handle, error) { return e.P2KeygenInit(sid) },
	)
}

// RunRefresh refreshes a pair of shares in sid and returns the new pair.
// The input handles stay live and owned by the caller.
func RunRefresh(ctx context.Context, e *tss.Engine, sid []byte, partyKeys, p1Share, p2Share tss.Handle) (*KeygenResult, error) {
	return runKeygen(ctx, e,
		func() (tss.Handle, error) { return e.P1KeyRefreshInit(sid, partyKeys, p1Share) },
		func() (tss.Handle, error) { return e.P2KeyRefreshInit(sid, p2Share) },
	)
}

// runKeygen drives the three-message flow on the sessions the init
// functions create
func runKeygen(ctx context.Context, e *tss.Engine, p1Init, p2Init func() (tss.Handle, error)) (*KeygenResult, error) {
	toP2, toP1 := newPipe(), newPipe()
	res := &KeygenResult{}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		h, err := p1Init()
		if err != nil {
			return fmt.Errorf("p1 init: %w", err)
		}
		defer freeOnError(e, h, &err)

		msg1, err := e.P1KeygenGenMsg1(h)
		if err != nil {
			return fmt.Errorf("p1 msg1: %w", err)
		}
		if err := toP2.send(ctx, msg1); err != nil {
			return err
		}
		msg2, err := toP1.recv(ctx)
		if err != nil {
			return err
		}
		msg3, err := e.P1KeygenProcessMsg2(h, msg2)
		if err != nil {
			return fmt.Errorf("p1 msg2: %w", err)
		}
		if err := toP2.send(ctx, msg3); err != nil {
			return err
		}
		res.P1Share, err = e.P1KeygenFini(h)
		if err != nil {
			return fmt.Errorf("p1 fini: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		h, err := p2Init()
		if err != nil {
			return fmt.Errorf("p2 init: %w", err)
		}
		defer freeOnError(e, h, &err)

		msg1, err := toP2.recv(ctx)
		if err != nil {
			return err
		}
		msg2, err := e.P2KeygenProcessMsg1(h, msg1)
		if err != nil {
			return fmt.Errorf("p2 msg1: %w", err)
		}
		if err := toP1.send(ctx, msg2); err != nil {
			return err
		}
		msg3, err := toP2.recv(ctx)
		if err != nil {
			return err
		}
		if err := e.P2KeygenProcessMsg3(h, msg3); err != nil {
			return fmt.Errorf("p2 msg3: %w", err)
		}
		res.P2Share, err = e.P2KeygenFini(h)
		if err != nil {
			return fmt.Errorf("p2 fini: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		if res.P1Share != 0 {
			_ = e.P1KeyshareFree(res.P1Share)
		}
		if res.P2Share != 0 {
			_ = e.P2KeyshareFree(res.P2Share)
		}
		return nil, err
	}
	return res, nil
}

// SignRequest describes one signing run
type SignRequest struct {
	SessionID []byte
	P1Share   tss.Handle
	P2Share   tss.Handle
	Digest    []byte
	// Path is an optional non-hardened derivation path such as "m/0/1"
	Path string
}

// RunSign runs the signing protocol and returns the 64-byte signature both
// parties agreed on
func RunSign(ctx context.Context, e *tss.Engine, req SignRequest) ([]byte, error) {
	toP2, toP1 := newPipe(), newPipe()
	var sig1, sig2 []byte

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		h, err := e.P1InitSignerWithPath(req.SessionID, req.P1Share, req.Digest, req.Path)
		if err != nil {
			return fmt.Errorf("p1 init: %w", err)
		}
		defer freeOnError(e, h, &err)

		msg1, err := e.P1SignerGenMsg1(h)
		if err != nil {
			return fmt.Errorf("p1 msg1: %w", err)
		}
		if err := toP2.send(ctx, msg1); err != nil {
			return err
		}
		msg2, err := toP1.recv(ctx)
		if err != nil {
			return err
		}
		msg3, err := e.P1SignerProcessMsg2(h, msg2)
		if err != nil {
			return fmt.Errorf("p1 msg2: %w", err)
		}
		if err := toP2.send(ctx, msg3); err != nil {
			return err
		}
		msg4, err := toP1.recv(ctx)
		if err != nil {
			return err
		}
		msg5, err := e.P1SignerProcessMsg4(h, msg4)
		if err != nil {
			return fmt.Errorf("p1 msg4: %w", err)
		}
		if err := toP2.send(ctx, msg5); err != nil {
			return err
		}
		sig1, err = e.P1SignerFini(h)
		if err != nil {
			return fmt.Errorf("p1 fini: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		h, err := e.P2InitSignerWithPath(req.SessionID, req.P2Share, req.Digest, req.Path)
		if err != nil {
			return fmt.Errorf("p2 init: %w", err)
		}
		defer freeOnError(e, h, &err)

		msg1, err := toP2.recv(ctx)
		if err != nil {
			return err
		}
		msg2, err := e.P2SignerProcessMsg1(h, msg1)
		if err != nil {
			return fmt.Errorf("p2 msg1: %w", err)
		}
		if err := toP1.send(ctx, msg2); err != nil {
			return err
		}
		msg3, err := toP2.recv(ctx)
		if err != nil {
			return err
		}
		msg4, err := e.P2SignerProcessMsg3(h, msg3)
		if err != nil {
			return fmt.Errorf("p2 msg3: %w", err)
		}
		if err := toP1.send(ctx, msg4); err != nil {
			return err
		}
		msg5, err := toP2.recv(ctx)
		if err != nil {
			return err
		}
		sig2, err = e.P2SignerProcessMsg5(h, msg5)
		if err != nil {
			return fmt.Errorf("p2 msg5: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if !bytes.Equal(sig1, sig2) {
		return nil, ErrDisagreement
	}
	return sig1, nil
}

// freeOnError disposes of a session whose run failed. Finalized sessions
// are already gone, so errors from FreeSession are ignored.
func freeOnError(e *tss.Engine, h tss.Handle, err *error) {
	if *err != nil {
		_ = e.FreeSession(h)
	}
}
