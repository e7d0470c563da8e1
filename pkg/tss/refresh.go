package tss

import (
	"github.com/Caqil/tss-2p/pkg/keygen"
	"github.com/Caqil/tss-2p/pkg/logger"
	"github.com/Caqil/tss-2p/pkg/partykeys"
	"github.com/Caqil/tss-2p/pkg/registry"
	"github.com/Caqil/tss-2p/pkg/tsserr"
)

// P1KeyRefreshInit starts a refresh of P1's share. It returns a key
// generation session driven by the P1Keygen* steps; P1KeygenFini yields
// the refreshed share. The joint public key and chain code do not change,
// while the old shares stop working together with the new ones. Both
// input handles stay owned by the caller.
func (e *Engine) P1KeyRefreshInit(sid []byte, partyKeys, share Handle) (Handle, error) {
	if sid == nil {
		return 0, e.reject(protoRefresh, "p1_init", 0, tsserr.ErrNullPtr)
	}
	pk, pkLease, err := acquire[*partykeys.PartyKeys](e, partyKeys, registry.KindPartyKeys)
	if err != nil {
		return 0, e.reject(protoRefresh, "p1_init", partyKeys, err)
	}
	ks, ksLease, err := acquire[*keygen.KeyShareP1](e, share, registry.KindKeyShareP1)
	if err != nil {
		pkLease.Return()
		return 0, e.reject(protoRefresh, "p1_init", share, err)
	}
	s, err := keygen.NewP1Refresh(sid, pk, ks, e.cfg.keygenOptions())
	ksLease.Return()
	pkLease.Return()
	if err != nil {
		return 0, e.reject(protoRefresh, "p1_init", share, classify(err, tsserr.UnknownError))
	}

	h, err := e.allocate(registry.KindKeygenSessionP1, s)
	if err != nil {
		return 0, err
	}
	e.log.DebugEvent().
		Int("handle", int(h)).
		Str("sid", logger.Fingerprint(sid)).
		Msg("refresh session started for P1")
	return h, nil
}

// P2KeyRefreshInit starts a refresh of P2's share. The session is driven
// by the P2Keygen* steps and accepts only the P1 party key pinned in share.
func (e *Engine) P2KeyRefreshInit(sid []byte, share Handle) (Handle, error) {
	if sid == nil {
		return 0, e.reject(protoRefresh, "p2_init", 0, tsserr.ErrNullPtr)
	}
	ks, lease, err := acquire[*keygen.KeyShareP2](e, share, registry.KindKeyShareP2)
	if err != nil {
		return 0, e.reject(protoRefresh, "p2_init", share, err)
	}
	s, err := keygen.NewP2Refresh(sid, ks, e.cfg.keygenOptions())
	lease.Return()
	if err != nil {
		return 0, e.reject(protoRefresh, "p2_init", share, classify(err, tsserr.UnknownError))
	}

	h, err := e.allocate(registry.KindKeygenSessionP2, s)
	if err != nil {
		return 0, err
	}
	e.log.DebugEvent().
		Int("handle", int(h)).
		Str("sid", logger.Fingerprint(sid)).
		Msg("refresh session started for P2")
	return h, nil
}
