// Package registry issues opaque integer handles for the objects the
// engine hands out: party keys, key shares and protocol sessions.
//
// Handles come from a monotonic counter and are never reused. Each handle
// carries a kind tag checked on every lookup. An object can be borrowed
// exclusively while an operation mutates it; a second borrow, a take or a
// release during that time fails with ErrHandleInUse.
package registry

import (
	"math"
	"sync"

	"go.uber.org/atomic"

	"github.com/Caqil/tss-2p/internal/security"
)

// Handle identifies a registered object. Zero is never issued.
type Handle int32

// Kind tags the type of a registered object
type Kind uint8

const (
	KindPartyKeys Kind = iota + 1
	KindKeyShareP1
	KindKeyShareP2
	KindKeygenSessionP1
	KindKeygenSessionP2
	KindSignSessionP1
	KindSignSessionP2
)

var kindNames = map[Kind]string{
	KindPartyKeys:       "party_keys",
	KindKeyShareP1:      "keyshare_p1",
	KindKeyShareP2:      "keyshare_p2",
	KindKeygenSessionP1: "keygen_session_p1",
	KindKeygenSessionP2: "keygen_session_p2",
	KindSignSessionP1:   "sign_session_p1",
	KindSignSessionP2:   "sign_session_p2",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Kinds lists every kind in declaration order
func Kinds() []Kind {
	return []Kind{
		KindPartyKeys,
		KindKeyShareP1,
		KindKeyShareP2,
		KindKeygenSessionP1,
		KindKeygenSessionP2,
		KindSignSessionP1,
		KindSignSessionP2,
	}
}

// Observer is notified when handles are allocated and released
type Observer interface {
	HandleAllocated(kind string)
	HandleReleased(kind string)
}

type entry struct {
	kind     Kind
	obj      any
	borrowed bool
}

// Registry maps handles to objects. It is safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	entries  map[Handle]*entry
	next     atomic.Int32
	live     atomic.Int64
	observer Observer
}

// Option configures a Registry
type Option func(*Registry)

// WithObserver reports allocations and releases to o
func WithObserver(o Observer) Option {
	return func(r *Registry) {
		r.observer = o
	}
}

// New creates an empty registry
func New(opts ...Option) *Registry {
	r := &Registry{entries: make(map[Handle]*entry)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Allocate registers obj under a fresh handle
func (r *Registry) Allocate(kind Kind, obj any) (Handle, error) {
	if obj == nil {
		return 0, ErrNilObject
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.next.Load() == math.MaxInt32 {
		return 0, ErrExhausted
	}
	h := Handle(r.next.Inc())
	r.entries[h] = &entry{kind: kind, obj: obj}
	r.live.Inc()
	if r.observer != nil {
		r.observer.HandleAllocated(kind.String())
	}
	return h, nil
}

// lookup must be called with mu held
func (r *Registry) lookup(h Handle, kind Kind) (*entry, error) {
	e, ok := r.entries[h]
	if !ok {
		return nil, ErrInvalidHandle
	}
	if e.kind != kind {
		return nil, ErrWrongKind
	}
	return e, nil
}

// Get returns the object registered under h. Objects returned by Get must
// not be mutated; use Acquire for that.
func (r *Registry) Get(h Handle, kind Kind) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.lookup(h, kind)
	if err != nil {
		return nil, err
	}
	if e.borrowed {
		return nil, ErrHandleInUse
	}
	return e.obj, nil
}

// Lease is an exclusive borrow of one registered object
type Lease struct {
	r    *Registry
	h    Handle
	e    *entry
	once sync.Once
}

// Object returns the borrowed object
func (l *Lease) Object() any {
	return l.e.obj
}

// Return ends the borrow and leaves the handle live
func (l *Lease) Return() {
	l.once.Do(func() {
		l.r.mu.Lock()
		l.e.borrowed = false
		l.r.mu.Unlock()
	})
}

// Consume ends the borrow by removing the handle. The object is not wiped;
// ownership passes to the caller.
func (l *Lease) Consume() {
	l.once.Do(func() {
		l.r.mu.Lock()
		if cur, ok := l.r.entries[l.h]; ok && cur == l.e {
			l.r.remove(l.h, l.e)
		}
		l.r.mu.Unlock()
	})
}

// Acquire borrows the object exclusively. The lease must be ended with
// Return or Consume; later calls on an ended lease do nothing.
func (r *Registry) Acquire(h Handle, kind Kind) (*Lease, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.lookup(h, kind)
	if err != nil {
		return nil, err
	}
	if e.borrowed {
		return nil, ErrHandleInUse
	}
	e.borrowed = true
	return &Lease{r: r, h: h, e: e}, nil
}

// Release removes the handle and wipes the object if it holds secrets.
// Releasing an unknown or already released handle fails with
// ErrInvalidHandle.
func (r *Registry) Release(h Handle) error {
	return r.release(h, 0)
}

// ReleaseKind is Release with a kind check
func (r *Registry) ReleaseKind(h Handle, kind Kind) error {
	return r.release(h, kind)
}

func (r *Registry) release(h Handle, kind Kind) error {
	r.mu.Lock()
	e, ok := r.entries[h]
	switch {
	case !ok:
		r.mu.Unlock()
		return ErrInvalidHandle
	case kind != 0 && e.kind != kind:
		r.mu.Unlock()
		return ErrWrongKind
	case e.borrowed:
		r.mu.Unlock()
		return ErrHandleInUse
	}
	r.remove(h, e)
	r.mu.Unlock()

	if z, ok := e.obj.(security.Zeroizer); ok {
		z.Zero()
	}
	return nil
}

// KindOf reports the kind of a live handle
func (r *Registry) KindOf(h Handle) (Kind, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[h]
	if !ok {
		return 0, ErrInvalidHandle
	}
	return e.kind, nil
}

// Len returns the number of live handles
func (r *Registry) Len() int {
	return int(r.live.Load())
}

// Close releases every remaining handle, wiping secrets. Borrowed
// objects are dropped too; the registry must not be used afterwards.
func (r *Registry) Close() {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[Handle]*entry)
	for h, e := range entries {
		r.remove(h, e)
	}
	r.mu.Unlock()

	for _, e := range entries {
		if z, ok := e.obj.(security.Zeroizer); ok {
			z.Zero()
		}
	}
}

// remove must be called with mu held
func (r *Registry) remove(h Handle, e *entry) {
	delete(r.entries, h)
	r.live.Dec()
	if r.observer != nil {
		r.observer.HandleReleased(e.kind.String())
	}
}
