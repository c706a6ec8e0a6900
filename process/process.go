// Package process implements function processes (spec §4.3): a typed
// handle to a raw spawned process, communicating through a typed mailbox.
// It is the L3 layer every higher layer (protocol, ap) builds on.
package process

import (
	"time"

	"github.com/lunatic-go/actorkit/host"
	"github.com/lunatic-go/actorkit/serializer"
	"github.com/lunatic-go/actorkit/tag"
)

// Process is a typed handle to a spawned process: two host-assigned ids
// plus two phantom marks, the message type M it accepts and the serializer
// S used to encode/decode M. Handles are copy-by-value capabilities —
// cloning a Process does not clone the process it names, and letting one go
// out of scope does not kill it (spec §3 "Process identity").
type Process[M any, S serializer.Serializer[M]] struct {
	id  host.ProcessIdentity
	ser S
}

// New wraps an already-known identity in a typed handle. Used by callers
// that learned a PID out of band (a registry lookup, a message payload
// carrying a Process capability).
func New[M any, S serializer.Serializer[M]](id host.ProcessIdentity, ser S) Process[M, S] {
	return Process[M, S]{id: id, ser: ser}
}

// ID returns the process's host-assigned identity.
func (p Process[M, S]) ID() host.ProcessIdentity { return p.id }

// Equal reports whether p and other name the same process: both ids equal,
// independent of any local serializer configuration (spec §3).
func (p Process[M, S]) Equal(other Process[M, S]) bool { return p.id == other.id }

// Send encodes m with the handle's serializer and delivers it to the
// target's mailbox, tagged with a fresh host tag. Send never blocks from
// the caller's perspective; a serializer error panics the sender (spec
// §4.3 "Failure semantics").
func (p Process[M, S]) Send(self host.ABI, m M) error {
	return p.TagSend(self, tag.New(self.Tag()), m)
}

// TagSend is Send with a caller-chosen tag, used by request/reply
// machinery (ap) to correlate a reply with its request.
func (p Process[M, S]) TagSend(self host.ABI, t tag.Tag, m M) error {
	payload, err := serializer.EncodeToBytes[M](p.ser, m)
	if err != nil {
		panic(err)
	}
	msg := self.Message()
	msg.CreateData(t.Uint64(), len(payload))
	if _, err := msg.WriteData(payload); err != nil {
		panic(err)
	}
	return msg.Send(p.id)
}

// SendAfter schedules m for delivery after d, returning a TimerRef that
// self.Timer().CancelTimer accepts; cancelling it is idempotent (spec §5
// "Cancellation").
func (p Process[M, S]) SendAfter(self host.ABI, m M, d time.Duration) (host.TimerRef, error) {
	payload, err := serializer.EncodeToBytes[M](p.ser, m)
	if err != nil {
		panic(err)
	}
	t := tag.New(self.Tag())
	ref := self.Timer().SendAfter(p.id, d, payload, t.Uint64())
	return ref, nil
}

// Link establishes a bidirectional link between the calling process and p,
// tagged t. A subsequent death on either side is observable by the other,
// per the configured die-if-link-dies policy (spec §4.5.8).
func (p Process[M, S]) Link(self host.ABI, t tag.Tag) error {
	return self.Process().Link(t.Uint64(), p.id)
}

// Unlink removes any link between the calling process and p.
func (p Process[M, S]) Unlink(self host.ABI) error {
	return self.Process().Unlink(p.id)
}

// Kill terminates p unconditionally.
func (p Process[M, S]) Kill(self host.ABI) error {
	return self.Process().Kill(p.id)
}

// Exists reports whether the host still considers p alive. A stale answer
// is possible the instant after the call returns — this is a point-in-time
// check, not a guarantee.
func (p Process[M, S]) Exists(self host.ABI) bool {
	return self.Process().Exists(p.id)
}

// Register binds name to p in the host registry, overwriting any previous
// binding (unlike StartAs in package ap, this is the raw, unprotected
// registry.Put — spec §4.3's register(name) operation, not the AP layer's
// get-or-reserve dance).
func (p Process[M, S]) Register(self host.ABI, name string) {
	self.Registry().Put(name, p.id)
}

// Lookup resolves name in the host registry into a typed handle for M, S.
func Lookup[M any, S serializer.Serializer[M]](self host.ABI, name string, ser S) (Process[M, S], bool) {
	id, ok := self.Registry().Get(name)
	if !ok {
		return Process[M, S]{}, false
	}
	return New[M](id, ser), true
}

// Unregister removes name from the registry regardless of who it currently
// points at. Kept adjacent to Register for symmetry.
func Unregister(self host.ABI, name string) {
	self.Registry().Remove(name)
}
