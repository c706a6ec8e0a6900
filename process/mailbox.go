package process

import (
	"runtime"
	"time"

	"github.com/lunatic-go/actorkit/aperrors"
	"github.com/lunatic-go/actorkit/host"
	"github.com/lunatic-go/actorkit/serializer"
	"github.com/lunatic-go/actorkit/tag"
)

// scratchReadLimit bounds how much a single ReadData call pulls from the
// host's incoming scratch buffer. 1MiB comfortably covers every message
// shape this module's examples and tests construct; a production host
// binding would instead loop ReadData until it returns 0, which this
// package's decode helper already does.
const scratchReadLimit = 1 << 20

// Mailbox is the typed receive side of a function process: every Spawn
// variant hands one to the spawned entry function (spec §4.3).
type Mailbox[M any, S serializer.Serializer[M]] struct {
	abi           host.ABI
	ser           S
	dieIfLinkDies bool
}

// NewMailbox wraps an ABI already bound to the owning process. Most callers
// get a Mailbox from Spawn rather than constructing one directly.
func NewMailbox[M any, S serializer.Serializer[M]](self host.ABI, ser S, dieIfLinkDies bool) Mailbox[M, S] {
	return Mailbox[M, S]{abi: self, ser: ser, dieIfLinkDies: dieIfLinkDies}
}

// Self returns the ABI bound to the owning process, letting an entry
// function Send/Spawn/Link from inside its own body instead of only ever
// reacting to what it receives.
func (mb Mailbox[M, S]) Self() host.ABI { return mb.abi }

// Receive blocks for the next message of any tag. A pending link-death
// notification is handled per spec §4.5.8's default: if this mailbox's
// owner was configured die_if_link_dies(true) (the default), the process
// terminates right here instead of returning — mirroring the host killing
// the WASM instance outright. With die_if_link_dies(false) use TagReceive
// instead, which surfaces the death as aperrors.LinkTrapped.
func (mb Mailbox[M, S]) Receive() M {
	v, err := mb.receive(nil, 0)
	if err != nil {
		panic(err)
	}
	return v
}

// ReceiveTimeout is Receive bounded by d; a deadline that elapses with
// nothing to deliver returns aperrors.ReceiveError{Timeout: true}.
func (mb Mailbox[M, S]) ReceiveTimeout(d time.Duration) (M, error) {
	return mb.receive(nil, d)
}

// TagReceive blocks for the next message whose tag is in tags, retaining
// (not discarding) any non-matching message already queued — the "skip
// search" primitive spec §3 describes. A link-death observed here is
// reported as aperrors.LinkTrapped rather than killing the process,
// regardless of the die_if_link_dies configuration: a caller that asks for
// a specific tag has already opted into handling the signal itself.
func (mb Mailbox[M, S]) TagReceive(tags []tag.Tag) (M, error) {
	return mb.receiveTagged(tags, 0)
}

// TagReceiveTimeout is TagReceive bounded by d.
func (mb Mailbox[M, S]) TagReceiveTimeout(tags []tag.Tag, d time.Duration) (M, error) {
	return mb.receiveTagged(tags, d)
}

func (mb Mailbox[M, S]) receive(tags []tag.Tag, d time.Duration) (M, error) {
	var zero M
	code, err := mb.abi.Message().Receive(u64s(tags), d)
	if err != nil {
		return zero, err
	}
	switch code {
	case host.MessageLinkDied:
		if mb.dieIfLinkDies {
			mb.abi.Process().Kill(mb.abi.Process().This())
			runtime.Goexit()
		}
		return zero, &aperrors.LinkTrapped{Tag: mb.abi.Message().GetTag()}
	case host.MessageTimeout:
		return zero, aperrors.NewReceiveTimeout()
	default:
		return mb.decode()
	}
}

func (mb Mailbox[M, S]) receiveTagged(tags []tag.Tag, d time.Duration) (M, error) {
	var zero M
	code, err := mb.abi.Message().Receive(u64s(tags), d)
	if err != nil {
		return zero, err
	}
	switch code {
	case host.MessageLinkDied:
		return zero, &aperrors.LinkTrapped{Tag: mb.abi.Message().GetTag()}
	case host.MessageTimeout:
		return zero, aperrors.NewReceiveTimeout()
	default:
		return mb.decode()
	}
}

func (mb Mailbox[M, S]) decode() (M, error) {
	var zero M
	buf := make([]byte, 0, 4096)
	chunk := make([]byte, 4096)
	for len(buf) < scratchReadLimit {
		n, _ := mb.abi.Message().ReadData(chunk)
		if n == 0 {
			break
		}
		buf = append(buf, chunk[:n]...)
	}
	v, err := serializer.DecodeFromBytes[M](mb.ser, buf)
	if err != nil {
		return zero, aperrors.NewReceiveDeserializationFailed(err)
	}
	return v, nil
}

func u64s(tags []tag.Tag) []uint64 {
	if len(tags) == 0 {
		return nil
	}
	out := make([]uint64, len(tags))
	for i, t := range tags {
		out[i] = t.Uint64()
	}
	return out
}
