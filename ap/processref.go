package ap

import (
	"reflect"
	"time"

	"github.com/lunatic-go/actorkit/aperrors"
	"github.com/lunatic-go/actorkit/host"
	"github.com/lunatic-go/actorkit/serializer"
	"github.com/lunatic-go/actorkit/tag"
)

// ProcessRef is a typed handle to a running abstract process, the analogue
// of the Rust source's ProcessRef<T>. Send/Request/DeferredRequest look up
// their handler id from the message type alone — callers never name a
// handler id directly, matching T::Handlers::handler_id::<Message<M>>().
type ProcessRef[State any] struct {
	id       host.ProcessIdentity
	handlers *Handlers[State]
}

// ID returns the underlying process identity.
func (r ProcessRef[State]) ID() host.ProcessIdentity { return r.id }

// Equal reports whether r and other name the same process.
func (r ProcessRef[State]) Equal(other ProcessRef[State]) bool { return r.id == other.id }

// IsAlive reports whether the host still considers this process running.
// It does not check that the ref names a local process; the answer comes
// from the calling host's own process table.
func (r ProcessRef[State]) IsAlive(self host.ABI) bool {
	return self.Process().Exists(r.id)
}

// Link establishes a link to this process under a freshly drawn tag.
func (r ProcessRef[State]) Link(self host.ABI) tag.Tag {
	t := tag.New(self.Tag())
	if err := self.Process().Link(t.Uint64(), r.id); err != nil {
		panic(err)
	}
	return t
}

// LinkWith is Link with a caller-chosen tag.
func (r ProcessRef[State]) LinkWith(self host.ABI, t tag.Tag) error {
	return self.Process().Link(t.Uint64(), r.id)
}

// Unlink removes any link to this process.
func (r ProcessRef[State]) Unlink(self host.ABI) error {
	return self.Process().Unlink(r.id)
}

// Kill terminates this process unconditionally, running no Terminate hook.
func (r ProcessRef[State]) Kill(self host.ABI) error {
	return self.Process().Kill(r.id)
}

// Register binds name to this process, overwriting any previous binding.
func (r ProcessRef[State]) Register(self host.ABI, name string) {
	self.Registry().Put(name, r.id)
}

// Send finds the handler id registered for message type M and delivers msg
// to it, fire-and-forget.
func Send[State any, M any](self host.ABI, r ProcessRef[State], ser serializer.Serializer[M], msg M) error {
	id := handlerIDFor[State, M](r, kindMessage)
	t := tag.FromU6(self.Tag(), id)
	e := r.handlers.byID[id]
	payload, err := e.encodeCall(host.ProcessIdentity{}, 0, msg)
	if err != nil {
		return err
	}
	m := self.Message()
	m.CreateData(t.Uint64(), len(payload))
	if _, err := m.WriteData(payload); err != nil {
		return err
	}
	return m.Send(r.id)
}

// DelayedSend schedules msg for delivery to r's handler for M after d.
func DelayedSend[State any, M any](self host.ABI, r ProcessRef[State], ser serializer.Serializer[M], msg M, d time.Duration) (host.TimerRef, error) {
	id := handlerIDFor[State, M](r, kindMessage)
	t := tag.FromU6(self.Tag(), id)
	e := r.handlers.byID[id]
	payload, err := e.encodeCall(host.ProcessIdentity{}, 0, msg)
	if err != nil {
		return 0, err
	}
	return self.Timer().SendAfter(r.id, d, payload, t.Uint64()), nil
}

// Request sends req to r's handler for Req and blocks for the Resp it
// computes. See RequestTimeout for a bounded wait.
func Request[State any, Req any, Resp any](self host.ABI, r ProcessRef[State], reqSer serializer.Serializer[Req], req Req) Resp {
	resp, err := RequestTimeout[State, Req, Resp](self, r, reqSer, req, 0)
	if err != nil {
		panic(err)
	}
	return resp
}

// RequestTimeout is Request bounded by d (0 = no deadline); a deadline that
// elapses returns aperrors.Timeout.
func RequestTimeout[State any, Req any, Resp any](self host.ABI, r ProcessRef[State], _ serializer.Serializer[Req], req Req, d time.Duration) (Resp, error) {
	var zero Resp
	id := handlerIDFor[State, Req](r, kindRequest)
	callTag := tag.FromU6(self.Tag(), id)
	replyTag := tag.New(self.Tag())

	e := r.handlers.byID[id]
	payload, err := e.encodeCall(self.Process().This(), replyTag.Uint64(), req)
	if err != nil {
		return zero, err
	}
	m := self.Message()
	m.CreateData(callTag.Uint64(), len(payload))
	if _, err := m.WriteData(payload); err != nil {
		return zero, err
	}
	code, err := m.SendReceiveSkipSearch(r.id, replyTag.Uint64(), d)
	if err != nil {
		return zero, err
	}
	if code == host.MessageTimeout {
		return zero, aperrors.Timeout{}
	}
	data := readCurrent(self)
	v, err := e.decodeReply(data)
	if err != nil {
		return zero, err
	}
	return v.(Resp), nil
}

// DeferredRequest is Request against a handler registered with
// ap.DeferredRequest — the handler need not answer before returning from
// its own call, so the wire-level shape is identical to Request; only the
// server side's registration (and so, the handler id it resolves to) and
// the request kind used for that lookup differ. See RequestTimeout for a
// bounded wait.
func DeferredRequest[State any, Req any, Resp any](self host.ABI, r ProcessRef[State], reqSer serializer.Serializer[Req], req Req) Resp {
	resp, err := DeferredRequestTimeout[State, Req, Resp](self, r, reqSer, req, 0)
	if err != nil {
		panic(err)
	}
	return resp
}

// DeferredRequestTimeout is RequestTimeout's deferred-handler counterpart.
func DeferredRequestTimeout[State any, Req any, Resp any](self host.ABI, r ProcessRef[State], _ serializer.Serializer[Req], req Req, d time.Duration) (Resp, error) {
	var zero Resp
	id := handlerIDFor[State, Req](r, kindDeferredRequest)
	callTag := tag.FromU6(self.Tag(), id)
	replyTag := tag.New(self.Tag())

	e := r.handlers.byID[id]
	payload, err := e.encodeCall(self.Process().This(), replyTag.Uint64(), req)
	if err != nil {
		return zero, err
	}
	m := self.Message()
	m.CreateData(callTag.Uint64(), len(payload))
	if _, err := m.WriteData(payload); err != nil {
		return zero, err
	}
	code, err := m.SendReceiveSkipSearch(r.id, replyTag.Uint64(), d)
	if err != nil {
		return zero, err
	}
	if code == host.MessageTimeout {
		return zero, aperrors.Timeout{}
	}
	data := readCurrent(self)
	v, err := e.decodeReply(data)
	if err != nil {
		return zero, err
	}
	return v.(Resp), nil
}

// Shutdown asks r to stop its dispatch loop, run Terminate, and confirms
// once that finished. See ShutdownTimeout for a bounded wait.
func (r ProcessRef[State]) Shutdown(self host.ABI) {
	if err := r.ShutdownTimeout(self, 0); err != nil {
		panic(err)
	}
}

// ShutdownTimeout is Shutdown bounded by d (0 = no deadline).
func (r ProcessRef[State]) ShutdownTimeout(self host.ABI, d time.Duration) error {
	replyTag := tag.New(self.Tag())
	req := shutdownEnvelope{Caller: self.Process().This(), ReplyTag: replyTag.Uint64()}
	payload, err := serializer.EncodeToBytes[shutdownEnvelope](shutdownSerializer, req)
	if err != nil {
		return err
	}
	callTag := tag.FromU6(self.Tag(), tag.ShutdownHandlerID)
	m := self.Message()
	m.CreateData(callTag.Uint64(), len(payload))
	if _, err := m.WriteData(payload); err != nil {
		return err
	}
	code, err := m.SendReceiveSkipSearch(r.id, replyTag.Uint64(), d)
	if err != nil {
		return err
	}
	if code == host.MessageTimeout {
		return aperrors.Timeout{}
	}
	return nil
}

func handlerIDFor[State any, M any](r ProcessRef[State], kind handlerKind) uint8 {
	id, ok := r.handlers.idFor(reflect.TypeFor[M](), kind)
	if !ok {
		panic("actorkit: no handler registered for message type " + reflect.TypeFor[M]().String())
	}
	return id
}

func readCurrent(self host.ABI) []byte {
	buf := make([]byte, 0, 4096)
	chunk := make([]byte, 4096)
	for {
		n, _ := self.Message().ReadData(chunk)
		if n == 0 {
			break
		}
		buf = append(buf, chunk[:n]...)
	}
	return buf
}

// Lookup resolves name in the host registry into a typed ProcessRef, using
// handlers as the dispatch table to bind it to (normally def.Handlers() for
// whichever Definition type name is expected to be running).
func Lookup[State any](self host.ABI, name string, handlers *Handlers[State]) (ProcessRef[State], bool) {
	id, ok := self.Registry().Get(name)
	if !ok {
		return ProcessRef[State]{}, false
	}
	return ProcessRef[State]{id: id, handlers: handlers}, true
}
