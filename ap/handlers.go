package ap

import (
	"reflect"

	"github.com/lunatic-go/actorkit/aperrors"
	"github.com/lunatic-go/actorkit/host"
	"github.com/lunatic-go/actorkit/serializer"
	"github.com/lunatic-go/actorkit/tag"
)

// entry is the type-erased registration for one handler id. The closures
// capture their concrete message/response types at registration time
// (inside Message/Request/DeferredRequest below), so every call site that
// only has a reflect.Type-derived id still gets fully typed encode/decode
// behavior — the erasure is confined to this one file.
type entry[State any] struct {
	dispatch    func(self host.ABI, state *State, respTag uint64)
	encodeCall  func(caller host.ProcessIdentity, replyTag uint64, v any) ([]byte, error)
	decodeReply func(data []byte) (any, error)
}

// handlerKind distinguishes the three registration flavors (Message,
// Request, DeferredRequest) so two of them can share the same payload type
// without colliding in idByType — e.g. a Request and a DeferredRequest both
// keyed on the same Req type get distinct wire ids. Grounded on the Rust
// source's `TypeId::of::<Handler>()` keying (handlers.rs), which keys on the
// handler implementation, not the bare message type.
type handlerKind uint8

const (
	kindMessage handlerKind = iota
	kindRequest
	kindDeferredRequest
)

// typeKey is idByType's actual key: a payload type plus which handler
// variant it was registered under.
type typeKey struct {
	typ  reflect.Type
	kind handlerKind
}

// Handlers is the dispatch table an AbstractProcess definition builds once
// (spec §4.5.3): one entry per handler id, plus a reverse index from a
// (message/request type, handler kind) pair to its assigned id so
// ProcessRef's generic Send/Request methods can find the right id without
// the caller having to name it.
type Handlers[State any] struct {
	next     uint8
	byID     map[uint8]*entry[State]
	idByType map[typeKey]uint8
}

// NewHandlers starts an empty dispatch table. Definitions build theirs once
// (typically in an init-time package variable or a sync.Once) and return
// the same *Handlers from their Handlers() method on every call.
func NewHandlers[State any]() *Handlers[State] {
	return &Handlers[State]{
		next:     1,
		byID:     make(map[uint8]*entry[State]),
		idByType: make(map[typeKey]uint8),
	}
}

func (h *Handlers[State]) allocate(typ reflect.Type, kind handlerKind) uint8 {
	if h.next > tag.MaxUserHandlerID {
		panic("actorkit: too many handlers registered (max 62 per AbstractProcess)")
	}
	id := h.next
	h.next++
	h.idByType[typeKey{typ: typ, kind: kind}] = id
	return id
}

// idFor returns the handler id registered for (M, kind), and whether one
// was ever registered.
func (h *Handlers[State]) idFor(typ reflect.Type, kind handlerKind) (uint8, bool) {
	id, ok := h.idByType[typeKey{typ: typ, kind: kind}]
	return id, ok
}

// Message registers an asynchronous, fire-and-forget handler for messages
// of type M (spec §4.5.3's MessageHandler). fn mutates state in place and
// returns nothing to the sender.
func Message[State any, M any](h *Handlers[State], ser serializer.Serializer[M], fn func(state *State, msg M)) {
	id := h.allocate(reflect.TypeFor[M](), kindMessage)
	h.byID[id] = &entry[State]{
		dispatch: func(self host.ABI, state *State, _ uint64) {
			v := decodeCurrent[M](self, ser)
			fn(state, v)
		},
		encodeCall: func(_ host.ProcessIdentity, _ uint64, v any) ([]byte, error) {
			return serializer.EncodeToBytes[M](ser, v.(M))
		},
	}
}

// Request registers a synchronous request/response handler (spec §4.5.3's
// RequestHandler): fn computes the response immediately, and the dispatch
// loop sends it back to the caller before handling the next message.
func Request[State any, Req any, Resp any](h *Handlers[State], reqSer serializer.Serializer[Req], respSer serializer.Serializer[Resp], fn func(state *State, req Req) Resp) {
	envSer := requestEnvelopeSerializer[Req](reqSer)
	id := h.allocate(reflect.TypeFor[Req](), kindRequest)
	h.byID[id] = &entry[State]{
		dispatch: func(self host.ABI, state *State, _ uint64) {
			env := decodeCurrent[requestEnvelope[Req]](self, envSer)
			resp := fn(state, env.Request)
			sendReply(self, env.Caller, env.ReplyTag, respSer, resp)
		},
		encodeCall: func(caller host.ProcessIdentity, replyTag uint64, v any) ([]byte, error) {
			return serializer.EncodeToBytes[requestEnvelope[Req]](envSer, requestEnvelope[Req]{
				Caller: caller, ReplyTag: replyTag, Request: v.(Req),
			})
		},
		decodeReply: func(data []byte) (any, error) {
			return serializer.DecodeFromBytes[Resp](respSer, data)
		},
	}
}

// DeferredRequest registers a request handler whose response need not be
// sent immediately (spec §4.5.3's DeferredRequestHandler): fn receives a
// DeferredResponse capability it may answer right away (using the self it is
// also given) or hand off to another process entirely, and the dispatch
// loop continues to the next message without waiting.
func DeferredRequest[State any, Req any, Resp any](h *Handlers[State], reqSer serializer.Serializer[Req], respSer serializer.Serializer[Resp], fn func(self host.ABI, state *State, req Req, reply DeferredResponse[Resp])) {
	envSer := requestEnvelopeSerializer[Req](reqSer)
	id := h.allocate(reflect.TypeFor[Req](), kindDeferredRequest)
	h.byID[id] = &entry[State]{
		dispatch: func(self host.ABI, state *State, _ uint64) {
			env := decodeCurrent[requestEnvelope[Req]](self, envSer)
			fn(self, state, env.Request, DeferredResponse[Resp]{caller: env.Caller, replyTag: env.ReplyTag, ser: respSer})
		},
		encodeCall: func(caller host.ProcessIdentity, replyTag uint64, v any) ([]byte, error) {
			return serializer.EncodeToBytes[requestEnvelope[Req]](envSer, requestEnvelope[Req]{
				Caller: caller, ReplyTag: replyTag, Request: v.(Req),
			})
		},
		decodeReply: func(data []byte) (any, error) {
			return serializer.DecodeFromBytes[Resp](respSer, data)
		},
	}
}

func decodeCurrent[M any](self host.ABI, ser serializer.Serializer[M]) M {
	buf := make([]byte, 0, 4096)
	chunk := make([]byte, 4096)
	for {
		n, _ := self.Message().ReadData(chunk)
		if n == 0 {
			break
		}
		buf = append(buf, chunk[:n]...)
	}
	v, err := serializer.DecodeFromBytes[M](ser, buf)
	if err != nil {
		panic(aperrors.NewReceiveDeserializationFailed(err))
	}
	return v
}

func sendReply[Resp any](self host.ABI, caller host.ProcessIdentity, replyTag uint64, ser serializer.Serializer[Resp], resp Resp) {
	payload, err := serializer.EncodeToBytes[Resp](ser, resp)
	if err != nil {
		panic(err)
	}
	m := self.Message()
	m.CreateData(replyTag, len(payload))
	if _, err := m.WriteData(payload); err != nil {
		panic(err)
	}
	if err := m.Send(caller); err != nil {
		panic(err)
	}
}
