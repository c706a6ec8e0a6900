package ap

import (
	"github.com/lunatic-go/actorkit/host"
	"github.com/lunatic-go/actorkit/serializer"
)

// requestEnvelope carries a request payload together with the caller's
// identity and a correlation tag, reproducing the Rust source's
// RequestMessage(request, return_address): a Lunatic mailbox message does
// not itself expose who sent it, so the return address travels inside the
// payload or there is no way for a handler to reply at all.
type requestEnvelope[Req any] struct {
	Caller   host.ProcessIdentity
	ReplyTag uint64
	Request  Req
}

// requestEnvelopeSerializer wraps a caller-supplied Serializer[Req] into one
// for requestEnvelope[Req]. msgpack's reflection-based codec handles the
// generic struct directly, so this is just a type-parameter bridge — reqSer
// itself is never consulted, since the envelope's own MsgPack tag already
// knows how to walk into its Request field.
func requestEnvelopeSerializer[Req any](_ serializer.Serializer[Req]) serializer.Serializer[requestEnvelope[Req]] {
	return serializer.NewMsgPack[requestEnvelope[Req]]()
}

// shutdownEnvelope is the payload ProcessRef.Shutdown sends to the
// shutdown handler id, and the one shutdown's reply carries back.
type shutdownEnvelope struct {
	Caller   host.ProcessIdentity
	ReplyTag uint64
}

var shutdownSerializer = serializer.NewMsgPack[shutdownEnvelope]()

// startupResult is what a freshly spawned abstract process reports back to
// its starter on the init tag: either "came up cleanly" or the formatted
// cause of failure. StartupError itself is not wire-encoded (it may wrap an
// arbitrary user error type), so only its rendered message crosses the
// boundary — the starter reconstructs a typed error around it locally.
type startupResult struct {
	OK      bool
	Kind    int
	Message string
}

var startupResultSerializer = serializer.NewMsgPack[startupResult]()

// DeferredResponse is the capability a DeferredRequest handler receives in
// place of an immediate return value: it may be answered at any later point,
// including from a different process entirely, exactly as the Rust source's
// DeferredResponse can be handed off across a call to another AbstractProcess.
type DeferredResponse[Resp any] struct {
	caller   host.ProcessIdentity
	replyTag uint64
	ser      serializer.Serializer[Resp]
}

// SendResponse answers the deferred request with resp, using self as the
// ABI of whichever process is doing the answering.
func (d DeferredResponse[Resp]) SendResponse(self host.ABI, resp Resp) {
	sendReply(self, d.caller, d.replyTag, d.ser, resp)
}
