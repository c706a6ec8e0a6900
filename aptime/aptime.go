// Package aptime adapts a ProcessRef to carry a default deadline or delay
// across a sequence of calls (spec §4.5.7), rather than threading a
// time.Duration through every Request/Send call at every call site.
package aptime

import (
	"time"

	"github.com/lunatic-go/actorkit/ap"
	"github.com/lunatic-go/actorkit/host"
	"github.com/lunatic-go/actorkit/serializer"
)

// Timeout wraps a ProcessRef with a bound applied to its request-shaped
// operations (Request, DeferredRequest, Shutdown).
type Timeout[State any] struct {
	Ref ap.ProcessRef[State]
	D   time.Duration
}

// WithTimeout returns a Timeout view of ref bounded by d.
func WithTimeout[State any](ref ap.ProcessRef[State], d time.Duration) Timeout[State] {
	return Timeout[State]{Ref: ref, D: d}
}

// Request calls ap.RequestTimeout with t's bound.
func Request[State any, Req any, Resp any](self host.ABI, t Timeout[State], ser serializer.Serializer[Req], req Req) (Resp, error) {
	return ap.RequestTimeout[State, Req, Resp](self, t.Ref, ser, req, t.D)
}

// DeferredRequest calls ap.DeferredRequestTimeout with t's bound.
func DeferredRequest[State any, Req any, Resp any](self host.ABI, t Timeout[State], ser serializer.Serializer[Req], req Req) (Resp, error) {
	return ap.DeferredRequestTimeout[State, Req, Resp](self, t.Ref, ser, req, t.D)
}

// Shutdown calls ShutdownTimeout with t's bound.
func (t Timeout[State]) Shutdown(self host.ABI) error {
	return t.Ref.ShutdownTimeout(self, t.D)
}

// Delay wraps a ProcessRef with a fixed delivery delay applied to its
// send-shaped operations.
type Delay[State any] struct {
	Ref ap.ProcessRef[State]
	D   time.Duration
}

// WithDelay returns a Delay view of ref that schedules sends after d.
func WithDelay[State any](ref ap.ProcessRef[State], d time.Duration) Delay[State] {
	return Delay[State]{Ref: ref, D: d}
}

// Send calls ap.DelayedSend with d's delay.
func Send[State any, M any](self host.ABI, d Delay[State], ser serializer.Serializer[M], msg M) (host.TimerRef, error) {
	return ap.DelayedSend[State, M](self, d.Ref, ser, msg, d.D)
}
