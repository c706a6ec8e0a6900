// Package ap implements the abstract-process pattern (spec §4.5): a
// long-lived, stateful server loop with a typed dispatch table for
// fire-and-forget messages, synchronous requests, and deferred requests,
// plus the registry-backed start/start_as bootstrap handshake and the
// link-death/terminate lifecycle hooks.
//
// Rust expresses the whole thing as one AbstractProcess trait with four
// associated types (State, Arg, Serializer, Handlers). Go has no associated
// types, so the same shape is split across a type parameter pair
// (State, Arg) on Definition plus a runtime-built *Handlers[State] table —
// each handler's own message/response types are supplied when it is
// registered (Message/Request/DeferredRequest in handlers.go), not fixed
// once for the whole definition as Rust's single Serializer associated type
// would require. This trades a little of Rust's one-codec-per-process
// uniformity for handler-by-handler flexibility. The cmd/ examples register
// MsgPack serializers for every handler.
package ap

import "github.com/lunatic-go/actorkit/tag"

// Definition is the behavior of one abstract-process type: how its state
// comes up, how it reacts to a linked peer's death, how it tears down, and
// the dispatch table its handlers register into.
type Definition[State any, Arg any] interface {
	// Init builds the process's initial state from arg. A returned error
	// or a panic inside Init both abort startup and are reported back to
	// whoever called Start/StartAs as a StartupError — the spawned process
	// itself exits without ever entering its dispatch loop.
	Init(cfg *Config[State], arg Arg) (State, error)
	// Terminate runs once, after the dispatch loop has returned (normal
	// shutdown only — a killed process runs no cleanup, matching the host's
	// unconditional Kill semantics).
	Terminate(state *State)
	// HandleLinkDeath is invoked whenever a linked peer dies and this
	// process is configured DieIfLinkDies(false); t is the tag that link
	// was established under.
	HandleLinkDeath(state *State, t tag.Tag)
	// Handlers returns this definition's dispatch table. Implementations
	// build it once (e.g. in a package-level sync.Once) and return the same
	// table on every call.
	Handlers() *Handlers[State]
}

// DefaultLifecycle supplies no-op Terminate/HandleLinkDeath bodies so a
// Definition only has to implement Init and Handlers when it has nothing
// special to do at shutdown or on a peer's death — embed it the way the
// teacher's server types embed a base implementation for optional hooks.
type DefaultLifecycle[State any] struct{}

func (DefaultLifecycle[State]) Terminate(*State) {}

func (DefaultLifecycle[State]) HandleLinkDeath(*State, tag.Tag) {}
