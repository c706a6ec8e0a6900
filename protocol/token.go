package protocol

import (
	"fmt"
	"reflect"
	"runtime"

	"github.com/lunatic-go/actorkit/host"
)

// token is the lifetime tracker shared by every Protocol[...] value that
// belongs to the same session, reproducing Rust's "panic on Drop unless
// the state is End/TaskEnd" (spec §4.4 — the session type's central safety
// property).
var (
	endType     = reflect.TypeFor[End]()
	taskEndType = reflect.TypeFor[TaskEnd]()
)

// token itself is only ever watched for unreachability by runtime.AddCleanup
// — it holds no mutable state of its own. The mutable armed/state pair
// lives in a separate allocation (sessionState) so the cleanup's argument
// never points back into the object being watched, which would keep it
// permanently reachable and the cleanup would never fire.
type token struct {
	st       *sessionState
	cleanup  runtime.Cleanup
	selfProc host.ProcessIdentity
}

type sessionState struct {
	armed bool
	state string
}

func newToken(self host.ABI, initial reflect.Type) *token {
	st := &sessionState{armed: true, state: initial.String()}
	t := &token{st: st, selfProc: self.Process().This()}
	t.cleanup = runtime.AddCleanup(t, runCleanup, st)

	if initial == endType || initial == taskEndType {
		t.disarm()
	}
	return t
}

func runCleanup(st *sessionState) {
	if st.armed {
		panic(fmt.Sprintf("actorkit: protocol session dropped before reaching End/TaskEnd (last state: %s)", st.state))
	}
}

// advance records the session's new state and disarms the cleanup once
// End or TaskEnd is reached. Single-owner usage (the only supported usage
// pattern — see the package doc) means advance is never called
// concurrently with itself for the same token, so sessionState needs no
// synchronization of its own.
func (t *token) advance(next reflect.Type) {
	t.st.state = next.String()
	if next == endType || next == taskEndType {
		t.disarm()
	}
}

func (t *token) disarm() {
	if t.st.armed {
		t.st.armed = false
		t.cleanup.Stop()
	}
}

// Close explicitly releases a session that has reached End, for symmetry
// with the terminal states Result reaches implicitly. Calling Close is
// optional — End is already disarmed the moment it is constructed — but it
// spells out the session's natural end point at call sites, the way the
// teacher's resource-owning types expose an explicit Close even when a
// finalizer also exists as a backstop.
func Close(p Protocol[End]) {
	p.tok.disarm()
}
