package hostsim

import (
	"sync"

	"github.com/lunatic-go/actorkit/host"
)

// registry is hostsim's name registry, adapted from the teacher's
// kernel/services.go ServiceRegistry: a name maps to at most one identity,
// with reservation semantics so ap.StartAs can atomically "get or reserve"
// a name before the child it names has even finished starting up (spec
// §4.5.2).
type registry struct {
	mu       sync.RWMutex
	byName   map[string]host.ProcessIdentity
	reserved map[string]bool
}

func newRegistry() *registry {
	return &registry{
		byName:   make(map[string]host.ProcessIdentity),
		reserved: make(map[string]bool),
	}
}

func (r *registry) get(name string) (host.ProcessIdentity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName[name]
	return id, ok
}

func (r *registry) put(name string, id host.ProcessIdentity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName[name] = id
	delete(r.reserved, name)
}

// getOrPutLater reserves name if it is free (returning alreadyRegistered ==
// false), or reports the existing registrant (alreadyRegistered == true)
// without disturbing it. A reservation that the caller abandons — because
// the child's startup handshake never completes — must be released via
// remove, or the name leaks forever (spec §7 "name reservation leaks").
func (r *registry) getOrPutLater(name string) (existing host.ProcessIdentity, alreadyRegistered bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.byName[name]; ok {
		return id, true
	}
	if r.reserved[name] {
		// Another in-flight start_as already holds the reservation; treat
		// it the same as "already registered" from the caller's point of
		// view since at most one AP may end up bound to name (testable
		// property 5).
		return host.ProcessIdentity{}, true
	}
	r.reserved[name] = true
	return host.ProcessIdentity{}, false
}

func (r *registry) remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byName, name)
	delete(r.reserved, name)
}
