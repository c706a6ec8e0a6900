// Package hostsim is an in-process implementation of host.ABI: a
// goroutine-and-channel simulator standing in for the Lunatic WASM host so
// every layer above it (tag, process, protocol, ap, supervisor) is exercised
// by real concurrent execution in this repository's tests and examples,
// rather than against a mock.
//
// hostsim composes five subsystems the way the teacher codebase's
// kernel.Kernel composes its own: a process table (adapted from
// kernel/types.go's ProcessState machine), per-process mailboxes with a
// scratch buffer, a name registry (adapted from kernel/services.go), a
// timer heap (adapted from kernel/lifecycle.go's priority queue, repurposed
// to order pending delayed sends by fire time instead of scheduling
// priority), and link-death tracking (adapted from kernel/interrupts.go's
// pending/resolved lifecycle).
//
// Every ABI call in real Lunatic is implicitly scoped to "this WASM
// instance" — there is no explicit caller argument because the import is
// only ever invoked from inside the calling process itself. hostsim
// reproduces that by binding the World to one simulated process id at a
// time: World holds the shared tables, and each host.ABI it hands out (from
// Root, or to a spawned process's entry function) has every method
// implicitly "as seen by" that process.
package hostsim

import (
	"sync"
	"sync/atomic"

	"github.com/lunatic-go/actorkit/applog"
	"github.com/lunatic-go/actorkit/host"
)

// World is the shared simulator state: the process table, the name
// registry, and the timer heap. It is not itself a host.ABI — use Root to
// get a process-scoped view.
type World struct {
	log applog.Logger

	nextPID uint64
	nextTag uint64
	nodeID  uint64

	mu        sync.RWMutex
	processes map[uint64]*procEntry

	registry *registry
	timers   *timerHeap

	stopCleanup func()
}

// Option configures a World at construction time.
type Option func(*World)

// WithLogger attaches a structured logger; the default is applog.Noop().
func WithLogger(l applog.Logger) Option {
	return func(w *World) { w.log = l }
}

// WithNodeID fixes the simulated node id returned by Distributed().NodeID().
// Defaults to 1. A World simulates a single node: a spawn that names any
// other node id is rejected, with or without a link.
func WithNodeID(id uint64) Option {
	return func(w *World) { w.nodeID = id }
}

// New constructs a ready-to-use World and starts its background cleanup
// loop and timer dispatcher. Call Close to stop both.
func New(opts ...Option) *World {
	w := &World{
		log:       applog.Noop(),
		nodeID:    1,
		processes: make(map[uint64]*procEntry),
		registry:  newRegistry(),
		timers:    newTimerHeap(),
	}
	for _, o := range opts {
		o(w)
	}
	w.stopCleanup = w.startCleanupLoop(DefaultCleanupConfig())
	w.timers.start(w)
	return w
}

// Close stops the cleanup loop and the timer dispatcher. It does not kill
// any still-running simulated processes; callers own their own shutdown
// sequencing (typically via ProcessRef.Shutdown, or by cancelling a
// supervisor's context).
func (w *World) Close() {
	if w.stopCleanup != nil {
		w.stopCleanup()
	}
	w.timers.stop()
}

// Root allocates a fresh top-level process (no parent, no mailbox consumer
// running) and returns a host.ABI bound to it. Test code and the cmd/
// examples use Root to obtain the first ABI handle before spawning actual
// actors from it.
func (w *World) Root() host.ABI {
	pid := w.allocatePID()
	entry := newProcEntry(pid)
	w.mu.Lock()
	w.processes[pid] = entry
	w.mu.Unlock()
	return w.bind(pid)
}

func (w *World) bind(pid uint64) host.ABI {
	return boundABI{w: w, pid: pid}
}

func (w *World) allocatePID() uint64 {
	return atomic.AddUint64(&w.nextPID, 1)
}

// freshTag hands out a host-unique 64-bit tag whose low bits are guaranteed
// zero modulo the handler-id subfield width the tag package reserves, so
// tag.FromU6 can safely overwrite them (spec §9's debug assertion that
// ExtractU6Data + re-assembly round-trips relies on this).
func (w *World) freshTag() uint64 {
	const handlerBits = 6
	n := atomic.AddUint64(&w.nextTag, 1)
	return n << handlerBits
}
