package hostsim

import (
	"time"

	"github.com/lunatic-go/actorkit/host"
)

// boundABI is a host.ABI view scoped to one simulated process (pid). Every
// sub-interface accessor closes over (w, pid), reproducing the implicit
// "this instance" scoping every real Lunatic host import has.
type boundABI struct {
	w   *World
	pid uint64
}

func (b boundABI) Process() host.ProcessABI         { return boundProcess{b} }
func (b boundABI) Message() host.MessageABI         { return boundMessage{b} }
func (b boundABI) Distributed() host.DistributedABI { return boundDistributed{b} }
func (b boundABI) Registry() host.RegistryABI       { return boundRegistry{b} }
func (b boundABI) Timer() host.TimerABI             { return boundTimer{b} }
func (b boundABI) Tag() host.TagABI                 { return boundTag{b} }

func (b boundABI) identity() host.ProcessIdentity {
	return host.ProcessIdentity{NodeID: b.w.nodeID, ProcessID: b.pid}
}

// --- process namespace ---

type boundProcess struct{ b boundABI }

func (p boundProcess) This() host.ProcessIdentity { return p.b.identity() }

func (p boundProcess) Spawn(opts host.SpawnOptions) (host.ProcessIdentity, error) {
	w := p.b.w
	if opts.Node != nil && opts.LinkTag != nil {
		return host.ProcessIdentity{}, errCrossNodeLink
	}
	if opts.Node != nil && *opts.Node != w.nodeID {
		return host.ProcessIdentity{}, errCrossNodeLink
	}

	pid := w.allocatePID()
	entry := newProcEntry(pid)
	if opts.Config != nil {
		entry.config.dieIfLinkDies = opts.Config.DieIfLinkDies
	}
	w.mu.Lock()
	w.processes[pid] = entry
	w.mu.Unlock()

	if len(opts.BootstrapPayload) > 0 {
		entry.mailbox.enqueue(message{tag: 0, data: opts.BootstrapPayload})
	}
	if opts.LinkTag != nil {
		w.linkPair(p.b.pid, pid, *opts.LinkTag)
	}

	w.log.Debug("hostsim: spawned process", "parent", p.b.pid, "child", pid)

	if opts.Entry != nil {
		child := w.bind(pid)
		go runEntry(w, pid, opts.Entry, child)
	}

	return host.ProcessIdentity{NodeID: w.nodeID, ProcessID: pid}, nil
}

// runEntry runs a spawned process's entry function, catching panics the way
// the host observes them: as a link-death signal to every linked peer, then
// tearing the process down from the table.
func runEntry(w *World, pid uint64, entryFn func(host.ABI), self host.ABI) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Warn("hostsim: process panicked", "pid", pid, "panic", r)
		}
		w.terminate(pid)
	}()
	entryFn(self)
}

func (p boundProcess) Link(t uint64, id host.ProcessIdentity) error {
	p.b.w.linkPair(p.b.pid, id.ProcessID, t)
	return nil
}

func (p boundProcess) Unlink(id host.ProcessIdentity) error {
	p.b.w.unlinkPair(p.b.pid, id.ProcessID)
	return nil
}

func (p boundProcess) Kill(id host.ProcessIdentity) error {
	p.b.w.terminate(id.ProcessID)
	return nil
}

func (p boundProcess) Exists(id host.ProcessIdentity) bool {
	entry, ok := p.b.w.lookupProcess(id.ProcessID)
	if !ok {
		return false
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.state != procStateTerminated
}

func (p boundProcess) SetDieWhenLinkDies(die bool) {
	entry, ok := p.b.w.lookupProcess(p.b.pid)
	if !ok {
		return
	}
	entry.mu.Lock()
	entry.config.dieIfLinkDies = die
	entry.mu.Unlock()
}

func (p boundProcess) SleepMS(ms uint64) {
	time.Sleep(time.Duration(ms) * time.Millisecond)
}

func (p boundProcess) ConfigCreate() *host.ProcessConfig {
	return &host.ProcessConfig{DieIfLinkDies: true}
}

func (p boundProcess) ConfigSetDieIfLinkDies(cfg *host.ProcessConfig, die bool) {
	cfg.DieIfLinkDies = die
}

// --- message namespace ---

type boundMessage struct{ b boundABI }

func (m boundMessage) entry() *procEntry {
	entry, _ := m.b.w.lookupProcess(m.b.pid)
	return entry
}

func (m boundMessage) CreateData(t uint64, capacityHint int) {
	m.entry().scratch.createData(t)
}

func (m boundMessage) WriteData(p []byte) (int, error) {
	return m.entry().scratch.writeData(p)
}

func (m boundMessage) ReadData(p []byte) (int, error) {
	return m.entry().scratch.readData(p)
}

func (m boundMessage) GetTag() uint64 {
	return m.entry().scratch.getTag()
}

func (m boundMessage) Send(target host.ProcessIdentity) error {
	t, data, resources := m.entry().scratch.takeOutgoing()
	targetEntry, ok := m.b.w.lookupProcess(target.ProcessID)
	if !ok {
		return nil // host semantics: sending to a dead process is a silent no-op
	}
	targetEntry.mailbox.enqueue(message{tag: t, data: data, resources: resources})
	return nil
}

func (m boundMessage) SendReceiveSkipSearch(target host.ProcessIdentity, waitTag uint64, timeout time.Duration) (host.MessageCode, error) {
	if err := m.Send(target); err != nil {
		return host.MessageTimeout, err
	}
	self := m.entry()
	msg, code, err := self.mailbox.receive([]uint64{waitTag}, timeout)
	if err != nil || code != host.MessageOK {
		return code, err
	}
	self.scratch.setIncoming(msg.tag, msg.data, msg.resources)
	return code, nil
}

func (m boundMessage) Receive(tags []uint64, timeout time.Duration) (host.MessageCode, error) {
	self := m.entry()
	msg, code, err := self.mailbox.receive(tags, timeout)
	if err != nil {
		return code, err
	}
	if code == host.MessageLinkDied {
		self.scratch.setIncoming(msg.tag, nil, nil)
		return code, nil
	}
	if code == host.MessageOK {
		self.scratch.setIncoming(msg.tag, msg.data, msg.resources)
	}
	return code, nil
}

func (m boundMessage) PushResource(kind host.ResourceKind, id uint64) (uint64, error) {
	return m.entry().scratch.pushResource(kind, id), nil
}

func (m boundMessage) TakeResource(kind host.ResourceKind, index uint64) (uint64, error) {
	return m.entry().scratch.takeResource(kind, index)
}

// --- distributed namespace ---
//
// hostsim simulates a single logical node by default; DistributedABI is
// implemented against the same World so that code written against the
// distributed namespace still runs, but cross-node linking is rejected per
// spec §9's open question (resolved: unsupported) and cross-node spawn is
// only meaningful once a second World exists, which this module's tests do
// not require — see DESIGN.md.

type boundDistributed struct{ b boundABI }

func (d boundDistributed) NodeID() uint64 { return d.b.w.nodeID }

func (d boundDistributed) Spawn(node uint64, opts host.SpawnOptions) (host.ProcessIdentity, error) {
	opts.Node = &node
	return boundProcess{d.b}.Spawn(opts)
}

func (d boundDistributed) Send(node uint64, target host.ProcessIdentity) error {
	return boundMessage{d.b}.Send(target)
}

func (d boundDistributed) SendReceiveSkipSearch(node uint64, target host.ProcessIdentity, waitTag uint64, timeout time.Duration) (host.MessageCode, error) {
	return boundMessage{d.b}.SendReceiveSkipSearch(target, waitTag, timeout)
}

// --- registry namespace ---

type boundRegistry struct{ b boundABI }

func (r boundRegistry) Get(name string) (host.ProcessIdentity, bool) {
	return r.b.w.registry.get(name)
}

func (r boundRegistry) Put(name string, id host.ProcessIdentity) {
	r.b.w.registry.put(name, id)
}

func (r boundRegistry) GetOrPutLater(name string) (host.ProcessIdentity, bool) {
	return r.b.w.registry.getOrPutLater(name)
}

func (r boundRegistry) Remove(name string) {
	r.b.w.registry.remove(name)
}

// --- timer namespace ---

type boundTimer struct{ b boundABI }

func (t boundTimer) SendAfter(target host.ProcessIdentity, delay time.Duration, payload []byte, tagValue uint64) host.TimerRef {
	return t.b.w.timers.sendAfter(target, delay, payload, tagValue)
}

func (t boundTimer) CancelTimer(ref host.TimerRef) bool {
	return t.b.w.timers.cancelTimer(ref)
}

// --- tag namespace ---

type boundTag struct{ b boundABI }

func (t boundTag) New() uint64 { return t.b.w.freshTag() }
