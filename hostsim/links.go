package hostsim

import "github.com/lunatic-go/actorkit/host"

// linkPair establishes a bidirectional link between a and b tagged t,
// adapted from the teacher's kernel/interrupts.go pending-notification
// bookkeeping, repurposed from request interrupts to process links: each
// side remembers the other so a death on either side can be delivered to
// the survivor (spec §3 "Lifecycle", §4.5.8 "Link-death").
func (w *World) linkPair(a, b uint64, t uint64) {
	aEntry, aOK := w.lookupProcess(a)
	bEntry, bOK := w.lookupProcess(b)
	if !aOK || !bOK {
		return
	}
	aEntry.mu.Lock()
	aEntry.linkedTo[b] = t
	aEntry.mu.Unlock()
	bEntry.mu.Lock()
	bEntry.linkedTo[a] = t
	bEntry.mu.Unlock()
}

func (w *World) unlinkPair(a, b uint64) {
	if aEntry, ok := w.lookupProcess(a); ok {
		aEntry.mu.Lock()
		delete(aEntry.linkedTo, b)
		aEntry.mu.Unlock()
	}
	if bEntry, ok := w.lookupProcess(b); ok {
		bEntry.mu.Lock()
		delete(bEntry.linkedTo, a)
		bEntry.mu.Unlock()
	}
}

// notifyLinkDeath delivers dead's death to peer: if peer is configured to
// die with its link (the default, spec §4.5.8), peer is terminated in turn
// (and its own peers notified transitively); otherwise a LINK_DIED sentinel
// message is enqueued in peer's mailbox, tagged t, for its dispatch loop or
// tag-filtered receive to observe.
func (w *World) notifyLinkDeath(peer uint64, dead uint64, t uint64) {
	entry, ok := w.lookupProcess(peer)
	if !ok {
		return
	}
	entry.mu.Lock()
	dieWithPeer := entry.config.dieIfLinkDies
	entry.mu.Unlock()

	if dieWithPeer {
		w.terminate(peer)
		return
	}
	entry.mailbox.enqueue(message{
		tag:         t,
		isLinkDeath: true,
		deadPeer:    host.ProcessIdentity{NodeID: w.nodeID, ProcessID: dead},
	})
}
