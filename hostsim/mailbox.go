package hostsim

import (
	"bytes"
	"sync"
	"time"

	"github.com/lunatic-go/actorkit/host"
)

// message is one entry in a simulated mailbox: a tag plus its encoded
// payload, or a link-death sentinel carrying the dead peer's identity.
type message struct {
	tag         uint64
	data        []byte
	resources   []resourceSlot
	isLinkDeath bool
	deadPeer    host.ProcessIdentity
}

// resourceSlot is one entry in a message's resource array (spec §3
// "Resource smuggling"): a host resource transferred by index instead of by
// value.
type resourceSlot struct {
	kind host.ResourceKind
	id   uint64
}

// mailbox is a per-process FIFO with tag-filtered, skip-search receive: a
// message whose tag is not in the requested filter is retained in order for
// a later receive, matching spec §3's "skip search" primitive.
type mailbox struct {
	mu     sync.Mutex
	queue  []message
	notify chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{notify: make(chan struct{})}
}

func (m *mailbox) enqueue(msg message) {
	m.mu.Lock()
	m.queue = append(m.queue, msg)
	old := m.notify
	m.notify = make(chan struct{})
	m.mu.Unlock()
	close(old)
}

// receive blocks until a message matching tags (any message, if tags is
// empty) is available, or timeout elapses (timeout == 0 means no deadline).
// A pending link-death sentinel always matches first, regardless of the
// requested tag filter, mirroring the host's out-of-band delivery of
// LINK_DIED.
func (m *mailbox) receive(tags []uint64, timeout time.Duration) (message, host.MessageCode, error) {
	var deadline time.Time
	hasDeadline := timeout > 0
	if hasDeadline {
		deadline = time.Now().Add(timeout)
	}

	for {
		m.mu.Lock()
		if idx := m.findLinkDeath(); idx >= 0 {
			msg := m.take(idx)
			m.mu.Unlock()
			return msg, host.MessageLinkDied, nil
		}
		if idx := m.findMatch(tags); idx >= 0 {
			msg := m.take(idx)
			m.mu.Unlock()
			return msg, host.MessageOK, nil
		}
		ch := m.notify
		m.mu.Unlock()

		if !hasDeadline {
			<-ch
			continue
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return message{}, host.MessageTimeout, nil
		}
		timer := time.NewTimer(remaining)
		select {
		case <-ch:
			timer.Stop()
		case <-timer.C:
			return message{}, host.MessageTimeout, nil
		}
	}
}

func (m *mailbox) findLinkDeath() int {
	for i, msg := range m.queue {
		if msg.isLinkDeath {
			return i
		}
	}
	return -1
}

func (m *mailbox) findMatch(tags []uint64) int {
	if len(tags) == 0 {
		for i := range m.queue {
			if !m.queue[i].isLinkDeath {
				return i
			}
		}
		return -1
	}
	for i, msg := range m.queue {
		if msg.isLinkDeath {
			continue
		}
		for _, t := range tags {
			if msg.tag == t {
				return i
			}
		}
	}
	return -1
}

// take removes and returns the message at idx. Caller holds m.mu.
func (m *mailbox) take(idx int) message {
	msg := m.queue[idx]
	m.queue = append(m.queue[:idx], m.queue[idx+1:]...)
	return msg
}

// scratchBuffer is the per-process host-owned staging area spec §3
// describes: at most one outgoing buffer under construction, at most one
// incoming buffer bound to the most recent receive. hostsim gives every
// process its own, touched only by that process's own goroutine, so no
// locking is required for correctness — the mutex here is defense in depth
// against an embedder accidentally sharing a scratch buffer across
// goroutines.
type scratchBuffer struct {
	mu sync.Mutex

	outOpen     bool
	outTag      uint64
	out         bytes.Buffer
	outResources []resourceSlot

	inTag       uint64
	in          []byte
	inPos       int
	inResources []resourceSlot
}

func newScratchBuffer() *scratchBuffer { return &scratchBuffer{} }

func (s *scratchBuffer) createData(t uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outOpen = true
	s.outTag = t
	s.out.Reset()
	s.outResources = nil
}

func (s *scratchBuffer) writeData(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.out.Write(p)
}

// pushResource appends a resource to the outgoing message's resource array
// and returns its index, consuming it from the sender's point of view (spec
// §3 "Resource smuggling": "the sender must treat its copy as consumed").
func (s *scratchBuffer) pushResource(kind host.ResourceKind, id uint64) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := uint64(len(s.outResources))
	s.outResources = append(s.outResources, resourceSlot{kind: kind, id: id})
	return idx
}

// takeResource moves the resource at index out of the most recently
// received message's resource array; taking the same index twice is a
// programmer error surfaced as errResourceAlreadyTaken, the same error an
// out-of-range index gets, mirroring "every resource pushed must be taken,
// exactly once".
func (s *scratchBuffer) takeResource(kind host.ResourceKind, index uint64) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index >= uint64(len(s.inResources)) {
		return 0, errResourceAlreadyTaken
	}
	slot := s.inResources[index]
	if slot.kind == -1 {
		return 0, errResourceAlreadyTaken
	}
	if slot.kind != kind {
		return 0, errResourceKindMismatch
	}
	// Mark as taken in place so a second take at the same index fails.
	s.inResources[index] = resourceSlot{kind: -1, id: 0}
	return slot.id, nil
}

func (s *scratchBuffer) takeOutgoing() (uint64, []byte, []resourceSlot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.outTag
	data := append([]byte(nil), s.out.Bytes()...)
	resources := s.outResources
	s.outOpen = false
	s.out.Reset()
	s.outResources = nil
	return t, data, resources
}

func (s *scratchBuffer) setIncoming(t uint64, data []byte, resources []resourceSlot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inTag = t
	s.in = data
	s.inPos = 0
	s.inResources = resources
}

func (s *scratchBuffer) getTag() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inTag
}

func (s *scratchBuffer) readData(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := copy(p, s.in[s.inPos:])
	s.inPos += n
	return n, nil
}

type resourceError string

func (e resourceError) Error() string { return string(e) }

const (
	errResourceAlreadyTaken resourceError = "actorkit: resource already taken or never pushed"
	errResourceKindMismatch resourceError = "actorkit: resource kind mismatch at index"
)
