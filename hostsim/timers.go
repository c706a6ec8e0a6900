package hostsim

import (
	"container/heap"
	"sync"
	"time"

	"github.com/lunatic-go/actorkit/host"
)

// timerEntry is one pending delayed send, adapted from the teacher's
// kernel/lifecycle.go priorityItem — the same min-heap shape, but ordered
// by fire time instead of scheduling priority, since hostsim's timer
// namespace (spec §6) has nothing to do with process scheduling.
type timerEntry struct {
	id        host.TimerRef
	fireAt    time.Time
	target    host.ProcessIdentity
	tag       uint64
	payload   []byte
	cancelled bool
	index     int
}

// timerQueue implements heap.Interface over pending timers.
type timerQueue []*timerEntry

func (q timerQueue) Len() int            { return len(q) }
func (q timerQueue) Less(i, j int) bool  { return q[i].fireAt.Before(q[j].fireAt) }
func (q timerQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index, q[j].index = i, j
}
func (q *timerQueue) Push(x any) {
	e := x.(*timerEntry)
	e.index = len(*q)
	*q = append(*q, e)
}
func (q *timerQueue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return e
}

// timerHeap owns the pending-timer min-heap plus the background dispatcher
// goroutine that fires them.
type timerHeap struct {
	mu     sync.Mutex
	queue  timerQueue
	byID   map[host.TimerRef]*timerEntry
	nextID uint64

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
}

func newTimerHeap() *timerHeap {
	return &timerHeap{
		byID: make(map[host.TimerRef]*timerEntry),
		wake: make(chan struct{}, 1),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

func (t *timerHeap) sendAfter(target host.ProcessIdentity, delay time.Duration, payload []byte, tag uint64) host.TimerRef {
	t.mu.Lock()
	t.nextID++
	e := &timerEntry{
		id:      host.TimerRef(t.nextID),
		fireAt:  time.Now().Add(delay),
		target:  target,
		tag:     tag,
		payload: payload,
	}
	t.byID[e.id] = e
	heap.Push(&t.queue, e)
	t.mu.Unlock()
	t.signal()
	return e.id
}

// cancelTimer is idempotent: cancelling an already-fired or already-
// cancelled timer returns false but never errors (spec §5 "Cancellation").
func (t *timerHeap) cancelTimer(ref host.TimerRef) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.byID[ref]
	if !ok || e.cancelled {
		return false
	}
	e.cancelled = true
	delete(t.byID, ref)
	return true
}

func (t *timerHeap) signal() {
	select {
	case t.wake <- struct{}{}:
	default:
	}
}

// start launches the dispatcher goroutine, which delivers each non-
// cancelled timer's payload to its target's mailbox when it fires.
func (t *timerHeap) start(w *World) {
	go func() {
		defer close(t.done)
		for {
			t.mu.Lock()
			if t.queue.Len() == 0 {
				t.mu.Unlock()
				select {
				case <-t.wake:
					continue
				case <-t.stop:
					return
				}
			}
			next := t.queue[0]
			wait := time.Until(next.fireAt)
			if wait <= 0 {
				heap.Pop(&t.queue)
				delete(t.byID, next.id)
				cancelled := next.cancelled
				t.mu.Unlock()
				if !cancelled {
					w.deliverTimer(next)
				}
				continue
			}
			t.mu.Unlock()

			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
			case <-t.wake:
				timer.Stop()
			case <-t.stop:
				timer.Stop()
				return
			}
		}
	}()
}

func (t *timerHeap) stopLoop() {
	close(t.stop)
	<-t.done
}

// stop tears down the dispatcher.
func (t *timerHeap) stop() {
	t.stopLoop()
}

func (w *World) deliverTimer(e *timerEntry) {
	entry, ok := w.lookupProcess(e.target.ProcessID)
	if !ok {
		return
	}
	entry.mailbox.enqueue(message{tag: e.tag, data: e.payload})
}
