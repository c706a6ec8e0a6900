package hostsim

import "time"

// CleanupConfig holds configurable cleanup parameters for the background
// sweep that reclaims terminated processes' table entries, adapted from the
// teacher's kernel/cleanup.go CleanupConfig — narrowed to the one resource
// hostsim actually accumulates indefinitely (the process table), since
// there are no orchestration sessions or rate-limiter windows in this
// domain.
type CleanupConfig struct {
	// Interval is how often the sweep runs.
	Interval time.Duration
	// Retention is how long a terminated process's table entry (mailbox,
	// scratch buffer, link set) is kept before being reclaimed. A process
	// handle remains comparable/usable as a capability after this point
	// (spec §3: "dropping a handle does NOT kill the process" and vice
	// versa — Exists simply starts reporting false).
	Retention time.Duration
}

// DefaultCleanupConfig mirrors the teacher's conservative defaults, scaled
// down for an in-process simulator that is expected to live for a test's or
// a demo binary's duration rather than a long-running service's.
func DefaultCleanupConfig() CleanupConfig {
	return CleanupConfig{
		Interval:  30 * time.Second,
		Retention: 5 * time.Minute,
	}
}

// startCleanupLoop starts the background sweep and returns a stop function.
func (w *World) startCleanupLoop(cfg CleanupConfig) func() {
	if cfg.Interval == 0 {
		cfg = DefaultCleanupConfig()
	}
	ticker := time.NewTicker(cfg.Interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.C:
				w.runCleanupCycle(cfg)
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	return func() { close(done) }
}

func (w *World) runCleanupCycle(cfg CleanupConfig) {
	cutoff := time.Now().Add(-cfg.Retention)
	w.mu.Lock()
	defer w.mu.Unlock()
	for pid, entry := range w.processes {
		entry.mu.Lock()
		reclaim := entry.state == procStateTerminated && entry.terminatedAt.Before(cutoff)
		entry.mu.Unlock()
		if reclaim {
			delete(w.processes, pid)
		}
	}
}
