package supervisor

import "fmt"

// ErrRestartIntensity is returned (via Supervisor.Err after Start's process
// exits) when restarts exceeded the configured max-restarts/within window,
// mirroring OTP's "supervisor gives up" semantics — this library has no
// supervisor of its own to escalate to, so giving up means terminating
// itself and its remaining children; nesting supervisors is how a caller
// gets escalation to continue upward.
type ErrRestartIntensity struct {
	MaxRestarts int
	Within      string
}

func (e *ErrRestartIntensity) Error() string {
	return fmt.Sprintf("supervisor: exceeded %d restarts within %s, giving up", e.MaxRestarts, e.Within)
}
