package obs

import "github.com/google/uuid"

// NewCorrelationID returns a fresh, human-debuggable id for attaching to log
// lines and trace spans. It is a debugging aid only — the host-assigned
// (node_id, process_id) pair remains the actual process identity; nothing
// in this module ever uses a correlation id to address a message.
func NewCorrelationID() string {
	return uuid.NewString()
}
