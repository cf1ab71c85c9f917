// Package dispatch abstracts the outbound send capability. The orchestrator
// only sees a boolean outcome plus diagnostic text; the transport behind it
// (AppleScript today) is an implementation detail.
package dispatch

import "context"

// Channel names a send route.
type Channel string

const (
	// Primary is the rich-messaging route attempted first (iMessage).
	Primary Channel = "primary"
	// Fallback is the plain route used when Primary fails or is unconfirmed (SMS).
	Fallback Channel = "fallback"
)

// Outcome is the result of one send attempt. Info carries free-text
// diagnostics; callers never parse it for semantics.
type Outcome struct {
	Success bool
	Info    string
}

// Dispatcher attempts a send on a channel. Implementations may be slow
// (external process invocation); failures are reported in the Outcome,
// never as a panic or a run-fatal error.
type Dispatcher interface {
	Send(ctx context.Context, ch Channel, identity, text string) Outcome
}
