package dispatch

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Osascript dispatches by running an AppleScript sender per channel:
// osascript <script> <identity> <text>. Exit 0 means the script accepted
// the message; anything else is a failure with stderr as diagnostic.
type Osascript struct {
	// PrimaryScript and FallbackScript are paths to the per-channel senders.
	PrimaryScript  string
	FallbackScript string
}

func (o *Osascript) script(ch Channel) string {
	if ch == Fallback {
		return o.FallbackScript
	}
	return o.PrimaryScript
}

// Send runs the channel's AppleScript and maps its exit status to an Outcome.
func (o *Osascript) Send(ctx context.Context, ch Channel, identity, text string) Outcome {
	cmd := exec.CommandContext(ctx, "osascript", o.script(ch), identity, text)
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		diag := strings.TrimSpace(stderr.String())
		if diag == "" {
			diag = strings.TrimSpace(stdout.String())
		}
		if diag == "" {
			diag = err.Error()
		}
		return Outcome{Success: false, Info: fmt.Sprintf("osascript error: %s", diag)}
	}

	info := strings.TrimSpace(stdout.String())
	if info == "" {
		info = "sent"
	}
	return Outcome{Success: true, Info: info}
}

// DryRun performs no external action and always succeeds, so the whole
// state machine can be exercised without sending anything.
type DryRun struct{}

// Send reports success with a fixed diagnostic.
func (DryRun) Send(ctx context.Context, ch Channel, identity, text string) Outcome {
	return Outcome{Success: true, Info: "dry-run"}
}
