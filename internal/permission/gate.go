// Package permission mediates tool execution: the orchestrator asks a Gate
// before running any side-effecting tool.
package permission

import "context"

type Decision string

const (
	Approve Decision = "approve"
	// ApproveAlways approves and hints that future requests for the same
	// tool within the session need not be asked again. Caching the hint is
	// the orchestrator's policy, not the gate's.
	ApproveAlways Decision = "approve_always"
	Deny          Decision = "deny"
)

func ValidDecision(d Decision) bool {
	switch d {
	case Approve, ApproveAlways, Deny:
		return true
	}
	return false
}

// Request describes one pending invocation.
type Request struct {
	Tool      string
	Arguments map[string]any
	// CallID is the correlation token of the originating tool call.
	CallID string
}

// Gate is the approval authority. Request may block indefinitely waiting on
// a human or a policy decision; implementations must honor ctx cancellation.
type Gate interface {
	Request(ctx context.Context, req Request) (Decision, error)
}

// Dummy approves everything and never blocks. For headless runs.
type Dummy struct{}

func (Dummy) Request(context.Context, Request) (Decision, error) {
	return Approve, nil
}
