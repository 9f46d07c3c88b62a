// Package stream reassembles an ordered sequence of partial response
// fragments into one complete assistant turn.
package stream

import (
	"errors"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/opencoder/chatcore/internal/wire"
)

// ErrAlreadyDone is returned for any fragment fed after the done fragment.
// The assembler's state is unchanged; callers may ignore it and continue.
var ErrAlreadyDone = errors.New("turn already done")

type State string

const (
	StateEmpty     State = "EMPTY"
	StateStreaming State = "STREAMING"
	StateDone      State = "DONE"
)

// Metadata holds the scalar response fields accumulated across a turn,
// last write wins. Durations are nanoseconds.
type Metadata struct {
	Model     string
	CreatedAt time.Time

	TotalDuration      int64
	LoadDuration       int64
	PromptEvalDuration int64
	EvalDuration       int64
	PromptEvalCount    int
	EvalCount          int
}

// Turn is one assembled assistant response. It is mutated only by the
// assembler and becomes immutable once Done is true.
type Turn struct {
	ID         string
	Message    wire.Message
	Done       bool
	DoneReason string
	Metadata   Metadata
}

// Delta is the user-visible text newly revealed by one fragment.
type Delta struct {
	Content  string
	Thinking string
}

func (d Delta) Empty() bool { return d.Content == "" && d.Thinking == "" }

type Options struct {
	// SurfaceContentWithThinking surfaces a fragment's content delta even
	// when the same fragment also carries thinking. The default mirrors the
	// observed behavior: the thinking delta wins and the content is only
	// accumulated internally.
	SurfaceContentWithThinking bool
}

// Assembler folds fragments into a Turn. Feed must not be called
// concurrently with itself; fragment delivery is sequential.
type Assembler struct {
	opts  Options
	state State
	turn  Turn
}

func New(opts Options) *Assembler {
	return &Assembler{
		opts:  opts,
		state: StateEmpty,
		turn:  Turn{ID: ulid.Make().String()},
	}
}

func (a *Assembler) State() State { return a.state }

// Turn returns a copy of the assembled turn. Once State is DONE the copy is
// final and the assembler can be discarded.
func (a *Assembler) Turn() Turn {
	t := a.turn
	if n := len(a.turn.Message.ToolCalls); n > 0 {
		t.Message.ToolCalls = make([]wire.ToolCall, n)
		copy(t.Message.ToolCalls, a.turn.Message.ToolCalls)
	}
	return t
}

// Feed consumes one fragment and returns the newly added display text.
// Fragments after the done fragment return ErrAlreadyDone and change
// nothing.
func (a *Assembler) Feed(f wire.Fragment) (Delta, error) {
	if a.state == StateDone {
		return Delta{}, ErrAlreadyDone
	}

	if f.Model != "" {
		a.turn.Metadata.Model = f.Model
	}
	if !f.CreatedAt.IsZero() {
		a.turn.Metadata.CreatedAt = f.CreatedAt
	}
	if f.TotalDuration != 0 {
		a.turn.Metadata.TotalDuration = f.TotalDuration
	}
	if f.LoadDuration != 0 {
		a.turn.Metadata.LoadDuration = f.LoadDuration
	}
	if f.PromptEvalDuration != 0 {
		a.turn.Metadata.PromptEvalDuration = f.PromptEvalDuration
	}
	if f.EvalDuration != 0 {
		a.turn.Metadata.EvalDuration = f.EvalDuration
	}
	if f.PromptEvalCount != 0 {
		a.turn.Metadata.PromptEvalCount = f.PromptEvalCount
	}
	if f.EvalCount != 0 {
		a.turn.Metadata.EvalCount = f.EvalCount
	}

	var d Delta
	if m := f.Message; m != nil {
		if a.state == StateEmpty {
			a.state = StateStreaming
		}
		if m.Role != "" {
			a.turn.Message.Role = m.Role
		}
		a.turn.Message.Content += m.Content
		a.turn.Message.Thinking += m.Thinking
		// Appended in order, no deduplication by id: re-delivery is the
		// orchestrator's problem.
		a.turn.Message.ToolCalls = append(a.turn.Message.ToolCalls, m.ToolCalls...)
		d = a.surface(m)
	}

	if f.Done {
		a.state = StateDone
		a.turn.Done = true
		a.turn.DoneReason = f.DoneReason
	}
	return d, nil
}

func (a *Assembler) surface(m *wire.Message) Delta {
	d := Delta{Thinking: m.Thinking}
	if m.Content != "" && (m.Thinking == "" || a.opts.SurfaceContentWithThinking) {
		d.Content = m.Content
	}
	return d
}
