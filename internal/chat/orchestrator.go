// Package chat drives the request/response loop of one chat session: it
// sends the conversation to the model, assembles the streamed reply,
// executes requested tools behind a permission gate and repeats until the
// model produces a turn with no pending tool calls.
package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/opencoder/chatcore/internal/permission"
	"github.com/opencoder/chatcore/internal/stream"
	"github.com/opencoder/chatcore/internal/tool"
	"github.com/opencoder/chatcore/internal/wire"
)

const steeringNotice = "You are repeating the same tool calls. Stop and change approach."

// DeltaFunc receives incremental display text as fragments arrive.
type DeltaFunc func(stream.Delta)

type Options struct {
	Model string

	// MaxIterations bounds the send/stream/execute rounds of one Send.
	MaxIterations int

	// SurfaceContentWithThinking is passed through to the assembler; see
	// stream.Options.
	SurfaceContentWithThinking bool

	// EnableLoopDetection warns the model once when it repeats the same
	// tool-call round LoopDetectionWindow times.
	EnableLoopDetection *bool
	LoopDetectionWindow int

	// RequestOptions is merged into every outbound request body.
	RequestOptions map[string]any

	// Logger defaults to a no-op logger.
	Logger *zerolog.Logger
}

func (o *Options) applyDefaults() {
	if o.MaxIterations <= 0 {
		o.MaxIterations = 100
	}
	if o.EnableLoopDetection == nil {
		v := true
		o.EnableLoopDetection = &v
	}
	if o.LoopDetectionWindow <= 0 {
		o.LoopDetectionWindow = 10
	}
	if o.Logger == nil {
		l := zerolog.Nop()
		o.Logger = &l
	}
}

// Orchestrator runs one chat session. Only one turn may be in flight at a
// time; a second Send returns ErrBusy.
type Orchestrator struct {
	id        string
	opts      Options
	log       zerolog.Logger
	transport Transport
	reg       *tool.Registry
	gate      permission.Gate

	mu     sync.Mutex
	busy   bool
	always map[string]bool
}

func New(transport Transport, reg *tool.Registry, gate permission.Gate, opts Options) (*Orchestrator, error) {
	if transport == nil {
		return nil, fmt.Errorf("transport is nil")
	}
	if reg == nil {
		return nil, fmt.Errorf("tool registry is nil")
	}
	if gate == nil {
		gate = permission.Dummy{}
	}
	opts.applyDefaults()
	o := &Orchestrator{
		id:        ulid.Make().String(),
		opts:      opts,
		transport: transport,
		reg:       reg,
		gate:      gate,
		always:    map[string]bool{},
	}
	o.log = opts.Logger.With().Str("session", o.id).Logger()
	return o, nil
}

func (o *Orchestrator) ID() string { return o.id }

// Send runs one complete user turn: the user message plus however many
// model rounds it takes to reach a reply with no tool calls. History is
// appended to only when the turn completes; a cancelled or failed turn
// leaves it untouched. onDelta may be nil.
func (o *Orchestrator) Send(ctx context.Context, history *wire.History, user wire.Message, onDelta DeltaFunc) (stream.Turn, error) {
	if history == nil {
		return stream.Turn{}, fmt.Errorf("history is nil")
	}
	o.mu.Lock()
	if o.busy {
		o.mu.Unlock()
		return stream.Turn{}, ErrBusy
	}
	o.busy = true
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		o.busy = false
		o.mu.Unlock()
	}()

	pending := []wire.Message{user}
	var lastFP string
	repeats := 0
	loopWarned := false

	for round := 0; round < o.opts.MaxIterations; round++ {
		if err := ctx.Err(); err != nil {
			return stream.Turn{}, err
		}

		req := wire.ChatRequest{
			Model:    o.opts.Model,
			Messages: append(history.Messages(), pending...),
			Tools:    o.reg.Definitions(),
			Stream:   true,
			Options:  o.opts.RequestOptions,
		}
		turn, err := o.streamRound(ctx, req, onDelta)
		if err != nil {
			return stream.Turn{}, err
		}
		o.log.Debug().Int("round", round).
			Int("tool_calls", len(turn.Message.ToolCalls)).
			Str("done_reason", turn.DoneReason).
			Msg("round complete")

		calls := turn.Message.ToolCalls
		if len(calls) == 0 {
			pending = append(pending, turn.Message)
			history.Append(pending...)
			return turn, nil
		}

		if *o.opts.EnableLoopDetection && !loopWarned {
			if fp := fingerprint(calls); fp != "" && fp == lastFP {
				repeats++
			} else {
				lastFP = fp
				repeats = 1
			}
		}

		results, err := o.runToolCalls(ctx, calls)
		if err != nil {
			return stream.Turn{}, err
		}

		pending = append(pending, turn.Message)
		pending = append(pending, results...)

		if *o.opts.EnableLoopDetection && !loopWarned && repeats >= o.opts.LoopDetectionWindow {
			loopWarned = true
			o.log.Warn().Str("fingerprint", lastFP).Int("repeats", repeats).Msg("tool-call loop detected")
			pending = append(pending, wire.User(steeringNotice))
		}
	}
	return stream.Turn{}, &MaxIterationsError{Limit: o.opts.MaxIterations}
}

func (o *Orchestrator) streamRound(ctx context.Context, req wire.ChatRequest, onDelta DeltaFunc) (stream.Turn, error) {
	st, err := o.transport.Send(ctx, req)
	if err != nil {
		return stream.Turn{}, &TransportError{Op: "send", Err: err}
	}
	defer st.Close()

	asm := stream.New(stream.Options{SurfaceContentWithThinking: o.opts.SurfaceContentWithThinking})
	for {
		line, err := st.Recv()
		if err != nil {
			if ctx.Err() != nil {
				return stream.Turn{}, ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				return stream.Turn{}, &TransportError{Op: "recv", Err: ErrStreamTruncated}
			}
			return stream.Turn{}, &TransportError{Op: "recv", Err: err}
		}

		frag, perr := wire.ParseFragment(line)
		if perr != nil {
			// Recovered: skip the line, keep streaming.
			o.log.Warn().Err(perr).Msg("skipping malformed fragment")
			continue
		}
		d, ferr := asm.Feed(frag)
		if ferr != nil {
			// ErrAlreadyDone; recovered.
			o.log.Debug().Err(ferr).Msg("ignoring fragment")
			continue
		}
		if onDelta != nil && !d.Empty() {
			onDelta(d)
		}
		if asm.State() == stream.StateDone {
			return asm.Turn(), nil
		}
	}
}

// runToolCalls fans the round's calls out concurrently and returns the
// synthesized tool-result messages in the original request order. Duplicate
// call ids within the round execute at most once.
func (o *Orchestrator) runToolCalls(ctx context.Context, calls []wire.ToolCall) ([]wire.Message, error) {
	skip := make([]bool, len(calls))
	seen := map[string]bool{}
	for i, c := range calls {
		if c.ID == "" {
			continue
		}
		if seen[c.ID] {
			skip[i] = true
			continue
		}
		seen[c.ID] = true
	}

	results := make([]wire.Message, len(calls))
	var wg sync.WaitGroup
	for i := range calls {
		if skip[i] {
			continue
		}
		wg.Add(1)
		go func(i int, call wire.ToolCall) {
			defer wg.Done()
			results[i] = o.runOne(ctx, call)
		}(i, calls[i])
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]wire.Message, 0, len(calls))
	for i := range results {
		if !skip[i] {
			out = append(out, results[i])
		}
	}
	return out, nil
}

func (o *Orchestrator) runOne(ctx context.Context, call wire.ToolCall) wire.Message {
	name := call.Function.Name
	t, ok := o.reg.Resolve(name)
	if !ok {
		// Unknown tools never reach the gate.
		o.log.Debug().Str("tool", name).Msg("unknown tool requested")
		return wire.ToolResult(call.ID, name, "UnknownTool: "+name)
	}

	if t.RequiresPermission && !o.approvedAlways(name) {
		dec, err := o.gate.Request(ctx, permission.Request{
			Tool:      name,
			Arguments: call.Function.Arguments,
			CallID:    call.ID,
		})
		if err != nil {
			// Context errors abort the whole turn upstream; anything else
			// is treated as a denial the model gets to see.
			dec = permission.Deny
		}
		switch dec {
		case permission.ApproveAlways:
			o.setApprovedAlways(name)
		case permission.Deny:
			o.log.Info().Str("tool", name).Str("call_id", call.ID).Msg("permission denied")
			return wire.ToolResult(call.ID, name, "PermissionDenied: permission to run "+name+" was denied")
		}
	}

	res := o.reg.Execute(ctx, call)
	o.log.Debug().Str("tool", name).Str("call_id", res.CallID).Bool("is_error", res.IsError).Msg("tool executed")
	return wire.ToolResult(res.CallID, name, res.Output)
}

func (o *Orchestrator) approvedAlways(name string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.always[name]
}

func (o *Orchestrator) setApprovedAlways(name string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.always[name] = true
}
