package tool

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/opencoder/chatcore/internal/schema"
	"github.com/opencoder/chatcore/internal/wire"
)

// Result is the outcome of one invocation. Output is truncated per the
// tool's limit; FullOutput is kept for callers that want the whole thing.
type Result struct {
	ToolName   string
	CallID     string
	Output     string
	FullOutput string
	IsError    bool
}

type registered struct {
	tool     Tool
	compiled *jsonschema.Schema
	def      wire.ToolDefinition
}

// Registry holds the tools declared to the model for a session. Entries are
// read-only during a turn; registration failures are fatal and happen before
// any turn starts.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]registered
	order []string
	log   zerolog.Logger
}

func NewRegistry() *Registry {
	return &Registry{tools: map[string]registered{}, log: zerolog.Nop()}
}

func (r *Registry) SetLogger(log zerolog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log = log
}

// Register validates the tool and compiles its schema. A non-object
// top-level schema, an unknown type anywhere in the tree or an invalid name
// is rejected here, never mid-turn. Re-registering a name replaces it.
func (r *Registry) Register(t Tool) error {
	if err := ValidateName(t.Name); err != nil {
		return err
	}
	if t.Exec == nil {
		return fmt.Errorf("tool %s missing executor", t.Name)
	}
	if t.Schema == nil {
		t.Schema = schema.NewObject("", "")
	}
	if _, ok := t.Schema.(*schema.Object); !ok {
		return fmt.Errorf("tool %s: top-level schema must be an object", t.Name)
	}
	raw, err := schema.ToWire(t.Schema)
	if err != nil {
		return fmt.Errorf("tool %s schema: %w", t.Name, err)
	}
	compiled, err := schema.Compile(t.Schema)
	if err != nil {
		return fmt.Errorf("tool %s schema: %w", t.Name, err)
	}
	if t.Limit.MaxChars == 0 {
		t.Limit = DefaultOutputLimit
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Name]; !exists {
		r.order = append(r.order, t.Name)
	}
	r.tools[t.Name] = registered{
		tool:     t,
		compiled: compiled,
		def: wire.ToolDefinition{
			Type: "function",
			Function: wire.FunctionSpec{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  raw,
			},
		},
	}
	return nil
}

// Resolve looks a tool up by name.
func (r *Registry) Resolve(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.tools[name]
	return reg.tool, ok
}

// Definitions returns the declared-tools list in registration order.
func (r *Registry) Definitions() []wire.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]wire.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name].def)
	}
	return out
}

// Execute runs one call: validate the arguments against the compiled
// schema, invoke the tool, truncate the output. Every failure mode comes
// back as an IsError result so the model can see it and adapt.
func (r *Registry) Execute(ctx context.Context, call wire.ToolCall) Result {
	name := call.Function.Name
	callID := call.ID
	if strings.TrimSpace(callID) == "" {
		callID = "call_" + ulid.Make().String()
	}

	r.mu.RLock()
	reg, ok := r.tools[name]
	log := r.log
	r.mu.RUnlock()
	if !ok {
		return truncate(name, callID, "UnknownTool: "+name, true, DefaultOutputLimit)
	}

	args := map[string]any(call.Function.Arguments)
	if args == nil {
		args = map[string]any{}
	}
	if err := reg.compiled.Validate(args); err != nil {
		log.Debug().Str("tool", name).Str("call_id", callID).Err(err).Msg("tool arguments rejected")
		return truncate(name, callID, fmt.Sprintf("invalid arguments for %s: %v", name, err), true, reg.tool.Limit)
	}

	out, err := reg.tool.Exec(ctx, args)
	if err != nil {
		full := out
		if strings.TrimSpace(full) == "" {
			full = err.Error()
		}
		log.Debug().Str("tool", name).Str("call_id", callID).Err(err).Msg("tool failed")
		return truncate(name, callID, full, true, reg.tool.Limit)
	}
	return truncate(name, callID, out, false, reg.tool.Limit)
}
