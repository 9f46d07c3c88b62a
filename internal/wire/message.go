package wire

import (
	"bytes"
	"encoding/json"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one conversational message in the NDJSON chat format. Content
// and Thinking accumulate incrementally while a response streams; ToolName
// and ToolCallID are set only on tool-result messages to correlate them with
// the assistant call that requested them.
type Message struct {
	Role      Role       `json:"role"`
	Content   string     `json:"content"`
	Thinking  string     `json:"thinking,omitempty"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	ToolName   string `json:"tool_name,omitempty"`
	ToolCallID string `json:"tool_call_id,omitempty"`
}

func System(text string) Message    { return Message{Role: RoleSystem, Content: text} }
func User(text string) Message      { return Message{Role: RoleUser, Content: text} }
func Assistant(text string) Message { return Message{Role: RoleAssistant, Content: text} }

// ToolResult builds the tool-role message carrying one invocation's outcome.
func ToolResult(callID, toolName, text string) Message {
	return Message{Role: RoleTool, Content: text, ToolName: toolName, ToolCallID: callID}
}

// ToolCall is the wire form of one model-issued invocation. ID is an opaque
// correlation token; it is not guaranteed unique by this layer.
type ToolCall struct {
	ID       string       `json:"id,omitempty"`
	Function CallFunction `json:"function"`
}

type CallFunction struct {
	Name      string    `json:"name"`
	Arguments Arguments `json:"arguments"`
}

// UnmarshalJSON defaults an absent arguments node to an empty object, so
// Arguments is non-nil after any successful decode.
func (f *CallFunction) UnmarshalJSON(data []byte) error {
	type plain CallFunction
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if p.Arguments == nil {
		p.Arguments = Arguments{}
	}
	*f = CallFunction(p)
	return nil
}

// Arguments is the argument object of a tool call. Decoding is maximally
// tolerant: a missing, null, non-object or unparseable arguments node decodes
// to an empty object so the call can still be attempted and the tool's own
// validation can report a usable error back to the model.
type Arguments map[string]any

func (a *Arguments) UnmarshalJSON(data []byte) error {
	*a = Arguments{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err == nil {
		if m != nil {
			*a = m
		}
		return nil
	}
	// Some backends double-encode the object as a JSON string.
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if err := json.Unmarshal([]byte(s), &m); err == nil && m != nil {
			*a = m
		}
	}
	return nil
}

func (a Arguments) MarshalJSON() ([]byte, error) {
	if a == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]any(a))
}
