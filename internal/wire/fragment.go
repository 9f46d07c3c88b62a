package wire

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrMalformed marks one NDJSON line that failed to parse. Callers skip the
// line and keep streaming; it never aborts a turn.
var ErrMalformed = errors.New("malformed fragment")

// Fragment is one partial response object delivered over the streaming
// transport. All fields except Message and Done are scalar metadata with
// last-write-wins semantics across a turn. Durations are int64 nanoseconds.
type Fragment struct {
	Model      string    `json:"model,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	Message    *Message  `json:"message,omitempty"`
	Done       bool      `json:"done"`
	DoneReason string    `json:"done_reason,omitempty"`

	TotalDuration      int64 `json:"total_duration,omitempty"`
	LoadDuration       int64 `json:"load_duration,omitempty"`
	PromptEvalDuration int64 `json:"prompt_eval_duration,omitempty"`
	EvalDuration       int64 `json:"eval_duration,omitempty"`
	PromptEvalCount    int   `json:"prompt_eval_count,omitempty"`
	EvalCount          int   `json:"eval_count,omitempty"`
}

// UnmarshalJSON decodes created_at best-effort: an RFC3339 string, a unix
// epoch number, or anything else as the zero time. A bad timestamp never
// costs the fragment's content.
func (f *Fragment) UnmarshalJSON(data []byte) error {
	type plain Fragment
	aux := struct {
		CreatedAt json.RawMessage `json:"created_at"`
		*plain
	}{plain: (*plain)(f)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	f.CreatedAt = looseTime(aux.CreatedAt)
	return nil
}

func looseTime(raw json.RawMessage) time.Time {
	if len(raw) == 0 {
		return time.Time{}
	}
	var t time.Time
	if json.Unmarshal(raw, &t) == nil {
		return t
	}
	var sec float64
	if json.Unmarshal(raw, &sec) == nil && sec > 0 {
		return time.Unix(int64(sec), 0).UTC()
	}
	return time.Time{}
}

// ParseFragment decodes one NDJSON line. Parse failures are reported as
// ErrMalformed so callers can distinguish a bad line from a broken stream.
func ParseFragment(line []byte) (Fragment, error) {
	if len(bytes.TrimSpace(line)) == 0 {
		return Fragment{}, fmt.Errorf("%w: empty line", ErrMalformed)
	}
	var f Fragment
	if err := json.Unmarshal(line, &f); err != nil {
		return Fragment{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return f, nil
}
