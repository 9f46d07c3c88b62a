package wire

// History is the caller-owned, append-only conversation log. The
// orchestrator appends completed turns to it; persistence is the caller's
// concern. History is not safe for concurrent mutation.
type History struct {
	msgs []Message
}

func (h *History) Append(msgs ...Message) {
	h.msgs = append(h.msgs, msgs...)
}

// Messages returns a copy of the log.
func (h *History) Messages() []Message {
	if h == nil {
		return nil
	}
	out := make([]Message, len(h.msgs))
	copy(out, h.msgs)
	return out
}

func (h *History) Len() int {
	if h == nil {
		return 0
	}
	return len(h.msgs)
}
