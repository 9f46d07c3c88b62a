package chat

import (
	"encoding/hex"
	"encoding/json"

	"github.com/zeebo/blake3"

	"github.com/opencoder/chatcore/internal/wire"
)

// fingerprint hashes one round's tool calls so identical rounds can be
// recognized. Argument maps serialize with sorted keys, so the digest is
// stable across deliveries.
func fingerprint(calls []wire.ToolCall) string {
	if len(calls) == 0 {
		return ""
	}
	h := blake3.New()
	for _, c := range calls {
		h.Write([]byte(c.Function.Name))
		h.Write([]byte{0})
		if b, err := json.Marshal(c.Function.Arguments); err == nil {
			h.Write(b)
		}
		h.Write([]byte{0})
	}
	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:16])
}
