package chat

import (
	"context"

	"github.com/opencoder/chatcore/internal/wire"
)

// Transport delivers one outbound request and yields the response as a
// stream of NDJSON lines. Connection handling, timeouts and retries are the
// transport's responsibility, not this layer's.
type Transport interface {
	Send(ctx context.Context, req wire.ChatRequest) (Stream, error)
}

// Stream yields one NDJSON line per Recv. io.EOF ends the stream; Close
// releases the underlying connection and must be safe to call after EOF.
type Stream interface {
	Recv() ([]byte, error)
	Close() error
}
