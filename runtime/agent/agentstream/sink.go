package agentstream

import (
	"context"
	"sync"
)

// Sink delivers events to a transport (SSE, NDJSON, WebSocket, a message
// bus). Implementations must be safe for concurrent Send calls: a run may
// emit tool-start events for several parallel tool calls at once.
type Sink interface {
	// Send publishes event. It returns an error if delivery fails; the
	// caller stops emitting further events on the first Send error.
	Send(ctx context.Context, event Event) error

	// Close releases resources owned by the sink. Idempotent: calling it
	// more than once has no effect after the first call.
	Close(ctx context.Context) error
}

// ChannelSink publishes events onto a buffered Go channel, useful for
// in-process consumers (tests, or a server handler that itself owns the
// wire encoding).
type ChannelSink struct {
	events chan Event
	once   sync.Once
}

// NewChannelSink creates a ChannelSink with the given channel buffer size.
func NewChannelSink(buffer int) *ChannelSink {
	return &ChannelSink{events: make(chan Event, buffer)}
}

// Events returns the channel events are published to. It is closed when
// Close is called.
func (c *ChannelSink) Events() <-chan Event { return c.events }

// Send implements Sink.
func (c *ChannelSink) Send(ctx context.Context, event Event) error {
	select {
	case c.events <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close implements Sink.
func (c *ChannelSink) Close(ctx context.Context) error {
	c.once.Do(func() { close(c.events) })
	return nil
}
