// Package streaming implements the parts manager that turns a sequence of
// provider-issued streaming deltas into a stable, indexed sequence of
// message parts plus the incremental events a consumer needs to render
// them progressively.
package streaming

import "github.com/agentkit/runtime/runtime/agent/message"

type (
	// Event is the marker interface for the three events a PartsManager can
	// emit while processing a stream: a new part starting, an existing part
	// receiving a delta, or a part closing out.
	Event interface {
		isStreamEvent()
	}

	// PartStartEvent announces that a new part has been created at Index.
	// For tool calls, Part.Args carries every argument fragment accumulated
	// so far, not just the fragment that triggered this event (see
	// PartsManager.HandleToolCallDelta).
	PartStartEvent struct {
		Index int
		Part  message.ResponsePart
	}

	// PartDeltaEvent reports an incremental update to the part at Index.
	// Exactly one of TextDelta, ThinkingDelta, ToolCallArgsDelta, or
	// BuiltinToolCallArgsDelta is set, matching the part's kind.
	PartDeltaEvent struct {
		Index                    int
		TextDelta                string
		ThinkingDelta            string
		ToolCallArgsDelta        string
		BuiltinToolCallArgsDelta string
	}

	// PartEndEvent announces that the part at Index is now final. Emitted
	// once synthetically for every open part when the stream finishes
	// (testable property P2).
	PartEndEvent struct {
		Index int
	}
)

func (PartStartEvent) isStreamEvent() {}
func (PartDeltaEvent) isStreamEvent() {}
func (PartEndEvent) isStreamEvent()   {}
