// Package agentstream normalizes run execution into a UI-agnostic sequence
// of client-facing events. It sits between the run state machine (which
// knows nothing about transports) and the uiadapter packages (which
// translate this normalized sequence into a specific wire protocol).
//
// Events differ from the run package's StepObserver callbacks: StepObserver
// exposes internal state-machine transitions, while agentstream events are
// the filtered, wire-friendly subset suitable for streaming to an end user
// or a debugging client.
package agentstream

import "encoding/json"

// EventType identifies the kind of a streamed event.
type EventType string

const (
	EventPlannerThought   EventType = "planner_thought"
	EventAssistantReply   EventType = "assistant_reply"
	EventToolStart        EventType = "tool_start"
	EventToolCallArgsDelta EventType = "tool_call_args_delta"
	EventToolOutputDelta  EventType = "tool_output_delta"
	EventToolEnd          EventType = "tool_end"
	EventUsage            EventType = "usage"
	EventWorkflow         EventType = "workflow"
	EventRunStreamEnd     EventType = "run_stream_end"
)

type (
	// Event describes a single streaming update delivered to a Sink. All
	// concrete event types embed Base. Sinks marshal events generically via
	// Payload(); consumers that need typed field access type-assert to the
	// concrete type.
	Event interface {
		Type() EventType
		RunID() string
		SessionID() string
		Payload() any
	}

	// Base carries the envelope fields shared by every event.
	Base struct {
		t EventType
		r string
		s string
		p any
	}
)

// NewBase constructs a Base with the given type, run ID, session ID, and
// JSON-serializable payload.
func NewBase(t EventType, runID, sessionID string, payload any) Base {
	return Base{t: t, r: runID, s: sessionID, p: payload}
}

// Type implements Event.
func (b Base) Type() EventType { return b.t }

// RunID implements Event.
func (b Base) RunID() string { return b.r }

// SessionID implements Event.
func (b Base) SessionID() string { return b.s }

// Payload implements Event.
func (b Base) Payload() any { return b.p }

type (
	// PlannerThought streams model reasoning (thinking-part content) as it
	// becomes available.
	PlannerThought struct {
		Base
		Data PlannerThoughtPayload
	}

	// PlannerThoughtPayload is the wire payload for PlannerThought.
	PlannerThoughtPayload struct {
		Text         string `json:"text,omitempty"`
		Signature    string `json:"signature,omitempty"`
		ContentIndex int    `json:"content_index,omitempty"`
		Final        bool   `json:"final,omitempty"`
	}

	// AssistantReply streams incremental or complete assistant text.
	// Clients concatenate Data.Text across sequential events to reconstruct
	// the full message.
	AssistantReply struct {
		Base
		Data AssistantReplyPayload
	}

	// AssistantReplyPayload is the wire payload for AssistantReply.
	AssistantReplyPayload struct {
		Text  string `json:"text"`
		Final bool   `json:"final,omitempty"`
	}

	// ToolStart streams when a tool call has been requested and is about to
	// execute (or begin executing).
	ToolStart struct {
		Base
		Data ToolStartPayload
	}

	// ToolStartPayload is the wire payload for ToolStart.
	ToolStartPayload struct {
		ToolCallID string          `json:"tool_call_id"`
		ToolName   string          `json:"tool_name"`
		Args       json.RawMessage `json:"args,omitempty"`
	}

	// ToolCallArgsDelta streams an incremental tool-call argument fragment
	// as a provider constructs the final call arguments. Best-effort UX
	// signal only; the canonical arguments are on ToolStartPayload.Args.
	ToolCallArgsDelta struct {
		Base
		Data ToolCallArgsDeltaPayload
	}

	// ToolCallArgsDeltaPayload is the wire payload for ToolCallArgsDelta.
	ToolCallArgsDeltaPayload struct {
		ToolCallID string `json:"tool_call_id"`
		Delta      string `json:"delta"`
	}

	// ToolOutputDelta streams an incremental tool output fragment while a
	// tool is still running. Best-effort; the canonical output is on
	// ToolEndPayload.
	ToolOutputDelta struct {
		Base
		Data ToolOutputDeltaPayload
	}

	// ToolOutputDeltaPayload is the wire payload for ToolOutputDelta.
	ToolOutputDeltaPayload struct {
		ToolCallID string `json:"tool_call_id"`
		Delta      string `json:"delta"`
	}

	// ToolEnd streams when a tool call has completed, successfully or not.
	ToolEnd struct {
		Base
		Data ToolEndPayload
	}

	// ToolEndPayload is the wire payload for ToolEnd.
	ToolEndPayload struct {
		ToolCallID string          `json:"tool_call_id"`
		ToolName   string          `json:"tool_name"`
		Result     json.RawMessage `json:"result,omitempty"`
		IsError    bool            `json:"is_error,omitempty"`
	}

	// Usage streams token usage after a model invocation completes.
	Usage struct {
		Base
		Data UsagePayload
	}

	// UsagePayload is the wire payload for Usage.
	UsagePayload struct {
		InputTokens      int `json:"input_tokens"`
		OutputTokens     int `json:"output_tokens"`
		CacheReadTokens  int `json:"cache_read_tokens,omitempty"`
		CacheWriteTokens int `json:"cache_write_tokens,omitempty"`
	}

	// Workflow signals a run lifecycle phase transition.
	Workflow struct {
		Base
		Data WorkflowPayload
	}

	// WorkflowPayload is the wire payload for Workflow.
	WorkflowPayload struct {
		Phase  string `json:"phase"`
		Status string `json:"status,omitempty"`
		Error  string `json:"error,omitempty"`
	}

	// RunStreamEnd is an explicit terminal marker. Consumers use it to stop
	// reading a run's event stream without relying on transport-level EOF.
	RunStreamEnd struct {
		Base
		Data RunStreamEndPayload
	}

	// RunStreamEndPayload is intentionally empty: RunID/SessionID are
	// carried on the envelope.
	RunStreamEndPayload struct{}
)
