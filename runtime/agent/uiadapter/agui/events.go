// Package agui translates the normalized agentstream.Event sequence into
// the AG-UI protocol: a stateful stream of typed lifecycle events (run
// start/finish, text message start/content/end, thinking start/content/end,
// tool call start/args/end/result) suitable for SSE or NDJSON delivery to
// an AG-UI-compatible client.
package agui

import "encoding/json"

// EventType identifies an AG-UI wire event.
type EventType string

const (
	EventRunStarted                 EventType = "RUN_STARTED"
	EventRunFinished                EventType = "RUN_FINISHED"
	EventRunError                   EventType = "RUN_ERROR"
	EventTextMessageStart           EventType = "TEXT_MESSAGE_START"
	EventTextMessageContent         EventType = "TEXT_MESSAGE_CONTENT"
	EventTextMessageEnd             EventType = "TEXT_MESSAGE_END"
	EventThinkingStart              EventType = "THINKING_START"
	EventThinkingEnd                EventType = "THINKING_END"
	EventThinkingTextMessageStart   EventType = "THINKING_TEXT_MESSAGE_START"
	EventThinkingTextMessageContent EventType = "THINKING_TEXT_MESSAGE_CONTENT"
	EventThinkingTextMessageEnd     EventType = "THINKING_TEXT_MESSAGE_END"
	EventToolCallStart              EventType = "TOOL_CALL_START"
	EventToolCallArgs               EventType = "TOOL_CALL_ARGS"
	EventToolCallEnd                EventType = "TOOL_CALL_END"
	EventToolCallResult             EventType = "TOOL_CALL_RESULT"
)

// Event is any AG-UI wire event. Concrete types carry their own JSON tags;
// MarshalJSON produces the envelope a client expects, type included.
type Event interface {
	Type() EventType
}

type envelope struct {
	Type EventType `json:"type"`
}

// RunStartedEvent opens a run.
type RunStartedEvent struct {
	ThreadID string `json:"threadId"`
	RunID    string `json:"runId"`
}

func (RunStartedEvent) Type() EventType { return EventRunStarted }

func (e RunStartedEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		envelope
		ThreadID string `json:"threadId"`
		RunID    string `json:"runId"`
	}{envelope{EventRunStarted}, e.ThreadID, e.RunID})
}

// RunFinishedEvent closes a run that completed without error.
type RunFinishedEvent struct {
	ThreadID string `json:"threadId"`
	RunID    string `json:"runId"`
}

func (RunFinishedEvent) Type() EventType { return EventRunFinished }

func (e RunFinishedEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		envelope
		ThreadID string `json:"threadId"`
		RunID    string `json:"runId"`
	}{envelope{EventRunFinished}, e.ThreadID, e.RunID})
}

// RunErrorEvent reports a terminal run error. No RunFinishedEvent follows.
type RunErrorEvent struct {
	Message string `json:"message"`
}

func (RunErrorEvent) Type() EventType { return EventRunError }

func (e RunErrorEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		envelope
		Message string `json:"message"`
	}{envelope{EventRunError}, e.Message})
}

// TextMessageStartEvent opens a new assistant text message.
type TextMessageStartEvent struct {
	MessageID string `json:"messageId"`
	Role      string `json:"role"`
}

func (TextMessageStartEvent) Type() EventType { return EventTextMessageStart }

func (e TextMessageStartEvent) MarshalJSON() ([]byte, error) {
	role := e.Role
	if role == "" {
		role = "assistant"
	}
	return json.Marshal(struct {
		envelope
		MessageID string `json:"messageId"`
		Role      string `json:"role"`
	}{envelope{EventTextMessageStart}, e.MessageID, role})
}

// TextMessageContentEvent streams a fragment of the open text message.
type TextMessageContentEvent struct {
	MessageID string `json:"messageId"`
	Delta     string `json:"delta"`
}

func (TextMessageContentEvent) Type() EventType { return EventTextMessageContent }

func (e TextMessageContentEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		envelope
		MessageID string `json:"messageId"`
		Delta     string `json:"delta"`
	}{envelope{EventTextMessageContent}, e.MessageID, e.Delta})
}

// TextMessageEndEvent closes the open text message.
type TextMessageEndEvent struct {
	MessageID string `json:"messageId"`
}

func (TextMessageEndEvent) Type() EventType { return EventTextMessageEnd }

func (e TextMessageEndEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		envelope
		MessageID string `json:"messageId"`
	}{envelope{EventTextMessageEnd}, e.MessageID})
}

// ThinkingStartEvent opens a reasoning block.
type ThinkingStartEvent struct{}

func (ThinkingStartEvent) Type() EventType { return EventThinkingStart }

func (e ThinkingStartEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(envelope{EventThinkingStart})
}

// ThinkingEndEvent closes a reasoning block.
type ThinkingEndEvent struct{}

func (ThinkingEndEvent) Type() EventType { return EventThinkingEnd }

func (e ThinkingEndEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(envelope{EventThinkingEnd})
}

// ThinkingTextMessageStartEvent opens the text sub-stream of a reasoning
// block.
type ThinkingTextMessageStartEvent struct{}

func (ThinkingTextMessageStartEvent) Type() EventType { return EventThinkingTextMessageStart }

func (e ThinkingTextMessageStartEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(envelope{EventThinkingTextMessageStart})
}

// ThinkingTextMessageContentEvent streams a fragment of reasoning text.
type ThinkingTextMessageContentEvent struct {
	Delta string `json:"delta"`
}

func (ThinkingTextMessageContentEvent) Type() EventType { return EventThinkingTextMessageContent }

func (e ThinkingTextMessageContentEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		envelope
		Delta string `json:"delta"`
	}{envelope{EventThinkingTextMessageContent}, e.Delta})
}

// ThinkingTextMessageEndEvent closes the text sub-stream of a reasoning
// block.
type ThinkingTextMessageEndEvent struct{}

func (ThinkingTextMessageEndEvent) Type() EventType { return EventThinkingTextMessageEnd }

func (e ThinkingTextMessageEndEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(envelope{EventThinkingTextMessageEnd})
}

// ToolCallStartEvent announces a new tool call.
type ToolCallStartEvent struct {
	ToolCallID      string `json:"toolCallId"`
	ToolName        string `json:"toolCallName"`
	ParentMessageID string `json:"parentMessageId,omitempty"`
}

func (ToolCallStartEvent) Type() EventType { return EventToolCallStart }

func (e ToolCallStartEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		envelope
		ToolCallID      string `json:"toolCallId"`
		ToolName        string `json:"toolCallName"`
		ParentMessageID string `json:"parentMessageId,omitempty"`
	}{envelope{EventToolCallStart}, e.ToolCallID, e.ToolName, e.ParentMessageID})
}

// ToolCallArgsEvent streams a fragment of a tool call's JSON arguments.
type ToolCallArgsEvent struct {
	ToolCallID string `json:"toolCallId"`
	Delta      string `json:"delta"`
}

func (ToolCallArgsEvent) Type() EventType { return EventToolCallArgs }

func (e ToolCallArgsEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		envelope
		ToolCallID string `json:"toolCallId"`
		Delta      string `json:"delta"`
	}{envelope{EventToolCallArgs}, e.ToolCallID, e.Delta})
}

// ToolCallEndEvent closes the arguments stream for a tool call; it has not
// necessarily executed yet.
type ToolCallEndEvent struct {
	ToolCallID string `json:"toolCallId"`
}

func (ToolCallEndEvent) Type() EventType { return EventToolCallEnd }

func (e ToolCallEndEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		envelope
		ToolCallID string `json:"toolCallId"`
	}{envelope{EventToolCallEnd}, e.ToolCallID})
}

// ToolCallResultEvent reports a tool call's outcome.
type ToolCallResultEvent struct {
	ToolCallID string `json:"toolCallId"`
	Content    any    `json:"content,omitempty"`
	IsError    bool   `json:"isError,omitempty"`
}

func (ToolCallResultEvent) Type() EventType { return EventToolCallResult }

func (e ToolCallResultEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		envelope
		ToolCallID string `json:"toolCallId"`
		Content    any    `json:"content,omitempty"`
		IsError    bool   `json:"isError,omitempty"`
	}{envelope{EventToolCallResult}, e.ToolCallID, e.Content, e.IsError})
}
