// Package vercel translates the normalized agentstream.Event sequence into
// the Vercel AI SDK Data Stream Protocol: a sequence of typed chunks
// (start/start-step, text-start/delta/end, reasoning-start/delta/end,
// tool-input-*/tool-output-*, finish-step/finish, done) delivered as
// "data: <json>\n\n" lines, matching the protocol's v1 UI message stream.
package vercel

import "encoding/json"

// ChunkType identifies a Vercel AI Data Stream Protocol chunk.
type ChunkType string

const (
	ChunkStart              ChunkType = "start"
	ChunkStartStep          ChunkType = "start-step"
	ChunkFinishStep         ChunkType = "finish-step"
	ChunkFinish             ChunkType = "finish"
	ChunkDone               ChunkType = "done"
	ChunkTextStart          ChunkType = "text-start"
	ChunkTextDelta          ChunkType = "text-delta"
	ChunkTextEnd            ChunkType = "text-end"
	ChunkReasoningStart     ChunkType = "reasoning-start"
	ChunkReasoningDelta     ChunkType = "reasoning-delta"
	ChunkReasoningEnd       ChunkType = "reasoning-end"
	ChunkToolInputStart     ChunkType = "tool-input-start"
	ChunkToolInputDelta     ChunkType = "tool-input-delta"
	ChunkToolInputAvailable ChunkType = "tool-input-available"
	ChunkToolOutputAvail    ChunkType = "tool-output-available"
	ChunkToolOutputError    ChunkType = "tool-output-error"
	ChunkError              ChunkType = "error"
)

// FinishReason is the Vercel-protocol finish reason carried on finish-step
// and finish chunks.
type FinishReason string

const (
	FinishStop      FinishReason = "stop"
	FinishToolCalls FinishReason = "tool-calls"
	FinishError     FinishReason = "error"
)

// Usage is the token-usage summary carried on finish chunks.
type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

// Chunk is any Vercel AI Data Stream Protocol chunk.
type Chunk interface {
	ChunkType() ChunkType
}

type chunkEnvelope struct {
	Type ChunkType `json:"type"`
}

// StartChunk opens a new assistant message.
type StartChunk struct {
	MessageID string `json:"messageId"`
}

func (StartChunk) ChunkType() ChunkType { return ChunkStart }

func (c StartChunk) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		chunkEnvelope
		MessageID string `json:"messageId"`
	}{chunkEnvelope{ChunkStart}, c.MessageID})
}

// StartStepChunk opens a generation step within a message.
type StartStepChunk struct {
	MessageID string `json:"messageId"`
	Step      int    `json:"step"`
}

func (StartStepChunk) ChunkType() ChunkType { return ChunkStartStep }

func (c StartStepChunk) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		chunkEnvelope
		MessageID string `json:"messageId"`
		Step      int    `json:"step"`
	}{chunkEnvelope{ChunkStartStep}, c.MessageID, c.Step})
}

// FinishStepChunk closes the current step.
type FinishStepChunk struct {
	MessageID    string       `json:"messageId"`
	FinishReason FinishReason `json:"finishReason"`
	Usage        *Usage       `json:"usage,omitempty"`
	Continued    bool         `json:"continued,omitempty"`
}

func (FinishStepChunk) ChunkType() ChunkType { return ChunkFinishStep }

func (c FinishStepChunk) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		chunkEnvelope
		MessageID    string       `json:"messageId"`
		FinishReason FinishReason `json:"finishReason"`
		Usage        *Usage       `json:"usage,omitempty"`
		Continued    bool         `json:"continued,omitempty"`
	}{chunkEnvelope{ChunkFinishStep}, c.MessageID, c.FinishReason, c.Usage, c.Continued})
}

// FinishChunk closes the message.
type FinishChunk struct {
	MessageID    string       `json:"messageId"`
	FinishReason FinishReason `json:"finishReason"`
	Usage        *Usage       `json:"usage,omitempty"`
}

func (FinishChunk) ChunkType() ChunkType { return ChunkFinish }

func (c FinishChunk) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		chunkEnvelope
		MessageID    string       `json:"messageId"`
		FinishReason FinishReason `json:"finishReason"`
		Usage        *Usage       `json:"usage,omitempty"`
	}{chunkEnvelope{ChunkFinish}, c.MessageID, c.FinishReason, c.Usage})
}

// DoneChunk signals the end of the wire stream.
type DoneChunk struct{}

func (DoneChunk) ChunkType() ChunkType { return ChunkDone }

func (c DoneChunk) MarshalJSON() ([]byte, error) {
	return json.Marshal(chunkEnvelope{ChunkDone})
}

// TextStartChunk opens a text part.
type TextStartChunk struct{}

func (TextStartChunk) ChunkType() ChunkType { return ChunkTextStart }

func (c TextStartChunk) MarshalJSON() ([]byte, error) {
	return json.Marshal(chunkEnvelope{ChunkTextStart})
}

// TextDeltaChunk streams a text fragment.
type TextDeltaChunk struct {
	Delta string `json:"delta"`
}

func (TextDeltaChunk) ChunkType() ChunkType { return ChunkTextDelta }

func (c TextDeltaChunk) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		chunkEnvelope
		Delta string `json:"delta"`
	}{chunkEnvelope{ChunkTextDelta}, c.Delta})
}

// TextEndChunk closes a text part.
type TextEndChunk struct{}

func (TextEndChunk) ChunkType() ChunkType { return ChunkTextEnd }

func (c TextEndChunk) MarshalJSON() ([]byte, error) {
	return json.Marshal(chunkEnvelope{ChunkTextEnd})
}

// ReasoningStartChunk opens a reasoning part.
type ReasoningStartChunk struct{}

func (ReasoningStartChunk) ChunkType() ChunkType { return ChunkReasoningStart }

func (c ReasoningStartChunk) MarshalJSON() ([]byte, error) {
	return json.Marshal(chunkEnvelope{ChunkReasoningStart})
}

// ReasoningDeltaChunk streams a reasoning fragment.
type ReasoningDeltaChunk struct {
	Delta string `json:"delta"`
}

func (ReasoningDeltaChunk) ChunkType() ChunkType { return ChunkReasoningDelta }

func (c ReasoningDeltaChunk) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		chunkEnvelope
		Delta string `json:"delta"`
	}{chunkEnvelope{ChunkReasoningDelta}, c.Delta})
}

// ReasoningEndChunk closes a reasoning part.
type ReasoningEndChunk struct{}

func (ReasoningEndChunk) ChunkType() ChunkType { return ChunkReasoningEnd }

func (c ReasoningEndChunk) MarshalJSON() ([]byte, error) {
	return json.Marshal(chunkEnvelope{ChunkReasoningEnd})
}

// ToolInputStartChunk announces a tool call whose input is about to stream.
type ToolInputStartChunk struct {
	ToolCallID string `json:"toolCallId"`
	ToolName   string `json:"toolName"`
}

func (ToolInputStartChunk) ChunkType() ChunkType { return ChunkToolInputStart }

func (c ToolInputStartChunk) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		chunkEnvelope
		ToolCallID string `json:"toolCallId"`
		ToolName   string `json:"toolName"`
	}{chunkEnvelope{ChunkToolInputStart}, c.ToolCallID, c.ToolName})
}

// ToolInputDeltaChunk streams a fragment of a tool call's JSON input.
type ToolInputDeltaChunk struct {
	ToolCallID string `json:"toolCallId"`
	Delta      string `json:"inputTextDelta"`
}

func (ToolInputDeltaChunk) ChunkType() ChunkType { return ChunkToolInputDelta }

func (c ToolInputDeltaChunk) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		chunkEnvelope
		ToolCallID string `json:"toolCallId"`
		Delta      string `json:"inputTextDelta"`
	}{chunkEnvelope{ChunkToolInputDelta}, c.ToolCallID, c.Delta})
}

// ToolInputAvailableChunk reports a tool call's complete, parsed input.
type ToolInputAvailableChunk struct {
	ToolCallID string `json:"toolCallId"`
	ToolName   string `json:"toolName"`
	Input      any    `json:"input"`
}

func (ToolInputAvailableChunk) ChunkType() ChunkType { return ChunkToolInputAvailable }

func (c ToolInputAvailableChunk) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		chunkEnvelope
		ToolCallID string `json:"toolCallId"`
		ToolName   string `json:"toolName"`
		Input      any    `json:"input"`
	}{chunkEnvelope{ChunkToolInputAvailable}, c.ToolCallID, c.ToolName, c.Input})
}

// ToolOutputAvailableChunk reports a tool call's successful output.
type ToolOutputAvailableChunk struct {
	ToolCallID string `json:"toolCallId"`
	Output     any    `json:"output"`
}

func (ToolOutputAvailableChunk) ChunkType() ChunkType { return ChunkToolOutputAvail }

func (c ToolOutputAvailableChunk) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		chunkEnvelope
		ToolCallID string `json:"toolCallId"`
		Output     any    `json:"output"`
	}{chunkEnvelope{ChunkToolOutputAvail}, c.ToolCallID, c.Output})
}

// ToolOutputErrorChunk reports a tool call that failed.
type ToolOutputErrorChunk struct {
	ToolCallID   string `json:"toolCallId"`
	ErrorMessage string `json:"errorText"`
}

func (ToolOutputErrorChunk) ChunkType() ChunkType { return ChunkToolOutputError }

func (c ToolOutputErrorChunk) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		chunkEnvelope
		ToolCallID   string `json:"toolCallId"`
		ErrorMessage string `json:"errorText"`
	}{chunkEnvelope{ChunkToolOutputError}, c.ToolCallID, c.ErrorMessage})
}

// ErrorChunk reports a stream-terminating error.
type ErrorChunk struct {
	ErrorMessage string `json:"errorText"`
}

func (ErrorChunk) ChunkType() ChunkType { return ChunkError }

func (c ErrorChunk) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		chunkEnvelope
		ErrorMessage string `json:"errorText"`
	}{chunkEnvelope{ChunkError}, c.ErrorMessage})
}
