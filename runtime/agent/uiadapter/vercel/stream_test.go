package vercel

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentkit/runtime/runtime/agent/agentstream"
)

func base(eventType agentstream.EventType) agentstream.Base {
	return agentstream.NewBase(eventType, "run-1", "session-1", nil)
}

func chunkTypes(chunks []Chunk) []ChunkType {
	types := make([]ChunkType, len(chunks))
	for i, c := range chunks {
		types[i] = c.ChunkType()
	}
	return types
}

func TestStreamStart(t *testing.T) {
	s := NewStream()
	chunks := s.Start()
	require.Len(t, chunks, 2)
	assert.Equal(t, ChunkStart, chunks[0].ChunkType())
	assert.Equal(t, ChunkStartStep, chunks[1].ChunkType())
	assert.True(t, s.stepStarted)
}

func TestStreamFinish(t *testing.T) {
	s := NewStream()
	s.Start()
	chunks := s.Finish()
	assert.Contains(t, chunkTypes(chunks), ChunkFinishStep)
	assert.Contains(t, chunkTypes(chunks), ChunkFinish)
	assert.Contains(t, chunkTypes(chunks), ChunkDone)
}

func TestTextDeltaTransformation(t *testing.T) {
	s := NewStream()
	s.Start()

	chunks := s.Transform(agentstream.AssistantReply{
		Base: base(agentstream.EventAssistantReply),
		Data: agentstream.AssistantReplyPayload{Text: "Hello"},
	})
	require.Len(t, chunks, 2)
	assert.Equal(t, ChunkTextStart, chunks[0].ChunkType())
	assert.Equal(t, ChunkTextDelta, chunks[1].ChunkType())

	chunks2 := s.Transform(agentstream.AssistantReply{
		Base: base(agentstream.EventAssistantReply),
		Data: agentstream.AssistantReplyPayload{Text: " World"},
	})
	require.Len(t, chunks2, 1)
	assert.Equal(t, ChunkTextDelta, chunks2[0].ChunkType())
}

func TestThinkingDeltaTransformation(t *testing.T) {
	s := NewStream()
	s.Start()

	chunks := s.Transform(agentstream.PlannerThought{
		Base: base(agentstream.EventPlannerThought),
		Data: agentstream.PlannerThoughtPayload{Text: "Let me think..."},
	})
	require.Len(t, chunks, 2)
	assert.Equal(t, ChunkReasoningStart, chunks[0].ChunkType())
	assert.Equal(t, ChunkReasoningDelta, chunks[1].ChunkType())
}

func TestToolCallTransformation(t *testing.T) {
	s := NewStream()
	s.Start()

	startChunks := s.Transform(agentstream.ToolStart{
		Base: base(agentstream.EventToolStart),
		Data: agentstream.ToolStartPayload{ToolCallID: "call-123", ToolName: "get_weather"},
	})
	require.Len(t, startChunks, 1)
	assert.Equal(t, ChunkToolInputStart, startChunks[0].ChunkType())

	deltaChunks := s.Transform(agentstream.ToolCallArgsDelta{
		Base: base(agentstream.EventToolCallArgsDelta),
		Data: agentstream.ToolCallArgsDeltaPayload{ToolCallID: "call-123", Delta: `{"city":`},
	})
	require.Len(t, deltaChunks, 1)
	assert.Equal(t, ChunkToolInputDelta, deltaChunks[0].ChunkType())

	completeChunks := s.Transform(agentstream.ToolStart{
		Base: base(agentstream.EventToolStart),
		Data: agentstream.ToolStartPayload{ToolCallID: "call-123", ToolName: "get_weather", Args: json.RawMessage(`{"city":"London"}`)},
	})
	require.Len(t, completeChunks, 1)
	assert.Equal(t, ChunkToolInputAvailable, completeChunks[0].ChunkType())
}

func TestToolResultSuccessAndError(t *testing.T) {
	s := NewStream()
	s.Start()
	s.Transform(agentstream.ToolStart{
		Base: base(agentstream.EventToolStart),
		Data: agentstream.ToolStartPayload{ToolCallID: "call-123", ToolName: "get_weather"},
	})

	okChunks := s.Transform(agentstream.ToolEnd{
		Base: base(agentstream.EventToolEnd),
		Data: agentstream.ToolEndPayload{ToolCallID: "call-123", Result: json.RawMessage(`{"temp":20}`)},
	})
	require.Len(t, okChunks, 1)
	assert.Equal(t, ChunkToolOutputAvail, okChunks[0].ChunkType())

	errChunks := s.Transform(agentstream.ToolEnd{
		Base: base(agentstream.EventToolEnd),
		Data: agentstream.ToolEndPayload{ToolCallID: "call-456", Result: json.RawMessage(`"City not found"`), IsError: true},
	})
	require.Len(t, errChunks, 1)
	assert.Equal(t, ChunkToolOutputError, errChunks[0].ChunkType())
}

func TestWorkflowFailureEmitsErrorChunk(t *testing.T) {
	s := NewStream()
	s.Start()

	chunks := s.Transform(agentstream.Workflow{
		Base: base(agentstream.EventWorkflow),
		Data: agentstream.WorkflowPayload{Phase: "run", Status: "failed", Error: "boom"},
	})
	require.Len(t, chunks, 1)
	assert.Equal(t, ChunkError, chunks[0].ChunkType())
	assert.Equal(t, FinishError, s.finishReason)
}

func TestEncodeProducesSSEFrame(t *testing.T) {
	frame, err := Encode(TextDeltaChunk{Delta: "Hello"})
	require.NoError(t, err)
	assert.Contains(t, frame, "data: ")
	assert.Contains(t, frame, "text-delta")
}

func TestSinkWritesFramedChunks(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSink(&buf)

	require.NoError(t, sink.Send(context.Background(), agentstream.AssistantReply{
		Base: base(agentstream.EventAssistantReply),
		Data: agentstream.AssistantReplyPayload{Text: "hi", Final: true},
	}))
	require.NoError(t, sink.Close(context.Background()))

	out := buf.String()
	assert.Contains(t, out, "\"type\":\"start\"")
	assert.Contains(t, out, "text-start")
	assert.Contains(t, out, "text-delta")
	assert.Contains(t, out, "text-end")
	assert.Contains(t, out, "\"type\":\"done\"")
}
