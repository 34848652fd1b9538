package agui

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentkit/runtime/runtime/agent/agentstream"
)

func base(eventType agentstream.EventType) agentstream.Base {
	return agentstream.NewBase(eventType, "run-1", "session-1", nil)
}

func TestStreamStart(t *testing.T) {
	s := NewStream("thread-1", "run-1")
	events := s.Start()
	require.Len(t, events, 1)
	assert.Equal(t, EventRunStarted, events[0].Type())
}

func TestStreamFinish(t *testing.T) {
	s := NewStream("thread-1", "run-1")
	s.Start()
	events := s.Finish()
	require.Len(t, events, 1)
	assert.Equal(t, EventRunFinished, events[0].Type())
}

func TestTextDeltaTransformation(t *testing.T) {
	s := NewStream("thread-1", "run-1")
	s.Start()

	events := s.Transform(agentstream.AssistantReply{
		Base: base(agentstream.EventAssistantReply),
		Data: agentstream.AssistantReplyPayload{Text: "Hello"},
	})
	require.Len(t, events, 2)
	assert.Equal(t, EventTextMessageStart, events[0].Type())
	assert.Equal(t, EventTextMessageContent, events[1].Type())

	events2 := s.Transform(agentstream.AssistantReply{
		Base: base(agentstream.EventAssistantReply),
		Data: agentstream.AssistantReplyPayload{Text: " World"},
	})
	require.Len(t, events2, 1)
	assert.Equal(t, EventTextMessageContent, events2[0].Type())
}

func TestThinkingDeltaTransformation(t *testing.T) {
	s := NewStream("thread-1", "run-1")
	s.Start()

	events := s.Transform(agentstream.PlannerThought{
		Base: base(agentstream.EventPlannerThought),
		Data: agentstream.PlannerThoughtPayload{Text: "Let me think..."},
	})
	require.Len(t, events, 3)
	assert.Equal(t, EventThinkingStart, events[0].Type())
	assert.Equal(t, EventThinkingTextMessageStart, events[1].Type())
	assert.Equal(t, EventThinkingTextMessageContent, events[2].Type())
}

func TestSwitchingFromThinkingToText(t *testing.T) {
	s := NewStream("thread-1", "run-1")
	s.Start()

	s.Transform(agentstream.PlannerThought{
		Base: base(agentstream.EventPlannerThought),
		Data: agentstream.PlannerThoughtPayload{Text: "thinking"},
	})
	events := s.Transform(agentstream.AssistantReply{
		Base: base(agentstream.EventAssistantReply),
		Data: agentstream.AssistantReplyPayload{Text: "answer"},
	})

	types := eventTypes(events)
	assert.Contains(t, types, EventThinkingTextMessageEnd)
	assert.Contains(t, types, EventThinkingEnd)
	assert.Contains(t, types, EventTextMessageStart)
}

func TestToolCallFlow(t *testing.T) {
	s := NewStream("thread-1", "run-1")
	s.Start()

	startEvents := s.Transform(agentstream.ToolStart{
		Base: base(agentstream.EventToolStart),
		Data: agentstream.ToolStartPayload{ToolCallID: "call-123", ToolName: "get_weather"},
	})
	require.Len(t, startEvents, 1)
	assert.Equal(t, EventToolCallStart, startEvents[0].Type())

	argsEvents := s.Transform(agentstream.ToolCallArgsDelta{
		Base: base(agentstream.EventToolCallArgsDelta),
		Data: agentstream.ToolCallArgsDeltaPayload{ToolCallID: "call-123", Delta: `{"city":`},
	})
	require.Len(t, argsEvents, 1)
	assert.Equal(t, EventToolCallArgs, argsEvents[0].Type())

	resultEvents := s.Transform(agentstream.ToolEnd{
		Base: base(agentstream.EventToolEnd),
		Data: agentstream.ToolEndPayload{ToolCallID: "call-123", ToolName: "get_weather", Result: json.RawMessage(`{"temp":20}`)},
	})
	require.Len(t, resultEvents, 1)
	assert.Equal(t, EventToolCallResult, resultEvents[0].Type())
}

func TestOnError(t *testing.T) {
	s := NewStream("thread-1", "run-1")
	s.Start()

	events := s.Transform(agentstream.Workflow{
		Base: base(agentstream.EventWorkflow),
		Data: agentstream.WorkflowPayload{Phase: "run", Status: "failed", Error: "something went wrong"},
	})
	require.NotEmpty(t, events)
	assert.Equal(t, EventRunError, events[len(events)-1].Type())

	finish := s.Finish()
	assert.NotContains(t, eventTypes(finish), EventRunFinished)
}

func TestEncodeSSEAndNDJSON(t *testing.T) {
	ev := TextMessageContentEvent{MessageID: "msg-1", Delta: "Hello"}

	sse, err := Encode(ev, FormatSSE)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sse, "data: "))
	assert.True(t, strings.HasSuffix(sse, "\n\n"))
	assert.Contains(t, sse, "TEXT_MESSAGE_CONTENT")

	ndjson, err := Encode(ev, FormatNDJSON)
	require.NoError(t, err)
	assert.False(t, strings.HasPrefix(ndjson, "data: "))
	assert.True(t, strings.HasSuffix(ndjson, "\n"))
}

func TestSinkWritesFramedEvents(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSink(&buf, "thread-1", "run-1", FormatSSE)

	require.NoError(t, sink.Send(context.Background(), agentstream.AssistantReply{
		Base: base(agentstream.EventAssistantReply),
		Data: agentstream.AssistantReplyPayload{Text: "hi", Final: true},
	}))
	require.NoError(t, sink.Close(context.Background()))

	out := buf.String()
	assert.Contains(t, out, "RUN_STARTED")
	assert.Contains(t, out, "TEXT_MESSAGE_START")
	assert.Contains(t, out, "TEXT_MESSAGE_CONTENT")
	assert.Contains(t, out, "TEXT_MESSAGE_END")
	assert.Contains(t, out, "RUN_FINISHED")
}

func eventTypes(events []Event) []EventType {
	types := make([]EventType, len(events))
	for i, e := range events {
		types[i] = e.Type()
	}
	return types
}
