package agentstream

import (
	"context"
	"testing"

	"github.com/agentkit/runtime/runtime/agent/message"
	"github.com/agentkit/runtime/runtime/agent/run"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, sink *ChannelSink) []Event {
	t.Helper()
	var events []Event
	for ev := range sink.Events() {
		events = append(events, ev)
	}
	return events
}

func TestTranslatorEmitsAssistantReplyAndUsage(t *testing.T) {
	sink := NewChannelSink(8)
	tr := NewTranslator(sink, DefaultProfile())
	rc := run.Context{RunID: "r1", SessionID: "s1"}

	tr.OnModelResponse(rc, &message.ModelResponse{
		Parts: []message.ResponsePart{message.TextPart{Content: "hi there"}},
		Usage: message.RequestUsage{InputTokens: 10, OutputTokens: 5},
	})
	require.NoError(t, tr.End(context.Background(), rc))

	events := drain(t, sink)
	require.Len(t, events, 3) // assistant_reply, usage, run_stream_end

	reply, ok := events[0].(AssistantReply)
	require.True(t, ok)
	assert.Equal(t, "hi there", reply.Data.Text)
	assert.Equal(t, "r1", reply.RunID())

	usage, ok := events[1].(Usage)
	require.True(t, ok)
	assert.Equal(t, 10, usage.Data.InputTokens)
	assert.Equal(t, 5, usage.Data.OutputTokens)

	end, ok := events[2].(RunStreamEnd)
	require.True(t, ok)
	assert.Equal(t, EventRunStreamEnd, end.Type())
}

func TestTranslatorRespectsProfileFiltering(t *testing.T) {
	sink := NewChannelSink(8)
	tr := NewTranslator(sink, MetricsProfile())
	rc := run.Context{RunID: "r2"}

	tr.OnModelResponse(rc, &message.ModelResponse{
		Parts: []message.ResponsePart{message.TextPart{Content: "ignored by metrics profile"}},
	})
	require.NoError(t, tr.End(context.Background(), rc))

	events := drain(t, sink)
	require.Len(t, events, 2) // usage, run_stream_end
	assert.Equal(t, EventUsage, events[0].Type())
	assert.Equal(t, EventRunStreamEnd, events[1].Type())
}

func TestTranslatorEmitsToolStartAndToolEnd(t *testing.T) {
	sink := NewChannelSink(8)
	tr := NewTranslator(sink, DefaultProfile())
	rc := run.Context{RunID: "r3"}

	tr.OnModelResponse(rc, &message.ModelResponse{
		Parts: []message.ResponsePart{message.ToolCallPart{
			ToolName:   "search",
			ToolCallID: "c1",
			Args:       message.NewToolCallArgsJSON(map[string]any{"q": "go"}),
		}},
	})
	tr.OnToolResults(rc, []message.RequestPart{
		message.ToolReturnPart{ToolName: "search", ToolCallID: "c1", Content: "results"},
	})
	require.NoError(t, tr.End(context.Background(), rc))

	events := drain(t, sink)
	require.Len(t, events, 4) // tool_start, usage, tool_end, run_stream_end

	start, ok := events[0].(ToolStart)
	require.True(t, ok)
	assert.Equal(t, "c1", start.Data.ToolCallID)

	end, ok := events[2].(ToolEnd)
	require.True(t, ok)
	assert.Equal(t, "c1", end.Data.ToolCallID)
	assert.False(t, end.Data.IsError)
}

func TestOnPhaseEmitsWorkflowOnlyOnTerminalPhases(t *testing.T) {
	sink := NewChannelSink(8)
	tr := NewTranslator(sink, DefaultProfile())
	rc := run.Context{RunID: "r4"}

	tr.OnPhase(rc, run.PhasePlanning)
	tr.OnPhase(rc, run.PhaseCompleted)
	require.NoError(t, sink.Close(context.Background()))

	events := drain(t, sink)
	require.Len(t, events, 1)
	wf, ok := events[0].(Workflow)
	require.True(t, ok)
	assert.Equal(t, "success", wf.Data.Status)
}
