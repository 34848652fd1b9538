package anthropic

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agentkit/runtime/runtime/agent/message"
	"github.com/agentkit/runtime/runtime/agent/model"
)

func TestBuildSystemConcatenatesSystemPrompts(t *testing.T) {
	messages := []message.ModelMessage{
		message.ModelRequest{Parts: []message.RequestPart{message.SystemPromptPart{Content: "be terse"}}},
	}
	blocks := buildSystem(messages)
	require.Len(t, blocks, 1)
	require.Equal(t, "be terse", blocks[0].Text)
}

func TestBuildMessagesSkipsEmptyTurns(t *testing.T) {
	messages := []message.ModelMessage{
		message.ModelRequest{Parts: []message.RequestPart{message.SystemPromptPart{Content: "x"}}},
		message.ModelRequest{Parts: []message.RequestPart{
			message.UserPromptPart{Content: []message.UserContent{message.TextContent{Text: "hi"}}},
		}},
	}
	msgs, err := buildMessages(messages)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
}

func TestBuildMessagesConvertsToolReturn(t *testing.T) {
	messages := []message.ModelMessage{
		message.ModelRequest{Parts: []message.RequestPart{
			message.ToolReturnPart{ToolName: "search", ToolCallID: "call_1", Content: map[string]any{"ok": true}},
		}},
	}
	msgs, err := buildMessages(messages)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
}

func TestBuildToolsSetsDescription(t *testing.T) {
	defs := []model.ToolDefinition{
		{Name: "search", Description: "search the web", InputSchema: map[string]any{"type": "object", "properties": map[string]any{}}},
	}
	tools, err := buildTools(defs)
	require.NoError(t, err)
	require.Len(t, tools, 1)
	require.NotNil(t, tools[0].OfTool)
	require.Equal(t, "search the web", tools[0].OfTool.Description.Value)
}

func TestBuildToolChoiceModes(t *testing.T) {
	require.NotNil(t, buildToolChoice(&model.ToolChoice{Mode: model.ToolChoiceModeNone}).OfNone)
	require.NotNil(t, buildToolChoice(&model.ToolChoice{Mode: model.ToolChoiceModeAny}).OfAny)
	require.NotNil(t, buildToolChoice(&model.ToolChoice{Mode: model.ToolChoiceModeTool, Name: "search"}).OfTool)
	require.NotNil(t, buildToolChoice(&model.ToolChoice{Mode: model.ToolChoiceModeAuto}).OfAuto)
}

func TestAssistantBlocksFromResponseConvertsTextAndToolCall(t *testing.T) {
	resp := message.ModelResponse{Parts: []message.ResponsePart{
		message.TextPart{Content: "hello"},
		message.ToolCallPart{ToolName: "search", ToolCallID: "call_1", Args: message.NewToolCallArgsJSON(map[string]any{"q": "go"})},
	}}
	blocks, err := assistantBlocksFromResponse(resp)
	require.NoError(t, err)
	require.Len(t, blocks, 2)
}
