package openai

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agentkit/runtime/runtime/agent/message"
	"github.com/agentkit/runtime/runtime/agent/model"
)

func TestBuildMessagesConvertsSystemAndUser(t *testing.T) {
	messages := []message.ModelMessage{
		message.ModelRequest{Parts: []message.RequestPart{
			message.SystemPromptPart{Content: "be terse"},
			message.UserPromptPart{Content: []message.UserContent{message.TextContent{Text: "hello"}}},
		}},
	}
	msgs, err := buildMessages(messages)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
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

func TestResponseMessagesCombinesTextAndToolCalls(t *testing.T) {
	resp := message.ModelResponse{Parts: []message.ResponsePart{
		message.TextPart{Content: "thinking out loud"},
		message.ToolCallPart{ToolName: "search", ToolCallID: "call_1", Args: message.NewToolCallArgsJSON(map[string]any{"q": "go"})},
	}}
	msgs, err := responseMessages(resp)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.NotNil(t, msgs[0].OfAssistant)
	require.Len(t, msgs[0].OfAssistant.ToolCalls, 1)
}

func TestResponseMessagesSkipsEmptyTurn(t *testing.T) {
	msgs, err := responseMessages(message.ModelResponse{})
	require.NoError(t, err)
	require.Nil(t, msgs)
}

func TestBuildToolsProducesFunctionTools(t *testing.T) {
	defs := []model.ToolDefinition{
		{Name: "search", Description: "search the web", InputSchema: map[string]any{"type": "object"}},
	}
	tools := buildTools(defs)
	require.Len(t, tools, 1)
}

func TestBuildToolChoiceModes(t *testing.T) {
	require.NotNil(t, buildToolChoice(&model.ToolChoice{Mode: model.ToolChoiceModeNone}).OfAuto)
	require.NotNil(t, buildToolChoice(&model.ToolChoice{Mode: model.ToolChoiceModeTool, Name: "search"}).OfChatCompletionNamedToolChoice)
}
