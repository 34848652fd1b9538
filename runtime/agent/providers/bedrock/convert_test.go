package bedrock

import (
	"testing"

	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/stretchr/testify/require"

	"github.com/agentkit/runtime/runtime/agent/message"
	"github.com/agentkit/runtime/runtime/agent/model"
)

func TestBuildToolsNoChoice(t *testing.T) {
	cfg, names, err := buildTools([]model.ToolDefinition{
		{Name: "search", Description: "search the web", InputSchema: map[string]any{"type": "object"}},
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	require.Len(t, cfg.Tools, 1)
	require.Nil(t, cfg.ToolChoice)
	require.Equal(t, "search", names.safeToCanon[names.canonToSafe["search"]])
}

func TestBuildToolsModeTool(t *testing.T) {
	cfg, _, err := buildTools([]model.ToolDefinition{
		{Name: "search", Description: "search", InputSchema: map[string]any{"type": "object"}},
	}, &model.ToolChoice{Mode: model.ToolChoiceModeTool, Name: "search"})
	require.NoError(t, err)
	choice, ok := cfg.ToolChoice.(*brtypes.ToolChoiceMemberTool)
	require.True(t, ok)
	require.Equal(t, "search", *choice.Value.Name)
}

func TestSanitizeToolNameReplacesDisallowedRunes(t *testing.T) {
	require.Equal(t, "toolset_tool", sanitizeToolName("toolset.tool"))
	require.Equal(t, "a_b", sanitizeToolName("a b"))
}

func TestSanitizeToolNameTruncatesLongNames(t *testing.T) {
	long := ""
	for i := 0; i < 100; i++ {
		long += "x"
	}
	got := sanitizeToolName(long)
	require.LessOrEqual(t, len(got), 64)
}

func TestBuildMessagesRequiresAtLeastOneMessage(t *testing.T) {
	_, _, err := buildMessages(nil, toolNameMap{canonToSafe: map[string]string{}, safeToCanon: map[string]string{}})
	require.Error(t, err)
}

func TestBuildMessagesConvertsSystemAndUserText(t *testing.T) {
	messages := []message.ModelMessage{
		message.ModelRequest{Parts: []message.RequestPart{
			message.SystemPromptPart{Content: "be terse"},
			message.UserPromptPart{Content: []message.UserContent{message.TextContent{Text: "hello"}}},
		}},
	}
	conv, system, err := buildMessages(messages, toolNameMap{canonToSafe: map[string]string{}, safeToCanon: map[string]string{}})
	require.NoError(t, err)
	require.Len(t, system, 1)
	require.Len(t, conv, 1)
	require.Equal(t, brtypes.ConversationRoleUser, conv[0].Role)
}

func TestAssistantBlocksConvertsToolCall(t *testing.T) {
	names := toolNameMap{canonToSafe: map[string]string{"search": "search"}, safeToCanon: map[string]string{"search": "search"}}
	resp := message.ModelResponse{Parts: []message.ResponsePart{
		message.ToolCallPart{ToolName: "search", ToolCallID: "call_1", Args: message.NewToolCallArgsJSON(map[string]any{"q": "go"})},
	}}
	blocks, err := assistantBlocks(resp, names)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	tu, ok := blocks[0].(*brtypes.ContentBlockMemberToolUse)
	require.True(t, ok)
	require.Equal(t, "search", *tu.Value.Name)
	require.Equal(t, "call_1", *tu.Value.ToolUseId)
}
