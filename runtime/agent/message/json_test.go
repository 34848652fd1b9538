package message

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestModelRequestRoundTrip(t *testing.T) {
	req := ModelRequest{
		Parts: []RequestPart{
			SystemPromptPart{Content: "be helpful"},
			UserPromptPart{Content: []UserContent{
				TextContent{Text: "hello"},
				ImageContent{MediaType: "image/png", Data: []byte{1, 2, 3}},
			}},
			ToolReturnPart{ToolName: "search", ToolCallID: "call_1", Content: map[string]any{"ok": true}},
			RetryPromptPart{ToolName: "search", ToolCallID: "call_1", Content: "missing field x"},
		},
	}

	data, err := json.Marshal(req)
	require.NoError(t, err)

	var decoded ModelRequest
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded.Parts, len(req.Parts))

	_, ok := decoded.Parts[0].(SystemPromptPart)
	require.True(t, ok)
	up, ok := decoded.Parts[1].(UserPromptPart)
	require.True(t, ok)
	require.Len(t, up.Content, 2)
	_, ok = decoded.Parts[2].(ToolReturnPart)
	require.True(t, ok)
	_, ok = decoded.Parts[3].(RetryPromptPart)
	require.True(t, ok)
}

func TestModelResponseRoundTrip(t *testing.T) {
	resp := ModelResponse{
		Parts: []ResponsePart{
			TextPart{Content: "thinking about it"},
			ThinkingPart{Content: "reasoning", Signature: "sig", ProviderName: "anthropic"},
			ToolCallPart{ToolName: "search", Args: NewToolCallArgsJSON(map[string]any{"q": "go"}), ToolCallID: "call_1"},
			FilePart{MediaType: "image/png", Data: []byte{9, 9}, Name: "out.png"},
		},
		ModelName:    "claude-x",
		Usage:        RequestUsage{InputTokens: 10, OutputTokens: 5},
		FinishReason: FinishReasonToolCalls,
	}

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded ModelResponse
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded.Parts, len(resp.Parts))
	require.Equal(t, resp.ModelName, decoded.ModelName)
	require.Equal(t, resp.Usage, decoded.Usage)
	require.Equal(t, resp.FinishReason, decoded.FinishReason)

	tc, ok := decoded.Parts[2].(ToolCallPart)
	require.True(t, ok)
	require.Equal(t, "search", tc.ToolName)
	require.Equal(t, map[string]any{"q": "go"}, tc.Args.ToJSONObject())
}
