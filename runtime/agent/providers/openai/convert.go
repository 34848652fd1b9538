package openai

import (
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go"

	"github.com/agentkit/runtime/runtime/agent/message"
	"github.com/agentkit/runtime/runtime/agent/model"
)

// buildMessages converts the conversation history into OpenAI's flat chat
// message list. Unlike Anthropic, OpenAI has no separate system channel, so
// SystemPromptPart becomes an ordinary leading system message.
func buildMessages(messages []message.ModelMessage) ([]openai.ChatCompletionMessageParamUnion, error) {
	var result []openai.ChatCompletionMessageParamUnion
	for _, m := range messages {
		switch v := m.(type) {
		case message.ModelRequest:
			msgs, err := requestMessages(v)
			if err != nil {
				return nil, err
			}
			result = append(result, msgs...)
		case message.ModelResponse:
			msgs, err := responseMessages(v)
			if err != nil {
				return nil, err
			}
			result = append(result, msgs...)
		}
	}
	return result, nil
}

func requestMessages(req message.ModelRequest) ([]openai.ChatCompletionMessageParamUnion, error) {
	var out []openai.ChatCompletionMessageParamUnion
	for _, part := range req.Parts {
		switch p := part.(type) {
		case message.SystemPromptPart:
			if p.Content != "" {
				out = append(out, openai.SystemMessage(p.Content))
			}
		case message.UserPromptPart:
			text, err := userPromptText(p)
			if err != nil {
				return nil, err
			}
			if text != "" {
				out = append(out, openai.UserMessage(text))
			}
		case message.ToolReturnPart:
			content, err := json.Marshal(p.Content)
			if err != nil {
				return nil, fmt.Errorf("openai: marshal tool result for %s: %w", p.ToolCallID, err)
			}
			out = append(out, openai.ToolMessage(p.ToolCallID, string(content)))
		case message.RetryPromptPart:
			content, err := json.Marshal(p.Content)
			if err != nil {
				return nil, fmt.Errorf("openai: marshal retry content for %s: %w", p.ToolCallID, err)
			}
			out = append(out, openai.ToolMessage(p.ToolCallID, string(content)))
		}
	}
	return out, nil
}

// userPromptText flattens a user turn's content blocks to plain text.
// Image/document/audio content has no place in a Chat Completions text
// message body; a future multimodal message format would replace this.
func userPromptText(p message.UserPromptPart) (string, error) {
	var text string
	for _, c := range p.Content {
		if tc, ok := c.(message.TextContent); ok {
			text += tc.Text
		}
	}
	return text, nil
}

func responseMessages(resp message.ModelResponse) ([]openai.ChatCompletionMessageParamUnion, error) {
	var text string
	var toolCalls []openai.ChatCompletionMessageToolCallUnionParam
	for _, part := range resp.Parts {
		switch p := part.(type) {
		case message.TextPart:
			text += p.Content
		case message.ToolCallPart:
			raw, err := p.Args.ToJSONBytes()
			if err != nil {
				return nil, fmt.Errorf("openai: encode args for %s: %w", p.ToolCallID, err)
			}
			toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCallUnionParam{
				OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
					ID: p.ToolCallID,
					Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
						Name:      p.ToolName,
						Arguments: string(raw),
					},
				},
			})
		}
	}
	if text == "" && len(toolCalls) == 0 {
		return nil, nil
	}
	assistantParam := openai.ChatCompletionAssistantMessageParam{}
	if text != "" {
		assistantParam.Content.OfString = openai.String(text)
	}
	assistantParam.ToolCalls = toolCalls
	return []openai.ChatCompletionMessageParamUnion{{OfAssistant: &assistantParam}}, nil
}

func buildTools(defs []model.ToolDefinition) []openai.ChatCompletionToolUnionParam {
	result := make([]openai.ChatCompletionToolUnionParam, 0, len(defs))
	for _, d := range defs {
		var params openai.FunctionParameters
		raw, err := json.Marshal(d.InputSchema)
		if err == nil {
			_ = json.Unmarshal(raw, &params)
		}
		result = append(result, openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        d.Name,
			Description: openai.String(d.Description),
			Parameters:  params,
		}))
	}
	return result
}

func buildToolChoice(tc *model.ToolChoice) openai.ChatCompletionToolChoiceOptionUnionParam {
	if tc == nil {
		return openai.ChatCompletionToolChoiceOptionUnionParam{}
	}
	switch tc.Mode {
	case model.ToolChoiceModeNone:
		return openai.ChatCompletionToolChoiceOptionUnionParam{OfAuto: openai.String("none")}
	case model.ToolChoiceModeAny:
		return openai.ChatCompletionToolChoiceOptionUnionParam{OfAuto: openai.String("required")}
	case model.ToolChoiceModeTool:
		return openai.ChatCompletionToolChoiceOptionUnionParam{
			OfChatCompletionNamedToolChoice: &openai.ChatCompletionNamedToolChoiceParam{
				Function: openai.ChatCompletionNamedToolChoiceFunctionParam{Name: tc.Name},
			},
		}
	default:
		return openai.ChatCompletionToolChoiceOptionUnionParam{OfAuto: openai.String("auto")}
	}
}
