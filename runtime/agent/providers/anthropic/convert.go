package anthropic

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/agentkit/runtime/runtime/agent/message"
	"github.com/agentkit/runtime/runtime/agent/model"
)

// buildSystem concatenates every SystemPromptPart across the conversation
// history into Anthropic's separate top-level System field; Anthropic has
// no per-turn system role.
func buildSystem(messages []message.ModelMessage) []anthropic.TextBlockParam {
	var blocks []anthropic.TextBlockParam
	for _, m := range messages {
		req, ok := m.(message.ModelRequest)
		if !ok {
			continue
		}
		for _, part := range req.Parts {
			if sp, ok := part.(message.SystemPromptPart); ok && sp.Content != "" {
				blocks = append(blocks, anthropic.TextBlockParam{Text: sp.Content})
			}
		}
	}
	return blocks
}

// buildMessages converts the conversation history into Anthropic's
// alternating user/assistant message list. System prompts are skipped here
// (handled by buildSystem); everything else maps onto content blocks.
func buildMessages(messages []message.ModelMessage) ([]anthropic.MessageParam, error) {
	var result []anthropic.MessageParam
	for _, m := range messages {
		switch v := m.(type) {
		case message.ModelRequest:
			blocks, err := userBlocksFromRequest(v)
			if err != nil {
				return nil, err
			}
			if len(blocks) > 0 {
				result = append(result, anthropic.NewUserMessage(blocks...))
			}
		case message.ModelResponse:
			blocks, err := assistantBlocksFromResponse(v)
			if err != nil {
				return nil, err
			}
			if len(blocks) > 0 {
				result = append(result, anthropic.NewAssistantMessage(blocks...))
			}
		}
	}
	return result, nil
}

func userBlocksFromRequest(req message.ModelRequest) ([]anthropic.ContentBlockParamUnion, error) {
	var blocks []anthropic.ContentBlockParamUnion
	for _, part := range req.Parts {
		switch p := part.(type) {
		case message.SystemPromptPart:
			// handled separately via buildSystem
		case message.UserPromptPart:
			for _, c := range p.Content {
				switch uc := c.(type) {
				case message.TextContent:
					blocks = append(blocks, anthropic.NewTextBlock(uc.Text))
				case message.ImageContent:
					if uc.URL != "" {
						blocks = append(blocks, anthropic.NewImageBlock(anthropic.URLImageSourceParam{URL: uc.URL}))
					} else {
						blocks = append(blocks, anthropic.NewImageBlockBase64(uc.MediaType, base64String(uc.Data)))
					}
				case message.DocumentContent:
					if uc.URL != "" {
						blocks = append(blocks, anthropic.NewDocumentBlock(anthropic.URLPDFSourceParam{URL: uc.URL}))
					} else {
						blocks = append(blocks, anthropic.NewDocumentBlock(anthropic.Base64PDFSourceParam{Data: base64String(uc.Data)}))
					}
				}
			}
		case message.ToolReturnPart:
			content, err := json.Marshal(p.Content)
			if err != nil {
				return nil, fmt.Errorf("anthropic: marshal tool result for %s: %w", p.ToolCallID, err)
			}
			blocks = append(blocks, anthropic.NewToolResultBlock(p.ToolCallID, string(content), p.IsError))
		case message.RetryPromptPart:
			content, err := json.Marshal(p.Content)
			if err != nil {
				return nil, fmt.Errorf("anthropic: marshal retry content for %s: %w", p.ToolCallID, err)
			}
			blocks = append(blocks, anthropic.NewToolResultBlock(p.ToolCallID, string(content), true))
		}
	}
	return blocks, nil
}

func assistantBlocksFromResponse(resp message.ModelResponse) ([]anthropic.ContentBlockParamUnion, error) {
	var blocks []anthropic.ContentBlockParamUnion
	for _, part := range resp.Parts {
		switch p := part.(type) {
		case message.TextPart:
			if p.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(p.Content))
			}
		case message.ThinkingPart:
			if p.Signature != "" {
				blocks = append(blocks, anthropic.NewThinkingBlock(p.Signature, p.Content))
			}
		case message.ToolCallPart:
			blocks = append(blocks, anthropic.NewToolUseBlock(p.ToolCallID, p.Args.ToJSONValue(), p.ToolName))
		}
	}
	return blocks, nil
}

func buildTools(defs []model.ToolDefinition) ([]anthropic.ToolUnionParam, error) {
	result := make([]anthropic.ToolUnionParam, 0, len(defs))
	for _, d := range defs {
		raw, err := json.Marshal(d.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("anthropic: marshal schema for %s: %w", d.Name, err)
		}
		var schema anthropic.ToolInputSchemaParam
		if err := json.Unmarshal(raw, &schema); err != nil {
			return nil, fmt.Errorf("anthropic: decode schema for %s: %w", d.Name, err)
		}
		param := anthropic.ToolUnionParamOfTool(schema, d.Name)
		if param.OfTool != nil {
			param.OfTool.Description = anthropic.String(d.Description)
		}
		result = append(result, param)
	}
	return result, nil
}

func buildToolChoice(tc *model.ToolChoice) anthropic.ToolChoiceUnionParam {
	if tc == nil {
		return anthropic.ToolChoiceUnionParam{}
	}
	switch tc.Mode {
	case model.ToolChoiceModeNone:
		return anthropic.ToolChoiceUnionParam{OfNone: &anthropic.ToolChoiceNoneParam{}}
	case model.ToolChoiceModeAny:
		return anthropic.ToolChoiceUnionParam{OfAny: &anthropic.ToolChoiceAnyParam{}}
	case model.ToolChoiceModeTool:
		return anthropic.ToolChoiceUnionParam{OfTool: &anthropic.ToolChoiceToolParam{Name: tc.Name}}
	default:
		return anthropic.ToolChoiceUnionParam{OfAuto: &anthropic.ToolChoiceAutoParam{}}
	}
}

func base64String(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}
