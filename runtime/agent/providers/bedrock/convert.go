package bedrock

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/agentkit/runtime/runtime/agent/message"
	"github.com/agentkit/runtime/runtime/agent/model"
)

// toolNameMap carries both directions of the canonical <-> Bedrock-safe tool
// name mapping built for a single request.
type toolNameMap struct {
	canonToSafe map[string]string
	safeToCanon map[string]string
}

// buildMessages converts the conversation history into Bedrock's Converse
// message list plus a separate system block list, applying the tool name
// map built by buildTools so tool_use/tool_result blocks reference
// provider-safe names and IDs.
func buildMessages(messages []message.ModelMessage, names toolNameMap) ([]brtypes.Message, []brtypes.SystemContentBlock, error) {
	var conversation []brtypes.Message
	var system []brtypes.SystemContentBlock

	for _, m := range messages {
		switch v := m.(type) {
		case message.ModelRequest:
			blocks, sys, err := userBlocks(v, names)
			if err != nil {
				return nil, nil, err
			}
			system = append(system, sys...)
			if len(blocks) > 0 {
				conversation = append(conversation, brtypes.Message{Role: brtypes.ConversationRoleUser, Content: blocks})
			}
		case message.ModelResponse:
			blocks, err := assistantBlocks(v, names)
			if err != nil {
				return nil, nil, err
			}
			if len(blocks) > 0 {
				conversation = append(conversation, brtypes.Message{Role: brtypes.ConversationRoleAssistant, Content: blocks})
			}
		}
	}
	if len(conversation) == 0 {
		return nil, nil, fmt.Errorf("bedrock: at least one user/assistant message is required")
	}
	return conversation, system, nil
}

func userBlocks(req message.ModelRequest, names toolNameMap) ([]brtypes.ContentBlock, []brtypes.SystemContentBlock, error) {
	var blocks []brtypes.ContentBlock
	var system []brtypes.SystemContentBlock
	for _, part := range req.Parts {
		switch p := part.(type) {
		case message.SystemPromptPart:
			if p.Content != "" {
				system = append(system, &brtypes.SystemContentBlockMemberText{Value: p.Content})
			}
		case message.UserPromptPart:
			for _, c := range p.Content {
				if tc, ok := c.(message.TextContent); ok && tc.Text != "" {
					blocks = append(blocks, &brtypes.ContentBlockMemberText{Value: tc.Text})
				}
			}
		case message.ToolReturnPart:
			content, err := json.Marshal(p.Content)
			if err != nil {
				return nil, nil, fmt.Errorf("bedrock: marshal tool result for %s: %w", p.ToolCallID, err)
			}
			tr := brtypes.ToolResultBlock{
				ToolUseId: aws.String(p.ToolCallID),
				Content:   []brtypes.ToolResultContentBlock{&brtypes.ToolResultContentBlockMemberJson{Value: toDocument(content)}},
			}
			if p.IsError {
				tr.Status = brtypes.ToolResultStatusError
			}
			blocks = append(blocks, &brtypes.ContentBlockMemberToolResult{Value: tr})
		case message.RetryPromptPart:
			content, err := json.Marshal(p.Content)
			if err != nil {
				return nil, nil, fmt.Errorf("bedrock: marshal retry content for %s: %w", p.ToolCallID, err)
			}
			blocks = append(blocks, &brtypes.ContentBlockMemberToolResult{Value: brtypes.ToolResultBlock{
				ToolUseId: aws.String(p.ToolCallID),
				Content:   []brtypes.ToolResultContentBlock{&brtypes.ToolResultContentBlockMemberJson{Value: toDocument(content)}},
				Status:    brtypes.ToolResultStatusError,
			}})
		}
	}
	return blocks, system, nil
}

func assistantBlocks(resp message.ModelResponse, names toolNameMap) ([]brtypes.ContentBlock, error) {
	var blocks []brtypes.ContentBlock
	for _, part := range resp.Parts {
		switch p := part.(type) {
		case message.TextPart:
			if p.Content != "" {
				blocks = append(blocks, &brtypes.ContentBlockMemberText{Value: p.Content})
			}
		case message.ThinkingPart:
			if p.Signature != "" && p.Content != "" {
				blocks = append(blocks, &brtypes.ContentBlockMemberReasoningContent{
					Value: &brtypes.ReasoningContentBlockMemberReasoningText{
						Value: brtypes.ReasoningTextBlock{Text: aws.String(p.Content), Signature: aws.String(p.Signature)},
					},
				})
			}
		case message.ToolCallPart:
			safe, ok := names.canonToSafe[p.ToolName]
			if !ok {
				safe = sanitizeToolName(p.ToolName)
			}
			blocks = append(blocks, &brtypes.ContentBlockMemberToolUse{Value: brtypes.ToolUseBlock{
				ToolUseId: aws.String(p.ToolCallID),
				Name:      aws.String(safe),
				Input:     toDocument(p.Args.ToJSONValue()),
			}})
		}
	}
	return blocks, nil
}

func buildTools(defs []model.ToolDefinition, choice *model.ToolChoice) (*brtypes.ToolConfiguration, toolNameMap, error) {
	names := toolNameMap{canonToSafe: map[string]string{}, safeToCanon: map[string]string{}}
	if len(defs) == 0 {
		return nil, names, nil
	}
	tools := make([]brtypes.Tool, 0, len(defs))
	for _, d := range defs {
		safe := sanitizeToolName(d.Name)
		if prev, ok := names.safeToCanon[safe]; ok && prev != d.Name {
			return nil, names, fmt.Errorf("bedrock: tool name %q sanitizes to %q which collides with %q", d.Name, safe, prev)
		}
		names.canonToSafe[d.Name] = safe
		names.safeToCanon[safe] = d.Name
		raw, err := json.Marshal(d.InputSchema)
		if err != nil {
			return nil, names, fmt.Errorf("bedrock: marshal schema for %s: %w", d.Name, err)
		}
		tools = append(tools, &brtypes.ToolMemberToolSpec{Value: brtypes.ToolSpecification{
			Name:        aws.String(safe),
			Description: aws.String(d.Description),
			InputSchema: &brtypes.ToolInputSchemaMemberJson{Value: toDocument(raw)},
		}})
	}
	cfg := &brtypes.ToolConfiguration{Tools: tools}
	if choice == nil {
		return cfg, names, nil
	}
	switch choice.Mode {
	case model.ToolChoiceModeAuto, "":
	case model.ToolChoiceModeNone:
	case model.ToolChoiceModeAny:
		cfg.ToolChoice = &brtypes.ToolChoiceMemberAny{Value: brtypes.AnyToolChoice{}}
	case model.ToolChoiceModeTool:
		safe, ok := names.canonToSafe[choice.Name]
		if !ok {
			return nil, names, fmt.Errorf("bedrock: tool choice name %q does not match any tool", choice.Name)
		}
		cfg.ToolChoice = &brtypes.ToolChoiceMemberTool{Value: brtypes.SpecificToolChoice{Name: aws.String(safe)}}
	default:
		return nil, names, fmt.Errorf("bedrock: unsupported tool choice mode %q", choice.Mode)
	}
	return cfg, names, nil
}

// sanitizeToolName maps a canonical tool identifier to characters allowed by
// Bedrock's [a-zA-Z0-9_-]+ constraint, replacing disallowed runes with '_'
// and falling back to a stable hash suffix when truncation would otherwise
// collide two distinct names.
func sanitizeToolName(in string) string {
	const maxLen = 64
	const hashLen = 8
	out := make([]rune, 0, len(in))
	for _, r := range in {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	sanitized := string(out)
	if len(sanitized) <= maxLen {
		return sanitized
	}
	sum := sha256.Sum256([]byte(in))
	suffix := hex.EncodeToString(sum[:])[:hashLen]
	prefixLen := maxLen - (1 + hashLen)
	return sanitized[:prefixLen] + "_" + suffix
}

func toDocument(v any) document.Interface {
	return document.NewLazyDocument(&v)
}

func decodeDocument(doc document.Interface) json.RawMessage {
	if doc == nil {
		return nil
	}
	data, err := doc.MarshalSmithyDocument()
	if err != nil || len(data) == 0 {
		return nil
	}
	return json.RawMessage(data)
}

func ptrValue[T ~int32 | ~int64](ptr *T) T {
	if ptr == nil {
		var zero T
		return zero
	}
	return *ptr
}
