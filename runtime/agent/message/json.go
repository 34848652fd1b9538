package message

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// MarshalJSON encodes a ModelRequest while preserving the concrete
// RequestPart type of each element via an explicit "part_kind"
// discriminator, following the same tagged-union pattern used for
// ModelResponse below.
func (r ModelRequest) MarshalJSON() ([]byte, error) {
	type alias struct {
		Parts []any `json:"parts"`
	}
	parts := make([]any, 0, len(r.Parts))
	for i, p := range r.Parts {
		enc, err := encodeRequestPart(p)
		if err != nil {
			return nil, fmt.Errorf("encode parts[%d]: %w", i, err)
		}
		parts = append(parts, enc)
	}
	return json.Marshal(alias{Parts: parts})
}

// UnmarshalJSON decodes a ModelRequest, materializing concrete RequestPart
// implementations from the "part_kind" discriminator.
func (r *ModelRequest) UnmarshalJSON(data []byte) error {
	type alias struct {
		Parts []json.RawMessage `json:"parts"`
	}
	var tmp alias
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	r.Parts = make([]RequestPart, 0, len(tmp.Parts))
	for i, raw := range tmp.Parts {
		part, err := decodeRequestPart(raw)
		if err != nil {
			return fmt.Errorf("decode parts[%d]: %w", i, err)
		}
		r.Parts = append(r.Parts, part)
	}
	return nil
}

// MarshalJSON encodes a ModelResponse while preserving the concrete
// ResponsePart type of each element via an explicit "part_kind"
// discriminator.
func (r ModelResponse) MarshalJSON() ([]byte, error) {
	type alias struct {
		Parts        []any        `json:"parts"`
		ModelName    string       `json:"model_name,omitempty"`
		Usage        RequestUsage `json:"usage"`
		FinishReason FinishReason `json:"finish_reason,omitempty"`
	}
	parts := make([]any, 0, len(r.Parts))
	for i, p := range r.Parts {
		enc, err := encodeResponsePart(p)
		if err != nil {
			return nil, fmt.Errorf("encode parts[%d]: %w", i, err)
		}
		parts = append(parts, enc)
	}
	return json.Marshal(alias{
		Parts:        parts,
		ModelName:    r.ModelName,
		Usage:        r.Usage,
		FinishReason: r.FinishReason,
	})
}

// UnmarshalJSON decodes a ModelResponse, materializing concrete
// ResponsePart implementations from the "part_kind" discriminator.
func (r *ModelResponse) UnmarshalJSON(data []byte) error {
	type alias struct {
		Parts        []json.RawMessage `json:"parts"`
		ModelName    string            `json:"model_name"`
		Usage        RequestUsage      `json:"usage"`
		FinishReason FinishReason      `json:"finish_reason"`
	}
	var tmp alias
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	r.ModelName = tmp.ModelName
	r.Usage = tmp.Usage
	r.FinishReason = tmp.FinishReason
	r.Parts = make([]ResponsePart, 0, len(tmp.Parts))
	for i, raw := range tmp.Parts {
		part, err := decodeResponsePart(raw)
		if err != nil {
			return fmt.Errorf("decode parts[%d]: %w", i, err)
		}
		r.Parts = append(r.Parts, part)
	}
	return nil
}

func encodeRequestPart(p RequestPart) (any, error) {
	switch v := p.(type) {
	case SystemPromptPart:
		return struct {
			Kind string `json:"part_kind"`
			SystemPromptPart
		}{"system-prompt", v}, nil
	case UserPromptPart:
		content := make([]any, 0, len(v.Content))
		for i, c := range v.Content {
			enc, err := encodeUserContent(c)
			if err != nil {
				return nil, fmt.Errorf("encode content[%d]: %w", i, err)
			}
			content = append(content, enc)
		}
		return struct {
			Kind      string    `json:"part_kind"`
			Content   []any     `json:"content"`
			Timestamp time.Time `json:"timestamp"`
		}{"user-prompt", content, v.Timestamp}, nil
	case ToolReturnPart:
		return struct {
			Kind string `json:"part_kind"`
			ToolReturnPart
		}{"tool-return", v}, nil
	case RetryPromptPart:
		return struct {
			Kind string `json:"part_kind"`
			RetryPromptPart
		}{"retry-prompt", v}, nil
	case BuiltinToolReturnPart:
		return struct {
			Kind string `json:"part_kind"`
			BuiltinToolReturnPart
		}{"builtin-tool-return", v}, nil
	default:
		return nil, fmt.Errorf("unknown request part type %T", p)
	}
}

func decodeRequestPart(raw json.RawMessage) (RequestPart, error) {
	kind, obj, err := peekKind(raw)
	if err != nil {
		return nil, err
	}
	switch kind {
	case "system-prompt":
		var v SystemPromptPart
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode SystemPromptPart: %w", err)
		}
		return v, nil
	case "user-prompt":
		var tmp struct {
			Content   []json.RawMessage `json:"content"`
			Timestamp time.Time         `json:"timestamp"`
		}
		if err := json.Unmarshal(raw, &tmp); err != nil {
			return nil, fmt.Errorf("decode UserPromptPart: %w", err)
		}
		content := make([]UserContent, 0, len(tmp.Content))
		for i, c := range tmp.Content {
			dec, err := decodeUserContent(c)
			if err != nil {
				return nil, fmt.Errorf("decode content[%d]: %w", i, err)
			}
			content = append(content, dec)
		}
		return UserPromptPart{Content: content, Timestamp: tmp.Timestamp}, nil
	case "tool-return":
		var v ToolReturnPart
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode ToolReturnPart: %w", err)
		}
		return v, nil
	case "retry-prompt":
		var v RetryPromptPart
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode RetryPromptPart: %w", err)
		}
		return v, nil
	case "builtin-tool-return":
		var v BuiltinToolReturnPart
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode BuiltinToolReturnPart: %w", err)
		}
		return v, nil
	default:
		_ = obj
		return nil, fmt.Errorf("unknown request part kind %q", kind)
	}
}

func encodeResponsePart(p ResponsePart) (any, error) {
	switch v := p.(type) {
	case TextPart:
		return struct {
			Kind string `json:"part_kind"`
			TextPart
		}{"text", v}, nil
	case ThinkingPart:
		return struct {
			Kind string `json:"part_kind"`
			ThinkingPart
		}{"thinking", v}, nil
	case ToolCallPart:
		return struct {
			Kind            string         `json:"part_kind"`
			ToolName        string         `json:"tool_name"`
			Args            any            `json:"args"`
			ToolCallID      string         `json:"tool_call_id,omitempty"`
			ID              string         `json:"id,omitempty"`
			ProviderDetails map[string]any `json:"provider_details,omitempty"`
		}{"tool-call", v.ToolName, v.Args.ToJSONValue(), v.ToolCallID, v.ID, v.ProviderDetails}, nil
	case BuiltinToolCallPart:
		return struct {
			Kind            string         `json:"part_kind"`
			ToolName        string         `json:"tool_name"`
			Args            any            `json:"args"`
			ToolCallID      string         `json:"tool_call_id,omitempty"`
			ProviderDetails map[string]any `json:"provider_details,omitempty"`
		}{"builtin-tool-call", v.ToolName, v.Args.ToJSONValue(), v.ToolCallID, v.ProviderDetails}, nil
	case FilePart:
		return struct {
			Kind string `json:"part_kind"`
			FilePart
		}{"file", v}, nil
	default:
		return nil, fmt.Errorf("unknown response part type %T", p)
	}
}

func decodeResponsePart(raw json.RawMessage) (ResponsePart, error) {
	kind, _, err := peekKind(raw)
	if err != nil {
		return nil, err
	}
	switch kind {
	case "text":
		var v TextPart
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode TextPart: %w", err)
		}
		return v, nil
	case "thinking":
		var v ThinkingPart
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode ThinkingPart: %w", err)
		}
		return v, nil
	case "tool-call":
		var tmp struct {
			ToolName        string         `json:"tool_name"`
			Args            any            `json:"args"`
			ToolCallID      string         `json:"tool_call_id"`
			ID              string         `json:"id"`
			ProviderDetails map[string]any `json:"provider_details"`
		}
		if err := json.Unmarshal(raw, &tmp); err != nil {
			return nil, fmt.Errorf("decode ToolCallPart: %w", err)
		}
		return ToolCallPart{
			ToolName:        tmp.ToolName,
			Args:            NewToolCallArgsJSON(tmp.Args),
			ToolCallID:      tmp.ToolCallID,
			ID:              tmp.ID,
			ProviderDetails: tmp.ProviderDetails,
		}, nil
	case "builtin-tool-call":
		var tmp struct {
			ToolName        string         `json:"tool_name"`
			Args            any            `json:"args"`
			ToolCallID      string         `json:"tool_call_id"`
			ProviderDetails map[string]any `json:"provider_details"`
		}
		if err := json.Unmarshal(raw, &tmp); err != nil {
			return nil, fmt.Errorf("decode BuiltinToolCallPart: %w", err)
		}
		return BuiltinToolCallPart{
			ToolName:        tmp.ToolName,
			Args:            NewToolCallArgsJSON(tmp.Args),
			ToolCallID:      tmp.ToolCallID,
			ProviderDetails: tmp.ProviderDetails,
		}, nil
	case "file":
		var v FilePart
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode FilePart: %w", err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("unknown response part kind %q", kind)
	}
}

func encodeUserContent(c UserContent) (any, error) {
	switch v := c.(type) {
	case TextContent:
		return struct {
			Kind string `json:"content_kind"`
			TextContent
		}{"text", v}, nil
	case ImageContent:
		return struct {
			Kind string `json:"content_kind"`
			ImageContent
		}{"image", v}, nil
	case DocumentContent:
		return struct {
			Kind string `json:"content_kind"`
			DocumentContent
		}{"document", v}, nil
	case AudioContent:
		return struct {
			Kind string `json:"content_kind"`
			AudioContent
		}{"audio", v}, nil
	default:
		return nil, fmt.Errorf("unknown user content type %T", c)
	}
}

func decodeUserContent(raw json.RawMessage) (UserContent, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("decode content object: %w", err)
	}
	kindRaw, ok := obj["content_kind"]
	if !ok {
		return nil, errors.New("missing content_kind")
	}
	var kind string
	if err := json.Unmarshal(kindRaw, &kind); err != nil {
		return nil, fmt.Errorf("decode content_kind: %w", err)
	}
	switch kind {
	case "text":
		var v TextContent
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return v, nil
	case "image":
		var v ImageContent
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return v, nil
	case "document":
		var v DocumentContent
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return v, nil
	case "audio":
		var v AudioContent
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return v, nil
	default:
		return nil, fmt.Errorf("unknown content kind %q", kind)
	}
}

func peekKind(raw json.RawMessage) (string, map[string]json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", nil, fmt.Errorf("decode part object: %w", err)
	}
	kindRaw, ok := obj["part_kind"]
	if !ok {
		return "", obj, errors.New("missing part_kind")
	}
	var kind string
	if err := json.Unmarshal(kindRaw, &kind); err != nil {
		return "", obj, fmt.Errorf("decode part_kind: %w", err)
	}
	return kind, obj, nil
}
