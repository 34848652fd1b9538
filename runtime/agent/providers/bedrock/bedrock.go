// Package bedrock adapts the AWS Bedrock Converse API to the model.Model
// interface.
package bedrock

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	smithy "github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/agentkit/runtime/runtime/agent/message"
	"github.com/agentkit/runtime/runtime/agent/model"
	"github.com/agentkit/runtime/runtime/agent/streaming"
)

// RuntimeClient is the subset of *bedrockruntime.Client the adapter needs,
// narrowed so tests can substitute a fake.
type RuntimeClient interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
	ConverseStream(ctx context.Context, params *bedrockruntime.ConverseStreamInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseStreamOutput, error)
}

// Model adapts a Bedrock RuntimeClient into model.Model via the Converse
// API.
type Model struct {
	runtime      RuntimeClient
	name         string
	defaultModel string
	maxTokens    int32
	temperature  float32
}

// Config configures a new Model.
type Config struct {
	Runtime      RuntimeClient
	DefaultModel string
	MaxTokens    int32
	Temperature  float32
}

// New constructs a Model from cfg.
func New(cfg Config) (*Model, error) {
	if cfg.Runtime == nil {
		return nil, errors.New("bedrock: runtime client is required")
	}
	if cfg.DefaultModel == "" {
		return nil, errors.New("bedrock: default model identifier is required")
	}
	return &Model{
		runtime:      cfg.Runtime,
		name:         "bedrock:" + cfg.DefaultModel,
		defaultModel: cfg.DefaultModel,
		maxTokens:    cfg.MaxTokens,
		temperature:  cfg.Temperature,
	}, nil
}

// Name implements model.Model.
func (m *Model) Name() string { return m.name }

// Profile describes Converse API capabilities. Thinking (reasoning content)
// is supported on Claude-family models behind Bedrock but not universally
// across every model this adapter can address, so callers should confirm
// thinking support against the concrete model ID before enabling it.
func (m *Model) Profile() model.Profile {
	return model.Profile{
		SupportsStreaming:    true,
		SupportsParallelTool: true,
		SupportsThinking:     true,
		SupportsToolChoice:   true,
		SupportsCaching:      true,
	}
}

type requestParts struct {
	messages   []brtypes.Message
	system     []brtypes.SystemContentBlock
	toolConfig *brtypes.ToolConfiguration
	names      toolNameMap
}

func (m *Model) prepareRequest(messages []message.ModelMessage, params model.ModelRequestParameters) (*requestParts, error) {
	toolConfig, names, err := buildTools(params.ToolDefs, params.ToolChoice)
	if err != nil {
		return nil, err
	}
	msgs, system, err := buildMessages(messages, names)
	if err != nil {
		return nil, err
	}
	return &requestParts{messages: msgs, system: system, toolConfig: toolConfig, names: names}, nil
}

func (m *Model) inferenceConfig(params model.ModelRequestParameters) *brtypes.InferenceConfiguration {
	var cfg brtypes.InferenceConfiguration
	maxTokens := m.maxTokens
	if params.Settings.MaxTokens > 0 {
		maxTokens = int32(params.Settings.MaxTokens)
	}
	if maxTokens > 0 {
		cfg.MaxTokens = aws.Int32(maxTokens)
	}
	temp := m.temperature
	if params.Settings.Temperature != nil {
		temp = float32(*params.Settings.Temperature)
	}
	if temp > 0 {
		cfg.Temperature = aws.Float32(temp)
	}
	if cfg.MaxTokens == nil && cfg.Temperature == nil {
		return nil
	}
	return &cfg
}

// Request implements model.Model with a single non-streaming invocation.
func (m *Model) Request(ctx context.Context, messages []message.ModelMessage, params model.ModelRequestParameters) (*message.ModelResponse, error) {
	parts, err := m.prepareRequest(messages, params)
	if err != nil {
		return nil, err
	}
	input := &bedrockruntime.ConverseInput{
		ModelId:  aws.String(m.defaultModel),
		Messages: parts.messages,
	}
	if len(parts.system) > 0 {
		input.System = parts.system
	}
	if parts.toolConfig != nil {
		input.ToolConfig = parts.toolConfig
	}
	input.InferenceConfig = m.inferenceConfig(params)

	output, err := m.runtime.Converse(ctx, input)
	if err != nil {
		return nil, wrapError(err)
	}
	return convertResponse(output, parts.names)
}

// RequestStream implements model.Model, streaming via Bedrock's
// ConverseStream API and translating events through a
// streaming.PartsManager.
func (m *Model) RequestStream(ctx context.Context, messages []message.ModelMessage, params model.ModelRequestParameters) (model.StreamedResponse, error) {
	parts, err := m.prepareRequest(messages, params)
	if err != nil {
		return nil, err
	}
	input := &bedrockruntime.ConverseStreamInput{
		ModelId:  aws.String(m.defaultModel),
		Messages: parts.messages,
	}
	if len(parts.system) > 0 {
		input.System = parts.system
	}
	if parts.toolConfig != nil {
		input.ToolConfig = parts.toolConfig
	}
	input.InferenceConfig = m.inferenceConfig(params)

	var opts []func(*bedrockruntime.Options)
	if params.Thinking.Enabled {
		opts = append(opts, bedrockruntime.WithAPIOptions(
			smithyhttp.AddHeaderValue("x-amzn-bedrock-beta", "interleaved-thinking-2025-05-14"),
		))
	}

	output, err := m.runtime.ConverseStream(ctx, input, opts...)
	if err != nil {
		return nil, wrapError(err)
	}
	stream := output.GetStream()
	if stream == nil {
		return nil, fmt.Errorf("bedrock: stream output missing event stream")
	}
	sr := &streamedResponse{
		events:  make(chan streaming.Event, 16),
		manager: streaming.NewPartsManager(false, false),
		done:    make(chan struct{}),
		names:   parts.names,
	}
	go sr.consume(stream)
	return sr, nil
}

type streamedResponse struct {
	events  chan streaming.Event
	manager *streaming.PartsManager
	done    chan struct{}
	names   toolNameMap
	err     error
	usage   message.RequestUsage
	final   *message.ModelResponse
}

func (sr *streamedResponse) Events() <-chan streaming.Event { return sr.events }

func (sr *streamedResponse) Final() (*message.ModelResponse, error) {
	<-sr.done
	if sr.err != nil {
		return nil, sr.err
	}
	return sr.final, nil
}

func (sr *streamedResponse) Err() error {
	<-sr.done
	return sr.err
}

func (sr *streamedResponse) Close() error { return nil }

func (sr *streamedResponse) consume(stream *bedrockruntime.ConverseStreamEventStream) {
	defer close(sr.done)
	defer close(sr.events)
	defer stream.Close()

	for event := range stream.Events() {
		switch ev := event.(type) {
		case *brtypes.ConverseStreamOutputMemberContentBlockStart:
			idx := ev.Value.ContentBlockIndex
			vendorID := vendorIDFor(idx)
			if start, ok := ev.Value.Start.(*brtypes.ContentBlockStartMemberToolUse); ok {
				name := ""
				if start.Value.Name != nil {
					name = sr.names.safeToCanon[*start.Value.Name]
				}
				id := ""
				if start.Value.ToolUseId != nil {
					id = *start.Value.ToolUseId
				}
				for _, e := range sr.manager.HandleToolCallDelta(vendorID, id, name, "") {
					sr.events <- e
				}
			}
		case *brtypes.ConverseStreamOutputMemberContentBlockDelta:
			idx := ev.Value.ContentBlockIndex
			vendorID := vendorIDFor(idx)
			switch delta := ev.Value.Delta.(type) {
			case *brtypes.ContentBlockDeltaMemberText:
				for _, e := range sr.manager.HandleTextDelta(vendorID, delta.Value) {
					sr.events <- e
				}
			case *brtypes.ContentBlockDeltaMemberToolUse:
				input := ""
				if delta.Value.Input != nil {
					input = *delta.Value.Input
				}
				for _, e := range sr.manager.HandleToolCallDelta(vendorID, "", "", input) {
					sr.events <- e
				}
			case *brtypes.ContentBlockDeltaMemberReasoningContent:
				if rc, ok := delta.Value.(*brtypes.ReasoningContentBlockDeltaMemberText); ok {
					for _, e := range sr.manager.HandleThinkingDelta(vendorID, rc.Value) {
						sr.events <- e
					}
				}
			}
		case *brtypes.ConverseStreamOutputMemberMetadata:
			if ev.Value.Usage != nil {
				sr.usage.InputTokens = int(ptrValue(ev.Value.Usage.InputTokens))
				sr.usage.OutputTokens = int(ptrValue(ev.Value.Usage.OutputTokens))
				sr.usage.CacheReadTokens = int(ptrValue(ev.Value.Usage.CacheReadInputTokens))
				sr.usage.CacheWriteTokens = int(ptrValue(ev.Value.Usage.CacheWriteInputTokens))
			}
		}
	}

	for _, e := range sr.manager.Close() {
		sr.events <- e
	}

	if err := stream.Err(); err != nil {
		sr.err = wrapError(err)
		return
	}

	sr.final = &message.ModelResponse{
		Parts:        sr.manager.Snapshot(),
		Usage:        sr.usage,
		FinishReason: message.FinishReasonStop,
	}
	for _, p := range sr.final.Parts {
		if _, ok := p.(message.ToolCallPart); ok {
			sr.final.FinishReason = message.FinishReasonToolCalls
			break
		}
	}
}

func vendorIDFor(idx int32) string {
	return fmt.Sprintf("%d", idx)
}

func convertResponse(output *bedrockruntime.ConverseOutput, names toolNameMap) (*message.ModelResponse, error) {
	if output == nil {
		return nil, errors.New("bedrock: response is nil")
	}
	resp := &message.ModelResponse{}
	if msg, ok := output.Output.(*brtypes.ConverseOutputMemberMessage); ok {
		for _, block := range msg.Value.Content {
			switch v := block.(type) {
			case *brtypes.ContentBlockMemberText:
				if v.Value != "" {
					resp.Parts = append(resp.Parts, message.TextPart{Content: v.Value})
				}
			case *brtypes.ContentBlockMemberReasoningContent:
				if rc, ok := v.Value.(*brtypes.ReasoningContentBlockMemberReasoningText); ok {
					resp.Parts = append(resp.Parts, message.ThinkingPart{
						Content:      aws.ToString(rc.Value.Text),
						Signature:    aws.ToString(rc.Value.Signature),
						ProviderName: "bedrock",
					})
				}
			case *brtypes.ContentBlockMemberToolUse:
				name := ""
				if v.Value.Name != nil {
					name = names.safeToCanon[*v.Value.Name]
				}
				id := ""
				if v.Value.ToolUseId != nil {
					id = *v.Value.ToolUseId
				}
				raw := decodeDocument(v.Value.Input)
				resp.Parts = append(resp.Parts, message.ToolCallPart{
					ToolName:   name,
					ToolCallID: id,
					Args:       message.NewToolCallArgsString(string(raw)),
				})
			}
		}
	}
	if usage := output.Usage; usage != nil {
		resp.Usage = message.RequestUsage{
			InputTokens:      int(ptrValue(usage.InputTokens)),
			OutputTokens:     int(ptrValue(usage.OutputTokens)),
			CacheReadTokens:  int(ptrValue(usage.CacheReadInputTokens)),
			CacheWriteTokens: int(ptrValue(usage.CacheWriteInputTokens)),
		}
	}
	switch output.StopReason {
	case brtypes.StopReasonToolUse:
		resp.FinishReason = message.FinishReasonToolCalls
	case brtypes.StopReasonMaxTokens:
		resp.FinishReason = message.FinishReasonLength
	case brtypes.StopReasonEndTurn:
		resp.FinishReason = message.FinishReasonEndTurn
	case brtypes.StopReasonStopSequence:
		resp.FinishReason = message.FinishReasonStop
	case brtypes.StopReasonContentFiltered:
		resp.FinishReason = message.FinishReasonContentFilter
	default:
		resp.FinishReason = message.FinishReasonUnknown
	}
	return resp, nil
}

func wrapError(err error) error {
	if isRateLimited(err) {
		return model.NewError("bedrock", model.KindRateLimited, err.Error()).WithCause(err).WithRetryable(true)
	}
	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) {
		status := respErr.HTTPStatusCode()
		me := model.NewError("bedrock", classifyStatus(status), err.Error()).WithHTTPStatus(status).WithCause(err)
		return me.WithRetryable(status >= 500)
	}
	return model.NewError("bedrock", model.KindOther, err.Error()).WithCause(err)
}

func isRateLimited(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ThrottlingException", "TooManyRequestsException":
			return true
		}
	}
	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == 429 {
		return true
	}
	return false
}

func classifyStatus(status int) model.ErrorKind {
	switch {
	case status == 401 || status == 403:
		return model.KindAuth
	case status == 429:
		return model.KindRateLimited
	case status == 404:
		return model.KindNotFound
	case status >= 500:
		return model.KindHTTP
	case status >= 400:
		return model.KindHTTP
	default:
		return model.KindOther
	}
}
