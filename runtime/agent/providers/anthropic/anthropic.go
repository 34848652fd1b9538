// Package anthropic adapts github.com/anthropics/anthropic-sdk-go to the
// model.Model interface, translating the provider-agnostic message model
// to and from Anthropic's Messages API.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/agentkit/runtime/runtime/agent/message"
	"github.com/agentkit/runtime/runtime/agent/model"
	"github.com/agentkit/runtime/runtime/agent/streaming"
)

// Model adapts an anthropic.Client into model.Model.
type Model struct {
	client       anthropic.Client
	name         string
	defaultModel string
	maxTokens    int64
}

// Config configures a new Model.
type Config struct {
	// APIKey authenticates against the Anthropic API.
	APIKey string
	// BaseURL overrides the default API endpoint, for proxies or gateways.
	BaseURL string
	// DefaultModel is used when ModelRequestParameters does not pin one via
	// a future per-request override; for now every request uses this.
	DefaultModel string
	// MaxTokens bounds generation length when ModelSettings.MaxTokens is 0.
	MaxTokens int64
}

// New constructs a Model from cfg.
func New(cfg Config) *Model {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &Model{
		client:       anthropic.NewClient(opts...),
		name:         "anthropic:" + cfg.DefaultModel,
		defaultModel: cfg.DefaultModel,
		maxTokens:    maxTokens,
	}
}

// Name implements model.Model.
func (m *Model) Name() string { return m.name }

// Profile describes Claude's capabilities: streaming, parallel tool calls,
// a dedicated thinking channel, explicit tool choice, and prompt caching.
func (m *Model) Profile() model.Profile {
	return model.Profile{
		SupportsStreaming:    true,
		SupportsParallelTool: true,
		SupportsThinking:     true,
		SupportsToolChoice:   true,
		SupportsCaching:      true,
	}
}

func (m *Model) buildParams(messages []message.ModelMessage, params model.ModelRequestParameters) (anthropic.MessageNewParams, error) {
	msgs, err := buildMessages(messages)
	if err != nil {
		return anthropic.MessageNewParams{}, err
	}
	maxTokens := m.maxTokens
	if params.Settings.MaxTokens > 0 {
		maxTokens = int64(params.Settings.MaxTokens)
	}
	out := anthropic.MessageNewParams{
		Model:     anthropic.Model(m.defaultModel),
		Messages:  msgs,
		MaxTokens: maxTokens,
	}
	if system := buildSystem(messages); len(system) > 0 {
		out.System = system
	}
	if params.Settings.Temperature != nil {
		out.Temperature = anthropic.Float(*params.Settings.Temperature)
	}
	if params.Settings.TopP != nil {
		out.TopP = anthropic.Float(*params.Settings.TopP)
	}
	if len(params.Settings.Stop) > 0 {
		out.StopSequences = params.Settings.Stop
	}
	if len(params.ToolDefs) > 0 {
		tools, err := buildTools(params.ToolDefs)
		if err != nil {
			return anthropic.MessageNewParams{}, err
		}
		out.Tools = tools
		out.ToolChoice = buildToolChoice(params.ToolChoice)
	}
	if params.Thinking.Enabled {
		budget := int64(params.Thinking.BudgetTokens)
		if budget < 1024 {
			budget = 1024
		}
		out.Thinking = anthropic.ThinkingConfigParamOfEnabled(budget)
	}
	return out, nil
}

// Request implements model.Model with a single non-streaming invocation.
func (m *Model) Request(ctx context.Context, messages []message.ModelMessage, params model.ModelRequestParameters) (*message.ModelResponse, error) {
	reqParams, err := m.buildParams(messages, params)
	if err != nil {
		return nil, err
	}
	resp, err := m.client.Messages.New(ctx, reqParams)
	if err != nil {
		return nil, wrapError(err)
	}
	return convertResponse(resp), nil
}

// RequestStream implements model.Model, streaming via Anthropic's SSE
// Messages API and translating events through a streaming.PartsManager.
func (m *Model) RequestStream(ctx context.Context, messages []message.ModelMessage, params model.ModelRequestParameters) (model.StreamedResponse, error) {
	reqParams, err := m.buildParams(messages, params)
	if err != nil {
		return nil, err
	}
	sdkStream := m.client.Messages.NewStreaming(ctx, reqParams)
	sr := &streamedResponse{
		events:  make(chan streaming.Event, 16),
		manager: streaming.NewPartsManager(false, false),
		done:    make(chan struct{}),
	}
	go sr.consume(sdkStream)
	return sr, nil
}

type streamedResponse struct {
	events    chan streaming.Event
	manager   *streaming.PartsManager
	done      chan struct{}
	err       error
	modelName string
	usage     message.RequestUsage
	final     *message.ModelResponse
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

func (sr *streamedResponse) consume(stream interface {
	Next() bool
	Current() anthropic.MessageStreamEventUnion
	Err() error
}) {
	defer close(sr.done)
	defer close(sr.events)

	for stream.Next() {
		event := stream.Current()
		vendorID := strconv.Itoa(int(event.Index))

		switch event.Type {
		case "content_block_start":
			start := event.AsContentBlockStart()
			switch start.ContentBlock.Type {
			case "tool_use":
				tu := start.ContentBlock.AsToolUse()
				for _, ev := range sr.manager.HandleToolCallDelta(vendorID, tu.ID, tu.Name, "") {
					sr.events <- ev
				}
			}
		case "content_block_delta":
			delta := event.AsContentBlockDelta().Delta
			switch delta.Type {
			case "text_delta":
				for _, ev := range sr.manager.HandleTextDelta(vendorID, delta.Text) {
					sr.events <- ev
				}
			case "thinking_delta":
				for _, ev := range sr.manager.HandleThinkingDelta(vendorID, delta.Thinking) {
					sr.events <- ev
				}
			case "input_json_delta":
				for _, ev := range sr.manager.HandleToolCallDelta(vendorID, "", "", delta.PartialJSON) {
					sr.events <- ev
				}
			}
		case "message_start":
			ms := event.AsMessageStart()
			sr.modelName = string(ms.Message.Model)
			sr.usage.InputTokens = int(ms.Message.Usage.InputTokens)
			sr.usage.CacheReadTokens = int(ms.Message.Usage.CacheReadInputTokens)
			sr.usage.CacheWriteTokens = int(ms.Message.Usage.CacheCreationInputTokens)
		case "message_delta":
			md := event.AsMessageDelta()
			sr.usage.OutputTokens = int(md.Usage.OutputTokens)
		case "message_stop":
			// handled after loop via manager.Close
		}
	}

	for _, ev := range sr.manager.Close() {
		sr.events <- ev
	}

	if err := stream.Err(); err != nil {
		sr.err = wrapError(err)
		return
	}

	sr.final = &message.ModelResponse{
		Parts:        sr.manager.Snapshot(),
		ModelName:    sr.modelName,
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

func convertResponse(resp *anthropic.Message) *message.ModelResponse {
	out := &message.ModelResponse{
		ModelName: string(resp.Model),
		Usage: message.RequestUsage{
			InputTokens:      int(resp.Usage.InputTokens),
			OutputTokens:     int(resp.Usage.OutputTokens),
			CacheReadTokens:  int(resp.Usage.CacheReadInputTokens),
			CacheWriteTokens: int(resp.Usage.CacheCreationInputTokens),
		},
	}
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			out.Parts = append(out.Parts, message.TextPart{Content: block.AsText().Text})
		case "thinking":
			t := block.AsThinking()
			out.Parts = append(out.Parts, message.ThinkingPart{Content: t.Thinking, Signature: t.Signature, ProviderName: "anthropic"})
		case "tool_use":
			tu := block.AsToolUse()
			raw, _ := json.Marshal(tu.Input)
			out.Parts = append(out.Parts, message.ToolCallPart{
				ToolName:   tu.Name,
				ToolCallID: tu.ID,
				Args:       message.NewToolCallArgsString(string(raw)),
			})
		}
	}
	switch resp.StopReason {
	case anthropic.StopReasonToolUse:
		out.FinishReason = message.FinishReasonToolCalls
	case anthropic.StopReasonMaxTokens:
		out.FinishReason = message.FinishReasonLength
	case anthropic.StopReasonEndTurn:
		out.FinishReason = message.FinishReasonEndTurn
	case anthropic.StopReasonStopSequence:
		out.FinishReason = message.FinishReasonStop
	default:
		out.FinishReason = message.FinishReasonUnknown
	}
	return out
}

func wrapError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		me := model.NewError("anthropic", classifyStatus(apiErr.StatusCode), apiErr.Error()).
			WithHTTPStatus(apiErr.StatusCode).
			WithRequestID(apiErr.RequestID).
			WithCause(err)
		return me.WithRetryable(me.Kind() == model.KindRateLimited || apiErr.StatusCode >= 500)
	}
	return model.NewError("anthropic", model.KindOther, err.Error()).WithCause(err)
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
