// Package openai adapts github.com/openai/openai-go's Chat Completions API
// to the model.Model interface.
package openai

import (
	"context"
	"errors"
	"strconv"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/agentkit/runtime/runtime/agent/message"
	"github.com/agentkit/runtime/runtime/agent/model"
	"github.com/agentkit/runtime/runtime/agent/streaming"
)

// Model adapts an openai.Client into model.Model. It also serves
// OpenAI-compatible endpoints (Azure OpenAI, Ollama, local gateways) that
// accept a custom base URL, mirroring the teacher adapter's scope.
type Model struct {
	client       openai.Client
	name         string
	defaultModel string
}

// Config configures a new Model.
type Config struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
}

// New constructs a Model from cfg.
func New(cfg Config) *Model {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Model{
		client:       openai.NewClient(opts...),
		name:         "openai:" + cfg.DefaultModel,
		defaultModel: cfg.DefaultModel,
	}
}

// Name implements model.Model.
func (m *Model) Name() string { return m.name }

// Profile describes Chat Completions capabilities: no dedicated thinking
// channel (reasoning models inline it into content) and no prompt caching
// control exposed through this API.
func (m *Model) Profile() model.Profile {
	return model.Profile{
		SupportsStreaming:    true,
		SupportsParallelTool: true,
		SupportsToolChoice:   true,
	}
}

func (m *Model) buildParams(messages []message.ModelMessage, params model.ModelRequestParameters) (openai.ChatCompletionNewParams, error) {
	msgs, err := buildMessages(messages)
	if err != nil {
		return openai.ChatCompletionNewParams{}, err
	}
	out := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(m.defaultModel),
		Messages: msgs,
	}
	if params.Settings.Temperature != nil {
		out.Temperature = openai.Float(*params.Settings.Temperature)
	}
	if params.Settings.TopP != nil {
		out.TopP = openai.Float(*params.Settings.TopP)
	}
	if params.Settings.MaxTokens > 0 {
		out.MaxTokens = openai.Int(int64(params.Settings.MaxTokens))
	}
	if len(params.Settings.Stop) > 0 {
		out.Stop.OfStringArray = params.Settings.Stop
	}
	if params.Settings.ParallelToolCalls != nil {
		out.ParallelToolCalls = openai.Bool(*params.Settings.ParallelToolCalls)
	}
	if len(params.ToolDefs) > 0 {
		out.Tools = buildTools(params.ToolDefs)
		out.ToolChoice = buildToolChoice(params.ToolChoice)
	}
	return out, nil
}

// Request implements model.Model with a single non-streaming invocation.
func (m *Model) Request(ctx context.Context, messages []message.ModelMessage, params model.ModelRequestParameters) (*message.ModelResponse, error) {
	reqParams, err := m.buildParams(messages, params)
	if err != nil {
		return nil, err
	}
	completion, err := m.client.Chat.Completions.New(ctx, reqParams)
	if err != nil {
		return nil, wrapError(err)
	}
	return convertResponse(completion), nil
}

// RequestStream implements model.Model, streaming via the Chat Completions
// streaming endpoint and translating chunks through a
// streaming.PartsManager.
func (m *Model) RequestStream(ctx context.Context, messages []message.ModelMessage, params model.ModelRequestParameters) (model.StreamedResponse, error) {
	reqParams, err := m.buildParams(messages, params)
	if err != nil {
		return nil, err
	}
	sdkStream := m.client.Chat.Completions.NewStreaming(ctx, reqParams)
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
	Current() openai.ChatCompletionChunk
	Err() error
}) {
	defer close(sr.done)
	defer close(sr.events)

	for stream.Next() {
		chunk := stream.Current()
		if chunk.Model != "" {
			sr.modelName = chunk.Model
		}
		if chunk.Usage.TotalTokens > 0 {
			sr.usage.InputTokens = int(chunk.Usage.PromptTokens)
			sr.usage.OutputTokens = int(chunk.Usage.CompletionTokens)
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta
		if delta.Content != "" {
			for _, ev := range sr.manager.HandleTextDelta("0", delta.Content) {
				sr.events <- ev
			}
		}
		for _, tc := range delta.ToolCalls {
			vendorID := strconv.FormatInt(tc.Index, 10)
			for _, ev := range sr.manager.HandleToolCallDelta(vendorID, tc.ID, tc.Function.Name, tc.Function.Arguments) {
				sr.events <- ev
			}
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

func convertResponse(completion *openai.ChatCompletion) *message.ModelResponse {
	out := &message.ModelResponse{
		ModelName: completion.Model,
		Usage: message.RequestUsage{
			InputTokens:  int(completion.Usage.PromptTokens),
			OutputTokens: int(completion.Usage.CompletionTokens),
		},
		FinishReason: message.FinishReasonUnknown,
	}
	if len(completion.Choices) == 0 {
		return out
	}
	choice := completion.Choices[0]
	if choice.Message.Content != "" {
		out.Parts = append(out.Parts, message.TextPart{Content: choice.Message.Content})
	}
	for _, tc := range choice.Message.ToolCalls {
		out.Parts = append(out.Parts, message.ToolCallPart{
			ToolName:   tc.Function.Name,
			ToolCallID: tc.ID,
			Args:       message.NewToolCallArgsString(tc.Function.Arguments),
		})
	}
	switch choice.FinishReason {
	case "tool_calls":
		out.FinishReason = message.FinishReasonToolCalls
	case "length":
		out.FinishReason = message.FinishReasonLength
	case "content_filter":
		out.FinishReason = message.FinishReasonContentFilter
	case "stop":
		out.FinishReason = message.FinishReasonStop
	}
	return out
}

func wrapError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		me := model.NewError("openai", classifyStatus(apiErr.StatusCode), apiErr.Error()).
			WithHTTPStatus(apiErr.StatusCode).
			WithCause(err)
		return me.WithRetryable(me.Kind() == model.KindRateLimited || apiErr.StatusCode >= 500)
	}
	return model.NewError("openai", model.KindOther, err.Error()).WithCause(err)
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
