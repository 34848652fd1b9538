// Package model defines the provider-agnostic model abstraction: the
// Model interface implemented by every provider adapter, its request
// parameters, and the streaming response contract consumed by the run
// state machine.
package model

import (
	"context"

	"github.com/agentkit/runtime/runtime/agent/message"
	"github.com/agentkit/runtime/runtime/agent/streaming"
)

type (
	// Model is implemented by every provider adapter (Anthropic, OpenAI,
	// Bedrock, ...) and by Fallback. It is the sole integration point the
	// run state machine depends on.
	Model interface {
		// Name identifies the concrete model for logging/telemetry.
		Name() string

		// Request performs a single non-streaming invocation over the given
		// conversation history (alternating ModelRequest/ModelResponse
		// turns, oldest first).
		Request(ctx context.Context, messages []message.ModelMessage, params ModelRequestParameters) (*message.ModelResponse, error)

		// RequestStream performs a streaming invocation. Implementations
		// that do not support streaming return an error wrapping
		// ErrStreamingUnsupported.
		RequestStream(ctx context.Context, messages []message.ModelMessage, params ModelRequestParameters) (StreamedResponse, error)
	}

	// StreamedResponse delivers incremental model output already translated
	// into streaming.Event values by the provider adapter's own
	// streaming.PartsManager. Callers drain Events until it closes, then
	// call Final to obtain the complete ModelResponse.
	StreamedResponse interface {
		// Events returns a channel of streaming events. The channel is
		// closed when the underlying provider stream ends, including on
		// error (in which case Err returns the failure).
		Events() <-chan streaming.Event

		// Final returns the complete, assembled ModelResponse once Events
		// has closed. Calling Final before the channel closes blocks until
		// it does.
		Final() (*message.ModelResponse, error)

		// Err returns the terminal error, if any, after Events closes.
		Err() error

		// Close releases resources associated with the stream. Safe to call
		// multiple times.
		Close() error
	}

	// ModelSettings carries provider-agnostic sampling/limit knobs. A zero
	// value lets the provider apply its own defaults.
	ModelSettings struct {
		Temperature      *float64
		TopP             *float64
		MaxTokens        int
		Stop             []string
		ParallelToolCalls *bool
	}

	// ThinkingOptions configures provider-native extended-reasoning
	// behavior when supported.
	ThinkingOptions struct {
		Enabled      bool
		BudgetTokens int
	}

	// ModelRequestParameters bundles everything a Model needs beyond the
	// message transcript itself: tool definitions, tool-choice policy,
	// sampling settings, and thinking configuration.
	ModelRequestParameters struct {
		ToolDefs    []ToolDefinition
		ToolChoice  *ToolChoice
		Settings    ModelSettings
		Thinking    ThinkingOptions
		SystemAlias string // optional provider-specific system role override
	}

	// ToolDefinition describes a tool exposed to the model: its name,
	// description, and JSON Schema input shape.
	ToolDefinition struct {
		Name        string
		Description string
		InputSchema any
	}

	// ToolChoiceMode controls how a model is allowed to use tools for a
	// request.
	ToolChoiceMode string

	// ToolChoice configures optional tool-use behavior. A nil *ToolChoice on
	// ModelRequestParameters lets the provider apply its default (normally
	// auto).
	ToolChoice struct {
		Mode ToolChoiceMode
		Name string // required when Mode == ToolChoiceModeTool
	}

	// Profile captures static capability/formatting facts about a model
	// family, used by callers to adapt request construction (for example,
	// whether the provider supports parallel tool calls or a dedicated
	// thinking channel).
	Profile struct {
		SupportsStreaming    bool
		SupportsParallelTool bool
		SupportsThinking     bool
		SupportsToolChoice   bool
		SupportsCaching      bool
		// EmbeddedThinkingTags indicates the provider does not expose a
		// dedicated thinking channel and instead emits reasoning inline
		// inside text wrapped in <think>...</think> tags; the streaming
		// parts manager must be constructed with thinking-tag scanning
		// enabled for this profile.
		EmbeddedThinkingTags bool
		// IgnoreStreamedLeadingWhitespace indicates the provider sometimes
		// emits a throwaway whitespace-only text delta before real content
		// begins; the streaming parts manager must be constructed to drop
		// such deltas rather than starting a text part on them.
		IgnoreStreamedLeadingWhitespace bool
	}
)

const (
	ToolChoiceModeAuto ToolChoiceMode = "auto"
	ToolChoiceModeNone ToolChoiceMode = "none"
	ToolChoiceModeAny  ToolChoiceMode = "any"
	ToolChoiceModeTool ToolChoiceMode = "tool"
)

// DefaultProfile is a conservative profile for providers/models with no
// specific capability overrides: streaming only, no parallel tools, no
// thinking, no explicit tool-choice control, no caching.
func DefaultProfile() Profile {
	return Profile{SupportsStreaming: true}
}
