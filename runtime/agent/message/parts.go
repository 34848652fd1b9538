// Package message defines the provider-agnostic message and part model
// shared by model clients, the streaming parts manager, and tool
// dispatch. Messages are modeled as typed parts rather than flattened
// strings so that structure (thinking, tool calls, tool returns, file
// content) survives round-trips through providers and UI adapters.
package message

import (
	"encoding/json"
	"time"
)

type (
	// Part is the marker interface implemented by every message part, both
	// request-side (what callers send to a model) and response-side (what a
	// model produces). It is a closed sum type: only the part types defined
	// in this package implement it.
	Part interface {
		isPart()
	}

	// RequestPart is implemented by parts that belong to a ModelRequest.
	RequestPart interface {
		Part
		isRequestPart()
	}

	// ResponsePart is implemented by parts that belong to a ModelResponse.
	ResponsePart interface {
		Part
		isResponsePart()
	}

	// Role identifies the speaker of a message.
	Role string

	// SystemPromptPart carries system-level instructions for the model.
	//
	// System prompts are typically placed first in a request's message list
	// and are not subject to the same retry/repair handling as user content.
	SystemPromptPart struct {
		// Content is the instruction text.
		Content string

		// Timestamp records when the system prompt was attached, when known.
		Timestamp time.Time

		// DynamicRef optionally names the dynamic prompt function that produced
		// this part, for prompts assembled at run time rather than authored
		// statically.
		DynamicRef string
	}

	// UserPromptPart carries user-authored content for a single turn.
	//
	// Content is multimodal: a user turn may mix text, image, document, and
	// audio content blocks in a single part.
	UserPromptPart struct {
		// Content is the ordered list of content blocks for this user turn.
		Content []UserContent

		// Timestamp records when the user content was produced, when known.
		Timestamp time.Time
	}

	// UserContent is a single content block within a UserPromptPart. It is a
	// closed sum type distinct from Part because user content never appears
	// outside a UserPromptPart.
	UserContent interface {
		isUserContent()
	}

	// TextContent is plain user-authored text.
	TextContent struct {
		Text string
	}

	// ImageContent carries image bytes or a reference URL attached to a user
	// turn.
	ImageContent struct {
		// MediaType is the IANA media type (for example "image/png").
		MediaType string
		// Data carries inline image bytes when the image is not referenced by URL.
		Data []byte
		// URL references the image externally when not provided inline.
		URL string
	}

	// DocumentContent carries document bytes or a reference URL attached to a
	// user turn.
	DocumentContent struct {
		// MediaType is the IANA media type (for example "application/pdf").
		MediaType string
		// Data carries inline document bytes when the document is not referenced by URL.
		Data []byte
		// URL references the document externally when not provided inline.
		URL string
		// Name is a short identifier for the document, used in citations.
		Name string
	}

	// AudioContent carries audio bytes or a reference URL attached to a user
	// turn.
	AudioContent struct {
		// MediaType is the IANA media type (for example "audio/wav").
		MediaType string
		// Data carries inline audio bytes when the audio is not referenced by URL.
		Data []byte
		// URL references the audio externally when not provided inline.
		URL string
	}

	// ToolReturnPart carries the result of a previously requested tool call
	// back to the model as part of a subsequent request.
	ToolReturnPart struct {
		// ToolName is the tool identifier the result corresponds to.
		ToolName string

		// ToolCallID correlates this result to the ToolCallPart.ToolCallID that
		// requested it.
		ToolCallID string

		// Content is the JSON-compatible result payload.
		Content any

		// IsError reports whether Content represents a tool failure rather
		// than a successful result.
		IsError bool

		// Timestamp records when the tool finished executing, when known.
		Timestamp time.Time
	}

	// RetryPromptPart asks the model to retry after a tool call failed
	// validation or execution. It carries enough detail for the model to
	// correct its next attempt.
	RetryPromptPart struct {
		// ToolName identifies the tool whose call is being retried. Empty when
		// the retry is not tool-specific (for example, a malformed response
		// that could not be parsed at all).
		ToolName string

		// ToolCallID correlates this retry to the originating tool call, when
		// applicable.
		ToolCallID string

		// Content describes what went wrong and how to fix it. It may be a
		// plain string or a structured list of field-level issues.
		Content any

		// Timestamp records when the retry was generated, when known.
		Timestamp time.Time
	}

	// BuiltinToolReturnPart carries the result of a provider-native tool
	// (web search, code execution, file search) back to the model as part
	// of a subsequent request. Unlike ToolReturnPart, the tool was never
	// dispatched through the local registry: the provider executed it
	// itself and reports both the call and its result.
	BuiltinToolReturnPart struct {
		// ToolName is the provider-native tool identifier (for example
		// "web_search").
		ToolName string

		// ToolCallID correlates this result to the BuiltinToolCallPart that
		// requested it.
		ToolCallID string

		// Content is the JSON-compatible result payload.
		Content any

		// ProviderDetails carries provider-specific metadata opaque to the
		// core (citations, search result lists, and similar), round-tripped
		// verbatim.
		ProviderDetails map[string]any

		// Timestamp records when the builtin tool call finished, when known.
		Timestamp time.Time
	}

	// TextPart is plain assistant-generated text.
	TextPart struct {
		// Content is the generated text.
		Content string

		// ID is a provider-issued identifier for this part, when the
		// provider assigns one, used by the streaming parts manager to
		// correlate deltas across chunks.
		ID string

		// ProviderDetails carries provider-specific metadata opaque to the
		// core, round-tripped verbatim.
		ProviderDetails map[string]any
	}

	// ThinkingPart is provider-issued reasoning content.
	//
	// Signature and ProviderName are opaque metadata threaded back to the
	// provider verbatim on subsequent turns, as required by providers that
	// validate reasoning continuity (for example Anthropic's extended
	// thinking signatures).
	ThinkingPart struct {
		// Content is the reasoning text when available in plaintext.
		Content string

		// Signature is a provider-issued signature for Content, when present.
		Signature string

		// ProviderName identifies the provider that generated this thinking
		// block, needed to round-trip Signature correctly on providers that
		// validate it.
		ProviderName string

		// ID is a provider-issued identifier for this part, when present.
		ID string

		// ProviderDetails carries provider-specific metadata opaque to the
		// core, round-tripped verbatim.
		ProviderDetails map[string]any
	}

	// ToolCallPart is a tool invocation requested by the model.
	ToolCallPart struct {
		// ToolName is the tool identifier requested by the model.
		ToolName string

		// Args carries the (possibly still-accumulating) arguments for the
		// call. See ToolCallArgs for the JSON repair semantics applied when
		// reading Args back as JSON.
		Args ToolCallArgs

		// ToolCallID is the provider-issued identifier correlating this call
		// to its eventual ToolReturnPart.
		ToolCallID string

		// ID is a provider-issued identifier for this part, distinct from
		// ToolCallID on providers that assign both a block id and a
		// call id (for example Anthropic's tool_use blocks).
		ID string

		// ProviderDetails carries provider-specific metadata opaque to the
		// core, round-tripped verbatim.
		ProviderDetails map[string]any
	}

	// BuiltinToolCallPart is a provider-native tool invocation (web search,
	// code execution, file search) the provider executed itself rather
	// than asking the caller to dispatch. It is recorded in the response
	// history but never routed through the local tool registry.
	BuiltinToolCallPart struct {
		// ToolName is the provider-native tool identifier.
		ToolName string

		// Args carries the (possibly still-accumulating) arguments for the
		// call, with the same repair semantics as ToolCallPart.Args.
		Args ToolCallArgs

		// ToolCallID is the provider-issued identifier correlating this call
		// to its eventual BuiltinToolReturnPart, when the provider reports
		// one inline.
		ToolCallID string

		// ProviderDetails carries provider-specific metadata opaque to the
		// core, round-tripped verbatim.
		ProviderDetails map[string]any
	}

	// FilePart is file content produced by the model (for example, generated
	// images or documents). Unlike text/thinking/tool-call parts, file parts
	// are never streamed incrementally: a provider adapter emits a FilePart
	// only once its content is complete.
	FilePart struct {
		// MediaType is the IANA media type of Data.
		MediaType string
		// Data carries the raw file bytes.
		Data []byte
		// Name is a short identifier for the generated file, when provided.
		Name string

		// ProviderName identifies the provider that generated this file.
		ProviderName string

		// ProviderDetails carries provider-specific metadata opaque to the
		// core, round-tripped verbatim.
		ProviderDetails map[string]any
	}
)

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (SystemPromptPart) isPart()        {}
func (SystemPromptPart) isRequestPart() {}
func (UserPromptPart) isPart()          {}
func (UserPromptPart) isRequestPart()   {}
func (ToolReturnPart) isPart()          {}
func (ToolReturnPart) isRequestPart()   {}
func (RetryPromptPart) isPart()         {}
func (RetryPromptPart) isRequestPart()  {}
func (BuiltinToolReturnPart) isPart()        {}
func (BuiltinToolReturnPart) isRequestPart() {}

func (TextPart) isPart()         {}
func (TextPart) isResponsePart() {}
func (ThinkingPart) isPart()         {}
func (ThinkingPart) isResponsePart() {}
func (ToolCallPart) isPart()         {}
func (ToolCallPart) isResponsePart() {}
func (BuiltinToolCallPart) isPart()         {}
func (BuiltinToolCallPart) isResponsePart() {}
func (FilePart) isPart()         {}
func (FilePart) isResponsePart() {}

func (TextContent) isUserContent()     {}
func (ImageContent) isUserContent()    {}
func (DocumentContent) isUserContent() {}
func (AudioContent) isUserContent()    {}

// AsJSON is a convenience wrapper so json.RawMessage-producing call sites do
// not need to import encoding/json directly. It reports the Args encoded as
// canonical JSON bytes, applying the repair algorithm documented on
// ToolCallArgs when Args holds an in-progress string fragment.
func (p ToolCallPart) AsJSON() (json.RawMessage, error) {
	return p.Args.ToJSONBytes()
}
