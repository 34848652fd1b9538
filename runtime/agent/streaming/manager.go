package streaming

import (
	"strings"

	"github.com/agentkit/runtime/runtime/agent/message"
)

const (
	thinkOpenTag  = "<think>"
	thinkCloseTag = "</think>"
)

// PartMeta carries a provider-issued part identifier and opaque
// provider-specific metadata for a streamed delta. Both fields are
// optional; zero values are simply not merged. Handle* methods accept it
// as a trailing variadic argument so existing call sites that don't carry
// this metadata are unaffected.
type PartMeta struct {
	ID              string
	ProviderDetails map[string]any
}

func firstMeta(meta []PartMeta) PartMeta {
	if len(meta) == 0 {
		return PartMeta{}
	}
	return meta[0]
}

type managedPart struct {
	vendorID string
	closed   bool

	id              string
	providerDetails map[string]any

	// For text/thinking parts, text accumulates the full content seen so
	// far. For tool calls, toolCall holds the accumulator state instead.
	text     *strings.Builder
	thinking *strings.Builder
	toolCall *toolCallAccumulator
	file     *message.FilePart
}

// mergeMeta folds a newly observed PartMeta into a managedPart. Once an id
// or provider_details value is known it is not overwritten by a later,
// empty observation; a later non-empty observation does replace it, since
// some providers only report provider_details on a part's closing delta.
func (p *managedPart) mergeMeta(meta PartMeta) {
	if meta.ID != "" {
		p.id = meta.ID
	}
	if meta.ProviderDetails != nil {
		p.providerDetails = meta.ProviderDetails
	}
}

type toolCallAccumulator struct {
	toolCallID string
	name       string // empty until the provider resolves the tool name
	args       strings.Builder
	named      bool // true once name becomes known; gates PartStartEvent emission
	builtin    bool // true for provider-native (builtin) tool calls
}

// PartsManager accumulates streamed provider deltas, keyed by a
// provider-issued vendor ID, into a stable ordered sequence of message
// parts. It is not safe for concurrent use; callers serialize access to a
// single PartsManager per in-flight model response.
type PartsManager struct {
	parts    []managedPart
	byVendor map[string]int

	thinkingTagsEnabled bool
	tagBuffer           string
	insideThinkTag      bool

	ignoreLeadingWhitespace bool
}

// NewPartsManager creates an empty parts manager. When enableThinkingTags is
// true, HandleTextDelta scans accumulated text for embedded <think>...
// </think> tags and routes their contents to thinking parts instead of text
// parts, even for providers that do not have a first-class thinking channel.
// When ignoreLeadingWhitespace is true, leading whitespace-only text deltas
// are dropped until a text part has actually started, matching profiles
// whose providers emit a throwaway leading space or newline before real
// content begins.
func NewPartsManager(enableThinkingTags, ignoreLeadingWhitespace bool) *PartsManager {
	return &PartsManager{
		byVendor:                make(map[string]int),
		thinkingTagsEnabled:     enableThinkingTags,
		ignoreLeadingWhitespace: ignoreLeadingWhitespace,
	}
}

// findLatestIndexForVendor returns the most recently created, still-open
// part index for vendorID, or -1 if none exists. Providers sometimes reuse a
// vendor ID across logically distinct blocks; taking the latest match
// (rather than the first) matches provider behavior where a new block
// shadows an older closed one with the same ID.
func (m *PartsManager) findLatestIndexForVendor(vendorID string) int {
	for i := len(m.parts) - 1; i >= 0; i-- {
		if m.parts[i].vendorID == vendorID && !m.parts[i].closed {
			return i
		}
	}
	return -1
}

func (m *PartsManager) getOrCreateTextIndex(vendorID string) (int, bool) {
	if idx := m.findLatestIndexForVendor(vendorID); idx >= 0 && m.parts[idx].text != nil {
		return idx, false
	}
	idx := len(m.parts)
	m.parts = append(m.parts, managedPart{vendorID: vendorID, text: &strings.Builder{}})
	m.byVendor[vendorID] = idx
	return idx, true
}

func (m *PartsManager) getOrCreateThinkingIndex(vendorID string) (int, bool) {
	if idx := m.findLatestIndexForVendor(vendorID); idx >= 0 && m.parts[idx].thinking != nil {
		return idx, false
	}
	idx := len(m.parts)
	m.parts = append(m.parts, managedPart{vendorID: vendorID, thinking: &strings.Builder{}})
	m.byVendor[vendorID] = idx
	return idx, true
}

// HandleTextDelta processes an incremental text fragment for vendorID,
// returning the events produced. When thinking-tag scanning is enabled, it
// buffers incoming text and rescans on every call so that a <think> or
// </think> tag split across two deltas (for example "<th" then "ink>") is
// still detected correctly before being routed to thinking or text output.
// meta, when provided, carries a provider-issued id/provider_details to
// merge into the target part.
func (m *PartsManager) HandleTextDelta(vendorID, delta string, meta ...PartMeta) []Event {
	mm := firstMeta(meta)
	if !m.thinkingTagsEnabled {
		return m.emitTextDelta(vendorID, delta, mm)
	}
	return m.handleTextWithThinkingTags(vendorID, delta, mm)
}

// handleTextWithThinkingTags implements the buffer-then-rescan algorithm:
// append delta to the pending buffer, then repeatedly consume either a full
// tag, a run of plain text up to the next possible tag start, or a
// tag-prefix fragment that must wait for more input.
func (m *PartsManager) handleTextWithThinkingTags(vendorID, delta string, meta PartMeta) []Event {
	m.tagBuffer += delta
	var events []Event
	for {
		if m.insideThinkTag {
			if idx := strings.Index(m.tagBuffer, thinkCloseTag); idx >= 0 {
				if idx > 0 {
					events = append(events, m.emitThinkingDelta(vendorID, m.tagBuffer[:idx], meta)...)
				}
				m.tagBuffer = m.tagBuffer[idx+len(thinkCloseTag):]
				m.insideThinkTag = false
				continue
			}
			partial := findPartialTagSuffix(m.tagBuffer, thinkCloseTag)
			if partial > 0 {
				emit := m.tagBuffer[:len(m.tagBuffer)-partial]
				if emit != "" {
					events = append(events, m.emitThinkingDelta(vendorID, emit, meta)...)
				}
				m.tagBuffer = m.tagBuffer[len(m.tagBuffer)-partial:]
			} else if m.tagBuffer != "" {
				events = append(events, m.emitThinkingDelta(vendorID, m.tagBuffer, meta)...)
				m.tagBuffer = ""
			}
			return events
		}

		if idx := strings.Index(m.tagBuffer, thinkOpenTag); idx >= 0 {
			if idx > 0 {
				events = append(events, m.emitTextDelta(vendorID, m.tagBuffer[:idx], meta)...)
			}
			m.tagBuffer = m.tagBuffer[idx+len(thinkOpenTag):]
			m.insideThinkTag = true
			continue
		}
		partial := findPartialTagSuffix(m.tagBuffer, thinkOpenTag)
		if partial > 0 {
			emit := m.tagBuffer[:len(m.tagBuffer)-partial]
			if emit != "" {
				events = append(events, m.emitTextDelta(vendorID, emit, meta)...)
			}
			m.tagBuffer = m.tagBuffer[len(m.tagBuffer)-partial:]
		} else if m.tagBuffer != "" {
			events = append(events, m.emitTextDelta(vendorID, m.tagBuffer, meta)...)
			m.tagBuffer = ""
		}
		return events
	}
}

// findPartialTagSuffix returns the length of the longest suffix of s that is
// a non-empty proper prefix of tag, i.e. text that could still grow into tag
// once more input arrives. Returns 0 when no such suffix exists.
func findPartialTagSuffix(s, tag string) int {
	max := len(tag) - 1
	if max > len(s) {
		max = len(s)
	}
	for l := max; l > 0; l-- {
		if strings.HasSuffix(s, tag[:l]) {
			return l
		}
	}
	return 0
}

// emitTextDelta appends delta directly to a text part without thinking-tag
// scanning. It is the recursion base case called from within
// handleTextWithThinkingTags to avoid infinitely re-scanning already
// classified text.
func (m *PartsManager) emitTextDelta(vendorID, delta string, meta PartMeta) []Event {
	if delta == "" {
		return nil
	}
	if m.ignoreLeadingWhitespace && strings.TrimSpace(delta) == "" {
		if idx := m.findLatestIndexForVendor(vendorID); idx < 0 || m.parts[idx].text == nil {
			return nil
		}
	}
	idx, created := m.getOrCreateTextIndex(vendorID)
	m.parts[idx].text.WriteString(delta)
	m.parts[idx].mergeMeta(meta)
	if created {
		return []Event{
			PartStartEvent{Index: idx, Part: message.TextPart{Content: delta, ID: m.parts[idx].id, ProviderDetails: m.parts[idx].providerDetails}},
		}
	}
	return []Event{PartDeltaEvent{Index: idx, TextDelta: delta}}
}

// emitThinkingDelta appends delta directly to a thinking part, the
// thinking-channel counterpart of emitTextDelta.
func (m *PartsManager) emitThinkingDelta(vendorID, delta string, meta PartMeta) []Event {
	if delta == "" {
		return nil
	}
	idx, created := m.getOrCreateThinkingIndex(vendorID)
	m.parts[idx].thinking.WriteString(delta)
	m.parts[idx].mergeMeta(meta)
	if created {
		return []Event{
			PartStartEvent{Index: idx, Part: message.ThinkingPart{Content: delta, ID: m.parts[idx].id, ProviderDetails: m.parts[idx].providerDetails}},
		}
	}
	return []Event{PartDeltaEvent{Index: idx, ThinkingDelta: delta}}
}

// HandleThinkingDelta processes an incremental reasoning fragment for
// vendorID delivered on a provider's dedicated thinking channel (as opposed
// to embedded <think> tags within text).
func (m *PartsManager) HandleThinkingDelta(vendorID, delta string, meta ...PartMeta) []Event {
	return m.emitThinkingDelta(vendorID, delta, firstMeta(meta))
}

// HandleToolCallDelta processes an incremental tool-call fragment. The
// first delta that resolves a non-empty name for vendorID converts the
// accumulator into a named tool call and emits a single PartStartEvent
// whose Part.Args carries every argument fragment accumulated so far,
// including ones received while the name was still unknown (testable
// property T1). Subsequent deltas on an already-named call append the raw
// fragment and emit a PartDeltaEvent.
func (m *PartsManager) HandleToolCallDelta(vendorID, toolCallID, name, argsDelta string, meta ...PartMeta) []Event {
	return m.handleToolCallDelta(vendorID, toolCallID, name, argsDelta, false, firstMeta(meta))
}

// HandleBuiltinToolCallDelta is structurally identical to HandleToolCallDelta
// but accumulates a provider-native (builtin) tool call instead of one
// routed through the local tool registry, emitting BuiltinToolCallPart /
// BuiltinToolCallArgsDelta instead of ToolCallPart / ToolCallArgsDelta.
func (m *PartsManager) HandleBuiltinToolCallDelta(vendorID, toolCallID, name, argsDelta string, meta ...PartMeta) []Event {
	return m.handleToolCallDelta(vendorID, toolCallID, name, argsDelta, true, firstMeta(meta))
}

func (m *PartsManager) handleToolCallDelta(vendorID, toolCallID, name, argsDelta string, builtin bool, meta PartMeta) []Event {
	idx := m.findLatestIndexForVendor(vendorID)
	if idx < 0 || m.parts[idx].toolCall == nil {
		idx = len(m.parts)
		m.parts = append(m.parts, managedPart{vendorID: vendorID, toolCall: &toolCallAccumulator{toolCallID: toolCallID, builtin: builtin}})
		m.byVendor[vendorID] = idx
	}
	m.parts[idx].mergeMeta(meta)
	acc := m.parts[idx].toolCall
	if argsDelta != "" {
		acc.args.WriteString(argsDelta)
	}
	if toolCallID != "" {
		acc.toolCallID = toolCallID
	}

	wasNamed := acc.named
	if !wasNamed && name != "" {
		acc.name = name
		acc.named = true
		if builtin {
			return []Event{
				PartStartEvent{
					Index: idx,
					Part: message.BuiltinToolCallPart{
						ToolName:        acc.name,
						Args:            message.NewToolCallArgsString(acc.args.String()),
						ToolCallID:      acc.toolCallID,
						ProviderDetails: m.parts[idx].providerDetails,
					},
				},
			}
		}
		return []Event{
			PartStartEvent{
				Index: idx,
				Part: message.ToolCallPart{
					ToolName:        acc.name,
					Args:            message.NewToolCallArgsString(acc.args.String()),
					ToolCallID:      acc.toolCallID,
					ID:              m.parts[idx].id,
					ProviderDetails: m.parts[idx].providerDetails,
				},
			},
		}
	}
	if !acc.named {
		// Still anonymous: accumulate silently, no event emitted yet. The
		// part is omitted from Snapshot() until named (see ManagedPart
		// predicate in the original algorithm).
		return nil
	}
	if argsDelta == "" {
		return nil
	}
	if builtin {
		return []Event{PartDeltaEvent{Index: idx, BuiltinToolCallArgsDelta: argsDelta}}
	}
	return []Event{PartDeltaEvent{Index: idx, ToolCallArgsDelta: argsDelta}}
}

// HandleFilePart processes a complete file part for vendorID. Files never
// stream incrementally: each call produces exactly one PartStartEvent for
// an already-closed part, followed immediately by a PartEndEvent.
func (m *PartsManager) HandleFilePart(vendorID string, file message.FilePart) []Event {
	idx := len(m.parts)
	m.parts = append(m.parts, managedPart{vendorID: vendorID, file: &file, closed: true})
	m.byVendor[vendorID] = idx
	return []Event{
		PartStartEvent{Index: idx, Part: file},
		PartEndEvent{Index: idx},
	}
}

// Close finalizes every still-open part, returning one PartEndEvent per
// part in index order (testable property P2: finishing a stream closes
// every part exactly once, regardless of how many remained open).
func (m *PartsManager) Close() []Event {
	var events []Event
	for i := range m.parts {
		if m.parts[i].closed {
			continue
		}
		m.parts[i].closed = true
		events = append(events, PartEndEvent{Index: i})
	}
	return events
}

// Snapshot materializes the current parts into an ordered ModelResponse
// part list. Anonymous tool-call accumulators (name not yet resolved) are
// omitted, matching provider semantics where a nameless tool call is not
// yet a real invocation.
func (m *PartsManager) Snapshot() []message.ResponsePart {
	out := make([]message.ResponsePart, 0, len(m.parts))
	for _, p := range m.parts {
		switch {
		case p.text != nil:
			out = append(out, message.TextPart{Content: p.text.String(), ID: p.id, ProviderDetails: p.providerDetails})
		case p.thinking != nil:
			out = append(out, message.ThinkingPart{Content: p.thinking.String(), ID: p.id, ProviderDetails: p.providerDetails})
		case p.toolCall != nil:
			if !p.toolCall.named {
				continue
			}
			if p.toolCall.builtin {
				out = append(out, message.BuiltinToolCallPart{
					ToolName:        p.toolCall.name,
					Args:            message.NewToolCallArgsString(p.toolCall.args.String()),
					ToolCallID:      p.toolCall.toolCallID,
					ProviderDetails: p.providerDetails,
				})
				continue
			}
			out = append(out, message.ToolCallPart{
				ToolName:        p.toolCall.name,
				Args:            message.NewToolCallArgsString(p.toolCall.args.String()),
				ToolCallID:      p.toolCall.toolCallID,
				ID:              p.id,
				ProviderDetails: p.providerDetails,
			})
		case p.file != nil:
			out = append(out, *p.file)
		}
	}
	return out
}
