package vercel

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/agentkit/runtime/runtime/agent/agentstream"
)

// Headers are the HTTP response headers a server should set when writing
// a Vercel AI Data Stream Protocol v1 response.
var Headers = map[string]string{
	"x-vercel-ai-ui-message-stream": "v1",
	"content-type":                  "text/event-stream",
	"cache-control":                 "no-cache",
	"connection":                    "keep-alive",
}

// Encode renders c as an SSE data line, the protocol's wire framing.
func Encode(c Chunk) (string, error) {
	body, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode vercel chunk: %w", err)
	}
	return "data: " + string(body) + "\n\n", nil
}

// Stream is a stateful transformer from agentstream.Event to Vercel AI
// Data Stream Protocol chunks. Not safe for concurrent use; Sink
// serializes access.
type Stream struct {
	msgSeq    uint32
	messageID string

	stepStarted     bool
	textStarted     bool
	reasoningStarted bool
	pendingTools    map[string]bool
	finishReason    FinishReason
	usage           *Usage
	hadError        bool
}

// NewStream creates a Stream.
func NewStream() *Stream {
	return &Stream{pendingTools: make(map[string]bool)}
}

func (s *Stream) newMessageID() string {
	s.msgSeq++
	return fmt.Sprintf("msg-%d", s.msgSeq)
}

// Start returns the chunks that open the message and its first step.
func (s *Stream) Start() []Chunk {
	s.messageID = s.newMessageID()
	s.stepStarted = true
	return []Chunk{
		StartChunk{MessageID: s.messageID},
		StartStepChunk{MessageID: s.messageID, Step: 0},
	}
}

func (s *Stream) closeOpenParts() []Chunk {
	var chunks []Chunk
	if s.textStarted {
		chunks = append(chunks, TextEndChunk{})
		s.textStarted = false
	}
	if s.reasoningStarted {
		chunks = append(chunks, ReasoningEndChunk{})
		s.reasoningStarted = false
	}
	return chunks
}

// Finish closes any open text/reasoning part, the current step, and the
// message, then emits DoneChunk.
func (s *Stream) Finish() []Chunk {
	chunks := s.closeOpenParts()

	finishReason := s.finishReason
	if finishReason == "" {
		finishReason = FinishStop
	}

	if s.stepStarted {
		chunks = append(chunks, FinishStepChunk{
			MessageID:    s.messageID,
			FinishReason: finishReason,
			Usage:        s.usage,
			Continued:    len(s.pendingTools) > 0,
		})
		s.stepStarted = false
	}

	chunks = append(chunks, FinishChunk{MessageID: s.messageID, FinishReason: finishReason, Usage: s.usage})
	chunks = append(chunks, DoneChunk{})
	return chunks
}

// Transform converts a single agentstream.Event into zero or more Vercel
// chunks, updating internal state as needed.
func (s *Stream) Transform(ev agentstream.Event) []Chunk {
	switch e := ev.(type) {
	case agentstream.AssistantReply:
		return s.handleText(e.Data.Text, e.Data.Final)
	case agentstream.PlannerThought:
		return s.handleThinking(e.Data.Text, e.Data.Final)
	case agentstream.ToolStart:
		return s.handleToolStart(e.Data.ToolCallID, e.Data.ToolName, e.Data.Args)
	case agentstream.ToolCallArgsDelta:
		return []Chunk{ToolInputDeltaChunk{ToolCallID: e.Data.ToolCallID, Delta: e.Data.Delta}}
	case agentstream.ToolEnd:
		return s.handleToolEnd(e.Data.ToolCallID, e.Data.Result, e.Data.IsError)
	case agentstream.Usage:
		s.usage = &Usage{
			PromptTokens:     e.Data.InputTokens,
			CompletionTokens: e.Data.OutputTokens,
			TotalTokens:      e.Data.InputTokens + e.Data.OutputTokens,
		}
		return nil
	case agentstream.Workflow:
		if e.Data.Status == "failed" {
			s.hadError = true
			s.finishReason = FinishError
			return []Chunk{ErrorChunk{ErrorMessage: e.Data.Error}}
		}
		return nil
	default:
		return nil
	}
}

func (s *Stream) handleText(text string, final bool) []Chunk {
	var chunks []Chunk
	if s.reasoningStarted {
		chunks = append(chunks, ReasoningEndChunk{})
		s.reasoningStarted = false
	}
	if !s.textStarted {
		s.textStarted = true
		chunks = append(chunks, TextStartChunk{})
	}
	if text != "" {
		chunks = append(chunks, TextDeltaChunk{Delta: text})
	}
	if final {
		chunks = append(chunks, TextEndChunk{})
		s.textStarted = false
	}
	return chunks
}

func (s *Stream) handleThinking(text string, final bool) []Chunk {
	var chunks []Chunk
	if s.textStarted {
		chunks = append(chunks, TextEndChunk{})
		s.textStarted = false
	}
	if !s.reasoningStarted {
		s.reasoningStarted = true
		chunks = append(chunks, ReasoningStartChunk{})
	}
	if text != "" {
		chunks = append(chunks, ReasoningDeltaChunk{Delta: text})
	}
	if final {
		chunks = append(chunks, ReasoningEndChunk{})
		s.reasoningStarted = false
	}
	return chunks
}

func (s *Stream) handleToolStart(toolCallID, toolName string, args json.RawMessage) []Chunk {
	chunks := s.closeOpenParts()
	if !s.pendingTools[toolCallID] {
		s.pendingTools[toolCallID] = true
		chunks = append(chunks, ToolInputStartChunk{ToolCallID: toolCallID, ToolName: toolName})
	}
	if len(args) > 0 {
		var input any
		_ = json.Unmarshal(args, &input)
		chunks = append(chunks, ToolInputAvailableChunk{ToolCallID: toolCallID, ToolName: toolName, Input: input})
		s.finishReason = FinishToolCalls
	}
	return chunks
}

func (s *Stream) handleToolEnd(toolCallID string, result json.RawMessage, isError bool) []Chunk {
	delete(s.pendingTools, toolCallID)
	if isError {
		var msg string
		if err := json.Unmarshal(result, &msg); err != nil || msg == "" {
			msg = string(result)
		}
		return []Chunk{ToolOutputErrorChunk{ToolCallID: toolCallID, ErrorMessage: msg}}
	}
	var output any
	if len(result) > 0 {
		_ = json.Unmarshal(result, &output)
	}
	return []Chunk{ToolOutputAvailableChunk{ToolCallID: toolCallID, Output: output}}
}

// Sink adapts a Stream to agentstream.Sink, writing framed Vercel AI chunks
// to w as agentstream events arrive. Safe for concurrent Send calls.
type Sink struct {
	mu     sync.Mutex
	w      *bufio.Writer
	stream *Stream
	err    error
}

// NewSink creates a Sink writing to w, and immediately writes the
// message/step-start chunks.
func NewSink(w io.Writer) *Sink {
	s := &Sink{w: bufio.NewWriter(w), stream: NewStream()}
	s.writeAll(s.stream.Start())
	return s
}

func (s *Sink) writeAll(chunks []Chunk) {
	for _, c := range chunks {
		frame, err := Encode(c)
		if err != nil {
			s.err = err
			return
		}
		if _, err := s.w.WriteString(frame); err != nil {
			s.err = err
			return
		}
	}
}

// Send implements agentstream.Sink.
func (s *Sink) Send(ctx context.Context, event agentstream.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.writeAll(s.stream.Transform(event))
	if s.err != nil {
		return s.err
	}
	return s.w.Flush()
}

// Close implements agentstream.Sink: it finishes the step and message,
// writes DoneChunk, and flushes the underlying writer. Idempotent.
func (s *Sink) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream == nil {
		return s.err
	}
	s.writeAll(s.stream.Finish())
	s.stream = nil
	if s.err != nil {
		return s.err
	}
	return s.w.Flush()
}
