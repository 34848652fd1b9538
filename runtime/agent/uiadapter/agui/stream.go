package agui

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/agentkit/runtime/runtime/agent/agentstream"
)

// OutputFormat selects the wire framing used to deliver AG-UI events.
type OutputFormat int

const (
	// FormatSSE frames each event as a Server-Sent Events "data:" line.
	FormatSSE OutputFormat = iota
	// FormatNDJSON frames each event as one JSON object per line.
	FormatNDJSON
)

// Encode renders ev in the given format.
func Encode(ev Event, format OutputFormat) (string, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return "", fmt.Errorf("encode agui event: %w", err)
	}
	switch format {
	case FormatNDJSON:
		return string(body) + "\n", nil
	default:
		return "data: " + string(body) + "\n\n", nil
	}
}

// Stream is a stateful transformer from agentstream.Event to AG-UI
// protocol events. It is not safe for concurrent use; callers serialize
// access through a single goroutine (Sink does this for them).
type Stream struct {
	threadID  string
	runID     string
	msgSeq    uint32
	currentID string

	textStarted     bool
	textMessageID   string
	thinkingStarted bool
	thinkingTextOn  bool

	hadError bool
}

// NewStream creates a Stream for the given thread and run.
func NewStream(threadID, runID string) *Stream {
	return &Stream{threadID: threadID, runID: runID}
}

func (s *Stream) newMessageID() string {
	s.msgSeq++
	return fmt.Sprintf("msg-%d", s.msgSeq)
}

// Start returns the events that open the run. Call once, before any
// Transform calls.
func (s *Stream) Start() []Event {
	return []Event{RunStartedEvent{ThreadID: s.threadID, RunID: s.runID}}
}

// Finish closes any open message/thinking block and, unless an error was
// already reported, emits RunFinishedEvent. Call once, after the last
// Transform call.
func (s *Stream) Finish() []Event {
	var events []Event
	events = append(events, s.closeOpenBlocks()...)
	if !s.hadError {
		events = append(events, RunFinishedEvent{ThreadID: s.threadID, RunID: s.runID})
	}
	return events
}

func (s *Stream) closeOpenBlocks() []Event {
	var events []Event
	if s.thinkingTextOn {
		events = append(events, ThinkingTextMessageEndEvent{})
		s.thinkingTextOn = false
	}
	if s.thinkingStarted {
		events = append(events, ThinkingEndEvent{})
		s.thinkingStarted = false
	}
	if s.textStarted {
		events = append(events, TextMessageEndEvent{MessageID: s.textMessageID})
		s.textStarted = false
	}
	return events
}

// Transform converts a single agentstream.Event into zero or more AG-UI
// events, updating internal state as needed.
func (s *Stream) Transform(ev agentstream.Event) []Event {
	switch e := ev.(type) {
	case agentstream.AssistantReply:
		return s.handleText(e.Data.Text, e.Data.Final)
	case agentstream.PlannerThought:
		return s.handleThinking(e.Data.Text, e.Data.Final)
	case agentstream.ToolStart:
		return s.handleToolStart(e.Data.ToolCallID, e.Data.ToolName, e.Data.Args)
	case agentstream.ToolCallArgsDelta:
		return []Event{ToolCallArgsEvent{ToolCallID: e.Data.ToolCallID, Delta: e.Data.Delta}}
	case agentstream.ToolEnd:
		return s.handleToolEnd(e.Data.ToolCallID, e.Data.Result, e.Data.IsError)
	case agentstream.Workflow:
		if e.Data.Status == "failed" {
			return s.onError(e.Data.Error)
		}
		return nil
	default:
		// Usage and RunStreamEnd have no AG-UI analog; the latter is
		// handled explicitly by Finish.
		return nil
	}
}

func (s *Stream) handleText(text string, final bool) []Event {
	var events []Event
	if s.thinkingTextOn {
		events = append(events, ThinkingTextMessageEndEvent{})
		s.thinkingTextOn = false
	}
	if s.thinkingStarted {
		events = append(events, ThinkingEndEvent{})
		s.thinkingStarted = false
	}
	if !s.textStarted {
		s.textMessageID = s.newMessageID()
		s.currentID = s.textMessageID
		s.textStarted = true
		events = append(events, TextMessageStartEvent{MessageID: s.textMessageID})
	}
	if text != "" {
		events = append(events, TextMessageContentEvent{MessageID: s.textMessageID, Delta: text})
	}
	if final {
		events = append(events, TextMessageEndEvent{MessageID: s.textMessageID})
		s.textStarted = false
	}
	return events
}

func (s *Stream) handleThinking(text string, final bool) []Event {
	var events []Event
	if s.textStarted {
		events = append(events, TextMessageEndEvent{MessageID: s.textMessageID})
		s.textStarted = false
	}
	if !s.thinkingStarted {
		s.thinkingStarted = true
		events = append(events, ThinkingStartEvent{})
	}
	if !s.thinkingTextOn {
		s.thinkingTextOn = true
		events = append(events, ThinkingTextMessageStartEvent{})
	}
	if text != "" {
		events = append(events, ThinkingTextMessageContentEvent{Delta: text})
	}
	if final {
		events = append(events, ThinkingTextMessageEndEvent{})
		s.thinkingTextOn = false
		events = append(events, ThinkingEndEvent{})
		s.thinkingStarted = false
	}
	return events
}

func (s *Stream) handleToolStart(toolCallID, toolName string, args json.RawMessage) []Event {
	events := s.closeOpenBlocks()
	events = append(events, ToolCallStartEvent{ToolCallID: toolCallID, ToolName: toolName, ParentMessageID: s.currentID})
	if len(args) > 0 {
		events = append(events, ToolCallArgsEvent{ToolCallID: toolCallID, Delta: string(args)})
		events = append(events, ToolCallEndEvent{ToolCallID: toolCallID})
	}
	return events
}

func (s *Stream) handleToolEnd(toolCallID string, result json.RawMessage, isError bool) []Event {
	var content any
	if len(result) > 0 {
		_ = json.Unmarshal(result, &content)
	}
	return []Event{ToolCallResultEvent{ToolCallID: toolCallID, Content: content, IsError: isError}}
}

func (s *Stream) onError(message string) []Event {
	events := s.closeOpenBlocks()
	s.hadError = true
	events = append(events, RunErrorEvent{Message: message})
	return events
}

// Sink adapts a Stream to agentstream.Sink, writing framed AG-UI events to
// w as agentstream events arrive. Safe for concurrent Send calls.
type Sink struct {
	mu     sync.Mutex
	w      *bufio.Writer
	stream *Stream
	format OutputFormat
	err    error
}

// NewSink creates a Sink writing to w in the given format, and immediately
// writes the run-start event.
func NewSink(w io.Writer, threadID, runID string, format OutputFormat) *Sink {
	s := &Sink{w: bufio.NewWriter(w), stream: NewStream(threadID, runID), format: format}
	s.writeAll(s.stream.Start())
	return s
}

func (s *Sink) writeAll(events []Event) {
	for _, ev := range events {
		frame, err := Encode(ev, s.format)
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

// Close implements agentstream.Sink: it closes any open message/thinking
// block, emits RunFinishedEvent unless an error already terminated the
// run, and flushes the underlying writer. Idempotent.
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
