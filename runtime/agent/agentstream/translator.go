package agentstream

import (
	"context"
	"encoding/json"

	"github.com/agentkit/runtime/runtime/agent/message"
	"github.com/agentkit/runtime/runtime/agent/run"
	"github.com/agentkit/runtime/runtime/agent/streaming"
)

// Translator adapts run.StepObserver notifications and streaming.Event
// values into the normalized agentstream.Event sequence, and forwards the
// result to a Sink. It holds no run state beyond what is needed to label
// events; the run package's own state machine remains the source of truth.
type Translator struct {
	sink    Sink
	profile Profile
}

// NewTranslator creates a Translator that publishes to sink, emitting only
// the event kinds enabled by profile.
func NewTranslator(sink Sink, profile Profile) *Translator {
	return &Translator{sink: sink, profile: profile}
}

var _ run.StepObserver = (*Translator)(nil)

// OnPhase implements run.StepObserver, emitting a Workflow event on
// terminal phase transitions.
func (t *Translator) OnPhase(rc run.Context, phase run.Phase) {
	if !t.profile.Workflow {
		return
	}
	var status string
	switch phase {
	case run.PhaseCompleted:
		status = "success"
	case run.PhaseFailed:
		status = "failed"
	case run.PhaseCanceled:
		status = "canceled"
	default:
		return
	}
	t.send(rc, Workflow{
		Base: NewBase(EventWorkflow, rc.RunID, rc.SessionID, nil),
		Data: WorkflowPayload{Phase: string(phase), Status: status},
	})
}

// OnModelResponse implements run.StepObserver, emitting AssistantReply,
// PlannerThought, ToolStart, and Usage events derived from resp.
func (t *Translator) OnModelResponse(rc run.Context, resp *message.ModelResponse) {
	if resp == nil {
		return
	}
	for _, part := range resp.Parts {
		switch p := part.(type) {
		case message.TextPart:
			if t.profile.Assistant && p.Content != "" {
				t.send(rc, AssistantReply{
					Base: NewBase(EventAssistantReply, rc.RunID, rc.SessionID, nil),
					Data: AssistantReplyPayload{Text: p.Content, Final: true},
				})
			}
		case message.ThinkingPart:
			if t.profile.Thoughts && p.Content != "" {
				t.send(rc, PlannerThought{
					Base: NewBase(EventPlannerThought, rc.RunID, rc.SessionID, nil),
					Data: PlannerThoughtPayload{Text: p.Content, Signature: p.Signature, Final: true},
				})
			}
		case message.ToolCallPart:
			if t.profile.ToolStart {
				args, _ := p.Args.ToJSONBytes()
				t.send(rc, ToolStart{
					Base: NewBase(EventToolStart, rc.RunID, rc.SessionID, nil),
					Data: ToolStartPayload{ToolCallID: p.ToolCallID, ToolName: p.ToolName, Args: json.RawMessage(args)},
				})
			}
		}
	}
	if t.profile.Usage {
		t.send(rc, Usage{
			Base: NewBase(EventUsage, rc.RunID, rc.SessionID, nil),
			Data: UsagePayload{
				InputTokens:      resp.Usage.InputTokens,
				OutputTokens:     resp.Usage.OutputTokens,
				CacheReadTokens:  resp.Usage.CacheReadTokens,
				CacheWriteTokens: resp.Usage.CacheWriteTokens,
			},
		})
	}
}

// OnToolResults implements run.StepObserver, emitting a ToolEnd event per
// dispatched tool call. A RetryPromptPart (a failed or retried-out tool
// call) is reported as an error result carrying its retry message.
func (t *Translator) OnToolResults(rc run.Context, results []message.RequestPart) {
	if !t.profile.ToolEnd {
		return
	}
	for _, part := range results {
		switch r := part.(type) {
		case message.ToolReturnPart:
			result, _ := json.Marshal(r.Content)
			t.send(rc, ToolEnd{
				Base: NewBase(EventToolEnd, rc.RunID, rc.SessionID, nil),
				Data: ToolEndPayload{ToolCallID: r.ToolCallID, ToolName: r.ToolName, Result: result, IsError: r.IsError},
			})
		case message.RetryPromptPart:
			result, _ := json.Marshal(r.Content)
			t.send(rc, ToolEnd{
				Base: NewBase(EventToolEnd, rc.RunID, rc.SessionID, nil),
				Data: ToolEndPayload{ToolCallID: r.ToolCallID, ToolName: r.ToolName, Result: result, IsError: true},
			})
		}
	}
}

// TranslateStreamEvent converts a single streaming.Event (emitted by a
// provider adapter's streaming.PartsManager) into zero or one
// agentstream.Event and sends it, for callers that want incremental
// (token-by-token) delivery rather than the once-per-step events from
// OnModelResponse.
func (t *Translator) TranslateStreamEvent(rc run.Context, ev streaming.Event) {
	switch e := ev.(type) {
	case streaming.PartStartEvent:
		if call, ok := e.Part.(message.ToolCallPart); ok && t.profile.ToolStart {
			args, _ := call.Args.ToJSONBytes()
			t.send(rc, ToolStart{
				Base: NewBase(EventToolStart, rc.RunID, rc.SessionID, nil),
				Data: ToolStartPayload{ToolCallID: call.ToolCallID, ToolName: call.ToolName, Args: json.RawMessage(args)},
			})
		}
	case streaming.PartDeltaEvent:
		switch {
		case e.TextDelta != "" && t.profile.Assistant:
			t.send(rc, AssistantReply{
				Base: NewBase(EventAssistantReply, rc.RunID, rc.SessionID, nil),
				Data: AssistantReplyPayload{Text: e.TextDelta},
			})
		case e.ThinkingDelta != "" && t.profile.Thoughts:
			t.send(rc, PlannerThought{
				Base: NewBase(EventPlannerThought, rc.RunID, rc.SessionID, nil),
				Data: PlannerThoughtPayload{Text: e.ThinkingDelta, ContentIndex: e.Index},
			})
		case e.ToolCallArgsDelta != "" && t.profile.ToolCallArgsDelta:
			t.send(rc, ToolCallArgsDelta{
				Base: NewBase(EventToolCallArgsDelta, rc.RunID, rc.SessionID, nil),
				Data: ToolCallArgsDeltaPayload{Delta: e.ToolCallArgsDelta},
			})
		}
	}
}

// End emits a RunStreamEnd marker and closes the sink. Callers invoke this
// once after a run.Result has been obtained, regardless of outcome.
func (t *Translator) End(ctx context.Context, rc run.Context) error {
	t.send(rc, RunStreamEnd{Base: NewBase(EventRunStreamEnd, rc.RunID, rc.SessionID, nil)})
	return t.sink.Close(ctx)
}

func (t *Translator) send(rc run.Context, ev Event) {
	_ = t.sink.Send(context.Background(), ev)
}
