package run

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/agentkit/runtime/runtime/agent/message"
	"github.com/agentkit/runtime/runtime/agent/model"
	"github.com/agentkit/runtime/runtime/agent/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedModel returns one response per call from a fixed script, letting
// tests exercise multi-step tool-call loops deterministically.
type scriptedModel struct {
	responses []*message.ModelResponse
	calls     int
}

func (m *scriptedModel) Name() string { return "scripted" }
func (m *scriptedModel) Request(ctx context.Context, messages []message.ModelMessage, params model.ModelRequestParameters) (*message.ModelResponse, error) {
	resp := m.responses[m.calls]
	m.calls++
	return resp, nil
}
func (m *scriptedModel) RequestStream(ctx context.Context, messages []message.ModelMessage, params model.ModelRequestParameters) (model.StreamedResponse, error) {
	return nil, model.ErrStreamingUnsupported
}

type sumTool struct{}

func (sumTool) Name() string        { return "sum" }
func (sumTool) Description() string { return "adds two numbers" }
func (sumTool) InputSchema() any    { return nil }
func (sumTool) MaxRetries() int     { return 0 }
func (sumTool) Execute(ctx context.Context, args json.RawMessage) (any, error) {
	var in struct{ A, B float64 }
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, err
	}
	return in.A + in.B, nil
}

func TestRunCompletesWithoutToolCalls(t *testing.T) {
	m := &scriptedModel{responses: []*message.ModelResponse{
		{Parts: []message.ResponsePart{message.TextPart{Content: "hello"}}, FinishReason: message.FinishReasonStop},
	}}
	a := New(m, nil)
	res := a.Run(context.Background(), NewContext(""), &message.ModelRequest{
		Parts: []message.RequestPart{message.UserPromptPart{Content: []message.UserContent{message.TextContent{Text: "hi"}}}},
	}, DefaultOptions(), nil)

	require.Equal(t, StatusCompleted, res.Status)
	assert.Equal(t, "hello", res.Response.Text())
	assert.Equal(t, 1, res.Steps)
}

func TestRunDispatchesToolCallsThenSynthesizes(t *testing.T) {
	reg := tools.NewRegistry()
	require.NoError(t, reg.Register(sumTool{}))

	m := &scriptedModel{responses: []*message.ModelResponse{
		{Parts: []message.ResponsePart{message.ToolCallPart{
			ToolName:   "sum",
			ToolCallID: "c1",
			Args:       message.NewToolCallArgsJSON(map[string]any{"A": float64(1), "B": float64(2)}),
		}}, FinishReason: message.FinishReasonToolCalls},
		{Parts: []message.ResponsePart{message.TextPart{Content: "the answer is 3"}}, FinishReason: message.FinishReasonStop},
	}}
	a := New(m, reg)
	res := a.Run(context.Background(), NewContext(""), &message.ModelRequest{
		Parts: []message.RequestPart{message.UserPromptPart{Content: []message.UserContent{message.TextContent{Text: "add 1 and 2"}}}},
	}, DefaultOptions(), nil)

	require.Equal(t, StatusCompleted, res.Status)
	assert.Equal(t, 2, res.Steps)
	assert.Equal(t, 1, res.Usage.ToolCalls)
	assert.Equal(t, "the answer is 3", res.Response.Text())
}

type numberOutput struct{ N int }

func numberOutputSchema() *OutputSchema {
	return &OutputSchema{
		Parse: func(raw json.RawMessage) (any, error) {
			var v numberOutput
			if err := json.Unmarshal(raw, &v); err != nil {
				return nil, err
			}
			return v, nil
		},
	}
}

func atLeastThree(ctx context.Context, rc Context, output any) (any, *OutputValidationError) {
	v, ok := output.(numberOutput)
	if !ok || v.N < 3 {
		return nil, &OutputValidationError{Message: "n must be at least 3"}
	}
	return v, nil
}

func TestRunRetriesOutputValidationThenSucceeds(t *testing.T) {
	m := &scriptedModel{responses: []*message.ModelResponse{
		{Parts: []message.ResponsePart{message.TextPart{Content: `{"n":1}`}}, FinishReason: message.FinishReasonStop},
		{Parts: []message.ResponsePart{message.TextPart{Content: `{"n":3}`}}, FinishReason: message.FinishReasonStop},
	}}
	a := New(m, nil)
	a.Output = numberOutputSchema()
	a.OutputValidators = []OutputValidator{atLeastThree}

	opts := DefaultOptions()
	opts.MaxOutputRetries = 1
	res := a.Run(context.Background(), NewContext(""), &message.ModelRequest{
		Parts: []message.RequestPart{message.UserPromptPart{Content: []message.UserContent{message.TextContent{Text: "give me a number"}}}},
	}, opts, nil)

	require.Equal(t, StatusCompleted, res.Status)
	assert.Equal(t, 2, res.Steps)
	out, ok := res.FinalOutput.(numberOutput)
	require.True(t, ok)
	assert.Equal(t, 3, out.N)
}

func TestRunFailsWithOutputValidationFailedAfterMaxRetries(t *testing.T) {
	resp := &message.ModelResponse{Parts: []message.ResponsePart{message.TextPart{Content: `{"n":1}`}}, FinishReason: message.FinishReasonStop}
	m := &scriptedModel{responses: []*message.ModelResponse{resp, resp}}
	a := New(m, nil)
	a.Output = numberOutputSchema()
	a.OutputValidators = []OutputValidator{atLeastThree}

	opts := DefaultOptions()
	opts.MaxOutputRetries = 1
	res := a.Run(context.Background(), NewContext(""), &message.ModelRequest{}, opts, nil)

	require.Equal(t, StatusFailed, res.Status)
	var verr *OutputValidationFailedError
	require.ErrorAs(t, res.Err, &verr)
	assert.Equal(t, 2, verr.Attempts)
}

func TestRunFailsWithUnexpectedStopWhenOutputNeverParses(t *testing.T) {
	m := &scriptedModel{responses: []*message.ModelResponse{
		{Parts: []message.ResponsePart{message.TextPart{Content: "not json"}}, FinishReason: message.FinishReasonStop},
	}}
	a := New(m, nil)
	a.Output = numberOutputSchema()

	res := a.Run(context.Background(), NewContext(""), &message.ModelRequest{}, DefaultOptions(), nil)

	require.Equal(t, StatusFailed, res.Status)
	assert.ErrorIs(t, res.Err, ErrUnexpectedStop)
}

func TestRunEndStrategyEarlyFinishesBeforeModelStop(t *testing.T) {
	m := &scriptedModel{responses: []*message.ModelResponse{
		{Parts: []message.ResponsePart{message.ToolCallPart{
			ToolName:   "answer",
			ToolCallID: "o1",
			Args:       message.NewToolCallArgsJSON(map[string]any{"N": 3}),
		}}, FinishReason: message.FinishReasonToolCalls},
	}}
	a := New(m, nil)
	a.Output = &OutputSchema{ToolName: "answer", Parse: numberOutputSchema().Parse}

	opts := DefaultOptions()
	opts.EndStrategy = EndStrategyEarly
	res := a.Run(context.Background(), NewContext(""), &message.ModelRequest{}, opts, nil)

	require.Equal(t, StatusCompleted, res.Status)
	assert.Equal(t, 1, res.Steps)
	out, ok := res.FinalOutput.(numberOutput)
	require.True(t, ok)
	assert.Equal(t, 3, out.N)
}

func TestRunFailsAtMaxSteps(t *testing.T) {
	toolCallResp := &message.ModelResponse{
		Parts:        []message.ResponsePart{message.ToolCallPart{ToolName: "sum", ToolCallID: "c1", Args: message.NewToolCallArgsJSON(map[string]any{"A": 1.0, "B": 1.0})}},
		FinishReason: message.FinishReasonToolCalls,
	}
	reg := tools.NewRegistry()
	require.NoError(t, reg.Register(sumTool{}))
	m := &scriptedModel{responses: []*message.ModelResponse{toolCallResp, toolCallResp, toolCallResp}}
	a := New(m, reg)

	opts := DefaultOptions()
	opts.MaxSteps = 2
	res := a.Run(context.Background(), NewContext(""), &message.ModelRequest{}, opts, nil)
	assert.Equal(t, StatusFailed, res.Status)
	assert.ErrorIs(t, res.Err, ErrMaxStepsExceeded)
}
