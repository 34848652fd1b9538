package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/agentkit/runtime/runtime/agent/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoTool struct {
	name       string
	schema     any
	delay      func()
	maxRetries int
}

func (t *echoTool) Name() string        { return t.name }
func (t *echoTool) Description() string { return "echoes its input" }
func (t *echoTool) InputSchema() any    { return t.schema }
func (t *echoTool) MaxRetries() int     { return t.maxRetries }
func (t *echoTool) Execute(ctx context.Context, args json.RawMessage) (any, error) {
	if t.delay != nil {
		t.delay()
	}
	var v any
	if err := json.Unmarshal(args, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// flakyTool fails with a retryable error the first failUntil calls, then
// succeeds.
type flakyTool struct {
	name       string
	maxRetries int
	failUntil  int
	attempts   int
}

func (t *flakyTool) Name() string        { return t.name }
func (t *flakyTool) Description() string { return "fails a fixed number of times" }
func (t *flakyTool) InputSchema() any    { return nil }
func (t *flakyTool) MaxRetries() int     { return t.maxRetries }
func (t *flakyTool) Execute(ctx context.Context, args json.RawMessage) (any, error) {
	t.attempts++
	if t.attempts <= t.failUntil {
		return nil, Errorf(KindExecutionFailed, "transient failure %d", t.attempts)
	}
	return "ok", nil
}

func call(name, id, args string) message.ToolCallPart {
	return message.ToolCallPart{ToolName: name, ToolCallID: id, Args: message.NewToolCallArgsString(args)}
}

func asToolReturn(t *testing.T, p message.RequestPart) message.ToolReturnPart {
	t.Helper()
	v, ok := p.(message.ToolReturnPart)
	require.True(t, ok, "expected ToolReturnPart, got %T", p)
	return v
}

func asRetryPrompt(t *testing.T, p message.RequestPart) message.RetryPromptPart {
	t.Helper()
	v, ok := p.(message.RetryPromptPart)
	require.True(t, ok, "expected RetryPromptPart, got %T", p)
	return v
}

func TestDispatchSequentialPreservesOrder(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(&echoTool{name: "a"}))
	require.NoError(t, reg.Register(&echoTool{name: "b"}))

	calls := []message.ToolCallPart{
		call("a", "1", `{"x":1}`),
		call("b", "2", `{"y":2}`),
	}
	results := Dispatch(context.Background(), reg, calls, DispatchOptions{})
	require.Len(t, results, 2)
	r0 := asToolReturn(t, results[0])
	r1 := asToolReturn(t, results[1])
	assert.Equal(t, "1", r0.ToolCallID)
	assert.Equal(t, "2", r1.ToolCallID)
	assert.False(t, r0.IsError)
}

func TestDispatchParallelPreservesOrder(t *testing.T) {
	reg := NewRegistry()
	for i := 0; i < 5; i++ {
		require.NoError(t, reg.Register(&echoTool{name: fmt.Sprintf("tool-%d", i)}))
	}
	calls := make([]message.ToolCallPart, 5)
	for i := range calls {
		calls[i] = call(fmt.Sprintf("tool-%d", i), fmt.Sprintf("call-%d", i), `{}`)
	}
	results := Dispatch(context.Background(), reg, calls, DispatchOptions{Parallel: true, MaxConcurrency: 2})
	require.Len(t, results, 5)
	for i, p := range results {
		r := asToolReturn(t, p)
		assert.Equal(t, fmt.Sprintf("call-%d", i), r.ToolCallID)
	}
}

func TestDispatchUnknownToolIsError(t *testing.T) {
	reg := NewRegistry()
	results := Dispatch(context.Background(), reg, []message.ToolCallPart{call("missing", "1", `{}`)}, DispatchOptions{})
	require.Len(t, results, 1)
	asRetryPrompt(t, results[0])
}

func TestDispatchSchemaValidationRejectsBadArgs(t *testing.T) {
	reg := NewRegistry()
	schema := map[string]any{
		"type":     "object",
		"required": []any{"name"},
		"properties": map[string]any{
			"name": map[string]any{"type": "string"},
		},
	}
	require.NoError(t, reg.Register(&echoTool{name: "greet", schema: schema}))

	results := Dispatch(context.Background(), reg, []message.ToolCallPart{call("greet", "1", `{}`)}, DispatchOptions{})
	require.Len(t, results, 1)
	asRetryPrompt(t, results[0])
}

func TestDispatchRetriesRetryableFailureThenSucceeds(t *testing.T) {
	reg := NewRegistry()
	ft := &flakyTool{name: "flaky", maxRetries: 2, failUntil: 2}
	require.NoError(t, reg.Register(ft))

	results := Dispatch(context.Background(), reg, []message.ToolCallPart{call("flaky", "1", `{}`)}, DispatchOptions{})
	require.Len(t, results, 1)
	r := asToolReturn(t, results[0])
	assert.Equal(t, "ok", r.Content)
	assert.Equal(t, 3, ft.attempts)
}

func TestDispatchGivesUpAfterMaxRetriesExhausted(t *testing.T) {
	reg := NewRegistry()
	ft := &flakyTool{name: "flaky", maxRetries: 1, failUntil: 5}
	require.NoError(t, reg.Register(ft))

	results := Dispatch(context.Background(), reg, []message.ToolCallPart{call("flaky", "1", `{}`)}, DispatchOptions{})
	require.Len(t, results, 1)
	rp := asRetryPrompt(t, results[0])
	assert.Equal(t, "flaky", rp.ToolName)
	assert.Equal(t, 2, ft.attempts)
}
