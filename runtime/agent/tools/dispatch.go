package tools

import (
	"context"
	"sync"

	"github.com/agentkit/runtime/runtime/agent/message"
)

// DispatchOptions configures tool dispatch.
type DispatchOptions struct {
	// Parallel enables bounded-parallel execution of independent tool
	// calls within a single model turn. When false, calls execute
	// sequentially in order.
	Parallel bool

	// MaxConcurrency bounds how many tool calls run at once when Parallel
	// is true. Zero or negative falls back to DefaultMaxConcurrency.
	MaxConcurrency int
}

// DefaultMaxConcurrency is the default bound on concurrent tool execution
// (see DESIGN.md's Open Question decision on dispatch concurrency).
const DefaultMaxConcurrency = 8

// Dispatch executes every call in calls against registry and returns one
// RequestPart per call, in the same order as calls (testable property T2),
// regardless of whether execution was sequential or parallel. A successful
// call produces a ToolReturnPart; a call that ultimately fails (after
// exhausting the tool's MaxRetries on retryable errors) produces a
// RetryPromptPart instead, so the model can see and correct the mistake on
// its next turn.
func Dispatch(ctx context.Context, registry *Registry, calls []message.ToolCallPart, opts DispatchOptions) []message.RequestPart {
	results := make([]message.RequestPart, len(calls))

	if !opts.Parallel {
		for i, call := range calls {
			results[i] = dispatchOne(ctx, registry, call)
		}
		return results
	}

	maxConcurrency := opts.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultMaxConcurrency
	}
	sem := make(chan struct{}, maxConcurrency)
	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, call message.ToolCallPart) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = dispatchOne(ctx, registry, call)
		}(i, call)
	}
	wg.Wait()
	return results
}

// dispatchOne resolves and executes a single tool call, retrying execution
// failures up to the tool's MaxRetries when the failure is retryable.
// Lookup, argument-encoding, and schema-validation failures are never
// retried since the call itself is malformed; they fall straight through to
// the RetryPromptPart conversion so the model can correct its next attempt.
func dispatchOne(ctx context.Context, registry *Registry, call message.ToolCallPart) message.RequestPart {
	t, ok := registry.Lookup(call.ToolName)
	if !ok {
		return retryPrompt(call, New(KindNotFound, "tool not registered: "+call.ToolName))
	}

	argsJSON, err := call.Args.ToJSONBytes()
	if err != nil {
		return retryPrompt(call, Errorf(KindInvalidArguments, "encode arguments: %v", err))
	}

	if issue := registry.Validate(call.ToolName, argsJSON); issue != nil {
		return retryPrompt(call, issue)
	}

	maxAttempts := t.MaxRetries() + 1
	var lastErr *Error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return retryPrompt(call, New(KindCanceled, ctx.Err().Error()))
		default:
		}

		result, err := t.Execute(ctx, argsJSON)
		if err == nil {
			return message.ToolReturnPart{
				ToolName:   call.ToolName,
				ToolCallID: call.ToolCallID,
				Content:    wrapBounded(result),
			}
		}
		lastErr = FromError(err)
		if !lastErr.IsRetryable() {
			break
		}
	}
	return retryPrompt(call, lastErr)
}

func retryPrompt(call message.ToolCallPart, err *Error) message.RetryPromptPart {
	return message.RetryPromptPart{
		ToolName:   call.ToolName,
		ToolCallID: call.ToolCallID,
		Content:    err.Error(),
	}
}
