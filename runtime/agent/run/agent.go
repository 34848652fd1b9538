package run

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/agentkit/runtime/runtime/agent/message"
	"github.com/agentkit/runtime/runtime/agent/model"
	"github.com/agentkit/runtime/runtime/agent/tools"
)

// ErrMaxStepsExceeded is returned when a run reaches Options.MaxSteps
// without producing a final (non-tool-call) response.
var ErrMaxStepsExceeded = errors.New("run: max steps exceeded")

// ErrUsageLimitExceeded is returned when continuing the run would exceed a
// configured message.UsageLimits bound.
var ErrUsageLimitExceeded = errors.New("run: usage limit exceeded")

// OutputSchema configures how a run recognizes and parses its final typed
// output. In text mode (ToolName empty) the model's final text is parsed
// directly. In tool mode, a designated "output tool" call is never
// dispatched to the tool registry; its arguments are parsed as the output
// instead.
type OutputSchema struct {
	// ToolName, when non-empty, names the synthetic output tool whose
	// arguments ARE the final output rather than a tool call to execute.
	ToolName string

	// Parse converts raw JSON — tool-call arguments in tool mode, or the
	// model's raw text bytes in text mode — into the typed output value.
	Parse func(raw json.RawMessage) (any, error)
}

// OutputValidator inspects (and may reshape) a candidate output before it
// becomes a run's final_output. Returning a non-nil *OutputValidationError
// rejects the candidate; its Message becomes the body of a RetryPromptPart
// appended to history so the model can correct its next attempt.
type OutputValidator func(ctx context.Context, rc Context, output any) (any, *OutputValidationError)

// Agent binds a model and a tool registry into a single runnable unit
// implementing the prompt -> plan -> execute-tools -> synthesize loop.
type Agent struct {
	Model  model.Model
	Tools  *tools.Registry
	Params model.ModelRequestParameters

	// Output configures typed final-output recognition and parsing. Nil
	// means text mode with no schema: the model's final text is the output,
	// verbatim, subject only to OutputValidators.
	Output *OutputSchema

	// OutputValidators run in order over a step's candidate output before it
	// is accepted as final_output.
	OutputValidators []OutputValidator
}

// New creates an Agent over m and reg. Tool definitions from reg are
// automatically attached to every request's ModelRequestParameters.
func New(m model.Model, reg *tools.Registry) *Agent {
	return &Agent{Model: m, Tools: reg}
}

// Result is the outcome of a completed run.
type Result struct {
	// Status is the final lifecycle status.
	Status Status
	// Response is the last model response produced (the final synthesis
	// when Status is StatusCompleted).
	Response *message.ModelResponse
	// FinalOutput holds the validated output of a completed run. Nil unless
	// Status is StatusCompleted.
	FinalOutput any
	// Usage accumulates token and tool-call consumption across every step.
	Usage message.RunUsage
	// Steps counts how many model invocations the run performed.
	Steps int
	// Err holds the terminal error when Status is StatusFailed.
	Err error
}

// StepObserver receives notifications as a run progresses, used by the
// agent event stream (see the agentstream package) to translate run execution
// into externally consumable events without coupling the state machine to
// any particular UI wire format.
type StepObserver interface {
	OnPhase(rc Context, phase Phase)
	OnModelResponse(rc Context, resp *message.ModelResponse)
	OnToolResults(rc Context, results []message.RequestPart)
}

// isOutputTool reports whether name is the designated tool-mode output
// tool, in which case its call is consumed as output rather than dispatched.
func (a *Agent) isOutputTool(name string) bool {
	return a.Output != nil && a.Output.ToolName != "" && name == a.Output.ToolName
}

// isToolMode reports whether the agent recognizes output only through a
// designated output-tool call rather than through the model's plain text.
func (a *Agent) isToolMode() bool {
	return a.Output != nil && a.Output.ToolName != ""
}

// classify scans a response's parts per the response-classification policy:
// tool calls destined for real dispatch are collected separately from any
// call to the designated output tool, and — in text mode — the last
// non-empty text part is carried as a candidate output for parseOutput to
// attempt.
func (a *Agent) classify(resp *message.ModelResponse) (toolCalls []message.ToolCallPart, outputRaw []byte, hasOutput bool) {
	var text string
	for _, part := range resp.Parts {
		switch p := part.(type) {
		case message.TextPart:
			if p.Content != "" {
				text = p.Content
			}
		case message.ToolCallPart:
			if a.isOutputTool(p.ToolName) {
				if raw, err := p.Args.ToJSONBytes(); err == nil {
					outputRaw, hasOutput = raw, true
				}
				continue
			}
			toolCalls = append(toolCalls, p)
		}
	}
	if !hasOutput && !a.isToolMode() && text != "" {
		outputRaw, hasOutput = []byte(text), true
	}
	return
}

// parseOutput converts raw bytes recognized by classify (or the one extra
// attempt in the Stop fallback) into the agent's typed output. Text mode
// with no schema passes the raw text through unchanged.
func (a *Agent) parseOutput(raw []byte) (any, error) {
	if a.Output == nil {
		return string(raw), nil
	}
	return a.Output.Parse(raw)
}

// validateOutput runs every OutputValidator over output in order, letting
// each reshape the value for the next. The first rejection short-circuits.
func (a *Agent) validateOutput(ctx context.Context, rc Context, output any) (any, *OutputValidationError) {
	for _, v := range a.OutputValidators {
		out, verr := v(ctx, rc, output)
		if verr != nil {
			return nil, verr
		}
		output = out
	}
	return output, nil
}

// isStopLike reports whether reason signals the model considers its turn
// complete, rather than merely pausing to wait on tool results.
func isStopLike(reason message.FinishReason) bool {
	return reason == message.FinishReasonStop || reason == message.FinishReasonEndTurn
}

// Run drives the state machine to completion: it repeatedly invokes the
// model over the accumulating conversation history, dispatches any
// requested tool calls, classifies and validates any candidate output, and
// appends both the model's own response and the tool/retry results as new
// turns, until a validated output is ready and the end strategy is
// satisfied, or a limit is hit.
func (a *Agent) Run(ctx context.Context, rc Context, initial *message.ModelRequest, opts Options, obs StepObserver) Result {
	notify := func(phase Phase) {
		if obs != nil {
			obs.OnPhase(rc, phase)
		}
	}

	params := a.Params
	if len(params.ToolDefs) == 0 && a.Tools != nil {
		params.ToolDefs = a.Tools.Definitions()
	}

	var usage message.RunUsage
	steps := 0
	outputRetries := 0
	var finalOutput any
	haveOutput := false
	history := []message.ModelMessage{*initial}

	notify(PhasePrompted)

	// finish runs the run_to_completion finalize check: a run may only
	// report StatusCompleted carrying a validated output, never bare.
	finish := func(resp *message.ModelResponse) Result {
		if !haveOutput {
			notify(PhaseFailed)
			return Result{Status: StatusFailed, Usage: usage, Steps: steps, Err: ErrNoOutput}
		}
		notify(PhaseSynthesizing)
		notify(PhaseCompleted)
		return Result{Status: StatusCompleted, Response: resp, FinalOutput: finalOutput, Usage: usage, Steps: steps}
	}

	// failOutputValidation appends a RetryPrompt and continues the loop when
	// attempts remain, or returns a terminal OutputValidationFailedError
	// result once Options.MaxOutputRetries is exhausted.
	failOutputValidation := func(cause error, retryMsg string) (Result, bool) {
		outputRetries++
		if outputRetries > opts.MaxOutputRetries {
			notify(PhaseFailed)
			return Result{
				Status: StatusFailed,
				Usage:  usage,
				Steps:  steps,
				Err:    &OutputValidationFailedError{Attempts: outputRetries, Err: cause},
			}, true
		}
		history = append(history, message.ModelRequest{
			Parts: []message.RequestPart{message.RetryPromptPart{Content: retryMsg}},
		})
		return Result{}, false
	}

	for {
		if opts.MaxSteps > 0 && steps >= opts.MaxSteps {
			notify(PhaseFailed)
			return Result{Status: StatusFailed, Usage: usage, Steps: steps, Err: ErrMaxStepsExceeded}
		}
		requestCapReached := opts.UsageLimits.RequestLimit > 0 && usage.Requests >= opts.UsageLimits.RequestLimit
		if opts.UsageLimits.Exceeded(usage) || requestCapReached {
			notify(PhaseFailed)
			return Result{Status: StatusFailed, Usage: usage, Steps: steps, Err: ErrUsageLimitExceeded}
		}

		notify(PhasePlanning)

		stepCtx := ctx
		var cancel context.CancelFunc
		stepCtx, cancel = deadline(stepCtx, opts.StepTimeout)

		resp, err := a.Model.Request(stepCtx, history, params)
		cancel()
		if err != nil {
			notify(PhaseFailed)
			return Result{Status: StatusFailed, Usage: usage, Steps: steps, Err: fmt.Errorf("model request: %w", err)}
		}
		steps++
		reqUsage := resp.Usage
		if reqUsage.Requests == 0 {
			reqUsage.Requests = 1
		}
		usage = usage.AddRequest(reqUsage)
		history = append(history, *resp)

		if obs != nil {
			obs.OnModelResponse(rc, resp)
		}

		calls, outputRaw, hasOutput := a.classify(resp)

		// Tool calls take priority over any candidate output, so models that
		// emit both explanatory text and tool calls don't terminate early.
		if len(calls) > 0 {
			notify(PhaseExecutingTools)
			if opts.UsageLimits.ToolCallsLimit > 0 && usage.ToolCalls+len(calls) > opts.UsageLimits.ToolCallsLimit {
				notify(PhaseFailed)
				return Result{Status: StatusFailed, Usage: usage, Steps: steps, Err: ErrUsageLimitExceeded}
			}

			dispatchOpts := tools.DispatchOptions{Parallel: opts.ParallelTools, MaxConcurrency: opts.MaxToolConcurrency}
			var results []message.RequestPart
			if a.Tools != nil {
				results = tools.Dispatch(ctx, a.Tools, calls, dispatchOpts)
			} else {
				results = make([]message.RequestPart, len(calls))
				for i, c := range calls {
					results[i] = message.RetryPromptPart{
						ToolName:   c.ToolName,
						ToolCallID: c.ToolCallID,
						Content:    tools.New(tools.KindNotFound, "no tool registry configured").Error(),
					}
				}
			}
			usage = usage.AddToolCalls(len(calls))

			if obs != nil {
				obs.OnToolResults(rc, results)
			}

			followUp := message.ModelRequest{Parts: results}
			history = append(history, followUp)
			continue
		}

		if hasOutput {
			value, perr := a.parseOutput(outputRaw)
			if perr != nil {
				if a.isToolMode() {
					if res, done := failOutputValidation(perr, fmt.Sprintf("could not parse output arguments: %v", perr)); done {
						return res
					}
					continue
				}
				// Text mode: text that doesn't parse as structured output is
				// simply not a candidate this step; fall through to the
				// finish-reason check below.
			} else {
				validated, verr := a.validateOutput(ctx, rc, value)
				if verr != nil {
					if res, done := failOutputValidation(verr, verr.Message); done {
						return res
					}
					continue
				}
				finalOutput, haveOutput = validated, true
				if opts.EndStrategy == EndStrategyEarly {
					return finish(resp)
				}
			}
		}

		if isStopLike(resp.FinishReason) {
			if haveOutput {
				return finish(resp)
			}

			text := resp.Text()
			if text == "" {
				notify(PhaseFailed)
				return Result{Status: StatusFailed, Usage: usage, Steps: steps, Err: ErrUnexpectedStop}
			}
			value, perr := a.parseOutput([]byte(text))
			if perr == nil {
				if validated, verr := a.validateOutput(ctx, rc, value); verr == nil {
					finalOutput, haveOutput = validated, true
					return finish(resp)
				}
			}
			notify(PhaseFailed)
			return Result{Status: StatusFailed, Usage: usage, Steps: steps, Err: ErrUnexpectedStop}
		}

		// Continue: no tool calls, no output found or end strategy is
		// exhaustive, and the model hasn't signaled it's done.
	}
}
