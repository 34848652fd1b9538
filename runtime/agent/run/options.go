package run

import (
	"time"

	"github.com/agentkit/runtime/runtime/agent/message"
)

// EndStrategy controls whether a run finishes the instant it has a
// validated output, or keeps looping until the model itself signals it is
// done.
type EndStrategy string

const (
	// EndStrategyEarly finishes the run as soon as a step's output passes
	// validation, even if the model's FinishReason for that step was not a
	// stop signal. Useful for tool-mode structured output, where the
	// designated output tool call IS the answer and there is no reason to
	// wait for more generation.
	EndStrategyEarly EndStrategy = "early"
	// EndStrategyExhaustive waits for the model to report FinishReasonStop
	// (or FinishReasonEndTurn) before finishing, even after a step's output
	// has already validated successfully. This is the default.
	EndStrategyExhaustive EndStrategy = "exhaustive"
)

// Options configures a single run.
type Options struct {
	// MaxSteps caps the number of model invocations in the loop. Zero means
	// unlimited (bounded only by UsageLimits, if set).
	MaxSteps int

	// UsageLimits bounds token/request/tool-call consumption across the
	// run. A run that would exceed a limit fails with a usage-limit error
	// before making the over-limit call.
	UsageLimits message.UsageLimits

	// ParallelTools enables bounded-parallel tool dispatch within a step.
	ParallelTools bool

	// MaxToolConcurrency bounds concurrent tool execution when
	// ParallelTools is true. Zero uses tools.DefaultMaxConcurrency.
	MaxToolConcurrency int

	// EndStrategy controls whether the run finishes as soon as a step's
	// output validates, or waits for the model's own stop signal.
	EndStrategy EndStrategy

	// MaxOutputRetries bounds how many times a step may fail output
	// validation before the run gives up with OutputValidationFailedError.
	// Zero means a single attempt: the first validation failure is terminal.
	MaxOutputRetries int

	// StepTimeout bounds a single model invocation's wall-clock time. Zero
	// means no per-step timeout.
	StepTimeout time.Duration
}

// DefaultOptions returns the default run options: unlimited steps,
// unlimited usage, sequential tool dispatch, exhaustive end strategy.
func DefaultOptions() Options {
	return Options{EndStrategy: EndStrategyExhaustive}
}
