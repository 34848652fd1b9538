// Package run implements the agent run state machine: the
// prompt -> plan -> execute-tools -> synthesize -> terminal loop that
// drives a single model/tool-registry pair to a final response.
package run

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type (
	// Status is the coarse-grained lifecycle state of a run.
	Status string

	// Phase is a finer-grained lifecycle phase within a running run,
	// intended for streaming/UX surfaces.
	Phase string

	// Context carries identifying metadata for a single run invocation.
	Context struct {
		// RunID uniquely identifies this run.
		RunID string
		// SessionID associates related runs into a conversation thread.
		// Optional.
		SessionID string
		// ParentToolCallID identifies the parent tool call when this run is
		// a nested agent-as-tool execution. Empty for top-level runs.
		ParentToolCallID string
		// Labels carries caller-provided metadata (tenant, priority, etc.).
		Labels map[string]string
	}
)

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCanceled  Status = "canceled"

	PhasePrompted       Phase = "prompted"
	PhasePlanning       Phase = "planning"
	PhaseExecutingTools Phase = "executing_tools"
	PhaseSynthesizing   Phase = "synthesizing"
	PhaseCompleted      Phase = "completed"
	PhaseFailed         Phase = "failed"
	PhaseCanceled       Phase = "canceled"
)

// NewRunID generates a fresh, globally unique run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// NewContext creates a run Context with a freshly generated RunID.
func NewContext(sessionID string) Context {
	return Context{RunID: NewRunID(), SessionID: sessionID}
}

// deadline is a small helper so callers can bound a run's wall-clock budget
// without importing context directly at call sites that only have a
// duration.
func deadline(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
