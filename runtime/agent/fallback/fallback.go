// Package fallback implements FallbackModel, a model.Model that tries a
// sequence of underlying models in order, advancing to the next one only
// when the current model's failure matches the configured RetryOn policy.
package fallback

import (
	"context"
	"fmt"

	"github.com/agentkit/runtime/runtime/agent/message"
	"github.com/agentkit/runtime/runtime/agent/model"
)

// RetryOn classifies which model.Error kinds should trigger falling
// through to the next model in the chain.
type RetryOn string

const (
	// RetryOnAnyError falls through on every error, regardless of kind.
	RetryOnAnyError RetryOn = "any_error"
	// RetryOnRateLimits falls through only on model.KindRateLimited.
	RetryOnRateLimits RetryOn = "rate_limits"
	// RetryOnTransient falls through on timeouts, connection/network
	// failures, and 5xx HTTP responses, but never on 4xx HTTP responses or
	// other non-transient failures.
	RetryOnTransient RetryOn = "transient"
)

// ShouldRetry reports whether err should cause FallbackModel to advance to
// the next model in the chain, per testable property F1.
func (r RetryOn) ShouldRetry(err error) bool {
	me, ok := model.AsModelError(err)
	if !ok {
		return r == RetryOnAnyError
	}
	switch r {
	case RetryOnAnyError:
		return true
	case RetryOnRateLimits:
		return me.Kind() == model.KindRateLimited
	case RetryOnTransient:
		switch me.Kind() {
		case model.KindTimeout, model.KindConnection, model.KindNetwork:
			return true
		case model.KindHTTP:
			return me.HTTPStatus() >= 500
		default:
			return false
		}
	default:
		return false
	}
}

// Model wraps an ordered list of model.Model values and presents them as a
// single model.Model. Each model in the chain is tried at most once per
// request; RetryOn decides whether a failure advances to the next model or
// is returned to the caller immediately.
type Model struct {
	models  []model.Model
	retryOn RetryOn
	name    string
}

// New creates a FallbackModel over models, tried in order. At least one
// model is required.
func New(models ...model.Model) *Model {
	return &Model{models: models, retryOn: RetryOnTransient}
}

// WithRetryOn sets the retry policy and returns the receiver for chaining.
func (f *Model) WithRetryOn(r RetryOn) *Model {
	f.retryOn = r
	return f
}

// WithModel appends an additional model to the chain and returns the
// receiver for chaining.
func (f *Model) WithModel(m model.Model) *Model {
	f.models = append(f.models, m)
	return f
}

// WithName overrides the name reported by Name(); defaults to a composite
// of the chain's model names.
func (f *Model) WithName(name string) *Model {
	f.name = name
	return f
}

// ModelCount returns the number of models in the chain.
func (f *Model) ModelCount() int { return len(f.models) }

// IsEmpty reports whether the chain has no models.
func (f *Model) IsEmpty() bool { return len(f.models) == 0 }

// Name implements model.Model.
func (f *Model) Name() string {
	if f.name != "" {
		return f.name
	}
	names := make([]string, len(f.models))
	for i, m := range f.models {
		names[i] = m.Name()
	}
	return fmt.Sprintf("fallback(%v)", names)
}

// Request implements model.Model, trying each model in order until one
// succeeds or none match the RetryOn policy for falling through.
func (f *Model) Request(ctx context.Context, messages []message.ModelMessage, params model.ModelRequestParameters) (*message.ModelResponse, error) {
	if f.IsEmpty() {
		return nil, model.NewError("fallback", model.KindConfiguration, "no models configured")
	}
	var lastErr error
	for i, m := range f.models {
		resp, err := m.Request(ctx, messages, params)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if i == len(f.models)-1 || !f.retryOn.ShouldRetry(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

// RequestStream implements model.Model, with the same fallthrough
// semantics as Request. Unlike Request, once a model begins streaming its
// errors are no longer eligible for fallthrough: only the initial call to
// RequestStream is retried, since partial output cannot be un-sent to a
// consumer already draining Events().
func (f *Model) RequestStream(ctx context.Context, messages []message.ModelMessage, params model.ModelRequestParameters) (model.StreamedResponse, error) {
	if f.IsEmpty() {
		return nil, model.NewError("fallback", model.KindConfiguration, "no models configured")
	}
	var lastErr error
	for i, m := range f.models {
		resp, err := m.RequestStream(ctx, messages, params)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if i == len(f.models)-1 || !f.retryOn.ShouldRetry(err) {
			return nil, err
		}
	}
	return nil, lastErr
}
