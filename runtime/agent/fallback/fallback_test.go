package fallback

import (
	"context"
	"testing"

	"github.com/agentkit/runtime/runtime/agent/message"
	"github.com/agentkit/runtime/runtime/agent/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubModel struct {
	name string
	err  error
	resp *message.ModelResponse
}

func (s *stubModel) Name() string { return s.name }
func (s *stubModel) Request(ctx context.Context, messages []message.ModelMessage, params model.ModelRequestParameters) (*message.ModelResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}
func (s *stubModel) RequestStream(ctx context.Context, messages []message.ModelMessage, params model.ModelRequestParameters) (model.StreamedResponse, error) {
	return nil, model.ErrStreamingUnsupported
}

func TestRetryOnTransientMatchesSpec(t *testing.T) {
	assert.True(t, RetryOnTransient.ShouldRetry(model.NewError("p", model.KindTimeout, "x")))
	assert.True(t, RetryOnTransient.ShouldRetry(model.NewError("p", model.KindConnection, "x")))
	assert.True(t, RetryOnTransient.ShouldRetry(model.NewError("p", model.KindHTTP, "x").WithHTTPStatus(503)))
	assert.False(t, RetryOnTransient.ShouldRetry(model.NewError("p", model.KindHTTP, "x").WithHTTPStatus(400)))
	assert.False(t, RetryOnTransient.ShouldRetry(model.NewError("p", model.KindAuth, "x")))
}

func TestRetryOnRateLimitsOnlyMatchesRateLimited(t *testing.T) {
	assert.True(t, RetryOnRateLimits.ShouldRetry(model.NewError("p", model.KindRateLimited, "x")))
	assert.False(t, RetryOnRateLimits.ShouldRetry(model.NewError("p", model.KindTimeout, "x")))
}

func TestRetryOnAnyErrorAlwaysRetries(t *testing.T) {
	assert.True(t, RetryOnAnyError.ShouldRetry(model.NewError("p", model.KindOther, "x")))
}

func TestFallbackAdvancesOnRetryableError(t *testing.T) {
	first := &stubModel{name: "a", err: model.NewError("a", model.KindRateLimited, "limited")}
	second := &stubModel{name: "b", resp: &message.ModelResponse{ModelName: "b"}}

	fm := New(first, second).WithRetryOn(RetryOnRateLimits)
	resp, err := fm.Request(context.Background(), nil, model.ModelRequestParameters{})
	require.NoError(t, err)
	assert.Equal(t, "b", resp.ModelName)
}

func TestFallbackStopsOnNonRetryableError(t *testing.T) {
	first := &stubModel{name: "a", err: model.NewError("a", model.KindAuth, "bad key")}
	second := &stubModel{name: "b", resp: &message.ModelResponse{ModelName: "b"}}

	fm := New(first, second).WithRetryOn(RetryOnTransient)
	_, err := fm.Request(context.Background(), nil, model.ModelRequestParameters{})
	require.Error(t, err)
	me, ok := model.AsModelError(err)
	require.True(t, ok)
	assert.Equal(t, model.KindAuth, me.Kind())
}

func TestFallbackEmptyChainErrors(t *testing.T) {
	fm := New()
	_, err := fm.Request(context.Background(), nil, model.ModelRequestParameters{})
	require.Error(t, err)
}
