package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologLoggerEmitsStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(zerolog.New(&buf))

	logger.Info(context.Background(), "step completed", "run_id", "r1", "steps", 3)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "step completed", decoded["message"])
	assert.Equal(t, "r1", decoded["run_id"])
}

func TestZerologLoggerErrorAttachesErrValue(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(zerolog.New(&buf))

	logger.Error(context.Background(), "run failed", "error", errors.New("boom"))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "boom", decoded["error"])
}

func TestNoopLoggerDiscardsMessages(t *testing.T) {
	logger := NewNoopLogger()
	assert.NotPanics(t, func() {
		logger.Debug(context.Background(), "x")
		logger.Info(context.Background(), "x")
		logger.Warn(context.Background(), "x")
		logger.Error(context.Background(), "x")
	})
}

func TestNoopMetricsAndTracerDoNotPanic(t *testing.T) {
	m := NewNoopMetrics()
	tr := NewNoopTracer()
	assert.NotPanics(t, func() {
		m.IncCounter("c", 1, "tag", "v")
		m.RecordTimer("t", 0)
		m.RecordGauge("g", 1)
		ctx, span := tr.Start(context.Background(), "op")
		span.AddEvent("evt")
		span.End()
		_ = ctx
	})
}
