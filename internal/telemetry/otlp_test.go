package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestNewProvider_DisabledWithoutEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	p, err := NewProvider(context.Background())
	require.NoError(t, err)
	assert.Nil(t, p)

	// A nil provider still hands out a usable tracer
	_, span := p.Tracer().Start(context.Background(), "noop")
	span.End()
	assert.False(t, span.SpanContext().IsValid())
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProviderWithProcessor_RecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	p := NewProviderWithProcessor(recorder)

	_, span := p.Tracer().Start(context.Background(), "panel.drive_list")
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "panel.drive_list", ended[0].Name())
	assert.Equal(t, InstrumentationName, ended[0].InstrumentationScope().Name)
	require.NoError(t, p.Shutdown(context.Background()))
}
