package mcpmgr

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func findMetric(rm *metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, scope := range rm.ScopeMetrics {
		for i := range scope.Metrics {
			if scope.Metrics[i].Name == name {
				return &scope.Metrics[i]
			}
		}
	}
	return nil
}

func TestManagerEmitsSpansAndMetrics(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	connector := newFakeConnector()
	connector.add("ok", &fakeClient{})
	connector.add("bad", &fakeClient{callErr: errors.New("boom")})
	manager := NewManager(&ManagerOptions{
		Logger:         quietLogger(),
		Connector:      connector,
		TracerProvider: tp,
		MeterProvider:  mp,
	})
	ctx := context.Background()

	require.NoError(t, manager.StartServers(ctx, []ServerConfig{stdioConfig("ok"), stdioConfig("bad")}))
	require.True(t, manager.CallTool(ctx, "ok", "run", json.RawMessage(`{}`)).Success)
	require.False(t, manager.CallTool(ctx, "bad", "run", nil).Success)

	spans := exporter.GetSpans()
	byName := map[string][]tracetest.SpanStub{}
	for _, span := range spans {
		byName[span.Name] = append(byName[span.Name], span)
	}
	assert.Len(t, byName["mcpmgr.StartServer"], 2)
	calls := byName["mcpmgr.CallTool"]
	require.Len(t, calls, 2)
	assert.Equal(t, codes.Ok, calls[0].Status.Code)
	assert.Equal(t, codes.Error, calls[1].Status.Code)
	assert.Equal(t, "boom", calls[1].Status.Description)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	starts := findMetric(&rm, "mcpmgr.server_starts")
	require.NotNil(t, starts)
	sum, ok := starts.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	assert.Equal(t, int64(2), total)

	toolCalls := findMetric(&rm, "mcpmgr.tool_calls")
	require.NotNil(t, toolCalls)
	callSum, ok := toolCalls.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Len(t, callSum.DataPoints, 2, "one series per outcome")

	require.NotNil(t, findMetric(&rm, "mcpmgr.tool_call.duration"))
}
