package mcpmgr

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/vikashloomba/mcp-server-manager-go/pkg/mcpmgr"

// Attribute keys shared by spans and metrics.
const (
	attrServer  = attribute.Key("mcp.server")
	attrTool    = attribute.Key("mcp.tool")
	attrOutcome = attribute.Key("outcome")
)

// telemetry records manager activity into OpenTelemetry.
type telemetry struct {
	tracer trace.Tracer

	toolCalls    metric.Int64Counter
	serverStarts metric.Int64Counter
	callLatency  metric.Float64Histogram
}

func newTelemetry(tp trace.TracerProvider, mp metric.MeterProvider, logger *slog.Logger) *telemetry {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	t := &telemetry{tracer: tp.Tracer(instrumentationName)}
	if err := t.initInstruments(mp.Meter(instrumentationName)); err != nil {
		logger.Warn("metrics disabled", "error", err)
		_ = t.initInstruments(noop.Meter{})
	}
	return t
}

func (t *telemetry) initInstruments(meter metric.Meter) error {
	var err error
	t.toolCalls, err = meter.Int64Counter(
		"mcpmgr.tool_calls",
		metric.WithDescription("Number of tool calls dispatched"),
	)
	if err != nil {
		return err
	}
	t.serverStarts, err = meter.Int64Counter(
		"mcpmgr.server_starts",
		metric.WithDescription("Number of server start attempts"),
	)
	if err != nil {
		return err
	}
	t.callLatency, err = meter.Float64Histogram(
		"mcpmgr.tool_call.duration",
		metric.WithDescription("Tool call latency in seconds"),
		metric.WithUnit("s"),
	)
	return err
}

func (t *telemetry) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (t *telemetry) recordServerStart(ctx context.Context, server string, transport Transport, err error) {
	t.serverStarts.Add(ctx, 1, metric.WithAttributes(
		attrServer.String(server),
		attribute.String("transport", string(transport)),
		attrOutcome.String(outcome(err == nil)),
	))
}

func (t *telemetry) recordToolCall(ctx context.Context, server, tool string, res ToolCallResult, elapsed time.Duration) {
	attrs := []attribute.KeyValue{
		attrServer.String(server),
		attrTool.String(tool),
		attrOutcome.String(outcome(res.Success)),
	}
	if res.ErrorKind != "" {
		attrs = append(attrs, attribute.String("error_kind", string(res.ErrorKind)))
	}
	opts := metric.WithAttributes(attrs...)
	t.toolCalls.Add(ctx, 1, opts)
	t.callLatency.Record(ctx, elapsed.Seconds(), opts)
}

// endSpan closes span, marking it failed when err is non-nil.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "error"
}
