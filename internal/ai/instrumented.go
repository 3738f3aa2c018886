package ai

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentedProvider records a span and request metrics around every call.
type InstrumentedProvider struct {
	next    Provider
	backend string
	tracer  trace.Tracer

	requests     metric.Int64Counter
	failures     metric.Int64Counter
	responseTime metric.Float64Histogram
	responseSize metric.Int64Histogram
}

func NewInstrumentedProvider(next Provider, backend string, tracer trace.Tracer, meter metric.Meter) *InstrumentedProvider {
	requests, _ := meter.Int64Counter("ai_requests_total",
		metric.WithDescription("Total number of generative model requests"))
	failures, _ := meter.Int64Counter("ai_requests_failed_total",
		metric.WithDescription("Total number of generative model requests that failed"))
	responseTime, _ := meter.Float64Histogram("ai_response_time_seconds",
		metric.WithDescription("Time taken to receive a response from the model in seconds"),
		metric.WithUnit("s"))
	responseSize, _ := meter.Int64Histogram("ai_response_length",
		metric.WithDescription("Length of the response text returned by the model"))

	return &InstrumentedProvider{
		next:         next,
		backend:      backend,
		tracer:       tracer,
		requests:     requests,
		failures:     failures,
		responseTime: responseTime,
		responseSize: responseSize,
	}
}

func (p *InstrumentedProvider) Generate(ctx context.Context, req Request) (Response, error) {
	attrs := []attribute.KeyValue{
		attribute.String("ai.provider", p.backend),
		attribute.String("ai.purpose", req.Purpose),
	}

	ctx, span := p.tracer.Start(ctx, "ai.Generate", trace.WithAttributes(attrs...))
	defer span.End()

	span.SetAttributes(
		attribute.Int("ai.messages", len(req.Messages)),
		attribute.Bool("ai.json", req.JSON),
	)
	for k, v := range req.Metadata {
		span.SetAttributes(attribute.String("ai.meta."+k, v))
	}

	p.requests.Add(ctx, 1, metric.WithAttributes(attrs...))

	start := time.Now()
	resp, err := p.next.Generate(ctx, req)
	elapsed := time.Since(start)

	p.responseTime.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attrs...))

	if err != nil {
		p.failures.Add(ctx, 1, metric.WithAttributes(attrs...))
		span.SetStatus(codes.Error, "model request failed")
		span.RecordError(err)
		log.Warn().Err(err).
			Str("provider", p.backend).
			Str("purpose", req.Purpose).
			Dur("duration", elapsed).
			Msg("ai request failed")
		return Response{}, err
	}

	span.SetAttributes(attribute.String("ai.model", resp.Model))
	p.responseSize.Record(ctx, int64(len(resp.Text)), metric.WithAttributes(attrs...))

	log.Debug().
		Str("provider", p.backend).
		Str("model", resp.Model).
		Str("purpose", req.Purpose).
		Int("response_len", len(resp.Text)).
		Dur("duration", elapsed).
		Msg("ai request finished")

	return resp, nil
}
