package observability

import (
	"context"
	"log"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Observability bundles the OpenTelemetry meter and tracer used by the wizard.
// A nil *Observability is valid and records nothing.
type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	meter          otelmetric.Meter
	tracer         trace.Tracer

	submissionCounter  otelmetric.Int64Counter
	submissionDuration otelmetric.Float64Histogram
	suggestionCounter  otelmetric.Int64Counter
	jobCounter         otelmetric.Int64Counter
}

type options struct {
	registerer   promclient.Registerer
	spanExporter sdktrace.SpanExporter
	global       bool
}

// Option customizes New.
type Option func(*options)

// WithRegisterer registers the Prometheus bridge on reg instead of the default registry.
func WithRegisterer(reg promclient.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithSpanExporter batches finished spans to exp.
func WithSpanExporter(exp sdktrace.SpanExporter) Option {
	return func(o *options) { o.spanExporter = exp }
}

// WithoutGlobal keeps the providers out of the otel globals.
func WithoutGlobal() Option {
	return func(o *options) { o.global = false }
}

func New(serviceName string, opts ...Option) *Observability {
	o := options{global: true}
	for _, opt := range opts {
		opt(&o)
	}

	var exporterOpts []prometheus.Option
	if o.registerer != nil {
		exporterOpts = append(exporterOpts, prometheus.WithRegisterer(o.registerer))
	}
	exporter, err := prometheus.New(exporterOpts...)
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	tracerProvider := newTracerProvider(serviceName, o.spanExporter)
	if o.global {
		otel.SetMeterProvider(provider)
		otel.SetTracerProvider(tracerProvider)
	}

	meter := provider.Meter(serviceName)

	// The exporter keeps instrument names as given and shares the default registry with
	// the promauto collectors, so these carry an underscore-only intake_otel_ prefix.

	submissionCounter, _ := meter.Int64Counter(
		"intake_otel_submissions",
		otelmetric.WithDescription("Number of application submissions"),
	)
	submissionDuration, _ := meter.Float64Histogram(
		"intake_otel_submission_duration",
		otelmetric.WithDescription("Submission gateway latency"),
		otelmetric.WithUnit("s"),
	)
	suggestionCounter, _ := meter.Int64Counter(
		"intake_otel_suggestions",
		otelmetric.WithDescription("Number of writing-help suggestions served"),
	)
	jobCounter, _ := meter.Int64Counter(
		"intake_otel_jobs_processed",
		otelmetric.WithDescription("Number of workflow jobs processed"),
	)

	return &Observability{
		meterProvider:      provider,
		tracerProvider:     tracerProvider,
		meter:              meter,
		tracer:             tracerProvider.Tracer(serviceName),
		submissionCounter:  submissionCounter,
		submissionDuration: submissionDuration,
		suggestionCounter:  suggestionCounter,
		jobCounter:         jobCounter,
	}
}

func (o *Observability) RecordSubmission(ctx context.Context, driver, status string, duration time.Duration) {
	if o == nil || o.submissionCounter == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("driver", driver),
		attribute.String("status", status),
	)
	o.submissionCounter.Add(ctx, 1, attrs)
	o.submissionDuration.Record(ctx, duration.Seconds(), attrs)
}

func (o *Observability) RecordSuggestion(ctx context.Context, field, result string) {
	if o == nil || o.suggestionCounter == nil {
		return
	}
	o.suggestionCounter.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("field", field),
		attribute.String("result", result),
	))
}

func (o *Observability) RecordJobProcessed(ctx context.Context, taskType, status string) {
	if o == nil || o.jobCounter == nil {
		return
	}
	o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("task_type", taskType),
		attribute.String("status", status),
	))
}

func (o *Observability) Shutdown() {
	if o == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
	if o.tracerProvider != nil {
		_ = o.tracerProvider.Shutdown(ctx)
	}
}
