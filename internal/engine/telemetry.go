package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/AltairaLabs/datazone-handlers/internal/engine"

// Metrics holds the Prometheus collectors updated by the engine. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	remoteCalls    *prometheus.CounterVec
	remoteDuration *prometheus.HistogramVec
	stabilizations *prometheus.CounterVec
	results        *prometheus.CounterVec
}

// NewMetrics creates the engine collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		remoteCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "datazone_handlers",
				Name:      "remote_calls_total",
				Help:      "Remote API calls by resource type, verb and outcome",
			},
			[]string{"type", "verb", "outcome"},
		),
		remoteDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "datazone_handlers",
				Name:      "remote_call_duration_seconds",
				Help:      "Remote API call latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"type", "verb"},
		),
		stabilizations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "datazone_handlers",
				Name:      "stabilization_decisions_total",
				Help:      "Stabilizer decisions by resource type, operation and phase",
			},
			[]string{"type", "operation", "phase"},
		),
		results: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "datazone_handlers",
				Name:      "handler_results_total",
				Help:      "Handler results by resource type, operation and status",
			},
			[]string{"type", "operation", "status"},
		),
	}
	for _, c := range []prometheus.Collector{m.remoteCalls, m.remoteDuration, m.stabilizations, m.results} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeCall(typeName string, verb Operation, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.remoteCalls.WithLabelValues(typeName, string(verb), outcome).Inc()
	m.remoteDuration.WithLabelValues(typeName, string(verb)).Observe(d.Seconds())
}

func (m *Metrics) observeStabilization(typeName string, op Operation, phase Phase) {
	if m == nil {
		return
	}
	m.stabilizations.WithLabelValues(typeName, string(op), string(phase)).Inc()
}

func (m *Metrics) observeResult(typeName string, op Operation, status Status) {
	if m == nil {
		return
	}
	m.results.WithLabelValues(typeName, string(op), string(status)).Inc()
}

// Options configures the ambient collaborators of a Handler.
type Options struct {
	Logger  *slog.Logger
	Metrics *Metrics
	Tracer  trace.Tracer
}

// Option mutates Options.
type Option func(*Options)

// WithLogger sets the logger used for classification and stabilization logs.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *Metrics) Option {
	return func(o *Options) { o.Metrics = m }
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(o *Options) { o.Tracer = t }
}

func buildOptions(opts []Option) Options {
	o := Options{}
	for _, fn := range opts {
		fn(&o)
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Tracer == nil {
		o.Tracer = otel.Tracer(tracerName)
	}
	return o
}

// startSpan opens a span for a remote call or invocation.
func (o Options) startSpan(
	ctx context.Context, name, typeName string, op Operation,
) (context.Context, trace.Span) {
	return o.Tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("resource.type", typeName),
		attribute.String("resource.operation", string(op)),
	))
}

// endSpan records the classified failure, if any, and ends span.
func endSpan(span trace.Span, he *HandlerError) {
	if he != nil {
		span.SetAttributes(attribute.String("error.kind", string(he.Kind)))
		span.SetStatus(codes.Error, he.Message)
	}
	span.End()
}
