package telemetry

import (
	"context"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.20.0"
	"go.opentelemetry.io/otel/trace"
)

const scope = "github.com/MrOplus/NetGuard"

// TraceOptions configures span export. Spans go to Writer as JSON lines,
// or stdout when Writer is nil.
type TraceOptions struct {
	Version     string
	Writer      io.Writer
	SampleRatio float64 // <= 0 or >= 1 samples every root span
	Pretty      bool
}

// InitTracer installs the global tracer provider and returns its shutdown.
func InitTracer(ctx context.Context, o TraceOptions) (func(context.Context) error, error) {
	var exportOpts []stdouttrace.Option
	if o.Writer != nil {
		exportOpts = append(exportOpts, stdouttrace.WithWriter(o.Writer))
	}
	if o.Pretty {
		exportOpts = append(exportOpts, stdouttrace.WithPrettyPrint())
	}
	exporter, err := stdouttrace.New(exportOpts...)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithHost(),
		resource.WithProcessPID(),
		resource.WithAttributes(
			semconv.ServiceName("netguard"),
			semconv.ServiceVersion(o.Version),
		),
	)
	if err != nil {
		return nil, err
	}

	sampler := sdktrace.AlwaysSample()
	if o.SampleRatio > 0 && o.SampleRatio < 1 {
		sampler = sdktrace.TraceIDRatioBased(o.SampleRatio)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sampler)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return tp.Shutdown, nil
}

// Tracer is the tracer for spans around periodic tasks.
func Tracer() trace.Tracer {
	return otel.Tracer(scope)
}
