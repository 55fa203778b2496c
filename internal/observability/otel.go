// Package observability configures the OpenTelemetry tracer provider used by
// the verifier, the stress harness and the mock server.
package observability

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.uber.org/zap"
)

// ServiceName is reported as service.name on every span.
const ServiceName = "benchverify"

// Shutdown flushes and stops the tracer provider.
type Shutdown func(context.Context) error

// TracerOptions controls InitTracer.
type TracerOptions struct {
	Enabled  bool
	Service  string
	Endpoint string // OTLP/HTTP collector; empty exports to Writer
	// Writer receives pretty-printed spans when no endpoint is set.
	// Defaults to stderr: stdout carries verification output.
	Writer io.Writer
	Logger *zap.Logger
}

func noop(context.Context) error { return nil }

// InitTracer sets a global OpenTelemetry tracer provider.
// When disabled, the global no-op provider stays in place.
func InitTracer(opts TracerOptions) (Shutdown, error) {
	if !opts.Enabled {
		return noop, nil
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	service := strings.TrimSpace(opts.Service)
	if service == "" {
		service = ServiceName
	}

	ctx := context.Background()
	var exporter sdktrace.SpanExporter
	var err error
	if endpoint := strings.TrimSpace(opts.Endpoint); endpoint != "" {
		exporter, err = otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(endpoint), otlptracehttp.WithInsecure())
		if err != nil {
			return nil, fmt.Errorf("create otlp trace exporter: %w", err)
		}
		logger.Info("otel trace exporter configured", zap.String("type", "otlphttp"), zap.String("endpoint", endpoint))
	} else {
		w := opts.Writer
		if w == nil {
			w = os.Stderr
		}
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint(), stdouttrace.WithWriter(w))
		if err != nil {
			return nil, fmt.Errorf("create stdout trace exporter: %w", err)
		}
		logger.Info("otel trace exporter configured", zap.String("type", "stdout"))
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(service)))
	if err != nil {
		return nil, fmt.Errorf("create otel resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return func(ctx context.Context) error {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return tp.Shutdown(shutdownCtx)
	}, nil
}
