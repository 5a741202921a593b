// ABOUTME: OpenTelemetry providers for command line runs
// ABOUTME: Installs global tracer and meter providers exporting to a writer

package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/prateek/refgraph"
)

// ServiceName is reported as the service.name resource attribute
const ServiceName = "refgraph"

// Exporter names accepted for traces and metrics
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
)

// ErrUnknownExporter is returned for exporter names other than none and stdout
var ErrUnknownExporter = errors.New("unknown exporter")

// Options selects the exporters. Empty names mean none.
type Options struct {
	Traces  string
	Metrics string
	// Writer receives exported spans and metrics
	Writer io.Writer
}

// ShutdownFunc flushes and stops the installed providers
type ShutdownFunc func(context.Context) error

// Setup installs the global providers selected by opts. With both
// exporters disabled the otel no-op providers stay in place and the
// returned shutdown does nothing.
func Setup(ctx context.Context, opts Options) (ShutdownFunc, error) {
	var shutdownFuncs []func(context.Context) error
	shutdown := func(ctx context.Context) error {
		var errs []error
		for i := len(shutdownFuncs) - 1; i >= 0; i-- {
			errs = append(errs, shutdownFuncs[i](ctx))
		}
		return errors.Join(errs...)
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", ServiceName),
		attribute.String("service.version", refgraph.Version),
	)

	switch strings.ToLower(opts.Traces) {
	case "", ExporterNone:
	case ExporterStdout:
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(opts.Writer), stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("create trace exporter: %w", err)
		}
		// Runs are short, so spans are exported as they end
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithSyncer(exporter),
			sdktrace.WithResource(res),
		)
		otel.SetTracerProvider(tp)
		shutdownFuncs = append(shutdownFuncs, tp.Shutdown)
	default:
		return nil, fmt.Errorf("%w: traces %q", ErrUnknownExporter, opts.Traces)
	}

	switch strings.ToLower(opts.Metrics) {
	case "", ExporterNone:
	case ExporterStdout:
		exporter, err := stdoutmetric.New(stdoutmetric.WithWriter(opts.Writer), stdoutmetric.WithPrettyPrint())
		if err != nil {
			_ = shutdown(ctx)
			return nil, fmt.Errorf("create metric exporter: %w", err)
		}
		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
			sdkmetric.WithResource(res),
		)
		otel.SetMeterProvider(mp)
		shutdownFuncs = append(shutdownFuncs, mp.Shutdown)
	default:
		_ = shutdown(ctx)
		return nil, fmt.Errorf("%w: metrics %q", ErrUnknownExporter, opts.Metrics)
	}

	return shutdown, nil
}
