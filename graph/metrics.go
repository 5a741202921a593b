// ABOUTME: OpenTelemetry tracer and meter for extraction runs
// ABOUTME: Instruments are created lazily and are no-ops without a provider

package graph

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("refgraph.graph")
	meter  = otel.Meter("refgraph.graph")
)

var (
	buildLatency metric.Float64Histogram
	buildTotal   metric.Int64Counter
	nodesEmitted metric.Int64Histogram
	edgesEmitted metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		buildLatency, err = meter.Float64Histogram(
			"refgraph_build_duration_seconds",
			metric.WithDescription("Duration of graph extractions"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		buildTotal, err = meter.Int64Counter(
			"refgraph_build_total",
			metric.WithDescription("Total number of graph extractions"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		nodesEmitted, err = meter.Int64Histogram(
			"refgraph_nodes_emitted",
			metric.WithDescription("Number of nodes per extraction"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		edgesEmitted, err = meter.Int64Histogram(
			"refgraph_edges_emitted",
			metric.WithDescription("Number of edges per extraction"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

func recordBuildMetrics(ctx context.Context, duration time.Duration, g *Graph, restricted, success bool) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.Bool("success", success),
		attribute.Bool("restricted", restricted),
	)
	buildLatency.Record(ctx, duration.Seconds(), attrs)
	buildTotal.Add(ctx, 1, attrs)

	if success && g != nil {
		nodesEmitted.Record(ctx, int64(len(g.Nodes)))
		edgesEmitted.Record(ctx, int64(len(g.Edges)))
	}
}

func startBuildSpan(ctx context.Context, snapshotID string, restricted bool) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Builder.Build",
		trace.WithAttributes(
			attribute.String("refgraph.snapshot_id", snapshotID),
			attribute.Bool("refgraph.restricted", restricted),
		),
	)
}

func setBuildSpanResult(span trace.Span, population int, g *Graph) {
	span.SetAttributes(
		attribute.Int("refgraph.population", population),
		attribute.Int("refgraph.node_count", len(g.Nodes)),
		attribute.Int("refgraph.edge_count", len(g.Edges)),
	)
}
