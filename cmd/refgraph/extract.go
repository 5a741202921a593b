// ABOUTME: extract command turning a serialized population into a viewer graph
// ABOUTME: Accepts JSON, YAML and Go heap dump snapshots, optionally zstd-compressed

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/prateek/refgraph/export"
	"github.com/prateek/refgraph/graph"
	"github.com/prateek/refgraph/internal/telemetry"
	"github.com/prateek/refgraph/snapshot"
	_ "github.com/prateek/refgraph/snapshot/goheap"
)

type extractFlags struct {
	input        string
	output       string
	anchor       string
	full         bool
	excludeKinds []string
	maxNodes     int
	trace        bool
}

func newExtractCmd(global *globalFlags) *cobra.Command {
	var flags extractFlags

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract the reference graph of a snapshot",
		Long: `Extract the reference graph of a snapshot and save it as a viewer document.

The graph is restricted to objects reaching the anchor: the --anchor key if
given, otherwise the anchor recorded in the snapshot unless --full is set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, global, flags)
		},
	}
	cmd.Flags().StringVar(&flags.input, "input", "", "Snapshot file (JSON, YAML or Go heap dump)")
	cmd.Flags().StringVar(&flags.output, "output", export.DefaultFile, "Output file, compressed when it ends in .zst")
	cmd.Flags().StringVar(&flags.anchor, "anchor", "", "Key of the anchor object")
	cmd.Flags().BoolVar(&flags.full, "full", false, "Ignore the anchor recorded in the snapshot")
	cmd.Flags().StringSliceVar(&flags.excludeKinds, "exclude-kind", nil, "Kind pattern to drop (repeatable, overrides config)")
	cmd.Flags().IntVar(&flags.maxNodes, "max-nodes", 0, "Fail when the population is larger (overrides config)")
	cmd.Flags().BoolVar(&flags.trace, "trace", false, "Print the extraction span to stderr")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func runExtract(cmd *cobra.Command, global *globalFlags, flags extractFlags) error {
	cfg, logger, err := setup(cmd, global)
	if err != nil {
		return err
	}
	if flags.trace {
		cfg.Telemetry.Traces = telemetry.ExporterStdout
	}

	shutdown, err := telemetry.Setup(cmd.Context(), telemetry.Options{
		Traces:  cfg.Telemetry.Traces,
		Metrics: cfg.Telemetry.Metrics,
		Writer:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	s, err := openSnapshot(flags.input)
	if err != nil {
		return err
	}
	logger.Debug("snapshot loaded", slog.String("input", flags.input), slog.Int("objects", s.Len()))

	var anchor graph.Anchor
	switch {
	case flags.anchor != "":
		key, err := strconv.ParseUint(flags.anchor, 0, 64)
		if err != nil {
			return fmt.Errorf("parsing anchor %q: %w", flags.anchor, err)
		}
		if _, ok := s.Lookup(graph.Key(key)); !ok {
			logger.Warn("anchor key not in snapshot, treating it as released", slog.Uint64("anchor", key))
		}
		anchor = s.AnchorFor(graph.Key(key))
	case !flags.full:
		anchor = s.DocumentAnchor()
	}

	opts := append(cfg.BuilderOptions(), graph.WithLogger(logger))
	if len(flags.excludeKinds) > 0 {
		opts = append(opts, graph.WithExcludeKinds(flags.excludeKinds...))
	}
	if flags.maxNodes > 0 {
		opts = append(opts, graph.WithMaxNodes(flags.maxNodes))
	}

	g, err := graph.NewBuilder(opts...).Build(cmd.Context(), s, anchor)
	if err != nil {
		return err
	}

	if err := export.WriteFile(flags.output, g, export.Options{
		Indent:   cfg.Output.Indent,
		Compress: cfg.Output.Compress,
	}); err != nil {
		return err
	}

	stats := g.Stats()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Object graph has been saved to %s\n", flags.output)
	fmt.Fprintf(out, "nodes: %d, named edges: %d, indirect edges: %d\n", stats.Nodes, stats.Named, stats.Indirect)
	fmt.Fprintf(out, "fingerprint: %s\n", g.Fingerprint())
	return nil
}

// openSnapshot opens a snapshot file, decompressing zstd input
func openSnapshot(path string) (*snapshot.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot: %w", err)
	}
	defer f.Close()

	src, err := export.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	defer src.Close()

	s, err := snapshot.Open(src)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return s, nil
}
