// ABOUTME: Query commands over a saved viewer graph
// ABOUTME: paths, cycles, retained and stats

package main

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/prateek/refgraph/analysis"
	"github.com/prateek/refgraph/export"
	"github.com/prateek/refgraph/graph"
)

func loadGraph(cmd *cobra.Command, global *globalFlags, path string) (*graph.Graph, error) {
	_, logger, err := setup(cmd, global)
	if err != nil {
		return nil, err
	}
	g, err := export.ReadFile(path)
	if err != nil {
		return nil, err
	}
	logger.Debug("graph loaded", slog.String("graph", path), slog.Int("nodes", len(g.Nodes)), slog.Int("edges", len(g.Edges)))
	return g, nil
}

func newPathsCmd(global *globalFlags) *cobra.Command {
	var (
		graphPath string
		from      int
		maxPaths  int
		holders   bool
	)

	cmd := &cobra.Command{
		Use:   "paths",
		Short: "Show reference chains from the root down to a node",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := loadGraph(cmd, global, graphPath)
			if err != nil {
				return err
			}
			if from < 0 || from >= len(g.Nodes) {
				return fmt.Errorf("node %d is not in the graph (%d nodes)", from, len(g.Nodes))
			}

			var paths []analysis.Path
			if holders {
				paths = analysis.RetentionChains(g, from, maxPaths)
			} else {
				paths = analysis.PathsToRoot(g, from, maxPaths)
			}

			out := cmd.OutOrStdout()
			if len(paths) == 0 {
				fmt.Fprintf(out, "no path reaches node %d\n", from)
				return nil
			}
			for _, p := range paths {
				fmt.Fprintln(out, p.Format(g))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&graphPath, "graph", export.DefaultFile, "Graph file written by extract")
	cmd.Flags().IntVar(&from, "from", 0, "Node id")
	cmd.Flags().IntVar(&maxPaths, "max", 5, "Maximum number of paths")
	cmd.Flags().BoolVar(&holders, "holders", false, "Follow referrers to the outermost holders instead of the root")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}

func newCyclesCmd(global *globalFlags) *cobra.Command {
	var graphPath string

	cmd := &cobra.Command{
		Use:   "cycles",
		Short: "List reference cycles",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := loadGraph(cmd, global, graphPath)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			cycles := analysis.Cycles(g)
			if len(cycles) == 0 {
				fmt.Fprintln(out, "no cycles")
				return nil
			}
			for i, c := range cycles {
				labels := make([]string, len(c.IDs))
				for j, id := range c.IDs {
					labels[j] = fmt.Sprintf("%d:%s", id, g.Nodes[id].Label)
				}
				fmt.Fprintf(out, "cycle %d (%d nodes): %s\n", i+1, len(c.IDs), strings.Join(labels, ", "))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&graphPath, "graph", export.DefaultFile, "Graph file written by extract")
	return cmd
}

func newRetainedCmd(global *globalFlags) *cobra.Command {
	var (
		graphPath string
		top       int
	)

	cmd := &cobra.Command{
		Use:   "retained",
		Short: "Rank nodes by how many nodes they alone keep reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := loadGraph(cmd, global, graphPath)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, r := range analysis.TopRetainers(g, top) {
				n := g.Nodes[r.ID]
				fmt.Fprintf(out, "%8d  %d:%s (%s)\n", r.Retained, n.ID, n.Label, n.Kind)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&graphPath, "graph", export.DefaultFile, "Graph file written by extract")
	cmd.Flags().IntVar(&top, "top", 10, "Number of nodes to show")
	return cmd
}

func newStatsCmd(global *globalFlags) *cobra.Command {
	var graphPath string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarise a graph by kind",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := loadGraph(cmd, global, graphPath)
			if err != nil {
				return err
			}

			stats := g.Stats()
			kinds := make([]string, 0, len(stats.Kinds))
			for kind := range stats.Kinds {
				kinds = append(kinds, kind)
			}
			sort.Slice(kinds, func(i, j int) bool {
				if stats.Kinds[kinds[i]] != stats.Kinds[kinds[j]] {
					return stats.Kinds[kinds[i]] > stats.Kinds[kinds[j]]
				}
				return kinds[i] < kinds[j]
			})

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "nodes: %d, edges: %d\n", stats.Nodes, len(g.Edges))
			for _, kind := range kinds {
				fmt.Fprintf(out, "%8d  %s\n", stats.Kinds[kind], kind)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&graphPath, "graph", export.DefaultFile, "Graph file written by extract")
	return cmd
}
