// ABOUTME: Graph assembler driving restriction, indexing, labeling and edges
// ABOUTME: Configured with functional options; one Build per snapshot

package graph

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"
)

// BuilderOptions configures Builder behavior.
type BuilderOptions struct {
	// SkipMembers lists member names that never produce named edges.
	// Default: DefaultSkipMembers
	SkipMembers []string

	// ExcludeKinds drops objects whose kind matches any of these
	// doublestar patterns before indexing. The anchor is never dropped.
	ExcludeKinds []string

	// MaxNodes fails the build when the population is larger.
	// Zero means unlimited.
	MaxNodes int

	// MaxLabelDepth bounds label recursion through wrappers and cells.
	// Default: DefaultMaxLabelDepth
	MaxLabelDepth int

	// Logger receives phase summaries. Default: slog.Default()
	Logger *slog.Logger
}

// DefaultBuilderOptions returns the defaults.
func DefaultBuilderOptions() BuilderOptions {
	return BuilderOptions{
		SkipMembers:   append([]string(nil), DefaultSkipMembers...),
		MaxLabelDepth: DefaultMaxLabelDepth,
	}
}

// BuilderOption is a functional option for configuring Builder.
type BuilderOption func(*BuilderOptions)

// WithSkipMembers replaces the member skip list.
func WithSkipMembers(names ...string) BuilderOption {
	return func(o *BuilderOptions) {
		o.SkipMembers = names
	}
}

// WithExcludeKinds sets the kind exclusion patterns.
func WithExcludeKinds(patterns ...string) BuilderOption {
	return func(o *BuilderOptions) {
		o.ExcludeKinds = patterns
	}
}

// WithMaxNodes sets the population limit.
func WithMaxNodes(n int) BuilderOption {
	return func(o *BuilderOptions) {
		o.MaxNodes = n
	}
}

// WithMaxLabelDepth sets the label recursion bound.
func WithMaxLabelDepth(n int) BuilderOption {
	return func(o *BuilderOptions) {
		o.MaxLabelDepth = n
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) BuilderOption {
	return func(o *BuilderOptions) {
		o.Logger = l
	}
}

// Builder extracts graphs from providers.
//
// A Builder holds no per-snapshot state and may be reused, but a single
// Build must not run concurrently with mutation of the inspected population.
type Builder struct {
	options BuilderOptions
}

// NewBuilder creates a builder with the given options applied over the
// defaults.
func NewBuilder(opts ...BuilderOption) *Builder {
	options := DefaultBuilderOptions()
	for _, opt := range opts {
		opt(&options)
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	return &Builder{options: options}
}

// Build extracts the graph of p. With a nil anchor the whole population is
// graphed and the first object is the root. Otherwise the population is
// restricted to objects reaching the anchor, which becomes the root; a
// released anchor yields an empty graph.
//
// ctx carries tracing only. Extraction runs to completion.
func (b *Builder) Build(ctx context.Context, p Provider, anchor Anchor) (*Graph, error) {
	if p == nil {
		return nil, ErrNilProvider
	}
	for _, pattern := range b.options.ExcludeKinds {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
		}
	}

	snapshotID := uuid.NewString()
	restricted := anchor != nil
	ctx, span := startBuildSpan(ctx, snapshotID, restricted)
	defer span.End()

	logger := b.options.Logger.With(slog.String("snapshot", snapshotID))
	start := time.Now()

	g, population, err := b.build(p, anchor, logger)
	recordBuildMetrics(ctx, time.Since(start), g, restricted, err == nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	setBuildSpanResult(span, population, g)

	stats := g.Stats()
	logger.Info("graph extracted",
		slog.Int("population", population),
		slog.Int("nodes", stats.Nodes),
		slog.Int("named_edges", stats.Named),
		slog.Int("indirect_edges", stats.Indirect),
		slog.Duration("elapsed", time.Since(start)),
	)
	return g, nil
}

func (b *Builder) build(p Provider, anchor Anchor, logger *slog.Logger) (*Graph, int, error) {
	population := p.Population()
	total := len(population)

	var (
		anchorObj Object
		anchorKey Key
		anchored  bool
	)
	if anchor != nil {
		obj, alive := anchor.Resolve()
		if !alive {
			logger.Info("anchor released, emitting empty graph")
			return Empty(), total, nil
		}
		if obj == nil {
			return nil, total, fmt.Errorf("%w: nil object", ErrInvalidAnchor)
		}
		anchorKey = p.Key(obj)
		if !containsKey(p, population, anchorKey) {
			return nil, total, fmt.Errorf("%w: key %d", ErrInvalidAnchor, anchorKey)
		}
		anchored = true
		anchorObj = obj
		population = Restrict(p, population, obj)
		logger.Debug("population restricted",
			slog.Int("before", total),
			slog.Int("after", len(population)),
		)
	}

	var globals map[Key]string
	if gp, ok := p.(GlobalsProvider); ok {
		globals = gp.Globals()
	}
	f := NewFormatter(p, globals, b.options.MaxLabelDepth)

	descs := make([]Description, len(population))
	for i, obj := range population {
		descs[i] = f.Describe(obj)
	}
	if len(b.options.ExcludeKinds) > 0 {
		before := len(population)
		population, descs = b.exclude(p, population, descs, anchorObj)
		logger.Debug("kinds excluded",
			slog.Int("before", before),
			slog.Int("after", len(population)),
		)
	}

	if b.options.MaxNodes > 0 && len(population) > b.options.MaxNodes {
		return nil, total, fmt.Errorf("%w: %d objects, limit %d", ErrPopulationTooLarge, len(population), b.options.MaxNodes)
	}

	idx := NewIndex(p, population)
	if dups := idx.Duplicates(); dups > 0 {
		logger.Debug("duplicate identity keys in population", slog.Int("count", dups))
	}

	root := 0
	if anchored {
		root, _ = idx.Lookup(anchorKey)
	}

	g := &Graph{
		Nodes: make([]Node, len(population)),
		Edges: []Edge{},
	}
	labels := make([]string, len(population))
	for i, obj := range population {
		labels[i] = f.Label(obj, descs[i])
		g.Nodes[i] = Node{
			ID:    i,
			Label: labels[i],
			Kind:  kindOf(descs[i]),
			Root:  i == root,
		}
	}

	c := NewClassifier(p, idx, descs, labels, b.options.SkipMembers)
	for i, obj := range population {
		g.Edges = append(g.Edges, c.Classify(obj, i)...)
	}
	if n := c.MemberErrors(); n > 0 {
		logger.Debug("objects refused member enumeration", slog.Int("count", n))
	}

	return g, total, nil
}

// exclude drops objects whose kind matches an ExcludeKinds pattern. With an
// anchor, the anchor is kept and the survivors are restricted again so
// that nothing reaching the anchor only through a dropped object remains.
func (b *Builder) exclude(p Provider, population []Object, descs []Description, anchor Object) ([]Object, []Description) {
	var anchorKey Key
	if anchor != nil {
		anchorKey = p.Key(anchor)
	}
	keptObjs := make([]Object, 0, len(population))
	keptDescs := make([]Description, 0, len(descs))
	for i, obj := range population {
		if b.excluded(kindOf(descs[i])) && !(anchor != nil && p.Key(obj) == anchorKey) {
			continue
		}
		keptObjs = append(keptObjs, obj)
		keptDescs = append(keptDescs, descs[i])
	}
	if anchor == nil {
		return keptObjs, keptDescs
	}

	restricted := Restrict(p, keptObjs, anchor)
	restrictedDescs := make([]Description, 0, len(restricted))
	j := 0
	for _, obj := range restricted {
		k := p.Key(obj)
		for p.Key(keptObjs[j]) != k {
			j++
		}
		restrictedDescs = append(restrictedDescs, keptDescs[j])
		j++
	}
	return restricted, restrictedDescs
}

func (b *Builder) excluded(kind string) bool {
	for _, pattern := range b.options.ExcludeKinds {
		if ok, _ := doublestar.Match(pattern, kind); ok {
			return true
		}
	}
	return false
}

func containsKey(p Provider, population []Object, k Key) bool {
	for _, obj := range population {
		if p.Key(obj) == k {
			return true
		}
	}
	return false
}
