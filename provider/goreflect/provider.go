// ABOUTME: Provider over live Go values built with reflect
// ABOUTME: Snapshots the reference graph reachable from caller roots

package goreflect

import (
	"log/slog"
	"reflect"

	"github.com/prateek/refgraph/graph"
)

// DefaultMaxObjects bounds how many objects one snapshot discovers
const DefaultMaxObjects = 1 << 20

// Options configures a Provider snapshot.
type Options struct {
	// MaxObjects stops discovery once this many objects are known.
	// References to undiscovered objects are dropped.
	// Default: DefaultMaxObjects
	MaxObjects int

	// Logger receives the snapshot summary. Default: slog.Default()
	Logger *slog.Logger

	globals []namedGlobals
}

type namedGlobals struct {
	name string
	m    any
}

// Option is a functional option for configuring a Provider.
type Option func(*Options)

// WithMaxObjects sets the discovery bound.
func WithMaxObjects(n int) Option {
	return func(o *Options) {
		o.MaxObjects = n
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithGlobals adds m as a root and registers it as the globals mapping of
// the module name.
func WithGlobals(name string, m any) Option {
	return func(o *Options) {
		o.globals = append(o.globals, namedGlobals{name: name, m: m})
	}
}

// Provider implements graph.Provider over a snapshot of live values.
//
// The snapshot is taken by New: objects created or links changed
// afterwards are not observed. The provider keeps every discovered object
// alive for as long as it is referenced.
type Provider struct {
	objects   []*object
	byID      map[identity]*object
	referrers map[graph.Key][]graph.Object
	globals   map[graph.Key]string
	truncated bool
}

var (
	_ graph.Provider        = (*Provider)(nil)
	_ graph.GlobalsProvider = (*Provider)(nil)
)

// New snapshots every object transitively reachable from roots. Roots
// that are not reference values (pointer, map, slice, func, chan, or an
// interface holding one) are scanned for the references they contain.
func New(roots []any, opts ...Option) (*Provider, error) {
	options := Options{MaxObjects: DefaultMaxObjects}
	for _, opt := range opts {
		opt(&options)
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.MaxObjects <= 0 {
		options.MaxObjects = DefaultMaxObjects
	}

	w := newWalker(options.MaxObjects)
	for _, root := range roots {
		w.root(reflect.ValueOf(root))
	}
	for _, g := range options.globals {
		w.root(reflect.ValueOf(g.m))
	}
	w.run()

	p := &Provider{
		objects:   w.objects,
		byID:      w.byID,
		referrers: make(map[graph.Key][]graph.Object),
		globals:   make(map[graph.Key]string),
		truncated: w.truncated,
	}
	for _, o := range p.objects {
		for _, ref := range o.refs {
			k := ref.(*object).key
			p.referrers[k] = append(p.referrers[k], o)
		}
	}
	for _, g := range options.globals {
		if err := p.RegisterGlobals(g.name, g.m); err != nil {
			return nil, err
		}
	}

	options.Logger.Debug("live snapshot taken",
		slog.Int("objects", len(p.objects)),
		slog.Int("roots", len(roots)),
		slog.Bool("truncated", p.truncated),
	)
	if p.truncated {
		options.Logger.Warn("object discovery stopped at limit",
			slog.Int("max_objects", options.MaxObjects),
		)
	}
	return p, nil
}

// Len returns the number of discovered objects
func (p *Provider) Len() int {
	return len(p.objects)
}

// Truncated reports whether discovery stopped at MaxObjects
func (p *Provider) Truncated() bool {
	return p.truncated
}

// Population returns the objects in discovery order
func (p *Provider) Population() []graph.Object {
	objs := make([]graph.Object, len(p.objects))
	for i, o := range p.objects {
		objs[i] = o
	}
	return objs
}

// Key returns the serial key assigned at discovery
func (p *Provider) Key(obj graph.Object) graph.Key {
	return obj.(*object).key
}

// Members returns the exported fields of a struct, in field order
func (p *Provider) Members(obj graph.Object) ([]graph.Member, error) {
	return obj.(*object).members, nil
}

// References returns every reference found in the object's contents
func (p *Provider) References(obj graph.Object) []graph.Object {
	return obj.(*object).refs
}

// Referrers returns the objects whose contents reference obj
func (p *Provider) Referrers(obj graph.Object) []graph.Object {
	return p.referrers[obj.(*object).key]
}

// Describe returns the description computed at discovery
func (p *Provider) Describe(obj graph.Object) graph.Description {
	return obj.(*object).desc
}

// Globals returns the registered globals mappings
func (p *Provider) Globals() map[graph.Key]string {
	return p.globals
}

// RegisterGlobals marks the map m, which must be part of the snapshot, as
// the globals of module name.
func (p *Provider) RegisterGlobals(name string, m any) error {
	v := reflect.ValueOf(m)
	if v.Kind() != reflect.Map || v.IsNil() {
		return ErrNotReference
	}
	o, ok := p.byID[identityOf(v)]
	if !ok {
		return ErrUnknownObject
	}
	p.globals[o.key] = name
	return nil
}
