// ABOUTME: In-memory population decoded from a document
// ABOUTME: Implements graph.Provider with a prebuilt reverse index

package snapshot

import (
	"errors"

	"github.com/prateek/refgraph/graph"
)

// ErrOpaque is returned by Members for objects that refuse reflection
var ErrOpaque = errors.New("object refuses member enumeration")

// Entry is one object of a snapshot
type Entry struct {
	Key graph.Key

	desc     graph.Description
	members  []graph.Member
	refs     []graph.Object
	opaque   bool
	dangling bool
}

// Dangling reports whether the entry stands for a key referenced by the
// document but not present in it
func (e *Entry) Dangling() bool {
	return e.dangling
}

// Snapshot is a frozen population. It is read-only once built.
type Snapshot struct {
	entries   []*Entry
	byKey     map[graph.Key]*Entry
	stubs     map[graph.Key]*Entry
	referrers map[graph.Key][]graph.Object
	globals   map[graph.Key]string
	anchor    *graph.Key
}

var (
	_ graph.Provider        = (*Snapshot)(nil)
	_ graph.GlobalsProvider = (*Snapshot)(nil)
)

// FromDocument builds a snapshot. References to keys that are not in the
// document are kept as dangling entries; the extraction core drops them.
func FromDocument(doc *Document) (*Snapshot, error) {
	if err := doc.validate(); err != nil {
		return nil, err
	}

	s := &Snapshot{
		entries:   make([]*Entry, len(doc.Objects)),
		byKey:     make(map[graph.Key]*Entry, len(doc.Objects)),
		stubs:     make(map[graph.Key]*Entry),
		referrers: make(map[graph.Key][]graph.Object),
		globals:   make(map[graph.Key]string, len(doc.Globals)),
	}
	for i, obj := range doc.Objects {
		e := &Entry{Key: graph.Key(obj.Key), opaque: obj.Opaque}
		s.entries[i] = e
		s.byKey[e.Key] = e
	}

	for i, obj := range doc.Objects {
		e := s.entries[i]
		e.desc = graph.Description{
			Category:       graph.ParseCategory(obj.Category),
			Kind:           obj.Kind,
			Text:           obj.Text,
			Name:           obj.Name,
			QualName:       obj.QualName,
			Origin:         obj.Origin,
			File:           obj.File,
			Empty:          obj.Empty,
			SelfDescribing: obj.SelfDescribing,
		}
		if obj.Inner != nil {
			e.desc.Inner = s.resolve(graph.Key(*obj.Inner))
		}

		tracked := make(map[graph.Key]struct{}, len(obj.Refs)+len(obj.Members))
		for _, m := range obj.Members {
			e.members = append(e.members, graph.Member{Name: m.Name, Value: s.resolve(graph.Key(m.Ref))})
		}
		for _, ref := range obj.Refs {
			tracked[graph.Key(ref)] = struct{}{}
			e.refs = append(e.refs, s.resolve(graph.Key(ref)))
		}
		// Tracked references are a superset of member values
		for _, m := range obj.Members {
			if _, ok := tracked[graph.Key(m.Ref)]; ok {
				continue
			}
			tracked[graph.Key(m.Ref)] = struct{}{}
			e.refs = append(e.refs, s.resolve(graph.Key(m.Ref)))
		}
	}

	for _, e := range s.entries {
		seen := make(map[graph.Key]struct{}, len(e.refs))
		for _, ref := range e.refs {
			k := ref.(*Entry).Key
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			s.referrers[k] = append(s.referrers[k], e)
		}
	}

	for k, name := range doc.Globals {
		s.globals[graph.Key(k)] = name
	}
	if doc.Anchor != nil {
		k := graph.Key(*doc.Anchor)
		s.anchor = &k
	}
	return s, nil
}

func (s *Snapshot) resolve(k graph.Key) *Entry {
	if e, ok := s.byKey[k]; ok {
		return e
	}
	if e, ok := s.stubs[k]; ok {
		return e
	}
	e := &Entry{
		Key:      k,
		dangling: true,
		desc:     graph.Description{Category: graph.Other, Kind: "unknown"},
	}
	s.stubs[k] = e
	return e
}

// Len returns the number of objects
func (s *Snapshot) Len() int {
	return len(s.entries)
}

// Lookup returns the entry with key k
func (s *Snapshot) Lookup(k graph.Key) (*Entry, bool) {
	e, ok := s.byKey[k]
	return e, ok
}

// Population returns the entries in document order
func (s *Snapshot) Population() []graph.Object {
	objs := make([]graph.Object, len(s.entries))
	for i, e := range s.entries {
		objs[i] = e
	}
	return objs
}

// Key returns the entry key
func (s *Snapshot) Key(obj graph.Object) graph.Key {
	return obj.(*Entry).Key
}

// Members returns the named members, or ErrOpaque
func (s *Snapshot) Members(obj graph.Object) ([]graph.Member, error) {
	e := obj.(*Entry)
	if e.opaque {
		return nil, ErrOpaque
	}
	return e.members, nil
}

// References returns the tracked references
func (s *Snapshot) References(obj graph.Object) []graph.Object {
	return obj.(*Entry).refs
}

// Referrers returns the entries that reference obj
func (s *Snapshot) Referrers(obj graph.Object) []graph.Object {
	return s.referrers[obj.(*Entry).Key]
}

// Describe returns the entry description
func (s *Snapshot) Describe(obj graph.Object) graph.Description {
	return obj.(*Entry).desc
}

// Globals returns the namespace-globals table
func (s *Snapshot) Globals() map[graph.Key]string {
	return s.globals
}

// AnchorFor returns an anchor on the object with key k. A key that is not
// part of the snapshot designates a released object.
func (s *Snapshot) AnchorFor(k graph.Key) graph.Anchor {
	e, ok := s.byKey[k]
	if !ok {
		return graph.Released
	}
	return graph.ObjectAnchor(e)
}

// DocumentAnchor returns the anchor recorded in the document, or nil
func (s *Snapshot) DocumentAnchor() graph.Anchor {
	if s.anchor == nil {
		return nil
	}
	return s.AnchorFor(*s.anchor)
}
