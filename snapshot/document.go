// ABOUTME: Serializable description of an object population
// ABOUTME: Shared by the JSON and YAML parsers and by Capture

package snapshot

import (
	"fmt"

	"github.com/prateek/refgraph/graph"
)

// Document is the serialized form of a population. Objects appear in
// enumeration order.
type Document struct {
	Objects []DocObject       `json:"objects" yaml:"objects"`
	Globals map[uint64]string `json:"globals,omitempty" yaml:"globals,omitempty"`
	Anchor  *uint64           `json:"anchor,omitempty" yaml:"anchor,omitempty"`
}

// DocObject describes one object
type DocObject struct {
	Key            uint64      `json:"key" yaml:"key"`
	Kind           string      `json:"kind" yaml:"kind"`
	Category       string      `json:"category,omitempty" yaml:"category,omitempty"`
	Text           string      `json:"text,omitempty" yaml:"text,omitempty"`
	Name           string      `json:"name,omitempty" yaml:"name,omitempty"`
	QualName       string      `json:"qualname,omitempty" yaml:"qualname,omitempty"`
	Origin         string      `json:"origin,omitempty" yaml:"origin,omitempty"`
	File           string      `json:"file,omitempty" yaml:"file,omitempty"`
	Inner          *uint64     `json:"inner,omitempty" yaml:"inner,omitempty"`
	Empty          bool        `json:"empty,omitempty" yaml:"empty,omitempty"`
	SelfDescribing bool        `json:"self_describing,omitempty" yaml:"self_describing,omitempty"`
	Opaque         bool        `json:"opaque,omitempty" yaml:"opaque,omitempty"`
	Members        []DocMember `json:"members,omitempty" yaml:"members,omitempty"`
	Refs           []uint64    `json:"refs,omitempty" yaml:"refs,omitempty"`
}

// DocMember is a named reference
type DocMember struct {
	Name string `json:"name" yaml:"name"`
	Ref  uint64 `json:"ref" yaml:"ref"`
}

// validate rejects documents the snapshot cannot represent
func (d *Document) validate() error {
	if d.Objects == nil {
		return fmt.Errorf("%w: missing objects", ErrMalformed)
	}
	seen := make(map[uint64]int, len(d.Objects))
	for i, obj := range d.Objects {
		if prev, dup := seen[obj.Key]; dup {
			return fmt.Errorf("%w: objects %d and %d share key %d", ErrMalformed, prev, i, obj.Key)
		}
		seen[obj.Key] = i
		if obj.Kind == "" {
			return fmt.Errorf("%w: object %d (key %d) has no kind", ErrMalformed, i, obj.Key)
		}
	}
	return nil
}

// Capture serializes the population of any provider. Inner objects and
// references are recorded by key; descriptions are taken as the provider
// reports them.
func Capture(p graph.Provider) *Document {
	population := p.Population()
	doc := &Document{Objects: make([]DocObject, 0, len(population))}

	for _, obj := range population {
		d := p.Describe(obj)
		o := DocObject{
			Key:            uint64(p.Key(obj)),
			Kind:           d.Kind,
			Category:       d.Category.String(),
			Text:           d.Text,
			Name:           d.Name,
			QualName:       d.QualName,
			Origin:         d.Origin,
			File:           d.File,
			Empty:          d.Empty,
			SelfDescribing: d.SelfDescribing,
		}
		if d.Inner != nil {
			k := uint64(p.Key(d.Inner))
			o.Inner = &k
		}
		members, err := p.Members(obj)
		if err != nil {
			o.Opaque = true
		}
		for _, m := range members {
			if m.Value == nil {
				continue
			}
			o.Members = append(o.Members, DocMember{Name: m.Name, Ref: uint64(p.Key(m.Value))})
		}
		for _, ref := range p.References(obj) {
			if ref != nil {
				o.Refs = append(o.Refs, uint64(p.Key(ref)))
			}
		}
		doc.Objects = append(doc.Objects, o)
	}

	if gp, ok := p.(graph.GlobalsProvider); ok {
		if globals := gp.Globals(); len(globals) > 0 {
			doc.Globals = make(map[uint64]string, len(globals))
			for k, name := range globals {
				doc.Globals[uint64(k)] = name
			}
		}
	}
	return doc
}
