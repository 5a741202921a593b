// ABOUTME: Strong and weak anchors on live values
// ABOUTME: Weak anchors report released once the value is collected

package goreflect

import (
	"errors"
	"reflect"
	"weak"

	"github.com/prateek/refgraph/graph"
)

var (
	// ErrNotReference is returned for values that have no identity: nil,
	// or anything other than a pointer, map, slice, func or chan.
	ErrNotReference = errors.New("value is not a reference")

	// ErrUnknownObject is returned when a value is not part of the snapshot
	ErrUnknownObject = errors.New("value is not part of the snapshot")
)

// Anchor returns a strong anchor on v. A reference value the snapshot
// never discovered still yields an anchor; Build then rejects it with
// graph.ErrInvalidAnchor.
func (p *Provider) Anchor(v any) (graph.Anchor, error) {
	obj, err := p.objectFor(reflect.ValueOf(v))
	if err != nil {
		return nil, err
	}
	return graph.ObjectAnchor(obj), nil
}

// WeakAnchor returns an anchor that does not keep its target alive and
// resolves as released once the target has been collected.
func WeakAnchor[T any](p *Provider, wp weak.Pointer[T]) graph.Anchor {
	return weakAnchor[T]{p: p, wp: wp}
}

type weakAnchor[T any] struct {
	p  *Provider
	wp weak.Pointer[T]
}

func (a weakAnchor[T]) Resolve() (graph.Object, bool) {
	ptr := a.wp.Value()
	if ptr == nil {
		return nil, false
	}
	obj, err := a.p.objectFor(reflect.ValueOf(ptr))
	if err != nil {
		return nil, false
	}
	return obj, true
}

// objectFor returns the snapshot object for v, or a detached object with
// key 0 when v was not discovered
func (p *Provider) objectFor(v reflect.Value) (graph.Object, error) {
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		if v.IsNil() {
			return nil, ErrNotReference
		}
	default:
		return nil, ErrNotReference
	}
	if o, ok := p.byID[identityOf(v)]; ok {
		return o, nil
	}
	return &object{key: 0, v: v}, nil
}
