// ABOUTME: Breadth-first discovery of reference values
// ABOUTME: Assigns serial keys and records members and tracked references

package goreflect

import (
	"reflect"
	"unsafe"

	"github.com/prateek/refgraph/graph"
)

// identity distinguishes objects sharing an address: a struct and its
// first field, or slices of different lengths over one array
type identity struct {
	addr uintptr
	typ  reflect.Type
	len  int
}

func identityOf(v reflect.Value) identity {
	id := identity{typ: v.Type()}
	switch v.Kind() {
	case reflect.Func:
		id.addr = funcAddr(v)
	case reflect.Slice:
		id.addr = v.Pointer()
		id.len = v.Len()
	default:
		id.addr = v.Pointer()
	}
	return id
}

// funcAddr returns the address of the closure record behind a func value.
// Pointer would return the code address, which every closure of one
// function literal shares.
func funcAddr(v reflect.Value) uintptr {
	v = addressable(v)
	if !v.CanAddr() {
		return v.Pointer()
	}
	return uintptr(*(*unsafe.Pointer)(unsafe.Pointer(v.UnsafeAddr())))
}

// addressable returns v backed by addressable memory and without the
// read-only flag set on values reached through unexported fields
func addressable(v reflect.Value) reflect.Value {
	if v.CanAddr() {
		if v.CanInterface() {
			return v
		}
		return reflect.NewAt(v.Type(), unsafe.Pointer(v.UnsafeAddr())).Elem()
	}
	switch v.Kind() {
	case reflect.Func, reflect.Struct, reflect.Array:
		if !v.CanInterface() {
			return v
		}
		tmp := reflect.New(v.Type()).Elem()
		tmp.Set(v)
		return tmp
	}
	return v
}

// object is the graph.Object handed out by Provider
type object struct {
	key     graph.Key
	v       reflect.Value
	members []graph.Member
	refs    []graph.Object
	desc    graph.Description

	tracked map[graph.Key]struct{}
}

// add records a reference found in the object's contents. Names are only
// given to references reached through exported struct fields.
func (o *object) add(name string, target *object) {
	if name != "" {
		o.members = append(o.members, graph.Member{Name: name, Value: target})
	}
	if _, dup := o.tracked[target.key]; dup {
		return
	}
	o.tracked[target.key] = struct{}{}
	o.refs = append(o.refs, target)
}

type walker struct {
	max       int
	objects   []*object
	byID      map[identity]*object
	truncated bool
	flat      map[reflect.Type]bool
}

func newWalker(max int) *walker {
	return &walker{
		max:  max,
		byID: make(map[identity]*object),
		flat: make(map[reflect.Type]bool),
	}
}

// root interns v, or the references inside it when v is a plain value
func (w *walker) root(v reflect.Value) {
	w.scan(v, "", false, nil)
}

// run expands objects in discovery order until no new ones appear
func (w *walker) run() {
	for i := 0; i < len(w.objects); i++ {
		o := w.objects[i]
		w.expand(o)
		o.desc = w.describe(o)
		o.tracked = nil
	}
}

func (w *walker) intern(v reflect.Value) (*object, bool) {
	id := identityOf(v)
	if o, ok := w.byID[id]; ok {
		return o, true
	}
	if len(w.objects) >= w.max {
		w.truncated = true
		return nil, false
	}
	o := &object{
		key:     graph.Key(len(w.objects) + 1),
		v:       v,
		tracked: make(map[graph.Key]struct{}),
	}
	w.objects = append(w.objects, o)
	w.byID[id] = o
	return o, true
}

func (w *walker) expand(o *object) {
	v := o.v
	switch v.Kind() {
	case reflect.Pointer:
		w.scan(v.Elem(), "", true, o)
	case reflect.Slice:
		if w.pointerFree(v.Type().Elem()) {
			return
		}
		for i := 0; i < v.Len(); i++ {
			w.scan(v.Index(i), "", false, o)
		}
	case reflect.Map:
		t := v.Type()
		keys, elems := !w.pointerFree(t.Key()), !w.pointerFree(t.Elem())
		if !keys && !elems {
			return
		}
		iter := v.MapRange()
		for iter.Next() {
			if keys {
				w.scan(iter.Key(), "", false, o)
			}
			if elems {
				w.scan(iter.Value(), "", false, o)
			}
		}
	}
}

// scan finds the reference values inside v. path is the dotted field path
// from the holder; exported is false once the path crosses an unexported
// field. holder may be nil for roots.
func (w *walker) scan(v reflect.Value, path string, exported bool, holder *object) {
	if !v.IsValid() {
		return
	}
	v = addressable(v)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		if v.IsNil() {
			return
		}
		target, ok := w.intern(v)
		if !ok || holder == nil {
			return
		}
		name := ""
		if exported {
			name = path
		}
		holder.add(name, target)
	case reflect.Interface:
		if !v.IsNil() {
			w.scan(v.Elem(), path, exported, holder)
		}
	case reflect.Struct:
		t := v.Type()
		if w.pointerFree(t) {
			return
		}
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			w.scan(v.Field(i), joinPath(path, f.Name), exported && f.IsExported(), holder)
		}
	case reflect.Array:
		if w.pointerFree(v.Type()) {
			return
		}
		for i := 0; i < v.Len(); i++ {
			w.scan(v.Index(i), "", false, holder)
		}
	}
}

// pointerFree reports whether values of t can hold no reference
func (w *walker) pointerFree(t reflect.Type) bool {
	if flat, ok := w.flat[t]; ok {
		return flat
	}
	flat := true
	switch t.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		flat = false
	case reflect.Array:
		flat = t.Len() == 0 || w.pointerFree(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if !w.pointerFree(t.Field(i).Type) {
				flat = false
				break
			}
		}
	}
	w.flat[t] = flat
	return flat
}

func joinPath(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}
