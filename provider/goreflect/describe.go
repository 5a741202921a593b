// ABOUTME: Maps discovered Go values onto label categories
// ABOUTME: Functions resolve through runtime.FuncForPC; containers get short text

package goreflect

import (
	"fmt"
	"path/filepath"
	"reflect"
	"regexp"
	"runtime"
	"sort"
	"strings"

	"github.com/prateek/refgraph/graph"
)

// Wrapper is implemented by values that wrap a function, such as
// middleware or decorators. Unwrap must return the wrapped func.
type Wrapper interface {
	Unwrap() any
}

var wrapperType = reflect.TypeOf((*Wrapper)(nil)).Elem()

// closureName matches compiler generated names of function literals
var closureName = regexp.MustCompile(`\.(func|gowrap)\d+(\.\d+)*$`)

const (
	boundSuffix  = "-fm"
	maxTextItems = 8
)

func (w *walker) describe(o *object) graph.Description {
	v := o.v
	t := v.Type()

	switch v.Kind() {
	case reflect.Func:
		return describeFunc(v)
	case reflect.Slice:
		return graph.Description{Category: graph.Sequence, Kind: t.String(), Text: sliceText(v)}
	case reflect.Map:
		return graph.Description{Category: graph.Mapping, Kind: t.String(), Text: mapText(v)}
	case reflect.Pointer:
		elem := t.Elem()
		if isBasic(elem.Kind()) {
			return graph.Description{Category: graph.Scalar, Kind: elem.String(), Text: scalarText(v.Elem())}
		}
		if inner, ok := w.unwrap(v); ok {
			o.add("", inner)
			return graph.Description{Category: graph.Wrapper, Kind: elem.String(), QualName: elem.String(), Inner: inner}
		}
		return graph.Description{Category: graph.Other, Kind: elem.String(), QualName: elem.String()}
	}
	return graph.Description{Category: graph.Other, Kind: t.String(), QualName: t.String()}
}

// unwrap calls Unwrap on wrapper values and interns the returned func
func (w *walker) unwrap(v reflect.Value) (inner *object, ok bool) {
	if !v.Type().Implements(wrapperType) {
		return nil, false
	}
	defer func() {
		if r := recover(); r != nil {
			inner, ok = nil, false
		}
	}()

	// Values reached through unexported fields cannot be called directly
	callable := reflect.NewAt(v.Type().Elem(), v.UnsafePointer())
	fn := reflect.ValueOf(callable.Interface().(Wrapper).Unwrap())
	if fn.Kind() != reflect.Func || fn.IsNil() {
		return nil, false
	}
	return w.intern(fn)
}

func describeFunc(v reflect.Value) graph.Description {
	d := graph.Description{Category: graph.Function, Kind: v.Type().String()}

	pc := v.Pointer()
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return d
	}
	file, line := fn.FileLine(fn.Entry())
	d.File = file
	d.Origin = fmt.Sprintf("%s:%d", filepath.Base(file), line)

	full := fn.Name()
	short := full[strings.LastIndex(full, "/")+1:]
	d.QualName = short

	switch {
	case strings.HasSuffix(short, boundSuffix):
		d.Category = graph.BoundMethod
		d.Name = unqualified(strings.TrimSuffix(short, boundSuffix))
		d.Text = "<bound method " + strings.TrimSuffix(short, boundSuffix) + ">"
	case closureName.MatchString(short):
		// anonymous
	default:
		d.Name = unqualified(short)
	}
	return d
}

// unqualified strips the package name from "pkg.Func" or "pkg.(*T).M"
func unqualified(name string) string {
	if i := strings.Index(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}

func isBasic(k reflect.Kind) bool {
	switch k {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	}
	return false
}

// scalarText renders basic values and names everything else by type, so
// text never recurses into the object graph
func scalarText(v reflect.Value) string {
	if !v.IsValid() {
		return "nil"
	}
	switch k := v.Kind(); {
	case k == reflect.String:
		return v.String()
	case k == reflect.Bool:
		return fmt.Sprint(v.Bool())
	case k >= reflect.Int && k <= reflect.Int64:
		return fmt.Sprint(v.Int())
	case k >= reflect.Uint && k <= reflect.Uintptr:
		return fmt.Sprint(v.Uint())
	case k == reflect.Float32 || k == reflect.Float64:
		return fmt.Sprint(v.Float())
	case k == reflect.Complex64 || k == reflect.Complex128:
		return fmt.Sprint(v.Complex())
	case k == reflect.Interface:
		if v.IsNil() {
			return "nil"
		}
		return scalarText(v.Elem())
	}
	return "<" + v.Type().String() + ">"
}

func itemText(v reflect.Value) string {
	if v.Kind() == reflect.String {
		return fmt.Sprintf("%q", v.String())
	}
	return scalarText(v)
}

func sliceText(v reflect.Value) string {
	var b strings.Builder
	b.WriteByte('[')
	n := v.Len()
	for i := 0; i < n && i < maxTextItems; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(itemText(v.Index(i)))
	}
	if n > maxTextItems {
		fmt.Fprintf(&b, ", ... %d more", n-maxTextItems)
	}
	b.WriteByte(']')
	return b.String()
}

// mapText renders small maps with sorted entries so labels are stable
// across runs
func mapText(v reflect.Value) string {
	n := v.Len()
	if n > maxTextItems {
		return fmt.Sprintf("map[... %d entries]", n)
	}
	entries := make([]string, 0, n)
	iter := v.MapRange()
	for iter.Next() {
		entries = append(entries, itemText(iter.Key())+": "+itemText(iter.Value()))
	}
	sort.Strings(entries)
	return "map[" + strings.Join(entries, ", ") + "]"
}
