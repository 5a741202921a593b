// ABOUTME: Label formatter producing display strings and kinds for objects
// ABOUTME: Dispatches on the closed Category set, first match wins

package graph

import "strings"

// DefaultMaxLabelDepth bounds how many wrappers, partials and cells a
// label descends through
const DefaultMaxLabelDepth = 64

const (
	cycleMarker   = "<...>"
	emptyCell     = "<empty cell>"
	unknownKind   = "unknown"
	anonymousName = "<lambda>"
)

// Formatter renders node labels. It never fails: provider panics and
// missing data degrade to the fallback strings.
type Formatter struct {
	p        Provider
	globals  map[Key]string
	maxDepth int
}

// NewFormatter creates a formatter for one snapshot. globals may be nil.
func NewFormatter(p Provider, globals map[Key]string, maxDepth int) *Formatter {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxLabelDepth
	}
	return &Formatter{p: p, globals: globals, maxDepth: maxDepth}
}

// Format returns the label and kind of obj
func (f *Formatter) Format(obj Object) (string, string) {
	d := f.Describe(obj)
	return f.Label(obj, d), kindOf(d)
}

// Describe asks the provider for obj's description, recovering from
// provider panics
func (f *Formatter) Describe(obj Object) (d Description) {
	defer func() {
		if r := recover(); r != nil {
			d = Description{Category: Other, Kind: unknownKind}
		}
	}()
	return f.p.Describe(obj)
}

type labelFrame struct {
	open    string
	wrapper bool
}

// Label renders obj given its already fetched description.
// Wrappers, partials and cells are unwound with an explicit stack; an
// object seen twice on the way down renders as "<...>".
func (f *Formatter) Label(obj Object, d Description) string {
	var (
		frames []labelFrame
		origin string
		base   string
		seen   = make(map[Key]struct{})
		cur    = obj
	)

	for depth := 0; ; depth++ {
		if depth > 0 {
			d = f.Describe(cur)
		}
		k, ok := f.key(cur)
		if ok {
			if _, dup := seen[k]; dup {
				base = cycleMarker
				break
			}
			seen[k] = struct{}{}
		}
		if depth >= f.maxDepth {
			base = cycleMarker
			break
		}

		if isCallable(d.Category) {
			origin = d.Origin
		}

		next := descend(d)
		if next == "" {
			base = f.leaf(d, k, ok)
			break
		}
		if next == emptyCell {
			base = emptyCell
			break
		}
		frames = append(frames, labelFrame{open: next, wrapper: d.Category == Wrapper})
		cur = d.Inner
	}

	var b strings.Builder
	label := base
	for i := len(frames) - 1; i >= 0; i-- {
		b.Reset()
		b.WriteString(frames[i].open)
		b.WriteString(label)
		b.WriteByte('>')
		if frames[i].wrapper && origin != "" {
			b.WriteString(" at ")
			b.WriteString(origin)
		}
		label = b.String()
	}
	return label
}

// descend returns the opening text when d wraps another object, emptyCell
// for a cell without value, and "" when d is a leaf.
func descend(d Description) string {
	switch d.Category {
	case Wrapper:
		if d.Inner != nil {
			return "<wrapper wrapping "
		}
	case Partial:
		if d.Inner != nil {
			return "<partial wrapping "
		}
	case Cell:
		if d.Empty || d.Inner == nil {
			return emptyCell
		}
		return "<cell containing "
	}
	return ""
}

func (f *Formatter) leaf(d Description, k Key, keyed bool) string {
	switch d.Category {
	case Scalar, BoundMethod, Sequence:
		if d.Text != "" {
			return d.Text
		}
	case Function:
		return functionLabel(d)
	case Module:
		if d.Name == "" {
			break
		}
		if d.File != "" {
			return "<module " + d.Name + " at " + d.File + ">"
		}
		return "<module " + d.Name + ">"
	case Mapping:
		if keyed {
			if name, ok := f.globals[k]; ok {
				return "<module_globals " + name + ">"
			}
		}
		if d.Text != "" {
			return d.Text
		}
	}
	return fallbackLabel(d)
}

func functionLabel(d Description) string {
	if d.Name == "" || d.Name == anonymousName {
		if d.Origin == "" {
			return anonymousName
		}
		return "<lambda " + d.Origin + ">"
	}
	if d.Origin == "" {
		return d.Name + "()"
	}
	return d.Name + "() at " + d.Origin
}

func fallbackLabel(d Description) string {
	if d.QualName != "" {
		return d.QualName
	}
	if d.Name != "" {
		return d.Name
	}
	return "Object of type: " + kindOf(d)
}

func (f *Formatter) key(obj Object) (k Key, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	return f.p.Key(obj), true
}

func kindOf(d Description) string {
	if d.Kind == "" {
		return unknownKind
	}
	return d.Kind
}

func isCallable(c Category) bool {
	switch c {
	case Wrapper, Function, BoundMethod, Partial:
		return true
	}
	return false
}

// selfDescribing reports whether an indirect edge to an object with
// description d is labeled with the object's own text
func selfDescribing(d Description) bool {
	if d.SelfDescribing {
		return true
	}
	switch d.Category {
	case Function, BoundMethod, Cell:
		return true
	}
	return false
}
