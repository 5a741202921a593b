// ABOUTME: Reflection provider contract consumed by the extraction core
// ABOUTME: Defines Provider, Member, Description, Category and Anchor

package graph

// Provider exposes the reflection primitives of one runtime snapshot.
// All methods must observe the same frozen population.
type Provider interface {
	// Population returns the objects of the snapshot in enumeration order
	Population() []Object

	// Key returns the identity key of an object
	Key(obj Object) Key

	// Members returns the named members of an object. An error means the
	// object refuses reflection; it then contributes no named edges.
	Members(obj Object) ([]Member, error)

	// References returns every reference the memory manager tracks for obj.
	// It is a superset of the Members values.
	References(obj Object) []Object

	// Referrers returns the objects holding a reference to obj
	Referrers(obj Object) []Object

	// Describe returns the labeling data for obj
	Describe(obj Object) Description
}

// GlobalsProvider is implemented by providers that know which mappings
// back a module's globals. The table maps the mapping's key to the
// module name and is built once per snapshot.
type GlobalsProvider interface {
	Globals() map[Key]string
}

// Member is a named reference from one object to another
type Member struct {
	Name  string
	Value Object
}

// Category is the closed set of object kinds the label formatter knows
type Category int

const (
	// Other covers everything not matched by a more specific category
	Other Category = iota
	// Scalar is a number, boolean, text or null-like value
	Scalar
	// Wrapper is a callable wrapping another callable
	Wrapper
	// Function is a named or anonymous function
	Function
	// BoundMethod is a method bound to a receiver
	BoundMethod
	// Partial is a callable with pre-bound arguments
	Partial
	// Module is a namespace container
	Module
	// Cell is a closure cell
	Cell
	// Sequence is a list or tuple-like value
	Sequence
	// Mapping is a key-value container
	Mapping
)

var categoryNames = map[Category]string{
	Other:       "other",
	Scalar:      "scalar",
	Wrapper:     "wrapper",
	Function:    "function",
	BoundMethod: "bound_method",
	Partial:     "partial",
	Module:      "module",
	Cell:        "cell",
	Sequence:    "sequence",
	Mapping:     "mapping",
}

// String returns the category name used in snapshot documents
func (c Category) String() string {
	if s, ok := categoryNames[c]; ok {
		return s
	}
	return "other"
}

// ParseCategory maps a category name back to its value.
// Unknown names map to Other.
func ParseCategory(s string) Category {
	for c, name := range categoryNames {
		if name == s {
			return c
		}
	}
	return Other
}

// Description carries what the label formatter needs about one object.
// Which fields are meaningful depends on Category.
type Description struct {
	Category Category
	Kind     string // runtime type name

	Text     string // natural string form
	Name     string
	QualName string
	Origin   string // source location, e.g. "main.go:12"
	File     string // module file

	Inner Object // wrapped callable, partial target or cell contents
	Empty bool   // cell holds no value

	// SelfDescribing marks kinds whose own Text labels indirect edges
	// better than the generic tag.
	SelfDescribing bool
}

// Anchor designates the object a restricted extraction is centered on
type Anchor interface {
	// Resolve returns the anchored object, or false if it was released
	Resolve() (Object, bool)
}

type objectAnchor struct {
	obj Object
}

func (a objectAnchor) Resolve() (Object, bool) {
	return a.obj, true
}

// ObjectAnchor returns an anchor holding a strong reference to obj
func ObjectAnchor(obj Object) Anchor {
	return objectAnchor{obj: obj}
}

// Released is an anchor whose object no longer exists
var Released Anchor = releasedAnchor{}

type releasedAnchor struct{}

func (releasedAnchor) Resolve() (Object, bool) {
	return nil, false
}
