// ABOUTME: Edge classifier splitting references into named and indirect
// ABOUTME: Named edges come from members, indirect from tracked references

package graph

// DefaultSkipMembers lists member names that never produce named edges
var DefaultSkipMembers = []string{"__doc__"}

// Classifier produces the outgoing edges of objects in one snapshot
type Classifier struct {
	p      Provider
	idx    *Index
	descs  []Description
	labels []string
	skip   map[string]struct{}

	// memberErrors counts objects that refused member enumeration
	memberErrors int
}

// NewClassifier creates a classifier. descs and labels are indexed by node
// id and supply the self-describing text of indirect targets.
func NewClassifier(p Provider, idx *Index, descs []Description, labels []string, skip []string) *Classifier {
	c := &Classifier{
		p:      p,
		idx:    idx,
		descs:  descs,
		labels: labels,
		skip:   make(map[string]struct{}, len(skip)),
	}
	for _, name := range skip {
		c.skip[name] = struct{}{}
	}
	return c
}

type namedKey struct {
	target int
	label  string
}

// Classify returns the edges leaving src, whose node id is srcID.
// Named edges come first in member order, then indirect edges in
// reference order. A target emitted as named is never repeated as
// indirect.
func (c *Classifier) Classify(src Object, srcID int) []Edge {
	var edges []Edge

	emitted := make(map[Key]struct{})
	named := make(map[namedKey]struct{})

	members, err := c.members(src)
	if err != nil {
		c.memberErrors++
		members = nil
	}
	for _, m := range members {
		if _, skip := c.skip[m.Name]; skip || m.Value == nil {
			continue
		}
		k := c.p.Key(m.Value)
		target, ok := c.idx.Lookup(k)
		if !ok {
			continue
		}
		nk := namedKey{target: target, label: m.Name}
		if _, dup := named[nk]; dup {
			continue
		}
		named[nk] = struct{}{}
		emitted[k] = struct{}{}
		edges = append(edges, Edge{Source: srcID, Target: target, Label: m.Name, Class: Named})
	}

	for _, ref := range c.p.References(src) {
		if ref == nil {
			continue
		}
		k := c.p.Key(ref)
		if _, done := emitted[k]; done {
			continue
		}
		target, ok := c.idx.Lookup(k)
		if !ok {
			continue
		}
		emitted[k] = struct{}{}
		edges = append(edges, Edge{Source: srcID, Target: target, Label: c.indirectLabel(target), Class: Indirect})
	}

	return edges
}

// MemberErrors returns how many objects refused member enumeration
func (c *Classifier) MemberErrors() int {
	return c.memberErrors
}

func (c *Classifier) indirectLabel(target int) string {
	d := c.descs[target]
	if selfDescribing(d) {
		if d.Text != "" {
			return d.Text
		}
		return c.labels[target]
	}
	return "Indirect Reference to " + kindOf(d)
}

// members calls the provider, turning a panic into an error
func (c *Classifier) members(obj Object) (ms []Member, err error) {
	defer func() {
		if r := recover(); r != nil {
			ms, err = nil, errMemberPanic
		}
	}()
	return c.p.Members(obj)
}
