// ABOUTME: In-memory provider used by the graph tests
// ABOUTME: Objects are built by hand with members, references and descriptions

package graph

import "errors"

type fakeObj struct {
	key     Key
	desc    Description
	members []Member
	refs    []Object

	membersErr    error
	panicMembers  bool
	panicDescribe bool
}

type fakeProvider struct {
	objs      []*fakeObj
	globals   map[Key]string
	referrers map[Key][]Object
}

var errRefused = errors.New("refused")

func object(key Key, kind string) *fakeObj {
	return &fakeObj{key: key, desc: Description{Kind: kind, QualName: kind}}
}

// link adds a named member, which is also a tracked reference
func (o *fakeObj) link(name string, dst *fakeObj) *fakeObj {
	o.members = append(o.members, Member{Name: name, Value: dst})
	o.refs = append(o.refs, dst)
	return o
}

// track adds a tracked reference without a name
func (o *fakeObj) track(dst *fakeObj) *fakeObj {
	o.refs = append(o.refs, dst)
	return o
}

func newFake(objs ...*fakeObj) *fakeProvider {
	p := &fakeProvider{objs: objs, referrers: make(map[Key][]Object)}
	for _, o := range objs {
		seen := make(map[Key]bool)
		for _, ref := range o.refs {
			if ref == nil {
				continue
			}
			k := ref.(*fakeObj).key
			if seen[k] {
				continue
			}
			seen[k] = true
			p.referrers[k] = append(p.referrers[k], o)
		}
	}
	return p
}

func (p *fakeProvider) Population() []Object {
	out := make([]Object, len(p.objs))
	for i, o := range p.objs {
		out[i] = o
	}
	return out
}

func (p *fakeProvider) Key(obj Object) Key {
	return obj.(*fakeObj).key
}

func (p *fakeProvider) Members(obj Object) ([]Member, error) {
	o := obj.(*fakeObj)
	if o.panicMembers {
		panic("members exploded")
	}
	return o.members, o.membersErr
}

func (p *fakeProvider) References(obj Object) []Object {
	return obj.(*fakeObj).refs
}

func (p *fakeProvider) Referrers(obj Object) []Object {
	return p.referrers[obj.(*fakeObj).key]
}

func (p *fakeProvider) Describe(obj Object) Description {
	o := obj.(*fakeObj)
	if o.panicDescribe {
		panic("describe exploded")
	}
	return o.desc
}

func (p *fakeProvider) Globals() map[Key]string {
	return p.globals
}
