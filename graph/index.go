// ABOUTME: Identity indexer mapping snapshot keys to dense node ids
// ABOUTME: Ids are assigned in population enumeration order

package graph

// Index maps identity keys to node ids for one snapshot
type Index struct {
	ids  map[Key]int
	keys []Key
}

// NewIndex assigns ids 0..N-1 to the population in order.
// Duplicate keys are a caller error: the lookup keeps the last id.
func NewIndex(p Provider, population []Object) *Index {
	idx := &Index{
		ids:  make(map[Key]int, len(population)),
		keys: make([]Key, len(population)),
	}
	for i, obj := range population {
		k := p.Key(obj)
		idx.keys[i] = k
		idx.ids[k] = i
	}
	return idx
}

// Lookup returns the node id for a key
func (idx *Index) Lookup(k Key) (int, bool) {
	id, ok := idx.ids[k]
	return id, ok
}

// Contains reports whether the key belongs to the indexed population
func (idx *Index) Contains(k Key) bool {
	_, ok := idx.ids[k]
	return ok
}

// Len returns the number of ids assigned
func (idx *Index) Len() int {
	return len(idx.keys)
}

// Key returns the key that was assigned id
func (idx *Index) Key(id int) Key {
	return idx.keys[id]
}

// Duplicates returns how many population entries shared a key with an
// earlier entry
func (idx *Index) Duplicates() int {
	return len(idx.keys) - len(idx.ids)
}
