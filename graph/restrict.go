// ABOUTME: Reachability restrictor narrowing a population to an anchor
// ABOUTME: Walks referrers from the anchor with an explicit worklist

package graph

// Restrict returns the anchor plus every object of population that can
// reach it through one or more referrer hops inside population. The
// result keeps population order. Referrers outside population are never
// added, so the result is bounded by the input.
func Restrict(p Provider, population []Object, anchor Object) []Object {
	inPopulation := make(map[Key]struct{}, len(population))
	for _, obj := range population {
		inPopulation[p.Key(obj)] = struct{}{}
	}

	start := p.Key(anchor)
	if _, ok := inPopulation[start]; !ok {
		return []Object{}
	}

	reached := ReachingSet(p, anchor, func(k Key) bool {
		_, ok := inPopulation[k]
		return ok
	})

	result := make([]Object, 0, len(reached))
	emitted := make(map[Key]struct{}, len(reached))
	for _, obj := range population {
		k := p.Key(obj)
		if _, ok := reached[k]; !ok {
			continue
		}
		if _, dup := emitted[k]; dup {
			continue
		}
		emitted[k] = struct{}{}
		result = append(result, obj)
	}
	return result
}

// ReachingSet returns the keys of anchor and of every object that reaches
// it through referrers accepted by keep. Each object is expanded once.
func ReachingSet(p Provider, anchor Object, keep func(Key) bool) map[Key]struct{} {
	seen := map[Key]struct{}{p.Key(anchor): {}}
	work := []Object{anchor}

	for len(work) > 0 {
		obj := work[len(work)-1]
		work = work[:len(work)-1]

		for _, ref := range p.Referrers(obj) {
			if ref == nil {
				continue
			}
			k := p.Key(ref)
			if _, ok := seen[k]; ok || !keep(k) {
				continue
			}
			seen[k] = struct{}{}
			work = append(work, ref)
		}
	}
	return seen
}
