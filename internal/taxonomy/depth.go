package taxonomy

import "strconv"

// Depth returns the length of the shortest generalization path from id to
// any root; roots have depth 0. Results are memoized. Concurrent first
// calls for the same sense share one computation. Unknown IDs return -1.
func (g *Graph) Depth(id SenseID) int {
	if !g.valid(id) {
		return -1
	}
	if d, ok := g.depths.Load(id); ok {
		return d.(int)
	}
	v, _, _ := g.depthGroup.Do(strconv.Itoa(int(id)), func() (any, error) {
		if d, ok := g.depths.Load(id); ok {
			return d, nil
		}
		d := g.computeDepth(id)
		g.depths.Store(id, d)
		return d, nil
	})
	return v.(int)
}

// computeDepth walks upward breadth-first. The first level containing a
// root, or a sense whose depth is already memoized, bounds the answer.
func (g *Graph) computeDepth(id SenseID) int {
	best := -1
	visited := map[SenseID]bool{id: true}
	level := []SenseID{id}
	for dist := 0; len(level) > 0; dist++ {
		if best >= 0 && dist >= best {
			break
		}
		var next []SenseID
		for _, cur := range level {
			if len(g.parents[cur]) == 0 {
				return dist
			}
			if cur != id {
				if d, ok := g.depths.Load(cur); ok {
					if cand := dist + d.(int); best < 0 || cand < best {
						best = cand
					}
					continue
				}
			}
			for _, p := range g.parents[cur] {
				if !visited[p] {
					visited[p] = true
					next = append(next, p)
				}
			}
		}
		level = next
	}
	return best
}
