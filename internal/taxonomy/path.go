package taxonomy

// ShortestPathLength returns the number of edges on the shortest path
// between a and b, traversing generalization edges in either direction.
// The second result is false when no path exists or an ID is unknown.
//
// The search is bidirectional: each round expands one full level of the
// smaller frontier. The first level that meets the other side may hold
// several meeting points, so the minimum over that whole level is taken.
func (g *Graph) ShortestPathLength(a, b SenseID) (int, bool) {
	if !g.valid(a) || !g.valid(b) {
		return 0, false
	}
	if a == b {
		return 0, true
	}

	distA := map[SenseID]int{a: 0}
	distB := map[SenseID]int{b: 0}
	frontA := []SenseID{a}
	frontB := []SenseID{b}

	for len(frontA) > 0 && len(frontB) > 0 {
		var best int
		var met bool
		if len(frontA) <= len(frontB) {
			frontA, best, met = g.expandLevel(frontA, distA, distB)
		} else {
			frontB, best, met = g.expandLevel(frontB, distB, distA)
		}
		if met {
			return best, true
		}
	}
	return 0, false
}

// expandLevel advances one BFS level from frontier, recording distances in
// own. It reports the shortest combined distance through any node already
// reached by the other side.
func (g *Graph) expandLevel(frontier []SenseID, own, other map[SenseID]int) ([]SenseID, int, bool) {
	var next []SenseID
	best, met := 0, false
	visit := func(from, to SenseID) {
		if _, ok := own[to]; ok {
			return
		}
		own[to] = own[from] + 1
		next = append(next, to)
		if d, ok := other[to]; ok {
			if total := own[to] + d; !met || total < best {
				best, met = total, true
			}
		}
	}
	for _, cur := range frontier {
		for _, p := range g.parents[cur] {
			visit(cur, p)
		}
		for _, c := range g.children[cur] {
			visit(cur, c)
		}
	}
	return next, best, met
}
