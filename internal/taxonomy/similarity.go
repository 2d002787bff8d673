package taxonomy

// LowestCommonAncestor returns the deepest sense that generalizes both a
// and b (either may be its own ancestor). Ties go to the candidate closer
// to both senses, then to the lower ID. The second result is false when
// the senses share no ancestor.
func (g *Graph) LowestCommonAncestor(a, b SenseID) (SenseID, bool) {
	ancA := g.Ancestors(a)
	ancB := g.Ancestors(b)
	if ancA == nil || ancB == nil {
		return 0, false
	}
	if len(ancB) < len(ancA) {
		ancA, ancB = ancB, ancA
	}

	var best SenseID
	bestDepth, bestSpan := -1, 0
	for c, da := range ancA {
		db, ok := ancB[c]
		if !ok {
			continue
		}
		depth, span := g.Depth(c), da+db
		switch {
		case depth > bestDepth,
			depth == bestDepth && span < bestSpan,
			depth == bestDepth && span == bestSpan && c < best:
			best, bestDepth, bestSpan = c, depth, span
		}
	}
	return best, bestDepth >= 0
}

// Similarity is the Wu-Palmer score 2*depth(lca) / (depth(a) + depth(b)),
// in [0, 1]. Identical senses score 1 and senses without a common
// ancestor score 0.
//
// Depth is the shortest distance to a root, so in a multi-parent graph the
// ancestor reached through a longer branch can be deeper than one of the
// senses. The score is capped at 1 in that case.
func (g *Graph) Similarity(a, b SenseID) float64 {
	if !g.valid(a) || !g.valid(b) {
		return 0
	}
	if a == b {
		return 1
	}
	lca, ok := g.LowestCommonAncestor(a, b)
	if !ok {
		return 0
	}
	denom := g.Depth(a) + g.Depth(b)
	if denom == 0 {
		return 0
	}
	return min(1, 2*float64(g.Depth(lca))/float64(denom))
}
