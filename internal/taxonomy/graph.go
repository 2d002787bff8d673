// Package taxonomy holds the immutable word-sense graph and the traversals
// run over it: depth, ancestor sets, shortest path length and Wu-Palmer
// similarity.
//
// A Graph is safe for concurrent use. The only state written after Build
// is the depth memo, which is filled lazily and at most once per sense.
package taxonomy

import (
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// SenseID is a dense index into the graph's senses.
type SenseID int

// Sense is one meaning: a synonym group with a category and an optional gloss.
type Sense struct {
	ID     SenseID
	Key    string
	POS    POS
	Gloss  string
	Lemmas []string
}

type Graph struct {
	senses   []Sense
	byKey    map[string]SenseID
	byLemma  map[string][]SenseID // lowercased lemma -> senses, best-ranked first
	byStem   map[string][]SenseID
	lemmas   []string // sorted distinct lowercased lemmas
	parents  [][]SenseID
	children [][]SenseID
	roots    []SenseID

	depths     sync.Map // SenseID -> int
	depthGroup singleflight.Group
}

func (g *Graph) Len() int { return len(g.senses) }

func (g *Graph) valid(id SenseID) bool {
	return id >= 0 && int(id) < len(g.senses)
}

// Sense returns nil for an unknown ID.
func (g *Graph) Sense(id SenseID) *Sense {
	if !g.valid(id) {
		return nil
	}
	return &g.senses[id]
}

func (g *Graph) Lookup(key string) (SenseID, bool) {
	id, ok := g.byKey[key]
	return id, ok
}

// Roots returns the senses without generalizations.
func (g *Graph) Roots() []SenseID {
	return g.roots
}

// SensesFor returns every sense the lemma participates in, in the
// resource's order. Lookup is case-insensitive. Unknown lemmas yield nil.
func (g *Graph) SensesFor(lemma string) []SenseID {
	return g.byLemma[strings.ToLower(strings.TrimSpace(lemma))]
}

// SynonymsOf returns the sense's member lemmas, excluding query
// (case-insensitive).
func (g *Graph) SynonymsOf(id SenseID, query string) []string {
	if !g.valid(id) {
		return nil
	}
	var out []string
	for _, l := range g.senses[id].Lemmas {
		if strings.EqualFold(l, query) {
			continue
		}
		out = append(out, l)
	}
	return out
}

func (g *Graph) DirectGeneralizations(id SenseID) []SenseID {
	if !g.valid(id) {
		return nil
	}
	return g.parents[id]
}

func (g *Graph) DirectSpecializations(id SenseID) []SenseID {
	if !g.valid(id) {
		return nil
	}
	return g.children[id]
}

// Ancestors returns every sense reachable by following generalizations
// from id, including id itself at distance 0, mapped to its shortest
// upward distance.
func (g *Graph) Ancestors(id SenseID) map[SenseID]int {
	if !g.valid(id) {
		return nil
	}
	dist := map[SenseID]int{id: 0}
	queue := []SenseID{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, p := range g.parents[cur] {
			if _, ok := dist[p]; ok {
				continue
			}
			dist[p] = dist[cur] + 1
			queue = append(queue, p)
		}
	}
	return dist
}
