package taxonomy

import (
	"fmt"
	"sort"
	"strings"

	"github.com/surgebase/porter2"
)

// Builder accumulates senses, lemma memberships and generalization edges,
// then validates them into an immutable Graph.
type Builder struct {
	senses   []Sense
	byKey    map[string]SenseID
	members  map[string][]membership
	edges    []keyEdge
	problems []string
}

type membership struct {
	id   SenseID
	rank int
}

type keyEdge struct {
	child, parent string
}

func NewBuilder() *Builder {
	return &Builder{
		byKey:   make(map[string]SenseID),
		members: make(map[string][]membership),
	}
}

// AddSense registers a sense under a unique key and returns its ID.
// A duplicate key is recorded as a problem and the earlier sense's ID is
// returned.
func (b *Builder) AddSense(key string, pos POS, gloss string) SenseID {
	if id, ok := b.byKey[key]; ok {
		b.problems = append(b.problems, fmt.Sprintf("duplicate sense key %q", key))
		return id
	}
	id := SenseID(len(b.senses))
	b.senses = append(b.senses, Sense{ID: id, Key: key, POS: pos, Gloss: gloss})
	b.byKey[key] = id
	return id
}

// AddLemma appends lemma to the sense's synonym group. Rank orders the
// senses of one lemma; lower ranks come first in SensesFor.
func (b *Builder) AddLemma(id SenseID, lemma string, rank int) {
	if int(id) < 0 || int(id) >= len(b.senses) {
		b.problems = append(b.problems, fmt.Sprintf("lemma %q names unknown sense %d", lemma, id))
		return
	}
	lemma = strings.TrimSpace(lemma)
	if lemma == "" {
		b.problems = append(b.problems, fmt.Sprintf("sense %q has an empty lemma", b.senses[id].Key))
		return
	}
	b.senses[id].Lemmas = append(b.senses[id].Lemmas, lemma)
	lower := strings.ToLower(lemma)
	b.members[lower] = append(b.members[lower], membership{id: id, rank: rank})
}

// AddProblem records a problem found while reading the resource, such as
// a corrupt row. Build reports it with the others.
func (b *Builder) AddProblem(format string, args ...any) {
	b.problems = append(b.problems, fmt.Sprintf(format, args...))
}

// AddGeneralization records that child generalizes to parent.
func (b *Builder) AddGeneralization(child, parent string) {
	b.edges = append(b.edges, keyEdge{child: child, parent: parent})
}

// Build validates the accumulated data and returns the graph, or a
// *LoadError listing every problem found.
func (b *Builder) Build() (*Graph, error) {
	problems := append([]string(nil), b.problems...)
	n := len(b.senses)
	if n == 0 {
		problems = append(problems, "taxonomy is empty")
	}
	for i := range b.senses {
		if len(b.senses[i].Lemmas) == 0 {
			problems = append(problems, fmt.Sprintf("sense %q has no lemmas", b.senses[i].Key))
		}
	}

	parents := make([][]SenseID, n)
	children := make([][]SenseID, n)
	seen := make(map[[2]SenseID]bool, len(b.edges))
	for _, e := range b.edges {
		c, okc := b.byKey[e.child]
		p, okp := b.byKey[e.parent]
		if !okc || !okp {
			missing := e.child
			if okc {
				missing = e.parent
			}
			problems = append(problems, fmt.Sprintf("edge %s -> %s names unknown sense %q", e.child, e.parent, missing))
			continue
		}
		if c == p {
			problems = append(problems, fmt.Sprintf("sense %q generalizes to itself", e.child))
			continue
		}
		if seen[[2]SenseID{c, p}] {
			continue
		}
		seen[[2]SenseID{c, p}] = true
		parents[c] = append(parents[c], p)
		children[p] = append(children[p], c)
	}

	if cyclic := findCycleMembers(parents, children); len(cyclic) > 0 {
		keys := make([]string, 0, len(cyclic))
		for _, id := range cyclic {
			keys = append(keys, b.senses[id].Key)
		}
		const shown = 10
		if len(keys) > shown {
			keys = append(keys[:shown], fmt.Sprintf("and %d more", len(cyclic)-shown))
		}
		problems = append(problems, "generalization cycle through "+strings.Join(keys, ", "))
	}

	if len(problems) > 0 {
		return nil, &LoadError{Problems: problems}
	}

	g := &Graph{
		senses:   b.senses,
		byKey:    b.byKey,
		byLemma:  make(map[string][]SenseID, len(b.members)),
		byStem:   make(map[string][]SenseID),
		parents:  parents,
		children: children,
	}
	stemMembers := make(map[string][]membership)
	for lemma, ms := range b.members {
		sortMemberships(ms)
		g.byLemma[lemma] = uniqueIDs(ms)
		g.lemmas = append(g.lemmas, lemma)
		if !strings.ContainsAny(lemma, "_ -") {
			stem := porter2.Stem(lemma)
			stemMembers[stem] = append(stemMembers[stem], ms...)
		}
	}
	for stem, ms := range stemMembers {
		sortMemberships(ms)
		g.byStem[stem] = uniqueIDs(ms)
	}
	sort.Strings(g.lemmas)
	for i := range parents {
		if len(parents[i]) == 0 {
			g.roots = append(g.roots, SenseID(i))
		}
	}
	return g, nil
}

func sortMemberships(ms []membership) {
	sort.SliceStable(ms, func(i, j int) bool {
		if ms[i].rank != ms[j].rank {
			return ms[i].rank < ms[j].rank
		}
		return ms[i].id < ms[j].id
	})
}

func uniqueIDs(ms []membership) []SenseID {
	out := make([]SenseID, 0, len(ms))
	seen := make(map[SenseID]bool, len(ms))
	for _, m := range ms {
		if !seen[m.id] {
			seen[m.id] = true
			out = append(out, m.id)
		}
	}
	return out
}

// findCycleMembers runs Kahn's algorithm over the child -> parent edges and
// returns the senses that could not be ordered, which are exactly those on
// or downstream of a cycle.
func findCycleMembers(parents, children [][]SenseID) []SenseID {
	indegree := make([]int, len(parents))
	for i := range parents {
		indegree[i] = len(parents[i])
	}
	queue := make([]SenseID, 0, len(parents))
	for i, d := range indegree {
		if d == 0 {
			queue = append(queue, SenseID(i))
		}
	}
	ordered := 0
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		ordered++
		for _, c := range children[cur] {
			indegree[c]--
			if indegree[c] == 0 {
				queue = append(queue, c)
			}
		}
	}
	if ordered == len(parents) {
		return nil
	}
	var stuck []SenseID
	for i, d := range indegree {
		if d > 0 {
			stuck = append(stuck, SenseID(i))
		}
	}
	return stuck
}
