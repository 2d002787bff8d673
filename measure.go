package lexgraph

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

// PairPolicy selects which sense pairs of two words are measured.
type PairPolicy int

const (
	// PrimarySenses measures the two primary senses only.
	PrimarySenses PairPolicy = iota
	// AllSenses measures every sense pair and reports the closest.
	AllSenses
)

// ParsePairPolicy accepts "primary" and "all".
func ParsePairPolicy(s string) (PairPolicy, error) {
	switch s {
	case "primary", "":
		return PrimarySenses, nil
	case "all":
		return AllSenses, nil
	}
	return 0, fmt.Errorf("unknown pair policy %q (want primary or all)", s)
}

func (p PairPolicy) String() string {
	if p == AllSenses {
		return "all"
	}
	return "primary"
}

// Status tags a Distance or Similarity.
type Status string

const (
	StatusKnown       Status = "known"
	StatusUnreachable Status = "unreachable"
	StatusUnknownWord Status = "unknown_word"
)

// SensePair names the senses a measure was taken between.
type SensePair struct {
	A string `json:"a"`
	B string `json:"b"`
}

// Distance is a shortest path length, or the reason there is none. Value
// is meaningful only when Status is StatusKnown.
type Distance struct {
	Status Status
	Value  int
	Reason string
	// Unknown lists the words the taxonomy does not know.
	Unknown []string
	Senses  *SensePair
}

func (d Distance) MarshalJSON() ([]byte, error) {
	out := struct {
		Status Status     `json:"status"`
		Value  *int       `json:"value,omitempty"`
		Reason string     `json:"unknown,omitempty"`
		Words  []string   `json:"words,omitempty"`
		Senses *SensePair `json:"senses,omitempty"`
	}{Status: d.Status, Reason: d.Reason, Words: d.Unknown, Senses: d.Senses}
	if d.Status == StatusKnown {
		v := d.Value
		out.Value = &v
	}
	return json.Marshal(out)
}

// Similarity is a Wu-Palmer score in [0, 1], or the reason there is none.
// Senses with no common ancestor are a known 0.
type Similarity struct {
	Status  Status
	Value   float64
	Reason  string
	Unknown []string
	Senses  *SensePair
}

func (s Similarity) MarshalJSON() ([]byte, error) {
	out := struct {
		Status Status     `json:"status"`
		Value  *float64   `json:"value,omitempty"`
		Reason string     `json:"unknown,omitempty"`
		Words  []string   `json:"words,omitempty"`
		Senses *SensePair `json:"senses,omitempty"`
	}{Status: s.Status, Reason: s.Reason, Words: s.Unknown, Senses: s.Senses}
	if s.Status == StatusKnown {
		v := s.Value
		out.Value = &v
	}
	return json.Marshal(out)
}

// SemanticDistance is the shortest taxonomic path length between the
// senses of w1 and w2. input, when non-empty, is tagged to give each word
// a part-of-speech hint.
func (l *Lexicon) SemanticDistance(ctx context.Context, w1, w2, input string) (Distance, error) {
	r1, r2, err := l.resolvePair(ctx, w1, w2, input)
	if err != nil {
		return Distance{}, err
	}
	if unknown := unknownWords(r1, r2); len(unknown) > 0 {
		return Distance{
			Status:  StatusUnknownWord,
			Reason:  "unknown word: " + strings.Join(unknown, ", "),
			Unknown: unknown,
		}, nil
	}

	pairs := l.pairs(r1, r2)
	type outcome struct {
		length int
		ok     bool
	}
	results := make([]outcome, len(pairs))
	if err := l.fanOut(ctx, len(pairs), func(i int) {
		n, ok := l.graph.ShortestPathLength(pairs[i][0], pairs[i][1])
		results[i] = outcome{n, ok}
	}); err != nil {
		return Distance{}, err
	}

	best := -1
	for i, r := range results {
		if r.ok && (best < 0 || r.length < results[best].length) {
			best = i
		}
	}
	if best < 0 {
		return Distance{
			Status: StatusUnreachable,
			Reason: fmt.Sprintf("no path between %s and %s", r1.Word, r2.Word),
			Senses: l.pairOf(pairs[0]),
		}, nil
	}
	return Distance{Status: StatusKnown, Value: results[best].length, Senses: l.pairOf(pairs[best])}, nil
}

// WordSimilarity is the Wu-Palmer similarity of the senses of w1 and w2.
// input is used as in SemanticDistance.
func (l *Lexicon) WordSimilarity(ctx context.Context, w1, w2, input string) (Similarity, error) {
	r1, r2, err := l.resolvePair(ctx, w1, w2, input)
	if err != nil {
		return Similarity{}, err
	}
	if unknown := unknownWords(r1, r2); len(unknown) > 0 {
		return Similarity{
			Status:  StatusUnknownWord,
			Reason:  "unknown word: " + strings.Join(unknown, ", "),
			Unknown: unknown,
		}, nil
	}

	pairs := l.pairs(r1, r2)
	scores := make([]float64, len(pairs))
	if err := l.fanOut(ctx, len(pairs), func(i int) {
		scores[i] = l.graph.Similarity(pairs[i][0], pairs[i][1])
	}); err != nil {
		return Similarity{}, err
	}

	best := 0
	for i, s := range scores {
		if s > scores[best] {
			best = i
		}
	}
	return Similarity{Status: StatusKnown, Value: scores[best], Senses: l.pairOf(pairs[best])}, nil
}

func (l *Lexicon) resolvePair(ctx context.Context, w1, w2, input string) (Resolution, Resolution, error) {
	if strings.TrimSpace(w1) == "" || strings.TrimSpace(w2) == "" {
		return Resolution{}, Resolution{}, fmt.Errorf("lexgraph: %w", ErrEmptyWord)
	}
	var hints map[string]POS
	if input != "" {
		tokens, err := l.tag(ctx, input)
		if err != nil {
			return Resolution{}, Resolution{}, err
		}
		hints = l.hintsFor(tokens)
	}
	key := func(w string) string { return strings.ToLower(strings.TrimSpace(w)) }
	return l.Resolve(w1, hints[key(w1)]), l.Resolve(w2, hints[key(w2)]), nil
}

// pairs lists the sense pairs the policy measures, primary pair first.
func (l *Lexicon) pairs(r1, r2 Resolution) [][2]SenseID {
	if l.policy != AllSenses {
		return [][2]SenseID{{r1.Primary, r2.Primary}}
	}
	out := make([][2]SenseID, 0, len(r1.Senses)*len(r2.Senses))
	for _, a := range r1.Senses {
		for _, b := range r2.Senses {
			out = append(out, [2]SenseID{a, b})
		}
	}
	return out
}

func (l *Lexicon) pairOf(p [2]SenseID) *SensePair {
	return &SensePair{A: l.graph.Sense(p[0]).Key, B: l.graph.Sense(p[1]).Key}
}

// fanOut calls fn for 0..n-1, concurrently when n > 1, bounded by the
// configured workers. Each fn writes only its own index.
func (l *Lexicon) fanOut(ctx context.Context, n int, fn func(i int)) error {
	if n == 1 {
		fn(0)
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for i := range n {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fn(i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func unknownWords(rs ...Resolution) []string {
	var out []string
	for _, r := range rs {
		if !r.OK && (len(out) == 0 || out[len(out)-1] != r.Word) {
			out = append(out, r.Word)
		}
	}
	return out
}
