package lexgraph

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jward/lexgraph/internal/taxonomy"
	"github.com/jward/lexgraph/internal/text"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fixtureSense struct {
	key    string
	pos    POS
	lemmas []string
}

// buildGraph builds a graph from senses and child -> parent key pairs. A
// lemma's senses rank in the order they are listed.
func buildGraph(t *testing.T, senses []fixtureSense, edges [][2]string) *Graph {
	t.Helper()
	b := taxonomy.NewBuilder()
	ranks := make(map[string]int)
	for _, s := range senses {
		id := b.AddSense(s.key, s.pos, "")
		for _, l := range s.lemmas {
			b.AddLemma(id, l, ranks[l])
			ranks[l]++
		}
	}
	for _, e := range edges {
		b.AddGeneralization(e[0], e[1])
	}
	g, err := b.Build()
	require.NoError(t, err)
	return g
}

// measureGraph:
//
//	entity -> vehicle -> car -> sedan
//	      \          \-> truck
//	       \-> bank.n.01
//	       \-> structure -> plant.n.01
//	plant.n.02 -> tree                 (disjoint)
//	bank.v.01                          (isolated)
func measureGraph(t *testing.T) *Graph {
	t.Helper()
	return buildGraph(t, []fixtureSense{
		{"entity.n.01", taxonomy.Noun, []string{"entity"}},
		{"vehicle.n.01", taxonomy.Noun, []string{"vehicle"}},
		{"car.n.01", taxonomy.Noun, []string{"car", "auto", "automobile"}},
		{"sedan.n.01", taxonomy.Noun, []string{"sedan", "saloon"}},
		{"truck.n.01", taxonomy.Noun, []string{"truck"}},
		{"bank.n.01", taxonomy.Noun, []string{"bank"}},
		{"bank.v.01", taxonomy.Verb, []string{"bank"}},
		{"structure.n.01", taxonomy.Noun, []string{"structure"}},
		{"plant.n.01", taxonomy.Noun, []string{"plant", "works"}},
		{"plant.n.02", taxonomy.Noun, []string{"plant", "flora"}},
		{"tree.n.01", taxonomy.Noun, []string{"tree"}},
	}, [][2]string{
		{"vehicle.n.01", "entity.n.01"},
		{"car.n.01", "vehicle.n.01"},
		{"sedan.n.01", "car.n.01"},
		{"truck.n.01", "vehicle.n.01"},
		{"bank.n.01", "entity.n.01"},
		{"structure.n.01", "entity.n.01"},
		{"plant.n.01", "structure.n.01"},
		{"tree.n.01", "plant.n.02"},
	})
}

// relationsGraph puts car and sedan directly under vehicle.
func relationsGraph(t *testing.T) *Graph {
	t.Helper()
	return buildGraph(t, []fixtureSense{
		{"entity.n.01", taxonomy.Noun, []string{"entity"}},
		{"vehicle.n.01", taxonomy.Noun, []string{"vehicle"}},
		{"car.n.01", taxonomy.Noun, []string{"car", "auto", "automobile"}},
		{"sedan.n.01", taxonomy.Noun, []string{"sedan", "saloon"}},
		{"truck.n.01", taxonomy.Noun, []string{"truck"}},
		{"fast.a.01", taxonomy.Adjective, []string{"fast", "quick", "the"}},
	}, [][2]string{
		{"vehicle.n.01", "entity.n.01"},
		{"car.n.01", "vehicle.n.01"},
		{"sedan.n.01", "vehicle.n.01"},
		{"truck.n.01", "vehicle.n.01"},
	})
}

func newTestLexicon(g *Graph, opts ...LexiconOption) *Lexicon {
	base := []LexiconOption{
		WithTagger(text.FieldsTagger{}),
		WithStopwords(text.NewStopwordSet("the", "a", "of")),
	}
	return NewLexicon(g, append(base, opts...)...)
}

// stubTagger returns fixed tokens, or err.
type stubTagger struct {
	tokens []Token
	err    error
}

func (s stubTagger) Tag(context.Context, string) ([]Token, error) {
	return s.tokens, s.err
}

func TestRelations_ContentWords(t *testing.T) {
	t.Parallel()
	l := newTestLexicon(relationsGraph(t))

	rels, err := l.Relations(context.Background(), "The fast car overtook the sedan")
	require.NoError(t, err)
	assert.Equal(t, []string{"fast", "car", "overtook", "sedan"}, rels.Words())

	car, ok := rels.Get("car")
	require.True(t, ok)
	assert.Equal(t, "car.n.01", car.Sense)
	assert.Equal(t, []string{"auto", "automobile"}, car.Synonyms)
	assert.Contains(t, car.Hypernyms, "vehicle")
	assert.Empty(t, car.Hyponyms)

	sedan, ok := rels.Get("Sedan")
	require.True(t, ok)
	assert.Equal(t, []string{"saloon"}, sedan.Synonyms)
	assert.Contains(t, sedan.Hypernyms, "vehicle")

	// Stopwords are dropped from keys and from lemma lists.
	_, ok = rels.Get("the")
	assert.False(t, ok)
	fast, ok := rels.Get("fast")
	require.True(t, ok)
	assert.Equal(t, []string{"quick"}, fast.Synonyms)
}

func TestRelations_Hyponyms(t *testing.T) {
	t.Parallel()
	l := newTestLexicon(relationsGraph(t))

	rels, err := l.Relations(context.Background(), "vehicle")
	require.NoError(t, err)
	vehicle, ok := rels.Get("vehicle")
	require.True(t, ok)
	assert.Equal(t, []string{"entity"}, vehicle.Hypernyms)
	assert.ElementsMatch(t, []string{"car", "auto", "automobile", "sedan", "saloon", "truck"}, vehicle.Hyponyms)
}

func TestSynonyms_NoHierarchy(t *testing.T) {
	t.Parallel()
	l := newTestLexicon(relationsGraph(t))

	syns, err := l.Synonyms(context.Background(), "car car CAR")
	require.NoError(t, err)
	require.Equal(t, 1, syns.Len())
	car, _ := syns.Get("car")
	assert.Equal(t, []string{"auto", "automobile"}, car.Synonyms)
	assert.Nil(t, car.Hypernyms)
	assert.Nil(t, car.Hyponyms)
}

func TestSynonyms_InflectedForm(t *testing.T) {
	t.Parallel()
	l := newTestLexicon(relationsGraph(t))

	syns, err := l.Synonyms(context.Background(), "cars")
	require.NoError(t, err)
	cars, ok := syns.Get("cars")
	require.True(t, ok)
	assert.False(t, cars.Unresolved)
	assert.Equal(t, "car.n.01", cars.Sense)
}

func TestSynonyms_UnresolvedWord(t *testing.T) {
	t.Parallel()
	l := newTestLexicon(relationsGraph(t))

	syns, err := l.Synonyms(context.Background(), "vehicel truck")
	require.NoError(t, err)

	oov, ok := syns.Get("vehicel")
	require.True(t, ok)
	assert.True(t, oov.Unresolved)
	assert.NotNil(t, oov.Synonyms)
	assert.Empty(t, oov.Synonyms)
	require.NotEmpty(t, oov.Suggestions)
	assert.Equal(t, "vehicle", oov.Suggestions[0])

	// A known word with no synonyms is not marked unresolved.
	truck, ok := syns.Get("truck")
	require.True(t, ok)
	assert.False(t, truck.Unresolved)
	assert.Empty(t, truck.Synonyms)
}

func TestSynonyms_SuggestionsDisabled(t *testing.T) {
	t.Parallel()
	l := newTestLexicon(relationsGraph(t), WithSuggestions(0))

	syns, err := l.Synonyms(context.Background(), "vehicel")
	require.NoError(t, err)
	oov, _ := syns.Get("vehicel")
	assert.True(t, oov.Unresolved)
	assert.Nil(t, oov.Suggestions)
}

func TestSynonyms_InputErrors(t *testing.T) {
	t.Parallel()
	g := relationsGraph(t)

	_, err := newTestLexicon(g).Synonyms(context.Background(), "   ")
	require.ErrorIs(t, err, ErrEmptyText)

	_, err = newTestLexicon(g, WithTagger(stubTagger{})).Synonyms(context.Background(), "car")
	require.ErrorIs(t, err, ErrEmptyText)

	bad := stubTagger{tokens: []Token{{Text: "car"}, {Text: " "}}}
	_, err = newTestLexicon(g, WithTagger(bad)).Relations(context.Background(), "car")
	require.ErrorIs(t, err, ErrMalformedInput)

	boom := errors.New("boom")
	_, err = newTestLexicon(g, WithTagger(stubTagger{err: boom})).Synonyms(context.Background(), "car")
	require.ErrorIs(t, err, boom)
}

func TestSynonyms_CancelledContext(t *testing.T) {
	t.Parallel()
	l := newTestLexicon(relationsGraph(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.Synonyms(ctx, "car sedan")
	require.ErrorIs(t, err, context.Canceled)
}

func TestWordRelations_MarshalJSON(t *testing.T) {
	t.Parallel()
	l := newTestLexicon(relationsGraph(t))

	rels, err := l.Relations(context.Background(), "sedan zzzz")
	require.NoError(t, err)
	data, err := json.Marshal(rels)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"word": "sedan", "sense": "sedan.n.01", "synonyms": ["saloon"], "hypernyms": ["vehicle"]},
		{"word": "zzzz", "synonyms": [], "unresolved": true}
	]`, string(data))

	data, err = json.Marshal(newWordRelations())
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestSemanticDistance(t *testing.T) {
	t.Parallel()
	l := newTestLexicon(measureGraph(t))
	ctx := context.Background()

	tests := []struct {
		name   string
		w1, w2 string
		status Status
		value  int
	}{
		{"parent and child", "car", "sedan", StatusKnown, 1},
		{"same word", "car", "car", StatusKnown, 0},
		{"synonyms", "car", "automobile", StatusKnown, 0},
		{"siblings", "sedan", "truck", StatusKnown, 3},
		{"through the root", "sedan", "bank", StatusKnown, 4},
		{"disjoint", "car", "tree", StatusUnreachable, 0},
		{"isolated", "truck", "flora", StatusUnreachable, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d, err := l.SemanticDistance(ctx, tt.w1, tt.w2, "")
			require.NoError(t, err)
			assert.Equal(t, tt.status, d.Status)
			if tt.status == StatusKnown {
				assert.Equal(t, tt.value, d.Value)
			}
			require.NotNil(t, d.Senses)
		})
	}
}

func TestSemanticDistance_IsSymmetric(t *testing.T) {
	t.Parallel()
	l := newTestLexicon(measureGraph(t))
	ctx := context.Background()

	words := []string{"entity", "vehicle", "car", "sedan", "truck", "structure", "bank"}
	for _, a := range words {
		for _, b := range words {
			ab, err := l.SemanticDistance(ctx, a, b, "")
			require.NoError(t, err)
			ba, err := l.SemanticDistance(ctx, b, a, "")
			require.NoError(t, err)
			assert.Equal(t, ab.Value, ba.Value, "%s/%s", a, b)
		}
	}
}

func TestWordSimilarity(t *testing.T) {
	t.Parallel()
	l := newTestLexicon(measureGraph(t))
	ctx := context.Background()

	s, err := l.WordSimilarity(ctx, "car", "sedan", "")
	require.NoError(t, err)
	assert.Equal(t, StatusKnown, s.Status)
	assert.InDelta(t, 0.8, s.Value, 1e-9)
	assert.Equal(t, &SensePair{A: "car.n.01", B: "sedan.n.01"}, s.Senses)

	s, err = l.WordSimilarity(ctx, "sedan", "sedan", "")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, s.Value, 1e-9)

	// sedan=3, truck=2, lca vehicle=1.
	s, err = l.WordSimilarity(ctx, "sedan", "truck", "")
	require.NoError(t, err)
	assert.InDelta(t, 0.4, s.Value, 1e-9)

	s, err = l.WordSimilarity(ctx, "car", "tree", "")
	require.NoError(t, err)
	assert.Equal(t, StatusKnown, s.Status)
	assert.Zero(t, s.Value)
}

func TestMeasures_UnknownWords(t *testing.T) {
	t.Parallel()
	l := newTestLexicon(measureGraph(t))
	ctx := context.Background()

	d, err := l.SemanticDistance(ctx, "car", "zzz", "")
	require.NoError(t, err)
	assert.Equal(t, StatusUnknownWord, d.Status)
	assert.Equal(t, []string{"zzz"}, d.Unknown)
	assert.Nil(t, d.Senses)

	s, err := l.WordSimilarity(ctx, "qqq", "zzz", "")
	require.NoError(t, err)
	assert.Equal(t, StatusUnknownWord, s.Status)
	assert.Equal(t, []string{"qqq", "zzz"}, s.Unknown)
	assert.Equal(t, "unknown word: qqq, zzz", s.Reason)

	d, err = l.SemanticDistance(ctx, "zzz", "ZZZ", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"zzz"}, d.Unknown)
}

func TestMeasures_InputErrors(t *testing.T) {
	t.Parallel()
	l := newTestLexicon(measureGraph(t))
	ctx := context.Background()

	_, err := l.SemanticDistance(ctx, " ", "car", "")
	require.ErrorIs(t, err, ErrEmptyWord)
	_, err = l.WordSimilarity(ctx, "car", "", "")
	require.ErrorIs(t, err, ErrEmptyWord)

	// Text is optional, but blank text is an error.
	_, err = l.SemanticDistance(ctx, "car", "sedan", "  \t")
	require.ErrorIs(t, err, ErrEmptyText)
}

func TestMeasures_TextHints(t *testing.T) {
	t.Parallel()
	g := measureGraph(t)
	ctx := context.Background()

	d, err := newTestLexicon(g).SemanticDistance(ctx, "bank", "vehicle", "")
	require.NoError(t, err)
	assert.Equal(t, StatusKnown, d.Status)
	assert.Equal(t, 2, d.Value)

	verb := stubTagger{tokens: []Token{{Text: "they", Tag: "PRP"}, {Text: "bank", Tag: "VB"}, {Text: "vehicle", Tag: "NN"}}}
	d, err = newTestLexicon(g, WithTagger(verb)).SemanticDistance(ctx, "bank", "vehicle", "they bank vehicle")
	require.NoError(t, err)
	assert.Equal(t, StatusUnreachable, d.Status)
	assert.Equal(t, "bank.v.01", d.Senses.A)

	// A hint no sense satisfies is ignored.
	adverb := stubTagger{tokens: []Token{{Text: "bank", Tag: "RB"}}}
	d, err = newTestLexicon(g, WithTagger(adverb)).SemanticDistance(ctx, "bank", "vehicle", "bank")
	require.NoError(t, err)
	assert.Equal(t, "bank.n.01", d.Senses.A)
}

func TestMeasures_AllSenses(t *testing.T) {
	t.Parallel()
	g := measureGraph(t)
	ctx := context.Background()

	// The primary sense of plant is the structure.
	d, err := newTestLexicon(g).SemanticDistance(ctx, "tree", "plant", "")
	require.NoError(t, err)
	assert.Equal(t, StatusUnreachable, d.Status)

	all := newTestLexicon(g, WithPairPolicy(AllSenses), WithWorkers(2))
	d, err = all.SemanticDistance(ctx, "tree", "plant", "")
	require.NoError(t, err)
	assert.Equal(t, StatusKnown, d.Status)
	assert.Equal(t, 1, d.Value)
	assert.Equal(t, &SensePair{A: "tree.n.01", B: "plant.n.02"}, d.Senses)

	s, err := all.WordSimilarity(ctx, "plant", "structure", "")
	require.NoError(t, err)
	assert.Equal(t, "plant.n.01", s.Senses.A)
	// plant.n.01=2, structure=1, lca structure=1.
	assert.InDelta(t, 2.0/3.0, s.Value, 1e-9)
}

func TestMeasures_AllSensesCancelled(t *testing.T) {
	t.Parallel()
	l := newTestLexicon(measureGraph(t), WithPairPolicy(AllSenses))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.SemanticDistance(ctx, "tree", "plant", "")
	require.ErrorIs(t, err, context.Canceled)
}

func TestMeasures_Concurrent(t *testing.T) {
	t.Parallel()
	l := newTestLexicon(measureGraph(t), WithPairPolicy(AllSenses), WithWorkers(4))
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := l.SemanticDistance(ctx, "sedan", "plant", "")
			assert.NoError(t, err)
			assert.Equal(t, 5, d.Value)
			s, err := l.WordSimilarity(ctx, "car", "sedan", "")
			assert.NoError(t, err)
			assert.InDelta(t, 0.8, s.Value, 1e-9)
		}()
	}
	wg.Wait()
}

func TestDistance_MarshalJSON(t *testing.T) {
	t.Parallel()
	l := newTestLexicon(measureGraph(t))
	ctx := context.Background()

	d, err := l.SemanticDistance(ctx, "car", "sedan", "")
	require.NoError(t, err)
	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"known","value":1,"senses":{"a":"car.n.01","b":"sedan.n.01"}}`, string(data))

	d, err = l.SemanticDistance(ctx, "car", "zzz", "")
	require.NoError(t, err)
	data, err = json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"unknown_word","unknown":"unknown word: zzz","words":["zzz"]}`, string(data))

	s, err := l.WordSimilarity(ctx, "car", "tree", "")
	require.NoError(t, err)
	data, err = json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"known","value":0,"senses":{"a":"car.n.01","b":"tree.n.01"}}`, string(data))
}

func TestParsePairPolicy(t *testing.T) {
	t.Parallel()
	p, err := ParsePairPolicy("all")
	require.NoError(t, err)
	assert.Equal(t, AllSenses, p)
	assert.Equal(t, "all", p.String())

	p, err = ParsePairPolicy("primary")
	require.NoError(t, err)
	assert.Equal(t, PrimarySenses, p)

	_, err = ParsePairPolicy("best")
	require.Error(t, err)
}

func TestResolve(t *testing.T) {
	t.Parallel()
	l := newTestLexicon(measureGraph(t))
	g := l.Graph()

	r := l.Resolve(" Bank ", "")
	require.True(t, r.OK)
	assert.Equal(t, "bank", r.Word)
	assert.Len(t, r.Senses, 2)
	assert.Equal(t, "bank.n.01", g.Sense(r.Primary).Key)

	r = l.Resolve("bank", taxonomy.Verb)
	require.True(t, r.OK)
	assert.Equal(t, "bank.v.01", g.Sense(r.Primary).Key)
	assert.Len(t, r.Senses, 1)

	r = l.Resolve("nonesuch", "")
	assert.False(t, r.OK)
	assert.Empty(t, r.Senses)
}

func TestDescribe(t *testing.T) {
	t.Parallel()
	l := newTestLexicon(measureGraph(t))

	infos, ok := l.Describe("sedan", "")
	require.True(t, ok)
	require.Len(t, infos, 1)
	assert.Equal(t, SenseInfo{
		Key:       "sedan.n.01",
		POS:       "n",
		Lemmas:    []string{"sedan", "saloon"},
		Depth:     3,
		Hypernyms: []string{"car.n.01"},
	}, infos[0])

	_, ok = l.Describe("nonesuch", "")
	assert.False(t, ok)
}
