package wnimport

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/fluhus/gostuff/nlp/wordnet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/lexgraph/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })
	return s
}

func hyper(target string) *wordnet.Pointer {
	return &wordnet.Pointer{Symbol: wordnet.Hypernym, Synset: target}
}

// tinyWordNet has a small noun hierarchy, a verb "car" to exercise
// cross-POS ranking, and a dangling pointer. Keys and IDs follow
// wordnet.Parse: Lemma is "poslemma" in offset order, LemmaRanked is
// "pos.lemma" holding only the tagged senses, satellites live under "a".
func tinyWordNet() *wordnet.WordNet {
	return &wordnet.WordNet{
		Synset: map[string]*wordnet.Synset{
			"n001": {Offset: "001", Pos: "n", Word: []string{"entity"}, Gloss: "that which exists "},
			"n002": {Offset: "002", Pos: "n", Word: []string{"vehicle"}, Pointer: []*wordnet.Pointer{hyper("n001")}},
			"n003": {Offset: "003", Pos: "n", Word: []string{"car", "auto", "automobile"}, Pointer: []*wordnet.Pointer{hyper("n002")}},
			"n004": {Offset: "004", Pos: "n", Word: []string{"car", "railcar"}, Pointer: []*wordnet.Pointer{hyper("n002"), hyper("n999")}},
			"n005": {Offset: "005", Pos: "n", Word: []string{"Ford"}, Pointer: []*wordnet.Pointer{
				{Symbol: wordnet.InstanceHypernym, Synset: "n003"},
				{Symbol: wordnet.Hyponym, Synset: "n001"},
			}},
			"v001": {Offset: "001", Pos: "v", Word: []string{"car"}},
			"a001": {Offset: "001", Pos: "s", Word: []string{"fast"}},
			"a002": {Offset: "002", Pos: "a", Word: []string{"fast"}},
		},
		Lemma: map[string][]string{
			"ncar":  {"n003", "n004"},
			"afast": {"a001", "a002"},
		},
		LemmaRanked: map[string][]string{
			// Only the railcar sense of "car" is tagged, so it ranks first
			// and the untagged automobile sense follows.
			"n.car":  {"n004"},
			"a.fast": {"a002", "a001"},
		},
	}
}

func TestImport_WritesSensesLemmasAndEdges(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	sum, err := Import(context.Background(), tinyWordNet(), s, nil)
	require.NoError(t, err)
	assert.Equal(t, Summary{Senses: 8, Lemmas: 11, Relations: 4, Dangling: 1}, sum)

	st, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, store.Stats{Senses: 8, Lemmas: 11, Relations: 4}, st)

	entity, err := s.SenseByKey("entity.n.01")
	require.NoError(t, err)
	require.NotNil(t, entity)
	assert.Equal(t, "that which exists", entity.Gloss)

	for _, key := range []string{"car.n.01", "car.n.02", "car.v.01", "ford.n.01", "fast.a.01", "fast.s.02"} {
		got, err := s.SenseByKey(key)
		require.NoError(t, err)
		assert.NotNil(t, got, key)
	}
}

func TestImport_RanksFollowIndexOrderAcrossPOS(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	_, err := Import(context.Background(), tinyWordNet(), s, nil)
	require.NoError(t, err)

	senses, err := s.SensesByLemma("car")
	require.NoError(t, err)
	var keys []string
	for _, sense := range senses {
		keys = append(keys, sense.Key)
	}
	assert.Equal(t, []string{"car.n.01", "car.n.02", "car.v.01"}, keys)

	lemmas, err := s.SenseLemmas()
	require.NoError(t, err)
	membersOf := func(key string) []string {
		sense, err := s.SenseByKey(key)
		require.NoError(t, err)
		require.NotNil(t, sense, key)
		var members []string
		for _, l := range lemmas {
			if l.SenseID == sense.ID {
				members = append(members, l.Lemma)
			}
		}
		return members
	}
	assert.Equal(t, []string{"car", "railcar"}, membersOf("car.n.01"))
	assert.Equal(t, []string{"car", "auto", "automobile"}, membersOf("car.n.02"))
}

// testdata/dict lists the sloping-land sense of "bank" first in
// index.noun even though its synset offset is the larger one.
func TestImport_ParsedDictUsesIndexOrder(t *testing.T) {
	t.Parallel()
	wn, err := wordnet.Parse(filepath.Join("testdata", "dict"))
	require.NoError(t, err)
	require.Equal(t, []string{"n09213565", "n08420278"}, wn.LemmaRanked["n.bank"])

	s := newTestStore(t)
	sum, err := Import(context.Background(), wn, s, nil)
	require.NoError(t, err)
	assert.Equal(t, Summary{Senses: 4, Lemmas: 5, Relations: 3}, sum)

	senses, err := s.SensesByLemma("bank")
	require.NoError(t, err)
	require.Len(t, senses, 2)
	assert.Equal(t, "bank.n.01", senses[0].Key)
	assert.Equal(t, "sloping land beside a body of water", senses[0].Gloss)
	assert.Equal(t, "bank.n.02", senses[1].Key)
	assert.Equal(t, "a financial institution that accepts deposits", senses[1].Gloss)
}

func TestImport_InstanceHypernymKind(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	_, err := Import(context.Background(), tinyWordNet(), s, nil)
	require.NoError(t, err)

	rels, err := s.Relations()
	require.NoError(t, err)
	kinds := map[string]int{}
	for _, r := range rels {
		kinds[r.Kind]++
	}
	assert.Equal(t, map[string]int{store.RelationHypernym: 3, store.RelationInstanceHypernym: 1}, kinds)
}

func TestImport_BatchedStore(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	src := &store.Source{Path: "/dict", Hash: "h", Format: store.FormatWordNet}
	_, err := s.InsertSource(src)
	require.NoError(t, err)

	batch := store.NewBatchedStore(s)
	_, err = Import(context.Background(), tinyWordNet(), batch, &src.ID)
	require.NoError(t, err)
	require.NoError(t, s.CommitBatch(batch))

	owned, err := s.SensesBySource(src.ID)
	require.NoError(t, err)
	assert.Len(t, owned, 8)

	rels, err := s.Relations()
	require.NoError(t, err)
	require.Len(t, rels, 4)
	for _, r := range rels {
		require.NotNil(t, r.SourceID)
		assert.Equal(t, src.ID, *r.SourceID)
	}
}

func TestImport_Cancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Import(ctx, tinyWordNet(), newTestStore(t), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestImport_SynsetWithoutWords(t *testing.T) {
	t.Parallel()
	wn := &wordnet.WordNet{Synset: map[string]*wordnet.Synset{
		"n001": {Offset: "001", Pos: "n"},
	}}
	_, err := Import(context.Background(), wn, newTestStore(t), nil)
	assert.Error(t, err)
}

func TestNormalizeLemma(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "galore", normalizeLemma("galore(ip)"))
	assert.Equal(t, "new_york", normalizeLemma("New_York"))
	assert.Equal(t, "(", normalizeLemma("("))
}
