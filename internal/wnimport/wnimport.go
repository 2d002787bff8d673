// Package wnimport transcribes a parsed WordNet database into the lexicon
// store: one sense per synset, its words as ordered lemmas, and its
// hypernym and instance hypernym pointers as generalization edges.
package wnimport

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/fluhus/gostuff/nlp/wordnet"

	"github.com/jward/lexgraph/internal/store"
	"github.com/jward/lexgraph/internal/taxonomy"
)

// posOrder is the order in which a lemma's senses are ranked across parts
// of speech. Satellites share the adjective index.
var posOrder = []taxonomy.POS{
	taxonomy.Noun,
	taxonomy.Verb,
	taxonomy.Adjective,
	taxonomy.AdjectiveSatellite,
	taxonomy.Adverb,
}

// Summary counts what an import wrote.
type Summary struct {
	Senses    int `json:"senses"`
	Lemmas    int `json:"lemmas"`
	Relations int `json:"relations"`
	// Dangling counts pointers naming a synset absent from the database.
	Dangling int `json:"dangling"`
}

// Import writes every synset of wn into ds. sourceID, when non-nil, is
// recorded as each sense's owner.
func Import(ctx context.Context, wn *wordnet.WordNet, ds store.DataStore, sourceID *int64) (Summary, error) {
	var sum Summary
	ids := orderedSynsets(wn)
	positions, ranks := senseOrder(wn, ids)

	senseIDs := make(map[string]int64, len(ids))
	for i, sid := range ids {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return sum, err
			}
		}
		syn := wn.Synset[sid]
		if len(syn.Word) == 0 {
			return sum, fmt.Errorf("wordnet import: synset %s has no words", sid)
		}
		first := normalizeLemma(syn.Word[0])
		key := fmt.Sprintf("%s.%s.%02d", first, syn.Pos, positions[lemmaKey(indexPOS(syn.Pos), first)][sid]+1)

		id, err := ds.InsertSense(&store.Sense{
			SourceID: sourceID,
			Key:      key,
			POS:      syn.Pos,
			Gloss:    strings.TrimSpace(syn.Gloss),
		})
		if err != nil {
			return sum, fmt.Errorf("wordnet import: sense %s: %w", key, err)
		}
		senseIDs[sid] = id
		sum.Senses++

		seen := make(map[string]bool, len(syn.Word))
		for ord, w := range syn.Word {
			lemma := normalizeLemma(w)
			if seen[lemma] {
				continue
			}
			seen[lemma] = true
			if _, err := ds.InsertSenseLemma(&store.SenseLemma{
				SenseID: id,
				Lemma:   lemma,
				Ordinal: ord,
				Rank:    ranks[lemma][sid],
			}); err != nil {
				return sum, fmt.Errorf("wordnet import: lemma %s of %s: %w", lemma, key, err)
			}
			sum.Lemmas++
		}
	}

	for _, sid := range ids {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		for _, p := range wn.Synset[sid].Pointer {
			kind, ok := relationKind(p.Symbol)
			if !ok {
				continue
			}
			target, ok := senseIDs[p.Synset]
			if !ok {
				sum.Dangling++
				continue
			}
			if target == senseIDs[sid] {
				continue
			}
			if _, err := ds.InsertRelation(&store.Relation{
				SourceID:      sourceID,
				SourceSenseID: senseIDs[sid],
				TargetSenseID: target,
				Kind:          kind,
			}); err != nil {
				return sum, fmt.Errorf("wordnet import: relation %s -> %s: %w", sid, p.Synset, err)
			}
			sum.Relations++
		}
	}
	return sum, nil
}

func relationKind(symbol string) (string, bool) {
	switch symbol {
	case wordnet.Hypernym:
		return store.RelationHypernym, true
	case wordnet.InstanceHypernym:
		return store.RelationInstanceHypernym, true
	}
	return "", false
}

// orderedSynsets returns synset IDs by part of speech, then offset.
func orderedSynsets(wn *wordnet.WordNet) []string {
	ids := make([]string, 0, len(wn.Synset))
	for id := range wn.Synset {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := wn.Synset[ids[i]], wn.Synset[ids[j]]
		if pa, pb := posIndex(a.Pos), posIndex(b.Pos); pa != pb {
			return pa < pb
		}
		if a.Offset != b.Offset {
			return a.Offset < b.Offset
		}
		return ids[i] < ids[j]
	})
	return ids
}

// senseOrder computes, for every (index pos, lemma), each synset's
// position in that lemma's sense list, and for every lemma a global rank
// over all parts of speech. The index files' tagged senses come first in
// frequency order (WordNet.LemmaRanked); untagged synsets follow in
// offset order.
func senseOrder(wn *wordnet.WordNet, ids []string) (positions map[string]map[string]int, ranks map[string]map[string]int) {
	lists := make(map[string][]string)
	for _, sid := range ids {
		syn := wn.Synset[sid]
		for _, w := range syn.Word {
			k := lemmaKey(indexPOS(syn.Pos), normalizeLemma(w))
			lists[k] = append(lists[k], sid)
		}
	}

	positions = make(map[string]map[string]int, len(lists))
	for k, members := range lists {
		order := make(map[string]int, len(members))
		for _, sid := range wn.LemmaRanked[k] {
			if _, dup := order[sid]; !dup && slices.Contains(members, sid) {
				order[sid] = len(order)
			}
		}
		for _, sid := range members {
			if _, ok := order[sid]; !ok {
				order[sid] = len(order)
			}
		}
		positions[k] = order
	}

	ranks = make(map[string]map[string]int)
	for _, pos := range posOrder {
		if pos == taxonomy.AdjectiveSatellite {
			continue // ranked with the adjective index
		}
		for k, order := range positions {
			p, lemma, _ := strings.Cut(k, ".")
			if p != string(pos) {
				continue
			}
			byPos := make([]string, len(order))
			for sid, i := range order {
				byPos[i] = sid
			}
			r := ranks[lemma]
			if r == nil {
				r = make(map[string]int)
				ranks[lemma] = r
			}
			base := len(r)
			for i, sid := range byPos {
				r[sid] = base + i
			}
		}
	}
	return positions, ranks
}

// lemmaKey matches the "pos.lemma" keys of WordNet.LemmaRanked.
// WordNet.Lemma uses "poslemma" keys in offset order and is not used.
func lemmaKey(pos, lemma string) string {
	return pos + "." + lemma
}

func indexPOS(pos string) string {
	if pos == string(taxonomy.AdjectiveSatellite) {
		return string(taxonomy.Adjective)
	}
	return pos
}

func posIndex(pos string) int {
	for i, p := range posOrder {
		if string(p) == pos {
			return i
		}
	}
	return len(posOrder)
}

// normalizeLemma lowercases and strips the adjective marker WordNet
// appends to some adjectives, e.g. "galore(ip)".
func normalizeLemma(w string) string {
	w = strings.ToLower(w)
	if i := strings.IndexByte(w, '('); i > 0 && strings.HasSuffix(w, ")") {
		w = w[:i]
	}
	return w
}
