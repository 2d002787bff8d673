package taxonomy

import (
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"
	"github.com/surgebase/porter2"
)

// minSuggestScore is the Jaro-Winkler similarity a lemma needs to be
// offered as a suggestion.
const minSuggestScore = 0.85

// SensesForBase is SensesFor with an inflection fallback: when the word
// is not a lemma, senses of lemmas sharing its Porter2 stem are returned.
func (g *Graph) SensesForBase(word string) []SenseID {
	word = strings.ToLower(strings.TrimSpace(word))
	if ids := g.byLemma[word]; len(ids) > 0 {
		return ids
	}
	if word == "" || strings.ContainsAny(word, "_ -") {
		return nil
	}
	return g.byStem[porter2.Stem(word)]
}

// Suggest returns up to n known lemmas closest to word, best first.
func (g *Graph) Suggest(word string, n int) []string {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" || n <= 0 {
		return nil
	}
	type scored struct {
		lemma string
		score float32
	}
	var hits []scored
	for _, l := range g.lemmas {
		if l == word {
			continue
		}
		s, err := edlib.StringsSimilarity(word, l, edlib.JaroWinkler)
		if err != nil || s < minSuggestScore {
			continue
		}
		hits = append(hits, scored{l, s})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].lemma < hits[j].lemma
	})
	if len(hits) > n {
		hits = hits[:n]
	}
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.lemma
	}
	return out
}
