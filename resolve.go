package lexgraph

import (
	"strings"

	"github.com/jward/lexgraph/internal/text"
)

// Resolution is a surface word's candidate senses. Primary is the sense
// queries use; it is meaningful only when OK is true.
type Resolution struct {
	Word    string
	Senses  []SenseID
	Primary SenseID
	OK      bool
}

// Resolve maps a word to its senses in resource order (most frequent
// first), falling back to the word's stem when it is not a lemma. A
// non-empty hint keeps only senses of that category, unless none match, in
// which case the hint is ignored.
func (l *Lexicon) Resolve(word string, hint POS) Resolution {
	w := strings.ToLower(strings.TrimSpace(word))
	candidates := l.graph.SensesForBase(w)
	if len(candidates) == 0 {
		return Resolution{Word: w}
	}
	if hint != "" {
		var filtered []SenseID
		for _, id := range candidates {
			if l.graph.Sense(id).POS.Matches(hint) {
				filtered = append(filtered, id)
			}
		}
		if len(filtered) > 0 {
			candidates = filtered
		}
	}
	return Resolution{
		Word:    w,
		Senses:  append([]SenseID(nil), candidates...),
		Primary: candidates[0],
		OK:      true,
	}
}

// SenseInfo describes one sense for display.
type SenseInfo struct {
	Key       string   `json:"key"`
	POS       string   `json:"pos"`
	Gloss     string   `json:"gloss,omitempty"`
	Lemmas    []string `json:"lemmas"`
	Depth     int      `json:"depth"`
	Hypernyms []string `json:"hypernyms,omitempty"`
}

// Describe lists every sense Resolve finds for word, primary first.
func (l *Lexicon) Describe(word string, hint POS) ([]SenseInfo, bool) {
	res := l.Resolve(word, hint)
	if !res.OK {
		return nil, false
	}
	out := make([]SenseInfo, 0, len(res.Senses))
	for _, id := range res.Senses {
		out = append(out, l.describe(id))
	}
	return out, true
}

func (l *Lexicon) describe(id SenseID) SenseInfo {
	s := l.graph.Sense(id)
	info := SenseInfo{
		Key:    s.Key,
		POS:    s.POS.String(),
		Gloss:  s.Gloss,
		Lemmas: append([]string(nil), s.Lemmas...),
		Depth:  l.graph.Depth(id),
	}
	for _, p := range l.graph.DirectGeneralizations(id) {
		info.Hypernyms = append(info.Hypernyms, l.graph.Sense(p).Key)
	}
	return info
}

// hintsFor returns the category of each word's first tagged occurrence.
func (l *Lexicon) hintsFor(tokens []Token) map[string]POS {
	hints := make(map[string]POS, len(tokens))
	for _, tok := range tokens {
		w := strings.ToLower(strings.TrimSpace(tok.Text))
		if _, ok := hints[w]; ok {
			continue
		}
		if pos, ok := text.CategoryForTag(tok.Tag); ok {
			hints[w] = pos
		}
	}
	return hints
}
