package lexgraph

import (
	"context"
	"encoding/json"
	"fmt"
	goruntime "runtime"
	"strings"

	"github.com/jward/lexgraph/internal/taxonomy"
	"github.com/jward/lexgraph/internal/text"
)

// DefaultSuggestions is how many spelling suggestions an unresolved word
// carries unless WithSuggestions says otherwise.
const DefaultSuggestions = 3

// Lexicon is the query API over a loaded taxonomy graph. It is safe for
// concurrent use.
type Lexicon struct {
	graph       *taxonomy.Graph
	tagger      text.Tagger
	stopwords   text.Stopwords
	policy      PairPolicy
	workers     int
	suggestions int
}

// LexiconOption configures a Lexicon.
type LexiconOption func(*Lexicon)

// WithTagger sets the tokenizer and part-of-speech tagger. Defaults to
// text.ProseTagger.
func WithTagger(t Tagger) LexiconOption {
	return func(l *Lexicon) {
		l.tagger = t
	}
}

// WithStopwords sets the stopword predicate. Defaults to English.
func WithStopwords(s Stopwords) LexiconOption {
	return func(l *Lexicon) {
		l.stopwords = s
	}
}

// WithPairPolicy selects which sense pairs distance and similarity
// compare.
func WithPairPolicy(p PairPolicy) LexiconOption {
	return func(l *Lexicon) {
		l.policy = p
	}
}

// WithWorkers bounds the AllSenses fan-out. Values below 1 mean NumCPU.
func WithWorkers(n int) LexiconOption {
	return func(l *Lexicon) {
		l.workers = n
	}
}

// WithSuggestions sets how many close lemmas an unresolved word carries.
// Zero disables suggestions.
func WithSuggestions(n int) LexiconOption {
	return func(l *Lexicon) {
		l.suggestions = n
	}
}

// NewLexicon wraps g.
func NewLexicon(g *Graph, opts ...LexiconOption) *Lexicon {
	l := &Lexicon{
		graph:       g,
		tagger:      text.ProseTagger{},
		stopwords:   text.NewLanguageStopwords("en"),
		policy:      PrimarySenses,
		workers:     goruntime.NumCPU(),
		suggestions: DefaultSuggestions,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.workers < 1 {
		l.workers = goruntime.NumCPU()
	}
	return l
}

// Graph returns the underlying taxonomy graph.
func (l *Lexicon) Graph() *Graph {
	return l.graph
}

// WordEntry is one content word's row in a WordRelations result.
type WordEntry struct {
	Word string `json:"word"`
	// Sense is the key of the resolved primary sense.
	Sense    string   `json:"sense,omitempty"`
	Synonyms []string `json:"synonyms"`
	// Hypernyms and Hyponyms are filled by Relations only.
	Hypernyms []string `json:"hypernyms,omitempty"`
	Hyponyms  []string `json:"hyponyms,omitempty"`

	// Unresolved marks a word the taxonomy does not know; Suggestions
	// lists close known lemmas.
	Unresolved  bool     `json:"unresolved,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// WordRelations maps content words to their entries, iterating in the
// order the words first appear in the input.
type WordRelations struct {
	entries []WordEntry
	index   map[string]int
}

func newWordRelations() *WordRelations {
	return &WordRelations{index: make(map[string]int)}
}

func (r *WordRelations) add(e WordEntry) {
	r.index[e.Word] = len(r.entries)
	r.entries = append(r.entries, e)
}

// Len returns the number of words.
func (r *WordRelations) Len() int { return len(r.entries) }

// Words returns the words in first-seen order.
func (r *WordRelations) Words() []string {
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Word
	}
	return out
}

// Get returns the entry for a word.
func (r *WordRelations) Get(word string) (WordEntry, bool) {
	i, ok := r.index[strings.ToLower(word)]
	if !ok {
		return WordEntry{}, false
	}
	return r.entries[i], true
}

// Entries returns the entries in first-seen order.
func (r *WordRelations) Entries() []WordEntry {
	return append([]WordEntry(nil), r.entries...)
}

// MarshalJSON encodes the mapping as an array of entries so the order
// survives.
func (r *WordRelations) MarshalJSON() ([]byte, error) {
	if r.entries == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(r.entries)
}

// Synonyms returns, for each distinct content word of input, the synonyms
// of its primary sense with stopwords and the word itself removed.
func (l *Lexicon) Synonyms(ctx context.Context, input string) (*WordRelations, error) {
	return l.collect(ctx, input, false)
}

// Relations is Synonyms plus the lemmas of each primary sense's direct
// hypernyms and hyponyms.
func (l *Lexicon) Relations(ctx context.Context, input string) (*WordRelations, error) {
	return l.collect(ctx, input, true)
}

func (l *Lexicon) collect(ctx context.Context, input string, withRelations bool) (*WordRelations, error) {
	words, err := l.contentWords(ctx, input)
	if err != nil {
		return nil, err
	}
	out := newWordRelations()
	for _, cw := range words {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res := l.Resolve(cw.word, cw.hint)
		if !res.OK {
			out.add(WordEntry{
				Word:        cw.word,
				Synonyms:    []string{},
				Unresolved:  true,
				Suggestions: l.graph.Suggest(cw.word, l.suggestions),
			})
			continue
		}
		entry := WordEntry{
			Word:     cw.word,
			Sense:    l.graph.Sense(res.Primary).Key,
			Synonyms: l.filterLemmas(cw.word, l.graph.SynonymsOf(res.Primary, cw.word)),
		}
		if withRelations {
			entry.Hypernyms = l.projectLemmas(cw.word, l.graph.DirectGeneralizations(res.Primary))
			entry.Hyponyms = l.projectLemmas(cw.word, l.graph.DirectSpecializations(res.Primary))
		}
		out.add(entry)
	}
	return out, nil
}

// projectLemmas lists the lemmas of senses, filtered like synonyms.
func (l *Lexicon) projectLemmas(query string, ids []SenseID) []string {
	var lemmas []string
	for _, id := range ids {
		lemmas = append(lemmas, l.graph.Sense(id).Lemmas...)
	}
	return l.filterLemmas(query, lemmas)
}

// filterLemmas removes stopwords, the query word and duplicates, keeping
// first occurrences. Never returns nil.
func (l *Lexicon) filterLemmas(query string, lemmas []string) []string {
	out := make([]string, 0, len(lemmas))
	seen := make(map[string]bool, len(lemmas))
	for _, lemma := range lemmas {
		lower := strings.ToLower(lemma)
		if lower == query || seen[lower] || l.stopwords.IsStopword(lower) {
			continue
		}
		seen[lower] = true
		out = append(out, lemma)
	}
	return out
}

// contentWord is a distinct non-stopword of the input with the category
// of its first occurrence.
type contentWord struct {
	word string
	hint POS
}

func (l *Lexicon) tag(ctx context.Context, input string) ([]Token, error) {
	if strings.TrimSpace(input) == "" {
		return nil, fmt.Errorf("lexgraph: %w", ErrEmptyText)
	}
	tokens, err := l.tagger.Tag(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("lexgraph: tag: %w", err)
	}
	if err := text.ValidateTokens(tokens); err != nil {
		return nil, fmt.Errorf("lexgraph: %w", err)
	}
	return tokens, nil
}

func (l *Lexicon) contentWords(ctx context.Context, input string) ([]contentWord, error) {
	tokens, err := l.tag(ctx, input)
	if err != nil {
		return nil, err
	}
	var words []contentWord
	seen := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		w := strings.ToLower(strings.TrimSpace(tok.Text))
		if seen[w] || !text.IsWord(w) || l.stopwords.IsStopword(w) {
			continue
		}
		seen[w] = true
		hint, _ := text.CategoryForTag(tok.Tag)
		words = append(words, contentWord{word: w, hint: hint})
	}
	return words, nil
}
