package text

import (
	"strings"
	"sync"

	"github.com/bbalet/stopwords"
)

// Numbers are content, not stopwords. The segmenter is package state in
// bbalet/stopwords, so it is switched once before any lookup runs.
func init() {
	stopwords.DontStripDigits()
}

// Stopwords decides which words are too common to report.
type Stopwords interface {
	IsStopword(word string) bool
}

// LanguageStopwords uses the bundled stopword list for an ISO 639-1
// language code such as "en".
type LanguageStopwords struct {
	Lang  string
	cache sync.Map // lowercased word -> bool
}

func NewLanguageStopwords(lang string) *LanguageStopwords {
	return &LanguageStopwords{Lang: lang}
}

func (s *LanguageStopwords) IsStopword(word string) bool {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return true
	}
	if v, ok := s.cache.Load(word); ok {
		return v.(bool)
	}
	// CleanString drops stopwords and returns what survives.
	stop := strings.TrimSpace(stopwords.CleanString(word, s.Lang, false)) == ""
	s.cache.Store(word, stop)
	return stop
}

// StopwordSet is an explicit, case-insensitive word list.
type StopwordSet map[string]struct{}

func NewStopwordSet(words ...string) StopwordSet {
	set := make(StopwordSet, len(words))
	for _, w := range words {
		set[strings.ToLower(w)] = struct{}{}
	}
	return set
}

func (s StopwordSet) IsStopword(word string) bool {
	_, ok := s[strings.ToLower(strings.TrimSpace(word))]
	return ok
}
