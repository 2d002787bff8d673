package store

import (
	"strings"
	"time"
)

// Relation kinds. Only the generalizing direction is stored; the
// specializing direction is derived when the taxonomy is built.
const (
	RelationHypernym         = "hypernym"
	RelationInstanceHypernym = "instance_hypernym"
)

// Source formats recorded in the sources table.
const (
	FormatWordNet = "wordnet"
	FormatScript  = "script"
)

// ScriptFormat is the format recorded for a source read by the named
// loader script.
func ScriptFormat(loader string) string {
	return FormatScript + ":" + loader
}

// LoaderOf returns the loader script recorded in a script source's format.
func LoaderOf(format string) (string, bool) {
	return strings.CutPrefix(format, FormatScript+":")
}

type Source struct {
	ID         int64
	Path       string
	Hash       string
	Format     string
	ImportedAt time.Time
}

type Sense struct {
	ID       int64
	SourceID *int64
	Key      string
	POS      string
	Gloss    string
}

// SenseLemma is one lemma's membership in a sense. Ordinal orders the
// lemmas of a sense; Rank orders the senses of a lemma, lower first.
type SenseLemma struct {
	ID      int64
	SenseID int64
	Lemma   string
	Ordinal int
	Rank    int
}

// Relation is a directed generalization edge: SourceSenseID generalizes
// to TargetSenseID. SourceID is the source that recorded the edge, which
// need not own either endpoint.
type Relation struct {
	ID            int64
	SourceID      *int64
	SourceSenseID int64
	TargetSenseID int64
	Kind          string
}

// Stats summarizes the lexicon contents.
type Stats struct {
	Sources   int `json:"sources"`
	Senses    int `json:"senses"`
	Lemmas    int `json:"lemmas"`
	Relations int `json:"relations"`
}
