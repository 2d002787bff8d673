package lexgraph

import (
	"github.com/jward/lexgraph/internal/store"
	"github.com/jward/lexgraph/internal/taxonomy"
	"github.com/jward/lexgraph/internal/text"
)

// Public type aliases for internal types used in the Engine and Lexicon
// APIs. External consumers use these names; no conversion is needed.

type Store = store.Store
type Stats = store.Stats
type Graph = taxonomy.Graph
type Sense = taxonomy.Sense
type SenseID = taxonomy.SenseID
type POS = taxonomy.POS
type LoadError = taxonomy.LoadError
type Token = text.Token
type Tagger = text.Tagger
type Stopwords = text.Stopwords
