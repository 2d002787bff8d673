// Package lexgraph answers lexical-semantic questions over a word-sense
// taxonomy.
//
// # Pipeline
//
// lexgraph operates in two phases:
//
//  1. Import: transcribe a lexical resource into a SQLite lexicon
//     database. WordNet dict directories are read with the gostuff
//     parser; other record files are read by a Risor loader script
//     (scripts/load/*.risor) that calls back into Go to insert senses,
//     lemmas and generalization edges.
//
//  2. Load and query: read the database into an immutable in-memory
//     taxonomy graph, then answer queries through a [Lexicon].
//
// # Usage
//
//	e, err := lexgraph.New("lexicon.db", lexgraph.WithScriptsFS(scripts.FS))
//	if err != nil { ... }
//	defer e.Close()
//
//	ctx := context.Background()
//	err = e.ImportWordNet(ctx, "/usr/share/wordnet/dict")
//
//	g, err := e.Load(ctx)
//	lex := lexgraph.NewLexicon(g)
//	rel, err := lex.Relations(ctx, "The fast car overtook the sedan")
//	d, err := lex.SemanticDistance(ctx, "car", "sedan", "")
//
// # Query API
//
// The [Lexicon] provides four operations:
//
//   - [Lexicon.Synonyms]: per content word of a text, the synonyms of its
//     primary sense.
//   - [Lexicon.Relations]: synonyms plus direct hypernyms and hyponyms.
//   - [Lexicon.SemanticDistance]: shortest path length between two words'
//     senses, or an explicit unreachable or unknown-word outcome.
//   - [Lexicon.WordSimilarity]: Wu-Palmer similarity in [0, 1], or an
//     explicit unknown-word outcome.
//
// Word resolution picks the first sense in resource order. A part-of-speech
// hint from the tagger narrows the candidates first; when nothing matches
// the hint it is ignored. With the [AllSenses] pair policy, distance and
// similarity are computed for every sense pair and reduced to the best one.
//
// # Incremental Import
//
// Each imported file or dict directory is a source with a content hash.
// Unchanged sources are skipped. A changed source has its senses removed
// and is re-imported together with every source holding edges into it.
// Edges naming senses another file defines are resolved after all files
// are committed.
package lexgraph
