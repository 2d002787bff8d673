package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jward/lexgraph"
	"github.com/jward/lexgraph/internal/taxonomy"
	"github.com/jward/lexgraph/internal/text"
)

var (
	flagTagger      string
	flagStopwords   string
	flagPolicy      string
	flagWorkers     int
	flagSuggestions int
	flagText        string
	flagPOS         string
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query the lexicon",
	Long:  "Run queries against an imported lexicon. Words not in the taxonomy are reported as unresolved, never as empty results.",
}

func init() {
	queryCmd.PersistentFlags().StringVar(&flagTagger, "tagger", "", "tokenizer: prose|fields (default from config)")
	queryCmd.PersistentFlags().StringVar(&flagStopwords, "stopwords", "", "stopword language code (default from config)")
	queryCmd.PersistentFlags().StringVar(&flagPolicy, "policy", "", "sense pairs for distance and similarity: primary|all")
	queryCmd.PersistentFlags().IntVar(&flagWorkers, "workers", 0, "workers for --policy all (default NumCPU)")
	queryCmd.PersistentFlags().IntVar(&flagSuggestions, "suggestions", -1, "spelling suggestions per unresolved word")

	distanceCmd.Flags().StringVar(&flagText, "text", "", "sentence the words appear in, used for part-of-speech hints")
	similarityCmd.Flags().StringVar(&flagText, "text", "", "sentence the words appear in, used for part-of-speech hints")
	sensesCmd.Flags().StringVar(&flagPOS, "pos", "", "part of speech filter: n|v|a|s|r")

	queryCmd.AddCommand(synonymsCmd)
	queryCmd.AddCommand(relationsCmd)
	queryCmd.AddCommand(distanceCmd)
	queryCmd.AddCommand(similarityCmd)
	queryCmd.AddCommand(sensesCmd)
	queryCmd.AddCommand(statsCmd)
}

// --- Helpers ---

// openEngine opens the Engine on the existing database.
func openEngine() (*lexgraph.Engine, error) {
	dbPath := resolveDBPath(projectRoot)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("database not found: %s (run 'lexgraph import' first)", dbPath)
	}
	return lexgraph.New(dbPath)
}

// loadLexicon loads the taxonomy graph and wraps it in a Lexicon
// configured from flags and the config file. The database is closed once
// the graph is in memory.
func loadLexicon(ctx context.Context) (*lexgraph.Lexicon, error) {
	opts, err := lexiconOptions()
	if err != nil {
		return nil, err
	}
	e, err := openEngine()
	if err != nil {
		return nil, err
	}
	defer e.Close()

	start := time.Now()
	g, err := e.Load(ctx)
	if err != nil {
		return nil, err
	}
	if flagFormat == "text" {
		fmt.Fprintf(os.Stderr, "Loaded %d senses in %s\n", g.Len(), time.Since(start).Round(time.Millisecond))
	}
	return lexgraph.NewLexicon(g, opts...), nil
}

func lexiconOptions() ([]lexgraph.LexiconOption, error) {
	q := cfg.Query
	if flagTagger != "" {
		q.Tagger = flagTagger
	}
	if flagStopwords != "" {
		q.StopwordLanguage = flagStopwords
	}
	if flagPolicy != "" {
		q.PairPolicy = flagPolicy
	}
	if flagWorkers > 0 {
		q.Workers = flagWorkers
	}
	if flagSuggestions >= 0 {
		q.Suggestions = flagSuggestions
	}

	var tagger lexgraph.Tagger
	switch q.Tagger {
	case "prose":
		tagger = text.ProseTagger{}
	case "fields":
		tagger = text.FieldsTagger{}
	default:
		return nil, fmt.Errorf("invalid tagger %q: must be prose or fields", q.Tagger)
	}
	policy, err := lexgraph.ParsePairPolicy(q.PairPolicy)
	if err != nil {
		return nil, err
	}
	return []lexgraph.LexiconOption{
		lexgraph.WithTagger(tagger),
		lexgraph.WithStopwords(text.NewLanguageStopwords(q.StopwordLanguage)),
		lexgraph.WithPairPolicy(policy),
		lexgraph.WithWorkers(q.Workers),
		lexgraph.WithSuggestions(q.Suggestions),
	}, nil
}

// outputResult marshals a CLIResult to stdout in the selected format.
func outputResult(result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(os.Stdout, result)
	}
	return outputResultJSON(os.Stdout, result)
}

func outputResultJSON(w io.Writer, result CLIResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func outputError(command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return err
	}
	_ = outputResultJSON(os.Stdout, CLIResult{
		Command: command,
		Error:   err.Error(),
	})
	return err
}

// --- Text Commands ---

var synonymsCmd = &cobra.Command{
	Use:   "synonyms <text>...",
	Short: "Synonyms of each content word in the text",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWordRelations(cmd, "synonyms", args, (*lexgraph.Lexicon).Synonyms)
	},
}

var relationsCmd = &cobra.Command{
	Use:   "relations <text>...",
	Short: "Synonyms, hypernyms and hyponyms of each content word in the text",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWordRelations(cmd, "relations", args, (*lexgraph.Lexicon).Relations)
	},
}

type wordRelationsFunc func(*lexgraph.Lexicon, context.Context, string) (*lexgraph.WordRelations, error)

func runWordRelations(cmd *cobra.Command, command string, args []string, query wordRelationsFunc) error {
	lex, err := loadLexicon(cmd.Context())
	if err != nil {
		return outputError(command, err)
	}
	rels, err := query(lex, cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return outputError(command, err)
	}
	n := rels.Len()
	return outputResult(CLIResult{
		Command:    command,
		Results:    rels,
		TotalCount: &n,
	})
}

// --- Pair Commands ---

var distanceCmd = &cobra.Command{
	Use:   "distance <word1> <word2>",
	Short: "Shortest taxonomy path length between two words",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		lex, err := loadLexicon(cmd.Context())
		if err != nil {
			return outputError("distance", err)
		}
		d, err := lex.SemanticDistance(cmd.Context(), args[0], args[1], flagText)
		if err != nil {
			return outputError("distance", err)
		}
		return outputResult(CLIResult{
			Command: "distance",
			Results: CLIMeasure{Word1: args[0], Word2: args[1], Distance: &d},
		})
	},
}

var similarityCmd = &cobra.Command{
	Use:   "similarity <word1> <word2>",
	Short: "Wu-Palmer similarity of two words",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		lex, err := loadLexicon(cmd.Context())
		if err != nil {
			return outputError("similarity", err)
		}
		s, err := lex.WordSimilarity(cmd.Context(), args[0], args[1], flagText)
		if err != nil {
			return outputError("similarity", err)
		}
		return outputResult(CLIResult{
			Command: "similarity",
			Results: CLIMeasure{Word1: args[0], Word2: args[1], Similarity: &s},
		})
	},
}

// --- Inspection Commands ---

var sensesCmd = &cobra.Command{
	Use:   "senses <word>",
	Short: "List the senses of a word, primary first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var hint lexgraph.POS
		if flagPOS != "" {
			pos, err := taxonomy.ParsePOS(flagPOS)
			if err != nil {
				return outputError("senses", err)
			}
			hint = pos
		}
		lex, err := loadLexicon(cmd.Context())
		if err != nil {
			return outputError("senses", err)
		}
		infos, ok := lex.Describe(args[0], hint)
		if !ok {
			return outputError("senses", fmt.Errorf("unknown word %q", args[0]))
		}
		n := len(infos)
		return outputResult(CLIResult{
			Command:    "senses",
			Results:    infos,
			TotalCount: &n,
		})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count sources, senses, lemmas and relations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine()
		if err != nil {
			return outputError("stats", err)
		}
		defer e.Close()
		stats, err := e.Stats()
		if err != nil {
			return outputError("stats", err)
		}
		return outputResult(CLIResult{
			Command: "stats",
			Results: stats,
		})
	},
}
