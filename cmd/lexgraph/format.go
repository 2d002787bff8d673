package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/jward/lexgraph"
)

// formatWordRelationsText formats one row per content word. Unresolved
// words show "?" for the sense and any spelling suggestions.
func formatWordRelationsText(w io.Writer, rels *lexgraph.WordRelations, withHierarchy bool) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if withHierarchy {
		fmt.Fprintln(tw, "WORD\tSENSE\tSYNONYMS\tHYPERNYMS\tHYPONYMS")
	} else {
		fmt.Fprintln(tw, "WORD\tSENSE\tSYNONYMS")
	}
	for _, e := range rels.Entries() {
		if e.Unresolved {
			note := "(unknown word)"
			if len(e.Suggestions) > 0 {
				note = "(unknown word; did you mean " + strings.Join(e.Suggestions, ", ") + "?)"
			}
			fmt.Fprintf(tw, "%s\t?\t%s\n", e.Word, note)
			continue
		}
		if withHierarchy {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				e.Word, e.Sense, joinOrDash(e.Synonyms), joinOrDash(e.Hypernyms), joinOrDash(e.Hyponyms))
		} else {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Word, e.Sense, joinOrDash(e.Synonyms))
		}
	}
	tw.Flush()
}

// formatMeasureText formats a distance or similarity as one line.
func formatMeasureText(w io.Writer, m CLIMeasure) {
	var status lexgraph.Status
	var value, reason string
	var senses *lexgraph.SensePair
	switch {
	case m.Distance != nil:
		status, reason, senses = m.Distance.Status, m.Distance.Reason, m.Distance.Senses
		value = fmt.Sprintf("%d", m.Distance.Value)
	case m.Similarity != nil:
		status, reason, senses = m.Similarity.Status, m.Similarity.Reason, m.Similarity.Senses
		value = fmt.Sprintf("%.4f", m.Similarity.Value)
	default:
		return
	}
	if status != lexgraph.StatusKnown {
		fmt.Fprintf(w, "%s %s: %s (%s)\n", m.Word1, m.Word2, status, reason)
		return
	}
	fmt.Fprintf(w, "%s %s: %s", m.Word1, m.Word2, value)
	if senses != nil {
		fmt.Fprintf(w, " (%s ~ %s)", senses.A, senses.B)
	}
	fmt.Fprintln(w)
}

// formatSensesText formats SenseInfo results as aligned columns.
func formatSensesText(w io.Writer, infos []lexgraph.SenseInfo) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tPOS\tDEPTH\tLEMMAS\tHYPERNYMS\tGLOSS")
	for _, s := range infos {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n",
			s.Key, s.POS, s.Depth, strings.Join(s.Lemmas, ", "), joinOrDash(s.Hypernyms), s.Gloss)
	}
	tw.Flush()
}

// formatStatsText formats database counts as readable text.
func formatStatsText(w io.Writer, st lexgraph.Stats) {
	fmt.Fprintln(w, "Lexicon Summary")
	fmt.Fprintln(w, "===============")
	fmt.Fprintf(w, "Sources:   %d\n", st.Sources)
	fmt.Fprintf(w, "Senses:    %d\n", st.Senses)
	fmt.Fprintf(w, "Lemmas:    %d\n", st.Lemmas)
	fmt.Fprintf(w, "Relations: %d\n", st.Relations)
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}

// outputResultText dispatches to the appropriate text formatter based on the
// result type.
func outputResultText(w io.Writer, result CLIResult) error {
	switch v := result.Results.(type) {
	case *lexgraph.WordRelations:
		formatWordRelationsText(w, v, result.Command == "relations")
	case CLIMeasure:
		formatMeasureText(w, v)
	case []lexgraph.SenseInfo:
		formatSensesText(w, v)
	case lexgraph.Stats:
		formatStatsText(w, v)
	case nil:
		// No output for nil results.
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}
	return nil
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
