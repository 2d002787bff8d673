// Package text adapts the external tokenizer, tagger and stopword list
// to what the lexical facade needs: a checked sequence of tokens with
// optional part-of-speech tags, and a stopword predicate.
package text

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/jdkato/prose/v2"

	"github.com/jward/lexgraph/internal/taxonomy"
)

var (
	ErrEmptyText      = errors.New("empty text")
	ErrMalformedInput = errors.New("malformed input")
)

// Token is one word of input with its Penn Treebank tag, or "" when the
// tagger does not tag.
type Token struct {
	Text string
	Tag  string
}

// Tagger splits text into tagged tokens.
type Tagger interface {
	Tag(ctx context.Context, text string) ([]Token, error)
}

// ProseTagger tokenizes and tags with prose's averaged perceptron model.
// Sentence segmentation and entity extraction are disabled.
type ProseTagger struct{}

func (ProseTagger) Tag(ctx context.Context, text string) ([]Token, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := prose.NewDocument(text,
		prose.WithSegmentation(false),
		prose.WithExtraction(false))
	if err != nil {
		return nil, fmt.Errorf("tag: %w", err)
	}
	var out []Token
	for _, tok := range doc.Tokens() {
		out = append(out, Token{Text: tok.Text, Tag: tok.Tag})
	}
	return out, nil
}

// FieldsTagger splits on anything that is not a letter, digit, apostrophe
// or hyphen and leaves tokens untagged.
type FieldsTagger struct{}

func (FieldsTagger) Tag(_ context.Context, text string) ([]Token, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\'' && r != '-'
	})
	out := make([]Token, len(words))
	for i, w := range words {
		out[i] = Token{Text: w}
	}
	return out, nil
}

// ValidateTokens rejects tagger output the facade cannot use.
func ValidateTokens(tokens []Token) error {
	if len(tokens) == 0 {
		return fmt.Errorf("%w: no tokens", ErrEmptyText)
	}
	for i, tok := range tokens {
		if strings.TrimSpace(tok.Text) == "" {
			return fmt.Errorf("%w: token %d has no text", ErrMalformedInput, i)
		}
	}
	return nil
}

// CategoryForTag maps a Penn Treebank tag to a sense category.
func CategoryForTag(tag string) (taxonomy.POS, bool) {
	switch {
	case strings.HasPrefix(tag, "NN"):
		return taxonomy.Noun, true
	case strings.HasPrefix(tag, "VB"):
		return taxonomy.Verb, true
	case strings.HasPrefix(tag, "JJ"):
		return taxonomy.Adjective, true
	case strings.HasPrefix(tag, "RB"):
		return taxonomy.Adverb, true
	}
	return "", false
}

// IsWord reports whether s contains at least one letter.
func IsWord(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
