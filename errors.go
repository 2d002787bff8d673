package lexgraph

import (
	"errors"

	"github.com/jward/lexgraph/internal/text"
)

var (
	// ErrEmptyText is returned for empty or whitespace-only input text.
	ErrEmptyText = text.ErrEmptyText
	// ErrMalformedInput is returned when the tagger's output is unusable.
	ErrMalformedInput = text.ErrMalformedInput
	// ErrEmptyWord is returned when a distance or similarity query names
	// an empty word.
	ErrEmptyWord = errors.New("empty word")
)
