package main

import "github.com/jward/lexgraph"

// CLIResult is the top-level JSON envelope for all query commands.
type CLIResult struct {
	Command    string `json:"command"`
	Results    any    `json:"results"`
	TotalCount *int   `json:"total_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CLIMeasure is a distance or similarity between two query words. Exactly
// one of Distance and Similarity is set.
type CLIMeasure struct {
	Word1      string               `json:"word1"`
	Word2      string               `json:"word2"`
	Distance   *lexgraph.Distance   `json:"distance,omitempty"`
	Similarity *lexgraph.Similarity `json:"similarity,omitempty"`
}
