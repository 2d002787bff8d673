package runtime

import (
	"path/filepath"
	"strings"
)

// extToLoader maps file extensions to loader script names under load/.
var extToLoader = map[string]string{
	".tsv": "tsv",
	".tab": "tsv",
	".lex": "tsv",
}

// LoaderForFile returns the loader script name for a file path based on
// its extension. Returns ("", false) if the extension is not recognized.
func LoaderForFile(path string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	name, ok := extToLoader[ext]
	return name, ok
}
