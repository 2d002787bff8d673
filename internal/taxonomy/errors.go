package taxonomy

import (
	"fmt"
	"strings"
)

// LoadError reports every problem found while building a graph. A graph
// that fails validation is never returned.
type LoadError struct {
	Problems []string
}

func (e *LoadError) Error() string {
	if len(e.Problems) == 1 {
		return "taxonomy load: " + e.Problems[0]
	}
	return fmt.Sprintf("taxonomy load: %d problems: %s", len(e.Problems), strings.Join(e.Problems, "; "))
}
