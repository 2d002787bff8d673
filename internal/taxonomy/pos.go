package taxonomy

import "fmt"

// POS is a sense's part-of-speech category, using the resource's one
// letter codes.
type POS string

const (
	Noun               POS = "n"
	Verb               POS = "v"
	Adjective          POS = "a"
	AdjectiveSatellite POS = "s"
	Adverb             POS = "r"
)

// ParsePOS accepts the one letter codes and their long names.
func ParsePOS(s string) (POS, error) {
	switch s {
	case "n", "noun":
		return Noun, nil
	case "v", "verb":
		return Verb, nil
	case "a", "adj", "adjective":
		return Adjective, nil
	case "s", "satellite":
		return AdjectiveSatellite, nil
	case "r", "adv", "adverb":
		return Adverb, nil
	}
	return "", fmt.Errorf("unknown part of speech %q", s)
}

// Matches reports whether a sense of category p satisfies hint. Satellite
// adjectives satisfy an adjective hint and the reverse.
func (p POS) Matches(hint POS) bool {
	if p == hint {
		return true
	}
	adj := func(x POS) bool { return x == Adjective || x == AdjectiveSatellite }
	return adj(p) && adj(hint)
}

func (p POS) String() string { return string(p) }
