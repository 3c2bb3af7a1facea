package engine

import "strings"

// refusalMarkers are phrases signalling that the model could not answer
// from the provided passages. Such answers are discarded in favour of the
// curated fallback.
var refusalMarkers = []string{
	"i don't know",
	"i do not know",
	"i cannot",
	"i can't answer",
	"no information available",
	"not mentioned in the provided",
}

// acceptable rejects generated answers that are empty, refusals, or
// degenerate repetition. The repetition rule: if a single token accounts
// for more than 60% of a multi-token answer, the generation looped.
func acceptable(answer string) bool {
	trimmed := strings.TrimSpace(answer)
	if trimmed == "" {
		return false
	}

	lower := strings.ToLower(trimmed)
	for _, marker := range refusalMarkers {
		if strings.Contains(lower, marker) {
			return false
		}
	}

	tokens := strings.Fields(lower)
	if len(tokens) >= 5 {
		counts := make(map[string]int, len(tokens))
		max := 0
		for _, t := range tokens {
			counts[t]++
			if counts[t] > max {
				max = counts[t]
			}
		}
		if float64(max) > 0.6*float64(len(tokens)) {
			return false
		}
	}

	return true
}
