// Package expr implements the two per-field expression languages: the
// dot/bracket field-path language and the image-selector language. Both
// share the ?? fallback operator: candidates are evaluated left to
// right and the first one that yields a value wins. A chain where every
// candidate misses is the designed "absence" outcome, not an error.
package expr

import "strings"

// fallbackOperator chains candidate expressions.
const fallbackOperator = "??"

// splitFallback splits an expression on the top-level ?? operator.
// Occurrences inside brackets or double-quoted strings do not split.
func splitFallback(expression string) []string {
	var (
		parts  []string
		start  int
		depth  int
		quoted bool
	)
	for i := 0; i < len(expression); i++ {
		switch expression[i] {
		case '"':
			quoted = !quoted
		case '[':
			if !quoted {
				depth++
			}
		case ']':
			if !quoted && depth > 0 {
				depth--
			}
		case '?':
			if quoted || depth > 0 {
				continue
			}
			if i+1 < len(expression) && expression[i+1] == '?' {
				parts = append(parts, strings.TrimSpace(expression[start:i]))
				i++
				start = i + 1
			}
		}
	}
	parts = append(parts, strings.TrimSpace(expression[start:]))
	return parts
}

// firstHit evaluates each ??-candidate in order and short-circuits on
// the first hit. Later candidates are never evaluated once one
// succeeds, so a malformed or trapping path after a hit is harmless.
func firstHit[T any](expression string, eval func(candidate string) (T, bool, error)) (T, bool, error) {
	var zero T
	for _, candidate := range splitFallback(expression) {
		if candidate == "" {
			continue
		}
		result, ok, err := eval(candidate)
		if err != nil {
			return zero, false, err
		}
		if ok {
			return result, true, nil
		}
	}
	return zero, false, nil
}
