// Package ranges parses user-supplied slot range expressions and renders
// them back into canonical filename tags. Parse and Render share the same
// term grammar so a tag is a faithful summary of the selection it names.
package ranges

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// term is one comma-separated element of a range expression, normalized:
// endpoints swapped when reversed and clamped into [1, max].
type term struct {
	start  int
	end    int
	single bool
}

// Parse expands a range expression into the sorted, deduplicated selection
// it denotes. An empty expression selects every index. Malformed terms are
// returned separately and do not abort the parse.
func Parse(expr string, max int) (indices []int, malformed []string) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		indices = make([]int, 0, max)
		for i := 1; i <= max; i++ {
			indices = append(indices, i)
		}
		return indices, nil
	}

	seen := make(map[int]bool)
	for _, raw := range strings.Split(expr, ",") {
		parsed, ok := parseTerm(raw, max)
		if !ok {
			malformed = append(malformed, strings.TrimSpace(raw))
			continue
		}
		for i := parsed.start; i <= parsed.end; i++ {
			seen[i] = true
		}
	}

	indices = make([]int, 0, len(seen))
	for i := range seen {
		indices = append(indices, i)
	}
	sort.Ints(indices)
	return indices, malformed
}

// Render produces the filename-safe tag for an expression: each term becomes
// the bare integer for singles or "A_B" for ranges (open ends resolved to
// max), joined by commas and prefixed with the operation tag. An empty
// expression renders as "{op}0".
func Render(expr, op string, max int) string {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return op + "0"
	}

	parts := make([]string, 0, 4)
	for _, raw := range strings.Split(expr, ",") {
		parsed, ok := parseTerm(raw, max)
		if !ok {
			continue
		}
		if parsed.single {
			parts = append(parts, strconv.Itoa(parsed.start))
			continue
		}
		parts = append(parts, fmt.Sprintf("%d_%d", parsed.start, parsed.end))
	}
	if len(parts) == 0 {
		return op + "0"
	}
	return op + strings.Join(parts, ",")
}

func parseTerm(raw string, max int) (term, bool) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return term{}, false
	}

	if idx := strings.Index(text, "-"); idx >= 0 {
		startText := strings.TrimSpace(text[:idx])
		endText := strings.TrimSpace(text[idx+1:])

		start, err := strconv.Atoi(startText)
		if err != nil {
			return term{}, false
		}
		end := max
		if endText != "" {
			end, err = strconv.Atoi(endText)
			if err != nil {
				return term{}, false
			}
		}
		if start > end {
			start, end = end, start
		}
		start = clamp(start, max)
		end = clamp(end, max)
		return term{start: start, end: end}, true
	}

	value, err := strconv.Atoi(text)
	if err != nil {
		return term{}, false
	}
	value = clamp(value, max)
	return term{start: value, end: value, single: true}, true
}

func clamp(value, max int) int {
	if value < 1 {
		return 1
	}
	if value > max {
		return max
	}
	return value
}
