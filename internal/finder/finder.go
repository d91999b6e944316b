// Package finder picks the configured name closest to what the user typed.
package finder

import (
	"fmt"
	"sort"
	"strings"
)

const maxSuggestions = 5

// Score counts the positions at which a and b hold the same character, ignoring case.
func Score(a, b string) int {
	ra := []rune(strings.ToLower(a))
	rb := []rune(strings.ToLower(b))
	n := min(len(ra), len(rb))
	score := 0
	for i := 0; i < n; i++ {
		if ra[i] == rb[i] {
			score++
		}
	}
	return score
}

type candidate struct {
	index int
	score int
}

func rank(query string, names []string) []candidate {
	ranked := make([]candidate, len(names))
	for i, name := range names {
		ranked[i] = candidate{index: i, score: Score(query, name)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})
	return ranked
}

// NoMatchError is returned when no name equals the query.
type NoMatchError struct {
	What        string
	Query       string
	Suggestions []string
}

func (e *NoMatchError) Error() string {
	switch len(e.Suggestions) {
	case 0:
		return fmt.Sprintf("didn't find any %s matching the name '%s'", e.What, e.Query)
	case 1:
		return fmt.Sprintf("no %s for name: %s, did you mean: %s?", e.What, e.Query, e.Suggestions[0])
	default:
		var b strings.Builder
		fmt.Fprintf(&b, "no %s for name: %s, did you mean one of these:", e.What, e.Query)
		for _, s := range e.Suggestions {
			b.WriteString("\n- ")
			b.WriteString(s)
		}
		return b.String()
	}
}

// Find returns the index of the name equal to query (case-insensitive). When there
// is no exact match it returns a *NoMatchError: a single suggestion when the best
// candidate shares at least half of the query's characters, otherwise up to five.
func Find(what, query string, names []string) (int, error) {
	if len(names) == 0 {
		return -1, &NoMatchError{What: what, Query: query}
	}

	for i, name := range names {
		if strings.EqualFold(name, query) {
			return i, nil
		}
	}

	ranked := rank(query, names)
	best := ranked[0]
	queryLen := len([]rune(query))
	if queryLen > 0 && float64(best.score)/float64(queryLen) >= 0.5 {
		return -1, &NoMatchError{What: what, Query: query, Suggestions: []string{names[best.index]}}
	}

	suggestions := make([]string, 0, maxSuggestions)
	for _, c := range ranked {
		if len(suggestions) == maxSuggestions {
			break
		}
		suggestions = append(suggestions, names[c.index])
	}
	return -1, &NoMatchError{What: what, Query: query, Suggestions: suggestions}
}
