package finder

import (
	"errors"
	"strings"
	"testing"
)

func TestScore(t *testing.T) {
	tests := []struct {
		a, b     string
		expected int
	}{
		{"nature", "nature", 6},
		{"Nature", "nATURE", 6},
		{"natur", "nature", 5},
		{"space", "anime", 1},
		{"space", "cars", 0},
		{"", "anything", 0},
	}
	for _, tt := range tests {
		if got := Score(tt.a, tt.b); got != tt.expected {
			t.Errorf("Score(%q, %q): expected %d, got %d", tt.a, tt.b, tt.expected, got)
		}
	}
}

func TestFind(t *testing.T) {
	names := []string{"anime", "nature", "space", "cities", "minimal", "cars"}

	tests := []struct {
		name          string
		query         string
		names         []string
		expectedIndex int
		expectedError string
		suggestions   int
	}{
		{name: "Exact match", query: "space", names: names, expectedIndex: 2},
		{name: "Case insensitive", query: "NATURE", names: names, expectedIndex: 1},
		{name: "Close typo suggests one", query: "natrue", names: names, expectedIndex: -1, expectedError: "did you mean: nature?", suggestions: 1},
		{name: "Far query lists several", query: "zzzz", names: names, expectedIndex: -1, expectedError: "did you mean one of these", suggestions: 5},
		{name: "No candidates", query: "x", names: nil, expectedIndex: -1, expectedError: "didn't find any category", suggestions: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, err := Find("category", tt.query, tt.names)
			if idx != tt.expectedIndex {
				t.Errorf("expected index %d, got %d", tt.expectedIndex, idx)
			}
			if tt.expectedError == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.expectedError) {
				t.Fatalf("expected error containing '%s', got %v", tt.expectedError, err)
			}
			var nm *NoMatchError
			if !errors.As(err, &nm) {
				t.Fatalf("expected *NoMatchError, got %T", err)
			}
			if len(nm.Suggestions) != tt.suggestions {
				t.Errorf("expected %d suggestions, got %d", tt.suggestions, len(nm.Suggestions))
			}
		})
	}
}
