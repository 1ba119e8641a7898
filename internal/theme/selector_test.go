package theme

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var stringPath = []string{"source.go", "string.quoted.double.go", "punctuation.definition.string.begin.go"}

func TestSelector_Matches(t *testing.T) {
	tests := []struct {
		selector string
		path     []string
		want     bool
	}{
		{"string", stringPath, true},
		{"string.quoted", stringPath, true},
		{"string.quote", stringPath, false},
		{"source.go string", stringPath, true},
		{"string source.go", stringPath, false},
		{"comment", stringPath, false},
		{"comment, punctuation", stringPath, true},
		{"string - punctuation", stringPath, false},
		{"string - comment", stringPath, true},
		{"source - string punctuation", stringPath, false},
		{"source.rust, source.go", stringPath, true},
		{"source", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.selector, func(t *testing.T) {
			sel, err := ParseSelector(tt.selector)
			require.NoError(t, err)
			_, ok := sel.Score(tt.path)
			require.Equal(t, tt.want, ok)
		})
	}
}

func TestSelector_ScoreOrder(t *testing.T) {
	score := func(s string) float64 {
		sel, err := ParseSelector(s)
		require.NoError(t, err)
		v, ok := sel.Score(stringPath)
		require.True(t, ok, s)
		return v
	}

	// Deeper matches dominate.
	require.Greater(t, score("punctuation"), score("string.quoted.double"))
	require.Greater(t, score("string"), score("source.go"))
	// Longer prefixes beat shorter ones at the same depth.
	require.Greater(t, score("string.quoted"), score("string"))
	// Extra ancestors add to the score.
	require.Greater(t, score("source string"), score("string"))
	// The best alternative counts.
	require.Equal(t, score("punctuation"), score("comment, punctuation, source"))
}

func TestParseSelector_Invalid(t *testing.T) {
	for _, s := range []string{"", "   ", "string,", "- comment", "string -", "a, , b"} {
		t.Run(s, func(t *testing.T) {
			_, err := ParseSelector(s)
			require.ErrorIs(t, err, ErrInvalidSelector)
		})
	}
}

func TestSelector_String(t *testing.T) {
	sel, err := ParseSelector("  string - comment ")
	require.NoError(t, err)
	require.Equal(t, "string - comment", sel.String())
}
