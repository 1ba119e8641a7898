package grammar

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestHasBackrefs(t *testing.T) {
	tests := []struct {
		expr string
		want bool
	}{
		{`^\1$`, true},
		{`abc`, false},
		{`\\1`, false},
		{`\\\1`, true},
		{`\d+`, false},
		{`\0`, false},
		{`x\`, false},
	}
	for _, tc := range tests {
		require.Equal(t, tc.want, hasBackrefs(tc.expr), tc.expr)
	}
}

func TestPattern_ResolveEscapesCaptures(t *testing.T) {
	p, err := CompilePattern(`^\1$`)
	require.NoError(t, err)
	require.True(t, p.HasBackrefs())

	re, err := p.Resolve([]string{"<<a.b*", "a.b*"})
	require.NoError(t, err)

	ok, err := re.MatchString("a.b*")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = re.MatchString("aXbbb")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPattern_ResolveWithoutCapturesReturnsBase(t *testing.T) {
	p, err := CompilePattern(`x\2y`)
	require.NoError(t, err)

	re, err := p.Resolve(nil)
	require.NoError(t, err)
	require.Same(t, p.Regexp(), re)

	re, err = p.Resolve([]string{"whole"})
	require.NoError(t, err)
	require.Same(t, p.Regexp(), re)

	ok, err := re.MatchString("xy")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestPattern_IntraPatternBackrefOutsidePush(t *testing.T) {
	p, err := CompilePattern("(`+)[^`]*?\\1")
	require.NoError(t, err)
	require.True(t, p.HasBackrefs())

	ok, err := p.Regexp().MatchString("``code``")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = p.Regexp().MatchString("`code")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPattern_Invalid(t *testing.T) {
	_, err := CompilePattern(`(`)
	require.Error(t, err)
}

func TestPattern_Anchored(t *testing.T) {
	p, err := CompilePattern(`\Gfoo`)
	require.NoError(t, err)
	require.True(t, p.Anchored())
}

func TestExpandVariables(t *testing.T) {
	vars := map[string]string{
		"ident":  `[a-z]+`,
		"dotted": `{{ident}}(\.{{ident}})*`,
		"self":   `{{self}}`,
	}

	got, err := expandVariables(`^{{dotted}}$`, vars)
	require.NoError(t, err)
	require.Equal(t, `^[a-z]+(\.[a-z]+)*$`, got)

	got, err = expandVariables(`a{2}`, vars)
	require.NoError(t, err)
	require.Equal(t, `a{2}`, got)

	_, err = expandVariables(`{{nope}}`, vars)
	require.ErrorIs(t, err, ErrUnknownVar)

	_, err = expandVariables(`{{self}}`, vars)
	require.ErrorIs(t, err, ErrUnknownVar)
}

func TestPattern_ResolvedCaptureMatchesLiterally(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		capture := rapid.StringMatching(`[ -~]{1,12}`).Draw(rt, "capture")

		p, err := CompilePattern(`^\1$`)
		require.NoError(rt, err)
		re, err := p.Resolve([]string{"", capture})
		require.NoError(rt, err)

		ok, err := re.MatchString(capture)
		require.NoError(rt, err)
		require.True(rt, ok)
	})
}
