package render

import (
	"bytes"
	"context"
	"testing"
	"testing/fstest"

	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/cath/internal/assets"
	"github.com/zjrosen/cath/internal/grammar"
	"github.com/zjrosen/cath/internal/highlight"
	"github.com/zjrosen/cath/internal/theme"
)

const sayGrammar = `
name: Say
scope: source.say
contexts:
  main:
    - match: '"'
      scope: punctuation.definition.string.begin.say
      push: string
    - match: '\b\d+\b'
      scope: constant.numeric.say
  string:
    - meta_scope: string.quoted.double.say
    - match: '"'
      scope: punctuation.definition.string.end.say
      pop: true
`

const sayTheme = `
name: say
settings:
  foreground: '#111111'
  background: '#ffffff'
  gutter_foreground: '#999999'
rules:
  - scope: string
    foreground: '#00aa00'
  - scope: constant.numeric
    foreground: '#0000aa'
    font_style: bold
`

const sample = "say \"hi\"\n\"multi\nline\" 42\n<a & b>\n"

type fixture struct {
	grammar *grammar.Grammar
	theme   *theme.Theme
	h       *highlight.Highlighter
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	grammars, err := grammar.Load(assets.Source{
		FS:    fstest.MapFS{"g/say.yaml": {Data: []byte(sayGrammar)}},
		Root:  "g",
		Label: "test",
	})
	require.NoError(t, err)
	themes, err := theme.Load(assets.Source{
		FS:    fstest.MapFS{"t/say.yaml": {Data: []byte(sayTheme)}},
		Root:  "t",
		Label: "test",
	})
	require.NoError(t, err)

	th := themes.FindByName("say")
	return fixture{
		grammar: grammars.FindByName("say"),
		theme:   th,
		h:       highlight.New(th, grammars),
	}
}

func printString(t *testing.T, p *Printer, content string) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, p.Print(context.Background(), &buf, content))
	return buf.String()
}

func TestRange_Clamp(t *testing.T) {
	tests := []struct {
		name  string
		r     Range
		total int
		want  Range
		empty bool
	}{
		{"all", All, 10, Range{1, 10}, false},
		{"start below one", Range{Start: -3, End: 4}, 10, Range{1, 4}, false},
		{"end past file", Range{Start: 8, End: 50}, 10, Range{8, 10}, false},
		{"start past end", Range{Start: 7, End: 3}, 10, Range{7, 3}, true},
		{"start past file", Range{Start: 20}, 10, Range{20, 10}, true},
		{"empty file", All, 0, Range{1, 0}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.r.Clamp(tt.total))
			require.Equal(t, tt.empty, tt.r.Empty(tt.total))
		})
	}
}

func TestRange_Contains(t *testing.T) {
	r := Range{Start: 2, End: 3}
	require.False(t, r.Contains(1))
	require.True(t, r.Contains(2))
	require.True(t, r.Contains(3))
	require.False(t, r.Contains(4))

	require.True(t, All.Contains(1))
	require.True(t, All.Contains(1_000_000))
	require.Equal(t, "1:EOF", All.String())
	require.Equal(t, "2:3", r.String())
}

func TestRange_PropertyClampAgreesWithContains(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		r := Range{
			Start: rapid.IntRange(-5, 30).Draw(rt, "start"),
			End:   rapid.IntRange(0, 30).Draw(rt, "end"),
		}
		total := rapid.IntRange(0, 25).Draw(rt, "total")
		c := r.Clamp(total)

		require.GreaterOrEqual(rt, c.Start, 1)
		require.LessOrEqual(rt, c.End, total)
		for n := 1; n <= total; n++ {
			require.Equal(rt, r.Contains(n), n >= c.Start && n <= c.End, "line %d", n)
		}
	})
}

func TestCountLines(t *testing.T) {
	require.Equal(t, 0, CountLines(""))
	require.Equal(t, 1, CountLines("a"))
	require.Equal(t, 1, CountLines("a\n"))
	require.Equal(t, 2, CountLines("a\nb"))
	require.Equal(t, 4, CountLines(sample))
}

func TestPrinter_PlainRange(t *testing.T) {
	p := NewPrinter(Plain{}, nil, nil, Options{Plain: true, Range: Range{Start: 2, End: 3}, LineNumbers: true})
	require.Equal(t, "   2 \"multi\n   3 line\" 42\n", printString(t, p, sample))

	p = NewPrinter(Plain{}, nil, nil, Options{Plain: true, Range: Range{Start: 3, End: 2}})
	require.Empty(t, printString(t, p, sample))

	p = NewPrinter(Plain{}, nil, nil, Options{Plain: true})
	require.Equal(t, sample, printString(t, p, sample))
	require.Equal(t, "no newline", printString(t, p, "no newline"))
}

func TestPrinter_TerminalRoundTrips(t *testing.T) {
	f := newFixture(t)

	ascii := NewTerminal(f.theme, TerminalOptions{Profile: termenv.Ascii})
	out := printString(t, NewPrinter(ascii, f.h, f.grammar, Options{}), sample)
	require.Equal(t, sample, out)

	color := NewTerminal(f.theme, TerminalOptions{Profile: termenv.TrueColor, Background: true})
	out = printString(t, NewPrinter(color, f.h, f.grammar, Options{LineNumbers: true}), sample)
	require.Contains(t, out, "\x1b[")
	require.Equal(t, "   1 say \"hi\"\n   2 \"multi\n   3 line\" 42\n   4 <a & b>\n", ansi.Strip(out))
	// Terminators are never inside a styled run.
	require.NotContains(t, out, "\n\x1b[0m")
}

func TestPrinter_StateFlowsIntoRange(t *testing.T) {
	f := newFixture(t)

	out := printString(t, NewPrinter(NewHTML(f.theme), f.h, f.grammar, Options{Range: Range{Start: 3, End: 3}}), sample)
	require.Equal(t,
		`<pre style="background-color:#ffffff;color:#111111">`+
			`<span style="color:#00aa00">line&#34;</span> <span style="color:#0000aa;font-weight:bold">42</span>`+"\n"+
			"</pre>\n",
		out)
}

func TestPrinter_HTMLEscapesAndNumbers(t *testing.T) {
	f := newFixture(t)

	out := printString(t, NewPrinter(NewHTML(f.theme), f.h, f.grammar, Options{Range: Range{Start: 4}, LineNumbers: true}), sample)
	require.Contains(t, out, `<span style="color:#999999;background-color:#ffffff">   4 </span>`)
	require.Contains(t, out, "&lt;a &amp; b&gt;\n")
	require.NotContains(t, out, "<a & b>")
}

func TestPrinter_ExpandsTabs(t *testing.T) {
	p := NewPrinter(Plain{}, nil, nil, Options{Plain: true, TabWidth: 4})
	require.Equal(t, "a   b\n        c\n", printString(t, p, "a\tb\n\t\tc\n"))
}

func TestPrinter_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPrinter(Plain{}, nil, nil, Options{Plain: true})
	err := p.Print(ctx, &bytes.Buffer{}, sample)
	require.ErrorIs(t, err, context.Canceled)
}

func TestExpandTabs(t *testing.T) {
	spans := []highlight.StyledSpan{{Text: "ab"}, {Text: "\tc"}}
	require.Equal(t, []highlight.StyledSpan{{Text: "ab"}, {Text: "  c"}}, ExpandTabs(spans, 4))

	wide := []highlight.StyledSpan{{Text: "世\tx"}}
	require.Equal(t, []highlight.StyledSpan{{Text: "世  x"}}, ExpandTabs(wide, 4))

	require.Equal(t, spans, ExpandTabs(spans, 0))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("HTML")
	require.NoError(t, err)
	require.Equal(t, FormatHTML, f)

	_, err = ParseFormat("pdf")
	require.Error(t, err)
}
