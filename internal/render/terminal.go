package render

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/zjrosen/cath/internal/highlight"
	"github.com/zjrosen/cath/internal/theme"
)

// Terminal writes ANSI escape sequences for the given color profile.
// Line terminators are written outside the styled runs so that a background
// color never bleeds into the next line.
type Terminal struct {
	profile    termenv.Profile
	background bool
	gutter     lipgloss.Style
	cache      map[theme.Style]termenv.Style
}

// TerminalOptions configures a Terminal renderer.
type TerminalOptions struct {
	Profile termenv.Profile
	// Background paints span backgrounds with the theme colors.
	Background bool
}

// NewTerminal returns a Terminal renderer for t.
func NewTerminal(t *theme.Theme, opts TerminalOptions) *Terminal {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(opts.Profile)

	gs := t.GutterStyle()
	gutterStyle := r.NewStyle().Foreground(lipgloss.Color(gs.Foreground.Hex()))
	if opts.Background {
		gutterStyle = gutterStyle.Background(lipgloss.Color(gs.Background.Hex()))
	}

	return &Terminal{
		profile:    opts.Profile,
		background: opts.Background,
		gutter:     gutterStyle,
		cache:      make(map[theme.Style]termenv.Style),
	}
}

func (t *Terminal) Start(io.Writer) error  { return nil }
func (t *Terminal) Finish(io.Writer) error { return nil }

func (t *Terminal) Line(w io.Writer, l Line) error {
	var b strings.Builder
	if l.ShowNumber {
		b.WriteString(t.gutter.Render(gutter(l.Number)))
	}

	var term string
	for i, span := range l.Spans {
		text := span.Text
		if i == len(l.Spans)-1 {
			text, term = splitTerminator(text)
		}
		if text == "" {
			continue
		}
		b.WriteString(t.styleFor(span).Styled(text))
	}
	b.WriteString(term)

	_, err := io.WriteString(w, b.String())
	return err
}

func (t *Terminal) styleFor(span highlight.StyledSpan) termenv.Style {
	if s, ok := t.cache[span.Style]; ok {
		return s
	}
	s := t.profile.String().Foreground(t.profile.Color(span.Style.Foreground.Hex()))
	if t.background {
		s = s.Background(t.profile.Color(span.Style.Background.Hex()))
	}
	if span.Style.Font.Has(theme.FontBold) {
		s = s.Bold()
	}
	if span.Style.Font.Has(theme.FontItalic) {
		s = s.Italic()
	}
	if span.Style.Font.Has(theme.FontUnderline) {
		s = s.Underline()
	}
	t.cache[span.Style] = s
	return s
}
