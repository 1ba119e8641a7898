package theme

import (
	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/zjrosen/cath/internal/assets"
)

// ChromaPrefix prefixes the names of themes imported from chroma.
const ChromaPrefix = "chroma:"

// chromaScopes maps chroma token types to the scope selectors they style.
// Broader types come first so that on equal scores the narrower type wins.
var chromaScopes = []struct {
	token    chroma.TokenType
	selector string
}{
	{chroma.Comment, "comment"},
	{chroma.CommentPreproc, "meta.preprocessor"},
	{chroma.Keyword, "keyword"},
	{chroma.KeywordType, "storage.type"},
	{chroma.KeywordDeclaration, "storage"},
	{chroma.KeywordConstant, "constant.language"},
	{chroma.KeywordNamespace, "keyword.control.import"},
	{chroma.NameFunction, "entity.name.function"},
	{chroma.NameClass, "entity.name.type, entity.name.class"},
	{chroma.NameTag, "entity.name.tag"},
	{chroma.NameAttribute, "entity.other.attribute-name"},
	{chroma.NameBuiltin, "support.function"},
	{chroma.NameVariable, "variable"},
	{chroma.NameConstant, "constant.other"},
	{chroma.NameDecorator, "meta.annotation"},
	{chroma.LiteralString, "string"},
	{chroma.LiteralStringEscape, "constant.character.escape"},
	{chroma.LiteralStringRegex, "string.regexp"},
	{chroma.LiteralNumber, "constant.numeric"},
	{chroma.Operator, "keyword.operator"},
	{chroma.Punctuation, "punctuation"},
	{chroma.GenericHeading, "markup.heading"},
	{chroma.GenericEmph, "markup.italic"},
	{chroma.GenericStrong, "markup.bold"},
	{chroma.GenericInserted, "markup.inserted"},
	{chroma.GenericDeleted, "markup.deleted"},
	{chroma.Error, "invalid"},
}

// FromChroma converts a chroma style into a Theme. Token types the style
// leaves at the background defaults produce no rule.
func FromChroma(s *chroma.Style) *Theme {
	base := s.Get(chroma.Background)

	t := &Theme{
		Name:   ChromaPrefix + s.Name,
		Origin: assets.OriginBuiltIn,
		Path:   "chroma/" + s.Name,
	}
	t.Settings.Background = white
	if base.Background.IsSet() {
		t.Settings.Background = fromColour(base.Background)
	}
	t.Settings.Foreground = black
	if base.Colour.IsSet() {
		t.Settings.Foreground = fromColour(base.Colour)
	} else if t.Settings.Background.Dark() {
		t.Settings.Foreground = white
	}

	gutter := s.Get(chroma.LineNumbers)
	t.Settings.GutterForeground = t.Settings.Foreground
	if gutter.Colour.IsSet() {
		t.Settings.GutterForeground = fromColour(gutter.Colour)
	}
	t.Settings.GutterBackground = t.Settings.Background
	if gutter.Background.IsSet() {
		t.Settings.GutterBackground = fromColour(gutter.Background)
	}

	for _, m := range chromaScopes {
		entry := s.Get(m.token)

		var mod StyleModifier
		if entry.Colour.IsSet() && entry.Colour != base.Colour {
			c := fromColour(entry.Colour)
			mod.Foreground = &c
		}
		if entry.Background.IsSet() && entry.Background != base.Background {
			c := fromColour(entry.Background)
			mod.Background = &c
		}
		var font FontStyle
		if entry.Bold == chroma.Yes {
			font |= FontBold
		}
		if entry.Italic == chroma.Yes {
			font |= FontItalic
		}
		if entry.Underline == chroma.Yes {
			font |= FontUnderline
		}
		if font != 0 {
			mod.Font = &font
		}
		if mod.empty() {
			continue
		}

		sel, err := ParseSelector(m.selector)
		if err != nil {
			panic(err) // selectors above are constants
		}
		t.Rules = append(t.Rules, Rule{Name: m.token.String(), Selector: sel, Style: mod})
	}
	return t
}

func fromColour(c chroma.Colour) Color {
	return Color{R: c.Red(), G: c.Green(), B: c.Blue(), A: 0xff}
}

// chromaThemes converts every registered chroma style, in name order.
func chromaThemes() []*Theme {
	names := styles.Names()
	themes := make([]*Theme, 0, len(names))
	for _, name := range names {
		if s, ok := styles.Registry[name]; ok {
			themes = append(themes, FromChroma(s))
		}
	}
	return themes
}
