// Package theme loads color themes and resolves scope paths to styles.
package theme

import (
	"github.com/zjrosen/cath/internal/assets"
)

// DefaultThemeName is the theme used when none is configured.
const DefaultThemeName = "base16-ocean.dark"

// Settings are the theme-wide colors.
type Settings struct {
	Foreground       Color
	Background       Color
	GutterForeground Color
	GutterBackground Color
}

// Rule maps a scope selector to a partial style.
type Rule struct {
	Name     string
	Selector Selector
	Style    StyleModifier
}

// Theme is an immutable color theme.
type Theme struct {
	Name     string
	Author   string
	Settings Settings
	Rules    []Rule
	Origin   assets.Origin
	Path     string
}

// DefaultStyle is the style of text no rule matches.
func (t *Theme) DefaultStyle() Style {
	bg := t.Settings.Background.Over(black)
	return Style{
		Foreground: t.Settings.Foreground.Over(bg),
		Background: bg,
	}
}

// GutterStyle is the style of the line-number gutter.
func (t *Theme) GutterStyle() Style {
	base := t.DefaultStyle()
	bg := t.Settings.GutterBackground.Over(base.Background)
	return Style{
		Foreground: t.Settings.GutterForeground.Over(bg),
		Background: bg,
	}
}

// Dark reports whether the theme has a dark background.
func (t *Theme) Dark() bool {
	return t.DefaultStyle().Background.Dark()
}

// StyleFor resolves the style of a scope path (outermost first). Foreground,
// background and font are resolved independently: for each, the best scoring
// rule that sets it wins, and on equal scores the later rule wins.
func (t *Theme) StyleFor(path []string) Style {
	var (
		fg, bg                    *Color
		font                      *FontStyle
		fgScore, bgScore, ftScore float64
	)

	for _, r := range t.Rules {
		score, ok := r.Selector.Score(path)
		if !ok {
			continue
		}
		if r.Style.Foreground != nil && (fg == nil || score >= fgScore) {
			fg, fgScore = r.Style.Foreground, score
		}
		if r.Style.Background != nil && (bg == nil || score >= bgScore) {
			bg, bgScore = r.Style.Background, score
		}
		if r.Style.Font != nil && (font == nil || score >= ftScore) {
			font, ftScore = r.Style.Font, score
		}
	}

	style := t.DefaultStyle()
	if bg != nil {
		style.Background = bg.Over(style.Background)
	}
	if fg != nil {
		style.Foreground = fg.Over(style.Background)
	} else {
		style.Foreground = t.Settings.Foreground.Over(style.Background)
	}
	if font != nil {
		style.Font = *font
	}
	return style
}
