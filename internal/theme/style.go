package theme

import (
	"fmt"
	"strings"
)

// FontStyle is a set of font flags.
type FontStyle uint8

const (
	FontBold FontStyle = 1 << iota
	FontItalic
	FontUnderline
)

// ParseFontStyle parses a space separated list of bold, italic and
// underline. "regular" and the empty string mean no flags.
func ParseFontStyle(s string) (FontStyle, error) {
	var fs FontStyle
	for _, f := range strings.Fields(s) {
		switch strings.ToLower(f) {
		case "bold":
			fs |= FontBold
		case "italic":
			fs |= FontItalic
		case "underline":
			fs |= FontUnderline
		case "regular", "normal":
		default:
			return 0, fmt.Errorf("%w: %q", ErrInvalidFontStyle, f)
		}
	}
	return fs, nil
}

func (f FontStyle) Has(flag FontStyle) bool { return f&flag != 0 }

func (f FontStyle) String() string {
	var parts []string
	if f.Has(FontBold) {
		parts = append(parts, "bold")
	}
	if f.Has(FontItalic) {
		parts = append(parts, "italic")
	}
	if f.Has(FontUnderline) {
		parts = append(parts, "underline")
	}
	return strings.Join(parts, " ")
}

// Style is a fully resolved span style. Styles are comparable with ==.
type Style struct {
	Foreground Color
	Background Color
	Font       FontStyle
}

// StyleModifier is the partial style a theme rule sets. Nil fields are left
// to weaker rules or the theme defaults.
type StyleModifier struct {
	Foreground *Color
	Background *Color
	Font       *FontStyle
}

func (m StyleModifier) empty() bool {
	return m.Foreground == nil && m.Background == nil && m.Font == nil
}
