package theme

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is an 8-bit RGBA color. A is 0xff for opaque colors.
type Color struct {
	R, G, B, A uint8
}

// ParseColor parses #rgb, #rrggbb or #rrggbbaa.
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	hex, alpha := s, uint8(0xff)
	if len(s) == 9 && s[0] == '#' {
		a, err := strconv.ParseUint(s[7:], 16, 8)
		if err != nil {
			return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
		}
		hex, alpha = s[:7], uint8(a)
	}

	c, err := colorful.Hex(hex)
	if err != nil {
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	r, g, b := c.RGB255()
	return Color{R: r, G: g, B: b, A: alpha}, nil
}

// MustParseColor is ParseColor for constants; it panics on bad input.
func MustParseColor(s string) Color {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Color) colorful() colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}

// Hex returns #rrggbb, dropping alpha.
func (c Color) Hex() string {
	return c.colorful().Hex()
}

func (c Color) String() string {
	if c.A != 0xff {
		return fmt.Sprintf("%s%02x", c.Hex(), c.A)
	}
	return c.Hex()
}

// Over composites c onto an opaque background.
func (c Color) Over(bg Color) Color {
	if c.A == 0xff {
		return c
	}
	blended := bg.colorful().BlendRgb(c.colorful(), float64(c.A)/255)
	r, g, b := blended.RGB255()
	return Color{R: r, G: g, B: b, A: 0xff}
}

// Dark reports whether the color reads as a dark background.
func (c Color) Dark() bool {
	l, _, _ := c.colorful().Lab()
	return l < 0.5
}

var (
	black = Color{A: 0xff}
	white = Color{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)
