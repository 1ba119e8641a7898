package theme

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want Color
	}{
		{"#fff", Color{0xff, 0xff, 0xff, 0xff}},
		{"#2b303b", Color{0x2b, 0x30, 0x3b, 0xff}},
		{"#2B303B", Color{0x2b, 0x30, 0x3b, 0xff}},
		{"#ffffff80", Color{0xff, 0xff, 0xff, 0x80}},
		{"  #000000  ", Color{0, 0, 0, 0xff}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColor(tt.in)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestParseColor_Invalid(t *testing.T) {
	for _, in := range []string{"", "fff", "#ff", "#ggg", "#1234567", "#ffffffzz", "red"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseColor(in)
			require.ErrorIs(t, err, ErrInvalidColor)
		})
	}
}

func TestColor_String(t *testing.T) {
	require.Equal(t, "#2b303b", MustParseColor("#2b303b").String())
	require.Equal(t, "#2b303b40", MustParseColor("#2b303b40").String())
	require.Equal(t, "#2b303b", MustParseColor("#2b303b40").Hex())
}

func TestColor_Over(t *testing.T) {
	half := MustParseColor("#ffffff80")
	require.Equal(t, Color{128, 128, 128, 0xff}, half.Over(black))

	opaque := MustParseColor("#bf616a")
	require.Equal(t, opaque, opaque.Over(white))

	transparent := MustParseColor("#ff000000")
	require.Equal(t, white, transparent.Over(white))
}

func TestColor_Dark(t *testing.T) {
	require.True(t, MustParseColor("#2b303b").Dark())
	require.True(t, MustParseColor("#002b36").Dark())
	require.False(t, MustParseColor("#eff1f5").Dark())
}

func TestColor_HexRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c := Color{
			R: rapid.Uint8().Draw(t, "r"),
			G: rapid.Uint8().Draw(t, "g"),
			B: rapid.Uint8().Draw(t, "b"),
			A: 0xff,
		}
		parsed, err := ParseColor(c.Hex())
		require.NoError(t, err)
		require.Equal(t, c, parsed)
	})
}

func TestParseFontStyle(t *testing.T) {
	fs, err := ParseFontStyle("bold italic")
	require.NoError(t, err)
	require.True(t, fs.Has(FontBold))
	require.True(t, fs.Has(FontItalic))
	require.False(t, fs.Has(FontUnderline))
	require.Equal(t, "bold italic", fs.String())

	fs, err = ParseFontStyle("")
	require.NoError(t, err)
	require.Zero(t, fs)

	fs, err = ParseFontStyle("regular")
	require.NoError(t, err)
	require.Zero(t, fs)

	_, err = ParseFontStyle("bold blink")
	require.ErrorIs(t, err, ErrInvalidFontStyle)
}
