package presentation

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/cath/internal/assets"
	"github.com/zjrosen/cath/internal/grammar"
	"github.com/zjrosen/cath/internal/theme"
)

func loadSets(t *testing.T) (*grammar.Set, *theme.Set) {
	t.Helper()
	grammars, err := grammar.Load(assets.BuiltinGrammars())
	require.NoError(t, err)
	themes, err := theme.Load(assets.BuiltinThemes())
	require.NoError(t, err)
	return grammars, themes
}

func TestFromGrammarSet(t *testing.T) {
	grammars, _ := loadSets(t)

	dtos := FromGrammarSet(grammars)
	names := make([]string, len(dtos))
	for i, d := range dtos {
		names[i] = d.Name
	}
	require.Equal(t, []string{
		"C", "Go", "JSON", "Makefile", "Markdown", "Plain Text", "Python", "Rust", "Shell", "YAML",
	}, names)

	var mk GrammarDTO
	for _, d := range dtos {
		if d.Name == "Makefile" {
			mk = d
		}
	}
	require.Equal(t, []string{".mk", ".mak", ".make"}, mk.Extensions)
	require.Contains(t, mk.FileNames, "GNUmakefile")
	require.Equal(t, "built-in", mk.Source)
}

func TestFromThemeSet_MarksSelected(t *testing.T) {
	_, themes := loadSets(t)

	dtos := FromThemeSet(themes, "BASE16-OCEAN.LIGHT")
	require.Len(t, dtos, 3)

	var selected []string
	for _, d := range dtos {
		if d.Selected {
			selected = append(selected, d.Name)
		}
		if d.Name == "base16-ocean.light" {
			require.False(t, d.Dark)
			require.Equal(t, "#eff1f5", d.Background)
		}
		if d.Name == "solarized-dark" {
			require.True(t, d.Dark)
		}
	}
	require.Equal(t, []string{"base16-ocean.light"}, selected)
}

func TestFromTheme_ChromaSource(t *testing.T) {
	tm := &theme.Theme{Name: theme.ChromaPrefix + "monokai", Origin: assets.OriginBuiltIn}
	require.Equal(t, "chroma", FromTheme(tm, false).Source)
}

func TestFormatter_JSON(t *testing.T) {
	grammars, _ := loadSets(t)

	var buf bytes.Buffer
	require.NoError(t, NewFormatter(&buf).FormatJSON(FromGrammarSet(grammars)))

	var decoded []GrammarDTO
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 10)
	require.Equal(t, "source.go", decoded[1].Scope)
	require.Contains(t, buf.String(), "\n  {")
}

func TestFormatter_GrammarTable(t *testing.T) {
	var buf bytes.Buffer
	err := NewFormatter(&buf).FormatGrammars([]GrammarDTO{
		{Name: "Go", Scope: "source.go", Extensions: []string{".go"}, Source: "built-in"},
		{Name: "Makefile", Scope: "source.makefile", Extensions: []string{".mk"}, FileNames: []string{"Makefile"}, Source: "user"},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(ansi.Strip(buf.String()), "\n"), "\n")
	require.Equal(t, []string{
		"NAME      SCOPE            FILES         SOURCE",
		"Go        source.go        .go           built-in",
		"Makefile  source.makefile  .mk Makefile  user",
	}, lines)
}

func TestFormatter_ThemeTable(t *testing.T) {
	var buf bytes.Buffer
	err := NewFormatter(&buf).FormatThemes([]ThemeDTO{
		{Name: "light", Background: "#ffffff", Source: "built-in"},
		{Name: "night", Dark: true, Background: "#000000", Source: "user", Selected: true},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(ansi.Strip(buf.String()), "\n"), "\n")
	require.Equal(t, []string{
		"  NAME   VARIANT  BACKGROUND  SOURCE",
		"  light  light    #ffffff     built-in",
		"* night  dark     #000000     user",
	}, lines)
}
