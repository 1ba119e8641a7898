package presentation

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Formatter writes registry listings as JSON or as an aligned table.
type Formatter struct {
	writer   io.Writer
	renderer *lipgloss.Renderer
}

// NewFormatter creates a formatter writing to writer. Header styling follows
// the color support detected for writer.
func NewFormatter(writer io.Writer) *Formatter {
	return &Formatter{
		writer:   writer,
		renderer: lipgloss.NewRenderer(writer),
	}
}

// FormatJSON writes v as indented JSON.
func (f *Formatter) FormatJSON(v any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// FormatGrammars writes one row per grammar.
func (f *Formatter) FormatGrammars(grammars []GrammarDTO) error {
	rows := make([][]string, len(grammars))
	for i, g := range grammars {
		matches := append(append([]string{}, g.Extensions...), g.FileNames...)
		rows[i] = []string{g.Name, g.Scope, strings.Join(matches, " "), g.Source}
	}
	return f.table([]string{"NAME", "SCOPE", "FILES", "SOURCE"}, rows)
}

// FormatThemes writes one row per theme; the selected theme is starred.
func (f *Formatter) FormatThemes(themes []ThemeDTO) error {
	rows := make([][]string, len(themes))
	for i, t := range themes {
		mark := " "
		if t.Selected {
			mark = "*"
		}
		variant := "light"
		if t.Dark {
			variant = "dark"
		}
		rows[i] = []string{mark + " " + t.Name, variant, t.Background, t.Source}
	}
	return f.table([]string{"  NAME", "VARIANT", "BACKGROUND", "SOURCE"}, rows)
}

func (f *Formatter) table(header []string, rows [][]string) error {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	headerStyle := f.renderer.NewStyle().Bold(true)
	if err := f.row(header, widths, headerStyle); err != nil {
		return err
	}
	plain := f.renderer.NewStyle()
	for _, row := range rows {
		if err := f.row(row, widths, plain); err != nil {
			return err
		}
	}
	return nil
}

func (f *Formatter) row(cells []string, widths []int, style lipgloss.Style) error {
	var b strings.Builder
	last := len(cells) - 1
	for i, cell := range cells {
		if i == last {
			b.WriteString(style.Render(cell))
			break
		}
		b.WriteString(style.Width(widths[i] + 2).Render(cell))
	}
	_, err := fmt.Fprintln(f.writer, strings.TrimRight(b.String(), " "))
	return err
}
