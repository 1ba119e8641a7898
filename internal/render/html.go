package render

import (
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/zjrosen/cath/internal/theme"
)

// HTML writes a <pre> block of inline-styled spans.
type HTML struct {
	theme *theme.Theme
}

func NewHTML(t *theme.Theme) *HTML {
	return &HTML{theme: t}
}

func (h *HTML) Start(w io.Writer) error {
	def := h.theme.DefaultStyle()
	_, err := fmt.Fprintf(w, "<pre style=\"background-color:%s;color:%s\">",
		def.Background.Hex(), def.Foreground.Hex())
	return err
}

func (h *HTML) Finish(w io.Writer) error {
	_, err := io.WriteString(w, "</pre>\n")
	return err
}

func (h *HTML) Line(w io.Writer, l Line) error {
	var b strings.Builder
	if l.ShowNumber {
		g := h.theme.GutterStyle()
		fmt.Fprintf(&b, "<span style=\"color:%s;background-color:%s\">%s</span>",
			g.Foreground.Hex(), g.Background.Hex(), gutter(l.Number))
	}

	def := h.theme.DefaultStyle()
	for _, span := range l.Spans {
		if span.Style == def {
			b.WriteString(html.EscapeString(span.Text))
			continue
		}
		fmt.Fprintf(&b, "<span style=\"%s\">%s</span>", h.css(span.Style, def), html.EscapeString(span.Text))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func (h *HTML) css(s, def theme.Style) string {
	var decls []string
	if s.Foreground != def.Foreground {
		decls = append(decls, "color:"+s.Foreground.Hex())
	}
	if s.Background != def.Background {
		decls = append(decls, "background-color:"+s.Background.Hex())
	}
	if s.Font.Has(theme.FontBold) {
		decls = append(decls, "font-weight:bold")
	}
	if s.Font.Has(theme.FontItalic) {
		decls = append(decls, "font-style:italic")
	}
	if s.Font.Has(theme.FontUnderline) {
		decls = append(decls, "text-decoration:underline")
	}
	return strings.Join(decls, ";")
}
