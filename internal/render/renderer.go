// Package render writes highlighted lines to terminals, HTML or plain text.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/zjrosen/cath/internal/highlight"
)

// Line is one rendered line.
type Line struct {
	Number     int
	Spans      []highlight.StyledSpan
	ShowNumber bool
}

// Renderer converts styled lines to bytes.
type Renderer interface {
	Start(w io.Writer) error
	Line(w io.Writer, l Line) error
	Finish(w io.Writer) error
}

// Format names a Renderer backend.
type Format string

const (
	FormatTerminal Format = "terminal"
	FormatHTML     Format = "html"
	FormatPlain    Format = "plain"
)

// Formats lists the valid formats.
func Formats() []Format {
	return []Format{FormatTerminal, FormatHTML, FormatPlain}
}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats() {
		if strings.EqualFold(s, string(f)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q (want terminal, html or plain)", s)
}

// gutter formats a line number column.
func gutter(n int) string {
	return fmt.Sprintf("%4d ", n)
}

// splitTerminator separates a trailing "\n" or "\r\n" from text.
func splitTerminator(text string) (body, term string) {
	if strings.HasSuffix(text, "\r\n") {
		return text[:len(text)-2], "\r\n"
	}
	if strings.HasSuffix(text, "\n") {
		return text[:len(text)-1], "\n"
	}
	return text, ""
}

// Plain writes span text only.
type Plain struct{}

func (Plain) Start(io.Writer) error  { return nil }
func (Plain) Finish(io.Writer) error { return nil }

func (Plain) Line(w io.Writer, l Line) error {
	if l.ShowNumber {
		if _, err := io.WriteString(w, gutter(l.Number)); err != nil {
			return err
		}
	}
	for _, span := range l.Spans {
		if _, err := io.WriteString(w, span.Text); err != nil {
			return err
		}
	}
	return nil
}
