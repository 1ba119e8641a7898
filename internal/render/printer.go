package render

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"iter"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/zjrosen/cath/internal/grammar"
	"github.com/zjrosen/cath/internal/highlight"
	"github.com/zjrosen/cath/internal/log"
	"github.com/zjrosen/cath/internal/tracing"
)

// Options controls which lines are printed and how.
type Options struct {
	Range       Range
	LineNumbers bool
	// Plain skips tokenizing; every line is one unstyled span.
	Plain    bool
	TabWidth int
}

// Printer highlights one file and writes the selected lines.
type Printer struct {
	renderer    Renderer
	highlighter *highlight.Highlighter
	grammar     *grammar.Grammar
	opts        Options
}

// NewPrinter returns a Printer. h and g may be nil when opts.Plain is set.
func NewPrinter(r Renderer, h *highlight.Highlighter, g *grammar.Grammar, opts Options) *Printer {
	return &Printer{renderer: r, highlighter: h, grammar: g, opts: opts}
}

// CountLines returns the number of lines SplitLines yields for content.
func CountLines(content string) int {
	n := strings.Count(content, "\n")
	if content != "" && !strings.HasSuffix(content, "\n") {
		n++
	}
	return n
}

// Print writes the selected lines of content to w through a buffer flushed
// once at the end. Lines before the range are still highlighted so the parse
// state is correct when the range starts; lines after it are never read.
func (p *Printer) Print(ctx context.Context, w io.Writer, content string) (err error) {
	ctx, span := tracing.Start(ctx, tracing.SpanPrint)
	defer func() { tracing.End(span, err) }()

	total := CountLines(content)
	r := p.opts.Range.Clamp(total)
	span.SetAttributes(
		attribute.Int(tracing.AttrLinesTotal, total),
		attribute.String(tracing.AttrLinesRange, r.String()),
		attribute.Bool(tracing.AttrPlain, p.opts.Plain),
	)

	bw := bufio.NewWriter(w)
	if err := p.renderer.Start(bw); err != nil {
		return fmt.Errorf("start output: %w", err)
	}

	lines, errFn := p.lines(content)
	written := 0
	for n, spans := range lines {
		if err := ctx.Err(); err != nil {
			return err
		}
		if n > r.End {
			break
		}
		if n < r.Start {
			continue
		}
		if p.opts.TabWidth > 0 {
			spans = ExpandTabs(spans, p.opts.TabWidth)
		}
		if err := p.renderer.Line(bw, Line{Number: n, Spans: spans, ShowNumber: p.opts.LineNumbers}); err != nil {
			return fmt.Errorf("write line %d: %w", n, err)
		}
		written++
	}
	if err := errFn(); err != nil {
		return fmt.Errorf("highlight: %w", err)
	}

	if err := p.renderer.Finish(bw); err != nil {
		return fmt.Errorf("finish output: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	span.SetAttributes(attribute.Int(tracing.AttrLinesWritten, written))
	log.Debug(log.CatRender, "printed", "total", total, "range", r.String(), "written", written)
	return nil
}

func (p *Printer) lines(content string) (iter.Seq2[int, []highlight.StyledSpan], func() error) {
	if p.opts.Plain || p.grammar == nil || p.highlighter == nil {
		seq := func(yield func(int, []highlight.StyledSpan) bool) {
			n := 0
			for line := range highlight.SplitLines(content) {
				n++
				if !yield(n, []highlight.StyledSpan{{Text: line}}) {
					return
				}
			}
		}
		return seq, func() error { return nil }
	}

	session := highlight.NewSession(p.grammar, p.highlighter)
	return session.Lines(content), session.Err
}
