package tracing

// TracerName is the instrumentation scope of cath spans.
const TracerName = "github.com/zjrosen/cath"

// Span names.
const (
	SpanLoadGrammars = "registry.load_grammars"
	SpanLoadThemes   = "registry.load_themes"
	SpanPrint        = "render.print"
)

// Span attribute keys.
const (
	AttrFile         = "file.path"
	AttrGrammar      = "grammar.name"
	AttrTheme        = "theme.name"
	AttrFormat       = "render.format"
	AttrLinesTotal   = "lines.total"
	AttrLinesRange   = "lines.range"
	AttrLinesWritten = "lines.written"
	AttrPlain        = "render.plain"
	AttrCount        = "registry.count"
	AttrWarnings     = "registry.warnings"
)
