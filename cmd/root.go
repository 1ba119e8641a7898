// Package cmd implements the cath command line.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zjrosen/cath/internal/config"
	"github.com/zjrosen/cath/internal/highlight"
	"github.com/zjrosen/cath/internal/log"
	"github.com/zjrosen/cath/internal/render"
)

var version = "dev"

// rootOptions holds flag values. Flags that mirror config keys only
// override the config when set explicitly.
type rootOptions struct {
	configFile string
	debug      bool

	plain       bool
	lineNumbers bool
	theme       string
	format      string
	color       string
	background  bool
	tabWidth    int

	language  string
	startLine int
	endLine   int
	watch     bool
}

func newRootCmd() *cobra.Command {
	o := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "cath [flags] [FILE]",
		Short: "Print files with syntax highlighting",
		Long: `cath prints a file, or standard input, with syntax highlighting.

Grammars and themes are YAML definitions. The bundled ones can be extended or
replaced from ~/.config/cath/grammars and ~/.config/cath/themes.

Examples:
  cath main.go
  cath -l -s 10 -e 20 main.go
  cat notes.md | cath -L markdown
  cath --format html -t solarized-dark main.go > main.html
  cath -w config.yaml`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          o.runCat,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&o.configFile, "config", "c", "",
		"config file (default: .cath/config.yaml, then ~/.config/cath/config.yaml)")
	pf.BoolVar(&o.debug, "debug", false, "write debug logs to $CATH_LOG (default debug.log)")

	f := cmd.Flags()
	f.BoolVarP(&o.plain, "plain", "p", false, "print without highlighting")
	f.BoolVarP(&o.lineNumbers, "line-numbers", "l", false, "show line numbers")
	f.IntVarP(&o.startLine, "start-line", "s", 1, "first line to print")
	f.IntVarP(&o.endLine, "end-line", "e", 0, "last line to print (0 for end of file)")
	f.StringVarP(&o.theme, "theme", "t", "", "theme name (see 'cath themes')")
	f.StringVarP(&o.language, "language", "L", "", "grammar name or extension (see 'cath grammars')")
	f.StringVar(&o.format, "format", "", "output format: terminal, html or plain")
	f.StringVar(&o.color, "color", "", "color output: auto, always or never")
	f.BoolVar(&o.background, "background", false, "paint theme background colors")
	f.IntVar(&o.tabWidth, "tab-width", 0, "expand tabs to this many columns (0 keeps tabs)")
	f.BoolVarP(&o.watch, "watch", "w", false, "re-print the file whenever it changes")

	cmd.AddCommand(newGrammarsCmd(o), newThemesCmd(o), newConfigCmd(o))
	return cmd
}

// Execute runs the root command.
func Execute() error {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "cath: %v\n", err)
		return err
	}
	return nil
}

// SetVersion sets the version string (called from main with ldflags).
func SetVersion(v string) {
	version = v
}

// applyFlags copies explicitly set flags over cfg.
func (o *rootOptions) applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("theme") {
		cfg.Theme = o.theme
	}
	if flags.Changed("line-numbers") {
		cfg.LineNumbers = o.lineNumbers
	}
	if flags.Changed("format") {
		cfg.Format = o.format
	}
	if flags.Changed("color") {
		cfg.Color = o.color
	}
	if flags.Changed("background") {
		cfg.Background = o.background
	}
	if flags.Changed("tab-width") {
		cfg.TabWidth = o.tabWidth
	}
	if o.plain {
		cfg.Format = string(render.FormatPlain)
	}
}

func (o *rootOptions) runCat(cmd *cobra.Command, args []string) error {
	e, cleanup, err := o.setup(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	path := ""
	if len(args) == 1 && args[0] != "-" {
		path = args[0]
	}
	if o.watch && path == "" {
		return errors.New("--watch needs a file argument")
	}

	ctx := cmd.Context()
	content, err := readInput(cmd.InOrStdin(), path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printer, err := e.newPrinter(ctx, out, path, o.language, firstLine(content), render.Range{Start: o.startLine, End: o.endLine})
	if err != nil {
		return err
	}
	if err := printer.Print(ctx, out, content); err != nil {
		return err
	}
	if !o.watch {
		return nil
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return watchFile(ctx, out, path, printer)
}

// highlighterOptions maps the cache settings onto highlighter options.
func highlighterOptions(cfg config.CacheConfig) []highlight.Option {
	var opts []highlight.Option
	if cfg.TTL > 0 {
		opts = append(opts, highlight.WithCacheTTL(cfg.TTL))
	}
	if cfg.CleanupInterval > 0 {
		opts = append(opts, highlight.WithCleanupInterval(cfg.CleanupInterval))
	}
	return opts
}

func initLogging(debug bool) (func(), error) {
	if !debug && os.Getenv("CATH_DEBUG") == "" {
		return func() {}, nil
	}
	logPath := os.Getenv("CATH_LOG")
	if logPath == "" {
		logPath = "debug.log"
	}
	cleanup, err := log.Init(logPath)
	if err != nil {
		return nil, fmt.Errorf("initializing logging: %w", err)
	}
	log.Info(log.CatConfig, "cath starting", "version", version, "logPath", logPath)
	return cleanup, nil
}
