package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/x/ansi"

	"github.com/zjrosen/cath/internal/log"
	"github.com/zjrosen/cath/internal/render"
	"github.com/zjrosen/cath/internal/watcher"
)

// clearScreen erases the terminal and homes the cursor.
const clearScreen = ansi.EraseEntireScreen + ansi.CursorHomePosition

// watchFile re-prints path after every change until ctx is done.
func watchFile(ctx context.Context, w io.Writer, path string, printer *render.Printer) error {
	fw, err := watcher.New(watcher.DefaultConfig(path))
	if err != nil {
		return err
	}
	changes, err := fw.Start()
	if err != nil {
		_ = fw.Stop()
		return err
	}
	defer func() {
		if err := fw.Stop(); err != nil {
			log.ErrorErr(log.CatWatcher, "stopping watcher", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changes:
			data, err := os.ReadFile(path) // #nosec G304 -- the watched file
			if err != nil {
				// Editors may replace the file in several steps; wait for the next event.
				log.Warn(log.CatWatcher, "reading changed file", "path", path, "error", err.Error())
				continue
			}
			if _, err := io.WriteString(w, clearScreen); err != nil {
				return fmt.Errorf("clearing screen: %w", err)
			}
			if err := printer.Print(ctx, w, string(data)); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
		}
	}
}
