package theme

import (
	"errors"
	"fmt"
)

var (
	// ErrNoThemes is returned by Load when no theme loaded.
	ErrNoThemes = errors.New("no themes loaded")

	ErrInvalidColor     = errors.New("invalid color")
	ErrInvalidFontStyle = errors.New("invalid font style")
	ErrInvalidSelector  = errors.New("invalid scope selector")
	ErrMissingName      = errors.New("missing theme name")
	ErrEmptyRule        = errors.New("rule sets no style")
)

// LoadError describes one theme definition that failed to load.
type LoadError struct {
	File  string
	Theme string
	Err   error
}

func (e *LoadError) Error() string {
	if e.Theme == "" {
		return fmt.Sprintf("theme %s: %v", e.File, e.Err)
	}
	return fmt.Sprintf("theme %q (%s): %v", e.Theme, e.File, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
