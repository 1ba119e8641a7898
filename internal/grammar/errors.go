package grammar

import (
	"errors"
	"fmt"
)

var (
	// ErrNoGrammars is returned by Load when no definition loaded.
	ErrNoGrammars = errors.New("no grammars loaded")

	ErrMissingMain    = errors.New("missing main context")
	ErrUnknownContext = errors.New("unknown context")
	ErrUnknownGrammar = errors.New("unknown grammar scope")
	ErrIncludeCycle   = errors.New("cyclic include")
	ErrUnknownVar     = errors.New("unknown variable")
	ErrInvalidRule    = errors.New("invalid rule")
)

// LoadError describes one grammar definition that failed to load.
type LoadError struct {
	File    string
	Grammar string
	Err     error
}

func (e *LoadError) Error() string {
	if e.Grammar == "" {
		return fmt.Sprintf("grammar %s: %v", e.File, e.Err)
	}
	return fmt.Sprintf("grammar %q (%s): %v", e.Grammar, e.File, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
